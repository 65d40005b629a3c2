package mysql

import (
	"context"
	"database/sql"
	"errors"

	"viewora-deals/internal/domain"
)

type MySQLPropertyRepository struct {
	db *sql.DB
}

func NewMySQLPropertyRepository(db *sql.DB) *MySQLPropertyRepository {
	return &MySQLPropertyRepository{db: db}
}

func (r *MySQLPropertyRepository) Get(ctx context.Context, propertyID string) (*domain.Property, error) {
	query := `SELECT id, seller_id, title, status FROM properties WHERE id = ?`

	var property domain.Property
	var status string

	err := r.db.QueryRowContext(ctx, query, propertyID).Scan(
		&property.ID, &property.SellerID, &property.Title, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	property.Status = domain.PropertyStatus(status)
	return &property, nil
}
