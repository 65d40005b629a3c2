package mysql

import (
	"context"
	"database/sql"
	"errors"

	"viewora-deals/internal/domain"
)

type MySQLUserRepository struct {
	db *sql.DB
}

func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

func (r *MySQLUserRepository) Get(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT id, username, email, role, is_approved FROM users WHERE id = ?`

	var user domain.User
	var role string

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Username, &user.Email, &role, &user.IsApproved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	user.Role = domain.UserRole(role)
	return &user, nil
}

func (r *MySQLUserRepository) ApprovedBrokers(ctx context.Context) ([]*domain.User, error) {
	// Ordered by id so the deterministic auto-pick path always sees the
	// same first broker.
	query := `
        SELECT id, username, email, role, is_approved
        FROM users
        WHERE role = ? AND is_approved = TRUE
        ORDER BY id ASC
    `

	rows, err := r.db.QueryContext(ctx, query, string(domain.RoleBroker))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brokers []*domain.User
	for rows.Next() {
		var user domain.User
		var role string

		err := rows.Scan(&user.ID, &user.Username, &user.Email, &role, &user.IsApproved)
		if err != nil {
			return nil, err
		}

		user.Role = domain.UserRole(role)
		brokers = append(brokers, &user)
	}

	return brokers, rows.Err()
}

func (r *MySQLUserRepository) PendingInterestCounts(ctx context.Context) (map[string]int, error) {
	query := `
        SELECT u.id, COUNT(i.id)
        FROM users u
        JOIN interests i ON i.broker_id = u.id AND i.status IN (?, ?)
        WHERE u.role = ? AND u.is_approved = TRUE
        GROUP BY u.id
    `

	rows, err := r.db.QueryContext(ctx, query,
		string(domain.InterestRequested), string(domain.InterestAssigned),
		string(domain.RoleBroker))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var brokerID string
		var count int
		if err := rows.Scan(&brokerID, &count); err != nil {
			return nil, err
		}
		counts[brokerID] = count
	}

	return counts, rows.Err()
}
