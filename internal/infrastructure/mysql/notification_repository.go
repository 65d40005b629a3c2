package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"viewora-deals/internal/domain"
)

type MySQLNotificationRepository struct {
	db *sql.DB
}

func NewMySQLNotificationRepository(db *sql.DB) *MySQLNotificationRepository {
	return &MySQLNotificationRepository{db: db}
}

func (r *MySQLNotificationRepository) Save(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	data := n.Data
	if data == nil {
		data = map[string]string{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO notifications (id, user_id, title, body, data, is_read, created_at)
        VALUES (?, ?, ?, ?, ?, FALSE, ?)
    `
	_, err = r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Title, n.Body, string(dataJSON), n.CreatedAt)
	return translateErr(err)
}
