package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"viewora-deals/internal/domain"
)

type MySQLChatRepository struct {
	db *sql.DB
}

func NewMySQLChatRepository(db *sql.DB) *MySQLChatRepository {
	return &MySQLChatRepository{db: db}
}

func (r *MySQLChatRepository) Save(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	query := `
        INSERT INTO chat_messages (id, interest_id, sender_id, message, is_read, created_at)
        VALUES (?, ?, ?, ?, FALSE, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.InterestID, msg.SenderID, msg.Message, msg.CreatedAt)
	return translateErr(err)
}

func (r *MySQLChatRepository) History(ctx context.Context, interestID string) ([]*domain.ChatMessage, error) {
	query := `
        SELECT id, interest_id, sender_id, message, is_read, created_at
        FROM chat_messages
        WHERE interest_id = ?
        ORDER BY created_at DESC
    `

	rows, err := r.db.QueryContext(ctx, query, interestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		err := rows.Scan(&msg.ID, &msg.InterestID, &msg.SenderID,
			&msg.Message, &msg.IsRead, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

func (r *MySQLChatRepository) MarkRead(ctx context.Context, interestID string, messageIDs []string, readerID string) ([]string, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(messageIDs)), ", ")

	args := []interface{}{interestID, readerID}
	for _, id := range messageIDs {
		args = append(args, id)
	}

	// Select first so the receipt carries only the ids that actually
	// flipped; re-marking read messages is a no-op.
	selectQuery := `
        SELECT id FROM chat_messages
        WHERE interest_id = ? AND is_read = FALSE AND sender_id <> ? AND id IN (` + placeholders + `)`

	rows, err := r.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, err
	}

	var flipped []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		flipped = append(flipped, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(flipped) == 0 {
		return nil, nil
	}

	updateArgs := []interface{}{interestID, readerID}
	updatePlaceholders := strings.TrimSuffix(strings.Repeat("?, ", len(flipped)), ", ")
	for _, id := range flipped {
		updateArgs = append(updateArgs, id)
	}

	updateQuery := `
        UPDATE chat_messages SET is_read = TRUE
        WHERE interest_id = ? AND is_read = FALSE AND sender_id <> ? AND id IN (` + updatePlaceholders + `)`

	if _, err := r.db.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
		return nil, translateErr(err)
	}

	return flipped, nil
}

func (r *MySQLChatRepository) MarkAllRead(ctx context.Context, interestID, readerID string) ([]string, error) {
	selectQuery := `
        SELECT id FROM chat_messages
        WHERE interest_id = ? AND is_read = FALSE AND sender_id <> ?`

	rows, err := r.db.QueryContext(ctx, selectQuery, interestID, readerID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(ids) == 0 {
		return nil, nil
	}

	updateQuery := `
        UPDATE chat_messages SET is_read = TRUE
        WHERE interest_id = ? AND is_read = FALSE AND sender_id <> ?`

	if _, err := r.db.ExecContext(ctx, updateQuery, interestID, readerID); err != nil {
		return nil, translateErr(err)
	}

	return ids, nil
}
