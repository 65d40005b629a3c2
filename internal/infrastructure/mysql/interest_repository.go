package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"viewora-deals/internal/domain"
)

// Lock waits longer than this mean another transition holds the row; the
// attempt is failed fast as a conflict rather than left hanging.
const lockWaitSeconds = 5

type MySQLInterestRepository struct {
	db *sql.DB
}

func NewMySQLInterestRepository(db *sql.DB) *MySQLInterestRepository {
	return &MySQLInterestRepository{db: db}
}

const interestColumns = `id, property_id, client_id, broker_id, status, created_at, updated_at`

func scanInterest(row *sql.Row) (*domain.Interest, error) {
	var interest domain.Interest
	var broker sql.NullString
	var status string

	err := row.Scan(&interest.ID, &interest.PropertyID, &interest.ClientID,
		&broker, &status, &interest.CreatedAt, &interest.UpdatedAt)
	if err != nil {
		return nil, err
	}

	interest.BrokerID = broker.String
	interest.Status = domain.InterestStatus(status)
	return &interest, nil
}

func (r *MySQLInterestRepository) beginLocked(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `SET innodb_lock_wait_timeout = ?`, lockWaitSeconds); err != nil {
		tx.Rollback()
		return nil, err
	}
	return tx, nil
}

func (r *MySQLInterestRepository) Create(ctx context.Context, interest *domain.Interest) error {
	query := `
        INSERT INTO interests (id, property_id, client_id, broker_id, status, created_at, updated_at)
        VALUES (?, ?, ?, NULL, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		interest.ID, interest.PropertyID, interest.ClientID,
		string(interest.Status), interest.CreatedAt, interest.UpdatedAt)
	return translateErr(err)
}

func (r *MySQLInterestRepository) Get(ctx context.Context, interestID string) (*domain.Interest, error) {
	query := `SELECT ` + interestColumns + ` FROM interests WHERE id = ?`

	interest, err := scanInterest(r.db.QueryRowContext(ctx, query, interestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return interest, nil
}

func (r *MySQLInterestRepository) Accept(ctx context.Context, interestID, brokerID string) (*domain.Interest, error) {
	tx, err := r.beginLocked(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock scoped to status=requested: a claimed row is indistinguishable
	// from a missing one.
	query := `SELECT ` + interestColumns + ` FROM interests WHERE id = ? AND status = ? FOR UPDATE`

	interest, err := scanInterest(tx.QueryRowContext(ctx, query, interestID, string(domain.InterestRequested)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, translateErr(err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE interests SET broker_id = ?, status = ?, updated_at = ? WHERE id = ?`,
		brokerID, string(domain.InterestAssigned), now, interestID)
	if err != nil {
		return nil, translateErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateErr(err)
	}

	interest.BrokerID = brokerID
	interest.Status = domain.InterestAssigned
	interest.UpdatedAt = now
	return interest, nil
}

func (r *MySQLInterestRepository) Start(ctx context.Context, interestID, brokerID string) (*domain.Interest, error) {
	tx, err := r.beginLocked(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `SELECT ` + interestColumns + ` FROM interests WHERE id = ? AND broker_id = ? FOR UPDATE`

	interest, err := scanInterest(tx.QueryRowContext(ctx, query, interestID, brokerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, translateErr(err)
	}

	switch interest.Status {
	case domain.InterestInProgress:
		// Idempotent: chat may reopen after a reconnect.
		return interest, nil
	case domain.InterestAssigned:
	default:
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE interests SET status = ?, updated_at = ? WHERE id = ?`,
		string(domain.InterestInProgress), now, interestID)
	if err != nil {
		return nil, translateErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateErr(err)
	}

	interest.Status = domain.InterestInProgress
	interest.UpdatedAt = now
	return interest, nil
}

func (r *MySQLInterestRepository) CloseDeal(ctx context.Context, interestID, brokerID string) (*domain.CloseResult, error) {
	tx, err := r.beginLocked(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `SELECT ` + interestColumns + ` FROM interests
        WHERE id = ? AND broker_id = ? AND status = ? FOR UPDATE`

	interest, err := scanInterest(tx.QueryRowContext(ctx, query,
		interestID, brokerID, string(domain.InterestInProgress)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, translateErr(err)
	}

	var sellerID, propertyStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT seller_id, status FROM properties WHERE id = ? FOR UPDATE`,
		interest.PropertyID).Scan(&sellerID, &propertyStatus)
	if err != nil {
		return nil, translateErr(err)
	}

	if domain.PropertyStatus(propertyStatus) == domain.PropertySold {
		return nil, domain.ErrConflict
	}

	now := time.Now()

	_, err = tx.ExecContext(ctx,
		`UPDATE interests SET status = ?, updated_at = ? WHERE id = ?`,
		string(domain.InterestClosed), now, interestID)
	if err != nil {
		return nil, translateErr(err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE properties SET status = ? WHERE id = ?`,
		string(domain.PropertySold), interest.PropertyID)
	if err != nil {
		return nil, translateErr(err)
	}

	// Cancel every other live interest on the property inside the same
	// transaction: either everything commits or nothing does.
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM interests
         WHERE property_id = ? AND id <> ? AND status IN (?, ?, ?) FOR UPDATE`,
		interest.PropertyID, interestID,
		string(domain.InterestRequested), string(domain.InterestAssigned), string(domain.InterestInProgress))
	if err != nil {
		return nil, translateErr(err)
	}

	var cancelledIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		cancelledIDs = append(cancelledIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(cancelledIDs) > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE interests SET status = ?, updated_at = ?
             WHERE property_id = ? AND id <> ? AND status IN (?, ?, ?)`,
			string(domain.InterestCancelled), now,
			interest.PropertyID, interestID,
			string(domain.InterestRequested), string(domain.InterestAssigned), string(domain.InterestInProgress))
		if err != nil {
			return nil, translateErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, translateErr(err)
	}

	interest.Status = domain.InterestClosed
	interest.UpdatedAt = now

	return &domain.CloseResult{
		Interest:     interest,
		PropertyID:   interest.PropertyID,
		SellerID:     sellerID,
		CancelledIDs: cancelledIDs,
	}, nil
}

func (r *MySQLInterestRepository) Cancel(ctx context.Context, interestID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE interests SET status = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?, ?)`,
		string(domain.InterestCancelled), time.Now(), interestID,
		string(domain.InterestRequested), string(domain.InterestAssigned), string(domain.InterestInProgress))
	if err != nil {
		return translateErr(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const unreadJoin = `
    LEFT JOIN (
        SELECT interest_id, COUNT(*) AS unread_count
        FROM chat_messages
        WHERE is_read = FALSE AND sender_id <> ?
        GROUP BY interest_id
    ) u ON u.interest_id = i.id
`

func (r *MySQLInterestRepository) ListByClient(ctx context.Context, clientID string) ([]*domain.InterestWithUnread, error) {
	query := `
        SELECT i.id, i.property_id, i.client_id, i.broker_id, i.status,
               i.created_at, i.updated_at, COALESCE(u.unread_count, 0)
        FROM interests i` + unreadJoin + `
        WHERE i.client_id = ?
        ORDER BY i.created_at DESC
    `
	return r.listWithUnread(ctx, query, clientID, clientID)
}

func (r *MySQLInterestRepository) ListByBroker(ctx context.Context, brokerID string) ([]*domain.InterestWithUnread, error) {
	query := `
        SELECT i.id, i.property_id, i.client_id, i.broker_id, i.status,
               i.created_at, i.updated_at, COALESCE(u.unread_count, 0)
        FROM interests i` + unreadJoin + `
        WHERE i.broker_id = ?
        ORDER BY i.created_at DESC
    `
	return r.listWithUnread(ctx, query, brokerID, brokerID)
}

func (r *MySQLInterestRepository) listWithUnread(ctx context.Context, query string, args ...interface{}) ([]*domain.InterestWithUnread, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interests []*domain.InterestWithUnread
	for rows.Next() {
		var item domain.InterestWithUnread
		var broker sql.NullString
		var status string

		err := rows.Scan(&item.ID, &item.PropertyID, &item.ClientID, &broker,
			&status, &item.CreatedAt, &item.UpdatedAt, &item.UnreadCount)
		if err != nil {
			return nil, err
		}

		item.BrokerID = broker.String
		item.Status = domain.InterestStatus(status)
		interests = append(interests, &item)
	}

	return interests, rows.Err()
}

func (r *MySQLInterestRepository) ListRequested(ctx context.Context) ([]*domain.Interest, error) {
	query := `SELECT ` + interestColumns + ` FROM interests
        WHERE status = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, string(domain.InterestRequested))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interests []*domain.Interest
	for rows.Next() {
		var interest domain.Interest
		var broker sql.NullString
		var status string

		err := rows.Scan(&interest.ID, &interest.PropertyID, &interest.ClientID,
			&broker, &status, &interest.CreatedAt, &interest.UpdatedAt)
		if err != nil {
			return nil, err
		}

		interest.BrokerID = broker.String
		interest.Status = domain.InterestStatus(status)
		interests = append(interests, &interest)
	}

	return interests, rows.Err()
}
