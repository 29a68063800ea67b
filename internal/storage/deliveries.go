package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// RecordDelivery marks a posting as delivered to a recipient. The pair is
// unique; recording the same pair twice is a no-op.
func (s *Store) RecordDelivery(ctx context.Context, postingID, recipientID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries(posting_id, recipient_id, sent_at)
		 VALUES(?,?,?)
		 ON CONFLICT(posting_id, recipient_id) DO NOTHING`,
		postingID, recipientID, formatTime(time.Now()),
	)
	return err
}

// DeliveryExists reports whether a delivery record exists for the pair.
func (s *Store) DeliveryExists(ctx context.Context, postingID, recipientID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM deliveries WHERE posting_id = ? AND recipient_id = ?`,
		postingID, recipientID,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CountDeliveries returns the total number of delivery records.
func (s *Store) CountDeliveries(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deliveries`).Scan(&n)
	return n, err
}
