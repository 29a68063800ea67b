package storage

import (
	"context"
	"time"

	"hhbot/internal/domain"
)

// AddRecipient registers a subscriber. Registering an existing recipient
// is a no-op; the return value reports whether the row was new.
func (s *Store) AddRecipient(ctx context.Context, r domain.Recipient) (bool, error) {
	registered := r.RegisteredAt
	if registered.IsZero() {
		registered = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recipients(id, username, first_name, last_name, registered_at)
		 VALUES(?,?,?,?,?)
		 ON CONFLICT(id) DO NOTHING`,
		r.ID, r.Username, r.FirstName, r.LastName, formatTime(registered),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveRecipient deletes a subscriber. Delivery records are kept: they
// remain the proof of what was already sent.
func (s *Store) RemoveRecipient(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipients WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListActiveRecipients returns all subscribers in registration order.
func (s *Store) ListActiveRecipients(ctx context.Context) ([]domain.Recipient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, first_name, last_name, registered_at
		 FROM recipients
		 ORDER BY registered_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var r domain.Recipient
		var registeredAt string
		if err := rows.Scan(&r.ID, &r.Username, &r.FirstName, &r.LastName, &registeredAt); err != nil {
			return nil, err
		}
		r.RegisteredAt = parseTime(registeredAt)
		out = append(out, r)
	}
	return out, rows.Err()
}
