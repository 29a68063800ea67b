package storage

import (
	"context"
	"database/sql"
	"time"

	"hhbot/internal/domain"
)

// UpsertPosting inserts a posting if its link has not been seen before.
// It reports whether the row was genuinely new; re-ingesting a known link
// is a no-op, never an update.
func (s *Store) UpsertPosting(ctx context.Context, p domain.Posting) (bool, error) {
	fetched := p.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO postings(external_id, title, link, company, salary, experience, work_format, region, published_at, fetched_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(link) DO NOTHING`,
		p.ExternalID, p.Title, p.Link, p.Company, p.Salary, p.Experience,
		string(p.WorkFormat), p.Region, formatTime(p.PublishedAt), formatTime(fetched),
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

// ListPendingPostings returns postings that still lack a delivery record
// for at least one active recipient, oldest insertion first.
func (s *Store) ListPendingPostings(ctx context.Context, limit int) ([]domain.Posting, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.external_id, p.title, p.link, p.company, p.salary,
		        p.experience, p.work_format, p.region, p.published_at, p.fetched_at
		 FROM postings p
		 WHERE EXISTS (
		   SELECT 1 FROM recipients r
		   WHERE NOT EXISTS (
		     SELECT 1 FROM deliveries d
		     WHERE d.posting_id = p.id AND d.recipient_id = r.id
		   )
		 )
		 ORDER BY p.id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPostings(rows)
}

// ListAllPostings returns every stored posting ordered by publication
// time descending. Consumed by the report exporter.
func (s *Store) ListAllPostings(ctx context.Context) ([]domain.Posting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, external_id, title, link, company, salary,
		        experience, work_format, region, published_at, fetched_at
		 FROM postings
		 ORDER BY published_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPostings(rows)
}

func scanPostings(rows *sql.Rows) ([]domain.Posting, error) {
	var out []domain.Posting
	for rows.Next() {
		var p domain.Posting
		var workFormat, publishedAt, fetchedAt string
		if err := rows.Scan(
			&p.ID, &p.ExternalID, &p.Title, &p.Link, &p.Company, &p.Salary,
			&p.Experience, &workFormat, &p.Region, &publishedAt, &fetchedAt,
		); err != nil {
			return nil, err
		}
		p.WorkFormat = domain.WorkFormat(workFormat)
		p.PublishedAt = parseTime(publishedAt)
		p.FetchedAt = parseTime(fetchedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}
