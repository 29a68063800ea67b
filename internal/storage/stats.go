package storage

import "context"

// Stats aggregates posting counts for report captions.
type Stats struct {
	TotalPostings   int
	UniqueCompanies int
	ByExperience    []CategoryCount
	ByWorkFormat    []CategoryCount
}

type CategoryCount struct {
	Category string
	Count    int
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM postings`).Scan(&st.TotalPostings); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT company) FROM postings WHERE company <> ''`,
	).Scan(&st.UniqueCompanies); err != nil {
		return st, err
	}

	var err error
	if st.ByExperience, err = s.countBy(ctx, "experience"); err != nil {
		return st, err
	}
	if st.ByWorkFormat, err = s.countBy(ctx, "work_format"); err != nil {
		return st, err
	}
	return st, nil
}

func (s *Store) countBy(ctx context.Context, column string) ([]CategoryCount, error) {
	// column is one of two fixed identifiers; never user input.
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+column+`, COUNT(*) FROM postings GROUP BY `+column+` ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
