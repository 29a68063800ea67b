package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"hhbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// ErrUnavailable is returned when the database could not be reached after
// the configured number of acquire attempts. Callers treat it as fatal
// for the current cycle, not for the process.
var ErrUnavailable = errors.New("storage unavailable")

// Config configures the SQLite store.
//
// AcquireAttempts/AcquireBackoff bound Acquire(); zero values fall back
// to 3 attempts starting at 500ms, doubling per attempt.
type Config struct {
	Path            string
	BusyTimeout     time.Duration
	AcquireAttempts int
	AcquireBackoff  time.Duration
}

type Store struct {
	db  *sql.DB
	log logx.Logger

	acquireAttempts int
	acquireBackoff  time.Duration
}

// Open opens (creating if needed) the SQLite database, applies pragmas
// and migrations, and verifies connectivity with a retried ping.
func Open(ctx context.Context, cfg Config, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &Store{
		db:              db,
		log:             log,
		acquireAttempts: cfg.AcquireAttempts,
		acquireBackoff:  cfg.AcquireBackoff,
	}
	if st.acquireAttempts <= 0 {
		st.acquireAttempts = 3
	}
	if st.acquireBackoff <= 0 {
		st.acquireBackoff = 500 * time.Millisecond
	}

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	// Deliveries reference postings. Recipients stay unconstrained:
	// their delivery records must survive an unsubscribe.
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	if err := st.Acquire(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := st.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

// Acquire verifies the database is reachable, retrying with exponential
// backoff. After exhausting attempts it returns ErrUnavailable.
func (s *Store) Acquire(ctx context.Context) error {
	var last error
	backoff := s.acquireBackoff
	for attempt := 1; attempt <= s.acquireAttempts; attempt++ {
		last = s.db.PingContext(ctx)
		if last == nil {
			return nil
		}
		s.log.Warn("db ping failed",
			logx.Int("attempt", attempt),
			logx.Int("max_attempts", s.acquireAttempts),
			logx.Err(last))
		if attempt == s.acquireAttempts {
			break
		}
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-t.C:
		}
		backoff *= 2
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, last)
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
