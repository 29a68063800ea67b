// Package pipeline runs one ingestion cycle: fetch per region, normalize
// per record, persist with dedup, then hand off to the fan-out engine.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"hhbot/internal/config"
	"hhbot/internal/domain"
	"hhbot/internal/source/hh"
	"hhbot/pkg/logx"
)

// Source fetches raw records for the configured regions.
type Source interface {
	FetchAll(ctx context.Context, query string, regions []config.Region) []hh.Result
}

// Store is the slice of the storage API the pipeline mutates.
type Store interface {
	Acquire(ctx context.Context) error
	UpsertPosting(ctx context.Context, p domain.Posting) (bool, error)
}

// Notifier fans out deliveries for pending postings.
type Notifier interface {
	Run(ctx context.Context) error
}

type Pipeline struct {
	cfg      *config.Manager
	source   Source
	store    Store
	notifier Notifier
	log      logx.Logger
}

func New(cfg *config.Manager, source Source, store Store, notifier Notifier, log logx.Logger) *Pipeline {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Pipeline{cfg: cfg, source: source, store: store, notifier: notifier, log: log}
}

// RunCycle executes one full cycle synchronously. Only storage
// unavailability is returned as an error; everything below cycle level
// is contained and logged.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	start := time.Now()
	snap := p.cfg.Current()

	if err := p.store.Acquire(ctx); err != nil {
		return fmt.Errorf("cycle aborted: %w", err)
	}

	results := p.source.FetchAll(ctx, snap.Source.Query, snap.Source.Regions)
	postings := normalizeAll(results, time.Now(), p.log)
	inserted := p.persist(ctx, postings)

	if err := p.notifier.Run(ctx); err != nil {
		// Fan-out failures are per-pair and already contained; an error
		// here means the store went away mid-cycle.
		return fmt.Errorf("fan-out: %w", err)
	}

	p.log.Info("cycle complete",
		logx.Int("fetched", len(results)),
		logx.Int("normalized", len(postings)),
		logx.Int("new", len(inserted)),
		logx.Duration("took", time.Since(start)))
	return nil
}

// persist inserts postings one by one, relying on the store's unique link
// index to skip anything seen before. A single item's storage failure is
// logged and skipped; the item stays unpersisted and will be retried on
// the next cycle. Returns exactly the genuinely new postings, in input
// order.
func (p *Pipeline) persist(ctx context.Context, postings []domain.Posting) []domain.Posting {
	var inserted []domain.Posting
	for _, posting := range postings {
		created, err := p.store.UpsertPosting(ctx, posting)
		if err != nil {
			p.log.Warn("posting insert failed, skipping",
				logx.String("link", posting.Link),
				logx.Err(err))
			continue
		}
		if created {
			inserted = append(inserted, posting)
			p.log.Debug("new posting",
				logx.String("title", posting.Title),
				logx.String("region", posting.Region),
				logx.String("link", posting.Link))
		}
	}
	return inserted
}
