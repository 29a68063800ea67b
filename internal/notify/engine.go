// Package notify fans out pending postings to subscribed recipients and
// records each confirmed delivery, so a (posting, recipient) pair is
// never recorded twice.
package notify

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"hhbot/internal/domain"
	"hhbot/pkg/logx"
)

// Sender delivers text to a single recipient. Implementations wrap
// permanent channel failures in *PermanentError.
type Sender interface {
	Send(ctx context.Context, recipientID int64, text string) error
}

// Store is the slice of the storage API the engine needs.
type Store interface {
	ListPendingPostings(ctx context.Context, limit int) ([]domain.Posting, error)
	ListActiveRecipients(ctx context.Context) ([]domain.Recipient, error)
	DeliveryExists(ctx context.Context, postingID, recipientID int64) (bool, error)
	RecordDelivery(ctx context.Context, postingID, recipientID int64) error
	RemoveRecipient(ctx context.Context, id int64) (bool, error)
}

type Config struct {
	// PendingLimit caps how many pending postings one run processes.
	PendingLimit int
	// RatePerSec paces consecutive send attempts.
	RatePerSec int
}

type Engine struct {
	cfg     Config
	store   Store
	sender  Sender
	limiter *rate.Limiter
	log     logx.Logger
}

func NewEngine(cfg Config, store Store, sender Sender, log logx.Logger) *Engine {
	if cfg.PendingLimit <= 0 {
		cfg.PendingLimit = 50
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 2
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{
		cfg:     cfg,
		store:   store,
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log,
	}
}

// Run performs one fan-out pass. Postings come from the store's pending
// query (insertion order), so pairs left over from a crashed or
// transiently failed earlier cycle are retried here with no extra
// bookkeeping. Per-pair failures are contained; only a failure to read
// the pending set or the recipient set is returned.
func (e *Engine) Run(ctx context.Context) error {
	postings, err := e.store.ListPendingPostings(ctx, e.cfg.PendingLimit)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	if len(postings) == 0 {
		e.log.Debug("no pending postings")
		return nil
	}

	recipients, err := e.store.ListActiveRecipients(ctx)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}
	if len(recipients) == 0 {
		e.log.Info("no active recipients", logx.Int("pending", len(postings)))
		return nil
	}

	var sent, skipped, failed int
	removed := make(map[int64]bool)

	for _, posting := range postings {
		text := FormatPosting(posting)
		for _, rcp := range recipients {
			if removed[rcp.ID] {
				continue
			}
			// Safe point: shutdown aborts before the next send, never
			// between a send and its delivery record.
			select {
			case <-ctx.Done():
				e.log.Info("fan-out interrupted",
					logx.Int("sent", sent), logx.Err(ctx.Err()))
				return nil
			default:
			}

			// Defensive re-check: a previous cycle may have recorded the
			// delivery and crashed before this posting left the pending set.
			exists, err := e.store.DeliveryExists(ctx, posting.ID, rcp.ID)
			if err != nil {
				e.log.Warn("delivery lookup failed",
					logx.Int64("posting", posting.ID),
					logx.Int64("recipient", rcp.ID),
					logx.Err(err))
				failed++
				continue
			}
			if exists {
				skipped++
				continue
			}

			if err := e.limiter.Wait(ctx); err != nil {
				return nil
			}

			if err := e.sender.Send(ctx, rcp.ID, text); err != nil {
				if IsPermanent(err) {
					e.log.Info("recipient unreachable, unsubscribing",
						logx.Int64("recipient", rcp.ID),
						logx.Err(err))
					if _, rmErr := e.store.RemoveRecipient(ctx, rcp.ID); rmErr != nil {
						e.log.Error("recipient removal failed",
							logx.Int64("recipient", rcp.ID),
							logx.Err(rmErr))
					}
					removed[rcp.ID] = true
				} else {
					// Transient: no record written, so the pair stays
					// pending and retries next cycle.
					e.log.Warn("send failed, will retry next cycle",
						logx.Int64("posting", posting.ID),
						logx.Int64("recipient", rcp.ID),
						logx.Err(err))
				}
				failed++
				continue
			}

			if err := e.store.RecordDelivery(ctx, posting.ID, rcp.ID); err != nil {
				// The message went out but the record did not stick. The
				// defensive re-check above cannot save us here, so the
				// recipient may see this posting again next cycle. That is
				// the documented at-most-once-recorded tradeoff.
				e.log.Error("delivery record write failed",
					logx.Int64("posting", posting.ID),
					logx.Int64("recipient", rcp.ID),
					logx.Err(err))
				failed++
				continue
			}
			sent++
		}
	}

	e.log.Info("fan-out pass done",
		logx.Int("postings", len(postings)),
		logx.Int("recipients", len(recipients)),
		logx.Int("sent", sent),
		logx.Int("skipped", skipped),
		logx.Int("failed", failed))
	return nil
}
