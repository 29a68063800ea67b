package telegram

import (
	"bytes"
	"context"
	"errors"
	"time"

	tele "gopkg.in/telebot.v4"

	"hhbot/internal/domain"
	"hhbot/internal/report"
	"hhbot/pkg/logx"
)

// Subscriptions is the slice of the storage API the command surface
// mutates.
type Subscriptions interface {
	AddRecipient(ctx context.Context, r domain.Recipient) (bool, error)
	RemoveRecipient(ctx context.Context, id int64) (bool, error)
}

// Reporter builds the on-demand export for /report.
type Reporter interface {
	Generate(ctx context.Context) (report.Document, error)
}

const helpText = `🤖 HH vacancy bot

/start — subscribe to new vacancy notifications
/stop — unsubscribe
/report — get a CSV report of all collected vacancies
/help — show this message`

// RegisterCommands wires the subscriber command surface. It only touches
// the exported store operations; the pipeline never sees these paths.
func (a *Adapter) RegisterCommands(subs Subscriptions, reporter Reporter) {
	a.bot.Handle("/start", func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		ctx, cancel := a.handlerCtx()
		defer cancel()

		created, err := subs.AddRecipient(ctx, domain.Recipient{
			ID:           sender.ID,
			Username:     sender.Username,
			FirstName:    sender.FirstName,
			LastName:     sender.LastName,
			RegisteredAt: time.Now(),
		})
		if err != nil {
			a.log.Error("subscribe failed", logx.Int64("chat_id", sender.ID), logx.Err(err))
			return c.Send("⚠ Something went wrong, please try again later.")
		}
		if !created {
			return c.Send("You are already subscribed.")
		}
		a.log.Info("recipient subscribed",
			logx.Int64("chat_id", sender.ID),
			logx.String("username", sender.Username))
		return c.Send("✅ Subscribed! You will now receive new vacancy notifications.\nUse /report for an export of everything collected so far.")
	})

	a.bot.Handle("/stop", func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		ctx, cancel := a.handlerCtx()
		defer cancel()

		removed, err := subs.RemoveRecipient(ctx, sender.ID)
		if err != nil {
			a.log.Error("unsubscribe failed", logx.Int64("chat_id", sender.ID), logx.Err(err))
			return c.Send("⚠ Something went wrong, please try again later.")
		}
		if !removed {
			return c.Send("You were not subscribed.")
		}
		a.log.Info("recipient unsubscribed", logx.Int64("chat_id", sender.ID))
		return c.Send("You will no longer receive notifications. Send /start to subscribe again.")
	})

	a.bot.Handle("/help", func(c tele.Context) error {
		return c.Send(helpText)
	})

	a.bot.Handle("/report", func(c tele.Context) error {
		ctx, cancel := a.handlerCtx()
		defer cancel()

		_ = c.Send("🔄 Building the report, one moment...")

		doc, err := reporter.Generate(ctx)
		if errors.Is(err, report.ErrNoData) {
			return c.Send("No vacancies collected yet.")
		}
		if err != nil {
			a.log.Error("report failed", logx.Err(err))
			return c.Send("⚠ Report generation failed, please try again later.")
		}

		return c.Send(&tele.Document{
			File:     tele.FromReader(bytes.NewReader(doc.Data)),
			FileName: doc.Name,
			Caption:  doc.Caption,
			MIME:     "text/csv",
		})
	})
}
