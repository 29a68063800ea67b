// Package telegram adapts the bot API to the two narrow roles the rest
// of the code needs: a notify.Sender for fan-out, and the subscriber
// command surface (/start, /stop, /report, /help).
package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"hhbot/internal/notify"
	"hhbot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

type Adapter struct {
	bot *tele.Bot
	log logx.Logger

	runMu   sync.Mutex
	running bool
	runCtx  context.Context
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{bot: b, log: log}, nil
}

// Start launches the long-poll loop and stops it when ctx is canceled.
func (a *Adapter) Start(ctx context.Context) {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return
	}
	a.running = true
	a.runCtx = ctx
	a.runMu.Unlock()

	go func() {
		<-ctx.Done()
		a.bot.Stop()
	}()
	go func() {
		a.log.Info("polling started")
		a.bot.Start()
		a.log.Info("polling stopped")
	}()
}

// Send implements notify.Sender. Failures that can never succeed for the
// recipient (blocked, deactivated, chat gone) come back wrapped in
// *notify.PermanentError; everything else is transient.
func (a *Adapter) Send(ctx context.Context, recipientID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.bot.Send(&tele.Chat{ID: recipientID}, text, &tele.SendOptions{
		DisableWebPagePreview: true,
	})
	if err == nil {
		return nil
	}
	if isPermanentSendError(err) {
		return &notify.PermanentError{Err: err}
	}
	return err
}

func isPermanentSendError(err error) bool {
	for _, sentinel := range []error{
		tele.ErrBlockedByUser,
		tele.ErrUserIsDeactivated,
		tele.ErrChatNotFound,
		tele.ErrNotStartedByUser,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// handlerCtx derives a bounded context for store calls made from bot
// command handlers.
func (a *Adapter) handlerCtx() (context.Context, context.CancelFunc) {
	a.runMu.Lock()
	base := a.runCtx
	a.runMu.Unlock()
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, 15*time.Second)
}
