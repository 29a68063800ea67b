package telegram

import (
	"errors"
	"fmt"
	"testing"

	tele "gopkg.in/telebot.v4"

	"hhbot/pkg/logx"
)

func TestIsPermanentSendError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"blocked", tele.ErrBlockedByUser, true},
		{"deactivated", tele.ErrUserIsDeactivated, true},
		{"chat gone", tele.ErrChatNotFound, true},
		{"not started", tele.ErrNotStartedByUser, true},
		{"wrapped blocked", fmt.Errorf("send: %w", tele.ErrBlockedByUser), true},
		{"server error", errors.New("telegram: 502 bad gateway"), false},
		{"network", errors.New("dial tcp: i/o timeout"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isPermanentSendError(tc.err); got != tc.want {
				t.Errorf("isPermanentSendError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestNewRejectsEmptyToken(t *testing.T) {
	if _, err := New(Config{Token: "  "}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
}
