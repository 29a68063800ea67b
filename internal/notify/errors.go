package notify

import "errors"

// PermanentError marks a delivery failure that will never succeed for
// this recipient (blocked the bot, account deleted, chat gone). The
// engine reacts by unsubscribing the recipient. Anything else is treated
// as transient and retried on a later cycle.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent delivery failure: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
