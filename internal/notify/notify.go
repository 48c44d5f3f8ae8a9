// Package notify alerts the administrator about failures that need a
// human: storage write errors, repeated upstream API failures.
package notify

import "context"

type Notifier interface {
	Notify(ctx context.Context, err error, details string) error
}

// Noop is used when no Telegram token is configured.
type Noop struct{}

func (Noop) Notify(ctx context.Context, err error, details string) error {
	return nil
}
