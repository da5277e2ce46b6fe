// Package sigctx ties the process lifetime to the termination signals.
package sigctx

import (
	"context"
	"os/signal"
	"syscall"
)

// NotifyContext is done on SIGINT, SIGTERM or SIGQUIT.
func NotifyContext() (context.Context, context.CancelFunc) {
	return WithParent(context.Background())
}

// WithParent is [NotifyContext] derived from the parent.
func WithParent(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
}
