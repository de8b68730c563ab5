package workers

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds the transient-failure retry budget inside a single
// worker invocation. This budget is separate from the pipeline's review
// iteration cap: it covers provider hiccups, not content corrections.
type RetryConfig struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// complete invokes the completer with exponential backoff on transient
// failures. Context cancellation and deadline expiry stop the retry loop
// immediately.
func complete(ctx context.Context, c Completer, rc RetryConfig, prompt string) (string, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(backoff.WithInitialInterval(rc.BaseDelay)),
			rc.MaxRetries,
		),
		ctx,
	)

	var content string
	op := func() error {
		out, err := c.Complete(ctx, prompt)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return backoff.Permanent(err)
			}
			return err
		}
		content = out
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}

	return content, nil
}

// classify maps a completion error to the worker status taxonomy.
func classify(ctx context.Context, err error) Result {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return timeout(err.Error())
	}
	return upstream(err.Error())
}
