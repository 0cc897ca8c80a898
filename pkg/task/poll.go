// SPDX-License-Identifier: MPL-2.0

package task

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PollInterval is how often Poll retries fn by default, matching
// pitcrew's self.poll(fn) (retries an assertion-raising check once per
// second until it passes).
const PollInterval = time.Second

// PollOption configures a Poll call.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval time.Duration
}

// WithPollInterval overrides the default one-second retry interval,
// primarily for tests.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) { c.interval = d }
}

// Poll calls fn once per interval (default PollInterval) until it
// returns without an *AssertionError, or until ictx's context is done.
// Any other error from fn aborts the poll immediately — only an
// assertion failure means "not ready yet, try again".
func Poll(ictx InvocationContext, fn func() (any, error), opts ...PollOption) (any, error) {
	cfg := pollConfig{interval: PollInterval}
	for _, opt := range opts {
		opt(&cfg)
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(cfg.interval), ictx.Context)

	return backoff.RetryWithData(func() (any, error) {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		var assertErr *AssertionError
		if !errors.As(err, &assertErr) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}, policy)
}
