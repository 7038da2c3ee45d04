package record

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	applog "github.com/RaidenIV/dj-database/internal/platform/logging"
)

const attemptTimeout = 10 * time.Second

// Opener creates a Store, usually by dialing its database.
type Opener func(ctx context.Context) (Store, error)

// Connect opens a store and pings it, retrying both with exponential
// backoff until the store answers or timeout elapses. Used at startup, when
// the database may still be booting.
func Connect(ctx context.Context, open Opener, timeout time.Duration) (Store, error) {
	var store Store
	err := retry(ctx, timeout, func(ctx context.Context) error {
		s, err := open(ctx)
		if err != nil {
			return err
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close(ctx)
			return err
		}
		store = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// WaitReady pings an open store with exponential backoff until it answers
// or timeout elapses.
func WaitReady(ctx context.Context, store Store, timeout time.Duration) error {
	return retry(ctx, timeout, store.Ping)
}

func retry(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = timeout

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		defer cancel()
		if err := op(attemptCtx); err != nil {
			applog.LogWarn(ctx, "store not ready", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return fmt.Errorf("store not ready after %d attempts: %w", attempt, err)
	}
	return nil
}
