package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

type RetryPolicy struct {
	MaxRetries uint64
	Base       time.Duration
}

var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, Base: 50 * time.Millisecond}

// WithRetry runs fn until it succeeds, fails with a non-transient error, or the
// policy runs out. Only wrap idempotent work in it.
func WithRetry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	base := p.Base
	if base <= 0 {
		base = DefaultRetryPolicy.Base
	}
	b := retry.WithMaxRetries(p.MaxRetries, retry.WithJitterPercent(10, retry.NewExponential(base)))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// IsTransient reports store errors worth another attempt: lost connections,
// timeouts, serialization failures and deadlocks.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return pgconn.Timeout(err) || pgconn.SafeToRetry(err)
}
