package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Publisher delivers one encoded notification to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
}

type Options struct {
	Interval       time.Duration
	BatchSize      int
	MaxAttempts    int
	PublishTimeout time.Duration
	// RetryBase is the delay after the first failed publish; it doubles per attempt up to maxRetryDelay.
	RetryBase time.Duration
}

const maxRetryDelay = 30 * time.Minute

// Relay moves committed outbox rows to the broker. Several relays may run at once;
// row claims skip rows another relay already holds.
type Relay struct {
	tx     repository.Transactor
	repo   repository.OutboxRepository
	pub    Publisher
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func NewRelay(tx repository.Transactor, repo repository.OutboxRepository, pub Publisher, opts Options, logger *zap.Logger) *Relay {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = opts.Interval
	}
	return &Relay{tx: tx, repo: repo, pub: pub, opts: opts, logger: logger, now: time.Now}
}

func RoutingKey(t models.NotificationType) string {
	return "notification." + string(t)
}

// Run polls until ctx is cancelled. A full batch that sent something is followed by
// another pass at once; otherwise the relay waits for the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	r.logger.Info("Outbox relay started", zap.Duration("interval", r.opts.Interval), zap.Int("batch_size", r.opts.BatchSize))
	for {
		for {
			claimed, sent, err := r.DispatchBatch(ctx)
			if err != nil && ctx.Err() == nil {
				r.logger.Error("Outbox dispatch failed", zap.Error(err))
			}
			if err != nil || claimed < r.opts.BatchSize || sent == 0 {
				break
			}
		}

		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// DispatchBatch publishes one batch of due rows and reports how many were claimed
// and how many of those reached the broker.
func (r *Relay) DispatchBatch(ctx context.Context) (claimed, sent int, err error) {
	err = r.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.repo.ClaimPending(ctx, tx, r.opts.BatchSize, r.now())
		if err != nil {
			return fmt.Errorf("claim outbox rows: %w", err)
		}
		claimed = len(rows)

		for i := range rows {
			ok, err := r.dispatch(ctx, tx, &rows[i])
			if err != nil {
				return err
			}
			if ok {
				sent++
			}
		}
		return nil
	})
	return claimed, sent, err
}

// dispatch only returns store errors; a failed publish is recorded on the row.
func (r *Relay) dispatch(ctx context.Context, tx *gorm.DB, row *models.NotificationOutbox) (bool, error) {
	body, err := json.Marshal(row.ToNotification())
	if err != nil {
		return false, r.fail(ctx, tx, row, fmt.Errorf("encode notification: %w", err), true)
	}

	pctx, cancel := context.WithTimeout(ctx, r.opts.PublishTimeout)
	err = r.pub.Publish(pctx, RoutingKey(row.Type), row.MessageID, body)
	cancel()
	if err != nil {
		return false, r.fail(ctx, tx, row, err, false)
	}

	if err := r.repo.MarkSent(ctx, tx, row.ID, r.now()); err != nil {
		return false, fmt.Errorf("mark outbox row %d sent: %w", row.ID, err)
	}
	return true, nil
}

// retryDelay is the wait after the given number of failed attempts.
func (r *Relay) retryDelay(attempts int) time.Duration {
	d := r.opts.RetryBase
	for i := 1; i < attempts && d < maxRetryDelay; i++ {
		d *= 2
	}
	return min(d, maxRetryDelay)
}

func (r *Relay) fail(ctx context.Context, tx *gorm.DB, row *models.NotificationOutbox, cause error, permanent bool) error {
	attempts := row.Attempts + 1
	final := permanent || attempts >= r.opts.MaxAttempts

	var retryAt *time.Time
	if final {
		r.logger.Error("Notification dropped",
			zap.Uint("outbox_id", row.ID),
			zap.String("message_id", row.MessageID),
			zap.String("recipient", row.RecipientID),
			zap.Int("attempts", attempts),
			zap.Error(cause),
		)
	} else {
		at := r.now().Add(r.retryDelay(attempts))
		retryAt = &at
		r.logger.Warn("Notification publish failed",
			zap.Uint("outbox_id", row.ID),
			zap.String("message_id", row.MessageID),
			zap.Int("attempts", attempts),
			zap.Time("retry_at", *retryAt),
			zap.Error(cause),
		)
	}

	if err := r.repo.MarkAttemptFailed(ctx, tx, row.ID, attempts, cause.Error(), retryAt); err != nil {
		return fmt.Errorf("record outbox failure %d: %w", row.ID, err)
	}
	return nil
}
