package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, tx *gorm.DB, msgs ...*models.NotificationOutbox) error
	ClaimPending(ctx context.Context, tx *gorm.DB, limit int, now time.Time) ([]models.NotificationOutbox, error)
	MarkSent(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error
	// MarkAttemptFailed records a failed publish. A nil retryAt marks the row failed for good.
	MarkAttemptFailed(ctx context.Context, tx *gorm.DB, id uint, attempts int, lastErr string, retryAt *time.Time) error
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Enqueue(ctx context.Context, tx *gorm.DB, msgs ...*models.NotificationOutbox) error {
	if len(msgs) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).Create(msgs).Error
}

// ClaimPending locks up to limit pending rows that are due, skipping rows another relay holds.
func (r *outboxRepository) ClaimPending(ctx context.Context, tx *gorm.DB, limit int, now time.Time) ([]models.NotificationOutbox, error) {
	var msgs []models.NotificationOutbox
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", models.OutboxPending).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
		Order("id ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (r *outboxRepository) MarkSent(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error {
	return tx.WithContext(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": models.OutboxSent, "sent_at": at, "attempts": gorm.Expr("attempts + 1")}).Error
}

func (r *outboxRepository) MarkAttemptFailed(ctx context.Context, tx *gorm.DB, id uint, attempts int, lastErr string, retryAt *time.Time) error {
	status := models.OutboxPending
	if retryAt == nil {
		status = models.OutboxFailed
	}
	return tx.WithContext(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "attempts": attempts, "last_error": lastErr, "next_attempt_at": retryAt}).Error
}
