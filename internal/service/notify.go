package service

import (
	"context"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type notice struct {
	recipient string
	kind      models.NotificationType
	title     string
	message   string
	data      map[string]any
}

// outboxWriter records notifications next to the state change they describe.
// Delivery happens later from the outbox relay.
type outboxWriter struct {
	repo repository.OutboxRepository
}

func (w outboxWriter) write(ctx context.Context, tx *gorm.DB, notices ...notice) error {
	rows := make([]*models.NotificationOutbox, 0, len(notices))
	for _, n := range notices {
		if n.recipient == "" {
			continue
		}
		rows = append(rows, &models.NotificationOutbox{
			MessageID:   uuid.NewString(),
			RecipientID: n.recipient,
			Type:        n.kind,
			Title:       n.title,
			Message:     n.message,
			Data:        n.data,
			Status:      models.OutboxPending,
		})
	}
	return w.repo.Enqueue(ctx, tx, rows...)
}
