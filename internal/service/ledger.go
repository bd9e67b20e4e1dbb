package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/trainer-booking-service/internal/fsm"
	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/repository"
	"gorm.io/gorm"
)

// ledger owns booking status changes. Every path that moves a booking, including
// agreement signing and rejection, goes through apply inside the caller's transaction.
type ledger struct {
	bookings   repository.BookingRepository
	requests   repository.RequestRepository
	agreements repository.AgreementRepository
	outbox     outboxWriter
}

// apply moves b to status `to` on behalf of actorID and queues exactly one
// notification for the counterparty. b must be locked by tx.
func (l *ledger) apply(ctx context.Context, tx *gorm.DB, b *models.Booking, to models.BookingStatus, actorID string) error {
	if !fsm.CanTransition(b.Status, to) {
		return fmt.Errorf("%w: booking %d cannot move from %s to %s", ErrInvalidTransition, b.ID, b.Status, to)
	}

	if to == models.StatusConfirmed {
		a, err := l.agreements.FindByBookingID(ctx, tx, b.ID)
		if err != nil && !repository.IsNotFound(err) {
			return err
		}
		if a == nil || a.CompletedAt == nil {
			return fmt.Errorf("%w: booking %d has no fully signed agreement", ErrInvalidState, b.ID)
		}
	}

	if err := l.bookings.UpdateStatus(ctx, tx, b, to); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: booking %d changed concurrently", ErrVersionConflict, b.ID)
		}
		return err
	}

	if err := l.syncRequest(ctx, tx, b); err != nil {
		return err
	}

	return l.outbox.write(ctx, tx, bookingNotice(b, b.Counterparty(actorID)))
}

// syncRequest keeps a request-originated booking's request in step with it.
func (l *ledger) syncRequest(ctx context.Context, tx *gorm.DB, b *models.Booking) error {
	if b.RequestID == nil {
		return nil
	}
	var from, to models.RequestStatus
	switch b.Status {
	case models.StatusConfirmed:
		from, to = models.RequestTrainerSelected, models.RequestInProgress
	case models.StatusCompleted:
		from, to = models.RequestInProgress, models.RequestCompleted
	case models.StatusCancelled:
		// a confirmed booking fell through; the client may book again or cancel the request
		from, to = models.RequestInProgress, models.RequestTrainerSelected
	default:
		return nil
	}
	err := l.requests.UpdateStatus(ctx, tx, *b.RequestID, from, to)
	if errors.Is(err, repository.ErrConflict) {
		// request was moved by hand or never left trainer_selected
		return nil
	}
	return err
}

func bookingNotice(b *models.Booking, recipient string) notice {
	return notice{
		recipient: recipient,
		kind:      models.NotifyBookingStatus,
		title:     "Booking " + string(b.Status),
		message:   fmt.Sprintf("Booking #%d for %q is now %s", b.ID, b.TrainingTopic, b.Status),
		data: map[string]any{
			"booking_id": b.ID,
			"status":     b.Status,
			"topic":      b.TrainingTopic,
		},
	}
}
