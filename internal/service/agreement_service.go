package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/repository"
	"github.com/Eursukkul/trainer-booking-service/pkg/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AgreementService interface {
	EnsureAgreement(ctx context.Context, actor models.Actor, bookingID uint) (*models.Agreement, error)
	GetAgreement(ctx context.Context, actor models.Actor, id uint) (*models.Agreement, error)
	GetByBooking(ctx context.Context, actor models.Actor, bookingID uint) (*models.Agreement, error)
	// Sign accepts the agreement for the caller's side. party may be empty, in which
	// case it is derived from the caller.
	Sign(ctx context.Context, actor models.Actor, agreementID uint, party models.Party) (*models.Agreement, error)
	Reject(ctx context.Context, actor models.Actor, agreementID uint, party models.Party) (*models.Agreement, error)
}

type agreementService struct {
	tx         repository.Transactor
	bookings   repository.BookingRepository
	agreements repository.AgreementRepository
	profiles   repository.ProfileRepository
	ledger     *ledger
	retry      database.RetryPolicy
	logger     *zap.Logger
	now        func() time.Time
}

func NewAgreementService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	requests repository.RequestRepository,
	agreements repository.AgreementRepository,
	profiles repository.ProfileRepository,
	outbox repository.OutboxRepository,
	retry database.RetryPolicy,
	logger *zap.Logger,
) AgreementService {
	return &agreementService{
		tx:         tx,
		bookings:   bookings,
		agreements: agreements,
		profiles:   profiles,
		ledger: &ledger{
			bookings:   bookings,
			requests:   requests,
			agreements: agreements,
			outbox:     outboxWriter{repo: outbox},
		},
		retry:  retry,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureAgreement returns the booking's agreement, creating it on first call.
// Concurrent or retried calls converge on one row through the unique booking_id index.
func (s *agreementService) EnsureAgreement(ctx context.Context, actor models.Actor, bookingID uint) (*models.Agreement, error) {
	var booking *models.Booking
	err := database.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		var err error
		booking, err = s.bookings.FindByID(ctx, nil, bookingID)
		return err
	})
	if err != nil {
		return nil, lookup(err, "booking", bookingID)
	}
	if !actor.IsAdmin() && !booking.IsParty(actor.UserID) {
		return nil, fmt.Errorf("%w: not a party to booking %d", ErrForbidden, bookingID)
	}

	existing, err := s.agreements.FindByBookingID(ctx, nil, bookingID)
	if err == nil {
		return existing, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}
	if booking.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: booking %d is %s; agreements are drawn up while pending", ErrInvalidState, bookingID, booking.Status)
	}

	draft, err := s.draft(ctx, booking)
	if err != nil {
		return nil, err
	}

	var (
		result  *models.Agreement
		created bool
	)
	err = database.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
			locked, err := s.bookings.FindByIDForUpdate(ctx, tx, bookingID)
			if err != nil {
				return lookup(err, "booking", bookingID)
			}
			existing, err := s.agreements.FindByBookingID(ctx, tx, bookingID)
			if err == nil {
				result = existing
				return nil
			}
			if !repository.IsNotFound(err) {
				return err
			}
			// the booking may have moved since the unlocked read
			if locked.Status != models.StatusPending {
				return fmt.Errorf("%w: booking %d is %s; agreements are drawn up while pending", ErrInvalidState, bookingID, locked.Status)
			}

			a := *draft
			ok, err := s.agreements.CreateIfAbsent(ctx, tx, &a)
			if err != nil {
				return err
			}
			created = ok
			if ok {
				if err := s.bookings.SetAgreement(ctx, tx, bookingID, a.ID); err != nil {
					return err
				}
				err := s.ledger.outbox.write(ctx, tx, notice{
					recipient: booking.Counterparty(actor.UserID),
					kind:      models.NotifyAgreementCreated,
					title:     "Agreement ready to sign",
					message:   fmt.Sprintf("The agreement for booking #%d (%q) is ready for your signature", booking.ID, booking.TrainingTopic),
					data:      map[string]any{"booking_id": booking.ID, "agreement_id": a.ID},
				})
				if err != nil {
					return err
				}
			}
			result, err = s.agreements.FindByBookingID(ctx, tx, bookingID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("Agreement created",
			zap.Uint("agreement_id", result.ID),
			zap.Uint("booking_id", bookingID),
			zap.Float64("hourly_rate", result.HourlyRate),
		)
	}
	return result, nil
}

// draft snapshots the booking and both parties as they are right now.
func (s *agreementService) draft(ctx context.Context, b *models.Booking) (*models.Agreement, error) {
	if b.DurationHours <= 0 {
		return nil, invalid("booking %d has no duration to price", b.ID)
	}
	profiles, err := s.profiles.FindByIDs(ctx, nil, b.ClientID, b.TrainerID)
	if err != nil {
		return nil, err
	}

	rate := math.Round(b.TotalAmount/b.DurationHours*100) / 100
	return &models.Agreement{
		BookingID:  b.ID,
		HourlyRate: rate,
		TotalCost:  b.TotalAmount,
		Terms: models.AgreementTerms{
			Client:  partyDetails(b.ClientID, profiles),
			Trainer: partyDetails(b.TrainerID, profiles),
			Booking: models.BookingDetails{
				BookingID:     b.ID,
				TrainingTopic: b.TrainingTopic,
				StartTime:     b.StartTime,
				EndTime:       b.EndTime,
				DurationHours: b.DurationHours,
				Organization:  b.Organization,
				Department:    b.Department,
				Participants:  b.Participants,
			},
			Financial: models.FinancialTerms{HourlyRate: rate, TotalCost: b.TotalAmount},
		},
		ClientSignatureStatus:  models.SignaturePending,
		TrainerSignatureStatus: models.SignaturePending,
		Version:                1,
	}, nil
}

func partyDetails(id string, profiles map[string]models.Profile) models.PartyDetails {
	p, ok := profiles[id]
	if !ok {
		return models.PartyDetails{UserID: id}
	}
	return models.PartyDetails{
		UserID:       id,
		FullName:     p.FullName,
		Email:        p.Email,
		Organization: p.Organization,
		Phone:        p.Phone,
	}
}

func (s *agreementService) GetAgreement(ctx context.Context, actor models.Actor, id uint) (*models.Agreement, error) {
	a, err := s.agreements.FindByID(ctx, nil, id)
	if err != nil {
		return nil, lookup(err, "agreement", id)
	}
	if err := s.authorizeRead(ctx, actor, a.BookingID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *agreementService) GetByBooking(ctx context.Context, actor models.Actor, bookingID uint) (*models.Agreement, error) {
	if err := s.authorizeRead(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	a, err := s.agreements.FindByBookingID(ctx, nil, bookingID)
	if err != nil {
		return nil, lookup(err, "agreement for booking", bookingID)
	}
	return a, nil
}

func (s *agreementService) authorizeRead(ctx context.Context, actor models.Actor, bookingID uint) error {
	booking, err := s.bookings.FindByID(ctx, nil, bookingID)
	if err != nil {
		return lookup(err, "booking", bookingID)
	}
	if !actor.IsAdmin() && !booking.IsParty(actor.UserID) {
		return fmt.Errorf("%w: not a party to booking %d", ErrForbidden, bookingID)
	}
	return nil
}

// lockPair locks the booking and then the agreement, the order every writer uses.
func (s *agreementService) lockPair(ctx context.Context, tx *gorm.DB, agreementID uint) (*models.Agreement, *models.Booking, error) {
	a, err := s.agreements.FindByID(ctx, tx, agreementID)
	if err != nil {
		return nil, nil, lookup(err, "agreement", agreementID)
	}
	booking, err := s.bookings.FindByIDForUpdate(ctx, tx, a.BookingID)
	if err != nil {
		return nil, nil, lookup(err, "booking", a.BookingID)
	}
	a, err = s.agreements.FindByIDForUpdate(ctx, tx, agreementID)
	if err != nil {
		return nil, nil, lookup(err, "agreement", agreementID)
	}
	return a, booking, nil
}

// actingParty resolves which side the caller signs for. Admins cannot sign for either side.
func actingParty(actor models.Actor, booking *models.Booking, requested models.Party) (models.Party, error) {
	if requested != "" && !requested.Valid() {
		return "", invalid("unknown party %q", requested)
	}
	side, ok := booking.PartyOf(actor.UserID)
	if !ok {
		return "", fmt.Errorf("%w: not a party to booking %d", ErrForbidden, booking.ID)
	}
	if requested != "" && requested != side {
		return "", fmt.Errorf("%w: cannot act as %s on booking %d", ErrForbidden, requested, booking.ID)
	}
	return side, nil
}

func (s *agreementService) Sign(ctx context.Context, actor models.Actor, agreementID uint, party models.Party) (*models.Agreement, error) {
	var (
		result    *models.Agreement
		changed   bool
		confirmed bool
	)
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		a, booking, err := s.lockPair(ctx, tx, agreementID)
		if err != nil {
			return err
		}
		side, err := actingParty(actor, booking, party)
		if err != nil {
			return err
		}
		if booking.Status != models.StatusPending {
			return fmt.Errorf("%w: booking %d is %s", ErrInvalidState, booking.ID, booking.Status)
		}

		read := a.Version
		if !a.Sign(side, s.now()) {
			result = a
			return nil
		}
		changed = true
		if err := s.agreements.SaveSignatures(ctx, tx, a, read); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: agreement %d changed concurrently", ErrVersionConflict, a.ID)
			}
			return err
		}
		result = a

		if a.BothSigned() {
			confirmed = true
			return s.ledger.apply(ctx, tx, booking, models.StatusConfirmed, actor.UserID)
		}
		return s.ledger.outbox.write(ctx, tx, notice{
			recipient: booking.UserOf(side.Other()),
			kind:      models.NotifyAgreementSigned,
			title:     "Agreement signed",
			message:   fmt.Sprintf("The %s signed the agreement for booking #%d (%q)", side, booking.ID, booking.TrainingTopic),
			data:      map[string]any{"booking_id": booking.ID, "agreement_id": a.ID, "party": side},
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("Agreement signed",
			zap.Uint("agreement_id", agreementID),
			zap.String("actor", actor.UserID),
			zap.Bool("booking_confirmed", confirmed),
		)
	}
	return result, nil
}

// Reject cancels the booking whatever the other side has done. Signature statuses stay as they were.
func (s *agreementService) Reject(ctx context.Context, actor models.Actor, agreementID uint, party models.Party) (*models.Agreement, error) {
	var result *models.Agreement
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		a, booking, err := s.lockPair(ctx, tx, agreementID)
		if err != nil {
			return err
		}
		side, err := actingParty(actor, booking, party)
		if err != nil {
			return err
		}
		if booking.Status != models.StatusPending {
			return fmt.Errorf("%w: booking %d is %s", ErrInvalidState, booking.ID, booking.Status)
		}

		if err := s.agreements.MarkRejected(ctx, tx, a, side, s.now()); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: agreement %d changed concurrently", ErrVersionConflict, a.ID)
			}
			return err
		}
		result = a
		return s.ledger.apply(ctx, tx, booking, models.StatusCancelled, actor.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Agreement rejected",
		zap.Uint("agreement_id", agreementID),
		zap.String("actor", actor.UserID),
	)
	return result, nil
}
