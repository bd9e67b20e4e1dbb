package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/fsm"
	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateBookingInput struct {
	// RequestID makes this a request-originated booking; trainer and price come from the selection.
	RequestID *uint
	// ClientID is only honoured for admin callers booking on a client's behalf.
	ClientID      string
	TrainerID     string
	TrainingTopic string
	StartTime     time.Time
	EndTime       time.Time
	DurationHours float64
	TotalAmount   *float64
	// Paid is the payment gateway's capture signal. Only admin callers may set it.
	Paid         bool
	Organization string
	Department   string
	Participants int
	Notes        string
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor models.Actor, input CreateBookingInput) (*models.Booking, error)
	GetBooking(ctx context.Context, actor models.Actor, id uint) (*models.Booking, error)
	ListBookings(ctx context.Context, actor models.Actor, status *models.BookingStatus) ([]models.Booking, error)
	Transition(ctx context.Context, actor models.Actor, id uint, to models.BookingStatus, expectedVersion *int) (*models.Booking, error)
	AssignTrainer(ctx context.Context, actor models.Actor, id uint, trainerID string) (*models.Booking, error)
	MarkPaid(ctx context.Context, actor models.Actor, id uint) (*models.Booking, error)
}

type bookingService struct {
	tx       repository.Transactor
	bookings repository.BookingRepository
	requests repository.RequestRepository
	apps     repository.ApplicationRepository
	ledger   *ledger
	logger   *zap.Logger
	now      func() time.Time
}

func NewBookingService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	requests repository.RequestRepository,
	apps repository.ApplicationRepository,
	agreements repository.AgreementRepository,
	outbox repository.OutboxRepository,
	logger *zap.Logger,
) BookingService {
	return &bookingService{
		tx:       tx,
		bookings: bookings,
		requests: requests,
		apps:     apps,
		ledger: &ledger{
			bookings:   bookings,
			requests:   requests,
			agreements: agreements,
			outbox:     outboxWriter{repo: outbox},
		},
		logger: logger,
		now:    time.Now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, actor models.Actor, input CreateBookingInput) (*models.Booking, error) {
	if actor.Role == models.RoleTrainer {
		return nil, fmt.Errorf("%w: trainers cannot create bookings", ErrForbidden)
	}

	var result *models.Booking
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var (
			booking *models.Booking
			err     error
		)
		if input.RequestID != nil {
			booking, err = s.fromRequest(ctx, tx, actor, input)
		} else {
			booking, err = s.fromMarketplace(actor, input)
		}
		if err != nil {
			return err
		}
		if err := validateBooking(booking); err != nil {
			return err
		}

		if err := s.bookings.Create(ctx, tx, booking); err != nil {
			if errors.Is(err, repository.ErrDuplicate) && input.RequestID != nil {
				return fmt.Errorf("%w: request %d already has an active booking", ErrInvalidState, *input.RequestID)
			}
			return err
		}

		result = booking
		return s.ledger.outbox.write(ctx, tx, notice{
			recipient: booking.TrainerID,
			kind:      models.NotifyBookingCreated,
			title:     "New booking",
			message:   fmt.Sprintf("Booking #%d for %q was created with status %s", booking.ID, booking.TrainingTopic, booking.Status),
			data:      map[string]any{"booking_id": booking.ID, "status": booking.Status, "topic": booking.TrainingTopic},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		zap.Uint("booking_id", result.ID),
		zap.String("client_id", result.ClientID),
		zap.String("trainer_id", result.TrainerID),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

func (s *bookingService) fromMarketplace(actor models.Actor, input CreateBookingInput) (*models.Booking, error) {
	clientID := actor.UserID
	paid := false
	if actor.IsAdmin() {
		if input.ClientID == "" {
			return nil, invalid("client_id is required when booking on behalf of a client")
		}
		clientID = input.ClientID
		paid = input.Paid
	}
	if input.TrainerID != "" && input.TrainerID == clientID {
		return nil, invalid("trainer and client must differ")
	}
	if input.TotalAmount == nil {
		return nil, invalid("total_amount is required")
	}

	b := newBooking(clientID, input)
	b.TrainerID = input.TrainerID
	b.TotalAmount = *input.TotalAmount

	switch {
	case b.TrainerID == "":
		b.Status = models.StatusPendingAssignment
	case paid:
		b.Status = models.StatusPending
	default:
		b.Status = models.StatusPendingPayment
	}
	if paid {
		at := s.now()
		b.PaidAt = &at
	}
	return b, nil
}

func (s *bookingService) fromRequest(ctx context.Context, tx *gorm.DB, actor models.Actor, input CreateBookingInput) (*models.Booking, error) {
	req, err := s.requests.FindByIDForUpdate(ctx, tx, *input.RequestID)
	if err != nil {
		return nil, lookup(err, "request", *input.RequestID)
	}
	if req.ClientID != actor.UserID {
		return nil, fmt.Errorf("%w: only the request owner can book its selected trainer", ErrForbidden)
	}
	if req.Status != models.RequestTrainerSelected || req.SelectedTrainerID == nil {
		return nil, fmt.Errorf("%w: request %d is %s, not trainer_selected", ErrInvalidState, req.ID, req.Status)
	}
	if _, err := s.bookings.FindActiveByRequest(ctx, tx, req.ID); err == nil {
		return nil, fmt.Errorf("%w: request %d already has an active booking", ErrInvalidState, req.ID)
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	app, err := s.apps.FindByRequestAndTrainer(ctx, tx, req.ID, *req.SelectedTrainerID)
	if err != nil {
		return nil, lookup(err, "selected application for request", req.ID)
	}

	b := newBooking(req.ClientID, input)
	b.RequestID = &req.ID
	b.ApplicationID = &app.ID
	b.TrainerID = app.TrainerID
	b.Status = models.StatusPending
	b.TotalAmount = app.ProposedPrice
	if input.TotalAmount != nil {
		b.TotalAmount = *input.TotalAmount
	}
	if b.TrainingTopic == "" {
		b.TrainingTopic = req.Title
	}
	if b.StartTime.IsZero() && b.EndTime.IsZero() {
		switch {
		case app.ProposedStartDate != nil && app.ProposedEndDate != nil:
			b.StartTime, b.EndTime = *app.ProposedStartDate, *app.ProposedEndDate
		case req.ExpectedStartDate != nil && req.ExpectedEndDate != nil:
			b.StartTime, b.EndTime = *req.ExpectedStartDate, *req.ExpectedEndDate
		}
	}
	if b.DurationHours == 0 {
		switch {
		case app.ProposedDurationHours > 0:
			b.DurationHours = app.ProposedDurationHours
		case req.DurationHours > 0:
			b.DurationHours = req.DurationHours
		case b.EndTime.After(b.StartTime):
			b.DurationHours = b.EndTime.Sub(b.StartTime).Hours()
		}
	}
	return b, nil
}

func newBooking(clientID string, input CreateBookingInput) *models.Booking {
	return &models.Booking{
		ClientID:      clientID,
		TrainingTopic: input.TrainingTopic,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		DurationHours: input.DurationHours,
		Organization:  input.Organization,
		Department:    input.Department,
		Participants:  input.Participants,
		Notes:         input.Notes,
		Version:       1,
	}
}

func validateBooking(b *models.Booking) error {
	switch {
	case b.TrainingTopic == "":
		return invalid("training_topic is required")
	case b.StartTime.IsZero() || b.EndTime.IsZero():
		return invalid("start_time and end_time are required")
	case !b.EndTime.After(b.StartTime):
		return invalid("end_time must be after start_time")
	case b.DurationHours <= 0:
		return invalid("duration_hours must be positive")
	case b.TotalAmount < 0:
		return invalid("total_amount must not be negative")
	case b.Participants < 0:
		return invalid("participants must not be negative")
	}
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor models.Actor, id uint) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, nil, id)
	if err != nil {
		return nil, lookup(err, "booking", id)
	}
	if !actor.IsAdmin() && !booking.IsParty(actor.UserID) {
		return nil, fmt.Errorf("%w: not a party to booking %d", ErrForbidden, id)
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, actor models.Actor, status *models.BookingStatus) ([]models.Booking, error) {
	filter := repository.BookingFilter{Status: status}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	return s.bookings.List(ctx, filter)
}

// Transition is the caller-facing status change. It is never retried: a caller that
// sees ErrVersionConflict must re-read the booking and decide again.
func (s *bookingService) Transition(ctx context.Context, actor models.Actor, id uint, to models.BookingStatus, expectedVersion *int) (*models.Booking, error) {
	if !fsm.IsKnown(to) {
		return nil, invalid("unknown booking status %q", to)
	}

	var (
		result *models.Booking
		from   models.BookingStatus
	)
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		booking, err := s.bookings.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return lookup(err, "booking", id)
		}
		party, isParty := booking.PartyOf(actor.UserID)
		if !isParty && !actor.IsAdmin() {
			return fmt.Errorf("%w: not a party to booking %d", ErrForbidden, id)
		}
		if expectedVersion != nil && *expectedVersion != booking.Version {
			return fmt.Errorf("%w: booking %d is at version %d", ErrVersionConflict, id, booking.Version)
		}
		if !fsm.CanTransition(booking.Status, to) {
			return fmt.Errorf("%w: booking %d cannot move from %s to %s", ErrInvalidTransition, id, booking.Status, to)
		}

		switch to {
		case models.StatusCompleted:
			if !actor.IsAdmin() && party != models.PartyTrainer {
				return fmt.Errorf("%w: only the trainer or an admin can complete a booking", ErrForbidden)
			}
		case models.StatusPending, models.StatusPendingPayment:
			if !actor.IsAdmin() {
				return fmt.Errorf("%w: %s is set by payment and assignment, not by hand", ErrForbidden, to)
			}
		}

		from = booking.Status
		if err := s.ledger.apply(ctx, tx, booking, to, actor.UserID); err != nil {
			return err
		}
		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking transitioned",
		zap.Uint("booking_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor.UserID),
	)
	return result, nil
}

func (s *bookingService) AssignTrainer(ctx context.Context, actor models.Actor, id uint, trainerID string) (*models.Booking, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only an admin can assign trainers", ErrForbidden)
	}
	if trainerID == "" {
		return nil, invalid("trainer_id is required")
	}

	var result *models.Booking
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		booking, err := s.bookings.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return lookup(err, "booking", id)
		}
		if booking.Status != models.StatusPendingAssignment {
			return fmt.Errorf("%w: booking %d is %s, not pending_assignment", ErrInvalidState, id, booking.Status)
		}
		if trainerID == booking.ClientID {
			return invalid("trainer and client must differ")
		}

		to := models.StatusPendingPayment
		if booking.PaidAt != nil {
			to = models.StatusPending
		}
		if err := s.bookings.AssignTrainer(ctx, tx, booking, trainerID, to); err != nil {
			return err
		}
		result = booking
		return s.ledger.outbox.write(ctx, tx, bookingNotice(booking, trainerID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Trainer assigned",
		zap.Uint("booking_id", id),
		zap.String("trainer_id", trainerID),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// MarkPaid observes the gateway's capture signal. Repeating it is harmless.
func (s *bookingService) MarkPaid(ctx context.Context, actor models.Actor, id uint) (*models.Booking, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: payment signals come from the payment gateway", ErrForbidden)
	}

	var result *models.Booking
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		booking, err := s.bookings.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return lookup(err, "booking", id)
		}
		if booking.PaidAt != nil {
			result = booking
			return nil
		}

		var to models.BookingStatus
		switch booking.Status {
		case models.StatusPendingPayment:
			to = models.StatusPending
		case models.StatusPendingAssignment:
			to = models.StatusPendingAssignment
		default:
			return fmt.Errorf("%w: booking %d is %s and takes no payment", ErrInvalidState, id, booking.Status)
		}

		if err := s.bookings.MarkPaid(ctx, tx, booking, s.now(), to); err != nil {
			return err
		}
		result = booking
		if to == models.StatusPendingAssignment {
			return nil
		}
		return s.ledger.outbox.write(ctx, tx, bookingNotice(booking, booking.TrainerID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking paid", zap.Uint("booking_id", id), zap.String("status", string(result.Status)))
	return result, nil
}
