package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateRequestInput struct {
	Title               string
	Description         string
	TargetAudience      string
	ExpectedStartDate   *time.Time
	ExpectedEndDate     *time.Time
	DurationHours       float64
	DeliveryMode        models.DeliveryMode
	Location            string
	BudgetMin           float64
	BudgetMax           float64
	ApplicationDeadline *time.Time
}

type RequestService interface {
	CreateRequest(ctx context.Context, actor models.Actor, input CreateRequestInput) (*models.TrainingRequest, error)
	GetRequest(ctx context.Context, id uint) (*models.TrainingRequest, error)
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.TrainingRequest, error)
	CloseRequest(ctx context.Context, actor models.Actor, id uint) (*models.TrainingRequest, error)
	CancelRequest(ctx context.Context, actor models.Actor, id uint) (*models.TrainingRequest, error)
}

type requestService struct {
	tx       repository.Transactor
	requests repository.RequestRepository
	bookings repository.BookingRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewRequestService(
	tx repository.Transactor,
	requests repository.RequestRepository,
	bookings repository.BookingRepository,
	logger *zap.Logger,
) RequestService {
	return &requestService{tx: tx, requests: requests, bookings: bookings, logger: logger, now: time.Now}
}

func (s *requestService) validate(input CreateRequestInput) error {
	switch {
	case strings.TrimSpace(input.Title) == "":
		return invalid("title is required")
	case input.BudgetMin < 0 || input.BudgetMax < 0:
		return invalid("budget must not be negative")
	case input.BudgetMax < input.BudgetMin:
		return invalid("budget_max must be at least budget_min")
	case input.DurationHours < 0:
		return invalid("duration_hours must not be negative")
	case input.ExpectedStartDate != nil && input.ExpectedEndDate != nil && input.ExpectedEndDate.Before(*input.ExpectedStartDate):
		return invalid("expected_end_date must not be before expected_start_date")
	case input.ApplicationDeadline != nil && input.ApplicationDeadline.Before(s.now()):
		return invalid("application_deadline is in the past")
	}
	switch input.DeliveryMode {
	case "", models.DeliveryOnline, models.DeliveryInPerson, models.DeliveryHybrid:
	default:
		return invalid("unknown delivery_mode %q", input.DeliveryMode)
	}
	return nil
}

func (s *requestService) CreateRequest(ctx context.Context, actor models.Actor, input CreateRequestInput) (*models.TrainingRequest, error) {
	if actor.Role == models.RoleTrainer {
		return nil, fmt.Errorf("%w: trainers cannot post training requests", ErrForbidden)
	}
	if err := s.validate(input); err != nil {
		return nil, err
	}

	req := &models.TrainingRequest{
		ClientID:            actor.UserID,
		Title:               strings.TrimSpace(input.Title),
		Description:         input.Description,
		TargetAudience:      input.TargetAudience,
		ExpectedStartDate:   input.ExpectedStartDate,
		ExpectedEndDate:     input.ExpectedEndDate,
		DurationHours:       input.DurationHours,
		DeliveryMode:        input.DeliveryMode,
		Location:            input.Location,
		BudgetMin:           input.BudgetMin,
		BudgetMax:           input.BudgetMax,
		ApplicationDeadline: input.ApplicationDeadline,
		Status:              models.RequestOpen,
	}
	if err := s.requests.Create(ctx, nil, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info("Training request created", zap.Uint("request_id", req.ID), zap.String("client_id", req.ClientID))
	return req, nil
}

func (s *requestService) GetRequest(ctx context.Context, id uint) (*models.TrainingRequest, error) {
	req, err := s.requests.FindByID(ctx, nil, id)
	if err != nil {
		return nil, lookup(err, "request", id)
	}
	return req, nil
}

func (s *requestService) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.TrainingRequest, error) {
	return s.requests.List(ctx, filter)
}

func (s *requestService) CloseRequest(ctx context.Context, actor models.Actor, id uint) (*models.TrainingRequest, error) {
	return s.move(ctx, actor, id, models.RequestClosed, func(_ context.Context, _ *gorm.DB, req *models.TrainingRequest) error {
		if req.Status != models.RequestOpen {
			return fmt.Errorf("%w: request %d is %s, only open requests can be closed", ErrInvalidState, id, req.Status)
		}
		return nil
	})
}

// CancelRequest withdraws a request that has not turned into a live booking.
func (s *requestService) CancelRequest(ctx context.Context, actor models.Actor, id uint) (*models.TrainingRequest, error) {
	return s.move(ctx, actor, id, models.RequestCancelled, func(ctx context.Context, tx *gorm.DB, req *models.TrainingRequest) error {
		switch req.Status {
		case models.RequestOpen, models.RequestClosed, models.RequestTrainerSelected:
		default:
			return fmt.Errorf("%w: request %d is %s and can no longer be cancelled", ErrInvalidState, id, req.Status)
		}
		if _, err := s.bookings.FindActiveByRequest(ctx, tx, id); err == nil {
			return fmt.Errorf("%w: request %d has an active booking", ErrInvalidState, id)
		} else if !repository.IsNotFound(err) {
			return err
		}
		return nil
	})
}

func (s *requestService) move(
	ctx context.Context,
	actor models.Actor,
	id uint,
	to models.RequestStatus,
	check func(ctx context.Context, tx *gorm.DB, req *models.TrainingRequest) error,
) (*models.TrainingRequest, error) {
	var (
		result *models.TrainingRequest
		from   models.RequestStatus
	)
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		req, err := s.requests.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return lookup(err, "request", id)
		}
		if req.ClientID != actor.UserID {
			return fmt.Errorf("%w: only the owner can change request %d", ErrForbidden, id)
		}
		if err := check(ctx, tx, req); err != nil {
			return err
		}
		from = req.Status
		if err := s.requests.UpdateStatus(ctx, tx, id, req.Status, to); err != nil {
			return err
		}
		req.Status = to
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Training request updated",
		zap.Uint("request_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return result, nil
}
