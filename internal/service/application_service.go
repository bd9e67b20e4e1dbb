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

type ApplicationInput struct {
	ProposedPrice         float64
	ProposedStartDate     *time.Time
	ProposedEndDate       *time.Time
	ProposedDurationHours float64
	Message               string
	Syllabus              string
}

// Selection is the outcome of choosing a trainer for a request.
type Selection struct {
	Request     *models.TrainingRequest
	Application *models.TrainingApplication
	Rejected    []uint
}

type ApplicationService interface {
	SubmitApplication(ctx context.Context, actor models.Actor, requestID uint, input ApplicationInput) (*models.TrainingApplication, error)
	GetApplication(ctx context.Context, actor models.Actor, id uint) (*models.TrainingApplication, error)
	ListApplications(ctx context.Context, actor models.Actor, requestID uint) ([]models.TrainingApplication, error)
	UpdateApplicationStatus(ctx context.Context, actor models.Actor, id uint, to models.ApplicationStatus) (*models.TrainingApplication, error)
	SelectTrainer(ctx context.Context, actor models.Actor, requestID, applicationID uint) (*Selection, error)
}

type applicationService struct {
	tx       repository.Transactor
	requests repository.RequestRepository
	apps     repository.ApplicationRepository
	outbox   outboxWriter
	logger   *zap.Logger
	now      func() time.Time
}

func NewApplicationService(
	tx repository.Transactor,
	requests repository.RequestRepository,
	apps repository.ApplicationRepository,
	outbox repository.OutboxRepository,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{
		tx:       tx,
		requests: requests,
		apps:     apps,
		outbox:   outboxWriter{repo: outbox},
		logger:   logger,
		now:      time.Now,
	}
}

func validateProposal(input ApplicationInput) error {
	switch {
	case input.ProposedPrice < 0:
		return invalid("proposed_price must not be negative")
	case input.ProposedDurationHours < 0:
		return invalid("proposed_duration_hours must not be negative")
	case input.ProposedStartDate != nil && input.ProposedEndDate != nil && input.ProposedEndDate.Before(*input.ProposedStartDate):
		return invalid("proposed_end_date must not be before proposed_start_date")
	}
	return nil
}

func (s *applicationService) SubmitApplication(ctx context.Context, actor models.Actor, requestID uint, input ApplicationInput) (*models.TrainingApplication, error) {
	if actor.Role != models.RoleTrainer {
		return nil, fmt.Errorf("%w: only trainers can apply", ErrForbidden)
	}
	if err := validateProposal(input); err != nil {
		return nil, err
	}

	var result *models.TrainingApplication
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		req, err := s.requests.FindByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return lookup(err, "request", requestID)
		}
		if !req.AcceptsApplications(s.now()) {
			return fmt.Errorf("%w: request %d is not accepting applications", ErrInvalidState, requestID)
		}
		if req.ClientID == actor.UserID {
			return fmt.Errorf("%w: cannot apply to your own request", ErrForbidden)
		}

		if _, err := s.apps.FindByRequestAndTrainer(ctx, tx, requestID, actor.UserID); err == nil {
			return ErrDuplicateApplication
		} else if !repository.IsNotFound(err) {
			return err
		}

		app := &models.TrainingApplication{
			RequestID:             requestID,
			TrainerID:             actor.UserID,
			ProposedPrice:         input.ProposedPrice,
			ProposedStartDate:     input.ProposedStartDate,
			ProposedEndDate:       input.ProposedEndDate,
			ProposedDurationHours: input.ProposedDurationHours,
			Message:               input.Message,
			Syllabus:              input.Syllabus,
			Status:                models.ApplicationPending,
		}
		if err := s.apps.Create(ctx, tx, app); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateApplication
			}
			return err
		}
		result = app

		return s.outbox.write(ctx, tx, notice{
			recipient: req.ClientID,
			kind:      models.NotifyApplicationReceived,
			title:     "New application",
			message:   fmt.Sprintf("A trainer applied to %q", req.Title),
			data:      map[string]any{"request_id": req.ID, "application_id": app.ID},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Application submitted",
		zap.Uint("application_id", result.ID),
		zap.Uint("request_id", requestID),
		zap.String("trainer_id", actor.UserID),
	)
	return result, nil
}

func (s *applicationService) GetApplication(ctx context.Context, actor models.Actor, id uint) (*models.TrainingApplication, error) {
	app, err := s.apps.FindByID(ctx, nil, id)
	if err != nil {
		return nil, lookup(err, "application", id)
	}
	if actor.IsAdmin() || app.TrainerID == actor.UserID {
		return app, nil
	}
	req, err := s.requests.FindByID(ctx, nil, app.RequestID)
	if err != nil {
		return nil, lookup(err, "request", app.RequestID)
	}
	if req.ClientID != actor.UserID {
		return nil, fmt.Errorf("%w: application %d belongs to another request owner", ErrForbidden, id)
	}
	return app, nil
}

// ListApplications shows the owner every bid and a trainer only their own.
func (s *applicationService) ListApplications(ctx context.Context, actor models.Actor, requestID uint) ([]models.TrainingApplication, error) {
	req, err := s.requests.FindByID(ctx, nil, requestID)
	if err != nil {
		return nil, lookup(err, "request", requestID)
	}
	if actor.IsAdmin() || req.ClientID == actor.UserID {
		return s.apps.ListByRequest(ctx, requestID, "")
	}
	if actor.Role == models.RoleTrainer {
		return s.apps.ListByRequest(ctx, requestID, actor.UserID)
	}
	return nil, fmt.Errorf("%w: only the request owner can list applications", ErrForbidden)
}

func (s *applicationService) UpdateApplicationStatus(ctx context.Context, actor models.Actor, id uint, to models.ApplicationStatus) (*models.TrainingApplication, error) {
	if to == models.ApplicationSelected {
		return nil, fmt.Errorf("%w: use trainer selection to select an application", ErrInvalidTransition)
	}

	var (
		result *models.TrainingApplication
		from   models.ApplicationStatus
	)
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		app, err := s.apps.FindByID(ctx, tx, id)
		if err != nil {
			return lookup(err, "application", id)
		}
		req, err := s.requests.FindByIDForUpdate(ctx, tx, app.RequestID)
		if err != nil {
			return lookup(err, "request", app.RequestID)
		}
		if req.ClientID != actor.UserID {
			return fmt.Errorf("%w: only the request owner can review applications", ErrForbidden)
		}
		if req.Status != models.RequestOpen {
			return fmt.Errorf("%w: request %d is %s", ErrInvalidState, req.ID, req.Status)
		}
		// re-read under the request lock
		app, err = s.apps.FindByID(ctx, tx, id)
		if err != nil {
			return lookup(err, "application", id)
		}
		if !fsm.CanUpdateApplication(app.Status, to) {
			return fmt.Errorf("%w: application %d cannot move from %s to %s", ErrInvalidTransition, id, app.Status, to)
		}

		from = app.Status
		if err := s.apps.UpdateStatus(ctx, tx, id, app.Status, to); err != nil {
			return err
		}
		app.Status = to
		result = app

		return s.outbox.write(ctx, tx, notice{
			recipient: app.TrainerID,
			kind:      models.NotifyApplicationStatus,
			title:     "Application " + string(to),
			message:   fmt.Sprintf("Your application to %q is now %s", req.Title, to),
			data:      map[string]any{"request_id": req.ID, "application_id": app.ID, "status": to},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Application status changed",
		zap.Uint("application_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return result, nil
}

// SelectTrainer picks the winning application and rejects every sibling in one transaction.
func (s *applicationService) SelectTrainer(ctx context.Context, actor models.Actor, requestID, applicationID uint) (*Selection, error) {
	var result *Selection
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		req, err := s.requests.FindByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return lookup(err, "request", requestID)
		}
		if req.ClientID != actor.UserID {
			return fmt.Errorf("%w: only the request owner can select a trainer", ErrForbidden)
		}
		if req.Status != models.RequestOpen {
			return fmt.Errorf("%w: request %d is %s", ErrInvalidState, requestID, req.Status)
		}

		app, err := s.apps.FindByID(ctx, tx, applicationID)
		if err != nil || app.RequestID != requestID {
			if err == nil || repository.IsNotFound(err) {
				return notFound("application for request", applicationID)
			}
			return err
		}
		if app.Status != models.ApplicationShortlisted {
			return fmt.Errorf("%w: application %d is %s, only shortlisted applications can be selected", ErrInvalidState, applicationID, app.Status)
		}

		if err := s.apps.UpdateStatus(ctx, tx, app.ID, models.ApplicationShortlisted, models.ApplicationSelected); err != nil {
			return err
		}
		app.Status = models.ApplicationSelected

		siblings, err := s.apps.RejectOthers(ctx, tx, requestID, app.ID)
		if err != nil {
			return err
		}
		if err := s.requests.MarkTrainerSelected(ctx, tx, requestID, app.TrainerID); err != nil {
			return err
		}
		req.Status = models.RequestTrainerSelected
		req.SelectedTrainerID = &app.TrainerID

		notices := make([]notice, 0, len(siblings)+1)
		notices = append(notices, notice{
			recipient: app.TrainerID,
			kind:      models.NotifyApplicationSelected,
			title:     "You were selected",
			message:   fmt.Sprintf("Your application to %q was selected", req.Title),
			data:      map[string]any{"request_id": req.ID, "application_id": app.ID},
		})
		rejected := make([]uint, 0, len(siblings))
		for _, sib := range siblings {
			rejected = append(rejected, sib.ID)
			notices = append(notices, notice{
				recipient: sib.TrainerID,
				kind:      models.NotifyApplicationRejected,
				title:     "Application not selected",
				message:   fmt.Sprintf("Another trainer was selected for %q", req.Title),
				data:      map[string]any{"request_id": req.ID, "application_id": sib.ID},
			})
		}
		if err := s.outbox.write(ctx, tx, notices...); err != nil {
			return err
		}

		result = &Selection{Request: req, Application: app, Rejected: rejected}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Trainer selected",
		zap.Uint("request_id", requestID),
		zap.Uint("application_id", applicationID),
		zap.String("trainer_id", result.Application.TrainerID),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}
