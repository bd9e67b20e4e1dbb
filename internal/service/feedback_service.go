package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/repository"
	"github.com/Eursukkul/trainer-booking-service/pkg/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tokenBytes = 32

type FeedbackInput struct {
	Rating  int
	Comment string
	Answers map[string]string
}

type FeedbackService interface {
	IssueLink(ctx context.Context, actor models.Actor, bookingID uint) (*models.FeedbackLink, error)
	DeactivateLink(ctx context.Context, actor models.Actor, bookingID uint) error
	// ResolveLink returns the usable link behind token, or ErrNotFound when it is unknown, inactive or expired.
	ResolveLink(ctx context.Context, token string) (*models.FeedbackLink, error)
	SubmitFeedback(ctx context.Context, token, respondentEmail string, input FeedbackInput) (*models.FeedbackResponse, error)
}

type feedbackService struct {
	tx       repository.Transactor
	bookings repository.BookingRepository
	feedback repository.FeedbackRepository
	outbox   outboxWriter
	linkTTL  time.Duration
	retry    database.RetryPolicy
	logger   *zap.Logger
	now      func() time.Time
}

func NewFeedbackService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	feedback repository.FeedbackRepository,
	outbox repository.OutboxRepository,
	linkTTL time.Duration,
	retry database.RetryPolicy,
	logger *zap.Logger,
) FeedbackService {
	return &feedbackService{
		tx:       tx,
		bookings: bookings,
		feedback: feedback,
		outbox:   outboxWriter{repo: outbox},
		linkTTL:  linkTTL,
		retry:    retry,
		logger:   logger,
		now:      time.Now,
	}
}

// newToken returns 32 random bytes already in URL-safe base64 without padding.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate feedback token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// IssueLink returns the booking's active link, creating one when none is live.
func (s *feedbackService) IssueLink(ctx context.Context, actor models.Actor, bookingID uint) (*models.FeedbackLink, error) {
	booking, err := s.bookings.FindByID(ctx, nil, bookingID)
	if err != nil {
		return nil, lookup(err, "booking", bookingID)
	}
	if !actor.IsAdmin() && !booking.IsParty(actor.UserID) {
		return nil, fmt.Errorf("%w: not a party to booking %d", ErrForbidden, bookingID)
	}
	if booking.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: booking %d is %s; feedback opens after completion", ErrInvalidState, bookingID, booking.Status)
	}

	var (
		result  *models.FeedbackLink
		created bool
	)
	err = database.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
			now := s.now()
			if err := s.feedback.DeactivateExpired(ctx, tx, bookingID, now); err != nil {
				return err
			}
			link, err := s.feedback.FindActiveLink(ctx, tx, bookingID)
			if err == nil {
				result = link
				return nil
			}
			if !repository.IsNotFound(err) {
				return err
			}

			token, err := newToken()
			if err != nil {
				return err
			}
			link = &models.FeedbackLink{
				BookingID: bookingID,
				Token:     token,
				IsActive:  true,
				ExpiresAt: now.Add(s.linkTTL),
			}
			ok, err := s.feedback.CreateLinkIfAbsent(ctx, tx, link)
			if err != nil {
				return err
			}
			created = ok
			if ok {
				result = link
				return nil
			}
			// lost the race to a concurrent issuer
			result, err = s.feedback.FindActiveLink(ctx, tx, bookingID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("Feedback link issued",
			zap.Uint("booking_id", bookingID),
			zap.Time("expires_at", result.ExpiresAt),
		)
	}
	return result, nil
}

func (s *feedbackService) DeactivateLink(ctx context.Context, actor models.Actor, bookingID uint) error {
	booking, err := s.bookings.FindByID(ctx, nil, bookingID)
	if err != nil {
		return lookup(err, "booking", bookingID)
	}
	if !actor.IsAdmin() && actor.UserID != booking.TrainerID {
		return fmt.Errorf("%w: only the trainer or an admin can close feedback", ErrForbidden)
	}
	n, err := s.feedback.DeactivateLinks(ctx, nil, bookingID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("active feedback link for booking", bookingID)
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("respondent email %q is not a valid address", raw)
	}
	return email, nil
}

func (s *feedbackService) ResolveLink(ctx context.Context, token string) (*models.FeedbackLink, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: feedback link", ErrNotFound)
	}
	link, err := s.feedback.FindLinkByToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: feedback link", ErrNotFound)
		}
		return nil, err
	}
	if !link.Usable(s.now()) {
		return nil, fmt.Errorf("%w: feedback link is no longer active", ErrNotFound)
	}
	return link, nil
}

func (s *feedbackService) SubmitFeedback(ctx context.Context, token, respondentEmail string, input FeedbackInput) (*models.FeedbackResponse, error) {
	link, err := s.ResolveLink(ctx, token)
	if err != nil {
		return nil, err
	}

	email, err := normalizeEmail(respondentEmail)
	if err != nil {
		return nil, err
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}

	booking, err := s.bookings.FindByID(ctx, nil, link.BookingID)
	if err != nil {
		return nil, lookup(err, "booking", link.BookingID)
	}

	resp := &models.FeedbackResponse{
		LinkID:          link.ID,
		BookingID:       link.BookingID,
		RespondentEmail: email,
		Rating:          input.Rating,
		Comment:         strings.TrimSpace(input.Comment),
		Answers:         input.Answers,
	}
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.feedback.FindResponse(ctx, tx, link.ID, email); err == nil {
			return ErrDuplicateSubmission
		} else if !repository.IsNotFound(err) {
			return err
		}
		if err := s.feedback.CreateResponse(ctx, tx, resp); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateSubmission
			}
			return err
		}
		return s.outbox.write(ctx, tx, notice{
			recipient: booking.TrainerID,
			kind:      models.NotifyFeedbackReceived,
			title:     "New feedback",
			message:   fmt.Sprintf("A participant rated %q %d/5", booking.TrainingTopic, resp.Rating),
			data:      map[string]any{"booking_id": booking.ID, "rating": resp.Rating},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Feedback recorded", zap.Uint("booking_id", link.BookingID), zap.Uint("link_id", link.ID))
	return resp, nil
}
