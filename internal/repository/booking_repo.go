package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"gorm.io/gorm"
)

type BookingFilter struct {
	// UserID limits the list to bookings where the user is client or trainer.
	UserID string
	Status *models.BookingStatus
}

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindActiveByRequest(ctx context.Context, tx *gorm.DB, requestID uint) (*models.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, booking *models.Booking, to models.BookingStatus) error
	AssignTrainer(ctx context.Context, tx *gorm.DB, booking *models.Booking, trainerID string, to models.BookingStatus) error
	MarkPaid(ctx context.Context, tx *gorm.DB, booking *models.Booking, at time.Time, to models.BookingStatus) error
	SetAgreement(ctx context.Context, tx *gorm.DB, bookingID, agreementID uint) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return translate(conn(ctx, r.db, tx).Create(booking).Error)
}

func (r *bookingRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := conn(ctx, r.db, tx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByIDForUpdate acquires a row-level lock on the booking within the given transaction.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := forUpdate(tx.WithContext(ctx)).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindActiveByRequest(ctx context.Context, tx *gorm.DB, requestID uint) (*models.Booking, error) {
	var booking models.Booking
	err := conn(ctx, r.db, tx).
		Where("request_id = ? AND status <> ?", requestID, models.StatusCancelled).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	var bookings []models.Booking
	q := r.db.WithContext(ctx)
	if filter.UserID != "" {
		q = q.Where("client_id = ? OR trainer_id = ?", filter.UserID, filter.UserID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if err := q.Order("start_time ASC, id ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatus moves booking to status `to` only if the row still has the status and
// version the caller read. On success booking reflects the stored row.
func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, booking *models.Booking, to models.BookingStatus) error {
	now := time.Now()
	err := guarded(tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ? AND version = ?", booking.ID, booking.Status, booking.Version).
		Updates(map[string]any{
			"status":     to,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		}))
	if err != nil {
		return err
	}
	booking.Status = to
	booking.Version++
	booking.UpdatedAt = now
	return nil
}

func (r *bookingRepository) AssignTrainer(ctx context.Context, tx *gorm.DB, booking *models.Booking, trainerID string, to models.BookingStatus) error {
	now := time.Now()
	err := guarded(tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ? AND version = ?", booking.ID, booking.Status, booking.Version).
		Updates(map[string]any{
			"trainer_id": trainerID,
			"status":     to,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		}))
	if err != nil {
		return err
	}
	booking.TrainerID = trainerID
	booking.Status = to
	booking.Version++
	booking.UpdatedAt = now
	return nil
}

// MarkPaid records the payment signal and moves the booking to `to`, which may equal
// its current status when payment arrives before a trainer is assigned.
func (r *bookingRepository) MarkPaid(ctx context.Context, tx *gorm.DB, booking *models.Booking, at time.Time, to models.BookingStatus) error {
	err := guarded(tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ? AND version = ?", booking.ID, booking.Status, booking.Version).
		Updates(map[string]any{
			"paid_at":    at,
			"status":     to,
			"version":    gorm.Expr("version + 1"),
			"updated_at": at,
		}))
	if err != nil {
		return err
	}
	booking.PaidAt = &at
	booking.Status = to
	booking.Version++
	booking.UpdatedAt = at
	return nil
}

func (r *bookingRepository) SetAgreement(ctx context.Context, tx *gorm.DB, bookingID, agreementID uint) error {
	return tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("agreement_id", agreementID).Error
}
