package models

import "time"

type BookingStatus string

const (
	StatusPendingAssignment BookingStatus = "pending_assignment"
	StatusPendingPayment    BookingStatus = "pending_payment"
	StatusPending           BookingStatus = "pending"
	StatusConfirmed         BookingStatus = "confirmed"
	StatusCompleted         BookingStatus = "completed"
	StatusCancelled         BookingStatus = "cancelled"
)

var BookingStatuses = []BookingStatus{
	StatusPendingAssignment,
	StatusPendingPayment,
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
	StatusCancelled,
}

type Booking struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	TrainerID     string        `gorm:"type:varchar(64);not null;default:'';index" json:"trainer_id"`
	ClientID      string        `gorm:"type:varchar(64);not null;index" json:"client_id"`
	RequestID     *uint         `json:"request_id,omitempty"`
	ApplicationID *uint         `json:"application_id,omitempty"`
	TrainingTopic string        `gorm:"not null" json:"training_topic"`
	StartTime     time.Time     `gorm:"not null" json:"start_time"`
	EndTime       time.Time     `gorm:"not null" json:"end_time"`
	DurationHours float64       `gorm:"not null" json:"duration_hours"`
	TotalAmount   float64       `gorm:"not null" json:"total_amount"`
	Status        BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AgreementID   *uint         `json:"agreement_id,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	Organization  string        `json:"organization"`
	Department    string        `json:"department"`
	Participants  int           `json:"participants"`
	Notes         string        `json:"notes"`
	Version       int           `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (b *Booking) IsParty(userID string) bool {
	return userID != "" && (userID == b.ClientID || userID == b.TrainerID)
}

// PartyOf returns which side of the booking userID is on.
func (b *Booking) PartyOf(userID string) (Party, bool) {
	switch {
	case userID == "":
		return "", false
	case userID == b.ClientID:
		return PartyClient, true
	case userID == b.TrainerID:
		return PartyTrainer, true
	}
	return "", false
}

// Counterparty returns the user that should hear about an action taken by userID.
// Admin and system actions are reported to the client.
func (b *Booking) Counterparty(userID string) string {
	if userID == b.ClientID {
		return b.TrainerID
	}
	return b.ClientID
}

func (b *Booking) UserOf(p Party) string {
	if p == PartyTrainer {
		return b.TrainerID
	}
	return b.ClientID
}
