package models

import "time"

type NotificationType string

const (
	NotifyApplicationReceived NotificationType = "application_received"
	NotifyApplicationStatus   NotificationType = "application_status_changed"
	NotifyApplicationSelected NotificationType = "application_selected"
	NotifyApplicationRejected NotificationType = "application_rejected"
	NotifyBookingCreated      NotificationType = "booking_created"
	NotifyBookingStatus       NotificationType = "booking_status_changed"
	NotifyAgreementCreated    NotificationType = "agreement_created"
	NotifyAgreementSigned     NotificationType = "agreement_signed"
	NotifyFeedbackReceived    NotificationType = "feedback_received"
)

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// Notification is the message handed to the external dispatcher.
type Notification struct {
	MessageID string           `json:"message_id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      map[string]any   `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationOutbox rows are written in the same transaction as the change they announce.
type NotificationOutbox struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	MessageID     string           `gorm:"type:uuid;not null;uniqueIndex" json:"message_id"`
	RecipientID   string           `gorm:"type:varchar(64);not null" json:"recipient_id"`
	Type          NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title         string           `gorm:"not null" json:"title"`
	Message       string           `gorm:"not null" json:"message"`
	Data          map[string]any   `gorm:"type:jsonb;serializer:json" json:"data,omitempty"`
	Status        OutboxStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Attempts      int              `gorm:"not null;default:0" json:"attempts"`
	LastError     string           `json:"last_error,omitempty"`
	// NextAttemptAt holds a failed row back until its backoff has passed.
	NextAttemptAt *time.Time       `json:"next_attempt_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	SentAt        *time.Time       `json:"sent_at,omitempty"`
}

func (NotificationOutbox) TableName() string {
	return "notification_outbox"
}

func (o *NotificationOutbox) ToNotification() Notification {
	return Notification{
		MessageID: o.MessageID,
		UserID:    o.RecipientID,
		Type:      o.Type,
		Title:     o.Title,
		Message:   o.Message,
		Data:      o.Data,
		CreatedAt: o.CreatedAt,
	}
}
