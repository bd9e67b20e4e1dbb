package models

import "time"

type FeedbackLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookingID uint      `gorm:"not null;index" json:"booking_id"`
	Token     string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"token"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Usable reports whether the link still accepts responses at now.
func (l *FeedbackLink) Usable(now time.Time) bool {
	return l.IsActive && now.Before(l.ExpiresAt)
}

type FeedbackResponse struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	LinkID          uint              `gorm:"not null" json:"link_id"`
	BookingID       uint              `gorm:"not null;index" json:"booking_id"`
	RespondentEmail string            `gorm:"not null" json:"respondent_email"`
	Rating          int               `gorm:"not null" json:"rating"`
	Comment         string            `json:"comment"`
	Answers         map[string]string `gorm:"type:jsonb;serializer:json" json:"answers,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}
