package models

import "time"

type SignatureStatus string

const (
	SignaturePending  SignatureStatus = "pending"
	SignatureAccepted SignatureStatus = "accepted"
)

type Party string

const (
	PartyClient  Party = "client"
	PartyTrainer Party = "trainer"
)

func (p Party) Valid() bool {
	return p == PartyClient || p == PartyTrainer
}

func (p Party) Other() Party {
	if p == PartyClient {
		return PartyTrainer
	}
	return PartyClient
}

type PartyDetails struct {
	UserID       string `json:"user_id"`
	FullName     string `json:"full_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

type BookingDetails struct {
	BookingID     uint      `json:"booking_id"`
	TrainingTopic string    `json:"training_topic"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
	Organization  string    `json:"organization,omitempty"`
	Department    string    `json:"department,omitempty"`
	Participants  int       `json:"participants,omitempty"`
}

type FinancialTerms struct {
	HourlyRate float64 `json:"hourly_rate"`
	TotalCost  float64 `json:"total_cost"`
}

// AgreementTerms is captured once when the agreement is created and never rewritten.
type AgreementTerms struct {
	Client    PartyDetails   `json:"client"`
	Trainer   PartyDetails   `json:"trainer"`
	Booking   BookingDetails `json:"booking"`
	Financial FinancialTerms `json:"financial"`
}

type Agreement struct {
	ID                     uint            `gorm:"primaryKey" json:"id"`
	BookingID              uint            `gorm:"not null;uniqueIndex" json:"booking_id"`
	HourlyRate             float64         `gorm:"not null" json:"hourly_rate"`
	TotalCost              float64         `gorm:"not null" json:"total_cost"`
	Terms                  AgreementTerms  `gorm:"column:agreement_terms;type:jsonb;serializer:json;not null" json:"agreement_terms"`
	ClientSignatureStatus  SignatureStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"client_signature_status"`
	TrainerSignatureStatus SignatureStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"trainer_signature_status"`
	ClientAgreedAt         *time.Time      `json:"client_agreed_at,omitempty"`
	TrainerAgreedAt        *time.Time      `json:"trainer_agreed_at,omitempty"`
	CompletedAt            *time.Time      `json:"completed_at,omitempty"`
	RejectedBy             *Party          `gorm:"type:varchar(20)" json:"rejected_by,omitempty"`
	RejectedAt             *time.Time      `json:"rejected_at,omitempty"`
	Version                int             `gorm:"not null;default:1" json:"version"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

func (a *Agreement) SignatureOf(p Party) SignatureStatus {
	if p == PartyTrainer {
		return a.TrainerSignatureStatus
	}
	return a.ClientSignatureStatus
}

func (a *Agreement) BothSigned() bool {
	return a.ClientSignatureStatus == SignatureAccepted && a.TrainerSignatureStatus == SignatureAccepted
}

// Sign records p's acceptance at now. It reports false when p had already signed,
// leaving the agreement untouched. CompletedAt is set when the second signature lands.
func (a *Agreement) Sign(p Party, now time.Time) bool {
	if a.SignatureOf(p) == SignatureAccepted {
		return false
	}
	at := now
	if p == PartyTrainer {
		a.TrainerSignatureStatus = SignatureAccepted
		a.TrainerAgreedAt = &at
	} else {
		a.ClientSignatureStatus = SignatureAccepted
		a.ClientAgreedAt = &at
	}
	if a.BothSigned() && a.CompletedAt == nil {
		a.CompletedAt = &at
	}
	a.Version++
	return true
}
