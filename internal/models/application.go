package models

import "time"

type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationSelected    ApplicationStatus = "selected"
	ApplicationRejected    ApplicationStatus = "rejected"
)

type TrainingApplication struct {
	ID                    uint              `gorm:"primaryKey" json:"id"`
	RequestID             uint              `gorm:"not null;index" json:"request_id"`
	TrainerID             string            `gorm:"type:varchar(64);not null" json:"trainer_id"`
	ProposedPrice         float64           `gorm:"not null" json:"proposed_price"`
	ProposedStartDate     *time.Time        `json:"proposed_start_date,omitempty"`
	ProposedEndDate       *time.Time        `json:"proposed_end_date,omitempty"`
	ProposedDurationHours float64           `json:"proposed_duration_hours"`
	Message               string            `json:"message"`
	Syllabus              string            `json:"syllabus"`
	Status                ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`

	Request *TrainingRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`
}
