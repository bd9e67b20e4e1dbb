package models

import "time"

type RequestStatus string

const (
	RequestOpen            RequestStatus = "open"
	RequestClosed          RequestStatus = "closed"
	RequestTrainerSelected RequestStatus = "trainer_selected"
	RequestInProgress      RequestStatus = "in_progress"
	RequestCompleted       RequestStatus = "completed"
	RequestCancelled       RequestStatus = "cancelled"
)

type DeliveryMode string

const (
	DeliveryOnline   DeliveryMode = "online"
	DeliveryInPerson DeliveryMode = "in_person"
	DeliveryHybrid   DeliveryMode = "hybrid"
)

type TrainingRequest struct {
	ID                  uint          `gorm:"primaryKey" json:"id"`
	ClientID            string        `gorm:"type:varchar(64);not null;index" json:"client_id"`
	Title               string        `gorm:"not null" json:"title"`
	Description         string        `json:"description"`
	TargetAudience      string        `json:"target_audience"`
	ExpectedStartDate   *time.Time    `json:"expected_start_date,omitempty"`
	ExpectedEndDate     *time.Time    `json:"expected_end_date,omitempty"`
	DurationHours       float64       `json:"duration_hours"`
	DeliveryMode        DeliveryMode  `gorm:"type:varchar(20)" json:"delivery_mode"`
	Location            string        `json:"location"`
	BudgetMin           float64       `json:"budget_min"`
	BudgetMax           float64       `json:"budget_max"`
	ApplicationDeadline *time.Time    `json:"application_deadline,omitempty"`
	Status              RequestStatus `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	SelectedTrainerID   *string       `gorm:"type:varchar(64)" json:"selected_trainer_id,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// AcceptsApplications reports whether trainers may still apply at now.
func (r *TrainingRequest) AcceptsApplications(now time.Time) bool {
	if r.Status != RequestOpen {
		return false
	}
	return r.ApplicationDeadline == nil || !now.After(*r.ApplicationDeadline)
}

type RequestFilter struct {
	Status   *RequestStatus
	ClientID string
}
