package dto

import "time"

type CreateTrainingRequest struct {
	Title               string     `json:"title" validate:"required,max=200"`
	Description         string     `json:"description"`
	TargetAudience      string     `json:"target_audience"`
	ExpectedStartDate   *time.Time `json:"expected_start_date"`
	ExpectedEndDate     *time.Time `json:"expected_end_date"`
	DurationHours       float64    `json:"duration_hours" validate:"gte=0"`
	DeliveryMode        string     `json:"delivery_mode" validate:"omitempty,oneof=online in_person hybrid"`
	Location            string     `json:"location"`
	BudgetMin           float64    `json:"budget_min" validate:"gte=0"`
	BudgetMax           float64    `json:"budget_max" validate:"gte=0,gtefield=BudgetMin"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
}

type SubmitApplicationRequest struct {
	ProposedPrice         float64    `json:"proposed_price" validate:"gte=0"`
	ProposedStartDate     *time.Time `json:"proposed_start_date"`
	ProposedEndDate       *time.Time `json:"proposed_end_date"`
	ProposedDurationHours float64    `json:"proposed_duration_hours" validate:"gte=0"`
	Message               string     `json:"message"`
	Syllabus              string     `json:"syllabus"`
}

type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending shortlisted selected rejected"`
}

type SelectTrainerRequest struct {
	ApplicationID uint `json:"application_id" validate:"required"`
}

type CreateBookingRequest struct {
	RequestID     *uint     `json:"request_id"`
	ClientID      string    `json:"client_id"`
	TrainerID     string    `json:"trainer_id"`
	TrainingTopic string    `json:"training_topic"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours" validate:"gte=0"`
	TotalAmount   *float64  `json:"total_amount" validate:"omitempty,gte=0"`
	Paid          bool      `json:"paid"`
	Organization  string    `json:"organization"`
	Department    string    `json:"department"`
	Participants  int       `json:"participants" validate:"gte=0"`
	Notes         string    `json:"notes"`
}

type TransitionBookingRequest struct {
	Status string `json:"status" validate:"required"`
	// Version is the booking version the caller last read.
	Version *int `json:"version"`
}

type AssignTrainerRequest struct {
	TrainerID string `json:"trainer_id" validate:"required"`
}

type AgreementActionRequest struct {
	Party string `json:"party" validate:"omitempty,oneof=client trainer"`
}

type SubmitFeedbackRequest struct {
	RespondentEmail string            `json:"respondent_email" validate:"required"`
	Rating          int               `json:"rating" validate:"required,min=1,max=5"`
	Comment         string            `json:"comment" validate:"max=4000"`
	Answers         map[string]string `json:"answers"`
}
