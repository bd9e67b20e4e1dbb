package dto

import (
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TrainingRequestResponse struct {
	ID                  uint                 `json:"id"`
	ClientID            string               `json:"client_id"`
	Title               string               `json:"title"`
	Description         string               `json:"description"`
	TargetAudience      string               `json:"target_audience"`
	ExpectedStartDate   *time.Time           `json:"expected_start_date,omitempty"`
	ExpectedEndDate     *time.Time           `json:"expected_end_date,omitempty"`
	DurationHours       float64              `json:"duration_hours"`
	DeliveryMode        models.DeliveryMode  `json:"delivery_mode"`
	Location            string               `json:"location"`
	BudgetMin           float64              `json:"budget_min"`
	BudgetMax           float64              `json:"budget_max"`
	ApplicationDeadline *time.Time           `json:"application_deadline,omitempty"`
	Status              models.RequestStatus `json:"status"`
	SelectedTrainerID   *string              `json:"selected_trainer_id,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
}

type ApplicationResponse struct {
	ID                    uint                     `json:"id"`
	RequestID             uint                     `json:"request_id"`
	TrainerID             string                   `json:"trainer_id"`
	ProposedPrice         float64                  `json:"proposed_price"`
	ProposedStartDate     *time.Time               `json:"proposed_start_date,omitempty"`
	ProposedEndDate       *time.Time               `json:"proposed_end_date,omitempty"`
	ProposedDurationHours float64                  `json:"proposed_duration_hours"`
	Message               string                   `json:"message"`
	Syllabus              string                   `json:"syllabus"`
	Status                models.ApplicationStatus `json:"status"`
	CreatedAt             time.Time                `json:"created_at"`
}

type SelectionResponse struct {
	Request     TrainingRequestResponse `json:"request"`
	Application ApplicationResponse     `json:"application"`
	RejectedIDs []uint                  `json:"rejected_application_ids"`
}

type BookingResponse struct {
	ID            uint                 `json:"id"`
	ClientID      string               `json:"client_id"`
	TrainerID     string               `json:"trainer_id,omitempty"`
	RequestID     *uint                `json:"request_id,omitempty"`
	ApplicationID *uint                `json:"application_id,omitempty"`
	TrainingTopic string               `json:"training_topic"`
	StartTime     time.Time            `json:"start_time"`
	EndTime       time.Time            `json:"end_time"`
	DurationHours float64              `json:"duration_hours"`
	TotalAmount   float64              `json:"total_amount"`
	Status        models.BookingStatus `json:"status"`
	AgreementID   *uint                `json:"agreement_id,omitempty"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	Organization  string               `json:"organization,omitempty"`
	Department    string               `json:"department,omitempty"`
	Participants  int                  `json:"participants"`
	Notes         string               `json:"notes,omitempty"`
	Version       int                  `json:"version"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type AgreementResponse struct {
	ID                     uint                   `json:"id"`
	BookingID              uint                   `json:"booking_id"`
	HourlyRate             float64                `json:"hourly_rate"`
	TotalCost              float64                `json:"total_cost"`
	Terms                  models.AgreementTerms  `json:"agreement_terms"`
	ClientSignatureStatus  models.SignatureStatus `json:"client_signature_status"`
	TrainerSignatureStatus models.SignatureStatus `json:"trainer_signature_status"`
	ClientAgreedAt         *time.Time             `json:"client_agreed_at,omitempty"`
	TrainerAgreedAt        *time.Time             `json:"trainer_agreed_at,omitempty"`
	CompletedAt            *time.Time             `json:"completed_at,omitempty"`
	RejectedBy             *models.Party          `json:"rejected_by,omitempty"`
	RejectedAt             *time.Time             `json:"rejected_at,omitempty"`
	Version                int                    `json:"version"`
	CreatedAt              time.Time              `json:"created_at"`
}

type FeedbackLinkResponse struct {
	BookingID uint      `json:"booking_id"`
	Token     string    `json:"token"`
	IsActive  bool      `json:"is_active"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackFormResponse is what the public form sees; it carries no token.
type FeedbackFormResponse struct {
	BookingID uint      `json:"booking_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type FeedbackSubmissionResponse struct {
	ID        uint      `json:"id"`
	BookingID uint      `json:"booking_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

func ToTrainingRequestResponse(r *models.TrainingRequest) TrainingRequestResponse {
	return TrainingRequestResponse{
		ID:                  r.ID,
		ClientID:            r.ClientID,
		Title:               r.Title,
		Description:         r.Description,
		TargetAudience:      r.TargetAudience,
		ExpectedStartDate:   r.ExpectedStartDate,
		ExpectedEndDate:     r.ExpectedEndDate,
		DurationHours:       r.DurationHours,
		DeliveryMode:        r.DeliveryMode,
		Location:            r.Location,
		BudgetMin:           r.BudgetMin,
		BudgetMax:           r.BudgetMax,
		ApplicationDeadline: r.ApplicationDeadline,
		Status:              r.Status,
		SelectedTrainerID:   r.SelectedTrainerID,
		CreatedAt:           r.CreatedAt,
	}
}

func ToApplicationResponse(a *models.TrainingApplication) ApplicationResponse {
	return ApplicationResponse{
		ID:                    a.ID,
		RequestID:             a.RequestID,
		TrainerID:             a.TrainerID,
		ProposedPrice:         a.ProposedPrice,
		ProposedStartDate:     a.ProposedStartDate,
		ProposedEndDate:       a.ProposedEndDate,
		ProposedDurationHours: a.ProposedDurationHours,
		Message:               a.Message,
		Syllabus:              a.Syllabus,
		Status:                a.Status,
		CreatedAt:             a.CreatedAt,
	}
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		ClientID:      b.ClientID,
		TrainerID:     b.TrainerID,
		RequestID:     b.RequestID,
		ApplicationID: b.ApplicationID,
		TrainingTopic: b.TrainingTopic,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		DurationHours: b.DurationHours,
		TotalAmount:   b.TotalAmount,
		Status:        b.Status,
		AgreementID:   b.AgreementID,
		PaidAt:        b.PaidAt,
		Organization:  b.Organization,
		Department:    b.Department,
		Participants:  b.Participants,
		Notes:         b.Notes,
		Version:       b.Version,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func ToAgreementResponse(a *models.Agreement) AgreementResponse {
	return AgreementResponse{
		ID:                     a.ID,
		BookingID:              a.BookingID,
		HourlyRate:             a.HourlyRate,
		TotalCost:              a.TotalCost,
		Terms:                  a.Terms,
		ClientSignatureStatus:  a.ClientSignatureStatus,
		TrainerSignatureStatus: a.TrainerSignatureStatus,
		ClientAgreedAt:         a.ClientAgreedAt,
		TrainerAgreedAt:        a.TrainerAgreedAt,
		CompletedAt:            a.CompletedAt,
		RejectedBy:             a.RejectedBy,
		RejectedAt:             a.RejectedAt,
		Version:                a.Version,
		CreatedAt:              a.CreatedAt,
	}
}

func ToFeedbackLinkResponse(l *models.FeedbackLink) FeedbackLinkResponse {
	return FeedbackLinkResponse{
		BookingID: l.BookingID,
		Token:     l.Token,
		IsActive:  l.IsActive,
		ExpiresAt: l.ExpiresAt,
		CreatedAt: l.CreatedAt,
	}
}

func ToFeedbackFormResponse(l *models.FeedbackLink) FeedbackFormResponse {
	return FeedbackFormResponse{BookingID: l.BookingID, ExpiresAt: l.ExpiresAt}
}

func ToFeedbackSubmissionResponse(r *models.FeedbackResponse) FeedbackSubmissionResponse {
	return FeedbackSubmissionResponse{
		ID:        r.ID,
		BookingID: r.BookingID,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
	}
}
