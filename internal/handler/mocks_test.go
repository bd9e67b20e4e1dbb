package handler

import (
	"context"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/service"
)

// --- Mock RequestService ---

type mockRequestService struct {
	createFn func(ctx context.Context, actor models.Actor, input service.CreateRequestInput) (*models.TrainingRequest, error)
	getFn    func(ctx context.Context, id uint) (*models.TrainingRequest, error)
	listFn   func(ctx context.Context, filter models.RequestFilter) ([]models.TrainingRequest, error)
	closeFn  func(ctx context.Context, actor models.Actor, id uint) (*models.TrainingRequest, error)
	cancelFn func(ctx context.Context, actor models.Actor, id uint) (*models.TrainingRequest, error)
}

func (m *mockRequestService) CreateRequest(ctx context.Context, actor models.Actor, input service.CreateRequestInput) (*models.TrainingRequest, error) {
	return m.createFn(ctx, actor, input)
}
func (m *mockRequestService) GetRequest(ctx context.Context, id uint) (*models.TrainingRequest, error) {
	return m.getFn(ctx, id)
}
func (m *mockRequestService) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.TrainingRequest, error) {
	return m.listFn(ctx, filter)
}
func (m *mockRequestService) CloseRequest(ctx context.Context, actor models.Actor, id uint) (*models.TrainingRequest, error) {
	return m.closeFn(ctx, actor, id)
}
func (m *mockRequestService) CancelRequest(ctx context.Context, actor models.Actor, id uint) (*models.TrainingRequest, error) {
	return m.cancelFn(ctx, actor, id)
}

// --- Mock ApplicationService ---

type mockApplicationService struct {
	submitFn func(ctx context.Context, actor models.Actor, requestID uint, input service.ApplicationInput) (*models.TrainingApplication, error)
	getFn    func(ctx context.Context, actor models.Actor, id uint) (*models.TrainingApplication, error)
	listFn   func(ctx context.Context, actor models.Actor, requestID uint) ([]models.TrainingApplication, error)
	updateFn func(ctx context.Context, actor models.Actor, id uint, to models.ApplicationStatus) (*models.TrainingApplication, error)
	selectFn func(ctx context.Context, actor models.Actor, requestID, applicationID uint) (*service.Selection, error)
}

func (m *mockApplicationService) SubmitApplication(ctx context.Context, actor models.Actor, requestID uint, input service.ApplicationInput) (*models.TrainingApplication, error) {
	return m.submitFn(ctx, actor, requestID, input)
}
func (m *mockApplicationService) GetApplication(ctx context.Context, actor models.Actor, id uint) (*models.TrainingApplication, error) {
	return m.getFn(ctx, actor, id)
}
func (m *mockApplicationService) ListApplications(ctx context.Context, actor models.Actor, requestID uint) ([]models.TrainingApplication, error) {
	return m.listFn(ctx, actor, requestID)
}
func (m *mockApplicationService) UpdateApplicationStatus(ctx context.Context, actor models.Actor, id uint, to models.ApplicationStatus) (*models.TrainingApplication, error) {
	return m.updateFn(ctx, actor, id, to)
}
func (m *mockApplicationService) SelectTrainer(ctx context.Context, actor models.Actor, requestID, applicationID uint) (*service.Selection, error) {
	return m.selectFn(ctx, actor, requestID, applicationID)
}

// --- Mock BookingService ---

type mockBookingService struct {
	createFn     func(ctx context.Context, actor models.Actor, input service.CreateBookingInput) (*models.Booking, error)
	getFn        func(ctx context.Context, actor models.Actor, id uint) (*models.Booking, error)
	listFn       func(ctx context.Context, actor models.Actor, status *models.BookingStatus) ([]models.Booking, error)
	transitionFn func(ctx context.Context, actor models.Actor, id uint, to models.BookingStatus, expectedVersion *int) (*models.Booking, error)
	assignFn     func(ctx context.Context, actor models.Actor, id uint, trainerID string) (*models.Booking, error)
	paidFn       func(ctx context.Context, actor models.Actor, id uint) (*models.Booking, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, actor models.Actor, input service.CreateBookingInput) (*models.Booking, error) {
	return m.createFn(ctx, actor, input)
}
func (m *mockBookingService) GetBooking(ctx context.Context, actor models.Actor, id uint) (*models.Booking, error) {
	return m.getFn(ctx, actor, id)
}
func (m *mockBookingService) ListBookings(ctx context.Context, actor models.Actor, status *models.BookingStatus) ([]models.Booking, error) {
	return m.listFn(ctx, actor, status)
}
func (m *mockBookingService) Transition(ctx context.Context, actor models.Actor, id uint, to models.BookingStatus, expectedVersion *int) (*models.Booking, error) {
	return m.transitionFn(ctx, actor, id, to, expectedVersion)
}
func (m *mockBookingService) AssignTrainer(ctx context.Context, actor models.Actor, id uint, trainerID string) (*models.Booking, error) {
	return m.assignFn(ctx, actor, id, trainerID)
}
func (m *mockBookingService) MarkPaid(ctx context.Context, actor models.Actor, id uint) (*models.Booking, error) {
	return m.paidFn(ctx, actor, id)
}

// --- Mock AgreementService ---

type mockAgreementService struct {
	ensureFn    func(ctx context.Context, actor models.Actor, bookingID uint) (*models.Agreement, error)
	getFn       func(ctx context.Context, actor models.Actor, id uint) (*models.Agreement, error)
	byBookingFn func(ctx context.Context, actor models.Actor, bookingID uint) (*models.Agreement, error)
	signFn      func(ctx context.Context, actor models.Actor, agreementID uint, party models.Party) (*models.Agreement, error)
	rejectFn    func(ctx context.Context, actor models.Actor, agreementID uint, party models.Party) (*models.Agreement, error)
}

func (m *mockAgreementService) EnsureAgreement(ctx context.Context, actor models.Actor, bookingID uint) (*models.Agreement, error) {
	return m.ensureFn(ctx, actor, bookingID)
}
func (m *mockAgreementService) GetAgreement(ctx context.Context, actor models.Actor, id uint) (*models.Agreement, error) {
	return m.getFn(ctx, actor, id)
}
func (m *mockAgreementService) GetByBooking(ctx context.Context, actor models.Actor, bookingID uint) (*models.Agreement, error) {
	return m.byBookingFn(ctx, actor, bookingID)
}
func (m *mockAgreementService) Sign(ctx context.Context, actor models.Actor, agreementID uint, party models.Party) (*models.Agreement, error) {
	return m.signFn(ctx, actor, agreementID, party)
}
func (m *mockAgreementService) Reject(ctx context.Context, actor models.Actor, agreementID uint, party models.Party) (*models.Agreement, error) {
	return m.rejectFn(ctx, actor, agreementID, party)
}

// --- Mock FeedbackService ---

type mockFeedbackService struct {
	issueFn      func(ctx context.Context, actor models.Actor, bookingID uint) (*models.FeedbackLink, error)
	deactivateFn func(ctx context.Context, actor models.Actor, bookingID uint) error
	resolveFn    func(ctx context.Context, token string) (*models.FeedbackLink, error)
	submitFn     func(ctx context.Context, token, respondentEmail string, input service.FeedbackInput) (*models.FeedbackResponse, error)
}

func (m *mockFeedbackService) IssueLink(ctx context.Context, actor models.Actor, bookingID uint) (*models.FeedbackLink, error) {
	return m.issueFn(ctx, actor, bookingID)
}
func (m *mockFeedbackService) DeactivateLink(ctx context.Context, actor models.Actor, bookingID uint) error {
	return m.deactivateFn(ctx, actor, bookingID)
}
func (m *mockFeedbackService) ResolveLink(ctx context.Context, token string) (*models.FeedbackLink, error) {
	if m.resolveFn == nil {
		return &models.FeedbackLink{ID: 1, BookingID: 3, Token: token, IsActive: true}, nil
	}
	return m.resolveFn(ctx, token)
}
func (m *mockFeedbackService) SubmitFeedback(ctx context.Context, token, respondentEmail string, input service.FeedbackInput) (*models.FeedbackResponse, error) {
	return m.submitFn(ctx, token, respondentEmail, input)
}
