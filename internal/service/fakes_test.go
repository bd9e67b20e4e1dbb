package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/repository"
	"github.com/Eursukkul/trainer-booking-service/pkg/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for postgres. Reads hand out copies so a
// service only sees its own writes after they go through a repository call.
type memStore struct {
	mu sync.Mutex

	nextID       uint
	requests     map[uint]models.TrainingRequest
	applications map[uint]models.TrainingApplication
	bookings     map[uint]models.Booking
	agreements   map[uint]models.Agreement
	links        map[uint]models.FeedbackLink
	responses    map[uint]models.FeedbackResponse
	outbox       []models.NotificationOutbox
	profiles     map[string]models.Profile
}

func newMemStore() *memStore {
	return &memStore{
		requests:     map[uint]models.TrainingRequest{},
		applications: map[uint]models.TrainingApplication{},
		bookings:     map[uint]models.Booking{},
		agreements:   map[uint]models.Agreement{},
		links:        map[uint]models.FeedbackLink{},
		responses:    map[uint]models.FeedbackResponse{},
		profiles:     map[string]models.Profile{},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) notificationsFor(userID string) []models.NotificationOutbox {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.NotificationOutbox
	for _, n := range s.outbox {
		if n.RecipientID == userID {
			out = append(out, n)
		}
	}
	return out
}

// passTx runs fn directly; repositories in this file ignore tx.
type passTx struct{}

func (passTx) WithinTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// --- requests ---

type memRequests struct{ s *memStore }

func (r memRequests) Create(_ context.Context, _ *gorm.DB, req *models.TrainingRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req.ID = r.s.id()
	req.CreatedAt = time.Now()
	r.s.requests[req.ID] = *req
	return nil
}

func (r memRequests) FindByID(_ context.Context, _ *gorm.DB, id uint) (*models.TrainingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &req, nil
}

func (r memRequests) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.TrainingRequest, error) {
	return r.FindByID(ctx, tx, id)
}

func (r memRequests) List(_ context.Context, filter models.RequestFilter) ([]models.TrainingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.TrainingRequest
	for _, req := range r.s.requests {
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.ClientID != "" && req.ClientID != filter.ClientID {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memRequests) UpdateStatus(_ context.Context, _ *gorm.DB, id uint, from, to models.RequestStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok || req.Status != from {
		return repository.ErrConflict
	}
	req.Status = to
	r.s.requests[id] = req
	return nil
}

func (r memRequests) MarkTrainerSelected(_ context.Context, _ *gorm.DB, id uint, trainerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok || req.Status != models.RequestOpen {
		return repository.ErrConflict
	}
	req.Status = models.RequestTrainerSelected
	req.SelectedTrainerID = &trainerID
	r.s.requests[id] = req
	return nil
}

// --- applications ---

type memApplications struct{ s *memStore }

func (r memApplications) Create(_ context.Context, _ *gorm.DB, app *models.TrainingApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.applications {
		if a.RequestID == app.RequestID && a.TrainerID == app.TrainerID {
			return repository.ErrDuplicate
		}
	}
	app.ID = r.s.id()
	r.s.applications[app.ID] = *app
	return nil
}

func (r memApplications) FindByID(_ context.Context, _ *gorm.DB, id uint) (*models.TrainingApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &app, nil
}

func (r memApplications) FindByRequestAndTrainer(_ context.Context, _ *gorm.DB, requestID uint, trainerID string) (*models.TrainingApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.applications {
		if a.RequestID == requestID && a.TrainerID == trainerID {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memApplications) ListByRequest(_ context.Context, requestID uint, trainerID string) ([]models.TrainingApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.TrainingApplication
	for _, a := range r.s.applications {
		if a.RequestID != requestID || (trainerID != "" && a.TrainerID != trainerID) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memApplications) UpdateStatus(_ context.Context, _ *gorm.DB, id uint, from, to models.ApplicationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok || app.Status != from {
		return repository.ErrConflict
	}
	app.Status = to
	r.s.applications[id] = app
	return nil
}

func (r memApplications) RejectOthers(_ context.Context, _ *gorm.DB, requestID, keepID uint) ([]models.TrainingApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.TrainingApplication
	for id, a := range r.s.applications {
		if a.RequestID != requestID || id == keepID || a.Status == models.ApplicationRejected {
			continue
		}
		out = append(out, a)
		a.Status = models.ApplicationRejected
		r.s.applications[id] = a
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- bookings ---

type memBookings struct{ s *memStore }

func (r memBookings) Create(_ context.Context, _ *gorm.DB, b *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.RequestID != nil {
		for _, other := range r.s.bookings {
			if other.RequestID != nil && *other.RequestID == *b.RequestID && other.Status != models.StatusCancelled {
				return repository.ErrDuplicate
			}
		}
	}
	b.ID = r.s.id()
	r.s.bookings[b.ID] = *b
	return nil
}

func (r memBookings) FindByID(_ context.Context, _ *gorm.DB, id uint) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (r memBookings) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	return r.FindByID(ctx, tx, id)
}

func (r memBookings) FindActiveByRequest(_ context.Context, _ *gorm.DB, requestID uint) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.RequestID != nil && *b.RequestID == requestID && b.Status != models.StatusCancelled {
			return &b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memBookings) List(_ context.Context, filter repository.BookingFilter) ([]models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Booking
	for _, b := range r.s.bookings {
		if filter.UserID != "" && !b.IsParty(filter.UserID) {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memBookings) guard(b *models.Booking, apply func(stored *models.Booking)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.bookings[b.ID]
	if !ok || stored.Status != b.Status || stored.Version != b.Version {
		return repository.ErrConflict
	}
	apply(&stored)
	stored.Version++
	stored.UpdatedAt = time.Now()
	r.s.bookings[b.ID] = stored
	*b = stored
	return nil
}

func (r memBookings) UpdateStatus(_ context.Context, _ *gorm.DB, b *models.Booking, to models.BookingStatus) error {
	return r.guard(b, func(stored *models.Booking) { stored.Status = to })
}

func (r memBookings) AssignTrainer(_ context.Context, _ *gorm.DB, b *models.Booking, trainerID string, to models.BookingStatus) error {
	return r.guard(b, func(stored *models.Booking) {
		stored.TrainerID = trainerID
		stored.Status = to
	})
}

func (r memBookings) MarkPaid(_ context.Context, _ *gorm.DB, b *models.Booking, at time.Time, to models.BookingStatus) error {
	return r.guard(b, func(stored *models.Booking) {
		stored.PaidAt = &at
		stored.Status = to
	})
}

func (r memBookings) SetAgreement(_ context.Context, _ *gorm.DB, bookingID, agreementID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b := r.s.bookings[bookingID]
	b.AgreementID = &agreementID
	r.s.bookings[bookingID] = b
	return nil
}

// --- agreements ---

type memAgreements struct{ s *memStore }

func (r memAgreements) CreateIfAbsent(_ context.Context, _ *gorm.DB, a *models.Agreement) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.agreements {
		if existing.BookingID == a.BookingID {
			return false, nil
		}
	}
	a.ID = r.s.id()
	r.s.agreements[a.ID] = *a
	return true, nil
}

func (r memAgreements) FindByID(_ context.Context, _ *gorm.DB, id uint) (*models.Agreement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.agreements[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r memAgreements) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Agreement, error) {
	return r.FindByID(ctx, tx, id)
}

func (r memAgreements) FindByBookingID(_ context.Context, _ *gorm.DB, bookingID uint) (*models.Agreement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.agreements {
		if a.BookingID == bookingID {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memAgreements) SaveSignatures(_ context.Context, _ *gorm.DB, a *models.Agreement, readVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.agreements[a.ID]
	if !ok || stored.Version != readVersion {
		return repository.ErrConflict
	}
	stored.ClientSignatureStatus = a.ClientSignatureStatus
	stored.TrainerSignatureStatus = a.TrainerSignatureStatus
	stored.ClientAgreedAt = a.ClientAgreedAt
	stored.TrainerAgreedAt = a.TrainerAgreedAt
	stored.CompletedAt = a.CompletedAt
	stored.Version = a.Version
	r.s.agreements[a.ID] = stored
	return nil
}

func (r memAgreements) MarkRejected(_ context.Context, _ *gorm.DB, a *models.Agreement, by models.Party, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.agreements[a.ID]
	if !ok || stored.Version != a.Version {
		return repository.ErrConflict
	}
	stored.RejectedBy = &by
	stored.RejectedAt = &at
	stored.Version++
	r.s.agreements[a.ID] = stored
	*a = stored
	return nil
}

// --- feedback ---

type memFeedback struct{ s *memStore }

func (r memFeedback) FindActiveLink(_ context.Context, _ *gorm.DB, bookingID uint) (*models.FeedbackLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.links {
		if l.BookingID == bookingID && l.IsActive {
			return &l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memFeedback) FindLinkByToken(_ context.Context, token string) (*models.FeedbackLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.links {
		if l.Token == token {
			return &l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memFeedback) CreateLinkIfAbsent(_ context.Context, _ *gorm.DB, link *models.FeedbackLink) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.links {
		if l.BookingID == link.BookingID && l.IsActive {
			return false, nil
		}
	}
	link.ID = r.s.id()
	r.s.links[link.ID] = *link
	return true, nil
}

func (r memFeedback) DeactivateExpired(_ context.Context, _ *gorm.DB, bookingID uint, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.links {
		if l.BookingID == bookingID && l.IsActive && !now.Before(l.ExpiresAt) {
			l.IsActive = false
			r.s.links[id] = l
		}
	}
	return nil
}

func (r memFeedback) DeactivateLinks(_ context.Context, _ *gorm.DB, bookingID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, l := range r.s.links {
		if l.BookingID == bookingID && l.IsActive {
			l.IsActive = false
			r.s.links[id] = l
			n++
		}
	}
	return n, nil
}

func (r memFeedback) FindResponse(_ context.Context, _ *gorm.DB, linkID uint, email string) (*models.FeedbackResponse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, resp := range r.s.responses {
		if resp.LinkID == linkID && resp.RespondentEmail == email {
			return &resp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memFeedback) CreateResponse(_ context.Context, _ *gorm.DB, resp *models.FeedbackResponse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.responses {
		if existing.LinkID == resp.LinkID && existing.RespondentEmail == resp.RespondentEmail {
			return repository.ErrDuplicate
		}
	}
	resp.ID = r.s.id()
	r.s.responses[resp.ID] = *resp
	return nil
}

// --- outbox and profiles ---

type memOutbox struct{ s *memStore }

func (r memOutbox) Enqueue(_ context.Context, _ *gorm.DB, msgs ...*models.NotificationOutbox) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range msgs {
		m.ID = r.s.id()
		r.s.outbox = append(r.s.outbox, *m)
	}
	return nil
}

func (r memOutbox) ClaimPending(_ context.Context, _ *gorm.DB, limit int, _ time.Time) ([]models.NotificationOutbox, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.NotificationOutbox
	for _, m := range r.s.outbox {
		if m.Status == models.OutboxPending && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r memOutbox) MarkSent(context.Context, *gorm.DB, uint, time.Time) error { return nil }

func (r memOutbox) MarkAttemptFailed(context.Context, *gorm.DB, uint, int, string, *time.Time) error {
	return nil
}

type memProfiles struct{ s *memStore }

func (r memProfiles) FindByIDs(_ context.Context, _ *gorm.DB, ids ...string) (map[string]models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]models.Profile{}
	for _, id := range ids {
		if p, ok := r.s.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// --- wiring ---

var (
	client  = models.Actor{UserID: "client-1", Role: models.RoleUser}
	trainer = models.Actor{UserID: "trainer-1", Role: models.RoleTrainer}
	rival   = models.Actor{UserID: "trainer-2", Role: models.RoleTrainer}
	admin   = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
)

type fixture struct {
	store        *memStore
	requests     RequestService
	applications ApplicationService
	bookings     BookingService
	agreements   AgreementService
	feedback     FeedbackService
}

func newFixture() *fixture {
	s := newMemStore()
	s.profiles[client.UserID] = models.Profile{ID: client.UserID, FullName: "Nok Client", Email: "nok@acme.test", Organization: "Acme"}
	s.profiles[trainer.UserID] = models.Profile{ID: trainer.UserID, FullName: "Ton Trainer", Email: "ton@train.test"}

	var (
		tx     = passTx{}
		logger = zap.NewNop()
		retry  = database.RetryPolicy{MaxRetries: 1, Base: time.Millisecond}
	)
	return &fixture{
		store:        s,
		requests:     NewRequestService(tx, memRequests{s}, memBookings{s}, logger),
		applications: NewApplicationService(tx, memRequests{s}, memApplications{s}, memOutbox{s}, logger),
		bookings:     NewBookingService(tx, memBookings{s}, memRequests{s}, memApplications{s}, memAgreements{s}, memOutbox{s}, logger),
		agreements:   NewAgreementService(tx, memBookings{s}, memRequests{s}, memAgreements{s}, memProfiles{s}, memOutbox{s}, retry, logger),
		feedback:     NewFeedbackService(tx, memBookings{s}, memFeedback{s}, memOutbox{s}, 24*time.Hour, retry, logger),
	}
}

// seedBooking stores a marketplace booking directly in the given status.
func (f *fixture) seedBooking(status models.BookingStatus) *models.Booking {
	start := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	b := &models.Booking{
		ClientID:      client.UserID,
		TrainerID:     trainer.UserID,
		TrainingTopic: "Go concurrency",
		StartTime:     start,
		EndTime:       start.Add(8 * time.Hour),
		DurationHours: 8,
		TotalAmount:   1200,
		Status:        status,
		Version:       1,
	}
	_ = memBookings{f.store}.Create(context.Background(), nil, b)
	return b
}
