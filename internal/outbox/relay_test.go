package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type passTx struct{}

func (passTx) WithinTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

// --- Mock OutboxRepository ---

// mockOutboxRepo keeps rows by id and applies claims and updates the way the store does.
type mockOutboxRepo struct {
	mu   sync.Mutex
	rows []models.NotificationOutbox
	sent []uint
}

func (m *mockOutboxRepo) Enqueue(context.Context, *gorm.DB, ...*models.NotificationOutbox) error {
	return nil
}
func (m *mockOutboxRepo) ClaimPending(_ context.Context, _ *gorm.DB, limit int, now time.Time) ([]models.NotificationOutbox, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.NotificationOutbox
	for _, r := range m.rows {
		if r.Status != models.OutboxPending || (r.NextAttemptAt != nil && r.NextAttemptAt.After(now)) {
			continue
		}
		if len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}
func (m *mockOutboxRepo) MarkSent(_ context.Context, _ *gorm.DB, id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, id)
	r := m.find(id)
	r.Status = models.OutboxSent
	r.SentAt = &at
	r.Attempts++
	return nil
}
func (m *mockOutboxRepo) MarkAttemptFailed(_ context.Context, _ *gorm.DB, id uint, attempts int, lastErr string, retryAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(id)
	r.Attempts = attempts
	r.LastError = lastErr
	r.NextAttemptAt = retryAt
	if retryAt == nil {
		r.Status = models.OutboxFailed
	}
	return nil
}

func (m *mockOutboxRepo) find(id uint) *models.NotificationOutbox {
	for i := range m.rows {
		if m.rows[i].ID == id {
			return &m.rows[i]
		}
	}
	panic("unknown outbox row")
}

func (m *mockOutboxRepo) row(id uint) models.NotificationOutbox {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.find(id)
}

// --- Mock Publisher ---

type published struct {
	key       string
	messageID string
	body      []byte
}

type mockPublisher struct {
	mu     sync.Mutex
	out    []published
	calls  int
	failOn map[string]error
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, key, messageID string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	if err, ok := m.failOn[messageID]; ok {
		return err
	}
	m.out = append(m.out, published{key: key, messageID: messageID, body: body})
	return nil
}

func (m *mockPublisher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newRow(id uint, msgID string, attempts int) models.NotificationOutbox {
	return models.NotificationOutbox{
		ID:          id,
		MessageID:   msgID,
		RecipientID: "trainer-1",
		Type:        models.NotifyBookingStatus,
		Title:       "Booking confirmed",
		Message:     "Booking #3 is now confirmed",
		Data:        map[string]any{"booking_id": float64(3)},
		Status:      models.OutboxPending,
		Attempts:    attempts,
	}
}

func fixedClock(at time.Time) func() time.Time { return func() time.Time { return at } }

func TestDispatchBatch_PublishesAndMarksSent(t *testing.T) {
	repo := &mockOutboxRepo{rows: []models.NotificationOutbox{newRow(1, "m-1", 0), newRow(2, "m-2", 0)}}
	pub := &mockPublisher{}
	relay := NewRelay(passTx{}, repo, pub, Options{BatchSize: 10}, zap.NewNop())

	claimed, sent, err := relay.DispatchBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, claimed)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []uint{1, 2}, repo.sent)
	require.Len(t, pub.out, 2)
	assert.Equal(t, "notification.booking_status_changed", pub.out[0].key)
	assert.Equal(t, "m-1", pub.out[0].messageID)

	var msg models.Notification
	require.NoError(t, json.Unmarshal(pub.out[0].body, &msg))
	assert.Equal(t, "trainer-1", msg.UserID)
	assert.Equal(t, models.NotifyBookingStatus, msg.Type)
	assert.Equal(t, float64(3), msg.Data["booking_id"])
}

func TestDispatchBatch_RecordsFailures(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	repo := &mockOutboxRepo{rows: []models.NotificationOutbox{newRow(1, "m-1", 0), newRow(2, "m-2", 4), newRow(3, "m-3", 0)}}
	pub := &mockPublisher{failOn: map[string]error{
		"m-1": errors.New("channel closed"),
		"m-2": errors.New("channel closed"),
	}}
	relay := NewRelay(passTx{}, repo, pub, Options{BatchSize: 10, MaxAttempts: 5, RetryBase: 10 * time.Second}, zap.NewNop())
	relay.now = fixedClock(now)

	claimed, sent, err := relay.DispatchBatch(context.Background())

	require.NoError(t, err, "publish failures stay on the rows")
	assert.Equal(t, 3, claimed)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []uint{3}, repo.sent)

	retried := repo.row(1)
	assert.Equal(t, models.OutboxPending, retried.Status)
	assert.Equal(t, 1, retried.Attempts)
	assert.Equal(t, "channel closed", retried.LastError)
	require.NotNil(t, retried.NextAttemptAt)
	assert.Equal(t, now.Add(10*time.Second), *retried.NextAttemptAt)

	dropped := repo.row(2)
	assert.Equal(t, models.OutboxFailed, dropped.Status)
	assert.Equal(t, 5, dropped.Attempts)
	assert.Nil(t, dropped.NextAttemptAt)
}

func TestDispatchBatch_SkipsRowsInBackoff(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	repo := &mockOutboxRepo{rows: []models.NotificationOutbox{newRow(1, "m-1", 0)}}
	pub := &mockPublisher{err: errors.New("connection closed")}
	relay := NewRelay(passTx{}, repo, pub, Options{BatchSize: 10, RetryBase: time.Minute}, zap.NewNop())
	relay.now = fixedClock(now)

	_, _, err := relay.DispatchBatch(context.Background())
	require.NoError(t, err)

	claimed, _, err := relay.DispatchBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, claimed, "row waits out its backoff")
	assert.Equal(t, 1, pub.callCount())

	relay.now = fixedClock(now.Add(time.Minute))
	claimed, _, err = relay.DispatchBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, claimed)
	assert.Equal(t, 2, repo.row(1).Attempts)
}

func TestDispatchBatch_RespectsBatchSize(t *testing.T) {
	repo := &mockOutboxRepo{rows: []models.NotificationOutbox{newRow(1, "m-1", 0), newRow(2, "m-2", 0), newRow(3, "m-3", 0)}}
	relay := NewRelay(passTx{}, repo, &mockPublisher{}, Options{BatchSize: 2}, zap.NewNop())

	claimed, sent, err := relay.DispatchBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, claimed)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []uint{1, 2}, repo.sent)
}

func TestRetryDelay_DoublesUpToCap(t *testing.T) {
	relay := NewRelay(passTx{}, &mockOutboxRepo{}, &mockPublisher{}, Options{RetryBase: 10 * time.Second}, zap.NewNop())

	assert.Equal(t, 10*time.Second, relay.retryDelay(1))
	assert.Equal(t, 20*time.Second, relay.retryDelay(2))
	assert.Equal(t, 80*time.Second, relay.retryDelay(4))
	assert.Equal(t, maxRetryDelay, relay.retryDelay(20))
}

// With the broker down, a full batch must not be retried until the next tick.
func TestRun_BrokerDownWaitsForTick(t *testing.T) {
	repo := &mockOutboxRepo{rows: []models.NotificationOutbox{newRow(1, "m-1", 0), newRow(2, "m-2", 0)}}
	pub := &mockPublisher{err: errors.New("connection closed")}
	relay := NewRelay(passTx{}, repo, pub, Options{
		Interval:    time.Hour,
		BatchSize:   2,
		MaxAttempts: 5,
		RetryBase:   time.Millisecond,
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, relay.Run(ctx))

	assert.Equal(t, 2, pub.callCount(), "one publish per row in the first pass")
	for _, id := range []uint{1, 2} {
		r := repo.row(id)
		assert.Equal(t, models.OutboxPending, r.Status)
		assert.Equal(t, 1, r.Attempts)
	}
}

func TestRun_DrainsFullBatchesThatSend(t *testing.T) {
	repo := &mockOutboxRepo{rows: []models.NotificationOutbox{newRow(1, "m-1", 0), newRow(2, "m-2", 0), newRow(3, "m-3", 0)}}
	pub := &mockPublisher{}
	relay := NewRelay(passTx{}, repo, pub, Options{Interval: time.Hour, BatchSize: 2}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, relay.Run(ctx))

	assert.Equal(t, []uint{1, 2, 3}, repo.sent, "second batch goes out without waiting for the tick")
}

func TestRun_StopsOnCancel(t *testing.T) {
	relay := NewRelay(passTx{}, &mockOutboxRepo{}, &mockPublisher{}, Options{Interval: 5 * time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
