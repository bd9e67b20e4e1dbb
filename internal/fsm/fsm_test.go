package fsm

import (
	"testing"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.StatusPending, models.StatusConfirmed))
	assert.True(t, CanTransition(models.StatusPending, models.StatusCancelled))
	assert.True(t, CanTransition(models.StatusConfirmed, models.StatusCompleted))
	assert.True(t, CanTransition(models.StatusConfirmed, models.StatusCancelled))
	assert.True(t, CanTransition(models.StatusPendingPayment, models.StatusPending))
	assert.True(t, CanTransition(models.StatusPendingAssignment, models.StatusPendingPayment))

	assert.False(t, CanTransition(models.StatusPending, models.StatusCompleted))
	assert.False(t, CanTransition(models.StatusPendingPayment, models.StatusConfirmed))
	assert.False(t, CanTransition(models.StatusPending, models.StatusPending))
	assert.False(t, CanTransition("bogus", models.StatusPending))
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	for _, from := range []models.BookingStatus{models.StatusCompleted, models.StatusCancelled} {
		assert.True(t, IsTerminal(from))
		for _, to := range models.BookingStatuses {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, IsTerminal(models.StatusConfirmed))
}

func TestCanUpdateApplication(t *testing.T) {
	assert.True(t, CanUpdateApplication(models.ApplicationPending, models.ApplicationShortlisted))
	assert.True(t, CanUpdateApplication(models.ApplicationPending, models.ApplicationRejected))
	assert.True(t, CanUpdateApplication(models.ApplicationShortlisted, models.ApplicationRejected))

	assert.False(t, CanUpdateApplication(models.ApplicationShortlisted, models.ApplicationPending))
	assert.False(t, CanUpdateApplication(models.ApplicationPending, models.ApplicationSelected))
	assert.False(t, CanUpdateApplication(models.ApplicationRejected, models.ApplicationShortlisted))
	assert.False(t, CanUpdateApplication(models.ApplicationSelected, models.ApplicationRejected))
}
