package fsm

import "github.com/Eursukkul/trainer-booking-service/internal/models"

var bookingTransitions = map[models.BookingStatus]map[models.BookingStatus]struct{}{
	models.StatusPendingAssignment: {
		models.StatusPendingPayment: {},
		models.StatusPending:        {},
		models.StatusCancelled:      {},
	},
	models.StatusPendingPayment: {
		models.StatusPending:   {},
		models.StatusCancelled: {},
	},
	models.StatusPending: {
		models.StatusConfirmed: {},
		models.StatusCancelled: {},
	},
	models.StatusConfirmed: {
		models.StatusCompleted: {},
		models.StatusCancelled: {},
	},
	models.StatusCompleted: {},
	models.StatusCancelled: {},
}

var applicationTransitions = map[models.ApplicationStatus]map[models.ApplicationStatus]struct{}{
	models.ApplicationPending: {
		models.ApplicationShortlisted: {},
		models.ApplicationRejected:    {},
	},
	models.ApplicationShortlisted: {
		models.ApplicationRejected: {},
	},
	models.ApplicationSelected: {},
	models.ApplicationRejected: {},
}

// CanTransition reports whether a booking may move from one status to another.
// Staying in the same status is not a transition.
func CanTransition(from, to models.BookingStatus) bool {
	allowed, ok := bookingTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.BookingStatus) bool {
	allowed, ok := bookingTransitions[status]
	return ok && len(allowed) == 0
}

func IsKnown(status models.BookingStatus) bool {
	_, ok := bookingTransitions[status]
	return ok
}

// CanUpdateApplication covers the moves a request owner makes by hand.
// Selection goes through the selection path and is not listed here.
func CanUpdateApplication(from, to models.ApplicationStatus) bool {
	allowed, ok := applicationTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
