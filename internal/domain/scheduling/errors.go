package scheduling

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSlotTaken is returned by the repository when an insert or update
	// hits the unique (scheduled_date, start_time) constraint.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrNoFreeSlot means every slot of the requested day is booked.
	ErrNoFreeSlot = errors.New("no free slot on requested date")

	// ErrNotFound means the appointment does not exist.
	ErrNotFound = errors.New("appointment not found")

	// ErrInvalidTransition means the requested status change is not allowed
	// from the appointment's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// SlotConflictError reports a booking that lost the race for a slot. It
// carries the re-fetched set of booked slots for the day so the caller can
// offer an up-to-date picture instead of the stale one that caused the
// conflict.
type SlotConflictError struct {
	Date        time.Time
	StartTime   SlotTime
	BookedSlots []SlotTime
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot %s on %s already taken",
		e.StartTime, e.Date.Format("2006-01-02"))
}

func (e *SlotConflictError) Unwrap() error { return ErrSlotTaken }
