// Package appointment manages the consultation lifecycle: booking,
// confirmation, completion and cancellation, with role-scoped visibility.
package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Modality string

const (
	ModalityInPerson     Modality = "in_person"
	ModalityTelemedicine Modality = "telemedicine"
)

func (m Modality) Valid() bool {
	return m == ModalityInPerson || m == ModalityTelemedicine
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the status may move from s to next. The
// lifecycle only moves forward: scheduled, confirmed, completed; cancelled
// is reachable from scheduled or confirmed and is terminal.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusScheduled:
		return next == StatusConfirmed || next == StatusCompleted || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

const DefaultDurationMinutes = 30

// Appointment maps to the appointments table.
type Appointment struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID     uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	ScheduledAt  time.Time  `db:"scheduled_at" json:"scheduled_at"`
	DurationMin  int        `db:"duration_min" json:"duration_min"`
	Modality     Modality   `db:"modality" json:"modality"`
	Status       Status     `db:"status" json:"status"`
	MeetingLink  *string    `db:"meeting_link" json:"meeting_link,omitempty"`
	CancelReason *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
