// Package prescription manages medical prescriptions and their validity
// lifecycle.
package prescription

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindMedication Kind = "medication"
	KindExam       Kind = "exam"
	KindProcedure  Kind = "procedure"
	KindDiet       Kind = "diet"
)

func (k Kind) Valid() bool {
	switch k {
	case KindMedication, KindExam, KindProcedure, KindDiet:
		return true
	}
	return false
}

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusFinalized Status = "finalized"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusFinalized:
		return true
	}
	return false
}

type Prescription struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	RecordID    *uuid.UUID `db:"record_id" json:"record_id,omitempty"`
	Kind        Kind       `db:"kind" json:"kind"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Medications *string    `db:"medications" json:"medications,omitempty"`
	Dosage      *string    `db:"dosage" json:"dosage,omitempty"`
	Exams       *string    `db:"exams" json:"exams,omitempty"`
	IssuedAt    time.Time  `db:"issued_at" json:"issued_at"`
	ValidUntil  time.Time  `db:"valid_until" json:"valid_until"`
	Status      Status     `db:"status" json:"status"`

	// Derived from status and validity, never stored.
	CurrentlyValid bool `db:"-" json:"currently_valid"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RefreshValidity recomputes the derived flag. Valid through the end of
// the validity day, a prescription expiring today still counts.
func (p *Prescription) RefreshValidity(now time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	p.CurrentlyValid = p.Status == StatusActive && !p.ValidUntil.Before(today)
}
