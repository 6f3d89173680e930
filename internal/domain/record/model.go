// Package record manages clinical records written by doctors during care.
// Vital sign fields are encrypted at rest.
package record

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryConsultation Category = "consultation"
	CategoryExam         Category = "exam"
	CategoryDiagnosis    Category = "diagnosis"
	CategoryPrescription Category = "prescription"
	CategoryProgress     Category = "progress"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryConsultation, CategoryExam, CategoryDiagnosis, CategoryPrescription, CategoryProgress:
		return true
	}
	return false
}

type Record struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Category      Category   `db:"category" json:"category"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	Symptoms      *string    `db:"symptoms" json:"symptoms,omitempty"`
	Diagnosis     *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Medications   *string    `db:"medications" json:"medications,omitempty"`
	ExamRequests  *string    `db:"exam_requests" json:"exam_requests,omitempty"`

	// Vitals, stored encrypted.
	BloodPressure *string `db:"blood_pressure" json:"blood_pressure,omitempty"`
	Temperature   *string `db:"temperature" json:"temperature,omitempty"`
	HeartRate     *string `db:"heart_rate" json:"heart_rate,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
