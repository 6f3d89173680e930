// Package exam tracks lab and imaging exams from request to delivery.
package exam

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeBlood   Type = "blood"
	TypeImaging Type = "imaging"
	TypeUrine   Type = "urine"
	TypeCardio  Type = "cardio"
	TypeOther   Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeBlood, TypeImaging, TypeUrine, TypeCardio, TypeOther:
		return true
	}
	return false
}

type Status string

const (
	StatusRequested  Status = "requested"
	StatusCollected  Status = "collected"
	StatusProcessing Status = "processing"
	StatusFinalized  Status = "finalized"
	StatusDelivered  Status = "delivered"
)

func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusCollected, StatusProcessing, StatusFinalized, StatusDelivered:
		return true
	}
	return false
}

type Exam struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Type        Type      `db:"exam_type" json:"exam_type"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`

	// Result fields, stored encrypted.
	Result          *string `db:"result" json:"result,omitempty"`
	Observations    *string `db:"observations" json:"observations,omitempty"`
	ReferenceValues *string `db:"reference_values" json:"reference_values,omitempty"`

	RequestedAt   time.Time  `db:"requested_at" json:"requested_at"`
	PerformedDate *time.Time `db:"performed_date" json:"performed_date,omitempty"`
	ResultDate    *time.Time `db:"result_date" json:"result_date,omitempty"`
	Status        Status     `db:"status" json:"status"`
	LabName       *string    `db:"lab_name" json:"lab_name,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
