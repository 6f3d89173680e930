// Package reporting serves the administrative dashboard and reports.
package reporting

import (
	"time"

	"github.com/google/uuid"
)

type Dashboard struct {
	Users        UserCounts        `json:"users"`
	Appointments AppointmentCounts `json:"appointments"`
	Records      RecordCounts      `json:"records"`
	Exams        ExamCounts        `json:"exams"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

type UserCounts struct {
	Total    int `json:"total"`
	Patients int `json:"patients"`
	Doctors  int `json:"doctors"`
	Admins   int `json:"admins"`
}

type AppointmentCounts struct {
	Total      int            `json:"total"`
	Today      int            `json:"today"`
	ThisMonth  int            `json:"this_month"`
	ByStatus   map[string]int `json:"by_status"`
	ByModality map[string]int `json:"by_modality"`
}

type RecordCounts struct {
	Total     int `json:"total"`
	ThisMonth int `json:"this_month"`
}

type ExamCounts struct {
	ByStatus map[string]int `json:"by_status"`
	TopTypes []TypeCount    `json:"top_types"`
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ReportFilter narrows the appointment report. Nil fields match
// everything.
type ReportFilter struct {
	From     *time.Time
	To       *time.Time
	DoctorID *uuid.UUID
	Status   *string
}

type AppointmentReport struct {
	Rows       []ReportRow       `json:"rows"`
	Total      int               `json:"total"`
	ByStatus   map[string]int    `json:"by_status"`
	ByModality map[string]int    `json:"by_modality"`
	Filters    map[string]string `json:"filters"`
}

type ReportRow struct {
	ID          uuid.UUID `json:"id"`
	PatientName string    `json:"patient_name"`
	DoctorName  string    `json:"doctor_name"`
	ScheduledAt time.Time `json:"scheduled_at"`
	DurationMin int       `json:"duration_min"`
	Modality    string    `json:"modality"`
	Status      string    `json:"status"`
}

// FinancialReport is a demo placeholder with synthetic figures, it is
// not derived from stored data.
type FinancialReport struct {
	Period           string  `json:"period"`
	ConsultationFee  float64 `json:"consultation_fee"`
	Consultations    int     `json:"consultations"`
	GrossRevenue     float64 `json:"gross_revenue"`
	OperatingCosts   float64 `json:"operating_costs"`
	NetRevenue       float64 `json:"net_revenue"`
	Disclaimer       string  `json:"disclaimer"`
}
