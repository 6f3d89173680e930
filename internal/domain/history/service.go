// Package history aggregates a patient's clinical data into one view.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pamela-btob/sghss-uninter/internal/domain/account"
	"github.com/pamela-btob/sghss-uninter/internal/domain/appointment"
	"github.com/pamela-btob/sghss-uninter/internal/domain/exam"
	"github.com/pamela-btob/sghss-uninter/internal/domain/record"
	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
)

// RecentAppointmentsWindow bounds the appointment slice of the history
// to the last 30 days, up to now. Future bookings stay out of it.
const RecentAppointmentsWindow = 30 * 24 * time.Hour

// aggregationLimit caps how many records and exams one history pulls.
const aggregationLimit = 500

type AccountSource interface {
	Get(ctx context.Context, id uuid.UUID) (*account.User, error)
}

type RecordSource interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*record.Record, int, error)
}

type ExamSource interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*exam.Exam, int, error)
}

type AppointmentSource interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*appointment.Appointment, int, error)
	ListByPatientBetween(ctx context.Context, patientID uuid.UUID, from, to time.Time) ([]*appointment.Appointment, error)
}

type History struct {
	Patient            *account.Profile           `json:"patient"`
	Records            []*record.Record           `json:"records"`
	Exams              []*exam.Exam               `json:"exams"`
	RecentAppointments []*appointment.Appointment `json:"recent_appointments"`
	Counts             Counts                     `json:"counts"`
	GeneratedAt        time.Time                  `json:"generated_at"`
}

type Counts struct {
	Records              int            `json:"records"`
	Exams                int            `json:"exams"`
	ExamsByStatus        map[string]int `json:"exams_by_status"`
	CompletedByModality  map[string]int `json:"completed_consultations_by_modality"`
}

type Service struct {
	accounts     AccountSource
	records      RecordSource
	exams        ExamSource
	appointments AppointmentSource
	logger       zerolog.Logger
}

func NewService(accounts AccountSource, records RecordSource, exams ExamSource,
	appointments AppointmentSource, logger zerolog.Logger) *Service {
	return &Service{
		accounts:     accounts,
		records:      records,
		exams:        exams,
		appointments: appointments,
		logger:       logger,
	}
}

// ForPatient builds the aggregated history. Doctors and admins may pull
// any patient, patients only their own. Internal faults are logged and
// returned as a generic error so partial clinical data never leaks.
func (s *Service) ForPatient(ctx context.Context, caller auth.Identity, patientID uuid.UUID) (*History, error) {
	if caller.Role == auth.RolePatient && caller.ID != patientID {
		return nil, apperr.Permission("patients can only access their own history")
	}

	u, err := s.accounts.Get(ctx, patientID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, err
		}
		return nil, s.fault(patientID, "load patient", err)
	}
	if u.Role != auth.RolePatient {
		return nil, apperr.NotFound("patient")
	}

	records, recordTotal, err := s.records.ListByPatient(ctx, patientID, aggregationLimit, 0)
	if err != nil {
		return nil, s.fault(patientID, "load records", err)
	}
	exams, examTotal, err := s.exams.ListByPatient(ctx, patientID, aggregationLimit, 0)
	if err != nil {
		return nil, s.fault(patientID, "load exams", err)
	}
	now := time.Now()
	recent, err := s.appointments.ListByPatientBetween(ctx, patientID, now.Add(-RecentAppointmentsWindow), now)
	if err != nil {
		return nil, s.fault(patientID, "load recent appointments", err)
	}
	all, _, err := s.appointments.ListByPatient(ctx, patientID, aggregationLimit, 0)
	if err != nil {
		return nil, s.fault(patientID, "load appointments", err)
	}

	counts := Counts{
		Records:             recordTotal,
		Exams:               examTotal,
		ExamsByStatus:       map[string]int{},
		CompletedByModality: map[string]int{},
	}
	for _, e := range exams {
		counts.ExamsByStatus[string(e.Status)]++
	}
	for _, a := range all {
		if a.Status == appointment.StatusCompleted {
			counts.CompletedByModality[string(a.Modality)]++
		}
	}

	return &History{
		Patient:            u.Profile(),
		Records:            records,
		Exams:              exams,
		RecentAppointments: recent,
		Counts:             counts,
		GeneratedAt:        time.Now(),
	}, nil
}

func (s *Service) fault(patientID uuid.UUID, step string, err error) error {
	s.logger.Error().Err(err).Str("patient_id", patientID.String()).Str("step", step).
		Msg("history aggregation failed")
	return apperr.Internal(err)
}
