package history

import (
	"context"
	"errors"
	"net/http"
	"testing"
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

type mockAccounts struct {
	users map[uuid.UUID]*account.User
	err   error
}

func (m *mockAccounts) Get(_ context.Context, id uuid.UUID) (*account.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

type mockRecords struct {
	items []*record.Record
	err   error
}

func (m *mockRecords) ListByPatient(_ context.Context, _ uuid.UUID, _, _ int) ([]*record.Record, int, error) {
	return m.items, len(m.items), m.err
}

type mockExams struct {
	items []*exam.Exam
	err   error
}

func (m *mockExams) ListByPatient(_ context.Context, _ uuid.UUID, _, _ int) ([]*exam.Exam, int, error) {
	return m.items, len(m.items), m.err
}

type mockAppointments struct {
	items []*appointment.Appointment
	err   error
}

func (m *mockAppointments) ListByPatient(_ context.Context, _ uuid.UUID, _, _ int) ([]*appointment.Appointment, int, error) {
	return m.items, len(m.items), m.err
}

func (m *mockAppointments) ListByPatientBetween(_ context.Context, _ uuid.UUID, from, to time.Time) ([]*appointment.Appointment, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*appointment.Appointment
	for _, a := range m.items {
		if !a.ScheduledAt.Before(from) && !a.ScheduledAt.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fixture struct {
	svc          *Service
	accounts     *mockAccounts
	records      *mockRecords
	exams        *mockExams
	appointments *mockAppointments
	patient      auth.Identity
	doctor       auth.Identity
}

func newFixture() *fixture {
	patient := auth.Identity{ID: uuid.New(), Role: auth.RolePatient}
	doctor := auth.Identity{ID: uuid.New(), Role: auth.RoleDoctor}

	accounts := &mockAccounts{users: map[uuid.UUID]*account.User{
		patient.ID: {ID: patient.ID, Username: "maria", Email: "maria@example.com", Role: auth.RolePatient},
		doctor.ID:  {ID: doctor.ID, Username: "dr.silva", Email: "silva@example.com", Role: auth.RoleDoctor},
	}}
	records := &mockRecords{}
	exams := &mockExams{}
	appointments := &mockAppointments{}

	return &fixture{
		svc:          NewService(accounts, records, exams, appointments, zerolog.Nop()),
		accounts:     accounts,
		records:      records,
		exams:        exams,
		appointments: appointments,
		patient:      patient,
		doctor:       doctor,
	}
}

func TestForPatientAggregates(t *testing.T) {
	f := newFixture()
	now := time.Now()

	f.records.items = []*record.Record{{ID: uuid.New(), PatientID: f.patient.ID}}
	f.exams.items = []*exam.Exam{
		{ID: uuid.New(), PatientID: f.patient.ID, Status: exam.StatusFinalized},
		{ID: uuid.New(), PatientID: f.patient.ID, Status: exam.StatusRequested},
	}
	f.appointments.items = []*appointment.Appointment{
		{ID: uuid.New(), PatientID: f.patient.ID, ScheduledAt: now.AddDate(0, 0, -5),
			Status: appointment.StatusCompleted, Modality: appointment.ModalityTelemedicine},
		{ID: uuid.New(), PatientID: f.patient.ID, ScheduledAt: now.AddDate(0, 0, -90),
			Status: appointment.StatusCompleted, Modality: appointment.ModalityInPerson},
		{ID: uuid.New(), PatientID: f.patient.ID, ScheduledAt: now.AddDate(0, 0, 7),
			Status: appointment.StatusScheduled, Modality: appointment.ModalityInPerson},
	}

	hist, err := f.svc.ForPatient(context.Background(), f.doctor, f.patient.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if hist.Patient == nil || hist.Patient.Username != "maria" {
		t.Errorf("profile summary missing")
	}
	if hist.Counts.Records != 1 || hist.Counts.Exams != 2 {
		t.Errorf("counts = %+v", hist.Counts)
	}
	if hist.Counts.ExamsByStatus["finalized"] != 1 {
		t.Errorf("exam status counts = %v", hist.Counts.ExamsByStatus)
	}
	// Both completed consultations count, but only the recent one is listed.
	if hist.Counts.CompletedByModality["telemedicine"] != 1 || hist.Counts.CompletedByModality["in_person"] != 1 {
		t.Errorf("modality counts = %v", hist.Counts.CompletedByModality)
	}
	// Neither the 90-day-old visit nor the upcoming booking belongs
	// in the recent window.
	if len(hist.RecentAppointments) != 1 {
		t.Errorf("recent appointments = %d, want 1 within the last 30 days", len(hist.RecentAppointments))
	}
}

func TestForPatientSelfAccess(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.ForPatient(context.Background(), f.patient, f.patient.ID); err != nil {
		t.Fatalf("self access: %v", err)
	}

	other := auth.Identity{ID: uuid.New(), Role: auth.RolePatient}
	if _, err := f.svc.ForPatient(context.Background(), other, f.patient.ID); !apperr.IsPermission(err) {
		t.Fatalf("err = %v, want permission", err)
	}
}

func TestForPatientRejectsNonPatientTarget(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.ForPatient(context.Background(), f.doctor, f.doctor.ID); !apperr.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestForPatientHidesInternalFault(t *testing.T) {
	f := newFixture()
	f.exams.err = errors.New("connection reset by peer")

	_, err := f.svc.ForPatient(context.Background(), f.doctor, f.patient.ID)
	if apperr.StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", apperr.StatusOf(err))
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		if appErr.Message != "internal server error" {
			t.Errorf("fault detail leaked: %q", appErr.Message)
		}
	}
}
