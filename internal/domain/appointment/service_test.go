package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
	"github.com/pamela-btob/sghss-uninter/internal/platform/notification"
)

type mockRepo struct {
	items map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("appointment")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.items[a.ID]; !ok {
		return apperr.NotFound("appointment")
	}
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return m.filter(func(a *Appointment) bool { return a.PatientID == patientID })
}

func (m *mockRepo) ListByPatientBetween(_ context.Context, patientID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	items, _, err := m.filter(func(a *Appointment) bool {
		return a.PatientID == patientID && !a.ScheduledAt.Before(from) && !a.ScheduledAt.After(to)
	})
	return items, err
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return m.filter(func(a *Appointment) bool { return a.DoctorID == doctorID })
}

func (m *mockRepo) ListAll(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	return m.filter(func(*Appointment) bool { return true })
}

func (m *mockRepo) filter(keep func(*Appointment) bool) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.items {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

type mockDirectory struct {
	roles map[uuid.UUID]auth.Role
}

func (m *mockDirectory) RoleOf(_ context.Context, id uuid.UUID) (auth.Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return "", apperr.NotFound("user")
	}
	return r, nil
}

func (m *mockDirectory) Contact(_ context.Context, id uuid.UUID) (string, string, error) {
	if _, ok := m.roles[id]; !ok {
		return "", "", apperr.NotFound("user")
	}
	return "user-" + id.String()[:8], id.String()[:8] + "@sghss.test", nil
}

type mockNotifier struct {
	queued []notification.Message
}

func (m *mockNotifier) Enqueue(msg notification.Message) {
	m.queued = append(m.queued, msg)
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	notifier *mockNotifier
	patient  auth.Identity
	doctor   auth.Identity
	admin    auth.Identity
}

func newFixture() *fixture {
	patient := auth.Identity{ID: uuid.New(), Role: auth.RolePatient}
	doctor := auth.Identity{ID: uuid.New(), Role: auth.RoleDoctor}
	admin := auth.Identity{ID: uuid.New(), Role: auth.RoleAdmin}
	dir := &mockDirectory{roles: map[uuid.UUID]auth.Role{
		patient.ID: auth.RolePatient,
		doctor.ID:  auth.RoleDoctor,
		admin.ID:   auth.RoleAdmin,
	}}
	repo := newMockRepo()
	notifier := &mockNotifier{}
	return &fixture{
		svc:      NewService(repo, dir, notifier),
		repo:     repo,
		notifier: notifier,
		patient:  patient,
		doctor:   doctor,
		admin:    admin,
	}
}

func (f *fixture) validInput() CreateInput {
	return CreateInput{
		PatientID:   f.patient.ID,
		DoctorID:    f.doctor.ID,
		ScheduledAt: time.Now().Add(24 * time.Hour),
	}
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture()
	a, err := f.svc.Create(context.Background(), f.patient, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("status = %s, want scheduled", a.Status)
	}
	if a.DurationMin != DefaultDurationMinutes {
		t.Errorf("duration = %d, want %d", a.DurationMin, DefaultDurationMinutes)
	}
	if a.Modality != ModalityInPerson {
		t.Errorf("modality = %s, want in_person", a.Modality)
	}
	if len(f.notifier.queued) != 1 {
		t.Fatalf("queued %d notifications, want 1", len(f.notifier.queued))
	}
	if f.notifier.queued[0].TemplateID != notification.TemplateAppointmentCreated {
		t.Errorf("template = %s", f.notifier.queued[0].TemplateID)
	}
}

func TestCreatePatientBooksSelfOnly(t *testing.T) {
	f := newFixture()
	in := f.validInput()
	in.PatientID = uuid.New() // someone else
	a, err := f.svc.Create(context.Background(), f.patient, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.PatientID != f.patient.ID {
		t.Errorf("patient id not forced to caller")
	}
}

func TestCreateDoctorDefaultsToCaller(t *testing.T) {
	f := newFixture()
	in := f.validInput()
	in.DoctorID = uuid.Nil
	a, err := f.svc.Create(context.Background(), f.doctor, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.DoctorID != f.doctor.ID {
		t.Errorf("doctor id not defaulted to caller")
	}
}

func TestCreatePastDateRejected(t *testing.T) {
	f := newFixture()
	in := f.validInput()
	in.ScheduledAt = time.Now().Add(-time.Hour)
	_, err := f.svc.Create(context.Background(), f.admin, in)
	if !apperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateSamePatientAndDoctor(t *testing.T) {
	f := newFixture()
	in := f.validInput()
	in.PatientID = f.doctor.ID
	_, err := f.svc.Create(context.Background(), f.admin, in)
	if !apperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateRoleMismatch(t *testing.T) {
	f := newFixture()
	in := f.validInput()
	in.PatientID = f.admin.ID
	_, err := f.svc.Create(context.Background(), f.admin, in)
	if !apperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateInvalidModality(t *testing.T) {
	f := newFixture()
	in := f.validInput()
	in.Modality = "phone"
	_, err := f.svc.Create(context.Background(), f.admin, in)
	if !apperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestGetAccessControl(t *testing.T) {
	f := newFixture()
	a, err := f.svc.Create(context.Background(), f.admin, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, ident := range []auth.Identity{f.patient, f.doctor, f.admin} {
		if _, err := f.svc.Get(context.Background(), ident, a.ID); err != nil {
			t.Errorf("get as %s: %v", ident.Role, err)
		}
	}

	stranger := auth.Identity{ID: uuid.New(), Role: auth.RolePatient}
	if _, err := f.svc.Get(context.Background(), stranger, a.ID); !apperr.IsPermission(err) {
		t.Errorf("stranger get: err = %v, want permission", err)
	}
}

func TestListScoping(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Create(context.Background(), f.admin, f.validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	other := auth.Identity{ID: uuid.New(), Role: auth.RolePatient}
	items, total, err := f.svc.List(context.Background(), other, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Errorf("other patient sees %d appointments, want 0", total)
	}

	_, total, err = f.svc.List(context.Background(), f.doctor, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 {
		t.Errorf("doctor sees %d appointments, want 1", total)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture()
	a, err := f.svc.Create(context.Background(), f.admin, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	in := UpdateInput{ScheduledAt: a.ScheduledAt, Status: StatusConfirmed}
	updated, err := f.svc.Update(context.Background(), f.doctor, a.ID, in)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if updated.Status != StatusConfirmed {
		t.Errorf("status = %s, want confirmed", updated.Status)
	}

	in.Status = StatusCompleted
	if _, err := f.svc.Update(context.Background(), f.doctor, a.ID, in); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Completed is terminal.
	in.Status = StatusScheduled
	if _, err := f.svc.Update(context.Background(), f.doctor, a.ID, in); !apperr.IsValidation(err) {
		t.Fatalf("revert: err = %v, want validation", err)
	}
}

func TestCancelFlow(t *testing.T) {
	f := newFixture()
	a, err := f.svc.Create(context.Background(), f.admin, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.notifier.queued = nil

	cancelled, err := f.svc.Cancel(context.Background(), f.patient, a.ID, CancelInput{Reason: "conflito de agenda"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "conflito de agenda" {
		t.Errorf("cancel reason not recorded")
	}
	if cancelled.CancelledAt == nil {
		t.Errorf("cancelled_at not set")
	}
	// Cancellation goes out to both the patient and the doctor.
	if len(f.notifier.queued) != 2 {
		t.Fatalf("queued %d notifications, want 2", len(f.notifier.queued))
	}
	recipients := map[string]bool{}
	for _, msg := range f.notifier.queued {
		if msg.TemplateID != notification.TemplateAppointmentCancelled {
			t.Errorf("template = %s, want %s", msg.TemplateID, notification.TemplateAppointmentCancelled)
		}
		recipients[msg.Recipient] = true
	}
	patientEmail := f.patient.ID.String()[:8] + "@sghss.test"
	doctorEmail := f.doctor.ID.String()[:8] + "@sghss.test"
	if !recipients[patientEmail] || !recipients[doctorEmail] {
		t.Errorf("recipients = %v, want patient and doctor", recipients)
	}

	// Second cancel is rejected.
	if _, err := f.svc.Cancel(context.Background(), f.patient, a.ID, CancelInput{}); !apperr.IsValidation(err) {
		t.Fatalf("double cancel: err = %v, want validation", err)
	}
}

func TestCancelDefaultReason(t *testing.T) {
	f := newFixture()
	a, err := f.svc.Create(context.Background(), f.admin, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cancelled, err := f.svc.Cancel(context.Background(), f.patient, a.ID, CancelInput{})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "cancelled by user" {
		t.Errorf("default reason not applied")
	}
}

func TestDeleteAccessControl(t *testing.T) {
	f := newFixture()
	a, err := f.svc.Create(context.Background(), f.admin, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stranger := auth.Identity{ID: uuid.New(), Role: auth.RolePatient}
	if err := f.svc.Delete(context.Background(), stranger, a.ID); !apperr.IsPermission(err) {
		t.Fatalf("stranger delete: err = %v, want permission", err)
	}

	// The named patient may remove their own appointment.
	if err := f.svc.Delete(context.Background(), f.patient, a.ID); err != nil {
		t.Fatalf("patient delete: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), f.admin, a.ID); !apperr.IsNotFound(err) {
		t.Fatalf("get after delete: err = %v, want not found", err)
	}

	b, err := f.svc.Create(context.Background(), f.admin, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.Delete(context.Background(), f.doctor, b.ID); err != nil {
		t.Fatalf("doctor delete: %v", err)
	}

	c, err := f.svc.Create(context.Background(), f.admin, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.Delete(context.Background(), f.admin, c.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}
