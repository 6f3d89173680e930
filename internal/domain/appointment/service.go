package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pamela-btob/sghss-uninter/internal/domain/account"
	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
	"github.com/pamela-btob/sghss-uninter/internal/platform/notification"
)

// Notifier delivers appointment emails without blocking the request.
type Notifier interface {
	Enqueue(msg notification.Message)
}

type Service struct {
	repo     Repository
	accounts account.Directory
	notifier Notifier
}

func NewService(repo Repository, accounts account.Directory, notifier Notifier) *Service {
	return &Service{repo: repo, accounts: accounts, notifier: notifier}
}

type CreateInput struct {
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	DurationMin int       `json:"duration_min"`
	Modality    Modality  `json:"modality"`
	MeetingLink *string   `json:"meeting_link,omitempty"`
}

type UpdateInput struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	DurationMin int       `json:"duration_min"`
	Modality    Modality  `json:"modality"`
	Status      Status    `json:"status"`
	MeetingLink *string   `json:"meeting_link,omitempty"`
}

type CancelInput struct {
	Reason string `json:"reason"`
}

func (s *Service) Create(ctx context.Context, caller auth.Identity, in CreateInput) (*Appointment, error) {
	switch caller.Role {
	case auth.RolePatient:
		// Patients book for themselves only.
		in.PatientID = caller.ID
	case auth.RoleDoctor:
		if in.DoctorID == uuid.Nil {
			in.DoctorID = caller.ID
		}
	}

	fields := map[string]string{}
	if in.PatientID == uuid.Nil {
		fields["patient_id"] = "required"
	}
	if in.DoctorID == uuid.Nil {
		fields["doctor_id"] = "required"
	}
	if in.PatientID != uuid.Nil && in.PatientID == in.DoctorID {
		fields["doctor_id"] = "patient and doctor must be different users"
	}
	if in.ScheduledAt.IsZero() {
		fields["scheduled_at"] = "required"
	} else if !in.ScheduledAt.After(time.Now()) {
		fields["scheduled_at"] = "must be in the future"
	}
	if in.Modality == "" {
		in.Modality = ModalityInPerson
	}
	if !in.Modality.Valid() {
		fields["modality"] = "must be in_person or telemedicine"
	}
	if in.DurationMin < 0 {
		fields["duration_min"] = "must be positive"
	}
	if len(fields) > 0 {
		return nil, apperr.FieldValidation(fields)
	}

	if role, err := s.accounts.RoleOf(ctx, in.PatientID); err != nil {
		return nil, err
	} else if role != auth.RolePatient {
		return nil, apperr.FieldValidation(map[string]string{"patient_id": "must reference a patient account"})
	}
	if role, err := s.accounts.RoleOf(ctx, in.DoctorID); err != nil {
		return nil, err
	} else if role != auth.RoleDoctor {
		return nil, apperr.FieldValidation(map[string]string{"doctor_id": "must reference a doctor account"})
	}

	if in.DurationMin == 0 {
		in.DurationMin = DefaultDurationMinutes
	}

	a := &Appointment{
		PatientID:   in.PatientID,
		DoctorID:    in.DoctorID,
		ScheduledAt: in.ScheduledAt,
		DurationMin: in.DurationMin,
		Modality:    in.Modality,
		Status:      StatusScheduled,
		MeetingLink: in.MeetingLink,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	created, err := s.repo.GetByID(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, created, notification.TemplateAppointmentCreated, false)
	return created, nil
}

func (s *Service) Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, a) {
		return nil, apperr.Permission("not allowed to view this appointment")
	}
	return a, nil
}

// List scopes results to the caller: patients see their own appointments,
// doctors their schedule, admins everything.
func (s *Service) List(ctx context.Context, caller auth.Identity, limit, offset int) ([]*Appointment, int, error) {
	switch caller.Role {
	case auth.RolePatient:
		return s.repo.ListByPatient(ctx, caller.ID, limit, offset)
	case auth.RoleDoctor:
		return s.repo.ListByDoctor(ctx, caller.ID, limit, offset)
	default:
		return s.repo.ListAll(ctx, limit, offset)
	}
}

func (s *Service) Update(ctx context.Context, caller auth.Identity, id uuid.UUID, in UpdateInput) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, a) {
		return nil, apperr.Permission("not allowed to modify this appointment")
	}

	fields := map[string]string{}
	if in.ScheduledAt.IsZero() {
		fields["scheduled_at"] = "required"
	}
	if in.Modality != "" && !in.Modality.Valid() {
		fields["modality"] = "must be in_person or telemedicine"
	}
	if in.Status != "" && !in.Status.Valid() {
		fields["status"] = "unknown status"
	}
	if len(fields) > 0 {
		return nil, apperr.FieldValidation(fields)
	}

	if in.Status != "" && in.Status != a.Status {
		if !a.Status.CanTransition(in.Status) {
			return nil, apperr.Validation("cannot change status from %s to %s", a.Status, in.Status)
		}
		a.Status = in.Status
		if in.Status == StatusCancelled {
			now := time.Now()
			a.CancelledAt = &now
		}
	}
	a.ScheduledAt = in.ScheduledAt
	if in.DurationMin > 0 {
		a.DurationMin = in.DurationMin
	}
	if in.Modality != "" {
		a.Modality = in.Modality
	}
	a.MeetingLink = in.MeetingLink

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.repo.GetByID(ctx, a.ID)
}

func (s *Service) Cancel(ctx context.Context, caller auth.Identity, id uuid.UUID, in CancelInput) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, a) {
		return nil, apperr.Permission("not allowed to cancel this appointment")
	}
	if a.Status == StatusCancelled {
		return nil, apperr.Validation("appointment is already cancelled")
	}
	if !a.Status.CanTransition(StatusCancelled) {
		return nil, apperr.Validation("cannot cancel a %s appointment", a.Status)
	}

	reason := in.Reason
	if reason == "" {
		reason = "cancelled by user"
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelReason = &reason
	a.CancelledAt = &now

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	updated, err := s.repo.GetByID(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	// Cancellation concerns both sides of the appointment.
	s.notify(ctx, updated, notification.TemplateAppointmentCancelled, true)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canView(caller, a) {
		return apperr.Permission("not allowed to delete this appointment")
	}
	return s.repo.Delete(ctx, id)
}

func canView(caller auth.Identity, a *Appointment) bool {
	if caller.Role == auth.RoleAdmin {
		return true
	}
	return caller.ID == a.PatientID || caller.ID == a.DoctorID
}

// notify enqueues the rendered template for the patient and, when asked,
// the doctor too. Lookup failures are swallowed so the appointment
// outcome never depends on mail addressing.
func (s *Service) notify(ctx context.Context, a *Appointment, template string, includeDoctor bool) {
	if s.notifier == nil {
		return
	}
	patientName, patientEmail, errP := s.accounts.Contact(ctx, a.PatientID)
	doctorName, doctorEmail, errD := s.accounts.Contact(ctx, a.DoctorID)
	if errP != nil || errD != nil {
		return
	}
	data := map[string]string{
		"paciente": patientName,
		"medico":   doctorName,
		"data":     a.ScheduledAt.Format("2006-01-02 15:04"),
	}
	s.notifier.Enqueue(notification.Message{
		TemplateID: template,
		Recipient:  patientEmail,
		Data:       data,
	})
	if includeDoctor {
		s.notifier.Enqueue(notification.Message{
			TemplateID: template,
			Recipient:  doctorEmail,
			Data:       data,
		})
	}
}
