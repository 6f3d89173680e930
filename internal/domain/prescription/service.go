package prescription

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pamela-btob/sghss-uninter/internal/domain/account"
	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
	"github.com/pamela-btob/sghss-uninter/internal/platform/notification"
)

// Notifier delivers prescription emails without blocking the request.
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
	PatientID   uuid.UUID  `json:"patient_id"`
	RecordID    *uuid.UUID `json:"record_id,omitempty"`
	Kind        Kind       `json:"kind"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Medications *string    `json:"medications,omitempty"`
	Dosage      *string    `json:"dosage,omitempty"`
	Exams       *string    `json:"exams,omitempty"`
	ValidUntil  time.Time  `json:"valid_until"`
}

type UpdateInput struct {
	Kind        *Kind      `json:"kind,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Medications *string    `json:"medications,omitempty"`
	Dosage      *string    `json:"dosage,omitempty"`
	Exams       *string    `json:"exams,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
}

// ListInput carries the caller-facing filters. Patient scoping by id is
// restricted to doctors and admins.
type ListInput struct {
	Status    *Status
	Kind      *Kind
	PatientID *uuid.UUID
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (s *Service) Create(ctx context.Context, caller auth.Identity, in CreateInput) (*Prescription, error) {
	if caller.Role != auth.RoleDoctor {
		return nil, apperr.Permission("only doctors can issue prescriptions")
	}

	fields := map[string]string{}
	if in.PatientID == uuid.Nil {
		fields["patient_id"] = "required"
	}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "required"
	}
	if in.Kind == "" {
		in.Kind = KindMedication
	}
	if !in.Kind.Valid() {
		fields["kind"] = "must be medication, exam, procedure or diet"
	}
	if in.ValidUntil.IsZero() {
		fields["valid_until"] = "required"
	} else if in.ValidUntil.Before(startOfToday()) {
		fields["valid_until"] = "must not be in the past"
	}
	if len(fields) > 0 {
		return nil, apperr.FieldValidation(fields)
	}

	if role, err := s.accounts.RoleOf(ctx, in.PatientID); err != nil {
		return nil, err
	} else if role != auth.RolePatient {
		return nil, apperr.FieldValidation(map[string]string{"patient_id": "must reference a patient account"})
	}

	p := &Prescription{
		PatientID:   in.PatientID,
		DoctorID:    caller.ID,
		RecordID:    in.RecordID,
		Kind:        in.Kind,
		Title:       in.Title,
		Description: in.Description,
		Medications: in.Medications,
		Dosage:      in.Dosage,
		Exams:       in.Exams,
		ValidUntil:  in.ValidUntil,
		Status:      StatusActive,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	created, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	s.notifyIssued(ctx, created)
	return created, nil
}

func (s *Service) Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, p) {
		return nil, apperr.Permission("not allowed to view this prescription")
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, caller auth.Identity, in ListInput, limit, offset int) ([]*Prescription, int, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, 0, apperr.Validation("unknown status filter")
	}
	if in.Kind != nil && !in.Kind.Valid() {
		return nil, 0, apperr.Validation("unknown kind filter")
	}

	f := Filter{Status: in.Status, Kind: in.Kind}
	switch caller.Role {
	case auth.RolePatient:
		// Patients only ever see their own, the id filter is ignored.
		f.PatientID = &caller.ID
	case auth.RoleDoctor:
		f.DoctorID = &caller.ID
		f.PatientID = in.PatientID
	default:
		f.PatientID = in.PatientID
	}
	return s.repo.List(ctx, f, limit, offset)
}

// Update edits prescription content. Allowed for the authoring doctor
// and admins.
func (s *Service) Update(ctx context.Context, caller auth.Identity, id uuid.UUID, in UpdateInput) (*Prescription, error) {
	p, err := s.authorOrAdmin(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if in.Kind != nil {
		if !in.Kind.Valid() {
			return nil, apperr.FieldValidation(map[string]string{"kind": "unknown kind"})
		}
		p.Kind = *in.Kind
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apperr.FieldValidation(map[string]string{"title": "must not be blank"})
		}
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Medications != nil {
		p.Medications = in.Medications
	}
	if in.Dosage != nil {
		p.Dosage = in.Dosage
	}
	if in.Exams != nil {
		p.Exams = in.Exams
	}
	if in.ValidUntil != nil {
		p.ValidUntil = *in.ValidUntil
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.repo.GetByID(ctx, p.ID)
}

// Suspend pauses an active prescription. Finalized prescriptions are
// closed for good and cannot be suspended.
func (s *Service) Suspend(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Prescription, error) {
	p, err := s.authorOrAdmin(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusFinalized {
		return nil, apperr.Validation("a finalized prescription cannot be suspended")
	}
	p.Status = StatusSuspended
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.repo.GetByID(ctx, p.ID)
}

func (s *Service) Finalize(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Prescription, error) {
	p, err := s.authorOrAdmin(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	p.Status = StatusFinalized
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.repo.GetByID(ctx, p.ID)
}

func (s *Service) Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if caller.Role != auth.RoleAdmin {
		return apperr.Permission("only administrators can delete prescriptions")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) authorOrAdmin(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == auth.RoleAdmin {
		return p, nil
	}
	if caller.Role == auth.RoleDoctor && caller.ID == p.DoctorID {
		return p, nil
	}
	return nil, apperr.Permission("only the issuing doctor or an administrator can change a prescription")
}

func canView(caller auth.Identity, p *Prescription) bool {
	if caller.Role == auth.RoleAdmin {
		return true
	}
	return caller.ID == p.PatientID || caller.ID == p.DoctorID
}

func (s *Service) notifyIssued(ctx context.Context, p *Prescription) {
	if s.notifier == nil {
		return
	}
	patientName, patientEmail, errP := s.accounts.Contact(ctx, p.PatientID)
	doctorName, _, errD := s.accounts.Contact(ctx, p.DoctorID)
	if errP != nil || errD != nil {
		return
	}
	medication := p.Title
	if p.Medications != nil && *p.Medications != "" {
		medication = *p.Medications
	}
	s.notifier.Enqueue(notification.Message{
		TemplateID: notification.TemplatePrescriptionIssued,
		Recipient:  patientEmail,
		Data: map[string]string{
			"paciente":    patientName,
			"medico":      doctorName,
			"medicamento": medication,
			"data":        p.ValidUntil.Format("2006-01-02"),
		},
	})
}
