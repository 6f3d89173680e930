package exam

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pamela-btob/sghss-uninter/internal/domain/account"
	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
)

type Service struct {
	repo     Repository
	accounts account.Directory
}

func NewService(repo Repository, accounts account.Directory) *Service {
	return &Service{repo: repo, accounts: accounts}
}

type CreateInput struct {
	PatientID     uuid.UUID  `json:"patient_id"`
	Type          Type       `json:"exam_type"`
	Name          string     `json:"name"`
	Description   *string    `json:"description,omitempty"`
	PerformedDate *time.Time `json:"performed_date,omitempty"`
	LabName       *string    `json:"lab_name,omitempty"`
}

// UpdateInput carries partial updates. Nil pointers leave the stored
// value untouched.
type UpdateInput struct {
	Type            *Type      `json:"exam_type,omitempty"`
	Name            *string    `json:"name,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Result          *string    `json:"result,omitempty"`
	Observations    *string    `json:"observations,omitempty"`
	ReferenceValues *string    `json:"reference_values,omitempty"`
	PerformedDate   *time.Time `json:"performed_date,omitempty"`
	ResultDate      *time.Time `json:"result_date,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	LabName         *string    `json:"lab_name,omitempty"`
}

// startOfToday truncates to the local calendar day, date-only fields are
// compared at day granularity.
func startOfToday() time.Time {
	return startOfDay(time.Now())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (s *Service) Create(ctx context.Context, caller auth.Identity, in CreateInput) (*Exam, error) {
	if caller.Role != auth.RoleDoctor {
		return nil, apperr.Permission("only doctors can request exams")
	}

	fields := map[string]string{}
	if in.PatientID == uuid.Nil {
		fields["patient_id"] = "required"
	}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "required"
	}
	if in.Type == "" {
		in.Type = TypeOther
	}
	if !in.Type.Valid() {
		fields["exam_type"] = "must be blood, imaging, urine, cardio or other"
	}
	if in.PerformedDate != nil && in.PerformedDate.Before(startOfToday()) {
		fields["performed_date"] = "must not be in the past"
	}
	if len(fields) > 0 {
		return nil, apperr.FieldValidation(fields)
	}

	if role, err := s.accounts.RoleOf(ctx, in.PatientID); err != nil {
		return nil, err
	} else if role != auth.RolePatient {
		return nil, apperr.FieldValidation(map[string]string{"patient_id": "must reference a patient account"})
	}

	e := &Exam{
		PatientID:     in.PatientID,
		DoctorID:      caller.ID,
		Type:          in.Type,
		Name:          in.Name,
		Description:   in.Description,
		PerformedDate: in.PerformedDate,
		Status:        StatusRequested,
		LabName:       in.LabName,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.repo.GetByID(ctx, e.ID)
}

func (s *Service) Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Exam, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, e) {
		return nil, apperr.Permission("not allowed to view this exam")
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, caller auth.Identity, limit, offset int) ([]*Exam, int, error) {
	switch caller.Role {
	case auth.RolePatient:
		return s.repo.ListByPatient(ctx, caller.ID, limit, offset)
	case auth.RoleDoctor:
		return s.repo.ListByDoctor(ctx, caller.ID, limit, offset)
	default:
		return s.repo.ListAll(ctx, limit, offset)
	}
}

// Update applies partial changes. Patients never modify exams, results
// come from the clinical side only.
func (s *Service) Update(ctx context.Context, caller auth.Identity, id uuid.UUID, in UpdateInput) (*Exam, error) {
	if caller.Role == auth.RolePatient {
		return nil, apperr.Permission("patients cannot modify exams")
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, e) {
		return nil, apperr.Permission("not allowed to modify this exam")
	}

	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, apperr.FieldValidation(map[string]string{"exam_type": "unknown exam type"})
		}
		e.Type = *in.Type
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.FieldValidation(map[string]string{"name": "must not be blank"})
		}
		e.Name = *in.Name
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.FieldValidation(map[string]string{"status": "unknown status"})
		}
		e.Status = *in.Status
	}
	if in.Description != nil {
		e.Description = in.Description
	}
	if in.Result != nil {
		e.Result = in.Result
	}
	if in.Observations != nil {
		e.Observations = in.Observations
	}
	if in.ReferenceValues != nil {
		e.ReferenceValues = in.ReferenceValues
	}
	if in.PerformedDate != nil {
		if in.PerformedDate.Before(startOfToday()) {
			return nil, apperr.FieldValidation(map[string]string{"performed_date": "must not be in the past"})
		}
		e.PerformedDate = in.PerformedDate
	}
	if in.ResultDate != nil {
		e.ResultDate = in.ResultDate
	}
	if in.LabName != nil {
		e.LabName = in.LabName
	}

	if e.ResultDate != nil && e.PerformedDate != nil && startOfDay(*e.ResultDate).Before(startOfDay(*e.PerformedDate)) {
		return nil, apperr.FieldValidation(map[string]string{"result_date": "must not precede the performed date"})
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.repo.GetByID(ctx, e.ID)
}

func canView(caller auth.Identity, e *Exam) bool {
	if caller.Role == auth.RoleAdmin {
		return true
	}
	return caller.ID == e.PatientID || caller.ID == e.DoctorID
}
