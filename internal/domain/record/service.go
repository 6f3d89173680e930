package record

import (
	"context"
	"strings"

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
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Category      Category   `json:"category"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Symptoms      *string    `json:"symptoms,omitempty"`
	Diagnosis     *string    `json:"diagnosis,omitempty"`
	Medications   *string    `json:"medications,omitempty"`
	ExamRequests  *string    `json:"exam_requests,omitempty"`
	BloodPressure *string    `json:"blood_pressure,omitempty"`
	Temperature   *string    `json:"temperature,omitempty"`
	HeartRate     *string    `json:"heart_rate,omitempty"`
}

// UpdateInput carries partial updates. Nil pointers leave the stored
// value untouched.
type UpdateInput struct {
	Category      *Category `json:"category,omitempty"`
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Symptoms      *string   `json:"symptoms,omitempty"`
	Diagnosis     *string   `json:"diagnosis,omitempty"`
	Medications   *string   `json:"medications,omitempty"`
	ExamRequests  *string   `json:"exam_requests,omitempty"`
	BloodPressure *string   `json:"blood_pressure,omitempty"`
	Temperature   *string   `json:"temperature,omitempty"`
	HeartRate     *string   `json:"heart_rate,omitempty"`
}

func (s *Service) Create(ctx context.Context, caller auth.Identity, in CreateInput) (*Record, error) {
	if caller.Role != auth.RoleDoctor {
		return nil, apperr.Permission("only doctors can create clinical records")
	}

	fields := map[string]string{}
	if in.PatientID == uuid.Nil {
		fields["patient_id"] = "required"
	}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "required"
	}
	if strings.TrimSpace(in.Description) == "" {
		fields["description"] = "required"
	}
	if in.Category == "" {
		in.Category = CategoryConsultation
	}
	if !in.Category.Valid() {
		fields["category"] = "unknown category"
	}
	if len(fields) > 0 {
		return nil, apperr.FieldValidation(fields)
	}

	if role, err := s.accounts.RoleOf(ctx, in.PatientID); err != nil {
		return nil, err
	} else if role != auth.RolePatient {
		return nil, apperr.FieldValidation(map[string]string{"patient_id": "must reference a patient account"})
	}

	rec := &Record{
		PatientID:     in.PatientID,
		DoctorID:      caller.ID,
		AppointmentID: in.AppointmentID,
		Category:      in.Category,
		Title:         in.Title,
		Description:   in.Description,
		Symptoms:      in.Symptoms,
		Diagnosis:     in.Diagnosis,
		Medications:   in.Medications,
		ExamRequests:  in.ExamRequests,
		BloodPressure: in.BloodPressure,
		Temperature:   in.Temperature,
		HeartRate:     in.HeartRate,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.repo.GetByID(ctx, rec.ID)
}

func (s *Service) Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, rec) {
		return nil, apperr.Permission("not allowed to view this clinical record")
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, caller auth.Identity, limit, offset int) ([]*Record, int, error) {
	switch caller.Role {
	case auth.RolePatient:
		return s.repo.ListByPatient(ctx, caller.ID, limit, offset)
	case auth.RoleDoctor:
		return s.repo.ListByDoctor(ctx, caller.ID, limit, offset)
	default:
		return s.repo.ListAll(ctx, limit, offset)
	}
}

// Update applies partial changes. Only the authoring doctor may edit a
// record; admins read but never rewrite clinical notes.
func (s *Service) Update(ctx context.Context, caller auth.Identity, id uuid.UUID, in UpdateInput) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != auth.RoleDoctor || caller.ID != rec.DoctorID {
		return nil, apperr.Permission("only the authoring doctor can update a clinical record")
	}

	if in.Category != nil {
		if !in.Category.Valid() {
			return nil, apperr.FieldValidation(map[string]string{"category": "unknown category"})
		}
		rec.Category = *in.Category
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apperr.FieldValidation(map[string]string{"title": "must not be blank"})
		}
		rec.Title = *in.Title
	}
	if in.Description != nil {
		rec.Description = *in.Description
	}
	if in.Symptoms != nil {
		rec.Symptoms = in.Symptoms
	}
	if in.Diagnosis != nil {
		rec.Diagnosis = in.Diagnosis
	}
	if in.Medications != nil {
		rec.Medications = in.Medications
	}
	if in.ExamRequests != nil {
		rec.ExamRequests = in.ExamRequests
	}
	if in.BloodPressure != nil {
		rec.BloodPressure = in.BloodPressure
	}
	if in.Temperature != nil {
		rec.Temperature = in.Temperature
	}
	if in.HeartRate != nil {
		rec.HeartRate = in.HeartRate
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.repo.GetByID(ctx, rec.ID)
}

func canView(caller auth.Identity, rec *Record) bool {
	if caller.Role == auth.RoleAdmin {
		return true
	}
	return caller.ID == rec.PatientID || caller.ID == rec.DoctorID
}
