package exam

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Exam) error
	GetByID(ctx context.Context, id uuid.UUID) (*Exam, error)
	Update(ctx context.Context, e *Exam) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Exam, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Exam, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Exam, int, error)
}
