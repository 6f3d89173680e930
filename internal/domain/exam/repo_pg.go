package exam

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/db"
	"github.com/pamela-btob/sghss-uninter/internal/platform/phi"
)

type repoPG struct {
	pool   *pgxpool.Pool
	fields *phi.Service
}

func NewRepoPG(pool *pgxpool.Pool, fields *phi.Service) Repository {
	return &repoPG{pool: pool, fields: fields}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Resolve(ctx, r.pool)
}

const examCols = `id, patient_id, doctor_id, exam_type, name, description,
	result, observations, reference_values,
	requested_at, performed_date, result_date, status, lab_name, created_at, updated_at`

func (r *repoPG) scanExam(row pgx.Row) (*Exam, error) {
	var e Exam
	err := row.Scan(&e.ID, &e.PatientID, &e.DoctorID, &e.Type, &e.Name, &e.Description,
		&e.Result, &e.Observations, &e.ReferenceValues,
		&e.RequestedAt, &e.PerformedDate, &e.ResultDate, &e.Status, &e.LabName,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("exam")
		}
		return nil, err
	}
	if err := r.decryptResults(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repoPG) encryptedCopy(e *Exam) (*Exam, error) {
	cipher := func(p *string, name string) (*string, error) {
		if p == nil {
			return nil, nil
		}
		v, err := r.fields.Encrypt(*p)
		if err != nil {
			return nil, fmt.Errorf("encrypt %s: %w", name, err)
		}
		return &v, nil
	}

	cp := *e
	var err error
	if cp.Result, err = cipher(e.Result, "result"); err != nil {
		return nil, err
	}
	if cp.Observations, err = cipher(e.Observations, "observations"); err != nil {
		return nil, err
	}
	if cp.ReferenceValues, err = cipher(e.ReferenceValues, "reference values"); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *repoPG) decryptResults(e *Exam) error {
	var err error
	if e.Result != nil {
		if *e.Result, err = r.fields.Decrypt(*e.Result); err != nil {
			return fmt.Errorf("decrypt result: %w", err)
		}
	}
	if e.Observations != nil {
		if *e.Observations, err = r.fields.Decrypt(*e.Observations); err != nil {
			return fmt.Errorf("decrypt observations: %w", err)
		}
	}
	if e.ReferenceValues != nil {
		if *e.ReferenceValues, err = r.fields.Decrypt(*e.ReferenceValues); err != nil {
			return fmt.Errorf("decrypt reference values: %w", err)
		}
	}
	return nil
}

func (r *repoPG) Create(ctx context.Context, e *Exam) error {
	e.ID = uuid.New()
	stored, err := r.encryptedCopy(e)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO exams (id, patient_id, doctor_id, exam_type, name, description,
			result, observations, reference_values, performed_date, result_date, status, lab_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		stored.ID, stored.PatientID, stored.DoctorID, stored.Type, stored.Name, stored.Description,
		stored.Result, stored.Observations, stored.ReferenceValues,
		stored.PerformedDate, stored.ResultDate, stored.Status, stored.LabName)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Exam, error) {
	return r.scanExam(r.conn(ctx).QueryRow(ctx,
		`SELECT `+examCols+` FROM exams WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, e *Exam) error {
	stored, err := r.encryptedCopy(e)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE exams SET exam_type=$2, name=$3, description=$4, result=$5, observations=$6,
			reference_values=$7, performed_date=$8, result_date=$9, status=$10, lab_name=$11,
			updated_at=NOW()
		WHERE id = $1`,
		stored.ID, stored.Type, stored.Name, stored.Description, stored.Result,
		stored.Observations, stored.ReferenceValues, stored.PerformedDate, stored.ResultDate,
		stored.Status, stored.LabName)
	return err
}

func (r *repoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Exam, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM exams `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + examCols + ` FROM exams ` + where +
		fmt.Sprintf(` ORDER BY requested_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Exam
	for rows.Next() {
		e, err := r.scanExam(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Exam, int, error) {
	return r.list(ctx, `WHERE patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Exam, int, error) {
	return r.list(ctx, `WHERE doctor_id = $1`, []interface{}{doctorID}, limit, offset)
}

func (r *repoPG) ListAll(ctx context.Context, limit, offset int) ([]*Exam, int, error) {
	return r.list(ctx, ``, nil, limit, offset)
}
