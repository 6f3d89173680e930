package prescription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Resolve(ctx, r.pool)
}

const prescriptionCols = `id, patient_id, doctor_id, record_id, kind, title, description,
	medications, dosage, exams, issued_at, valid_until, status, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.RecordID, &p.Kind, &p.Title,
		&p.Description, &p.Medications, &p.Dosage, &p.Exams, &p.IssuedAt, &p.ValidUntil,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("prescription")
		}
		return nil, err
	}
	p.RefreshValidity(time.Now())
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriptions (id, patient_id, doctor_id, record_id, kind, title,
			description, medications, dosage, exams, valid_until, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.PatientID, p.DoctorID, p.RecordID, p.Kind, p.Title,
		p.Description, p.Medications, p.Dosage, p.Exams, p.ValidUntil, p.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescriptions SET kind=$2, title=$3, description=$4, medications=$5,
			dosage=$6, exams=$7, valid_until=$8, status=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Kind, p.Title, p.Description, p.Medications,
		p.Dosage, p.Exams, p.ValidUntil, p.Status)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Prescription, int, error) {
	where := `WHERE 1=1`
	var args []interface{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		where += fmt.Sprintf(` AND doctor_id = $%d`, len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if f.Kind != nil {
		args = append(args, *f.Kind)
		where += fmt.Sprintf(` AND kind = $%d`, len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + prescriptionCols + ` FROM prescriptions ` + where +
		fmt.Sprintf(` ORDER BY issued_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
