package record

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

const recordCols = `id, patient_id, doctor_id, appointment_id, category, title, description,
	symptoms, diagnosis, medications, exam_requests,
	blood_pressure, temperature, heart_rate, created_at, updated_at`

func (r *repoPG) scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.AppointmentID, &rec.Category,
		&rec.Title, &rec.Description, &rec.Symptoms, &rec.Diagnosis, &rec.Medications,
		&rec.ExamRequests, &rec.BloodPressure, &rec.Temperature, &rec.HeartRate,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("clinical record")
		}
		return nil, err
	}
	if err := r.decryptVitals(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// encryptedCopy returns a copy of rec with vitals ciphered, leaving the
// caller's struct holding plaintext.
func (r *repoPG) encryptedCopy(rec *Record) (*Record, error) {
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

	cp := *rec
	var err error
	if cp.BloodPressure, err = cipher(rec.BloodPressure, "blood pressure"); err != nil {
		return nil, err
	}
	if cp.Temperature, err = cipher(rec.Temperature, "temperature"); err != nil {
		return nil, err
	}
	if cp.HeartRate, err = cipher(rec.HeartRate, "heart rate"); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *repoPG) decryptVitals(rec *Record) error {
	var err error
	if rec.BloodPressure != nil {
		if *rec.BloodPressure, err = r.fields.Decrypt(*rec.BloodPressure); err != nil {
			return fmt.Errorf("decrypt blood pressure: %w", err)
		}
	}
	if rec.Temperature != nil {
		if *rec.Temperature, err = r.fields.Decrypt(*rec.Temperature); err != nil {
			return fmt.Errorf("decrypt temperature: %w", err)
		}
	}
	if rec.HeartRate != nil {
		if *rec.HeartRate, err = r.fields.Decrypt(*rec.HeartRate); err != nil {
			return fmt.Errorf("decrypt heart rate: %w", err)
		}
	}
	return nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	stored, err := r.encryptedCopy(rec)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO clinical_records (id, patient_id, doctor_id, appointment_id, category, title,
			description, symptoms, diagnosis, medications, exam_requests,
			blood_pressure, temperature, heart_rate)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		stored.ID, stored.PatientID, stored.DoctorID, stored.AppointmentID, stored.Category,
		stored.Title, stored.Description, stored.Symptoms, stored.Diagnosis, stored.Medications,
		stored.ExamRequests, stored.BloodPressure, stored.Temperature, stored.HeartRate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM clinical_records WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	stored, err := r.encryptedCopy(rec)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE clinical_records SET category=$2, title=$3, description=$4, symptoms=$5,
			diagnosis=$6, medications=$7, exam_requests=$8,
			blood_pressure=$9, temperature=$10, heart_rate=$11, updated_at=NOW()
		WHERE id = $1`,
		stored.ID, stored.Category, stored.Title, stored.Description, stored.Symptoms,
		stored.Diagnosis, stored.Medications, stored.ExamRequests,
		stored.BloodPressure, stored.Temperature, stored.HeartRate)
	return err
}

func (r *repoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM clinical_records `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + recordCols + ` FROM clinical_records ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	return r.list(ctx, `WHERE patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	return r.list(ctx, `WHERE doctor_id = $1`, []interface{}{doctorID}, limit, offset)
}

func (r *repoPG) ListAll(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	return r.list(ctx, ``, nil, limit, offset)
}
