package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pamela-btob/sghss-uninter/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Resolve(ctx, r.pool)
}

func (r *repoPG) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{
		Appointments: AppointmentCounts{
			ByStatus:   map[string]int{},
			ByModality: map[string]int{},
		},
		Exams:       ExamCounts{ByStatus: map[string]int{}},
		GeneratedAt: time.Now(),
	}

	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE role = 'patient'),
			COUNT(*) FILTER (WHERE role = 'doctor'),
			COUNT(*) FILTER (WHERE role = 'admin')
		FROM users`).Scan(&d.Users.Total, &d.Users.Patients, &d.Users.Doctors, &d.Users.Admins); err != nil {
		return nil, fmt.Errorf("user counts: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE scheduled_at::date = CURRENT_DATE),
			COUNT(*) FILTER (WHERE date_trunc('month', scheduled_at) = date_trunc('month', CURRENT_DATE))
		FROM appointments`).Scan(&d.Appointments.Total, &d.Appointments.Today, &d.Appointments.ThisMonth); err != nil {
		return nil, fmt.Errorf("appointment counts: %w", err)
	}

	if err := r.countInto(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`, d.Appointments.ByStatus); err != nil {
		return nil, fmt.Errorf("appointments by status: %w", err)
	}
	if err := r.countInto(ctx, `SELECT modality, COUNT(*) FROM appointments GROUP BY modality`, d.Appointments.ByModality); err != nil {
		return nil, fmt.Errorf("appointments by modality: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE date_trunc('month', created_at) = date_trunc('month', CURRENT_DATE))
		FROM clinical_records`).Scan(&d.Records.Total, &d.Records.ThisMonth); err != nil {
		return nil, fmt.Errorf("record counts: %w", err)
	}

	if err := r.countInto(ctx, `SELECT status, COUNT(*) FROM exams GROUP BY status`, d.Exams.ByStatus); err != nil {
		return nil, fmt.Errorf("exams by status: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT exam_type, COUNT(*) AS n FROM exams
		GROUP BY exam_type ORDER BY n DESC LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("top exam types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, err
		}
		d.Exams.TopTypes = append(d.Exams.TopTypes, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return d, nil
}

func (r *repoPG) countInto(ctx context.Context, query string, dst map[string]int) error {
	rows, err := r.conn(ctx).Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		dst[key] = n
	}
	return rows.Err()
}

func (r *repoPG) AppointmentReport(ctx context.Context, f ReportFilter) (*AppointmentReport, error) {
	where := `WHERE 1=1`
	var args []interface{}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(` AND a.scheduled_at >= $%d`, len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(` AND a.scheduled_at <= $%d`, len(args))
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		where += fmt.Sprintf(` AND a.doctor_id = $%d`, len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(` AND a.status = $%d`, len(args))
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, p.username, d.username, a.scheduled_at, a.duration_min, a.modality, a.status
		FROM appointments a
		JOIN users p ON p.id = a.patient_id
		JOIN users d ON d.id = a.doctor_id
		`+where+` ORDER BY a.scheduled_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := &AppointmentReport{
		ByStatus:   map[string]int{},
		ByModality: map[string]int{},
		Filters:    map[string]string{},
	}
	for rows.Next() {
		var row ReportRow
		if err := rows.Scan(&row.ID, &row.PatientName, &row.DoctorName,
			&row.ScheduledAt, &row.DurationMin, &row.Modality, &row.Status); err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, row)
		report.ByStatus[row.Status]++
		report.ByModality[row.Modality]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	report.Total = len(report.Rows)

	if f.From != nil {
		report.Filters["from"] = f.From.Format("2006-01-02")
	}
	if f.To != nil {
		report.Filters["to"] = f.To.Format("2006-01-02")
	}
	if f.DoctorID != nil {
		report.Filters["doctor_id"] = f.DoctorID.String()
	}
	if f.Status != nil {
		report.Filters["status"] = *f.Status
	}
	return report, nil
}
