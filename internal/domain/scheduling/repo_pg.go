package scheduling

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lungscreen/lungscreen/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, username, first_name, last_name, patient_name, phone, email, address, specialization,
	doctor_id, doctor_name, to_char(appointment_date, 'YYYY-MM-DD'), appointment_time,
	reason, symptoms, previous_diagnosis, status, booked_on`

func (r *appointmentRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.Username, &a.FirstName, &a.LastName, &a.PatientName, &a.Phone, &a.Email, &a.Address,
		&a.Specialization, &a.DoctorID, &a.DoctorName, &a.Date, &a.Time,
		&a.Reason, &a.Symptoms, &a.PreviousDiagnosis, &a.Status, &a.BookedOn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	return &a, err
}

const slotIndex = "idx_appointments_confirmed_slot"

func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == slotIndex
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, username, first_name, last_name, patient_name, phone, email,
			address, specialization, doctor_id, doctor_name, appointment_date, appointment_time,
			reason, symptoms, previous_diagnosis, status, booked_on)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12::date,$13,$14,$15,$16,$17,$18)`,
		a.ID, a.Username, a.FirstName, a.LastName, a.PatientName, a.Phone, a.Email, a.Address, a.Specialization,
		a.DoctorID, a.DoctorName, a.Date, a.Time,
		a.Reason, a.Symptoms, a.PreviousDiagnosis, a.Status, a.BookedOn)
	if isSlotConflict(err) {
		return ErrSlotTaken
	}
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id string) (*Appointment, error) {
	return r.scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, status)
	if isSlotConflict(err) {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) ListByUsername(ctx context.Context, username string) ([]*Appointment, error) {
	return r.query(ctx, `SELECT `+apptCols+` FROM appointments WHERE username = $1 ORDER BY booked_on`, username)
}

func (r *appointmentRepoPG) LatestByUsername(ctx context.Context, username string) (*Appointment, error) {
	return r.scanAppt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE username = $1 ORDER BY booked_on DESC LIMIT 1`, username))
}

func (r *appointmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx,
		`SELECT `+apptCols+` FROM appointments ORDER BY booked_on LIMIT NULLIF($1::int, 0) OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *appointmentRepoPG) SlotTaken(ctx context.Context, doctorID int, date, tm string) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND appointment_date = $2::date
			  AND appointment_time = $3 AND status = 'Confirmed'
		)`, doctorID, date, tm).Scan(&taken)
	return taken, err
}
