package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lungscreen/lungscreen/internal/platform/reporting"
)

// TxFunc runs fn atomically. A nil TxFunc runs fn directly.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	appointments AppointmentRepository
	tx           TxFunc
	logger       zerolog.Logger
	now          func() time.Time
	newSuffix    func() string
}

func NewService(appts AppointmentRepository, tx TxFunc, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appts,
		tx:           tx,
		logger:       logger.With().Str("component", "scheduling").Logger(),
		now:          time.Now,
		newSuffix:    func() string { return uuid.NewString() },
	}
}

func (s *Service) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx(ctx, fn)
}

// Book validates req and stores a confirmed appointment for username.
func (s *Service) Book(ctx context.Context, username string, req BookRequest) (*Appointment, error) {
	if fields := req.missing(); len(fields) > 0 {
		return nil, &MissingFieldsError{Fields: fields}
	}
	doctor, ok := FindDoctor(req.Specialization, req.DoctorID)
	if !ok {
		return nil, ErrDoctorNotFound
	}
	if !contains(Times, req.Time) {
		return nil, ErrInvalidTime
	}
	if !contains(Reasons, req.Reason) {
		return nil, ErrInvalidReason
	}

	now := s.now()
	date, err := time.ParseInLocation(DateLayout, req.Date, now.Location())
	if err != nil {
		return nil, ErrInvalidDate
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return nil, ErrPastDate
	}

	a := &Appointment{
		ID:                NewAppointmentID(now, s.newSuffix()),
		Username:          username,
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		PatientName:       strings.TrimSpace(req.FirstName + " " + req.LastName),
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		Specialization:    req.Specialization,
		DoctorID:          doctor.ID,
		DoctorName:        doctor.Name,
		Date:              date.Format(DateLayout),
		Time:              req.Time,
		Reason:            req.Reason,
		Symptoms:          req.Symptoms,
		PreviousDiagnosis: req.PreviousDiagnosis,
		Status:            StatusConfirmed,
		BookedOn:          now.UTC(),
	}

	err = s.atomically(ctx, func(ctx context.Context) error {
		taken, err := s.appointments.SlotTaken(ctx, a.DoctorID, a.Date, a.Time)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}
		return s.appointments.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", a.ID).
		Str("username", username).
		Int("doctor_id", a.DoctorID).
		Str("date", a.Date).
		Str("time", a.Time).
		Msg("appointment booked")
	return a, nil
}

func (s *Service) ListMine(ctx context.Context, username string) ([]*Appointment, error) {
	return s.appointments.ListByUsername(ctx, username)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, limit, offset)
}

// Cancel cancels one of username's confirmed appointments. Appointments
// owned by someone else are reported as not found.
func (s *Service) Cancel(ctx context.Context, username, id string) (*Appointment, error) {
	var a *Appointment
	err := s.atomically(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.appointments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if a.Username != username {
			return ErrAppointmentNotFound
		}
		if a.Status != StatusConfirmed {
			return ErrNotCancellable
		}
		return s.appointments.UpdateStatus(ctx, id, StatusCancelled)
	})
	if err != nil {
		return nil, err
	}
	a.Status = StatusCancelled
	s.logger.Info().Str("appointment_id", id).Str("username", username).Msg("appointment cancelled")
	return a, nil
}

// SetStatus is the administrative status change. Re-confirming fails with
// ErrSlotTaken when the slot has been booked since.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*Appointment, error) {
	if !validStatuses[status] {
		return nil, ErrInvalidStatus
	}
	var a *Appointment
	err := s.atomically(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.appointments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if a.Status == status {
			return nil
		}
		if status == StatusConfirmed {
			taken, err := s.appointments.SlotTaken(ctx, a.DoctorID, a.Date, a.Time)
			if err != nil {
				return fmt.Errorf("check slot: %w", err)
			}
			if taken {
				return ErrSlotTaken
			}
		}
		return s.appointments.UpdateStatus(ctx, id, status)
	})
	if err != nil {
		return nil, err
	}
	a.Status = status
	s.logger.Info().Str("appointment_id", id).Str("status", status).Msg("appointment status changed")
	return a, nil
}

// Confirmation renders the confirmation for username's most recent booking.
func (s *Service) Confirmation(ctx context.Context, username string, format reporting.Format) (*reporting.Rendered, error) {
	a, err := s.appointments.LatestByUsername(ctx, username)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, ErrNoBooking
	}
	if err != nil {
		return nil, err
	}
	doc := confirmationFor(a, s.now()).Document()
	return reporting.Render(doc, format, "Appointment_Confirmation_"+a.ID)
}

func confirmationFor(a *Appointment, now time.Time) reporting.AppointmentConfirmation {
	c := reporting.AppointmentConfirmation{
		AppointmentID: a.ID,
		Date:          a.Date,
		Time:          a.Time,
		Status:        a.Status,
		Patient: reporting.Patient{
			Username:  a.Username,
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Phone:     a.Phone,
			Email:     a.Email,
			Address:   a.Address,
		},
		Doctor:            reporting.Doctor{Name: a.DoctorName, Specialization: a.Specialization},
		Reason:            a.Reason,
		Symptoms:          a.Symptoms,
		PreviousDiagnosis: a.PreviousDiagnosis,
		GeneratedAt:       now,
	}
	if d, ok := DoctorByID(a.DoctorID); ok {
		c.Doctor = reporting.Doctor{
			Name:           d.Name,
			Specialization: d.Specialization,
			Qualification:  d.Qualification,
			Experience:     d.Experience,
			Phone:          d.Phone,
			Email:          d.Email,
			Address:        d.Address,
			Fees:           d.Fees,
		}
	}
	return c
}

var csvHeader = []string{
	"appointment_id", "username", "patient_name", "phone", "email", "address",
	"specialization", "doctor_name", "date", "time", "reason", "symptoms",
	"previous_diagnosis", "status", "booked_on",
}

// ExportCSV renders every appointment as CSV.
func (s *Service) ExportCSV(ctx context.Context) (*reporting.Rendered, error) {
	all, _, err := s.appointments.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(all))
	for _, a := range all {
		rows = append(rows, []string{
			a.ID, a.Username, a.PatientName, a.Phone, a.Email, a.Address,
			a.Specialization, a.DoctorName, a.Date, a.Time, a.Reason, a.Symptoms,
			a.PreviousDiagnosis, a.Status, a.BookedOn.Format("2006-01-02 15:04:05"),
		})
	}
	return reporting.RenderCSV("appointments_data_"+reporting.Timestamp(s.now()), csvHeader, rows)
}

// Breakdown counts appointments by status and by specialization.
func (s *Service) Breakdown(ctx context.Context) (total int, byStatus, bySpecialization map[string]int, err error) {
	all, total, err := s.appointments.List(ctx, 0, 0)
	if err != nil {
		return 0, nil, nil, err
	}
	byStatus = make(map[string]int)
	bySpecialization = make(map[string]int)
	for _, a := range all {
		byStatus[a.Status]++
		bySpecialization[a.Specialization]++
	}
	return total, byStatus, bySpecialization, nil
}

// DoctorLabel renders a doctor the way the booking form lists them.
func DoctorLabel(d Doctor) string {
	return d.Name + " (" + d.Fees + ")"
}

func parseDoctorID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid doctor id %q", raw)
	}
	return id, nil
}
