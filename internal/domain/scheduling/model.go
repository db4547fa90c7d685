package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
	StatusPending   = "Pending"
)

// DateLayout is the calendar format used for appointment dates.
const DateLayout = "2006-01-02"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDoctorNotFound      = errors.New("doctor not found in the selected specialization")
	ErrSlotTaken           = errors.New("doctor is already booked at that time")
	ErrPastDate            = errors.New("appointment date cannot be in the past")
	ErrInvalidDate         = errors.New("appointment date must be YYYY-MM-DD")
	ErrInvalidTime         = errors.New("unsupported appointment time")
	ErrInvalidReason       = errors.New("unsupported reason for visit")
	ErrInvalidStatus       = errors.New("status must be Confirmed, Cancelled or Pending")
	ErrNotCancellable      = errors.New("only confirmed appointments can be cancelled")
	ErrNoBooking           = errors.New("no appointment booked yet")
)

var validStatuses = map[string]bool{
	StatusConfirmed: true,
	StatusCancelled: true,
	StatusPending:   true,
}

// Appointment is a booked consultation.
type Appointment struct {
	ID                string    `json:"appointment_id"`
	Username          string    `json:"username"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	PatientName       string    `json:"patient_name"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email"`
	Address           string    `json:"address"`
	Specialization    string    `json:"specialization"`
	DoctorID          int       `json:"doctor_id"`
	DoctorName        string    `json:"doctor_name"`
	Date              string    `json:"date"`
	Time              string    `json:"time"`
	Reason            string    `json:"reason"`
	Symptoms          string    `json:"symptoms"`
	PreviousDiagnosis string    `json:"previous_diagnosis,omitempty"`
	Status            string    `json:"status"`
	BookedOn          time.Time `json:"booked_on"`
}

// Occupies reports whether a holds the doctor's slot. Only confirmed
// appointments block a slot.
func (a *Appointment) Occupies(doctorID int, date, tm string) bool {
	return a.Status == StatusConfirmed && a.DoctorID == doctorID && a.Date == date && a.Time == tm
}

// BookRequest is the booking form.
type BookRequest struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	Address           string `json:"address"`
	Specialization    string `json:"specialization"`
	DoctorID          int    `json:"doctor_id"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Reason            string `json:"reason"`
	Symptoms          string `json:"symptoms"`
	PreviousDiagnosis string `json:"previous_diagnosis"`
}

func (r BookRequest) missing() []string {
	var fields []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			fields = append(fields, name)
		}
	}
	check("first_name", r.FirstName)
	check("last_name", r.LastName)
	check("phone", r.Phone)
	check("email", r.Email)
	check("address", r.Address)
	check("specialization", r.Specialization)
	check("date", r.Date)
	check("time", r.Time)
	check("reason", r.Reason)
	check("symptoms", r.Symptoms)
	if r.DoctorID == 0 {
		fields = append(fields, "doctor_id")
	}
	return fields
}

// MissingFieldsError lists required booking fields that were empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("please fill in all required fields: %s", strings.Join(e.Fields, ", "))
}

// NewAppointmentID builds an id of the form APT<yyyymmddHHMMSS>-<suffix>.
func NewAppointmentID(now time.Time, suffix string) string {
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return "APT" + now.Format("20060102150405") + "-" + strings.ToUpper(suffix)
}
