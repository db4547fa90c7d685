package scheduling

import "context"

type AppointmentRepository interface {
	// Create stores a. It returns ErrSlotTaken when a is confirmed and the
	// doctor already holds a confirmed appointment at the same date and time.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ListByUsername(ctx context.Context, username string) ([]*Appointment, error)
	LatestByUsername(ctx context.Context, username string) (*Appointment, error)
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	SlotTaken(ctx context.Context, doctorID int, date, tm string) (bool, error)
}
