package scheduling

import (
	"context"
	"sort"
	"sync"
)

type appointmentRepoMemory struct {
	mu    sync.RWMutex
	byID  map[string]*Appointment
	order []string
}

func NewAppointmentRepoMemory() AppointmentRepository {
	return &appointmentRepoMemory{byID: make(map[string]*Appointment)}
}

func (r *appointmentRepoMemory) takenLocked(doctorID int, date, tm, exceptID string) bool {
	for id, a := range r.byID {
		if id != exceptID && a.Occupies(doctorID, date, tm) {
			return true
		}
	}
	return false
}

func (r *appointmentRepoMemory) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.Status == StatusConfirmed && r.takenLocked(a.DoctorID, a.Date, a.Time, "") {
		return ErrSlotTaken
	}
	cp := *a
	r.byID[a.ID] = &cp
	r.order = append(r.order, a.ID)
	return nil
}

func (r *appointmentRepoMemory) GetByID(_ context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *appointmentRepoMemory) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	if status == StatusConfirmed && r.takenLocked(a.DoctorID, a.Date, a.Time, id) {
		return ErrSlotTaken
	}
	a.Status = status
	return nil
}

// all returns copies in booking order.
func (r *appointmentRepoMemory) all(keep func(*Appointment) bool) []*Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Appointment, 0, len(r.order))
	for _, id := range r.order {
		a := r.byID[id]
		if keep == nil || keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}

func (r *appointmentRepoMemory) ListByUsername(_ context.Context, username string) ([]*Appointment, error) {
	return r.all(func(a *Appointment) bool { return a.Username == username }), nil
}

func (r *appointmentRepoMemory) LatestByUsername(ctx context.Context, username string) (*Appointment, error) {
	mine, _ := r.ListByUsername(ctx, username)
	if len(mine) == 0 {
		return nil, ErrAppointmentNotFound
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].BookedOn.After(mine[j].BookedOn) })
	return mine[0], nil
}

func (r *appointmentRepoMemory) List(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	all := r.all(nil)
	total := len(all)
	if offset >= total {
		return []*Appointment{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (r *appointmentRepoMemory) SlotTaken(_ context.Context, doctorID int, date, tm string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.takenLocked(doctorID, date, tm, ""), nil
}
