// Package admin serves the clinic dashboard: system statistics, user
// exports and the analytics report.
package admin

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/lungscreen/lungscreen/internal/domain/identity"
	"github.com/lungscreen/lungscreen/internal/domain/scheduling"
	"github.com/lungscreen/lungscreen/internal/platform/analytics"
	"github.com/lungscreen/lungscreen/internal/platform/reporting"
)

// Directory is the account source.
type Directory interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*identity.User, int, error)
	ActiveSessions(ctx context.Context) (int, error)
}

// Bookings summarizes appointments.
type Bookings interface {
	Breakdown(ctx context.Context) (total int, byStatus, bySpecialization map[string]int, err error)
}

type Service struct {
	users    Directory
	bookings Bookings
	usage    *analytics.UsageTracker
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(users Directory, bookings Bookings, usage *analytics.UsageTracker, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		bookings: bookings,
		usage:    usage,
		logger:   logger.With().Str("component", "admin").Logger(),
		now:      time.Now,
	}
}

// Stats is the dashboard summary.
type Stats struct {
	TotalUsers        int                      `json:"total_users"`
	ActiveSessions    int                      `json:"active_sessions"`
	TotalAppointments int                      `json:"total_appointments"`
	Confirmed         int                      `json:"confirmed"`
	Cancelled         int                      `json:"cancelled"`
	ByStatus          map[string]int           `json:"by_status"`
	BySpecialization  map[string]int           `json:"by_specialization"`
	Predictions       *analytics.UsageOverview `json:"predictions"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	_, totalUsers, err := s.users.ListUsers(ctx, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	active, err := s.users.ActiveSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	total, byStatus, bySpec, err := s.bookings.Breakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointment breakdown: %w", err)
	}
	return &Stats{
		TotalUsers:        totalUsers,
		ActiveSessions:    active,
		TotalAppointments: total,
		Confirmed:         byStatus[scheduling.StatusConfirmed],
		Cancelled:         byStatus[scheduling.StatusCancelled],
		ByStatus:          byStatus,
		BySpecialization:  bySpec,
		Predictions:       s.usage.Overview(),
	}, nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*identity.User, int, error) {
	return s.users.ListUsers(ctx, limit, offset)
}

var userCSVHeader = []string{"username", "first_name", "last_name", "email", "phone", "address", "role", "created_at"}

// ExportUsers renders every account as CSV. Passwords are never exported.
func (s *Service) ExportUsers(ctx context.Context) (*reporting.Rendered, error) {
	users, _, err := s.users.ListUsers(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.Username, u.FirstName, u.LastName, u.Email, u.Phone, u.Address, u.Role,
			u.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return reporting.RenderCSV("users_data_"+reporting.Timestamp(s.now()), userCSVHeader, rows)
}

// Report renders the analytics report.
func (s *Service) Report(ctx context.Context, format reporting.Format) (*reporting.Rendered, error) {
	users, totalUsers, err := s.users.ListUsers(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	total, byStatus, bySpec, err := s.bookings.Breakdown(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r := reporting.AnalyticsReport{
		TotalUsers:        totalUsers,
		TotalAppointments: total,
		ByStatus:          sortedCounts(byStatus),
		BySpecialization:  sortedCounts(bySpec),
		GeneratedAt:       now,
	}
	for kind, byTier := range s.usage.Counts() {
		for tier, n := range byTier {
			r.Predictions = append(r.Predictions, reporting.Count{Label: kind + " / " + tier, N: int(n)})
		}
	}
	sort.Slice(r.Predictions, func(i, j int) bool { return r.Predictions[i].Label < r.Predictions[j].Label })
	for _, u := range users {
		r.Users = append(r.Users, reporting.Patient{
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
		})
	}

	s.logger.Info().Str("format", string(format)).Msg("analytics report generated")
	return reporting.Render(r.Document(), format, "Admin_Analytics_Report_"+reporting.Timestamp(now))
}

// sortedCounts orders by count descending, then label.
func sortedCounts(m map[string]int) []reporting.Count {
	out := make([]reporting.Count, 0, len(m))
	for k, n := range m {
		out = append(out, reporting.Count{Label: k, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	return out
}
