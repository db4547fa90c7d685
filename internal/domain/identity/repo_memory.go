package identity

import (
	"context"
	"sort"
	"sync"
	"time"
)

type userRepoMemory struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewUserRepoMemory keeps accounts in process memory. Used when no database
// is configured.
func NewUserRepoMemory() UserRepository {
	return &userRepoMemory{users: make(map[string]*User)}
}

func (r *userRepoMemory) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return ErrUsernameTaken
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	r.users[u.Username] = &cp
	return nil
}

func (r *userRepoMemory) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepoMemory) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	r.mu.RLock()
	all := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		all = append(all, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	total := len(all)
	if offset >= total {
		return []*User{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (r *userRepoMemory) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}
