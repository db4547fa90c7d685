package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lungscreen/lungscreen/internal/domain/risk"
)

type memoryEntry struct {
	session Session
	record  PredictionRecord
}

// MemoryStore keeps sessions in process memory. Each session has its own
// entry; the mutex only guards the map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*memoryEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]*memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &memoryEntry{session: *s}
	return nil
}

// entry returns the live entry or nil. Expired entries are dropped. Callers
// hold the write lock.
func (m *MemoryStore) entry(id uuid.UUID) *memoryEntry {
	e, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if e.session.Expired(m.now()) {
		delete(m.sessions, id)
		return nil
	}
	return e
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(id)
	if e == nil {
		return nil, ErrSessionNotFound
	}
	s := e.session
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id := range m.sessions {
		if m.entry(id) != nil {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) SavePrediction(_ context.Context, id uuid.UUID, kind risk.Source, p *StoredPrediction) error {
	if err := validKind(kind); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(id)
	if e == nil {
		return ErrSessionNotFound
	}
	cp := p.Clone()
	switch kind {
	case risk.SourceTabular:
		e.record.Tabular = cp
	case risk.SourceImage:
		e.record.Image = cp
	}
	return nil
}

func (m *MemoryStore) ClearPrediction(_ context.Context, id uuid.UUID, kind risk.Source) error {
	if err := validKind(kind); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(id)
	if e == nil {
		return ErrSessionNotFound
	}
	switch kind {
	case risk.SourceTabular:
		e.record.Tabular = nil
	case risk.SourceImage:
		e.record.Image = nil
	}
	return nil
}

func (m *MemoryStore) Predictions(_ context.Context, id uuid.UUID) (PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(id)
	if e == nil {
		return PredictionRecord{}, ErrSessionNotFound
	}
	return PredictionRecord{
		Tabular: e.record.Tabular.Clone(),
		Image:   e.record.Image.Clone(),
	}, nil
}
