package session

import (
	"context"
	"errors"
	"sync"

	"github.com/PoluyanbIch/stemnavigator/internal/service"
)

var ErrCorruptSession = errors.New("corrupt session data")

// Store keeps one quiz session per respondent.
type Store interface {
	// Load returns the saved session or a fresh idle one.
	Load(ctx context.Context, userID int64) (*service.Session, error)
	Save(ctx context.Context, s *service.Session) error
	Delete(ctx context.Context, userID int64) error
}

type memoryStore struct {
	mu    sync.Mutex
	items map[int64]*service.Session
}

// NewMemoryStore keeps sessions in process memory; they are lost on restart.
func NewMemoryStore() Store {
	return &memoryStore{
		items: make(map[int64]*service.Session),
	}
}

func (m *memoryStore) Load(_ context.Context, userID int64) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[userID]
	if !ok {
		return service.NewSession(userID), nil
	}
	return s.Clone(), nil
}

func (m *memoryStore) Save(_ context.Context, s *service.Session) error {
	if s == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.UserID] = s.Clone()
	return nil
}

func (m *memoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
	return nil
}
