package service

import (
	"context"
	"sync"
	"time"
)

// TestResult - завершённая попытка в том виде, как она пишется в журнал.
type TestResult struct {
	UserID      int64
	Username    string
	FirstName   string
	AttemptID   string
	Scores      []ScaleScore
	CompletedAt time.Time
}

// ResultStore хранит завершённые попытки, чтобы вернувшийся пользователь с
// истёкшей сессией сразу видел свои результаты.
type ResultStore interface {
	Save(ctx context.Context, result TestResult) error
	Latest(ctx context.Context, userID int64) (*TestResult, error)
}

// MemoryResultStore - запасное хранилище, данные теряются при рестарте.
type MemoryResultStore struct {
	mu      sync.RWMutex
	entries map[int64]TestResult
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{
		entries: make(map[int64]TestResult),
	}
}

func (ms *MemoryResultStore) Save(_ context.Context, result TestResult) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if prev, ok := ms.entries[result.UserID]; ok && prev.CompletedAt.After(result.CompletedAt) {
		return nil
	}
	result.Scores = append([]ScaleScore(nil), result.Scores...)
	ms.entries[result.UserID] = result
	return nil
}

// Latest возвращает nil, если у пользователя нет сохранённого результата.
func (ms *MemoryResultStore) Latest(_ context.Context, userID int64) (*TestResult, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entry, ok := ms.entries[userID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// RestoreResults возвращает в сессию последний сохранённый рейтинг и
// сообщает, удалось ли.
func RestoreResults(ctx context.Context, store ResultStore, s *Session) (bool, error) {
	if s.Results != nil || store == nil {
		return false, nil
	}
	latest, err := store.Latest(ctx, s.UserID)
	if err != nil || latest == nil {
		return false, err
	}
	s.Results = append([]ScaleScore{}, latest.Scores...)
	s.AttemptID = latest.AttemptID
	return true, nil
}
