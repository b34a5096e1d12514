package storage

import (
	"context"
	"sync"

	"github.com/xaenox/memo-bridge/internal/models"
)

type MemoryStorage struct {
	mu        sync.RWMutex
	exchanges []*models.Exchange
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) SaveExchange(ctx context.Context, ex *models.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *ex
	stored.Tags = append([]string(nil), ex.Tags...)
	s.exchanges = append(s.exchanges, &stored)
	return nil
}

func (s *MemoryStorage) RecentExchanges(ctx context.Context, limit, offset int) ([]*models.Exchange, error) {
	if err := checkPage(limit, offset); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Exchange, 0, limit)
	for i := len(s.exchanges) - 1 - offset; i >= 0 && len(result) < limit; i-- {
		ex := *s.exchanges[i]
		result = append(result, &ex)
	}
	return result, nil
}

func (s *MemoryStorage) Categories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	categories := []string{}
	for _, ex := range s.exchanges {
		if _, ok := seen[ex.Category]; ok {
			continue
		}
		seen[ex.Category] = struct{}{}
		categories = append(categories, ex.Category)
	}
	return categories, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
