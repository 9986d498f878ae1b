package cart

import (
	"context"
	"fmt"
	"sync"
)

// Service hands out cart managers, exactly one per user. Views never touch
// cart state directly; they go through the manager the service returns.
type Service struct {
	persistence Persistence
	events      ActivityPublisher

	mu       sync.Mutex
	managers map[string]*Manager
}

// NewService creates the cart service.
func NewService(persistence Persistence, events ActivityPublisher) *Service {
	return &Service{
		persistence: persistence,
		events:      events,
		managers:    make(map[string]*Manager),
	}
}

// ForUser returns the user's cart manager, creating it on first access by
// loading the persisted cart.
func (s *Service) ForUser(ctx context.Context, userID string) (*Manager, error) {
	s.mu.Lock()
	if mgr, ok := s.managers[userID]; ok {
		s.mu.Unlock()
		return mgr, nil
	}
	s.mu.Unlock()

	// Load outside the lock; a concurrent first access may win the race,
	// in which case its manager is kept.
	items, err := s.persistence.LoadCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart for user %s: %w", userID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if mgr, ok := s.managers[userID]; ok {
		return mgr, nil
	}
	mgr := NewManager(userID, items, s.persistence, s.events)
	s.managers[userID] = mgr
	return mgr, nil
}
