package wishlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-core/internal/models"
	"storefront-core/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Persistence is the fallible remote store behind the wishlist.
type Persistence interface {
	SaveWishlistItem(ctx context.Context, userID string, item models.WishlistItem) error
	DeleteWishlistItem(ctx context.Context, userID, productID string) error
	LoadWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error)
}

// TogglePublisher emits wishlist activity events, best effort.
type TogglePublisher interface {
	PublishWishlistToggled(ctx context.Context, event *models.WishlistToggledEvent) error
}

// Manager owns one user's wishlist: a set keyed by product identity. Add on a
// present identity and Remove on an absent one are no-ops; Toggle is atomic
// with respect to the manager's own state, so two quick toggles of the same
// product land back where they started. Persistence is called before the
// in-memory set changes.
type Manager struct {
	userID      string
	persistence Persistence
	events      TogglePublisher
	logger      *zap.Logger

	mu    sync.Mutex
	items map[string]models.WishlistItem
}

// NewManager creates a wishlist manager seeded with persisted items.
func NewManager(userID string, items []models.WishlistItem, persistence Persistence, events TogglePublisher) *Manager {
	set := make(map[string]models.WishlistItem, len(items))
	for _, it := range items {
		set[it.ProductID] = it
	}
	return &Manager{
		userID:      userID,
		persistence: persistence,
		events:      events,
		logger:      util.GetLogger(),
		items:       set,
	}
}

// Add puts the product in the set. Already-present products are left alone.
func (m *Manager) Add(ctx context.Context, item models.WishlistItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(ctx, item)
}

// Remove takes the product out of the set. Absent products are a no-op.
func (m *Manager) Remove(ctx context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remove(ctx, productID)
}

// Toggle flips membership: present products are removed, absent ones added.
// The read and the act happen under one lock acquisition.
func (m *Manager) Toggle(ctx context.Context, item models.WishlistItem) (member bool, err error) {
	ctx, span := util.StartSpan(ctx, "WishlistManager.Toggle")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.ProductID]; ok {
		if err := m.remove(ctx, item.ProductID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := m.add(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}

// IsMember reports whether the product is in the set.
func (m *Manager) IsMember(productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[productID]
	return ok
}

// Items returns a snapshot of the wishlist.
func (m *Manager) Items() []models.WishlistItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.WishlistItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	return out
}

// Size returns the number of liked products.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// add must be called with the mutex held.
func (m *Manager) add(ctx context.Context, item models.WishlistItem) error {
	if _, ok := m.items[item.ProductID]; ok {
		return nil
	}

	if err := m.persistence.SaveWishlistItem(ctx, m.userID, item); err != nil {
		util.WishlistMutationsTotal.WithLabelValues("add", "error").Inc()
		m.logger.Warn("Wishlist add not applied, persistence failed",
			zap.String("user_id", m.userID),
			zap.String("product_id", item.ProductID),
			zap.Error(err))
		return err
	}

	m.items[item.ProductID] = item
	util.WishlistMutationsTotal.WithLabelValues("add", "success").Inc()
	m.publishToggled(ctx, item.ProductID, true)
	return nil
}

// remove must be called with the mutex held.
func (m *Manager) remove(ctx context.Context, productID string) error {
	if _, ok := m.items[productID]; !ok {
		return nil
	}

	if err := m.persistence.DeleteWishlistItem(ctx, m.userID, productID); err != nil {
		util.WishlistMutationsTotal.WithLabelValues("remove", "error").Inc()
		return err
	}

	delete(m.items, productID)
	util.WishlistMutationsTotal.WithLabelValues("remove", "success").Inc()
	m.publishToggled(ctx, productID, false)
	return nil
}

func (m *Manager) publishToggled(ctx context.Context, productID string, member bool) {
	if m.events == nil {
		return
	}
	event := &models.WishlistToggledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeWishlistToggled,
			Timestamp: time.Now(),
		},
		UserID:    m.userID,
		ProductID: productID,
		Member:    member,
	}
	if err := m.events.PublishWishlistToggled(ctx, event); err != nil {
		m.logger.Error("Failed to publish WishlistToggled event", zap.Error(err))
	}
}

// Service hands out wishlist managers, one per user.
type Service struct {
	persistence Persistence
	events      TogglePublisher

	mu       sync.Mutex
	managers map[string]*Manager
}

// NewService creates the wishlist service.
func NewService(persistence Persistence, events TogglePublisher) *Service {
	return &Service{
		persistence: persistence,
		events:      events,
		managers:    make(map[string]*Manager),
	}
}

// ForUser returns the user's wishlist manager, creating it on first access by
// loading the persisted set.
func (s *Service) ForUser(ctx context.Context, userID string) (*Manager, error) {
	s.mu.Lock()
	if mgr, ok := s.managers[userID]; ok {
		s.mu.Unlock()
		return mgr, nil
	}
	s.mu.Unlock()

	items, err := s.persistence.LoadWishlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist for user %s: %w", userID, err)
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
