package cart

import (
	"context"
	"sync"
	"time"

	"storefront-core/internal/models"
	"storefront-core/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Persistence is the fallible remote store behind the cart. The manager
// treats it as opaque: success or failure, no partial outcomes.
type Persistence interface {
	SaveCartItem(ctx context.Context, userID string, item models.CartItem) error
	DeleteCartItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
	LoadCart(ctx context.Context, userID string) ([]models.CartItem, error)
}

// ActivityPublisher emits storefront activity events. Publishing is best
// effort and never affects mutation outcomes.
type ActivityPublisher interface {
	PublishCartItemAdded(ctx context.Context, event *models.CartItemAddedEvent) error
	PublishCartItemRemoved(ctx context.Context, event *models.CartItemRemovedEvent) error
	PublishCartCleared(ctx context.Context, event *models.CartClearedEvent) error
}

// Totals are the derived values the UI renders next to the cart icon.
type Totals struct {
	Lines    int   `json:"lines"`
	Quantity int   `json:"quantity"`
	Price    int64 `json:"price"`
}

// Manager owns one user's cart. All mutation funnels through its methods and
// is serialized by the manager's mutex, so two rapid add calls for the same
// product can never race into duplicate rows. Persistence is called before
// the in-memory state changes; a failed call leaves the cart exactly as it
// was.
type Manager struct {
	userID      string
	persistence Persistence
	events      ActivityPublisher
	logger      *zap.Logger

	mu    sync.Mutex
	items []models.CartItem
}

// NewManager creates a cart manager seeded with items loaded from
// persistence.
func NewManager(userID string, items []models.CartItem, persistence Persistence, events ActivityPublisher) *Manager {
	return &Manager{
		userID:      userID,
		persistence: persistence,
		events:      events,
		logger:      util.GetLogger(),
		items:       items,
	}
}

// AddItem adds quantity units of the product. A product already in the cart
// gets its quantity increased on the existing row; a new product appends a
// row. quantity below 1 is normalized to 1.
func (m *Manager) AddItem(ctx context.Context, item models.CartItem, quantity int) error {
	ctx, span := util.StartSpan(ctx, "CartManager.AddItem")
	defer span.End()

	if quantity < 1 {
		quantity = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	row := item
	row.Quantity = quantity
	idx := m.indexOf(item.ProductID)
	if idx >= 0 {
		row = m.items[idx]
		row.Quantity += quantity
	}

	if err := m.persistence.SaveCartItem(ctx, m.userID, row); err != nil {
		util.CartMutationsTotal.WithLabelValues("add", "error").Inc()
		m.logger.Warn("Cart add not applied, persistence failed",
			zap.String("user_id", m.userID),
			zap.String("product_id", item.ProductID),
			zap.Error(err))
		return err
	}

	if idx >= 0 {
		m.items[idx] = row
	} else {
		m.items = append(m.items, row)
	}

	util.CartMutationsTotal.WithLabelValues("add", "success").Inc()
	m.publishAdded(ctx, row, quantity)
	return nil
}

// UpdateQuantity replaces a row's quantity. A quantity of zero or less
// removes the row.
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return m.RemoveItem(ctx, productID)
	}

	ctx, span := util.StartSpan(ctx, "CartManager.UpdateQuantity")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(productID)
	if idx < 0 {
		return nil
	}

	row := m.items[idx]
	row.Quantity = quantity
	if err := m.persistence.SaveCartItem(ctx, m.userID, row); err != nil {
		util.CartMutationsTotal.WithLabelValues("update", "error").Inc()
		return err
	}

	m.items[idx] = row
	util.CartMutationsTotal.WithLabelValues("update", "success").Inc()
	return nil
}

// RemoveItem removes the product's row. Removing an absent product is a
// no-op, not an error.
func (m *Manager) RemoveItem(ctx context.Context, productID string) error {
	ctx, span := util.StartSpan(ctx, "CartManager.RemoveItem")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(productID)
	if idx < 0 {
		return nil
	}

	if err := m.persistence.DeleteCartItem(ctx, m.userID, productID); err != nil {
		util.CartMutationsTotal.WithLabelValues("remove", "error").Inc()
		return err
	}

	m.items = append(m.items[:idx], m.items[idx+1:]...)
	util.CartMutationsTotal.WithLabelValues("remove", "success").Inc()
	m.publishRemoved(ctx, productID)
	return nil
}

// Clear empties the cart. Invoked on successful checkout.
func (m *Manager) Clear(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "CartManager.Clear")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.items) == 0 {
		return nil
	}

	if err := m.persistence.ClearCart(ctx, m.userID); err != nil {
		util.CartMutationsTotal.WithLabelValues("clear", "error").Inc()
		return err
	}

	m.items = nil
	util.CartMutationsTotal.WithLabelValues("clear", "success").Inc()
	m.publishCleared(ctx)
	return nil
}

// Items returns a snapshot of the cart rows in insertion order.
func (m *Manager) Items() []models.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CartItem(nil), m.items...)
}

// Totals returns distinct line count, summed quantity, and the total price
// using the sale price wherever it undercuts the regular price.
func (m *Manager) Totals() Totals {
	m.mu.Lock()
	defer m.mu.Unlock()

	var t Totals
	t.Lines = len(m.items)
	for i := range m.items {
		t.Quantity += m.items[i].Quantity
		t.Price += int64(m.items[i].Quantity) * m.items[i].UnitPrice()
	}
	return t
}

// indexOf must be called with the mutex held.
func (m *Manager) indexOf(productID string) int {
	for i := range m.items {
		if m.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (m *Manager) publishAdded(ctx context.Context, row models.CartItem, added int) {
	if m.events == nil {
		return
	}
	event := &models.CartItemAddedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCartItemAdded,
			Timestamp: time.Now(),
		},
		UserID:    m.userID,
		ProductID: row.ProductID,
		Quantity:  added,
		UnitPrice: row.UnitPrice(),
	}
	if err := m.events.PublishCartItemAdded(ctx, event); err != nil {
		m.logger.Error("Failed to publish CartItemAdded event", zap.Error(err))
	}
}

func (m *Manager) publishRemoved(ctx context.Context, productID string) {
	if m.events == nil {
		return
	}
	event := &models.CartItemRemovedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCartItemRemoved,
			Timestamp: time.Now(),
		},
		UserID:    m.userID,
		ProductID: productID,
	}
	if err := m.events.PublishCartItemRemoved(ctx, event); err != nil {
		m.logger.Error("Failed to publish CartItemRemoved event", zap.Error(err))
	}
}

func (m *Manager) publishCleared(ctx context.Context) {
	if m.events == nil {
		return
	}
	event := &models.CartClearedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCartCleared,
			Timestamp: time.Now(),
		},
		UserID: m.userID,
	}
	if err := m.events.PublishCartCleared(ctx, event); err != nil {
		m.logger.Error("Failed to publish CartCleared event", zap.Error(err))
	}
}
