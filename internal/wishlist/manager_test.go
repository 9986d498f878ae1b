package wishlist

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"storefront-core/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersistence struct {
	mu       sync.Mutex
	failNext bool
	saved    map[string]models.WishlistItem
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{saved: make(map[string]models.WishlistItem)}
}

func (f *fakePersistence) SaveWishlistItem(ctx context.Context, userID string, item models.WishlistItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return fmt.Errorf("wishlist backend unavailable")
	}
	f.saved[item.ProductID] = item
	return nil
}

func (f *fakePersistence) DeleteWishlistItem(ctx context.Context, userID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return fmt.Errorf("wishlist backend unavailable")
	}
	delete(f.saved, productID)
	return nil
}

func (f *fakePersistence) LoadWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	return nil, nil
}

func newTestManager() (*Manager, *fakePersistence) {
	p := newFakePersistence()
	return NewManager("U1", nil, p, nil), p
}

func TestToggleTwiceRestoresMembership(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	item := models.WishlistItem{ProductID: "X", Name: "Plan X"}

	member, err := m.Toggle(ctx, item)
	require.NoError(t, err)
	assert.True(t, member)
	assert.True(t, m.IsMember("X"))

	member, err = m.Toggle(ctx, item)
	require.NoError(t, err)
	assert.False(t, member)
	assert.False(t, m.IsMember("X"))
	assert.Zero(t, m.Size())
}

func TestAddIsIdempotent(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	item := models.WishlistItem{ProductID: "X"}

	require.NoError(t, m.Add(ctx, item))
	require.NoError(t, m.Add(ctx, item))
	assert.Equal(t, 1, m.Size())
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.Remove(context.Background(), "nope"))
	assert.Zero(t, m.Size())
}

func TestToggleRollbackOnPersistenceFailure(t *testing.T) {
	m, p := newTestManager()
	ctx := context.Background()
	item := models.WishlistItem{ProductID: "X"}

	p.failNext = true
	_, err := m.Toggle(ctx, item)
	require.Error(t, err)
	assert.False(t, m.IsMember("X"), "failed toggle must not change membership")
}

func TestConcurrentTogglesStaySerialized(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	item := models.WishlistItem{ProductID: "X"}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Toggle(ctx, item)
		}()
	}
	wg.Wait()

	// An even number of toggles always lands back at the original state.
	assert.False(t, m.IsMember("X"))
}

func TestServiceSeedsManagerFromPersistence(t *testing.T) {
	p := newFakePersistence()
	p.saved["X"] = models.WishlistItem{ProductID: "X"}
	s := NewService(&loadingPersistence{fakePersistence: p}, nil)

	m, err := s.ForUser(context.Background(), "U1")
	require.NoError(t, err)
	assert.True(t, m.IsMember("X"))
}

// loadingPersistence returns the saved set from LoadWishlist.
type loadingPersistence struct {
	*fakePersistence
}

func (l *loadingPersistence) LoadWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]models.WishlistItem, 0, len(l.saved))
	for _, it := range l.saved {
		items = append(items, it)
	}
	return items, nil
}
