package entitlement

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"storefront-core/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paidOrderWithLine(rawLine string) models.Order {
	var line models.OrderLine
	if err := json.Unmarshal([]byte(rawLine), &line); err != nil {
		panic(err)
	}
	return models.Order{ID: "O1", UserID: "U1", IsPaid: true, Lines: []models.OrderLine{line}}
}

func TestIsEntitledEmbeddedReference(t *testing.T) {
	orders := []models.Order{paidOrderWithLine(`{"productId":{"_id":"P1"},"qty":1}`)}
	assert.True(t, IsEntitled(orders, "P1"))
}

func TestIsEntitledBareReference(t *testing.T) {
	orders := []models.Order{paidOrderWithLine(`{"productId":"P1","qty":1}`)}
	assert.True(t, IsEntitled(orders, "P1"))
}

func TestIsEntitledUnpaidOrderDoesNotCount(t *testing.T) {
	order := paidOrderWithLine(`{"productId":"P1","qty":1}`)
	order.IsPaid = false
	assert.False(t, IsEntitled([]models.Order{order}, "P1"))
}

func TestIsEntitledNoOrders(t *testing.T) {
	assert.False(t, IsEntitled(nil, "P1"))
	assert.False(t, IsEntitled([]models.Order{}, "P1"))
}

func TestIsEntitledDifferentProduct(t *testing.T) {
	orders := []models.Order{paidOrderWithLine(`{"productId":"P2","qty":1}`)}
	assert.False(t, IsEntitled(orders, "P1"))
}

func TestIsEntitledMalformedReferenceSkipped(t *testing.T) {
	orders := []models.Order{paidOrderWithLine(`{"productId":{"id":"P1"},"qty":1}`)}
	assert.False(t, IsEntitled(orders, "P1"))

	// An empty lookup key never matches, even against a malformed line.
	assert.False(t, IsEntitled(orders, ""))
}

type fakeOrderSource struct {
	orders []models.Order
	err    error
	calls  int
}

func (f *fakeOrderSource) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	f.calls++
	return f.orders, f.err
}

type fakeOrderCache struct {
	entries map[string][]models.Order
}

func (f *fakeOrderCache) GetOrders(ctx context.Context, userID string) ([]models.Order, bool, error) {
	orders, ok := f.entries[userID]
	return orders, ok, nil
}

func (f *fakeOrderCache) SetOrders(ctx context.Context, userID string, orders []models.Order, ttl time.Duration) error {
	f.entries[userID] = orders
	return nil
}

func TestResolverNoSessionNeverEntitled(t *testing.T) {
	source := &fakeOrderSource{orders: []models.Order{paidOrderWithLine(`{"productId":"P1"}`)}}
	r := NewResolver(source, nil, time.Minute)

	entitled, err := r.Check(context.Background(), "", "P1")
	require.NoError(t, err)
	assert.False(t, entitled)
	assert.Zero(t, source.calls, "unauthenticated checks must not load orders")
}

func TestResolverSourceFailureIsConservative(t *testing.T) {
	source := &fakeOrderSource{err: fmt.Errorf("orders backend down")}
	r := NewResolver(source, nil, time.Minute)

	entitled, err := r.Check(context.Background(), "U1", "P1")
	assert.False(t, entitled)
	assert.Error(t, err)
}

func TestResolverUsesCacheOnSecondCheck(t *testing.T) {
	source := &fakeOrderSource{orders: []models.Order{paidOrderWithLine(`{"productId":"P1"}`)}}
	cache := &fakeOrderCache{entries: map[string][]models.Order{}}
	r := NewResolver(source, cache, time.Minute)

	entitled, err := r.Check(context.Background(), "U1", "P1")
	require.NoError(t, err)
	assert.True(t, entitled)

	entitled, err = r.Check(context.Background(), "U1", "P1")
	require.NoError(t, err)
	assert.True(t, entitled)
	assert.Equal(t, 1, source.calls)
}
