package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRefBareIdentity(t *testing.T) {
	var line OrderLine
	require.NoError(t, json.Unmarshal([]byte(`{"productId":"P1","qty":1,"price":100}`), &line))
	assert.Equal(t, "P1", line.Product.Key())
}

func TestProductRefEmbeddedIdentity(t *testing.T) {
	var line OrderLine
	require.NoError(t, json.Unmarshal([]byte(`{"productId":{"_id":"P1","name":"Villa"},"qty":1,"price":100}`), &line))
	assert.Equal(t, "P1", line.Product.Key())
}

func TestProductRefUnrecognizedShapeIsNoMatch(t *testing.T) {
	for _, raw := range []string{
		`{"productId":null,"qty":1}`,
		`{"productId":42,"qty":1}`,
		`{"productId":{"id":"P1"},"qty":1}`,
	} {
		var line OrderLine
		require.NoError(t, json.Unmarshal([]byte(raw), &line), raw)
		assert.Empty(t, line.Product.Key(), raw)
	}
}

func TestProductRefScanEmbeddedIdentity(t *testing.T) {
	var ref ProductRef
	require.NoError(t, ref.Scan([]byte(`{"_id": "P1"}`)))
	assert.Equal(t, "P1", ref.Key())
}

func TestProductRefScanBareIdentity(t *testing.T) {
	var ref ProductRef
	require.NoError(t, ref.Scan([]byte("P1")))
	assert.Equal(t, "P1", ref.Key())

	require.NoError(t, ref.Scan("P2"))
	assert.Equal(t, "P2", ref.Key())

	// A stored quoted form also resolves to the plain identity.
	require.NoError(t, ref.Scan([]byte(`"P3"`)))
	assert.Equal(t, "P3", ref.Key())
}

func TestProductRefScanUnrecognizedShapeIsNoMatch(t *testing.T) {
	var ref ProductRef
	require.NoError(t, ref.Scan([]byte(`{"id":"P1"}`)))
	assert.Empty(t, ref.Key())

	require.NoError(t, ref.Scan(nil))
	assert.Empty(t, ref.Key())
}

func TestProductEffectivePrice(t *testing.T) {
	assert.Equal(t, int64(80), (&Product{Price: 100, SalePrice: 80}).EffectivePrice())
	assert.Equal(t, int64(100), (&Product{Price: 100}).EffectivePrice())
	// A "sale" price above the regular price is ignored.
	assert.Equal(t, int64(100), (&Product{Price: 100, SalePrice: 120}).EffectivePrice())
}

func TestFilterStateQueryOmitsZeroValues(t *testing.T) {
	q := FilterState{
		Category:  "modern",
		BudgetMin: 1000,
		Floors:    2,
	}.Query()

	assert.Equal(t, "modern", q.Get("category"))
	assert.Equal(t, "1000", q.Get("budgetMin"))
	assert.Equal(t, "2", q.Get("floors"))
	assert.False(t, q.Has("budgetMax"))
	assert.False(t, q.Has("search"))
	assert.False(t, q.Has("plotSize"))
}

func TestCartItemUnitPrice(t *testing.T) {
	assert.Equal(t, int64(2999), (&CartItem{Price: 4999, SalePrice: 2999}).UnitPrice())
	assert.Equal(t, int64(4999), (&CartItem{Price: 4999}).UnitPrice())
}
