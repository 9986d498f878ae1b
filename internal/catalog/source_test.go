package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-core/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceStaleResponseDiscarded(t *testing.T) {
	src := NewFirstPartySource("http://unused", time.Second)

	tokenA := src.begin()
	tokenB := src.begin()

	// B's response lands first.
	src.applyResult(tokenB, models.SourcePage{
		Items: []models.Product{{ID: "B1"}},
		Page:  1, Pages: 2, Count: 12,
	})

	// A's late response must not overwrite B's result.
	src.applyResult(tokenA, models.SourcePage{
		Items: []models.Product{{ID: "A1"}},
		Page:  1, Pages: 9, Count: 99,
	})

	snap := src.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "B1", snap.Items[0].ID)
	assert.Equal(t, 12, snap.Count)
	assert.Equal(t, models.StatusSucceeded, snap.Status)
}

func TestSourceStaleErrorDiscarded(t *testing.T) {
	src := NewFirstPartySource("http://unused", time.Second)

	tokenA := src.begin()
	tokenB := src.begin()

	src.applyResult(tokenB, models.SourcePage{Items: []models.Product{{ID: "B1"}}})
	src.applyError(tokenA, fmt.Errorf("connection reset"))

	snap := src.Snapshot()
	assert.Equal(t, models.StatusSucceeded, snap.Status)
	assert.Empty(t, snap.Err)
}

func TestSourceFetchMapsFirstPartyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "modern", r.URL.Query().Get("category"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"_id": "P1", "name": "Villa 30x40", "price": 4999, "salePrice": 2999, "plotSize": "30x40"},
			},
			"page":  2,
			"pages": 3,
			"count": 25,
		})
	}))
	defer server.Close()

	src := NewFirstPartySource(server.URL, time.Second)
	err := src.Fetch(context.Background(), models.FilterState{Category: "modern"}, 2, 9)
	require.NoError(t, err)

	snap := src.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "P1", snap.Items[0].ID)
	assert.Equal(t, models.SourceCatalog, snap.Items[0].Source)
	assert.Equal(t, "Villa 30x40", snap.Items[0].Name)
	assert.Equal(t, int64(2999), snap.Items[0].EffectivePrice())
	assert.Equal(t, 3, snap.Pages)
	assert.Equal(t, 25, snap.Count)
	assert.Equal(t, models.StatusSucceeded, snap.Status)
}

func TestMarketplaceSourceConstrainedToApproved(t *testing.T) {
	var gotStatus string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStatus = r.URL.Query().Get("status")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"_id": "M1", "planName": "Duplex 40x60", "regularPrice": 8000, "offerPrice": 6500},
			},
			"page": 1, "pages": 1, "count": 1,
		})
	}))
	defer server.Close()

	src := NewMarketplaceSource(server.URL, time.Second)
	require.NoError(t, src.Fetch(context.Background(), models.FilterState{}, 1, 9))

	assert.Equal(t, "approved", gotStatus)

	snap := src.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, models.SourceMarketplace, snap.Items[0].Source)
	assert.Equal(t, "Duplex 40x60", snap.Items[0].Name)
	assert.Equal(t, int64(6500), snap.Items[0].EffectivePrice())
}

func TestSourceFetchFailureRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	src := NewFirstPartySource(server.URL, time.Second)
	err := src.Fetch(context.Background(), models.FilterState{}, 1, 9)
	require.Error(t, err)

	snap := src.Snapshot()
	assert.Equal(t, models.StatusFailed, snap.Status)
	assert.Contains(t, snap.Err, "upstream exploded")
}
