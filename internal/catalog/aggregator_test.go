package catalog

import (
	"fmt"
	"testing"
	"time"

	"storefront-core/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSources() (*Source, *Source, *Aggregator) {
	fp := NewFirstPartySource("http://unused", time.Second)
	mp := NewMarketplaceSource("http://unused", time.Second)
	return fp, mp, NewAggregator(fp, mp)
}

func succeed(src *Source, page models.SourcePage) {
	src.applyResult(src.begin(), page)
}

func fail(src *Source, msg string) {
	src.applyError(src.begin(), fmt.Errorf("%s", msg))
}

func TestAggregatorOrderingFirstPartyThenMarketplace(t *testing.T) {
	fp, mp, agg := testSources()

	succeed(fp, models.SourcePage{Items: []models.Product{{ID: "a1"}, {ID: "a2"}}})
	succeed(mp, models.SourcePage{Items: []models.Product{{ID: "b1"}, {ID: "b2"}}})

	listing := agg.Listing()
	require.Len(t, listing.Items, 4)
	ids := []string{listing.Items[0].ID, listing.Items[1].ID, listing.Items[2].ID, listing.Items[3].ID}
	assert.Equal(t, []string{"a1", "a2", "b1", "b2"}, ids)
	assert.Equal(t, models.StatusSucceeded, listing.Status)
}

func TestAggregatorPaginationReconciliation(t *testing.T) {
	fp, mp, agg := testSources()

	succeed(fp, models.SourcePage{Pages: 3, Count: 10, Page: 1})
	succeed(mp, models.SourcePage{Pages: 5, Count: 7, Page: 1})

	listing := agg.Listing()
	assert.Equal(t, 5, listing.Pages)
	assert.Equal(t, 17, listing.Count)
	assert.Equal(t, 1, listing.Page)
}

func TestAggregatorLoadingWhenEitherSourceLoading(t *testing.T) {
	fp, mp, agg := testSources()

	succeed(fp, models.SourcePage{})
	mp.begin()

	assert.Equal(t, models.StatusLoading, agg.Listing().Status)
}

func TestAggregatorFailureIsolatedAndSurfaced(t *testing.T) {
	fp, mp, agg := testSources()

	succeed(fp, models.SourcePage{Items: []models.Product{{ID: "a1"}}, Count: 1})
	fail(mp, "marketplace down")

	listing := agg.Listing()
	assert.Equal(t, models.StatusFailed, listing.Status)
	assert.Contains(t, listing.Error, "marketplace down")

	// The healthy source's data is intact and still served.
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "a1", listing.Items[0].ID)
}

func TestAggregatorFirstErrorWins(t *testing.T) {
	fp, mp, agg := testSources()

	fail(fp, "catalog down")
	fail(mp, "marketplace down")

	assert.Equal(t, "catalog down", agg.Listing().Error)
}

func TestAggregatorIdleBeforeAnyFetch(t *testing.T) {
	_, _, agg := testSources()
	assert.Equal(t, models.StatusIdle, agg.Listing().Status)
}
