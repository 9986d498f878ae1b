package catalog

import (
	"context"
	"sync"

	"storefront-core/internal/models"
	"storefront-core/internal/util"
)

// Aggregator combines the two sources' current pages into one listing. It
// holds no state of its own beyond references to the sources; the listing is
// recomputed from their snapshots on every read.
type Aggregator struct {
	first       *Source
	marketplace *Source
}

// NewAggregator creates an aggregator over the first-party and marketplace
// sources.
func NewAggregator(first, marketplace *Source) *Aggregator {
	return &Aggregator{
		first:       first,
		marketplace: marketplace,
	}
}

// Refresh fetches the requested page from both sources concurrently. The
// sources touch disjoint backends, so neither fetch waits on the other and a
// failure in one never blocks the other. Per-source errors land in the
// listing's status; Refresh itself only reports completion.
func (a *Aggregator) Refresh(ctx context.Context, filters models.FilterState, page, pageSize int) {
	ctx, span := util.StartSpan(ctx, "Aggregator.Refresh")
	defer span.End()

	var wg sync.WaitGroup
	for _, src := range []*Source{a.first, a.marketplace} {
		wg.Add(1)
		go func(src *Source) {
			defer wg.Done()
			// The fetch records its own failure in the source snapshot.
			_ = src.Fetch(ctx, filters, page, pageSize)
		}(src)
	}
	wg.Wait()
}

// Listing merges the two source snapshots: first-party items first, then
// marketplace items, each segment in its own backend sort order. The sources
// are disjoint by identity so no deduplication is needed.
//
// Pagination is reconciled as pages = max(a, b) and count = a + b. Page N is
// therefore not a globally correct slice across both sources when their page
// counts diverge; it only keeps navigation possible and bounded. Fixing that
// for real needs a backend-side cross-source merge.
func (a *Aggregator) Listing() models.Listing {
	fp := a.first.Snapshot()
	mp := a.marketplace.Snapshot()

	items := make([]models.Product, 0, len(fp.Items)+len(mp.Items))
	items = append(items, fp.Items...)
	items = append(items, mp.Items...)

	listing := models.Listing{
		Items:  items,
		Page:   maxInt(fp.Page, mp.Page),
		Pages:  maxInt(fp.Pages, mp.Pages),
		Count:  fp.Count + mp.Count,
		Status: combineStatus(fp, mp),
	}

	if listing.Status == models.StatusFailed {
		if fp.Err != "" {
			listing.Error = fp.Err
		} else {
			listing.Error = mp.Err
		}
	}

	return listing
}

// combineStatus: loading if either source is loading, failed if either has
// failed, succeeded only when both have succeeded.
func combineStatus(fp, mp models.SourcePage) string {
	switch {
	case fp.Status == models.StatusLoading || mp.Status == models.StatusLoading:
		return models.StatusLoading
	case fp.Status == models.StatusFailed || mp.Status == models.StatusFailed:
		return models.StatusFailed
	case fp.Status == models.StatusSucceeded && mp.Status == models.StatusSucceeded:
		return models.StatusSucceeded
	default:
		return models.StatusIdle
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
