package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"storefront-core/internal/models"
	"storefront-core/internal/util"

	"go.uber.org/zap"
)

// Source wraps one backend product-listing endpoint. It owns the current page
// of results for that backend plus the fetch status, and guarantees that a
// later Fetch always supersedes an earlier one still in flight: responses
// carry the sequence number of the request that produced them and are
// discarded when a newer request has been issued since.
type Source struct {
	name     string
	baseURL  string
	client   *http.Client
	mapItems mapFunc
	extra    url.Values

	mu   sync.Mutex
	seq  uint64
	snap models.SourcePage

	logger *zap.Logger
}

func newSource(name, baseURL string, timeout time.Duration, mapItems mapFunc, extra url.Values) *Source {
	return &Source{
		name:     name,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
		mapItems: mapItems,
		extra:    extra,
		snap:     models.SourcePage{Status: models.StatusIdle},
		logger:   util.GetLogger(),
	}
}

// NewFirstPartySource adapts the first-party catalog endpoint.
func NewFirstPartySource(baseURL string, timeout time.Duration) *Source {
	return newSource(models.SourceCatalog, baseURL, timeout, mapFirstParty, nil)
}

// NewMarketplaceSource adapts the professional-marketplace endpoint. Only
// approved submissions are listable, so every request carries the status
// constraint.
func NewMarketplaceSource(baseURL string, timeout time.Duration) *Source {
	extra := url.Values{}
	extra.Set("status", "approved")
	return newSource(models.SourceMarketplace, baseURL, timeout, mapMarketplace, extra)
}

// Name returns the source tag.
func (s *Source) Name() string {
	return s.name
}

// Snapshot returns a copy of the source's current page and status.
func (s *Source) Snapshot() models.SourcePage {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snap
	snap.Items = append([]models.Product(nil), s.snap.Items...)
	return snap
}

// Fetch queries the backend for one page of results matching the filters and
// applies the response unless a later Fetch has superseded this one. The
// returned error reports this call's own outcome; source state is only
// touched when the call is still current.
func (s *Source) Fetch(ctx context.Context, filters models.FilterState, page, pageSize int) error {
	ctx, span := util.StartSpan(ctx, "Source.Fetch."+s.name)
	defer span.End()

	token := s.begin()

	start := time.Now()
	result, err := s.doRequest(ctx, filters, page, pageSize)
	util.SourceFetchLatency.WithLabelValues(s.name).Observe(time.Since(start).Seconds())

	if err != nil {
		util.SourceFetchesTotal.WithLabelValues(s.name, "error").Inc()
		s.applyError(token, err)
		return err
	}

	util.SourceFetchesTotal.WithLabelValues(s.name, "success").Inc()
	s.applyResult(token, result)
	return nil
}

// begin registers a new fetch and marks the source loading. Previous results
// stay visible while the new page loads.
func (s *Source) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.snap.Status = models.StatusLoading
	s.snap.Err = ""
	return s.seq
}

// applyResult installs a fetch result if no later fetch has started.
func (s *Source) applyResult(token uint64, result models.SourcePage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.seq {
		util.StaleResponsesDiscarded.WithLabelValues(s.name).Inc()
		s.logger.Debug("Discarding stale source response",
			zap.String("source", s.name),
			zap.Uint64("token", token),
			zap.Uint64("current", s.seq))
		return
	}

	result.Status = models.StatusSucceeded
	s.snap = result
}

// applyError records a fetch failure if no later fetch has started. Failures
// are localized to this source; the peer source is untouched.
func (s *Source) applyError(token uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.seq {
		util.StaleResponsesDiscarded.WithLabelValues(s.name).Inc()
		return
	}

	s.snap.Status = models.StatusFailed
	s.snap.Err = err.Error()
}

func (s *Source) doRequest(ctx context.Context, filters models.FilterState, page, pageSize int) (models.SourcePage, error) {
	q := filters.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	for key, vals := range s.extra {
		for _, v := range vals {
			q.Set(key, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return models.SourcePage{}, fmt.Errorf("failed to build %s request: %w", s.name, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return models.SourcePage{}, fmt.Errorf("%s fetch failed: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.SourcePage{}, fmt.Errorf("%s fetch failed: status %d: %s", s.name, resp.StatusCode, body)
	}

	var payload listPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.SourcePage{}, fmt.Errorf("failed to decode %s response: %w", s.name, err)
	}

	items, err := s.mapItems(payload.Items)
	if err != nil {
		return models.SourcePage{}, fmt.Errorf("failed to map %s items: %w", s.name, err)
	}

	return models.SourcePage{
		Items: items,
		Page:  payload.Page,
		Pages: payload.Pages,
		Count: payload.Count,
	}, nil
}
