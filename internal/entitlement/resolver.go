package entitlement

import (
	"context"
	"time"

	"storefront-core/internal/models"
	"storefront-core/internal/util"

	"go.uber.org/zap"
)

// IsEntitled reports whether the order history proves a settled purchase of
// the given product. It is a pure function of its inputs: a user is entitled
// iff some paid order carries a line whose normalized product reference
// equals productID. Lines whose reference matched neither stored shape
// normalize to an empty key and can never match.
func IsEntitled(orders []models.Order, productID string) bool {
	if productID == "" {
		return false
	}

	for _, order := range orders {
		if !order.IsPaid {
			continue
		}
		for _, line := range order.Lines {
			if key := line.Product.Key(); key != "" && key == productID {
				return true
			}
		}
	}
	return false
}

// OrderSource loads a user's order history.
type OrderSource interface {
	GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error)
}

// OrderCache caches order histories between checks. Invalidation happens when
// an order-paid event arrives for the user.
type OrderCache interface {
	GetOrders(ctx context.Context, userID string) ([]models.Order, bool, error)
	SetOrders(ctx context.Context, userID string, orders []models.Order, ttl time.Duration) error
}

// Resolver answers download-entitlement questions for authenticated users. It
// loads order history through the cache-then-source path and applies the pure
// check; it performs no mutation of its own.
type Resolver struct {
	source   OrderSource
	cache    OrderCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewResolver creates an entitlement resolver. cache may be nil, in which
// case every check hits the source.
func NewResolver(source OrderSource, cache OrderCache, cacheTTL time.Duration) *Resolver {
	return &Resolver{
		source:   source,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// Check resolves whether userID may download productID. An empty userID (no
// session) is never entitled. When the order history cannot be loaded the
// user is conservatively treated as not entitled and the load error is
// returned alongside so the caller can distinguish "no" from "unknown".
func (r *Resolver) Check(ctx context.Context, userID, productID string) (bool, error) {
	ctx, span := util.StartSpan(ctx, "Resolver.Check")
	defer span.End()

	if userID == "" {
		util.EntitlementChecksTotal.WithLabelValues("unauthenticated").Inc()
		return false, nil
	}

	orders, err := r.loadOrders(ctx, userID)
	if err != nil {
		util.EntitlementChecksTotal.WithLabelValues("indeterminate").Inc()
		r.logger.Warn("Order history unavailable, treating as not entitled",
			zap.String("user_id", userID),
			zap.Error(err))
		return false, err
	}

	entitled := IsEntitled(orders, productID)
	if entitled {
		util.EntitlementChecksTotal.WithLabelValues("entitled").Inc()
	} else {
		util.EntitlementChecksTotal.WithLabelValues("not_entitled").Inc()
	}
	return entitled, nil
}

func (r *Resolver) loadOrders(ctx context.Context, userID string) ([]models.Order, error) {
	if r.cache != nil {
		orders, hit, err := r.cache.GetOrders(ctx, userID)
		if err != nil {
			r.logger.Warn("Order cache lookup failed", zap.Error(err))
		} else if hit {
			util.OrderCacheHitsTotal.WithLabelValues("hit").Inc()
			return orders, nil
		} else {
			util.OrderCacheHitsTotal.WithLabelValues("miss").Inc()
		}
	}

	orders, err := r.source.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetOrders(ctx, userID, orders, r.cacheTTL); err != nil {
			r.logger.Warn("Failed to cache order history", zap.Error(err))
		}
	}
	return orders, nil
}
