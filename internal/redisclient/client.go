package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-core/internal/models"

	"github.com/go-redis/redis/v8"
)

// Client wraps the Redis connection used for cart/wishlist persistence and
// the order-history cache. Cart and wishlist live in one hash per user keyed
// by product identity, which makes per-item writes and deletes single
// commands.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

func wishlistKey(userID string) string {
	return fmt.Sprintf("wishlist:%s", userID)
}

func ordersKey(userID string) string {
	return fmt.Sprintf("orders:%s", userID)
}

// SaveCartItem writes one cart row, creating or replacing it.
func (c *Client) SaveCartItem(ctx context.Context, userID string, item models.CartItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal cart item: %w", err)
	}

	if err := c.rdb.HSet(ctx, cartKey(userID), item.ProductID, data).Err(); err != nil {
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return nil
}

// DeleteCartItem removes one cart row.
func (c *Client) DeleteCartItem(ctx context.Context, userID, productID string) error {
	if err := c.rdb.HDel(ctx, cartKey(userID), productID).Err(); err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// ClearCart drops the whole cart hash.
func (c *Client) ClearCart(ctx context.Context, userID string) error {
	if err := c.rdb.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// LoadCart reads all cart rows for the user. Rows that no longer decode are
// skipped rather than failing the load.
func (c *Client) LoadCart(ctx context.Context, userID string) ([]models.CartItem, error) {
	fields, err := c.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	items := make([]models.CartItem, 0, len(fields))
	for _, raw := range fields {
		var item models.CartItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// SaveWishlistItem writes one wishlist entry.
func (c *Client) SaveWishlistItem(ctx context.Context, userID string, item models.WishlistItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal wishlist item: %w", err)
	}

	if err := c.rdb.HSet(ctx, wishlistKey(userID), item.ProductID, data).Err(); err != nil {
		return fmt.Errorf("failed to save wishlist item: %w", err)
	}
	return nil
}

// DeleteWishlistItem removes one wishlist entry.
func (c *Client) DeleteWishlistItem(ctx context.Context, userID, productID string) error {
	if err := c.rdb.HDel(ctx, wishlistKey(userID), productID).Err(); err != nil {
		return fmt.Errorf("failed to delete wishlist item: %w", err)
	}
	return nil
}

// LoadWishlist reads the user's wishlist entries.
func (c *Client) LoadWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	fields, err := c.rdb.HGetAll(ctx, wishlistKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}

	items := make([]models.WishlistItem, 0, len(fields))
	for _, raw := range fields {
		var item models.WishlistItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// GetOrders returns the cached order history for the user. The second return
// value reports whether the cache held an entry.
func (c *Client) GetOrders(ctx context.Context, userID string) ([]models.Order, bool, error) {
	raw, err := c.rdb.Get(ctx, ordersKey(userID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read order cache: %w", err)
	}

	var orders []models.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached orders: %w", err)
	}
	return orders, true, nil
}

// SetOrders caches the user's order history with a TTL.
func (c *Client) SetOrders(ctx context.Context, userID string, orders []models.Order, ttl time.Duration) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}
	return c.rdb.Set(ctx, ordersKey(userID), data, ttl).Err()
}

// InvalidateOrders drops the cached order history so the next entitlement
// check reloads from the source.
func (c *Client) InvalidateOrders(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, ordersKey(userID)).Err()
}
