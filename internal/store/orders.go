package store

import (
	"context"
	"fmt"

	"storefront-core/internal/models"

	"github.com/jmoiron/sqlx"
)

// orderLineRow carries the per-line columns joined with their owning order.
type orderLineRow struct {
	OrderID    string            `db:"order_id"`
	ProductRef models.ProductRef `db:"product_id"`
	Quantity   int               `db:"quantity"`
	Price      int64             `db:"price"`
}

// GetOrdersByUserID retrieves the user's orders with their line items, newest
// first. The product_id column holds the reference exactly as the original
// records stored it (bare identity or embedded record); normalization happens
// in ProductRef, not here.
func (s *Store) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT id, user_id, is_paid, ordered_at FROM orders WHERE user_id = $1 ORDER BY ordered_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	if len(orders) == 0 {
		return []models.Order{}, nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*models.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	query, args, err := sqlx.In("SELECT order_id, product_id, quantity, price FROM order_items WHERE order_id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var lines []orderLineRow
	if err := s.db.SelectContext(ctx, &lines, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	for _, line := range lines {
		order := byID[line.OrderID]
		if order == nil {
			continue
		}
		order.Lines = append(order.Lines, models.OrderLine{
			Product:  line.ProductRef,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
	}

	return orders, nil
}
