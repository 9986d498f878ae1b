package worker

import (
	"context"
	"log"

	"storefront-core/internal/broker"
	"storefront-core/internal/cart"
	"storefront-core/internal/models"
	"storefront-core/internal/util"

	"go.uber.org/zap"
)

// OrderCacheInvalidator drops a user's cached order history.
type OrderCacheInvalidator interface {
	InvalidateOrders(ctx context.Context, userID string) error
}

// OrderEventsWorker consumes settled-order events from the order service.
// When a user's payment settles, their cached order history is stale (the new
// purchase must show up in entitlement checks) and their cart is done (the
// checkout collaborator empties it).
type OrderEventsWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewOrderEventsWorker creates the worker.
func NewOrderEventsWorker(
	consumer *broker.Consumer,
	invalidator OrderCacheInvalidator,
	carts *cart.Service,
) *OrderEventsWorker {
	logger := util.GetLogger()
	eventHandler := broker.NewEventHandler()

	eventHandler.OnOrderPaid(func(ctx context.Context, event *models.OrderPaidEvent) error {
		logger.Info("Order paid, refreshing user state",
			zap.String("order_id", event.OrderID),
			zap.String("user_id", event.UserID))

		if err := invalidator.InvalidateOrders(ctx, event.UserID); err != nil {
			logger.Error("Failed to invalidate order cache",
				zap.String("user_id", event.UserID),
				zap.Error(err))
		}

		mgr, err := carts.ForUser(ctx, event.UserID)
		if err != nil {
			return err
		}
		if err := mgr.Clear(ctx); err != nil {
			logger.Error("Failed to clear cart after checkout",
				zap.String("user_id", event.UserID),
				zap.Error(err))
			return err
		}
		return nil
	})

	return &OrderEventsWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       logger,
	}
}

// Start starts the worker
func (w *OrderEventsWorker) Start(ctx context.Context) error {
	log.Println("Starting order events worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OrderEventsWorker) Stop() error {
	log.Println("Stopping order events worker...")
	return w.consumer.Close()
}
