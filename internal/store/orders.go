package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/uptrace/bun"

	"storefront/internal/models"
)

// CreateOrderWithItems persists the order and its line items as one
// transaction: either every row lands or none do.
func (d *DB) CreateOrderWithItems(ctx context.Context, order models.Order, items []models.OrderItem) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&order).Exec(ctx); err != nil {
			return err
		}
		for i := range items {
			if _, err := tx.NewInsert().Model(&items[i]).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (d *DB) GetOrderByPrintfulID(ctx context.Context, printfulOrderID string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("printful_order_id = ?", printfulOrderID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// SetPrintfulOrderID records the vendor order id in a write independent of
// the creation transaction.
func (d *DB) SetPrintfulOrderID(ctx context.Context, orderID, printfulOrderID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("printful_order_id = ?", printfulOrderID).
		Where("id = ?", orderID).
		Exec(ctx)
	return err
}

// UpdateStatusByPaymentIntent overwrites the status of the order carrying
// the given payment-intent id. Returns the number of rows touched; zero
// means no order matched.
func (d *DB) UpdateStatusByPaymentIntent(ctx context.Context, paymentIntentID, status string) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", status).
		Where("stripe_payment_intent_id = ?", paymentIntentID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkShippedByPrintfulID sets status to shipped plus both tracking fields
// for the order owning the vendor order id. Returns rows touched.
func (d *DB) MarkShippedByPrintfulID(ctx context.Context, printfulOrderID, trackingNumber, trackingURL string) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", models.OrderStatusShipped).
		Set("tracking_number = ?", trackingNumber).
		Set("tracking_url = ?", trackingURL).
		Where("printful_order_id = ?", printfulOrderID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetOrdersWithItemsByUserID returns a user's orders, newest first, each
// with its line items attached and the shipping address deserialized.
func (d *DB) GetOrdersWithItemsByUserID(ctx context.Context, userID string) ([]models.OrderWithItems, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return d.attachItems(ctx, orders)
}

// ListOrdersWithItems returns every order, newest first (admin view).
func (d *DB) ListOrdersWithItems(ctx context.Context) ([]models.OrderWithItems, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return d.attachItems(ctx, orders)
}

func (d *DB) attachItems(ctx context.Context, orders []models.Order) ([]models.OrderWithItems, error) {
	if len(orders) == 0 {
		return []models.OrderWithItems{}, nil
	}

	orderIDs := make([]string, len(orders))
	for i, order := range orders {
		orderIDs[i] = order.ID
	}

	var items []models.OrderItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("order_id IN (?)", bun.In(orderIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	itemsByOrder := make(map[string][]models.OrderItem)
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	result := make([]models.OrderWithItems, len(orders))
	for i, order := range orders {
		result[i] = models.OrderWithItems{
			Order: order,
			Items: itemsByOrder[order.ID],
		}
		if result[i].Items == nil {
			result[i].Items = []models.OrderItem{}
		}
		if order.ShippingAddress != "" {
			var addr models.ShippingAddress
			if err := json.Unmarshal([]byte(order.ShippingAddress), &addr); err == nil {
				result[i].ShippingAddress = &addr
			}
		}
	}

	return result, nil
}
