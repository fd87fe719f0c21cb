package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order status values. "processing" and "delivered" are declared in the
// schema for future event sources but no current path writes them.
const (
	OrderStatusPending       = "pending"
	OrderStatusProcessing    = "processing"
	OrderStatusShipped       = "shipped"
	OrderStatusDelivered     = "delivered"
	OrderStatusPaid          = "paid"
	OrderStatusPaymentFailed = "payment_failed"
)

// ValidSizes is the garment size enumeration accepted on cart lines.
var ValidSizes = map[string]bool{
	"S": true, "M": true, "L": true, "XL": true, "XXL": true,
}

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID                    string    `bun:"id,pk" json:"id"`
	UserID                string    `bun:"user_id,notnull" json:"user_id"`
	TotalAmount           float64   `bun:"total_amount,notnull" json:"total_amount"`
	Status                string    `bun:"status,notnull" json:"status"`
	ShippingAddress       string    `bun:"shipping_address" json:"-"`
	TrackingNumber        string    `bun:"tracking_number" json:"tracking_number,omitempty"`
	TrackingURL           string    `bun:"tracking_url" json:"tracking_url,omitempty"`
	PrintfulOrderID       string    `bun:"printful_order_id" json:"printful_order_id,omitempty"`
	StripePaymentIntentID string    `bun:"stripe_payment_intent_id" json:"stripe_payment_intent_id,omitempty"`
	CreatedAt             time.Time `bun:"created_at,notnull" json:"created_at"`
}

// OrderItem is created once alongside its Order and is immutable
// thereafter. PriceAtPurchase is a snapshot, independent of later product
// price changes.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID              string  `bun:"id,pk" json:"id"`
	OrderID         string  `bun:"order_id,notnull" json:"order_id"`
	ProductID       string  `bun:"product_id" json:"product_id"`
	DesignID        string  `bun:"design_id" json:"design_id,omitempty"`
	CustomDesignURL string  `bun:"custom_design_url" json:"custom_design_url,omitempty"`
	Quantity        int     `bun:"quantity,notnull" json:"quantity"`
	Size            string  `bun:"size,notnull" json:"size"`
	Color           string  `bun:"color,notnull" json:"color"`
	PriceAtPurchase float64 `bun:"price_at_purchase,notnull" json:"price_at_purchase"`
}

type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Email      string `json:"email"`
}

// CartLine is one line of a checkout cart as submitted by the client.
type CartLine struct {
	ProductID       string  `json:"productId"`
	DesignID        string  `json:"designId,omitempty"`
	CustomDesignURL string  `json:"customDesignUrl,omitempty"`
	Quantity        int     `json:"quantity"`
	Size            string  `json:"size"`
	Color           string  `json:"color"`
	Price           float64 `json:"price,omitempty"`
}

type OrderRequest struct {
	ID                    string           `json:"id,omitempty"`
	UserID                string           `json:"user_id"`
	TotalAmount           float64          `json:"total_amount"`
	Items                 []CartLine       `json:"items"`
	ShippingAddress       *ShippingAddress `json:"shipping_address,omitempty"`
	StripePaymentIntentID string           `json:"stripe_payment_intent_id,omitempty"`
	IdempotencyKey        string           `json:"idempotency_key,omitempty"`
}

type OrderResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

// OrderWithItems joins an order with its line items and the deserialized
// shipping address for read endpoints.
type OrderWithItems struct {
	Order
	Items           []OrderItem      `json:"items"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
}
