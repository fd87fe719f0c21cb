package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"

	"storefront/internal/logger"
	"storefront/internal/models"
)

// ErrValidation marks failures rejected before any external call or write.
var ErrValidation = errors.New("validation failed")

// Store is the slice of the relational store the workflow needs.
type Store interface {
	CreateOrderWithItems(ctx context.Context, order models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderByPrintfulID(ctx context.Context, printfulOrderID string) (*models.Order, error)
	SetPrintfulOrderID(ctx context.Context, orderID, printfulOrderID string) error
	UpdateStatusByPaymentIntent(ctx context.Context, paymentIntentID, status string) (int64, error)
	MarkShippedByPrintfulID(ctx context.Context, printfulOrderID, trackingNumber, trackingURL string) (int64, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetOrdersWithItemsByUserID(ctx context.Context, userID string) ([]models.OrderWithItems, error)
	ListOrdersWithItems(ctx context.Context) ([]models.OrderWithItems, error)
}

// PaymentGateway wraps payment-intent issuance and webhook verification.
type PaymentGateway interface {
	CreatePaymentIntent(req models.PaymentIntentRequest) (*models.PaymentIntentResponse, error)
	VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error)
}

// Fulfillment forwards a committed order to the print vendor.
type Fulfillment interface {
	CreateOrder(ctx context.Context, address *models.ShippingAddress, items []models.OrderItem) (string, error)
}

// Notifier sends fire-and-forget emails on workflow milestones.
type Notifier interface {
	SendOrderConfirmation(user *models.User, orderID string, amount float64) error
	SendOrderShipped(user *models.User, orderID, trackingNumber, trackingURL string) error
}

// EventPublisher streams order lifecycle events. Failures are logged and
// never unwind the order.
type EventPublisher interface {
	PublishOrderCreated(order models.Order) error
	PublishOrderPaid(paymentIntentID string) error
	PublishOrderPaymentFailed(paymentIntentID string) error
	PublishOrderShipped(orderID, trackingNumber string) error
}

// IdempotencyClaimer claims a client-supplied idempotency key. When the
// key was already claimed, the previously recorded order id is returned.
type IdempotencyClaimer interface {
	Claim(ctx context.Context, key, orderID string) (claimed bool, existingOrderID string, err error)
	Release(ctx context.Context, key string) error
}

// Service orchestrates order creation and webhook reconciliation over the
// store and the three external adapters.
type Service struct {
	Store       Store
	Gateway     PaymentGateway
	Fulfillment Fulfillment
	Notifier    Notifier
	Events      EventPublisher
	Idempotency IdempotencyClaimer

	FallbackUnitPrice float64
	Logger            *logger.Logger

	// dispatch runs post-commit best-effort work. The default detaches a
	// goroutine; tests inject a synchronous dispatcher.
	dispatch func(task func())
}

func NewService(store Store, gateway PaymentGateway, fulfillment Fulfillment, notifier Notifier, events EventPublisher, idempotency IdempotencyClaimer, fallbackUnitPrice float64, log *logger.Logger) *Service {
	return &Service{
		Store:             store,
		Gateway:           gateway,
		Fulfillment:       fulfillment,
		Notifier:          notifier,
		Events:            events,
		Idempotency:       idempotency,
		FallbackUnitPrice: fallbackUnitPrice,
		Logger:            log,
		dispatch:          func(task func()) { go task() },
	}
}

// SetDispatcher overrides how post-commit tasks are run.
func (s *Service) SetDispatcher(dispatch func(task func())) {
	s.dispatch = dispatch
}

func validateCartLines(items []models.CartLine) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	for i, line := range items {
		if line.ProductID == "" {
			return fmt.Errorf("%w: item %d is missing a product reference", ErrValidation, i)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("%w: item %d has quantity %d", ErrValidation, i, line.Quantity)
		}
		if !models.ValidSizes[line.Size] {
			return fmt.Errorf("%w: item %d has invalid size %q", ErrValidation, i, line.Size)
		}
		if line.Color == "" {
			return fmt.Errorf("%w: item %d is missing a color", ErrValidation, i)
		}
	}
	return nil
}

// PlaceOrder creates exactly one durable order plus one item per cart line
// as a single atomic unit, then forwards it to fulfillment and triggers
// the confirmation email, both best-effort.
func (s *Service) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResponse, error) {
	if err := validateCartLines(req.Items); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: order has no user", ErrValidation)
	}

	orderID := req.ID
	if orderID == "" {
		orderID = uuid.NewString()
	}

	if req.IdempotencyKey != "" && s.Idempotency != nil {
		claimed, existingID, err := s.Idempotency.Claim(ctx, req.IdempotencyKey, orderID)
		if err != nil {
			s.Logger.Warn("ORDER", fmt.Sprintf("Idempotency claim failed for key %s: %v", req.IdempotencyKey, err))
		} else if !claimed {
			s.Logger.Info("ORDER", fmt.Sprintf("Duplicate submission for key %s, returning order %s", req.IdempotencyKey, existingID))
			return &models.OrderResponse{Message: "Order created", OrderID: existingID}, nil
		}
	}

	status := models.OrderStatusPending
	if req.StripePaymentIntentID != "" {
		status = models.OrderStatusPaid
	}

	var addressJSON string
	if req.ShippingAddress != nil {
		raw, err := json.Marshal(req.ShippingAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize shipping address: %w", err)
		}
		addressJSON = string(raw)
	}

	order := models.Order{
		ID:                    orderID,
		UserID:                req.UserID,
		TotalAmount:           req.TotalAmount,
		Status:                status,
		ShippingAddress:       addressJSON,
		StripePaymentIntentID: req.StripePaymentIntentID,
		CreatedAt:             time.Now(),
	}

	items := make([]models.OrderItem, len(req.Items))
	for i, line := range req.Items {
		price := line.Price
		if price == 0 {
			price = s.FallbackUnitPrice
		}
		items[i] = models.OrderItem{
			ID:              uuid.NewString(),
			OrderID:         orderID,
			ProductID:       line.ProductID,
			DesignID:        line.DesignID,
			CustomDesignURL: line.CustomDesignURL,
			Quantity:        line.Quantity,
			Size:            line.Size,
			Color:           line.Color,
			PriceAtPurchase: price,
		}
	}

	if err := s.Store.CreateOrderWithItems(ctx, order, items); err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("Failed to create order %s: %v", orderID, err))
		if req.IdempotencyKey != "" && s.Idempotency != nil {
			if relErr := s.Idempotency.Release(ctx, req.IdempotencyKey); relErr != nil {
				s.Logger.Warn("ORDER", fmt.Sprintf("Failed to release idempotency key %s: %v", req.IdempotencyKey, relErr))
			}
		}
		return nil, fmt.Errorf("order creation failed: %w", err)
	}
	s.Logger.LogOrder("CREATE", orderID, fmt.Sprintf("order committed with status %s, %d items", status, len(items)))

	// Everything past the commit is best-effort: failures are logged and
	// never unwind the order or surface to the caller.
	shippingAddress := req.ShippingAddress
	s.dispatch(func() {
		s.afterCommit(order, items, shippingAddress)
	})

	return &models.OrderResponse{Message: "Order created", OrderID: orderID}, nil
}

func (s *Service) afterCommit(order models.Order, items []models.OrderItem, address *models.ShippingAddress) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if address != nil && s.Fulfillment != nil {
		vendorOrderID, err := s.Fulfillment.CreateOrder(ctx, address, items)
		if err != nil {
			s.Logger.Error("FULFILLMENT", fmt.Sprintf("Printful order creation failed for order %s: %v", order.ID, err))
		} else if vendorOrderID != "" {
			if err := s.Store.SetPrintfulOrderID(ctx, order.ID, vendorOrderID); err != nil {
				s.Logger.Error("FULFILLMENT", fmt.Sprintf("Failed to record Printful order id %s on order %s: %v", vendorOrderID, order.ID, err))
			} else {
				s.Logger.Info("FULFILLMENT", fmt.Sprintf("Printful order %s created for order %s", vendorOrderID, order.ID))
			}
		}
	}

	user, err := s.Store.GetUserByID(ctx, order.UserID)
	if err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("Failed to look up user %s for order %s: %v", order.UserID, order.ID, err))
	} else if user != nil {
		if err := s.Notifier.SendOrderConfirmation(user, order.ID, order.TotalAmount); err != nil {
			s.Logger.Error("MAIL", fmt.Sprintf("Order confirmation for %s failed: %v", order.ID, err))
		}
	}

	if s.Events != nil {
		if err := s.Events.PublishOrderCreated(order); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish order created event for %s: %v", order.ID, err))
		}
	}
}

// GetOrdersByUser returns the user's orders with items attached.
func (s *Service) GetOrdersByUser(ctx context.Context, userID string) ([]models.OrderWithItems, error) {
	return s.Store.GetOrdersWithItemsByUserID(ctx, userID)
}

// ListAllOrders is the admin view across users.
func (s *Service) ListAllOrders(ctx context.Context) ([]models.OrderWithItems, error) {
	return s.Store.ListOrdersWithItems(ctx)
}

// CreatePaymentIntent validates and forwards payment-intent issuance.
func (s *Service) CreatePaymentIntent(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return s.Gateway.CreatePaymentIntent(req)
}

// HandleStripeWebhook verifies and reconciles a payment event onto order
// state. Events with no matching order are logged no-ops.
func (s *Service) HandleStripeWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := s.Gateway.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return err
	}

	s.Logger.Info("WEBHOOK", fmt.Sprintf("Processing Stripe event: %s", event.Type))

	switch event.Type {
	case "payment_intent.succeeded":
		return s.reconcilePaymentEvent(ctx, event.Data.Raw, models.OrderStatusPaid)
	case "payment_intent.payment_failed":
		return s.reconcilePaymentEvent(ctx, event.Data.Raw, models.OrderStatusPaymentFailed)
	default:
		s.Logger.Info("WEBHOOK", fmt.Sprintf("Unhandled Stripe event type: %s", event.Type))
		return nil
	}
}

func (s *Service) reconcilePaymentEvent(ctx context.Context, raw json.RawMessage, status string) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		s.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to unmarshal payment intent: %v", err))
		return &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid event data",
			InternalError: fmt.Sprintf("failed to unmarshal payment intent: %v", err),
			OriginalErr:   err,
		}
	}

	rows, err := s.Store.UpdateStatusByPaymentIntent(ctx, intent.ID, status)
	if err != nil {
		s.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to update order status for intent %s: %v", intent.ID, err))
		return &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Failed to process payment event",
			InternalError: fmt.Sprintf("failed to update order status for intent %s: %v", intent.ID, err),
			OriginalErr:   err,
		}
	}

	if rows == 0 {
		// Acknowledged so the sender stops retrying an event that can
		// never find a match.
		s.Logger.Info("WEBHOOK", fmt.Sprintf("No order matches payment intent %s, ignoring", intent.ID))
		return nil
	}

	s.Logger.Info("WEBHOOK", fmt.Sprintf("Order for intent %s set to %s", intent.ID, status))

	if s.Events != nil {
		s.dispatch(func() {
			var err error
			if status == models.OrderStatusPaid {
				err = s.Events.PublishOrderPaid(intent.ID)
			} else {
				err = s.Events.PublishOrderPaymentFailed(intent.ID)
			}
			if err != nil {
				s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish payment event for intent %s: %v", intent.ID, err))
			}
		})
	}

	return nil
}

// HandleFulfillmentEvent reconciles a Printful webhook onto order state.
// Unrecognized event types are acknowledged and ignored.
func (s *Service) HandleFulfillmentEvent(ctx context.Context, event models.FulfillmentEvent) error {
	if event.Type != models.FulfillmentEventPackageShipped {
		s.Logger.Info("WEBHOOK", fmt.Sprintf("Ignoring Printful event type: %s", event.Type))
		return nil
	}

	printfulOrderID := fmt.Sprintf("%d", event.Data.Order.ID)
	tracking := event.Data.Shipment

	rows, err := s.Store.MarkShippedByPrintfulID(ctx, printfulOrderID, tracking.TrackingNumber, tracking.TrackingURL)
	if err != nil {
		s.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to mark Printful order %s shipped: %v", printfulOrderID, err))
		return fmt.Errorf("failed to mark order shipped: %w", err)
	}

	if rows == 0 {
		s.Logger.Info("WEBHOOK", fmt.Sprintf("No order matches Printful order %s, ignoring", printfulOrderID))
		return nil
	}

	s.Logger.Info("WEBHOOK", fmt.Sprintf("Printful order %s marked shipped, tracking %s", printfulOrderID, tracking.TrackingNumber))

	order, err := s.Store.GetOrderByPrintfulID(ctx, printfulOrderID)
	if err != nil || order == nil {
		s.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to reload order for Printful id %s: %v", printfulOrderID, err))
		return nil
	}

	orderID := order.ID
	userID := order.UserID
	s.dispatch(func() {
		taskCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		user, err := s.Store.GetUserByID(taskCtx, userID)
		if err != nil {
			s.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to look up user %s for shipped order %s: %v", userID, orderID, err))
		} else if user != nil {
			if err := s.Notifier.SendOrderShipped(user, orderID, tracking.TrackingNumber, tracking.TrackingURL); err != nil {
				s.Logger.Error("MAIL", fmt.Sprintf("Shipment notice for order %s failed: %v", orderID, err))
			}
		}

		if s.Events != nil {
			if err := s.Events.PublishOrderShipped(orderID, tracking.TrackingNumber); err != nil {
				s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish shipped event for %s: %v", orderID, err))
			}
		}
	})

	return nil
}
