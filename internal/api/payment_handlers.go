package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"storefront/internal/models"
	"storefront/internal/order"
	"storefront/internal/utils"
)

func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	resp, err := h.Orders.CreatePaymentIntent(r.Context(), req)
	if err != nil {
		if errors.Is(err, order.ErrValidation) {
			h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid payment request", err.Error()))
			return
		}
		h.Logger.Error("PAYMENT", fmt.Sprintf("CreatePaymentIntent: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to create payment intent", "payment gateway error"))
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// StripeWebhook verifies the signature before touching any order state;
// the raw body must be read untouched for verification to succeed.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if err := h.Orders.HandleStripeWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		var webhookErr *order.WebhookError
		if errors.As(err, &webhookErr) {
			h.Logger.Error("WEBHOOK", fmt.Sprintf("Stripe webhook rejected [%s]: %v", webhookErr.Category, webhookErr.InternalError))
			http.Error(w, webhookErr.PublicError, webhookErr.StatusCode)
			return
		}
		h.Logger.Error("WEBHOOK", fmt.Sprintf("Stripe webhook processing failed: %v", err))
		http.Error(w, "Webhook processing failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// PrintfulWebhook acknowledges every well-formed event, including types
// we don't handle and shipments for orders we don't know about.
func (h *Handler) PrintfulWebhook(w http.ResponseWriter, r *http.Request) {
	var event models.FulfillmentEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Orders.HandleFulfillmentEvent(r.Context(), event); err != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("Printful webhook processing failed: %v", err))
		http.Error(w, "Webhook processing failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
