package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"storefront/internal/auth"
)

// Routes builds the full HTTP surface. Webhook endpoints stay outside the
// auth middleware since Stripe and Printful authenticate by signature and
// payload, not bearer tokens.
func (h *Handler) Routes(adminChecker auth.AdminChecker) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", h.Health)

	r.Post("/api/webhooks/stripe", h.StripeWebhook)
	r.Post("/api/webhooks/printful", h.PrintfulWebhook)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())

		r.Get("/api/products", h.ListProducts)
		r.Post("/api/users", h.SyncUser)
		r.Get("/api/designs", h.ListDesigns)
		r.Post("/api/designs", h.CreateDesign)
		r.Post("/api/create-payment-intent", h.CreatePaymentIntent)
		r.Post("/api/orders", h.CreateOrder)
		r.Get("/api/orders/{userId}", h.GetOrdersByUser)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(adminChecker))

			r.Post("/api/products", h.CreateProduct)
			r.Delete("/api/designs/{designId}", h.DeleteDesign)
			r.Get("/api/admin/orders", h.ListAllOrders)
			r.Get("/api/admin/users", h.ListUsers)
		})
	})

	return r
}
