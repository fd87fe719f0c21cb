package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/internal/design"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/order"
	"storefront/internal/store"
	"storefront/internal/user"
)

// Handler maps HTTP requests onto the services. It owns no business
// logic; everything interesting happens one layer down.
type Handler struct {
	Orders  *order.Service
	Users   *user.Service
	Designs *design.Service
	Store   *store.DB
	Logger  *logger.Logger
}

func NewHandler(orders *order.Service, users *user.Service, designs *design.Service, db *store.DB, log *logger.Logger) *Handler {
	return &Handler{
		Orders:  orders,
		Users:   users,
		Designs: designs,
		Store:   db,
		Logger:  log,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to encode response: %v", err))
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if err := h.Store.HealthCheck(r.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  dbStatus,
	})
}

// ---------------- PRODUCTS ----------------

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.ListProducts(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListProducts: %v", err))
		http.Error(w, "Failed to list products", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if product.Name == "" || product.Price <= 0 || product.BaseImageURL == "" {
		http.Error(w, "Product requires name, positive price and base image", http.StatusBadRequest)
		return
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	product.CreatedAt = time.Now()

	if err := h.Store.CreateProduct(r.Context(), product); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateProduct: %v", err))
		http.Error(w, "Failed to create product", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, product)
}

// ---------------- USERS ----------------

func (h *Handler) SyncUser(w http.ResponseWriter, r *http.Request) {
	var req models.UserSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("SyncUser: id=%s", req.ID))

	synced, err := h.Users.Sync(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SyncUser: %v", err))
		http.Error(w, "Failed to sync user", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, synced)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListUsers: %v", err))
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// ---------------- DESIGNS ----------------

func (h *Handler) ListDesigns(w http.ResponseWriter, r *http.Request) {
	designs, err := h.Designs.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListDesigns: %v", err))
		http.Error(w, "Failed to list designs", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, designs)
}

func (h *Handler) CreateDesign(w http.ResponseWriter, r *http.Request) {
	var req models.DesignCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.Designs.Create(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateDesign: %v", err))
		http.Error(w, "Failed to create design: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) DeleteDesign(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "designId")
	h.Logger.Info("API", fmt.Sprintf("DeleteDesign: designId=%s", designID))

	err := h.Designs.Delete(r.Context(), designID)
	switch {
	case errors.Is(err, design.ErrNotFound):
		http.Error(w, "Design not found", http.StatusNotFound)
	case errors.Is(err, design.ErrSeedProtected):
		http.Error(w, "Seed designs cannot be deleted", http.StatusForbidden)
	case err != nil:
		h.Logger.Error("API", fmt.Sprintf("DeleteDesign: %v", err))
		http.Error(w, "Failed to delete design", http.StatusInternalServerError)
	default:
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Design deleted"})
	}
}

// ---------------- ORDERS ----------------

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.Orders.PlaceOrder(r.Context(), req)
	if err != nil {
		if errors.Is(err, order.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: %v", err))
		http.Error(w, "Order creation failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetOrdersByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	orders, err := h.Orders.GetOrdersByUser(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrdersByUser: %v", err))
		http.Error(w, "Failed to retrieve orders", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListAllOrders(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAllOrders: %v", err))
		http.Error(w, "Failed to retrieve orders", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}
