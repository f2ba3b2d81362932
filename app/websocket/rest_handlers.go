package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"KopiPos/app/apperrors"
	"KopiPos/app/models"

	"gorm.io/gorm"
)

// OrderCommands is the slice of the order service the command endpoints
// need. Declared here so this package does not import services.
type OrderCommands interface {
	CreateOrder(req models.CreateOrderRequest) (*models.Order, error)
	CompleteOrder(id uint, payment models.PaymentMethod) (*models.Order, error)
	CancelOrder(id uint) (*models.Order, error)
	AdvanceTicket(orderID uint, target models.TicketStatus) (*models.KdsTicket, error)
	GetOrderDetail(id uint) (*models.Order, error)
	ListOrders() ([]models.Order, error)
}

// CatalogReader serves the menu and material collections.
type CatalogReader interface {
	ListMenuItems() ([]models.MenuItem, error)
	GetMenuItemDetail(id uint) (*models.MenuItem, error)
	ListMaterials() ([]models.Material, error)
}

// DashboardReader serves back-office aggregates.
type DashboardReader interface {
	TodaySummary() (*models.DashboardSummary, error)
}

// RESTHandlers provides the HTTP command surface for the presentation layer,
// served on the same listener as the change feed.
type RESTHandlers struct {
	orders    OrderCommands
	catalog   CatalogReader
	dashboard DashboardReader
}

// NewRESTHandlers creates the REST handler set.
func NewRESTHandlers(orders OrderCommands, catalog CatalogReader, dashboard DashboardReader) *RESTHandlers {
	return &RESTHandlers{orders: orders, catalog: catalog, dashboard: dashboard}
}

// Register mounts all command endpoints on the mux.
func (h *RESTHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/orders", h.handleListOrders)
	mux.HandleFunc("POST /api/orders", h.handleCreateOrder)
	mux.HandleFunc("GET /api/orders/{id}", h.handleGetOrder)
	mux.HandleFunc("POST /api/orders/{id}/complete", h.handleCompleteOrder)
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.handleCancelOrder)
	mux.HandleFunc("POST /api/orders/{id}/ticket", h.handleAdvanceTicket)
	mux.HandleFunc("GET /api/menu", h.handleListMenu)
	mux.HandleFunc("GET /api/menu/{id}", h.handleGetMenuItem)
	mux.HandleFunc("GET /api/materials", h.handleListMaterials)
	mux.HandleFunc("GET /api/dashboard/today", h.handleDashboardToday)
}

func (h *RESTHandlers) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *RESTHandlers) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidation("body", "invalid JSON: %v", err))
		return
	}

	order, err := h.orders.CreateOrder(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *RESTHandlers) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.orders.GetOrderDetail(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *RESTHandlers) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.CompleteOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidation("body", "invalid JSON: %v", err))
		return
	}

	order, err := h.orders.CompleteOrder(id, req.Payment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *RESTHandlers) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.orders.CancelOrder(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *RESTHandlers) handleAdvanceTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.AdvanceTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidation("body", "invalid JSON: %v", err))
		return
	}

	ticket, err := h.orders.AdvanceTicket(id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (h *RESTHandlers) handleListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListMenuItems()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *RESTHandlers) handleGetMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.catalog.GetMenuItemDetail(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *RESTHandlers) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.catalog.ListMaterials()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (h *RESTHandlers) handleDashboardToday(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.TodaySummary()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeError(w, apperrors.NewValidation("id", "invalid id %q", raw))
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses. Stale tickets are a
// conflict signal, not a server failure.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
	case apperrors.IsInvalidTransition(err), apperrors.IsStaleTicket(err):
		status = http.StatusConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case apperrors.IsRemoteUnavailable(err):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		log.Printf("REST API: internal error: %v", err)
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
