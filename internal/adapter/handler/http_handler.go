package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/service"
	"github.com/rl1809/stockroom/internal/obs"
)

type HTTPHandler struct {
	inventory *service.InventoryService
}

// ProductHTTPRequest is the create/edit form. Every field is sent on edit,
// including unchanged ones.
type ProductHTTPRequest struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	OrderDate   string `json:"order_date,omitempty"`
	Category    string `json:"category"`
	Shelf       string `json:"shelf"`
	Count       int64  `json:"count"`
	Description string `json:"description"`
	Version     int64  `json:"version"`
}

type ErrorHTTPResponse struct {
	Error     string                   `json:"error"`
	Fields    service.ValidationErrors `json:"fields,omitempty"`
	Submitted *ProductHTTPRequest      `json:"submitted,omitempty"`
}

type CreatedHTTPResponse struct {
	ID int64 `json:"id"`
}

func NewHTTPHandler(inventory *service.InventoryService) *HTTPHandler {
	return &HTTPHandler{inventory: inventory}
}

// Routes registers the product endpoints and wraps them with request id
// and access logging.
func (h *HTTPHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /products", h.List)
	mux.HandleFunc("GET /products/report", h.Report)
	mux.HandleFunc("GET /products/{id}", h.Get)
	mux.HandleFunc("POST /products", h.Create)
	mux.HandleFunc("PUT /products/{id}", h.Update)
	mux.HandleFunc("DELETE /products/{id}", h.Delete)
	return WithRequestID(WithLogging(mux))
}

func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.inventory.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}

	views := make([]domain.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, p.View())
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *HTTPHandler) Report(w http.ResponseWriter, r *http.Request) {
	entries, err := h.inventory.ListReport(r.Context())
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.inventory.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, p.View())
}

func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, p, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	id, err := h.inventory.CreateOnce(r.Context(), r.Header.Get("Idempotency-Key"), p)
	if err != nil {
		writeServiceError(w, r, err, req)
		return
	}

	w.Header().Set("Location", "/products/"+strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusCreated, CreatedHTTPResponse{ID: id})
}

func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, p, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	if err := h.inventory.Update(r.Context(), id, p); err != nil {
		writeServiceError(w, r, err, req)
		return
	}

	updated, err := h.inventory.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, updated.View())
}

func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.inventory.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusNotFound, ErrorHTTPResponse{Error: "not found"})
		return 0, false
	}
	return id, true
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (*ProductHTTPRequest, domain.Product, bool) {
	var req ProductHTTPRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorHTTPResponse{Error: "invalid request body"})
		return nil, domain.Product{}, false
	}

	p := domain.Product{
		ID:          req.ID,
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Shelf:       req.Shelf,
		Count:       req.Count,
		Description: req.Description,
		Version:     req.Version,
	}
	if req.OrderDate != "" {
		d, err := time.Parse(time.DateOnly, req.OrderDate)
		if err != nil {
			var fields service.ValidationErrors
			errors.As(service.Validate(p), &fields)
			fields = append(fields, service.FieldError{Field: "order_date", Reason: "must be a date (YYYY-MM-DD)"})
			writeJSON(w, http.StatusUnprocessableEntity, ErrorHTTPResponse{
				Error:     service.ErrValidation.Error(),
				Fields:    fields,
				Submitted: &req,
			})
			return nil, domain.Product{}, false
		}
		p.OrderDate = d
	}
	return &req, p, true
}

// writeServiceError maps service outcomes to status codes. submitted is
// echoed back on validation failures so the form can be re-displayed.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, submitted *ProductHTTPRequest) {
	var verrs service.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorHTTPResponse{
			Error:     service.ErrValidation.Error(),
			Fields:    verrs,
			Submitted: submitted,
		})
	case errors.Is(err, service.ErrConstraintViolation):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorHTTPResponse{
			Error:     service.ErrConstraintViolation.Error(),
			Submitted: submitted,
		})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorHTTPResponse{Error: "not found"})
	case errors.Is(err, service.ErrIdentityMismatch):
		writeJSON(w, http.StatusBadRequest, ErrorHTTPResponse{Error: err.Error()})
	case errors.Is(err, service.ErrConcurrencyConflict):
		writeJSON(w, http.StatusConflict, ErrorHTTPResponse{Error: err.Error()})
	case errors.Is(err, service.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, ErrorHTTPResponse{Error: "duplicate request"})
	case errors.Is(err, service.ErrStoreUnavailable):
		obs.Logger.Error("store_unavailable", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, ErrorHTTPResponse{Error: "store unavailable"})
	default:
		obs.Logger.Error("internal_error", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorHTTPResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
