package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RecommendedUPIApps is returned with UPI orders so checkout can offer them
// first.
var RecommendedUPIApps = []string{"google_pay", "phonepe", "paytm"}

// OrderCreator is the gateway surface the handler needs.
type OrderCreator interface {
	CreateOrder(ctx context.Context, order OrderRequest) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type Handler struct {
	gateway OrderCreator
	logger  *zap.Logger
	now     func() time.Time
}

func NewHandler(gateway OrderCreator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{gateway: gateway, logger: logger, now: time.Now}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/create-order", h.CreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/verify-payment", h.VerifyPayment).Methods(http.MethodPost)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
}

type createOrderRequest struct {
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	VPA           string `json:"vpa"`
}

type createOrderResponse struct {
	ID              string   `json:"id"`
	Amount          int64    `json:"amount"`
	Currency        string   `json:"currency"`
	RecommendedApps []string `json:"recommendedApps,omitempty"`
}

type errorResponse struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CreateOrder expects the amount in paise.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if req.Amount < 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid amount (paise)"})
		return
	}

	method := req.PaymentMethod
	if method == "" {
		method = "general"
	}
	order := OrderRequest{
		Amount:   req.Amount,
		Currency: "INR",
		Receipt:  receiptID(h.now()),
		Notes:    map[string]string{"payment_method": method},
	}
	if req.PaymentMethod == "upi" {
		order.Method = "upi"
		order.UPI = &UPIOptions{Flow: "collect", VPA: req.VPA}
	}

	created, err := h.gateway.CreateOrder(r.Context(), order)
	if err != nil {
		h.logger.Error("order creation failed", zap.Error(err))
		details := err.Error()
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Description != "" {
			details = apiErr.Description
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Error creating order", Details: details})
		return
	}

	h.logger.Info("order created",
		zap.String("orderId", created.ID),
		zap.Int64("amount", created.Amount),
		zap.String("method", method),
	)

	resp := createOrderResponse{ID: created.ID, Amount: created.Amount, Currency: created.Currency}
	if req.PaymentMethod == "upi" {
		resp.RecommendedApps = RecommendedUPIApps
	}
	writeJSON(w, http.StatusOK, resp)
}

type verifyRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type verifyResponse struct {
	Success   bool   `json:"success"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	failed := false

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: &failed, Error: "Invalid request body"})
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: &failed, Error: "Missing verification params"})
		return
	}

	if !h.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		h.logger.Warn("payment signature mismatch", zap.String("orderId", req.OrderID))
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: &failed, Error: "Invalid signature"})
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{Success: true, OrderID: req.OrderID, PaymentID: req.PaymentID})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "OK",
		"at":     h.now().UTC().Format(time.RFC3339Nano),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
