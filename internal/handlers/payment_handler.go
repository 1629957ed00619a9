package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"event-ticketing/internal/services"
	"event-ticketing/internal/services/gateway/mpesa"
	"event-ticketing/internal/status"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type PaymentHandler struct {
	app            *pocketbase.PocketBase
	paymentService *services.PaymentService
	queryService   *services.QueryService
}

func NewPaymentHandler(app *pocketbase.PocketBase, paymentService *services.PaymentService, queryService *services.QueryService) *PaymentHandler {
	return &PaymentHandler{
		app:            app,
		paymentService: paymentService,
		queryService:   queryService,
	}
}

// InitiateMpesa - Prompt the buyer's phone to pay for a booked ticket
func (h *PaymentHandler) InitiateMpesa(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		TicketID    string `json:"ticket_id"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.TicketID == "" || req.PhoneNumber == "" {
		return apis.NewBadRequestError("ticket_id and phone_number are required", nil)
	}

	tr, err := h.paymentService.InitiateMobileMoney(e.Request.Context(), req.TicketID, e.Auth.Id, req.PhoneNumber)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrTicketNotFound):
			return apis.NewNotFoundError("Ticket not found", nil)
		case errors.Is(err, status.ErrNotAuthorized):
			return apis.NewForbiddenError("Ticket belongs to another user", nil)
		default:
			slog.Error("h.paymentService.InitiateMobileMoney()", "ticket", req.TicketID, "error", err)
			return apis.NewInternalServerError("Payment initiation failed", nil)
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message":        "Payment initiated, check your phone",
		"transaction_id": tr.TransactionID,
	})
}

// MpesaCallback - Webhook target for asynchronous payment results.
// Always acknowledges with 200 so the provider stops redelivering;
// processing errors are logged and resolved by later deliveries or
// the stale-pending sweeper.
func (h *PaymentHandler) MpesaCallback(e *core.RequestEvent) error {
	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		slog.Error("read callback body", "error", err)
		return e.JSON(http.StatusOK, map[string]string{"message": "Callback received"})
	}

	cb, err := mpesa.ParseCallback(body)
	if err != nil {
		slog.Error("parse callback", "error", err, "body", string(body))
		return e.JSON(http.StatusOK, map[string]string{"message": "Callback received"})
	}

	if err := h.paymentService.Reconcile(e.Request.Context(), cb); err != nil {
		slog.Error("h.paymentService.Reconcile()", "correlation_id", cb.CheckoutRequestID, "error", err)
	}

	return e.JSON(http.StatusOK, map[string]string{"message": "Callback received"})
}

// GetMyTransactions - Get the authenticated buyer's payment history
func (h *PaymentHandler) GetMyTransactions(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	transactions, err := h.queryService.UserTransactions(e.Request.Context(), e.Auth.Id)
	if err != nil {
		slog.Error("h.queryService.UserTransactions()", "user", e.Auth.Id, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	return e.JSON(http.StatusOK, transactions)
}
