package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"event-ticketing/internal/services"
	"event-ticketing/internal/status"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type BookingHandler struct {
	app            *pocketbase.PocketBase
	bookingService *services.BookingService
	queryService   *services.QueryService
}

func NewBookingHandler(app *pocketbase.PocketBase, bookingService *services.BookingService, queryService *services.QueryService) *BookingHandler {
	return &BookingHandler{
		app:            app,
		bookingService: bookingService,
		queryService:   queryService,
	}
}

// BookTicket - Reserve inventory and create a paid-direct ticket
func (h *BookingHandler) BookTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	eventID := e.Request.PathValue("eventId")
	ctx := e.Request.Context()

	ticket, err := h.bookingService.BookDirect(ctx, eventID, e.Auth.Id, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrEventNotFound):
			return apis.NewNotFoundError("Event not found", nil)
		case errors.Is(err, status.ErrInsufficientInventory):
			return apis.NewBadRequestError("Not enough tickets available", nil)
		case errors.Is(err, status.ErrEventNotActive), errors.Is(err, status.ErrInvalidQuantity):
			return apis.NewBadRequestError(err.Error(), nil)
		default:
			slog.Error("h.bookingService.BookDirect()", "event", eventID, "error", err)
			return apis.NewInternalServerError("internal error", nil)
		}
	}

	return e.JSON(http.StatusCreated, ticket)
}

// GetMyTickets - Get the authenticated buyer's tickets
func (h *BookingHandler) GetMyTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	tickets, err := h.queryService.UserTickets(e.Request.Context(), e.Auth.Id)
	if err != nil {
		slog.Error("h.queryService.UserTickets()", "user", e.Auth.Id, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	return e.JSON(http.StatusOK, tickets)
}

// GetSoldTickets - Get tickets sold across the organizer's events
func (h *BookingHandler) GetSoldTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	tickets, err := h.queryService.SoldTickets(e.Request.Context(), e.Auth.Id)
	if err != nil {
		slog.Error("h.queryService.SoldTickets()", "organizer", e.Auth.Id, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	return e.JSON(http.StatusOK, tickets)
}

// GetAnalytics - Tickets sold and revenue per organizer event
func (h *BookingHandler) GetAnalytics(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	analytics, err := h.queryService.OrganizerAnalytics(e.Request.Context(), e.Auth.Id)
	if err != nil {
		slog.Error("h.queryService.OrganizerAnalytics()", "organizer", e.Auth.Id, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	return e.JSON(http.StatusOK, analytics)
}
