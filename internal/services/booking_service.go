package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"event-ticketing/internal/status"
	"event-ticketing/models"
	"event-ticketing/monitoring"
)

// BookingService orchestrates direct ticket purchases. The whole
// booking runs as one unit of work: the inventory decrement only
// commits together with the ticket and transaction inserts, so a
// failure at any later step cannot leak inventory.
type BookingService struct {
	store Store
}

func NewBookingService(store Store) *BookingService {
	return &BookingService{store: store}
}

func (s *BookingService) BookDirect(ctx context.Context, eventID, buyerID string, quantity int) (*models.Ticket, error) {
	if quantity < 1 {
		return nil, status.ErrInvalidQuantity
	}

	var ticket *models.Ticket
	err := s.store.RunInTransaction(ctx, func(tx Store) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event.Status != models.EventStatusActive {
			return status.ErrEventNotActive
		}

		if err := tx.ReserveTickets(ctx, eventID, quantity); err != nil {
			return err
		}

		number, err := tx.NextTicketNumber(ctx)
		if err != nil {
			return err
		}

		// Price is snapshotted at booking time; later event edits do
		// not reprice sold tickets.
		t := &models.Ticket{
			EventID:      eventID,
			UserID:       buyerID,
			Quantity:     quantity,
			TotalPrice:   event.Price * float64(quantity),
			Status:       models.TicketStatusBooked,
			TicketNumber: number,
		}
		if err := tx.CreateTicket(ctx, t); err != nil {
			return err
		}

		tr := &models.Transaction{
			UserID:        buyerID,
			TicketID:      t.ID,
			Amount:        t.TotalPrice,
			PaymentMethod: models.PaymentMethodDirect,
			Status:        models.TransactionStatusCompleted,
			TransactionID: fmt.Sprintf("TXN-%s", t.ID),
		}
		if err := tx.CreateTransaction(ctx, tr); err != nil {
			return err
		}

		ticket = t
		return nil
	})
	if err != nil {
		monitoring.TrackBooking(bookingOutcome(err))
		return nil, err
	}

	monitoring.TrackBooking("success")
	slog.Info("ticket booked",
		"event", eventID,
		"user", buyerID,
		"quantity", quantity,
		"ticket_number", ticket.TicketNumber.String(),
	)
	return ticket, nil
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, status.ErrInsufficientInventory):
		return "sold_out"
	case errors.Is(err, status.ErrEventNotFound), errors.Is(err, status.ErrEventNotActive):
		return "rejected"
	default:
		return "error"
	}
}
