package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event-ticketing/internal/status"
	"event-ticketing/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/tools/types"
)

// The inventory ledger and the ticket-number sequence are the two hot
// shared counters. Both are advanced with single conditional UPDATEs so
// concurrent requests serialize in the database instead of racing
// through an application-level read-modify-write.

func (s *Store) ReserveTickets(ctx context.Context, eventID string, quantity int) error {
	if quantity < 1 {
		return status.ErrInvalidQuantity
	}

	res, err := s.app.DB().NewQuery(
		`UPDATE events
		 SET available_tickets = available_tickets - {:qty}
		 WHERE id = {:id} AND available_tickets >= {:qty}`,
	).Bind(dbx.Params{"qty": quantity, "id": eventID}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("reserveTickets: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows > 0 {
		return nil
	}

	// The guard failed: either the event is gone or it cannot cover
	// the requested quantity.
	var exists int
	err = s.app.DB().NewQuery(`SELECT 1 FROM events WHERE id = {:id}`).
		Bind(dbx.Params{"id": eventID}).WithContext(ctx).Row(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return status.ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("reserveTickets: %w", err)
	}
	return status.ErrInsufficientInventory
}

func (s *Store) ReleaseTickets(ctx context.Context, eventID string, quantity int) error {
	if quantity < 1 {
		return status.ErrInvalidQuantity
	}

	res, err := s.app.DB().NewQuery(
		`UPDATE events
		 SET available_tickets = available_tickets + {:qty}
		 WHERE id = {:id} AND available_tickets + {:qty} <= capacity`,
	).Bind(dbx.Params{"qty": quantity, "id": eventID}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("releaseTickets: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("releaseTickets: event %s cannot absorb %d returned tickets", eventID, quantity)
	}
	return nil
}

const ticketNumberCounter = "ticket_number"

// NextTicketNumber advances the dedicated sequence row. Callers run it
// inside RunInTransaction so the increment commits (or rolls back)
// together with the ticket insert that consumes it.
func (s *Store) NextTicketNumber(ctx context.Context) (models.TicketNumber, error) {
	res, err := s.app.DB().NewQuery(
		`UPDATE counters SET value = value + 1 WHERE name = {:name}`,
	).Bind(dbx.Params{"name": ticketNumberCounter}).WithContext(ctx).Execute()
	if err != nil {
		return 0, fmt.Errorf("nextTicketNumber: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return 0, fmt.Errorf("nextTicketNumber: counter %q is not seeded", ticketNumberCounter)
	}

	var value int64
	err = s.app.DB().NewQuery(`SELECT value FROM counters WHERE name = {:name}`).
		Bind(dbx.Params{"name": ticketNumberCounter}).WithContext(ctx).Row(&value)
	if err != nil {
		return 0, fmt.Errorf("nextTicketNumber: %w", err)
	}
	return models.TicketNumber(value), nil
}

func (s *Store) FailStalePending(ctx context.Context, method string, olderThan time.Time) (int64, error) {
	cutoff, err := types.ParseDateTime(olderThan)
	if err != nil {
		return 0, fmt.Errorf("failStalePending: %w", err)
	}

	res, err := s.app.DB().NewQuery(
		`UPDATE transactions SET status = {:failed}
		 WHERE status = {:pending} AND payment_method = {:method} AND created < {:cutoff}`,
	).Bind(dbx.Params{
		"failed":  models.TransactionStatusFailed,
		"pending": models.TransactionStatusPending,
		"method":  method,
		"cutoff":  cutoff.String(),
	}).WithContext(ctx).Execute()
	if err != nil {
		return 0, fmt.Errorf("failStalePending: %w", err)
	}
	return res.RowsAffected()
}
