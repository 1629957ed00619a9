package services

import (
	"context"
	"time"

	"event-ticketing/models"
)

// Store is the persistence surface the services orchestrate against.
// The production implementation lives in internal/store; tests swap in
// an in-memory fake.
type Store interface {
	// RunInTransaction executes fn inside a single atomic unit of work.
	// Everything done through tx is rolled back if fn returns an error.
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	GetEvent(ctx context.Context, eventID string) (*models.Event, error)

	// ReserveTickets atomically decrements an event's available
	// inventory. It never grants a partial reservation and never lets
	// the stored value go negative.
	ReserveTickets(ctx context.Context, eventID string, quantity int) error

	// ReleaseTickets is the compensating increment, capped at capacity.
	ReleaseTickets(ctx context.Context, eventID string, quantity int) error

	// NextTicketNumber advances the global ticket-number sequence.
	// Call it inside RunInTransaction so the increment and the ticket
	// insert commit together.
	NextTicketNumber(ctx context.Context) (models.TicketNumber, error)

	CreateTicket(ctx context.Context, t *models.Ticket) error
	GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error)

	CreateTransaction(ctx context.Context, tr *models.Transaction) error
	GetTransactionByCorrelationID(ctx context.Context, correlationID string) (*models.Transaction, error)

	// CompleteTransaction and FailTransaction transition a pending
	// transaction to its terminal state. The transition is guarded on
	// status=pending; they report false when the row was already
	// terminal (or gone), which callers treat as a no-op.
	CompleteTransaction(ctx context.Context, correlationID, receiptNumber string) (bool, error)
	FailTransaction(ctx context.Context, correlationID string) (bool, error)

	// FailStalePending marks transactions of the given payment method
	// that have been pending since before olderThan as failed.
	FailStalePending(ctx context.Context, method string, olderThan time.Time) (int64, error)

	UserTickets(ctx context.Context, userID string) ([]models.TicketDetail, error)
	UserTransactions(ctx context.Context, userID string) ([]models.TransactionDetail, error)
	SoldTickets(ctx context.Context, organizerID string) ([]models.SoldTicket, error)
	OrganizerAnalytics(ctx context.Context, organizerID string) (*models.OrganizerAnalytics, error)
}
