package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"event-ticketing/internal/services"
	"event-ticketing/internal/status"
	"event-ticketing/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// Store implements services.Store on top of the PocketBase app DB.
// Reads go through plain dbx queries; record inserts go through the
// record API so ids, timestamps and validations behave like every
// other collection write.
type Store struct {
	app core.App
}

var _ services.Store = (*Store)(nil)

func New(app core.App) *Store {
	return &Store{app: app}
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(tx services.Store) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(New(txApp))
	})
}

func (s *Store) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var ev models.Event
	err := s.app.DB().NewQuery(
		`SELECT id, title, description, date, time, location, category, price,
		        capacity, available_tickets, organizer, image, status
		 FROM events WHERE id = {:id}`,
	).Bind(dbx.Params{"id": eventID}).WithContext(ctx).One(&ev)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEventNotFound
		}
		return nil, fmt.Errorf("getEvent: %w", err)
	}
	return &ev, nil
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var t models.Ticket
	err := s.app.DB().NewQuery(
		`SELECT id, event, user, quantity, total_price, status, ticket_number, created
		 FROM tickets WHERE id = {:id}`,
	).Bind(dbx.Params{"id": ticketID}).WithContext(ctx).One(&t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrTicketNotFound
		}
		return nil, fmt.Errorf("getTicket: %w", err)
	}
	return &t, nil
}

func (s *Store) CreateTicket(ctx context.Context, t *models.Ticket) error {
	collection, err := s.app.FindCollectionByNameOrId("tickets")
	if err != nil {
		return fmt.Errorf("createTicket: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("event", t.EventID)
	record.Set("user", t.UserID)
	record.Set("quantity", t.Quantity)
	record.Set("total_price", t.TotalPrice)
	record.Set("status", t.Status)
	record.Set("ticket_number", int64(t.TicketNumber))

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("createTicket: %w", err)
	}

	t.ID = record.Id
	t.Created = record.GetDateTime("created")
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tr *models.Transaction) error {
	collection, err := s.app.FindCollectionByNameOrId("transactions")
	if err != nil {
		return fmt.Errorf("createTransaction: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("user", tr.UserID)
	record.Set("ticket", tr.TicketID)
	record.Set("amount", tr.Amount)
	record.Set("payment_method", tr.PaymentMethod)
	record.Set("status", tr.Status)
	record.Set("transaction_id", tr.TransactionID)
	record.Set("mpesa_receipt_number", tr.MpesaReceiptNumber)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("createTransaction: %w", err)
	}

	tr.ID = record.Id
	tr.Created = record.GetDateTime("created")
	return nil
}

func (s *Store) GetTransactionByCorrelationID(ctx context.Context, correlationID string) (*models.Transaction, error) {
	var tr models.Transaction
	err := s.app.DB().NewQuery(
		`SELECT id, user, ticket, amount, payment_method, status, transaction_id,
		        mpesa_receipt_number, created
		 FROM transactions WHERE transaction_id = {:tid}`,
	).Bind(dbx.Params{"tid": correlationID}).WithContext(ctx).One(&tr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("getTransactionByCorrelationID: %w", err)
	}
	return &tr, nil
}

// CompleteTransaction is guarded on status=pending so that duplicate
// callbacks and concurrent deliveries cannot double-apply.
func (s *Store) CompleteTransaction(ctx context.Context, correlationID, receiptNumber string) (bool, error) {
	res, err := s.app.DB().NewQuery(
		`UPDATE transactions
		 SET status = {:completed}, mpesa_receipt_number = {:receipt}
		 WHERE transaction_id = {:tid} AND status = {:pending}`,
	).Bind(dbx.Params{
		"completed": models.TransactionStatusCompleted,
		"receipt":   receiptNumber,
		"tid":       correlationID,
		"pending":   models.TransactionStatusPending,
	}).WithContext(ctx).Execute()
	if err != nil {
		return false, fmt.Errorf("completeTransaction: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

func (s *Store) FailTransaction(ctx context.Context, correlationID string) (bool, error) {
	res, err := s.app.DB().NewQuery(
		`UPDATE transactions SET status = {:failed}
		 WHERE transaction_id = {:tid} AND status = {:pending}`,
	).Bind(dbx.Params{
		"failed":  models.TransactionStatusFailed,
		"tid":     correlationID,
		"pending": models.TransactionStatusPending,
	}).WithContext(ctx).Execute()
	if err != nil {
		return false, fmt.Errorf("failTransaction: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}
