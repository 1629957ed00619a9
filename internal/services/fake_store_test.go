package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"event-ticketing/internal/status"
	"event-ticketing/models"
)

// fakeStore is an in-memory Store with the same atomicity semantics as
// the database implementation: units of work serialize on a mutex, and
// RunInTransaction rolls the whole state back when the callback fails.
// The tx view handed to callbacks skips locking because the outer call
// already holds the mutex.
type fakeStore struct {
	mu   sync.Mutex
	data fakeData
}

var (
	_ Store = (*fakeStore)(nil)
	_ Store = (*fakeTx)(nil)
)

type fakeData struct {
	events       map[string]*models.Event
	tickets      map[string]*models.Ticket
	transactions map[string]*models.Transaction
	counter      int64
	nextID       int

	// failure injection
	createTicketErr      error
	createTransactionErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data: fakeData{
			events:       map[string]*models.Event{},
			tickets:      map[string]*models.Ticket{},
			transactions: map[string]*models.Transaction{},
		},
	}
}

func (f *fakeStore) addEvent(e *models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data.events[e.ID] = e
}

func (f *fakeStore) availableTickets(eventID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.events[eventID].AvailableTickets
}

func (f *fakeStore) transactionByCorrelationID(correlationID string) *models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	tr, _ := f.data.findTransaction(correlationID)
	if tr == nil {
		return nil
	}
	cp := *tr
	return &cp
}

func (d *fakeData) snapshot() fakeData {
	cp := fakeData{
		events:               map[string]*models.Event{},
		tickets:              map[string]*models.Ticket{},
		transactions:         map[string]*models.Transaction{},
		counter:              d.counter,
		nextID:               d.nextID,
		createTicketErr:      d.createTicketErr,
		createTransactionErr: d.createTransactionErr,
	}
	for id, e := range d.events {
		c := *e
		cp.events[id] = &c
	}
	for id, t := range d.tickets {
		c := *t
		cp.tickets[id] = &c
	}
	for id, tr := range d.transactions {
		c := *tr
		cp.transactions[id] = &c
	}
	return cp
}

func (d *fakeData) findTransaction(correlationID string) (*models.Transaction, bool) {
	for _, tr := range d.transactions {
		if tr.TransactionID == correlationID {
			return tr, true
		}
	}
	return nil, false
}

// fakeTx is the in-transaction view. It operates on the same data
// without locking; the enclosing RunInTransaction holds the mutex.
type fakeTx struct {
	data *fakeData
}

func (f *fakeStore) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.data.snapshot()
	if err := fn(&fakeTx{data: &f.data}); err != nil {
		f.data = snap
		return err
	}
	return nil
}

func (f *fakeStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).GetEvent(ctx, eventID)
}

func (f *fakeStore) ReserveTickets(ctx context.Context, eventID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).ReserveTickets(ctx, eventID, quantity)
}

func (f *fakeStore) ReleaseTickets(ctx context.Context, eventID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).ReleaseTickets(ctx, eventID, quantity)
}

func (f *fakeStore) NextTicketNumber(ctx context.Context) (models.TicketNumber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).NextTicketNumber(ctx)
}

func (f *fakeStore) CreateTicket(ctx context.Context, t *models.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).CreateTicket(ctx, t)
}

func (f *fakeStore) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).GetTicket(ctx, ticketID)
}

func (f *fakeStore) CreateTransaction(ctx context.Context, tr *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).CreateTransaction(ctx, tr)
}

func (f *fakeStore) GetTransactionByCorrelationID(ctx context.Context, correlationID string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).GetTransactionByCorrelationID(ctx, correlationID)
}

func (f *fakeStore) CompleteTransaction(ctx context.Context, correlationID, receiptNumber string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).CompleteTransaction(ctx, correlationID, receiptNumber)
}

func (f *fakeStore) FailTransaction(ctx context.Context, correlationID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).FailTransaction(ctx, correlationID)
}

func (f *fakeStore) FailStalePending(ctx context.Context, method string, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).FailStalePending(ctx, method, olderThan)
}

func (f *fakeStore) UserTickets(ctx context.Context, userID string) ([]models.TicketDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).UserTickets(ctx, userID)
}

func (f *fakeStore) UserTransactions(ctx context.Context, userID string) ([]models.TransactionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).UserTransactions(ctx, userID)
}

func (f *fakeStore) SoldTickets(ctx context.Context, organizerID string) ([]models.SoldTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).SoldTickets(ctx, organizerID)
}

func (f *fakeStore) OrganizerAnalytics(ctx context.Context, organizerID string) (*models.OrganizerAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{data: &f.data}).OrganizerAnalytics(ctx, organizerID)
}

func (t *fakeTx) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *fakeTx) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	e, ok := t.data.events[eventID]
	if !ok {
		return nil, status.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (t *fakeTx) ReserveTickets(ctx context.Context, eventID string, quantity int) error {
	e, ok := t.data.events[eventID]
	if !ok {
		return status.ErrEventNotFound
	}
	if e.AvailableTickets < quantity {
		return status.ErrInsufficientInventory
	}
	e.AvailableTickets -= quantity
	return nil
}

func (t *fakeTx) ReleaseTickets(ctx context.Context, eventID string, quantity int) error {
	e, ok := t.data.events[eventID]
	if !ok {
		return status.ErrEventNotFound
	}
	if e.AvailableTickets+quantity > e.Capacity {
		return fmt.Errorf("release exceeds capacity")
	}
	e.AvailableTickets += quantity
	return nil
}

func (t *fakeTx) NextTicketNumber(ctx context.Context) (models.TicketNumber, error) {
	t.data.counter++
	return models.TicketNumber(t.data.counter), nil
}

func (t *fakeTx) CreateTicket(ctx context.Context, tk *models.Ticket) error {
	if t.data.createTicketErr != nil {
		return t.data.createTicketErr
	}
	t.data.nextID++
	tk.ID = fmt.Sprintf("ticket%d", t.data.nextID)
	cp := *tk
	t.data.tickets[tk.ID] = &cp
	return nil
}

func (t *fakeTx) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	tk, ok := t.data.tickets[ticketID]
	if !ok {
		return nil, status.ErrTicketNotFound
	}
	cp := *tk
	return &cp, nil
}

func (t *fakeTx) CreateTransaction(ctx context.Context, tr *models.Transaction) error {
	if t.data.createTransactionErr != nil {
		return t.data.createTransactionErr
	}
	t.data.nextID++
	tr.ID = fmt.Sprintf("txn%d", t.data.nextID)
	cp := *tr
	t.data.transactions[tr.ID] = &cp
	return nil
}

func (t *fakeTx) GetTransactionByCorrelationID(ctx context.Context, correlationID string) (*models.Transaction, error) {
	tr, ok := t.data.findTransaction(correlationID)
	if !ok {
		return nil, status.ErrTransactionNotFound
	}
	cp := *tr
	return &cp, nil
}

func (t *fakeTx) CompleteTransaction(ctx context.Context, correlationID, receiptNumber string) (bool, error) {
	tr, ok := t.data.findTransaction(correlationID)
	if !ok || tr.Status != models.TransactionStatusPending {
		return false, nil
	}
	tr.Status = models.TransactionStatusCompleted
	tr.MpesaReceiptNumber = receiptNumber
	return true, nil
}

func (t *fakeTx) FailTransaction(ctx context.Context, correlationID string) (bool, error) {
	tr, ok := t.data.findTransaction(correlationID)
	if !ok || tr.Status != models.TransactionStatusPending {
		return false, nil
	}
	tr.Status = models.TransactionStatusFailed
	return true, nil
}

func (t *fakeTx) FailStalePending(ctx context.Context, method string, olderThan time.Time) (int64, error) {
	var n int64
	for _, tr := range t.data.transactions {
		if tr.Status == models.TransactionStatusPending &&
			tr.PaymentMethod == method &&
			tr.Created.Time().Before(olderThan) {
			tr.Status = models.TransactionStatusFailed
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) UserTickets(ctx context.Context, userID string) ([]models.TicketDetail, error) {
	var out []models.TicketDetail
	for _, tk := range t.data.tickets {
		if tk.UserID == userID {
			out = append(out, models.TicketDetail{Ticket: *tk})
		}
	}
	return out, nil
}

func (t *fakeTx) UserTransactions(ctx context.Context, userID string) ([]models.TransactionDetail, error) {
	var out []models.TransactionDetail
	for _, tr := range t.data.transactions {
		if tr.UserID == userID {
			out = append(out, models.TransactionDetail{Transaction: *tr})
		}
	}
	return out, nil
}

func (t *fakeTx) SoldTickets(ctx context.Context, organizerID string) ([]models.SoldTicket, error) {
	var out []models.SoldTicket
	for _, tk := range t.data.tickets {
		e, ok := t.data.events[tk.EventID]
		if !ok || e.OrganizerID != organizerID {
			continue
		}
		out = append(out, models.SoldTicket{Ticket: *tk, EventTitle: e.Title})
	}
	return out, nil
}

func (t *fakeTx) OrganizerAnalytics(ctx context.Context, organizerID string) (*models.OrganizerAnalytics, error) {
	analytics := &models.OrganizerAnalytics{}
	for _, e := range t.data.events {
		if e.OrganizerID != organizerID {
			continue
		}
		sold := e.Capacity - e.AvailableTickets
		analytics.TotalEvents++
		analytics.TotalTicketsSold += sold
		analytics.TotalRevenue += float64(sold) * e.Price
		analytics.Events = append(analytics.Events, models.EventStats{
			Title:       e.Title,
			TicketsSold: sold,
			Revenue:     float64(sold) * e.Price,
		})
	}
	return analytics, nil
}
