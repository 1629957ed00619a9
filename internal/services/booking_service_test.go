package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"event-ticketing/internal/status"
	"event-ticketing/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestBookingService() (*BookingService, *fakeStore) {
	store := newFakeStore()
	store.addEvent(&models.Event{
		ID:               "event1",
		Title:            "Test Concert",
		Price:            500,
		Capacity:         10,
		AvailableTickets: 10,
		OrganizerID:      "organizer1",
		Status:           models.EventStatusActive,
	})
	return NewBookingService(store), store
}

func TestBookingService_BookDirect_Success(t *testing.T) {
	service, store := setupTestBookingService()
	ctx := context.Background()

	ticket, err := service.BookDirect(ctx, "event1", "user1", 3)
	require.NoError(t, err)

	assert.Equal(t, "event1", ticket.EventID)
	assert.Equal(t, "user1", ticket.UserID)
	assert.Equal(t, 3, ticket.Quantity)
	assert.Equal(t, 1500.0, ticket.TotalPrice)
	assert.Equal(t, models.TicketStatusBooked, ticket.Status)
	assert.Equal(t, "000001", ticket.TicketNumber.String())

	assert.Equal(t, 7, store.availableTickets("event1"))

	// A completed direct-payment transaction accompanies the ticket.
	transactions, err := store.UserTransactions(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, ticket.ID, transactions[0].TicketID)
	assert.Equal(t, 1500.0, transactions[0].Amount)
	assert.Equal(t, models.PaymentMethodDirect, transactions[0].PaymentMethod)
	assert.Equal(t, models.TransactionStatusCompleted, transactions[0].Status)
}

func TestBookingService_BookDirect_EventNotFound(t *testing.T) {
	service, _ := setupTestBookingService()

	_, err := service.BookDirect(context.Background(), "missing", "user1", 1)
	assert.ErrorIs(t, err, status.ErrEventNotFound)
}

func TestBookingService_BookDirect_InvalidQuantity(t *testing.T) {
	service, store := setupTestBookingService()

	for _, quantity := range []int{0, -1, -10} {
		_, err := service.BookDirect(context.Background(), "event1", "user1", quantity)
		assert.ErrorIs(t, err, status.ErrInvalidQuantity)
	}

	assert.Equal(t, 10, store.availableTickets("event1"))
}

func TestBookingService_BookDirect_InsufficientInventory(t *testing.T) {
	service, store := setupTestBookingService()

	_, err := service.BookDirect(context.Background(), "event1", "user1", 11)
	assert.ErrorIs(t, err, status.ErrInsufficientInventory)

	// A rejected reservation must not change availability.
	assert.Equal(t, 10, store.availableTickets("event1"))
}

func TestBookingService_BookDirect_InactiveEvent(t *testing.T) {
	service, store := setupTestBookingService()
	store.addEvent(&models.Event{
		ID:               "event2",
		Price:            100,
		Capacity:         5,
		AvailableTickets: 5,
		Status:           models.EventStatusCancelled,
	})

	_, err := service.BookDirect(context.Background(), "event2", "user1", 1)
	assert.ErrorIs(t, err, status.ErrEventNotActive)
	assert.Equal(t, 5, store.availableTickets("event2"))
}

func TestBookingService_BookDirect_ExactRemainingInventory(t *testing.T) {
	service, store := setupTestBookingService()

	ticket, err := service.BookDirect(context.Background(), "event1", "user1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, ticket.Quantity)
	assert.Equal(t, 0, store.availableTickets("event1"))

	_, err = service.BookDirect(context.Background(), "event1", "user2", 1)
	assert.ErrorIs(t, err, status.ErrInsufficientInventory)
}

func TestBookingService_BookDirect_RollbackRestoresInventory(t *testing.T) {
	service, store := setupTestBookingService()
	injected := errors.New("insert failed")
	store.data.createTransactionErr = injected

	_, err := service.BookDirect(context.Background(), "event1", "user1", 4)
	assert.ErrorIs(t, err, injected)

	// The failed unit of work must leave no trace: inventory back to
	// full, no orphan ticket.
	assert.Equal(t, 10, store.availableTickets("event1"))
	tickets, err := store.UserTickets(context.Background(), "user1")
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestBookingService_BookDirect_ConcurrentNeverOversells(t *testing.T) {
	store := newFakeStore()
	store.addEvent(&models.Event{
		ID:               "event1",
		Price:            100,
		Capacity:         100,
		AvailableTickets: 5,
		OrganizerID:      "organizer1",
		Status:           models.EventStatusActive,
	})
	service := NewBookingService(store)

	const buyers = 20
	results := make(chan error, buyers)

	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.BookDirect(context.Background(), "event1", "user", 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, status.ErrInsufficientInventory)
		}
	}

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, store.availableTickets("event1"))
}

func TestBookingService_BookDirect_TicketNumbersAreDistinct(t *testing.T) {
	service, store := setupTestBookingService()

	seen := map[models.TicketNumber]bool{}
	for i := 0; i < 5; i++ {
		ticket, err := service.BookDirect(context.Background(), "event1", "user1", 1)
		require.NoError(t, err)
		assert.False(t, seen[ticket.TicketNumber], "duplicate ticket number %s", ticket.TicketNumber)
		seen[ticket.TicketNumber] = true
	}

	assert.Equal(t, 5, store.availableTickets("event1"))
}
