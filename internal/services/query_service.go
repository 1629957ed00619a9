package services

import (
	"context"

	"event-ticketing/models"
)

// QueryService serves the read-only projections: a buyer's tickets and
// transactions, and an organizer's sold tickets and analytics.
type QueryService struct {
	store Store
}

func NewQueryService(store Store) *QueryService {
	return &QueryService{store: store}
}

func (s *QueryService) UserTickets(ctx context.Context, userID string) ([]models.TicketDetail, error) {
	return s.store.UserTickets(ctx, userID)
}

func (s *QueryService) UserTransactions(ctx context.Context, userID string) ([]models.TransactionDetail, error) {
	return s.store.UserTransactions(ctx, userID)
}

func (s *QueryService) SoldTickets(ctx context.Context, organizerID string) ([]models.SoldTicket, error) {
	return s.store.SoldTickets(ctx, organizerID)
}

func (s *QueryService) OrganizerAnalytics(ctx context.Context, organizerID string) (*models.OrganizerAnalytics, error) {
	return s.store.OrganizerAnalytics(ctx, organizerID)
}
