package store

import (
	"context"
	"fmt"

	"event-ticketing/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/tools/types"
)

// Read-only projections for the query endpoints. No state transitions
// happen here.

func (s *Store) UserTickets(ctx context.Context, userID string) ([]models.TicketDetail, error) {
	tickets := []models.TicketDetail{}
	err := s.app.DB().NewQuery(
		`SELECT t.id, t.event, t.user, t.quantity, t.total_price, t.status,
		        t.ticket_number, t.created,
		        e.title AS event_title, e.date AS event_date, e.location AS event_location
		 FROM tickets t
		 JOIN events e ON e.id = t.event
		 WHERE t.user = {:user}
		 ORDER BY t.created DESC`,
	).Bind(dbx.Params{"user": userID}).WithContext(ctx).All(&tickets)
	if err != nil {
		return nil, fmt.Errorf("userTickets: %w", err)
	}
	return tickets, nil
}

type transactionRow struct {
	models.Transaction
	TktID           string              `db:"tkt_id"`
	TktEvent        string              `db:"tkt_event"`
	TktQuantity     int                 `db:"tkt_quantity"`
	TktTotalPrice   float64             `db:"tkt_total_price"`
	TktStatus       string              `db:"tkt_status"`
	TktTicketNumber models.TicketNumber `db:"tkt_ticket_number"`
	TktCreated      types.DateTime      `db:"tkt_created"`
}

func (s *Store) UserTransactions(ctx context.Context, userID string) ([]models.TransactionDetail, error) {
	rows := []transactionRow{}
	err := s.app.DB().NewQuery(
		`SELECT x.id, x.user, x.ticket, x.amount, x.payment_method, x.status,
		        x.transaction_id, x.mpesa_receipt_number, x.created,
		        t.id AS tkt_id, t.event AS tkt_event, t.quantity AS tkt_quantity,
		        t.total_price AS tkt_total_price, t.status AS tkt_status,
		        t.ticket_number AS tkt_ticket_number, t.created AS tkt_created
		 FROM transactions x
		 JOIN tickets t ON t.id = x.ticket
		 WHERE x.user = {:user}
		 ORDER BY x.created DESC`,
	).Bind(dbx.Params{"user": userID}).WithContext(ctx).All(&rows)
	if err != nil {
		return nil, fmt.Errorf("userTransactions: %w", err)
	}

	details := make([]models.TransactionDetail, 0, len(rows))
	for _, r := range rows {
		details = append(details, models.TransactionDetail{
			Transaction: r.Transaction,
			Ticket: &models.Ticket{
				ID:           r.TktID,
				EventID:      r.TktEvent,
				UserID:       r.UserID,
				Quantity:     r.TktQuantity,
				TotalPrice:   r.TktTotalPrice,
				Status:       r.TktStatus,
				TicketNumber: r.TktTicketNumber,
				Created:      r.TktCreated,
			},
		})
	}
	return details, nil
}

func (s *Store) SoldTickets(ctx context.Context, organizerID string) ([]models.SoldTicket, error) {
	tickets := []models.SoldTicket{}
	err := s.app.DB().NewQuery(
		`SELECT t.id, t.event, t.user, t.quantity, t.total_price, t.status,
		        t.ticket_number, t.created,
		        e.title AS event_title, u.name AS buyer_name, u.email AS buyer_email
		 FROM tickets t
		 JOIN events e ON e.id = t.event
		 JOIN users u ON u.id = t.user
		 WHERE e.organizer = {:organizer}
		 ORDER BY t.created DESC`,
	).Bind(dbx.Params{"organizer": organizerID}).WithContext(ctx).All(&tickets)
	if err != nil {
		return nil, fmt.Errorf("soldTickets: %w", err)
	}
	return tickets, nil
}

func (s *Store) OrganizerAnalytics(ctx context.Context, organizerID string) (*models.OrganizerAnalytics, error) {
	stats := []models.EventStats{}
	err := s.app.DB().NewQuery(
		`SELECT e.title,
		        (e.capacity - e.available_tickets) AS tickets_sold,
		        (e.capacity - e.available_tickets) * e.price AS revenue
		 FROM events e
		 WHERE e.organizer = {:organizer}`,
	).Bind(dbx.Params{"organizer": organizerID}).WithContext(ctx).All(&stats)
	if err != nil {
		return nil, fmt.Errorf("organizerAnalytics: %w", err)
	}

	analytics := &models.OrganizerAnalytics{
		TotalEvents: len(stats),
		Events:      stats,
	}
	for _, st := range stats {
		analytics.TotalTicketsSold += st.TicketsSold
		analytics.TotalRevenue += st.Revenue
	}
	return analytics, nil
}
