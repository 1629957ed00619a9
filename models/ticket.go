package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/pocketbase/pocketbase/tools/types"
)

const (
	TicketStatusBooked    = "booked"
	TicketStatusCancelled = "cancelled"
	TicketStatusUsed      = "used"
)

// TicketNumber is a globally unique, monotonically assigned integer.
// Clients always see it as a 6-digit zero-padded string.
type TicketNumber int64

func (n TicketNumber) String() string {
	return fmt.Sprintf("%06d", int64(n))
}

func (n TicketNumber) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", n.String())), nil
}

func (n *TicketNumber) Scan(value any) error {
	switch v := value.(type) {
	case int64:
		*n = TicketNumber(v)
	case float64:
		*n = TicketNumber(int64(v))
	case nil:
		*n = 0
	default:
		return fmt.Errorf("ticket number: cannot scan %T", value)
	}
	return nil
}

func (n TicketNumber) Value() (driver.Value, error) {
	return int64(n), nil
}

type Ticket struct {
	ID           string         `db:"id" json:"id"`
	EventID      string         `db:"event" json:"event_id"`
	UserID       string         `db:"user" json:"user_id"`
	Quantity     int            `db:"quantity" json:"quantity"`
	TotalPrice   float64        `db:"total_price" json:"total_price"`
	Status       string         `db:"status" json:"status"`
	TicketNumber TicketNumber   `db:"ticket_number" json:"ticket_number"`
	Created      types.DateTime `db:"created" json:"created"`
}

// TicketDetail is the buyer-facing projection joining the parent event.
type TicketDetail struct {
	Ticket
	EventTitle    string         `db:"event_title" json:"event_title"`
	EventDate     types.DateTime `db:"event_date" json:"event_date"`
	EventLocation string         `db:"event_location" json:"event_location"`
}

// SoldTicket is the organizer-facing projection joining the buyer.
type SoldTicket struct {
	Ticket
	EventTitle string `db:"event_title" json:"event_title"`
	BuyerName  string `db:"buyer_name" json:"buyer_name"`
	BuyerEmail string `db:"buyer_email" json:"buyer_email"`
}
