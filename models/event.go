package models

import (
	"github.com/pocketbase/pocketbase/tools/types"
)

const (
	EventStatusActive    = "active"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

type Event struct {
	ID               string         `db:"id" json:"id"`
	Title            string         `db:"title" json:"title"`
	Description      string         `db:"description" json:"description"`
	Date             types.DateTime `db:"date" json:"date"`
	Time             string         `db:"time" json:"time"`
	Location         string         `db:"location" json:"location"`
	Category         string         `db:"category" json:"category"`
	Price            float64        `db:"price" json:"price"`
	Capacity         int            `db:"capacity" json:"capacity"`
	AvailableTickets int            `db:"available_tickets" json:"available_tickets"`
	OrganizerID      string         `db:"organizer" json:"organizer_id"`
	Image            string         `db:"image" json:"image,omitempty"`
	Status           string         `db:"status" json:"status"`
}

// EventStats is the per-event slice of the organizer analytics projection.
type EventStats struct {
	Title       string  `db:"title" json:"title"`
	TicketsSold int     `db:"tickets_sold" json:"tickets_sold"`
	Revenue     float64 `db:"revenue" json:"revenue"`
}

type OrganizerAnalytics struct {
	TotalEvents      int          `json:"total_events"`
	TotalTicketsSold int          `json:"total_tickets_sold"`
	TotalRevenue     float64      `json:"total_revenue"`
	Events           []EventStats `json:"events"`
}
