package models

import (
	"github.com/pocketbase/pocketbase/tools/types"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusRefunded  = "refunded"
)

const (
	PaymentMethodMpesa  = "mpesa"
	PaymentMethodCard   = "card"
	PaymentMethodPaypal = "paypal"
	PaymentMethodDirect = "direct"
)

type Transaction struct {
	ID                 string         `db:"id" json:"id"`
	UserID             string         `db:"user" json:"user_id"`
	TicketID           string         `db:"ticket" json:"ticket_id"`
	Amount             float64        `db:"amount" json:"amount"`
	PaymentMethod      string         `db:"payment_method" json:"payment_method"`
	Status             string         `db:"status" json:"status"`
	TransactionID      string         `db:"transaction_id" json:"transaction_id"`
	MpesaReceiptNumber string         `db:"mpesa_receipt_number" json:"mpesa_receipt_number,omitempty"`
	Created            types.DateTime `db:"created" json:"created"`
}

// IsTerminal reports whether the transaction has reached a state the
// reconciliation handler must never transition away from.
func (t *Transaction) IsTerminal() bool {
	return t.Status != TransactionStatusPending
}

// TransactionDetail nests the paid-for ticket for the buyer's
// transaction history.
type TransactionDetail struct {
	Transaction
	Ticket *Ticket `json:"ticket,omitempty"`
}
