package status

import "errors"

var (
	ErrEventNotFound       = errors.New("event: not found")
	ErrEventNotActive      = errors.New("event: not open for booking")
	ErrTicketNotFound      = errors.New("ticket: not found")
	ErrTransactionNotFound = errors.New("transaction: not found")

	ErrInvalidQuantity       = errors.New("booking: quantity must be at least 1")
	ErrInsufficientInventory = errors.New("inventory: not enough tickets available")
	ErrNotAuthorized         = errors.New("booking: not authorized")

	ErrGatewayUnavailable      = errors.New("gateway: unavailable")
	ErrPaymentInitiationFailed = errors.New("gateway: payment initiation failed")
	ErrMalformedCallback       = errors.New("reconcile: malformed callback payload")
)
