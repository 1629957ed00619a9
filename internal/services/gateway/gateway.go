package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider represents the supported payment providers.
type Provider string

const (
	ProviderMpesa  Provider = "mpesa"
	ProviderCard   Provider = "card"
	ProviderPaypal Provider = "paypal"
)

// PaymentRequest is a provider-agnostic payment initiation request.
type PaymentRequest struct {
	PhoneNumber string          `json:"phone_number"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
	Description string          `json:"description,omitempty"`
}

// InitiationResult carries the provider-issued correlation identifier
// that a later asynchronous callback is matched against.
type InitiationResult struct {
	CorrelationID string `json:"correlation_id"`
	Description   string `json:"description,omitempty"`
}

// Gateway defines the common interface for payment providers.
type Gateway interface {
	// Provider returns the provider type.
	Provider() Provider

	// InitiateSTKPush asks the provider to prompt the payer's device
	// for authorization. Initiation is synchronous; confirmation
	// arrives later through the provider webhook.
	InitiateSTKPush(ctx context.Context, req *PaymentRequest) (*InitiationResult, error)
}
