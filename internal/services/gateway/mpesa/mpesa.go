package mpesa

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type Config struct {
	BaseURL        string `json:"baseUrl"`
	ConsumerKey    string `json:"consumerKey"`
	ConsumerSecret string `json:"consumerSecret"`
	ShortCode      string `json:"shortCode"`
	Passkey        string `json:"passkey"`
	CallbackURL    string `json:"callbackUrl"`

	// Timeout bounds every call to the Daraja API.
	Timeout string `json:"timeout,omitempty"`
}

// Mpesa talks to the Safaricom Daraja API. Access tokens expire within
// the hour, so every initiation performs its own credential exchange
// instead of caching a token across calls.
type Mpesa struct {
	shortCode string
	client    *Client
}

type STKPushRequest struct {
	PhoneNumber      string
	Amount           decimal.Decimal
	AccountReference string
	Description      string
}

type STKPushResult struct {
	CorrelationID string
	Description   string
}

// New returns a new Mpesa instance.
func New(_ context.Context, cfg *Config) (*Mpesa, error) {
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, errors.New("mpesa: consumer credentials are required")
	}
	if cfg.ShortCode == "" || cfg.Passkey == "" {
		return nil, errors.New("mpesa: short code and passkey are required")
	}
	if cfg.CallbackURL == "" {
		return nil, errors.New("mpesa: callback url is required")
	}

	return &Mpesa{
		shortCode: cfg.ShortCode,
		client:    newClient(cfg),
	}, nil
}

func (m *Mpesa) InitiateSTKPush(ctx context.Context, req *STKPushRequest) (*STKPushResult, error) {
	token, err := m.client.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	reply, err := m.client.initiateSTKPush(ctx, token, req)
	if err != nil {
		return nil, err
	}

	return &STKPushResult{
		CorrelationID: reply.CheckoutRequestID,
		Description:   reply.CustomerMessage,
	}, nil
}

// normalizeMSISDN strips the leading "+" some clients send; Daraja
// expects the bare country-prefixed number.
func normalizeMSISDN(phone string) string {
	return strings.TrimPrefix(strings.TrimSpace(phone), "+")
}
