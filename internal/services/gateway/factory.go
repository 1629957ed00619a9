package gateway

import (
	"context"
	"fmt"

	"event-ticketing/internal/services/gateway/mpesa"
)

// New creates a gateway instance for the given provider type and
// provider-specific configuration.
func New(ctx context.Context, provider Provider, config any) (Gateway, error) {
	switch provider {
	case ProviderMpesa:
		mpesaConfig, ok := config.(*mpesa.Config)
		if !ok {
			return nil, fmt.Errorf("invalid mpesa config type, expected *mpesa.Config")
		}
		return NewMpesaAdapter(ctx, mpesaConfig)

	case ProviderCard, ProviderPaypal:
		return nil, fmt.Errorf("payment provider %s not implemented yet", provider)

	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", provider)
	}
}

// MpesaAdapter adapts the Daraja client to the Gateway interface.
type MpesaAdapter struct {
	m *mpesa.Mpesa
}

func NewMpesaAdapter(ctx context.Context, cfg *mpesa.Config) (*MpesaAdapter, error) {
	m, err := mpesa.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mpesa gateway: %w", err)
	}
	return &MpesaAdapter{m: m}, nil
}

func (a *MpesaAdapter) Provider() Provider {
	return ProviderMpesa
}

func (a *MpesaAdapter) InitiateSTKPush(ctx context.Context, req *PaymentRequest) (*InitiationResult, error) {
	res, err := a.m.InitiateSTKPush(ctx, &mpesa.STKPushRequest{
		PhoneNumber:      req.PhoneNumber,
		Amount:           req.Amount,
		AccountReference: req.Reference,
		Description:      req.Description,
	})
	if err != nil {
		return nil, err
	}

	return &InitiationResult{
		CorrelationID: res.CorrelationID,
		Description:   res.Description,
	}, nil
}
