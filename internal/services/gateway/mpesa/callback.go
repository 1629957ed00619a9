package mpesa

import (
	"encoding/json"
	"fmt"
	"strconv"

	"event-ticketing/internal/status"
)

// MetadataReceiptNumber is the metadata item carrying the provider
// receipt identifier on successful payments.
const MetadataReceiptNumber = "MpesaReceiptNumber"

// CallbackEnvelope is the provider-defined webhook body.
type CallbackEnvelope struct {
	Body struct {
		StkCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string           `json:"MerchantRequestID"`
	CheckoutRequestID string           `json:"CheckoutRequestID"`
	ResultCode        int              `json:"ResultCode"`
	ResultDesc        string           `json:"ResultDesc"`
	CallbackMetadata  CallbackMetadata `json:"CallbackMetadata"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

type MetadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// ParseCallback decodes a webhook body and extracts the result object.
func ParseCallback(data []byte) (*STKCallback, error) {
	var envelope CallbackEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrMalformedCallback, err)
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing CheckoutRequestID", status.ErrMalformedCallback)
	}
	return &cb, nil
}

func (c *STKCallback) Succeeded() bool {
	return c.ResultCode == 0
}

// Get searches the variable-length metadata list by item name.
func (m CallbackMetadata) Get(name string) (string, bool) {
	for _, item := range m.Item {
		if item.Name != name {
			continue
		}
		switch v := item.Value.(type) {
		case string:
			return v, true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		default:
			return fmt.Sprint(v), true
		}
	}
	return "", false
}
