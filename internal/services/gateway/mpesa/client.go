package mpesa

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"context"

	"event-ticketing/internal/status"
)

const timestampLayout = "20060102150405"

type Client struct {
	// baseURL is the base url of the Daraja API.
	baseURL string

	// consumerKey and consumerSecret are exchanged for a short-lived
	// bearer token on every initiation.
	consumerKey    string
	consumerSecret string

	// shortCode and passkey derive the timestamped STK password.
	shortCode string
	passkey   string

	// callbackURL receives the asynchronous payment result.
	callbackURL string

	// hc is the http client.
	hc *http.Client
}

func newClient(cfg *Config) *Client {
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		shortCode:      cfg.ShortCode,
		passkey:        cfg.Passkey,
		callbackURL:    cfg.CallbackURL,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

// authenticate exchanges the static consumer credentials for a bearer
// token via the Daraja credential endpoint.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/oauth/v1/generate?grant_type=client_credentials", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("authenticate: http.NewReq: %w", err)
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w: %v", status.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authenticate: %w: status %d", status.ErrGatewayUnavailable, resp.StatusCode)
	}

	var reply struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("authenticate: json.Decode: %w: %v", status.ErrGatewayUnavailable, err)
	}
	if reply.AccessToken == "" {
		return "", fmt.Errorf("authenticate: %w: empty access token", status.ErrGatewayUnavailable)
	}

	return reply.AccessToken, nil
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushReply struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// initiateSTKPush submits the signed payment request and returns the
// provider reply carrying the correlation identifier.
func (c *Client) initiateSTKPush(ctx context.Context, token string, f *STKPushRequest) (*stkPushReply, error) {
	timestamp := time.Now().Format(timestampLayout)
	phone := normalizeMSISDN(f.PhoneNumber)

	payload := stkPushPayload{
		BusinessShortCode: c.shortCode,
		Password:          stkPassword(c.shortCode, c.passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            f.Amount.Round(0).IntPart(),
		PartyA:            phone,
		PartyB:            c.shortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.callbackURL,
		AccountReference:  f.AccountReference,
		TransactionDesc:   f.Description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("initiateSTKPush: json.Marshal: %w", err)
	}

	url := fmt.Sprintf("%s/mpesa/stkpush/v1/processrequest", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("initiateSTKPush: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("initiateSTKPush: %w: %v", status.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("initiateSTKPush: %w: status %d", status.ErrPaymentInitiationFailed, resp.StatusCode)
	}

	var reply stkPushReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("initiateSTKPush: json.Decode: %w: %v", status.ErrPaymentInitiationFailed, err)
	}
	if reply.ResponseCode != "0" || reply.CheckoutRequestID == "" {
		return nil, fmt.Errorf("initiateSTKPush: %w: code %q (%s)",
			status.ErrPaymentInitiationFailed, reply.ResponseCode, reply.ResponseDescription)
	}

	return &reply, nil
}

// stkPassword derives the timestamp-dependent request password.
func stkPassword(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}
