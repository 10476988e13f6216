package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sayfoods/sayfoods-api/config"
)

// PaymentChannels are the checkout channels offered to customers
var PaymentChannels = []string{"card", "bank_transfer", "ussd", "bank"}

// InitializeRequest opens a checkout session. Amount is in minor units (kobo).
type InitializeRequest struct {
	Email     string   `json:"email"`
	Amount    int64    `json:"amount"`
	Channels  []string `json:"channels"`
	Reference string   `json:"reference"`
}

// InitializeResponse identifies the checkout session the client should open
type InitializeResponse struct {
	Reference        string `json:"reference"`
	AccessCode       string `json:"access_code"`
	AuthorizationURL string `json:"authorization_url"`
}

// VerifyResponse is the provider's view of a transaction. Amount is in minor units.
type VerifyResponse struct {
	Status          string
	Reference       string
	Amount          int64
	CustomerEmail   string
	GatewayResponse string
	Channel         string
}

// PaymentProvider is the payment gateway used by the order workflow
type PaymentProvider interface {
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error)
}

// ProviderError is a non-successful response from the provider API
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("paystack returned status %d: %s", e.StatusCode, e.Message)
}

// PaystackService handles interactions with the Paystack API
type PaystackService struct {
	baseURL     string
	secretKey   string
	httpClient  *http.Client
	maxAttempts int
	backoff     time.Duration
}

// NewPaystackService creates a Paystack client using the key for the current environment
func NewPaystackService(cfg *config.Config) *PaystackService {
	return &PaystackService{
		baseURL:   strings.TrimRight(cfg.PaystackBaseURL, "/"),
		secretKey: cfg.PaystackSecretKey(),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
	}
}

// paystackEnvelope is the common shape of every Paystack API response
type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type verifyData struct {
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	GatewayResponse string `json:"gateway_response"`
	Channel         string `json:"channel"`
	Customer        struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// InitializeTransaction opens a checkout session. It is not retried: the
// reference in req identifies the attempt.
func (s *PaystackService) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initialize request: %w", err)
	}

	envelope, err := s.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var res InitializeResponse
	if err := json.Unmarshal(envelope.Data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode initialize response: %w", err)
	}
	if res.AccessCode == "" {
		return nil, errors.New("paystack returned no access code")
	}
	return &res, nil
}

// VerifyTransaction fetches the outcome of a transaction, retrying transport
// errors and 5xx responses with linear backoff
func (s *PaystackService) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	path := "/transaction/verify/" + url.PathEscape(reference)

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		envelope, err := s.do(ctx, http.MethodGet, path, nil)
		if err == nil {
			var data verifyData
			if err := json.Unmarshal(envelope.Data, &data); err != nil {
				return nil, fmt.Errorf("failed to decode verify response: %w", err)
			}
			return &VerifyResponse{
				Status:          data.Status,
				Reference:       data.Reference,
				Amount:          data.Amount,
				CustomerEmail:   data.Customer.Email,
				GatewayResponse: data.GatewayResponse,
				Channel:         data.Channel,
			}, nil
		}

		lastErr = err
		if ctx.Err() != nil || !retryable(err) || attempt == s.maxAttempts {
			break
		}

		log.Warn().Err(err).Str("reference", reference).Int("attempt", attempt).Msg("Retrying payment verification")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * s.backoff):
		}
	}
	return nil, lastErr
}

// VerifyWebhookSignature checks the x-paystack-signature header, an HMAC-SHA512
// of the raw body keyed with the secret key
func (s *PaystackService) VerifyWebhookSignature(body []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil || len(expected) == 0 {
		return false
	}
	mac := hmac.New(sha512.New, []byte(s.secretKey))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

func (s *PaystackService) do(ctx context.Context, method, path string, body []byte) (*paystackEnvelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call paystack: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read paystack response: %w", err)
	}

	var envelope paystackEnvelope
	decodeErr := json.Unmarshal(raw, &envelope)

	if resp.StatusCode != http.StatusOK {
		message := strings.TrimSpace(string(raw))
		if decodeErr == nil && envelope.Message != "" {
			message = envelope.Message
		}
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode paystack response: %w", decodeErr)
	}
	if !envelope.Status {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}
	return &envelope, nil
}

// retryable reports whether a failed call may succeed if repeated
func retryable(err error) bool {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.StatusCode >= http.StatusInternalServerError
	}
	// transport failure
	return true
}
