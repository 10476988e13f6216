package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sayfoods/sayfoods-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPaystack(t *testing.T, handler http.HandlerFunc) *PaystackService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testutil.TestConfig()
	cfg.PaystackBaseURL = server.URL + "/"
	svc := NewPaystackService(cfg)
	svc.backoff = time.Millisecond
	return svc
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestPaystackInitializeTransaction(t *testing.T) {
	svc := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

		var req InitializeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(500000), req.Amount)
		assert.Equal(t, "SAYFOODS_abc_1", req.Reference)
		assert.Equal(t, PaymentChannels, req.Channels)

		writeJSON(w, http.StatusOK, map[string]any{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/xyz",
				"access_code":       "xyz",
				"reference":         "SAYFOODS_abc_1",
			},
		})
	})

	res, err := svc.InitializeTransaction(context.Background(), InitializeRequest{
		Email:     "ada@example.com",
		Amount:    500000,
		Channels:  PaymentChannels,
		Reference: "SAYFOODS_abc_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "xyz", res.AccessCode)
	assert.Equal(t, "https://checkout.paystack.com/xyz", res.AuthorizationURL)
}

func TestPaystackInitializeTransaction_NotRetried(t *testing.T) {
	var calls atomic.Int32
	svc := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadGateway, map[string]any{"status": false, "message": "upstream down"})
	})

	_, err := svc.InitializeTransaction(context.Background(), InitializeRequest{Reference: "r"})
	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusBadGateway, providerErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPaystackVerifyTransaction(t *testing.T) {
	svc := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/SAYFOODS_abc_1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]any{
				"status":           "success",
				"reference":        "SAYFOODS_abc_1",
				"amount":           500000,
				"gateway_response": "Successful",
				"channel":          "card",
				"customer":         map[string]any{"email": "ada@example.com"},
			},
		})
	})

	res, err := svc.VerifyTransaction(context.Background(), "SAYFOODS_abc_1")
	require.NoError(t, err)
	assert.Equal(t, &VerifyResponse{
		Status:          "success",
		Reference:       "SAYFOODS_abc_1",
		Amount:          500000,
		CustomerEmail:   "ada@example.com",
		GatewayResponse: "Successful",
		Channel:         "card",
	}, res)
}

func TestPaystackVerifyTransaction_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	svc := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": true,
			"data":   map[string]any{"status": "abandoned", "reference": "ref", "amount": 100},
		})
	})

	res, err := svc.VerifyTransaction(context.Background(), "ref")
	require.NoError(t, err)
	assert.Equal(t, "abandoned", res.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPaystackVerifyTransaction_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	svc := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.VerifyTransaction(context.Background(), "ref")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPaystackVerifyTransaction_ClientErrorsNotRetried(t *testing.T) {
	var calls atomic.Int32
	svc := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": false, "message": "Transaction reference not found"})
	})

	_, err := svc.VerifyTransaction(context.Background(), "ref")
	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "Transaction reference not found", providerErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPaystackVerifyTransaction_FalseStatusEnvelope(t *testing.T) {
	svc := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": false, "message": "Invalid key"})
	})

	_, err := svc.VerifyTransaction(context.Background(), "ref")
	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "Invalid key", providerErr.Message)
}

func TestPaystackVerifyWebhookSignature(t *testing.T) {
	svc := NewPaystackService(testutil.TestConfig())
	body := []byte(`{"event":"charge.success","data":{"reference":"ref"}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, svc.VerifyWebhookSignature(body, signature))
	assert.False(t, svc.VerifyWebhookSignature(body, ""))
	assert.False(t, svc.VerifyWebhookSignature(body, "not-hex"))
	assert.False(t, svc.VerifyWebhookSignature([]byte(`{"event":"charge.success"}`), signature))
}
