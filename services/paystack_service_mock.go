package services

import (
	"context"
	"fmt"
	"sync"
)

// MockPaymentProvider is an in-memory PaymentProvider for testing
type MockPaymentProvider struct {
	InitializeErr error
	VerifyErr     error

	mu              sync.Mutex
	verifyResults   map[string]*VerifyResponse
	defaultResult   *VerifyResponse
	initializeCalls []InitializeRequest
	verifyCalls     []string
}

// NewMockPaymentProvider creates a provider whose verifications fail until a result is set
func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{
		verifyResults: make(map[string]*VerifyResponse),
	}
}

// InitializeTransaction returns ACCESS_<n> for the n-th session opened
func (m *MockPaymentProvider) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.initializeCalls = append(m.initializeCalls, req)
	if m.InitializeErr != nil {
		return nil, m.InitializeErr
	}
	return &InitializeResponse{
		Reference:  req.Reference,
		AccessCode: fmt.Sprintf("ACCESS_%d", len(m.initializeCalls)),
	}, nil
}

// VerifyTransaction returns the result registered for reference, or the default result
func (m *MockPaymentProvider) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.verifyCalls = append(m.verifyCalls, reference)
	if m.VerifyErr != nil {
		return nil, m.VerifyErr
	}
	if res, ok := m.verifyResults[reference]; ok {
		return res, nil
	}
	if m.defaultResult != nil {
		res := *m.defaultResult
		res.Reference = reference
		return &res, nil
	}
	return nil, &ProviderError{StatusCode: 400, Message: "Transaction reference not found"}
}

// SetVerifyResult registers the verification outcome for reference
func (m *MockPaymentProvider) SetVerifyResult(reference string, res *VerifyResponse) {
	m.mu.Lock()
	m.verifyResults[reference] = res
	m.mu.Unlock()
}

// SetDefaultVerifyResult sets the outcome for references without a registered result
func (m *MockPaymentProvider) SetDefaultVerifyResult(res *VerifyResponse) {
	m.mu.Lock()
	m.defaultResult = res
	m.mu.Unlock()
}

// InitializeCalls returns the requests received so far
func (m *MockPaymentProvider) InitializeCalls() []InitializeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]InitializeRequest(nil), m.initializeCalls...)
}

// VerifyCalls returns how many verifications were requested
func (m *MockPaymentProvider) VerifyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.verifyCalls)
}
