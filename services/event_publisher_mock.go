package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a testify mock of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, event OrderEvent) error {
	args := m.Called(ctx, subject, event)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() {
	m.Called()
}
