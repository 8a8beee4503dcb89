package notifications

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSyncer is a mock implementation of Syncer.
type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSyncer) MarkAllRead(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockHistorySource is a mock implementation of HistorySource.
type MockHistorySource struct {
	mock.Mock
}

func (m *MockHistorySource) ListNotifications(ctx context.Context, page, limit int) (Page, error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).(Page), args.Error(1)
}

// MockUnreadCounter is a mock implementation of UnreadCounter.
type MockUnreadCounter struct {
	mock.Mock
}

func (m *MockUnreadCounter) UnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockDeliverer is a mock implementation of Deliverer.
type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, notif Notification) error {
	args := m.Called(ctx, notif)
	return args.Error(0)
}
