package gmail

import (
	"context"
	"fmt"

	"mailmind/internal/model"
)

// MockGmailClient is a mock implementation of MailClient for testing
type MockGmailClient struct {
	ProfileFunc      func(ctx context.Context) (string, error)
	ListInboxIDsFunc func(ctx context.Context, maxResults int64) ([]string, error)
	GetMessageFunc   func(ctx context.Context, id string) (model.Message, error)

	// Messages backs the default list and get behavior, in inbox order.
	Messages []model.Message
}

func NewMockGmailClient(messages ...model.Message) *MockGmailClient {
	return &MockGmailClient{Messages: messages}
}

func (m *MockGmailClient) Profile(ctx context.Context) (string, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx)
	}

	// Default mock behavior: a fixed address
	return "me@example.com", nil
}

func (m *MockGmailClient) ListInboxIDs(ctx context.Context, maxResults int64) ([]string, error) {
	if m.ListInboxIDsFunc != nil {
		return m.ListInboxIDsFunc(ctx, maxResults)
	}

	ids := make([]string, 0, len(m.Messages))
	for _, msg := range m.Messages {
		if int64(len(ids)) == maxResults {
			break
		}
		ids = append(ids, msg.ID)
	}
	return ids, nil
}

func (m *MockGmailClient) GetMessage(ctx context.Context, id string) (model.Message, error) {
	if m.GetMessageFunc != nil {
		return m.GetMessageFunc(ctx, id)
	}

	for _, msg := range m.Messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return model.Message{}, fmt.Errorf("failed to get message %s: not found", id)
}
