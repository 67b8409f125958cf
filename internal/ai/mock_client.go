package ai

import (
	"context"

	"mailmind/internal/model"
)

// MockAIClient is a mock implementation of AIClient for testing
type MockAIClient struct {
	ClassifyMessageFunc func(ctx context.Context, msg model.Message, apiKey string) (model.Classification, error)
}

func NewMockAIClient() *MockAIClient {
	return &MockAIClient{}
}

func (m *MockAIClient) ClassifyMessage(ctx context.Context, msg model.Message, apiKey string) (model.Classification, error) {
	if m.ClassifyMessageFunc != nil {
		return m.ClassifyMessageFunc(ctx, msg, apiKey)
	}

	// Default mock behavior: an informational AI classification echoing the subject
	return model.Classification{
		Intent:    model.IntentInformational,
		Urgency:   model.UrgencyLow,
		Sentiment: model.SentimentNeutral,
		Summary:   "AI summary: " + msg.Subject,
		Replies: []model.ReplyDraft{
			{ID: 1, Label: "Thanks", Text: "Thanks for the note."},
			{ID: 2, Label: "Noted", Text: "Noted, I will keep this in mind."},
			{ID: 3, Label: "Later", Text: "I will get back to you later."},
		},
		Source: model.SourceAI,
	}, nil
}
