package heuristic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailmind/internal/model"
)

var refNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    model.Intent
	}{
		{"meeting keyword", "Sync", "Can we set up a zoom tomorrow?", model.IntentMeetingRequest},
		{"meeting beats action", "Urgent", "Need a meeting asap", model.IntentMeetingRequest},
		{"action keyword", "Contract", "Please respond before the deadline", model.IntentActionRequired},
		{"action phrase", "Reply needed", "See attached", model.IntentActionRequired},
		{"follow up", "Checking in", "Any news on this?", model.IntentFollowUp},
		{"follow up beats informational", "Status update", "fyi", model.IntentFollowUp},
		{"informational keyword", "FYI", "The office is closed on Monday", model.IntentInformational},
		{"no keywords", "Lunch", "Sandwiches are in the kitchen", model.IntentInformational},
		{"subject only", "Calendar invite", "", model.IntentMeetingRequest},
		{"word boundary", "Recall", "Callback numbers attached", model.IntentInformational},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.subject, tt.body, refNow, refNow)
			assert.Equal(t, tt.want, got.Intent)
		})
	}
}

func TestClassifyUrgency(t *testing.T) {
	tests := []struct {
		name string
		body string
		age  time.Duration
		want model.Urgency
	}{
		{"urgent and recent", "this is urgent", time.Hour, model.UrgencyHigh},
		{"urgent but a day old", "this is urgent", 30 * time.Hour, model.UrgencyMedium},
		{"urgent and old", "this is urgent", 72 * time.Hour, model.UrgencyLow},
		{"important keyword old", "important notice", 10 * 24 * time.Hour, model.UrgencyMedium},
		{"plain recent", "hello there", 2 * time.Hour, model.UrgencyMedium},
		{"plain old", "hello there", 49 * time.Hour, model.UrgencyLow},
		{"immediate and fresh", "immediate attention", 23 * time.Hour, model.UrgencyHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("", tt.body, refNow.Add(-tt.age), refNow)
			assert.Equal(t, tt.want, got.Urgency)
		})
	}
}

func TestClassifySentiment(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.Sentiment
	}{
		{"more positive", "thanks, great work, excellent, but one problem", model.SentimentPositive},
		{"tie with negatives", "thanks but there is a problem", model.SentimentNegative},
		{"only negative", "the deploy failed with an error", model.SentimentNegative},
		{"nothing", "see you on monday", model.SentimentNeutral},
		{"counts repeats", "good good good issue", model.SentimentPositive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("", tt.body, refNow, refNow)
			assert.Equal(t, tt.want, got.Sentiment)
		})
	}
}

func TestFallbackReportExample(t *testing.T) {
	msg := model.Message{
		ID:         "msg-1",
		Sender:     "boss@example.com",
		SenderName: "Boss",
		Subject:    "Quarterly report",
		Body:       "Please review the attached report. This is urgent, need response by Friday. Thanks for your help.",
		ReceivedAt: refNow.Add(-time.Hour),
	}

	got := Fallback(msg, refNow)

	assert.Equal(t, model.IntentActionRequired, got.Intent)
	assert.Equal(t, model.UrgencyHigh, got.Urgency)
	assert.Equal(t, model.SentimentNegative, got.Sentiment)
	assert.Equal(t, model.SourceHeuristic, got.Source)
	assert.Equal(t, "Please review the attached report. This is urgent, need response by Friday.", got.Summary)
	require.Len(t, got.Replies, model.ReplyCount)
	assert.Equal(t, Replies(model.IntentActionRequired), got.Replies)
	for _, r := range got.Replies {
		assert.NotEmpty(t, r.Label)
		assert.NotEmpty(t, r.Text)
	}

	msg.ReceivedAt = refNow.Add(-30 * time.Hour)
	assert.Equal(t, model.UrgencyMedium, Fallback(msg, refNow).Urgency)

	msg.ReceivedAt = refNow.Add(-72 * time.Hour)
	assert.Equal(t, model.UrgencyLow, Fallback(msg, refNow).Urgency)
}
