package model

import (
	"fmt"
	"strings"
)

type Intent string

const (
	IntentInformational  Intent = "Informational"
	IntentActionRequired Intent = "Action Required"
	IntentMeetingRequest Intent = "Meeting Request"
	IntentFollowUp       Intent = "Follow-up"
	IntentSpam           Intent = "Spam"
)

type Urgency string

const (
	UrgencyHigh   Urgency = "High"
	UrgencyMedium Urgency = "Medium"
	UrgencyLow    Urgency = "Low"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// Source tells which path produced a classification.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceAI        Source = "ai"
)

// ReplyCount is the number of drafts every classification carries.
const ReplyCount = 3

// ReplyDraft is one suggested reply; ID is its 1-based position.
type ReplyDraft struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

type Classification struct {
	Intent    Intent       `json:"intent"`
	Urgency   Urgency      `json:"urgency"`
	Sentiment Sentiment    `json:"sentiment"`
	Summary   string       `json:"summary"`
	Replies   []ReplyDraft `json:"replies"`
	Source    Source       `json:"source"`
}

func (c Classification) IsAI() bool {
	return c.Source == SourceAI
}

// Reply returns the draft with the given id.
func (c Classification) Reply(id int) (ReplyDraft, bool) {
	for _, r := range c.Replies {
		if r.ID == id {
			return r, true
		}
	}
	return ReplyDraft{}, false
}

var intents = []Intent{IntentInformational, IntentActionRequired, IntentMeetingRequest, IntentFollowUp, IntentSpam}

// ParseIntent accepts the wire names case-insensitively.
func ParseIntent(s string) (Intent, error) {
	s = strings.TrimSpace(s)
	for _, i := range intents {
		if strings.EqualFold(string(i), s) {
			return i, nil
		}
	}
	return "", fmt.Errorf("unknown intent %q", s)
}

func ParseUrgency(s string) (Urgency, error) {
	s = strings.TrimSpace(s)
	for _, u := range []Urgency{UrgencyHigh, UrgencyMedium, UrgencyLow} {
		if strings.EqualFold(string(u), s) {
			return u, nil
		}
	}
	return "", fmt.Errorf("unknown urgency %q", s)
}

func ParseSentiment(s string) (Sentiment, error) {
	s = strings.TrimSpace(s)
	for _, v := range []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative} {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown sentiment %q", s)
}
