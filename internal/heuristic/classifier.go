// Package heuristic is the rule-based fallback used when no AI key is
// configured: keyword classification, extractive summaries and template replies.
package heuristic

import (
	"regexp"
	"strings"
	"time"

	"mailmind/internal/model"
)

// Intent keyword sets, tested in this order. The first match wins.
var intentRules = []struct {
	intent  model.Intent
	pattern *regexp.Regexp
}{
	{model.IntentMeetingRequest, regexp.MustCompile(`\b(meeting|schedule|calendar|appointment|call|zoom|teams)\b`)},
	{model.IntentActionRequired, regexp.MustCompile(`\b(urgent|asap|important|critical|action required|need|deadline|respond|reply needed)\b`)},
	{model.IntentFollowUp, regexp.MustCompile(`\b(follow up|following up|checking in|status update|progress)\b`)},
	{model.IntentInformational, regexp.MustCompile(`\b(fyi|for your information|heads up|update|notification)\b`)},
}

// Urgency keyword sets are separate from the intent sets.
var (
	urgentPattern    = regexp.MustCompile(`\b(urgent|asap|emergency|critical|immediate)\b`)
	importantPattern = regexp.MustCompile(`\b(important|deadline|required|today|tomorrow)\b`)
)

var (
	positivePattern = regexp.MustCompile(`\b(thank|thanks|great|excellent|appreciate|good|wonderful|pleased|happy)\b`)
	negativePattern = regexp.MustCompile(`\b(urgent|problem|issue|concern|error|failed|wrong|disappointed)\b`)
)

const (
	highUrgencyWindow   = 24 * time.Hour
	mediumUrgencyWindow = 48 * time.Hour
)

// Result is the keyword-derived part of a classification.
type Result struct {
	Intent    model.Intent
	Urgency   model.Urgency
	Sentiment model.Sentiment
}

// Classify assigns intent, urgency and sentiment from subject and body text.
// now is the reference time for the message age.
func Classify(subject, body string, receivedAt, now time.Time) Result {
	text := strings.ToLower(body + " " + subject)
	age := now.Sub(receivedAt)

	return Result{
		Intent:    classifyIntent(text),
		Urgency:   classifyUrgency(text, age),
		Sentiment: classifySentiment(text),
	}
}

func classifyIntent(text string) model.Intent {
	for _, rule := range intentRules {
		if rule.pattern.MatchString(text) {
			return rule.intent
		}
	}
	return model.IntentInformational
}

func classifyUrgency(text string, age time.Duration) model.Urgency {
	switch {
	case urgentPattern.MatchString(text) && age < highUrgencyWindow:
		return model.UrgencyHigh
	case importantPattern.MatchString(text) || age < mediumUrgencyWindow:
		return model.UrgencyMedium
	default:
		return model.UrgencyLow
	}
}

func classifySentiment(text string) model.Sentiment {
	positive := len(positivePattern.FindAllStringIndex(text, -1))
	negative := len(negativePattern.FindAllStringIndex(text, -1))

	switch {
	case positive > negative:
		return model.SentimentPositive
	case negative > 0:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

// Fallback builds a complete heuristic classification for a message.
func Fallback(msg model.Message, now time.Time) model.Classification {
	result := Classify(msg.Subject, msg.Body, msg.ReceivedAt, now)
	return model.Classification{
		Intent:    result.Intent,
		Urgency:   result.Urgency,
		Sentiment: result.Sentiment,
		Summary:   Summarize(msg.SenderName, msg.Subject, msg.Body),
		Replies:   Replies(result.Intent),
		Source:    model.SourceHeuristic,
	}
}
