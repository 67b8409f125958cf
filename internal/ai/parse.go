package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mailmind/internal/model"
)

var fenceReplacer = strings.NewReplacer("```json", "", "```", "")

// stripCodeFences removes markdown fences the model sometimes adds despite
// being told not to.
func stripCodeFences(text string) string {
	return strings.TrimSpace(fenceReplacer.Replace(text))
}

type remoteReply struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type remoteClassification struct {
	Summary   *string        `json:"summary"`
	Intent    *string        `json:"intent"`
	Urgency   *string        `json:"urgency"`
	Sentiment *string        `json:"sentiment"`
	Replies   *[]remoteReply `json:"replies"`
}

// parseClassification turns the model text into a classification or fails
// with a parse error. It never returns a partially filled value.
func parseClassification(text string) (model.Classification, error) {
	var raw remoteClassification
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &raw); err != nil {
		return model.Classification{}, parseError(fmt.Errorf("invalid JSON: %w", err))
	}

	c, err := raw.validate()
	if err != nil {
		return model.Classification{}, parseError(err)
	}
	return c, nil
}

func (r remoteClassification) validate() (model.Classification, error) {
	switch {
	case r.Summary == nil || strings.TrimSpace(*r.Summary) == "":
		return model.Classification{}, missingField("summary")
	case r.Intent == nil:
		return model.Classification{}, missingField("intent")
	case r.Urgency == nil:
		return model.Classification{}, missingField("urgency")
	case r.Sentiment == nil:
		return model.Classification{}, missingField("sentiment")
	case r.Replies == nil:
		return model.Classification{}, missingField("replies")
	}

	intent, err := model.ParseIntent(*r.Intent)
	if err != nil {
		return model.Classification{}, err
	}
	urgency, err := model.ParseUrgency(*r.Urgency)
	if err != nil {
		return model.Classification{}, err
	}
	sentiment, err := model.ParseSentiment(*r.Sentiment)
	if err != nil {
		return model.Classification{}, err
	}

	replies := *r.Replies
	if len(replies) != model.ReplyCount {
		return model.Classification{}, fmt.Errorf("expected %d replies, got %d", model.ReplyCount, len(replies))
	}
	drafts := make([]model.ReplyDraft, len(replies))
	for i, reply := range replies {
		label, text := strings.TrimSpace(reply.Label), strings.TrimSpace(reply.Text)
		if label == "" || text == "" {
			return model.Classification{}, fmt.Errorf("reply %d is missing a label or text", i+1)
		}
		drafts[i] = model.ReplyDraft{ID: i + 1, Label: label, Text: text}
	}

	return model.Classification{
		Intent:    intent,
		Urgency:   urgency,
		Sentiment: sentiment,
		Summary:   strings.TrimSpace(*r.Summary),
		Replies:   drafts,
		Source:    model.SourceAI,
	}, nil
}

func missingField(name string) error {
	return errors.New("missing required field " + name)
}
