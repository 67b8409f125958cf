package store

import (
	"fmt"
	"strings"

	"mailmind/internal/model"
)

// Filter selects a subset of the working set.
type Filter string

const (
	FilterAll            Filter = "all"
	FilterHighUrgency    Filter = "high"
	FilterActionRequired Filter = "action"
	FilterMeetingRequest Filter = "meeting"
	FilterAIProcessed    Filter = "ai"
)

// ParseFilter accepts the query-string names. An empty value means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterHighUrgency, FilterActionRequired, FilterMeetingRequest, FilterAIProcessed:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q", s)
	}
}

func (f Filter) Matches(e model.Email) bool {
	switch f {
	case FilterHighUrgency:
		return e.Classification.Urgency == model.UrgencyHigh
	case FilterActionRequired:
		return e.Classification.Intent == model.IntentActionRequired
	case FilterMeetingRequest:
		return e.Classification.Intent == model.IntentMeetingRequest
	case FilterAIProcessed:
		return e.Classification.IsAI()
	default:
		return true
	}
}
