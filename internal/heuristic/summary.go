package heuristic

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// A signature block starts on a new line.
	signaturePattern = regexp.MustCompile(`(?i)\n(--|___|\bSent from\b|\bBest regards\b|\bRegards\b|\bThanks\b)`)
	sentenceSplit    = regexp.MustCompile(`[.!?]+`)
)

var actionWords = []string{"request", "need", "require", "urgent", "please", "meeting", "deadline", "asap"}

const (
	minSentenceLen  = 20
	maxSentenceLen  = 200
	maxSummaryLen   = 300
	maxSummarySents = 3
	summaryEllipsis = "..."
	sentenceJoiner  = ". "
)

// Summarize picks up to three sentences from the body, preferring ones that
// contain an action word. The result is never empty and at most 303 characters.
func Summarize(senderName, subject, body string) string {
	if loc := signaturePattern.FindStringIndex(body); loc != nil {
		body = body[:loc[0]]
	}

	var sentences []string
	for _, s := range sentenceSplit.Split(body, -1) {
		s = strings.TrimSpace(s)
		n := utf8.RuneCountInString(s)
		if n > minSentenceLen && n < maxSentenceLen {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 {
		return fmt.Sprintf("Email from %s regarding: %s", senderName, subject)
	}

	source := sentences
	if preferred := withActionWords(sentences); len(preferred) > 0 {
		source = preferred
	}

	used := min(maxSummarySents, len(source))
	summary := strings.Join(source[:used], sentenceJoiner)

	switch {
	case utf8.RuneCountInString(summary) > maxSummaryLen:
		return string([]rune(summary)[:maxSummaryLen]) + summaryEllipsis
	case len(source) > used:
		return summary + summaryEllipsis
	default:
		return summary + "."
	}
}

func withActionWords(sentences []string) []string {
	var out []string
	for _, s := range sentences {
		lower := strings.ToLower(s)
		for _, w := range actionWords {
			if strings.Contains(lower, w) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
