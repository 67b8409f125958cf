package ai

import (
	"fmt"

	"mailmind/internal/model"
)

// maxPromptBody is the number of body characters embedded in the prompt.
const maxPromptBody = 2000

const promptTemplate = `Analyze this email and provide a JSON response with the following structure:
{
  "summary": "3-5 sentence summary of the email",
  "intent": "one of: Informational, Action Required, Meeting Request, Follow-up, Spam",
  "urgency": "one of: High, Medium, Low",
  "sentiment": "one of: Positive, Neutral, Negative",
  "replies": [
    {"id": 1, "label": "Short label", "text": "Full reply text"},
    {"id": 2, "label": "Short label", "text": "Full reply text"},
    {"id": 3, "label": "Short label", "text": "Full reply text"}
  ]
}

Email Details:
Subject: %s
From: %s
Body: %s

Respond ONLY with valid JSON, no additional text or markdown formatting.`

func buildPrompt(msg model.Message) string {
	return fmt.Sprintf(promptTemplate, msg.Subject, msg.SenderName, truncate(msg.Body, maxPromptBody))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
