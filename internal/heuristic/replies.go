package heuristic

import "mailmind/internal/model"

var meetingReplies = []model.ReplyDraft{
	{ID: 1, Label: "Confirm Attendance", Text: "Thank you for the meeting invitation. I'll be there at the scheduled time."},
	{ID: 2, Label: "Request Reschedule", Text: "I appreciate the invitation. Unfortunately, I have a conflict. Could we find an alternative time?"},
	{ID: 3, Label: "Will Confirm", Text: "Thanks for reaching out. Let me check my schedule and I'll get back to you within the hour."},
}

var actionReplies = []model.ReplyDraft{
	{ID: 1, Label: "Acknowledge & Commit", Text: "Thanks for bringing this to my attention. I'll prioritize this and have it completed by the deadline."},
	{ID: 2, Label: "In Progress Update", Text: "I'm currently working on this task and will update you with progress shortly."},
	{ID: 3, Label: "Task Complete", Text: "Completed as requested. Please let me know if you need any clarification or additional information."},
}

var followUpReplies = []model.ReplyDraft{
	{ID: 1, Label: "Status Update", Text: "Thank you for following up. Here's the current status: [provide update]. I'll keep you posted on further developments."},
	{ID: 2, Label: "Timeline Confirmation", Text: "I appreciate you checking in. I'm on track to complete this by end of day today."},
	{ID: 3, Label: "Prioritize & Commit", Text: "Thanks for the reminder. This is now at the top of my priority list and I'll respond with details within 2 hours."},
}

var defaultReplies = []model.ReplyDraft{
	{ID: 1, Label: "Acknowledge Receipt", Text: "Thank you for sharing this information. I've reviewed the details and will reach out if I have any questions."},
	{ID: 2, Label: "Grateful Response", Text: "I appreciate you keeping me informed. This is helpful context and I'll factor it into my planning."},
	{ID: 3, Label: "Stay Informed", Text: "Noted, thanks. Please continue to keep me updated on any significant developments."},
}

// Replies returns the three template drafts for an intent. Intents without a
// dedicated table (Informational, Spam) get the acknowledgement set. The
// returned slice is a fresh copy.
func Replies(intent model.Intent) []model.ReplyDraft {
	var table []model.ReplyDraft
	switch intent {
	case model.IntentMeetingRequest:
		table = meetingReplies
	case model.IntentActionRequired:
		table = actionReplies
	case model.IntentFollowUp:
		table = followUpReplies
	default:
		table = defaultReplies
	}
	return append([]model.ReplyDraft(nil), table...)
}
