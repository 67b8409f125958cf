package model

import (
	"time"
)

// Message is a single inbox message as parsed from the mail provider.
// It is never mutated after creation.
type Message struct {
	ID         string    `json:"id"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"sender_name"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// Email pairs a message with its current classification. Re-classification
// replaces the Classification wholesale.
type Email struct {
	Message
	Classification Classification `json:"classification"`
}

func NewEmail(msg Message, classification Classification) Email {
	return Email{
		Message:        msg,
		Classification: classification,
	}
}

// ProcessedRecord marks that the user acted on a message. SelectedReply is a
// copy of the draft, not a reference into the classification.
type ProcessedRecord struct {
	ProcessedAt   time.Time   `json:"processedAt"`
	SelectedReply *ReplyDraft `json:"selectedReply"`
}

func NewProcessedRecord(at time.Time, reply *ReplyDraft) ProcessedRecord {
	record := ProcessedRecord{ProcessedAt: at}
	if reply != nil {
		snapshot := *reply
		record.SelectedReply = &snapshot
	}
	return record
}
