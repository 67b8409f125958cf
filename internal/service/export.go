package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"mailmind/internal/store"
)

// csvTimeLayout matches JavaScript's Date.toISOString.
const csvTimeLayout = "2006-01-02T15:04:05.000Z"

var csvHeader = []string{
	"Email ID",
	"Sender Email",
	"Sender Name",
	"Subject",
	"Received At",
	"Summary",
	"Intent",
	"Urgency",
	"Sentiment",
	"Full Email Body",
	"AI Processed",
	"Selected Action",
	"Drafted Reply",
	"Processed At",
}

// WriteCSV writes one row per entry in the given order.
func WriteCSV(w io.Writer, entries []store.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, e := range entries {
		if err := cw.Write(csvRow(e)); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", e.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func csvRow(e store.Entry) []string {
	aiProcessed := "No"
	if e.Classification.IsAI() {
		aiProcessed = "Yes"
	}

	action, draft, processedAt := "Not Processed", "", ""
	if e.Processed != nil {
		processedAt = formatCSVTime(e.Processed.ProcessedAt)
		if r := e.Processed.SelectedReply; r != nil {
			action, draft = r.Label, r.Text
		}
	}

	return []string{
		e.ID,
		e.Sender,
		e.SenderName,
		e.Subject,
		formatCSVTime(e.ReceivedAt),
		e.Classification.Summary,
		string(e.Classification.Intent),
		string(e.Classification.Urgency),
		string(e.Classification.Sentiment),
		e.Body,
		aiProcessed,
		action,
		draft,
		processedAt,
	}
}

func formatCSVTime(t time.Time) string {
	return t.UTC().Format(csvTimeLayout)
}
