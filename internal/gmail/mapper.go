package gmail

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"mailmind/internal/model"
)

const noSubject = "(No Subject)"

var (
	angleAddress = regexp.MustCompile(`<(.+?)>`)
	nameQuotes   = strings.NewReplacer(`"`, "", `'`, "")
)

// ParseMessage converts a full-format Gmail message into a Message.
func ParseMessage(msg *gmailapi.Message) (model.Message, error) {
	if msg == nil {
		return model.Message{}, &model.MessageParseError{Err: errors.New("nil message")}
	}
	if msg.Payload == nil {
		return model.Message{}, &model.MessageParseError{MessageID: msg.Id, Err: errors.New("no payload")}
	}

	headers := msg.Payload.Headers
	sender, senderName := parseSender(findHeader(headers, "From"))

	subject := findHeader(headers, "Subject")
	if subject == "" {
		subject = noSubject
	}

	return model.Message{
		ID:         msg.Id,
		Sender:     sender,
		SenderName: senderName,
		Subject:    subject,
		Body:       extractBody(msg.Payload),
		ReceivedAt: time.UnixMilli(msg.InternalDate).UTC(),
	}, nil
}

// findHeader performs a case-insensitive lookup for a header value.
func findHeader(headers []*gmailapi.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// parseSender splits a From header into address and display name. Without a
// usable display name the local part of the address is used.
func parseSender(from string) (email, name string) {
	email, name = from, from
	if m := angleAddress.FindStringSubmatch(from); m != nil {
		email = m[1]
		name = nameQuotes.Replace(strings.TrimSpace(angleAddress.ReplaceAllString(from, "")))
		if name == "" {
			name = email
		}
	}

	if name == "" || name == email {
		name, _, _ = strings.Cut(email, "@")
	}
	return email, name
}

// extractBody returns the first text/plain or text/html part with data,
// depth first.
func extractBody(part *gmailapi.MessagePart) string {
	if part == nil {
		return ""
	}

	if part.Body != nil && part.Body.Data != "" && (part.MimeType == "text/plain" || part.MimeType == "text/html") {
		if text, err := decodeBase64URL(part.Body.Data); err == nil {
			return text
		}
	}

	for _, p := range part.Parts {
		if body := extractBody(p); body != "" {
			return body
		}
	}
	return ""
}

// decodeBase64URL decodes Gmail's URL-safe base64, padded or not.
func decodeBase64URL(s string) (string, error) {
	s = strings.TrimRight(s, "=")
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
