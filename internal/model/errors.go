package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigMissing is returned when a feature needs configuration that is absent
	// (no AI key, no OAuth client id).
	ErrConfigMissing = errors.New("configuration missing")
	// ErrEmailNotFound means the id is not in the current working set.
	ErrEmailNotFound = errors.New("email not found")
	// ErrReplyNotFound means the classification has no draft with the requested id.
	ErrReplyNotFound = errors.New("reply not found")
	// ErrNoPendingMessages is returned by batch classification when every message is already AI-classified.
	ErrNoPendingMessages = errors.New("no messages pending AI classification")
	// ErrWorkspaceClosed stops a background run whose user logged out meanwhile.
	ErrWorkspaceClosed = errors.New("workspace closed")
)

type RemoteErrorKind string

const (
	RemoteErrorTransport RemoteErrorKind = "transport"
	RemoteErrorStatus    RemoteErrorKind = "status"
	RemoteErrorParse     RemoteErrorKind = "parse"
)

// RemoteClassificationError is the single failure type of the remote classifier.
type RemoteClassificationError struct {
	Kind       RemoteErrorKind
	StatusCode int
	RawBody    string
	Err        error
}

func (e *RemoteClassificationError) Error() string {
	switch e.Kind {
	case RemoteErrorStatus:
		return fmt.Sprintf("remote classification failed with status %d: %s", e.StatusCode, e.RawBody)
	case RemoteErrorParse:
		return fmt.Sprintf("remote classification returned an invalid response: %v", e.Err)
	default:
		return fmt.Sprintf("remote classification request failed: %v", e.Err)
	}
}

func (e *RemoteClassificationError) Unwrap() error {
	return e.Err
}

// MessageParseError means a provider payload could not be turned into a Message.
type MessageParseError struct {
	MessageID string
	Err       error
}

func (e *MessageParseError) Error() string {
	return fmt.Sprintf("failed to parse message %s: %v", e.MessageID, e.Err)
}

func (e *MessageParseError) Unwrap() error {
	return e.Err
}

// StorageError wraps a durable key-value read or write failure.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
