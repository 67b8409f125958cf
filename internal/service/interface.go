package service

import (
	"context"
	"io"

	"mailmind/internal/model"
	"mailmind/internal/store"
)

type AuthService interface {
	GetOrCreateUser(ctx context.Context, googleID, email, name, accessToken, refreshToken string, tokenExpiry interface{}) (*model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

// ClassificationService decides between the remote classifier and the
// heuristic fallback.
type ClassificationService interface {
	ProcessOne(ctx context.Context, msg model.Message) (model.Classification, error)
	ProcessAll(ctx context.Context, set WorkingSet, onProgress ProgressFunc) (*BatchResult, error)
	AIEnabled() bool
}

type InboxService interface {
	Refresh(ctx context.Context, user *model.User, onProgress ProgressFunc) (*FetchResult, error)
	ClassifyOne(ctx context.Context, userID, emailID string) (store.Entry, error)
	CheckClassifyAll(ctx context.Context, userID string) (int, error)
	ClassifyAll(ctx context.Context, userID string, onProgress ProgressFunc) (*BatchResult, error)
	SelectReply(ctx context.Context, userID, emailID string, replyID int) (model.ProcessedRecord, error)
	MarkProcessed(ctx context.Context, userID, emailID string) (model.ProcessedRecord, error)
	MarkAllProcessed(ctx context.Context, userID string) (int, error)
	Query(ctx context.Context, userID string, filter store.Filter, search string) []store.Entry
	Get(ctx context.Context, userID, emailID string) (store.Entry, error)
	Stats(ctx context.Context, userID string) store.Stats
	Export(ctx context.Context, userID string, filter store.Filter, search string, w io.Writer) (int, error)
	AIEnabled() bool
	CloseWorkspace(userID string)
}

// WorkingSet is the part of the email store batch classification touches.
type WorkingSet interface {
	Pending() []model.Message
	UpdateClassification(id string, c model.Classification) bool
}

// MailClient reads the signed-in user's mailbox.
type MailClient interface {
	Profile(ctx context.Context) (string, error)
	ListInboxIDs(ctx context.Context, maxResults int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (model.Message, error)
}

// MailClientFactory builds a MailClient bound to one bearer credential.
type MailClientFactory func(ctx context.Context, accessToken string) (MailClient, error)

// AIClient interface for interacting with AI services
type AIClient interface {
	ClassifyMessage(ctx context.Context, msg model.Message, apiKey string) (model.Classification, error)
}

// Progress is reported after every fetch batch and every classification group.
type Progress struct {
	Stage     string `json:"stage"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

const (
	StageFetch    = "fetch"
	StageClassify = "classify"
)

type ProgressFunc func(Progress)

// BatchResult tallies a batch classification run. FailedIDs lets a caller
// retry individual messages with ProcessOne.
type BatchResult struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Processed int      `json:"processed"`
	FailedIDs []string `json:"failed_ids"`
}

// FetchResult summarizes one Refresh.
type FetchResult struct {
	Account string `json:"account"`
	Listed  int    `json:"listed"`
	Loaded  int    `json:"loaded"`
	Skipped int    `json:"skipped"`
}
