package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"mailmind/internal/ai"
	"mailmind/internal/gmail"
	"mailmind/internal/logger"
	"mailmind/internal/model"
	"mailmind/internal/repository"
	"mailmind/internal/repository/memory"
	"mailmind/internal/service"
	"mailmind/internal/store"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard)
}

type fakeSleeper struct {
	mutex sync.Mutex
	calls []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = append(f.calls, d)
	return nil
}

func (f *fakeSleeper) Calls() []time.Duration {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]time.Duration(nil), f.calls...)
}

func messages(n int) []model.Message {
	out := make([]model.Message, n)
	for i := range out {
		out[i] = model.Message{
			ID:         fmt.Sprintf("m%d", i+1),
			Sender:     "boss@example.com",
			SenderName: "Boss",
			Subject:    fmt.Sprintf("Report %d", i+1),
			Body:       "Please review the attached report. This is urgent, need response by Friday.",
			ReceivedAt: fixedNow.Add(-time.Hour),
		}
	}
	return out
}

func heuristicSet(msgs []model.Message) *store.EmailStore {
	es := store.NewEmailStore().WithClock(clock)
	emails := make([]model.Email, len(msgs))
	for i, m := range msgs {
		emails[i] = model.NewEmail(m, model.Classification{
			Intent:  model.IntentInformational,
			Urgency: model.UrgencyLow,
			Summary: "heuristic " + m.ID,
			Source:  model.SourceHeuristic,
		})
	}
	es.ReplaceAll(emails)
	return es
}

func aiResult(summary string) model.Classification {
	return model.Classification{
		Intent:    model.IntentFollowUp,
		Urgency:   model.UrgencyMedium,
		Sentiment: model.SentimentPositive,
		Summary:   summary,
		Replies: []model.ReplyDraft{
			{ID: 1, Label: "A", Text: "a"},
			{ID: 2, Label: "B", Text: "b"},
			{ID: 3, Label: "C", Text: "c"},
		},
		Source: model.SourceAI,
	}
}

// failingAI fails for the listed ids and succeeds for the rest.
func failingAI(failIDs ...string) *ai.MockAIClient {
	fail := make(map[string]bool, len(failIDs))
	for _, id := range failIDs {
		fail[id] = true
	}
	mock := ai.NewMockAIClient()
	mock.ClassifyMessageFunc = func(ctx context.Context, msg model.Message, apiKey string) (model.Classification, error) {
		if fail[msg.ID] {
			return model.Classification{}, &model.RemoteClassificationError{Kind: model.RemoteErrorStatus, StatusCode: 503, RawBody: "overloaded"}
		}
		return aiResult("ai " + msg.ID), nil
	}
	return mock
}

type failingRepo struct{}

var errDiskFull = errors.New("disk full")

func (failingRepo) Load(ctx context.Context, key string) (map[string]model.ProcessedRecord, error) {
	return nil, &model.StorageError{Op: "load", Key: key, Err: errDiskFull}
}

func (failingRepo) Save(ctx context.Context, key string, records map[string]model.ProcessedRecord) error {
	return &model.StorageError{Op: "save", Key: key, Err: errDiskFull}
}

type inboxFixture struct {
	inbox   service.InboxService
	mail    *gmail.MockGmailClient
	repo    *memory.InMemoryProcessedRepository
	sleeper *fakeSleeper
}

func newInboxFixture(apiKey string, aiClient service.AIClient, msgs ...model.Message) *inboxFixture {
	f := &inboxFixture{
		mail:    gmail.NewMockGmailClient(msgs...),
		repo:    memory.NewInMemoryProcessedRepository(),
		sleeper: &fakeSleeper{},
	}
	f.inbox = buildInbox(apiKey, aiClient, f.repo, f.mail, f.sleeper)
	return f
}

func buildInbox(apiKey string, aiClient service.AIClient, repo repository.ProcessedRepository, mail service.MailClient, sleeper *fakeSleeper) service.InboxService {
	classifier := service.NewClassificationService(aiClient, service.ClassificationOptions{
		APIKey: apiKey,
		Sleep:  sleeper.Sleep,
		Now:    clock,
	}, quietLogger())
	return service.NewInboxService(
		store.NewRegistry(),
		repo,
		classifier,
		func(ctx context.Context, accessToken string) (service.MailClient, error) {
			return mail, nil
		},
		service.InboxOptions{Sleep: sleeper.Sleep, Now: clock},
		quietLogger(),
	)
}

var testUser = &model.User{ID: "user-1", Email: "me@example.com", AccessToken: "token"}
