package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"mailmind/internal/heuristic"
	"mailmind/internal/logger"
	"mailmind/internal/model"
	"mailmind/internal/repository"
	"mailmind/internal/store"
)

const (
	DefaultMaxFetchEmails  = 50
	DefaultFetchBatchSize  = 10
	DefaultFetchBatchDelay = 500 * time.Millisecond
)

type InboxOptions struct {
	MaxResults      int64
	FetchBatchSize  int
	FetchBatchDelay time.Duration
	Sleep           SleepFunc
	Now             func() time.Time
}

func (o InboxOptions) withDefaults() InboxOptions {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxFetchEmails
	}
	if o.FetchBatchSize <= 0 {
		o.FetchBatchSize = DefaultFetchBatchSize
	}
	if o.FetchBatchDelay <= 0 {
		o.FetchBatchDelay = DefaultFetchBatchDelay
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type inboxService struct {
	registry      *store.Registry
	processedRepo repository.ProcessedRepository
	classifier    ClassificationService
	mailClients   MailClientFactory
	opts          InboxOptions
	logger        *logger.Logger

	// saveLocks holds one *sync.Mutex per user; snapshot and Save run under it.
	saveLocks sync.Map
}

func NewInboxService(
	registry *store.Registry,
	processedRepo repository.ProcessedRepository,
	classifier ClassificationService,
	mailClients MailClientFactory,
	opts InboxOptions,
	logger *logger.Logger,
) InboxService {
	return &inboxService{
		registry:      registry,
		processedRepo: processedRepo,
		classifier:    classifier,
		mailClients:   mailClients,
		opts:          opts.withDefaults(),
		logger:        logger.With("inbox"),
	}
}

// workspace returns the user's store, loading persisted records the first
// time. A failed load starts the session with no records.
func (s *inboxService) workspace(ctx context.Context, userID string) *store.EmailStore {
	return s.registry.Open(userID, func(es *store.EmailStore) {
		es.WithClock(s.opts.Now)

		records, err := s.processedRepo.Load(ctx, repository.ProcessedKey(userID))
		if err != nil {
			s.logger.Errorf("failed to load processed records for %s, starting empty: %v", userID, err)
			return
		}
		es.LoadProcessed(records)
		s.logger.Debugf("loaded %d processed records for %s", len(records), userID)
	})
}

// persist writes the full processed mapping. Failures are logged and dropped.
// Saves for one user are serialized so an older snapshot never lands after a
// newer one.
func (s *inboxService) persist(ctx context.Context, userID string, es *store.EmailStore) {
	lock, _ := s.saveLocks.LoadOrStore(userID, &sync.Mutex{})
	mutex := lock.(*sync.Mutex)
	mutex.Lock()
	defer mutex.Unlock()

	key := repository.ProcessedKey(userID)
	if err := s.processedRepo.Save(ctx, key, es.ProcessedSnapshot()); err != nil {
		s.logger.Errorf("failed to save processed records for %s: %v", userID, err)
	}
}

// attached reports whether es is still the user's open workspace.
func (s *inboxService) attached(userID string, es *store.EmailStore) bool {
	current, ok := s.registry.Lookup(userID)
	return ok && current == es
}

// Refresh replaces the user's working set with the current inbox. Messages
// are fetched FetchBatchSize at a time; each batch is appended as soon as it
// completes. A message that fails to fetch or parse is skipped. The run stops
// if the workspace is closed (logout) while it is in flight.
func (s *inboxService) Refresh(ctx context.Context, user *model.User, onProgress ProgressFunc) (*FetchResult, error) {
	if user.AccessToken == "" {
		return nil, fmt.Errorf("user %s has no access token: %w", user.ID, model.ErrConfigMissing)
	}
	es := s.workspace(ctx, user.ID)

	client, err := s.mailClients(ctx, user.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	account, err := client.Profile(ctx)
	if err != nil {
		return nil, err
	}

	ids, err := client.ListInboxIDs(ctx, s.opts.MaxResults)
	if err != nil {
		return nil, err
	}

	if !s.attached(user.ID, es) {
		return nil, fmt.Errorf("refresh for %s: %w", user.ID, model.ErrWorkspaceClosed)
	}
	es.ReplaceAll(nil)

	result := &FetchResult{Account: account, Listed: len(ids)}
	size := s.opts.FetchBatchSize

	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batch := ids[start:end]

		fetched := make([]*model.Email, len(batch))
		var wg sync.WaitGroup
		for i, id := range batch {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				msg, err := client.GetMessage(ctx, id)
				if err != nil {
					s.logger.Warnf("skipping message %s: %v", id, err)
					return
				}
				email := model.NewEmail(msg, heuristic.Fallback(msg, s.opts.Now()))
				fetched[i] = &email
			}(i, id)
		}
		wg.Wait()

		loaded := make([]model.Email, 0, len(batch))
		for _, email := range fetched {
			if email == nil {
				result.Skipped++
				continue
			}
			loaded = append(loaded, *email)
		}
		if !s.attached(user.ID, es) {
			return result, fmt.Errorf("refresh for %s stopped after %d messages: %w", user.ID, start, model.ErrWorkspaceClosed)
		}
		es.Append(loaded)
		result.Loaded += len(loaded)

		if onProgress != nil {
			onProgress(Progress{
				Stage:     StageFetch,
				Done:      end,
				Total:     len(ids),
				Succeeded: result.Loaded,
				Failed:    result.Skipped,
			})
		}

		if end < len(ids) {
			if err := s.opts.Sleep(ctx, s.opts.FetchBatchDelay); err != nil {
				return result, fmt.Errorf("fetch stopped after %d messages: %w", end, err)
			}
		}
	}

	s.logger.Infof("loaded %d of %d inbox messages for %s", result.Loaded, result.Listed, account)
	return result, nil
}

// ClassifyOne reclassifies one message. On failure the stored classification
// is left untouched.
func (s *inboxService) ClassifyOne(ctx context.Context, userID, emailID string) (store.Entry, error) {
	es := s.workspace(ctx, userID)
	entry, found := es.Get(emailID)
	if !found {
		return store.Entry{}, model.ErrEmailNotFound
	}

	c, err := s.classifier.ProcessOne(ctx, entry.Message)
	if err != nil {
		return store.Entry{}, err
	}

	if !es.UpdateClassification(emailID, c) {
		return store.Entry{}, model.ErrEmailNotFound
	}
	entry, _ = es.Get(emailID)
	return entry, nil
}

// CheckClassifyAll reports how many messages a batch run would cover, or why
// it cannot start.
func (s *inboxService) CheckClassifyAll(ctx context.Context, userID string) (int, error) {
	if !s.classifier.AIEnabled() {
		return 0, fmt.Errorf("batch classification needs an AI key: %w", model.ErrConfigMissing)
	}
	pending := len(s.workspace(ctx, userID).Pending())
	if pending == 0 {
		return 0, model.ErrNoPendingMessages
	}
	return pending, nil
}

func (s *inboxService) ClassifyAll(ctx context.Context, userID string, onProgress ProgressFunc) (*BatchResult, error) {
	if _, err := s.CheckClassifyAll(ctx, userID); err != nil {
		return nil, err
	}
	return s.classifier.ProcessAll(ctx, s.workspace(ctx, userID), onProgress)
}

func (s *inboxService) SelectReply(ctx context.Context, userID, emailID string, replyID int) (model.ProcessedRecord, error) {
	es := s.workspace(ctx, userID)
	entry, found := es.Get(emailID)
	if !found {
		return model.ProcessedRecord{}, model.ErrEmailNotFound
	}

	reply, found := entry.Classification.Reply(replyID)
	if !found {
		return model.ProcessedRecord{}, fmt.Errorf("email %s has no reply %d: %w", emailID, replyID, model.ErrReplyNotFound)
	}

	record := es.MarkProcessed(emailID, &reply)
	s.persist(ctx, userID, es)
	return record, nil
}

// MarkProcessed records the message as handled without a reply. The id does
// not have to be in the current working set.
func (s *inboxService) MarkProcessed(ctx context.Context, userID, emailID string) (model.ProcessedRecord, error) {
	es := s.workspace(ctx, userID)
	record := es.MarkProcessed(emailID, nil)
	s.persist(ctx, userID, es)
	return record, nil
}

func (s *inboxService) MarkAllProcessed(ctx context.Context, userID string) (int, error) {
	es := s.workspace(ctx, userID)
	added := es.MarkAllProcessed()
	if added > 0 {
		s.persist(ctx, userID, es)
	}
	return added, nil
}

func (s *inboxService) Query(ctx context.Context, userID string, filter store.Filter, search string) []store.Entry {
	return s.workspace(ctx, userID).Query(filter, search)
}

func (s *inboxService) Get(ctx context.Context, userID, emailID string) (store.Entry, error) {
	entry, found := s.workspace(ctx, userID).Get(emailID)
	if !found {
		return store.Entry{}, model.ErrEmailNotFound
	}
	return entry, nil
}

func (s *inboxService) Stats(ctx context.Context, userID string) store.Stats {
	return s.workspace(ctx, userID).Stats()
}

func (s *inboxService) Export(ctx context.Context, userID string, filter store.Filter, search string, w io.Writer) (int, error) {
	entries := s.workspace(ctx, userID).Query(filter, search)
	if err := WriteCSV(w, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *inboxService) AIEnabled() bool {
	return s.classifier.AIEnabled()
}

// CloseWorkspace drops the in-memory working set. Persisted records remain.
func (s *inboxService) CloseWorkspace(userID string) {
	s.registry.Drop(userID)
	s.logger.Debugf("closed workspace for %s", userID)
}
