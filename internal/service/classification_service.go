package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mailmind/internal/heuristic"
	"mailmind/internal/logger"
	"mailmind/internal/model"
)

const (
	DefaultAIBatchSize  = 3
	DefaultAIBatchDelay = 2 * time.Second
)

// ClassificationOptions configures the classifier. An empty APIKey disables
// the remote path.
type ClassificationOptions struct {
	APIKey     string
	BatchSize  int
	BatchDelay time.Duration
	Sleep      SleepFunc
	Now        func() time.Time
}

func (o ClassificationOptions) withDefaults() ClassificationOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultAIBatchSize
	}
	if o.BatchDelay <= 0 {
		o.BatchDelay = DefaultAIBatchDelay
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type classificationService struct {
	aiClient AIClient
	opts     ClassificationOptions
	logger   *logger.Logger
}

func NewClassificationService(aiClient AIClient, opts ClassificationOptions, logger *logger.Logger) ClassificationService {
	return &classificationService{
		aiClient: aiClient,
		opts:     opts.withDefaults(),
		logger:   logger.With("classifier"),
	}
}

func (s *classificationService) AIEnabled() bool {
	return s.opts.APIKey != "" && s.aiClient != nil
}

// ProcessOne classifies a single message. With an API key the remote
// classifier is used and its failure is returned as is; without one the
// heuristic result is returned and the call cannot fail.
func (s *classificationService) ProcessOne(ctx context.Context, msg model.Message) (model.Classification, error) {
	if !s.AIEnabled() {
		return heuristic.Fallback(msg, s.opts.Now()), nil
	}

	c, err := s.aiClient.ClassifyMessage(ctx, msg, s.opts.APIKey)
	if err != nil {
		return model.Classification{}, fmt.Errorf("failed to classify message %s: %w", msg.ID, err)
	}
	return c, nil
}

// ProcessAll runs the remote classifier over every pending message of set,
// BatchSize calls at a time with BatchDelay between groups. A failed message
// keeps its previous classification and is counted, never retried.
func (s *classificationService) ProcessAll(ctx context.Context, set WorkingSet, onProgress ProgressFunc) (*BatchResult, error) {
	if !s.AIEnabled() {
		return nil, fmt.Errorf("batch classification needs an AI key: %w", model.ErrConfigMissing)
	}

	pending := set.Pending()
	result := &BatchResult{FailedIDs: []string{}}
	size := s.opts.BatchSize

	for start := 0; start < len(pending); start += size {
		end := min(start+size, len(pending))
		group := pending[start:end]

		classifications := make([]model.Classification, len(group))
		errs := make([]error, len(group))

		var wg sync.WaitGroup
		for i, msg := range group {
			wg.Add(1)
			go func(i int, msg model.Message) {
				defer wg.Done()
				classifications[i], errs[i] = s.aiClient.ClassifyMessage(ctx, msg, s.opts.APIKey)
			}(i, msg)
		}
		wg.Wait()

		for i, msg := range group {
			if errs[i] != nil {
				s.logger.Warnf("batch classification of %s failed: %v", msg.ID, errs[i])
				result.Failed++
				result.FailedIDs = append(result.FailedIDs, msg.ID)
				continue
			}
			set.UpdateClassification(msg.ID, classifications[i])
			result.Succeeded++
		}
		result.Processed = result.Succeeded + result.Failed

		if onProgress != nil {
			onProgress(Progress{
				Stage:     StageClassify,
				Done:      end,
				Total:     len(pending),
				Succeeded: result.Succeeded,
				Failed:    result.Failed,
			})
		}

		if end < len(pending) {
			if err := s.opts.Sleep(ctx, s.opts.BatchDelay); err != nil {
				return result, fmt.Errorf("batch classification stopped after %d messages: %w", end, err)
			}
		}
	}

	s.logger.Infof("batch classification done: %d succeeded, %d failed", result.Succeeded, result.Failed)
	return result, nil
}
