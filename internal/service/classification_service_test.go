package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailmind/internal/ai"
	"mailmind/internal/model"
	"mailmind/internal/service"
)

func TestProcessOneWithoutKeyUsesHeuristics(t *testing.T) {
	mock := ai.NewMockAIClient()
	mock.ClassifyMessageFunc = func(ctx context.Context, msg model.Message, apiKey string) (model.Classification, error) {
		t.Fatal("remote classifier must not be called without a key")
		return model.Classification{}, nil
	}
	classifier := service.NewClassificationService(mock, service.ClassificationOptions{Now: clock}, quietLogger())

	c, err := classifier.ProcessOne(context.Background(), messages(1)[0])

	require.NoError(t, err)
	assert.False(t, classifier.AIEnabled())
	assert.Equal(t, model.SourceHeuristic, c.Source)
	assert.Equal(t, model.IntentActionRequired, c.Intent)
	assert.Equal(t, model.UrgencyHigh, c.Urgency)
	assert.Len(t, c.Replies, model.ReplyCount)
}

func TestProcessOnePropagatesRemoteFailure(t *testing.T) {
	classifier := service.NewClassificationService(failingAI("m1"), service.ClassificationOptions{APIKey: "k"}, quietLogger())

	c, err := classifier.ProcessOne(context.Background(), messages(1)[0])

	var remoteErr *model.RemoteClassificationError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 503, remoteErr.StatusCode)
	assert.Equal(t, model.Classification{}, c)
}

func TestProcessOneWithKey(t *testing.T) {
	classifier := service.NewClassificationService(failingAI(), service.ClassificationOptions{APIKey: "k"}, quietLogger())

	c, err := classifier.ProcessOne(context.Background(), messages(1)[0])

	require.NoError(t, err)
	assert.Equal(t, "ai m1", c.Summary)
}

func TestProcessAllRequiresKey(t *testing.T) {
	classifier := service.NewClassificationService(failingAI(), service.ClassificationOptions{}, quietLogger())

	_, err := classifier.ProcessAll(context.Background(), heuristicSet(messages(3)), nil)

	assert.True(t, errors.Is(err, model.ErrConfigMissing))
}

func TestProcessAllSevenMessages(t *testing.T) {
	sleeper := &fakeSleeper{}
	classifier := service.NewClassificationService(failingAI("m2", "m5"), service.ClassificationOptions{
		APIKey: "k",
		Sleep:  sleeper.Sleep,
	}, quietLogger())
	set := heuristicSet(messages(7))

	var progress []service.Progress
	result, err := classifier.ProcessAll(context.Background(), set, func(p service.Progress) {
		progress = append(progress, p)
	})

	require.NoError(t, err)
	assert.Equal(t, &service.BatchResult{
		Succeeded: 5,
		Failed:    2,
		Processed: 7,
		FailedIDs: []string{"m2", "m5"},
	}, result)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleeper.Calls())

	require.Len(t, progress, 3)
	assert.Equal(t, []int{3, 6, 7}, []int{progress[0].Done, progress[1].Done, progress[2].Done})
	assert.Equal(t, service.StageClassify, progress[2].Stage)

	failed, _ := set.Get("m2")
	assert.Equal(t, "heuristic m2", failed.Classification.Summary)
	ok, _ := set.Get("m3")
	assert.Equal(t, "ai m3", ok.Classification.Summary)
	assert.Len(t, set.Pending(), 2)
}

func TestProcessAllSkipsAIClassified(t *testing.T) {
	set := heuristicSet(messages(4))
	set.UpdateClassification("m1", aiResult("already"))
	set.UpdateClassification("m3", aiResult("already"))

	var seen []string
	var mutex sync.Mutex
	mock := ai.NewMockAIClient()
	mock.ClassifyMessageFunc = func(ctx context.Context, msg model.Message, apiKey string) (model.Classification, error) {
		mutex.Lock()
		seen = append(seen, msg.ID)
		mutex.Unlock()
		return aiResult("new"), nil
	}
	classifier := service.NewClassificationService(mock, service.ClassificationOptions{APIKey: "k", Sleep: (&fakeSleeper{}).Sleep}, quietLogger())

	result, err := classifier.ProcessAll(context.Background(), set, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.ElementsMatch(t, []string{"m2", "m4"}, seen)
}

func TestProcessAllBoundsConcurrency(t *testing.T) {
	var active, peak int32
	mock := ai.NewMockAIClient()
	mock.ClassifyMessageFunc = func(ctx context.Context, msg model.Message, apiKey string) (model.Classification, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return aiResult("x"), nil
	}
	classifier := service.NewClassificationService(mock, service.ClassificationOptions{APIKey: "k", Sleep: (&fakeSleeper{}).Sleep}, quietLogger())

	_, err := classifier.ProcessAll(context.Background(), heuristicSet(messages(10)), nil)

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestProcessAllStopsWhenSleepFails(t *testing.T) {
	classifier := service.NewClassificationService(failingAI(), service.ClassificationOptions{
		APIKey: "k",
		Sleep: func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		},
	}, quietLogger())

	result, err := classifier.ProcessAll(context.Background(), heuristicSet(messages(5)), nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, result.Processed)
}

func TestProperty_ProcessAllAccounting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("every message is counted once and groups are throttled", prop.ForAll(
		func(failures []bool) bool {
			msgs := messages(len(failures))
			var failIDs []string
			for i, fail := range failures {
				if fail {
					failIDs = append(failIDs, msgs[i].ID)
				}
			}

			sleeper := &fakeSleeper{}
			classifier := service.NewClassificationService(failingAI(failIDs...), service.ClassificationOptions{
				APIKey: "k",
				Sleep:  sleeper.Sleep,
			}, quietLogger())

			result, err := classifier.ProcessAll(context.Background(), heuristicSet(msgs), nil)
			if err != nil {
				return false
			}

			groups := (len(msgs) + 2) / 3
			wantSleeps := max(groups-1, 0)
			return result.Succeeded+result.Failed == len(msgs) &&
				result.Failed == len(failIDs) &&
				len(sleeper.Calls()) == wantSleeps
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
