// Package store holds the per-user working set: the messages of the latest
// fetch with their current classification, plus the processed records.
package store

import (
	"strings"
	"sync"
	"time"

	"mailmind/internal/model"
)

// Entry is one working-set row as seen by readers. Processed is nil when the
// user has not acted on the message.
type Entry struct {
	model.Email
	Processed *model.ProcessedRecord `json:"processed,omitempty"`
}

type Stats struct {
	Total          int `json:"total"`
	HighUrgency    int `json:"high_urgency"`
	ActionRequired int `json:"action_required"`
	AIProcessed    int `json:"ai_processed"`
	Processed      int `json:"processed"`
}

type EmailStore struct {
	emails    []model.Email
	index     map[string]int
	processed map[string]model.ProcessedRecord
	now       func() time.Time
	mutex     sync.RWMutex
}

func NewEmailStore() *EmailStore {
	return &EmailStore{
		index:     make(map[string]int),
		processed: make(map[string]model.ProcessedRecord),
		now:       time.Now,
	}
}

// WithClock replaces the timestamp source used by MarkProcessed.
func (s *EmailStore) WithClock(now func() time.Time) *EmailStore {
	s.now = now
	return s
}

// ReplaceAll discards the previous working set.
func (s *EmailStore) ReplaceAll(emails []model.Email) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.emails = nil
	s.index = make(map[string]int, len(emails))
	s.appendLocked(emails)
}

// Append adds a fetch batch to the working set. Ids already present are
// skipped.
func (s *EmailStore) Append(emails []model.Email) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.appendLocked(emails)
}

func (s *EmailStore) appendLocked(emails []model.Email) {
	for _, e := range emails {
		if _, exists := s.index[e.ID]; exists {
			continue
		}
		s.index[e.ID] = len(s.emails)
		s.emails = append(s.emails, e)
	}
}

// UpdateClassification replaces the classification of id. It reports false
// and changes nothing when id is no longer in the working set.
func (s *EmailStore) UpdateClassification(id string, c model.Classification) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	i, exists := s.index[id]
	if !exists {
		return false
	}
	s.emails[i].Classification = c
	return true
}

// MarkProcessed inserts or overwrites the record for id, whether or not the
// message is currently loaded.
func (s *EmailStore) MarkProcessed(id string, reply *model.ReplyDraft) model.ProcessedRecord {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	record := model.NewProcessedRecord(s.now(), reply)
	s.processed[id] = record
	return record
}

// MarkAllProcessed adds a record without a reply for every loaded message that
// has none yet and returns how many were added.
func (s *EmailStore) MarkAllProcessed() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	at := s.now()
	added := 0
	for _, e := range s.emails {
		if _, exists := s.processed[e.ID]; exists {
			continue
		}
		s.processed[e.ID] = model.NewProcessedRecord(at, nil)
		added++
	}
	return added
}

func (s *EmailStore) Processed(id string) (model.ProcessedRecord, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, exists := s.processed[id]
	return record, exists
}

// LoadProcessed replaces all processed records, typically with the persisted
// mapping at session start.
func (s *EmailStore) LoadProcessed(records map[string]model.ProcessedRecord) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.processed = make(map[string]model.ProcessedRecord, len(records))
	for id, r := range records {
		s.processed[id] = r
	}
}

// ProcessedSnapshot returns a copy of every processed record, including those
// for messages outside the working set.
func (s *EmailStore) ProcessedSnapshot() map[string]model.ProcessedRecord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make(map[string]model.ProcessedRecord, len(s.processed))
	for id, r := range s.processed {
		out[id] = r
	}
	return out
}

func (s *EmailStore) Get(id string) (Entry, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	i, exists := s.index[id]
	if !exists {
		return Entry{}, false
	}
	return s.entryLocked(s.emails[i]), true
}

// Entries returns the whole working set in fetch order.
func (s *EmailStore) Entries() []Entry {
	return s.Query(FilterAll, "")
}

// Query returns the entries matching filter whose subject, sender name or
// body contains search, case-insensitively. Fetch order is preserved.
func (s *EmailStore) Query(filter Filter, search string) []Entry {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	needle := strings.ToLower(search)
	out := make([]Entry, 0, len(s.emails))
	for _, e := range s.emails {
		if !filter.Matches(e) || !matchesSearch(e, needle) {
			continue
		}
		out = append(out, s.entryLocked(e))
	}
	return out
}

// Pending returns the messages that still lack an AI classification.
func (s *EmailStore) Pending() []model.Message {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var out []model.Message
	for _, e := range s.emails {
		if !e.Classification.IsAI() {
			out = append(out, e.Message)
		}
	}
	return out
}

func (s *EmailStore) Stats() Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := Stats{
		Total:     len(s.emails),
		Processed: len(s.processed),
	}
	for _, e := range s.emails {
		if FilterHighUrgency.Matches(e) {
			stats.HighUrgency++
		}
		if FilterActionRequired.Matches(e) {
			stats.ActionRequired++
		}
		if FilterAIProcessed.Matches(e) {
			stats.AIProcessed++
		}
	}
	return stats
}

func (s *EmailStore) entryLocked(e model.Email) Entry {
	entry := Entry{Email: e}
	entry.Classification.Replies = append([]model.ReplyDraft(nil), e.Classification.Replies...)
	if record, exists := s.processed[e.ID]; exists {
		entry.Processed = &record
	}
	return entry
}

func matchesSearch(e model.Email, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Subject), needle) ||
		strings.Contains(strings.ToLower(e.SenderName), needle) ||
		strings.Contains(strings.ToLower(e.Body), needle)
}
