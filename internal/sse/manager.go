package sse

import (
	"encoding/json"
	"sync"
	"time"

	"mailmind/internal/logger"
)

const (
	EventFetchProgress = "fetch_progress"
	EventAIProgress    = "ai_progress"
	EventJobDone       = "job_done"
)

const defaultSendTimeout = 5 * time.Second

// Event is the JSON payload written to a stream as one data line.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
	Time int64  `json:"time"`
}

// SSEManager manages Server-Sent Event connections
type SSEManager struct {
	clients    map[string]map[chan []byte]bool // userID -> connection channels
	clientsMux sync.RWMutex

	sendTimeout time.Duration
	now         func() time.Time
	logger      *logger.Logger
}

func NewSSEManager(logger *logger.Logger) *SSEManager {
	return &SSEManager{
		clients:     make(map[string]map[chan []byte]bool),
		sendTimeout: defaultSendTimeout,
		now:         time.Now,
		logger:      logger.With("sse"),
	}
}

// WithSendTimeout bounds how long a broadcast waits on a slow client.
func (s *SSEManager) WithSendTimeout(d time.Duration) *SSEManager {
	s.sendTimeout = d
	return s
}

// AddClient adds a new client connection for a specific user
func (s *SSEManager) AddClient(userID string) chan []byte {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if s.clients[userID] == nil {
		s.clients[userID] = make(map[chan []byte]bool)
	}

	channel := make(chan []byte, 10)
	s.clients[userID][channel] = true

	s.logger.Debugf("added client for %s, %d open", userID, len(s.clients[userID]))
	return channel
}

// RemoveClient removes a client connection and closes its channel.
func (s *SSEManager) RemoveClient(userID string, channel chan []byte) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	userClients, exists := s.clients[userID]
	if !exists || !userClients[channel] {
		return
	}
	delete(userClients, channel)
	close(channel)

	s.logger.Debugf("removed client for %s, %d open", userID, len(userClients))
	if len(userClients) == 0 {
		delete(s.clients, userID)
	}
}

// BroadcastToUser sends an event to every open stream of the user. Users
// without a stream are skipped silently.
func (s *SSEManager) BroadcastToUser(userID string, eventType string, data any) {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()

	userClients, exists := s.clients[userID]
	if !exists {
		return
	}

	jsonData, err := json.Marshal(Event{
		Type: eventType,
		Data: data,
		Time: s.now().Unix(),
	})
	if err != nil {
		s.logger.Errorf("failed to marshal %s event: %v", eventType, err)
		return
	}

	for channel := range userClients {
		select {
		case channel <- jsonData:
		case <-time.After(s.sendTimeout):
			s.logger.Warnf("timeout sending %s to %s", eventType, userID)
		}
	}
}

// Close shuts every stream.
func (s *SSEManager) Close() {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	for userID, userClients := range s.clients {
		for channel := range userClients {
			close(channel)
		}
		delete(s.clients, userID)
	}
}

func (s *SSEManager) GetUserConnectionCount(userID string) int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()

	return len(s.clients[userID])
}

func (s *SSEManager) HasUserConnection(userID string) bool {
	return s.GetUserConnectionCount(userID) > 0
}
