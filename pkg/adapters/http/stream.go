package http

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// streamBuffer is the number of messages a slow subscriber may fall behind before drops.
const streamBuffer = 10

// StreamManager fans pipeline events out to active SSE connections.
type StreamManager struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]map[string]chan string // pipeline id -> subscriber id -> channel
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		logger:      logger,
		subscribers: make(map[string]map[string]chan string),
	}
}

// Subscribe registers a listener for pipelineID. The returned function
// unregisters it and closes the channel.
func (sm *StreamManager) Subscribe(pipelineID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan string, streamBuffer)
	if _, ok := sm.subscribers[pipelineID]; !ok {
		sm.subscribers[pipelineID] = make(map[string]chan string)
	}
	sm.subscribers[pipelineID][id] = ch
	sm.logger.Debug("stream: subscribed", "pipeline_id", pipelineID, "subscriber", id)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[pipelineID]; ok {
				delete(subs, id)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, pipelineID)
				}
			}
		})
	}
}

// Subscribers counts the listeners of pipelineID.
func (sm *StreamManager) Subscribers(pipelineID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[pipelineID])
}

// Broadcast sends msg to every listener of pipelineID. Listeners with a full
// buffer miss the message.
func (sm *StreamManager) Broadcast(pipelineID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for id, ch := range sm.subscribers[pipelineID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "pipeline_id", pipelineID, "subscriber", id)
		}
	}
}
