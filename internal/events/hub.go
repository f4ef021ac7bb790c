package events

import (
	"sync"

	"storyboard/server/internal/model"

	"github.com/google/uuid"
)

// Hub fans session events out to SSE subscribers, keyed by session ID.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan model.SessionEvent
}

func NewHub() *Hub {
	return &Hub{
		subs: map[string]map[string]chan model.SessionEvent{},
	}
}

func (h *Hub) Subscribe(sessionID string, buf int) (string, <-chan model.SessionEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subID := uuid.NewString()
	if _, ok := h.subs[sessionID]; !ok {
		h.subs[sessionID] = map[string]chan model.SessionEvent{}
	}
	ch := make(chan model.SessionEvent, buf)
	h.subs[sessionID][subID] = ch

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		sessionSubs, ok := h.subs[sessionID]
		if !ok {
			return
		}
		c, ok := sessionSubs[subID]
		if !ok {
			return
		}
		delete(sessionSubs, subID)
		close(c)
		if len(sessionSubs) == 0 {
			delete(h.subs, sessionID)
		}
	}
	return subID, ch, unsubscribe
}

func (h *Hub) Publish(sessionID string, evt model.SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sessionSubs, ok := h.subs[sessionID]
	if !ok {
		return
	}
	for _, ch := range sessionSubs {
		select {
		case ch <- evt:
		default:
			// Drop stale subscribers to keep producer non-blocking.
		}
	}
}
