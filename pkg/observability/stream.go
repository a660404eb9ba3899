package observability

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aretw0/toolguide/pkg/domain"
)

// AllSessions subscribes to the events of every session.
const AllSessions = ""

// StreamManager fans lifecycle events out to live subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{} // SessionID -> Set of Channels
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
	}
}

// Subscribe returns a channel of JSON-encoded events for sessionID (or
// AllSessions) and a cancel func that closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
		})
	}
}

// Broadcast delivers msg to the subscribers of sessionID and of AllSessions.
// Slow subscribers miss messages rather than block the engine.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	deliver := func(subs map[chan string]struct{}) {
		for ch := range subs {
			select {
			case ch <- msg:
			default:
			}
		}
	}
	deliver(sm.subscribers[sessionID])
	if sessionID != AllSessions {
		deliver(sm.subscribers[AllSessions])
	}
}

// Hooks returns lifecycle hooks that broadcast every event.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	publish := func(ctx context.Context, e *domain.TransitionEvent) {
		raw, err := json.Marshal(e)
		if err != nil {
			return
		}
		sm.Broadcast(e.SessionID, string(raw))
	}
	return domain.LifecycleHooks{
		OnSessionStart: publish,
		OnTransition:   publish,
		OnSessionEnd:   publish,
	}
}
