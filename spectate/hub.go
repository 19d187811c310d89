// Package spectate serves a read-only view of the running match over HTTP.
package spectate

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"othello-arbiter/types"
)

type subscriber struct {
	ch chan []byte
}

// Hub keeps the latest snapshot and fans it out to subscribers.
// It satisfies engine.Observer.
type Hub struct {
	log *zap.SugaredLogger

	mu     sync.Mutex
	latest []byte
	subs   map[*subscriber]struct{}
}

func NewHub(log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{
		log:  log,
		subs: make(map[*subscriber]struct{}),
	}
}

// OnSnapshot stores snap as the latest snapshot and hands it to every
// subscriber. A subscriber that has not read the previous snapshot only
// ever sees the newest one.
func (h *Hub) OnSnapshot(snap types.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		h.log.Warnw("encode snapshot", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = data
	for sub := range h.subs {
		sub.offer(data)
	}
}

// Latest returns the encoded latest snapshot, or false before the first one.
func (h *Hub) Latest() ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.latest != nil
}

// Subscribe registers a subscriber. The channel starts with the latest
// snapshot when there is one and is closed by the returned func.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	sub := &subscriber{ch: make(chan []byte, 1)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	if h.latest != nil {
		sub.ch <- h.latest
	}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			close(sub.ch)
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// offer replaces any unread value. Callers hold the hub lock.
func (s *subscriber) offer(data []byte) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- data
}
