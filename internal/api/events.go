package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"sitebuilder/internal/service"
)

const (
	subscriberBuffer = 64
	keepAlive        = 15 * time.Second
)

// Event is one message on the event stream.
type Event struct {
	Name string
	Data any
}

// Broadcaster fans events out to every subscribed stream. It implements
// service.EventEmitter. Slow subscribers lose events rather than blocking
// the emitter.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	logger *zap.Logger
}

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{subs: make(map[chan Event]struct{}), logger: logger.Named("events")}
}

func (b *Broadcaster) Emit(_ context.Context, event string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- Event{Name: event, Data: data}:
		default:
			b.logger.Warn("dropping event for slow subscriber", zap.String("event", event))
		}
	}
}

// Subscribe returns a channel of events and a function that unsubscribes.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
		})
	}
}

// Subscribers reports the number of open streams.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// streamEvents serves the broadcaster as text/event-stream.
func (h *handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok || h.events == nil {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	var scope string
	if c, ok := ClaimsFrom(r.Context()); ok {
		scope = c.StoreID
	}
	events, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-events:
			if !visibleTo(scope, ev.Data) {
				continue
			}
			data, err := json.Marshal(ev.Data)
			if err != nil {
				h.logger.Warn("encode event", zap.String("event", ev.Name), zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
			flusher.Flush()
		}
	}
}

// visibleTo reports whether a stream scoped to store may see data. Unscoped
// streams see everything; events without a store are shared.
func visibleTo(store string, data any) bool {
	if store == "" {
		return true
	}
	var owner string
	switch d := data.(type) {
	case service.LayoutChange:
		owner = d.StoreID
	case service.RoutesChange:
		owner = d.StoreID
	case *service.ExportResult:
		owner = d.StoreID
	case service.ExportResult:
		owner = d.StoreID
	}
	return owner == "" || owner == store
}
