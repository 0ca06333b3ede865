// Package sse implements a Server-Sent Events broker for live log-book
// updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/starford/laguz/internal/auth"
)

// Event represents an SSE event scoped to one owner. Only subscribers
// authenticated as OwnerID receive it.
type Event struct {
	OwnerID string      `json:"-"`
	Type    string      `json:"type"`
	Data    interface{} `json:"data"`
}

type mutationReq struct {
	ownerID string
	entity  string // "book" or "entry"
	kind    string // "created", "updated", "deleted"
	slug    string
	entryID int64
}

type subscriber struct {
	ch      chan []byte
	ownerID string
}

// Broker manages SSE client connections and broadcasts mutation events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable
// state (subscribers + summary throttle timestamp). Public methods
// communicate with this loop through channels, so no mutexes are required.
type Broker struct {
	summaryMin time.Duration

	subscribeCh   chan subscriber
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	mutationCh    chan mutationReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker with the given summary-event throttle
// interval.
func NewBroker(summaryThrottle time.Duration) *Broker {
	if summaryThrottle <= 0 {
		summaryThrottle = 2 * time.Second
	}

	b := &Broker{
		summaryMin:    summaryThrottle,
		subscribeCh:   make(chan subscriber),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		mutationCh:    make(chan mutationReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	subs := make(map[chan []byte]string)
	var lastSummary time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch, owner := range subs {
			if event.OwnerID != "" && owner != event.OwnerID {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range subs {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			subs[sub.ch] = sub.ownerID

		case ch := <-b.unsubscribeCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.mutationCh:
			data := map[string]string{"slug": req.slug}
			if req.entryID != 0 {
				data["entry_id"] = strconv.FormatInt(req.entryID, 10)
			}
			broadcast(Event{
				OwnerID: req.ownerID,
				Type:    req.entity + "." + req.kind,
				Data:    data,
			})

			now := time.Now()
			if now.Sub(lastSummary) >= b.summaryMin {
				lastSummary = now
				broadcast(Event{OwnerID: req.ownerID, Type: "books.changed", Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(subs)
		}
	}
}

// Close gracefully stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client scoped to ownerID and returns its channel.
func (b *Broker) Subscribe(ownerID string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscriber{ch: ch, ownerID: ownerID}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to the owner's connected clients (or to everyone
// when OwnerID is empty).
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishBookEvent publishes a book mutation and a throttled books.changed
// summary event.
func (b *Broker) PublishBookEvent(ownerID, kind, slug string) {
	b.publishMutation(mutationReq{ownerID: ownerID, entity: "book", kind: kind, slug: slug})
}

// PublishEntryEvent publishes an entry mutation and a throttled
// books.changed summary event.
func (b *Broker) PublishEntryEvent(ownerID, kind, slug string, entryID int64) {
	b.publishMutation(mutationReq{ownerID: ownerID, entity: "entry", kind: kind, slug: slug, entryID: entryID})
}

func (b *Broker) publishMutation(req mutationReq) {
	if b.closed.Load() {
		return
	}
	select {
	case b.mutationCh <- req:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The request must
// already carry an authenticated principal.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(userID)
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
