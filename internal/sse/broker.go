// Package sse implements a Server-Sent Events broker that tells admin and
// blog clients when posts change on disk.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	TypePostCreated  = "post.created"
	TypePostUpdated  = "post.updated"
	TypePostDeleted  = "post.deleted"
	TypePostsChanged = "posts.changed"
)

const (
	clientBuffer     = 64
	historySize      = 128
	defaultKeepAlive = 30 * time.Second
	retryMillis      = 3000
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type frame struct {
	id  uint64
	raw []byte
}

type subscription struct {
	lastID uint64
	replay bool
	resp   chan chan []byte
}

type postEventReq struct {
	kind string
	slug string
}

// Broker fans post events out to SSE clients.
//
// One goroutine owns the client set, the replay history and the
// posts.changed throttle; public methods talk to it over channels. Every
// frame carries a sequence id so a reconnecting browser (which sends
// Last-Event-ID) receives what it missed, as long as it is still in the
// history.
type Broker struct {
	listMin   time.Duration
	keepAlive time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	postEventCh   chan postEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. listThrottle is the minimum gap
// between two posts.changed events.
func NewBroker(listThrottle time.Duration) *Broker {
	if listThrottle <= 0 {
		listThrottle = 2 * time.Second
	}

	b := &Broker{
		listMin:       listThrottle,
		keepAlive:     defaultKeepAlive,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		postEventCh:   make(chan postEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

// SetKeepAlive changes how often idle connections receive a comment line.
// It must be called before the broker serves any request.
func (b *Broker) SetKeepAlive(d time.Duration) {
	if d > 0 {
		b.keepAlive = d
	}
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	history := make([]frame, 0, historySize)
	var seq uint64
	var lastList time.Time

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// Slow client; drop rather than block the loop.
		}
	}

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		f := frame{id: seq, raw: []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))}

		if len(history) == historySize {
			copy(history, history[1:])
			history = history[:historySize-1]
		}
		history = append(history, f)

		for ch := range clients {
			send(ch, f.raw)
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			var missed [][]byte
			if sub.replay {
				for _, f := range history {
					if f.id > sub.lastID {
						missed = append(missed, f.raw)
					}
				}
			}
			// Missed frames are queued before the reader gets the channel,
			// with clientBuffer slots left over for live events.
			ch := make(chan []byte, clientBuffer+len(missed))
			for _, raw := range missed {
				ch <- raw
			}
			clients[ch] = struct{}{}
			sub.resp <- ch

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.postEventCh:
			typ, ok := postEventType(req.kind)
			if !ok {
				continue
			}
			broadcast(Event{Type: typ, Data: map[string]string{"slug": req.slug}})

			if now := time.Now(); now.Sub(lastList) >= b.listMin {
				lastList = now
				broadcast(Event{Type: TypePostsChanged, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

func postEventType(kind string) (string, bool) {
	switch kind {
	case "created":
		return TypePostCreated, true
	case "updated":
		return TypePostUpdated, true
	case "deleted":
		return TypePostDeleted, true
	default:
		return "", false
	}
}

// Close stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.subscribe(subscription{})
}

// SubscribeSince adds a client that first receives every retained frame
// with an id greater than lastID. All of them are already queued on the
// returned channel.
func (b *Broker) SubscribeSince(lastID uint64) chan []byte {
	return b.subscribe(subscription{lastID: lastID, replay: true})
}

func (b *Broker) subscribe(sub subscription) chan []byte {
	closedCh := func() chan []byte {
		ch := make(chan []byte)
		close(ch)
		return ch
	}
	if b.closed.Load() {
		return closedCh()
	}
	sub.resp = make(chan chan []byte, 1)
	select {
	case b.subscribeCh <- sub:
	case <-b.stopped:
		return closedCh()
	}
	return <-sub.resp
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishPostEvent publishes a post change ("created", "updated" or
// "deleted") followed by a throttled posts.changed event. Its signature
// matches watcher.EventCallback.
func (b *Broker) PublishPostEvent(kind, slug string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.postEventCh <- postEventReq{kind: kind, slug: slug}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var ch chan []byte
	if id, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		ch = b.SubscribeSince(id)
	} else {
		ch = b.Subscribe()
	}
	defer b.Unsubscribe(ch)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ticker := time.NewTicker(b.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
