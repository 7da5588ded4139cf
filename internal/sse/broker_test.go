package sse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypePostCreated, Data: map[string]string{"slug": "hello"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: post.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"slug":"hello"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishPostEvent_ListThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event triggers posts.changed, the second one is inside the window.
	b.PublishPostEvent("created", "a")
	b.PublishPostEvent("updated", "b")

	time.Sleep(50 * time.Millisecond)
	listCount := 0
	postCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			if strings.Contains(string(msg), "posts.changed") {
				listCount++
			} else {
				postCount++
			}
		default:
			break loop
		}
	}

	if postCount != 2 {
		t.Errorf("post events = %d, want 2", postCount)
	}
	if listCount != 1 {
		t.Errorf("posts.changed events = %d, want 1 (throttled)", listCount)
	}
}

func TestPublishPostEvent_UnknownKindIgnored(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishPostEvent("chmod", "a")
	b.PublishPostEvent("deleted", "a")

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: post.deleted") {
			t.Errorf("first message = %q, want post.deleted", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

// syncRecorder guards the recorder body so the test can read it while the
// handler goroutine writes.
type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Body.String()
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishPostEvent("updated", "x")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.body()
	if !strings.Contains(body, "event: post.updated") {
		t.Errorf("handler output missing event: %q", body)
	}
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("content type = %q", w.Header().Get("Content-Type"))
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestSSEHandler_KeepAlive(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	b.SetKeepAlive(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	b.ServeHTTP(w, req)

	if !strings.Contains(w.body(), ": keep-alive") {
		t.Errorf("expected keep-alive comment, got %q", w.body())
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// One more than the client buffer must not block the broker.
	for i := 0; i < clientBuffer+6; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// No-ops after close.
	b.Publish(Event{Type: TypePostUpdated, Data: map[string]string{"slug": "x"}})
	b.PublishPostEvent("updated", "x")
}

func drain(ch chan []byte, wait time.Duration) []string {
	var out []string
	timeout := time.After(wait)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, string(msg))
		case <-timeout:
			return out
		}
	}
}

func TestFramesCarryIncreasingIDs(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypePostCreated, Data: map[string]string{"slug": "a"}})
	b.Publish(Event{Type: TypePostDeleted, Data: map[string]string{"slug": "a"}})

	got := drain(ch, 100*time.Millisecond)
	if len(got) != 2 {
		t.Fatalf("got %d frames, want 2", len(got))
	}
	if !strings.HasPrefix(got[0], "id: 1\n") || !strings.HasPrefix(got[1], "id: 2\n") {
		t.Errorf("frames = %q", got)
	}
}

func TestSubscribeSinceReplaysMissedFrames(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	for _, s := range []string{"a", "b", "c"} {
		b.Publish(Event{Type: TypePostUpdated, Data: map[string]string{"slug": s}})
	}
	// Let the loop apply the buffered publishes.
	time.Sleep(50 * time.Millisecond)

	ch := b.SubscribeSince(1)
	defer b.Unsubscribe(ch)

	got := drain(ch, 100*time.Millisecond)
	if len(got) != 2 {
		t.Fatalf("replayed %d frames, want 2: %q", len(got), got)
	}
	if !strings.Contains(got[0], `"slug":"b"`) || !strings.Contains(got[1], `"slug":"c"`) {
		t.Errorf("replay = %q", got)
	}
}

// waitPublished blocks until the loop has taken every queued publish. The
// loop finishes a broadcast before it selects again, so a later subscribe
// sees all of them in the history.
func waitPublished(t *testing.T, b *Broker) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(b.publishCh) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("publish queue not drained")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSubscribeSince_HistoryIsBounded(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	for i := 0; i < historySize+10; i++ {
		b.Publish(Event{Type: "test", Data: i})
	}
	waitPublished(t, b)

	ch := b.SubscribeSince(0)
	defer b.Unsubscribe(ch)

	if len(ch) != historySize {
		t.Fatalf("queued %d frames, want %d", len(ch), historySize)
	}
	got := drain(ch, 50*time.Millisecond)
	if len(got) != historySize {
		t.Fatalf("replayed %d frames, want %d", len(got), historySize)
	}
	if !strings.HasPrefix(got[0], "id: 11\n") {
		t.Errorf("oldest replayed frame = %q, want id 11", got[0])
	}
	if last := got[len(got)-1]; !strings.HasPrefix(last, fmt.Sprintf("id: %d\n", historySize+10)) {
		t.Errorf("newest replayed frame = %q, want id %d", last, historySize+10)
	}
}

func TestSubscribeSince_ReplayLeavesRoomForLiveEvents(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	for i := 0; i < historySize; i++ {
		b.Publish(Event{Type: "test", Data: i})
	}
	waitPublished(t, b)

	ch := b.SubscribeSince(0)
	defer b.Unsubscribe(ch)

	// Nobody reads yet; the live event must still fit behind the replay.
	b.Publish(Event{Type: TypePostCreated, Data: map[string]string{"slug": "live"}})
	time.Sleep(50 * time.Millisecond)

	got := drain(ch, 50*time.Millisecond)
	if len(got) != historySize+1 {
		t.Fatalf("got %d frames, want %d", len(got), historySize+1)
	}
	if !strings.Contains(got[len(got)-1], `"slug":"live"`) {
		t.Errorf("last frame = %q, want the live event", got[len(got)-1])
	}
}

func TestSSEHandler_LastEventID(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	b.Publish(Event{Type: TypePostCreated, Data: map[string]string{"slug": "old"}})
	b.Publish(Event{Type: TypePostCreated, Data: map[string]string{"slug": "new"}})
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	req.Header.Set("Last-Event-ID", "1")
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	b.ServeHTTP(w, req)

	body := w.body()
	if !strings.HasPrefix(body, "retry: ") {
		t.Errorf("missing retry hint: %q", body)
	}
	if strings.Contains(body, `"slug":"old"`) || !strings.Contains(body, `"slug":"new"`) {
		t.Errorf("body = %q, want only the missed frame", body)
	}
}
