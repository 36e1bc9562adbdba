package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lethalterm/internal/protocol"
	"lethalterm/internal/terminal"
)

// fakeAPI accepts one websocket, sends a fixed greeting and records what
// the client writes back.
type fakeAPI struct {
	mu       sync.Mutex
	received []protocol.Message
	tokens   []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.tokens = append(f.tokens, r.URL.Query().Get("token"))
	f.mu.Unlock()

	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.WriteJSON(protocol.Message{Type: protocol.TypeStatus, Payload: terminal.Status{
		Mode:  terminal.Command,
		Codes: []string{"b3"},
	}})
	conn.WriteJSON(protocol.Message{Type: protocol.TypeEvent, Payload: terminal.Event{
		Text:     "Added trap: b3",
		Severity: terminal.SeveritySuccess,
	}})
	conn.WriteJSON(protocol.Message{Type: protocol.TypeError, Payload: protocol.ErrorPayload{Message: "nope"}})

	for {
		var msg protocol.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		f.mu.Lock()
		f.received = append(f.received, msg)
		f.mu.Unlock()
	}
}

func (f *fakeAPI) messages() []protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.Message(nil), f.received...)
}

func TestWatcherURL(t *testing.T) {
	w := NewWatcher("127.0.0.1:18090", "", nil)
	assert.Equal(t, "ws://127.0.0.1:18090/ws", w.URL())

	w = NewWatcher("127.0.0.1:18090", "s3cret&x", nil)
	assert.Equal(t, "ws://127.0.0.1:18090/ws?token=s3cret%26x", w.URL())
}

func TestWatcherReceivesStream(t *testing.T) {
	api := &fakeAPI{}
	ts := httptest.NewServer(api)
	defer ts.Close()

	w := NewWatcher(strings.TrimPrefix(ts.URL, "http://"), "tok", nil)

	var (
		mu     sync.Mutex
		status terminal.Status
		events []terminal.Event
		errs   []string
	)
	w.OnStatus = func(st terminal.Status) { mu.Lock(); status = st; mu.Unlock() }
	w.OnEvent = func(ev terminal.Event) { mu.Lock(); events = append(events, ev); mu.Unlock() }
	w.OnError = func(msg string) { mu.Lock(); errs = append(errs, msg); mu.Unlock() }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(errs) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, w.IsConnected())

	mu.Lock()
	assert.Equal(t, terminal.Command, status.Mode)
	assert.Equal(t, []string{"b3"}, status.Codes)
	require.Len(t, events, 1)
	assert.Equal(t, terminal.SeveritySuccess, events[0].Severity)
	assert.Equal(t, "nope", errs[0])
	mu.Unlock()

	w.AddTrap("c4")
	w.RemoveTrap("b3")
	require.Eventually(t, func() bool { return len(api.messages()) == 2 }, 2*time.Second, 10*time.Millisecond)

	msgs := api.messages()
	assert.Equal(t, protocol.TypeAddTrap, msgs[0].Type)
	var p protocol.TrapPayload
	require.NoError(t, protocol.DecodePayload(msgs[0], &p))
	assert.Equal(t, "c4", p.Code)
	assert.Equal(t, protocol.TypeRemoveTrap, msgs[1].Type)

	api.mu.Lock()
	assert.Equal(t, []string{"tok"}, api.tokens)
	api.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.False(t, w.IsConnected())
}

func TestWatcherRetriesUntilCancelled(t *testing.T) {
	w := NewWatcher("127.0.0.1:1", "", nil)
	w.retry = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, w.IsConnected())
}
