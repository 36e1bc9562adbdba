// Package network provides the client side of the status websocket.
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lethalterm/internal/protocol"
	"lethalterm/internal/terminal"
)

// Watcher follows a running instance's status stream and reconnects when
// the connection drops.
type Watcher struct {
	addr   string
	token  string
	retry  time.Duration
	send   chan protocol.Message
	logger *slog.Logger

	// Callbacks run on the read goroutine
	OnStatus func(terminal.Status)
	OnEvent  func(terminal.Event)
	OnError  func(message string)

	mu          sync.Mutex
	isConnected bool
}

// NewWatcher creates a watcher for the API at addr (host:port).
func NewWatcher(addr, token string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		addr:   addr,
		token:  token,
		retry:  5 * time.Second,
		send:   make(chan protocol.Message, 16),
		logger: logger.With("component", "watcher"),
	}
}

// URL returns the websocket endpoint.
func (w *Watcher) URL() string {
	u := url.URL{Scheme: "ws", Host: w.addr, Path: "/ws"}
	if w.token != "" {
		u.RawQuery = url.Values{"token": {w.token}}.Encode()
	}
	return u.String()
}

// Run connects and processes messages until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		if err := w.connect(ctx); err != nil {
			w.logger.Warn("connection failed", "addr", w.addr, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.retry):
			w.logger.Info("reconnecting", "addr", w.addr)
		}
	}
}

func (w *Watcher) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.URL(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	w.setConnected(true)
	defer w.setConnected(false)
	w.logger.Info("connected", "addr", w.addr)

	stop := make(chan struct{})
	connDone := make(chan struct{})
	go func() {
		defer close(connDone)
		w.writePump(ctx, conn, stop)
	}()

	err = w.readPump(conn)
	close(stop)
	<-connDone
	return err
}

func (w *Watcher) readPump(conn *websocket.Conn) error {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(10*time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("read: %w", err)
			}
			return nil
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logger.Debug("invalid message", "error", err)
			continue
		}
		w.handleMessage(msg)
	}
}

func (w *Watcher) writePump(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg := <-w.send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				w.logger.Debug("write failed", "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-stop:
			return

		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.SetReadDeadline(time.Now().Add(time.Second))
			return
		}
	}
}

func (w *Watcher) handleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeStatus:
		var status terminal.Status
		if err := protocol.DecodePayload(msg, &status); err != nil {
			w.logger.Debug("invalid status payload", "error", err)
			return
		}
		if w.OnStatus != nil {
			w.OnStatus(status)
		}

	case protocol.TypeEvent:
		var ev terminal.Event
		if err := protocol.DecodePayload(msg, &ev); err != nil {
			w.logger.Debug("invalid event payload", "error", err)
			return
		}
		if w.OnEvent != nil {
			w.OnEvent(ev)
		}

	case protocol.TypeError:
		var payload protocol.ErrorPayload
		if err := protocol.DecodePayload(msg, &payload); err == nil && w.OnError != nil {
			w.OnError(payload.Message)
		}
	}
}

// AddTrap asks the instance to register code.
func (w *Watcher) AddTrap(code string) {
	w.send <- protocol.Message{Type: protocol.TypeAddTrap, Payload: protocol.TrapPayload{Code: code}}
}

// RemoveTrap asks the instance to unregister code.
func (w *Watcher) RemoveTrap(code string) {
	w.send <- protocol.Message{Type: protocol.TypeRemoveTrap, Payload: protocol.TrapPayload{Code: code}}
}

// IsConnected returns true while a connection is open
func (w *Watcher) IsConnected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isConnected
}

func (w *Watcher) setConnected(v bool) {
	w.mu.Lock()
	w.isConnected = v
	w.mu.Unlock()
}
