package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lethalterm/internal/protocol"
	"lethalterm/internal/terminal"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 5 / 6
	maxMessageSize = 4096
	viewerBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Bound to loopback; any local page may watch the status stream
	CheckOrigin: func(*http.Request) bool { return true },
}

// hub fans status messages out to connected viewers.
type hub struct {
	server *Server

	mu      sync.Mutex
	viewers map[*viewer]struct{}
	last    terminal.Event

	outbox   chan protocol.Message
	join     chan *viewer
	leave    chan *viewer
	done     chan struct{}
	doneOnce sync.Once
}

// viewer is one websocket connection.
type viewer struct {
	hub    *hub
	conn   *websocket.Conn
	out    chan []byte
	remote string
	closed bool // guarded by hub.mu
}

func newHub(s *Server) *hub {
	return &hub{
		server:  s,
		viewers: make(map[*viewer]struct{}),
		outbox:  make(chan protocol.Message, 64),
		join:    make(chan *viewer),
		leave:   make(chan *viewer),
		done:    make(chan struct{}),
	}
}

func (h *hub) run() {
	for {
		select {
		case v := <-h.join:
			h.mu.Lock()
			h.viewers[v] = struct{}{}
			n := len(h.viewers)
			h.mu.Unlock()
			h.server.logger.Debug("viewer joined", "remote", v.remote, "viewers", n)

		case v := <-h.leave:
			h.mu.Lock()
			h.drop(v)
			n := len(h.viewers)
			h.mu.Unlock()
			h.server.logger.Debug("viewer left", "remote", v.remote, "viewers", n)

		case msg := <-h.outbox:
			h.fanOut(msg)

		case <-h.done:
			h.mu.Lock()
			for v := range h.viewers {
				h.drop(v)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *hub) stop() {
	h.doneOnce.Do(func() { close(h.done) })
}

// drop must be called with h.mu held.
func (h *hub) drop(v *viewer) {
	if _, ok := h.viewers[v]; !ok {
		return
	}
	delete(h.viewers, v)
	if !v.closed {
		v.closed = true
		close(v.out)
	}
}

func (h *hub) fanOut(msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.server.logger.Warn("failed to encode status message", "type", msg.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		select {
		case v.out <- data:
		default:
			// Too slow to keep up
			h.drop(v)
		}
	}
}

// publish queues a status snapshot, preceded by an event message when the
// notification changed. It never blocks the caller.
func (h *hub) publish(status terminal.Status) {
	h.mu.Lock()
	changed := status.Event != h.last && status.Event.Text != ""
	h.last = status.Event
	h.mu.Unlock()

	if changed {
		h.post(protocol.Message{Type: protocol.TypeEvent, Payload: status.Event})
	}
	h.post(protocol.Message{Type: protocol.TypeStatus, Payload: status})
}

func (h *hub) post(msg protocol.Message) {
	select {
	case h.outbox <- msg:
	default:
		h.server.logger.Debug("status message dropped", "type", msg.Type)
	}
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.server.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	v := &viewer{
		hub:    h,
		conn:   conn,
		out:    make(chan []byte, viewerBuffer),
		remote: r.RemoteAddr,
	}
	v.send(protocol.Message{Type: protocol.TypeStatus, Payload: h.server.ctrl.Status()})

	select {
	case h.join <- v:
	case <-h.done:
		conn.Close()
		return
	}

	go v.writeLoop()
	go v.readLoop()
}

func (v *viewer) readLoop() {
	defer func() {
		select {
		case v.hub.leave <- v:
		case <-v.hub.done:
		}
		v.conn.Close()
	}()

	v.conn.SetReadLimit(maxMessageSize)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := v.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				v.hub.server.logger.Debug("viewer read failed", "remote", v.remote, "error", err)
			}
			return
		}
		v.handle(data)
	}
}

func (v *viewer) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case data, ok := <-v.out:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ping.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// send queues a message for this viewer only.
func (v *viewer) send(msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	v.hub.mu.Lock()
	defer v.hub.mu.Unlock()
	if v.closed {
		return
	}
	select {
	case v.out <- data:
	default:
	}
}

func (v *viewer) handle(data []byte) {
	logger := v.hub.server.logger
	ctrl := v.hub.server.ctrl

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Debug("invalid viewer message", "error", err)
		return
	}

	var err error
	switch msg.Type {
	case protocol.TypeAuth:
		// The upgrade request was already authenticated
		logger.Debug("viewer auth received", "remote", v.remote)

	case protocol.TypePing:
		v.send(protocol.Message{Type: protocol.TypePing})

	case protocol.TypeAddTrap, protocol.TypeRemoveTrap:
		var payload protocol.TrapPayload
		if err = protocol.DecodePayload(msg, &payload); err != nil {
			break
		}
		if msg.Type == protocol.TypeAddTrap {
			err = ctrl.AddCode(payload.Code)
		} else {
			err = ctrl.RemoveCode(payload.Code)
		}

	case protocol.TypeAllTraps:
		var payload protocol.AllTrapsPayload
		if err = protocol.DecodePayload(msg, &payload); err == nil {
			ctrl.SetAllCodes(payload.Enabled)
		}

	default:
		logger.Debug("unknown viewer message", "type", msg.Type)
	}

	if err != nil {
		v.send(protocol.Message{
			Type:    protocol.TypeError,
			Payload: protocol.ErrorPayload{Message: err.Error()},
		})
	}
}
