package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lethalterm/internal/config"
	"lethalterm/internal/protocol"
	"lethalterm/internal/terminal"
	"lethalterm/internal/traps"
)

type fakeController struct {
	reg *traps.Registry
}

func (c *fakeController) Status() terminal.Status {
	return terminal.Status{
		Mode:     terminal.Command,
		Codes:    c.reg.Codes(),
		AllCodes: c.reg.AllCodesMode(),
	}
}

func (c *fakeController) AddCode(code string) error    { return c.reg.Add(code) }
func (c *fakeController) RemoveCode(code string) error { return c.reg.Remove(code) }
func (c *fakeController) SetAllCodes(on bool)          { c.reg.SetAllCodesMode(on) }

func newTestServer(t *testing.T, token string) (*Server, *fakeController, *httptest.Server) {
	t.Helper()
	mgr, err := config.NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	cfg.General.APIToken = token
	require.NoError(t, mgr.Set(cfg))

	ctrl := &fakeController{reg: traps.NewRegistry()}
	s := NewServer(mgr, ctrl, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.hub.stop()
	})
	return s, ctrl, ts
}

func do(t *testing.T, method, url string, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealthAndStatus(t *testing.T) {
	_, _, ts := newTestServer(t, "")

	resp, body := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = do(t, http.MethodGet, ts.URL+"/api/status", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Command", body["mode"])

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/status", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestTrapsEndpoint(t *testing.T) {
	_, ctrl, ts := newTestServer(t, "")

	resp, body := do(t, http.MethodPost, ts.URL+"/api/traps?code=b3", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"b3"}, body["codes"])

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/traps?code=b3", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/traps?code=12", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/traps", `{"code":"K7"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"b3", "k7"}, ctrl.reg.Codes())

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/traps", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/traps?code=z9", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/traps?code=b3", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/traps", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"k7"}, body["codes"])
	assert.Equal(t, false, body["all_codes"])
}

func TestAllTrapsEndpoint(t *testing.T) {
	_, ctrl, ts := newTestServer(t, "")

	resp, body := do(t, http.MethodPost, ts.URL+"/api/traps/all?enabled=true", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["all_codes"])
	assert.True(t, ctrl.reg.AllCodesMode())

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/traps/all?enabled=maybe", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/traps/all", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestTokenAuth(t *testing.T) {
	_, _, ts := newTestServer(t, "secret")

	resp, _ := do(t, http.MethodGet, ts.URL+"/api/status", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/config", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var cfg config.Config
	require.NoError(t, json.NewDecoder(res.Body).Decode(&cfg))
	assert.Equal(t, "********", cfg.General.APIToken)
	assert.Equal(t, 18090, cfg.General.APIPort)
}

func readMessage(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg protocol.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketStatusStream(t *testing.T) {
	s, ctrl, ts := newTestServer(t, "secret")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=secret"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readMessage(t, conn)
	assert.Equal(t, protocol.TypeStatus, hello.Type)

	require.NoError(t, conn.WriteJSON(protocol.Message{
		Type:    protocol.TypeAddTrap,
		Payload: protocol.TrapPayload{Code: "12"},
	}))
	msg := readMessage(t, conn)
	require.Equal(t, protocol.TypeError, msg.Type)
	var payload protocol.ErrorPayload
	require.NoError(t, protocol.DecodePayload(msg, &payload))
	assert.Contains(t, payload.Message, "12")

	require.NoError(t, conn.WriteJSON(protocol.Message{
		Type:    protocol.TypeAddTrap,
		Payload: protocol.TrapPayload{Code: "c4"},
	}))
	require.Eventually(t, func() bool { return ctrl.reg.Contains("c4") }, 2*time.Second, 10*time.Millisecond)

	status := ctrl.Status()
	status.Event = terminal.Event{Text: "Added trap: c4", Severity: terminal.SeveritySuccess}
	s.Notify(status)

	event := readMessage(t, conn)
	require.Equal(t, protocol.TypeEvent, event.Type)
	var ev terminal.Event
	require.NoError(t, protocol.DecodePayload(event, &ev))
	assert.Equal(t, "Added trap: c4", ev.Text)

	update := readMessage(t, conn)
	require.Equal(t, protocol.TypeStatus, update.Type)
	var st map[string]any
	require.NoError(t, protocol.DecodePayload(update, &st))
	assert.Equal(t, []any{"c4"}, st["codes"])
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	_, _, ts := newTestServer(t, "secret")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
