package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/spacetime/pkg/cache"
	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/errors"
	"github.com/matzehuels/spacetime/pkg/observability"
)

type testPoint struct {
	Label int `json:"label"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

type testScene struct {
	Points     []testPoint `json:"points"`
	Worldlines []struct {
		Elapsed string `json:"elapsed"`
	} `json:"worldlines"`
}

type testSession struct {
	ID    string    `json:"id"`
	Scene testScene `json:"scene"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Cleanup(observability.Reset)
	s := New(Options{
		Grid:      diagram.Grid{Cells: 12, Rows: 12},
		HoldDelay: 20 * time.Millisecond,
		Cache:     cache.NewMemoryCache(16),
		Logger:    log.New(io.Discard),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/api/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	return decode[testSession](t, resp).ID
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/", nil)
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "WebSocket") {
		t.Error("index page does not open a websocket")
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + id

	resp := do(t, http.MethodPost, base+"/points", placeRequest{X: 5, Y: 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first place status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, base+"/points", placeRequest{X: 6, Y: 5})
	got := decode[testSession](t, resp)
	if len(got.Scene.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(got.Scene.Points))
	}

	resp = do(t, http.MethodPost, base+"/points", placeRequest{X: 0, Y: 6})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("unreachable status = %d, want 409", resp.StatusCode)
	}
	if e := decode[errorBody](t, resp); e.Code != "UNREACHABLE" {
		t.Errorf("code = %q", e.Code)
	}

	resp = do(t, http.MethodPost, base+"/points", placeRequest{X: 0, Y: 6, Fresh: true})
	got = decode[testSession](t, resp)
	if len(got.Scene.Worldlines) != 2 {
		t.Errorf("worldlines = %d, want 2", len(got.Scene.Worldlines))
	}

	resp = do(t, http.MethodDelete, base+"/points/0", nil)
	got = decode[testSession](t, resp)
	if len(got.Scene.Points) != 2 {
		t.Errorf("points after delete = %d, want 2", len(got.Scene.Points))
	}

	resp = do(t, http.MethodDelete, base+"/points/zero", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad label status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodDelete, base, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, base, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d", resp.StatusCode)
	}
}

func TestPlaceOutsideGrid(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	resp := do(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/points", placeRequest{X: 40, Y: 0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestArtifact(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + id
	do(t, http.MethodPost, base+"/points", placeRequest{X: 3, Y: 1})
	do(t, http.MethodPost, base+"/points", placeRequest{X: 4, Y: 4})

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"svg", "image/svg+xml", "<svg"},
		{"json", "application/json", `"points"`},
		{"txt", "text/plain; charset=utf-8", "worldline"},
		{"dot", "text/vnd.graphviz; charset=utf-8", "digraph"},
		{"png", "image/png", "PNG"},
		{"pdf", "application/pdf", "%PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := do(t, http.MethodGet, base+"/diagram."+tt.format, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			data, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(data), tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}

	t.Run("invalid format", func(t *testing.T) {
		resp := do(t, http.MethodGet, base+"/diagram.gif", nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("invalid scale", func(t *testing.T) {
		resp := do(t, http.MethodGet, base+"/diagram.png?scale=20", nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	do(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/points", placeRequest{X: 1, Y: 1})

	resp := do(t, http.MethodGet, ts.URL+"/metrics", nil)
	data, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`spacetime_placements_total{outcome="started"} 1`,
		"spacetime_sessions_active 1",
		"spacetime_sessions_opened_total 1",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

// =============================================================================
// Websocket
// =============================================================================

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

type testServerMsg struct {
	Type     string    `json:"type"`
	SVG      string    `json:"svg"`
	Scene    testScene `json:"scene"`
	Dragging bool      `json:"dragging"`
	Code     string    `json:"code"`
}

func read(t *testing.T, ws *websocket.Conn) testServerMsg {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m testServerMsg
	if err := ws.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func write(t *testing.T, ws *websocket.Conn, m clientMsg) {
	t.Helper()
	if err := ws.WriteJSON(m); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// px returns a pixel inside cell n at the default pitch.
func px(n int) int { return n*16 + 5 }

func TestSocketClickAndReject(t *testing.T) {
	ts := newTestServer(t)
	ws := dial(t, ts, "/ws")

	first := read(t, ws)
	if first.Type != msgScene || !strings.Contains(first.SVG, "<svg") {
		t.Fatalf("first message = %+v", first.Type)
	}

	write(t, ws, clientMsg{Type: msgDown, PX: px(4), PY: px(2)})
	write(t, ws, clientMsg{Type: msgUp, PX: px(4), PY: px(2)})
	m := read(t, ws)
	if len(m.Scene.Points) != 1 {
		t.Fatalf("points = %d, want 1", len(m.Scene.Points))
	}

	write(t, ws, clientMsg{Type: msgDown, PX: px(11), PY: px(3)})
	write(t, ws, clientMsg{Type: msgUp, PX: px(11), PY: px(3)})
	notice := read(t, ws)
	if notice.Type != msgNotice || notice.Code != "UNREACHABLE" {
		t.Fatalf("got %s %s, want UNREACHABLE notice", notice.Type, notice.Code)
	}
	m = read(t, ws)
	if len(m.Scene.Points) != 1 {
		t.Errorf("rejected click changed the diagram: %d points", len(m.Scene.Points))
	}
}

func TestSocketDrag(t *testing.T) {
	ts := newTestServer(t)
	ws := dial(t, ts, "/ws")
	read(t, ws)

	write(t, ws, clientMsg{Type: msgDown, PX: px(2), PY: px(2)})
	write(t, ws, clientMsg{Type: msgUp, PX: px(2), PY: px(2)})
	read(t, ws)

	write(t, ws, clientMsg{Type: msgDown, PX: px(2), PY: px(2)})
	if m := read(t, ws); !m.Dragging {
		t.Fatal("hold did not start a drag")
	}

	write(t, ws, clientMsg{Type: msgMove, PX: px(7), PY: px(9)})
	m := read(t, ws)
	if p := m.Scene.Points[0]; p.X != 7 || p.Y != 9 {
		t.Errorf("dragged point at (%d,%d), want (7,9)", p.X, p.Y)
	}

	write(t, ws, clientMsg{Type: msgUp, PX: px(7), PY: px(9)})
	m = read(t, ws)
	if m.Dragging || len(m.Scene.Points) != 1 {
		t.Errorf("after release: dragging=%v points=%d", m.Dragging, len(m.Scene.Points))
	}
}

func TestSessionSocket(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	do(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/points", placeRequest{X: 1, Y: 1})

	ws := dial(t, ts, fmt.Sprintf("/api/sessions/%s/ws", id))
	if m := read(t, ws); len(m.Scene.Points) != 1 {
		t.Errorf("points = %d, want 1", len(m.Scene.Points))
	}

	write(t, ws, clientMsg{Type: msgDelete, Label: 0})
	if m := read(t, ws); len(m.Scene.Points) != 0 {
		t.Errorf("points after delete = %d", len(m.Scene.Points))
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"INVALID_INPUT", http.StatusBadRequest},
		{"SESSION_NOT_FOUND", http.StatusNotFound},
		{"UNREACHABLE", http.StatusConflict},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := statusFor(errors.Code(tt.code)); got != tt.want {
				t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}
