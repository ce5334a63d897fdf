package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matzehuels/spacetime/pkg/errors"
	"github.com/matzehuels/spacetime/pkg/interaction"
	"github.com/matzehuels/spacetime/pkg/render/scene"
	"github.com/matzehuels/spacetime/pkg/render/sink"
)

// Client message types.
const (
	msgDown   = "down"
	msgUp     = "up"
	msgMove   = "move"
	msgLeave  = "leave"
	msgDelete = "delete"
	msgNew    = "new"
)

// Server message types.
const (
	msgScene  = "scene"
	msgNotice = "notice"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// clientMsg is a pointer or edit event from the browser. Pixel positions
// are relative to the board's top-left corner.
type clientMsg struct {
	Type  string `json:"type"`
	PX    int    `json:"px"`
	PY    int    `json:"py"`
	Fresh bool   `json:"fresh"`
	Label int    `json:"label"`
}

type serverMsg struct {
	Type     string       `json:"type"`
	SVG      string       `json:"svg,omitempty"`
	Scene    *scene.Scene `json:"scene,omitempty"`
	Dragging bool         `json:"dragging,omitempty"`
	Code     string       `json:"code,omitempty"`
	Message  string       `json:"message,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

// conn serializes writes: the read loop and hold timers both push.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(m serverMsg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(m)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// handleEphemeralSocket gives the connection a fresh diagram that lives
// exactly as long as the socket.
func (s *Server) handleEphemeralSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sess := s.sessions.create(r.Context(), s.newDiagram())
	defer func() { _ = s.sessions.remove(context.WithoutCancel(r.Context()), sess.id) }()
	s.serveSocket(r.Context(), &conn{ws: ws}, sess)
}

// handleSessionSocket attaches a socket to an existing session, which
// outlives the connection.
func (s *Server) handleSessionSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.serveSocket(r.Context(), &conn{ws: ws}, sess)
}

func (s *Server) serveSocket(ctx context.Context, c *conn, sess *session) {
	defer c.ws.Close()
	s.log.Debug("Socket opened", "session", sess.id)

	c.ws.SetReadLimit(4096)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := c.ping(); err != nil {
					return
				}
			}
		}
	}()

	sess.mu.Lock()
	first := s.sceneMsg(sess)
	sess.mu.Unlock()
	if err := c.send(first); err != nil {
		return
	}

	for {
		var m clientMsg
		if err := c.ws.ReadJSON(&m); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("Socket read failed", "session", sess.id, "err", err)
			}
			break
		}
		if err := s.dispatch(c, sess, m); err != nil {
			break
		}
	}

	sess.mu.Lock()
	sess.ctrl.Leave()
	sess.mu.Unlock()
	s.log.Debug("Socket closed", "session", sess.id)
}

// dispatch applies one client message under the session lock and pushes
// the result.
func (s *Server) dispatch(c *conn, sess *session, m clientMsg) error {
	sess.mu.Lock()
	reply, notice := s.apply(c, sess, m)
	sess.mu.Unlock()

	if notice != nil {
		if err := c.send(*notice); err != nil {
			return err
		}
	}
	if reply != nil {
		return c.send(*reply)
	}
	return nil
}

// apply runs m against the controller. Callers hold sess.mu.
func (s *Server) apply(c *conn, sess *session, m clientMsg) (reply, notice *serverMsg) {
	ctrl := sess.ctrl
	cell := interaction.CellAt(m.PX, m.PY, s.opts.Pitch)

	switch m.Type {
	case msgDown:
		if !ctrl.Snapshot().Grid().Contains(cell.X, cell.Y) {
			return nil, nil
		}
		ctrl.PressTimed(cell, m.Fresh, s.opts.HoldDelay, func(grab func() bool) {
			sess.mu.Lock()
			grabbed := grab()
			var msg serverMsg
			if grabbed {
				msg = s.sceneMsg(sess)
			}
			sess.mu.Unlock()
			if grabbed {
				_ = c.send(msg)
			}
		})
		return nil, nil
	case msgUp:
		if err := ctrl.Release(cell); err != nil {
			notice = &serverMsg{Type: msgNotice, Code: string(errors.GetCode(err)), Message: errors.UserMessage(err)}
		}
	case msgMove:
		prev, had := ctrl.Hover()
		ctrl.Move(cell)
		// only cell changes are worth a redraw
		if now, has := ctrl.Hover(); had == has && prev == now {
			return nil, nil
		}
	case msgLeave:
		ctrl.Leave()
	case msgDelete:
		ctrl.Delete(m.Label)
	case msgNew:
		ctrl.StartWorldline()
	default:
		return nil, &serverMsg{Type: msgNotice, Code: string(errors.ErrCodeInvalidInput), Message: "unknown message type " + m.Type}
	}
	msg := s.sceneMsg(sess)
	return &msg, notice
}

// sceneMsg renders the session's board. Callers hold sess.mu.
func (s *Server) sceneMsg(sess *session) serverMsg {
	sc := sess.sceneLocked(s.opts.Pitch)
	return serverMsg{
		Type:     msgScene,
		SVG:      string(sink.RenderSVG(sc, sink.WithInteractive())),
		Scene:    &sc,
		Dragging: sess.ctrl.Dragging(),
	}
}
