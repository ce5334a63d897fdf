package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/errors"
	"github.com/matzehuels/spacetime/pkg/interaction"
	"github.com/matzehuels/spacetime/pkg/observability"
	"github.com/matzehuels/spacetime/pkg/render/scene"
)

// session is one diagram and its pointer state. mu serializes request
// handlers, websocket messages and hold timer callbacks, the way a single
// event loop would.
type session struct {
	id      string
	created time.Time

	mu   sync.Mutex
	ctrl *interaction.Controller
}

// sceneLocked builds the scene for the current state. Callers hold mu.
func (s *session) sceneLocked(pitch int) scene.Scene {
	opts := []scene.Option{scene.WithPitch(pitch)}
	if cell, ok := s.ctrl.Hover(); ok {
		opts = append(opts, scene.WithHover(cell))
	}
	return scene.Build(s.ctrl.Snapshot(), opts...)
}

// sessionStore holds live sessions in memory. Sessions are never
// persisted.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (st *sessionStore) create(ctx context.Context, d diagram.Diagram) *session {
	s := &session{
		id:      uuid.NewString(),
		created: time.Now(),
	}
	s.ctrl = interaction.New(d, interaction.WithContext(context.WithoutCancel(ctx)))

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()

	observability.Session().OnSessionOpen(ctx, s.id)
	return s
}

func (st *sessionStore) get(id string) (*session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	return s, nil
}

func (st *sessionStore) remove(ctx context.Context, id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}

	s.mu.Lock()
	s.ctrl.Leave()
	s.mu.Unlock()

	observability.Session().OnSessionClose(ctx, id, time.Since(s.created))
	return nil
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
