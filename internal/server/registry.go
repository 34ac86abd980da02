package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/store"
	"github.com/fpang/tubescript-ai/internal/workflow"
)

// ErrSessionNotFound is returned for IDs with no live or stored session.
var ErrSessionNotFound = errors.New("session not found")

// DefaultIdleTimeout is how long an unused session stays in memory before
// Sweep drops it. Dropped sessions are restored from the store on demand.
const DefaultIdleTimeout = 30 * time.Minute

// MachineFactory builds a fresh machine for a session ID.
type MachineFactory func(id string) *workflow.Machine

// Registry keeps live sessions in memory and writes every state change
// through to a SnapshotStore. Sessions missing from memory are restored
// from the store on first access.
type Registry struct {
	store   store.SnapshotStore
	factory MachineFactory
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	machine     *workflow.Machine
	unsubscribe func()
	// lastUsed is guarded by Registry.mu.
	lastUsed time.Time
	// persistMu orders snapshot writes so the stored copy never goes
	// backwards when the filler and a request race.
	persistMu sync.Mutex
}

func NewRegistry(st store.SnapshotStore, factory MachineFactory) *Registry {
	return &Registry{
		store:    st,
		factory:  factory,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Create starts a new session in the INPUT stage.
func (r *Registry) Create(ctx context.Context) (*workflow.Machine, error) {
	id := uuid.NewString()
	sess := &session{machine: r.factory(id)}
	if err := r.persist(ctx, sess); err != nil {
		return nil, err
	}
	r.attach(sess)

	r.mu.Lock()
	sess.lastUsed = r.now()
	r.sessions[id] = sess
	r.mu.Unlock()

	log.Info().Str("session", id).Msg("Session created")
	return sess.machine, nil
}

// Get returns the live machine for id, restoring it from the store if
// needed.
func (r *Registry) Get(ctx context.Context, id string) (*workflow.Machine, error) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		sess.lastUsed = r.now()
	}
	r.mu.Unlock()
	if ok {
		return sess.machine, nil
	}

	if err := store.ValidateID(id); err != nil {
		return nil, ErrSessionNotFound
	}
	snap, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrSessionNotFound
	}

	m := r.factory(id)
	m.Restore(snap.State, snap.Files)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id]; ok {
		existing.lastUsed = r.now()
		return existing.machine, nil
	}
	sess = &session{machine: m, lastUsed: r.now()}
	r.attach(sess)
	r.sessions[id] = sess

	log.Info().
		Str("session", id).
		Str("stage", string(snap.State.Stage)).
		Time("updated_at", snap.UpdatedAt).
		Msg("Session restored from snapshot")
	return m, nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Wait blocks until every live session's image filler has exited or ctx
// is done.
func (r *Registry) Wait(ctx context.Context) error {
	r.mu.Lock()
	sessions := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, s := range sessions {
			s.machine.Wait()
		}
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Evict drops sessions unused for longer than maxIdle. Sessions that are
// generating or have an open event stream stay. It returns the number
// dropped.
func (r *Registry) Evict(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var dropped []*session
	for id, s := range r.sessions {
		// The registry's own persist hook is always subscribed.
		if s.lastUsed.After(cutoff) || s.machine.Busy() || s.machine.Watchers() > 1 {
			continue
		}
		delete(r.sessions, id)
		dropped = append(dropped, s)
	}
	r.mu.Unlock()

	for _, s := range dropped {
		s.unsubscribe()
		log.Debug().Str("session", s.machine.ID()).Msg("Idle session evicted")
	}
	return len(dropped)
}

// Sweep runs Evict every interval until ctx is done.
func (r *Registry) Sweep(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(maxIdle); n > 0 {
				log.Info().Int("evicted", n).Int("live", r.Len()).Msg("Swept idle sessions")
			}
		}
	}
}

func (r *Registry) attach(sess *session) {
	sess.unsubscribe = sess.machine.Subscribe(func(workflow.State) {
		if err := r.persist(context.Background(), sess); err != nil {
			log.Error().Err(err).Str("session", sess.machine.ID()).Msg("Failed to persist session snapshot")
		}
	})
}

// persist writes the machine's current state, not the notified one, so
// the last write always carries the newest state.
func (r *Registry) persist(ctx context.Context, sess *session) error {
	sess.persistMu.Lock()
	defer sess.persistMu.Unlock()
	m := sess.machine
	return r.store.Put(ctx, &store.Snapshot{
		ID:        m.ID(),
		State:     m.State(),
		Files:     m.Files(),
		UpdatedAt: r.now().UTC(),
	})
}
