// Package session tracks one account's authentication state as a small state
// machine: loading -> unauthenticated | authenticated (with or without a
// provisioned profile). The store is the single writer; everything else
// observes snapshots. There is no true concurrent mutation, only sequential
// async continuations, so correctness hinges on the staleness guard: every
// continuation checks that its result is still current before writing.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/blomstudio/blom/internal/await"
	"github.com/blomstudio/blom/internal/model"
)

type State string

const (
	// StateLoading: bootstrap or a sign-in transition is in progress.
	StateLoading         State = "loading"
	StateUnauthenticated State = "unauthenticated"
	// StateAuthenticated: identity present; the profile may still be absent
	// or incomplete.
	StateAuthenticated State = "authenticated"
)

type Snapshot struct {
	State           State          `json:"state"`
	User            *model.User    `json:"user,omitempty"`
	Profile         *model.Profile `json:"profile,omitempty"`
	ProfileComplete bool           `json:"profile_complete"`
}

type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event is an authentication-state transition delivered to the store.
type Event struct {
	Type EventType   `json:"type"`
	User *model.User `json:"user,omitempty"`
}

// Backend is what the store needs from the rest of the system.
//
// RecoverSession returns the previously established identity, or (nil, nil)
// when there is none. FetchProfile returns (nil, nil) for "not yet
// provisioned" — absence is a state, not an error.
type Backend interface {
	RecoverSession(ctx context.Context) (*model.User, error)
	FetchProfile(ctx context.Context, userID string) (*model.Profile, error)
	SignOut(ctx context.Context) error
}

type Store struct {
	backend          Backend
	bootstrapTimeout time.Duration

	mu      sync.Mutex
	seq     uint64 // bumped on every identity-changing transition
	snap    Snapshot
	nextSub int
	subs    map[int]chan Snapshot
}

func NewStore(backend Backend, bootstrapTimeout time.Duration) *Store {
	return &Store{
		backend:          backend,
		bootstrapTimeout: bootstrapTimeout,
		snap:             Snapshot{State: StateLoading},
		subs:             make(map[int]chan Snapshot),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers an observer for state changes. The returned cancel
// function must be called exactly once when the observer goes away; it
// closes the channel, after which no further snapshots are delivered. Slow
// observers lose intermediate snapshots rather than block the store.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 8)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		sub, ok := s.subs[id]
		if !ok {
			return
		}
		delete(s.subs, id)
		close(sub)
	}
	return ch, cancel
}

// Initialize recovers a previously established session. It always completes
// within the bootstrap timeout: a hanging recovery call degrades to
// unauthenticated instead of leaving the loading flag stuck.
func (s *Store) Initialize(ctx context.Context) {
	seq := s.beginTransition()

	user, outcome, err := await.WithTimeout(ctx, s.bootstrapTimeout, func(ctx context.Context) (*model.User, error) {
		return s.backend.RecoverSession(ctx)
	})

	if outcome != await.OK {
		if outcome == await.TimedOut {
			slog.Warn("session bootstrap timed out", "timeout", s.bootstrapTimeout)
		} else {
			slog.Warn("session bootstrap failed", "error", err)
		}
		s.applyIfCurrent(seq, Snapshot{State: StateUnauthenticated})
		return
	}

	if user == nil {
		s.applyIfCurrent(seq, Snapshot{State: StateUnauthenticated})
		return
	}

	s.resolveProfile(ctx, seq, user)
}

// HandleEvent processes one authentication-state transition. Events must be
// delivered sequentially, in provider order. A token refresh that does not
// change the identity is a no-op: it must not refetch the profile or flip
// the state back to loading.
func (s *Store) HandleEvent(ctx context.Context, e Event) {
	switch e.Type {
	case EventTokenRefreshed:
		s.mu.Lock()
		current := s.snap.User
		s.mu.Unlock()
		if e.User == nil || (current != nil && current.ID == e.User.ID) {
			return
		}
		// A refresh that carries a different identity is identity-changing
		// after all; fall through to the sign-in path.
		fallthrough

	case EventSignedIn:
		if e.User == nil {
			return
		}
		seq := s.beginTransition()
		s.resolveProfile(ctx, seq, e.User)

	case EventSignedOut:
		s.mu.Lock()
		s.seq++
		s.snap = Snapshot{State: StateUnauthenticated}
		s.publishLocked()
		s.mu.Unlock()
	}
}

// SignOut invalidates the remote session and clears identity and profile.
// It touches nothing else.
func (s *Store) SignOut(ctx context.Context) {
	err := s.backend.SignOut(ctx)
	if err != nil {
		slog.Warn("remote sign-out failed, clearing local state anyway", "error", err)
	}
	s.HandleEvent(ctx, Event{Type: EventSignedOut})
}

// beginTransition bumps the sequence number and enters loading.
func (s *Store) beginTransition() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.snap = Snapshot{State: StateLoading}
	s.publishLocked()
	return s.seq
}

// resolveProfile fetches the profile for user and applies the authenticated
// snapshot, unless a newer transition started in the meantime. Profile fetch
// problems degrade to "authenticated, incomplete profile" so the caller can
// route to account setup; they are never fatal here.
func (s *Store) resolveProfile(ctx context.Context, seq uint64, user *model.User) {
	profile, err := s.backend.FetchProfile(ctx, user.ID)
	if err != nil {
		slog.Warn("profile fetch failed, treating profile as incomplete", "error", err, "user_id", user.ID)
		profile = nil
	}

	s.applyIfCurrent(seq, Snapshot{
		State:           StateAuthenticated,
		User:            user,
		Profile:         profile,
		ProfileComplete: profile != nil && profile.IsComplete(),
	})
}

// applyIfCurrent writes the snapshot only if no newer transition superseded
// seq. A stale continuation's result is dropped, so observers always see the
// latest event's eventual outcome.
func (s *Store) applyIfCurrent(seq uint64, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != seq {
		return
	}
	s.snap = snap
	s.publishLocked()
}

func (s *Store) publishLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- s.snap:
		default:
		}
	}
}
