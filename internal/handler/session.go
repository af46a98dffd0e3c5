package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/blomstudio/blom/internal/ctxkeys"
	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/service"
	"github.com/blomstudio/blom/internal/session"
)

type SessionHandler struct {
	profileService   *service.ProfileService
	bus              *session.Bus
	bootstrapTimeout time.Duration
}

func NewSessionHandler(profileService *service.ProfileService, bus *session.Bus, bootstrapTimeout time.Duration) *SessionHandler {
	return &SessionHandler{
		profileService:   profileService,
		bus:              bus,
		bootstrapTimeout: bootstrapTimeout,
	}
}

// Current returns the session snapshot for this request. The auth middleware
// already resolved user and profile; an absent profile just means account
// setup is still pending.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		respondJSON(w, http.StatusOK, session.Snapshot{State: session.StateUnauthenticated})
		return
	}

	profile := ctxkeys.Profile(r.Context())
	respondJSON(w, http.StatusOK, session.Snapshot{
		State:           session.StateAuthenticated,
		User:            user,
		Profile:         profile,
		ProfileComplete: profile != nil && profile.IsComplete(),
	})
}

// requestBackend adapts the already-authenticated request into the session
// store's backend: recovery returns the request identity, profiles come from
// the profile service, and remote sign-out is a no-op because the cookie is
// cleared at the HTTP layer.
type requestBackend struct {
	user     *model.User
	profiles *service.ProfileService
}

func (b requestBackend) RecoverSession(context.Context) (*model.User, error) {
	return b.user, nil
}

func (b requestBackend) FetchProfile(ctx context.Context, userID string) (*model.Profile, error) {
	return b.profiles.Fetch(ctx, userID)
}

func (b requestBackend) SignOut(context.Context) error {
	return nil
}

// Watch streams session snapshots over server-sent events. Each connection
// runs its own state machine: it bootstraps from the request identity, then
// folds in auth events published for this user (a sign-out in another tab
// reaches this one).
func (h *SessionHandler) Watch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	user := ctxkeys.User(r.Context())

	store := session.NewStore(requestBackend{user: user, profiles: h.profileService}, h.bootstrapTimeout)
	snapshots, unsubscribe := store.Subscribe()
	defer unsubscribe()

	events, cancelEvents := h.bus.Subscribe(user.ID)
	defer cancelEvents()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	store.Initialize(r.Context())

	for {
		select {
		case snap := <-snapshots:
			err := writeSSE(w, snap)
			if err != nil {
				return
			}
			flusher.Flush()
			if snap.State == session.StateUnauthenticated {
				// Signed out; nothing further to watch.
				return
			}
		case e := <-events:
			store.HandleEvent(r.Context(), e)
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, snap session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("failed to marshal session snapshot", "error", err)
		return err
	}
	_, err = w.Write([]byte("data: " + string(data) + "\n\n"))
	return err
}
