package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/blomstudio/blom/internal/ctxkeys"
	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/service"
	"github.com/blomstudio/blom/internal/session"
)

type AuthHandler struct {
	authService *service.AuthService
	bus         *session.Bus
	signToken   func(user *model.User) (string, error)
}

func NewAuthHandler(authService *service.AuthService, bus *session.Bus) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		bus:         bus,
		signToken:   authService.GenerateJWT,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// InviteToken rides along so a pending invite survives the
	// unauthenticated-to-authenticated transition.
	InviteToken string `json:"invite_token,omitempty"`
}

// signInResponse echoes the invite token back so the client can resume the
// claim it parked before authenticating.
type signInResponse struct {
	User        *model.User `json:"user"`
	InviteToken string      `json:"invite_token,omitempty"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	err := decodeJSON(r, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.establishSession(w, user)
	if err != nil {
		slog.Error("failed to establish session", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to establish session")
		return
	}

	user.PasswordHash = nil
	respondJSON(w, http.StatusCreated, signInResponse{User: user, InviteToken: req.InviteToken})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	err := decodeJSON(r, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.establishSession(w, user)
	if err != nil {
		slog.Error("failed to establish session", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to establish session")
		return
	}

	user.PasswordHash = nil
	respondJSON(w, http.StatusOK, signInResponse{User: user, InviteToken: req.InviteToken})
}

type magicLinkRequest struct {
	Email       string `json:"email"`
	InviteToken string `json:"invite_token,omitempty"`
}

// MagicLink sends a sign-in link, creating a passwordless account for new
// addresses. The response is the same either way.
func (h *AuthHandler) MagicLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	err := decodeJSON(r, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.authService.SendMagicLink(r.Context(), req.Email, req.InviteToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to send magic link", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to send magic link")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"message": "check your email for a sign-in link",
	})
}

// VerifyMagicLink consumes the emailed token and establishes the session. The
// invite token from the link's query string is echoed back untouched.
func (h *AuthHandler) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "missing token")
		return
	}

	user, err := h.authService.VerifyMagicLink(r.Context(), token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid or expired magic link")
		return
	}

	err = h.establishSession(w, user)
	if err != nil {
		slog.Error("failed to establish session", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to establish session")
		return
	}

	user.PasswordHash = nil
	respondJSON(w, http.StatusOK, signInResponse{
		User:        user,
		InviteToken: r.URL.Query().Get("invite"),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)

	if user := ctxkeys.User(r.Context()); user != nil {
		h.bus.Publish(user.ID, session.Event{Type: session.EventSignedOut})
	}

	w.WriteHeader(http.StatusNoContent)
}

// Refresh reissues the JWT cookie for the authenticated user and publishes a
// token-refresh event. The identity is unchanged, so session watchers treat
// it as a no-op.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	token, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to refresh token", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to refresh session")
		return
	}

	h.authService.SetJWTCookie(w, token, time.Now().Add(h.authService.JWTExpiry()))
	h.bus.Publish(user.ID, session.Event{Type: session.EventTokenRefreshed, User: user})

	w.WriteHeader(http.StatusNoContent)
}

// establishSession sets the JWT cookie and announces the sign-in. Nothing may
// be written to w before this is called: on a signing failure the caller must
// still be free to respond with an error status.
func (h *AuthHandler) establishSession(w http.ResponseWriter, user *model.User) error {
	token, err := h.signToken(user)
	if err != nil {
		return fmt.Errorf("failed to generate JWT: %w", err)
	}

	h.authService.SetJWTCookie(w, token, time.Now().Add(h.authService.JWTExpiry()))
	h.bus.Publish(user.ID, session.Event{Type: session.EventSignedIn, User: user})
	return nil
}
