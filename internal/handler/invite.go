package handler

import (
	"errors"
	"net/http"

	"github.com/blomstudio/blom/internal/ctxkeys"
	"github.com/blomstudio/blom/internal/repository"
	"github.com/blomstudio/blom/internal/service"
)

type InviteHandler struct {
	inviteService *service.InviteService
}

func NewInviteHandler(inviteService *service.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// Claim redeems an invite token for the authenticated user. The body always
// carries the full claim result; the status code mirrors its outcome.
func (h *InviteHandler) Claim(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	result := h.inviteService.Claim(r.Context(), user.ID, r.PathValue("token"))
	respondJSON(w, claimStatusCode(result.Status), result)
}

func claimStatusCode(status service.ClaimStatus) int {
	switch status {
	case service.ClaimStatusClaimed:
		return http.StatusOK
	case service.ClaimStatusUsed:
		return http.StatusConflict
	case service.ClaimStatusExpired:
		return http.StatusGone
	default:
		return http.StatusBadGateway
	}
}

type createInviteRequest struct {
	Course        string `json:"course"` // slug or id
	Email         string `json:"email"`
	ExpiresInDays int    `json:"expires_in_days,omitempty"`
}

func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	err := decodeJSON(r, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	invite, course, err := h.inviteService.Create(r.Context(), req.Course, req.Email, req.ExpiresInDays)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			respondError(w, http.StatusNotFound, "course not found")
			return
		}
		if errors.Is(err, service.ErrInvalidEmail) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"invite":       invite,
		"course_slug":  course.Slug,
		"course_title": course.Title,
	})
}

func (h *InviteHandler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	courseRef := r.URL.Query().Get("course")
	if courseRef == "" {
		respondError(w, http.StatusBadRequest, "missing course query parameter")
		return
	}

	invites, err := h.inviteService.ListByCourse(r.Context(), courseRef)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			respondError(w, http.StatusNotFound, "course not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to list invites")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"invites": invites})
}

// Revoke deletes an unredeemed invite. Redeemed invites are immutable.
func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	err := h.inviteService.Revoke(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			respondError(w, http.StatusNotFound, "invite not found or already redeemed")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to revoke invite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
