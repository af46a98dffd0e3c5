package handler

import (
	"net/http"
	"strings"

	"github.com/blomstudio/blom/internal/ctxkeys"
	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/service"
)

type AccountHandler struct {
	profileService *service.ProfileService
}

func NewAccountHandler(profileService *service.ProfileService) *AccountHandler {
	return &AccountHandler{profileService: profileService}
}

type accountResponse struct {
	User            *model.User    `json:"user"`
	Profile         *model.Profile `json:"profile,omitempty"`
	ProfileComplete bool           `json:"profile_complete"`
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	profile := ctxkeys.Profile(r.Context())

	respondJSON(w, http.StatusOK, accountResponse{
		User:            user,
		Profile:         profile,
		ProfileComplete: profile != nil && profile.IsComplete(),
	})
}

type setupProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Phone     string `json:"phone,omitempty"`
}

// SetupProfile provisions or updates the profile from the account-setup
// screen. It is the only way a profile row comes into existence.
func (h *AccountHandler) SetupProfile(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req setupProfileRequest
	err := decodeJSON(r, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profileService.Setup(r.Context(), user, req.FirstName, req.LastName, req.Username, req.Phone)
	if err != nil {
		if strings.Contains(err.Error(), "failed to") {
			respondError(w, http.StatusInternalServerError, "failed to save profile")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, accountResponse{
		User:            user,
		Profile:         profile,
		ProfileComplete: profile.IsComplete(),
	})
}
