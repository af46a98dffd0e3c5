package handler

import (
	"errors"
	"net/http"

	"github.com/blomstudio/blom/internal/ctxkeys"
	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/repository"
	"github.com/blomstudio/blom/internal/service"
)

type CourseHandler struct {
	courseService  *service.CourseService
	accessResolver *service.AccessResolver
}

func NewCourseHandler(courseService *service.CourseService, accessResolver *service.AccessResolver) *CourseHandler {
	return &CourseHandler{courseService: courseService, accessResolver: accessResolver}
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list courses")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

type courseDetailResponse struct {
	Course *model.Course          `json:"course"`
	Access service.AccessDecision `json:"access"`
}

// Detail resolves by slug or id. The access decision rides along so the
// client renders the right call to action without a second round trip.
func (h *CourseHandler) Detail(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseService.ByRef(r.Context(), r.PathValue("ref"))
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			respondError(w, http.StatusNotFound, "course not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load course")
		return
	}

	decision := h.accessResolver.HasAccess(r.Context(), ctxkeys.User(r.Context()), course.ID)
	respondJSON(w, http.StatusOK, courseDetailResponse{Course: course, Access: decision})
}

// Lessons returns the course outline. Video URLs are presigned only for
// preview lessons unless the caller has access to the course.
func (h *CourseHandler) Lessons(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseService.ByRef(r.Context(), r.PathValue("ref"))
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			respondError(w, http.StatusNotFound, "course not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load course")
		return
	}

	decision := h.accessResolver.HasAccess(r.Context(), ctxkeys.User(r.Context()), course.ID)

	lessons, err := h.courseService.Lessons(r.Context(), course, decision.Granted)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load lessons")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"lessons": lessons,
		"access":  decision,
	})
}

// Access answers "may I view this course?" on its own. Unauthenticated
// callers get a denied decision, not an error.
func (h *CourseHandler) Access(w http.ResponseWriter, r *http.Request) {
	decision := h.accessResolver.HasAccess(r.Context(), ctxkeys.User(r.Context()), r.PathValue("ref"))
	respondJSON(w, http.StatusOK, decision)
}

func (h *CourseHandler) Enrolled(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	courses, err := h.courseService.EnrolledCourses(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list enrolled courses")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"courses": courses})
}
