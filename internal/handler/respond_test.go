package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blomstudio/blom/internal/service"
)

func TestRespondError(t *testing.T) {
	t.Run("Should write the error shape with matching status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		respondError(rec, http.StatusNotFound, "course not found")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"error":"course not found","status":404}`, rec.Body.String())
	})
}

func TestDecodeJSON(t *testing.T) {
	t.Run("Should decode a valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com"}`))

		var body struct {
			Email string `json:"email"`
		}
		err := decodeJSON(req, &body)
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", body.Email)
	})

	t.Run("Should reject unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"emial":"typo"}`))

		var body struct {
			Email string `json:"email"`
		}
		assert.Error(t, decodeJSON(req, &body))
	})

	t.Run("Should reject invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))

		var body map[string]any
		assert.Error(t, decodeJSON(req, &body))
	})
}

func TestClaimStatusCode(t *testing.T) {
	cases := map[service.ClaimStatus]int{
		service.ClaimStatusClaimed: http.StatusOK,
		service.ClaimStatusUsed:    http.StatusConflict,
		service.ClaimStatusExpired: http.StatusGone,
		service.ClaimStatusFailed:  http.StatusBadGateway,
	}

	for status, want := range cases {
		assert.Equal(t, want, claimStatusCode(status), "status %s", status)
	}
}
