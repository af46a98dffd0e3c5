package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	t.Run("Should accept a plain address", func(t *testing.T) {
		assert.NoError(t, ValidateEmail("student@example.com"))
	})

	t.Run("Should reject malformed addresses", func(t *testing.T) {
		for _, email := range []string{"", "not-an-email", "@example.com", "a@"} {
			assert.Error(t, ValidateEmail(email), "email %q", email)
		}
	})

	t.Run("Should reject display-name forms", func(t *testing.T) {
		assert.Error(t, ValidateEmail("Fleur <fleur@example.com>"))
	})
}

func TestValidateUsername(t *testing.T) {
	t.Run("Should accept letters digits and separators", func(t *testing.T) {
		for _, username := range []string{"fleur.j", "fleur_j", "fleur-j", "abc", "Fleur123"} {
			assert.NoError(t, ValidateUsername(username), "username %q", username)
		}
	})

	t.Run("Should reject out-of-range lengths and bad characters", func(t *testing.T) {
		for _, username := range []string{"", "ab", strings.Repeat("a", 31), "fleur j", "fleur!"} {
			assert.Error(t, ValidateUsername(username), "username %q", username)
		}
	})
}

func TestValidatePassword(t *testing.T) {
	t.Run("Should accept a long unique password", func(t *testing.T) {
		assert.NoError(t, ValidatePassword("petals-and-stems-42"))
	})

	t.Run("Should reject short passwords", func(t *testing.T) {
		assert.Error(t, ValidatePassword("short"))
	})

	t.Run("Should reject well-known passwords", func(t *testing.T) {
		assert.Error(t, ValidatePassword("qwertyuiop12"))
	})
}
