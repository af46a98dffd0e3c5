package middleware

import (
	"net/http"
	"strconv"

	"github.com/blomstudio/blom/internal/ctxkeys"
	"github.com/blomstudio/blom/internal/repository"
	"github.com/blomstudio/blom/internal/service"
)

// Auth checks for a JWT cookie and adds user + profile to the context when
// valid. A user without a profile row stays authenticated: the profile is
// simply absent from the context until account setup provisions it.
func Auth(authService *service.AuthService, users repository.UserRepository, profiles *service.ProfileService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("auth_token")
			if err != nil {
				// No cookie, continue without auth
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authService.VerifyJWT(cookie.Value)
			if err != nil {
				// Invalid token, clear cookie and continue
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok {
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.ByID(r.Context(), userID)
			if err != nil {
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// Security: Remove password hash from context
			user.PasswordHash = nil

			ctx := ctxkeys.WithUser(r.Context(), user)

			// nil profile means "not yet provisioned", not an auth failure.
			profile, err := profiles.Fetch(r.Context(), userID)
			if err == nil && profile != nil {
				ctx = ctxkeys.WithProfile(ctx, profile)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with 401.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireAdmin rejects requests unless the user is on the admin allowlist or
// carries the admin role on their profile.
func RequireAdmin(adminUserIDs []string) func(http.HandlerFunc) http.HandlerFunc {
	ids := make(map[string]bool, len(adminUserIDs))
	for _, id := range adminUserIDs {
		ids[id] = true
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := ctxkeys.User(r.Context())
			if user == nil {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			profile := ctxkeys.Profile(r.Context())
			if !ids[user.ID] && (profile == nil || !profile.IsAdmin()) {
				writeAuthError(w, http.StatusForbidden, "admin access required")
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `","status":` + strconv.Itoa(status) + `}`))
}
