package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/repository"
	"github.com/blomstudio/blom/internal/service"
	"github.com/blomstudio/blom/internal/session"
)

type fakeUserRepo struct {
	user *model.User
}

func (r *fakeUserRepo) ByID(ctx context.Context, id string) (*model.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if r.user != nil && r.user.Email == email {
		return r.user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error { return nil }
func (r *fakeUserRepo) List(ctx context.Context) ([]*model.User, error)   { return nil, nil }

func newLoginHandler(t *testing.T, password string) *AuthHandler {
	t.Helper()

	auth := service.NewAuthService(nil, nil, nil, "test-secret", false, time.Hour, 15*time.Minute)
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &model.User{ID: "u1", Email: "u1@example.com", PasswordHash: &hash}
	auth = service.NewAuthService(&fakeUserRepo{user: user}, nil, nil, "test-secret", false, time.Hour, 15*time.Minute)

	return NewAuthHandler(auth, session.NewBus())
}

func authCookie(res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == "auth_token" {
			return c
		}
	}
	return nil
}

func TestAuthHandlerLogin(t *testing.T) {
	body := `{"email":"u1@example.com","password":"correct-horse-battery"}`

	t.Run("Should set the auth cookie on successful login", func(t *testing.T) {
		h := newLoginHandler(t, "correct-horse-battery")

		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))

		res := rec.Result()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		cookie := authCookie(res)
		require.NotNil(t, cookie)
		assert.NotEmpty(t, cookie.Value)
	})

	t.Run("Should respond 500 without a cookie when token signing fails", func(t *testing.T) {
		h := newLoginHandler(t, "correct-horse-battery")
		h.signToken = func(user *model.User) (string, error) {
			return "", errors.New("signing key unavailable")
		}

		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))

		res := rec.Result()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		assert.Nil(t, authCookie(res))
	})
}
