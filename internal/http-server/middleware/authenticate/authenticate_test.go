package authenticate_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"IzdatBot/entity"
	"IzdatBot/internal/http-server/middleware/authenticate"

	"github.com/stretchr/testify/assert"
)

type staticAuth struct{}

func (staticAuth) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if token == "sesame" {
		return &entity.UserAuth{Username: "admin"}, nil
	}
	return nil, errors.New("unknown token")
}

func protected(t *testing.T) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := authenticate.New(log, staticAuth{})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func do(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	protected(t).ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_ValidToken(t *testing.T) {
	rec := do(t, "Bearer sesame")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Header().Get("X-User"))
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	rec := do(t, "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	rec := do(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_BareBearerHeader(t *testing.T) {
	rec := do(t, "Bearer")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
