package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/radiusdt/dsp-console/internal/auth"
	"github.com/radiusdt/dsp-console/internal/config"
	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func echoActor(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a, ok := ActorFromContext(r.Context()); ok && a.Manager {
			w.Header().Set("X-Manager", "1")
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager(config.AuthConfig{JWTSecret: "s", AccessTTL: time.Hour, RefreshTTL: time.Hour})
	mw := NewAuthMiddleware(tokens, []string{"/health", "/api/token"}, zap.NewNop())
	h := mw.Handler(echoActor(t))

	pair, err := tokens.IssuePair(&models.User{ID: 5, Manager: true})
	require.NoError(t, err)

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"skipped path", "/health", "", http.StatusNoContent},
		{"skipped subpath", "/api/token/refresh", "", http.StatusNoContent},
		{"missing token", "/api/campaigns", "", http.StatusUnauthorized},
		{"refresh token used as access", "/api/campaigns", "Bearer " + pair.Refresh, http.StatusUnauthorized},
		{"garbage", "/api/campaigns", "Bearer nope", http.StatusUnauthorized},
		{"valid", "/api/campaigns", "Bearer " + pair.Access, http.StatusNoContent},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, c.path, nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, c.want, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "1", rec.Header().Get("X-Manager"))
}

func TestRecoveryMiddlewareWritesEnvelope(t *testing.T) {
	h := NewRecoveryMiddleware(zap.NewNop()).Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"internal server error","data":null}`, rec.Body.String())
}

func TestRateLimitPerIPOnAuthEndpoints(t *testing.T) {
	rl := NewRateLimitMiddleware(config.RateLimitConfig{
		Enabled:   true,
		RPS:       1000,
		Burst:     1000,
		AuthRPS:   0.001,
		AuthBurst: 2,
	}, zap.NewNop(), nil)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(path, ip string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("/api/token", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("/api/token", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("/api/token", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("/api/token", "10.0.0.2"))
	assert.Equal(t, http.StatusOK, do("/api/campaigns", "10.0.0.1"))

	rl.CleanupIPLimiters()
	assert.Equal(t, http.StatusOK, do("/api/token", "10.0.0.1"))
}
