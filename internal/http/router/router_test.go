package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apphttp "avfall_backend/internal/http"
	"avfall_backend/platform/httpkit"
	"avfall_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "router-secret"

type testConfig struct{}

func (testConfig) GetHTTPAddr() string         { return ":0" }
func (testConfig) GetCORSAllowAll() bool       { return false }
func (testConfig) GetCORSOrigins() []string    { return []string{"http://localhost:5173"} }
func (testConfig) GetPublicRateLimit() float64 { return 100 }
func (testConfig) GetPublicRateBurst() int     { return 100 }
func (testConfig) GetJWTSecret() string        { return secret }
func (testConfig) GetJWTAudience() string      { return "authenticated" }
func (testConfig) GetAdminRole() string        { return "admin" }

type roles map[uuid.UUID]string

func (r roles) RoleOf(_ context.Context, id uuid.UUID) (string, error) {
	if role, ok := r[id]; ok {
		return role, nil
	}
	return "user", nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type probeModule struct{}

func (probeModule) Name() string { return "probe" }

func (probeModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ok := func(c *gin.Context) { httpkit.OK(c, gin.H{"ok": true}) }
	ctx.Public.GET("/probe", ctx.PublicRateLimit, ok)
	ctx.V1.GET("/open", ok)
	ctx.Protected.GET("/mine", ok)
	ctx.Admin.GET("/secret", ok)
}

func newApp(health apphttp.HealthChecker, r roles) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  testConfig{},
		Logger:  logger.Discard(),
		Health:  health,
		Roles:   r,
		Modules: []apphttp.Module{probeModule{}},
	})
}

func bearer(t *testing.T, sub uuid.UUID) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub.String(),
		"aud": "authenticated",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(engine http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(newApp(pinger{}, nil), http.MethodGet, "/api/health", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(newApp(pinger{err: errors.New("down")}, nil), http.MethodGet, "/api/health", "").Code)
}

func TestRouteGroups(t *testing.T) {
	admin := uuid.New()
	member := uuid.New()
	engine := newApp(pinger{}, roles{admin: "admin"})

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		status int
	}{
		{"public", http.MethodGet, "/api/probe", "", http.StatusOK},
		{"open v1", http.MethodGet, "/api/v1/open", "", http.StatusOK},
		{"protected without token", http.MethodGet, "/api/v1/mine", "", http.StatusUnauthorized},
		{"protected with token", http.MethodGet, "/api/v1/mine", bearer(t, member), http.StatusOK},
		{"admin as member", http.MethodGet, "/api/v1/admin/secret", bearer(t, member), http.StatusForbidden},
		{"admin as admin", http.MethodGet, "/api/v1/admin/secret", bearer(t, admin), http.StatusOK},
		{"wrong method", http.MethodDelete, "/api/v1/open", "", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/api/v1/nothing", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, serve(engine, tt.method, tt.path, tt.auth).Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := newApp(pinger{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/open", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
