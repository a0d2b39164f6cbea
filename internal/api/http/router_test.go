package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/library-gateway/internal/api/dto"
	"github.com/spec-kit/library-gateway/internal/api/http/handlers"
	"github.com/spec-kit/library-gateway/internal/auth"
	"github.com/spec-kit/library-gateway/internal/domain"
	"github.com/spec-kit/library-gateway/internal/observability"
	apperrors "github.com/spec-kit/library-gateway/pkg/util"
)

const routerSecret = "router-test-secret"

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, claims *auth.Claims) (*domain.Identity, error) {
	switch claims.Subject {
	case "u-1":
		return &domain.Identity{ID: "u-1", Email: "siswa@example.com", Name: "Siti", Role: domain.RoleStudent}, nil
	case "u-2":
		return &domain.Identity{ID: "u-2", Email: "admin@example.com", Name: "Agus", Role: domain.RoleAdmin}, nil
	default:
		return nil, apperrors.NewUnauthorized("unknown user")
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func sign(t *testing.T, subject string, role domain.Role) string {
	t.Helper()
	claims := auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(routerSecret))
	require.NoError(t, err)
	return token
}

func newTestApp(t *testing.T, redisErr error, upstream string) (*fiber.App, *observability.Metrics) {
	t.Helper()
	verifier, err := auth.NewTokenVerifier(routerSecret, 0)
	require.NoError(t, err)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cookie := auth.CredentialCookie{Name: "token"}

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("library-gateway", "test", metrics,
			handlers.DependencyCheck{Name: "postgres", Pinger: stubPinger{}},
			handlers.DependencyCheck{Name: "redis", Pinger: stubPinger{err: redisErr}},
		),
		Identity:    handlers.NewIdentityHandler(),
		Pages:       handlers.NewPageHandler(upstream, logger),
		Credentials: auth.NewCredentialMiddleware(verifier, cookie, stubResolver{}),
		Gateway:     auth.NewGatewayMiddleware(auth.NewGateway(verifier), cookie, logger, metrics),
	})
	return app, metrics
}

func send(t *testing.T, app *fiber.App, req *stdhttp.Request) (*stdhttp.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthRoutes(t *testing.T) {
	app, _ := newTestApp(t, nil, "")

	resp, body := send(t, app, httptest.NewRequest(stdhttp.MethodGet, "/health/live", nil))
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"alive"`)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	resp, body = send(t, app, httptest.NewRequest(stdhttp.MethodGet, "/health/ready", nil))
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"redis":"ok"`)
}

func TestReady_ReportsFailingDependency(t *testing.T) {
	app, _ := newTestApp(t, errors.New("connection refused"), "")

	resp, body := send(t, app, httptest.NewRequest(stdhttp.MethodGet, "/health/ready", nil))
	assert.Equal(t, stdhttp.StatusServiceUnavailable, resp.StatusCode)

	var envelope dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", envelope.Error.Code)
	assert.Equal(t, "connection refused", envelope.Error.Details["redis"])
	assert.Equal(t, "ok", envelope.Error.Details["postgres"])
}

func TestMe(t *testing.T) {
	app, _ := newTestApp(t, nil, "")

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(stdhttp.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&stdhttp.Cookie{Name: "token", Value: sign(t, "u-1", domain.RoleStudent)})
		resp, body := send(t, app, req)
		require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

		var envelope dto.SessionResponse
		require.NoError(t, json.Unmarshal(body, &envelope))
		assert.Equal(t, "Siti", envelope.Data.User.Name)
		assert.Nil(t, envelope.Data.Auth)
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(stdhttp.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, "u-2", domain.RoleAdmin))
		resp, body := send(t, app, req)
		require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"role":"ADMIN"`)
	})

	t.Run("missing credential", func(t *testing.T) {
		resp, body := send(t, app, httptest.NewRequest(stdhttp.MethodGet, "/api/auth/me", nil))
		assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, string(body), `"code":"UNAUTHORIZED"`)
	})

	t.Run("invalid credential is not redirected", func(t *testing.T) {
		req := httptest.NewRequest(stdhttp.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&stdhttp.Cookie{Name: "token", Value: "garbage"})
		resp, _ := send(t, app, req)
		assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Location"))
	})

	t.Run("unknown user", func(t *testing.T) {
		req := httptest.NewRequest(stdhttp.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&stdhttp.Cookie{Name: "token", Value: sign(t, "ghost", domain.RoleStudent)})
		resp, body := send(t, app, req)
		assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, string(body), "unknown user")
	})
}

func TestPagesPassThroughGateway(t *testing.T) {
	app, metrics := newTestApp(t, nil, "")

	resp, _ := send(t, app, httptest.NewRequest(stdhttp.MethodGet, "/siswa/katalog", nil))
	assert.Equal(t, stdhttp.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/login?redirect=%2Fsiswa%2Fkatalog", resp.Header.Get("Location"))

	resp, body := send(t, app, httptest.NewRequest(stdhttp.MethodGet, "/katalog", nil))
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"page":"/katalog"}`, string(body))

	req := httptest.NewRequest(stdhttp.MethodGet, "/admin", nil)
	req.AddCookie(&stdhttp.Cookie{Name: "token", Value: sign(t, "u-2", domain.RoleAdmin)})
	resp, _ = send(t, app, req)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	decisions := metrics.Snapshot().Decisions
	assert.Equal(t, int64(1), decisions["rule1|redirect"])
	assert.Equal(t, int64(1), decisions["rule2|continue"])
	assert.Equal(t, int64(1), decisions["rule8|continue"])

	resp, body = send(t, app, httptest.NewRequest(stdhttp.MethodGet, "/health/metrics", nil))
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"rule1|redirect":1`)
}

func TestErrorMiddleware_RecoversPanics(t *testing.T) {
	app, metrics := newTestApp(t, nil, "")

	resp, body := send(t, app, httptest.NewRequest(stdhttp.MethodGet, "/boom", nil))
	assert.Equal(t, stdhttp.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), `"code":"INTERNAL_ERROR"`)
	assert.Equal(t, int64(1), metrics.Snapshot().Errors["/boom|GET|INTERNAL_ERROR"])
}

func TestUpstreamOnlySeesGatedCanonicalPaths(t *testing.T) {
	var (
		mu       sync.Mutex
		received []string
	)
	seen := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), received...)
	}
	upstream := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		mu.Lock()
		received = append(received, r.URL.RequestURI())
		mu.Unlock()
		_, _ = io.WriteString(w, "upstream "+r.URL.Path)
	}))
	t.Cleanup(upstream.Close)
	app, _ := newTestApp(t, nil, upstream.URL)

	for _, path := range []string{"/admin", "/%61dmin", "//admin", "/admin/laporan.csv", "/katalog/../admin"} {
		resp, _ := send(t, app, httptest.NewRequest(stdhttp.MethodGet, path, nil))
		assert.Equal(t, stdhttp.StatusTemporaryRedirect, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Location"), "/login?redirect=%2Fadmin", path)
	}

	req := httptest.NewRequest(stdhttp.MethodGet, "/siswa/../admin", nil)
	req.AddCookie(&stdhttp.Cookie{Name: "token", Value: sign(t, "u-1", domain.RoleStudent)})
	resp, _ := send(t, app, req)
	assert.Equal(t, stdhttp.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/siswa", resp.Header.Get("Location"))
	assert.Empty(t, seen(), "nothing gated reached the upstream")

	resp, body := send(t, app, httptest.NewRequest(stdhttp.MethodGet, "//katalog/./buku?q=fisika", nil))
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "upstream /katalog/buku", string(body))
	assert.Equal(t, []string{"/katalog/buku?q=fisika"}, seen())
}
