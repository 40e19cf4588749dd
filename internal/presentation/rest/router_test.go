package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/bibbank/registry-risk/pkg/auth"
	"github.com/bibbank/registry-risk/pkg/observability"
	"github.com/bibbank/registry-risk/pkg/testutil"
)

func newRouter(t *testing.T, jwtService *auth.JWTService, limiter *rate.Limiter, checks map[string]ReadinessCheck) http.Handler {
	t.Helper()
	logger := observability.NopLogger()
	return NewRouter(RouterConfig{
		Risk:   buildHandler(registrySource(t), jwtService != nil),
		Health: NewHealthHandler("test", checks, logger),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
		JWTService: jwtService,
		Limiter:    limiter,
		Logger:     logger,
	})
}

func TestRouter_Probes(t *testing.T) {
	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: "router-test-secret", Expiration: time.Hour})
	require.NoError(t, err)
	router := newRouter(t, svc, nil, nil)

	for _, path := range []string{"/health", "/healthz", "/readyz", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}

	t.Run("static health payload", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		resp := decodeBody[HealthResponse](t, rec)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, ServiceName, resp.Service)
		assert.Equal(t, "test", resp.Version)
	})
}

func TestRouter_Auth(t *testing.T) {
	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: "router-test-secret", Expiration: time.Hour})
	require.NoError(t, err)
	router := newRouter(t, svc, nil, nil)

	t.Run("api requires a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, post("/api/v1/fraud-check", `{"cnpj":"`+testutil.ValidCNPJ+`"}`))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("api accepts a valid token", func(t *testing.T) {
		token, err := svc.GenerateToken(testutil.TestUserID, testutil.TestTenantID, []string{auth.RoleAnalyst})
		require.NoError(t, err)

		req := post("/api/v1/fraud-check", `{"cnpj":"`+testutil.ValidCNPJ+`"}`)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong method is 405", func(t *testing.T) {
		token, err := svc.GenerateToken(testutil.TestUserID, testutil.TestTenantID, []string{auth.RoleAnalyst})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/fraud-check", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestRouter_RateLimit(t *testing.T) {
	router := newRouter(t, nil, rate.NewLimiter(rate.Limit(1), 2), nil)

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, post("/api/v1/fraud-check", `{"cnpj":"`+testutil.ValidCNPJ+`"}`))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	t.Run("probes are not limited", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHealthHandler_Readyz(t *testing.T) {
	checks := map[string]ReadinessCheck{
		"database": func(context.Context) error { return nil },
		"kafka":    func(context.Context) error { return errors.New("no brokers") },
	}
	router := newRouter(t, nil, nil, checks)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeBody[ReadinessResponse](t, rec)
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, map[string]string{"database": "ok", "kafka": "failing"}, resp.Checks)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), LoggingMiddleware(observability.NopLogger()), RecoveryMiddleware(observability.NopLogger()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL", decodeBody[ErrorResponse](t, rec).Code)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}
