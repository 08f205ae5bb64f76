package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-analytics/config"
	"inventory-analytics/types"
)

func setupAppState(t *testing.T, mutate func(*config.AppConfiguration)) {
	t.Helper()
	appConfig := config.DefaultConfiguration()
	if mutate != nil {
		mutate(&appConfig)
	}
	appState := config.NewAppState(&appConfig, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, config.SetAppState(appState))
}

func chain(handler http.Handler) http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		StoreLoggerMiddleware,
		PanicRecoveryMiddleware,
		WebEndpointConfigMiddleware,
		LimitRequestSizeMiddleware,
		StoreClientIPMiddleware,
		CheckIPBlockedMiddleware,
		RateLimitMiddleware,
		RequestTimeoutMiddleware,
		HTTPMethodMiddleware,
		CheckHeadersMiddleware,
		SetHeadersMiddleware,
		WorkspaceMiddleware,
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func newTestMux(handler http.HandlerFunc) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(config.AnalyticsPattern, chain(handler))
	mux.Handle(config.RecordsPattern, chain(handler))
	mux.Handle("GET /unregistered", chain(handler))
	return mux
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestChainAttachesWorkspaceAndHeaders(t *testing.T) {
	setupAppState(t, nil)
	var seen *config.Workspace
	mux := newTestMux(func(w http.ResponseWriter, req *http.Request) {
		workspace, ok := GetWorkspaceFromRequestContext(req)
		require.True(t, ok)
		seen = workspace
		ip, ok := GetRequestIPFromRequestContext(req)
		require.True(t, ok)
		assert.Equal(t, "192.0.2.1", ip.String())
		_, hasDeadline := req.Context().Deadline()
		assert.True(t, hasDeadline)
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, WorkspaceCookieName, cookies[0].Name)
	assert.Equal(t, seen.ID.String(), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// the cookie brings the same workspace back
	var second *config.Workspace
	mux = newTestMux(func(w http.ResponseWriter, req *http.Request) {
		second, _ = GetWorkspaceFromRequestContext(req)
	})
	req = httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Same(t, seen, second)
	assert.Empty(t, rec.Result().Cookies())
}

func TestInvalidWorkspaceCookieGetsNewWorkspace(t *testing.T) {
	setupAppState(t, nil)
	mux := newTestMux(func(w http.ResponseWriter, req *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	req.AddCookie(&http.Cookie{Name: WorkspaceCookieName, Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "not-a-uuid", rec.Result().Cookies()[0].Value)
}

func TestPanicRecovery(t *testing.T) {
	setupAppState(t, nil)
	mux := newTestMux(func(w http.ResponseWriter, req *http.Request) {
		panic("boom")
	})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec))
}

func TestUnregisteredPatternIsNotFound(t *testing.T) {
	setupAppState(t, nil)
	mux := newTestMux(func(w http.ResponseWriter, req *http.Request) {})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unregistered", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	setupAppState(t, func(appConfig *config.AppConfiguration) {
		appConfig.MaxJSONBytes = 16
	})
	mux := newTestMux(func(w http.ResponseWriter, req *http.Request) {})
	req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`[{"computerName":"PC-0001"}]`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestContentTypeRequiredForBodies(t *testing.T) {
	setupAppState(t, nil)
	mux := newTestMux(func(w http.ResponseWriter, req *http.Request) {})
	req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`[]`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRateLimitReturnsRetryAfter(t *testing.T) {
	setupAppState(t, func(appConfig *config.AppConfiguration) {
		appConfig.RateLimitBurst = 1
		appConfig.RateLimitInterval = 0.001
		appConfig.RateLimitBanDuration = 90 * time.Second
	})
	mux := newTestMux(func(w http.ResponseWriter, req *http.Request) {})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))

	// banned clients are turned away before the limiter
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestCrossOriginRequestBlocked(t *testing.T) {
	setupAppState(t, nil)
	mux := newTestMux(func(w http.ResponseWriter, req *http.Request) {})
	req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`[]`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWriteJsonErrorMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJsonErrorMessage(rec, http.StatusBadRequest, "Please upload a valid .xlsx file")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Please upload a valid .xlsx file"}`, rec.Body.String())
}

func TestCheckValidIP(t *testing.T) {
	tests := []struct {
		name     string
		ip       string
		valid    bool
		loopback bool
		private  bool
	}{
		{name: "public v4", ip: "192.0.2.1", valid: true},
		{name: "loopback", ip: "127.0.0.1", valid: true, loopback: true},
		{name: "private", ip: "10.1.2.3", valid: true, private: true},
		{name: "v6", ip: "2001:db8::1", valid: true},
		{name: "mapped v4", ip: "::ffff:10.0.0.1", valid: true, private: true},
		{name: "unspecified", ip: "0.0.0.0"},
		{name: "multicast", ip: "224.0.0.1"},
		{name: "garbage", ip: "not-an-ip"},
		{name: "empty", ip: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, loopback, private := checkValidIP(tt.ip)
			assert.Equal(t, tt.valid, valid)
			assert.Equal(t, tt.loopback, loopback)
			assert.Equal(t, tt.private, private)
		})
	}
}

func requestWithEndpoint(t *testing.T, method string, endpoint *config.WebEndpointConfig) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, "/api/export/csv", nil)
	ctx, err := withWebEndpointConfig(req.Context(), endpoint)
	require.NoError(t, err)
	return req.WithContext(ctx)
}

func TestHTTPMethodMiddlewareUsesEndpointMethods(t *testing.T) {
	setupAppState(t, nil)
	handler := HTTPMethodMiddleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		method  string
		allowed []string
		status  int
		allow   string
	}{
		{name: "allowed", method: http.MethodGet, allowed: []string{http.MethodGet}, status: http.StatusNoContent},
		{name: "not allowed", method: http.MethodPost, allowed: []string{http.MethodGet}, status: http.StatusMethodNotAllowed, allow: "GET"},
		{name: "no methods registered", method: http.MethodGet, allowed: nil, status: http.StatusInternalServerError},
		{name: "unsupported method", method: http.MethodPatch, allowed: []string{http.MethodPatch}, status: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWithEndpoint(t, tt.method, &config.WebEndpointConfig{AllowedMethods: tt.allowed}))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.allow, rec.Header().Get("Allow"))
		})
	}
}

func TestSetEndpointContentType(t *testing.T) {
	setupAppState(t, nil)

	rec := httptest.NewRecorder()
	SetEndpointContentType(rec, requestWithEndpoint(t, http.MethodGet, &config.WebEndpointConfig{ContentType: "text/csv; charset=utf-8"}))
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	SetEndpointContentType(rec, requestWithEndpoint(t, http.MethodGet, &config.WebEndpointConfig{}))
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	SetEndpointContentType(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	// WriteJson keeps a type set for the endpoint
	rec = httptest.NewRecorder()
	rec.Header().Set("Content-Type", "application/problem+json")
	require.NoError(t, WriteJson(rec, http.StatusOK, map[string]string{"a": "b"}))
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}
