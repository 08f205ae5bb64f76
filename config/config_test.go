package config

import (
	"bytes"
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-analytics/warranty"
)

func newTestState(t *testing.T, appConfig AppConfiguration) *AppState {
	t.Helper()
	appState := NewAppState(&appConfig, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, SetAppState(appState))
	return appState
}

func TestParseConfigScalesDurations(t *testing.T) {
	appConfig, err := ParseConfig([]byte(`{
		"INVENTORY_HTTP_PORT": 8080,
		"INVENTORY_API_REQUEST_TIMEOUT": 10,
		"INVENTORY_RATE_LIMIT_BAN_DURATION": 5,
		"INVENTORY_WORKSPACE_TTL": 600,
		"INVENTORY_DB_HOST": "127.0.0.1",
		"INVENTORY_DB_NAME": "inventory",
		"INVENTORY_DB_USERNAME": "analytics"
	}`))
	require.NoError(t, err)
	assert.Equal(t, uint16(8080), appConfig.HTTPPort)
	assert.Equal(t, 10*time.Second, appConfig.APIRequestTimeout)
	assert.Equal(t, 5*time.Second, appConfig.RateLimitBanDuration)
	assert.Equal(t, 10*time.Minute, appConfig.WorkspaceTTL)
	assert.True(t, appConfig.DatabaseConfigured())

	// untouched keys keep their defaults
	defaults := DefaultConfiguration()
	assert.Equal(t, defaults.FileRequestTimeout, appConfig.FileRequestTimeout)
	assert.Equal(t, defaults.MaxUploadBytes, appConfig.MaxUploadBytes)
	assert.Equal(t, uint16(5432), appConfig.DBPort)
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed json", data: `{"INVENTORY_HTTP_PORT": }`},
		{name: "bad host", data: `{"INVENTORY_HTTP_HOST": "not a host"}`},
		{name: "cert without key", data: `{"INVENTORY_TLS_CERT_FILE": "/etc/cert.pem"}`},
		{name: "insight past quarter", data: `{"INVENTORY_INSIGHT_HORIZON_DAYS": 120}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestInitConfigMissingFileUsesDefaults(t *testing.T) {
	appConfig, err := InitConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfiguration(), *appConfig)
	assert.False(t, appConfig.DatabaseConfigured())
}

func TestInitConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory-analytics.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"INVENTORY_LOG_LEVEL": "debug"}`), 0o600))
	appConfig, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", appConfig.LogLevel)
}

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	assert.Equal(t, DefaultConfigPath, ConfigPath())
	t.Setenv(ConfigPathEnv, "/tmp/inventory.json")
	assert.Equal(t, "/tmp/inventory.json", ConfigPath())
}

func TestAppStateGetters(t *testing.T) {
	appConfig := DefaultConfiguration()
	appConfig.HTTPHost = "127.0.0.1"
	appConfig.HTTPPort = 9000
	appConfig.ExpiringHorizonDays = 120
	newTestState(t, appConfig)

	addr, err := GetWebServerAddr()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", addr)

	apiTimeout, err := GetRequestTimeout("api")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, apiTimeout)
	require.NoError(t, SetRequestTimeout("file", time.Minute))
	fileTimeout, err := GetRequestTimeout("FILE")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, fileTimeout)
	assert.Error(t, SetRequestTimeout("file", 0))
	_, err = GetRequestTimeout("upload")
	assert.Error(t, err)

	horizons := GetHorizons()
	assert.Equal(t, 30*warranty.Day, horizons.Insight)
	assert.Equal(t, 120*warranty.Day, horizons.Performance)

	_, err = GetDatabaseConn()
	assert.Error(t, err)
	_, err = GetInventorySource()
	assert.Error(t, err)
	_, _, _, _, _, err = GetDatabaseCredentials()
	assert.Error(t, err)
	assert.False(t, IsDatabaseConfigured())
}

func TestWebEndpointRegistry(t *testing.T) {
	newTestState(t, DefaultConfiguration())

	upload, err := GetWebEndpointConfig(UploadPattern)
	require.NoError(t, err)
	assert.Equal(t, "file", upload.LimiterType)
	assert.Equal(t, int64(10<<20), upload.MaxBodyBytes)
	methods, err := GetWebEndpointAllowedMethods(upload)
	require.NoError(t, err)
	assert.Equal(t, []string{"POST"}, methods)

	csv, err := GetWebEndpointConfig(ExportCSVPattern)
	require.NoError(t, err)
	contentType, err := GetWebEndpointContentType(csv)
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", contentType)

	// callers get a copy
	upload.LimiterType = "api"
	again, err := GetWebEndpointConfig(UploadPattern)
	require.NoError(t, err)
	assert.Equal(t, "file", again.LimiterType)

	_, err = GetWebEndpointConfig("GET /missing")
	assert.Error(t, err)
}

func TestRateLimitBansClient(t *testing.T) {
	appConfig := DefaultConfiguration()
	appConfig.RateLimitBurst = 2
	appConfig.RateLimitInterval = 0.001
	appConfig.RateLimitBanDuration = time.Hour
	newTestState(t, appConfig)

	ip := netip.MustParseAddr("192.0.2.1")
	for range 2 {
		limited, _ := IsClientRateLimited("api", ip)
		assert.False(t, limited)
	}
	limited, retryAfter := IsClientRateLimited("api", ip)
	assert.True(t, limited)
	assert.Equal(t, time.Hour, retryAfter)

	banned, _ := IsClientBanned(ip)
	assert.True(t, banned)

	// the ban applies to every limiter
	limited, _ = IsClientRateLimited("web", ip)
	assert.True(t, limited)

	other := netip.MustParseAddr("192.0.2.2")
	limited, _ = IsClientRateLimited("api", other)
	assert.False(t, limited)

	limited, _ = IsClientRateLimited("api", netip.Addr{})
	assert.False(t, limited)
}

func TestBanListExpiry(t *testing.T) {
	banList := &BanList{banPeriod: time.Minute}
	ip := netip.MustParseAddr("2001:db8::1")
	banList.Ban(ip)

	remaining, banned := banList.BannedFor(ip, time.Now())
	assert.True(t, banned)
	assert.Positive(t, remaining)

	assert.Equal(t, 0, banList.cleanup(time.Now()))
	assert.Equal(t, 1, banList.cleanup(time.Now().Add(2*time.Minute)))
	_, banned = banList.BannedFor(ip, time.Now())
	assert.False(t, banned)
}

func TestLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter("api", 1, 1)
	ip := netip.MustParseAddr("198.51.100.7")
	first := limiter.Get(ip)
	assert.Same(t, first, limiter.Get(ip))

	assert.Equal(t, 0, limiter.cleanup(time.Now(), limiterIdleTimeout))
	assert.Equal(t, 1, limiter.cleanup(time.Now().Add(limiterIdleTimeout+time.Second), limiterIdleTimeout))
	assert.NotSame(t, first, limiter.Get(ip))
}

func TestWorkspaceStore(t *testing.T) {
	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	store := NewWorkspaceStore(time.Hour)

	workspace := store.Create(now)
	require.NotNil(t, workspace.Engine)
	assert.Equal(t, int64(1), store.Count())

	got, err := store.Get(workspace.ID, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Same(t, workspace, got)

	// the Get above refreshed the idle clock
	assert.Equal(t, int64(0), store.Cleanup(now.Add(80*time.Minute)))
	assert.Equal(t, int64(1), store.Cleanup(now.Add(3*time.Hour)))
	assert.Equal(t, int64(0), store.Count())

	_, err = store.Get(workspace.ID, now)
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
	_, err = store.Get(uuid.New(), now)
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}

func TestWorkspaceExpiresOnGet(t *testing.T) {
	now := time.Now()
	store := NewWorkspaceStore(time.Minute)
	workspace := store.Create(now)

	_, err := store.Get(workspace.ID, now.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
	assert.Equal(t, int64(0), store.Count())
}

func TestLoggerRoutesLevels(t *testing.T) {
	var stdout, stderr bytes.Buffer
	dir := t.TempDir()
	log, closer, err := newLoggerTo(&stdout, &stderr, slog.LevelInfo, dir)
	require.NoError(t, err)
	require.NotNil(t, closer)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	require.NoError(t, closer.Close())

	assert.Contains(t, stdout.String(), "info message")
	assert.NotContains(t, stdout.String(), "warn message")
	assert.NotContains(t, stdout.String(), "debug message")
	assert.NotContains(t, stdout.String(), "time=")
	assert.Contains(t, stderr.String(), "warn message")
	assert.NotContains(t, stderr.String(), "info message")

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"info message"`)
	assert.Contains(t, string(data), `"msg":"warn message"`)
}

func TestLoggerWithoutLogDir(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log, closer, err := newLoggerTo(&stdout, &stderr, slog.LevelWarn, "")
	require.NoError(t, err)
	assert.Nil(t, closer)

	log.With(slog.String("component", "test")).Info("hidden")
	log.Error("shown", slog.Int("code", 7))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "code=7")
}
