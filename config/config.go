package config

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"inventory-analytics/analytics"
	"inventory-analytics/database"
	"inventory-analytics/warranty"
)

const (
	DefaultConfigPath = "/etc/inventory-analytics/inventory-analytics.json"
	ConfigPathEnv     = "INVENTORY_CONFIG"
)

type AppConfiguration struct {
	LogLevel             string        `json:"INVENTORY_LOG_LEVEL"`
	LogDir               string        `json:"INVENTORY_LOG_DIR"`
	HTTPHost             string        `json:"INVENTORY_HTTP_HOST"`
	HTTPPort             uint16        `json:"INVENTORY_HTTP_PORT"`
	TLSCertFile          string        `json:"INVENTORY_TLS_CERT_FILE"`
	TLSKeyFile           string        `json:"INVENTORY_TLS_KEY_FILE"`
	APIRequestTimeout    time.Duration `json:"INVENTORY_API_REQUEST_TIMEOUT"`
	FileRequestTimeout   time.Duration `json:"INVENTORY_FILE_REQUEST_TIMEOUT"`
	MaxUploadBytes       int64         `json:"INVENTORY_MAX_UPLOAD_BYTES"`
	MaxJSONBytes         int64         `json:"INVENTORY_MAX_JSON_BYTES"`
	RateLimitBurst       int           `json:"INVENTORY_RATE_LIMIT_BURST"`
	RateLimitInterval    float64       `json:"INVENTORY_RATE_LIMIT_INTERVAL"`
	RateLimitBanDuration time.Duration `json:"INVENTORY_RATE_LIMIT_BAN_DURATION"`
	WorkspaceTTL         time.Duration `json:"INVENTORY_WORKSPACE_TTL"`
	MemoryLimitBytes     uint64        `json:"INVENTORY_MEMORY_LIMIT_BYTES"`
	DBHost               string        `json:"INVENTORY_DB_HOST"`
	DBPort               uint16        `json:"INVENTORY_DB_PORT"`
	DBName               string        `json:"INVENTORY_DB_NAME"`
	DBUsername           string        `json:"INVENTORY_DB_USERNAME"`
	DBPasswd             string        `json:"INVENTORY_DB_PASSWD"`
	InsightHorizonDays   int           `json:"INVENTORY_INSIGHT_HORIZON_DAYS"`
	QuarterHorizonDays   int           `json:"INVENTORY_QUARTER_HORIZON_DAYS"`
	ExpiringHorizonDays  int           `json:"INVENTORY_EXPIRING_HORIZON_DAYS"`
}

// DefaultConfiguration is used for every key the config file leaves out.
// Durations here are already scaled.
func DefaultConfiguration() AppConfiguration {
	return AppConfiguration{
		LogLevel:             "info",
		HTTPHost:             "0.0.0.0",
		HTTPPort:             5003,
		APIRequestTimeout:    30 * time.Second,
		FileRequestTimeout:   2 * time.Minute,
		MaxUploadBytes:       10 << 20,
		MaxJSONBytes:         4 << 20,
		RateLimitBurst:       40,
		RateLimitInterval:    20,
		RateLimitBanDuration: 30 * time.Second,
		WorkspaceTTL:         1 * time.Hour,
		MemoryLimitBytes:     4000 * 1024 * 1024,
		DBPort:               5432,
		InsightHorizonDays:   30,
		QuarterHorizonDays:   90,
		ExpiringHorizonDays:  180,
	}
}

type AppState struct {
	appConfig          atomic.Pointer[AppConfiguration]
	dbConn             atomic.Pointer[sql.DB]
	inventorySource    atomic.Pointer[database.InventorySource]
	appLogger          atomic.Pointer[slog.Logger]
	logCloser          io.Closer
	webServerLimiter   atomic.Pointer[RateLimiter]
	fileLimiter        atomic.Pointer[RateLimiter]
	apiLimiter         atomic.Pointer[RateLimiter]
	banList            atomic.Pointer[BanList]
	workspaces         atomic.Pointer[WorkspaceStore]
	apiRequestTimeout  atomic.Pointer[time.Duration]
	fileRequestTimeout atomic.Pointer[time.Duration]
	webEndpoints       sync.Map
}

var (
	appStateInstance atomic.Pointer[AppState]
)

// ConfigPath returns the config file location, honoring INVENTORY_CONFIG.
func ConfigPath() string {
	if path := strings.TrimSpace(os.Getenv(ConfigPathEnv)); path != "" {
		return path
	}
	return DefaultConfigPath
}

// InitConfig reads the config file at path. A missing file yields the
// defaults; a malformed one is an error.
func InitConfig(path string) (*AppConfiguration, error) {
	mainConfigFile, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		appConfig := DefaultConfiguration()
		return &appConfig, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config '%s': %w", path, err)
	}
	return ParseConfig(mainConfigFile)
}

// ParseConfig decodes config JSON over the defaults. Duration keys in the file
// are seconds.
func ParseConfig(data []byte) (*AppConfiguration, error) {
	var fileConfig AppConfiguration
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config JSON: %w", err)
	}

	// Convert durations to seconds
	fileConfig.APIRequestTimeout *= time.Second
	fileConfig.FileRequestTimeout *= time.Second
	fileConfig.RateLimitBanDuration *= time.Second
	fileConfig.WorkspaceTTL *= time.Second

	appConfig := DefaultConfiguration()
	mergeConfig(&appConfig, &fileConfig)
	if err := validateConfig(&appConfig); err != nil {
		return nil, err
	}
	return &appConfig, nil
}

func mergeConfig(dst *AppConfiguration, src *AppConfiguration) {
	setString := func(dst *string, src string) {
		if strings.TrimSpace(src) != "" {
			*dst = strings.TrimSpace(src)
		}
	}
	setString(&dst.LogLevel, src.LogLevel)
	setString(&dst.LogDir, src.LogDir)
	setString(&dst.HTTPHost, src.HTTPHost)
	setString(&dst.TLSCertFile, src.TLSCertFile)
	setString(&dst.TLSKeyFile, src.TLSKeyFile)
	setString(&dst.DBHost, src.DBHost)
	setString(&dst.DBName, src.DBName)
	setString(&dst.DBUsername, src.DBUsername)
	if src.DBPasswd != "" {
		dst.DBPasswd = src.DBPasswd
	}
	if src.HTTPPort != 0 {
		dst.HTTPPort = src.HTTPPort
	}
	if src.DBPort != 0 {
		dst.DBPort = src.DBPort
	}
	if src.APIRequestTimeout > 0 {
		dst.APIRequestTimeout = src.APIRequestTimeout
	}
	if src.FileRequestTimeout > 0 {
		dst.FileRequestTimeout = src.FileRequestTimeout
	}
	if src.MaxUploadBytes > 0 {
		dst.MaxUploadBytes = src.MaxUploadBytes
	}
	if src.MaxJSONBytes > 0 {
		dst.MaxJSONBytes = src.MaxJSONBytes
	}
	if src.RateLimitBurst > 0 {
		dst.RateLimitBurst = src.RateLimitBurst
	}
	if src.RateLimitInterval > 0 {
		dst.RateLimitInterval = src.RateLimitInterval
	}
	if src.RateLimitBanDuration > 0 {
		dst.RateLimitBanDuration = src.RateLimitBanDuration
	}
	if src.WorkspaceTTL > 0 {
		dst.WorkspaceTTL = src.WorkspaceTTL
	}
	if src.MemoryLimitBytes > 0 {
		dst.MemoryLimitBytes = src.MemoryLimitBytes
	}
	if src.InsightHorizonDays > 0 {
		dst.InsightHorizonDays = src.InsightHorizonDays
	}
	if src.QuarterHorizonDays > 0 {
		dst.QuarterHorizonDays = src.QuarterHorizonDays
	}
	if src.ExpiringHorizonDays > 0 {
		dst.ExpiringHorizonDays = src.ExpiringHorizonDays
	}
}

func validateConfig(appConfig *AppConfiguration) error {
	if net.ParseIP(appConfig.HTTPHost) == nil && appConfig.HTTPHost != "localhost" {
		return fmt.Errorf("invalid HTTP host in config: %s", appConfig.HTTPHost)
	}
	if (appConfig.TLSCertFile == "") != (appConfig.TLSKeyFile == "") {
		return errors.New("TLS cert file and key file must be set together")
	}
	if appConfig.InsightHorizonDays > appConfig.QuarterHorizonDays {
		return fmt.Errorf("insight horizon (%d days) is longer than quarter horizon (%d days)", appConfig.InsightHorizonDays, appConfig.QuarterHorizonDays)
	}
	return nil
}

// DatabaseConfigured reports whether the optional inventory database is set up.
func (appConfig *AppConfiguration) DatabaseConfigured() bool {
	return appConfig.DBHost != "" && appConfig.DBName != "" && appConfig.DBUsername != ""
}

func InitApp() (*AppState, error) {
	appConfig, err := InitConfig(ConfigPath())
	if err != nil {
		return nil, errors.New("failed to load app config: " + err.Error())
	}

	logger, logCloser, err := NewLogger(appConfig.LogLevel, appConfig.LogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	appState := NewAppState(appConfig, logger)
	appState.logCloser = logCloser

	if err := SetAppState(appState); err != nil {
		return nil, errors.New("Could not set app state: " + err.Error())
	}
	return appState, nil
}

// NewAppState wires limiters, the ban list, workspaces, timeouts and web
// endpoints for appConfig.
func NewAppState(appConfig *AppConfiguration, logger *slog.Logger) *AppState {
	appState := new(AppState)

	// Store app config in app state
	appState.appConfig.Store(appConfig)

	// Set DB connection to nil initially
	appState.dbConn.Store(nil)

	// Initialize rate limiters
	appState.webServerLimiter.Store(NewRateLimiter("web", appConfig.RateLimitInterval, appConfig.RateLimitBurst))
	appState.apiLimiter.Store(NewRateLimiter("api", appConfig.RateLimitInterval, appConfig.RateLimitBurst))
	appState.fileLimiter.Store(NewRateLimiter("file", appConfig.RateLimitInterval/4, max(appConfig.RateLimitBurst/4, 1)))

	// Initialize ban list
	appState.banList.Store(&BanList{banPeriod: appConfig.RateLimitBanDuration})

	appState.workspaces.Store(NewWorkspaceStore(appConfig.WorkspaceTTL))

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	appState.appLogger.Store(logger)

	// Set initial timeouts
	apiTimeout := appConfig.APIRequestTimeout
	fileTimeout := appConfig.FileRequestTimeout
	appState.apiRequestTimeout.Store(&apiTimeout)
	appState.fileRequestTimeout.Store(&fileTimeout)

	InitWebEndpoints(appState, appConfig)
	return appState
}

// App state management
func SetAppState(newState *AppState) error {
	if newState == nil {
		return fmt.Errorf("cannot set app state to nil value")
	}
	appStateInstance.Store(newState)
	return nil
}

func GetAppState() (*AppState, error) {
	appState := appStateInstance.Load()
	if appState == nil {
		return nil, fmt.Errorf("app state is nil (GetAppState)")
	}
	return appState, nil
}

func GetAppConfig() (*AppConfiguration, error) {
	appState, err := GetAppState()
	if err != nil {
		return nil, fmt.Errorf("error getting app state in GetAppConfig: %w", err)
	}
	appConfig := appState.appConfig.Load()
	if appConfig == nil {
		return nil, errors.New("app config is not loaded in GetAppConfig")
	}
	return appConfig, nil
}

// Logger access
func GetLogger() *slog.Logger {
	appState, err := GetAppState()
	if err != nil {
		return slog.Default()
	}
	logger := appState.appLogger.Load()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// CloseLogFile flushes the JSON log sink, if one is open.
func CloseLogFile() error {
	appState, err := GetAppState()
	if err != nil || appState.logCloser == nil {
		return nil
	}
	return appState.logCloser.Close()
}

// Database management
func GetDatabaseCredentials() (dbName string, dbHost string, dbPort string, dbUsername string, dbPassword string, err error) {
	appConfig, err := GetAppConfig()
	if err != nil {
		return "", "", "", "", "", fmt.Errorf("error getting config in GetDatabaseCredentials: %w", err)
	}
	if !appConfig.DatabaseConfigured() {
		return "", "", "", "", "", errors.New("database is not configured")
	}
	return appConfig.DBName, appConfig.DBHost, strconv.FormatUint(uint64(appConfig.DBPort), 10), appConfig.DBUsername, appConfig.DBPasswd, nil
}

func IsDatabaseConfigured() bool {
	appConfig, err := GetAppConfig()
	if err != nil {
		return false
	}
	return appConfig.DatabaseConfigured()
}

func GetDatabaseConn() (*sql.DB, error) {
	appState, err := GetAppState()
	if err != nil {
		return nil, fmt.Errorf("error getting app state in GetDatabaseConn: %w", err)
	}
	db := appState.dbConn.Load()
	if db == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}
	return db, nil
}

func SetDatabaseConn(newDbConn *sql.DB) error {
	if newDbConn == nil {
		return errors.New("new database connection is nil in SetDatabaseConn")
	}
	appState, err := GetAppState()
	if err != nil {
		return fmt.Errorf("error getting app state in SetDatabaseConn: %w", err)
	}
	appState.dbConn.Store(newDbConn)
	appState.inventorySource.Store(database.NewInventorySource(database.NewRepo(newDbConn)))
	return nil
}

// GetInventorySource returns the shared loader over the database connection.
func GetInventorySource() (*database.InventorySource, error) {
	appState, err := GetAppState()
	if err != nil {
		return nil, fmt.Errorf("error getting app state in GetInventorySource: %w", err)
	}
	source := appState.inventorySource.Load()
	if source == nil {
		return nil, database.ErrNotConfigured
	}
	return source, nil
}

// Webserver config
func GetWebServerAddr() (string, error) {
	appConfig, err := GetAppConfig()
	if err != nil {
		return "", fmt.Errorf("error getting config in GetWebServerAddr: %w", err)
	}
	return net.JoinHostPort(appConfig.HTTPHost, strconv.FormatUint(uint64(appConfig.HTTPPort), 10)), nil
}

func GetTLSCertFiles() (certFile string, keyFile string, err error) {
	appConfig, err := GetAppConfig()
	if err != nil {
		return "", "", fmt.Errorf("error getting config in GetTLSCertFiles: %w", err)
	}
	return appConfig.TLSCertFile, appConfig.TLSKeyFile, nil
}

func GetMaxUploadSize() (int64, error) {
	appConfig, err := GetAppConfig()
	if err != nil {
		return 0, fmt.Errorf("error getting config in GetMaxUploadSize: %w", err)
	}
	return appConfig.MaxUploadBytes, nil
}

func GetMaxJSONSize() (int64, error) {
	appConfig, err := GetAppConfig()
	if err != nil {
		return 0, fmt.Errorf("error getting config in GetMaxJSONSize: %w", err)
	}
	return appConfig.MaxJSONBytes, nil
}

func GetMemoryLimit() uint64 {
	appConfig, err := GetAppConfig()
	if err != nil {
		return DefaultConfiguration().MemoryLimitBytes
	}
	return appConfig.MemoryLimitBytes
}

// GetHorizons returns the analytics windows from the configured day counts.
func GetHorizons() analytics.Horizons {
	appConfig, err := GetAppConfig()
	if err != nil {
		return analytics.DefaultHorizons
	}
	return analytics.Horizons{
		Insight:     time.Duration(appConfig.InsightHorizonDays) * warranty.Day,
		Quarter:     time.Duration(appConfig.QuarterHorizonDays) * warranty.Day,
		Performance: time.Duration(appConfig.ExpiringHorizonDays) * warranty.Day,
	}
}

func GetRequestTimeout(timeoutType string) (time.Duration, error) {
	appState, err := GetAppState()
	if err != nil {
		return 0, fmt.Errorf("error getting app state in GetRequestTimeout: %w", err)
	}
	switch strings.ToLower(timeoutType) {
	case "api":
		apiTimeout := appState.apiRequestTimeout.Load()
		if apiTimeout == nil {
			return 0, fmt.Errorf("cannot get API request timeout in GetRequestTimeout")
		}
		return *apiTimeout, nil
	case "file":
		fileTimeout := appState.fileRequestTimeout.Load()
		if fileTimeout == nil {
			return 0, fmt.Errorf("cannot get file request timeout in GetRequestTimeout")
		}
		return *fileTimeout, nil
	default:
		return 0, fmt.Errorf("invalid timeout type: %s", timeoutType)
	}
}

func SetRequestTimeout(timeoutType string, timeout time.Duration) error {
	appState, err := GetAppState()
	if err != nil {
		return fmt.Errorf("error getting app state in SetRequestTimeout: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("invalid timeout value in SetRequestTimeout: %.2f", timeout.Seconds())
	}
	switch strings.TrimSpace(strings.ToLower(timeoutType)) {
	case "api":
		appState.apiRequestTimeout.Store(&timeout)
		return nil
	case "file":
		appState.fileRequestTimeout.Store(&timeout)
		return nil
	default:
		return fmt.Errorf("invalid timeout type: %s", timeoutType)
	}
}
