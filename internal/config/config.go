package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/riskibarqy/score-predictor/internal/platform/resilience"
)

const (
	ResultsProviderManual = "manual"
	ResultsProviderFeed   = "feed"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	LogLevel                logging.Level
	DBURL                   string
	DBBinaryParameters      bool
	CacheEnabled            bool
	CacheTTL                time.Duration
	CORSAllowedOrigins      []string
	SwaggerEnabled          bool
	RateLimitPerMinute      int
	RateLimitBurst          int
	MetricsEnabled          bool

	IdentityBaseURL        string
	IdentityIntrospectPath string
	IdentityAdminKey       string
	IdentityTimeout        time.Duration
	IdentityCacheTTL       time.Duration
	IdentityCircuit        resilience.CircuitBreakerConfig
	AdminUserIDs           []string
	InternalJobToken       string

	APIFootballEnabled       bool
	APIFootballBaseURL       string
	APIFootballKey           string
	APIFootballHost          string
	APIFootballLeagueRef     int
	APIFootballSeason        int
	APIFootballLeagueType    string
	APIFootballTimeout       time.Duration
	APIFootballMaxRetries    int
	APIFootballRatePerMinute int
	APIFootballCircuit       resilience.CircuitBreakerConfig

	SyncEnabled        bool
	SyncInterval       time.Duration
	SyncWorkers        int
	PropagationWorkers int
	ResultsProvider    string

	QStashEnabled       bool
	QStashBaseURL       string
	QStashToken         string
	QStashTargetBaseURL string
	QStashRetries       int
	QStashCircuit       resilience.CircuitBreakerConfig

	UptraceEnabled      bool
	UptraceDSN          string
	UptraceLogsEnabled  bool
	BetterStackEnabled  bool
	BetterStackEndpoint string
	BetterStackToken    string
	BetterStackTimeout  time.Duration
	BetterStackMinLevel logging.Level

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                 appEnv,
		ServiceName:            getEnv("APP_SERVICE_NAME", "score-predictor-api"),
		ServiceVersion:         getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:               getEnv("APP_HTTP_ADDR", ":8080"),
		LogLevel:               parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		DBURL:                  strings.TrimSpace(getEnv("DB_URL", "")),
		CORSAllowedOrigins:     splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		IdentityBaseURL:        strings.TrimSpace(getEnv("IDENTITY_BASE_URL", "http://localhost:8081")),
		IdentityIntrospectPath: strings.TrimSpace(getEnv("IDENTITY_INTROSPECT_PATH", "/v1/auth/introspect")),
		IdentityAdminKey:       strings.TrimSpace(getEnv("IDENTITY_ADMIN_KEY", "")),
		AdminUserIDs:           splitCSV(getEnv("ADMIN_USER_IDS", "")),
		InternalJobToken:       strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		APIFootballBaseURL:     strings.TrimSpace(getEnv("API_FOOTBALL_BASE_URL", "https://v3.football.api-sports.io")),
		APIFootballKey:         strings.TrimSpace(getEnv("API_FOOTBALL_KEY", "")),
		APIFootballHost:        strings.TrimSpace(getEnv("API_FOOTBALL_HOST", "v3.football.api-sports.io")),
		APIFootballLeagueType:  strings.ToLower(strings.TrimSpace(getEnv("API_FOOTBALL_LEAGUE_TYPE", "spl"))),
		ResultsProvider:        strings.ToLower(strings.TrimSpace(getEnv("RESULTS_PROVIDER", ResultsProviderManual))),
		QStashBaseURL:          strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io")),
		QStashToken:            strings.TrimSpace(getEnv("QSTASH_TOKEN", "")),
		QStashTargetBaseURL:    strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", "")),
		BetterStackToken:       strings.TrimSpace(getEnv("BETTERSTACK_TOKEN", "")),
		BetterStackMinLevel:    parseLogLevel(getEnv("BETTERSTACK_MIN_LEVEL", "error")),
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PprofAddr:              strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
	}
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.BetterStackEndpoint = strings.TrimSpace(getEnv("BETTERSTACK_ENDPOINT", ""))
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	bools := []struct {
		key      string
		fallback string
		target   *bool
	}{
		{"SWAGGER_ENABLED", swaggerDefault, &cfg.SwaggerEnabled},
		{"DB_BINARY_PARAMETERS", "true", &cfg.DBBinaryParameters},
		{"CACHE_ENABLED", "true", &cfg.CacheEnabled},
		{"METRICS_ENABLED", "true", &cfg.MetricsEnabled},
		{"API_FOOTBALL_ENABLED", "false", &cfg.APIFootballEnabled},
		{"SYNC_ENABLED", "false", &cfg.SyncEnabled},
		{"QSTASH_ENABLED", "false", &cfg.QStashEnabled},
		{"UPTRACE_ENABLED", "false", &cfg.UptraceEnabled},
		{"UPTRACE_LOGS_ENABLED", "true", &cfg.UptraceLogsEnabled},
		{"BETTERSTACK_ENABLED", "false", &cfg.BetterStackEnabled},
		{"PYROSCOPE_ENABLED", "false", &cfg.PyroscopeEnabled},
		{"PPROF_ENABLED", "false", &cfg.PprofEnabled},
	}
	for _, item := range bools {
		value, err := strconv.ParseBool(getEnv(item.key, item.fallback))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
		*item.target = value
	}

	durations := []struct {
		key       string
		fallback  string
		allowZero bool
		target    *time.Duration
	}{
		{"APP_READ_TIMEOUT", "10s", false, &cfg.ReadTimeout},
		// 0 disables it; the leaderboard stream holds responses open
		{"APP_WRITE_TIMEOUT", "0s", true, &cfg.WriteTimeout},
		{"CACHE_TTL", "60s", false, &cfg.CacheTTL},
		{"IDENTITY_TIMEOUT", "3s", false, &cfg.IdentityTimeout},
		{"IDENTITY_CACHE_TTL", "30s", false, &cfg.IdentityCacheTTL},
		{"API_FOOTBALL_TIMEOUT", "20s", false, &cfg.APIFootballTimeout},
		{"SYNC_INTERVAL", "15m", false, &cfg.SyncInterval},
		{"BETTERSTACK_TIMEOUT", "3s", false, &cfg.BetterStackTimeout},
		{"PYROSCOPE_UPLOAD_RATE", "15s", false, &cfg.PyroscopeUploadRate},
	}
	for _, item := range durations {
		value, err := time.ParseDuration(getEnv(item.key, item.fallback))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
		if value < 0 || (value == 0 && !item.allowZero) {
			return Config{}, fmt.Errorf("%s must be > 0", item.key)
		}
		*item.target = value
	}

	ints := []struct {
		key      string
		fallback int
		min      int
		target   *int
	}{
		{"RATE_LIMIT_PER_MINUTE", 120, 0, &cfg.RateLimitPerMinute},
		{"RATE_LIMIT_BURST", 30, 0, &cfg.RateLimitBurst},
		{"API_FOOTBALL_LEAGUE_REF", 179, 1, &cfg.APIFootballLeagueRef},
		{"API_FOOTBALL_SEASON", time.Now().UTC().Year(), 1, &cfg.APIFootballSeason},
		{"API_FOOTBALL_MAX_RETRIES", 2, 0, &cfg.APIFootballMaxRetries},
		{"API_FOOTBALL_RATE_PER_MINUTE", 10, 1, &cfg.APIFootballRatePerMinute},
		{"SYNC_WORKERS", 4, 1, &cfg.SyncWorkers},
		{"PROPAGATION_WORKERS", 8, 1, &cfg.PropagationWorkers},
		{"QSTASH_RETRIES", 3, 0, &cfg.QStashRetries},
	}
	for _, item := range ints {
		value, err := getEnvAsInt(item.key, item.fallback)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
		if value < item.min {
			return Config{}, fmt.Errorf("%s must be >= %d", item.key, item.min)
		}
		*item.target = value
	}

	if cfg.IdentityCircuit, err = loadCircuit("IDENTITY"); err != nil {
		return Config{}, err
	}
	if cfg.APIFootballCircuit, err = loadCircuit("API_FOOTBALL"); err != nil {
		return Config{}, err
	}
	if cfg.QStashCircuit, err = loadCircuit("QSTASH"); err != nil {
		return Config{}, err
	}

	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.ResultsProvider {
	case ResultsProviderManual:
	case ResultsProviderFeed:
		if !c.APIFootballEnabled {
			return fmt.Errorf("RESULTS_PROVIDER=feed requires API_FOOTBALL_ENABLED=true")
		}
	default:
		return fmt.Errorf("invalid RESULTS_PROVIDER %q: valid values are %s, %s", c.ResultsProvider, ResultsProviderManual, ResultsProviderFeed)
	}

	if c.APIFootballEnabled && c.APIFootballKey == "" {
		return fmt.Errorf("API_FOOTBALL_KEY is required when API_FOOTBALL_ENABLED=true")
	}
	if c.SyncEnabled && !c.APIFootballEnabled {
		return fmt.Errorf("SYNC_ENABLED=true requires API_FOOTBALL_ENABLED=true")
	}
	if c.QStashEnabled {
		if c.QStashToken == "" {
			return fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
		}
		if c.QStashTargetBaseURL == "" {
			return fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
		}
		if c.InternalJobToken == "" {
			return fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
		}
	}
	if c.UptraceEnabled && c.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if c.BetterStackEnabled && c.BetterStackEndpoint == "" {
		return fmt.Errorf("BETTERSTACK_ENDPOINT is required when BETTERSTACK_ENABLED=true")
	}
	if c.PyroscopeEnabled {
		if c.PyroscopeServerAddress == "" {
			return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
		}
		if c.PyroscopeAppName == "" {
			return fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
		}
	}
	if c.PprofEnabled && c.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	return nil
}

// loadCircuit reads <prefix>_CIRCUIT_ENABLED, _FAILURE_COUNT, _OPEN_TIMEOUT
// and _HALF_OPEN_MAX_REQ.
func loadCircuit(prefix string) (resilience.CircuitBreakerConfig, error) {
	key := func(name string) string { return prefix + "_CIRCUIT_" + name }

	enabled, err := strconv.ParseBool(getEnv(key("ENABLED"), "true"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s: %w", key("ENABLED"), err)
	}
	failureCount, err := getEnvAsInt(key("FAILURE_COUNT"), 5)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s: %w", key("FAILURE_COUNT"), err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s must be >= 1", key("FAILURE_COUNT"))
	}
	openTimeout, err := time.ParseDuration(getEnv(key("OPEN_TIMEOUT"), "15s"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s: %w", key("OPEN_TIMEOUT"), err)
	}
	if openTimeout <= 0 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s must be > 0", key("OPEN_TIMEOUT"))
	}
	halfOpenMaxReq, err := getEnvAsInt(key("HALF_OPEN_MAX_REQ"), 2)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s: %w", key("HALF_OPEN_MAX_REQ"), err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s must be >= 1", key("HALF_OPEN_MAX_REQ"))
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

func parseLogLevel(v string) logging.Level {
	level, err := logging.ParseLevel(v)
	if err != nil {
		return logging.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(value), "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
