package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
	MySideline MySidelineConfig `yaml:"mysideline"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true" validate:"required"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"    validate:"min=1"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"     validate:"min=0"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"true"`
}

// AuthConfig holds settings for verifying administrator tokens issued by the
// surrounding application. Admin endpoints are not mounted without a secret.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"oldmanfooty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json" validate:"oneof=json text JSON TEXT"`
}

// MySidelineConfig configures the MySideline carnival sync: scheduling,
// the source fetcher and orphan-log reaping.
type MySidelineConfig struct {
	// Enabled and AllowManualWhenDisabled default to true in LoadPath, not
	// via env-default, so that a YAML false is honored.
	Enabled                 bool          `yaml:"enabled"                    env:"MYSIDELINE_SYNC_ENABLED"`
	Schedule                string        `yaml:"schedule"                   env:"MYSIDELINE_SYNC_SCHEDULE"           env-default:"0 3 * * *" validate:"required"`
	Timezone                string        `yaml:"timezone"                   env:"MYSIDELINE_SYNC_TIMEZONE"           env-default:"Local"`
	StartupDelay            time.Duration `yaml:"startup_delay"              env:"MYSIDELINE_STARTUP_DELAY"           env-default:"2s"`
	AllowManualWhenDisabled bool          `yaml:"allow_manual_when_disabled" env:"MYSIDELINE_ALLOW_MANUAL_WHEN_DISABLED"`
	StalenessThreshold      time.Duration `yaml:"staleness_threshold"        env:"MYSIDELINE_STALENESS_THRESHOLD"     env-default:"1h"`
	RunBudget               time.Duration `yaml:"run_budget"                 env:"MYSIDELINE_RUN_BUDGET"`
	LogRetention            time.Duration `yaml:"log_retention"              env:"MYSIDELINE_LOG_RETENTION"           env-default:"2160h"`

	URL               string        `yaml:"url"                 env:"MYSIDELINE_URL"                 env-default:"https://profile.mysideline.com.au/register/clubsearch/?criteria=Masters&source=rugby-league" validate:"required,http_url"`
	Timeout           time.Duration `yaml:"timeout"             env:"MYSIDELINE_TIMEOUT"             env-default:"60s"`
	RetryAttempts     int           `yaml:"retry_attempts"      env:"MYSIDELINE_RETRY_ATTEMPTS"      env-default:"3"  validate:"min=1,max=10"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"       env:"MYSIDELINE_RETRY_BACKOFF"       env-default:"1s"`
	UserAgent         string        `yaml:"user_agent"          env:"MYSIDELINE_USER_AGENT"          env-default:"OldManFooty-CarnivalSync/1.0 (+https://www.oldmanfooty.au)" validate:"required"`
	UseMock           bool          `yaml:"use_mock"            env:"MYSIDELINE_USE_MOCK"`
	MockFixturePath   string        `yaml:"mock_fixture_path"   env:"MYSIDELINE_MOCK_FIXTURE"`
	MaxConnsPerHost   int           `yaml:"max_conns_per_host"  env:"MYSIDELINE_MAX_CONNS_PER_HOST"  env-default:"2"  validate:"min=1"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"MYSIDELINE_REQUESTS_PER_SECOND" env-default:"1"  validate:"gt=0"`
	BreakerThreshold  uint32        `yaml:"breaker_threshold"   env:"MYSIDELINE_BREAKER_THRESHOLD"   env-default:"5"  validate:"min=1"`
	BreakerCooldown   time.Duration `yaml:"breaker_cooldown"    env:"MYSIDELINE_BREAKER_COOLDOWN"    env-default:"10m"`
}

// runBudgetSlack is added to the worst-case fetch time to leave room for
// parsing and reconciliation.
const runBudgetSlack = 120 * time.Second

// EffectiveRunBudget returns the configured overall run budget, or
// timeout * retryAttempts + 120s when none is configured.
func (c MySidelineConfig) EffectiveRunBudget() time.Duration {
	if c.RunBudget > 0 {
		return c.RunBudget
	}
	return c.Timeout*time.Duration(c.RetryAttempts) + runBudgetSlack
}

// AdminEnabled reports whether admin endpoints can verify tokens.
func (c AuthConfig) AdminEnabled() bool {
	return c.JWTSecret != ""
}
