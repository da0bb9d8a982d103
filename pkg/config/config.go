package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Insurance    InsuranceConfig
	SLA          SLAConfig
	Approvals    ApprovalsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Insurance.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERGUARD_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERGUARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORDERGUARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERGUARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ORDERGUARD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERGUARD_DB_DSN"`
	Driver string `envconfig:"ORDERGUARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERGUARD_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERGUARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERGUARD_DB_USER"`
	LegacyPassword string `envconfig:"ORDERGUARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERGUARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERGUARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERGUARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERGUARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERGUARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERGUARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERGUARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORDERGUARD_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERGUARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERGUARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERGUARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERGUARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERGUARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERGUARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERGUARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ORDERGUARD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ORDERGUARD_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ORDERGUARD_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ORDERGUARD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ORDERGUARD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic    string `envconfig:"ORDERGUARD_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSub      string `envconfig:"ORDERGUARD_PUBSUB_DOMAIN_SUBSCRIPTION"`
	DomainDLQTopic string `envconfig:"ORDERGUARD_PUBSUB_DOMAIN_DLQ_TOPIC"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"ORDERGUARD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"ORDERGUARD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"ORDERGUARD_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionTTL   time.Duration `envconfig:"ORDERGUARD_OUTBOX_RETENTION_TTL" default:"720h"`
}

// InsuranceConfig bounds the per-tenant contribution rate and sets the
// fund floor used by health assessments. Rates are fractions, not percents.
type InsuranceConfig struct {
	DefaultRate    decimal.Decimal `envconfig:"ORDERGUARD_INSURANCE_DEFAULT_RATE" default:"0.025"`
	MinRate        decimal.Decimal `envconfig:"ORDERGUARD_INSURANCE_MIN_RATE" default:"0.005"`
	MaxRate        decimal.Decimal `envconfig:"ORDERGUARD_INSURANCE_MAX_RATE" default:"0.10"`
	MinimumBalance int64           `envconfig:"ORDERGUARD_INSURANCE_MINIMUM_BALANCE" default:"5000000"`
}

func (i InsuranceConfig) validate() error {
	if i.MinRate.GreaterThan(i.MaxRate) {
		return fmt.Errorf("insurance min rate %s exceeds max rate %s", i.MinRate, i.MaxRate)
	}
	if i.DefaultRate.LessThan(i.MinRate) || i.DefaultRate.GreaterThan(i.MaxRate) {
		return fmt.Errorf("insurance default rate %s outside [%s, %s]", i.DefaultRate, i.MinRate, i.MaxRate)
	}
	if i.MinimumBalance < 0 {
		return fmt.Errorf("insurance minimum balance must be non-negative")
	}
	return nil
}

// ApprovalsConfig assigns the default approver per workflow level.
type ApprovalsConfig struct {
	FinanceApproverID   string `envconfig:"ORDERGUARD_APPROVER_FINANCE_ID"`
	ManagerApproverID   string `envconfig:"ORDERGUARD_APPROVER_MANAGER_ID"`
	ExecutiveApproverID string `envconfig:"ORDERGUARD_APPROVER_EXECUTIVE_ID"`
}

type SLAConfig struct {
	PollInterval   time.Duration `envconfig:"ORDERGUARD_SLA_POLL_INTERVAL" default:"30s"`
	TimerBatchSize int           `envconfig:"ORDERGUARD_SLA_TIMER_BATCH_SIZE" default:"100"`
	SweepLookback  time.Duration `envconfig:"ORDERGUARD_SLA_SWEEP_LOOKBACK" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
