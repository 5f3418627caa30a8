package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Payments      PaymentsConfig
	PayOS         PayOSConfig
	Square        SquareConfig
	Frontend      FrontendConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	PubSub        PubSubConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payments.validate(cfg.PayOS, cfg.Square); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HOPEFULTAIL_APP_ENV" required:"true"`
	Port         string `envconfig:"HOPEFULTAIL_APP_PORT" default:"3001"`
	LogLevel     string `envconfig:"HOPEFULTAIL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HOPEFULTAIL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HOPEFULTAIL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HOPEFULTAIL_DB_DSN"`
	Driver string `envconfig:"HOPEFULTAIL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DB_HOST"`
	LegacyPort     int    `envconfig:"DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DB_USER"`
	LegacyPassword string `envconfig:"DB_PASSWORD"`
	LegacyName     string `envconfig:"DB_NAME"`
	LegacySSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOPEFULTAIL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOPEFULTAIL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOPEFULTAIL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOPEFULTAIL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOPEFULTAIL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HOPEFULTAIL_REDIS_ADDR"`
	Password     string        `envconfig:"HOPEFULTAIL_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOPEFULTAIL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOPEFULTAIL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOPEFULTAIL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOPEFULTAIL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOPEFULTAIL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOPEFULTAIL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"HOPEFULTAIL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"HOPEFULTAIL_JWT_ISSUER" default:"hopeful-tail"`
	ExpirationMinutes      int    `envconfig:"HOPEFULTAIL_JWT_EXPIRATION_MINUTES" default:"1440"`
	RefreshTokenTTLMinutes int    `envconfig:"HOPEFULTAIL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HOPEFULTAIL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HOPEFULTAIL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HOPEFULTAIL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HOPEFULTAIL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HOPEFULTAIL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"HOPEFULTAIL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"HOPEFULTAIL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow  time.Duration `envconfig:"HOPEFULTAIL_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIPLimit int           `envconfig:"HOPEFULTAIL_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HOPEFULTAIL_AUTO_MIGRATE" default:"false"`
	// VerifyPayOSSignature rejects webhooks whose checksum does not match.
	VerifyPayOSSignature bool `envconfig:"HOPEFULTAIL_VERIFY_PAYOS_SIGNATURE" default:"true"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"HOPEFULTAIL_EVENTING_WEBHOOK_IDEMPOTENCY_TTL" default:"168h"`
}

// PaymentsConfig selects which gateway issues checkout links.
type PaymentsConfig struct {
	Provider       string        `envconfig:"HOPEFULTAIL_PAYMENTS_PROVIDER" default:"payos"`
	GatewayTimeout time.Duration `envconfig:"HOPEFULTAIL_PAYMENTS_GATEWAY_TIMEOUT" default:"10s"`
	Currency       string        `envconfig:"HOPEFULTAIL_PAYMENTS_CURRENCY" default:"VND"`
}

// ProviderName normalises the configured provider.
func (p PaymentsConfig) ProviderName() string {
	name := strings.TrimSpace(strings.ToLower(p.Provider))
	if name == "" {
		return PaymentProviderPayOS
	}
	return name
}

func (p PaymentsConfig) validate(payos PayOSConfig, square SquareConfig) error {
	switch p.ProviderName() {
	case PaymentProviderPayOS:
		if payos.ClientID == "" || payos.APIKey == "" || payos.ChecksumKey == "" {
			return fmt.Errorf("payos provider requires %s, %s and %s", EnvPayOSClientID, EnvPayOSAPIKey, EnvPayOSChecksumKey)
		}
	case PaymentProviderSquare:
		if square.AccessToken == "" || square.LocationID == "" {
			return fmt.Errorf("square provider requires %s and %s", EnvSquareAccessToken, EnvSquareLocationID)
		}
	default:
		return fmt.Errorf("unsupported payments provider %q", p.Provider)
	}
	return nil
}

type PayOSConfig struct {
	ClientID    string `envconfig:"PAYOS_CLIENT_ID"`
	APIKey      string `envconfig:"PAYOS_API_KEY"`
	ChecksumKey string `envconfig:"PAYOS_CHECKSUM_KEY"`
	Environment string `envconfig:"PAYOS_ENVIRONMENT" default:"sandbox"`
	BaseURL     string `envconfig:"HOPEFULTAIL_PAYOS_BASE_URL"`
}

type SquareConfig struct {
	AccessToken         string `envconfig:"HOPEFULTAIL_SQUARE_ACCESS_TOKEN"`
	LocationID          string `envconfig:"HOPEFULTAIL_SQUARE_LOCATION_ID"`
	Env                 string `envconfig:"HOPEFULTAIL_SQUARE_ENV" default:"sandbox"`
	WebhookSignatureKey string `envconfig:"HOPEFULTAIL_SQUARE_WEBHOOK_SIGNATURE_KEY"`
	WebhookURL          string `envconfig:"HOPEFULTAIL_SQUARE_WEBHOOK_URL"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// FrontendConfig holds the storefront URLs the gateway redirects back to.
type FrontendConfig struct {
	BaseURL     string   `envconfig:"HOPEFULTAIL_FRONTEND_BASE_URL" default:"https://hopeful-tail-trust-fe.vercel.app"`
	CORSOrigins []string `envconfig:"HOPEFULTAIL_CORS_ORIGINS" default:"http://localhost:3000"`
}

// Origins lists the browser origins allowed to call the API.
func (f FrontendConfig) Origins() []string {
	origins := append([]string{}, f.CORSOrigins...)
	if base := strings.TrimRight(strings.TrimSpace(f.BaseURL), "/"); base != "" {
		origins = append(origins, base)
	}
	return origins
}

// URL joins a path onto the frontend base URL.
func (f FrontendConfig) URL(path string) string {
	base := strings.TrimRight(strings.TrimSpace(f.BaseURL), "/")
	return base + "/" + strings.TrimLeft(path, "/")
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HOPEFULTAIL_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"HOPEFULTAIL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"HOPEFULTAIL_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"HOPEFULTAIL_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"HOPEFULTAIL_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the upload cap to bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type PubSubConfig struct {
	PaymentsTopic string `envconfig:"HOPEFULTAIL_PUBSUB_PAYMENTS_TOPIC"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"HOPEFULTAIL_CRON_INTERVAL" default:"24h"`
	LockTTL           time.Duration `envconfig:"HOPEFULTAIL_CRON_LOCK_TTL" default:"10m"`
	StalePaymentAfter time.Duration `envconfig:"HOPEFULTAIL_CRON_STALE_PAYMENT_AFTER" default:"72h"`
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
