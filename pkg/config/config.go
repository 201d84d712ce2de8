package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Upload        UploadConfig
	ImageKit      ImageKitConfig
	Cache         CacheConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.JWT.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"CIVICTRACK_APP_ENV" required:"true"`
	Port           string   `envconfig:"CIVICTRACK_APP_PORT" required:"true"`
	LogLevel       string   `envconfig:"CIVICTRACK_LOG_LEVEL" default:"info"`
	LogFormat      string   `envconfig:"CIVICTRACK_LOG_FORMAT" default:"json"`
	LogWarnStack   bool     `envconfig:"CIVICTRACK_LOG_WARN_STACK" default:"false"`
	AllowedOrigins []string `envconfig:"CIVICTRACK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"CIVICTRACK_DB_DSN"`
	Driver string `envconfig:"CIVICTRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CIVICTRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"CIVICTRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CIVICTRACK_DB_USER"`
	LegacyPassword string `envconfig:"CIVICTRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"CIVICTRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"CIVICTRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CIVICTRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CIVICTRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CIVICTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CIVICTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CIVICTRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CIVICTRACK_REDIS_ADDR"`
	Password     string        `envconfig:"CIVICTRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"CIVICTRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CIVICTRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CIVICTRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CIVICTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CIVICTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CIVICTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CIVICTRACK_JWT_SECRET" required:"true"`
	RefreshSecret          string `envconfig:"CIVICTRACK_JWT_REFRESH_SECRET" required:"true"`
	Issuer                 string `envconfig:"CIVICTRACK_JWT_ISSUER" default:"civictrack"`
	ExpirationMinutes      int    `envconfig:"CIVICTRACK_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"CIVICTRACK_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
	SecureCookies          bool   `envconfig:"CIVICTRACK_SECURE_COOKIES" default:"false"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

func (j JWTConfig) validate() error {
	if j.Secret == j.RefreshSecret {
		return errors.New("jwt refresh secret must differ from the access secret")
	}
	if j.RefreshTokenTTL() <= j.AccessTokenTTL() {
		return fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", j.RefreshTokenTTL(), j.AccessTokenTTL())
	}
	return nil
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CIVICTRACK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CIVICTRACK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CIVICTRACK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CIVICTRACK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CIVICTRACK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CIVICTRACK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CIVICTRACK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CIVICTRACK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CIVICTRACK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CIVICTRACK_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CIVICTRACK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type UploadConfig struct {
	MaxBytes      int64   `envconfig:"CIVICTRACK_UPLOAD_MAX_BYTES" default:"10485760"`
	DefaultFolder string  `envconfig:"CIVICTRACK_UPLOAD_DEFAULT_FOLDER" default:"complaints"`
	RatePerSecond float64 `envconfig:"CIVICTRACK_UPLOAD_RATE_PER_SECOND" default:"1"`
	RateBurst     int     `envconfig:"CIVICTRACK_UPLOAD_RATE_BURST" default:"5"`
}

type ImageKitConfig struct {
	PublicKey   string `envconfig:"CIVICTRACK_IMAGEKIT_PUBLIC_KEY"`
	PrivateKey  string `envconfig:"CIVICTRACK_IMAGEKIT_PRIVATE_KEY"`
	URLEndpoint string `envconfig:"CIVICTRACK_IMAGEKIT_URL_ENDPOINT"`
	UploadURL   string `envconfig:"CIVICTRACK_IMAGEKIT_UPLOAD_URL" default:"https://upload.imagekit.io/api/v1/files/upload"`
}

// Configured reports whether the upload credentials are present.
func (i ImageKitConfig) Configured() bool {
	return strings.TrimSpace(i.PrivateKey) != "" && strings.TrimSpace(i.URLEndpoint) != ""
}

type CacheConfig struct {
	CategoriesTTL  time.Duration `envconfig:"CIVICTRACK_CACHE_CATEGORIES_TTL" default:"5m"`
	CategoriesSize int           `envconfig:"CIVICTRACK_CACHE_CATEGORIES_SIZE" default:"64"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CIVICTRACK_AUTO_MIGRATE" default:"false"`
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
