package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Payment providers understood by the checkout flow.
const (
	PaymentProviderMercadoPago = "mercadopago"
	PaymentProviderMidtrans    = "midtrans"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Timezone  string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Admin    AdminConfig
	Payments PaymentsConfig
	CEP      CEPConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	AutoMigrate   bool
	MigrationsDir string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes the TTL of each cached aggregate.
type CacheConfig struct {
	FinanceTTL   time.Duration
	DashboardTTL time.Duration
	CatalogTTL   time.Duration
}

// AdminConfig holds the e-mail allow-list used to seed admin roles at startup.
type AdminConfig struct {
	SeedEmails []string
}

// PaymentsConfig selects and configures the checkout gateway.
type PaymentsConfig struct {
	Provider           string
	Timeout            time.Duration
	MercadoPagoToken   string
	MercadoPagoBaseURL string
	SuccessURL         string
	FailureURL         string
	PendingURL         string
	MidtransServerKey  string
	MidtransProduction bool
}

// CEPConfig configures the postal-code lookup client.
type CEPConfig struct {
	BaseURL string
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("TIMEZONE")

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:   v.GetBool("DB_AUTO_MIGRATE"),
		MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		FinanceTTL:   parseDuration(v.GetString("FINANCE_CACHE_TTL"), 2*time.Minute),
		DashboardTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
		CatalogTTL:   parseDuration(v.GetString("CATALOG_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Admin = AdminConfig{SeedEmails: lowerAll(splitAndTrim(v.GetString("ADMIN_EMAILS")))}

	cfg.Payments = PaymentsConfig{
		Provider:           strings.ToLower(v.GetString("PAYMENT_PROVIDER")),
		Timeout:            parseDuration(v.GetString("PAYMENT_TIMEOUT"), 5*time.Second),
		MercadoPagoToken:   v.GetString("MERCADO_PAGO_ACCESS_TOKEN"),
		MercadoPagoBaseURL: v.GetString("MERCADO_PAGO_BASE_URL"),
		SuccessURL:         v.GetString("PAYMENT_SUCCESS_URL"),
		FailureURL:         v.GetString("PAYMENT_FAILURE_URL"),
		PendingURL:         v.GetString("PAYMENT_PENDING_URL"),
		MidtransServerKey:  v.GetString("MIDTRANS_SERVER_KEY"),
		MidtransProduction: v.GetBool("MIDTRANS_PRODUCTION"),
	}

	cfg.CEP = CEPConfig{
		BaseURL: v.GetString("CEP_BASE_URL"),
		Timeout: parseDuration(v.GetString("CEP_TIMEOUT"), 3*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "America/Sao_Paulo")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bioclass")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_MIGRATIONS_DIR", "")

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "bioclass-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FINANCE_CACHE_TTL", "2m")
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
	v.SetDefault("CATALOG_CACHE_TTL", "10m")

	v.SetDefault("ADMIN_EMAILS", "")

	v.SetDefault("PAYMENT_PROVIDER", PaymentProviderMercadoPago)
	v.SetDefault("PAYMENT_TIMEOUT", "5s")
	v.SetDefault("MERCADO_PAGO_ACCESS_TOKEN", "")
	v.SetDefault("MERCADO_PAGO_BASE_URL", "https://api.mercadopago.com")
	v.SetDefault("PAYMENT_SUCCESS_URL", "https://bioclass.com.br/student/payment/success")
	v.SetDefault("PAYMENT_FAILURE_URL", "https://bioclass.com.br/student/payment/failure")
	v.SetDefault("PAYMENT_PENDING_URL", "https://bioclass.com.br/student/payment/pending")
	v.SetDefault("MIDTRANS_SERVER_KEY", "")
	v.SetDefault("MIDTRANS_PRODUCTION", false)

	v.SetDefault("CEP_BASE_URL", "https://viacep.com.br/ws")
	v.SetDefault("CEP_TIMEOUT", "3s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func lowerAll(values []string) []string {
	for i, value := range values {
		values[i] = strings.ToLower(value)
	}
	return values
}
