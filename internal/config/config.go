package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Staff    StaffConfig
	QR       QRConfig
	SMS      SMSConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// DatabaseConfig holds both connection strings. AdminDSN connects with a role that
// bypasses row security; DSN is the restricted application role.
type DatabaseConfig struct {
	AdminDSN      string
	DSN           string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	ConnectRetry  int
	MigrationsDir string
	AutoMigrate   bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	CheckInRecorded string
	TicketIssued    string
	SMSOutbound     string
}

type AuthConfig struct {
	SessionSecret     string
	SessionTTL        time.Duration
	OTPTTL            time.Duration
	OTPResendInterval time.Duration
	OTPMaxAttempts    int
	CookieName        string
	CookieSecure      bool
}

type StaffConfig struct {
	OIDCIssuer string
	APIKey     string
}

type QRConfig struct {
	ServiceURL    string
	PayloadPrefix string
}

type SMSConfig struct {
	GatewayURL   string
	GatewayToken string
	GroupID      string
}

func Load() *Config {
	adminDSN := getEnv("POSTGRES_ADMIN_DSN", "")
	dsn := getEnv("POSTGRES_DSN", "")
	if adminDSN == "" {
		adminDSN = dsn
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", ":8085"),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			ReadTimeout:    getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			AdminDSN:      adminDSN,
			DSN:           dsn,
			MaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:   time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			ConnectRetry:  getEnvInt("DB_CONNECT_RETRIES", 5),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
			AutoMigrate:   getEnvBool("AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				CheckInRecorded: getEnv("KAFKA_TOPIC_CHECKINS", "companion.checkins.recorded"),
				TicketIssued:    getEnv("KAFKA_TOPIC_TICKETS", "companion.raffle.tickets"),
				SMSOutbound:     getEnv("KAFKA_TOPIC_SMS", "companion.sms.outbound"),
			},
		},
		Auth: AuthConfig{
			SessionSecret:     getEnv("SESSION_SECRET", ""),
			SessionTTL:        getEnvDuration("SESSION_TTL", 7*24*time.Hour),
			OTPTTL:            getEnvDuration("OTP_TTL", 5*time.Minute),
			OTPResendInterval: getEnvDuration("OTP_RESEND_INTERVAL", 30*time.Second),
			OTPMaxAttempts:    getEnvInt("OTP_MAX_ATTEMPTS", 5),
			CookieName:        getEnv("SESSION_COOKIE_NAME", "companion_session"),
			CookieSecure:      getEnvBool("SESSION_COOKIE_SECURE", true),
		},
		Staff: StaffConfig{
			OIDCIssuer: getEnv("STAFF_OIDC_ISSUER", ""),
			APIKey:     getEnv("STAFF_API_KEY", ""),
		},
		QR: QRConfig{
			ServiceURL:    getEnv("QR_SERVICE_URL", "https://api.qrserver.com/v1/create-qr-code/"),
			PayloadPrefix: getEnv("QR_PAYLOAD_PREFIX", "vthacks-user-"),
		},
		SMS: SMSConfig{
			GatewayURL:   getEnv("SMS_GATEWAY_URL", ""),
			GatewayToken: getEnv("SMS_GATEWAY_TOKEN", ""),
			GroupID:      getEnv("SMS_CONSUMER_GROUP", "companion-sms-relay"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, e.g. KAFKA_BROKERS=kafka-1:9092,kafka-2:9092
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
