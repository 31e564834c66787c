package config // package config loads application configuration from environment variables

import (
	"strings"
	"time"

	"github.com/eventify/ticketing/internal/database"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env             string           // application environment (dev, prod)
	Port            string           // HTTP port to listen on
	LogLevel        string           // logrus level name
	StorageDriver   string           // mysql or memory
	DB              database.Options // MySQL connection, required for the mysql driver
	JWTSecret       string           // secret used to sign JWTs
	AccessTTLMin    int              // access token time-to-live in minutes
	BcryptCost      int              // bcrypt cost for password hashing
	AdminName       string           // seeded admin display name
	AdminEmail      string           // seeded admin email, no admin is seeded when empty
	AdminPassword   string           // seeded admin password
	AMQPURL         string           // RabbitMQ URL, notifications are processed inline when empty
	BookingLogPath  string           // file the notification consumer appends to
	Mail            MailConfig       // outgoing mail, log-only without SMTP host or MailerSend key
	CORSOrigins     []string         // allowed browser origins
	ShutdownTimeout time.Duration    // grace period for in-flight requests
}

// MailConfig configures the mail notifier. MailerSendKey selects the
// MailerSend API over SMTP.
type MailConfig struct {
	Host          string
	Port          string
	Username      string
	Password      string
	From          string
	FromName      string
	MailerSendKey string
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	c := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "8080"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		StorageDriver:  strings.ToLower(envStr("STORAGE_DRIVER", StorageMySQL)),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 60*24),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		AdminName:      envStr("ADMIN_NAME", "Administrator"),
		AdminEmail:     envStr("ADMIN_EMAIL", ""),
		AdminPassword:  envStr("ADMIN_PASSWORD", ""),
		AMQPURL:        envStr("AMQP_URL", ""),
		BookingLogPath: envStr("BOOKING_LOG_PATH", "logs/booking.log"),
		Mail: MailConfig{
			Host:          envStr("SMTP_HOST", ""),
			Port:          envStr("SMTP_PORT", "587"),
			Username:      envStr("SMTP_USERNAME", ""),
			Password:      envStr("SMTP_PASSWORD", ""),
			From:          envStr("MAIL_FROM", "no-reply@eventify.local"),
			FromName:      envStr("MAIL_FROM_NAME", "Eventify"),
			MailerSendKey: envStr("MAILERSEND_API_KEY", ""),
		},
		CORSOrigins:     envList("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if c.AdminEmail != "" && c.AdminPassword == "" {
		c.AdminPassword = must("ADMIN_PASSWORD")
	}
	if c.StorageDriver == StorageMySQL {
		c.DB = database.Options{
			User:     must("DB_USER"),
			Password: envStr("DB_PASS", ""),
			Host:     must("DB_HOST"),
			Port:     envStr("DB_PORT", "3306"),
			Name:     must("DB_NAME"),
		}
	}
	return c
}

// IsProduction reports whether APP_ENV selects production behaviour such
// as JSON logs.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}
