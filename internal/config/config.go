package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "smart-service-dev-secret"

// Config holds all runtime settings. Values come from the environment,
// optionally seeded from a .env file for local development.
type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	UseMemoryStore         bool   `mapstructure:"USE_MEMORY_STORE"`
	SeedDemoData           bool   `mapstructure:"SEED_DEMO_DATA"`
	DatabaseURL            string `mapstructure:"DATABASE_URL"`
	DBUser                 string `mapstructure:"DB_USER"`
	DBPass                 string `mapstructure:"DB_PASS"`
	DBName                 string `mapstructure:"DB_NAME"`
	DBHost                 string `mapstructure:"DB_HOST"`
	DBPort                 string `mapstructure:"DB_PORT"`
	InstanceConnectionName string `mapstructure:"INSTANCE_CONNECTION_NAME"`

	SMSBackend        string `mapstructure:"SMS_BACKEND"` // console, twilio or whatsapp
	TwilioAccountSID  string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `mapstructure:"TWILIO_PHONE_NUMBER"`
	SMSCountryCode    string `mapstructure:"SMS_COUNTRY_CODE"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	TokenTTL     time.Duration `mapstructure:"TOKEN_TTL"`
	OTPPerMin    int           `mapstructure:"OTP_RATE_PER_MIN"`
	OTPBurst     int           `mapstructure:"OTP_RATE_BURST"`
	VerifyPerMin int           `mapstructure:"VERIFY_RATE_PER_MIN"`
	VerifyBurst  int           `mapstructure:"VERIFY_RATE_BURST"`
	CORSOrigins  string        `mapstructure:"CORS_ORIGINS"`
	PublicURL    string        `mapstructure:"PUBLIC_URL"`
}

// Load reads .env (if present) and the environment into a Config.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("environments/.env.development"); err != nil {
			log.Println("No .env file found - using environment variables only")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("USE_MEMORY_STORE", false)
	v.SetDefault("SEED_DEMO_DATA", false)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASS", "")
	v.SetDefault("DB_NAME", "smart_service")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("INSTANCE_CONNECTION_NAME", "")
	v.SetDefault("SMS_BACKEND", "console")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_PHONE_NUMBER", "")
	v.SetDefault("SMS_COUNTRY_CODE", "+91")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "12h")
	v.SetDefault("OTP_RATE_PER_MIN", 5)
	v.SetDefault("OTP_RATE_BURST", 3)
	v.SetDefault("VERIFY_RATE_PER_MIN", 10)
	v.SetDefault("VERIFY_RATE_BURST", 5)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.normalize(); err != nil {
		log.Fatal(err)
	}
	return cfg
}

// normalize fills development fallbacks and rejects unusable settings.
func (c *Config) normalize() error {
	c.SMSBackend = strings.ToLower(strings.TrimSpace(c.SMSBackend))
	switch c.SMSBackend {
	case "console", "twilio", "whatsapp":
	default:
		return fmt.Errorf("SMS_BACKEND must be console, twilio or whatsapp, got %q", c.SMSBackend)
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
