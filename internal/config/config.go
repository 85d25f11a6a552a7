package config // package config loads application configuration from environment variables

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	LogLevel       string // zerolog level name
	DBUser         string
	DBPass         string // empty allowed
	DBHost         string
	DBPort         string
	DBName         string
	MigrateOnStart bool   // apply embedded migrations before serving
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int
	AMQPURL        string // RabbitMQ URL; empty disables reservation events
	EventLogPath   string // where the event consumer appends reservation events
	APIKey         APIKeyConfig
}

// APIKeyConfig tunes the webhook gateway.
type APIKeyConfig struct {
	TTL       time.Duration // lifetime of newly issued keys
	RPS       float64       // per-key sustained request rate
	Burst     int
	IdleEvict time.Duration // limiter entries unused this long are dropped
}

// Load reads an optional .env file and then the environment.  Required
// variables are enforced by must() and missing values stop the process.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           must("APP_PORT"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		MigrateOnStart: envBool("DB_MIGRATE_ON_START", true),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		AMQPURL:        os.Getenv("AMQP_URL"),
		EventLogPath:   getenv("EVENT_LOG_PATH", "logs/reservations.log"),
		APIKey:         LoadAPIKeyConfig(),
	}
}

// LoadAPIKeyConfig reads the webhook gateway settings.
func LoadAPIKeyConfig() APIKeyConfig {
	c := APIKeyConfig{
		TTL:       envDur("API_KEY_TTL", 365*24*time.Hour),
		RPS:       envFloat("API_KEY_RPS", 5),
		Burst:     envInt("API_KEY_BURST", 10),
		IdleEvict: envDur("API_KEY_LIMITER_IDLE", 10*time.Minute),
	}
	if c.Burst < 1 {
		c.Burst = 1
	}
	if c.RPS <= 0 {
		c.RPS = 1
	}
	return c
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatal().Str("key", key).Msg("missing required env var")
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", s).Msg("invalid int")
	}
	return n
}
