package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config contains application configuration.
type Config struct {
	Port string

	DB       DBConfig
	JWT      JWTConfig
	Log      LogConfig
	Tracking TrackingConfig
	Notify   NotifyConfig
	Push     PushConfig
	HTTP     HTTPConfig
}

type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	Timezone   string
	SQLitePath string
}

// DSN builds the Postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.Timezone,
	)
}

type JWTConfig struct {
	Secret string
}

type LogConfig struct {
	Level string
	File  string
}

type TrackingConfig struct {
	UpdateInterval    time.Duration
	MovementThreshold float64
	StaleAfter        time.Duration
	SweepInterval     time.Duration
}

type NotifyConfig struct {
	NearStopCooldown    time.Duration
	DefaultRadiusMeters float64
	Workers             int
	QueueSize           int
}

type PushConfig struct {
	Backend                 string
	FirebaseProjectID       string
	FirebaseClientEmail     string
	FirebasePrivateKey      string
	FirebaseCredentialsFile string
	VAPIDPublicKey          string
	VAPIDPrivateKey         string
	VAPIDSubject            string
	VAPIDTTL                int
}

type HTTPConfig struct {
	FrontendURLs    []string
	RateLimitPerSec float64
	RateLimitBurst  int
}

// Load reads configuration from the environment, after loading .env if one exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	p := &parser{}
	cfg := Config{
		Port: getEnv("PORT", "8080"),
		DB: DBConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			Name:       getEnv("DB_NAME", "bus_tracker"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			Timezone:   getEnv("DB_TIMEZONE", "UTC"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "bus_tracker.db"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", "./logs/app.log"),
		},
		Tracking: TrackingConfig{
			UpdateInterval:    time.Duration(p.int("TRACKING_UPDATE_INTERVAL_MS", 5000)) * time.Millisecond,
			MovementThreshold: p.float("TRACKING_MOVEMENT_THRESHOLD_METERS", 10),
			StaleAfter:        p.duration("TRACKING_STALE_AFTER", 10*time.Minute),
			SweepInterval:     p.duration("TRACKING_SWEEP_INTERVAL", time.Minute),
		},
		Notify: NotifyConfig{
			NearStopCooldown:    p.duration("NEAR_STOP_COOLDOWN", 5*time.Minute),
			DefaultRadiusMeters: p.float("DEFAULT_NEAR_RADIUS_METERS", 150),
			Workers:             p.int("NOTIFY_WORKERS", 4),
			QueueSize:           p.int("NOTIFY_QUEUE_SIZE", 256),
		},
		Push: PushConfig{
			Backend:                 strings.ToLower(getEnv("PUSH_BACKEND", "auto")),
			FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			FirebaseClientEmail:     getEnv("FIREBASE_CLIENT_EMAIL", ""),
			FirebasePrivateKey:      getEnv("FIREBASE_PRIVATE_KEY", ""),
			FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			VAPIDPublicKey:          getEnv("VAPID_PUBLIC_KEY", ""),
			VAPIDPrivateKey:         getEnv("VAPID_PRIVATE_KEY", ""),
			VAPIDSubject:            getEnv("VAPID_SUBJECT", ""),
			VAPIDTTL:                p.int("VAPID_TTL", 60),
		},
		HTTP: HTTPConfig{
			FrontendURLs:    splitList(getEnv("FRONTEND_URLS", "")),
			RateLimitPerSec: p.float("RATE_LIMIT_PER_SEC", 10),
			RateLimitBurst:  p.int("RATE_LIMIT_BURST", 20),
		},
	}

	if p.err != nil {
		return Config{}, p.err
	}
	if cfg.JWT.Secret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.DB.Driver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DB.Driver)
	}
	if cfg.Tracking.UpdateInterval < 0 || cfg.Tracking.MovementThreshold < 0 {
		return Config{}, fmt.Errorf("tracking thresholds must not be negative")
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) int(key string, def int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) float(key string, def float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
