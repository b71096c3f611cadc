// Package config reads service settings from the environment and optional .env files.
package config

import (
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string

	MaxOpenConns int
	MaxIdleConns int
}

// Enabled reports whether a postgres backend was configured at all.
func (p Postgres) Enabled() bool {
	return p.Host != ""
}

func (p Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     p.Host + ":" + p.Port,
		Path:     "/" + p.DB,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	} else {
		u.User = url.User(p.User)
	}
	return u.String()
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func (r Redis) Enabled() bool {
	return r.Addr != ""
}

type Config struct {
	Listen            string
	Algorithm         string
	RegionsFile       string
	StreetsFile       string
	SnapshotFile      string
	MaxStreetDistance float64
	StepTimeout       time.Duration
	OtelEndpoint      string

	Postgres Postgres
	Redis    Redis
}

// Load reads .env files (missing ones are ignored) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	return Config{
		Listen:            getenv("CA_LISTEN", ":8080"),
		Algorithm:         getenv("CA_ALGORITHM", "v2"),
		RegionsFile:       os.Getenv("CA_REGIONS_FILE"),
		StreetsFile:       os.Getenv("CA_STREETS_FILE"),
		SnapshotFile:      os.Getenv("CA_SNAPSHOT_FILE"),
		MaxStreetDistance: getenvFloat("CA_MAX_STREET_DISTANCE", 100),
		StepTimeout:       getenvDuration("CA_STEP_TIMEOUT", 2*time.Second),
		OtelEndpoint:      os.Getenv("CA_OTEL_ENDPOINT"),

		Postgres: Postgres{
			Host:         os.Getenv("PG_HOST"),
			Port:         getenv("PG_PORT", "5432"),
			User:         getenv("PG_USER", "postgres"),
			Password:     os.Getenv("PG_PASSWORD"),
			DB:           getenv("PG_DB", "communityaddr"),
			SSLMode:      getenv("PG_SSLMODE", "disable"),
			MaxOpenConns: getenvInt("PG_MAX_OPEN_CONNS", 50),
			MaxIdleConns: getenvInt("PG_MAX_IDLE_CONNS", 25),
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
			TTL:      getenvDuration("REDIS_TTL", 24*time.Hour),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
