package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	LogLevel       string
	LogFormat      string
	HTTPAddr       string
	APIToken       string
	AuthServiceURL string
	DeviceName     string

	StateBackend  string
	StateFile     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string
	SQLitePath    string

	HealthBackend string
	SamplesFile   string
	MQTTBroker    string
	MQTTTopic     string
}

// Load reads the given env files (".env" when none are given; missing files
// are ignored) and then builds a Config from the process environment.
// Variables already set in the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, err
		}
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("REDIS_DB must be an integer")
	}
	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8088"),
		APIToken:       getEnv("API_TOKEN", "MOCK-TOKEN"),
		AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),
		DeviceName:     getEnv("DEVICE_NAME", "sleeptoggle"),
		StateBackend:   getEnv("STATE_BACKEND", "file"),
		StateFile:      getEnv("STATE_FILE", "data/state.json"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        redisDB,
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "data/sleeptoggle.db"),
		HealthBackend:  getEnv("HEALTH_BACKEND", "file"),
		SamplesFile:    getEnv("SAMPLES_FILE", "data/samples.json"),
		MQTTBroker:     getEnv("MQTT_BROKER", ""),
		MQTTTopic:      getEnv("MQTT_TOPIC", "health/sleep_analysis/samples"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.Env != "development" && c.AuthServiceURL == "" {
		return errors.New("AUTH_SERVICE_URL is required outside development")
	}
	switch c.StateBackend {
	case "file":
		if c.StateFile == "" {
			return errors.New("STATE_BACKEND=file requires STATE_FILE to be set")
		}
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("STATE_BACKEND=redis requires REDIS_ADDR to be set")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STATE_BACKEND=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("STATE_BACKEND=sqlite requires SQLITE_PATH to be set")
		}
	case "memory":
	default:
		return errors.New("STATE_BACKEND must be one of: file, redis, postgres, sqlite, memory")
	}
	switch c.HealthBackend {
	case "none":
	case "file":
		if c.SamplesFile == "" {
			return errors.New("HEALTH_BACKEND=file requires SAMPLES_FILE to be set")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when HEALTH_BACKEND=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("HEALTH_BACKEND=sqlite requires SQLITE_PATH to be set")
		}
	case "mqtt":
		if c.MQTTBroker == "" || c.MQTTTopic == "" {
			return errors.New("HEALTH_BACKEND=mqtt requires MQTT_BROKER and MQTT_TOPIC to be set")
		}
	default:
		return errors.New("HEALTH_BACKEND must be one of: none, file, postgres, sqlite, mqtt")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
