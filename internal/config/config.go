package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Mongo     MongoConfig
	Auth      AuthConfig
	Log       LogConfig
	MQTT      MQTTConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	CORSOrigin     string
	LoginRateLimit int
}

// MongoConfig holds MongoDB configuration.
type MongoConfig struct {
	URI          string
	Database     string
	Transactions bool
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
}

// LogConfig holds logrus configuration.
type LogConfig struct {
	Level  string
	Format string
}

// MQTTConfig holds the event broker configuration. An empty Broker disables
// event publishing.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

// SchedulerConfig holds cron schedules for background jobs.
type SchedulerConfig struct {
	DocumentRefresh string
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to read .env file")
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5000"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
			CORSOrigin:     getEnv("CORS_ORIGIN", "*"),
			LoginRateLimit: getIntEnv("LOGIN_RATE_LIMIT", 20),
		},
		Mongo: MongoConfig{
			URI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:     getEnv("MONGO_DB", "rmc_fleet"),
			Transactions: getBoolEnv("MONGO_TRANSACTIONS", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "default-secret-key-change-in-production"),
			JWTExpiry: getDurationEnv("JWT_EXPIRY", 30*24*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		MQTT: MQTTConfig{
			Broker:      os.Getenv("MQTT_BROKER"),
			ClientID:    getEnv("MQTT_CLIENT_ID", "rmc-fleet-api"),
			TopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "rmc-fleet"),
			Username:    os.Getenv("MQTT_USERNAME"),
			Password:    os.Getenv("MQTT_PASSWORD"),
		},
		Scheduler: SchedulerConfig{
			DocumentRefresh: getEnv("DOCUMENT_REFRESH_SCHEDULE", "0 1 * * *"),
		},
	}
}

// ConfigureLogging applies the log level and format to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	if c.Log.Format == "text" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		log.WithField("level", c.Log.Level).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
