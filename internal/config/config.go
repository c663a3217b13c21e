package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Strategy StrategyConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	CacheTTL time.Duration
}

type RabbitMQConfig struct {
	URI      string
	Exchange string
}

// StrategyConfig exposes the calculator heuristics that are policy, not code:
// the substituted hours for completed topics with no logged time, and the
// assumed daily goal when the user never set one.
type StrategyConfig struct {
	FallbackTopicHours      float64
	DefaultDailyGoalMinutes int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "6700"),
			AllowedOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DATABASE", "progress_service"),
			Timeout:  getEnvAsDuration("MONGO_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", 5*time.Minute),
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", ""),
		},
		Strategy: StrategyConfig{
			FallbackTopicHours:      getEnvAsFloat("STRATEGY_FALLBACK_TOPIC_HOURS", 1),
			DefaultDailyGoalMinutes: getEnvAsInt("STRATEGY_DEFAULT_DAILY_GOAL_MINUTES", 60),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid int in env %s: %s", key, err)
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			log.Printf("invalid float in env %s: %s", key, err)
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("invalid duration in env %s: %s", key, err)
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
