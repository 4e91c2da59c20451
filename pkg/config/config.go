package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	Environment     string
	FirebaseProject string
	DatabaseURL     string
	StorageBucket   string

	// Chat tuning knobs. MessageQuotaPerMinute is the sliding-window send
	// quota; MaxMessagesPerLoad bounds the initial backlog of a live
	// subscription; PollInterval drives the RTDB listener polling loop.
	MessageQuotaPerMinute int
	MaxMessagesPerLoad    int
	PollInterval          time.Duration

	// UserCacheTTL of zero keeps cached user records for the whole session.
	UserCacheTTL time.Duration

	GroupMessagingEnabled bool

	// DevTokenSecret signs local development tokens. Ignored outside the
	// development environment.
	DevTokenSecret string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		FirebaseProject:       getEnv("FIREBASE_PROJECT_ID", ""),
		DatabaseURL:           getEnv("FIREBASE_DATABASE_URL", ""),
		StorageBucket:         getEnv("STORAGE_BUCKET", ""),
		MessageQuotaPerMinute: getEnvAsInt("MESSAGE_QUOTA_PER_MINUTE", 10),
		MaxMessagesPerLoad:    getEnvAsInt("MAX_MESSAGES_PER_LOAD", 50),
		PollInterval:          time.Duration(getEnvAsInt("POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		UserCacheTTL:          time.Duration(getEnvAsInt("USER_CACHE_TTL_SECONDS", 0)) * time.Second,
		GroupMessagingEnabled: getEnvAsBool("GROUP_MESSAGING_ENABLED", true),
		DevTokenSecret:        getEnv("DEV_TOKEN_SECRET", ""),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}
