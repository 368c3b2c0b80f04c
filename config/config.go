package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"hyunsoo718/briefingworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Notion record store configuration
	NotionAPIKey      string
	ChannelDatabaseID string
	ReportDatabaseID  string

	// Gemini configuration
	GeminiAPIKey string
	GeminiModel  string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Scheduler configuration
	ResetHour  int
	CheckHours []int

	// Fetch block duration after a rate limit response
	FetchBlockTime time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	resetHour, _ := strconv.Atoi(getEnv("RESET_HOUR", "4"))
	blockSeconds, _ := strconv.Atoi(getEnv("FETCH_BLOCK_SECONDS", "600"))

	return &Config{
		NotionAPIKey:         getEnv("NOTION_API_KEY", ""),
		ChannelDatabaseID:    getEnv("CHANNEL_DB_ID", ""),
		ReportDatabaseID:     getEnv("REPORT_DB_ID", ""),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "briefings"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLength,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		ResetHour:            resetHour,
		CheckHours:           parseHours(getEnv("CHECK_HOURS", "")),
		FetchBlockTime:       time.Duration(blockSeconds) * time.Second,
		Environment:          getEnv("BRIEFING_ENVIRONMENT", "development"),
	}
}

// Validate checks that the required credentials are present
func (c *Config) Validate() error {
	if c.NotionAPIKey == "" {
		return errors.NewConfiguration("NOTION_API_KEY is required", nil)
	}
	if c.ChannelDatabaseID == "" {
		return errors.NewConfiguration("CHANNEL_DB_ID is required", nil)
	}
	if c.ReportDatabaseID == "" {
		return errors.NewConfiguration("REPORT_DB_ID is required", nil)
	}
	if c.GeminiAPIKey == "" {
		return errors.NewConfiguration("GEMINI_API_KEY is required", nil)
	}
	if c.ResetHour < 0 || c.ResetHour > 23 {
		return errors.NewConfiguration("RESET_HOUR must be between 0 and 23", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseHours parses a comma separated hour list such as "7,13,19".
// Entries outside 0..23 are dropped.
func parseHours(value string) []int {
	if value == "" {
		return nil
	}
	var hours []int
	for _, part := range strings.Split(value, ",") {
		hour, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || hour < 0 || hour > 23 {
			continue
		}
		hours = append(hours, hour)
	}
	return hours
}
