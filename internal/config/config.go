// ABOUTME: Centralized configuration for the docweave pipeline
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the generation pipeline
type Config struct {
	// OpenAI settings
	OpenAIKey  string
	ChatModel  string
	MergeModel string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Source settings
	SlackToken  string
	NotionToken string

	// Pipeline settings
	MaxConcurrentExtractions int
	CategoryPriority         []string

	// Storage settings
	DBPath string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		OpenAIKey:                os.Getenv("OPENAI_API_KEY"),
		ChatModel:                getEnv("DOCWEAVE_CHAT_MODEL", "gpt-4o-mini"),
		MergeModel:               getEnv("DOCWEAVE_MERGE_MODEL", "gpt-4o"),
		Timeout:                  getEnvDuration("DOCWEAVE_LLM_TIMEOUT", 30*time.Second),
		MaxRetries:               getEnvInt("DOCWEAVE_MAX_RETRIES", 3),
		RetryDelay:               getEnvDuration("DOCWEAVE_RETRY_DELAY", 2*time.Second),
		SlackToken:               os.Getenv("SLACK_BOT_TOKEN"),
		NotionToken:              os.Getenv("NOTION_TOKEN"),
		MaxConcurrentExtractions: getEnvInt("DOCWEAVE_MAX_CONCURRENT", 4),
		CategoryPriority:         getEnvList("DOCWEAVE_CATEGORY_PRIORITY"),
		DBPath:                   os.Getenv("DOCWEAVE_DB_PATH"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("DOCWEAVE_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.MaxConcurrentExtractions < 1 || c.MaxConcurrentExtractions > 64 {
		return fmt.Errorf("DOCWEAVE_MAX_CONCURRENT must be 1-64, got %d", c.MaxConcurrentExtractions)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("DOCWEAVE_LLM_TIMEOUT must be positive, got %v", c.Timeout)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
