package config

import (
	"os"
	"strconv"
)

type Config struct {
	GoogleApiKey    string
	AnthropicApiKey string
	MistralApiKey   string
	DatabaseURL     string
	LLMProvider     string
	ReasoningModel  string
	FastModel       string
	AnthropicModel  string
	EmbeddingModel  string
	Port            string
	ChunkSize       int
	ChunkOverlap    int
	CollectionName  string
}

func Load() *Config {
	return &Config{
		GoogleApiKey:    getEnv("GOOGLE_API_KEY", ""),
		AnthropicApiKey: getEnv("ANTHROPIC_API_KEY", ""),
		MistralApiKey:   getEnv("MISTRAL_API_KEY", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		LLMProvider:     getEnv("LLM_PROVIDER", "google"),
		ReasoningModel:  getEnv("REASONING_MODEL", "gemini-3-pro-preview"),
		FastModel:       getEnv("FAST_MODEL", "gemini-3-flash-preview"),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		Port:            getEnv("PORT", "3000"),
		ChunkSize:       getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap:    getEnvAsInt("CHUNK_OVERLAP", 200),
		CollectionName:  getEnv("COLLECTION_NAME", "syllabus_db"),
	}
}

// ChatModel returns the model name matching the configured provider.
func (c *Config) ChatModel() string {
	if c.LLMProvider == "anthropic" {
		return c.AnthropicModel
	}
	return c.ReasoningModel
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
