package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
)

type Config struct {
	// Server
	Port         string
	Env          string
	LogLevel     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Assistant upstream
	Provider        string
	AzureEndpoint   string
	AzureAPIKey     string
	AzureAPIVersion string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AssistantID     string
	RequestTimeout  time.Duration

	// Run polling
	PollInterval    time.Duration
	MaxPollAttempts int

	// Chat rate limit (requests per minute per IP, 0 disables)
	ChatRateLimit int

	// UI
	UITitle    string
	UISubtitle string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8000"),
		Env:             getEnvOrDefault("ENV", "development"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		ReadTimeout:     getEnvAsDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvAsDurationOrDefault("SERVER_WRITE_TIMEOUT", 230*time.Second),
		IdleTimeout:     getEnvAsDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
		Provider:        strings.ToLower(getEnvOrDefault("ASSISTANT_PROVIDER", ProviderAzure)),
		AzureEndpoint:   getEnvOrDefault("AZURE_OPENAI_ENDPOINT", "https://azureopenai-mcloud-be.openai.azure.com/"),
		AzureAPIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
		AzureAPIVersion: getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2024-02-15-preview"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		AssistantID:     getEnvOrDefault("ASSISTANT_ID", "asst_UQvaabCLwN4tYdmOd2YmpU7f"),
		RequestTimeout:  getEnvAsDurationOrDefault("UPSTREAM_REQUEST_TIMEOUT", 30*time.Second),
		PollInterval:    getEnvAsDurationOrDefault("POLL_INTERVAL", time.Second),
		MaxPollAttempts: getEnvAsIntOrDefault("MAX_POLL_ATTEMPTS", 30),
		ChatRateLimit:   getEnvAsIntOrDefault("CHAT_RATE_LIMIT_PER_MINUTE", 30),
		UITitle:         getEnvOrDefault("UI_TITLE", "Fabric Data Agent Assistant"),
		UISubtitle:      getEnvOrDefault("UI_SUBTITLE", "Ask questions about analyzing data from The MS Fabric lakehouse"),
	}

	return cfg
}

// Validate reports configuration that would make every chat request fail.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AssistantID) == "" {
		return fmt.Errorf("ASSISTANT_ID must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.MaxPollAttempts <= 0 {
		return fmt.Errorf("MAX_POLL_ATTEMPTS must be positive, got %d", c.MaxPollAttempts)
	}

	switch c.Provider {
	case ProviderAzure:
		if c.AzureEndpoint == "" {
			return fmt.Errorf("AZURE_OPENAI_ENDPOINT is required for provider %q", c.Provider)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("unsupported ASSISTANT_PROVIDER %q", c.Provider)
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsDurationOrDefault accepts Go durations ("1s", "500ms") and bare
// integers, which are read as seconds.
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
