package topicquiz

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Supported LLM providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds the process configuration. It is loaded once at startup and
// passed by reference.
type Config struct {
	Port             string
	GinMode          string
	SessionSecret    []byte
	LLMProvider      string
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	LLMModel         string
	LLMBaseURL       string
	LLMTimeout       time.Duration
	SessionTTL       time.Duration
	RedisURL         string
	AuditDBPath      string
	RabbitMQURI      string
	RabbitMQExchange string
	TraceDir         string
	CORSOrigins      []string
	Verbose          bool
}

// LoadConfig reads an optional .env file and then the environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	llmTimeout, err := getEnvDuration("LLM_TIMEOUT", DefaultGenerationTimeout)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getEnvDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "8180"),
		GinMode:          getEnvOrDefault("GIN_MODE", "release"),
		LLMProvider:      strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		LLMBaseURL:       os.Getenv("LLM_BASE_URL"),
		LLMTimeout:       llmTimeout,
		SessionTTL:       sessionTTL,
		RedisURL:         os.Getenv("REDIS_URL"),
		AuditDBPath:      os.Getenv("AUDIT_DB_PATH"),
		RabbitMQURI:      os.Getenv("RABBITMQ_URI"),
		RabbitMQExchange: getEnvOrDefault("RABBITMQ_EXCHANGE", "topicquiz.events"),
		TraceDir:         os.Getenv("TRACE_DIR"),
		CORSOrigins:      splitList(os.Getenv("CORS_ORIGINS")),
	}

	cfg.Verbose, _ = strconv.ParseBool(os.Getenv("VERBOSE"))

	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		cfg.SessionSecret = []byte(secret)
	} else {
		log.Println("SESSION_SECRET not set, sessions will not survive a restart")
		cfg.SessionSecret = securecookie.GenerateRandomKey(32)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected provider has an API key
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY environment variable is required")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return errors.New("ANTHROPIC_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if len(c.SessionSecret) == 0 {
		return errors.New("session secret is empty")
	}
	return nil
}

// NewProvider creates the configured LLM provider
func (c *Config) NewProvider() (Provider, error) {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return NewOpenAIProvider(c.OpenAIAPIKey, c.LLMBaseURL, c.LLMModel), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(c.AnthropicAPIKey, c.LLMBaseURL, c.LLMModel)
	}
	return nil, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, value)
	}
	return d, nil
}

func splitList(value string) []string {
	items := lo.Map(strings.Split(value, ","), trimString)
	return lo.Filter(items, func(s string, _ int) bool {
		return s != ""
	})
}
