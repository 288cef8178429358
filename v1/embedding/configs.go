package embedding

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultModel produces 1536 dimensional vectors.
const DefaultModel = "text-embedding-ada-002"

// Config selects an OpenAI-compatible embeddings endpoint.
type Config struct {
	// APIKey is sent as a bearer token.
	APIKey string `yaml:"api_key" envconfig:"OPENAI_API_KEY"`

	// BaseURL points at the API root, e.g. "https://api.openai.com/v1".
	// Empty uses the OpenAI default.
	BaseURL string `yaml:"base_url" envconfig:"EMBEDDING_BASE_URL"`

	Model string `yaml:"model" envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`

	// Dimensions truncates vectors on models that support it. Zero keeps the
	// model's native size.
	Dimensions int `yaml:"dimensions" envconfig:"EMBEDDING_DIMENSIONS"`

	// BatchSize caps the number of texts per request.
	BatchSize int `yaml:"batch_size" envconfig:"EMBEDDING_BATCH_SIZE" default:"64"`

	HTTPTimeout time.Duration `yaml:"http_timeout" envconfig:"EMBEDDING_HTTP_TIMEOUT" default:"30s"`
}

// NewConfig reads the configuration from the environment.
func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("embedding: read environment: %w", err)
	}
	return &cfg, nil
}

// Validate ensures required fields are present.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("embedding: config is nil")
	}
	if c.APIKey == "" {
		return errors.New("embedding: missing OPENAI_API_KEY")
	}
	if c.Model == "" {
		return errors.New("embedding: missing EMBEDDING_MODEL")
	}
	if c.BatchSize < 0 || c.Dimensions < 0 {
		return errors.New("embedding: batch size and dimensions must not be negative")
	}
	return nil
}
