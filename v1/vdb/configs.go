package vdb

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"google.golang.org/grpc"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort           = 19530
	DefaultTimeout        = 10 * time.Second
	DefaultConnectTimeout = 10 * time.Second
)

// Config holds connection and behavior settings for the vector database client.
//
// It can be filled from environment variables (ConfigFromEnv), a YAML file
// (ConfigFromYAML) or programmatically.
//
// Example (builder style):
//
//	cfg := vdb.FromEndpoint("localhost", 19530).
//	    WithCredentials("root", os.Getenv("VDB_PASSWORD")).
//	    WithTimeout(30 * time.Second)
type Config struct {
	// Hostname of the server, e.g. "localhost".
	Host string `yaml:"host" envconfig:"VDB_HOST" default:"localhost"`

	// gRPC port of the server. Defaults to 19530.
	Port int `yaml:"port" envconfig:"VDB_PORT" default:"19530"`

	// Address overrides Host and Port with a full gRPC target such as
	// "dns:///vdb.internal:19530".
	Address string `yaml:"address" envconfig:"VDB_ADDRESS"`

	// Username and Password enable basic authentication when Username is set.
	Username string `yaml:"username" envconfig:"VDB_USERNAME"`
	Password string `yaml:"password" envconfig:"VDB_PASSWORD"`

	// APIKey enables token authentication. Ignored when Username is set.
	APIKey string `yaml:"api_key" envconfig:"VDB_API_KEY"`

	// Database selects a database other than the server default.
	Database string `yaml:"database" envconfig:"VDB_DATABASE"`

	// Timeout applies to every call whose context has no deadline.
	Timeout time.Duration `yaml:"timeout" envconfig:"VDB_TIMEOUT" default:"10s"`

	// ConnectTimeout bounds the startup health check.
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"VDB_CONNECT_TIMEOUT" default:"10s"`

	// CheckHealth runs a health check in NewClient and fails fast when the
	// server is unreachable.
	CheckHealth bool `yaml:"check_health" envconfig:"VDB_CHECK_HEALTH" default:"true"`

	TLS TLSConfig `yaml:"tls" envconfig:"VDB_TLS"`

	// DialOptions are appended to the options built from this config.
	DialOptions []grpc.DialOption `yaml:"-" ignored:"true"`

	// Logger is optional; set by the fx module when a logger is available.
	Logger Logger `yaml:"-" ignored:"true"`
}

// TLSConfig enables transport security. Environment keys are prefixed with VDB_TLS_.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" envconfig:"ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" envconfig:"CA_CERT_PATH"`
	ServerName         string `yaml:"server_name" envconfig:"SERVER_NAME"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" envconfig:"INSECURE_SKIP_VERIFY"`
}

// DefaultConfig provides sensible defaults for a local standalone server.
func DefaultConfig() *Config {
	return &Config{
		Host:           "localhost",
		Port:           DefaultPort,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		CheckHealth:    true,
	}
}

// FromEndpoint returns a default config pointing at host:port.
func FromEndpoint(host string, port int) *Config {
	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port = port
	return cfg
}

// ConfigFromEnv reads VDB_* environment variables on top of the defaults.
func ConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("[VDB] failed to read environment: %w", err)
	}
	return cfg, nil
}

// ConfigFromYAML reads a YAML file on top of the defaults.
func ConfigFromYAML(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[VDB] failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("[VDB] failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) target() string {
	if c.Address != "" {
		return c.Address
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

// auth returns the authentication strategy selected by the config, or nil.
func (c *Config) auth() Authenticator {
	switch {
	case c.Username != "":
		return NewBasicAuth(c.Username, c.Password, c.TLS.Enabled)
	case c.APIKey != "":
		return NewTokenAuth(c.APIKey, c.TLS.Enabled)
	}
	return nil
}

func (c *Config) WithCredentials(username, password string) *Config {
	c.Username = username
	c.Password = password
	return c
}

func (c *Config) WithAPIKey(key string) *Config {
	c.APIKey = key
	return c
}

func (c *Config) WithDatabase(name string) *Config {
	c.Database = name
	return c
}

func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

func (c *Config) WithConnectTimeout(d time.Duration) *Config {
	c.ConnectTimeout = d
	return c
}

func (c *Config) WithHealthCheck(enabled bool) *Config {
	c.CheckHealth = enabled
	return c
}

func (c *Config) WithTLS(tls TLSConfig) *Config {
	c.TLS = tls
	return c
}

func (c *Config) WithDialOptions(opts ...grpc.DialOption) *Config {
	c.DialOptions = append(c.DialOptions, opts...)
	return c
}
