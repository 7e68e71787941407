// Package config handles azoai configuration loading.
//
// Configuration comes from two layers: an optional YAML file (search
// order below) and AZURE_OPENAI_* environment variables, which always
// win. A .env file in the working directory is honored the same way
// the upstream Azure samples do it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAPIVersion is used when no api_version is configured.
const DefaultAPIVersion = "2024-10-21"

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/azoai/config.yaml, /etc/azoai/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "azoai", "config.yaml"))
	}

	paths = append(paths, "/etc/azoai/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns an empty path (not an error) when nothing is found, since azoai
// can run on environment variables alone.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// Config holds all azoai configuration.
type Config struct {
	Azure      AzureConfig      `yaml:"azure"`
	Sampling   SamplingConfig   `yaml:"sampling"`
	Retry      RetryConfig      `yaml:"retry"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Agent      AgentConfig      `yaml:"agent"`
	DataDir    string           `yaml:"data_dir"`
	LogLevel   string           `yaml:"log_level"`
}

// AzureConfig defines the Azure OpenAI resource settings.
type AzureConfig struct {
	// Endpoint is the resource URL, e.g. https://myresource.openai.azure.com/
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	// APIVersion selects the service API surface (default 2024-10-21).
	APIVersion string `yaml:"api_version"`
	// Deployment is used for legacy text completions.
	Deployment string `yaml:"deployment"`
	// ChatDeployment is used for chat completions. Falls back to Deployment.
	ChatDeployment string `yaml:"chat_deployment"`
}

// SamplingConfig defines default model sampling parameters.
type SamplingConfig struct {
	MaxTokens        int      `yaml:"max_tokens"`
	Temperature      float64  `yaml:"temperature"`
	TopP             float64  `yaml:"top_p"`
	FrequencyPenalty float64  `yaml:"frequency_penalty"`
	PresencePenalty  float64  `yaml:"presence_penalty"`
	Stop             []string `yaml:"stop"`
}

// RetryConfig defines the transport retry policy tunables.
type RetryConfig struct {
	MaxAttempts  int     `yaml:"max_attempts"`
	BaseDelaySec float64 `yaml:"base_delay_sec"`
	MaxDelaySec  float64 `yaml:"max_delay_sec"`
}

// BaseDelay returns the configured base backoff as a duration.
func (r RetryConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelaySec * float64(time.Second))
}

// MaxDelay returns the configured backoff cap as a duration.
func (r RetryConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelaySec * float64(time.Second))
}

// TranscriptConfig defines the API transcript log settings.
type TranscriptConfig struct {
	// Path is the append-only transcript file (default logs/api_requests.txt).
	Path string `yaml:"path"`
	// Disabled turns off transcript recording entirely.
	Disabled bool `yaml:"disabled"`
}

// AgentConfig defines the tool-calling loop settings.
type AgentConfig struct {
	// MaxRounds bounds the model/tool round trips per turn (default 5).
	MaxRounds int `yaml:"max_rounds"`
}

// Load reads configuration from a YAML file (path may be empty),
// then applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		// Expand environment variables referenced inside the file.
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadDotenv reads a .env file into the process environment if present.
// Existing environment variables are never overwritten.
func LoadDotenv() {
	_ = godotenv.Load()
}

// applyEnv overlays AZURE_OPENAI_* environment variables onto the config.
// Environment always wins over file values, matching the upstream samples.
func (c *Config) applyEnv() {
	if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" {
		c.Azure.APIKey = v
	}
	if v := os.Getenv("AZURE_OPENAI_ENDPOINT"); v != "" {
		c.Azure.Endpoint = v
	}
	if v := os.Getenv("AZURE_OPENAI_API_VERSION"); v != "" {
		c.Azure.APIVersion = v
	}
	if v := os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME"); v != "" {
		c.Azure.Deployment = v
	}
	if v := os.Getenv("AZURE_OPENAI_CHAT_DEPLOYMENT_NAME"); v != "" {
		c.Azure.ChatDeployment = v
	}
}

func (c *Config) applyDefaults() {
	if c.Azure.APIVersion == "" {
		c.Azure.APIVersion = DefaultAPIVersion
	}
	if c.Azure.ChatDeployment == "" {
		c.Azure.ChatDeployment = c.Azure.Deployment
	}
	if c.Sampling.MaxTokens == 0 {
		c.Sampling.MaxTokens = 800
	}
	if c.Sampling.Temperature == 0 {
		c.Sampling.Temperature = 0.7
	}
	if c.Sampling.TopP == 0 {
		c.Sampling.TopP = 1.0
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelaySec == 0 {
		c.Retry.BaseDelaySec = 1
	}
	if c.Retry.MaxDelaySec == 0 {
		c.Retry.MaxDelaySec = 30
	}
	if c.Transcript.Path == "" {
		c.Transcript.Path = filepath.Join("logs", "api_requests.txt")
	}
	if c.Agent.MaxRounds == 0 {
		c.Agent.MaxRounds = 5
	}
	if c.DataDir == "" {
		c.DataDir = "."
	}
}

// Validate checks that required Azure settings are present.
// Mirrors the required-variable check in the upstream samples so users
// get one actionable message instead of a 401 from the service.
func (c *Config) Validate() error {
	var missing []string
	if c.Azure.APIKey == "" {
		missing = append(missing, "AZURE_OPENAI_API_KEY")
	}
	if c.Azure.Endpoint == "" {
		missing = append(missing, "AZURE_OPENAI_ENDPOINT")
	}
	if c.Azure.Deployment == "" && c.Azure.ChatDeployment == "" {
		missing = append(missing, "AZURE_OPENAI_DEPLOYMENT_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s (set environment variables or create a .env file)",
			strings.Join(missing, ", "))
	}
	return nil
}

// Default returns a default configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
