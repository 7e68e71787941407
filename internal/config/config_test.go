package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearAzureEnv blanks every override so file values are observable.
func clearAzureEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AZURE_OPENAI_API_KEY",
		"AZURE_OPENAI_ENDPOINT",
		"AZURE_OPENAI_API_VERSION",
		"AZURE_OPENAI_DEPLOYMENT_NAME",
		"AZURE_OPENAI_CHAT_DEPLOYMENT_NAME",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearAzureEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Azure.APIVersion != DefaultAPIVersion {
		t.Errorf("APIVersion = %q, want %q", cfg.Azure.APIVersion, DefaultAPIVersion)
	}
	if cfg.Sampling.MaxTokens != 800 {
		t.Errorf("MaxTokens = %d, want 800", cfg.Sampling.MaxTokens)
	}
	if cfg.Sampling.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Sampling.Temperature)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BaseDelay() != time.Second {
		t.Errorf("BaseDelay = %v, want 1s", cfg.Retry.BaseDelay())
	}
	if cfg.Retry.MaxDelay() != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", cfg.Retry.MaxDelay())
	}
	if cfg.Transcript.Path != filepath.Join("logs", "api_requests.txt") {
		t.Errorf("Transcript.Path = %q", cfg.Transcript.Path)
	}
	if cfg.Agent.MaxRounds != 5 {
		t.Errorf("MaxRounds = %d, want 5", cfg.Agent.MaxRounds)
	}
}

func TestLoad_File(t *testing.T) {
	clearAzureEnv(t)

	path := writeConfig(t, `
azure:
  endpoint: https://myresource.openai.azure.com/
  api_key: file-key
  deployment: gpt-35-turbo-instruct
  chat_deployment: gpt-4o
sampling:
  max_tokens: 256
  temperature: 0.2
retry:
  max_attempts: 5
  base_delay_sec: 0.5
transcript:
  path: /tmp/azoai/api.txt
agent:
  max_rounds: 8
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Azure.Endpoint != "https://myresource.openai.azure.com/" {
		t.Errorf("Endpoint = %q", cfg.Azure.Endpoint)
	}
	if cfg.Azure.APIKey != "file-key" {
		t.Errorf("APIKey = %q", cfg.Azure.APIKey)
	}
	if cfg.Azure.ChatDeployment != "gpt-4o" {
		t.Errorf("ChatDeployment = %q", cfg.Azure.ChatDeployment)
	}
	if cfg.Sampling.MaxTokens != 256 {
		t.Errorf("MaxTokens = %d", cfg.Sampling.MaxTokens)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BaseDelay() != 500*time.Millisecond {
		t.Errorf("BaseDelay = %v", cfg.Retry.BaseDelay())
	}
	if cfg.Agent.MaxRounds != 8 {
		t.Errorf("MaxRounds = %d", cfg.Agent.MaxRounds)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearAzureEnv(t)
	t.Setenv("AZURE_OPENAI_API_KEY", "env-key")
	t.Setenv("AZURE_OPENAI_CHAT_DEPLOYMENT_NAME", "env-deployment")

	path := writeConfig(t, `
azure:
  api_key: file-key
  chat_deployment: file-deployment
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Azure.APIKey != "env-key" {
		t.Errorf("APIKey = %q, environment must win", cfg.Azure.APIKey)
	}
	if cfg.Azure.ChatDeployment != "env-deployment" {
		t.Errorf("ChatDeployment = %q, environment must win", cfg.Azure.ChatDeployment)
	}
}

func TestLoad_ExpandsEnvInFile(t *testing.T) {
	clearAzureEnv(t)
	t.Setenv("MY_SECRET", "expanded-key")

	path := writeConfig(t, `
azure:
  api_key: ${MY_SECRET}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Azure.APIKey != "expanded-key" {
		t.Errorf("APIKey = %q, want expansion of $MY_SECRET", cfg.Azure.APIKey)
	}
}

func TestLoad_ChatDeploymentFallsBack(t *testing.T) {
	clearAzureEnv(t)
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "shared-deployment")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Azure.ChatDeployment != "shared-deployment" {
		t.Errorf("ChatDeployment = %q, want fallback to Deployment", cfg.Azure.ChatDeployment)
	}
}

func TestFindConfig(t *testing.T) {
	path := writeConfig(t, "azure: {}\n")

	got, err := FindConfig(path)
	if err != nil || got != path {
		t.Errorf("FindConfig(%q) = %q, %v", path, got, err)
	}

	if _, err := FindConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("explicit missing path must be an error")
	}
}

func TestValidate(t *testing.T) {
	clearAzureEnv(t)

	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("empty config must fail validation")
	}
	for _, want := range []string{"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_DEPLOYMENT_NAME"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation message missing %q: %v", want, err)
		}
	}

	cfg.Azure.APIKey = "k"
	cfg.Azure.Endpoint = "https://example.openai.azure.com/"
	cfg.Azure.ChatDeployment = "gpt-4o"
	if err := cfg.Validate(); err != nil {
		t.Errorf("complete config must validate: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{" debug ", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"trace", LevelTrace},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLogLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("unknown level must error")
	}
}

func TestReplaceLogLevelNames(t *testing.T) {
	attr := slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(LevelTrace)}
	got := ReplaceLogLevelNames(nil, attr)
	if got.Value.String() != "TRACE" {
		t.Errorf("trace level rendered as %q", got.Value.String())
	}

	info := slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(slog.LevelInfo)}
	got = ReplaceLogLevelNames(nil, info)
	if got.Value.Any().(slog.Level) != slog.LevelInfo {
		t.Errorf("info level altered: %v", got)
	}
}
