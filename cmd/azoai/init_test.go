package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunInit_CreatesFiles(t *testing.T) {
	dir := t.TempDir()
	var out strings.Builder

	if err := runInit(&out, dir); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"config.yaml", ".env.example"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
	if info, err := os.Stat(filepath.Join(dir, "logs")); err != nil || !info.IsDir() {
		t.Errorf("logs directory not created: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "azure:") {
		t.Errorf("starter config missing azure section:\n%s", data)
	}
}

func TestRunInit_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	custom := []byte("azure:\n  api_key: my-customized-key\n")
	if err := os.WriteFile(configPath, custom, 0o644); err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	if err := runInit(&out, dir); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(custom) {
		t.Errorf("init overwrote existing config:\n%s", data)
	}
}

func TestRun_InitCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "init", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "config.yaml") {
		t.Errorf("expected file listing, got %q", out)
	}
}
