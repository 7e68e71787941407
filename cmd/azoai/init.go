package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mshnjffr/azure-openai/internal/defaults"
)

// runInit initializes an azoai working directory: the transcript log
// directory plus starter config.yaml and .env.example files. Existing
// files are never overwritten.
func runInit(w io.Writer, dir string) error {
	fmt.Fprintf(w, "Initializing azoai workspace in %s\n", dir)

	logsDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", logsDir, err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if err := writeIfMissing(configPath, defaults.ConfigYAML); err != nil {
		return err
	}
	fmt.Fprintf(w, "  ✓ %s\n", configPath)

	envPath := filepath.Join(dir, ".env.example")
	if err := writeIfMissing(envPath, defaults.DotenvExample); err != nil {
		return err
	}
	fmt.Fprintf(w, "  ✓ %s\n", envPath)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Copy .env.example to .env and fill in your Azure OpenAI credentials,")
	fmt.Fprintln(w, "then run 'azoai examples' for a guided tour of the API.")
	return nil
}

// writeIfMissing writes content to path only if the file does not already
// exist. This ensures init never overwrites user customizations.
func writeIfMissing(path string, content []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil // already exists, skip
	}
	return os.WriteFile(path, content, 0o644)
}
