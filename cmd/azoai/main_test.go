package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out strings.Builder
	var errOut strings.Builder
	err := run(context.Background(), strings.NewReader(""), &out, &errOut, args)
	return out.String(), err
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	out, err := runCLI(t)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected usage text, got %q", out)
	}
}

func TestRun_HelpFlag(t *testing.T) {
	for _, flag := range []string{"-h", "-help", "--help"} {
		out, err := runCLI(t, flag)
		if err != nil {
			t.Fatalf("%s: %v", flag, err)
		}
		if !strings.Contains(out, "Usage:") {
			t.Errorf("%s: expected usage text, got %q", flag, out)
		}
	}
}

func TestRun_Version(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "azoai") {
		t.Errorf("expected version line, got %q", out)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	_, err := runCLI(t, "frobnicate")
	if err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Errorf("expected unknown-command error, got %v", err)
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	_, err := runCLI(t, "-verbose")
	if err == nil || !strings.Contains(err.Error(), "-verbose") {
		t.Errorf("expected unknown-flag error, got %v", err)
	}
}

func TestRun_MissingExplicitConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := runCLI(t, "-config", missing, "ask", "hello")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected config-not-found error, got %v", err)
	}
}

func TestRun_ValidationFailureNamesVariables(t *testing.T) {
	// No config file, no environment: ask must fail with an actionable
	// message instead of a 401 from the service.
	for _, k := range []string{
		"AZURE_OPENAI_API_KEY",
		"AZURE_OPENAI_ENDPOINT",
		"AZURE_OPENAI_DEPLOYMENT_NAME",
		"AZURE_OPENAI_CHAT_DEPLOYMENT_NAME",
	} {
		t.Setenv(k, "")
	}
	// os.Chdir with cleanup instead of t.Chdir, which needs Go 1.24+.
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldWD); err != nil {
			t.Fatal(err)
		}
	})

	_, err = runCLI(t, "ask", "hello")
	if err == nil || !strings.Contains(err.Error(), "AZURE_OPENAI_API_KEY") {
		t.Errorf("expected missing-variable error, got %v", err)
	}
}
