// Azoai is a menu-driven tour of the Azure OpenAI REST API.
//
// Every call the program makes is captured — request, response, timing,
// with credentials redacted — into an append-only transcript file so
// you can study the raw wire traffic behind each example.
//
// Usage:
//
//	azoai init [dir]         Create starter config and .env files
//	azoai ask <question>     Ask a single question (tool calling enabled)
//	azoai chat               Interactive chat with persisted history
//	azoai examples           Run the guided examples menu
//	azoai log view           Print the API transcript
//	azoai log clear          Truncate the API transcript
//	azoai version            Print version and build information
//
// Configuration comes from AZURE_OPENAI_* environment variables (a .env
// file is honored) and an optional config.yaml.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mshnjffr/azure-openai/internal/agent"
	"github.com/mshnjffr/azure-openai/internal/azure"
	"github.com/mshnjffr/azure-openai/internal/buildinfo"
	"github.com/mshnjffr/azure-openai/internal/config"
	"github.com/mshnjffr/azure-openai/internal/history"
	"github.com/mshnjffr/azure-openai/internal/httpkit"
	"github.com/mshnjffr/azure-openai/internal/retry"
	"github.com/mshnjffr/azure-openai/internal/tools"
	"github.com/mshnjffr/azure-openai/internal/transcript"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the startup path can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the azoai command. All OS-level
// dependencies are injected as parameters so the full lifecycle can be
// exercised from tests without touching process globals.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	// Parse arguments by hand. The flag package relies on package-level
	// globals, which interferes with parallel tests, and the argument
	// surface here is tiny.
	var configPath string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if command == "" {
		return printUsage(stdout)
	}

	if command == "version" {
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	}

	if command == "init" {
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	}

	config.LoadDotenv()

	cfgFile, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	switch command {
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: azoai ask <question>")
		}
		return app.ask(ctx, stdout, strings.Join(cmdArgs, " "))
	case "chat":
		return app.chat(ctx, stdin, stdout)
	case "examples":
		return app.examplesMenu(ctx, stdin, stdout)
	case "log":
		sub := ""
		if len(cmdArgs) > 0 {
			sub = cmdArgs[0]
		}
		return app.logCommand(stdout, sub)
	default:
		return fmt.Errorf("unknown command %q (run 'azoai -help')", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintf(w, `azoai — Azure OpenAI API tour with full request transcripts

Usage:
  azoai [-config path] <command>

Commands:
  init [dir]       Create starter config and .env files
  ask <question>   Ask a single question (tool calling enabled)
  chat             Interactive chat with persisted history
  examples         Guided examples menu
  log view         Print the API transcript
  log clear        Truncate the API transcript
  version          Print version and build information
`)
	return nil
}

// app wires the configured components together for the CLI commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *azure.Client
	registry *tools.Registry
	recorder *transcript.Recorder
	sampling agent.Sampling
}

// newApp builds the client stack: base transport → transcript transport
// (recording + retry) → User-Agent wrapper → Azure client.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	var recorder *transcript.Recorder
	if !cfg.Transcript.Disabled {
		var err error
		recorder, err = transcript.NewRecorder(cfg.Transcript.Path, logger)
		if err != nil {
			return nil, err
		}
	}

	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay(),
		MaxDelay:    cfg.Retry.MaxDelay(),
	}

	httpClient := httpkit.NewClient(
		httpkit.WithRoundTripper(&transcript.Transport{
			Base:     httpkit.NewTransport(),
			Recorder: recorder,
			Policy:   policy,
			Logger:   logger,
		}),
	)

	client := azure.NewClient(cfg.Azure.Endpoint, cfg.Azure.APIKey, cfg.Azure.APIVersion, httpClient, logger)

	registry := tools.NewRegistry()
	if err := tools.RegisterBuiltins(registry); err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		registry: registry,
		recorder: recorder,
		sampling: agent.Sampling{
			MaxTokens:        cfg.Sampling.MaxTokens,
			Temperature:      cfg.Sampling.Temperature,
			TopP:             cfg.Sampling.TopP,
			FrequencyPenalty: cfg.Sampling.FrequencyPenalty,
			PresencePenalty:  cfg.Sampling.PresencePenalty,
			Stop:             cfg.Sampling.Stop,
		},
	}, nil
}

func (a *app) newLoop() *agent.Loop {
	return agent.NewLoop(a.logger, a.client, a.registry, a.cfg.Azure.ChatDeployment, a.sampling, a.cfg.Agent.MaxRounds)
}

// ask runs a single tool-enabled turn and prints the answer.
func (a *app) ask(ctx context.Context, stdout io.Writer, question string) error {
	messages := []azure.Message{
		{Role: "system", Content: "You are a helpful assistant. Use the available tools when they help answer the question."},
		{Role: "user", Content: question},
	}

	result, err := a.newLoop().Run(ctx, "", messages)
	if err != nil {
		var limitErr *agent.RoundLimitError
		if errors.As(err, &limitErr) {
			return fmt.Errorf("the model kept requesting tools: %w", err)
		}
		return err
	}

	fmt.Fprintln(stdout, result.Content)
	return nil
}

// chat runs an interactive loop, persisting the conversation to SQLite.
func (a *app) chat(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	store, err := history.Open(filepath.Join(a.cfg.DataDir, "conversations.db"))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	convID, err := store.CreateConversation("cli chat")
	if err != nil {
		return err
	}

	system := azure.Message{Role: "system", Content: "You are a helpful assistant. Use the available tools when they help answer the question."}
	if err := store.AddMessage(convID, system); err != nil {
		return err
	}
	messages := []azure.Message{system}

	fmt.Fprintln(stdout, "Chat started. Type 'exit' to quit.")
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\nYou: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Fprintln(stdout, "Bye.")
			return nil
		}

		userMsg := azure.Message{Role: "user", Content: line}
		if err := store.AddMessage(convID, userMsg); err != nil {
			return err
		}
		messages = append(messages, userMsg)

		result, err := a.newLoop().Run(ctx, convID, messages)
		if err != nil {
			var limitErr *agent.RoundLimitError
			if errors.As(err, &limitErr) {
				fmt.Fprintf(stdout, "\n(%s — try rephrasing)\n", err)
				continue
			}
			return err
		}

		// Persist everything the turn appended (assistant + tool messages).
		for _, msg := range result.Messages[len(messages):] {
			if err := store.AddMessage(convID, msg); err != nil {
				return err
			}
		}
		messages = result.Messages

		fmt.Fprintf(stdout, "\nAssistant: %s\n", result.Content)
	}
}

// examplesMenu runs the guided tour of the API.
func (a *app) examplesMenu(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, `
=== Azure OpenAI Examples ===
1. Basic text completion (legacy API)
2. Chat completion
3. Function calling
4. View API transcript
5. Clear API transcript
0. Exit
Choice: `)
		if !scanner.Scan() {
			return scanner.Err()
		}

		var err error
		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			err = a.exampleCompletion(ctx, stdout)
		case "2":
			err = a.exampleChat(ctx, stdout)
		case "3":
			err = a.exampleFunctionCalling(ctx, stdout)
		case "4":
			err = a.logCommand(stdout, "view")
		case "5":
			err = a.logCommand(stdout, "clear")
		case "0", "exit", "quit":
			return nil
		default:
			fmt.Fprintln(stdout, "Unknown choice.")
			continue
		}
		if err != nil {
			fmt.Fprintf(stdout, "Error: %s\n", err)
		}
	}
}

func (a *app) exampleCompletion(ctx context.Context, stdout io.Writer) error {
	deployment := a.cfg.Azure.Deployment
	if deployment == "" {
		deployment = a.cfg.Azure.ChatDeployment
	}

	resp, err := a.client.Complete(ctx, deployment, &azure.CompletionRequest{
		Prompt:      "Write a one-sentence description of the Go programming language.",
		MaxTokens:   100,
		Temperature: 0.7,
		TopP:        1.0,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "\nCompletion: %s\n", strings.TrimSpace(resp.Choices[0].Text))
	fmt.Fprintf(stdout, "Tokens: %d prompt + %d completion\n",
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return nil
}

func (a *app) exampleChat(ctx context.Context, stdout io.Writer) error {
	resp, err := a.client.Chat(ctx, a.cfg.Azure.ChatDeployment, &azure.ChatRequest{
		Messages: []azure.Message{
			{Role: "system", Content: "You are a helpful assistant."},
			{Role: "user", Content: "Explain what an HTTP round trip is, in two sentences."},
		},
		MaxTokens:   a.cfg.Sampling.MaxTokens,
		Temperature: a.cfg.Sampling.Temperature,
		TopP:        a.cfg.Sampling.TopP,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "\nAssistant: %s\n", resp.Choices[0].Message.Content)
	fmt.Fprintf(stdout, "Tokens: %d prompt + %d completion\n",
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return nil
}

func (a *app) exampleFunctionCalling(ctx context.Context, stdout io.Writer) error {
	result, err := a.newLoop().Run(ctx, "", []azure.Message{
		{Role: "system", Content: "You are a helpful assistant. Use the available tools when they help answer the question."},
		{Role: "user", Content: "What's the weather like in Tokyo, and what is 15 * 23?"},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "\nAssistant: %s\n", result.Content)
	fmt.Fprintf(stdout, "Rounds: %d, tokens: %d in / %d out\n",
		result.Rounds, result.InputTokens, result.OutputTokens)
	fmt.Fprintf(stdout, "Inspect the raw tool-call traffic with 'azoai log view'.\n")
	return nil
}

// logCommand implements `azoai log view|clear`.
func (a *app) logCommand(stdout io.Writer, sub string) error {
	if a.recorder == nil {
		return fmt.Errorf("transcript recording is disabled in config")
	}

	switch sub {
	case "view", "":
		data, err := os.ReadFile(a.recorder.Path())
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(stdout, "No API calls recorded yet.")
			return nil
		}
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	case "clear":
		if err := a.recorder.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Transcript cleared: %s\n", a.recorder.Path())
		return nil
	default:
		return fmt.Errorf("usage: azoai log view|clear")
	}
}
