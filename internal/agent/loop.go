// Package agent drives the tool-calling conversation loop: send the
// conversation to the model, execute any tools it requests, feed the
// results back, and repeat until it answers in text or the round cap
// is hit.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mshnjffr/azure-openai/internal/azure"
	"github.com/mshnjffr/azure-openai/internal/tools"
)

// DefaultMaxRounds bounds the model/tool round trips in one turn.
const DefaultMaxRounds = 5

// RoundLimitError means the model was still requesting tools when the
// round cap was reached. It is distinct from a transport failure: the
// service was healthy, the conversation just never converged.
type RoundLimitError struct {
	Rounds int
}

// Error implements the error interface.
func (e *RoundLimitError) Error() string {
	return fmt.Sprintf("conversation did not produce a final answer within %d rounds", e.Rounds)
}

// Sampling carries the model sampling parameters for every round.
type Sampling struct {
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	Stop             []string
}

// Result is the outcome of one completed turn.
type Result struct {
	// Content is the model's final textual answer.
	Content string

	// Rounds is how many model calls the turn took.
	Rounds int

	// InputTokens and OutputTokens accumulate usage across all rounds.
	InputTokens  int
	OutputTokens int

	// Messages is the full conversation after the turn, including the
	// assistant tool-call messages and tool-role results.
	Messages []azure.Message
}

// Loop orchestrates tool-augmented conversations. One Loop instance
// processes one conversation at a time; it is not reentrant over the
// same message history.
type Loop struct {
	logger     *slog.Logger
	client     *azure.Client
	registry   *tools.Registry
	deployment string
	sampling   Sampling
	maxRounds  int
}

// NewLoop creates an orchestration loop. A nil registry disables tool
// calling entirely; maxRounds <= 0 selects DefaultMaxRounds.
func NewLoop(logger *slog.Logger, client *azure.Client, registry *tools.Registry, deployment string, sampling Sampling, maxRounds int) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Loop{
		logger:     logger,
		client:     client,
		registry:   registry,
		deployment: deployment,
		sampling:   sampling,
		maxRounds:  maxRounds,
	}
}

// Run executes one conversational turn over messages. The slice grows
// monotonically: assistant and tool-role messages are appended, never
// removed. conversationID is only for log correlation; pass "" to get
// a generated one.
func (l *Loop) Run(ctx context.Context, conversationID string, messages []azure.Message) (*Result, error) {
	if conversationID == "" {
		id, _ := uuid.NewV7()
		conversationID = id.String()
	}

	var toolSpecs []azure.ToolSpec
	if l.registry != nil {
		toolSpecs = l.registry.List()
	}

	startTime := time.Now()
	var totalInput, totalOutput int

	for round := 1; round <= l.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("turn cancelled: %w", err)
		}

		roundStart := time.Now()
		l.logger.Info("model call",
			"conversation", conversationID,
			"round", round,
			"msgs", len(messages),
			"tools", len(toolSpecs),
		)

		resp, err := l.client.Chat(ctx, l.deployment, &azure.ChatRequest{
			Messages:         messages,
			MaxTokens:        l.sampling.MaxTokens,
			Temperature:      l.sampling.Temperature,
			TopP:             l.sampling.TopP,
			FrequencyPenalty: l.sampling.FrequencyPenalty,
			PresencePenalty:  l.sampling.PresencePenalty,
			Stop:             l.sampling.Stop,
			Tools:            toolSpecs,
		})
		if err != nil {
			return nil, fmt.Errorf("model call failed (round %d): %w", round, err)
		}

		totalInput += resp.Usage.PromptTokens
		totalOutput += resp.Usage.CompletionTokens

		assistant := resp.Choices[0].Message

		l.logger.Info("model response",
			"conversation", conversationID,
			"round", round,
			"finish_reason", resp.Choices[0].FinishReason,
			"tool_calls", len(assistant.ToolCalls),
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"elapsed", time.Since(roundStart).Round(time.Millisecond),
		)

		messages = append(messages, assistant)

		// No tool calls — the content is the final answer.
		if len(assistant.ToolCalls) == 0 {
			l.logger.Info("turn completed",
				"conversation", conversationID,
				"rounds", round,
				"elapsed", time.Since(startTime).Round(time.Millisecond),
			)
			return &Result{
				Content:      assistant.Content,
				Rounds:       round,
				InputTokens:  totalInput,
				OutputTokens: totalOutput,
				Messages:     messages,
			}, nil
		}

		messages = append(messages, l.executeToolCalls(ctx, conversationID, round, assistant.ToolCalls)...)
	}

	l.logger.Warn("round limit reached",
		"conversation", conversationID,
		"max_rounds", l.maxRounds,
	)
	return nil, &RoundLimitError{Rounds: l.maxRounds}
}

// executeToolCalls runs every requested tool and returns the tool-role
// messages in the order the model emitted the requests. Independent
// calls run concurrently; the index-addressed result slice keeps the
// transcript ordering deterministic regardless of completion order.
func (l *Loop) executeToolCalls(ctx context.Context, conversationID string, round int, calls []azure.ToolCall) []azure.Message {
	results := make([]string, len(calls))

	var wg sync.WaitGroup
	for i, tc := range calls {
		wg.Add(1)
		go func(i int, tc azure.ToolCall) {
			defer wg.Done()
			results[i] = l.executeOne(ctx, conversationID, round, tc)
		}(i, tc)
	}
	wg.Wait()

	replies := make([]azure.Message, len(calls))
	for i, tc := range calls {
		replies[i] = azure.Message{
			Role:       "tool",
			Content:    results[i],
			ToolCallID: tc.ID,
		}
	}
	return replies
}

// executeOne dispatches a single tool call and shapes any failure into
// JSON the model can react to. Tool failures never abort the turn.
func (l *Loop) executeOne(ctx context.Context, conversationID string, round int, tc azure.ToolCall) string {
	start := time.Now()

	l.logger.Info("tool exec",
		"conversation", conversationID,
		"round", round,
		"tool", tc.Function.Name,
		"call_id", tc.ID,
	)

	if l.registry == nil {
		return failurePayload(tc.Function.Name, "no tools are available")
	}

	result, err := l.registry.Execute(ctx, tc.Function.Name, tc.Function.Arguments)
	if err != nil {
		l.logger.Error("tool exec failed",
			"conversation", conversationID,
			"round", round,
			"tool", tc.Function.Name,
			"call_id", tc.ID,
			"error", err,
		)
		return failurePayload(tc.Function.Name, err.Error())
	}

	l.logger.Debug("tool exec done",
		"conversation", conversationID,
		"round", round,
		"tool", tc.Function.Name,
		"call_id", tc.ID,
		"result_len", len(result),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return result
}

// failurePayload renders a structured failure the model can read.
func failurePayload(tool, message string) string {
	payload, _ := json.Marshal(map[string]string{
		"error": message,
		"tool":  tool,
	})
	return string(payload)
}
