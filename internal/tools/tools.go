// Package tools defines the tool registry the model can call into.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mshnjffr/azure-openai/internal/azure"
)

// Tool represents a callable tool. Definitions are immutable after
// registration.
type Tool struct {
	Name        string
	Description string
	// Parameters is the JSON-schema describing the arguments object.
	Parameters map[string]any
	// Handler executes the tool. Its error is shaped into a tool-role
	// failure message by the caller, never propagated as a crash.
	Handler func(ctx context.Context, args map[string]any) (string, error)
}

// NotFoundError means a tool call targeted a name that is not
// registered. This is a capability mismatch, not a transient failure;
// the loop reports it to the model rather than retrying.
type NotFoundError struct {
	ToolName string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q is not registered", e.ToolName)
}

// InvalidArgumentsError means the model-supplied arguments failed
// schema validation before the handler ran.
type InvalidArgumentsError struct {
	ToolName string
	Reason   string
}

// Error implements the error interface.
func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.ToolName, e.Reason)
}

// Registry maps tool names to implementations. Registration is
// explicit and collision-checked; after initialization the registry is
// read-only and safe for concurrent Execute calls.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. A duplicate name is an error — silent
// overwrite would make dispatch ambiguous.
func (r *Registry) Register(t *Tool) error {
	if t == nil {
		return fmt.Errorf("tool is nil")
	}
	if t.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q has no handler", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// Get retrieves a tool by name, or nil if absent.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// List renders all tools as chat-completions tool specs.
func (r *Registry) List() []azure.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]azure.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, azure.ToolSpec{
			Type: "function",
			Function: azure.FunctionSpec{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return specs
}

// Execute runs a tool by name with JSON-encoded arguments. Unknown
// tools return *NotFoundError; arguments that fail schema validation
// return *InvalidArgumentsError; a panicking handler is recovered into
// an ordinary error. The caller turns any of these into a tool-role
// failure message so the conversation can continue.
func (r *Registry) Execute(ctx context.Context, name string, argsJSON string) (result string, err error) {
	tool := r.Get(name)
	if tool == nil {
		return "", &NotFoundError{ToolName: name}
	}

	var args map[string]any
	if argsJSON != "" {
		if jsonErr := json.Unmarshal([]byte(argsJSON), &args); jsonErr != nil {
			return "", &InvalidArgumentsError{ToolName: name, Reason: "arguments are not valid JSON: " + jsonErr.Error()}
		}
	}

	if valErr := validateArgs(args, tool.Parameters); valErr != nil {
		return "", &InvalidArgumentsError{ToolName: name, Reason: valErr.Error()}
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = ""
			err = fmt.Errorf("tool %q panicked: %v", name, rec)
		}
	}()

	return tool.Handler(ctx, args)
}
