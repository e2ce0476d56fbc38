// Package tools holds the local functions the model may call and the
// registry that dispatches them.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// NotFoundReason is the error payload returned for unregistered tool names.
const NotFoundReason = "tool not found"

// Func is the local implementation of a tool.
type Func func(ctx context.Context, args map[string]any) (map[string]any, error)

// Declaration describes a tool to the model and binds it to its implementation.
type Declaration struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Response    *jsonschema.Schema
	Call        Func
}

// Result is the outcome of a tool invocation: either an OK payload or an
// error reason, never both.
type Result struct {
	OK  map[string]any
	Err string
}

// Ok wraps a successful payload.
func Ok(payload map[string]any) Result {
	if payload == nil {
		payload = map[string]any{}
	}
	return Result{OK: payload}
}

// Failure wraps an error reason.
func Failure(reason string) Result {
	return Result{Err: reason}
}

// Failed reports whether r carries an error.
func (r Result) Failed() bool { return r.Err != "" }

// Payload renders r as the function response sent back to the model.
func (r Result) Payload() map[string]any {
	if r.Failed() {
		return map[string]any{"error": r.Err}
	}
	return r.OK
}

type entry struct {
	decl     *Declaration
	params   *jsonschema.Resolved
	response *jsonschema.Resolved
}

// Registry maps tool names to declarations. Register is meant for startup;
// it must not run concurrently with Invoke.
type Registry struct {
	entries map[string]*entry
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Register adds a declaration. Schemas are resolved once here so that
// Invoke only validates.
func (r *Registry) Register(decl *Declaration) error {
	if decl == nil {
		return errors.New("tools: declaration cannot be nil")
	}
	if decl.Name == "" {
		return errors.New("tools: name cannot be empty")
	}
	if decl.Call == nil {
		return fmt.Errorf("tools: %s: implementation cannot be nil", decl.Name)
	}
	if _, exists := r.entries[decl.Name]; exists {
		return fmt.Errorf("tools: %s: already registered", decl.Name)
	}

	e := &entry{decl: decl}
	if decl.Parameters != nil {
		resolved, err := decl.Parameters.Resolve(nil)
		if err != nil {
			return fmt.Errorf("tools: %s: resolve parameters schema: %w", decl.Name, err)
		}
		e.params = resolved
	}
	if decl.Response != nil {
		resolved, err := decl.Response.Resolve(nil)
		if err != nil {
			return fmt.Errorf("tools: %s: resolve response schema: %w", decl.Name, err)
		}
		e.response = resolved
	}

	r.entries[decl.Name] = e
	return nil
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Declarations returns the tool set advertised to the model.
func (r *Registry) Declarations() []*genai.Tool {
	if len(r.entries) == 0 {
		return nil
	}

	functions := make([]*genai.FunctionDeclaration, 0, len(r.entries))
	for _, name := range r.Names() {
		d := r.entries[name].decl
		fd := &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		}
		if d.Parameters != nil {
			fd.ParametersJsonSchema = d.Parameters
		}
		if d.Response != nil {
			fd.ResponseJsonSchema = d.Response
		}
		functions = append(functions, fd)
	}

	return []*genai.Tool{
		{
			FunctionDeclarations: functions,
		},
	}
}

// Invoke runs the named tool. Every failure, including an unknown name,
// invalid arguments or a panic in the tool, is returned as a failed Result.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (res Result) {
	e, ok := r.entries[name]
	if !ok {
		r.logger.Warn("unknown tool requested", "tool", name)
		return Failure(NotFoundReason)
	}

	if args == nil {
		args = map[string]any{}
	}

	if e.params != nil {
		if err := e.params.Validate(args); err != nil {
			r.logger.Warn("tool arguments rejected", "tool", name, "error", err)
			return Failure(fmt.Sprintf("invalid arguments for %s: %v", name, err))
		}
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("tool panicked", "tool", name, "panic", p)
			res = Failure(fmt.Sprintf("tool %s failed", name))
		}
	}()

	out, err := e.decl.Call(ctx, args)
	if err != nil {
		r.logger.Warn("tool failed", "tool", name, "error", err)
		return Failure(err.Error())
	}

	if e.response != nil && out != nil {
		if err := e.response.Validate(out); err != nil {
			r.logger.Error("tool returned malformed payload", "tool", name, "error", err)
			return Failure(fmt.Sprintf("tool %s returned an invalid result", name))
		}
	}

	return Ok(out)
}
