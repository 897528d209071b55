// Copyright 2024-2026 Aiku AI

// Package command provides a small in-process command engine. It covers the
// built-in diagnostics commands; richer bots replace it with their own
// platform.CommandEngine implementation.
package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/ircgate/pkg/platform"
)

// HandlerFunc executes one command invocation. Returning a nil result means
// the command produced no output.
type HandlerFunc func(ctx context.Context, args []string, channel *platform.ChannelRecord, user *platform.UserRecord, opts platform.ExecutionOptions) (*platform.CommandResult, error)

// Engine is a prefix-based command registry.
type Engine struct {
	mu       sync.RWMutex
	prefix   string
	handlers map[string]HandlerFunc
	started  time.Time
	log      zerolog.Logger
}

var _ platform.CommandEngine = (*Engine)(nil)

// NewEngine creates an engine with the given prefix and the built-in
// commands registered.
func NewEngine(prefix string, log zerolog.Logger) *Engine {
	e := &Engine{
		prefix:   prefix,
		handlers: make(map[string]HandlerFunc),
		started:  time.Now(),
		log:      log.With().Str("component", "command").Logger(),
	}
	e.Register("ping", e.ping)
	e.Register("help", e.help)
	return e
}

// Prefix implements platform.CommandEngine.
func (e *Engine) Prefix() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.prefix
}

// SetPrefix changes the command prefix at runtime.
func (e *Engine) SetPrefix(prefix string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefix = prefix
}

// IsCommand implements platform.CommandEngine. A message is a command when
// it starts with the prefix and has content after it.
func (e *Engine) IsCommand(text string) bool {
	prefix := e.Prefix()
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return false
	}
	return strings.TrimSpace(strings.TrimPrefix(text, prefix)) != ""
}

// Register adds a command handler. Later registrations of the same name
// replace earlier ones.
func (e *Engine) Register(name string, handler HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[strings.ToLower(name)] = handler
}

// CheckAndExecute implements platform.CommandEngine. Unknown commands yield
// (nil, nil).
func (e *Engine) CheckAndExecute(ctx context.Context, name string, args []string, channel *platform.ChannelRecord, user *platform.UserRecord, opts platform.ExecutionOptions) (*platform.CommandResult, error) {
	e.mu.RLock()
	handler, ok := e.handlers[strings.ToLower(name)]
	e.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	e.log.Debug().
		Str("command", name).
		Str("user", user.Name).
		Msg("Executing command")
	result, err := handler(ctx, args, channel, user, opts)
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", name, err)
	}
	return result, nil
}

func (e *Engine) ping(_ context.Context, _ []string, _ *platform.ChannelRecord, _ *platform.UserRecord, _ platform.ExecutionOptions) (*platform.CommandResult, error) {
	uptime := time.Since(e.started).Round(time.Second)
	return &platform.CommandResult{
		Reply: fmt.Sprintf("Pong! Uptime: %s", uptime),
	}, nil
}

func (e *Engine) help(_ context.Context, args []string, _ *platform.ChannelRecord, _ *platform.UserRecord, _ platform.ExecutionOptions) (*platform.CommandResult, error) {
	e.mu.RLock()
	names := make([]string, 0, len(e.handlers))
	for name := range e.handlers {
		names = append(names, name)
	}
	prefix := e.prefix
	e.mu.RUnlock()

	if len(args) > 0 {
		return &platform.CommandResult{
			Reply: fmt.Sprintf("No extended help available for %q.", args[0]),
		}, nil
	}

	sort.Strings(names)
	return &platform.CommandResult{
		Reply: "Available commands: " + prefix + strings.Join(names, ", "+prefix),
	}, nil
}
