// Copyright 2024-2026 Aiku AI

package platform

import (
	"context"
	"encoding/json"
)

// Transport is the outbound half of the connection component. The pipeline
// emits text lines through it and never touches the wire protocol itself.
type Transport interface {
	// Say sends a message line to a channel or nick.
	Say(target, text string)
	// ChangeNick requests a nickname change.
	ChangeNick(nick string)
	// Join requests joining a channel.
	Join(channel string)
}

// UserStore resolves verified account identifiers to user records and holds
// arbitrary per-user persisted state.
type UserStore interface {
	// Get returns the user for a verified account name, or (nil, nil) when
	// no such user exists.
	Get(ctx context.Context, name string) (*UserRecord, error)
	// GetDataProperty returns the raw JSON value of a per-user property,
	// or nil when the property is unset.
	GetDataProperty(ctx context.Context, user *UserRecord, key string) (json.RawMessage, error)
	// SetDataProperty persists a per-user property.
	SetDataProperty(ctx context.Context, user *UserRecord, key string, value json.RawMessage) error
}

// ChannelStore resolves channel records and lists auto-join channels.
type ChannelStore interface {
	// Get returns the channel by name and platform, or (nil, nil) when the
	// channel is unknown to the bot.
	Get(ctx context.Context, name, platform string) (*ChannelRecord, error)
	// Joinable returns the channels to auto-join for a platform, in join order.
	Joinable(ctx context.Context, platform string) ([]*ChannelRecord, error)
}

// CommandEngine is the external command registry and execution engine. It is
// authoritative for permissions, cooldowns and execution; the pipeline only
// shapes the call and routes the result.
type CommandEngine interface {
	// Prefix returns the process-wide command prefix, empty when commands
	// are disabled.
	Prefix() string
	// IsCommand reports whether a message body matches the command grammar.
	IsCommand(text string) bool
	// CheckAndExecute runs a command. A nil result means the command did not
	// execute (unknown, filtered, on cooldown) and produces no output.
	CheckAndExecute(ctx context.Context, name string, args []string, channel *ChannelRecord, user *UserRecord, opts ExecutionOptions) (*CommandResult, error)
}

// MessageLog is the persistence backend for message logging and last-seen
// tracking.
type MessageLog interface {
	// Push persists one message. Channel is nil for private messages.
	Push(ctx context.Context, message string, user *UserRecord, channel *ChannelRecord, platform string) error
	// UpdateLastSeen records channel activity without storing the message.
	UpdateLastSeen(ctx context.Context, user *UserRecord, channel *ChannelRecord, message string) error
}

// ActivityChecker is a side-effecting per-message check, such as the
// presence ("away") or reminder subsystems.
type ActivityChecker interface {
	CheckActive(ctx context.Context, user *UserRecord, channel *ChannelRecord) error
}

// MessageObserver receives a notification for every processed channel
// message. Observer failures are isolated: one failing observer never stops
// the fan-out or the pipeline.
type MessageObserver interface {
	HandleMessage(ctx context.Context, evt MessageEvent) error
}

// MessageResolver is the externally-owned hook invoked for every resolved
// user message, before channel mode checks (activity and seen tracking).
type MessageResolver interface {
	ResolveUserMessage(ctx context.Context, channel *ChannelRecord, user *UserRecord, message string)
}

// Secrets looks up sensitive configuration values, such as the services
// authentication key, by the variable name the config references.
type Secrets interface {
	Get(key string) (string, bool)
}
