// Copyright 2024-2026 Aiku AI

// Package platform implements the inbound-message pipeline of an IRC chat-bot
// adapter: event classification and identity gating, per-channel mode
// enforcement, side-effect fan-out, command dispatch and reply routing.
// It sits between the connection component (pkg/ircwire) and the external
// command engine, consuming already-parsed events and emitting text lines.
package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Platform is the adapter core for one configured IRC platform. All
// collaborators are injected at construction; the pipeline holds no ambient
// global state.
type Platform struct {
	cfg Config
	log zerolog.Logger

	transport Transport
	users     UserStore
	channels  ChannelStore
	commands  CommandEngine
	msgLog    MessageLog
	presence  ActivityChecker
	reminders ActivityChecker
	resolver  MessageResolver

	observerMu sync.RWMutex
	observers  []MessageObserver

	// secret is the resolved services authentication key.
	secret string

	nickMu          sync.Mutex
	nicknameChanged bool

	notifiedMu           sync.Mutex
	notifiedUnregistered map[string]struct{}
}

// Options bundles the collaborators a Platform is constructed with.
// Transport, Users and Channels are required; the rest are optional and the
// matching pipeline stages become no-ops when absent.
type Options struct {
	Config    Config
	Log       zerolog.Logger
	Transport Transport
	Users     UserStore
	Channels  ChannelStore
	Commands  CommandEngine
	MessageLog MessageLog
	Presence  ActivityChecker
	Reminders ActivityChecker
	Resolver  MessageResolver
	Observers []MessageObserver
	Secrets   Secrets
}

// New validates the configuration and wires a Platform. Missing required
// collaborators and an unreachable authentication secret are fatal: no
// partially-wired platform is ever returned.
func New(opts Options) (*Platform, error) {
	cfg := opts.Config
	if err := cfg.PostProcess(); err != nil {
		return nil, err
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("platform %s: transport is required", cfg.ID)
	}
	if opts.Users == nil {
		return nil, fmt.Errorf("platform %s: user store is required", cfg.ID)
	}
	if opts.Channels == nil {
		return nil, fmt.Errorf("platform %s: channel store is required", cfg.ID)
	}

	p := &Platform{
		cfg:                  cfg,
		log:                  opts.Log.With().Str("component", "platform").Str("platform", cfg.ID).Logger(),
		transport:            opts.Transport,
		users:                opts.Users,
		channels:             opts.Channels,
		commands:             opts.Commands,
		msgLog:               opts.MessageLog,
		presence:             opts.Presence,
		reminders:            opts.Reminders,
		resolver:             opts.Resolver,
		observers:            opts.Observers,
		notifiedUnregistered: make(map[string]struct{}),
	}

	if cfg.Authentication.Type == AuthTypeIdentify {
		if opts.Secrets == nil {
			return nil, fmt.Errorf("platform %s: authentication configured without a secrets source", cfg.ID)
		}
		key, ok := opts.Secrets.Get(cfg.Authentication.SecretVar)
		if !ok || key == "" {
			return nil, fmt.Errorf("platform %s: authentication key %q is not set", cfg.ID, cfg.Authentication.SecretVar)
		}
		p.secret = key
	}

	return p, nil
}

// Config returns a copy of the post-processed platform configuration.
func (p *Platform) Config() Config {
	return p.cfg
}

// AddObserver registers another message observer. Safe for concurrent use.
func (p *Platform) AddObserver(o MessageObserver) {
	p.observerMu.Lock()
	defer p.observerMu.Unlock()
	p.observers = append(p.observers, o)
}

// notifyObservers hands the same event snapshot to every observer. A
// failing observer is logged and skipped; it never stops the fan-out.
func (p *Platform) notifyObservers(ctx context.Context, evt MessageEvent) {
	p.observerMu.RLock()
	observers := make([]MessageObserver, len(p.observers))
	copy(observers, p.observers)
	p.observerMu.RUnlock()

	for _, o := range observers {
		if err := o.HandleMessage(ctx, evt); err != nil {
			p.log.Warn().Err(err).Str("channel", channelName(evt.Channel)).Msg("Message observer failed")
		}
	}
}

func channelName(ch *ChannelRecord) string {
	if ch == nil {
		return ""
	}
	return ch.Name
}

func (p *Platform) isSelf(name string) bool {
	return strings.EqualFold(name, p.cfg.SelfName)
}

// Send delivers a message to a channel known to the bot. Unknown channels
// are an error, unlike the silent drops inside the pipeline: callers asking
// for an explicit send should find out the channel does not exist.
func (p *Platform) Send(ctx context.Context, message, channel string) error {
	record, err := p.channels.Get(ctx, channel, p.cfg.ID)
	if err != nil {
		return fmt.Errorf("resolve channel %q: %w", channel, err)
	}
	if record == nil {
		return fmt.Errorf("channel %q is unknown on platform %s", channel, p.cfg.ID)
	}
	p.transport.Say(record.Name, message)
	return nil
}

// Pm delivers a private message to a user known to the user store. Unknown
// users are dropped silently.
func (p *Platform) Pm(ctx context.Context, message, user string) error {
	record, err := p.users.Get(ctx, user)
	if err != nil {
		return fmt.Errorf("resolve user %q: %w", user, err)
	}
	if record == nil {
		return nil
	}
	p.transport.Say(record.Name, message)
	return nil
}

// DirectPm delivers a private message to a raw nickname, bypassing the user
// store. Used for service directives such as IDENTIFY.
func (p *Platform) DirectPm(message, nick string) {
	p.transport.Say(nick, message)
}

// IsUserChannelOwner reports channel ownership. IRC has no ownership notion
// this platform trusts, so the answer is always false.
func (p *Platform) IsUserChannelOwner(*ChannelRecord, *UserRecord) bool {
	return false
}

// FetchUserList returns the known user list of a channel. Not tracked on
// this platform.
func (p *Platform) FetchUserList(string) []string {
	return nil
}
