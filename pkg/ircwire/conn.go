// Copyright 2024-2026 Aiku AI

// Package ircwire is the connection component of the adapter. It owns the
// wire protocol through the girc client and feeds already-parsed events into
// the platform pipeline; the pipeline never sees raw IRC lines.
package ircwire

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/lrstanley/girc"
	"github.com/rs/zerolog"

	"github.com/aiku/ircgate/pkg/platform"
)

// reconnectDelay is the pause between connection attempts.
const reconnectDelay = 15 * time.Second

// Pipeline is the slice of the platform core the connection drives.
type Pipeline interface {
	HandleRegistered(ctx context.Context) error
	HandleNickCollision() string
	HandleJoin(channel, nick string)
	HandleMessage(ctx context.Context, evt platform.InboundEvent) error
}

// Conn wraps a girc client, implements platform.Transport for the outbound
// direction and translates inbound IRC events into pipeline calls.
type Conn struct {
	client   *girc.Client
	pipeline Pipeline
	log      zerolog.Logger

	runCtx context.Context
}

var _ platform.Transport = (*Conn)(nil)

// New builds a connection for the given platform config. Bind must be
// called before Run.
func New(cfg platform.Config, log zerolog.Logger) *Conn {
	conn := &Conn{
		log: log.With().Str("component", "ircwire").Str("host", cfg.Host).Logger(),
	}

	conn.client = girc.New(girc.Config{
		Server: cfg.Host,
		Port:   cfg.Port,
		Nick:   cfg.SelfName,
		User:   cfg.SelfName,
		Name:   cfg.SelfName,
		SSL:    cfg.Secure,
		TLSConfig: &tls.Config{
			ServerName: cfg.Host,
		},
		// The account tag carries the services-verified identity the
		// classifier gates on.
		SupportedCaps: map[string][]string{
			"account-tag": nil,
			"echo-message": nil,
		},
		// Collision handling is owned by the pipeline; returning an
		// empty nick stops girc's own underscore-appending fallback.
		HandleNickCollide: func(string) string { return "" },
	})

	return conn
}

// Bind attaches the pipeline and registers the inbound event handlers.
func (c *Conn) Bind(p Pipeline) {
	c.pipeline = p

	c.client.Handlers.Add(girc.CONNECTED, func(_ *girc.Client, _ girc.Event) {
		if err := c.pipeline.HandleRegistered(c.ctx()); err != nil {
			c.log.Error().Err(err).Msg("Registration sequence failed")
		}
	})

	c.client.Handlers.Add(girc.ERR_NICKNAMEINUSE, func(_ *girc.Client, _ girc.Event) {
		c.pipeline.HandleNickCollision()
	})

	c.client.Handlers.Add(girc.JOIN, func(_ *girc.Client, e girc.Event) {
		nick := ""
		if e.Source != nil {
			nick = e.Source.Name
		}
		if len(e.Params) > 0 {
			c.pipeline.HandleJoin(e.Params[0], nick)
		}
	})

	c.client.Handlers.Add(girc.PRIVMSG, func(_ *girc.Client, e girc.Event) {
		evt := eventFromGirc(e)
		if err := c.pipeline.HandleMessage(c.ctx(), evt); err != nil {
			c.log.Error().Err(err).
				Str("nick", evt.Nick).
				Str("target", evt.Target).
				Msg("Message pipeline failed")
		}
	})
}

// Run connects and processes events until the context is cancelled,
// reconnecting after transient connection loss.
func (c *Conn) Run(ctx context.Context) error {
	if c.pipeline == nil {
		return errors.New("ircwire: Run called before Bind")
	}
	c.runCtx = ctx

	go func() {
		<-ctx.Done()
		c.client.Close()
	}()

	for {
		c.log.Info().Msg("Connecting")
		err := c.client.Connect()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Dur("retry_in", reconnectDelay).Msg("Connection lost")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Conn) ctx() context.Context {
	if c.runCtx != nil {
		return c.runCtx
	}
	return context.Background()
}

// Say implements platform.Transport.
func (c *Conn) Say(target, text string) {
	c.client.Cmd.Message(target, text)
}

// ChangeNick implements platform.Transport.
func (c *Conn) ChangeNick(nick string) {
	c.client.Cmd.Nick(nick)
}

// Join implements platform.Transport.
func (c *Conn) Join(channel string) {
	c.client.Cmd.Join(channel)
}

// eventFromGirc translates a girc PRIVMSG into the pipeline's event shape.
func eventFromGirc(e girc.Event) platform.InboundEvent {
	evt := platform.InboundEvent{
		Message: e.Last(),
	}
	if len(e.Params) > 0 {
		evt.Target = e.Params[0]
	}
	if e.Source == nil {
		evt.FromServer = true
	} else {
		evt.Nick = e.Source.Name
		// Server notices carry a bare host as source, no user half.
		evt.FromServer = e.Source.Ident == "" && e.Source.Host == ""
	}
	if account, ok := e.Tags.Get("account"); ok {
		evt.Account = account
	}
	return evt
}
