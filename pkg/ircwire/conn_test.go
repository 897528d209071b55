// Copyright 2024-2026 Aiku AI

package ircwire

import (
	"testing"

	"github.com/lrstanley/girc"
)

// TestEventFromGirc_ChannelMessage verifies a tagged channel PRIVMSG maps to
// a fully-populated inbound event.
func TestEventFromGirc_ChannelMessage(t *testing.T) {
	t.Parallel()
	raw := "@account=supi :supi!~supi@user/supi PRIVMSG #chan :hello world"
	e := girc.ParseEvent(raw)
	if e == nil {
		t.Fatal("ParseEvent returned nil")
	}

	evt := eventFromGirc(*e)
	if evt.Nick != "supi" {
		t.Errorf("Nick = %q, want supi", evt.Nick)
	}
	if evt.Account != "supi" {
		t.Errorf("Account = %q, want supi", evt.Account)
	}
	if evt.Target != "#chan" {
		t.Errorf("Target = %q, want #chan", evt.Target)
	}
	if evt.Message != "hello world" {
		t.Errorf("Message = %q, want hello world", evt.Message)
	}
	if evt.FromServer {
		t.Error("FromServer should be false for a user message")
	}
}

// TestEventFromGirc_NoAccountTag verifies a message without the account tag
// leaves the account empty, marking the sender unverified.
func TestEventFromGirc_NoAccountTag(t *testing.T) {
	t.Parallel()
	raw := ":stranger!~u@host.example PRIVMSG #chan :$ping"
	e := girc.ParseEvent(raw)
	if e == nil {
		t.Fatal("ParseEvent returned nil")
	}

	evt := eventFromGirc(*e)
	if evt.Account != "" {
		t.Errorf("Account = %q, want empty", evt.Account)
	}
	if evt.Nick != "stranger" {
		t.Errorf("Nick = %q, want stranger", evt.Nick)
	}
}

// TestEventFromGirc_ServerSource verifies messages sourced from a bare
// server name are flagged as server-originated.
func TestEventFromGirc_ServerSource(t *testing.T) {
	t.Parallel()
	raw := ":irc.libera.chat PRIVMSG testbot :*** looking up your hostname"
	e := girc.ParseEvent(raw)
	if e == nil {
		t.Fatal("ParseEvent returned nil")
	}

	evt := eventFromGirc(*e)
	if !evt.FromServer {
		t.Error("FromServer should be true for a bare server source")
	}
}

// TestEventFromGirc_PrivateMessage verifies the target of a direct message
// is the bot's nick.
func TestEventFromGirc_PrivateMessage(t *testing.T) {
	t.Parallel()
	raw := "@account=supi :supi!~supi@user/supi PRIVMSG testbot :$help"
	e := girc.ParseEvent(raw)
	if e == nil {
		t.Fatal("ParseEvent returned nil")
	}

	evt := eventFromGirc(*e)
	if evt.Target != "testbot" {
		t.Errorf("Target = %q, want testbot", evt.Target)
	}
	if evt.Message != "$help" {
		t.Errorf("Message = %q, want $help", evt.Message)
	}
}
