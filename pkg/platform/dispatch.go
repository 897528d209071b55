// Copyright 2024-2026 Aiku AI

package platform

import (
	"context"
	"fmt"
	"strings"
)

// tokenizeCommand strips the command prefix and splits the remainder on
// runs of whitespace. The first token is the command name, the rest are
// arguments; empty tokens are dropped.
func tokenizeCommand(message, prefix string) (name string, args []string) {
	body := strings.TrimPrefix(message, prefix)
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// handleCommand invokes the command engine and routes a non-empty result.
// The engine is authoritative for permissions, cooldowns and execution.
func (p *Platform) handleCommand(ctx context.Context, name string, args []string, user *UserRecord, channel *ChannelRecord, private bool) error {
	result, err := p.commands.CheckAndExecute(ctx, name, args, channel, user, ExecutionOptions{
		Platform:       p.cfg.ID,
		PrivateMessage: private,
	})
	if err != nil {
		return fmt.Errorf("execute command %q: %w", name, err)
	}
	if result == nil || result.Reply == "" {
		return nil
	}
	return p.routeReply(ctx, result, user, channel, private)
}

// routeReply selects the reply destination, mirrors public command replies
// and emits the wrapped output. Mirroring happens before formatting, so the
// mirrored copy goes out even when wrapping suppresses the direct reply.
func (p *Platform) routeReply(ctx context.Context, result *CommandResult, user *UserRecord, channel *ChannelRecord, private bool) error {
	if private || result.ReplyWithPrivateMessage {
		lines := p.PrepareMessage(result.Reply, privmsgOverhead(user.Name)+result.ExtraLength)
		for _, line := range lines {
			if err := p.Pm(ctx, line, user.Name); err != nil {
				return err
			}
		}
		return nil
	}

	if channel != nil && channel.Mirror != "" {
		if err := p.mirror(ctx, result.Reply, user, channel, true); err != nil {
			return err
		}
	}

	lines := p.PrepareMessage(result.Reply, privmsgOverhead(channel.Name)+result.ExtraLength)
	if len(lines) == 0 {
		p.log.Debug().Str("channel", channel.Name).Msg("Command reply suppressed after wrapping")
		return nil
	}
	for _, line := range lines {
		p.transport.Say(channel.Name, line)
	}
	return nil
}

// privmsgOverhead is the protocol envelope cost of addressing a target.
func privmsgOverhead(target string) int {
	return len("PRIVMSG " + target + " ")
}

// PrepareMessage wraps text to the platform's effective length budget:
// twice the base message limit, minus the given extra length. Command
// replies skip the generic length check used for normal chat; this wrapping
// takes its place, and banphrase filtering is already bypassed for them.
func (p *Platform) PrepareMessage(text string, extraLength int) []string {
	return WrapString(text, p.cfg.MessageLimit*2-extraLength)
}
