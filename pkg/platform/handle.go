// Copyright 2024-2026 Aiku AI

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// verificationProperty is the user data property holding per-platform
// cross-platform identity verification state.
const verificationProperty = "platformVerification"

const unregisteredNotice = "You must register an account before using my commands!"

// HandleMessage runs the full inbound pipeline for one event: identity
// classification and gating, channel policy, side effects and command
// dispatch. Unresolvable users and channels short-circuit silently;
// collaborator failures are returned to the caller.
func (p *Platform) HandleMessage(ctx context.Context, evt InboundEvent) error {
	if evt.FromServer {
		return nil
	}

	isPrivate := strings.EqualFold(evt.Target, p.cfg.SelfName)

	if evt.Account == "" {
		p.noticeUnregistered(evt, isPrivate)
		return nil
	}

	user, err := p.users.Get(ctx, evt.Account)
	if err != nil {
		return fmt.Errorf("resolve user %q: %w", evt.Account, err)
	}
	if user == nil {
		return nil
	}

	held, err := p.verificationGate(ctx, evt, user, isPrivate)
	if err != nil {
		return err
	}
	if held {
		return nil
	}

	var channel *ChannelRecord
	if !isPrivate {
		channel, err = p.channels.Get(ctx, evt.Target, p.cfg.ID)
		if err != nil {
			return fmt.Errorf("resolve channel %q: %w", evt.Target, err)
		}
		if channel == nil {
			return nil
		}

		if p.resolver != nil {
			p.resolver.ResolveUserMessage(ctx, channel, user, evt.Message)
		}

		switch channel.Mode {
		case ModeLastSeen:
			if p.msgLog == nil {
				return nil
			}
			return p.msgLog.UpdateLastSeen(ctx, user, channel, evt.Message)
		case ModeInactive:
			return nil
		}

		if p.cfg.Logging.Messages && channel.LogMessages && p.msgLog != nil {
			if err := p.msgLog.Push(ctx, evt.Message, user, channel, p.cfg.ID); err != nil {
				return fmt.Errorf("log message: %w", err)
			}
		}

		p.notifyObservers(ctx, MessageEvent{
			Message:  evt.Message,
			User:     user,
			Channel:  channel,
			Platform: p.cfg.ID,
			Data:     map[string]any{},
		})

		// Read-only channels never react: no presence or reminder
		// checks, no mirroring, no commands.
		if channel.Mode == ModeReadOnly {
			return nil
		}

		if err := p.runActivityChecks(ctx, user, channel); err != nil {
			return err
		}

		if channel.Mirror != "" {
			if err := p.mirror(ctx, evt.Message, user, channel, false); err != nil {
				return err
			}
		}
	} else {
		if p.cfg.Logging.Whispers && p.msgLog != nil {
			if err := p.msgLog.Push(ctx, evt.Message, user, nil, p.cfg.ID); err != nil {
				return fmt.Errorf("log whisper: %w", err)
			}
		}
		if p.resolver != nil {
			p.resolver.ResolveUserMessage(ctx, nil, user, evt.Message)
		}
	}

	if p.commands == nil || p.commands.Prefix() == "" {
		return nil
	}
	if !p.commands.IsCommand(evt.Message) {
		return nil
	}

	name, args := tokenizeCommand(evt.Message, p.commands.Prefix())
	if name == "" {
		return nil
	}
	return p.handleCommand(ctx, name, args, user, channel, isPrivate)
}

// noticeUnregistered warns a sender without a verified account, at most once
// per sender per process run, and only when the message looked like a
// command attempt. Private attempts are answered to the sender's nick; the
// event target of a private message is the bot itself.
func (p *Platform) noticeUnregistered(evt InboundEvent, isPrivate bool) {
	if p.commands == nil || !p.commands.IsCommand(evt.Message) {
		return
	}

	p.notifiedMu.Lock()
	_, seen := p.notifiedUnregistered[evt.Nick]
	if !seen {
		p.notifiedUnregistered[evt.Nick] = struct{}{}
	}
	p.notifiedMu.Unlock()
	if seen {
		return
	}

	target := evt.Target
	if isPrivate {
		target = evt.Nick
	}
	p.transport.Say(target, unregisteredNotice)
	p.log.Debug().Str("nick", evt.Nick).Msg("Notified unregistered user")
}

// verificationGate holds messages from users whose linked cross-platform
// identity is not yet active on this platform. The first occurrence sends a
// one-time notice and persists the notificationSent flag; every later
// occurrence is dropped silently until an external challenge subsystem
// activates the link. Returns true when the event must not proceed.
func (p *Platform) verificationGate(ctx context.Context, evt InboundEvent, user *UserRecord, isPrivate bool) (bool, error) {
	if p.isSelf(user.Name) {
		return false, nil
	}
	linked := user.LinkedAccountType()
	if linked == "" {
		return false, nil
	}

	state, err := p.loadVerification(ctx, user)
	if err != nil {
		return false, err
	}
	entry := state[p.cfg.ID]
	if entry == nil {
		entry = &PlatformVerification{}
		state[p.cfg.ID] = entry
	}
	if entry.Active {
		return false, nil
	}

	if !entry.NotificationSent {
		notice := fmt.Sprintf(
			"@%s, you were found to be likely to own a %s account with the same name as your current IRC account. Please contact the operator to resolve this manually.",
			user.Name, linked,
		)
		if isPrivate {
			if err := p.Pm(ctx, notice, user.Name); err != nil {
				return false, err
			}
		} else {
			p.transport.Say(evt.Target, notice)
		}

		entry.NotificationSent = true
		if err := p.saveVerification(ctx, user, state); err != nil {
			return false, err
		}
		p.log.Info().Str("user", user.Name).Str("linked", linked).Msg("Sent cross-platform verification notice")
	}
	return true, nil
}

func (p *Platform) loadVerification(ctx context.Context, user *UserRecord) (VerificationState, error) {
	raw, err := p.users.GetDataProperty(ctx, user, verificationProperty)
	if err != nil {
		return nil, fmt.Errorf("load verification state: %w", err)
	}
	state := VerificationState{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &state); err != nil {
			return nil, fmt.Errorf("decode verification state: %w", err)
		}
	}
	return state, nil
}

func (p *Platform) saveVerification(ctx context.Context, user *UserRecord, state VerificationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode verification state: %w", err)
	}
	if err := p.users.SetDataProperty(ctx, user, verificationProperty, raw); err != nil {
		return fmt.Errorf("save verification state: %w", err)
	}
	return nil
}

// runActivityChecks runs the presence and reminder checks concurrently.
// Both always run to completion; a failure in one never cancels the other.
func (p *Platform) runActivityChecks(ctx context.Context, user *UserRecord, channel *ChannelRecord) error {
	var eg errgroup.Group
	if p.presence != nil {
		eg.Go(func() error {
			return p.presence.CheckActive(ctx, user, channel)
		})
	}
	if p.reminders != nil {
		eg.Go(func() error {
			return p.reminders.CheckActive(ctx, user, channel)
		})
	}
	return eg.Wait()
}

// mirror forwards text to the channel's linked mirror channel. Plain chat is
// attributed to the sender; command replies are forwarded verbatim. An
// unknown mirror target drops the copy silently.
func (p *Platform) mirror(ctx context.Context, text string, user *UserRecord, channel *ChannelRecord, commandUsed bool) error {
	target, err := p.channels.Get(ctx, channel.Mirror, p.cfg.ID)
	if err != nil {
		return fmt.Errorf("resolve mirror channel %q: %w", channel.Mirror, err)
	}
	if target == nil {
		return nil
	}

	out := text
	if !commandUsed {
		out = user.Name + ": " + text
	}
	p.transport.Say(target.Name, out)
	return nil
}
