// Copyright 2024-2026 Aiku AI

package platform

import (
	"context"
	"fmt"

	"go.mau.fi/util/random"
)

// collisionNickLength is the length of the random nickname picked when the
// configured one is taken.
const collisionNickLength = 16

// HandleRegistered runs the post-registration sequence: the services
// identify directive (plus a regain directive when the nickname changed
// during this connection attempt), then the channel auto-join. The
// authentication step never blocks joining.
func (p *Platform) HandleRegistered(ctx context.Context) error {
	if p.cfg.Authentication.Type == AuthTypeIdentify {
		auth := p.cfg.Authentication
		p.DirectPm(fmt.Sprintf("IDENTIFY %s %s", p.cfg.SelfName, p.secret), auth.User)

		p.nickMu.Lock()
		changed := p.nicknameChanged
		p.nicknameChanged = false
		p.nickMu.Unlock()

		if changed {
			p.DirectPm(fmt.Sprintf("REGAIN %s %s", p.cfg.SelfName, p.secret), auth.User)
			p.log.Info().Msg("Requested nickname regain after collision")
		}
	}

	channels, err := p.channels.Joinable(ctx, p.cfg.ID)
	if err != nil {
		return fmt.Errorf("list joinable channels: %w", err)
	}
	for _, channel := range channels {
		p.transport.Join(channel.Name)
	}
	p.log.Info().Int("channels", len(channels)).Msg("Registered, joining channels")
	return nil
}

// HandleNickCollision picks a random replacement nickname, requests the
// change and flags the collision so the next registration sends a regain
// directive. Returns the new nickname.
func (p *Platform) HandleNickCollision() string {
	nick := random.String(collisionNickLength)
	p.transport.ChangeNick(nick)

	p.nickMu.Lock()
	p.nicknameChanged = true
	p.nickMu.Unlock()

	p.log.Warn().Str("new_nick", nick).Msg("Nickname in use, switching to random nick")
	return nick
}

// HandleJoin records a completed channel join.
func (p *Platform) HandleJoin(channel, nick string) {
	p.log.Debug().Str("channel", channel).Str("nick", nick).Msg("Join")
}
