// Copyright 2024-2026 Aiku AI

package platform

// ChannelMode controls which pipeline stages run for messages in a channel.
type ChannelMode string

const (
	// ModeNormal runs the full pipeline: logging, side effects and commands.
	ModeNormal ChannelMode = "Normal"
	// ModeLastSeen only records last-seen activity, nothing else.
	ModeLastSeen ChannelMode = "Last seen"
	// ModeReadOnly logs and notifies observers but never reacts: no presence
	// or reminder checks, no mirroring, no command dispatch.
	ModeReadOnly ChannelMode = "Read"
	// ModeInactive drops messages entirely.
	ModeInactive ChannelMode = "Inactive"
)

// InboundEvent is one already-parsed inbound line from the connection
// component. It is immutable; the pipeline never modifies it.
type InboundEvent struct {
	// Nick is the sender's current nickname.
	Nick string
	// Account is the services-verified account name from the IRCv3
	// account tag, empty when the sender is not identified.
	Account string
	// Target is the channel name, or the bot's own nick for private messages.
	Target string
	// Message is the message body.
	Message string
	// FromServer marks events originated by the server rather than a user.
	FromServer bool
}

// UserRecord is a platform-agnostic user resolved from the user store.
// The store owns these records; the pipeline only references them.
type UserRecord struct {
	ID        int64
	Name      string
	TwitchID  string
	DiscordID string
}

// LinkedAccountType returns the name of the cross-platform identity this
// user is linked to, or an empty string when there is no link.
func (u *UserRecord) LinkedAccountType() string {
	switch {
	case u.TwitchID != "":
		return "Twitch"
	case u.DiscordID != "":
		return "Discord"
	default:
		return ""
	}
}

// ChannelRecord describes one channel known to the bot. Read-only to the
// pipeline; owned by the channel store.
type ChannelRecord struct {
	ID       int64
	Name     string
	Platform string
	Mode     ChannelMode
	// Mirror is the name of a linked channel that receives copies of
	// messages and command replies, empty when mirroring is disabled.
	Mirror string
	// LogMessages enables message persistence for this channel. The
	// platform-level logging switch must also be on.
	LogMessages bool
}

// PlatformVerification is the per-platform slice of a user's cross-platform
// identity verification state, persisted as a user data property.
type PlatformVerification struct {
	Active           bool `json:"active"`
	NotificationSent bool `json:"notificationSent"`
}

// VerificationState maps platform IDs to their verification entries.
type VerificationState map[string]*PlatformVerification

// CommandResult is the outcome of one command execution, consumed exactly
// once by the reply router.
type CommandResult struct {
	// Reply is the text to send back; empty means no output.
	Reply string
	// ReplyWithPrivateMessage forces the reply into a private message even
	// when the command was invoked publicly.
	ReplyWithPrivateMessage bool
	// SkipBanphrases marks the reply as exempt from content filtering.
	// Command replies always carry their own filtering decision, so the
	// reply router never re-applies the filter stage.
	SkipBanphrases bool
	// ExtraLength is an additional length-budget deduction the command
	// knows about, on top of the protocol envelope overhead.
	ExtraLength int
}

// ExecutionOptions carries invocation context into the command engine.
type ExecutionOptions struct {
	Platform       string
	PrivateMessage bool
}

// MessageEvent is the immutable snapshot handed to every message observer.
type MessageEvent struct {
	Message  string
	User     *UserRecord
	Channel  *ChannelRecord
	Platform string
	// Data is an extension map for observers; always non-nil, starts empty.
	Data map[string]any
}
