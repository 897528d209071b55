// Copyright 2024-2026 Aiku AI

// Package store is a sqlite-backed implementation of the platform's user,
// channel and message-log contracts. The pipeline depends only on the
// interfaces; this package exists so the adapter runs without an external
// database service.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/aiku/ircgate/pkg/platform"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE COLLATE NOCASE,
	twitch_id  TEXT NOT NULL DEFAULT '',
	discord_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS user_data (
	user_id INTEGER NOT NULL REFERENCES users(id),
	key     TEXT NOT NULL,
	value   TEXT NOT NULL,
	PRIMARY KEY (user_id, key)
);

CREATE TABLE IF NOT EXISTS channels (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL COLLATE NOCASE,
	platform     TEXT NOT NULL,
	mode         TEXT NOT NULL DEFAULT 'Normal',
	mirror       TEXT NOT NULL DEFAULT '',
	log_messages INTEGER NOT NULL DEFAULT 1,
	joinable     INTEGER NOT NULL DEFAULT 1,
	UNIQUE (name, platform)
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	platform   TEXT NOT NULL,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	channel_id INTEGER REFERENCES channels(id),
	body       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS last_seen (
	user_id    INTEGER NOT NULL REFERENCES users(id),
	channel_id INTEGER NOT NULL REFERENCES channels(id),
	message    TEXT NOT NULL,
	seen_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, channel_id)
);
`

// Store holds the sqlite handle. The Users and Channels views expose the
// two resolution contracts; the Store itself is the message log.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Users is the platform.UserStore view of a Store.
type Users struct{ s *Store }

// Channels is the platform.ChannelStore view of a Store.
type Channels struct{ s *Store }

var (
	_ platform.UserStore    = (*Users)(nil)
	_ platform.ChannelStore = (*Channels)(nil)
	_ platform.MessageLog   = (*Store)(nil)
)

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	// sqlite allows one writer; serialized access avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{
		db:  db,
		log: log.With().Str("component", "store").Logger(),
	}
	s.log.Debug().Str("path", path).Msg("Database ready")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Users returns the user store view.
func (s *Store) Users() *Users {
	return &Users{s: s}
}

// Channels returns the channel store view.
func (s *Store) Channels() *Channels {
	return &Channels{s: s}
}

// Get implements platform.UserStore. Unknown names yield (nil, nil).
func (u *Users) Get(ctx context.Context, name string) (*platform.UserRecord, error) {
	row := u.s.db.QueryRowContext(ctx,
		`SELECT id, name, twitch_id, discord_id FROM users WHERE name = ?`, name)

	var user platform.UserRecord
	err := row.Scan(&user.ID, &user.Name, &user.TwitchID, &user.DiscordID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user %q: %w", name, err)
	}
	return &user, nil
}

// EnsureUser creates the user if missing and returns its record.
func (u *Users) EnsureUser(ctx context.Context, name string) (*platform.UserRecord, error) {
	if _, err := u.s.db.ExecContext(ctx,
		`INSERT INTO users (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return nil, fmt.Errorf("insert user %q: %w", name, err)
	}
	return u.Get(ctx, name)
}

// GetDataProperty implements platform.UserStore. Unset properties yield nil.
func (u *Users) GetDataProperty(ctx context.Context, user *platform.UserRecord, key string) (json.RawMessage, error) {
	row := u.s.db.QueryRowContext(ctx,
		`SELECT value FROM user_data WHERE user_id = ? AND key = ?`, user.ID, key)

	var value string
	err := row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select data property %q: %w", key, err)
	}
	return json.RawMessage(value), nil
}

// SetDataProperty implements platform.UserStore.
func (u *Users) SetDataProperty(ctx context.Context, user *platform.UserRecord, key string, value json.RawMessage) error {
	_, err := u.s.db.ExecContext(ctx,
		`INSERT INTO user_data (user_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value`,
		user.ID, key, string(value))
	if err != nil {
		return fmt.Errorf("upsert data property %q: %w", key, err)
	}
	return nil
}

// Get implements platform.ChannelStore. Unknown channels yield (nil, nil).
func (c *Channels) Get(ctx context.Context, name, platformID string) (*platform.ChannelRecord, error) {
	row := c.s.db.QueryRowContext(ctx,
		`SELECT id, name, platform, mode, mirror, log_messages
		 FROM channels WHERE name = ? AND platform = ?`, name, platformID)

	var channel platform.ChannelRecord
	var mode string
	err := row.Scan(&channel.ID, &channel.Name, &channel.Platform, &mode, &channel.Mirror, &channel.LogMessages)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select channel %q: %w", name, err)
	}
	channel.Mode = platform.ChannelMode(mode)
	return &channel, nil
}

// Joinable implements platform.ChannelStore, ordered by channel name.
func (c *Channels) Joinable(ctx context.Context, platformID string) ([]*platform.ChannelRecord, error) {
	rows, err := c.s.db.QueryContext(ctx,
		`SELECT id, name, platform, mode, mirror, log_messages
		 FROM channels WHERE platform = ? AND joinable = 1 ORDER BY name`, platformID)
	if err != nil {
		return nil, fmt.Errorf("select joinable channels: %w", err)
	}
	defer rows.Close()

	var channels []*platform.ChannelRecord
	for rows.Next() {
		var channel platform.ChannelRecord
		var mode string
		if err := rows.Scan(&channel.ID, &channel.Name, &channel.Platform, &mode, &channel.Mirror, &channel.LogMessages); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channel.Mode = platform.ChannelMode(mode)
		channels = append(channels, &channel)
	}
	return channels, rows.Err()
}

// EnsureChannel creates the channel if missing and returns its record.
func (c *Channels) EnsureChannel(ctx context.Context, name, platformID string) (*platform.ChannelRecord, error) {
	if _, err := c.s.db.ExecContext(ctx,
		`INSERT INTO channels (name, platform) VALUES (?, ?)
		 ON CONFLICT (name, platform) DO NOTHING`, name, platformID); err != nil {
		return nil, fmt.Errorf("insert channel %q: %w", name, err)
	}
	return c.Get(ctx, name, platformID)
}

// Push implements platform.MessageLog. Channel is nil for whispers.
func (s *Store) Push(ctx context.Context, message string, user *platform.UserRecord, channel *platform.ChannelRecord, platformID string) error {
	var channelID any
	if channel != nil {
		channelID = channel.ID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, platform, user_id, channel_id, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), platformID, user.ID, channelID, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// UpdateLastSeen implements platform.MessageLog.
func (s *Store) UpdateLastSeen(ctx context.Context, user *platform.UserRecord, channel *platform.ChannelRecord, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO last_seen (user_id, channel_id, message, seen_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, channel_id) DO UPDATE SET message = excluded.message, seen_at = excluded.seen_at`,
		user.ID, channel.ID, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert last seen: %w", err)
	}
	return nil
}
