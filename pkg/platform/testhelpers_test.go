// Copyright 2024-2026 Aiku AI

package platform

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// sayCall records one outbound Say.
type sayCall struct {
	Target string
	Text   string
}

// fakeTransport records every outbound call for test assertions.
type fakeTransport struct {
	mu    sync.Mutex
	says  []sayCall
	nicks []string
	joins []string
}

func (f *fakeTransport) Say(target, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.says = append(f.says, sayCall{Target: target, Text: text})
}

func (f *fakeTransport) ChangeNick(nick string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nicks = append(f.nicks, nick)
}

func (f *fakeTransport) Join(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, channel)
}

func (f *fakeTransport) Says() []sayCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]sayCall, len(f.says))
	copy(cp, f.says)
	return cp
}

func (f *fakeTransport) Joins() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]string, len(f.joins))
	copy(cp, f.joins)
	return cp
}

func (f *fakeTransport) Nicks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]string, len(f.nicks))
	copy(cp, f.nicks)
	return cp
}

// fakeUserStore serves users by account name and keeps data properties in
// memory.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*UserRecord
	props map[string]json.RawMessage
	// getErr makes Get fail, for collaborator-failure tests.
	getErr   error
	setCalls int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users: make(map[string]*UserRecord),
		props: make(map[string]json.RawMessage),
	}
}

func (f *fakeUserStore) Get(_ context.Context, name string) (*UserRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[name], nil
}

func (f *fakeUserStore) GetDataProperty(_ context.Context, user *UserRecord, key string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.props[propKey(user, key)], nil
}

func (f *fakeUserStore) SetDataProperty(_ context.Context, user *UserRecord, key string, value json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props[propKey(user, key)] = value
	f.setCalls++
	return nil
}

func propKey(user *UserRecord, key string) string {
	return user.Name + "/" + key
}

// fakeChannelStore serves channel records by name.
type fakeChannelStore struct {
	channels map[string]*ChannelRecord
	joinable []*ChannelRecord
}

func newFakeChannelStore() *fakeChannelStore {
	return &fakeChannelStore{channels: make(map[string]*ChannelRecord)}
}

func (f *fakeChannelStore) Get(_ context.Context, name, _ string) (*ChannelRecord, error) {
	return f.channels[name], nil
}

func (f *fakeChannelStore) Joinable(_ context.Context, _ string) ([]*ChannelRecord, error) {
	return f.joinable, nil
}

// engineCall records one command engine invocation.
type engineCall struct {
	Name    string
	Args    []string
	Channel *ChannelRecord
	User    *UserRecord
	Opts    ExecutionOptions
}

// fakeEngine returns a canned result and records invocations.
type fakeEngine struct {
	mu     sync.Mutex
	prefix string
	result *CommandResult
	err    error
	calls  []engineCall
}

func (f *fakeEngine) Prefix() string {
	return f.prefix
}

func (f *fakeEngine) IsCommand(text string) bool {
	return f.prefix != "" && len(text) > len(f.prefix) && text[:len(f.prefix)] == f.prefix
}

func (f *fakeEngine) CheckAndExecute(_ context.Context, name string, args []string, channel *ChannelRecord, user *UserRecord, opts ExecutionOptions) (*CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, engineCall{Name: name, Args: args, Channel: channel, User: user, Opts: opts})
	return f.result, f.err
}

func (f *fakeEngine) Calls() []engineCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]engineCall, len(f.calls))
	copy(cp, f.calls)
	return cp
}

// fakeChecker counts CheckActive calls and optionally fails.
type fakeChecker struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeChecker) CheckActive(_ context.Context, _ *UserRecord, _ *ChannelRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeChecker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// pushCall records one MessageLog.Push.
type pushCall struct {
	Message  string
	User     *UserRecord
	Channel  *ChannelRecord
	Platform string
}

// lastSeenCall records one MessageLog.UpdateLastSeen.
type lastSeenCall struct {
	User    *UserRecord
	Channel *ChannelRecord
	Message string
}

// fakeMessageLog records logging calls.
type fakeMessageLog struct {
	mu       sync.Mutex
	pushes   []pushCall
	lastSeen []lastSeenCall
	pushErr  error
}

func (f *fakeMessageLog) Push(_ context.Context, message string, user *UserRecord, channel *ChannelRecord, platform string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, pushCall{Message: message, User: user, Channel: channel, Platform: platform})
	return nil
}

func (f *fakeMessageLog) UpdateLastSeen(_ context.Context, user *UserRecord, channel *ChannelRecord, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSeen = append(f.lastSeen, lastSeenCall{User: user, Channel: channel, Message: message})
	return nil
}

func (f *fakeMessageLog) Pushes() []pushCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]pushCall, len(f.pushes))
	copy(cp, f.pushes)
	return cp
}

func (f *fakeMessageLog) LastSeen() []lastSeenCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]lastSeenCall, len(f.lastSeen))
	copy(cp, f.lastSeen)
	return cp
}

// fakeObserver records observed message events.
type fakeObserver struct {
	mu     sync.Mutex
	events []MessageEvent
	err    error
}

func (f *fakeObserver) HandleMessage(_ context.Context, evt MessageEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return f.err
}

func (f *fakeObserver) Events() []MessageEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]MessageEvent, len(f.events))
	copy(cp, f.events)
	return cp
}

// mapSecrets is an in-memory Secrets source.
type mapSecrets map[string]string

func (m mapSecrets) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// testDeps bundles the fakes behind a test platform.
type testDeps struct {
	Transport *fakeTransport
	Users     *fakeUserStore
	Channels  *fakeChannelStore
	Engine    *fakeEngine
	Log       *fakeMessageLog
	Presence  *fakeChecker
	Reminders *fakeChecker
	Observer  *fakeObserver
}

// newTestPlatform builds a platform with a full set of recording fakes and
// the default test config. Mutators adjust the options before construction.
func newTestPlatform(t *testing.T, mutate ...func(*Options, *testDeps)) (*Platform, *testDeps) {
	t.Helper()

	deps := &testDeps{
		Transport: &fakeTransport{},
		Users:     newFakeUserStore(),
		Channels:  newFakeChannelStore(),
		Engine:    &fakeEngine{prefix: "$"},
		Log:       &fakeMessageLog{},
		Presence:  &fakeChecker{},
		Reminders: &fakeChecker{},
		Observer:  &fakeObserver{},
	}

	opts := Options{
		Config: Config{
			ID:           "irc-test",
			Host:         "irc.test.invalid",
			SelfName:     "testbot",
			MessageLimit: 400,
			Logging:      LoggingConfig{Messages: true, Whispers: true},
		},
		Log:        zerolog.Nop(),
		Transport:  deps.Transport,
		Users:      deps.Users,
		Channels:   deps.Channels,
		Commands:   deps.Engine,
		MessageLog: deps.Log,
		Presence:   deps.Presence,
		Reminders:  deps.Reminders,
		Observers:  []MessageObserver{deps.Observer},
	}
	for _, m := range mutate {
		m(&opts, deps)
	}

	p, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, deps
}

// seedUser registers a user under its account name and returns the record.
func seedUser(deps *testDeps, name string, mutate ...func(*UserRecord)) *UserRecord {
	user := &UserRecord{ID: int64(len(deps.Users.users) + 1), Name: name}
	for _, m := range mutate {
		m(user)
	}
	deps.Users.users[name] = user
	return user
}

// seedChannel registers a channel record under its name.
func seedChannel(deps *testDeps, name string, mode ChannelMode, mutate ...func(*ChannelRecord)) *ChannelRecord {
	ch := &ChannelRecord{
		ID:          int64(len(deps.Channels.channels) + 1),
		Name:        name,
		Platform:    "irc-test",
		Mode:        mode,
		LogMessages: true,
	}
	for _, m := range mutate {
		m(ch)
	}
	deps.Channels.channels[name] = ch
	return ch
}

// channelMessage builds a channel message event from a registered account.
func channelMessage(nick, account, channel, text string) InboundEvent {
	return InboundEvent{Nick: nick, Account: account, Target: channel, Message: text}
}

// privateMessage builds a private message event addressed to the bot.
func privateMessage(nick, account, text string) InboundEvent {
	return InboundEvent{Nick: nick, Account: account, Target: "testbot", Message: text}
}
