// Copyright 2024-2026 Aiku AI

package platform

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// AuthTypeIdentify authenticates by sending an IDENTIFY directive to the
// services user after registration.
const AuthTypeIdentify = "privmsg-identify"

// AuthConfig describes the optional services authentication handshake.
type AuthConfig struct {
	// Type selects the authentication scheme; empty disables authentication.
	Type string `yaml:"type"`
	// User is the services target the identify directive is sent to.
	User string `yaml:"user"`
	// SecretVar names the secrets entry holding the authentication key.
	SecretVar string `yaml:"secret_var"`
}

// LoggingConfig toggles message persistence per message kind.
type LoggingConfig struct {
	Messages bool `yaml:"messages"`
	Whispers bool `yaml:"whispers"`
}

// Config holds the platform configuration.
type Config struct {
	// ID identifies this platform (network + bot identity) in stores.
	ID     string `yaml:"id"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Secure bool   `yaml:"secure"`
	// SelfName is the bot's own nickname on this platform.
	SelfName string `yaml:"self_name"`
	// MessageLimit is the platform's base message length limit. The
	// effective reply budget is twice this, minus envelope overhead.
	MessageLimit   int           `yaml:"message_limit"`
	Authentication AuthConfig    `yaml:"authentication"`
	Logging        LoggingConfig `yaml:"logging"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// PostProcess validates the config and fills defaults. The errors it
// returns are fatal: the platform must not start with a partial config.
func (c *Config) PostProcess() error {
	if c.Host == "" {
		return fmt.Errorf("platform config is missing the connection host")
	}
	if c.SelfName == "" {
		return fmt.Errorf("platform config is missing the bot's self name")
	}
	if c.ID == "" {
		c.ID = "irc-" + c.Host
	}
	if c.Port == 0 {
		c.Port = 6667
	}
	if c.MessageLimit == 0 {
		c.MessageLimit = 400
	}
	if c.Authentication.Type != "" && c.Authentication.Type != AuthTypeIdentify {
		return fmt.Errorf("unknown authentication type %q", c.Authentication.Type)
	}
	if c.Authentication.Type == AuthTypeIdentify && c.Authentication.User == "" {
		c.Authentication.User = "NickServ"
	}
	return nil
}
