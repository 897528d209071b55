// Copyright 2024-2026 Aiku AI

// Command ircgate runs the IRC platform adapter: it connects to an IRC
// network, classifies inbound traffic, applies channel policy and routes
// command replies, backed by a local sqlite database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/aiku/ircgate/pkg/command"
	"github.com/aiku/ircgate/pkg/ircwire"
	"github.com/aiku/ircgate/pkg/platform"
	"github.com/aiku/ircgate/pkg/store"
)

// appConfig is the top-level configuration file layout.
type appConfig struct {
	Platform platform.Config `yaml:"platform"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Command struct {
		Prefix string `yaml:"prefix"`
	} `yaml:"command"`
	LogLevel string `yaml:"log_level"`
}

// envSecrets resolves secret names against the process environment.
type envSecrets struct{}

func (envSecrets) Get(key string) (string, bool) {
	return os.LookupEnv(key)
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	printExample := flag.Bool("example", false, "print an example platform configuration and exit")
	flag.Parse()

	if *printExample {
		fmt.Print(platform.ExampleConfig)
		return
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.LogLevel != "" {
		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			log.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("Invalid log level")
		}
		log = log.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Adapter exited")
	}
	log.Info().Msg("Shutdown complete")
}

func loadConfig(path string) (*appConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg appConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "ircgate.db"
	}
	if cfg.Command.Prefix == "" {
		cfg.Command.Prefix = "$"
	}
	return &cfg, nil
}

func run(ctx context.Context, cfg *appConfig, log zerolog.Logger) error {
	st, err := store.Open(cfg.Database.Path, log)
	if err != nil {
		return err
	}
	defer st.Close()

	conn := ircwire.New(cfg.Platform, log)
	engine := command.NewEngine(cfg.Command.Prefix, log)

	plat, err := platform.New(platform.Options{
		Config:     cfg.Platform,
		Log:        log,
		Transport:  conn,
		Users:      st.Users(),
		Channels:   st.Channels(),
		Commands:   engine,
		MessageLog: st,
		Secrets:    envSecrets{},
	})
	if err != nil {
		return err
	}

	conn.Bind(plat)
	log.Info().
		Str("platform", plat.Config().ID).
		Str("host", cfg.Platform.Host).
		Msg("Starting IRC adapter")
	return conn.Run(ctx)
}
