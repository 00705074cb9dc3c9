package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/certbase/internal/certbase"
	"github.com/wolfeidau/certbase/internal/config"
	"github.com/wolfeidau/certbase/internal/logger"
)

type Globals struct {
	Debug       bool
	Version     string
	Config      string
	Root        string
	Issuer      string
	OpenSSLPath string
	ReusePolicy string
	Stdout      io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// loadConfig reads the configuration file and applies flag overrides.
func (g *Globals) loadConfig() (*config.Config, error) {
	path := g.Config
	if path == "" {
		path = config.DefaultPath
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}

	if g.Root != "" {
		cfg.Root = g.Root
	}
	if g.Issuer != "" {
		cfg.Issuer = g.Issuer
	}
	if g.OpenSSLPath != "" {
		cfg.OpenSSLPath = g.OpenSSLPath
	}
	if g.ReusePolicy != "" {
		cfg.ReusePolicy = g.ReusePolicy
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// open builds a CertBase from the configuration. The returned func releases the logger.
func (g *Globals) open() (*certbase.CertBase, zerolog.Logger, func(), error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	log, closer := logger.Setup(logger.Config{
		Debug:      g.Debug,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	cleanup := func() { _ = closer.Close() }

	cb, err := certbase.New(certbase.Options{
		Root:        cfg.Root,
		Issuer:      cfg.NewIssuer(),
		Subject:     cfg.Subject,
		Days:        cfg.Days,
		ReusePolicy: certbase.ReusePolicy(cfg.ReusePolicy),
		Logger:      log,
	})
	if err != nil {
		cleanup()
		return nil, zerolog.Nop(), nil, err
	}

	log.Debug().Str("root", cfg.Root).Str("issuer", cfg.Issuer).Msg("opened certbase")

	return cb, log, cleanup, nil
}
