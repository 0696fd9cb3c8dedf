package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mmcdole/vdp/internal/adapter"
	"github.com/mmcdole/vdp/internal/session"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *adapter.Config
	configErr  error

	logger    *slog.Logger
	logCloser io.Closer
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*adapter.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := adapter.LoadConfig(path)
		if err != nil {
			c.configErr = fmt.Errorf("failed to load config: %w", err)
			return
		}
		c.config = cfg

		logger, closer, err := adapter.SetupLogger(&cfg.Logging)
		if err != nil {
			// Fall back to null logger if file logging fails
			logger, closer = adapter.NullLogger(), nil
		}
		slog.SetDefault(logger)
		c.logger = logger
		c.logCloser = closer
		logger.Info("starting vdp", "version", Version)
	})
	return c.config, c.configErr
}

func (c *commandContext) loggerValue() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func (c *commandContext) close() {
	if c.logCloser != nil {
		_ = c.logCloser.Close()
		c.logCloser = nil
	}
}

// withSession opens the data directory for the duration of fn.
func (c *commandContext) withSession(ctx context.Context, fn func(*session.Session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	sess, err := session.Open(ctx, session.OptionsFromConfig(cfg), c.loggerValue())
	if err != nil {
		if errors.Is(err, session.ErrLocked) {
			return fmt.Errorf("open data dir %s: %w (is the TUI running?)", cfg.Storage.DataDir, err)
		}
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			c.loggerValue().Warn("failed to close session", "error", err)
		}
	}()
	return fn(sess)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// warnIfCatalogMissing points at the catalog when it failed to load.
func warnIfCatalogMissing(cmd *cobra.Command, sess *session.Session, cfg *adapter.Config) {
	if sess.Status() == session.MsgIndexFailed {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s (%s)\n", session.MsgIndexFailed, cfg.Catalog.Index)
	}
}

func yesNo(value bool) string {
	if value {
		return "si"
	}
	return "no"
}
