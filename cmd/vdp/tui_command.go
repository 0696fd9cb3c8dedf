package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/vdp/internal/adapter"
	"github.com/mmcdole/vdp/internal/session"
	"github.com/mmcdole/vdp/internal/tui"
)

// probeInterval spaces connectivity checks against a remote catalog.
const probeInterval = 30 * time.Second

var errNoTerminal = errors.New("the browser needs an interactive terminal; try `vdp search`")

func newTUICommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive browser (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, ctx)
		},
	}
}

func runTUI(cmd *cobra.Command, ctx *commandContext) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errNoTerminal
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := ctx.loggerValue()

	launcher := adapter.NewLauncher(cfg.Player.Command, cfg.Player.Args, cfg.Player.StartFlag, logger)
	opts := tui.Options{
		PageSize:       cfg.UI.PageSize,
		SearchDebounce: cfg.UI.SearchDebounce,
		TickInterval:   cfg.Playback.TickInterval,
	}
	if adapter.IsRemote(cfg.Catalog.Index) {
		opts.ProbeInterval = probeInterval
	}

	return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
		return tui.Run(sess, launcher, opts, logger)
	})
}
