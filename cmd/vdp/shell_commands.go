package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/vdp/internal/session"
)

func newShellCommand(ctx *commandContext) *cobra.Command {
	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Manage the cached catalog used when offline",
	}

	shellCmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Cache the catalog and transcripts for offline startup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
				if err := sess.InstallShell(cmd.Context()); err != nil {
					return fmt.Errorf("install shell cache: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cache %s instalado en %s\n", sess.Shell().Name(), sess.Shell().Dir())
				return nil
			})
		},
	})

	shellCmd.AddCommand(&cobra.Command{
		Use:   "activate",
		Short: "Delete cache generations other than the current ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
				removed, err := sess.ActivateShell()
				if err != nil {
					return fmt.Errorf("activate shell cache: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(removed) == 0 {
					fmt.Fprintln(out, "Nada que limpiar.")
					return nil
				}
				for _, name := range removed {
					fmt.Fprintf(out, "Eliminado %s\n", name)
				}
				return nil
			})
		},
	})

	return shellCmd
}
