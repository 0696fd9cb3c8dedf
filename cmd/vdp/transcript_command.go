package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/session"
	"github.com/mmcdole/vdp/internal/transcript"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	transcriptCmd := &cobra.Command{
		Use:   "transcript",
		Short: "Read episode transcripts",
	}
	transcriptCmd.AddCommand(newTranscriptShowCommand(ctx))
	return transcriptCmd
}

func newTranscriptShowCommand(ctx *commandContext) *cobra.Command {
	var at float64

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a transcript, marking the line active at --at seconds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			id := args[0]

			return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
				if _, err := sess.Episode(id); err != nil {
					return err
				}
				if err := sess.LoadTranscripts(cmd.Context()); err != nil {
					return err
				}
				tr, ok := sess.Transcript(id)
				if !ok {
					return fmt.Errorf("%w: %s", domain.ErrTranscriptNotFound, id)
				}

				out := cmd.OutOrStdout()
				if !tr.HasSegments() {
					fmt.Fprintln(out, tr.Text)
					return nil
				}

				active := -1
				if cmd.Flags().Changed("at") {
					active, _ = transcript.NewFollower(tr, cfg.Playback.Lookahead).Update(at)
				}
				for i, seg := range tr.Segments {
					marker := " "
					if i == active {
						marker = ">"
					}
					fmt.Fprintf(out, "%s %8s  %s\n", marker, seg.Label, seg.Text)
				}
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&at, "at", 0, "Playback position in seconds")
	return cmd
}
