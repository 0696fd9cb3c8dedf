package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/session"
)

func newProgressCommand(ctx *commandContext) *cobra.Command {
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspect saved listening positions",
	}

	progressCmd.AddCommand(newProgressListCommand(ctx))
	progressCmd.AddCommand(newProgressClearCommand(ctx))

	return progressCmd
}

func newProgressListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved positions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
				records := sess.Progress().All()
				ids := make([]string, 0, len(records))
				for id := range records {
					ids = append(ids, id)
				}
				sort.Slice(ids, func(i, j int) bool {
					return records[ids[i]].UpdatedAt > records[ids[j]].UpdatedAt
				})

				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					fmt.Fprintln(out, "Sin progreso guardado.")
					return nil
				}

				rows := make([][]string, 0, len(ids))
				for _, id := range ids {
					rec := records[id]
					title := ""
					if ep, err := sess.Episode(id); err == nil {
						title = ep.Title
					}
					_, resumable := sess.Resume(id)
					rows = append(rows, []string{
						id,
						title,
						domain.FormatTime(rec.Time),
						yesNo(resumable),
						humanize.Time(time.UnixMilli(rec.UpdatedAt)),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Titulo", "Posicion", "Reanudable", "Actualizado"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newProgressClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [id]",
		Short: "Forget one saved position, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
				if len(args) == 1 {
					if err := sess.Progress().Forget(args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Progreso de %s eliminado.\n", args[0])
					return nil
				}
				if err := sess.Progress().ClearAll(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Progreso eliminado.")
				return nil
			})
		},
	}
}
