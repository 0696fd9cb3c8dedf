package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/session"
)

func newOfflineCommand(ctx *commandContext) *cobra.Command {
	offlineCmd := &cobra.Command{
		Use:   "offline",
		Short: "Manage offline audio copies",
	}

	offlineCmd.AddCommand(newOfflineSaveCommand(ctx))
	offlineCmd.AddCommand(newOfflineRemoveCommand(ctx))
	offlineCmd.AddCommand(newOfflineListCommand(ctx))
	offlineCmd.AddCommand(newOfflineClearCommand(ctx))
	offlineCmd.AddCommand(newOfflineReconcileCommand(ctx))

	return offlineCmd
}

func newOfflineSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save <id>...",
		Short: "Download episodes for offline listening",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
				var errs []error
				for _, id := range args {
					err := sess.SaveOffline(cmd.Context(), id)
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id, sess.Status())
					if err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", id, err))
					}
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newOfflineRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Delete offline copies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
				var errs []error
				for _, id := range args {
					err := sess.RemoveOffline(cmd.Context(), id)
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id, sess.Status())
					if err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", id, err))
					}
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newOfflineListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List offline copies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
				records := sess.Offline().Records()
				ids := make([]string, 0, len(records))
				for id := range records {
					ids = append(ids, id)
				}
				sort.Slice(ids, func(i, j int) bool {
					return records[ids[i]].SavedAt > records[ids[j]].SavedAt
				})

				rows := make([][]string, 0, len(ids))
				for _, id := range ids {
					rec := records[id]
					title, state := "(fuera del catalogo)", "obsoleto"
					if ep, err := sess.Episode(id); err == nil {
						title = ep.Title
						if rec.ValidFor(ep) {
							state = domain.OfflineSaved.String()
						}
					}
					size := "-"
					if blobs := sess.Blobs(); blobs != nil {
						if n, err := blobs.Size(rec.URL); err == nil {
							size = humanize.Bytes(uint64(n))
						}
					}
					rows = append(rows, []string{
						id,
						title,
						humanize.Time(time.UnixMilli(rec.SavedAt)),
						size,
						state,
					})
				}

				out := cmd.OutOrStdout()
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable(
						[]string{"ID", "Titulo", "Guardado", "Tamaño", "Estado"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
					))
				}
				summary := session.OfflineLabel(sess.OfflineCount())
				if blobs := sess.Blobs(); blobs != nil {
					if usage, err := blobs.Usage(); err == nil {
						summary += ", " + humanize.Bytes(uint64(usage))
					}
				}
				fmt.Fprintln(out, summary)
				return nil
			})
		},
	}
}

func newOfflineClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every offline copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
				err := sess.ClearOffline(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), sess.Status())
				return err
			})
		},
	}
}

func newOfflineReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Drop offline records whose audio is missing or outdated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
				if sess.Index().Len() == 0 {
					return domain.ErrCatalogUnavailable
				}
				n, err := sess.Offline().Reconcile(cmd.Context(), sess.Index().Episodes())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d registros eliminados; %s\n", n, session.OfflineLabel(sess.OfflineCount()))
				return nil
			})
		},
	}
}
