package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/search"
	"github.com/mmcdole/vdp/internal/session"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var q domain.SearchQuery
	var page int

	cmd := &cobra.Command{
		Use:   "search [texto...]",
		Short: "Search the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			q.Text = strings.Join(args, " ")
			if len(q.Month) == 1 {
				q.Month = "0" + q.Month
			}

			return ctx.withSession(cmd.Context(), func(sess *session.Session) error {
				warnIfCatalogMissing(cmd, sess, cfg)
				if q.IncludeTranscripts {
					// Load up front so the first query sees every transcript
					if err := sess.LoadTranscripts(cmd.Context()); err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), session.MsgNoTranscripts)
					}
				}

				results := sess.Filter(q)
				shown, more := search.Page(results, page, cfg.UI.PageSize)

				rows := make([][]string, 0, len(shown))
				for _, ep := range shown {
					resume := ""
					if pos, ok := sess.Resume(ep.ID); ok {
						resume = domain.FormatTime(pos)
					}
					rows = append(rows, []string{
						ep.ID,
						ep.DisplayDate(),
						ep.Title,
						yesNo(ep.HasTranscript),
						sess.OfflineState(ep).String(),
						resume,
					})
				}

				out := cmd.OutOrStdout()
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable(
						[]string{"ID", "Fecha", "Titulo", "Transcripcion", "Offline", "Continuar"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
					))
				}
				fmt.Fprintln(out, session.ResultsLabel(len(results)))
				if more {
					fmt.Fprintf(out, "Mostrando %d; usar --page %d para ver mas.\n", len(shown), page+1)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&q.Year, "year", "", "Only episodes from this year")
	cmd.Flags().StringVar(&q.Month, "month", "", "Only episodes from this month (01-12)")
	cmd.Flags().BoolVar(&q.OfflineOnly, "offline", false, "Only episodes saved offline")
	cmd.Flags().BoolVar(&q.IncludeTranscripts, "transcripts", false, "Also match transcript text")
	cmd.Flags().IntVar(&page, "page", 0, "Show results up to this page")
	return cmd
}
