package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmcdole/vdp/internal/adapter"
	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/scrape"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the catalog files",
	}

	buildCmd.AddCommand(newBuildScrapeCommand(ctx))
	buildCmd.AddCommand(newBuildFeedCommand(ctx))

	return buildCmd
}

type buildFlags struct {
	out     string
	quiet   bool
	baseURL string
	delay   time.Duration
}

func (f *buildFlags) resolve(cmd *cobra.Command, cfg *adapter.Config) {
	if !cmd.Flags().Changed("out") {
		f.out = cfg.Build.Output
	}
	if !cmd.Flags().Changed("base-url") {
		f.baseURL = cfg.Build.BaseURL
	}
	if !cmd.Flags().Changed("delay") {
		f.delay = cfg.Build.Delay
	}
}

func (f *buildFlags) status(w io.Writer) domain.StatusFunc {
	if f.quiet {
		return nil
	}
	return func(msg string) { fmt.Fprintln(w, msg) }
}

func (f *buildFlags) progress(w io.Writer) domain.ProgressFunc {
	if f.quiet {
		return nil
	}
	return func(done, total int) { fmt.Fprintf(w, "  %d/%d meses\n", done, total) }
}

func printBuildResult(w io.Writer, res domain.BuildResult, b *scrape.Builder) {
	fmt.Fprintf(w, "%d episodios (%d nuevos), %d transcripciones -> %s\n",
		res.Episodes, res.New, res.Transcripts, b.IndexPath())
}

func newBuildScrapeCommand(ctx *commandContext) *cobra.Command {
	var flags buildFlags
	var years string
	var maxMonths int
	var withTranscripts bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the archive into index.json (and transcripts.json)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags.resolve(cmd, cfg)
			logger := ctx.loggerValue()

			yearList, err := scrape.ParseYears(years)
			if err != nil {
				return err
			}

			fetcher := adapter.NewFetcher(nil, cfg.Build.UserAgent, cfg.Build.Retries, logger)
			scraper := scrape.NewScraper(flags.baseURL, fetcher, logger)
			builder := scrape.NewBuilder(flags.out, logger)

			res, err := builder.Build(cmd.Context(), scraper, scrape.Options{
				Years:           yearList,
				MaxMonths:       maxMonths,
				WithTranscripts: withTranscripts,
				Delay:           flags.delay,
				Progress:        flags.progress(cmd.ErrOrStderr()),
				Status:          flags.status(cmd.ErrOrStderr()),
			})
			if err != nil {
				return fmt.Errorf("build catalog: %w", err)
			}
			printBuildResult(cmd.OutOrStdout(), res, builder)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.out, "out", "", "Output directory for index.json and transcripts.json")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "Archive site to scrape")
	cmd.Flags().DurationVar(&flags.delay, "delay", 0, "Delay between month pages")
	cmd.Flags().BoolVar(&flags.quiet, "quiet", false, "Disable progress output")
	cmd.Flags().StringVar(&years, "years", "", "Comma-separated years and ranges (e.g. 2025,2024-2020); defaults to all")
	cmd.Flags().IntVar(&maxMonths, "max-months", 0, "Limit months per year (0 = all)")
	cmd.Flags().BoolVar(&withTranscripts, "with-transcripts", false, "Fetch transcripts into transcripts.json")
	return cmd
}

func newBuildFeedCommand(ctx *commandContext) *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "feed <url>",
		Short: "Merge a podcast RSS feed into index.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags.resolve(cmd, cfg)
			logger := ctx.loggerValue()

			fetcher := adapter.NewFetcher(nil, cfg.Build.UserAgent, cfg.Build.Retries, logger)
			builder := scrape.NewBuilder(flags.out, logger)
			res, err := builder.ImportFeed(cmd.Context(), fetcher, args[0], flags.status(cmd.ErrOrStderr()))
			if err != nil {
				return fmt.Errorf("import feed: %w", err)
			}
			printBuildResult(cmd.OutOrStdout(), res, builder)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.out, "out", "", "Output directory for index.json")
	cmd.Flags().BoolVar(&flags.quiet, "quiet", false, "Disable progress output")
	return cmd
}
