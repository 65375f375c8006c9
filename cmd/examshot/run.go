package main

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/use-agent/examshot/capture"
	"github.com/use-agent/examshot/catalog"
	"github.com/use-agent/examshot/config"
	"github.com/use-agent/examshot/layout"
	"github.com/use-agent/examshot/models"
	"github.com/use-agent/examshot/scraper"
	"github.com/use-agent/examshot/sheet"
	"github.com/use-agent/examshot/webhook"
)

func newSheetCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sheet <file.xlsx|file.csv>",
		Short: "Capture every question listed in a spreadsheet (columns Numero, Link, Topic)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if len(args) == 1 {
				c.Input.Source = args[0]
			}
			if err := c.Validate(); err != nil {
				return err
			}

			slog.Info("reading spreadsheet", "file", c.Input.Source)
			rows, err := sheet.ReadRows(c.Input.Source)
			if err != nil {
				return err
			}

			source := ""
			if c.Output.CopySource {
				source = c.Input.Source
			}
			return run(cmd.Context(), c, rows, source)
		},
	}
}

func newLinksCmd(f *flags, cfg func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links <file.txt|file.html>",
		Short: "Capture the links of a plain-text or HTML link list",
		Long: `Capture the links of a link list. Plain-text files hold one URL per line;
HTML files contribute the absolute targets of their anchors. Links are
numbered from --start; --topic assigns one topic to all of them, otherwise
each topic is read from its URL.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if len(args) == 1 {
				c.Input.Source = args[0]
			}
			if err := c.Validate(); err != nil {
				return err
			}

			slog.Info("reading link list", "file", c.Input.Source, "start", c.Input.Start, "topic", c.Input.Topic)
			rows, err := sheet.ReadLinks(c.Input.Source, c.Input.Start, c.Input.Topic)
			if err != nil {
				return err
			}
			return run(cmd.Context(), c, rows, "")
		},
	}
	cmd.Flags().StringVar(&f.topic, "topic", "", "topic number for every link (default: parsed from each URL)")
	cmd.Flags().IntVar(&f.start, "start", 1, "sequence number of the first link")
	return cmd
}

// run takes parsed rows through aggregation, provisioning and capture.
// source, when set, is copied into every course folder.
func run(ctx context.Context, cfg *config.Config, rows []models.Row, source string) (err error) {
	runID := uuid.NewString()
	log := slog.With("run_id", runID)

	var report *capture.Report
	defer func() {
		event := runEvent(runID, report, err)
		webhook.Notify(context.WithoutCancel(ctx), cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.Timeout, event)
	}()

	// ── 1. Group rows by course and topic ───────────────────────────
	structure, err := catalog.Aggregate(rows)
	if err != nil {
		return err
	}
	log.Info("questions organised", "rows", len(rows), "courses", len(structure.Courses), "questions", structure.Total())

	// ── 2. Create the folder tree ───────────────────────────────────
	if err := layout.Provision(structure, cfg.Output.Dir, source); err != nil {
		return err
	}
	if structure.Total() == 0 {
		log.Info("nothing to capture")
		return nil
	}

	opts := capture.OptionsFromConfig(cfg)
	opts.RunID = runID

	// ── 3. Launch the browser only when there is work left ──────────
	if pending := capture.Pending(structure, cfg.Output.Dir); pending == 0 {
		log.Info("all screenshots already captured", "questions", structure.Total())
		report, err = capture.NewRunner(nil, opts).Run(ctx, structure)
		return err
	}

	sc, err := scraper.New(cfg.Browser)
	if err != nil {
		return err
	}
	defer sc.Close()

	// ── 4. Capture ──────────────────────────────────────────────────
	report, err = capture.NewRunner(sc, opts).Run(ctx, structure)
	if err != nil {
		return err
	}

	log.Info("run completed",
		"saved", report.Saved,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	for _, f := range report.Failures {
		log.Warn("missing screenshot",
			"course", f.Course,
			"topic", f.Topic,
			"number", f.Number,
			"url", f.URL,
			"code", f.Code,
		)
	}
	return nil
}

// runEvent builds the webhook event for a finished run. The report is
// attached only when capture started.
func runEvent(runID string, report *capture.Report, err error) *webhook.Event {
	event := &webhook.Event{Type: webhook.EventRunCompleted, RunID: runID}
	if report != nil {
		event.Data = report
	}
	if err != nil {
		event.Type = webhook.EventRunFailed
		event.Error = err.Error()
	}
	return event
}
