// Package capture visits every question page of an aggregated course tree
// and saves a screenshot of the question element, skipping questions whose
// image already exists.
package capture

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/examshot/config"
	"github.com/use-agent/examshot/layout"
	"github.com/use-agent/examshot/models"
)

// Options configures a Runner.
type Options struct {
	// BaseDir is the root of the course tree.
	BaseDir string

	// Selector locates the element to capture (CSS or XPath).
	Selector string

	// WaitTimeout bounds the wait for the element to become visible.
	WaitTimeout time.Duration

	// ScrollOffset is scrolled back up after the element is in view.
	ScrollOffset int

	// Settle is the pause between scrolling and capturing.
	Settle time.Duration

	// Delay is the pause after each attempt before the next page load.
	Delay time.Duration

	// RunID tags log lines and the report. Generated when empty.
	RunID string
}

// OptionsFromConfig maps the capture settings of cfg to Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseDir:      cfg.Output.Dir,
		Selector:     cfg.Capture.Selector,
		WaitTimeout:  cfg.Capture.WaitTimeout,
		ScrollOffset: cfg.Capture.ScrollOffset,
		Settle:       cfg.Capture.Settle,
		Delay:        cfg.Capture.Delay,
	}
}

// Runner drives one Browser through all questions of a run, one at a time.
type Runner struct {
	browser  Browser
	opts     Options
	throttle *throttle
	log      *slog.Logger
}

// NewRunner creates a Runner. The browser is used exclusively by the runner
// for the duration of Run; closing it stays with the caller.
func NewRunner(b Browser, opts Options) *Runner {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Runner{
		browser:  b,
		opts:     opts,
		throttle: newThrottle(opts.Delay),
		log:      slog.With("run_id", opts.RunID),
	}
}

// RunID returns the identifier of this runner's run.
func (r *Runner) RunID() string {
	return r.opts.RunID
}

// Run captures every question of s in aggregation order. Per-question
// failures are logged and recorded in the report; only cancellation of
// ctx stops the run early, in which case the partial report and the
// context error are returned. A nil browser is accepted as long as every
// image already exists.
func (r *Runner) Run(ctx context.Context, s *models.Structure) (*Report, error) {
	report := &Report{
		RunID:     r.opts.RunID,
		StartedAt: time.Now(),
		Total:     s.Total(),
	}
	defer func() { report.FinishedAt = time.Now() }()

	r.log.Info("starting capture", "questions", report.Total, "base", r.opts.BaseDir)

	for _, c := range s.Courses {
		r.log.Info("processing course", "course", c.Name)
		for _, topic := range c.Topics {
			r.log.Info("processing topic", "course", c.Name, "topic", topic)
			for _, q := range c.Questions[topic] {
				if err := r.captureOne(ctx, report, c.Name, topic, q); err != nil {
					r.log.Warn("capture interrupted", "error", err)
					return report, err
				}
			}
		}
	}

	r.log.Info("capture finished",
		"saved", report.Saved,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// captureOne runs the per-question state machine. It returns an error only
// when ctx is done or there is no browser to load a missing question with.
func (r *Runner) captureOne(ctx context.Context, report *Report, course, topic string, q models.Question) error {
	log := r.log.With("course", course, "topic", topic, "number", q.Number)
	path := layout.QuestionPath(r.opts.BaseDir, course, topic, q.Number)

	if layout.Exists(path) {
		log.Info("screenshot already exists, skipping", "path", path)
		report.record(StatusSkipped, nil)
		return nil
	}

	if r.browser == nil {
		return models.NewError(models.ErrCodeBrowser, "no browser to capture "+path, nil)
	}
	if err := r.throttle.wait(ctx); err != nil {
		return err
	}

	log.Info("capturing screenshot", "url", q.URL)
	size, err := r.attempt(ctx, path, q.URL)
	r.throttle.done()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Error("screenshot failed", "url", q.URL, "error", err)
		code := models.CodeOf(err)
		if code == "" {
			code = models.ErrCodeCapture
		}
		report.record(StatusFailed, &Failure{
			Course:  course,
			Topic:   topic,
			Number:  q.Number,
			URL:     q.URL,
			Code:    code,
			Message: err.Error(),
		})
		return nil
	}

	log.Info("screenshot saved", "path", path, "bytes", size)
	report.record(StatusSaved, nil)
	return nil
}

// attempt loads the page, waits for the element, frames and captures it,
// and writes the image to path.
func (r *Runner) attempt(ctx context.Context, path, url string) (int, error) {
	if err := r.browser.Navigate(ctx, url); err != nil {
		return 0, coded(err, models.ErrCodeNavigation, "navigation failed")
	}

	el, err := r.browser.WaitVisible(ctx, r.opts.Selector, r.opts.WaitTimeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, coded(err, models.ErrCodeTimeout, "element did not become visible")
		}
		return 0, coded(err, models.ErrCodeCapture, "element lookup failed")
	}

	if err := el.ScrollIntoView(ctx, -r.opts.ScrollOffset); err != nil {
		return 0, coded(err, models.ErrCodeCapture, "scroll failed")
	}
	if err := pause(ctx, r.opts.Settle); err != nil {
		return 0, err
	}

	img, err := el.Screenshot(ctx)
	if err != nil {
		return 0, coded(err, models.ErrCodeCapture, "screenshot failed")
	}
	if len(img) == 0 {
		return 0, models.NewError(models.ErrCodeCapture, "screenshot is empty", nil)
	}

	if err := layout.WriteFile(path, img); err != nil {
		return 0, models.NewError(models.ErrCodeFilesystem, "failed to write "+path, err)
	}
	return len(img), nil
}

// coded keeps an existing error code and assigns code otherwise.
func coded(err error, code, msg string) error {
	if models.CodeOf(err) != "" {
		return err
	}
	return models.NewError(code, msg, err)
}

// pause sleeps for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending counts the questions of s that have no image under base yet.
func Pending(s *models.Structure, base string) int {
	n := 0
	for _, c := range s.Courses {
		for _, topic := range c.Topics {
			for _, q := range c.Questions[topic] {
				if !layout.Exists(layout.QuestionPath(base, c.Name, topic, q.Number)) {
					n++
				}
			}
		}
	}
	return n
}
