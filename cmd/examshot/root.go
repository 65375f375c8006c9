package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/use-agent/examshot/config"
	"github.com/use-agent/examshot/models"
)

// flags holds command line values; only flags the user set override the
// loaded configuration.
type flags struct {
	configFile string
	envFile    string

	out        string
	delay      time.Duration
	timeout    time.Duration
	navTimeout time.Duration
	selector   string
	window     string
	headless   bool
	noSandbox  bool
	browserBin string
	proxy      string
	stealth    bool
	overlays   bool
	offset     int
	settle     time.Duration
	copySource bool

	logLevel  string
	logFormat string

	webhookURL string

	topic string
	start int
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	var cfg *config.Config

	root := &cobra.Command{
		Use:   "examshot",
		Short: "Capture exam question screenshots into a course/topic folder tree",
		Long: `examshot visits every question link of a spreadsheet or link list,
waits for the question block to render and saves it as
<out>/<COURSE>/Domande/Topic<N>/<number>.png.

Questions whose image already exists are skipped, so rerunning the same
command only fills the gaps left by earlier runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(f.envFile, f.configFile)
			if err != nil {
				return err
			}
			if err := f.apply(cmd.Flags(), loaded); err != nil {
				return err
			}
			initLogger(loaded.Log)
			cfg = loaded
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "YAML config file")
	pf.StringVar(&f.envFile, "env-file", "", ".env file to load before reading EXAMSHOT_* variables")
	pf.StringVarP(&f.out, "out", "o", "", "base output directory (default \"output\")")
	pf.DurationVar(&f.delay, "delay", 0, "pause after each capture attempt (default 2s)")
	pf.DurationVar(&f.timeout, "timeout", 0, "wait limit for the question element (default 30s)")
	pf.DurationVar(&f.navTimeout, "nav-timeout", 0, "page load limit (default 60s)")
	pf.StringVar(&f.selector, "selector", "", "CSS or XPath selector of the element to capture")
	pf.StringVar(&f.window, "window", "", "browser window size WIDTHxHEIGHT (default 7680x4320)")
	pf.BoolVar(&f.headless, "headless", true, "run the browser headless")
	pf.BoolVar(&f.noSandbox, "no-sandbox", true, "disable the Chrome sandbox")
	pf.StringVar(&f.browserBin, "browser-bin", "", "Chromium binary path")
	pf.StringVar(&f.proxy, "proxy", "", "proxy URL for page loads")
	pf.BoolVar(&f.stealth, "stealth", true, "mask browser automation fingerprints")
	pf.BoolVar(&f.overlays, "remove-overlays", false, "remove cookie banners and popups before capturing")
	pf.IntVar(&f.offset, "scroll-offset", 0, "pixels to scroll back above the element (default 100)")
	pf.DurationVar(&f.settle, "settle", 0, "pause between scrolling and capturing (default 500ms)")
	pf.BoolVar(&f.copySource, "copy-source", true, "copy the source spreadsheet into each course folder")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&f.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&f.webhookURL, "webhook-url", "", "URL notified with the run summary")

	root.AddCommand(
		newSheetCmd(func() *config.Config { return cfg }),
		newLinksCmd(f, func() *config.Config { return cfg }),
	)
	return root
}

// apply copies every flag the user set onto cfg.
func (f *flags) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}

	set("out", func() { cfg.Output.Dir = f.out })
	set("delay", func() { cfg.Capture.Delay = f.delay })
	set("timeout", func() { cfg.Capture.WaitTimeout = f.timeout })
	set("nav-timeout", func() { cfg.Browser.NavigationTimeout = f.navTimeout })
	set("selector", func() { cfg.Capture.Selector = f.selector })
	set("headless", func() { cfg.Browser.Headless = f.headless })
	set("no-sandbox", func() { cfg.Browser.NoSandbox = f.noSandbox })
	set("browser-bin", func() { cfg.Browser.BrowserBin = f.browserBin })
	set("proxy", func() { cfg.Browser.Proxy = f.proxy })
	set("stealth", func() { cfg.Browser.Stealth = f.stealth })
	set("remove-overlays", func() { cfg.Browser.RemoveOverlays = f.overlays })
	set("scroll-offset", func() { cfg.Capture.ScrollOffset = f.offset })
	set("settle", func() { cfg.Capture.Settle = f.settle })
	set("copy-source", func() { cfg.Output.CopySource = f.copySource })
	set("log-level", func() { cfg.Log.Level = f.logLevel })
	set("log-format", func() { cfg.Log.Format = f.logFormat })
	set("webhook-url", func() { cfg.Webhook.URL = f.webhookURL })
	set("topic", func() { cfg.Input.Topic = f.topic })
	set("start", func() { cfg.Input.Start = f.start })

	if fs.Changed("window") {
		w, h, err := config.ParseWindow(f.window)
		if err != nil {
			return models.NewError(models.ErrCodeInput, "invalid --window", err)
		}
		cfg.Browser.WindowWidth, cfg.Browser.WindowHeight = w, h
	}
	return nil
}
