package scraper

import (
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/examshot/config"
	"github.com/use-agent/examshot/models"
)

// Scraper owns one browser process and the single page every question is
// loaded into. It is not safe for concurrent use.
type Scraper struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
	cfg      config.BrowserConfig
}

// New launches the browser and prepares the shared page: viewport, stealth
// script and request hijacking. Call Close when done, also on error paths.
func New(cfg config.BrowserConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewError(models.ErrCodeBrowser, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL,
		"window", fmt.Sprintf("%dx%d", cfg.WindowWidth, cfg.WindowHeight))

	browser := rod.New().ControlURL(controlURL).NoDefaultDevice()
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewError(models.ErrCodeBrowser, "failed to connect to browser", err)
	}

	s := &Scraper{launcher: l, browser: browser, cfg: cfg}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, models.NewError(models.ErrCodeBrowser, "failed to open page", err)
	}
	s.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.WindowWidth,
		Height:            cfg.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		s.Close()
		return nil, models.NewError(models.ErrCodeBrowser, "failed to set viewport", err)
	}

	// Must be installed before the first navigation to take effect.
	if cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	s.router = setupHijack(page, cfg.BlockedResourceTypes, cfg.BlockAds)

	return s, nil
}

// Close stops request hijacking, closes the page and kills the browser.
func (s *Scraper) Close() {
	slog.Info("closing browser")
	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			slog.Debug("hijack router stop failed", "error", err)
		}
	}
	if s.page != nil {
		_ = s.page.Close()
	}
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed, killing process", "error", err)
		s.launcher.Kill()
		return
	}
	s.launcher.Cleanup()
	slog.Info("browser closed")
}
