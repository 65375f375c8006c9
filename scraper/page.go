package scraper

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/examshot/capture"
	"github.com/use-agent/examshot/config"
	"github.com/use-agent/examshot/models"
	"github.com/ysmood/gson"
)

var _ capture.Browser = (*Scraper)(nil)

// Navigate loads target in the shared page and waits for the load event,
// bounded by the navigation timeout.
//
// Lifecycle:
//
//  1. Timeout guard     – navigation and load share one deadline
//  2. Referer header    – a search-engine referer for the target host
//  3. Navigate + load   – page.Navigate then WaitLoad
//  4. Overlays          – optional removal of banners and popups
func (s *Scraper) Navigate(ctx context.Context, target string) error {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	// ── 2. Referer header ─────────────────────────────────────────────
	if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
		headers := map[string]string{
			"Referer": "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()),
		}
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(s.page)
	}

	// ── 3. Navigate + load ────────────────────────────────────────────
	p := s.page.Context(navCtx)
	if err := p.Navigate(target); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}
	if err := p.WaitLoad(); err != nil {
		return categorizeError(err, "page did not finish loading")
	}

	// ── 4. Overlays ───────────────────────────────────────────────────
	if s.cfg.RemoveOverlays {
		removeOverlays(p)
	}
	return nil
}

// WaitVisible waits up to timeout for selector (CSS or XPath) to match a
// visible element of the current page.
func (s *Scraper) WaitVisible(ctx context.Context, selector string, timeout time.Duration) (capture.Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := s.page.Context(waitCtx)

	var (
		el  *rod.Element
		err error
	)
	if config.IsXPath(selector) {
		el, err = p.ElementX(selector)
	} else {
		el, err = p.Element(selector)
	}
	if err == nil {
		err = el.WaitVisible()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, models.NewError(models.ErrCodeTimeout,
				"element "+selector+" not visible after "+timeout.String(), err)
		}
		return nil, models.NewError(models.ErrCodeCapture, "element lookup failed", err)
	}

	return &element{el: el}, nil
}

// element adapts a rod element to capture.Element. Calls rebind the
// element to the caller's context, since the lookup context is gone.
type element struct {
	el *rod.Element
}

func (e *element) ScrollIntoView(ctx context.Context, offsetY int) error {
	_, err := e.el.Context(ctx).Eval(`(dy) => {
		this.scrollIntoView(true);
		window.scrollBy(0, dy);
	}`, offsetY)
	if err != nil {
		return models.NewError(models.ErrCodeCapture, "scroll into view failed", err)
	}
	return nil
}

func (e *element) Screenshot(ctx context.Context) ([]byte, error) {
	img, err := e.el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, models.NewError(models.ErrCodeCapture, "element screenshot failed", err)
	}
	return img, nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// removeOverlays injects JS to remove fixed/sticky positioned elements with
// a high z-index, typically cookie consent banners and popup overlays.
func removeOverlays(p *rod.Page) {
	const js = `() => {
		for (const el of document.querySelectorAll('*')) {
			const style = window.getComputedStyle(el);
			if (style.position !== 'fixed' && style.position !== 'sticky') continue;
			if (parseInt(style.zIndex, 10) >= 900) el.remove();
		}
		const selectors = [
			'[class*="cookie"]', '[id*="cookie"]',
			'[class*="consent"]', '[id*="consent"]',
			'[class*="gdpr"]', '[id*="gdpr"]',
			'[class*="popup"]', '[id*="popup"]',
		];
		for (const sel of selectors) {
			document.querySelectorAll(sel).forEach(el => {
				const pos = window.getComputedStyle(el).position;
				if (pos === 'fixed' || pos === 'sticky') el.remove();
			});
		}
		document.documentElement.style.overflow = '';
		document.body.style.overflow = '';
	}`
	_, _ = p.Eval(js)
}

// categorizeError wraps raw navigation errors into coded errors.
func categorizeError(err error, msg string) *models.Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewError(models.ErrCodeNavigation, msg+" (timed out)", err)
	case errors.Is(err, context.Canceled):
		return models.NewError(models.ErrCodeNavigation, "navigation canceled", err)
	default:
		return models.NewError(models.ErrCodeNavigation, msg, err)
	}
}
