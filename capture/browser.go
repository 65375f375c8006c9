package capture

import (
	"context"
	"time"
)

// Browser is the page-loading capability the capture loop drives.
// Implementations are used sequentially by one goroutine.
type Browser interface {
	// Navigate loads url in the shared page.
	Navigate(ctx context.Context, url string) error

	// WaitVisible waits up to timeout for the element matched by selector
	// to become visible.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) (Element, error)
}

// Element is a located page element.
type Element interface {
	// ScrollIntoView brings the element into view, then scrolls the window
	// by offsetY pixels.
	ScrollIntoView(ctx context.Context, offsetY int) error

	// Screenshot returns a PNG clipped to the element's box.
	Screenshot(ctx context.Context) ([]byte, error)
}
