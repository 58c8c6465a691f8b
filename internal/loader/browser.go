package loader

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rota-da-festa/internal/logger"
)

// DefaultUserAgent is a desktop Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserOptions tunes the rendering pass
type BrowserOptions struct {
	Headless        bool
	UserAgent       string
	NavigateTimeout time.Duration
	// WaitSelectors are fixture containers; the wait ends on the first visible one.
	WaitSelectors []string
	WaitTimeout   time.Duration
	SettleDelay   time.Duration
	ScrollPause   time.Duration
	MaxScrolls    int
	MaxShowMore   int
	ConsentLabels []string
	ShowMoreTexts []string
}

// DefaultBrowserOptions returns the options used for zerozero.pt
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		Headless:        true,
		UserAgent:       DefaultUserAgent,
		NavigateTimeout: 60 * time.Second,
		WaitTimeout:     10 * time.Second,
		SettleDelay:     3 * time.Second,
		ScrollPause:     time.Second,
		MaxScrolls:      10,
		MaxShowMore:     15,
		ConsentLabels:   []string{"Aceitar", "Concordo"},
		ShowMoreTexts:   []string{"Ver mais", "Mostrar mais"},
	}
}

// Browser is a headless Chrome session. Each Render opens a new tab.
type Browser struct {
	opts          BrowserOptions
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// OpenBrowser launches Chrome. Failure here is fatal for a run.
func OpenBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(1366, 900),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		if os.Getenv("ROTA_CHROME_DEBUG") == "1" {
			logger.Debug("chromedp", logger.Fields{"message": fmt.Sprintf(format, v...)})
		}
	}))

	// The first Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, errors.Wrap(err, "launching browser")
	}

	return &Browser{
		opts:          opts,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close shuts the browser down
func (b *Browser) Close() error {
	if b == nil || b.browserCtx == nil {
		return nil
	}
	err := chromedp.Cancel(b.browserCtx)
	b.browserCancel()
	b.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "closing browser")
	}
	return nil
}

// Render navigates a fresh tab to url and returns its settled markup
func (b *Browser) Render(ctx context.Context, url string, acceptConsent bool) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	// Allocate the tab before any step timeout is attached to it.
	if err := chromedp.Run(tabCtx); err != nil {
		return Page{}, errors.Wrap(err, "opening tab")
	}

	if err := b.step(tabCtx, b.opts.NavigateTimeout, chromedp.Navigate(url)); err != nil {
		return Page{}, errors.Wrapf(err, "navigating to %s", url)
	}

	if acceptConsent && len(b.opts.ConsentLabels) > 0 {
		var clicked bool
		if err := b.step(tabCtx, 5*time.Second, chromedp.Evaluate(clickByTextJS(b.opts.ConsentLabels, false), &clicked)); err != nil {
			logger.Debug("consent dialog not handled", logger.Fields{"url": url, "error": err.Error()})
		}
	}

	if len(b.opts.WaitSelectors) > 0 {
		sel := strings.Join(b.opts.WaitSelectors, ", ")
		if err := b.step(tabCtx, b.opts.WaitTimeout, chromedp.WaitVisible(sel, chromedp.ByQuery)); err != nil {
			logger.Debug("fixture containers not visible, continuing", logger.Fields{"url": url, "selector": sel})
		}
	}

	if err := chromedp.Run(tabCtx, chromedp.Sleep(b.opts.SettleDelay)); err != nil {
		return Page{}, errors.Wrap(err, "settling page")
	}

	b.scrollToEnd(tabCtx)
	b.expandShowMore(tabCtx)

	var page Page
	err := b.step(tabCtx, 15*time.Second,
		chromedp.Title(&page.Title),
		chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery),
	)
	if err != nil {
		return Page{}, errors.Wrap(err, "reading page")
	}
	return page, nil
}

// scrollToEnd scrolls until the document height stops growing
func (b *Browser) scrollToEnd(ctx context.Context) {
	var last float64
	for i := 0; i < b.opts.MaxScrolls; i++ {
		var height float64
		err := b.step(ctx, 5*time.Second,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`, &height),
			chromedp.Sleep(b.opts.ScrollPause),
		)
		if err != nil || height <= last {
			return
		}
		last = height
	}
}

// expandShowMore clicks a visible "show more" control until none is left
func (b *Browser) expandShowMore(ctx context.Context) {
	if len(b.opts.ShowMoreTexts) == 0 {
		return
	}
	js := clickByTextJS(b.opts.ShowMoreTexts, true)
	for i := 0; i < b.opts.MaxShowMore; i++ {
		var clicked bool
		err := b.step(ctx, 5*time.Second,
			chromedp.Evaluate(js, &clicked),
		)
		if err != nil || !clicked {
			return
		}
		if err := chromedp.Run(ctx, chromedp.Sleep(b.opts.ScrollPause)); err != nil {
			return
		}
	}
}

func (b *Browser) step(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		return chromedp.Run(ctx, actions...)
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(stepCtx, actions...)
}

// clickByTextJS returns a script that clicks the first button or link whose
// text starts with one of labels and evaluates to whether it clicked.
func clickByTextJS(labels []string, visibleOnly bool) string {
	encoded, err := sonic.MarshalString(labels)
	if err != nil {
		encoded = "[]"
	}
	return fmt.Sprintf(`(function(labels, visibleOnly) {
  var els = document.querySelectorAll('button, a, [role="button"]');
  for (var i = 0; i < els.length; i++) {
    var el = els[i];
    if (visibleOnly && el.offsetParent === null) continue;
    var text = (el.innerText || '').trim();
    for (var j = 0; j < labels.length; j++) {
      if (text.indexOf(labels[j]) === 0) { el.click(); return true; }
    }
  }
  return false;
})(%s, %t)`, encoded, visibleOnly)
}
