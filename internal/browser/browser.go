package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"odpn-automation/internal/components/assert"
	"odpn-automation/internal/components/chrono"
	"odpn-automation/internal/components/telemetry"
	"odpn-automation/internal/odpn"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const (
	report_browser_open         = "browser.open"
	report_browser_notification = "browser.dismiss-notification"
	report_browser_capture      = "browser.capture"
	report_browser_post_data    = "browser.capture-post-data"
	report_browser_finalize     = "browser.finalize"
)

const (
	openAttempts = 3
	openBackoff  = 2 * time.Second
	readyTimeout = 10 * time.Second
	pollInterval = 250 * time.Millisecond
)

// noDeadline marks a wait that lasts until the caller's context ends, it is
// used where a human has to act in the browser first.
const noDeadline time.Duration = 0

type Options struct {
	Headless bool
	// Flags are extra Chrome switches, "--name=value" or "--name".
	Flags []string
	// WaitTimeout bounds each wait for an element, 20s when zero.
	WaitTimeout time.Duration
	// CaptureTimeout bounds Capture, 15s when zero.
	CaptureTimeout time.Duration
}

func (o Options) waitTimeout() time.Duration {
	if o.WaitTimeout <= 0 {
		return 20 * time.Second
	}
	return o.WaitTimeout
}

func (o Options) captureTimeout() time.Duration {
	if o.CaptureTimeout <= 0 {
		return 15 * time.Second
	}
	return o.CaptureTimeout
}

// parseFlag splits a command line switch into the name and value chromedp
// expects, a bare switch becomes true.
func parseFlag(flag string) (string, any, bool) {
	flag = strings.TrimSpace(flag)
	flag = strings.TrimLeft(flag, "-")
	if flag == "" {
		return "", nil, false
	}
	name, value, found := strings.Cut(flag, "=")
	if !found {
		return name, true, true
	}
	return name, value, true
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	out := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	for _, f := range opts.Flags {
		name, value, ok := parseFlag(f)
		if !ok {
			continue
		}
		out = append(out, chromedp.Flag(name, value))
	}
	return out
}

// Browser is one Chrome instance with one tab pointed at the portal.
type Browser struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	opts  Options
	rec   *recorder
	tel   telemetry.API
	clock chrono.API
}

// New starts Chrome and begins recording the grid requests the portal makes.
func New(ctx context.Context, opts Options, tel telemetry.API, clock chrono.API) (*Browser, error) {
	assert.NotNil(tel)
	assert.NotNil(clock)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	tab, cancelTab := chromedp.NewContext(allocCtx)

	b := &Browser{
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		opts:        opts,
		rec:         &recorder{},
		tel:         tel,
		clock:       clock,
	}

	chromedp.ListenTarget(tab, func(ev any) {
		if sent, ok := ev.(*network.EventRequestWillBeSent); ok {
			b.rec.observe(sent)
		}
	})

	err := chromedp.Run(tab, network.Enable())
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return b, nil
}

// run executes actions on the tab. The tab context outlives ctx, so ctx is
// bound to a child of it and its error wins over the one chromedp returns.
func (b *Browser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (b *Browser) waitReady(ctx context.Context) error {
	var ready bool
	return b.run(
		ctx, readyTimeout,
		chromedp.Poll(jsReadyState, &ready, chromedp.WithPollingInterval(pollInterval)),
	)
}

// Open loads https://<host> and returns the host the portal redirected to.
func (b *Browser) Open(ctx context.Context, host string) (string, error) {
	target := host
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	var lastErr error
	for attempt := 1; attempt <= openAttempts; attempt++ {
		var landed string
		err := b.run(ctx, readyTimeout, chromedp.Navigate(target))
		if err == nil {
			err = b.waitReady(ctx)
		}
		if err == nil {
			err = b.run(ctx, readyTimeout, chromedp.Location(&landed))
		}
		if err == nil {
			host, ok := landedHost(landed)
			if !ok {
				return "", fmt.Errorf("open %s: unexpected location %q", target, landed)
			}
			return host, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		b.tel.ReportWarning(report_browser_open, "attempt", attempt, "err", err)
		if attempt < openAttempts {
			err = b.clock.Sleep(ctx, openBackoff)
			if err != nil {
				return "", err
			}
		}
	}
	return "", fmt.Errorf("open %s after %d attempts: %w", target, openAttempts, lastErr)
}

// landedHost is the host name of the page the portal redirected to, without
// the port.
func landedHost(location string) (string, bool) {
	parsed, err := url.Parse(location)
	if err != nil || parsed.Hostname() == "" {
		return "", false
	}
	return parsed.Hostname(), true
}

// loginActions types the given credentials into emptied fields, autofilled
// values would otherwise be kept in front of them.
func loginActions(login, password string) []chromedp.Action {
	var actions []chromedp.Action
	if login != "" {
		actions = append(actions,
			chromedp.Clear(selLoginInput, chromedp.ByQuery),
			chromedp.SendKeys(selLoginInput, login, chromedp.ByQuery),
		)
	}
	if password != "" {
		actions = append(actions,
			chromedp.Clear(selPassword, chromedp.ByQuery),
			chromedp.SendKeys(selPassword, password, chromedp.ByQuery),
		)
	}
	return actions
}

// Login fills the login form. Without both credentials the operator logs in
// by hand and Login waits for the main menu without a deadline.
func (b *Browser) Login(ctx context.Context, login, password string) error {
	wait := b.opts.waitTimeout()

	err := b.run(ctx, wait, chromedp.WaitVisible(selLoginInput, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("wait for login form: %w", err)
	}

	actions := loginActions(login, password)
	if len(actions) > 0 {
		err = b.run(ctx, wait, actions...)
		if err != nil {
			return fmt.Errorf("fill login form: %w", err)
		}
	}

	if login == "" || password == "" {
		b.tel.ReportDebug("waiting for manual login")
		err = b.run(ctx, noDeadline, chromedp.WaitReady(selMainMenu, chromedp.ByQuery))
		if err != nil {
			return fmt.Errorf("wait for manual login: %w", err)
		}
		return nil
	}

	err = b.run(
		ctx, wait,
		chromedp.Click(selLoginButton, chromedp.ByQuery),
		chromedp.WaitReady(selMainMenu, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("log in: %w", err)
	}
	return nil
}

func toHTTPCookies(cookies []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, cookie)
	}
	return out
}

// Cookies returns the cookies of the logged in session.
func (b *Browser) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var cookies []*network.Cookie
	err := b.run(ctx, b.opts.waitTimeout(), chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	return toHTTPCookies(cookies), nil
}

// UserAgent returns the user agent of the browser so replayed requests look
// like they came from it.
func (b *Browser) UserAgent(ctx context.Context) (string, error) {
	var ua string
	err := b.run(ctx, readyTimeout, chromedp.Evaluate(`navigator.userAgent`, &ua))
	return ua, err
}

// DismissNotification closes the "new messages" box when it shows up within
// a few seconds and reports whether it did.
func (b *Browser) DismissNotification(ctx context.Context) (bool, error) {
	err := b.run(ctx, 3*time.Second, chromedp.WaitVisible(xpNotification, chromedp.BySearch))
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}

	err = b.run(ctx, b.opts.waitTimeout(), chromedp.Click(xpNotificationOK, chromedp.BySearch))
	if err != nil {
		b.tel.ReportWarning(report_browser_notification, "err", err)
		return false, fmt.Errorf("close notification: %w", err)
	}
	return true, b.clock.Sleep(ctx, time.Second)
}

func (b *Browser) Reload(ctx context.Context) error {
	err := b.run(ctx, readyTimeout, chromedp.Reload())
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return b.waitReady(ctx)
}

// OpenSettlement opens the subsidy settlement grid and expands the group of
// the given chapter.
func (b *Browser) OpenSettlement(ctx context.Context, chapter string) error {
	wait := b.opts.waitTimeout()
	err := b.run(
		ctx, wait,
		chromedp.WaitVisible(xpSettlementButton, chromedp.BySearch),
		chromedp.Click(xpSettlementButton, chromedp.BySearch),
		chromedp.WaitReady(selGridScroller, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("open settlement: %w", err)
	}

	if chapter == "" {
		return nil
	}
	title := xpGroupTitle(chapter)
	err = b.run(
		ctx, wait,
		chromedp.WaitVisible(title, chromedp.BySearch),
		chromedp.ScrollIntoView(title, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("find chapter %q: %w", chapter, err)
	}
	err = b.clock.Sleep(ctx, 500*time.Millisecond)
	if err != nil {
		return err
	}
	err = b.run(ctx, wait, chromedp.WaitReady(xpGroupBody(chapter), chromedp.BySearch))
	if err != nil {
		return fmt.Errorf("wait for chapter %q: %w", chapter, err)
	}
	return nil
}

// OpenExpenseForm opens the expense tab of a chapter. With chapterID 0 the
// operator picks the chapter by hand and the wait has no deadline.
func (b *Browser) OpenExpenseForm(ctx context.Context, chapterID int) error {
	wait := b.opts.waitTimeout()
	err := b.run(
		ctx, wait,
		chromedp.WaitVisible(selMainMenu, chromedp.ByQuery),
		chromedp.Click(selMainMenu, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("open menu: %w", err)
	}

	tabWait := wait
	if chapterID != 0 {
		pencil := selChapterPencil(chapterID)
		err = b.run(
			ctx, wait,
			chromedp.WaitVisible(pencil, chromedp.ByQuery),
			chromedp.Click(pencil, chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("open chapter %d: %w", chapterID, err)
		}
	} else {
		b.tel.ReportDebug("waiting for a chapter to be opened by hand")
		tabWait = noDeadline
	}

	expenses := xpTab("Wydatki")
	err = b.run(ctx, tabWait, chromedp.WaitVisible(expenses, chromedp.BySearch))
	if err != nil {
		return fmt.Errorf("wait for expense tab: %w", err)
	}
	err = b.run(
		ctx, wait,
		chromedp.Click(expenses, chromedp.BySearch),
		chromedp.WaitVisible(selAddButton, chromedp.ByQuery),
		chromedp.Click(selAddButton, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("open expense form: %w", err)
	}
	return nil
}

func (b *Browser) selectedGroup(ctx context.Context) string {
	var id string
	err := b.run(ctx, readyTimeout, chromedp.Evaluate(jsSelectedGroup, &id))
	if err != nil {
		return ""
	}
	return id
}

func scrollToCenter(xpath string) string {
	literal, _ := json.Marshal(xpath)
	return fmt.Sprintf(
		`(() => {
	const node = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!node) return false;
	node.scrollIntoView({block: 'center'});
	return true;
})()`,
		literal,
	)
}

// SelectMonth selects the row of a month and opens its documents tab. With a
// chapter the row is looked up inside that chapter's group only. Requests
// recorded before the call are discarded so the next Capture belongs to this
// month.
func (b *Browser) SelectMonth(ctx context.Context, month, chapter string) error {
	var xpath string
	if chapter != "" {
		group := b.selectedGroup(ctx)
		if group == "" {
			group = chapterGroupID(chapter)
		}
		b.tel.ReportDebug("selecting month", "month", month, "group", group)
		xpath = xpMonthInGroup(group, month)
	} else {
		xpath = xpMonthAnywhere(month)
	}

	wait := b.opts.waitTimeout()
	err := b.run(ctx, wait, chromedp.WaitVisible(xpath, chromedp.BySearch))
	if err != nil {
		return fmt.Errorf("find month %s: %w", month, err)
	}
	var scrolled bool
	err = b.run(ctx, wait, chromedp.Evaluate(scrollToCenter(xpath), &scrolled))
	if err != nil {
		return fmt.Errorf("scroll to month %s: %w", month, err)
	}
	err = b.clock.Sleep(ctx, 300*time.Millisecond)
	if err != nil {
		return err
	}

	b.rec.reset()

	err = b.run(
		ctx, wait,
		chromedp.Click(xpath, chromedp.BySearch),
		chromedp.WaitReady(xpSelectedMonth(month), chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("select month %s: %w", month, err)
	}

	documents := xpTab("Dokumenty")
	err = b.run(
		ctx, wait,
		chromedp.WaitVisible(documents, chromedp.BySearch),
		chromedp.Click(documents, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("open documents of %s: %w", month, err)
	}
	return nil
}

func (b *Browser) fetchPostData(ctx context.Context, id network.RequestID) (string, error) {
	var res network.GetRequestPostDataReturns
	err := b.run(ctx, readyTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return cdp.Execute(ctx, network.CommandGetRequestPostData, network.GetRequestPostData(id), &res)
	}))
	return res.PostData, err
}

// Capture waits for a grid request that carries a complete session and
// returns it.
func (b *Browser) Capture(ctx context.Context) (odpn.Capture, error) {
	deadline := b.clock.Now().Add(b.opts.captureTimeout())

	var seen []odpn.Request
	var lastErr error = odpn.ErrNoCapture
	for {
		for _, rec := range b.rec.drain() {
			if rec.missingBody {
				body, err := b.fetchPostData(ctx, rec.id)
				if err != nil {
					b.tel.ReportWarning(report_browser_post_data, "url", rec.req.URL, "err", err)
					continue
				}
				rec.req.PostData = body
			}
			seen = append(seen, rec.req)
		}

		capture, err := odpn.FindCapture(seen)
		if err == nil {
			return capture, nil
		}
		lastErr = err

		if !b.clock.Now().Before(deadline) {
			b.tel.ReportWarning(report_browser_capture, "inspected", len(seen), "err", lastErr)
			return odpn.Capture{}, lastErr
		}
		err = b.clock.Sleep(ctx, pollInterval)
		if err != nil {
			return odpn.Capture{}, err
		}
	}
}

// DocumentsHTML returns the page markup the document ids are read from.
func (b *Browser) DocumentsHTML(ctx context.Context) (string, error) {
	var html string
	err := b.run(ctx, b.opts.waitTimeout(), chromedp.OuterHTML(selDocument, &html, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("read documents: %w", err)
	}
	return html, nil
}

// Finalize hides the modal masks left by the replayed requests and returns
// to the start page.
func (b *Browser) Finalize(ctx context.Context) error {
	var hidden int
	wait := b.opts.waitTimeout()
	err := b.run(ctx, wait, chromedp.Evaluate(jsHideMasks, &hidden))
	if err != nil {
		b.tel.ReportWarning(report_browser_finalize, "step", "hide masks", "err", err)
	}
	b.tel.ReportDebug("hid masks", "count", hidden)

	err = b.run(
		ctx, wait,
		chromedp.WaitReady(selReturnPanel, chromedp.ByQuery),
		chromedp.Click(selReturnLink, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("return to start page: %w", err)
	}
	return nil
}

// Screenshot saves a full page PNG to path.
func (b *Browser) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	err := b.run(ctx, b.opts.waitTimeout(), chromedp.FullScreenshot(&buf, 100))
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf, 0644)
}

// Close quits Chrome.
func (b *Browser) Close() {
	b.cancelTab()
	b.cancelAlloc()
}
