package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"odpn-automation/internal/components/assert"
	"odpn-automation/internal/components/chrono"
	"odpn-automation/internal/components/telemetry"
	"odpn-automation/internal/journal"
	"odpn-automation/internal/odpn"
)

const (
	report_runner_notification = "runner.dismiss-notification"
	report_runner_select       = "runner.select-month"
	report_runner_capture      = "runner.capture"
	report_runner_submit       = "runner.submit-row"
	report_runner_delete       = "runner.delete-document"
	report_runner_dump         = "runner.write-capture"
	report_runner_journal      = "runner.journal"
	report_runner_screenshot   = "runner.screenshot"
	report_runner_finalize     = "runner.finalize"
	report_runner_school       = "runner.change-school"
)

var ErrNotMonthly = errors.New("layout is not split by month")

// Portal is the browser session the runner navigates.
type Portal interface {
	Open(ctx context.Context, host string) (string, error)
	Login(ctx context.Context, login, password string) error
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	UserAgent(ctx context.Context) (string, error)
	DismissNotification(ctx context.Context) (bool, error)
	Reload(ctx context.Context) error
	OpenSettlement(ctx context.Context, chapter string) error
	OpenExpenseForm(ctx context.Context, chapterID int) error
	SelectMonth(ctx context.Context, month, chapter string) error
	Capture(ctx context.Context) (odpn.Capture, error)
	DocumentsHTML(ctx context.Context) (string, error)
	Finalize(ctx context.Context) error
	Screenshot(ctx context.Context, path string) error
}

// Poster replays requests on the portal with the browser's session.
type Poster interface {
	SubmitForm(ctx context.Context, payload odpn.Payload) error
	DeleteDocument(ctx context.Context, s odpn.Session, id int64) error
	ChangeSchool(ctx context.Context, schoolID int) error
}

// PosterFactory builds a Poster once the session cookies are known.
type PosterFactory func(baseURL, userAgent string, cookies []*http.Cookie) (Poster, error)

// Journal remembers the outcome of every submitted row.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) error
	Succeeded(ctx context.Context, fileHash string) (map[int]bool, error)
}

type Options struct {
	Host     string
	Login    string
	Password string

	// Chapter is the settlement group name ("bazowy", "Egzaminy", "80116").
	Chapter string
	// ChapterID picks the chapter of the expense form directly, 0 leaves it
	// to the operator.
	ChapterID int
	SchoolID  int

	CaptureDir string
	// GridDelay is how long the document grid gets to load before its ids
	// are read.
	GridDelay time.Duration

	DryRun bool
	Resume bool
}

type Runner struct {
	portal  Portal
	posters PosterFactory
	journal Journal
	opts    Options
	tel     telemetry.API
	clock   chrono.API
}

// New creates a Runner, journal may be nil.
func New(portal Portal, posters PosterFactory, journal Journal, opts Options, tel telemetry.API, clock chrono.API) *Runner {
	assert.NotNil(portal)
	assert.NotNil(posters)
	assert.NotNil(tel)
	assert.NotNil(clock)
	assert.NotEmptyStr(opts.Host)

	return &Runner{
		portal:  portal,
		posters: posters,
		journal: journal,
		opts:    opts,
		tel:     tel,
		clock:   clock,
	}
}

// connect opens the portal, logs in and switches school, it returns a poster
// bound to the session.
func (r *Runner) connect(ctx context.Context) (Poster, error) {
	host, err := r.portal.Open(ctx, r.opts.Host)
	if err != nil {
		return nil, err
	}
	r.tel.ReportDebug("portal opened", "host", host)

	err = r.portal.Login(ctx, r.opts.Login, r.opts.Password)
	if err != nil {
		return nil, err
	}
	r.dismissNotification(ctx)

	cookies, err := r.portal.Cookies(ctx)
	if err != nil {
		return nil, err
	}
	userAgent, err := r.portal.UserAgent(ctx)
	if err != nil {
		r.tel.ReportDebug("user agent unavailable", "err", err)
	}

	poster, err := r.posters("https://"+host, userAgent, cookies)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	if r.opts.SchoolID != 0 {
		err = r.changeSchool(ctx, poster)
		if err != nil {
			return nil, err
		}
	}
	return poster, nil
}

// changeSchool switches the session to the configured school. A failed switch
// leaves the session on the account's default school and the run goes on.
func (r *Runner) changeSchool(ctx context.Context, poster Poster) error {
	err := poster.ChangeSchool(ctx, r.opts.SchoolID)
	if err == nil {
		err = r.portal.Reload(ctx)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.tel.ReportWarning(report_runner_school, "school", r.opts.SchoolID, "err", err)
	}
	r.dismissNotification(ctx)
	return nil
}

func (r *Runner) dismissNotification(ctx context.Context) {
	closed, err := r.portal.DismissNotification(ctx)
	if err != nil {
		r.tel.ReportWarning(report_runner_notification, "err", err)
		return
	}
	if closed {
		r.tel.ReportDebug("closed new messages notification")
	}
}

func (r *Runner) finalize(ctx context.Context) {
	err := r.portal.Finalize(ctx)
	if err != nil {
		r.tel.ReportWarning(report_runner_finalize, "err", err)
	}
}

func (r *Runner) dump(name string, capture odpn.Capture) {
	if r.opts.CaptureDir == "" {
		return
	}
	path, err := odpn.WriteCaptureDump(r.opts.CaptureDir, name, []odpn.Capture{capture})
	if err != nil {
		r.tel.ReportWarning(report_runner_dump, "name", name, "err", err)
		return
	}
	r.tel.ReportDebug("capture written", "path", path)
}

func (r *Runner) screenshot(ctx context.Context, label string) {
	dir := r.opts.CaptureDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, fmt.Sprintf("blad_%s_%s.png", label, r.clock.Now().Format("20060102_150405")))
	err := r.portal.Screenshot(ctx, path)
	if err != nil {
		r.tel.ReportWarning(report_runner_screenshot, "path", path, "err", err)
		return
	}
	r.tel.ReportDebug("screenshot saved", "path", path)
}

func (r *Runner) record(ctx context.Context, e journal.Entry) {
	if r.journal == nil {
		return
	}
	e.CreatedAt = r.clock.Now()
	err := r.journal.Record(ctx, e)
	if err != nil {
		r.tel.ReportWarning(report_runner_journal, "row", e.Row, "err", err)
	}
}
