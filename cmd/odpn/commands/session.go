package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"odpn-automation/internal/browser"
	"odpn-automation/internal/components/chrono"
	"odpn-automation/internal/components/telemetry"
	"odpn-automation/internal/expenses"
	"odpn-automation/internal/journal"
	"odpn-automation/internal/odpn"
	"odpn-automation/internal/report"
	"odpn-automation/internal/runner"
	"odpn-automation/lib/restyutil"
	"odpn-automation/lib/util/serviceutil"
)

const (
	defaultJournal = ".odpn/journal.db"
	httpDumpDir    = ".dev/resty/odpn"
)

type actionFlags struct {
	file   string
	dryRun bool
	resume bool
}

func mustLoadConfig() Config {
	cfg, err := loadConfig(configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func journalPath(cfg Config) string {
	if cfg.Journal == "" {
		return defaultJournal
	}
	return cfg.Journal
}

func posterFactory(cfg Config, tel telemetry.API) (runner.PosterFactory, error) {
	var output restyutil.InstrumentOutput
	if verbose {
		fs, err := restyutil.NewFilesystemOutput(httpDumpDir)
		if err != nil {
			return nil, err
		}
		output = fs
		slog.Debug("dumping http exchanges", "dir", fs.Directory())
	}

	return func(baseURL, userAgent string, cookies []*http.Cookie) (runner.Poster, error) {
		return odpn.NewClient(odpn.ClientOptions{
			BaseURL:           baseURL,
			Cookies:           cookies,
			UserAgent:         userAgent,
			RequestsPerSecond: cfg.RequestRate(),
			Output:            output,
		}, telemetry.NewScopedAPI("odpn", tel))
	}, nil
}

// session is everything an action against the live portal needs.
type session struct {
	browser *browser.Browser
	journal journal.Store
	runner  *runner.Runner
}

func openSession(ctx context.Context, cfg Config, flags actionFlags) (*session, error) {
	layout, err := cfg.layout()
	if err != nil {
		return nil, err
	}
	err = cfg.requireSite(layout)
	if err != nil {
		return nil, err
	}
	schoolID, err := cfg.SchoolID()
	if err != nil {
		return nil, err
	}

	tel := telemetry.SlogAPI{}
	clock, err := chrono.NewStandardImpl()
	if err != nil {
		return nil, err
	}

	posters, err := posterFactory(cfg, tel)
	if err != nil {
		return nil, err
	}

	store, err := journal.Open(journalPath(cfg))
	if err != nil {
		return nil, err
	}

	b, err := browser.New(ctx, browser.Options{
		Headless:       cfg.Headless || headless,
		Flags:          cfg.ChromeFlags,
		CaptureTimeout: cfg.CaptureTimeout(),
	}, telemetry.NewScopedAPI("browser", tel), clock)
	if err != nil {
		store.Close()
		return nil, err
	}

	r := runner.New(b, posters, store, runner.Options{
		Host:       cfg.Site(layout),
		Login:      cfg.Login,
		Password:   cfg.Haslo,
		Chapter:    cfg.Chapter(layout),
		ChapterID:  cfg.ChapterID(),
		SchoolID:   schoolID,
		CaptureDir: cfg.CaptureDir,
		GridDelay:  cfg.GridDelay(),
		DryRun:     flags.dryRun,
		Resume:     flags.resume,
	}, telemetry.NewScopedAPI("runner", tel), clock)

	return &session{browser: b, journal: store, runner: r}, nil
}

func (s *session) Close() {
	s.browser.Close()
	err := s.journal.Close()
	if err != nil {
		slog.Warn("failed to close journal", "err", err)
	}
}

func submit(ctx context.Context, cfg Config, flags actionFlags) (report.Report, error) {
	layout, err := cfg.layout()
	if err != nil {
		return report.Report{Action: "Wysyłanie"}, err
	}
	file := cfg.InputFile(layout, flags.file)
	rep := report.Report{Action: "Wysyłanie", File: file, DryRun: flags.dryRun}

	rows, err := expenses.ReadFile(file, cfg.EncodingName())
	if err != nil {
		return rep, err
	}
	hash, err := journal.HashFile(file)
	if err != nil {
		return rep, err
	}
	runID, err := journal.NewRunID()
	if err != nil {
		return rep, err
	}
	slog.Info("submitting", "file", file, "layout", layout.Name(), "rows", len(rows), "run", runID)

	s, err := openSession(ctx, cfg, flags)
	if err != nil {
		return rep, err
	}
	defer s.Close()

	return s.runner.Submit(ctx, runner.Input{
		File:   file,
		Hash:   hash,
		RunID:  runID,
		Layout: layout,
		Rows:   rows,
	})
}

func clearDocuments(ctx context.Context, cfg Config, flags actionFlags) (report.Report, error) {
	layout, err := cfg.layout()
	if err != nil {
		return report.Report{Action: "Usuwanie"}, err
	}
	slog.Info("clearing documents", "layout", layout.Name(), "chapter", cfg.Chapter(layout))

	s, err := openSession(ctx, cfg, flags)
	if err != nil {
		return report.Report{Action: "Usuwanie"}, err
	}
	defer s.Close()

	return s.runner.Clear(ctx, layout)
}

// finish prints the report, mails it when configured and exits non-zero
// when the run was cut short.
func finish(ctx context.Context, cfg Config, rep report.Report, err error) {
	rep.Render(os.Stdout)

	if cfg.Smtp.Configured() && len(cfg.Notify) > 0 {
		mailErr := report.NewMailer(cfg.Smtp).Send(ctx, rep, cfg.Notify)
		if mailErr != nil {
			slog.Warn("failed to send report", "err", mailErr)
		}
	}

	if err != nil {
		serviceutil.Fatal(fmt.Sprintf("%s failed", rep.Action), err)
	}
}
