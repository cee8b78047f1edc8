package runner

import (
	"context"
	"errors"
	"fmt"

	"odpn-automation/internal/expenses"
	"odpn-automation/internal/journal"
	"odpn-automation/internal/odpn"
	"odpn-automation/internal/report"
)

const (
	reasonSelectMonth = "Nie udało się otworzyć miesiąca"
	reasonCapture     = "Nie przechwycono danych sesji"
	reasonSend        = "Błąd wysyłania"
)

// Input is one CSV file prepared for submission.
type Input struct {
	File   string
	Hash   string
	RunID  string
	Layout expenses.Layout
	Rows   []expenses.Row
}

func monthLabel(m expenses.Month) string {
	if !m.Valid() {
		return ""
	}
	return m.Name()
}

// rowReason renders a mapping error, unknown categories get the closest
// known one appended.
func rowReason(layout expenses.Layout, chapter, category string, err error) string {
	reason := expenses.Reason(err)
	if errors.Is(err, expenses.ErrUnknownCategory) {
		if suggestion, ok := expenses.Suggest(layout, chapter, category); ok {
			reason = fmt.Sprintf("%s (czy chodziło o '%s'?)", reason, suggestion)
		}
	}
	return reason
}

func (r *Runner) monthChapter(layout expenses.Layout) string {
	if layout.ScopedMonths() {
		return r.opts.Chapter
	}
	return ""
}

func (r *Runner) navigate(ctx context.Context, layout expenses.Layout) error {
	if layout.Monthly() {
		return r.portal.OpenSettlement(ctx, r.opts.Chapter)
	}
	return r.portal.OpenExpenseForm(ctx, r.opts.ChapterID)
}

// Submit enters every row of in. Problems with single rows or months end up
// in the report, the returned error is for failures that stop the run.
func (r *Runner) Submit(ctx context.Context, in Input) (report.Report, error) {
	rep := report.Report{
		Action:  "Wysyłanie",
		File:    in.File,
		RunID:   in.RunID,
		DryRun:  r.opts.DryRun,
		Total:   len(in.Rows),
		Started: r.clock.Now(),
	}
	err := r.submit(ctx, in, &rep)
	rep.Finished = r.clock.Now()
	return rep, err
}

func (r *Runner) submit(ctx context.Context, in Input, rep *report.Report) error {
	groups, rejected := expenses.Group(in.Layout, in.Rows)
	for _, rej := range rejected {
		rep.Fail(rej.Row, "", expenses.Reason(rej.Err))
	}

	done := map[int]bool{}
	if r.opts.Resume && r.journal != nil && in.Hash != "" {
		var err error
		done, err = r.journal.Succeeded(ctx, in.Hash)
		if err != nil {
			return fmt.Errorf("read journal: %w", err)
		}
	}

	poster, err := r.connect(ctx)
	if err != nil {
		return err
	}
	err = r.navigate(ctx, in.Layout)
	if err != nil {
		return err
	}

	for _, group := range groups {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.submitMonth(ctx, poster, in, group, done, rep)
	}

	r.finalize(ctx)
	return nil
}

func (r *Runner) failGroup(rep *report.Report, group expenses.MonthGroup, reason string) {
	for _, e := range group.Entries {
		rep.Fail(e.Row.Number, monthLabel(group.Month), reason)
	}
}

func (r *Runner) submitMonth(
	ctx context.Context,
	poster Poster,
	in Input,
	group expenses.MonthGroup,
	done map[int]bool,
	rep *report.Report,
) {
	month := monthLabel(group.Month)

	pending := make([]expenses.Entry, 0, len(group.Entries))
	for _, e := range group.Entries {
		if done[e.Row.Number] {
			rep.Skipped++
			continue
		}
		pending = append(pending, e)
	}
	if len(pending) == 0 {
		r.tel.ReportDebug("month already submitted", "month", group.Month.String())
		return
	}
	group.Entries = pending

	if in.Layout.Monthly() {
		err := r.portal.SelectMonth(ctx, group.Month.Name(), r.monthChapter(in.Layout))
		if err != nil {
			r.tel.ReportWarning(report_runner_select, "month", group.Month.String(), "err", err)
			r.failGroup(rep, group, reasonSelectMonth)
			return
		}
	}

	capture, err := r.portal.Capture(ctx)
	if err != nil {
		r.tel.ReportWarning(report_runner_capture, "month", group.Month.String(), "err", err)
		r.failGroup(rep, group, reasonCapture)
		return
	}
	r.dump("capture_"+group.Month.Code(), capture)

	session := capture.Session
	chapter := session.ChapterName()
	names := session.FieldNames()
	r.tel.ReportDebug("session captured", "month", group.Month.String(), "chapter", chapter, "fields", len(names))

	for _, e := range group.Entries {
		entry := journal.Entry{
			RunID:    in.RunID,
			FileHash: in.Hash,
			FileName: in.File,
			Row:      e.Row.Number,
			Month:    group.Month.Code(),
			Category: e.Category,
		}

		payload, err := buildPayload(in.Layout, session, chapter, names, e)
		if err != nil {
			reason := rowReason(in.Layout, chapter, e.Category, err)
			rep.Fail(e.Row.Number, month, reason)
			entry.Status = journal.StatusFailed
			entry.Detail = reason
			r.record(ctx, entry)
			continue
		}

		if r.opts.DryRun {
			r.tel.ReportDebug("dry run", "row", e.Row.Number, "payload", payload)
			rep.Sent++
			entry.Status = journal.StatusDryRun
			r.record(ctx, entry)
			continue
		}

		err = poster.SubmitForm(ctx, payload)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.tel.ReportWarning(report_runner_submit, "row", e.Row.Number, "err", err)
			rep.Fail(e.Row.Number, month, reasonSend)
			entry.Status = journal.StatusFailed
			entry.Detail = err.Error()
			r.record(ctx, entry)
			continue
		}

		rep.Sent++
		entry.Status = journal.StatusSent
		r.record(ctx, entry)
	}
}

func buildPayload(
	layout expenses.Layout,
	session odpn.Session,
	chapter string,
	names []string,
	e expenses.Entry,
) (odpn.Payload, error) {
	pos, err := layout.Position(e.Category, chapter)
	if err != nil {
		return nil, err
	}
	fields, err := layout.Fields(e.Row.Cells, names)
	if err != nil {
		return nil, err
	}
	return odpn.NewPayload(session, pos, fields), nil
}
