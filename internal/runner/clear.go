package runner

import (
	"context"
	"fmt"

	"odpn-automation/internal/expenses"
	"odpn-automation/internal/odpn"
	"odpn-automation/internal/report"
)

// Clear deletes every document of every month in the configured chapter.
// A month that cannot be opened or read is reported with a screenshot and
// the next month is processed.
func (r *Runner) Clear(ctx context.Context, layout expenses.Layout) (report.Report, error) {
	rep := report.Report{
		Action:  "Usuwanie",
		DryRun:  r.opts.DryRun,
		Started: r.clock.Now(),
	}
	err := r.clear(ctx, layout, &rep)
	rep.Finished = r.clock.Now()
	return rep, err
}

func (r *Runner) clear(ctx context.Context, layout expenses.Layout, rep *report.Report) error {
	if !layout.Monthly() {
		return fmt.Errorf("%s: %w", layout.Name(), ErrNotMonthly)
	}

	poster, err := r.connect(ctx)
	if err != nil {
		return err
	}
	err = r.portal.OpenSettlement(ctx, r.opts.Chapter)
	if err != nil {
		return err
	}

	for _, month := range expenses.AllMonths() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.clearMonth(ctx, poster, layout, month, rep)
	}

	r.finalize(ctx)
	return nil
}

func (r *Runner) clearMonth(
	ctx context.Context,
	poster Poster,
	layout expenses.Layout,
	month expenses.Month,
	rep *report.Report,
) {
	fail := func(reason string) {
		rep.Fail(0, month.Name(), reason)
		r.screenshot(ctx, month.Code())
	}

	err := r.portal.SelectMonth(ctx, month.Name(), r.monthChapter(layout))
	if err != nil {
		r.tel.ReportWarning(report_runner_select, "month", month.String(), "err", err)
		fail(reasonSelectMonth)
		return
	}
	capture, err := r.portal.Capture(ctx)
	if err != nil {
		r.tel.ReportWarning(report_runner_capture, "month", month.String(), "err", err)
		fail(reasonCapture)
		return
	}
	r.dump("capture_"+month.Code(), capture)

	if r.opts.GridDelay > 0 {
		err = r.clock.Sleep(ctx, r.opts.GridDelay)
		if err != nil {
			return
		}
	}

	html, err := r.portal.DocumentsHTML(ctx)
	if err != nil {
		r.tel.ReportWarning(report_runner_delete, "month", month.String(), "err", err)
		fail("Nie odczytano listy dokumentów")
		return
	}
	ids, err := odpn.DocumentIDs(html)
	if err != nil {
		r.tel.ReportWarning(report_runner_delete, "month", month.String(), "err", err)
		fail("Nie odczytano listy dokumentów")
		return
	}
	if len(ids) == 0 {
		r.tel.ReportDebug("no documents", "month", month.String())
		return
	}
	rep.Total += len(ids)

	failed := false
	for _, id := range ids {
		if r.opts.DryRun {
			r.tel.ReportDebug("dry run delete", "month", month.String(), "id", id)
			rep.Deleted++
			continue
		}
		err := poster.DeleteDocument(ctx, capture.Session, id)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.tel.ReportWarning(report_runner_delete, "month", month.String(), "id", id, "err", err)
			rep.Fail(0, month.Name(), fmt.Sprintf("Nie usunięto dokumentu %d", id))
			failed = true
			continue
		}
		rep.Deleted++
	}
	if failed {
		r.screenshot(ctx, month.Code())
	}
}
