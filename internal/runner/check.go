package runner

import (
	"fmt"
	"sort"

	"odpn-automation/internal/expenses"
	"odpn-automation/internal/odpn"
)

// previewFieldCount is enough placeholder names for every layout to map all
// of its columns.
const previewFieldCount = 9

// Preview is how a row would be entered, Reason is set when it would not.
type Preview struct {
	Row      int
	Month    expenses.Month
	Category string
	Position odpn.Position
	// Values are the mapped fields in form order.
	Values []any
	Reason string
}

func previewNames() []string {
	names := make([]string, previewFieldCount)
	for i := range names {
		names[i] = fmt.Sprintf("pole%d", i+1)
	}
	return names
}

// Check maps rows the way Submit would without touching the portal. The
// chapter stands in for the one a capture would report.
func Check(layout expenses.Layout, chapter string, rows []expenses.Row) []Preview {
	names := previewNames()
	groups, rejected := expenses.Group(layout, rows)

	var out []Preview
	for _, rej := range rejected {
		out = append(out, Preview{Row: rej.Row, Reason: expenses.Reason(rej.Err)})
	}
	for _, group := range groups {
		for _, e := range group.Entries {
			p := Preview{Row: e.Row.Number, Month: group.Month, Category: e.Category}

			pos, err := layout.Position(e.Category, chapter)
			if err != nil {
				p.Reason = rowReason(layout, chapter, e.Category, err)
				out = append(out, p)
				continue
			}
			p.Position = pos

			fields, err := layout.Fields(e.Row.Cells, names)
			if err != nil {
				p.Reason = rowReason(layout, chapter, e.Category, err)
				out = append(out, p)
				continue
			}
			for _, name := range names {
				if value, ok := fields[name]; ok {
					p.Values = append(p.Values, value)
				}
			}
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Row < out[j].Row
	})
	return out
}
