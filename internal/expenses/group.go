package expenses

// Entry is a row that passed the layout's structural checks.
type Entry struct {
	Row      Row
	Month    Month
	Category string
}

// MonthGroup holds the entries of one month in file order.
type MonthGroup struct {
	Month   Month
	Entries []Entry
}

// RowError ties an error to the row it came from.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return e.Err.Error()
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Group splits rows by month, months keep the order in which they first
// appear in the file. Layouts that are not monthly yield a single group.
// Rows that are too short or carry an invalid month are returned as errors.
func Group(layout Layout, rows []Row) ([]MonthGroup, []RowError) {
	var groups []MonthGroup
	index := map[Month]int{}
	var rejected []RowError

	for _, row := range rows {
		if err := shortRow(row.Cells, layout.MinColumns()); err != nil {
			rejected = append(rejected, RowError{Row: row.Number, Err: err})
			continue
		}

		var month Month
		if layout.Monthly() {
			m, err := layout.Month(row.Cells)
			if err != nil {
				rejected = append(rejected, RowError{Row: row.Number, Err: err})
				continue
			}
			month = m
		}

		i, ok := index[month]
		if !ok {
			i = len(groups)
			index[month] = i
			groups = append(groups, MonthGroup{Month: month})
		}
		groups[i].Entries = append(groups[i].Entries, Entry{
			Row:      row,
			Month:    month,
			Category: layout.Category(row.Cells),
		})
	}

	return groups, rejected
}
