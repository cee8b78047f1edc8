package expenses

import (
	"strings"

	"odpn-automation/internal/odpn"
)

// ExamChapter is the chapter name the portal reports for exam subsidies,
// it has its own position table.
const ExamChapter = "Egzaminy"

var belchatowCategories = [12]string{
	"1. Wydatki na wynagrodzenia osoby fizycznej prowadzącej podmiot dotowany za pełnienie funkcji dyrektora  - podanie kwot w poszczególnych miesiącach",
	"2. Wydatki na wynagrodzenia kadry pedagogicznej ",
	"3. Wydatki na wynagrodzenia administracji i obsługi",
	"4. Wydatki na pochodne od wynagrodzeń ",
	"5. Wydatki na zakup pomocy naukowych i dydaktycznych",
	"6. Wydatki na zakup artykułów administracyjno-biurowych",
	"7. Wydatki na wynajem pomieszczeń",
	"8. Wydatki na zakup wyposażenia",
	"9. Wydatki na zakup usług",
	"10. Opłaty za media (energia elektryczna, gaz, wod-kan., energia cieplna, itp.)",
	"11. Pozostałe wydatki -wymienić jakie",
	"12.Zakup środków trwałych oraz wartości niematerialnych i prawnych, których mowa w art. 35 ust 1 pkt 2 ustawy o finansowaniu zadań oświatowych, a niewymienionych w zestawieniu powyżej",
}

func belchatowTable(numerPola [12]int) positionTable {
	table := make(positionTable, 0, len(belchatowCategories))
	for i, key := range belchatowCategories {
		table = append(table, positionEntry{
			key: key,
			pos: odpn.Position{NumerPola: numerPola[i], ID: -(i + 1)},
		})
	}
	return table
}

var (
	belchatowEducation = belchatowTable([12]int{13, 17000, 17001, 17002, 17003, 17004, 17005, 17006, 14, 17007, 17008, 15})
	belchatowExams     = belchatowTable([12]int{17000, 17001, 17002, 17003, 17004, 17005, 17006, 14, 17007, 17008, 15, 238})
)

// Belchatow columns:
//
//	0 category (a prefix of the full category text is enough)
//	2 issue date, 3 document number, 4 payment date
//	5 total cost, 6 subsidy part, 7 second subsidy part
//	9 month as M/YYYY or MM/YYYY
type Belchatow struct{}

func (Belchatow) Name() string           { return "belchatow" }
func (Belchatow) MinColumns() int        { return 10 }
func (Belchatow) Monthly() bool          { return true }
func (Belchatow) ScopedMonths() bool     { return true }
func (Belchatow) DefaultChapter() string { return "" }
func (Belchatow) DefaultFile() string    { return "belchatow.csv" }
func (Belchatow) DefaultHost() string    { return "" }

func (Belchatow) Month(cells []string) (Month, error) {
	if err := shortRow(cells, 10); err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(cells[9])
	month, _, _ := strings.Cut(raw, "/")
	m, err := ParseMonth(month)
	if err != nil {
		return 0, InputError{Kind: ErrBadMonth, Value: raw}
	}
	return m, nil
}

func (Belchatow) Category(cells []string) string {
	if len(cells) == 0 {
		return ""
	}
	return cells[0]
}

func (Belchatow) table(chapter string) positionTable {
	if chapter == ExamChapter {
		return belchatowExams
	}
	return belchatowEducation
}

func (b Belchatow) Position(category, chapter string) (odpn.Position, error) {
	return b.table(chapter).contains(category)
}

func (b Belchatow) Categories(chapter string) []string {
	return b.table(chapter).keys()
}

func (Belchatow) Fields(cells []string, names []string) (map[string]any, error) {
	if err := shortRow(cells, 8); err != nil {
		return nil, err
	}
	if err := requireFields(names, 8); err != nil {
		return nil, err
	}

	total, err := amount(cells[5])
	if err != nil {
		return nil, err
	}
	subsidy, err := amountOrZero(cells[6])
	if err != nil {
		return nil, err
	}
	second, err := amountOrZero(cells[7])
	if err != nil {
		return nil, err
	}

	number := strings.TrimSpace(cells[3])
	fields := map[string]any{
		names[0]: number,
		names[1]: Date(cells[2]),
		names[2]: number,
		names[3]: Date(cells[4]),
		names[4]: "przelew",
		names[5]: total,
		names[6]: subsidy,
		names[7]: second,
	}
	if len(names) > 8 {
		fields[names[8]] = 0.0
	}
	return fields, nil
}
