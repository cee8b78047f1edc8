package expenses

import (
	"regexp"
	"strings"

	"odpn-automation/internal/odpn"
)

var piotrkowTable = positionTable{
	{key: "1.", pos: odpn.Position{NumerPola: 2, ID: -1}},
	{key: "2.", pos: odpn.Position{NumerPola: 22, ID: -2}},
	{key: "3.", pos: odpn.Position{NumerPola: 23, ID: -3}},
	{key: "4.", pos: odpn.Position{NumerPola: 24, ID: -4}},
	{key: "5.", pos: odpn.Position{NumerPola: 25, ID: -5}},
	{key: "6.", pos: odpn.Position{NumerPola: 26, ID: -6}},
	{key: "7.", pos: odpn.Position{NumerPola: 27, ID: -7}},
}

// document kinds as numbered by the form's "typ dokumentu" combo box
var piotrkowDocumentTypes = map[string]int{
	"faktura":                  0,
	"rachunek":                 1,
	"lista płac":               2,
	"umowa":                    3,
	"dokument wewnętrzny":      4,
	"dokument wewnętrzny (pk)": 4,
	"wyciąg bankowy":           5,
	"nota księgowa":            6,
	"deklaracja zus":           7,
	"deklaracja pit":           8,
}

// DocumentType maps a document kind to its form number, unknown kinds are
// invoices.
func DocumentType(kind string) int {
	return piotrkowDocumentTypes[strings.ToLower(strings.TrimSpace(kind))]
}

var piotrkowMonth = regexp.MustCompile(`^(\d{2})\.\d{4}`)

// Piotrkow columns:
//
//	1 month as MM.YYYY, 2 document kind, 3 document number, 4 issue date
//	5 gross amount, 6 payment proof, 7 payment date, 8 subsidy amount
//	9 group, last column category (it stays last even with a remarks column)
type Piotrkow struct{}

func (Piotrkow) Name() string           { return "piotrkow" }
func (Piotrkow) MinColumns() int        { return 10 }
func (Piotrkow) Monthly() bool          { return true }
func (Piotrkow) ScopedMonths() bool     { return false }
func (Piotrkow) DefaultChapter() string { return "bazowy" }
func (Piotrkow) DefaultFile() string    { return "wydatki_test.csv" }
func (Piotrkow) DefaultHost() string    { return "piotrkow-trybunalski.odpn.pl" }

func (Piotrkow) Month(cells []string) (Month, error) {
	if err := shortRow(cells, 2); err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(cells[1])
	match := piotrkowMonth.FindStringSubmatch(raw)
	if match == nil {
		return 0, InputError{Kind: ErrBadMonth, Value: raw}
	}
	m, err := ParseMonth(match[1])
	if err != nil {
		return 0, InputError{Kind: ErrBadMonth, Value: raw}
	}
	return m, nil
}

func (Piotrkow) Category(cells []string) string {
	if len(cells) == 0 {
		return ""
	}
	return strings.TrimSpace(cells[len(cells)-1])
}

func (Piotrkow) Position(category, _ string) (odpn.Position, error) {
	return piotrkowTable.exact(category)
}

func (Piotrkow) Categories(string) []string {
	return piotrkowTable.keys()
}

// Fields fills only as many fields as the form requires.
func (Piotrkow) Fields(cells []string, names []string) (map[string]any, error) {
	if err := shortRow(cells, 10); err != nil {
		return nil, err
	}

	values := []func() (any, error){
		func() (any, error) { return DocumentType(cells[2]), nil },
		func() (any, error) { return strings.TrimSpace(cells[3]), nil },
		func() (any, error) { return Date(cells[4]), nil },
		func() (any, error) { return amount(cells[5]) },
		func() (any, error) { return strings.TrimSpace(cells[6]), nil },
		func() (any, error) { return Date(cells[7]), nil },
		func() (any, error) { return amount(cells[8]) },
		func() (any, error) { return strings.TrimSpace(cells[9]), nil },
	}

	fields := map[string]any{}
	for i, name := range names {
		if i >= len(values) {
			break
		}
		v, err := values[i]()
		if err != nil {
			return nil, err
		}
		fields[name] = v
	}
	return fields, nil
}
