package expenses

import (
	"strings"

	"odpn-automation/internal/odpn"
)

var czestochowaTable = positionTable{
	{key: "1.", pos: odpn.Position{NumerPola: 1, ID: -1}},
	{key: "2.", pos: odpn.Position{NumerPola: 2, ID: -2}},
	{key: "3.1.", pos: odpn.Position{NumerPola: 4, ID: -3}},
	{key: "3.2.", pos: odpn.Position{NumerPola: 5, ID: -4}},
	{key: "3.3.", pos: odpn.Position{NumerPola: 6, ID: -5}},
	{key: "3.4.", pos: odpn.Position{NumerPola: 7, ID: -6}},
	{key: "3.5.", pos: odpn.Position{NumerPola: 8, ID: -7}},
}

// Czestochowa columns:
//
//	1 category, 2 document kind and number, 3 full amount, 4 issue date
//	5 subject, 6 payment date, 7 subsidy amount, 8 amount covered by a
//	special education certificate
type Czestochowa struct{}

func (Czestochowa) Name() string           { return "czestochowa" }
func (Czestochowa) MinColumns() int        { return 9 }
func (Czestochowa) Monthly() bool          { return false }
func (Czestochowa) ScopedMonths() bool     { return false }
func (Czestochowa) DefaultChapter() string { return "" }
func (Czestochowa) DefaultFile() string    { return "" }
func (Czestochowa) DefaultHost() string    { return "czestochowa.odpn.pl" }

func (Czestochowa) Month([]string) (Month, error) {
	return 0, nil
}

func (Czestochowa) Category(cells []string) string {
	if len(cells) < 2 {
		return ""
	}
	return strings.TrimSpace(cells[1])
}

func (Czestochowa) Position(category, _ string) (odpn.Position, error) {
	return czestochowaTable.exact(category)
}

func (Czestochowa) Categories(string) []string {
	return czestochowaTable.keys()
}

func (Czestochowa) Fields(cells []string, names []string) (map[string]any, error) {
	if err := shortRow(cells, 9); err != nil {
		return nil, err
	}

	full, err := amount(cells[3])
	if err != nil {
		return nil, err
	}
	subsidy, err := amount(cells[7])
	if err != nil {
		return nil, err
	}
	certified, err := amount(cells[8])
	if err != nil {
		return nil, err
	}
	if err := requireFields(names, 7); err != nil {
		return nil, err
	}

	return map[string]any{
		names[0]: strings.TrimSpace(cells[2]),
		names[1]: full,
		names[2]: Date(cells[4]),
		names[3]: strings.TrimSpace(cells[5]),
		names[4]: Date(cells[6]),
		names[5]: subsidy,
		names[6]: certified,
	}, nil
}
