package expenses

import (
	"sort"
	"strconv"
	"strings"

	"odpn-automation/internal/odpn"
	"odpn-automation/lib/textutil"
)

// Layout is the hard-coded mapping of one municipality's CSV export onto
// the settlement form.
type Layout interface {
	Name() string
	// MinColumns is the shortest row the layout can map.
	MinColumns() int
	// Monthly layouts are entered month by month, the others in one go.
	Monthly() bool
	// ScopedMonths looks month rows up inside the configured chapter group.
	ScopedMonths() bool
	DefaultChapter() string
	DefaultFile() string
	// DefaultHost is the portal the municipality uses, empty when it has to
	// be configured.
	DefaultHost() string

	Month(cells []string) (Month, error)
	Category(cells []string) string
	// Position resolves a category within the chapter the capture reported.
	Position(category, chapter string) (odpn.Position, error)
	// Categories lists the known categories, used for suggestions.
	Categories(chapter string) []string
	// Fields maps a row onto the captured required field names.
	Fields(cells []string, names []string) (map[string]any, error)
}

var layouts = map[string]Layout{
	"belchatow":   Belchatow{},
	"piotrkow":    Piotrkow{},
	"czestochowa": Czestochowa{},
}

// Lookup resolves a layout by name, Polish spellings are accepted too.
func Lookup(name string) (Layout, error) {
	layout, ok := layouts[textutil.NormalizeName(name)]
	if !ok {
		return nil, InputError{Kind: ErrUnknownLayout, Value: name}
	}
	return layout, nil
}

func Names() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type positionEntry struct {
	key string
	pos odpn.Position
}

type positionTable []positionEntry

func (t positionTable) exact(category string) (odpn.Position, error) {
	for _, e := range t {
		if e.key == category {
			return e.pos, nil
		}
	}
	return odpn.Position{}, InputError{Kind: ErrUnknownCategory, Value: category}
}

// contains matches the category as a case-insensitive substring of the
// keys, first match in table order wins.
func (t positionTable) contains(category string) (odpn.Position, error) {
	needle := strings.ToLower(strings.TrimSpace(category))
	if needle == "" {
		return odpn.Position{}, InputError{Kind: ErrUnknownCategory, Value: category}
	}
	for _, e := range t {
		if strings.Contains(strings.ToLower(e.key), needle) {
			return e.pos, nil
		}
	}
	return odpn.Position{}, InputError{Kind: ErrUnknownCategory, Value: category}
}

func (t positionTable) keys() []string {
	out := make([]string, 0, len(t))
	for _, e := range t {
		out = append(out, e.key)
	}
	return out
}

func requireFields(names []string, n int) error {
	if len(names) < n {
		return InputError{
			Kind:  ErrTooFewFields,
			Value: strconv.Itoa(len(names)) + " < " + strconv.Itoa(n),
		}
	}
	return nil
}

func shortRow(cells []string, min int) error {
	if len(cells) < min {
		return InputError{
			Kind:  ErrShortRow,
			Value: strconv.Itoa(len(cells)) + " < " + strconv.Itoa(min),
		}
	}
	return nil
}
