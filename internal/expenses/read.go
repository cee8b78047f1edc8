package expenses

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Row is one CSV record. Number is the 1-based line the record starts on,
// which is what operators see when they open the file.
type Row struct {
	Number int
	Cells  []string
}

// Cell returns the i-th cell, or "" when the row is shorter than that.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

func decoderFor(name string) (*encoding.Decoder, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		// spreadsheet exports like to start with a BOM
		return &encoding.Decoder{Transformer: unicode.BOMOverride(unicode.UTF8.NewDecoder())}, nil
	}
	return enc.NewDecoder(), nil
}

// Read decodes `;` separated records. Rows may have any number of cells,
// blank lines are skipped but still count towards row numbers.
func Read(r io.Reader, encodingName string) ([]Row, error) {
	dec, err := decoderFor(encodingName)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(dec.Reader(r))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, Row{Number: line, Cells: record})
	}
	return rows, nil
}

func ReadFile(path, encodingName string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, encodingName)
}
