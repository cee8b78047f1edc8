package odpn

import (
	"fmt"
	"strconv"
	"strings"

	"odpn-automation/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	selectorGridRow      = "div[class*='x-grid3-row']"
	selectorCheckerClass = "x-grid3-row-checker"
	selectorIDCell       = "td[class*='x-grid3-td-2'] div[class*='x-grid3-cell-inner']"
)

// DocumentIDs extracts the numeric document ids listed in the "Dokumenty"
// grid. Rows are taken in document order, duplicates (nested row markup)
// are reported once.
func DocumentIDs(html string) ([]int64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse documents grid: %w", err)
	}

	seen := map[int64]bool{}
	ids := []int64{}
	doc.Find(selectorGridRow).Each(func(_ int, row *goquery.Selection) {
		class, _ := row.Attr("class")
		if strings.Contains(class, selectorCheckerClass) {
			return
		}
		cell := row.Find(selectorIDCell).First()
		if cell.Length() == 0 {
			return
		}
		text := htmlutil.SelectionText(cell)
		if !isDigits(text) {
			return
		}
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	})
	return ids, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
