package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "  1234 ", expected: "1234"},
		{in: " ", expected: ""},
		{in: "Faktura\n\t  nr 12", expected: "Faktura nr 12"},
		{in: "a\u200bb", expected: "ab"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, NormalizeText(tc.in), "input %q", tc.in)
	}
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div class="cell"><span>Wrzesień</span> <b>2024</b></div><div class="cell">&nbsp;x</div>`,
	))
	require.NoError(t, err)
	require.Equal(t, "Wrzesień 2024 x", SelectionText(doc.Find(".cell")))
}
