package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"odpn-automation/internal/expenses"
	"odpn-automation/internal/odpn"
	"odpn-automation/internal/runner"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestLoadLegacyConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "BelchatowDane.json")
	writeFile(t, path, `{
		"strona": "belchatow.odpn.pl",
		"login": "jan",
		"haslo": "tajne",
		"rozdzial": 80116,
		"szkolaID": "1234",
		"akcja": "USUN",
		"plik": "dane.csv"
	}`)
	writeFile(t, filepath.Join(dir, "BelchatowDane.local.json"), `{
		// JSON5 comments are fine in the override
		haslo: "lokalne",
		headless: true,
	}`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	layout, err := cfg.layout()
	require.NoError(t, err)
	require.Equal(t, "belchatow", layout.Name())

	require.Equal(t, "jan", cfg.Login)
	require.Equal(t, "lokalne", cfg.Haslo)
	require.True(t, cfg.Headless)
	require.True(t, cfg.Deleting())
	require.Equal(t, "80116", cfg.Chapter(layout))
	require.Equal(t, 80116, cfg.ChapterID())

	school, err := cfg.SchoolID()
	require.NoError(t, err)
	require.Equal(t, 1234, school)

	require.Equal(t, "dane.csv", cfg.InputFile(layout, ""))
	require.Equal(t, "inny.csv", cfg.InputFile(layout, "inny.csv"))

	require.Equal(t, "utf-8", cfg.EncodingName())
	require.Equal(t, 1.0, cfg.RequestRate())
	require.Equal(t, 10*time.Second, cfg.GridDelay())
	require.NoError(t, cfg.requireSite(layout))
	require.Equal(t, "belchatow.odpn.pl", cfg.Site(layout))
}

func TestLoadPiotrkowLegacyConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SzkolaDane.json")
	writeFile(t, path, `{"login": "jan", "haslo": "x", "szkolaID": 12}`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	layout, err := cfg.layout()
	require.NoError(t, err)
	require.Equal(t, "piotrkow", layout.Name())
	require.NoError(t, cfg.requireSite(layout))
	require.Equal(t, "piotrkow-trybunalski.odpn.pl", cfg.Site(layout))
	require.Equal(t, "bazowy", cfg.Chapter(layout))
	require.Equal(t, "wydatki_test.csv", cfg.InputFile(layout, ""))

	school, err := cfg.SchoolID()
	require.NoError(t, err)
	require.Equal(t, 12, school)
}

func TestConfigSite(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      Config
		expected string
	}{
		{
			name:     "czestochowa default portal",
			cfg:      Config{Layout: "czestochowa"},
			expected: "czestochowa.odpn.pl",
		},
		{
			name:     "configured portal wins",
			cfg:      Config{Layout: "piotrkow", Strona: " test.odpn.pl "},
			expected: "test.odpn.pl",
		},
		{
			name:     "layout key wins over file name",
			cfg:      Config{Layout: "czestochowa", source: "SzkolaDane.json"},
			expected: "czestochowa.odpn.pl",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			layout, err := tc.cfg.layout()
			require.NoError(t, err)
			require.Equal(t, tc.expected, tc.cfg.Site(layout))
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      Config
		chapter  string
		file     string
		deleting bool
	}{
		{
			name:    "piotrkow defaults",
			cfg:     Config{Layout: "Piotrków"},
			chapter: "bazowy",
			file:    "wydatki_test.csv",
		},
		{
			name:    "czestochowa file from chapter",
			cfg:     Config{Layout: "czestochowa", Rozdzial: float64(80151)},
			chapter: "80151",
			file:    "wydatki_80151.csv",
		},
		{
			name: "czestochowa without chapter",
			cfg:  Config{Layout: "czestochowa"},
			file: "wydatki.csv",
		},
		{
			name:     "belchatow exam chapter",
			cfg:      Config{Rozdzial: "Egzaminy", Akcja: " usun "},
			chapter:  "Egzaminy",
			file:     "belchatow.csv",
			deleting: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			layout, err := tc.cfg.layout()
			require.NoError(t, err)
			require.Equal(t, tc.chapter, tc.cfg.Chapter(layout))
			require.Equal(t, tc.file, tc.cfg.InputFile(layout, ""))
			require.Equal(t, tc.deleting, tc.cfg.Deleting())
		})
	}
}

func TestConfigValidation(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "config.json5")
	writeFile(t, path, `{layout: "warszawa", szkolaID: "abc", requests_per_second: -1}`)
	_, err = loadConfig(path)
	require.ErrorIs(t, err, expenses.ErrUnknownLayout)
	require.ErrorContains(t, err, "szkolaID")
	require.ErrorContains(t, err, "requests_per_second")

	require.ErrorContains(t, Config{}.requireSite(expenses.Belchatow{}), "strona is required")
}

func TestConfigText(t *testing.T) {
	require.Equal(t, "", configText(nil))
	require.Equal(t, "80116", configText(float64(80116)))
	require.Equal(t, "1.5", configText(1.5))
	require.Equal(t, "Egzaminy", configText(" Egzaminy "))
}

func TestPrintPreviews(t *testing.T) {
	var buf bytes.Buffer
	failed := printPreviews(&buf, []runner.Preview{
		{
			Row:      1,
			Month:    expenses.Month(9),
			Category: "2.",
			Position: odpn.Position{NumerPola: 22, ID: -2},
			Values:   []any{0, "FV/1", 12.5},
		},
		{Row: 2, Reason: "Za mało kolumn (2 < 10)"},
	})
	require.Equal(t, 1, failed)

	out := buf.String()
	require.Contains(t, out, "Kategoria")
	require.NotContains(t, out, "KATEGORIA")
	require.Contains(t, out, "0 | FV/1 | 12.5")
	require.Contains(t, out, "Za mało kolumn (2 < 10)")
	require.Contains(t, out, "wierszy 2, do wysłania 1, błędów 1")
}
