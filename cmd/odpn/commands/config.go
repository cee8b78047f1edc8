package commands

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"odpn-automation/internal/expenses"
	"odpn-automation/internal/report"
	"odpn-automation/lib/configutil"
)

const defaultLayout = "belchatow"

// legacyLayouts maps the config file names the old scripts read onto their
// layout, the files themselves carry no layout key.
var legacyLayouts = map[string]string{
	"belchatowdane": "belchatow",
	"szkoladane":    "piotrkow",
}

// Config keeps the keys of the old BelchatowDane.json / SzkolaDane.json
// files so they can be used unchanged.
type Config struct {
	Strona string `json:"strona"`
	Login  string `json:"login"`
	Haslo  string `json:"haslo"`
	// Rozdzial and SzkolaID show up both as numbers and as strings.
	Rozdzial any    `json:"rozdzial"`
	SzkolaID any    `json:"szkolaID"`
	Akcja    string `json:"akcja"`
	Plik     string `json:"plik"`

	Layout   string `json:"layout"`
	Encoding string `json:"encoding"`

	ChromeFlags           []string `json:"chrome_flags"`
	Headless              bool     `json:"headless"`
	CaptureDir            string   `json:"capture_dir"`
	Journal               string   `json:"journal"`
	RequestsPerSecond     float64  `json:"requests_per_second"`
	CaptureTimeoutSeconds int      `json:"capture_timeout_seconds"`
	GridDelaySeconds      int      `json:"grid_delay_seconds"`

	Smtp   report.SmtpConfig `json:"smtp"`
	Notify []string          `json:"notify"`

	source string
}

// configText renders a JSON scalar the way it was written.
func configText(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		if value == math.Trunc(value) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	}
	return fmt.Sprint(v)
}

func (c Config) layout() (expenses.Layout, error) {
	name := c.Layout
	if name == "" {
		name = legacyLayout(c.source)
	}
	return expenses.Lookup(name)
}

func legacyLayout(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if name, ok := legacyLayouts[strings.ToLower(base)]; ok {
		return name
	}
	return defaultLayout
}

// Site is the portal host, the layout's own portal when none is configured.
func (c Config) Site(layout expenses.Layout) string {
	site := strings.TrimSpace(c.Strona)
	if site == "" {
		return layout.DefaultHost()
	}
	return site
}

// Chapter is the settlement group to work in.
func (c Config) Chapter(layout expenses.Layout) string {
	chapter := configText(c.Rozdzial)
	if chapter == "" {
		return layout.DefaultChapter()
	}
	return chapter
}

// ChapterID is the numeric chapter used by the expense form, 0 when the
// chapter is not numeric.
func (c Config) ChapterID() int {
	id, err := strconv.Atoi(configText(c.Rozdzial))
	if err != nil {
		return 0
	}
	return id
}

func (c Config) SchoolID() (int, error) {
	text := configText(c.SzkolaID)
	if text == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("szkolaID %q is not a number", text)
	}
	return id, nil
}

// InputFile resolves the CSV to read, an explicit override wins over the
// config which wins over the layout's default.
func (c Config) InputFile(layout expenses.Layout, override string) string {
	if override != "" {
		return override
	}
	if c.Plik != "" {
		return c.Plik
	}
	if file := layout.DefaultFile(); file != "" {
		return file
	}
	if chapter := configText(c.Rozdzial); chapter != "" {
		return fmt.Sprintf("wydatki_%s.csv", chapter)
	}
	return "wydatki.csv"
}

// Deleting reports whether the config asks for document deletion.
func (c Config) Deleting() bool {
	return strings.EqualFold(strings.TrimSpace(c.Akcja), "USUN")
}

func (c Config) CaptureTimeout() time.Duration {
	return time.Duration(c.CaptureTimeoutSeconds) * time.Second
}

func (c Config) GridDelay() time.Duration {
	if c.GridDelaySeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.GridDelaySeconds) * time.Second
}

func (c Config) RequestRate() float64 {
	if c.RequestsPerSecond == 0 {
		return 1
	}
	return c.RequestsPerSecond
}

func (c Config) EncodingName() string {
	if c.Encoding == "" {
		return "utf-8"
	}
	return c.Encoding
}

func (c Config) validate() error {
	var errs []error
	if _, err := c.layout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SchoolID(); err != nil {
		errs = append(errs, err)
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests_per_second must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) requireSite(layout expenses.Layout) error {
	if c.Site(layout) == "" {
		return fmt.Errorf("strona is required for layout %s", layout.Name())
	}
	return nil
}

func loadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.source = path
	err = cfg.validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
