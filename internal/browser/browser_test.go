package browser

import (
	"encoding/base64"
	"testing"
	"time"

	"odpn-automation/internal/odpn"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestXPathLiteral(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "Styczeń", expected: "'Styczeń'"},
		{in: "it's", expected: `"it's"`},
		{in: `a'b"c`, expected: `concat('a', "'", 'b"c')`},
		{in: `'x"`, expected: `concat("'", 'x"')`},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.expected, xpathLiteral(tc.in))
		})
	}
}

func TestSelectors(t *testing.T) {
	require.Equal(
		t,
		`//div[contains(@id, 'Rozdzial-Egzaminy')]//div[contains(@class, 'x-grid3-col-1') and normalize-space(text())='Marzec']`,
		xpMonthInGroup(chapterGroupID("Egzaminy"), "Marzec"),
	)
	require.Equal(t, `#ext-gen90-gp-Rozdzial-80151-bd .pencil`, selChapterPencil(80151))
	require.Contains(t, xpTab("Dokumenty"), `normalize-space(text())='Dokumenty'`)
	require.Contains(t, xpMonthAnywhere("Maj"), `not(ancestor-or-self::*[contains(text(), 'Raport')])`)
}

func TestParseFlag(t *testing.T) {
	testCases := []struct {
		in    string
		name  string
		value any
		ok    bool
	}{
		{in: "--start-maximized", name: "start-maximized", value: true, ok: true},
		{in: "--window-size=1920,1080", name: "window-size", value: "1920,1080", ok: true},
		{in: "lang=pl", name: "lang", value: "pl", ok: true},
		{in: "  ", ok: false},
		{in: "--", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			name, value, ok := parseFlag(tc.in)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.name, name)
			require.Equal(t, tc.value, value)
		})
	}
}

func gridEvent(id, body string, hasPostData bool) *network.EventRequestWillBeSent {
	wall := cdp.TimeSinceEpoch(time.Date(2024, 9, 12, 8, 0, 0, 0, time.UTC))
	var entries []*network.PostDataEntry
	if body != "" {
		entries = []*network.PostDataEntry{
			{Bytes: base64.StdEncoding.EncodeToString([]byte(body[:len(body)/2]))},
			{Bytes: base64.StdEncoding.EncodeToString([]byte(body[len(body)/2:]))},
		}
	}
	return &network.EventRequestWillBeSent{
		RequestID: network.RequestID(id),
		WallTime:  &wall,
		Request: &network.Request{
			URL:             "https://odpn.example.pl/ODPN/Grid.asmx/GridGetData",
			Method:          "POST",
			Headers:         network.Headers{"Content-Type": "application/json"},
			PostDataEntries: entries,
			HasPostData:     hasPostData,
		},
	}
}

func TestRecorder(t *testing.T) {
	rec := &recorder{}

	rec.observe(nil)
	rec.observe(&network.EventRequestWillBeSent{Request: &network.Request{URL: "https://odpn.example.pl/app.js", Method: "GET"}})
	rec.observe(&network.EventRequestWillBeSent{Request: &network.Request{URL: "https://odpn.example.pl/x/GridGetData", Method: "GET"}})
	rec.observe(gridEvent("1", `{"data":{"szkid":1}}`, true))
	rec.observe(gridEvent("2", "", true))

	drained := rec.drain()
	require.Len(t, drained, 2)

	expected := odpn.Request{
		URL:       "https://odpn.example.pl/ODPN/Grid.asmx/GridGetData",
		Method:    "POST",
		Headers:   map[string]any{"Content-Type": "application/json"},
		PostData:  `{"data":{"szkid":1}}`,
		Timestamp: time.Date(2024, 9, 12, 8, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(expected, drained[0].req); diff != "" {
		t.Fatal(diff)
	}
	require.False(t, drained[0].missingBody)
	require.Equal(t, network.RequestID("2"), drained[1].id)
	require.True(t, drained[1].missingBody)

	require.Empty(t, rec.drain())

	rec.observe(gridEvent("3", `{}`, true))
	rec.reset()
	require.Empty(t, rec.drain())
}

func TestToHTTPCookies(t *testing.T) {
	cookies := toHTTPCookies([]*network.Cookie{
		nil,
		{Name: "ASP.NET_SessionId", Value: "abc", Domain: "odpn.example.pl", Path: "/", Expires: -1, HTTPOnly: true},
		{Name: "token", Value: "x", Path: "/ODPN", Expires: 1726128000, Secure: true},
	})
	require.Len(t, cookies, 2)
	require.Equal(t, "ASP.NET_SessionId", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.True(t, cookies[0].Expires.IsZero())
	require.Equal(t, int64(1726128000), cookies[1].Expires.Unix())
	require.True(t, cookies[1].Secure)
}

func TestLandedHost(t *testing.T) {
	testCases := []struct {
		location string
		host     string
		ok       bool
	}{
		{location: "https://belchatow.odpn.pl/ODPN/Logowanie.aspx", host: "belchatow.odpn.pl", ok: true},
		{location: "https://test.odpn.pl:8443/ODPN/", host: "test.odpn.pl", ok: true},
		{location: "about:blank"},
		{location: "::"},
	}

	for _, tc := range testCases {
		t.Run(tc.location, func(t *testing.T) {
			host, ok := landedHost(tc.location)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.host, host)
		})
	}
}

func TestLoginActions(t *testing.T) {
	require.Len(t, loginActions("jan", "tajne"), 4)
	require.Len(t, loginActions("jan", ""), 2)
	require.Empty(t, loginActions("", ""))
}
