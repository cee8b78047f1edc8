package odpn

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GridGetData is the endpoint the settlement grid loads its rows from. The
// body of that request carries every id a later SubmitForm needs.
const GridGetData = "GridGetData"

var (
	ErrNotGridRequest    = errors.New("not a GridGetData POST")
	ErrIncompleteCapture = errors.New("captured request is missing session ids")
	ErrNoCapture         = errors.New("no usable GridGetData request was captured")
)

// required ids in the captured `data` object, in the order they are checked.
var requiredIDs = []string{"szkid", "rok", "miesiac", "rozdzial", "IdDokumentu", "wydrukId"}

// Request is a network request as recorded from the browser.
type Request struct {
	URL       string         `json:"url"`
	Method    string         `json:"method"`
	Headers   map[string]any `json:"headers"`
	PostData  string         `json:"postData"`
	Timestamp time.Time      `json:"timestamp"`
}

// IsGridRequest reports whether r looks like a grid data load worth parsing.
func (r Request) IsGridRequest() bool {
	return strings.EqualFold(r.Method, "POST") &&
		strings.Contains(r.URL, GridGetData) &&
		r.PostData != ""
}

type StoreField struct {
	Name       string `json:"name"`
	AllowBlank *bool  `json:"allowBlank,omitempty"`
}

// Session is the per-month state scraped from a GridGetData body. Ids are
// kept as raw JSON so they are sent back exactly as the portal produced them.
type Session struct {
	SzkID      json.RawMessage
	Rok        json.RawMessage
	Miesiac    json.RawMessage
	Rozdzial   json.RawMessage
	DokumentID json.RawMessage
	WydrukID   json.RawMessage

	Fields []StoreField

	// store parameters replayed verbatim by GridDeleteRow
	StoreFields      json.RawMessage
	AutoRemoteSearch json.RawMessage
	GroupField       json.RawMessage
	GroupDir         json.RawMessage
	Sort             json.RawMessage
	Dir              json.RawMessage
}

// FieldNames returns the names of the fields the form requires, that is
// every store field whose allowBlank is exactly false, in capture order.
func (s Session) FieldNames() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Name == "" || f.AllowBlank == nil || *f.AllowBlank {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// ChapterName returns `rozdzial` as text, numbers are rendered as they
// appeared on the wire.
func (s Session) ChapterName() string {
	var text string
	if err := json.Unmarshal(s.Rozdzial, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(s.Rozdzial))
}

// Capture is one intercepted GridGetData request together with the session
// decoded from it.
type Capture struct {
	Request Request
	Session Session
}

func present(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null"
}

// ParseCapture decodes the session out of a recorded request.
func ParseCapture(req Request) (Capture, error) {
	if !req.IsGridRequest() {
		return Capture{}, ErrNotGridRequest
	}

	var body struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	err := json.Unmarshal([]byte(req.PostData), &body)
	if err != nil {
		return Capture{}, fmt.Errorf("decode post data: %w", err)
	}
	if body.Data == nil {
		return Capture{}, fmt.Errorf("%w: no data object", ErrIncompleteCapture)
	}

	var missing []string
	for _, id := range requiredIDs {
		if !present(body.Data[id]) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return Capture{}, fmt.Errorf("%w: %s", ErrIncompleteCapture, strings.Join(missing, ", "))
	}

	data := body.Data
	session := Session{
		SzkID:      data["szkid"],
		Rok:        data["rok"],
		Miesiac:    data["miesiac"],
		Rozdzial:   data["rozdzial"],
		DokumentID: data["IdDokumentu"],
		WydrukID:   data["wydrukId"],

		StoreFields:      data["v_store_fields"],
		AutoRemoteSearch: data["v_store_filters_autoRemoteSearch"],
		GroupField:       data["v_store_groupField"],
		GroupDir:         data["v_store_groupDir"],
		Sort:             data["sort"],
		Dir:              data["dir"],
	}
	if present(session.StoreFields) {
		err = json.Unmarshal(session.StoreFields, &session.Fields)
		if err != nil {
			return Capture{}, fmt.Errorf("decode v_store_fields: %w", err)
		}
	}

	return Capture{Request: req, Session: session}, nil
}

// FindCapture returns the first request that parses into a complete session.
func FindCapture(reqs []Request) (Capture, error) {
	inspected := 0
	var lastErr error
	for _, req := range reqs {
		if !req.IsGridRequest() {
			continue
		}
		inspected++
		capture, err := ParseCapture(req)
		if err != nil {
			lastErr = err
			continue
		}
		return capture, nil
	}
	if lastErr != nil {
		return Capture{}, fmt.Errorf("%w (%d inspected, last: %s)", ErrNoCapture, inspected, lastErr.Error())
	}
	return Capture{}, ErrNoCapture
}
