package odpn

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type dumpedRequest struct {
	URL       string          `json:"url"`
	Method    string          `json:"method"`
	Headers   map[string]any  `json:"headers"`
	PostData  json.RawMessage `json:"postData"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

func toDump(c Capture) dumpedRequest {
	postData := json.RawMessage(c.Request.PostData)
	if !json.Valid(postData) {
		quoted, _ := json.Marshal(c.Request.PostData)
		postData = quoted
	}
	var timestamp int64
	if !c.Request.Timestamp.IsZero() {
		timestamp = c.Request.Timestamp.UnixMilli()
	}
	return dumpedRequest{
		URL:       c.Request.URL,
		Method:    c.Request.Method,
		Headers:   c.Request.Headers,
		PostData:  postData,
		Timestamp: timestamp,
	}
}

// WriteCaptureDump writes the captures into <dir>/<name>.json as an indented
// array and returns the path it wrote to. An empty list is still written so
// a month that failed to capture leaves a trace.
func WriteCaptureDump(dir, name string, captures []Capture) (string, error) {
	out := make([]dumpedRequest, 0, len(captures))
	for _, c := range captures {
		out = append(out, toDump(c))
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(out)
	if err != nil {
		return "", fmt.Errorf("encode capture dump: %w", err)
	}

	if dir != "" {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return "", err
		}
	}
	path := filepath.Join(dir, name+".json")
	err = os.WriteFile(path, buf.Bytes(), 0644)
	if err != nil {
		return "", err
	}
	return path, nil
}
