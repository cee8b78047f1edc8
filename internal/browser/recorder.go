package browser

import (
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"odpn-automation/internal/odpn"

	"github.com/chromedp/cdproto/network"
)

type recorded struct {
	id  network.RequestID
	req odpn.Request
	// the body was too large to be inlined in the event and has to be
	// fetched with Network.getRequestPostData
	missingBody bool
}

// recorder buffers grid requests seen by the CDP event listener until
// Capture drains them.
type recorder struct {
	mu      sync.Mutex
	pending []recorded
}

func (r *recorder) observe(ev *network.EventRequestWillBeSent) {
	rec, ok := fromEvent(ev)
	if !ok {
		return
	}
	r.mu.Lock()
	r.pending = append(r.pending, rec)
	r.mu.Unlock()
}

func (r *recorder) drain() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}

func (r *recorder) reset() {
	r.drain()
}

func fromEvent(ev *network.EventRequestWillBeSent) (recorded, bool) {
	if ev == nil || ev.Request == nil {
		return recorded{}, false
	}
	req := ev.Request
	if !strings.EqualFold(req.Method, "POST") || !strings.Contains(req.URL, odpn.GridGetData) {
		return recorded{}, false
	}

	var body strings.Builder
	for _, entry := range req.PostDataEntries {
		if entry == nil {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(entry.Bytes)
		if err != nil {
			continue
		}
		body.Write(raw)
	}

	timestamp := time.Now()
	if ev.WallTime != nil {
		timestamp = ev.WallTime.Time()
	}

	headers := make(map[string]any, len(req.Headers))
	for k, v := range req.Headers {
		headers[k] = v
	}

	return recorded{
		id: ev.RequestID,
		req: odpn.Request{
			URL:       req.URL,
			Method:    req.Method,
			Headers:   headers,
			PostData:  body.String(),
			Timestamp: timestamp,
		},
		missingBody: body.Len() == 0 && req.HasPostData,
	}, true
}
