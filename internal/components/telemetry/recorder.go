package telemetry

import (
	"strings"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelWarning
	LevelBroken
	LevelCount
)

type Record struct {
	Level  Level
	ID     string
	Params []any
	Count  int64
}

// Recorder is an API that keeps every report in memory, it is meant for
// tests that want to assert that something was (or was not) reported.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Record{Level: LevelBroken, ID: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Record{Level: LevelWarning, ID: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(Record{Level: LevelDebug, ID: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Record{Level: LevelCount, ID: id, Count: count})
}

func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Find returns the records of a given level whose id ends with suffix,
// scoped ids are prefixed with their namespace so a suffix match is what
// tests usually want.
func (r *Recorder) Find(level Level, suffix string) []Record {
	var out []Record
	for _, rec := range r.Records() {
		if rec.Level == level && strings.HasSuffix(rec.ID, suffix) {
			out = append(out, rec)
		}
	}
	return out
}
