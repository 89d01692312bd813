package telemetry

import (
	"strings"
	"sync"
)

type Kind string

const (
	KindBroken  Kind = "broken"
	KindWarning Kind = "warning"
	KindDebug   Kind = "debug"
	KindCount   Kind = "count"
)

type Report struct {
	Kind   Kind
	ID     string
	Params []any
	Count  int64
}

// Recorder keeps every report in memory so tests can assert on them.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Report{Kind: KindBroken, ID: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Report{Kind: KindWarning, ID: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(Report{Kind: KindDebug, ID: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Report{Kind: KindCount, ID: id, Count: count})
}

func (r *Recorder) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Find returns the reports of the given kind whose id ends with suffix, so
// scoped ids match without spelling out the namespace.
func (r *Recorder) Find(kind Kind, suffix string) []Report {
	var out []Report
	for _, report := range r.Reports() {
		if report.Kind == kind && strings.HasSuffix(report.ID, suffix) {
			out = append(out, report)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = nil
}
