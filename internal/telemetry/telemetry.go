package telemetry

import "fmt"

// API is the observability sink used by the scrape pipeline. Implementations
// must be safe for concurrent use.
type API interface {
	// ReportBroken reports a failure that should be looked at. The id names
	// the component, e.g. "retry.exhausted", not the specific call site.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something worth investigating that did not break
	// the component.
	ReportWarning(id string, params ...any)

	ReportDebug(msg string, params ...any)

	// ReportCount records a point-in-time count; values are not summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}

// Nop discards every report.
type Nop struct{}

func (Nop) ReportBroken(string, ...any)  {}
func (Nop) ReportWarning(string, ...any) {}
func (Nop) ReportDebug(string, ...any)   {}
func (Nop) ReportCount(string, int64)    {}
