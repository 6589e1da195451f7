// Package task defines the data model exchanged with the external task
// scheduler: typed parameters in, a result with a status code, severity-
// tagged markers, and an output payload back out. A registry maps task
// names to their Go handlers so a flow definition can invoke them by name.
package task

// Severity tags a marker message.
type Severity int

// Marker severities, ordered by weight.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Marker is one severity-tagged message attached to a task result.
type Marker struct {
	Severity Severity
	Msg      string
}

// Info builds an info-severity marker.
func Info(msg string) Marker { return Marker{Severity: SeverityInfo, Msg: msg} }

// Warning builds a warning-severity marker.
func Warning(msg string) Marker { return Marker{Severity: SeverityWarning, Msg: msg} }

// Error builds an error-severity marker; status-1 results carry at least
// one of these.
func Error(msg string) Marker { return Marker{Severity: SeverityError, Msg: msg} }

// Input is what the scheduler hands a task besides its decoded parameters:
// the directory the invocation owns.
type Input struct {
	RunDir string
}

// Result is what a task returns. Status 0 is success, 1 failure; a task
// never fails its host process.
type Result struct {
	Status  int
	Changed bool
	Output  []any
	Markers []Marker
	Memento any
}

// Fail builds a failure result carrying a single error marker and no
// output.
func Fail(msg string) *Result {
	return &Result{
		Status:  1,
		Markers: []Marker{Error(msg)},
	}
}

// ErrorMarkers returns the result's error-severity markers.
func (r *Result) ErrorMarkers() []Marker {
	var out []Marker
	for _, m := range r.Markers {
		if m.Severity == SeverityError {
			out = append(out, m)
		}
	}
	return out
}
