package search

import "time"

// Intent sources recorded in Trace.IntentSource.
const (
	SourceAgent   = "agent"
	SourceKeyword = "keyword"
	SourceCache   = "cache"
)

// Step is one timed stage of a request.
type Step struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Detail   string        `json:"detail,omitempty"`
}

// Trace accumulates what happened during one request. It is owned by the
// request's goroutine.
type Trace struct {
	RequestID        string
	Started          time.Time
	Steps            []Step
	IntentSource     string
	AgentCalls       int
	AgentFailures    int
	RelevanceApplied bool
	Refined          bool
}

func newTrace(requestID string, started time.Time) *Trace {
	return &Trace{RequestID: requestID, Started: started}
}

// record appends a step that began at start.
func (t *Trace) record(name string, start time.Time, detail string) {
	t.Steps = append(t.Steps, Step{Name: name, Duration: time.Since(start), Detail: detail})
}

// timings returns the step durations in milliseconds, summed by name.
func (t *Trace) timings() map[string]float64 {
	if len(t.Steps) == 0 {
		return nil
	}
	out := make(map[string]float64, len(t.Steps))
	for _, s := range t.Steps {
		out[s.Name] += float64(s.Duration.Microseconds()) / 1000
	}
	return out
}
