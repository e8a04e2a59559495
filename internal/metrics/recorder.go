// Package metrics records page rendering outcomes.
//
// Components take a Recorder; NoopRecorder is the default and
// PrometheusRecorder is swapped in when the /metrics endpoint is enabled.
package metrics

import "time"

// Recorder receives page rendering events.
type Recorder interface {
	// PageRendered is called after a complete document was written.
	PageRendered(page string, bytes int, d time.Duration)
	// PageFailed is called when a page could not be served.
	PageFailed(page, reason string)
}

// NoopRecorder discards all events.
type NoopRecorder struct{}

func (NoopRecorder) PageRendered(string, int, time.Duration) {}
func (NoopRecorder) PageFailed(string, string)               {}

var _ Recorder = NoopRecorder{}
