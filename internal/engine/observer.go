package engine

import (
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
)

// Observer receives engine counters. Calls are synchronous on the evaluation
// path; implementations must be fast and safe for concurrent use.
type Observer interface {
	EnvelopeProcessed(deviceID string)
	AlertFired(kind v1.AlertKind, deviceID string)
	EvaluationObserved(d time.Duration)
	WindowsSwept(evicted, removed int)
}

type nopObserver struct{}

func (nopObserver) EnvelopeProcessed(string)         {}
func (nopObserver) AlertFired(v1.AlertKind, string)  {}
func (nopObserver) EvaluationObserved(time.Duration) {}
func (nopObserver) WindowsSwept(int, int)            {}

// safeObserve runs one observer callback and swallows any panic it raises.
func safeObserve(hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[Engine] Observer failed",
				"hook", hook,
				"panic", fmt.Sprint(r))
		}
	}()
	fn()
}
