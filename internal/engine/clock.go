package engine

import "time"

// Clock supplies the evaluation instant used for age eviction and alert timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
