package reconciler

import "time"

// Clock schedules debounce callbacks.
type Clock interface {
	// AfterFunc runs fn after d. The returned function cancels it and reports
	// whether it was still pending.
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}
