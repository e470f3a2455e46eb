package core

import "time"

// Clock supplies the current time as epoch seconds. Injected so tests can
// drive the charge schedule deterministically.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}
