// Package clock lets services read the time through an interface so tests can
// pin it.
package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// System is the production clock backed by time.Now.
type System struct{}

func New() System { return System{} }

func (System) Now() time.Time { return time.Now() }
