// Package clock provides the wall clock shared by the domain services.
package clock

import "time"

// System reads the current time from the host.
type System struct{}

func (System) Now() time.Time { return time.Now() }
