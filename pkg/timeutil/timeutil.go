// Package timeutil centralizes the registry's timestamp conventions: all
// persisted times are UTC at whole-second precision.
package timeutil

import "time"

// Layout is the wire format for timestamps: second precision, explicit Z.
const Layout = "2006-01-02T15:04:05Z"

// Now returns the current UTC time truncated to whole seconds.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Truncate normalizes an arbitrary time to the registry's precision.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Format renders a timestamp in the wire format.
func Format(t time.Time) string {
	return Truncate(t).Format(Layout)
}
