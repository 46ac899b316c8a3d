package lifecycle

import "time"

// Deadline computes the expected completion instant for work confirmed at
// base with the given preparation duration. Pure function, no rounding.
func Deadline(base time.Time, d time.Duration) time.Time {
	return base.Add(d)
}

// HoursDeadline is Deadline with the duration expressed in whole hours, the
// unit the catalog stores for product preparation time.
func HoursDeadline(base time.Time, hours int) time.Time {
	return Deadline(base, time.Duration(hours)*time.Hour)
}

// Remaining returns the time left until deadline as seen at now. Negative
// values mean the deadline has passed. The result is derived on every read
// and never stored.
func Remaining(now, deadline time.Time) time.Duration {
	return deadline.Sub(now)
}
