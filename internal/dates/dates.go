// Package dates holds the calendar rules tying a product's revision
// date to its release date.
package dates

import (
	"time"

	"github.com/bancalia/finconsole/packages/product_console/internal/models"
)

// DeriveRevision returns the revision date for a release date: the same
// calendar day one year later. The arithmetic works on calendar
// components, never epoch milliseconds, so DST boundaries cannot shift
// the day. Feb 29 releases normalize forward to Mar 1 of the target
// year.
func DeriveRevision(release models.Date) models.Date {
	t := time.Date(release.Year+1, release.Month, release.Day, 0, 0, 0, 0, time.UTC)
	return models.DateOf(t)
}

// IsNotPast reports whether release falls on or after today, compared
// at day granularity.
func IsNotPast(release, today models.Date) bool {
	return !release.Before(today)
}

// Today is the current calendar date in the local zone.
func Today() models.Date {
	return models.DateOf(time.Now())
}
