package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the ISO-8601 form timestamps take in durable storage.
const TimeLayout = "2006-01-02T15:04:05.000000"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a timestamp written by FormatTime. RFC 3339 input is
// accepted as well so hand-edited files still load.
func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err == nil {
		return t, nil
	}
	if t, rfcErr := time.Parse(time.RFC3339Nano, s); rfcErr == nil {
		return t.UTC().Truncate(time.Microsecond), nil
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
}

// Identity issues ids and timestamps for fresh entities.
type Identity interface {
	NewID() string
	Now() time.Time
}

// SystemIdentity issues random UUIDv4 ids and wall-clock timestamps.
var SystemIdentity Identity = systemIdentity{}

type systemIdentity struct{}

func (systemIdentity) NewID() string { return uuid.NewString() }

// Now truncates to microseconds, which also drops the monotonic reading, so
// the value survives a FormatTime/ParseTime round trip unchanged.
func (systemIdentity) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
