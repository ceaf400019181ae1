package types

import "time"

// Timestamps are stored as UTC RFC 3339 strings so the persisted documents
// stay human-readable. Parsing is lenient: both the nanosecond and the
// second-resolution forms are accepted.

// NowStamp returns the current UTC time in the canonical wire format.
func NowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// FormatStamp renders t in the canonical wire format.
func FormatStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseStamp parses a wire-format timestamp.
func ParseStamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
