package utils

import "time"

// NowUTC is the clock used for billing dates.
func NowUTC() time.Time { return time.Now().UTC() }

func FormatRFC3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// FormatRFC3339Ptr renders an optional timestamp; nil renders as "".
func FormatRFC3339Ptr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatRFC3339(*t)
}
