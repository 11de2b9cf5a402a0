package utils

import "time"

// NowRFC3339 returns the current time in RFC3339 format
func NowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// MillisSince returns the elapsed milliseconds since start
func MillisSince(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
