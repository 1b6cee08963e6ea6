package batch

import "fmt"

//FormatTimestamp converts seconds to HH:MM:SS,mmm. Milliseconds are truncated, hours are not limited
func FormatTimestamp(sec float64) string {
	ms := int64(sec * 1000)
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
