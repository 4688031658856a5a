// Package share encodes a countdown duration into a shareable URL and
// decodes it back, never failing a page load on a bad value.
package share

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"countdown_timer/internal/engine"
)

const (
	// QueryKey is the URL query parameter holding the duration.
	QueryKey = "t"

	MinSeconds     = 1
	MaxSeconds     = 24 * 60 * 60
	DefaultSeconds = 5 * 60

	maxInputMinutes = 999
	maxInputSeconds = 59
)

// Clamp bounds seconds to [MinSeconds, MaxSeconds].
func Clamp(seconds int) int {
	return clamp(seconds, MinSeconds, MaxSeconds)
}

// Encode renders seconds as a query value.
func Encode(seconds int) string {
	return strconv.Itoa(seconds)
}

// Decode parses "<seconds>", "<m>:<ss>" or "<h>:<mm>:<ss>".
// A plain value is read like a browser's parseInt: leading digits count and
// anything after them is ignored. The result is clamped to
// [MinSeconds, MaxSeconds]; ok is false for malformed or non-positive input.
func Decode(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if !strings.Contains(raw, ":") {
		n, ok := leadingDigits(raw)
		if !ok || n <= 0 {
			return 0, false
		}
		return Clamp(n), true
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0, false
	}

	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if i == 0 && errors.Is(err, strconv.ErrRange) && n > 0 {
			n, err = MaxSeconds+1, nil
		}
		if err != nil || n < 0 {
			return 0, false
		}
		// Every field after the leading one is a base-60 digit.
		if i > 0 && (n > 59 || len(p) > 2) {
			return 0, false
		}
		total = total*60 + n
		if total > MaxSeconds {
			// Keep going only to validate the remaining fields.
			total = MaxSeconds + 1
		}
	}
	if total <= 0 {
		return 0, false
	}
	return Clamp(total), true
}

// leadingDigits reads the decimal digits at the start of s. Values too
// large for an int saturate above MaxSeconds.
func leadingDigits(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return MaxSeconds + 1, true
	}
	return n, true
}

// DecodeOrDefault decodes raw and falls back to def when it is unusable.
func DecodeOrDefault(raw string, def int) int {
	if v, ok := Decode(raw); ok {
		return v
	}
	return def
}

// Link returns base with the duration set in its query, keeping other parameters.
func Link(base string, seconds int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse share base url %q: %w", base, err)
	}
	q := u.Query()
	q.Set(QueryKey, Encode(Clamp(seconds)))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FromInputs converts the minutes/seconds form fields into a duration.
// Minutes clamp to [0, 999] and seconds to [0, 59]; anything non-numeric
// counts as zero. A zero total is ErrInvalidDuration.
func FromInputs(minutes, seconds string) (int, error) {
	m := clamp(parseField(minutes), 0, maxInputMinutes)
	s := clamp(parseField(seconds), 0, maxInputSeconds)

	total := m*60 + s
	if total <= 0 {
		return 0, fmt.Errorf("%w: enter a time above 0", engine.ErrInvalidDuration)
	}
	return total, nil
}

func parseField(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
