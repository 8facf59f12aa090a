package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// largest value representable with two hour digits, in seconds
const MaxTimestamp = 99*3600 + 59*60 + 59.999

const maxMillis int64 = (99*3600+59*60+59)*1000 + 999

var timestampRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})[.,](\d{3})$`)

// FormatSRTTimestamp renders seconds as HH:MM:SS,mmm.
func FormatSRTTimestamp(seconds float64) string {
	return formatTimestamp(seconds, ',')
}

// FormatVTTTimestamp renders seconds as HH:MM:SS.mmm.
func FormatVTTTimestamp(seconds float64) string {
	return formatTimestamp(seconds, '.')
}

// ParseTimestamp reads H:MM:SS,mmm or HH:MM:SS.mmm (either separator) into
// seconds.
func ParseTimestamp(text string) (float64, error) {
	m := timestampRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("invalid timestamp %q", text)
	}
	return timestampFromParts(m[1], m[2], m[3], m[4])
}

// rounds to the nearest millisecond and clamps to [0, MaxTimestamp]
func toMillis(seconds float64) int64 {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	if seconds >= MaxTimestamp {
		return maxMillis
	}
	ms := int64(math.Round(seconds * 1000))
	if ms > maxMillis {
		return maxMillis
	}
	return ms
}

func formatTimestamp(seconds float64, sep byte) string {
	d := time.Duration(toMillis(seconds)) * time.Millisecond

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, millis)
}

func timestampFromParts(hours, minutes, seconds, millis string) (float64, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}

	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}
