package cmi

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Duration is a SCORM timeinterval(second,10,2) measured in hundredths of a second.
type Duration int64

const (
	centisecond Duration = 1
	second               = 100 * centisecond
	minute               = 60 * second
	hour                 = 60 * minute
	day                  = 24 * hour

	// Calendar components have no fixed length; totals use these approximations.
	month = 30 * day
	year  = 365 * day
)

// MaxDuration is the longest duration representable in centiseconds.
const MaxDuration = Duration(math.MaxInt64)

// ErrDurationOverflow is returned for durations longer than MaxDuration.
var ErrDurationOverflow = errors.New("duration out of range")

var durationPattern = regexp.MustCompile(
	`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.(\d{1,2}))?S)?)?$`,
)

// ParseDuration parses an ISO 8601 duration as accepted by the SCORM timeinterval type.
// At least one component is required and a T designator must be followed by a time component.
func ParseDuration(lexical string) (Duration, error) {
	m := durationPattern.FindStringSubmatch(lexical)
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q", lexical)
	}

	hasDate := m[1] != "" || m[2] != "" || m[3] != ""
	hasTime := m[4] != "" || m[5] != "" || m[6] != ""
	if !hasDate && !hasTime {
		return 0, fmt.Errorf("duration %q must have at least one component", lexical)
	}
	if strings.Contains(lexical, "T") && !hasTime {
		return 0, fmt.Errorf("duration %q has a time designator but no time components", lexical)
	}

	var total Duration
	units := []Duration{year, month, day, hour, minute, second}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil || Duration(n) > MaxDuration/unit {
			return 0, fmt.Errorf("duration %q: %w", lexical, ErrDurationOverflow)
		}
		if total, err = total.add(Duration(n) * unit); err != nil {
			return 0, fmt.Errorf("duration %q: %w", lexical, err)
		}
	}
	if frac := m[7]; frac != "" {
		if len(frac) == 1 {
			frac += "0"
		}
		cs, _ := strconv.Atoi(frac)
		var err error
		if total, err = total.add(Duration(cs)); err != nil {
			return 0, fmt.Errorf("duration %q: %w", lexical, err)
		}
	}
	return total, nil
}

// add sums two non-negative durations.
func (d Duration) add(o Duration) (Duration, error) {
	if o > MaxDuration-d {
		return 0, ErrDurationOverflow
	}
	return d + o, nil
}

// String formats d as PT#H#M#S, the form SCOs and LMSs exchange for cmi.total_time.
// Negative durations never come out of ParseDuration and format as zero.
func (d Duration) String() string {
	if d < 0 {
		d = 0
	}
	h := d / hour
	d -= h * hour
	m := d / minute
	d -= m * minute
	s := d / second
	cs := d - s*second

	var b strings.Builder
	fmt.Fprintf(&b, "PT%dH%dM%d", h, m, s)
	if cs > 0 {
		frac := fmt.Sprintf("%02d", cs)
		b.WriteString("." + strings.TrimRight(frac, "0"))
	}
	b.WriteString("S")
	return b.String()
}

// AddDurations sums two lexical durations. Malformed operands count as zero.
// A sum or operand beyond MaxDuration returns ErrDurationOverflow.
func AddDurations(a, b string) (string, error) {
	da, err := ParseDuration(a)
	if errors.Is(err, ErrDurationOverflow) {
		return "", err
	}
	db, err := ParseDuration(b)
	if errors.Is(err, ErrDurationOverflow) {
		return "", err
	}
	sum, err := da.add(db)
	if err != nil {
		return "", err
	}
	return sum.String(), nil
}
