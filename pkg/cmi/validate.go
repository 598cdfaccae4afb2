package cmi

import (
	"errors"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Validator decides whether a raw string belongs to an element's value space.
// It returns nil or a *ValidationError carrying 406 (type mismatch) or 407 (out of range).
type Validator func(value string) error

// Smallest permitted maximums (SPM) from the SCORM 2004 data model.
const (
	SPMLocation      = 1000
	SPMSuspendData   = 64000
	SPMIdentifier    = 4000
	SPMDescription   = 250
	SPMComment       = 4000
	SPMLearnerName   = 250
	SPMLearnerResp   = 4000
	SPMLaunchData    = 4000
	SPMCommentOrigin = 250
)

var (
	decimalPattern   = regexp.MustCompile(`^[-+]?(?:\d+\.?\d*|\.\d+)$`)
	languagePattern  = regexp.MustCompile(`^[A-Za-z]{1,8}(?:-[A-Za-z0-9]{1,8})*$`)
	langTagPattern   = regexp.MustCompile(`^\{lang=([^}]*)\}`)
	timestampPattern = regexp.MustCompile(
		`^(\d{4})(?:-(\d{2})(?:-(\d{2})(?:T(\d{2})(?::(\d{2})(?::(\d{2})(?:\.\d{1,2})?)?)?(?:Z|[+-]\d{2}(?::?\d{2})?)?)?)?)?$`,
	)
)

// Any accepts every string.
func Any() Validator {
	return func(string) error { return nil }
}

// Enum accepts only the listed vocabulary members.
func Enum(members ...string) Validator {
	return func(value string) error {
		if slices.Contains(members, value) {
			return nil
		}
		return typeMismatch("%q is not one of %s", value, strings.Join(quoteAll(members), ", "))
	}
}

// Decimal accepts a plain decimal number (no exponent, no NaN/Inf).
func Decimal() Validator {
	return func(value string) error {
		_, err := parseDecimal(value)
		return err
	}
}

// DecimalRange accepts decimals in the closed interval [min, max].
func DecimalRange(min, max float64) Validator {
	return func(value string) error {
		f, err := parseDecimal(value)
		if err != nil {
			return err
		}
		if f < min || f > max {
			return outOfRange("%s is outside [%s, %s]", value, formatFloat(min), formatFloat(max))
		}
		return nil
	}
}

// DecimalMin accepts decimals greater than or equal to min.
func DecimalMin(min float64) Validator {
	return func(value string) error {
		f, err := parseDecimal(value)
		if err != nil {
			return err
		}
		if f < min {
			return outOfRange("%s is below %s", value, formatFloat(min))
		}
		return nil
	}
}

// TimeInterval accepts ISO 8601 durations up to MaxDuration.
func TimeInterval() Validator {
	return func(value string) error {
		if _, err := ParseDuration(value); err != nil {
			if errors.Is(err, ErrDurationOverflow) {
				return outOfRange("%v", err)
			}
			return typeMismatch("%v", err)
		}
		return nil
	}
}

// CharString accepts any string up to max characters.
func CharString(max int) Validator {
	return func(value string) error {
		if n := utf8.RuneCountInString(value); n > max {
			return outOfRange("value has %d characters, maximum is %d", n, max)
		}
		return nil
	}
}

// LocalizedString accepts an optional {lang=xx} delimiter followed by up to max characters.
func LocalizedString(max int) Validator {
	return func(value string) error {
		text := value
		if m := langTagPattern.FindStringSubmatch(value); m != nil {
			if m[1] != "" && !languagePattern.MatchString(m[1]) {
				return typeMismatch("invalid language tag %q", m[1])
			}
			text = value[len(m[0]):]
		}
		return CharString(max)(text)
	}
}

// Identifier accepts a non-empty token without whitespace (long_identifier_type).
func Identifier(max int) Validator {
	return func(value string) error {
		if value == "" {
			return typeMismatch("identifier must not be empty")
		}
		if strings.ContainsAny(value, " \t\r\n") {
			return typeMismatch("identifier %q must not contain whitespace", value)
		}
		return CharString(max)(value)
	}
}

// Language accepts an empty string or an RFC 3066 style language code.
func Language() Validator {
	return func(value string) error {
		if value == "" || languagePattern.MatchString(value) {
			return nil
		}
		return typeMismatch("invalid language code %q", value)
	}
}

// Timestamp accepts ISO 8601 time(second,10,0) values between 1970 and 2038.
func Timestamp() Validator {
	return func(value string) error {
		m := timestampPattern.FindStringSubmatch(value)
		if m == nil {
			return typeMismatch("invalid timestamp %q", value)
		}
		y, _ := strconv.Atoi(m[1])
		if y < 1970 || y > 2038 {
			return typeMismatch("timestamp year %d outside 1970-2038", y)
		}
		if m[2] != "" {
			mo, _ := strconv.Atoi(m[2])
			d := 1
			if m[3] != "" {
				d, _ = strconv.Atoi(m[3])
			}
			t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
			if int(t.Month()) != mo || t.Day() != d {
				return typeMismatch("invalid calendar date in %q", value)
			}
		}
		limits := []int{0, 0, 0, 23, 59, 59}
		for i := 3; i <= 5; i++ {
			if m[i+1] == "" {
				continue
			}
			if n, _ := strconv.Atoi(m[i+1]); n > limits[i] {
				return typeMismatch("invalid time of day in %q", value)
			}
		}
		return nil
	}
}

// OneOf accepts a value when any validator does. The error of the first validator is reported.
func OneOf(validators ...Validator) Validator {
	return func(value string) error {
		var first error
		for _, v := range validators {
			err := v(value)
			if err == nil {
				return nil
			}
			if first == nil {
				first = err
			}
		}
		return first
	}
}

func parseDecimal(value string) (float64, error) {
	if !decimalPattern.MatchString(value) {
		return 0, typeMismatch("%q is not a decimal number", value)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, typeMismatch("%q is not a decimal number", value)
	}
	return f, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strconv.Quote(s)
	}
	return out
}
