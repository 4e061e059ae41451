package apiforms

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dateFormats = []string{
		time.DateOnly,
	}
	timeFormats = []string{
		"15:04:05.999999999",
		"15:04:05",
		"15:04",
	}
	dateTimeFormats = []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		time.DateOnly,
	}
)

var errNoMatchingFormat = errors.New("value does not match any supported format")

// parseTime tries every layout in order and returns the first match
func parseTime(value string, formats []string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errNoMatchingFormat, value)
}

///////////////////////////////////////////////////////////////////////////////
// Date, Time and DateTime
///////////////////////////////////////////////////////////////////////////////

// TemporalField cleans its input into a time.Time using a list of layouts.
// DateField, TimeField and DateTimeField are TemporalFields with different
// layouts and truncation.
type TemporalField struct {
	baseField
	formats  []string
	truncate func(time.Time) time.Time
}

type TemporalFieldOpts struct {
	FieldOpts
	Formats []string // overrides the default layouts
}

func newTemporalField(kind string, opts TemporalFieldOpts, formats []string, msg string, truncate func(time.Time) time.Time) *TemporalField {
	if len(opts.Formats) > 0 {
		formats = append([]string(nil), opts.Formats...)
	}
	return &TemporalField{
		baseField: newBaseField(kind, opts.FieldOpts, map[string]string{CodeInvalid: msg}),
		formats:   formats,
		truncate:  truncate,
	}
}

// NewDateField returns a field that cleans to a time.Time at midnight UTC.
func NewDateField(opts TemporalFieldOpts) *TemporalField {
	return newTemporalField(KindDate, opts, dateFormats, "Enter a valid date.", func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	})
}

// NewTimeField returns a field that cleans to a time.Time on the zero date.
func NewTimeField(opts TemporalFieldOpts) *TemporalField {
	return newTemporalField(KindTime, opts, timeFormats, "Enter a valid time.", func(t time.Time) time.Time {
		return time.Date(0, time.January, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	})
}

// NewDateTimeField returns a field that cleans to a time.Time.
func NewDateTimeField(opts TemporalFieldOpts) *TemporalField {
	return newTemporalField(KindDateTime, opts, dateTimeFormats, "Enter a valid date/time.", nil)
}

func (f *TemporalField) Clean(raw any) (any, ValidationErrors) {
	return f.clean(raw, func(raw any) (any, *ValidationError) {
		var t time.Time
		switch v := raw.(type) {
		case time.Time:
			t = v
		case string:
			parsed, err := parseTime(v, f.formats)
			if err != nil {
				return nil, f.fail(CodeInvalid, nil)
			}
			t = parsed
		default:
			return nil, f.fail(CodeInvalid, nil)
		}

		if f.truncate != nil {
			t = f.truncate(t)
		}
		return t, nil
	})
}

///////////////////////////////////////////////////////////////////////////////
// DurationField
///////////////////////////////////////////////////////////////////////////////

// DurationField cleans its input into a time.Duration.
//
// Accepted forms:
//   - "[-][DD ][[HH:]MM:]SS[.ffffff]", e.g. "3:29" or "1 02:00:00"
//   - ISO 8601 durations, e.g. "P1DT2H" or "PT3M29S"
//   - Go duration strings, e.g. "1h2m"
//   - numbers, read as seconds
type DurationField struct {
	baseField
}

func NewDurationField(opts FieldOpts) *DurationField {
	return &DurationField{
		baseField: newBaseField(KindDuration, opts, map[string]string{
			CodeInvalid: "Enter a valid duration.",
		}),
	}
}

func (f *DurationField) Clean(raw any) (any, ValidationErrors) {
	return f.clean(raw, func(raw any) (any, *ValidationError) {
		switch v := raw.(type) {
		case time.Duration:
			return v, nil
		case bool:
			return nil, f.fail(CodeInvalid, nil)
		case string:
			d, err := parseDuration(v)
			if err != nil {
				return nil, f.fail(CodeInvalid, nil)
			}
			return d, nil
		}

		seconds, ok := numberAsFloat(raw)
		if !ok {
			return nil, f.fail(CodeInvalid, nil)
		}
		d, err := secondsToDuration(seconds)
		if err != nil {
			return nil, f.fail(CodeInvalid, nil)
		}
		return d, nil
	})
}

var (
	clockDurationRe = regexp.MustCompile(`^(?:(-?\d+) (?:days?,? )?)?(-?)((?:\d+:){0,2}\d+)(?:[.,](\d{1,6})\d{0,6})?$`)
	isoDurationRe   = regexp.MustCompile(`^([-+]?)P(?:(\d+(?:[.,]\d+)?)D)?(?:T(?:(\d+(?:[.,]\d+)?)H)?(?:(\d+(?:[.,]\d+)?)M)?(?:(\d+(?:[.,]\d+)?)S)?)?$`)

	errInvalidDuration = errors.New("invalid duration")
)

const day = 24 * time.Hour

// parseDuration parses every string form DurationField accepts.
func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errInvalidDuration
	}

	if match := clockDurationRe.FindStringSubmatch(value); match != nil {
		return clockDuration(match)
	}
	if match := isoDurationRe.FindStringSubmatch(value); match != nil && value != "P" && !strings.HasSuffix(value, "T") {
		return isoDuration(match)
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidDuration, value)
	}
	return d, nil
}

// clockDuration converts a clockDurationRe match. The sign before the clock
// part applies to the clock part only; days carry their own sign.
func clockDuration(match []string) (time.Duration, error) {
	var days int64
	if match[1] != "" {
		parsed, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return 0, errInvalidDuration
		}
		days = parsed
	}
	if days > math.MaxInt64/int64(day) || days < math.MinInt64/int64(day) {
		return 0, errInvalidDuration
	}

	parts := strings.Split(match[3], ":")
	units := []time.Duration{time.Second, time.Minute, time.Hour}
	var clock time.Duration
	for i := range parts {
		n, err := strconv.ParseInt(parts[len(parts)-1-i], 10, 64)
		if err != nil {
			return 0, errInvalidDuration
		}
		if clock, err = addScaled(clock, n, units[i]); err != nil {
			return 0, err
		}
	}

	if match[4] != "" {
		micros, err := strconv.ParseInt(match[4]+strings.Repeat("0", 6-len(match[4])), 10, 64)
		if err != nil {
			return 0, errInvalidDuration
		}
		if clock, err = addScaled(clock, micros, time.Microsecond); err != nil {
			return 0, err
		}
	}

	if match[2] == "-" {
		clock = -clock
	}
	total := time.Duration(days) * day
	if (clock > 0 && total > math.MaxInt64-clock) || (clock < 0 && total < math.MinInt64-clock) {
		return 0, errInvalidDuration
	}
	return total + clock, nil
}

// addScaled returns total + n*unit for non-negative total and n.
func addScaled(total time.Duration, n int64, unit time.Duration) (time.Duration, error) {
	if n > math.MaxInt64/int64(unit) {
		return 0, errInvalidDuration
	}
	term := time.Duration(n) * unit
	if total > math.MaxInt64-term {
		return 0, errInvalidDuration
	}
	return total + term, nil
}

func isoDuration(match []string) (time.Duration, error) {
	units := []time.Duration{day, time.Hour, time.Minute, time.Second}
	var total float64
	for i, unit := range units {
		component := match[i+2]
		if component == "" {
			continue
		}
		n, err := strconv.ParseFloat(strings.Replace(component, ",", ".", 1), 64)
		if err != nil {
			return 0, errInvalidDuration
		}
		total += n * float64(unit)
	}

	if total > math.MaxInt64 {
		return 0, errInvalidDuration
	}
	d := time.Duration(total)
	if match[1] == "-" {
		d = -d
	}
	return d, nil
}

func secondsToDuration(seconds float64) (time.Duration, error) {
	nanos := seconds * float64(time.Second)
	if math.IsNaN(nanos) || math.IsInf(nanos, 0) || math.Abs(nanos) > math.MaxInt64 {
		return 0, errInvalidDuration
	}
	return time.Duration(nanos), nil
}
