// Package dates parses and renders the date-time strings exchanged with
// clients and stored in the database.
//
// Three input shapes are accepted:
//
//	2024-06-01                    bare date
//	2024-06-01 14:30[:00]         database datetime
//	2024-06-01T14:30:00[.sss][Z]  ISO-8601, optionally with an offset
//
// ISO strings without an offset are read as UTC. ISO strings with an offset
// keep their literal wall-clock components; the offset is stripped, never
// applied. Anything else fails with ErrInvalidFormat.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidFormat is returned for every malformed input.
var ErrInvalidFormat = errors.New("invalid date-time format")

// DBLayout is the layout of persisted timestamps.
const DBLayout = "2006-01-02 15:04:05"

// Style selects how the date part is rendered.
type Style string

const (
	StyleNormal Style = "normal" // DD/MM/YYYY
	StyleLong   Style = "long"   // DD June YYYY
	StyleDB     Style = "db"     // YYYY-MM-DD HH:mm:ss
)

// Options controls FormatDate. Start from DefaultOptions and override fields.
type Options struct {
	IncludeTime    bool
	IncludeSeconds bool
	Style          Style
	PM             bool
}

func DefaultOptions() Options {
	return Options{
		IncludeTime: true,
		Style:       StyleNormal,
		PM:          true,
	}
}

var (
	dbPattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(?: \d{2}:\d{2}(?::\d{2})?)?$`)
	offsetPattern = regexp.MustCompile(`([zZ]|[+-]\d{2}:?\d{2})$`)
	isoLayouts    = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}
)

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// now is replaced in tests.
var now = time.Now

// parsed holds normalized components: date is YYYY-MM-DD, clock is HH:mm:ss
// and empty when the input carried no time.
type parsed struct {
	date  string
	clock string
}

func invalid(s string) error {
	return fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

func parse(s string) (parsed, error) {
	switch {
	case strings.Contains(s, "T"):
		return parseISO(s)
	case dbPattern.MatchString(s):
		return parseDB(s)
	default:
		return parsed{}, invalid(s)
	}
}

func parseISO(s string) (parsed, error) {
	if !offsetPattern.MatchString(s) {
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return parsed{date: t.Format(time.DateOnly), clock: t.Format(time.TimeOnly)}, nil
			}
		}
		return parsed{}, invalid(s)
	}

	local := offsetPattern.ReplaceAllString(s, "")
	datePart, timePart, found := strings.Cut(local, "T")
	if !found || timePart == "" {
		timePart = "00:00:00"
	}
	timePart, _, _ = strings.Cut(timePart, ".")
	if !strings.Contains(timePart, ":") {
		timePart += ":00:00"
	}
	clock, err := padClock(timePart)
	if err != nil {
		return parsed{}, invalid(s)
	}
	p := parsed{date: datePart, clock: clock}
	if err := p.check(); err != nil {
		return parsed{}, invalid(s)
	}
	return p, nil
}

func parseDB(s string) (parsed, error) {
	datePart, timePart, hasTime := strings.Cut(s, " ")
	p := parsed{date: datePart}
	if hasTime {
		clock, err := padClock(timePart)
		if err != nil {
			return parsed{}, invalid(s)
		}
		p.clock = clock
	}
	if err := p.check(); err != nil {
		return parsed{}, invalid(s)
	}
	return p, nil
}

// padClock zero-pads h[:m[:s]] to HH:mm:ss.
func padClock(s string) (string, error) {
	fields := strings.Split(s, ":")
	if len(fields) > 3 {
		return "", ErrInvalidFormat
	}
	out := [3]string{"00", "00", "00"}
	for i, f := range fields {
		if f == "" {
			continue
		}
		if _, err := strconv.Atoi(f); err != nil {
			return "", ErrInvalidFormat
		}
		if len(f) < 2 {
			f = "0" + f
		}
		out[i] = f
	}
	return strings.Join(out[:], ":"), nil
}

// check rejects components that are well shaped but not a real calendar
// date or clock time.
func (p parsed) check() error {
	clock := p.clock
	if clock == "" {
		clock = "00:00:00"
	}
	_, err := time.Parse(DBLayout, p.date+" "+clock)
	return err
}

// FormatDate renders s according to opts.
//
//	FormatDate("2024-06-01 14:30:00", DefaultOptions())           // "01/06/2024 2:30 pm"
//	FormatDate("2024-06-01 14:30:00", Options{Style: StyleLong})  // "01 June 2024"
//	FormatDate("2024-06-01 14:30:00", Options{Style: StyleDB, IncludeTime: true})
//	                                                              // "2024-06-01 14:30:00"
func FormatDate(s string, opts Options) (string, error) {
	p, err := parse(s)
	if err != nil {
		return "", err
	}

	if opts.Style == StyleDB {
		if !opts.IncludeTime {
			return p.date, nil
		}
		clock := p.clock
		if clock == "" {
			clock = "00:00:00"
		}
		return p.date + " " + clock, nil
	}

	date := formatDatePart(p.date, opts.Style)
	if p.clock == "" || !opts.IncludeTime {
		return date, nil
	}
	return date + " " + formatClock(p.clock, opts.IncludeSeconds, opts.PM), nil
}

func formatDatePart(date string, style Style) string {
	year, month, day := date[0:4], date[5:7], date[8:10]
	if style == StyleLong {
		m, _ := strconv.Atoi(month)
		return fmt.Sprintf("%s %s %s", day, monthNames[m-1], year)
	}
	return fmt.Sprintf("%s/%s/%s", day, month, year)
}

// formatClock expects a validated HH:mm:ss.
func formatClock(clock string, withSeconds, pm bool) string {
	h, _ := strconv.Atoi(clock[0:2])
	m, _ := strconv.Atoi(clock[3:5])
	sec, _ := strconv.Atoi(clock[6:8])
	return renderClock(h, m, sec, withSeconds, pm)
}

func renderClock(h, m, sec int, withSeconds, pm bool) string {
	if pm {
		period := "am"
		if h >= 12 {
			period = "pm"
		}
		h12 := h % 12
		if h12 == 0 {
			h12 = 12
		}
		if withSeconds {
			return fmt.Sprintf("%d:%02d:%02d %s", h12, m, sec, period)
		}
		return fmt.Sprintf("%d:%02d %s", h12, m, period)
	}
	if withSeconds {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// DatePart returns the text before the first space.
func DatePart(s string) string {
	date, _, _ := strings.Cut(s, " ")
	return date
}

// TimePart returns the time of a database datetime as HH:mm:ss, or as
// h:mm:ss am/pm when pm is set.
func TimePart(s string, pm bool) (string, error) {
	_, clock, found := strings.Cut(s, " ")
	if !found || clock == "" {
		return "", invalid(s)
	}
	h, m, sec, err := splitClock(clock)
	if err != nil {
		return "", invalid(s)
	}
	return renderClock(h, m, sec, true, pm), nil
}

// TimePartWithoutSeconds returns h:mm am/pm; a missing time reads as midnight.
func TimePartWithoutSeconds(s string) (string, error) {
	_, clock, _ := strings.Cut(s, " ")
	if clock == "" {
		clock = "00:00:00"
	}
	h, m, _, err := splitClock(clock)
	if err != nil {
		return "", invalid(s)
	}
	return renderClock(h, m, 0, false, true), nil
}

func splitClock(clock string) (h, m, sec int, err error) {
	fields := strings.Split(clock, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, 0, 0, ErrInvalidFormat
	}
	vals := [3]int{}
	for i, f := range fields {
		n, convErr := strconv.Atoi(f)
		if convErr != nil {
			return 0, 0, 0, ErrInvalidFormat
		}
		vals[i] = n
	}
	if vals[0] > 23 || vals[1] > 59 || vals[2] > 59 || vals[0] < 0 || vals[1] < 0 || vals[2] < 0 {
		return 0, 0, 0, ErrInvalidFormat
	}
	return vals[0], vals[1], vals[2], nil
}

// ToDateTimeLocal converts "YYYY-MM-DD HH:mm:ss" to the datetime-local
// input shape "YYYY-MM-DDTHH:mm".
func ToDateTimeLocal(s string) (string, error) {
	fields := strings.Split(s, " ")
	if len(fields) != 2 || len(fields[1]) < 5 {
		return "", invalid(s)
	}
	return fields[0] + "T" + fields[1][:5], nil
}

// CurrentDate returns today's local date as YYYY-MM-DD.
func CurrentDate() string {
	return now().Format(time.DateOnly)
}

// CurrentDateTime returns the local time as YYYY-MM-DD HH:mm:ss.
func CurrentDateTime() string {
	return now().Format(DBLayout)
}

// CurrentDateTimeLocal returns the local time as YYYY-MM-DDTHH:mm.
func CurrentDateTimeLocal() string {
	return now().Format("2006-01-02T15:04")
}

// FormatTimestamp renders a millisecond Unix timestamp in local time as
// "D/M/YYYY, h:mm:ss am/pm".
func FormatTimestamp(ms int64) string {
	return formatTimestampIn(ms, time.Local)
}

func formatTimestampIn(ms int64, loc *time.Location) string {
	t := time.UnixMilli(ms).In(loc)
	return fmt.Sprintf("%d/%d/%d, %s", t.Day(), int(t.Month()), t.Year(),
		renderClock(t.Hour(), t.Minute(), t.Second(), true, true))
}

// FormatDBTime renders t in UTC using DBLayout.
func FormatDBTime(t time.Time) string {
	return t.UTC().Format(DBLayout)
}

// ParseDBTime parses a DBLayout timestamp as UTC. A bare date is midnight.
func ParseDBTime(s string) (time.Time, error) {
	p, err := parse(s)
	if err != nil {
		return time.Time{}, err
	}
	clock := p.clock
	if clock == "" {
		clock = "00:00:00"
	}
	t, err := time.Parse(DBLayout, p.date+" "+clock)
	if err != nil {
		return time.Time{}, invalid(s)
	}
	return t, nil
}
