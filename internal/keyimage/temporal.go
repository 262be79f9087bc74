package keyimage

import (
	"regexp"
	"strconv"
	"strings"
)

// This file implements the date/time family of appenders using a
// self-contained proleptic Gregorian calendar (no host time zone database,
// no dependency on time.Time's own calendar math — §9 Design Notes: the
// routing hash must be reproducible independent of the process's locale or
// Go version).

const (
	// daysPerQuadCentury etc name the cycle lengths the decomposition below
	// divides a day count by, in descending order: a 400-year cycle always
	// spans exactly this many days in the proleptic Gregorian calendar
	// (97 leap years), a 100-year cycle spans daysPerCentury days (24 leap
	// years — the century leap-year exception), and a 4-year cycle spans
	// daysPerQuadYear days (1 leap year), with daysPerYear the remainder.
	daysPerQuadCentury = 146097
	daysPerCentury     = 36524
	daysPerQuadYear    = 1461
	daysPerYear        = 365

	// civilEpochShift is the day count from 0000-03-01 to 1970-01-01,
	// Howard Hinnant's constant for re-basing a days-since-Unix-epoch count
	// onto a March-1st-based era so that leap days fall at the end of each
	// cycle instead of in the middle of it.
	civilEpochShift = 719468
)

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// cumulativeDaysBeforeMonth[m] is the number of days that precede the first
// day of month m (1-based) in a non-leap year.
var cumulativeDaysBeforeMonth = [13]int{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

func dayOfYear(year, month, day int) int {
	doy := cumulativeDaysBeforeMonth[month] + day
	if month > 2 && isLeapYear(year) {
		doy++
	}
	return doy
}

// daysFromCivil converts a proleptic Gregorian y/m/d into a day count
// relative to 1970-01-01 (negative before, zero on). This is Howard
// Hinnant's well-known constant-time civil-from-days inverse; see
// http://howardhinnant.github.io/date_algorithms.html.
func daysFromCivil(y, m, d int) int64 {
	y -= boolToInt(m <= 2)
	era := y
	if era < 0 {
		era -= 399
	}
	era /= 400
	yoe := y - era*400
	var mp int
	if m > 2 {
		mp = m - 3
	} else {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return int64(era)*146097 + int64(doe) - 719468
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// mondayWeekday returns the day of week with Monday=0..Sunday=6, derived
// from Hinnant's days-from-civil count where 1970-01-01 (day 0) is a
// Thursday (mondayWeekday=3).
func mondayWeekday(y, m, d int) int {
	days := daysFromCivil(y, m, d)
	dow := (days + 3) % 7
	if dow < 0 {
		dow += 7
	}
	return int(dow)
}

// adjustedDow computes the dow field every packed date/datetime layout
// embeds: `((weekday+1) mod 7) + 1` where weekday follows the Monday=0
// input convention (§4.A).
func adjustedDow(y, m, d int) int64 {
	w := mondayWeekday(y, m, d)
	return int64((w+1)%7) + 1
}

// validDate reports whether year/month/day form a real proleptic Gregorian
// calendar date with year in the accepted range [1000, 2900] (§4.A: "Reject
// years outside [1000, 2900]").
func validDate(year, month, day int) bool {
	if year < 1000 || year > 2900 || month < 1 || month > 12 || day < 1 {
		return false
	}
	daysInMonth := 31
	if month < 12 {
		daysInMonth = cumulativeDaysBeforeMonth[month+1] - cumulativeDaysBeforeMonth[month]
	}
	if month == 2 && isLeapYear(year) {
		daysInMonth = 29
	}
	return day <= daysInMonth
}

// datePattern matches §4.A's "YYYY-MM-DD" date grammar.
var datePattern = regexp.MustCompile(`^\s*(\d{1,4})-(\d{1,2})-(\d{1,2})\s*$`)

// timeOfDayPattern matches §4.A's "HH:MM:SS[.mmm]" time-of-day grammar. The
// fractional group is right-padded to exactly 3 digits the same way
// AppendDecimal pads its fraction to 4.
var timeOfDayPattern = regexp.MustCompile(`^\s*(\d{1,2}):(\d{1,2}):(\d{1,2})(?:\.(\d{1,3}))?\s*$`)

// dateTimePattern matches §4.A's "YYYY-MM-DD[ HH:MM:SS[.mmm]]" grammar; the
// entire time-of-day portion is optional and normalizes to 00:00:00.000.
var dateTimePattern = regexp.MustCompile(`^\s*(\d{1,4})-(\d{1,2})-(\d{1,2})(?:[ T](\d{1,2}):(\d{1,2}):(\d{1,2})(?:\.(\d{1,3}))?)?\s*$`)

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

// parseMillis right-pads a 1-to-3-digit fractional-seconds group to exactly
// 3 digits, mirroring AppendDecimal's fraction padding.
func parseMillis(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	s += strings.Repeat("0", 3-len(s))
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// AppendDate appends a 4-byte date field parsed from a "YYYY-MM-DD" string
// (§4.A), bit-packed as:
//
//	((year-1900) << 21) | (month << 17) | (day << 12) | (doy << 3) | adjDow
//
// A string that does not match the date grammar, or whose year/month/day do
// not form a real calendar date in [1000,2900], is malformed (§7 kind 3):
// the image is marked invalid and the field is left zero.
func (img *Image) AppendDate(s string, isNull bool) {
	dst := img.take(4)
	if isNull {
		return
	}
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		img.invalidate()
		return
	}
	year := atoiOr(m[1], -1)
	month := atoiOr(m[2], -1)
	day := atoiOr(m[3], -1)
	if !validDate(year, month, day) {
		img.invalidate()
		return
	}
	doy := dayOfYear(year, month, day)
	dow := adjustedDow(year, month, day)
	packed := int64(year-1900)<<21 | int64(month)<<17 | int64(day)<<12 | int64(doy)<<3 | dow
	appendLE(dst, uint32(packed))
}

// AppendTime appends a 4-byte time-of-day field parsed from an
// "HH:MM:SS[.mmm]" string (§4.A), bit-packed as
// `(hour<<26)|(minute<<20)|(second<<14)|(ms<<4)`. A string that does not
// match the grammar, or whose components are out of range, is malformed.
func (img *Image) AppendTime(s string, isNull bool) {
	dst := img.take(4)
	if isNull {
		return
	}
	m := timeOfDayPattern.FindStringSubmatch(s)
	if m == nil {
		img.invalidate()
		return
	}
	hour := atoiOr(m[1], -1)
	minute := atoiOr(m[2], -1)
	second := atoiOr(m[3], -1)
	millis, ok := parseMillis(m[4])
	if !ok || hour > 23 || minute > 59 || second > 59 {
		img.invalidate()
		return
	}
	packed := uint32(hour)<<26 | uint32(minute)<<20 | uint32(second)<<14 | uint32(millis)<<4
	appendLE(dst, packed)
}

// AppendDateTime appends an 8-byte datetime field parsed from a
// "YYYY-MM-DD[ HH:MM:SS[.mmm]]" string (§4.A; a missing time-of-day
// normalizes to 00:00:00.000), bit-packed as:
//
//	((year-1900) << 53) | (month << 49) | (day << 44) | (hour << 39) |
//	(minute << 33) | (second << 27) | (ms << 17) | (doy << 8) | (adjDow << 5)
func (img *Image) AppendDateTime(s string, isNull bool) {
	dst := img.take(8)
	if isNull {
		return
	}
	m := dateTimePattern.FindStringSubmatch(s)
	if m == nil {
		img.invalidate()
		return
	}
	year := atoiOr(m[1], -1)
	month := atoiOr(m[2], -1)
	day := atoiOr(m[3], -1)
	hour := atoiOr(m[4], 0)
	minute := atoiOr(m[5], 0)
	second := atoiOr(m[6], 0)
	millis, ok := parseMillis(m[7])
	if !ok || !validDate(year, month, day) || hour > 23 || minute > 59 || second > 59 {
		img.invalidate()
		return
	}
	doy := dayOfYear(year, month, day)
	dow := adjustedDow(year, month, day)
	packed := int64(year-1900)<<53 | int64(month)<<49 | int64(day)<<44 | int64(hour)<<39 |
		int64(minute)<<33 | int64(second)<<27 | int64(millis)<<17 | int64(doy)<<8 | dow<<5
	appendLE(dst, uint64(packed))
}

// AppendTimestamp appends an 8-byte millisecond-since-epoch timestamp. The
// value is decomposed into calendar fields via DecomposeTimestamp — never
// via the host's time zone or calendar support — and packed into the same
// 64-bit layout as AppendDateTime (§4.A step 7). Unlike the other temporal
// appenders, every int64 value is well-defined: there is no malformed
// timestamp the way there is a malformed date string.
func (img *Image) AppendTimestamp(millis int64, isNull bool) {
	dst := img.take(8)
	if isNull {
		return
	}
	p := DecomposeTimestamp(millis)
	dow := adjustedDow(p.Year, p.Month, p.Day)
	packed := int64(p.Year-1900)<<53 | int64(p.Month)<<49 | int64(p.Day)<<44 | int64(p.Hour)<<39 |
		int64(p.Minute)<<33 | int64(p.Second)<<27 | int64(p.Millis)<<17 | int64(p.DayOfYear)<<8 | dow<<5
	appendLE(dst, uint64(packed))
}

// TimestampParts is the calendar decomposition of a millisecond-since-epoch
// timestamp, computed without consulting the host's time zone or calendar
// support.
type TimestampParts struct {
	Year, Month, Day int
	DayOfYear        int
	Hour, Minute, Second, Millis int
}

// DecomposeTimestamp converts a millisecond-since-epoch value into calendar
// fields using the quad-century/century/quad-year/year cascade: the day
// count (re-based onto the March-1st civil epoch) is divided by each cycle
// length in turn, clamping a final partial cycle to its last day rather than
// overflowing into the next one, then the remaining day-of-era is turned
// into a month/day pair and the remaining millisecond-of-day into
// hour/min/sec/ms.
func DecomposeTimestamp(millis int64) TimestampParts {
	dayCount := millis / 86400000
	msOfDay := millis % 86400000
	if msOfDay < 0 {
		msOfDay += 86400000
		dayCount--
	}

	z := dayCount + civilEpochShift
	era := z / daysPerQuadCentury
	if z < 0 && z%daysPerQuadCentury != 0 {
		era--
	}
	doe := z - era*daysPerQuadCentury // [0, daysPerQuadCentury)

	// yoe: year-of-era, [0,399]. The three correction terms clamp the
	// century and quad-year divisions so a day that falls on the last day
	// of a 100- or 4-year cycle (a leap day) stays in that cycle instead of
	// rolling into the next one.
	yoe := (doe - doe/(daysPerQuadYear-1) + doe/daysPerCentury - doe/(daysPerQuadCentury-1)) / daysPerYear
	year := yoe + era*400

	doy := doe - (daysPerYear*yoe + yoe/4 - yoe/100) // day-of-year, March-based, [0,365]

	mp := (5*doy + 2) / 153 // March-based month index, [0,11]
	day := doy - (153*mp+2)/5 + 1
	var month int64
	if mp < 10 {
		month = mp + 3
	} else {
		month = mp - 9
	}
	if month <= 2 {
		year++
	}

	hour := int(msOfDay / 3600000)
	msOfDay %= 3600000
	minute := int(msOfDay / 60000)
	msOfDay %= 60000
	second := int(msOfDay / 1000)
	ms := int(msOfDay % 1000)

	return TimestampParts{
		Year:      int(year),
		Month:     int(month),
		Day:       int(day),
		DayOfYear: dayOfYear(int(year), int(month), int(day)),
		Hour:      hour,
		Minute:    minute,
		Second:    second,
		Millis:    ms,
	}
}
