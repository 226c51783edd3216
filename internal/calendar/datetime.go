// Package calendar provides the pure date and time arithmetic used by the
// pager's software clock and message timestamps.
//
// The arithmetic deliberately uses a fixed days-per-month table with February
// pinned at 28 days. The pager only ever drifts a few seconds between
// authoritative time broadcasts, so leap years are an accepted approximation
// inherited from the on-air protocol, not an oversight.
package calendar

import "fmt"

// DateTime is a broken-down local timestamp. Valid is false until a time has
// been established; all arithmetic on an invalid DateTime is a no-op.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
	Valid  bool
}

const minutesPerDay = 24 * 60

// DaysInMonth returns the day count for month (1..12) under the fixed,
// non-leap-year table. Out-of-range months report 31.
func DaysInMonth(month int) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		return 28
	default:
		return 31
	}
}

// AddMinutes shifts dt by delta minutes, positive or negative, rolling days
// across month and year boundaries as needed. Invalid timestamps and a zero
// delta are left untouched.
func AddMinutes(dt *DateTime, delta int) {
	if dt == nil || !dt.Valid || delta == 0 {
		return
	}

	total := dt.Hour*60 + dt.Minute + delta

	dayOffset := 0
	for total < 0 {
		total += minutesPerDay
		dayOffset--
	}
	for total >= minutesPerDay {
		total -= minutesPerDay
		dayOffset++
	}

	dt.Hour = total / 60
	dt.Minute = total % 60

	if dayOffset == 0 {
		return
	}

	dt.Day += dayOffset
	for {
		if dt.Day > DaysInMonth(dt.Month) {
			dt.Day -= DaysInMonth(dt.Month)
			dt.Month++
			if dt.Month > 12 {
				dt.Month = 1
				dt.Year++
			}
			continue
		}
		if dt.Day <= 0 {
			dt.Month--
			if dt.Month < 1 {
				dt.Month = 12
				dt.Year--
			}
			dt.Day += DaysInMonth(dt.Month)
			continue
		}
		return
	}
}

// AdvanceSecond moves dt forward by exactly one second, cascading through
// minute, hour, day, month, and year overflow. Invalid timestamps are left
// untouched.
func AdvanceSecond(dt *DateTime) {
	if dt == nil || !dt.Valid {
		return
	}

	dt.Second++
	if dt.Second < 60 {
		return
	}
	dt.Second = 0
	dt.Minute++
	if dt.Minute < 60 {
		return
	}
	dt.Minute = 0
	dt.Hour++
	if dt.Hour < 24 {
		return
	}
	dt.Hour = 0
	dt.Day++
	if dt.Day <= DaysInMonth(dt.Month) {
		return
	}
	dt.Day = 1
	dt.Month++
	if dt.Month > 12 {
		dt.Month = 1
		dt.Year++
	}
}

// Compact renders dt in the 14-digit YYYYMMDDHHMMSS form used by the inbox
// mirror and by on-air time broadcasts. Invalid timestamps render as "-".
func (dt DateTime) Compact() string {
	if !dt.Valid {
		return "-"
	}
	return fmt.Sprintf("%04d%02d%02d%02d%02d%02d", dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
}

// ParseCompact parses the 14-digit YYYYMMDDHHMMSS form. The boolean reports
// whether a plausible timestamp was decoded; extra trailing characters are
// ignored.
func ParseCompact(s string) (DateTime, bool) {
	if len(s) < 14 || s == "-" {
		return DateTime{}, false
	}
	for i := 0; i < 14; i++ {
		if s[i] < '0' || s[i] > '9' {
			return DateTime{}, false
		}
	}

	dt := DateTime{
		Year:   atoi(s[0:4]),
		Month:  atoi(s[4:6]),
		Day:    atoi(s[6:8]),
		Hour:   atoi(s[8:10]),
		Minute: atoi(s[10:12]),
		Second: atoi(s[12:14]),
		Valid:  true,
	}
	if dt.Month < 1 || dt.Month > 12 || dt.Day < 1 || dt.Day > DaysInMonth(dt.Month) {
		return DateTime{}, false
	}
	if dt.Hour > 23 || dt.Minute > 59 || dt.Second > 59 {
		return DateTime{}, false
	}
	return dt, true
}

// ClockLabel renders the HH:MM portion for status display.
func (dt DateTime) ClockLabel() string {
	if !dt.Valid {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", dt.Hour, dt.Minute)
}

// DateLabel renders the DD.MM.YY portion for status display.
func (dt DateTime) DateLabel() string {
	if !dt.Valid {
		return "--.--.--"
	}
	return fmt.Sprintf("%02d.%02d.%02d", dt.Day, dt.Month, dt.Year%100)
}

func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
