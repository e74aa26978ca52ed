// Copyright 2025 RDK Management
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cron parses 5- or 6-field cron expressions into bit-set fields
// and computes the next fire instant for a given time.
//
// The field-by-field fixpoint in NextAfter mirrors the descending-field
// algorithm of the ccronexpr-derived C implementation this package
// replaces: resolve seconds, carry into minutes on wraparound, resolve
// minutes, carry into hours, and so on up through months, restarting the
// whole fixpoint from seconds whenever a higher field changes.
package cron

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// SyntaxError reports a malformed cron expression.
type SyntaxError struct {
	Expr  string
	Field string
	Msg   string
}

func (e *SyntaxError) Error() string {
	return "cron: bad syntax in " + e.Field + " field of \"" + e.Expr + "\": " + e.Msg
}

// ErrNoNextInstant is returned by NextAfter when no matching instant exists
// within four years of the reference time.
var ErrNoNextInstant = errors.New("cron: no matching instant within 4 years")

const (
	maxYearsDiff = 4
	maxDayScan   = 366
)

// Expression is an immutable, parsed cron pattern.
type Expression struct {
	seconds     uint64 // bits 0..59
	minutes     uint64 // bits 0..59
	hours       uint32 // bits 0..23
	daysOfMonth uint32 // bits 1..31
	months      uint16 // bits 0..11 (0-based internally)
	daysOfWeek  uint8  // bits 0..6, Sunday=0
}

var dayNames = []string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}
var monthNames = []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// Parse accepts a 5-field (minute hour dom month dow) or 6-field
// (second minute hour dom month dow) cron expression.
func Parse(expr string) (*Expression, error) {
	fields := strings.Fields(expr)
	if len(fields) < 5 || len(fields) > 6 {
		return nil, &SyntaxError{Expr: expr, Field: "expression", Msg: "expected 5 or 6 fields"}
	}

	e := &Expression{}
	i := 0
	if len(fields) == 6 {
		secs, err := parseNumberHits(fields[0], 0, 60)
		if err != nil {
			return nil, wrapField(expr, "second", err)
		}
		e.seconds = secs
		i = 1
	} else {
		e.seconds = 1 // bit 0 only: fire at :00 of the matched minute
	}

	mins, err := parseNumberHits(fields[i], 0, 60)
	if err != nil {
		return nil, wrapField(expr, "minute", err)
	}
	e.minutes = mins

	hoursBits, err := parseNumberHits(fields[i+1], 0, 24)
	if err != nil {
		return nil, wrapField(expr, "hour", err)
	}
	e.hours = uint32(hoursBits)

	domField := fields[i+2]
	if domField == "?" {
		domField = "*"
	}
	domBits, err := parseNumberHits(domField, 1, 32)
	if err != nil {
		return nil, wrapField(expr, "day-of-month", err)
	}
	e.daysOfMonth = uint32(domBits)

	monthBits, err := parseMonths(fields[i+3])
	if err != nil {
		return nil, wrapField(expr, "month", err)
	}
	e.months = monthBits

	dowField := fields[i+4]
	if dowField == "?" {
		dowField = "*"
	}
	dowBits, err := parseDaysOfWeek(dowField)
	if err != nil {
		return nil, wrapField(expr, "day-of-week", err)
	}
	e.daysOfWeek = dowBits

	return e, nil
}

func wrapField(expr, field string, err error) error {
	if se, ok := err.(*SyntaxError); ok {
		se.Expr = expr
		se.Field = field
		return se
	}
	return &SyntaxError{Expr: expr, Field: field, Msg: err.Error()}
}

func parseMonths(field string) (uint16, error) {
	upper := strings.ToUpper(field)
	replaced := replaceOrdinals(upper, monthNames, 1)
	bits, err := parseNumberHits(replaced, 1, 13)
	if err != nil {
		return 0, err
	}
	// rotate 1-based bits down to 0-based storage
	var out uint64
	for i := 1; i <= 12; i++ {
		if bits&(1<<uint(i)) != 0 {
			out |= 1 << uint(i-1)
		}
	}
	return uint16(out), nil
}

func parseDaysOfWeek(field string) (uint8, error) {
	upper := strings.ToUpper(field)
	replaced := replaceOrdinals(upper, dayNames, 0)
	bits, err := parseNumberHits(replaced, 0, 8)
	if err != nil {
		return 0, err
	}
	if bits&(1<<7) != 0 {
		bits |= 1 << 0
		bits &^= 1 << 7
	}
	return uint8(bits), nil
}

func replaceOrdinals(value string, names []string, base int) string {
	out := value
	for i, name := range names {
		out = strings.ReplaceAll(out, name, strconv.Itoa(i+base))
	}
	return out
}

// parseNumberHits parses a comma-list of "*", "N", "N-M", "*/k", or "a-b/k"
// tokens into a bit set over [min, max).
func parseNumberHits(field string, min, max int) (uint64, error) {
	var target uint64
	for _, part := range strings.Split(field, ",") {
		if part == "" {
			return 0, errors.New("empty list element")
		}
		slash := strings.IndexByte(part, '/')
		if slash < 0 {
			lo, hi, err := parseRange(part, min, max)
			if err != nil {
				return 0, err
			}
			for v := lo; v <= hi; v++ {
				target |= 1 << uint(v)
			}
			continue
		}
		rangePart, stepPart := part[:slash], part[slash+1:]
		lo, hi, err := parseRange(rangePart, min, max)
		if err != nil {
			return 0, err
		}
		if !strings.Contains(rangePart, "-") && rangePart != "*" {
			// bare "N/k": step from N through the end of the range.
			hi = max - 1
		} else if rangePart == "*" {
			hi = max - 1
		}
		step, err := strconv.Atoi(stepPart)
		if err != nil || step <= 0 {
			return 0, errors.New("step must be a positive integer")
		}
		for v := lo; v <= hi; v += step {
			target |= 1 << uint(v)
		}
	}
	return target, nil
}

func parseRange(field string, min, max int) (int, int, error) {
	if field == "*" {
		return min, max - 1, nil
	}
	if !strings.Contains(field, "-") {
		v, err := strconv.Atoi(field)
		if err != nil {
			return 0, 0, errors.New("not a number")
		}
		if v < min || v >= max {
			return 0, 0, errors.New("value out of range")
		}
		return v, v, nil
	}
	parts := strings.SplitN(field, "-", 2)
	lo, err1 := strconv.Atoi(parts[0])
	hi, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, errors.New("not a number")
	}
	if lo < min || lo >= max || hi < min || hi >= max {
		return 0, 0, errors.New("value out of range")
	}
	if lo > hi {
		return 0, 0, errors.New("reversed range")
	}
	return lo, hi, nil
}

func (e *Expression) secondSet(v int) bool { return e.seconds&(1<<uint(v)) != 0 }
func (e *Expression) minuteSet(v int) bool { return e.minutes&(1<<uint(v)) != 0 }
func (e *Expression) hourSet(v int) bool   { return e.hours&(1<<uint(v)) != 0 }
func (e *Expression) domSet(v int) bool    { return e.daysOfMonth&(1<<uint(v)) != 0 }
func (e *Expression) monthSet(v int) bool  { return e.months&(1<<uint(v)) != 0 }
func (e *Expression) dowSet(v int) bool    { return e.daysOfWeek&(1<<uint(v)) != 0 }

type calField int

const (
	fSecond calField = iota
	fMinute
	fHour
	fDOW
	fDOM
	fMonth
	fYear
)

type calendar struct {
	sec, min, hour, mday, mon, year int // mon is 0-based
}

func fromTime(t time.Time) calendar {
	return calendar{
		sec: t.Second(), min: t.Minute(), hour: t.Hour(),
		mday: t.Day(), mon: int(t.Month()) - 1, year: t.Year(),
	}
}

func (c calendar) toTime() time.Time {
	return time.Date(c.year, time.Month(c.mon+1), c.mday, c.hour, c.min, c.sec, 0, time.UTC)
}

// normalize rolls field overflow into higher fields, the same way mktime
// normalizes an out-of-range struct tm.
func (c calendar) normalize() calendar {
	return fromTime(c.toTime())
}

func (c calendar) weekday() int {
	return int(c.toTime().Weekday())
}

func (c calendar) resetField(f calField) calendar {
	switch f {
	case fSecond:
		c.sec = 0
	case fMinute:
		c.min = 0
	case fHour:
		c.hour = 0
	case fDOM:
		c.mday = 1
	case fMonth:
		c.mon = 0
	case fYear:
		c.year = 0
	case fDOW:
		// day-of-week has no independent calendar field.
	}
	return c.normalize()
}

func (c calendar) resetAll(fields []calField) calendar {
	for _, f := range fields {
		c = c.resetField(f)
	}
	return c
}

func (c calendar) setField(f calField, v int) calendar {
	switch f {
	case fSecond:
		c.sec = v
	case fMinute:
		c.min = v
	case fHour:
		c.hour = v
	case fDOM:
		c.mday = v
	case fMonth:
		c.mon = v
	case fYear:
		c.year = v
	}
	return c.normalize()
}

func (c calendar) addField(f calField, delta int) calendar {
	switch f {
	case fSecond:
		c.sec += delta
	case fMinute:
		c.min += delta
	case fHour:
		c.hour += delta
	case fDOM, fDOW:
		c.mday += delta
	case fMonth:
		c.mon += delta
	case fYear:
		c.year += delta
	}
	return c.normalize()
}

func nextSetBit(test func(int) bool, max, from int) (int, bool) {
	for i := from; i < max; i++ {
		if test(i) {
			return i, true
		}
	}
	return 0, false
}

// findNext returns the next field value >= the field's current value that
// satisfies test, carrying into nextField and resetting lowerResets when
// the search wraps or the field itself changes.
func findNext(test func(int) bool, max int, value int, cal calendar, field, nextField calField, lowerResets []calField) (int, calendar, error) {
	next, found := nextSetBit(test, max, value)
	if !found {
		cal = cal.addField(nextField, 1)
		cal = cal.resetField(field)
		next, found = nextSetBit(test, max, 0)
		if !found {
			return 0, cal, errors.New("cron: field has no satisfiable value")
		}
	}
	if next != value {
		cal = cal.setField(field, next)
		cal = cal.resetAll(lowerResets)
	}
	return next, cal, nil
}

func findNextDay(cal calendar, domTest, dowTest func(int) bool, resets []calField) (int, calendar, error) {
	count := 0
	for (!domTest(cal.mday) || !dowTest(cal.weekday())) && count < maxDayScan {
		cal = cal.addField(fDOM, 1)
		cal = cal.resetAll(resets)
		count++
	}
	if count >= maxDayScan {
		return 0, cal, ErrNoNextInstant
	}
	return cal.mday, cal, nil
}

func doNext(e *Expression, cal calendar, startYear int) (calendar, error) {
	var resets []calField

	secVal := cal.sec
	newSec, cal, err := findNext(e.secondSet, 60, secVal, cal, fSecond, fMinute, nil)
	if err != nil {
		return cal, err
	}
	if secVal == newSec {
		resets = append(resets, fSecond)
	}

	minVal := cal.min
	newMin, cal, err := findNext(e.minuteSet, 60, minVal, cal, fMinute, fHour, resets)
	if err != nil {
		return cal, err
	}
	if minVal == newMin {
		resets = append(resets, fMinute)
	} else {
		cal, err = doNext(e, cal, startYear)
		if err != nil {
			return cal, err
		}
	}

	hourVal := cal.hour
	newHour, cal, err := findNext(e.hourSet, 24, hourVal, cal, fHour, fDOW, resets)
	if err != nil {
		return cal, err
	}
	if hourVal == newHour {
		resets = append(resets, fHour)
	} else {
		cal, err = doNext(e, cal, startYear)
		if err != nil {
			return cal, err
		}
	}

	domVal := cal.mday
	newDom, cal, err := findNextDay(cal, e.domSet, e.dowSet, resets)
	if err != nil {
		return cal, err
	}
	if domVal == newDom {
		resets = append(resets, fDOM)
	} else {
		cal, err = doNext(e, cal, startYear)
		if err != nil {
			return cal, err
		}
	}

	monthVal := cal.mon
	newMonth, cal, err := findNext(e.monthSet, 12, monthVal, cal, fMonth, fYear, resets)
	if err != nil {
		return cal, err
	}
	if monthVal != newMonth {
		if cal.year-startYear > maxYearsDiff {
			return cal, ErrNoNextInstant
		}
		cal, err = doNext(e, cal, startYear)
		if err != nil {
			return cal, err
		}
	}

	return cal, nil
}

// NextAfter returns the smallest instant strictly greater than t whose
// fields all satisfy e. It returns ErrNoNextInstant if no such instant
// exists within four years of t.
func NextAfter(e *Expression, t time.Time) (time.Time, error) {
	t = t.UTC()
	cal := fromTime(t)
	original := cal.toTime()

	resolved, err := doNext(e, cal, cal.year)
	if err != nil {
		return time.Time{}, err
	}
	calculated := resolved.toTime()
	if calculated.Equal(original) {
		cal = cal.addField(fSecond, 1)
		resolved, err = doNext(e, cal, cal.year)
		if err != nil {
			return time.Time{}, err
		}
		calculated = resolved.toTime()
	}
	return calculated, nil
}
