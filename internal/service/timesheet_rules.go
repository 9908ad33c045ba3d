package service

import "time"

// startOfDay normalises a timestamp to midnight UTC so entries keyed by
// calendar date compare cleanly regardless of the stored time portion.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

// weekBounds returns the Sunday..Saturday window containing date.
func weekBounds(date time.Time) (time.Time, time.Time) {
	d := startOfDay(date)
	start := d.AddDate(0, 0, -int(d.Weekday()))
	return start, start.AddDate(0, 0, 6)
}

// NotYetFrozenDates filters candidates down to the dates still open for
// editing relative to the reference date. The configured freeze day is
// clamped to the reference month's length, so a freeze day of 30 acts
// as 28/29 in February. On or after the effective freeze day only the
// reference month remains open; before it, the previous month is still
// open too. The freeze day itself already counts as frozen territory
// for the previous month.
func NotYetFrozenDates(candidates []time.Time, reference time.Time, freezeDayOfMonth int) []time.Time {
	effectiveFreezeDay := freezeDayOfMonth
	if dim := daysInMonth(reference); effectiveFreezeDay > dim {
		effectiveFreezeDay = dim
	}

	firstOfMonth := time.Date(reference.Year(), reference.Month(), 1, 0, 0, 0, 0, time.UTC)
	openFrom := firstOfMonth
	if reference.Day() < effectiveFreezeDay {
		openFrom = firstOfMonth.AddDate(0, -1, 0)
	}
	openTo := firstOfMonth.AddDate(0, 1, -1)

	open := make([]time.Time, 0, len(candidates))
	for _, candidate := range candidates {
		d := startOfDay(candidate)
		if d.Before(openFrom) || d.After(openTo) {
			continue
		}
		open = append(open, d)
	}
	return open
}

// effortLedger indexes a user's persisted hours by calendar date so the
// limit checks run against a single snapshot read before the batch.
type effortLedger struct {
	hoursByDate map[time.Time]int
}

func newEffortLedger() *effortLedger {
	return &effortLedger{hoursByDate: make(map[time.Time]int)}
}

func (l *effortLedger) add(date time.Time, hours int) {
	l.hoursByDate[startOfDay(date)] += hours
}

// dailyTotal returns the hours already filled on the given date.
func (l *effortLedger) dailyTotal(date time.Time) int {
	return l.hoursByDate[startOfDay(date)]
}

// weeklyTotalExcluding sums the hours filled inside the week containing
// date, leaving out the date itself.
func (l *effortLedger) weeklyTotalExcluding(date time.Time) int {
	start, end := weekBounds(date)
	target := startOfDay(date)
	total := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Equal(target) {
			continue
		}
		total += l.hoursByDate[d]
	}
	return total
}

// exceedsDailyLimit checks whether adding proposed hours on date would
// break the daily cap.
func (l *effortLedger) exceedsDailyLimit(date time.Time, proposed, dailyLimit int) bool {
	return l.dailyTotal(date)+proposed > dailyLimit
}

// exceedsWeeklyLimit checks whether adding proposed hours on date would
// break the weekly cap. Hours already filled on the date itself are not
// counted; the proposed total stands in for them.
func (l *effortLedger) exceedsWeeklyLimit(date time.Time, proposed, weeklyLimit int) bool {
	return l.weeklyTotalExcluding(date)+proposed > weeklyLimit
}
