package session

import (
	"time"

	"github.com/trezcool/plany/core/planner"
)

type (
	// Day is the full detail of one date.
	Day struct {
		Date     string         `json:"date"`
		Weekday  int            `json:"weekday"` // 0=Mon
		Sessions []Session      `json:"sessions"`
		Planned  int            `json:"planned"`
		Break    *planner.Break `json:"break,omitempty"`
	}

	// DayCount annotates a month cell with "Planned/Sessions planned".
	DayCount struct {
		Date     string `json:"date"`
		Sessions int    `json:"sessions"`
		Planned  int    `json:"planned"`
		OnBreak  bool   `json:"onBreak"`
	}

	MonthView struct {
		Year  int        `json:"year"`
		Month time.Month `json:"month"`
		// LeadingBlanks is the number of empty cells before the 1st in a Monday first grid.
		LeadingBlanks int        `json:"leadingBlanks"`
		Days          []DayCount `json:"days"`
	}

	WeekView struct {
		Start string `json:"start"` // Monday
		Days  [7]Day `json:"days"`
	}
)

// DayOf returns the sessions of date with their planned count and the break it falls in.
// Breaks never change the sessions.
func DayOf(date time.Time, data planner.Data) Day {
	sessions := SessionsFor(date, data.Classes, data.Plans)
	return Day{
		Date:     FormatDate(date),
		Weekday:  Weekday(date),
		Sessions: sessions,
		Planned:  countPlanned(sessions),
		Break:    BreakOn(date, data.Breaks),
	}
}

// Month counts the sessions and planned sessions of every day of the month.
func Month(year int, month time.Month, data planner.Data) MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	view := MonthView{
		Year:          first.Year(),
		Month:         first.Month(),
		LeadingBlanks: Weekday(first),
	}
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		sessions := SessionsFor(d, data.Classes, data.Plans)
		view.Days = append(view.Days, DayCount{
			Date:     FormatDate(d),
			Sessions: len(sessions),
			Planned:  countPlanned(sessions),
			OnBreak:  BreakOn(d, data.Breaks) != nil,
		})
	}
	return view
}

// WeekStart returns the Monday on or before date.
func WeekStart(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -Weekday(date))
}

// Week lists the sessions of the 7 days starting the Monday on or before date.
func Week(date time.Time, data planner.Data) WeekView {
	start := WeekStart(date)
	view := WeekView{Start: FormatDate(start)}
	for i := range view.Days {
		view.Days[i] = DayOf(start.AddDate(0, 0, i), data)
	}
	return view
}
