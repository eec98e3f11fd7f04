// Package session derives the class sessions of a date from the weekly classes and the lesson plans.
//
// Everything here is a pure function of its inputs: nothing is cached and nothing can fail.
package session

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/planner"
)

// Session pairs a class occurring on a date with its lesson plan, if any.
type Session struct {
	Date  string                 `json:"date"`
	Class planner.RecurringClass `json:"class"`
	Plan  *planner.LessonPlan    `json:"plan"`
}

func (s Session) Planned() bool {
	return s.Plan != nil
}

// Weekday maps t to Monday=0 ... Sunday=6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ParseDate parses an ISO (YYYY-MM-DD) date as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(core.DateLayout, s, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(core.DateLayout)
}

// SessionsFor returns the sessions of date, ordered by class time.
// When several plans match the same class, the first one wins.
func SessionsFor(date time.Time, classes []planner.RecurringClass, plans []planner.LessonPlan) []Session {
	day := Weekday(date)
	iso := FormatDate(date)

	sessions := make([]Session, 0)
	for _, class := range classes {
		if class.Day != day {
			continue
		}
		sess := Session{Date: iso, Class: class}
		for i := range plans {
			if plans[i].Date == iso && plans[i].RecurringClassID == class.ID {
				plan := plans[i]
				sess.Plan = &plan
				break
			}
		}
		sessions = append(sessions, sess)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return timeLess(sessions[i].Class.Time, sessions[j].Class.Time)
	})
	return sessions
}

// minutes converts "HH:MM" to minutes since midnight.
func minutes(hhmm string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(hhmm), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// timeLess orders parsable times chronologically before unparsable ones, which sort as strings.
func timeLess(a, b string) bool {
	ma, okA := minutes(a)
	mb, okB := minutes(b)
	switch {
	case okA && okB:
		return ma < mb
	case okA != okB:
		return okA
	}
	return a < b
}

// BreakOn returns the first break containing date, or nil.
func BreakOn(date time.Time, breaks []planner.Break) *planner.Break {
	iso := FormatDate(date)
	for i := range breaks {
		if breaks[i].Contains(iso) {
			brk := breaks[i]
			return &brk
		}
	}
	return nil
}

func countPlanned(sessions []Session) int {
	var n int
	for _, s := range sessions {
		if s.Planned() {
			n++
		}
	}
	return n
}
