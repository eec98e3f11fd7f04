package workspace

import (
	"time"

	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/core/session"
)

const loadFailedNotice = "Could not load your planner. Please try again."

// Reduce applies ev to st. It never performs I/O: the returned effects describe it.
func Reduce(st State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case SwitchView:
		if ev.View.Valid() {
			st.View = ev.View
		}

	case Navigate:
		st.Cursor = move(st.View, st.Cursor, ev.Delta)

	case ActivateDay:
		st.Cursor = midnight(ev.Date)
		if st.View == ViewMonth && len(st.Sessions()) > 0 {
			st.View = ViewDay
		}

	case SelectSession:
		date := midnight(ev.Date)
		for _, sess := range session.SessionsFor(date, st.Data.Classes, st.Data.Plans) {
			if sess.Class.ID != ev.ClassID {
				continue
			}
			sel := &Selection{Date: sess.Date, ClassID: sess.Class.ID}
			if sess.Plan != nil {
				sel.PlanID = sess.Plan.ID
			}
			st.Selection = sel
			break
		}

	case CancelEdit:
		st.Selection = nil

	case PlanSaved:
		if st.User == nil || st.User.ID != ev.UserID {
			break // stale
		}
		st.Data.Plans = upsertPlan(st.Data.Plans, ev.Plan)
		st.Selection = nil

	case SignedIn:
		if ev.User == nil {
			return Reduce(st, SignedOut{})
		}
		if st.User == nil || st.User.ID != ev.User.ID {
			st.Data = planner.Data{}
			st.Selection = nil
		}
		st.User = ev.User
		return startLoad(st)

	case SignedOut:
		st.Generation++
		st.User = nil
		st.Data = planner.Data{}
		st.Selection = nil
		st.Loading = false
		st.Notice = ""

	case Refresh:
		if st.User != nil {
			return startLoad(st)
		}

	case LoadSucceeded:
		if ev.Generation != st.Generation {
			break // stale
		}
		st.Data = ev.Data
		st.Loading = false
		st.Notice = ""

	case LoadFailed:
		if ev.Generation != st.Generation {
			break // stale
		}
		st.Loading = false
		st.Notice = loadFailedNotice
		return st, []Effect{NotifyFailure{Err: ev.Err}}
	}
	return st, nil
}

func startLoad(st State) (State, []Effect) {
	st.Generation++
	st.Loading = true
	return st, []Effect{LoadAll{Generation: st.Generation, User: st.User}}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func move(view View, cursor time.Time, delta int) time.Time {
	switch view {
	case ViewMonth:
		y, m, _ := cursor.Date()
		return time.Date(y, m+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	case ViewWeek:
		return cursor.AddDate(0, 0, 7*delta)
	}
	return cursor.AddDate(0, 0, delta)
}

// upsertPlan returns a copy of plans with plan replacing the plan of the same ID, or prepended.
func upsertPlan(plans []planner.LessonPlan, plan planner.LessonPlan) []planner.LessonPlan {
	out := make([]planner.LessonPlan, 0, len(plans)+1)
	var replaced bool
	for _, p := range plans {
		if p.ID == plan.ID {
			out = append(out, plan)
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append([]planner.LessonPlan{plan}, out...)
	}
	return out
}
