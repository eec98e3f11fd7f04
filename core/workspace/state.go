// Package workspace holds the view state of a planner session: which calendar granularity is shown,
// which session is being edited and the loaded records.
//
// State only changes through Reduce, a pure function returning the I/O to perform as effects.
// Controller owns a State and runs those effects.
package workspace

import (
	"time"

	"github.com/trezcool/plany/core/identity"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/core/session"
)

type View string

const (
	ViewMonth View = "month"
	ViewWeek  View = "week"
	ViewDay   View = "day"
)

func (v View) Valid() bool {
	return v == ViewMonth || v == ViewWeek || v == ViewDay
}

// Selection is the session whose lesson plan form is open.
// PlanID is set when the session already has a plan (edit mode).
type Selection struct {
	Date    string
	ClassID string
	PlanID  string
}

func (s Selection) Editing() bool {
	return s.PlanID != ""
}

type State struct {
	View      View
	Cursor    time.Time // focused date, UTC midnight
	Selection *Selection
	User      *identity.User
	Data      planner.Data
	// Generation changes with the identity and with every load; results of older loads are dropped.
	Generation int
	Loading    bool
	Notice     string
}

// Initial returns the state of a fresh session: month view focused on today.
func Initial(today time.Time) State {
	y, m, d := today.Date()
	return State{View: ViewMonth, Cursor: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Sessions returns the sessions of the focused date.
func (s State) Sessions() []session.Session {
	return session.SessionsFor(s.Cursor, s.Data.Classes, s.Data.Plans)
}

type (
	Event interface{ isEvent() }

	SwitchView struct{ View View }
	// Navigate moves the cursor by Delta months, weeks or days depending on the view.
	Navigate    struct{ Delta int }
	ActivateDay struct{ Date time.Time }
	// SelectSession opens the plan form of the class session on Date.
	SelectSession struct {
		Date    time.Time
		ClassID string
	}
	CancelEdit    struct{}
	// PlanSaved reports a plan saved on behalf of UserID. It is dropped once that user is gone.
	PlanSaved struct {
		UserID string
		Plan   planner.LessonPlan
	}
	SignedIn      struct{ User *identity.User }
	SignedOut     struct{}
	Refresh       struct{}
	LoadSucceeded struct {
		Generation int
		Data       planner.Data
	}
	LoadFailed struct {
		Generation int
		Err        error
	}
)

func (SwitchView) isEvent()    {}
func (Navigate) isEvent()      {}
func (ActivateDay) isEvent()   {}
func (SelectSession) isEvent() {}
func (CancelEdit) isEvent()    {}
func (PlanSaved) isEvent()     {}
func (SignedIn) isEvent()      {}
func (SignedOut) isEvent()     {}
func (Refresh) isEvent()       {}
func (LoadSucceeded) isEvent() {}
func (LoadFailed) isEvent()    {}

type (
	Effect interface{ isEffect() }

	// LoadAll asks for a bulk load on behalf of User, tagged with Generation.
	LoadAll struct {
		Generation int
		User       *identity.User
	}
	NotifyFailure struct{ Err error }
)

func (LoadAll) isEffect()       {}
func (NotifyFailure) isEffect() {}
