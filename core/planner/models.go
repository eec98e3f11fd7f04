package planner

import (
	"time"
)

// Collection names, namespaced per user.
const (
	classesColl   = "classes"
	plansColl     = "plans"
	templatesColl = "templates"
	breaksColl    = "breaks"
	profileColl   = "profile"
	lessonsColl   = "lessons"
	scheduleColl  = "schedule"

	profileDocID = "data"
)

// RecurringClass is a weekly-recurring teaching slot. Day is 0 (Monday) to 4 (Friday).
type RecurringClass struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Day       int       `json:"day"`
	Time      string    `json:"time"`     // HH:MM
	Duration  int       `json:"duration"` // minutes
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ClassInput struct {
	Name     string `json:"name" validate:"required"`
	Subject  string `json:"subject"`
	Day      *int   `json:"day" validate:"required,min=0,max=4"`
	Time     string `json:"time" validate:"required,hhmm"`
	Duration int    `json:"duration" validate:"min=0,max=1440"`
	Location string `json:"location,omitempty"`
}

// LessonPlan is the content prepared for one occurrence of a RecurringClass.
// ClassName and Subject are copied from the class when the plan is written.
type LessonPlan struct {
	ID               string    `json:"id,omitempty"`
	Date             string    `json:"date"` // YYYY-MM-DD
	RecurringClassID string    `json:"recurringClassId"`
	ClassName        string    `json:"className"`
	Subject          string    `json:"subject"`
	Title            string    `json:"title"`
	Objectives       string    `json:"objectives"`
	Materials        string    `json:"materials"`
	Activities       string    `json:"activities"`
	Homework         string    `json:"homework"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type PlanInput struct {
	Date             string `json:"date" validate:"required,isodate"`
	RecurringClassID string `json:"recurringClassId" validate:"required"`
	ClassName        string `json:"className"`
	Subject          string `json:"subject"`
	Title            string `json:"title" validate:"required"`
	Objectives       string `json:"objectives"`
	Materials        string `json:"materials"`
	Activities       string `json:"activities"`
	Homework         string `json:"homework"`
	Notes            string `json:"notes"`
}

// Template is a reusable starting point for lesson plans.
type Template struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Subject     string    `json:"subject" yaml:"subject"`
	Duration    int       `json:"duration" yaml:"duration"`
	Structure   string    `json:"structure" yaml:"structure"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
}

type TemplateInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Duration    int    `json:"duration" validate:"min=0,max=1440"`
	Structure   string `json:"structure"`
}

// PlanFromTemplate tells UseTemplate which session the new plan is for.
type PlanFromTemplate struct {
	Date             string `json:"date" validate:"required,isodate"`
	RecurringClassID string `json:"recurringClassId" validate:"required"`
	Title            string `json:"title"`
}

// Break is a non-teaching date range, bounds included.
type Break struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	CreatedAt time.Time `json:"createdAt"`
}

// Contains reports whether the ISO date falls within the break.
func (b Break) Contains(date string) bool {
	return b.StartDate <= date && date <= b.EndDate
}

type BreakInput struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"startDate" validate:"required,isodate"`
	EndDate   string `json:"endDate" validate:"required,isodate"`
}

type SchoolYear struct {
	Start string `json:"start" validate:"required,isodate"`
	End   string `json:"end" validate:"required,isodate"`
}

// Profile holds the per-user settings. There is one per user.
type Profile struct {
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	SchoolYear       SchoolYear `json:"schoolYear"`
	PeriodsPerDay    int        `json:"periodsPerDay"`
	MinutesPerPeriod int        `json:"minutesPerPeriod"`
	SelectedYear     string     `json:"selectedYear,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type ProfileInput struct {
	SelectedYear     string     `json:"selectedYear,omitempty" validate:"omitempty,schoolyear"`
	SchoolYear       SchoolYear `json:"schoolYear"`
	PeriodsPerDay    int        `json:"periodsPerDay" validate:"min=1,max=12"`
	MinutesPerPeriod int        `json:"minutesPerPeriod" validate:"min=1,max=240"`
}

// Lesson is a standalone lesson of the legacy schedule grid.
type Lesson struct {
	ID         string    `json:"id,omitempty"`
	Title      string    `json:"title"`
	Subject    string    `json:"subject"`
	Date       string    `json:"date"`
	Duration   int       `json:"duration"`
	Objectives string    `json:"objectives"`
	Materials  string    `json:"materials"`
	Activities string    `json:"activities"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type LessonInput struct {
	Title      string `json:"title" validate:"required"`
	Subject    string `json:"subject" validate:"required"`
	Date       string `json:"date" validate:"required,isodate"`
	Duration   int    `json:"duration" validate:"min=0,max=1440"`
	Objectives string `json:"objectives"`
	Materials  string `json:"materials"`
	Activities string `json:"activities"`
}

// ScheduleSlot assigns a lesson to a cell of the legacy weekly grid.
type ScheduleSlot struct {
	Day       int       `json:"day"`      // 0..4
	TimeSlot  int       `json:"timeSlot"` // 0..5
	LessonID  string    `json:"lessonId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	ScheduleDays  = 5
	ScheduleSlots = 6
)

// Schedule is the legacy grid indexed by [timeSlot][day]; empty cells are nil.
type Schedule [ScheduleSlots][ScheduleDays]*Lesson

// Data is everything the calendar views are computed from.
type Data struct {
	Classes   []RecurringClass `json:"classes"`
	Plans     []LessonPlan     `json:"plans"`
	Templates []Template       `json:"templates"`
	Breaks    []Break          `json:"breaks"`
}
