package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/plany/core/planner"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

var algebra = planner.RecurringClass{ID: "c1", Name: "Algebra I", Day: 0, Time: "09:00"}

func TestWeekday(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{date: "2024-09-02", want: 0}, // Monday
		{date: "2024-09-03", want: 1},
		{date: "2024-09-06", want: 4},
		{date: "2024-09-07", want: 5},
		{date: "2024-09-08", want: 6}, // Sunday
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d := date(t, tt.date)
			assert.Equal(t, tt.want, Weekday(d))
			assert.Equal(t, (int(d.Weekday())+6)%7, Weekday(d))
		})
	}
}

func TestSessionsFor(t *testing.T) {
	quadratics := planner.LessonPlan{ID: "p1", RecurringClassID: "c1", Date: "2024-09-02", Title: "Quadratics"}

	t.Run("unplanned class", func(t *testing.T) {
		got := SessionsFor(date(t, "2024-09-02"), []planner.RecurringClass{algebra}, nil)
		require.Len(t, got, 1)
		assert.Equal(t, algebra, got[0].Class)
		assert.Nil(t, got[0].Plan)
		assert.False(t, got[0].Planned())
	})

	t.Run("planned class", func(t *testing.T) {
		got := SessionsFor(date(t, "2024-09-02"), []planner.RecurringClass{algebra}, []planner.LessonPlan{quadratics})
		require.Len(t, got, 1)
		require.NotNil(t, got[0].Plan)
		assert.Equal(t, quadratics, *got[0].Plan)
	})

	t.Run("weekend", func(t *testing.T) {
		got := SessionsFor(date(t, "2024-09-07"), []planner.RecurringClass{algebra}, []planner.LessonPlan{quadratics})
		assert.Empty(t, got)
	})

	t.Run("sorted by time", func(t *testing.T) {
		classes := []planner.RecurringClass{
			{ID: "late", Day: 2, Time: "10:00"},
			{ID: "early", Day: 2, Time: "08:00"},
		}
		got := SessionsFor(date(t, "2024-09-04"), classes, nil)
		require.Len(t, got, 2)
		assert.Equal(t, "early", got[0].Class.ID)
		assert.Equal(t, "late", got[1].Class.ID)
	})
}

func TestSessionsFor_Properties(t *testing.T) {
	classes := []planner.RecurringClass{
		{ID: "a", Day: 0, Time: "13:00"},
		{ID: "b", Day: 0, Time: "8:05"},
		{ID: "c", Day: 1, Time: "09:00"},
		{ID: "d", Day: 4, Time: "later"},
		{ID: "e", Day: 4, Time: "07:00"},
	}
	plans := []planner.LessonPlan{
		{ID: "p1", RecurringClassID: "a", Date: "2024-09-02"},
		{ID: "p2", RecurringClassID: "a", Date: "2024-09-02"}, // duplicate: first wins
		{ID: "p3", RecurringClassID: "c", Date: "2024-09-02"}, // class not on that day
		{ID: "p4", RecurringClassID: "gone", Date: "2024-09-02"},
		{ID: "p5", RecurringClassID: "e", Date: "2024-09-06"},
	}

	start := date(t, "2024-08-26")
	for i := 0; i < 28; i++ {
		d := start.AddDate(0, 0, i)
		got := SessionsFor(d, classes, plans)

		var want int
		for _, c := range classes {
			if c.Day == Weekday(d) {
				want++
			}
		}
		assert.Len(t, got, want, FormatDate(d))
		assert.Equal(t, got, SessionsFor(d, classes, plans), "idempotent")
		assert.Len(t, SessionsFor(d, classes, nil), want, "independent of plans")

		for _, s := range got {
			var match *planner.LessonPlan
			for j := range plans {
				if plans[j].RecurringClassID == s.Class.ID && plans[j].Date == FormatDate(d) {
					match = &plans[j]
					break
				}
			}
			if match == nil {
				assert.Nil(t, s.Plan)
			} else {
				require.NotNil(t, s.Plan)
				assert.Equal(t, *match, *s.Plan)
			}
		}
	}

	monday := SessionsFor(date(t, "2024-09-02"), classes, plans)
	require.Len(t, monday, 2)
	assert.Equal(t, "b", monday[0].Class.ID)
	assert.Equal(t, "p1", monday[1].Plan.ID)

	friday := SessionsFor(date(t, "2024-09-06"), classes, plans)
	require.Len(t, friday, 2)
	assert.Equal(t, "e", friday[0].Class.ID, "unparsable times last")
}

func TestViews(t *testing.T) {
	data := planner.Data{
		Classes: []planner.RecurringClass{
			algebra,
			{ID: "c2", Name: "Physics", Day: 2, Time: "10:00"},
			{ID: "c3", Name: "Chemistry", Day: 2, Time: "08:00"},
		},
		Plans: []planner.LessonPlan{
			{ID: "p1", RecurringClassID: "c1", Date: "2024-09-02"},
			{ID: "p2", RecurringClassID: "c2", Date: "2024-09-04"},
		},
		Breaks: []planner.Break{{ID: "b1", Name: "Fall", StartDate: "2024-09-16", EndDate: "2024-09-20"}},
	}

	t.Run("day", func(t *testing.T) {
		day := DayOf(date(t, "2024-09-04"), data)
		assert.Equal(t, "2024-09-04", day.Date)
		assert.Equal(t, 2, day.Weekday)
		require.Len(t, day.Sessions, 2)
		assert.Equal(t, "c3", day.Sessions[0].Class.ID)
		assert.Equal(t, 1, day.Planned)
		assert.Nil(t, day.Break)

		onBreak := DayOf(date(t, "2024-09-16"), data)
		require.NotNil(t, onBreak.Break)
		assert.Equal(t, "Fall", onBreak.Break.Name)
		assert.Len(t, onBreak.Sessions, 1, "breaks do not hide sessions")
	})

	t.Run("week", func(t *testing.T) {
		week := Week(date(t, "2024-09-05"), data)
		assert.Equal(t, "2024-09-02", week.Start)
		assert.Equal(t, "2024-09-08", week.Days[6].Date)
		assert.Len(t, week.Days[0].Sessions, 1)
		assert.Len(t, week.Days[2].Sessions, 2)
		assert.Empty(t, week.Days[5].Sessions)

		sunday := Week(date(t, "2024-09-08"), data)
		assert.Equal(t, "2024-09-02", sunday.Start)
		monday := Week(date(t, "2024-09-02"), data)
		assert.Equal(t, "2024-09-02", monday.Start)
	})

	t.Run("month", func(t *testing.T) {
		month := Month(2024, time.September, data)
		assert.Equal(t, 2024, month.Year)
		assert.Equal(t, time.September, month.Month)
		assert.Equal(t, 6, month.LeadingBlanks) // 2024-09-01 is a Sunday
		require.Len(t, month.Days, 30)
		assert.Equal(t, DayCount{Date: "2024-09-02", Sessions: 1, Planned: 1}, month.Days[1])
		assert.Equal(t, DayCount{Date: "2024-09-04", Sessions: 2, Planned: 1}, month.Days[3])
		assert.Equal(t, DayCount{Date: "2024-09-09", Sessions: 1, Planned: 0}, month.Days[8])
		assert.Equal(t, DayCount{Date: "2024-09-16", Sessions: 1, Planned: 0, OnBreak: true}, month.Days[15])

		feb := Month(2024, time.February, planner.Data{})
		assert.Len(t, feb.Days, 29)
		assert.Equal(t, 3, feb.LeadingBlanks) // Thursday
	})
}
