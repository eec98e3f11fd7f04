package tests

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/core/session"
	"github.com/trezcool/plany/services/export"
)

func Test_calendarApi(t *testing.T) {
	f := setup(t)
	_, token, ctx := f.signIn(t, "Ada", "ada@test.test")

	algebra, err := f.store.CreateClass(ctx, planner.ClassInput{Name: "Algebra", Subject: "Math", Day: intPtr(0), Time: "09:00"})
	require.NoError(t, err)
	_, err = f.store.CreateClass(ctx, planner.ClassInput{Name: "Physics", Subject: "Science", Day: intPtr(0), Time: "08:00"})
	require.NoError(t, err)
	_, err = f.store.CreatePlan(ctx, planner.PlanInput{Date: "2024-09-02", RecurringClassID: algebra.ID, Title: "Linear equations"})
	require.NoError(t, err)
	_, err = f.store.CreateBreak(ctx, planner.BreakInput{Name: "Fall break", StartDate: "2024-10-21", EndDate: "2024-10-25"})
	require.NoError(t, err)

	data, err := f.store.LoadAll(ctx)
	require.NoError(t, err)
	wednesday, err := session.ParseDate("2024-09-04")
	require.NoError(t, err)
	dayOf := func(iso string) session.Day {
		date, err := session.ParseDate(iso)
		require.NoError(t, err)
		return session.DayOf(date, data)
	}

	runHttpTests(t, f, []httpTest{
		{name: "day", method: http.MethodGet, path: "/v1/calendar/day/2024-09-02", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, dayOf("2024-09-02"))},
		{name: "day on break", method: http.MethodGet, path: "/v1/calendar/day/2024-10-21", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, dayOf("2024-10-21"))},
		{name: "week", method: http.MethodGet, path: "/v1/calendar/week/2024-09-04", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, session.Week(wednesday, data))},
		{name: "month", method: http.MethodGet, path: "/v1/calendar/month/2024-09", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, session.Month(2024, 9, data))},
		{
			name:     "invalid date",
			method:   http.MethodGet,
			path:     "/v1/calendar/day/2024-9-2",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "date must be formatted as YYYY-MM-DD"}),
		},
		{
			name:     "invalid month",
			method:   http.MethodGet,
			path:     "/v1/calendar/month/2024-13",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"month": "month must be formatted as YYYY-MM"}),
		},
	})

	t.Run("day sessions", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/calendar/day/2024-09-02", token)
		f.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var day session.Day
		unmarchall(t, rec, &day)
		require.Len(t, day.Sessions, 2)
		assert.Equal(t, "Physics", day.Sessions[0].Class.Name)
		assert.Nil(t, day.Sessions[0].Plan)
		assert.Equal(t, "Linear equations", day.Sessions[1].Plan.Title)
		assert.Equal(t, 1, day.Planned)
	})

	t.Run("export week", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/calendar/week/2024-09-04/export", token)
		f.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="week-2024-09-02.xlsx"`, rec.Header().Get("Content-Disposition"))

		wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer wb.Close()
		rows, err := wb.GetRows("Week")
		require.NoError(t, err)
		require.Len(t, rows, 3) // header + 2 sessions
		assert.Equal(t, "Physics", rows[1][3])
		assert.Equal(t, "Unplanned", rows[1][8])
		assert.Equal(t, "Planned", rows[2][8])
	})
}
