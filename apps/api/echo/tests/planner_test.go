package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/plany/apps/api/echo"
	"github.com/trezcool/plany/core/planner"
)

func intPtr(i int) *int { return &i }

func Test_plannerApi_unauthenticated(t *testing.T) {
	f := setup(t)
	missing := marchallObj(t, errMissingToken)

	tests := make([]httpTest, 0)
	for _, route := range [][2]string{
		{http.MethodGet, "/v1/classes"},
		{http.MethodPost, "/v1/plans"},
		{http.MethodGet, "/v1/templates"},
		{http.MethodDelete, "/v1/breaks/x"},
		{http.MethodGet, "/v1/profile"},
		{http.MethodPost, "/v1/lessons/x/copy"},
		{http.MethodGet, "/v1/schedule"},
		{http.MethodGet, "/v1/calendar/day/2024-09-02"},
	} {
		tests = append(tests, httpTest{
			name:     route[0] + " " + route[1],
			method:   route[0],
			path:     route[1],
			wantCode: http.StatusUnauthorized,
			wantData: missing,
		})
	}
	runHttpTests(t, f, tests)
}

func Test_plannerApi_classes(t *testing.T) {
	f := setup(t)
	_, adaToken, adaCtx := f.signIn(t, "Ada", "ada@test.test")
	_, bobToken, _ := f.signIn(t, "Bob", "bob@test.test")

	algebra, err := f.store.CreateClass(adaCtx, planner.ClassInput{Name: "Algebra", Subject: "Math", Day: intPtr(0), Time: "09:00", Duration: 50})
	require.NoError(t, err)
	notFound := marchallObj(t, httpErr{Error: "not found"})

	runHttpTests(t, f, []httpTest{
		{name: "list", method: http.MethodGet, path: "/v1/classes", token: adaToken, wantCode: http.StatusOK, wantData: marchallObj(t, []planner.RecurringClass{algebra})},
		{name: "list: other user", method: http.MethodGet, path: "/v1/classes", token: bobToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{name: "retrieve", method: http.MethodGet, path: "/v1/classes/" + algebra.ID, token: adaToken, wantCode: http.StatusOK, wantData: marchallObj(t, algebra)},
		{name: "retrieve: other user", method: http.MethodGet, path: "/v1/classes/" + algebra.ID, token: bobToken, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name:     "create: invalid",
			method:   http.MethodPost,
			path:     "/v1/classes",
			body:     marchallObj(t, planner.ClassInput{Name: "Weekend", Day: intPtr(5), Time: "9am"}),
			token:    adaToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"day":  "day must be 4 or less",
				"time": "time must be a time in the HH:MM format",
			}),
		},
		{
			name:     "update: missing",
			method:   http.MethodPut,
			path:     "/v1/classes/nope",
			body:     marchallObj(t, planner.ClassInput{Name: "Geometry", Day: intPtr(1), Time: "10:00"}),
			token:    adaToken,
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
	})

	t.Run("create, update & delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes", adaToken,
			marchallObj(t, planner.ClassInput{Name: " Physics ", Subject: "Science", Day: intPtr(2), Time: "13:30", Duration: 45}))
		f.serve(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var class planner.RecurringClass
		unmarchall(t, rec, &class)
		assert.NotEmpty(t, class.ID)
		assert.Equal(t, "Physics", class.Name)

		req, rec = newAuthRequest(http.MethodPut, "/v1/classes/"+class.ID, adaToken,
			marchallObj(t, planner.ClassInput{Name: "Physics", Subject: "Science", Day: intPtr(3), Time: "14:00", Duration: 45}))
		f.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarchall(t, rec, &class)
		assert.Equal(t, 3, class.Day)
		assert.Equal(t, "14:00", class.Time)

		req, rec = newAuthRequest(http.MethodDelete, "/v1/classes/"+class.ID, adaToken)
		f.serve(req, rec)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		got, err := f.store.GetClass(adaCtx, class.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func Test_plannerApi_plans(t *testing.T) {
	f := setup(t)
	_, token, ctx := f.signIn(t, "Ada", "ada@test.test")

	algebra, err := f.store.CreateClass(ctx, planner.ClassInput{Name: "Algebra", Subject: "Math", Day: intPtr(0), Time: "09:00"})
	require.NoError(t, err)
	physics, err := f.store.CreateClass(ctx, planner.ClassInput{Name: "Physics", Subject: "Science", Day: intPtr(0), Time: "11:00"})
	require.NoError(t, err)

	p1, err := f.store.CreatePlan(ctx, planner.PlanInput{Date: "2024-09-02", RecurringClassID: algebra.ID, Title: "Linear equations"})
	require.NoError(t, err)
	p2, err := f.store.CreatePlan(ctx, planner.PlanInput{Date: "2024-09-09", RecurringClassID: algebra.ID, Title: "Inequalities"})
	require.NoError(t, err)
	p3, err := f.store.CreatePlan(ctx, planner.PlanInput{Date: "2024-09-02", RecurringClassID: physics.ID, Title: "Motion"})
	require.NoError(t, err)

	runHttpTests(t, f, []httpTest{
		{name: "by date", method: http.MethodGet, path: "/v1/plans?date=2024-09-02&ordering=title", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, []planner.LessonPlan{p1, p3})},
		{name: "ordering", method: http.MethodGet, path: "/v1/plans?ordering=-title", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, []planner.LessonPlan{p3, p1, p2})},
		{name: "invalid date", method: http.MethodGet, path: "/v1/plans?date=02/09/2024", token: token, wantCode: http.StatusBadRequest},
		{name: "invalid ordering", method: http.MethodGet, path: "/v1/plans?ordering=password", token: token, wantCode: http.StatusBadRequest},
		{name: "retrieve", method: http.MethodGet, path: "/v1/plans/" + p2.ID, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, p2)},
		{
			name:     "create: duplicate",
			method:   http.MethodPost,
			path:     "/v1/plans",
			body:     marchallObj(t, planner.PlanInput{Date: "2024-09-02", RecurringClassID: algebra.ID, Title: "Again"}),
			token:    token,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: planner.ErrPlanExists.Error()}),
		},
		{
			name:     "create: missing title",
			method:   http.MethodPost,
			path:     "/v1/plans",
			body:     marchallObj(t, planner.PlanInput{Date: "2024-09-16", RecurringClassID: algebra.ID}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		},
	})

	t.Run("create copies the class", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/plans", token,
			marchallObj(t, planner.PlanInput{Date: "2024-09-16", RecurringClassID: algebra.ID, Title: "Quadratics"}))
		f.serve(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var plan planner.LessonPlan
		unmarchall(t, rec, &plan)
		assert.Equal(t, "Algebra", plan.ClassName)
		assert.Equal(t, "Math", plan.Subject)

		req, rec = newAuthRequest(http.MethodDelete, "/v1/plans/"+plan.ID, token)
		f.serve(req, rec)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func Test_plannerApi_templates(t *testing.T) {
	f := setup(t)
	_, token, ctx := f.signIn(t, "Ada", "ada@test.test")

	algebra, err := f.store.CreateClass(ctx, planner.ClassInput{Name: "Algebra", Subject: "Math", Day: intPtr(0), Time: "09:00"})
	require.NoError(t, err)
	tmpl, err := f.store.CreateTemplate(ctx, planner.TemplateInput{Name: "Lab", Subject: "Science", Description: "Hands on", Structure: "Intro, lab, wrap-up"})
	require.NoError(t, err)

	runHttpTests(t, f, []httpTest{
		{name: "list", method: http.MethodGet, path: "/v1/templates", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, []planner.Template{tmpl})},
		{name: "use: missing template", method: http.MethodPost, path: "/v1/templates/nope/use", token: token,
			body: marchallObj(t, planner.PlanFromTemplate{Date: "2024-09-02", RecurringClassID: algebra.ID}), wantCode: http.StatusNotFound},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/templates/"+tmpl.ID+"/use", token,
		marchallObj(t, planner.PlanFromTemplate{Date: "2024-09-02", RecurringClassID: algebra.ID}))
	f.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var plan planner.LessonPlan
	unmarchall(t, rec, &plan)
	assert.Equal(t, "Lab", plan.Title)
	assert.Equal(t, "Hands on", plan.Objectives)
	assert.Equal(t, "Intro, lab, wrap-up", plan.Activities)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/templates/"+tmpl.ID, token)
	f.serve(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func Test_plannerApi_breaksAndProfile(t *testing.T) {
	f := setup(t)
	_, token, ctx := f.signIn(t, "Ada", "ada@test.test")

	runHttpTests(t, f, []httpTest{
		{name: "no profile yet", method: http.MethodGet, path: "/v1/profile", token: token, wantCode: http.StatusNotFound},
		{name: "no breaks", method: http.MethodGet, path: "/v1/breaks", token: token, wantCode: http.StatusOK, wantData: []byte(`[]`)},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/breaks", token,
		marchallObj(t, planner.BreakInput{Name: "Fall break", StartDate: "2024-10-21", EndDate: "2024-10-25"}))
	f.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var brk planner.Break
	unmarchall(t, rec, &brk)
	assert.True(t, brk.Contains("2024-10-23"))

	req, rec = newAuthRequest(http.MethodDelete, "/v1/breaks/"+brk.ID, token)
	f.serve(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := f.store.CreateProfile(ctx, "Ada", "ada@test.test")
	require.NoError(t, err)
	req, rec = newAuthRequest(http.MethodPut, "/v1/profile", token, marchallObj(t, planner.ProfileInput{
		SchoolYear:       planner.SchoolYear{Start: "2024-09-01", End: "2025-06-30"},
		PeriodsPerDay:    6,
		MinutesPerPeriod: 50,
	}))
	f.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile planner.Profile
	unmarchall(t, rec, &profile)
	assert.Equal(t, 6, profile.PeriodsPerDay)
	assert.Equal(t, "2024-09-01", profile.SchoolYear.Start)
}

func Test_plannerApi_lessonsAndSchedule(t *testing.T) {
	f := setup(t)
	_, token, ctx := f.signIn(t, "Ada", "ada@test.test")

	lesson, err := f.store.CreateLesson(ctx, planner.LessonInput{Title: "Fractions", Subject: "Math", Date: "2024-09-03", Duration: 45})
	require.NoError(t, err)

	runHttpTests(t, f, []httpTest{
		{name: "by date", method: http.MethodGet, path: "/v1/lessons?date=2024-09-03", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, []planner.Lesson{lesson})},
		{name: "by other date", method: http.MethodGet, path: "/v1/lessons?date=2024-09-04", token: token, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{name: "slot out of grid", method: http.MethodPut, path: "/v1/schedule/5/0", token: token, body: marchallObj(t, ScheduleSlotRequest{LessonID: lesson.ID}), wantCode: http.StatusBadRequest},
		{name: "slot not a number", method: http.MethodPut, path: "/v1/schedule/mon/0", token: token, body: marchallObj(t, ScheduleSlotRequest{LessonID: lesson.ID}), wantCode: http.StatusBadRequest},
		{name: "copy: missing", method: http.MethodPost, path: "/v1/lessons/nope/copy", token: token, wantCode: http.StatusNotFound},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/lessons/"+lesson.ID+"/copy", token)
	f.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cp planner.Lesson
	unmarchall(t, rec, &cp)
	assert.NotEqual(t, lesson.ID, cp.ID)
	assert.Contains(t, cp.Title, "Fractions")

	req, rec = newAuthRequest(http.MethodPut, "/v1/schedule/1/2", token, marchallObj(t, ScheduleSlotRequest{LessonID: lesson.ID}))
	f.serve(req, rec)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/v1/schedule", token)
	f.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var grid planner.Schedule
	unmarchall(t, rec, &grid)
	require.NotNil(t, grid[2][1])
	assert.Equal(t, lesson.ID, grid[2][1].ID)
	assert.Nil(t, grid[1][2])
}
