package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core/planner"
)

type (
	plannerApi struct {
		store *planner.Store
	}

	ScheduleSlotRequest struct {
		LessonID string `json:"lessonId"`
	}
)

func registerPlannerAPI(g *echo.Group, deps ServerDeps) {
	api := plannerApi{store: deps.Store}

	cg := g.Group("/classes")
	cg.GET("", api.listClasses)
	cg.POST("", api.createClass)
	cg.GET("/:id", api.retrieveClass)
	cg.PUT("/:id", api.updateClass)
	cg.DELETE("/:id", api.destroyClass)

	pg := g.Group("/plans")
	pg.GET("", api.queryPlans)
	pg.POST("", api.createPlan)
	pg.GET("/:id", api.retrievePlan)
	pg.PUT("/:id", api.updatePlan)
	pg.DELETE("/:id", api.destroyPlan)

	tg := g.Group("/templates")
	tg.GET("", api.listTemplates)
	tg.POST("", api.createTemplate)
	tg.GET("/:id", api.retrieveTemplate)
	tg.PUT("/:id", api.updateTemplate)
	tg.DELETE("/:id", api.destroyTemplate)
	tg.POST("/:id/use", api.useTemplate)

	bg := g.Group("/breaks")
	bg.GET("", api.listBreaks)
	bg.POST("", api.createBreak)
	bg.DELETE("/:id", api.destroyBreak)

	g.GET("/profile", api.retrieveProfile)
	g.PUT("/profile", api.updateProfile)

	lg := g.Group("/lessons")
	lg.GET("", api.queryLessons)
	lg.POST("", api.createLesson)
	lg.GET("/:id", api.retrieveLesson)
	lg.PUT("/:id", api.updateLesson)
	lg.DELETE("/:id", api.destroyLesson)
	lg.POST("/:id/copy", api.copyLesson)

	g.GET("/schedule", api.retrieveSchedule)
	g.PUT("/schedule/:day/:slot", api.updateScheduleSlot)
}

func reqCtx(ctx echo.Context) context.Context {
	return ctx.Request().Context()
}

// Classes

func (api *plannerApi) listClasses(ctx echo.Context) error {
	classes, err := api.store.ListClasses(reqCtx(ctx))
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *plannerApi) createClass(ctx echo.Context) error {
	var data planner.ClassInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassInput")
	}
	class, err := api.store.CreateClass(reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *plannerApi) retrieveClass(ctx echo.Context) error {
	class, err := api.store.GetClass(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class")
	}
	if class == nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *plannerApi) updateClass(ctx echo.Context) error {
	var data planner.ClassInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassInput")
	}
	class, err := api.store.UpdateClass(reqCtx(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *plannerApi) destroyClass(ctx echo.Context) error {
	if err := api.store.DeleteClass(reqCtx(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Plans

func (api *plannerApi) queryPlans(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	plans, err := api.store.QueryPlans(reqCtx(ctx), ctx.QueryParam("date"), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying plans")
	}
	return ctx.JSON(http.StatusOK, plans)
}

func (api *plannerApi) createPlan(ctx echo.Context) error {
	var data planner.PlanInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PlanInput")
	}
	plan, err := api.store.CreatePlan(reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating plan")
	}
	return ctx.JSON(http.StatusCreated, plan)
}

func (api *plannerApi) retrievePlan(ctx echo.Context) error {
	plan, err := api.store.GetPlan(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting plan")
	}
	if plan == nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, plan)
}

func (api *plannerApi) updatePlan(ctx echo.Context) error {
	var data planner.PlanInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PlanInput")
	}
	plan, err := api.store.UpdatePlan(reqCtx(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating plan")
	}
	return ctx.JSON(http.StatusOK, plan)
}

func (api *plannerApi) destroyPlan(ctx echo.Context) error {
	if err := api.store.DeletePlan(reqCtx(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting plan")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Templates

func (api *plannerApi) listTemplates(ctx echo.Context) error {
	tmpls, err := api.store.ListTemplates(reqCtx(ctx))
	if err != nil {
		return errors.Wrap(err, "listing templates")
	}
	return ctx.JSON(http.StatusOK, tmpls)
}

func (api *plannerApi) createTemplate(ctx echo.Context) error {
	var data planner.TemplateInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TemplateInput")
	}
	tmpl, err := api.store.CreateTemplate(reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating template")
	}
	return ctx.JSON(http.StatusCreated, tmpl)
}

func (api *plannerApi) retrieveTemplate(ctx echo.Context) error {
	tmpl, err := api.store.GetTemplate(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting template")
	}
	if tmpl == nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, tmpl)
}

func (api *plannerApi) updateTemplate(ctx echo.Context) error {
	var data planner.TemplateInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TemplateInput")
	}
	tmpl, err := api.store.UpdateTemplate(reqCtx(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating template")
	}
	return ctx.JSON(http.StatusOK, tmpl)
}

func (api *plannerApi) destroyTemplate(ctx echo.Context) error {
	if err := api.store.DeleteTemplate(reqCtx(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting template")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerApi) useTemplate(ctx echo.Context) error {
	var data planner.PlanFromTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PlanFromTemplate")
	}
	plan, err := api.store.UseTemplate(reqCtx(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "using template")
	}
	return ctx.JSON(http.StatusCreated, plan)
}

// Breaks

func (api *plannerApi) listBreaks(ctx echo.Context) error {
	breaks, err := api.store.ListBreaks(reqCtx(ctx))
	if err != nil {
		return errors.Wrap(err, "listing breaks")
	}
	return ctx.JSON(http.StatusOK, breaks)
}

func (api *plannerApi) createBreak(ctx echo.Context) error {
	var data planner.BreakInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BreakInput")
	}
	brk, err := api.store.CreateBreak(reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating break")
	}
	return ctx.JSON(http.StatusCreated, brk)
}

func (api *plannerApi) destroyBreak(ctx echo.Context) error {
	if err := api.store.DeleteBreak(reqCtx(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting break")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Profile

func (api *plannerApi) retrieveProfile(ctx echo.Context) error {
	profile, err := api.store.GetProfile(reqCtx(ctx))
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	if profile == nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *plannerApi) updateProfile(ctx echo.Context) error {
	var data planner.ProfileInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProfileInput")
	}
	profile, err := api.store.UpdateProfile(reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

// Lessons (legacy grid)

func (api *plannerApi) queryLessons(ctx echo.Context) error {
	var (
		lessons []planner.Lesson
		err     error
	)
	if date := ctx.QueryParam("date"); date != "" {
		lessons, err = api.store.LessonsByDate(reqCtx(ctx), date)
	} else {
		lessons, err = api.store.ListLessons(reqCtx(ctx))
	}
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *plannerApi) createLesson(ctx echo.Context) error {
	var data planner.LessonInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LessonInput")
	}
	lesson, err := api.store.CreateLesson(reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, lesson)
}

func (api *plannerApi) retrieveLesson(ctx echo.Context) error {
	lesson, err := api.store.GetLesson(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lesson")
	}
	if lesson == nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, lesson)
}

func (api *plannerApi) updateLesson(ctx echo.Context) error {
	var data planner.LessonInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LessonInput")
	}
	lesson, err := api.store.UpdateLesson(reqCtx(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lesson)
}

func (api *plannerApi) destroyLesson(ctx echo.Context) error {
	if err := api.store.DeleteLesson(reqCtx(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerApi) copyLesson(ctx echo.Context) error {
	lesson, err := api.store.CopyLesson(reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "copying lesson")
	}
	return ctx.JSON(http.StatusCreated, lesson)
}

func (api *plannerApi) retrieveSchedule(ctx echo.Context) error {
	grid, err := api.store.GetSchedule(reqCtx(ctx))
	if err != nil {
		return errors.Wrap(err, "getting schedule")
	}
	return ctx.JSON(http.StatusOK, grid)
}

func (api *plannerApi) updateScheduleSlot(ctx echo.Context) error {
	day, err := intParam(ctx, "day")
	if err != nil {
		return err
	}
	slot, err := intParam(ctx, "slot")
	if err != nil {
		return err
	}
	var data ScheduleSlotRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScheduleSlotRequest")
	}
	if err = api.store.SaveScheduleSlot(reqCtx(ctx), day, slot, data.LessonID); err != nil {
		return errors.Wrap(err, "saving schedule slot")
	}
	return ctx.NoContent(http.StatusNoContent)
}
