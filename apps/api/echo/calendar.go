package echoapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/core/session"
	"github.com/trezcool/plany/services/export"
)

const monthLayout = "2006-01"

type calendarApi struct {
	store *planner.Store
}

func registerCalendarAPI(g *echo.Group, store *planner.Store) {
	api := calendarApi{store: store}
	g.GET("/day/:date", api.day)
	g.GET("/week/:date", api.week)
	g.GET("/week/:date/export", api.exportWeek)
	g.GET("/month/:month", api.month)
}

func dateParam(ctx echo.Context) (time.Time, error) {
	date, err := session.ParseDate(ctx.Param("date"))
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"})
	}
	return date, nil
}

func (api *calendarApi) load(ctx echo.Context) (planner.Data, error) {
	data, err := api.store.LoadAll(reqCtx(ctx))
	return data, errors.Wrap(err, "loading planner data")
}

func (api *calendarApi) day(ctx echo.Context) error {
	date, err := dateParam(ctx)
	if err != nil {
		return err
	}
	data, err := api.load(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, session.DayOf(date, data))
}

func (api *calendarApi) week(ctx echo.Context) error {
	date, err := dateParam(ctx)
	if err != nil {
		return err
	}
	data, err := api.load(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, session.Week(date, data))
}

func (api *calendarApi) exportWeek(ctx echo.Context) error {
	date, err := dateParam(ctx)
	if err != nil {
		return err
	}
	data, err := api.load(ctx)
	if err != nil {
		return err
	}

	week := session.Week(date, data)
	var buf bytes.Buffer
	if err = export.Week(&buf, week); err != nil {
		return errors.Wrap(err, "exporting week")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.WeekFilename(week)+`"`)
	return ctx.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

func (api *calendarApi) month(ctx echo.Context) error {
	m, err := time.ParseInLocation(monthLayout, ctx.Param("month"), time.UTC)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "month", Error: "month must be formatted as YYYY-MM"})
	}
	data, err := api.load(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, session.Month(m.Year(), m.Month(), data))
}
