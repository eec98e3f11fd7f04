// Package export renders planner views as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/plany/core/session"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	weekSheet = "Week"
)

var weekHeaders = []interface{}{"Date", "Day", "Time", "Class", "Subject", "Location", "Lesson", "Objectives", "Status"}

// WeekFilename is the attachment name of an exported week.
func WeekFilename(week session.WeekView) string {
	return "week-" + week.Start + ".xlsx"
}

// Week writes week as an XLSX workbook: one row per session, then one row per break day without sessions.
func Week(w io.Writer, week session.WeekView) error {
	f := excelize.NewFile()
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()

	if err := f.SetSheetName("Sheet1", weekSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	if err := f.SetSheetRow(weekSheet, "A1", &weekHeaders); err != nil {
		return errors.Wrap(err, "writing headers")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err = f.SetCellStyle(weekSheet, "A1", "I1", bold); err != nil {
		return errors.Wrap(err, "styling headers")
	}
	if err = f.SetColWidth(weekSheet, "D", "H", 24); err != nil {
		return errors.Wrap(err, "sizing columns")
	}

	row := 2
	for _, day := range week.Days {
		dayName := time.Weekday((day.Weekday + 1) % 7).String()
		if len(day.Sessions) == 0 {
			if day.Break == nil {
				continue
			}
			values := []interface{}{day.Date, dayName, "", "", "", "", "", "", "Break: " + day.Break.Name}
			if err = setRow(f, row, values); err != nil {
				return err
			}
			row++
			continue
		}

		for _, sess := range day.Sessions {
			var title, objectives string
			status := "Unplanned"
			if sess.Planned() {
				title, objectives = sess.Plan.Title, sess.Plan.Objectives
				status = "Planned"
			}
			if day.Break != nil {
				status += " (break: " + day.Break.Name + ")"
			}
			values := []interface{}{
				day.Date, dayName, sess.Class.Time, sess.Class.Name, sess.Class.Subject, sess.Class.Location,
				title, objectives, status,
			}
			if err = setRow(f, row, values); err != nil {
				return err
			}
			row++
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "locating row")
	}
	return errors.Wrap(f.SetSheetRow(weekSheet, cell, &values), fmt.Sprintf("writing row %d", row))
}
