package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/plany/core/identity"
	"github.com/trezcool/plany/core/session"
	"github.com/trezcool/plany/core/workspace"
	"github.com/trezcool/plany/services/auth"
)

type agendaOptions struct {
	email       string
	view        workspace.View
	sessionFile string
	logout      bool
	date        time.Time
}

// agenda signs in (resuming the saved session when possible) and prints the planner around opts.date.
func (cli *commandLine) agenda(opts agendaOptions) error {
	ctx := context.Background()

	provider := auth.NewLocalProvider(cli.accounts, cli.validate, cli.issuer, cli.revoker, opts.sessionFile)
	ident := identity.New(provider)
	defer ident.Close()

	if _, err := provider.Restore(ctx); err != nil {
		return err
	}
	if _, err := ident.Init(ctx); err != nil {
		return err
	}

	if opts.logout {
		if err := ident.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Signed out.")
		return nil
	}

	usr := ident.Current()
	if usr == nil || (opts.email != "" && !strings.EqualFold(usr.Email, opts.email)) {
		if opts.email == "" {
			return newFlagError("email", "not signed in: -email is required")
		}
		pwd, err := cli.readPassword("Password for " + opts.email + ":")
		if err != nil {
			return err
		}
		if _, err = ident.Login(ctx, opts.email, pwd); err != nil {
			return err
		}
	}

	ctrl := workspace.NewController(ident, cli.store, cli.logger, opts.date)
	ctrl.Start()
	defer ctrl.Close()
	ctrl.Wait()
	ctrl.Dispatch(workspace.SwitchView{View: opts.view})

	if notice := ctrl.State().Notice; notice != "" {
		return errors.New(notice)
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	switch opts.view {
	case workspace.ViewDay:
		printDay(tw, ctrl.DayView())
	case workspace.ViewWeek:
		week := ctrl.WeekView()
		fmt.Fprintf(tw, "Week of %s\n", week.Start)
		for _, day := range week.Days {
			if len(day.Sessions) == 0 && day.Break == nil {
				continue
			}
			fmt.Fprintln(tw)
			printDay(tw, day)
		}
	case workspace.ViewMonth:
		printMonth(tw, ctrl.MonthView())
	}
	return tw.Flush()
}

func weekdayName(day int) string {
	return time.Weekday((day + 1) % 7).String()
}

func printDay(tw *tabwriter.Writer, day session.Day) {
	fmt.Fprintf(tw, "%s %s\t%d/%d planned\n", weekdayName(day.Weekday), day.Date, day.Planned, len(day.Sessions))
	if day.Break != nil {
		fmt.Fprintf(tw, "  On break: %s\n", day.Break.Name)
	}
	for _, sess := range day.Sessions {
		lesson := "-"
		if sess.Planned() {
			lesson = sess.Plan.Title
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", sess.Class.Time, sess.Class.Name, sess.Class.Subject, lesson)
	}
}

func printMonth(tw *tabwriter.Writer, month session.MonthView) {
	fmt.Fprintf(tw, "%s %d\n", month.Month, month.Year)
	for _, day := range month.Days {
		if day.Sessions == 0 && !day.OnBreak {
			continue
		}
		status := fmt.Sprintf("%d/%d planned", day.Planned, day.Sessions)
		if day.OnBreak {
			status += " (break)"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", day.Date, status)
	}
}
