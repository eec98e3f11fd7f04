package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/core/workspace"
	"github.com/trezcool/plany/services/auth"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	nowFunc          = time.Now          // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB
	logger   core.Logger
	accounts *account.Service
	store    *planner.Store
	validate *validator.Validate
	issuer   *auth.Issuer
	revoker  auth.Revoker
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                    - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL [-name NAME]         - create or reactivate an account")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                - reset an account's password")
	fmt.Fprintln(cli.out, "  agenda -email EMAIL [-date DATE] [-view VIEW] [-logout] - print a planner view")
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "plany", "session")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The account's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The account's display name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	agendaCmd := flag.NewFlagSet("agenda", flag.ContinueOnError)
	agendaEmail := agendaCmd.String("email", "", "Sign in with this email when there is no saved session for it.")
	agendaDate := agendaCmd.String("date", "", "The focused date (YYYY-MM-DD); defaults to today.")
	agendaView := agendaCmd.String("view", string(workspace.ViewDay), "day, week or month.")
	agendaSession := agendaCmd.String("session", defaultSessionFile(), "Where the session is kept between runs.")
	agendaLogout := agendaCmd.Bool("logout", false, "Sign out and forget the saved session.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, agendaCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserEmail, *addUserName, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "agenda":
		if err := agendaCmd.Parse(args[2:]); err != nil {
			return err
		}
		view := workspace.View(*agendaView)
		if !view.Valid() {
			return newFlagError("view", fmt.Sprintf("unknown view %q", *agendaView))
		}
		opts := agendaOptions{
			email:       *agendaEmail,
			view:        view,
			sessionFile: *agendaSession,
			logout:      *agendaLogout,
			date:        nowFunc(),
		}
		if *agendaDate != "" {
			date, err := time.ParseInLocation(core.DateLayout, *agendaDate, time.UTC)
			if err != nil {
				return newFlagError("date", fmt.Sprintf("invalid date %q: use YYYY-MM-DD", *agendaDate))
			}
			opts.date = date
		}
		return cli.agenda(opts)

	default:
		cli.printUsage()
		return errHelp
	}
}
