package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/services/auth"
	"github.com/trezcool/plany/services/email"
	"github.com/trezcool/plany/services/logger"
	"github.com/trezcool/plany/storage/database"
	"github.com/trezcool/plany/storage/database/gorm"
	"github.com/trezcool/plany/storage/database/sqlboiler"
	"github.com/trezcool/plany/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)
	core.ParseEmailTemplates(appLogger, conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	var docs core.DocStore
	if conf.Database.Driver == core.DriverGorm {
		gdb, err := gormrepos.Open(db, conf.Debug)
		errAndDie(err)
		docs = gormrepos.NewDocStore(gdb)
	} else {
		docs = sqlxrepos.NewDocStore(db)
	}

	// set up services
	validate, translator := core.NewValidator()
	account.InitValidators(validate, translator)
	accRepo := boiledrepos.NewAccountRepository(db)
	mailSvc := emailsvc.NewConsoleService(conf, appLogger, log.New(os.Stdout, "", 0))

	// start CLI
	cli := commandLine{
		db:       db,
		logger:   appLogger,
		accounts: account.NewService(accRepo, mailSvc, conf),
		store:    planner.NewStore(docs, validate),
		validate: validate,
		issuer:   auth.NewIssuer(conf),
		revoker:  auth.NewRevoker(context.Background(), conf, appLogger),
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if ferr, ok := err.(*flagError); ok {
			logger.Printf("\nerror: -%s: %s\n", ferr.Flag(), err)
			os.Exit(2)
		}
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
