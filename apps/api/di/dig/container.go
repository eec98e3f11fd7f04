package dig_container

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/plany/apps/api/echo"
	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/services/auth"
	"github.com/trezcool/plany/services/digest"
	emailsvc "github.com/trezcool/plany/services/email"
	logsvc "github.com/trezcool/plany/services/logger"
	"github.com/trezcool/plany/storage/database"
	gormrepos "github.com/trezcool/plany/storage/database/gorm"
	inmemdb "github.com/trezcool/plany/storage/database/inmem"
	boiledrepos "github.com/trezcool/plany/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/plany/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Storage holds the repositories of the configured database driver.
// DB is nil for the in-memory driver.
type Storage struct {
	DB       *sql.DB
	Accounts account.Repository
	Docs     core.DocStore
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) *Storage {
	logger := loggerParam.Logger

	if conf.Database.Driver == core.DriverMemory {
		logger.Warn("using the in-memory database: data is lost on exit")
		mem := inmemdb.Open()
		return &Storage{Accounts: inmemdb.NewAccountRepository(mem), Docs: inmemdb.NewDocStore(mem)}
	}

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	s := &Storage{DB: db, Accounts: boiledrepos.NewAccountRepository(db)}

	switch conf.Database.Driver {
	case core.DriverGorm:
		gdb, err := gormrepos.Open(db, conf.Debug)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening gorm: %v", err), err)
		}
		s.Docs = gormrepos.NewDocStore(gdb)
	default:
		s.Docs = sqlxrepos.NewDocStore(db)
	}
	return s
}

// db returns nil rather than a typed nil for the in-memory driver.
func (s *Storage) db() core.DB {
	if s.DB == nil {
		return nil
	}
	return s.DB
}

func newAccountRepository(s *Storage) account.Repository { return s.Accounts }

func newDocStore(s *Storage) core.DocStore { return s.Docs }

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger, log.New(os.Stdout, "", 0))
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	account.InitValidators(validate, translator)
	return validate, translator
}

func newRevoker(conf *core.Config, logger core.Logger) auth.Revoker {
	return auth.NewRevoker(context.Background(), conf, logger)
}

func newServer(
	storage *Storage,
	conf *core.Config,
	logger core.Logger,
	accounts *account.Service,
	store *planner.Store,
	issuer *auth.Issuer,
	revoker auth.Revoker,
	validate *validator.Validate,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Accounts:   accounts,
		Store:      store,
		Issuer:     issuer,
		Revoker:    revoker,
		Validate:   validate,
		Translator: translator,
		DB:         storage.db(),
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newAccountRepository))
	must(c.Provide(newDocStore))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidator))
	must(c.Provide(account.NewService))
	must(c.Provide(planner.NewStore))
	must(c.Provide(auth.NewIssuer))
	must(c.Provide(newRevoker))
	must(c.Provide(digest.NewJob))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
