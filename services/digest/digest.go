// Package digest mails every user the sessions of the day that still have no lesson plan.
package digest

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
	"github.com/trezcool/plany/core/identity"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/core/session"
)

const runTimeout = 5 * time.Minute

type Job struct {
	accounts *account.Service
	store    *planner.Store
	mailSvc  core.EmailService
	logger   core.Logger
	now      func() time.Time
}

func NewJob(accounts *account.Service, store *planner.Store, mailSvc core.EmailService, logger core.Logger) *Job {
	vala.BeginValidation().Validate(
		vala.IsNotNil(accounts, "accounts"),
		core.NotNil(store, "store"),
		core.NotNil(mailSvc, "mailSvc"),
		core.NotNil(logger, "logger"),
	).CheckAndPanic()

	return &Job{accounts: accounts, store: store, mailSvc: mailSvc, logger: logger, now: time.Now}
}

// Run mails today's digest to every active account and returns how many were sent.
// A failure for one account is logged and does not stop the others.
func (j *Job) Run(ctx context.Context) (int, error) {
	accs, err := j.accounts.QueryActive(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying active accounts")
	}

	today := j.now().UTC()
	var messages []*core.EmailMessage
	for _, acc := range accs {
		usr := acc.Identity()
		msg, err := j.message(identity.WithUser(ctx, usr), acc, today)
		if err != nil {
			j.logger.Error(fmt.Sprintf("digest for %s: %v", acc.Email, err), err, usr)
			continue
		}
		if msg != nil {
			messages = append(messages, msg)
		}
	}
	if len(messages) > 0 {
		j.mailSvc.SendMessages(messages...)
	}
	return len(messages), nil
}

// message returns nil when there is nothing to remind acc of.
func (j *Job) message(ctx context.Context, acc account.Account, today time.Time) (*core.EmailMessage, error) {
	data, err := j.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	day := session.DayOf(today, data)
	if day.Break != nil || day.Planned == len(day.Sessions) {
		return nil, nil
	}

	unplanned := make([]planner.RecurringClass, 0, len(day.Sessions)-day.Planned)
	for _, sess := range day.Sessions {
		if !sess.Planned() {
			unplanned = append(unplanned, sess.Class)
		}
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: acc.DisplayName, Address: acc.Email}},
		Subject:      "Unplanned classes today",
		TemplateName: "digest",
		TemplateData: map[string]interface{}{
			"Name":      acc.Name(),
			"Date":      day.Date,
			"Total":     len(day.Sessions),
			"Unplanned": unplanned,
		},
	}, nil
}

// Schedule runs job on spec (standard 5 field cron syntax, UTC). Stop the returned scheduler on shutdown.
func Schedule(spec string, job *Job, logger core.Logger) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		sent, err := job.Run(ctx)
		if err != nil {
			logger.Error(fmt.Sprintf("digest: %v", err), err)
			return
		}
		logger.Info(fmt.Sprintf("digest: %d message(s) sent", sent))
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scheduling digest %q", spec)
	}
	c.Start()
	return c, nil
}
