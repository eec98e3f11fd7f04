package digest

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
	"github.com/trezcool/plany/core/identity"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/services/email"
	"github.com/trezcool/plany/services/logger"
	"github.com/trezcool/plany/storage/database/inmem"
	"github.com/trezcool/plany/tests"
)

func TestJob_Run(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	core.ParseEmailTemplates(logger, true)
	validate, _ := core.NewValidator()

	db := inmemdb.Open()
	repo := inmemdb.NewAccountRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	accounts := account.NewService(repo, mailSvc, conf)
	store := planner.NewStore(inmemdb.NewDocStore(db), validate)

	monday := "2025-01-06"
	addClass := func(ctx context.Context, name, at string) planner.RecurringClass {
		day := 0
		class, err := store.CreateClass(ctx, planner.ClassInput{Name: name, Subject: "Math", Day: &day, Time: at})
		require.NoError(t, err)
		return class
	}
	ctxOf := func(acc account.Account) context.Context {
		return identity.WithUser(context.Background(), acc.Identity())
	}

	// ada has one unplanned class out of two
	ada := testutil.CreateAccount(t, repo, "Ada", "ada@test.test", "", true)
	adaCtx := ctxOf(ada)
	algebra := addClass(adaCtx, "Algebra I", "10:00")
	addClass(adaCtx, "Geometry", "08:00")
	_, err := store.CreatePlan(adaCtx, planner.PlanInput{Date: monday, RecurringClassID: algebra.ID, Title: "Equations"})
	require.NoError(t, err)

	// grace planned everything
	grace := testutil.CreateAccount(t, repo, "Grace", "grace@test.test", "", true)
	graceCtx := ctxOf(grace)
	cobol := addClass(graceCtx, "Cobol", "09:00")
	_, err = store.CreatePlan(graceCtx, planner.PlanInput{Date: monday, RecurringClassID: cobol.ID, Title: "Records"})
	require.NoError(t, err)

	// alan is on break
	alan := testutil.CreateAccount(t, repo, "Alan", "alan@test.test", "", true)
	alanCtx := ctxOf(alan)
	addClass(alanCtx, "Logic", "09:00")
	_, err = store.CreateBreak(alanCtx, planner.BreakInput{Name: "Winter", StartDate: "2025-01-01", EndDate: "2025-01-07"})
	require.NoError(t, err)

	// deactivated accounts are left alone
	bob := testutil.CreateAccount(t, repo, "Bob", "bob@test.test", "", false)
	addClass(ctxOf(bob), "Chemistry", "09:00")

	job := NewJob(accounts, store, mailSvc, logger)
	job.now = func() time.Time { return time.Date(2025, 1, 6, 5, 0, 0, 0, time.UTC) }

	sent, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := mailSvc.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ada@test.test", msgs[0].To[0].Address)
	assert.Equal(t, "digest", msgs[0].TemplateName)
	assert.Contains(t, msgs[0].TextContent, "1 of your 2 classes on 2025-01-06 have no lesson plan yet:")
	assert.Contains(t, msgs[0].TextContent, "- 08:00 Geometry (Math)")
	assert.NotContains(t, msgs[0].TextContent, "Algebra I")
}

func TestSchedule(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	validate, _ := core.NewValidator()
	db := inmemdb.Open()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	job := NewJob(
		account.NewService(inmemdb.NewAccountRepository(db), mailSvc, conf),
		planner.NewStore(inmemdb.NewDocStore(db), validate),
		mailSvc,
		logger,
	)

	c, err := Schedule(conf.Digest.Spec, job, logger)
	require.NoError(t, err)
	entries := c.Entries()
	require.Len(t, entries, 1)
	next := entries[0].Next
	assert.Equal(t, time.UTC, next.Location())
	assert.Equal(t, 6, next.Hour())
	assert.Zero(t, next.Minute())
	assert.NotContains(t, []time.Weekday{time.Saturday, time.Sunday}, next.Weekday())
	<-c.Stop().Done()

	_, err = Schedule("not a spec", job, logger)
	assert.Error(t, err)
}
