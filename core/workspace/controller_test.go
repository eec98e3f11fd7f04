package workspace

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/identity"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/services/logger"
	"github.com/trezcool/plany/storage/database/inmem"
)

type switchProvider struct {
	mu    sync.Mutex
	watch func(*identity.User)
}

func (p *switchProvider) set(usr *identity.User) {
	p.mu.Lock()
	fn := p.watch
	p.mu.Unlock()
	fn(usr)
}

func (p *switchProvider) Register(context.Context, string, string, string) (*identity.User, error) {
	return nil, errors.New("not supported")
}

func (p *switchProvider) Login(context.Context, string, string) (*identity.User, error) {
	return nil, errors.New("not supported")
}

func (p *switchProvider) Logout(context.Context) error {
	p.set(nil)
	return nil
}

func (p *switchProvider) Watch(fn func(*identity.User)) func() {
	p.mu.Lock()
	p.watch = fn
	p.mu.Unlock()
	return func() {}
}

type failingStore struct {
	*planner.Store
}

func (failingStore) LoadAll(context.Context) (planner.Data, error) {
	return planner.Data{}, errors.New("unavailable")
}

func TestController(t *testing.T) {
	validate, _ := core.NewValidator()
	store := planner.NewStore(inmemdb.NewDocStore(inmemdb.Open()), validate)
	var logs bytes.Buffer
	logger := logsvc.NewRollbarLogger(log.New(&logs, "", 0), core.NewTestConfig())

	// seed ada's planner
	adaCtx := identity.WithUser(context.Background(), ada)
	day := 0
	class, err := store.CreateClass(adaCtx, planner.ClassInput{Name: "Algebra I", Day: &day, Time: "09:00"})
	require.NoError(t, err)

	provider := &switchProvider{}
	ident := identity.New(provider)
	defer ident.Close()
	provider.set(nil)

	c := NewController(ident, store, logger, monday)
	c.Start()
	defer c.Close()
	assert.Nil(t, c.State().User)

	provider.set(ada)
	c.Wait()
	st := c.State()
	assert.Equal(t, ada, st.User)
	assert.False(t, st.Loading)
	require.Len(t, st.Data.Classes, 1)

	month := c.MonthView()
	assert.Equal(t, 1, month.Days[1].Sessions)
	assert.Equal(t, 0, month.Days[1].Planned)

	_, err = c.SavePlan(context.Background(), planner.PlanInput{Title: "Quadratics"})
	assert.Equal(t, ErrNoSelection, err)

	c.Dispatch(ActivateDay{Date: monday})
	assert.Equal(t, ViewDay, c.State().View)
	c.Dispatch(SelectSession{Date: monday, ClassID: class.ID})
	created, err := c.SavePlan(context.Background(), planner.PlanInput{Title: "Quadratics"})
	require.NoError(t, err)
	assert.Equal(t, "2024-09-02", created.Date)
	assert.Nil(t, c.State().Selection)

	dayView := c.DayView()
	require.Len(t, dayView.Sessions, 1)
	require.NotNil(t, dayView.Sessions[0].Plan)
	assert.Equal(t, created.ID, dayView.Sessions[0].Plan.ID)

	// edit mode updates the same plan
	c.Dispatch(SelectSession{Date: monday, ClassID: class.ID})
	require.True(t, c.State().Selection.Editing())
	updated, err := c.SavePlan(context.Background(), planner.PlanInput{Title: "Quadratics II"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Len(t, c.State().Data.Plans, 1)
	assert.Equal(t, 7, len(c.WeekView().Days))
	assert.Len(t, c.Sessions(), 1)

	require.NoError(t, ident.Logout(context.Background()))
	c.Wait()
	assert.Nil(t, c.State().User)
	assert.Empty(t, c.State().Data.Classes)
}

func TestController_LoadFailure(t *testing.T) {
	validate, _ := core.NewValidator()
	store := planner.NewStore(inmemdb.NewDocStore(inmemdb.Open()), validate)
	var logs bytes.Buffer
	logger := logsvc.NewRollbarLogger(log.New(&logs, "", 0), core.NewTestConfig())

	provider := &switchProvider{}
	ident := identity.New(provider)
	defer ident.Close()

	c := NewController(ident, failingStore{store}, logger, monday)
	c.Start()
	defer c.Close()

	provider.set(ada)
	c.Wait()
	st := c.State()
	assert.Equal(t, loadFailedNotice, st.Notice)
	assert.False(t, st.Loading)
	assert.Contains(t, logs.String(), "loading planner: unavailable")
}

type blockingStore struct {
	*planner.Store
	entered chan struct{}
	release chan struct{}
}

func (s blockingStore) CreatePlan(ctx context.Context, in planner.PlanInput) (planner.LessonPlan, error) {
	close(s.entered)
	<-s.release
	return s.Store.CreatePlan(ctx, in)
}

func TestController_SaveAfterLogout(t *testing.T) {
	validate, _ := core.NewValidator()
	store := planner.NewStore(inmemdb.NewDocStore(inmemdb.Open()), validate)
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.NewTestConfig())

	day := 0
	class, err := store.CreateClass(identity.WithUser(context.Background(), ada), planner.ClassInput{Name: "Algebra I", Day: &day, Time: "09:00"})
	require.NoError(t, err)

	provider := &switchProvider{}
	ident := identity.New(provider)
	defer ident.Close()

	blocking := blockingStore{Store: store, entered: make(chan struct{}), release: make(chan struct{})}
	c := NewController(ident, blocking, logger, monday)
	c.Start()
	defer c.Close()

	provider.set(ada)
	c.Wait()
	c.Dispatch(SelectSession{Date: monday, ClassID: class.ID})
	require.NotNil(t, c.State().Selection)

	type result struct {
		plan planner.LessonPlan
		err  error
	}
	saved := make(chan result, 1)
	go func() {
		plan, err := c.SavePlan(context.Background(), planner.PlanInput{Title: "Quadratics"})
		saved <- result{plan, err}
	}()

	<-blocking.entered
	provider.set(nil)
	close(blocking.release)
	res := <-saved
	require.NoError(t, res.err)
	assert.NotEmpty(t, res.plan.ID)

	st := c.State()
	assert.Nil(t, st.User)
	assert.Empty(t, st.Data.Plans)
	assert.Empty(t, st.Data.Classes)

	_, err = c.SavePlan(context.Background(), planner.PlanInput{Title: "Quadratics"})
	assert.Equal(t, identity.ErrUnauthenticated, err)
}
