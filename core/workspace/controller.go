package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/identity"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/core/session"
)

var ErrNoSelection = errors.New("no class session selected")

// Store is what the controller needs from the record store.
type Store interface {
	LoadAll(ctx context.Context) (planner.Data, error)
	CreatePlan(ctx context.Context, in planner.PlanInput) (planner.LessonPlan, error)
	UpdatePlan(ctx context.Context, id string, in planner.PlanInput) (planner.LessonPlan, error)
}

// Controller owns the State of one client session and runs the effects of its transitions.
type Controller struct {
	ident  *identity.Context
	store  Store
	logger core.Logger

	mu    sync.Mutex
	state State
	wg    sync.WaitGroup
	stop  func()
}

func NewController(ident *identity.Context, store Store, logger core.Logger, today time.Time) *Controller {
	vala.BeginValidation().Validate(
		vala.IsNotNil(ident, "ident"),
		core.NotNil(store, "store"),
		core.NotNil(logger, "logger"),
	).CheckAndPanic()

	return &Controller{
		ident:  ident,
		store:  store,
		logger: logger,
		state:  Initial(today),
	}
}

// Start follows the identity context: signing in loads the planner, signing out clears it.
func (c *Controller) Start() {
	c.stop = c.ident.Subscribe(func(usr *identity.User) {
		if usr == nil {
			c.Dispatch(SignedOut{})
			return
		}
		c.Dispatch(SignedIn{User: usr})
	})
}

// Close stops following the identity context and waits for in-flight loads.
func (c *Controller) Close() {
	if c.stop != nil {
		c.stop()
	}
	c.Wait()
}

// Wait blocks until every in-flight load has been applied.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Dispatch(ev Event) {
	c.mu.Lock()
	var effects []Effect
	c.state, effects = Reduce(c.state, ev)
	c.mu.Unlock()

	for _, eff := range effects {
		c.run(eff)
	}
}

func (c *Controller) run(eff Effect) {
	switch eff := eff.(type) {
	case LoadAll:
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			ctx := identity.WithUser(context.Background(), eff.User)
			data, err := c.store.LoadAll(ctx)
			if err != nil {
				c.Dispatch(LoadFailed{Generation: eff.Generation, Err: err})
				return
			}
			c.Dispatch(LoadSucceeded{Generation: eff.Generation, Data: data})
		}()
	case NotifyFailure:
		c.logger.Error(fmt.Sprintf("loading planner: %v", eff.Err), eff.Err, c.State().User)
	}
}

// Sessions returns the sessions of the focused date.
func (c *Controller) Sessions() []session.Session {
	return c.State().Sessions()
}

func (c *Controller) DayView() session.Day {
	st := c.State()
	return session.DayOf(st.Cursor, st.Data)
}

func (c *Controller) WeekView() session.WeekView {
	st := c.State()
	return session.Week(st.Cursor, st.Data)
}

func (c *Controller) MonthView() session.MonthView {
	st := c.State()
	return session.Month(st.Cursor.Year(), st.Cursor.Month(), st.Data)
}

// SavePlan creates the plan of the selected session, or updates it in edit mode, then closes the form.
func (c *Controller) SavePlan(ctx context.Context, in planner.PlanInput) (planner.LessonPlan, error) {
	st := c.State()
	if st.User == nil {
		return planner.LessonPlan{}, identity.ErrUnauthenticated
	}
	if st.Selection == nil {
		return planner.LessonPlan{}, ErrNoSelection
	}
	sel := *st.Selection
	in.Date = sel.Date
	in.RecurringClassID = sel.ClassID

	ctx = identity.WithUser(ctx, st.User)
	var (
		plan planner.LessonPlan
		err  error
	)
	if sel.Editing() {
		plan, err = c.store.UpdatePlan(ctx, sel.PlanID, in)
	} else {
		plan, err = c.store.CreatePlan(ctx, in)
	}
	if err != nil {
		return planner.LessonPlan{}, err
	}
	c.Dispatch(PlanSaved{UserID: st.User.ID, Plan: plan})
	return plan, nil
}
