package identity

import (
	"context"
	"sync"

	"github.com/kat-co/vala"
)

// Context holds the current user of a client session.
type Context struct {
	provider Provider
	stop     func()

	// deliver orders notifications: a subscriber never sees an older state after a newer one.
	deliver sync.Mutex

	mu        sync.RWMutex
	current   *User
	listeners map[int]func(*User)
	nextID    int

	ready     chan struct{}
	readyOnce sync.Once
}

// New starts watching provider. Call Close to stop.
func New(provider Provider) *Context {
	vala.BeginValidation().Validate(
		vala.IsNotNil(provider, "provider"),
	).CheckAndPanic()

	c := &Context{
		provider:  provider,
		listeners: make(map[int]func(*User)),
		ready:     make(chan struct{}),
	}
	c.stop = provider.Watch(c.set)
	return c
}

func (c *Context) set(usr *User) {
	c.deliver.Lock()
	defer c.deliver.Unlock()

	c.mu.Lock()
	c.current = usr
	listeners := make([]func(*User), 0, len(c.listeners))
	for id := 0; id < c.nextID; id++ {
		if fn, ok := c.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	c.mu.Unlock()

	c.readyOnce.Do(func() { close(c.ready) })

	for _, fn := range listeners {
		fn(usr)
	}
}

// Init waits for the provider to report the initial auth state and returns the current user (nil if signed out).
// It returns immediately once the state is known.
func (c *Context) Init(ctx context.Context) (*User, error) {
	select {
	case <-c.ready:
		return c.Current(), nil
	default:
	}

	select {
	case <-c.ready:
		return c.Current(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Context) Current() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Context) IsAuthenticated() bool {
	return c.Current() != nil
}

// Subscribe calls fn with the current state right away and then on every change.
// The returned func unsubscribes fn; calling it more than once is a no-op.
// fn must not sign in or out synchronously.
func (c *Context) Subscribe(fn func(*User)) (unsubscribe func()) {
	c.deliver.Lock()
	defer c.deliver.Unlock()

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := c.current
	c.mu.Unlock()

	fn(current)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// WithUser returns ctx carrying the current user, for calls into user scoped stores.
func (c *Context) WithUser(ctx context.Context) context.Context {
	return WithUser(ctx, c.Current())
}

func (c *Context) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	return c.provider.Register(ctx, email, password, displayName)
}

func (c *Context) Login(ctx context.Context, email, password string) (*User, error) {
	return c.provider.Login(ctx, email, password)
}

func (c *Context) Logout(ctx context.Context) error {
	return c.provider.Logout(ctx)
}

// Close stops watching the provider.
func (c *Context) Close() {
	if c.stop != nil {
		c.stop()
	}
}
