package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider reports auth state changes on demand.
type fakeProvider struct {
	mu      sync.Mutex
	watcher func(*User)
	users   map[string]*User
	err     error
}

func (p *fakeProvider) emit(usr *User) {
	p.mu.Lock()
	fn := p.watcher
	p.mu.Unlock()
	if fn != nil {
		fn(usr)
	}
}

func (p *fakeProvider) Register(_ context.Context, email, _, displayName string) (*User, error) {
	if p.err != nil {
		return nil, p.err
	}
	usr := &User{ID: email, Email: email, DisplayName: displayName}
	p.emit(usr)
	return usr, nil
}

func (p *fakeProvider) Login(_ context.Context, email, _ string) (*User, error) {
	if p.err != nil {
		return nil, p.err
	}
	usr, ok := p.users[email]
	if !ok {
		return nil, errors.New("auth/user-not-found")
	}
	p.emit(usr)
	return usr, nil
}

func (p *fakeProvider) Logout(context.Context) error {
	p.emit(nil)
	return nil
}

func (p *fakeProvider) Watch(fn func(*User)) func() {
	p.mu.Lock()
	p.watcher = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.watcher = nil
		p.mu.Unlock()
	}
}

func TestContext_Init(t *testing.T) {
	p := &fakeProvider{}
	c := New(p)
	defer c.Close()

	// unresolved until the provider reports
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Init(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)

	ada := &User{ID: "1", Email: "ada@test.test"}
	go p.emit(ada)
	usr, err := c.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ada, usr)
	assert.True(t, c.IsAuthenticated())

	// resolves immediately afterwards
	ctx, cancel2 := context.WithCancel(context.Background())
	cancel2()
	p.emit(nil)
	usr, err = c.Init(ctx)
	require.NoError(t, err)
	assert.Nil(t, usr)
	assert.False(t, c.IsAuthenticated())
}

func TestContext_Subscribe(t *testing.T) {
	p := &fakeProvider{users: map[string]*User{"ada@test.test": {ID: "1", Email: "ada@test.test"}}}
	c := New(p)
	defer c.Close()
	p.emit(nil)

	var first, second []*User
	unsub1 := c.Subscribe(func(u *User) { first = append(first, u) })
	unsub2 := c.Subscribe(func(u *User) { second = append(second, u) })

	// immediate delivery of the current state
	assert.Equal(t, []*User{nil}, first)
	assert.Equal(t, []*User{nil}, second)

	usr, err := c.Login(context.Background(), "ada@test.test", "pwd")
	require.NoError(t, err)
	assert.Equal(t, []*User{nil, usr}, first)
	assert.Equal(t, []*User{nil, usr}, second)

	unsub1()
	unsub1() // no-op
	require.NoError(t, c.Logout(context.Background()))
	assert.Len(t, first, 2)
	assert.Equal(t, []*User{nil, usr, nil}, second)
	unsub2()
}

func TestContext_SubscribeOrdering(t *testing.T) {
	p := &fakeProvider{}
	c := New(p)
	defer c.Close()
	p.emit(nil)

	ada := &User{ID: "1", Email: "ada@test.test"}
	var seen []*User
	entered := make(chan struct{})
	release := make(chan struct{})
	subscribed := make(chan struct{})
	go func() {
		defer close(subscribed)
		c.Subscribe(func(u *User) {
			if len(seen) == 0 {
				close(entered)
				<-release
			}
			seen = append(seen, u)
		})
	}()

	// a sign-in racing the immediate delivery waits for it
	<-entered
	emitted := make(chan struct{})
	go func() {
		defer close(emitted)
		p.emit(ada)
	}()
	select {
	case <-emitted:
		t.Fatal("sign-in delivered before the current state")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-subscribed
	<-emitted
	assert.Equal(t, []*User{nil, ada}, seen)
	assert.Equal(t, ada, c.Current())
}

func TestContext_PassThroughErrors(t *testing.T) {
	providerErr := errors.New("auth/email-already-in-use")
	p := &fakeProvider{err: providerErr}
	c := New(p)
	defer c.Close()

	_, err := c.Register(context.Background(), "ada@test.test", "pwd", "Ada")
	assert.Equal(t, providerErr, err)
	_, err = c.Login(context.Background(), "ada@test.test", "pwd")
	assert.Equal(t, providerErr, err)
}

func TestRequireUser(t *testing.T) {
	_, err := RequireUser(context.Background())
	assert.Equal(t, ErrUnauthenticated, err)

	_, err = RequireUser(WithUser(context.Background(), nil))
	assert.Equal(t, ErrUnauthenticated, err)

	ada := &User{ID: "1"}
	usr, err := RequireUser(WithUser(context.Background(), ada))
	require.NoError(t, err)
	assert.Equal(t, ada, usr)

	p := &fakeProvider{}
	c := New(p)
	defer c.Close()
	p.emit(ada)
	usr, err = RequireUser(c.WithUser(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, ada, usr)
}
