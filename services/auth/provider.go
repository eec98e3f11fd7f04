package auth

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
	"github.com/trezcool/plany/core/identity"
)

// LocalProvider is an identity.Provider backed by the account service.
// When sessionFile is set, the session token is kept there so that a session survives restarts.
type LocalProvider struct {
	accounts    *account.Service
	validate    *validator.Validate
	issuer      *Issuer
	revoker     Revoker
	sessionFile string

	mu        sync.Mutex
	known     bool
	current   *identity.User
	claims    *Claims
	listeners map[int]func(*identity.User)
	nextID    int
}

var _ identity.Provider = (*LocalProvider)(nil)

func NewLocalProvider(
	accounts *account.Service,
	validate *validator.Validate,
	issuer *Issuer,
	revoker Revoker,
	sessionFile string,
) *LocalProvider {
	vala.BeginValidation().Validate(
		vala.IsNotNil(accounts, "accounts"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(issuer, "issuer"),
		core.NotNil(revoker, "revoker"),
	).CheckAndPanic()

	return &LocalProvider{
		accounts:    accounts,
		validate:    validate,
		issuer:      issuer,
		revoker:     revoker,
		sessionFile: sessionFile,
		listeners:   make(map[int]func(*identity.User)),
	}
}

// Restore resumes the session saved in the session file, if it is still valid, then reports the auth state.
// Watchers hear nothing before Restore has run.
func (p *LocalProvider) Restore(ctx context.Context) (*identity.User, error) {
	usr, claims, err := p.restore(ctx)
	if err != nil {
		p.publish(nil, nil)
		return nil, err
	}
	p.publish(usr, claims)
	return usr, nil
}

func (p *LocalProvider) restore(ctx context.Context) (*identity.User, *Claims, error) {
	if p.sessionFile == "" {
		return nil, nil, nil
	}
	raw, err := os.ReadFile(p.sessionFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, errors.Wrap(err, "reading session file")
	}

	claims, err := p.issuer.Parse(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, nil, p.forget()
	}
	revoked, err := p.revoker.IsRevoked(ctx, claims.Id)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, p.forget()
	}

	acc, err := p.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return nil, nil, p.forget()
		}
		return nil, nil, errors.Wrap(err, "finding account by ID")
	}
	if !acc.Active() {
		return nil, nil, p.forget()
	}
	return acc.Identity(), claims, nil
}

// Register creates an account and signs it in.
func (p *LocalProvider) Register(ctx context.Context, email, password, displayName string) (*identity.User, error) {
	na := account.NewAccount{
		DisplayName:     displayName,
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
	}
	if err := na.Validate(p.validate, p.accounts); err != nil {
		return nil, err
	}
	if _, err := p.accounts.Register(ctx, na); err != nil {
		return nil, err
	}
	return p.Login(ctx, na.Email, password)
}

func (p *LocalProvider) Login(ctx context.Context, email, password string) (*identity.User, error) {
	acc, err := p.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	usr := acc.Identity()
	token, claims, err := p.issuer.Issue(*usr)
	if err != nil {
		return nil, err
	}
	if err = p.save(token); err != nil {
		return nil, err
	}
	p.publish(usr, claims)
	return usr, nil
}

// Logout revokes the session token and signs the user out.
func (p *LocalProvider) Logout(ctx context.Context) error {
	p.mu.Lock()
	claims := p.claims
	p.mu.Unlock()

	if claims != nil {
		if err := p.revoker.Revoke(ctx, claims.Id, claims.ExpiresAtTime()); err != nil {
			return err
		}
	}
	if err := p.forget(); err != nil {
		return err
	}
	p.publish(nil, nil)
	return nil
}

func (p *LocalProvider) Watch(fn func(*identity.User)) (stop func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	known, current := p.known, p.current
	p.mu.Unlock()

	if known {
		fn(current)
	}

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *LocalProvider) publish(usr *identity.User, claims *Claims) {
	p.mu.Lock()
	p.known = true
	p.current = usr
	p.claims = claims
	listeners := make([]func(*identity.User), 0, len(p.listeners))
	for id := 0; id < p.nextID; id++ {
		if fn, ok := p.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(usr)
	}
}

func (p *LocalProvider) save(token string) error {
	if p.sessionFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.sessionFile), 0o700); err != nil {
		return errors.Wrap(err, "creating session directory")
	}
	return errors.Wrap(os.WriteFile(p.sessionFile, []byte(token), 0o600), "writing session file")
}

func (p *LocalProvider) forget() error {
	if p.sessionFile == "" {
		return nil
	}
	if err := os.Remove(p.sessionFile); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session file")
	}
	return nil
}
