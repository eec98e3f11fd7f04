package account

import (
	"context"
	"net/mail"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
)

var (
	// errors
	ErrNotFound             = errors.New("account not found")
	ErrEmailExists          = errors.New("an account with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrAccountDeactivated   = errors.New("account deactivated")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists when another account (excluding excludedAccounts) uses email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedAccounts ...Account) error
		CreateAccount(ctx context.Context, acc Account) (Account, error)
		// GetAccount returns ErrNotFound when no account matches the filter.
		GetAccount(ctx context.Context, filter GetFilter) (Account, error)
		// QueryAccounts applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Account.Email or Account.DisplayName.
		QueryAccounts(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Account, error)
		UpdateAccount(ctx context.Context, acc Account) (Account, error)
		DeleteAccountsByID(ctx context.Context, ids []string) (int, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		tokens  tokenGenerator
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		core.NotNil(repo, "repo"),
		core.NotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens: tokenGenerator{
			secret:  []byte(conf.SecretKey),
			timeout: conf.PasswordResetTimeoutDelta,
			now:     time.Now,
		},
	}
}

func (svc *Service) CheckUniqueness(email string, exclAccs ...Account) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclAccs...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

// Register creates a validated NewAccount and welcomes its owner.
func (svc *Service) Register(ctx context.Context, na NewAccount) (Account, error) {
	now := time.Now().UTC()
	acc := Account{
		Email:       na.Email,
		DisplayName: na.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	acc.SetActive(true)
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}

	acc, err := svc.repo.CreateAccount(ctx, acc)
	if err != nil {
		return Account{}, errors.Wrap(err, "creating account")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acc.DisplayName, Address: acc.Email}},
		Subject:      "Welcome!",
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{"Name": acc.Name()},
	})
	return acc, nil
}

// Authenticate checks the credentials and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Account, error) {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, ErrAuthenticationFailed
		}
		return Account{}, errors.Wrap(err, "finding account by email")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		return Account{}, ErrAuthenticationFailed
	}
	if !acc.Active() {
		return Account{}, ErrAccountDeactivated
	}

	acc.LastLogin = time.Now().UTC()
	acc, err = svc.repo.UpdateAccount(ctx, acc)
	if err != nil {
		return Account{}, errors.Wrap(err, "setting lastLogin")
	}
	return acc, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// QueryActive returns every active account, oldest first.
func (svc *Service) QueryActive(ctx context.Context) ([]Account, error) {
	active := true
	return svc.repo.QueryAccounts(ctx, QueryFilter{IsActive: &active}, []core.DBOrdering{{Field: "created_at", Ascending: true}})
}

// RequestPasswordReset mails a password reset link to the owner of email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !acc.Active() {
		return ErrNotFound
	}

	token, err := svc.tokens.make(acc)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acc.DisplayName, Address: acc.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  acc.Name(),
			"UID":   EncodeUID(acc),
			"Token": token,
		},
	})
	return nil
}

// ResetPassword sets a new password if the reset token is valid.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) error {
	invalidErr := core.NewValidationError(errors.New("invalid token"))

	id, err := decodeUID(rp.UID)
	if err != nil {
		return invalidErr
	}
	acc, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalidErr
		}
		return errors.Wrap(err, "finding account by ID")
	}
	if err = svc.tokens.verify(acc, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	return svc.setPassword(ctx, acc, rp.Password)
}

// SetPassword replaces the password of the account registered with email.
func (svc *Service) SetPassword(ctx context.Context, email, pwd string) error {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return svc.setPassword(ctx, acc, pwd)
}

func (svc *Service) setPassword(ctx context.Context, acc Account, pwd string) error {
	if err := acc.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = time.Now().UTC()
	_, err := svc.repo.UpdateAccount(ctx, acc)
	return errors.Wrap(err, "updating account")
}

// UpdateOrCreate activates the account registered with email, creating it if needed, and sets its password.
func (svc *Service) UpdateOrCreate(ctx context.Context, email, displayName, pwd string) (Account, error) {
	email = core.CleanString(email, true /* lower */)
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Account{}, err
		}
		acc = Account{Email: email, CreatedAt: time.Now().UTC()}
	}
	if displayName = core.CleanString(displayName); displayName != "" {
		acc.DisplayName = displayName
	}
	acc.SetActive(true)
	acc.UpdatedAt = time.Now().UTC()
	if err = acc.SetPassword(pwd); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}

	if acc.ID == "" {
		return svc.repo.CreateAccount(ctx, acc)
	}
	return svc.repo.UpdateAccount(ctx, acc)
}
