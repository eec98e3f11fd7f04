package account_test

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
	"github.com/trezcool/plany/services/email"
	"github.com/trezcool/plany/services/logger"
	"github.com/trezcool/plany/storage/database/inmem"
	"github.com/trezcool/plany/tests"
)

const pwd = "Sup3r-Secr3t!"

type fixture struct {
	repo     account.Repository
	svc      *account.Service
	mailSvc  *emailsvc.ConsoleServiceMock
	validate *validator.Validate
}

func setup(t *testing.T) fixture {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	core.ParseEmailTemplates(logger, true)

	validate, translator := core.NewValidator()
	account.InitValidators(validate, translator)

	repo := inmemdb.NewAccountRepository(inmemdb.Open())
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	return fixture{
		repo:     repo,
		svc:      account.NewService(repo, mailSvc, conf),
		mailSvc:  mailSvc,
		validate: validate,
	}
}

func TestService_Register(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	na := account.NewAccount{DisplayName: " Ada ", Email: " Ada@Test.test ", Password: pwd, PasswordConfirm: pwd}
	require.NoError(t, na.Validate(f.validate, f.svc))
	acc, err := f.svc.Register(ctx, na)
	require.NoError(t, err)

	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "ada@test.test", acc.Email)
	assert.Equal(t, "Ada", acc.DisplayName)
	assert.True(t, acc.Active())
	assert.NoError(t, acc.CheckPassword(pwd))

	sent := f.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "welcome", sent[0].TemplateName)
	assert.Contains(t, sent[0].TextContent, "Hi Ada,")

	// email taken
	dup := account.NewAccount{Email: "ada@test.test", Password: pwd, PasswordConfirm: pwd}
	err = dup.Validate(f.validate, f.svc)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "email", vErr.Fields[0].Field)
}

func TestNewAccount_Validate(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name    string
		na      account.NewAccount
		wantTag string
	}{
		{name: "missing email", na: account.NewAccount{Password: pwd, PasswordConfirm: pwd}, wantTag: "required"},
		{name: "invalid email", na: account.NewAccount{Email: "nope", Password: pwd, PasswordConfirm: pwd}, wantTag: "email"},
		{name: "mismatch", na: account.NewAccount{Email: "a@test.test", Password: pwd, PasswordConfirm: pwd + "x"}, wantTag: "eqfield"},
		{name: "too short", na: account.NewAccount{Email: "a@test.test", Password: "Ab1!", PasswordConfirm: "Ab1!"}, wantTag: "pwdminlen"},
		{name: "whitespace", na: account.NewAccount{Email: "a@test.test", Password: "Abc 1234!", PasswordConfirm: "Abc 1234!"}, wantTag: "pwdnospace"},
		{name: "all numeric", na: account.NewAccount{Email: "a@test.test", Password: "12345678", PasswordConfirm: "12345678"}, wantTag: "pwdnotallnum"},
		{name: "not complex", na: account.NewAccount{Email: "a@test.test", Password: "abcdefgh1", PasswordConfirm: "abcdefgh1"}, wantTag: "pwdcplx"},
		{name: "similar to email", na: account.NewAccount{Email: "marie.curie@x.io", Password: "Marie.Curie1", PasswordConfirm: "Marie.Curie1"}, wantTag: "pwdtoosim"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.na.Validate(f.validate, f.svc)
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs), "got %v", err)
			tags := make([]string, 0, len(vErrs))
			for _, fe := range vErrs {
				tags = append(tags, fe.Tag())
			}
			assert.Contains(t, tags, tt.wantTag)
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	active := testutil.CreateAccount(t, f.repo, "Ada", "ada@test.test", pwd, true)
	testutil.CreateAccount(t, f.repo, "Bob", "bob@test.test", pwd, false)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "unknown email", email: "nobody@test.test", pwd: pwd, wantErr: account.ErrAuthenticationFailed},
		{name: "wrong password", email: "ada@test.test", pwd: "nope", wantErr: account.ErrAuthenticationFailed},
		{name: "deactivated", email: "bob@test.test", pwd: pwd, wantErr: account.ErrAccountDeactivated},
		{name: "ok", email: " ADA@test.test", pwd: pwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := f.svc.Authenticate(ctx, tt.email, tt.pwd)
			assert.Equal(t, tt.wantErr, err)
			if tt.wantErr == nil {
				assert.Equal(t, active.ID, acc.ID)
				assert.False(t, acc.LastLogin.IsZero())
			}
		})
	}
}

func TestService_QueryActive(t *testing.T) {
	f := setup(t)
	now := time.Now()
	a := testutil.CreateAccount(t, f.repo, "A", "a@test.test", "", true, now.Add(-2*time.Hour))
	testutil.CreateAccount(t, f.repo, "B", "b@test.test", "", false, now.Add(-time.Hour))
	c := testutil.CreateAccount(t, f.repo, "C", "c@test.test", "", true, now)

	accs, err := f.svc.QueryActive(context.Background())
	require.NoError(t, err)
	require.Len(t, accs, 2)
	assert.Equal(t, a.ID, accs[0].ID)
	assert.Equal(t, c.ID, accs[1].ID)
}

func TestService_PasswordReset(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	acc := testutil.CreateAccount(t, f.repo, "Ada", "ada@test.test", pwd, true)

	assert.Equal(t, account.ErrNotFound, f.svc.RequestPasswordReset(ctx, "nobody@test.test"))
	require.NoError(t, f.svc.RequestPasswordReset(ctx, acc.Email))

	sent := f.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	data := sent[0].TemplateData.(map[string]interface{})
	token := data["Token"].(string)
	uid := data["UID"].(string)
	assert.Equal(t, account.EncodeUID(acc), uid)
	assert.True(t, strings.Contains(sent[0].TextContent, token))

	newPwd := "An0ther-Secr3t!"
	rp := account.ResetPassword{Token: token, UID: uid, Password: newPwd, PasswordConfirm: newPwd}
	require.NoError(t, rp.Validate(f.validate))

	bad := rp
	bad.Token = "bad-token"
	var vErr *core.ValidationError
	assert.True(t, errors.As(f.svc.ResetPassword(ctx, bad), &vErr))

	bad = rp
	bad.UID = "!!"
	assert.True(t, errors.As(f.svc.ResetPassword(ctx, bad), &vErr))

	require.NoError(t, f.svc.ResetPassword(ctx, rp))
	_, err := f.svc.Authenticate(ctx, acc.Email, newPwd)
	assert.NoError(t, err)

	// tokens are single use: the password hash changed
	assert.True(t, errors.As(f.svc.ResetPassword(ctx, rp), &vErr))
}

func TestService_UpdateOrCreate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	acc, err := f.svc.UpdateOrCreate(ctx, "New@test.test", "New", pwd)
	require.NoError(t, err)
	assert.Equal(t, "new@test.test", acc.Email)

	again, err := f.svc.UpdateOrCreate(ctx, "new@test.test", "", "An0ther-Secr3t!")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, again.ID)
	assert.Equal(t, "New", again.DisplayName)

	require.NoError(t, f.svc.SetPassword(ctx, "new@test.test", pwd))
	_, err = f.svc.Authenticate(ctx, "new@test.test", pwd)
	assert.NoError(t, err)
	assert.Equal(t, account.ErrNotFound, f.svc.SetPassword(ctx, "nobody@test.test", pwd))
}
