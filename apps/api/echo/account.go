package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
	"github.com/trezcool/plany/core/identity"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/services/auth"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	RegisterResponse struct {
		Token   string          `json:"token"`
		Account account.Account `json:"account"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

type authApi struct {
	accounts *account.Service
	store    *planner.Store
	issuer   *auth.Issuer
	revoker  auth.Revoker
	validate *validator.Validate
	logger   core.Logger
}

func registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		accounts: deps.Accounts,
		store:    deps.Store,
		issuer:   deps.Issuer,
		revoker:  deps.Revoker,
		validate: deps.Validate,
		logger:   deps.Logger,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag.POST("/token-refresh", api.refreshToken, authed...)
	ag.POST("/logout", api.logout, authed...)
	ag.GET("/me", api.me, authed...)
}

// register creates the account, its profile and its default templates, then signs it in.
func (api *authApi) register(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.validate, api.accounts); err != nil {
		return err
	}

	acc, err := api.accounts.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering account")
	}

	usr := acc.Identity()
	userCtx := identity.WithUser(ctx.Request().Context(), usr)
	if _, err = api.store.CreateProfile(userCtx, acc.Name(), acc.Email); err != nil {
		return errors.Wrap(err, "creating profile")
	}
	if _, err = api.store.SeedDefaultTemplates(userCtx); err != nil {
		return errors.Wrap(err, "seeding default templates")
	}

	token, _, err := api.issuer.Issue(*usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, RegisterResponse{Token: token, Account: acc})
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acc, err := api.accounts.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, _, err := api.issuer.Issue(*acc.Identity())
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	err := api.accounts.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if !(err == nil || errors.Cause(err) == account.ErrNotFound) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data account.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.accounts.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	// check if the account is still active
	acc, err := api.accounts.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding account by ID")
	}
	if !acc.Active() {
		return account.ErrAccountDeactivated
	}

	token, err := api.issuer.Refresh(claims, *acc.Identity())
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.revoker.Revoke(ctx.Request().Context(), claims.Id, claims.ExpiresAtTime()); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	acc, err := api.accounts.GetByID(ctx.Request().Context(), usr.ID)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding account by ID")
	}
	return ctx.JSON(http.StatusOK, acc)
}
