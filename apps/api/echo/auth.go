package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core/identity"
	"github.com/trezcool/plany/services/auth"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

// newJWTConfig returns the JWT auth middleware config for tokens signed by issuer.
func newJWTConfig(issuer *auth.Issuer) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    issuer.SigningKey(),
		SigningMethod: issuer.SigningMethod(),
		ContextKey:    contextTokenKey,
		Claims:        new(auth.Claims),
	}
}

func getContextClaims(ctx echo.Context) (*auth.Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*auth.Claims); ok {
			return claims, nil
		}
	}
	return nil, errUnauthorized
}

func getContextUser(ctx echo.Context) (*identity.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(*identity.User); ok {
		return usr, nil
	}
	return nil, errUnauthorized
}

// identityMiddleware rejects revoked tokens and puts the token's user in the request context,
// where the user scoped stores look for it.
func identityMiddleware(revoker auth.Revoker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			req := ctx.Request()
			revoked, err := revoker.IsRevoked(req.Context(), claims.Id)
			if err != nil {
				return errors.Wrap(err, "checking token revocation")
			}
			if revoked {
				return errTokenRevoked
			}

			usr := claims.User()
			ctx.Set(contextUserKey, usr)
			ctx.SetRequest(req.WithContext(identity.WithUser(req.Context(), usr)))
			return next(ctx)
		}
	}
}
