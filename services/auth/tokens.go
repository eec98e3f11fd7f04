// Package auth issues and revokes the JWTs handed to signed-in users, and provides the local identity provider used
// by command line clients.
package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/identity"
)

const audience = "Planner"

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrRefreshExpired = errors.New("refresh has expired")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
}

// User returns the identity the claims were issued for.
func (c *Claims) User() *identity.User {
	return &identity.User{ID: c.Subject, DisplayName: c.Name, Email: c.Email}
}

// ExpiresAtTime is the expiration time of the token.
func (c *Claims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// Issuer signs and parses HS256 tokens.
type Issuer struct {
	key               []byte
	method            jwt.SigningMethod
	appName           string
	expiration        time.Duration
	refreshExpiration time.Duration
	now               func() time.Time
}

func NewIssuer(conf *core.Config) *Issuer {
	return &Issuer{
		key:               []byte(conf.SecretKey),
		method:            jwt.SigningMethodHS256,
		appName:           conf.AppName,
		expiration:        conf.Server.JWTExpirationDelta,
		refreshExpiration: conf.Server.JWTRefreshExpirationDelta,
		now:               time.Now,
	}
}

// SigningKey is the key used to sign tokens.
func (iss *Issuer) SigningKey() []byte {
	return iss.key
}

// SigningMethod is the name of the signing algorithm.
func (iss *Issuer) SigningMethod() string {
	return iss.method.Alg()
}

// Claims returns fresh claims for usr. Every token gets its own ID so that it can be revoked on its own.
func (iss *Issuer) Claims(usr identity.User, origIat ...int64) *Claims {
	now := iss.now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Issuer:    iss.appName,
			Subject:   usr.ID,
			Audience:  audience,
			ExpiresAt: now.Add(iss.expiration).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         usr.DisplayName,
		Email:        usr.Email,
	}
}

// Sign generates a signed JWT token string representing claims.
func (iss *Issuer) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(iss.method, claims)
	ss, err := token.SignedString(iss.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Issue signs a new token for usr.
func (iss *Issuer) Issue(usr identity.User) (string, *Claims, error) {
	claims := iss.Claims(usr)
	token, err := iss.Sign(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Parse verifies the signature of token, then its time claims against the issuer's clock.
func (iss *Issuer) Parse(token string) (*Claims, error) {
	claims := new(Claims)
	parser := jwt.Parser{SkipClaimsValidation: true}
	tkn, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != iss.method.Alg() {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return iss.key, nil
	})
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	now := iss.now().Unix()
	if !claims.VerifyExpiresAt(now, true) || !claims.VerifyIssuedAt(now, false) || !claims.VerifyNotBefore(now, false) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh issues a token for usr carrying the original issue time of claims,
// as long as the refresh window opened by the first login has not expired.
func (iss *Issuer) Refresh(claims *Claims, usr identity.User) (string, error) {
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(iss.refreshExpiration)
	if iss.now().After(expTime) {
		return "", ErrRefreshExpired
	}
	return iss.Sign(iss.Claims(usr, claims.OrigIssuedAt))
}
