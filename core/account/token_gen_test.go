package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeVerifyToken(t *testing.T) {
	tg := tokenGenerator{secret: []byte("secret"), timeout: 3 * 24 * time.Hour, now: time.Now}

	now := time.Now()
	acc := Account{
		ID:          "0d9c2f6e-2d4b-4a55-9d60-1f3a3d1c8f10",
		DisplayName: "T",
		Email:       "t@test.test",
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLogin:   now,
	}
	require.NoError(t, acc.SetPassword("pwd"))

	validToken, err := tg.make(acc)
	require.NoError(t, err)

	// generate an expired token
	dayLate := tg.timeout + (24 * time.Hour)
	late := tg
	late.now = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := late.make(acc)
	require.NoError(t, err)

	relogged := acc
	relogged.LastLogin = now.Add(time.Minute)

	tests := []struct {
		name    string
		acc     Account
		token   string
		wantErr error
	}{
		{name: "no token", acc: acc, wantErr: errInvalidToken},
		{name: "invalid parts len", acc: acc, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", acc: acc, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", acc: acc, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", acc: acc, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", acc: acc, token: expiredToken, wantErr: errTokenExpired},
		{name: "used after login", acc: relogged, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", acc: acc, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, tg.verify(tt.acc, tt.token))
		})
	}
}

func TestUID(t *testing.T) {
	acc := Account{ID: "0d9c2f6e-2d4b-4a55-9d60-1f3a3d1c8f10"}
	id, err := decodeUID(EncodeUID(acc))
	require.NoError(t, err)
	assert.Equal(t, acc.ID, id)

	_, err = decodeUID("not base64!")
	assert.Error(t, err)
}
