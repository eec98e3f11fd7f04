package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/identity"
)

var ada = identity.User{ID: "ada-id", DisplayName: "Ada", Email: "ada@test.test"}

func TestIssuer(t *testing.T) {
	iss := NewIssuer(core.NewTestConfig())

	token, claims, err := iss.Issue(ada)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.Id)
	assert.Equal(t, "Plany", claims.Issuer)
	assert.Equal(t, claims.IssuedAt, claims.OrigIssuedAt)

	parsed, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, &ada, parsed.User())
	assert.Equal(t, claims.Id, parsed.Id)

	// every token has its own ID
	_, other, err := iss.Issue(ada)
	require.NoError(t, err)
	assert.NotEqual(t, claims.Id, other.Id)

	tests := []struct {
		name  string
		token func() string
	}{
		{name: "garbage", token: func() string { return "not.a.token" }},
		{name: "tampered", token: func() string { return token + "x" }},
		{
			name: "other key",
			token: func() string {
				conf := core.NewTestConfig()
				conf.SecretKey = "another secret"
				tkn, _, _ := NewIssuer(conf).Issue(ada)
				return tkn
			},
		},
		{
			name: "expired",
			token: func() string {
				old := NewIssuer(core.NewTestConfig())
				old.now = func() time.Time { return time.Now().Add(-time.Hour) }
				tkn, _, _ := old.Issue(ada)
				return tkn
			},
		},
		{
			name: "no subject",
			token: func() string {
				tkn, _, _ := iss.Issue(identity.User{})
				return tkn
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Parse(tt.token())
			assert.Equal(t, ErrInvalidToken, err)
		})
	}
}

func TestIssuer_Refresh(t *testing.T) {
	iss := NewIssuer(core.NewTestConfig())
	start := time.Now()

	iss.now = func() time.Time { return start }
	claims := iss.Claims(ada)

	iss.now = func() time.Time { return start.Add(time.Hour) }
	token, err := iss.Refresh(claims, ada)
	require.NoError(t, err)
	refreshed, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, claims.OrigIssuedAt, refreshed.OrigIssuedAt)
	assert.Greater(t, refreshed.ExpiresAt, claims.ExpiresAt)

	// the first token expired on the issuer's clock
	first, err := iss.Sign(claims)
	require.NoError(t, err)
	_, err = iss.Parse(first)
	assert.Equal(t, ErrInvalidToken, err)

	// issued in the future
	iss.now = func() time.Time { return start }
	_, err = iss.Parse(token)
	assert.Equal(t, ErrInvalidToken, err)

	iss.now = func() time.Time { return start.Add(5 * time.Hour) }
	_, err = iss.Refresh(claims, ada)
	assert.Equal(t, ErrRefreshExpired, err)
}

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rev := NewMemoryRevoker().(*memoryRevoker)
	rev.now = func() time.Time { return now }

	require.NoError(t, rev.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, rev.Revoke(ctx, "expired", now.Add(-time.Minute)))

	revoked, err := rev.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, _ = rev.IsRevoked(ctx, "expired")
	assert.False(t, revoked)
	revoked, _ = rev.IsRevoked(ctx, "unknown")
	assert.False(t, revoked)

	// entries are forgotten once their token has expired
	rev.now = func() time.Time { return now.Add(2 * time.Minute) }
	revoked, _ = rev.IsRevoked(ctx, "a")
	assert.False(t, revoked)
	require.NoError(t, rev.Revoke(ctx, "b", now.Add(time.Hour)))
	assert.Len(t, rev.revoked, 1)
}
