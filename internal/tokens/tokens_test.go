package tokens

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMemStore() *memStore {
	return &memStore{revoked: make(map[string]bool)}
}

func (m *memStore) RevokeJTI(_ context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = true
	return nil
}

func (m *memStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[jti], nil
}

func newTestService(secret string) *Service {
	return NewService(Config{
		Secret:     []byte(secret),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}, newMemStore())
}

func TestMintVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService("test-secret")

	raw, jti, err := svc.Mint("42", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NotEmpty(t, jti)

	claims, err := svc.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, jti, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.Time.After(time.Now().UTC()))
}

func TestMint_FreshJTIPerToken(t *testing.T) {
	t.Parallel()

	svc := newTestService("test-secret")

	_, jti1, err := svc.Mint("42", time.Minute)
	require.NoError(t, err)
	_, jti2, err := svc.Mint("42", time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, jti1, jti2)
}

func TestVerify_ExpiredToken(t *testing.T) {
	t.Parallel()

	svc := newTestService("test-secret")

	raw, _, err := svc.Mint("42", -time.Minute)
	require.NoError(t, err)

	claims, err := svc.Verify(raw)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_AllFailuresCollapseToInvalidToken(t *testing.T) {
	t.Parallel()

	svc := newTestService("test-secret")
	other := newTestService("other-secret")

	good, _, err := svc.Mint("42", time.Minute)
	require.NoError(t, err)

	foreign, _, err := other.Mint("42", time.Minute)
	require.NoError(t, err)

	wrongMethod, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "malformed structure", raw: "not-a-jwt"},
		{name: "empty token", raw: ""},
		{name: "wrong key", raw: foreign},
		{name: "tampered payload", raw: good[:len(good)-4] + "AAAA"},
		{name: "wrong signing method", raw: wrongMethod},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := svc.Verify(tt.raw)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMintAccessAndRefresh_DifferentExpiries(t *testing.T) {
	t.Parallel()

	svc := newTestService("test-secret")

	access, _, err := svc.MintAccess("42")
	require.NoError(t, err)
	refresh, _, err := svc.MintRefresh("42")
	require.NoError(t, err)

	assert.NotEqual(t, access, refresh)

	accessClaims, err := svc.Verify(access)
	require.NoError(t, err)
	refreshClaims, err := svc.Verify(refresh)
	require.NoError(t, err)

	assert.Equal(t, accessClaims.Subject, refreshClaims.Subject)
	assert.True(t, refreshClaims.ExpiresAt.Time.After(accessClaims.ExpiresAt.Time))
}

func TestRevoke_Idempotent(t *testing.T) {
	t.Parallel()

	svc := newTestService("test-secret")
	ctx := context.Background()

	_, jti, err := svc.Mint("42", time.Minute)
	require.NoError(t, err)

	revoked, err := svc.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Revoke(ctx, jti))
	require.NoError(t, svc.Revoke(ctx, jti))

	revoked, err = svc.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)
}
