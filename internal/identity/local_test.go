package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mahmodz/points-rank-server/internal/apperr"
	"github.com/mahmodz/points-rank-server/internal/store"
)

func newProvider(t *testing.T) *LocalProvider {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	// MinCost keeps the hashing fast in tests.
	return NewLocal(store.NewMemory(), rdb, "test-secret", 30*time.Minute, bcrypt.MinCost)
}

func TestCreateAccount(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	uid, err := p.CreateAccount(ctx, "Alice@Example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	// Emails are normalized, so a case variant is the same account.
	_, err = p.CreateAccount(ctx, "alice@example.com", "other")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = p.CreateAccount(ctx, "", "pw")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = p.CreateAccount(ctx, "bob@example.com", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAuthenticate(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	uid, err := p.CreateAccount(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	sess, err := p.Authenticate(ctx, "ALICE@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, uid, sess.UID)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, sess.ExpiresAt.After(time.Now()))
	assert.True(t, p.SessionActive(ctx, sess.Token))

	_, err = p.Authenticate(ctx, "alice@example.com", "wrong")
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	_, err = p.Authenticate(ctx, "nobody@example.com", "hunter22")
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
}

func TestInvalidateSession(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	_, err := p.CreateAccount(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	sess, err := p.Authenticate(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, p.InvalidateSession(ctx, sess.Token))
	assert.False(t, p.SessionActive(ctx, sess.Token))

	// Blank and unknown tokens are a no-op, not an error.
	assert.NoError(t, p.InvalidateSession(ctx, ""))
	assert.NoError(t, p.InvalidateSession(ctx, "bogus"))
}

func TestMemoryFallbackWithoutRedis(t *testing.T) {
	p := NewLocal(store.NewMemory(), nil, "test-secret", 30*time.Minute, bcrypt.MinCost)
	ctx := context.Background()

	_, err := p.CreateAccount(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	sess, err := p.Authenticate(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.True(t, p.SessionActive(ctx, sess.Token))

	require.NoError(t, p.InvalidateSession(ctx, sess.Token))
	assert.False(t, p.SessionActive(ctx, sess.Token))
}
