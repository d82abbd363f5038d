package metadata

import (
	"bytes"
	"context"
	"testing"

	"github.com/dmitrijs2005/wellbeing/internal/common"
	"github.com/dmitrijs2005/wellbeing/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealedRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	plain := NewSQLiteRepository(setupDB(t))

	key, err := DeriveKey(ctx, plain, "passphrase")
	require.NoError(t, err)
	sealed := NewSealedRepository(plain, key)

	v, err := sealed.Get(ctx, common.SessionTokenKey)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, sealed.Set(ctx, common.SessionTokenKey, []byte("token")))

	raw, err := plain.Get(ctx, common.SessionTokenKey)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte("token")))

	v, err = sealed.Get(ctx, common.SessionTokenKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("token"), v)

	require.NoError(t, sealed.Delete(ctx, common.SessionTokenKey))
	v, err = plain.Get(ctx, common.SessionTokenKey)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDeriveKey_ReusesSalt(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	k1, err := DeriveKey(ctx, repo, "pw")
	require.NoError(t, err)
	k2, err := DeriveKey(ctx, repo, "pw")
	require.NoError(t, err)
	k3, err := DeriveKey(ctx, repo, "other")
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	salt, err := repo.Get(ctx, common.SnapshotSaltKey)
	require.NoError(t, err)
	assert.Len(t, salt, cryptox.SaltSize)
}

func TestSealedRepository_WrongKey(t *testing.T) {
	ctx := context.Background()
	plain := NewSQLiteRepository(setupDB(t))

	require.NoError(t, NewSealedRepository(plain, cryptox.DeriveKey([]byte("a"), []byte("salt"))).
		Set(ctx, "k", []byte("v")))

	_, err := NewSealedRepository(plain, cryptox.DeriveKey([]byte("b"), []byte("salt"))).Get(ctx, "k")
	assert.ErrorIs(t, err, cryptox.ErrOpen)
}
