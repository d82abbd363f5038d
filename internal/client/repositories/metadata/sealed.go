package metadata

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/wellbeing/internal/common"
	"github.com/dmitrijs2005/wellbeing/internal/cryptox"
)

// SealedRepository encrypts values before they reach inner. Keys stay in
// clear text.
type SealedRepository struct {
	inner Repository
	key   []byte
}

var _ Repository = (*SealedRepository)(nil)

func NewSealedRepository(inner Repository, key []byte) *SealedRepository {
	return &SealedRepository{inner: inner, key: key}
}

// Get fails with an error wrapping cryptox.ErrOpen when the stored value was
// sealed under another key.
func (r *SealedRepository) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := r.inner.Get(ctx, key)
	if err != nil || sealed == nil {
		return nil, err
	}
	value, err := cryptox.Open(r.key, sealed)
	if err != nil {
		return nil, fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SealedRepository) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := cryptox.Seal(r.key, value)
	if err != nil {
		return fmt.Errorf("seal metadata[%s]: %w", key, err)
	}
	return r.inner.Set(ctx, key, sealed)
}

func (r *SealedRepository) Delete(ctx context.Context, key string) error {
	return r.inner.Delete(ctx, key)
}

// DeriveKey turns passphrase into a sealing key. The salt is created on first
// use and kept in repo, so the same passphrase yields the same key on the
// next run.
func DeriveKey(ctx context.Context, repo Repository, passphrase string) ([]byte, error) {
	salt, err := repo.Get(ctx, common.SnapshotSaltKey)
	if err != nil {
		return nil, err
	}
	if salt == nil {
		if salt, err = cryptox.NewSalt(); err != nil {
			return nil, fmt.Errorf("new salt: %w", err)
		}
		if err := repo.Set(ctx, common.SnapshotSaltKey, salt); err != nil {
			return nil, err
		}
	}

	pw := []byte(passphrase)
	defer cryptox.Wipe(pw)
	return cryptox.DeriveKey(pw, salt), nil
}
