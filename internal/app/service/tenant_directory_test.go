package service

import (
	"context"
	"testing"

	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantDirectory_Resolve(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	ctx := context.Background()
	store := env.store(t, nil, "store1")

	t.Run("Empty key", func(t *testing.T) {
		_, err := env.directory.Resolve(ctx, "")
		assert.ErrorIs(t, err, ErrNoSubdomain)
		assert.Equal(t, apperrors.KindTenantResolution, apperrors.KindOf(err))
	})

	t.Run("Unknown key echoes subdomain", func(t *testing.T) {
		_, err := env.directory.Resolve(ctx, "unknown")
		require.Error(t, err)
		appErr := apperrors.As(err)
		assert.Equal(t, apperrors.KindNotFound, appErr.Kind)
		assert.Equal(t, "Store not found", appErr.Message)
		assert.Equal(t, "unknown", appErr.Extra["subdomain"])
		assert.Equal(t, 0, env.cache.Len())
	})

	t.Run("First resolution locks the domain", func(t *testing.T) {
		resolved, err := env.directory.Resolve(ctx, "store1")
		require.NoError(t, err)
		assert.Equal(t, store.ID, resolved.ID)
		assert.True(t, resolved.DomainLocked())

		persisted, err := env.stores.FindByID(ctx, store.ID)
		require.NoError(t, err)
		assert.NotNil(t, persisted.DomainLockedAt)
		assert.Equal(t, 1, env.cache.Len())
	})

	t.Run("Cached hit survives a repository miss", func(t *testing.T) {
		require.NoError(t, env.db.Exec("UPDATE stores SET domain = ? WHERE id = ?", "renamed", store.ID).Error)

		resolved, err := env.directory.Resolve(ctx, "store1")
		require.NoError(t, err)
		assert.Equal(t, store.ID, resolved.ID)

		env.directory.Invalidate(ctx, "store1")
		_, err = env.directory.Resolve(ctx, "store1")
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestTenantDirectory_KnownStores(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	ctx := context.Background()

	domains, err := env.directory.KnownStores(ctx)
	require.NoError(t, err)
	assert.NotNil(t, domains)
	assert.Empty(t, domains)

	env.store(t, nil, "zeta")
	env.store(t, nil, "alpha")

	domains, err = env.directory.KnownStores(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, "alpha", domains[0].Domain)
	assert.Equal(t, "Store alpha", domains[0].Name)
	assert.Equal(t, "zeta", domains[1].Domain)
}
