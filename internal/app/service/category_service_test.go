package service

import (
	"context"
	"testing"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_CreateCategoryStamping(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	svc := env.categoryService()
	ctx := context.Background()

	u1 := env.user(t, "u1", model.RoleUser)
	u2 := env.user(t, "u2", model.RoleUser)
	multi := env.user(t, "multi", model.RoleUser)
	loner := env.user(t, "loner", model.RoleUser)
	admin := env.user(t, "staff", model.RoleAdmin)

	store1 := env.store(t, u1, "store1")
	store2 := env.store(t, u2, "store2")
	env.store(t, multi, "multi-a")
	env.store(t, multi, "multi-b")

	tests := []struct {
		name      string
		principal *authz.Principal
		tenant    *model.Store
		storeID   *uint
		wantScope model.Scope
		wantCode  string
	}{
		{
			name:      "Tenant store of the owner",
			principal: env.principal(t, u1),
			tenant:    store1,
			wantScope: model.ScopedTo(store1.ID),
		},
		{
			name:      "Single owned store without tenant",
			principal: env.principal(t, u1),
			wantScope: model.ScopedTo(store1.ID),
		},
		{
			name:      "Explicit store wins over tenant",
			principal: env.principal(t, admin),
			tenant:    store1,
			storeID:   &store2.ID,
			wantScope: model.ScopedTo(store2.ID),
		},
		{
			name:      "Admin without context is global",
			principal: env.principal(t, admin),
			wantScope: model.Global(),
		},
		{
			name:      "User without stores is global",
			principal: env.principal(t, loner),
			wantScope: model.Global(),
		},
		{
			name:      "Owner of several stores is global",
			principal: env.principal(t, multi),
			wantScope: model.Global(),
		},
		{
			name:      "Cross-tenant via host",
			principal: env.principal(t, u2),
			tenant:    store1,
			wantCode:  apperrors.AuthzCrossTenantWrite,
		},
		{
			name:      "Cross-tenant via explicit store",
			principal: env.principal(t, u1),
			storeID:   &store2.ID,
			wantCode:  apperrors.AuthzCrossTenantWrite,
		},
		{
			name:      "Unknown explicit store",
			principal: env.principal(t, u1),
			storeID:   uintPtr(9999),
			wantCode:  apperrors.ValidationInvalidInput,
		},
		{
			name:     "Anonymous",
			tenant:   store1,
			wantCode: apperrors.AuthUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, err := svc.CreateCategory(ctx, tt.principal, tt.tenant, CreateCategoryInput{
				Name:    "Shoes",
				StoreID: tt.storeID,
			})
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.As(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScope, category.Scope())
		})
	}
}

func TestCategoryService_Validation(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	svc := env.categoryService()
	ctx := context.Background()
	admin := env.principal(t, env.user(t, "staff", model.RoleAdmin))

	_, err := svc.CreateCategory(ctx, admin, nil, CreateCategoryInput{Name: "  "})
	require.Error(t, err)
	assert.Contains(t, apperrors.As(err).Fields, "name")

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.CreateCategory(ctx, admin, nil, CreateCategoryInput{Name: string(long)})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCategoryService_ListCategories(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	svc := env.categoryService()
	ctx := context.Background()

	store1 := env.store(t, nil, "store1")
	store2 := env.store(t, nil, "store2")
	env.category(t, "Bags", store1)
	env.category(t, "Accessories", store1)
	env.category(t, "Hats", store2)
	env.category(t, "Legacy", nil)

	all, err := svc.ListCategories(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	scoped, err := svc.ListCategories(ctx, &store1.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	assert.Equal(t, "Accessories", scoped[0].Name)
	assert.Equal(t, "Bags", scoped[1].Name)
}

func TestCategoryService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t, authz.Policy{OwnerScopedWrites: true})
	svc := env.categoryService()
	ctx := context.Background()

	owner := env.user(t, "owner", model.RoleUser)
	other := env.user(t, "other", model.RoleUser)
	store := env.store(t, owner, "store1")
	env.store(t, other, "store2")
	category := env.category(t, "Shoes", store)
	legacy := env.category(t, "Legacy", nil)

	_, err := svc.UpdateCategory(ctx, env.principal(t, other), category.ID, model.CategoryPatch{Name: strPtr("Stolen")})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = svc.UpdateCategory(ctx, env.principal(t, owner), legacy.ID, model.CategoryPatch{Name: strPtr("Mine")})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err), "only staff edit global rows under owner-scoped writes")

	updated, err := svc.UpdateCategory(ctx, env.principal(t, owner), category.ID, model.CategoryPatch{Description: strPtr("Running shoes")})
	require.NoError(t, err)
	assert.Equal(t, "Shoes", updated.Name)
	assert.Equal(t, "Running shoes", updated.Description)

	_, err = svc.UpdateCategory(ctx, env.principal(t, owner), 9999, model.CategoryPatch{})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	require.NoError(t, env.products.CreateWithChildren(ctx, &model.Product{
		Name:       "Runner",
		CategoryID: category.ID,
		StoreID:    &store.ID,
	}))

	require.NoError(t, svc.DeleteCategory(ctx, env.principal(t, owner), category.ID))
	_, err = svc.GetCategoryByID(ctx, category.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	var products int64
	require.NoError(t, env.db.Model(&model.Product{}).Count(&products).Error)
	assert.Zero(t, products)
}
