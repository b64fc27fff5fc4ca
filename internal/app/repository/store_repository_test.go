package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupStoreTest(t *testing.T) (*gorm.DB, StoreRepository, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	owner := &model.User{Username: "owner", Email: "owner@example.com", PasswordHash: "x", Role: model.RoleUser}
	require.NoError(t, testDB.Create(owner).Error)

	return testDB, NewStoreRepository(testDB), owner
}

func createTestStore(t *testing.T, repo StoreRepository, ownerID *uint, domain string) *model.Store {
	store := &model.Store{
		OwnerID: ownerID,
		Name:    "Store " + domain,
		Domain:  domain,
		Theme:   datatypes.JSONMap{"primaryColor": "#3b82f6"},
	}
	require.NoError(t, repo.Create(context.Background(), store))
	return store
}

func TestStoreRepository_CreateAndFind(t *testing.T) {
	testDB, repo, owner := setupStoreTest(t)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	store := createTestStore(t, repo, &owner.ID, "store1")

	found, err := repo.FindByDomain(ctx, "store1")
	require.NoError(t, err)
	assert.Equal(t, store.ID, found.ID)
	assert.Equal(t, "#3b82f6", found.Theme["primaryColor"])
	assert.True(t, found.IsOwnedBy(owner.ID))

	_, err = repo.FindByDomain(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	dup := &model.Store{Name: "dup", Domain: "store1"}
	assert.Error(t, repo.Create(ctx, dup))
}

func TestStoreRepository_List(t *testing.T) {
	testDB, repo, owner := setupStoreTest(t)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	createTestStore(t, repo, &owner.ID, "bravo")
	createTestStore(t, repo, nil, "alpha")
	createTestStore(t, repo, &owner.ID, "charlie")

	all, err := repo.List(ctx, StoreFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Domain)

	owned, err := repo.List(ctx, StoreFilter{OwnerID: &owner.ID})
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	ids, err := repo.ListOwnedIDs(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	domains, err := repo.ListDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 3)
	assert.Equal(t, StoreDomain{Domain: "alpha", Name: "Store alpha"}, domains[0])
}

func TestStoreRepository_LockDomainGuardsUpdate(t *testing.T) {
	testDB, repo, owner := setupStoreTest(t)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	store := createTestStore(t, repo, &owner.ID, "store1")

	locked, err := repo.LockDomain(ctx, store.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = repo.LockDomain(ctx, store.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, locked, "second lock is a no-op")

	current, err := repo.FindByID(ctx, store.ID)
	require.NoError(t, err)
	require.True(t, current.DomainLocked())

	moved := *current
	moved.Domain = "elsewhere"
	assert.ErrorIs(t, repo.Update(ctx, &moved, true), ErrStaleWrite)

	renamed := *current
	renamed.Name = "Renamed"
	renamed.DomainLockedAt = nil
	require.NoError(t, repo.Update(ctx, &renamed, false))

	after, err := repo.FindByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", after.Name)
	assert.Equal(t, "store1", after.Domain)
	assert.True(t, after.DomainLocked(), "plain updates never clear the lock")
}

func TestStoreRepository_DeleteCascade(t *testing.T) {
	testDB, repo, owner := setupStoreTest(t)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	store := createTestStore(t, repo, &owner.ID, "store1")
	other := createTestStore(t, repo, &owner.ID, "store2")
	store.Logo = "/media/stores/logo.png"
	require.NoError(t, repo.Update(ctx, store, false))

	categories := NewCategoryRepository(testDB)
	products := NewProductRepository(testDB)
	agents := NewShippingAgentRepository(testDB)

	storeCat := &model.Category{Name: "Mugs", StoreID: &store.ID}
	globalCat := &model.Category{Name: "Legacy"}
	otherCat := &model.Category{Name: "Other", StoreID: &other.ID}
	for _, c := range []*model.Category{storeCat, globalCat, otherCat} {
		require.NoError(t, categories.Create(ctx, c))
	}

	scoped := &model.Product{
		Name: "Mug", Price: decimal.NewFromInt(10), CategoryID: storeCat.ID, StoreID: &store.ID,
		Image:          "/media/products/mug.png",
		Images:         []model.ProductImage{{Image: "/media/products/mug-2.png"}},
		Specifications: []model.ProductSpecification{{Name: "Color", Value: "Red"}},
	}
	// global product filed under the store's category
	reachable := &model.Product{Name: "Old mug", Price: decimal.NewFromInt(5), CategoryID: storeCat.ID}
	survivor := &model.Product{Name: "Keep", Price: decimal.NewFromInt(5), CategoryID: otherCat.ID, StoreID: &other.ID}
	globalProduct := &model.Product{Name: "Global", Price: decimal.NewFromInt(5), CategoryID: globalCat.ID}
	for _, p := range []*model.Product{scoped, reachable, survivor, globalProduct} {
		require.NoError(t, products.CreateWithChildren(ctx, p))
	}
	require.NoError(t, agents.Create(ctx, &model.ShippingAgent{StoreID: store.ID, Name: "Courier", IsActive: true}))

	paths, err := repo.DeleteCascade(ctx, store.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"/media/products/mug.png",
		"/media/products/mug-2.png",
		"/media/stores/logo.png",
	}, paths)

	_, err = repo.FindByID(ctx, store.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	testDB.Model(&model.Product{}).Count(&count)
	assert.Equal(t, int64(2), count)
	testDB.Model(&model.Category{}).Count(&count)
	assert.Equal(t, int64(2), count)
	testDB.Model(&model.ProductImage{}).Count(&count)
	assert.Zero(t, count)
	testDB.Model(&model.ProductSpecification{}).Count(&count)
	assert.Zero(t, count)
	testDB.Model(&model.ShippingAgent{}).Count(&count)
	assert.Zero(t, count)

	_, err = repo.DeleteCascade(ctx, store.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
