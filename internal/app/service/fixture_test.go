package service

import (
	"context"
	"testing"
	"time"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/authz"
	"github.com/storeup/storeup-backend/internal/cache"
	"github.com/storeup/storeup-backend/internal/db"
	"github.com/storeup/storeup-backend/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testMediaBase = "https://cdn.example.com"

type testEnv struct {
	db         *gorm.DB
	users      repository.UserRepository
	stores     repository.StoreRepository
	categories repository.CategoryRepository
	products   repository.ProductRepository
	agents     repository.ShippingAgentRepository
	cache      *cache.MemoryStoreCache
	images     *storage.LocalStorage
	guard      *authz.Guard
	loader     PrincipalLoader
	directory  TenantDirectory
}

func newTestEnv(t *testing.T, policy authz.Policy) *testEnv {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	images, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{
		db:         testDB,
		users:      repository.NewUserRepository(testDB),
		stores:     repository.NewStoreRepository(testDB),
		categories: repository.NewCategoryRepository(testDB),
		products:   repository.NewProductRepository(testDB),
		agents:     repository.NewShippingAgentRepository(testDB),
		cache:      cache.NewMemoryStoreCache(time.Minute),
		images:     images,
		guard:      authz.NewGuard(policy),
	}
	env.loader = NewPrincipalLoader(env.users, env.stores)
	env.directory = NewTenantDirectory(env.stores, env.cache)
	return env
}

func (e *testEnv) user(t *testing.T, username string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "unused",
		Role:         role,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) store(t *testing.T, owner *model.User, domain string) *model.Store {
	t.Helper()
	s := &model.Store{Name: "Store " + domain, Domain: domain}
	if owner != nil {
		s.OwnerID = &owner.ID
	}
	require.NoError(t, e.stores.Create(context.Background(), s))
	return s
}

func (e *testEnv) category(t *testing.T, name string, store *model.Store) *model.Category {
	t.Helper()
	c := &model.Category{Name: name}
	if store != nil {
		c.StoreID = &store.ID
	}
	require.NoError(t, e.categories.Create(context.Background(), c))
	return c
}

// principal reloads ownership facts, as the auth middleware does per request.
func (e *testEnv) principal(t *testing.T, u *model.User) *authz.Principal {
	t.Helper()
	p, err := e.loader.Load(context.Background(), u.ID)
	require.NoError(t, err)
	return p
}

func (e *testEnv) storeService() StoreService {
	return NewStoreService(e.stores, e.directory, e.guard, e.images, testMediaBase)
}

func (e *testEnv) categoryService() CategoryService {
	return NewCategoryService(e.categories, e.stores, e.guard, e.images)
}

func (e *testEnv) productService(opts ProductOptions) ProductService {
	if opts.MediaBase == "" {
		opts.MediaBase = testMediaBase
	}
	return NewProductService(e.products, e.categories, e.stores, e.guard, e.images, opts)
}

func (e *testEnv) shippingAgentService() ShippingAgentService {
	return NewShippingAgentService(e.agents, e.stores, e.guard)
}

func uintPtr(v uint) *uint {
	return &v
}

func strPtr(v string) *string {
	return &v
}
