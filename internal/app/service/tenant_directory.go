package service

import (
	"context"
	"errors"
	"time"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/cache"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrNoSubdomain = apperrors.TenantResolution(apperrors.TenantNoSubdomain, "This endpoint requires a subdomain")

// TenantDirectory maps tenant keys to stores.
type TenantDirectory interface {
	// Resolve returns the store whose domain equals key. An empty key is
	// a TenantResolution error; an unknown key is NotFound and carries the
	// key as "subdomain".
	Resolve(ctx context.Context, key string) (*model.Store, error)
	Invalidate(ctx context.Context, keys ...string)
	KnownStores(ctx context.Context) ([]repository.StoreDomain, error)
}

type tenantDirectory struct {
	storeRepo repository.StoreRepository
	cache     cache.StoreCache
	now       func() time.Time
}

func NewTenantDirectory(storeRepo repository.StoreRepository, storeCache cache.StoreCache) TenantDirectory {
	return &tenantDirectory{
		storeRepo: storeRepo,
		cache:     storeCache,
		now:       time.Now,
	}
}

func storeNotFound(key string) error {
	return apperrors.NotFound(apperrors.StoreNotFound, "Store not found").WithExtra("subdomain", key)
}

func (d *tenantDirectory) Resolve(ctx context.Context, key string) (*model.Store, error) {
	if key == "" {
		return nil, ErrNoSubdomain
	}

	if d.cache != nil {
		cached, err := d.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("Tenant cache read failed", map[string]interface{}{
				"subdomain": key,
				"error":     err.Error(),
			})
		} else if cached != nil {
			return cached, nil
		}
	}

	store, err := d.storeRepo.FindByDomain(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug("No store for subdomain", map[string]interface{}{
				"subdomain": key,
			})
			return nil, storeNotFound(key)
		}
		return nil, apperrors.FromDB(err, nil)
	}

	if !store.DomainLocked() {
		at := d.now().UTC()
		locked, err := d.storeRepo.LockDomain(ctx, store.ID, at)
		if err != nil {
			return nil, apperrors.FromDB(err, nil)
		}
		if locked {
			logger.Info("Store domain locked after first resolution", map[string]interface{}{
				"store_id":  store.ID,
				"subdomain": key,
			})
		}
		// a concurrent resolver may have won the race; either way the domain is locked now
		store.DomainLockedAt = &at
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, key, store); err != nil {
			logger.Warn("Tenant cache write failed", map[string]interface{}{
				"subdomain": key,
				"error":     err.Error(),
			})
		}
	}
	return store, nil
}

func (d *tenantDirectory) Invalidate(ctx context.Context, keys ...string) {
	if d.cache == nil || len(keys) == 0 {
		return
	}
	if err := d.cache.Delete(ctx, keys...); err != nil {
		logger.Warn("Tenant cache invalidation failed", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
	}
}

func (d *tenantDirectory) KnownStores(ctx context.Context) ([]repository.StoreDomain, error) {
	domains, err := d.storeRepo.ListDomains(ctx)
	if err != nil {
		return nil, apperrors.FromDB(err, nil)
	}
	if domains == nil {
		domains = []repository.StoreDomain{}
	}
	return domains, nil
}
