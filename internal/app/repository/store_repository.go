package repository

import (
	"context"
	"errors"
	"time"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleWrite means a guarded update matched no row: the record was
// deleted or its guard condition no longer holds.
var ErrStaleWrite = errors.New("record changed concurrently")

type StoreFilter struct {
	OwnerID *uint // nil lists every store
}

// StoreDomain is the (domain, name) pair shown by the tenant diagnostics endpoint.
type StoreDomain struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	// Update writes every column except domain_locked_at, which only
	// LockDomain sets. With requireUnlockedDomain the write only
	// applies while domain_locked_at is NULL, else ErrStaleWrite.
	Update(ctx context.Context, store *model.Store, requireUnlockedDomain bool) error
	FindByID(ctx context.Context, id uint) (*model.Store, error)
	FindByDomain(ctx context.Context, domain string) (*model.Store, error)
	List(ctx context.Context, filter StoreFilter) ([]model.Store, error)
	ListOwnedIDs(ctx context.Context, ownerID uint) ([]uint, error)
	ListDomains(ctx context.Context) ([]StoreDomain, error)
	LockDomain(ctx context.Context, id uint, at time.Time) (bool, error)
	// DeleteCascade removes the store with its categories, products,
	// product children and shipping agents in one transaction and returns
	// the image paths that are no longer referenced.
	DeleteCascade(ctx context.Context, id uint) ([]string, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(ctx context.Context, store *model.Store) error {
	logger.Debug("Creating store in database", map[string]interface{}{
		"name":     store.Name,
		"domain":   store.Domain,
		"owner_id": store.OwnerID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(store).Error; err != nil {
		logger.Error("Failed to create store in database", err, map[string]interface{}{
			"domain": store.Domain,
		})
		return err
	}

	logger.Debug("Store created in database", map[string]interface{}{
		"store_id": store.ID,
		"domain":   store.Domain,
	})
	return nil
}

func (r *storeRepository) Update(ctx context.Context, store *model.Store, requireUnlockedDomain bool) error {
	logger.Debug("Updating store in database", map[string]interface{}{
		"store_id": store.ID,
		"domain":   store.Domain,
	})

	query := r.db.WithContext(ctx).Model(store)
	if requireUnlockedDomain {
		query = query.Where("domain_locked_at IS NULL")
	}
	result := query.Select("*").Omit("id", "created_at", "domain_locked_at", clause.Associations).Updates(store)
	if result.Error != nil {
		logger.Error("Failed to update store in database", result.Error, map[string]interface{}{
			"store_id": store.ID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleWrite
	}

	logger.Debug("Store updated in database", map[string]interface{}{
		"store_id": store.ID,
	})
	return nil
}

func (r *storeRepository) FindByID(ctx context.Context, id uint) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).First(&store, id).Error; err != nil {
		logger.Debug("Store not found by ID", map[string]interface{}{
			"store_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindByDomain(ctx context.Context, domain string) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).Where("domain = ?", domain).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) List(ctx context.Context, filter StoreFilter) ([]model.Store, error) {
	query := r.db.WithContext(ctx).Model(&model.Store{})
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}

	var stores []model.Store
	if err := query.Order("name ASC, id ASC").Find(&stores).Error; err != nil {
		logger.Error("Failed to list stores", err, map[string]interface{}{
			"owner_id": filter.OwnerID,
		})
		return nil, err
	}

	logger.Debug("Stores found", map[string]interface{}{
		"count": len(stores),
	})
	return stores, nil
}

func (r *storeRepository) ListOwnedIDs(ctx context.Context, ownerID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Store{}).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *storeRepository) ListDomains(ctx context.Context) ([]StoreDomain, error) {
	var domains []StoreDomain
	err := r.db.WithContext(ctx).Model(&model.Store{}).
		Select("domain, name").
		Order("domain ASC").
		Scan(&domains).Error
	if err != nil {
		return nil, err
	}
	return domains, nil
}

// LockDomain stamps domain_locked_at once; later calls are no-ops
// and report false.
func (r *storeRepository) LockDomain(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Store{}).
		Where("id = ? AND domain_locked_at IS NULL", id).
		UpdateColumn("domain_locked_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *storeRepository) DeleteCascade(ctx context.Context, id uint) ([]string, error) {
	logger.Debug("Deleting store with its catalog", map[string]interface{}{
		"store_id": id,
	})

	var orphaned []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var store model.Store
		if err := tx.First(&store, id).Error; err != nil {
			return err
		}

		var productIDs []uint
		if err := tx.Model(&model.Product{}).
			Where("store_id = ? OR category_id IN (?)", id,
				tx.Model(&model.Category{}).Select("id").Where("store_id = ?", id)).
			Pluck("id", &productIDs).Error; err != nil {
			return err
		}

		paths, err := deleteProducts(tx, productIDs)
		if err != nil {
			return err
		}
		orphaned = paths

		if err := tx.Where("store_id = ?", id).Delete(&model.Category{}).Error; err != nil {
			return err
		}
		if err := tx.Where("store_id = ?", id).Delete(&model.ShippingAgent{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Store{}, id).Error; err != nil {
			return err
		}
		if store.Logo != "" {
			orphaned = append(orphaned, store.Logo)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete store", err, map[string]interface{}{
			"store_id": id,
		})
		return nil, err
	}

	logger.Debug("Store deleted from database", map[string]interface{}{
		"store_id":        id,
		"orphaned_images": len(orphaned),
	})
	return orphaned, nil
}
