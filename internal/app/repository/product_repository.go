package repository

import (
	"context"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductFilter is the read-side predicate set for product listings.
// Zero values mean "do not filter on this dimension".
type ProductFilter struct {
	Scope      *model.Scope
	CategoryID *uint
	Featured   bool
	NewArrival bool
	OnSale     bool
	Limit      int
}

type ProductRepository interface {
	// CreateWithChildren inserts the product, then its Images and
	// Specifications, in one transaction.
	CreateWithChildren(ctx context.Context, product *model.Product) error
	// UpdateWithChildren writes the scalar columns and, when asked, replaces
	// the images or specifications with product.Images / product.Specifications.
	// It returns the image paths dropped by the replacement.
	UpdateWithChildren(ctx context.Context, product *model.Product, replaceSpecs, replaceImages bool) ([]string, error)
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	Delete(ctx context.Context, id uint) ([]string, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) CreateWithChildren(ctx context.Context, product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":           product.Name,
		"category_id":    product.CategoryID,
		"store_id":       product.StoreID,
		"images":         len(product.Images),
		"specifications": len(product.Specifications),
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
			return err
		}
		return insertChildren(tx, product, true, true)
	})
	if err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name":     product.Name,
			"store_id": product.StoreID,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"store_id":   product.StoreID,
	})
	return nil
}

func insertChildren(tx *gorm.DB, product *model.Product, specs, images bool) error {
	if specs && len(product.Specifications) > 0 {
		for i := range product.Specifications {
			product.Specifications[i].ID = 0
			product.Specifications[i].ProductID = product.ID
		}
		if err := tx.Create(&product.Specifications).Error; err != nil {
			return err
		}
	}
	if images && len(product.Images) > 0 {
		for i := range product.Images {
			product.Images[i].ID = 0
			product.Images[i].ProductID = product.ID
		}
		if err := tx.Create(&product.Images).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *productRepository) UpdateWithChildren(ctx context.Context, product *model.Product, replaceSpecs, replaceImages bool) ([]string, error) {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id":             product.ID,
		"replace_specifications": replaceSpecs,
		"replace_images":         replaceImages,
	})

	var removed []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(product).
			Select("*").
			Omit("id", "created_at", clause.Associations).
			Updates(product)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if replaceSpecs {
			if err := tx.Where("product_id = ?", product.ID).Delete(&model.ProductSpecification{}).Error; err != nil {
				return err
			}
		}
		if replaceImages {
			var old []string
			if err := tx.Model(&model.ProductImage{}).Where("product_id = ?", product.ID).Pluck("image", &old).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id = ?", product.ID).Delete(&model.ProductImage{}).Error; err != nil {
				return err
			}
			removed = unreferenced(old, product.Images)
		}
		return insertChildren(tx, product, replaceSpecs, replaceImages)
	})
	if err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return nil, err
	}
	return removed, nil
}

// unreferenced returns the old paths that none of the new images reuse.
func unreferenced(old []string, images []model.ProductImage) []string {
	kept := make(map[string]struct{}, len(images))
	for _, img := range images {
		kept[img.Image] = struct{}{}
	}
	var out []string
	for _, path := range old {
		if _, ok := kept[path]; !ok && path != "" {
			out = append(out, path)
		}
	}
	return out
}

func (r *productRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_images.id ASC")
		}).
		Preload("Specifications", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_specifications.id ASC")
		})
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.baseQuery(ctx).First(&product, id).Error; err != nil {
		logger.Debug("Product not found by ID", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"scope":       scopeField(filter.Scope),
		"category_id": filter.CategoryID,
		"featured":    filter.Featured,
		"new_arrival": filter.NewArrival,
		"sale":        filter.OnSale,
	})

	query := r.baseQuery(ctx)
	if filter.Scope != nil {
		query = whereScope(query, "products", *filter.Scope)
	}
	if filter.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filter.CategoryID)
	}
	if filter.Featured {
		query = query.Where("products.featured = ?", true)
	}
	if filter.NewArrival {
		query = query.Where("products.new_arrival = ?", true)
	}
	if filter.OnSale {
		query = query.Where("products.sale = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var products []model.Product
	if err := query.Order("products.id DESC").Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err, map[string]interface{}{
			"scope": scopeField(filter.Scope),
		})
		return nil, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	var orphaned []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		paths, err := deleteProducts(tx, []uint{id})
		orphaned = paths
		return err
	})
	if err != nil {
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return orphaned, nil
}

// deleteProducts hard-deletes the products with their images and
// specifications inside tx and returns every image path they referenced.
func deleteProducts(tx *gorm.DB, ids []uint) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var paths []string
	if err := tx.Model(&model.Product{}).
		Where("id IN ? AND image <> ''", ids).
		Pluck("image", &paths).Error; err != nil {
		return nil, err
	}
	var extra []string
	if err := tx.Model(&model.ProductImage{}).
		Where("product_id IN ?", ids).
		Pluck("image", &extra).Error; err != nil {
		return nil, err
	}
	paths = append(paths, extra...)

	if err := tx.Where("product_id IN ?", ids).Delete(&model.ProductSpecification{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("product_id IN ?", ids).Delete(&model.ProductImage{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", ids).Delete(&model.Product{}).Error; err != nil {
		return nil, err
	}
	return paths, nil
}
