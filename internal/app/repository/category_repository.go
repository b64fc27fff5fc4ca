package repository

import (
	"context"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryFilter struct {
	Scope *model.Scope // nil lists every category
}

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uint) (*model.Category, error)
	List(ctx context.Context, filter CategoryFilter) ([]model.Category, error)
	// Delete removes the category and its products and returns the image
	// paths the removed products referenced.
	Delete(ctx context.Context, id uint) ([]string, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// whereScope narrows a query on the given table's store_id column.
func whereScope(query *gorm.DB, table string, scope model.Scope) *gorm.DB {
	if storeID, ok := scope.StoreID(); ok {
		return query.Where(table+".store_id = ?", storeID)
	}
	return query.Where(table + ".store_id IS NULL")
}

func scopeField(scope *model.Scope) string {
	if scope == nil {
		return "any"
	}
	return scope.String()
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	logger.Debug("Creating category in database", map[string]interface{}{
		"name":     category.Name,
		"store_id": category.StoreID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(category).Error; err != nil {
		logger.Error("Failed to create category in database", err, map[string]interface{}{
			"name":     category.Name,
			"store_id": category.StoreID,
		})
		return err
	}

	logger.Debug("Category created in database", map[string]interface{}{
		"category_id": category.ID,
	})
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	result := r.db.WithContext(ctx).Model(category).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(category)
	if result.Error != nil {
		logger.Error("Failed to update category in database", result.Error, map[string]interface{}{
			"category_id": category.ID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		logger.Debug("Category not found by ID", map[string]interface{}{
			"category_id": id,
			"error":       err.Error(),
		})
		return nil, err
	}

	counts, err := r.productCounts(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	category.ProductsCount = counts[id]
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, filter CategoryFilter) ([]model.Category, error) {
	query := r.db.WithContext(ctx).Model(&model.Category{})
	if filter.Scope != nil {
		query = whereScope(query, "categories", *filter.Scope)
	}

	var categories []model.Category
	if err := query.Order("name ASC, id ASC").Find(&categories).Error; err != nil {
		logger.Error("Failed to list categories", err, map[string]interface{}{
			"scope": scopeField(filter.Scope),
		})
		return nil, err
	}
	if len(categories) == 0 {
		return categories, nil
	}

	ids := make([]uint, len(categories))
	for i := range categories {
		ids[i] = categories[i].ID
	}
	counts, err := r.productCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		categories[i].ProductsCount = counts[categories[i].ID]
	}
	return categories, nil
}

type categoryCount struct {
	CategoryID uint
	Count      int64
}

func (r *categoryRepository) productCounts(ctx context.Context, ids []uint) (map[uint]int64, error) {
	var rows []categoryCount
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("category_id, COUNT(*) AS count").
		Where("category_id IN ?", ids).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count products per category", err)
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	return counts, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	logger.Debug("Deleting category with its products", map[string]interface{}{
		"category_id": id,
	})

	var orphaned []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var productIDs []uint
		if err := tx.Model(&model.Product{}).Where("category_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
			return err
		}

		paths, err := deleteProducts(tx, productIDs)
		if err != nil {
			return err
		}
		orphaned = paths

		result := tx.Delete(&model.Category{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete category", err, map[string]interface{}{
			"category_id": id,
		})
		return nil, err
	}
	return orphaned, nil
}
