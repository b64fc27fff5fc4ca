package service

import (
	"context"
	"strings"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/internal/storage"
	"github.com/storeup/storeup-backend/pkg/logger"
)

var ErrCategoryNotFound = apperrors.NotFound(apperrors.CategoryNotFound, "category not found")

type CreateCategoryInput struct {
	Name        string
	Description string
	StoreID     *uint
}

type CategoryService interface {
	// ListCategories returns every category, or one store's when storeID is set.
	ListCategories(ctx context.Context, storeID *uint) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id uint) (*model.Category, error)
	// CreateCategory stamps the category into a store; tenant is the store
	// resolved from the request host, or nil.
	CreateCategory(ctx context.Context, p *authz.Principal, tenant *model.Store, input CreateCategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, p *authz.Principal, id uint, patch model.CategoryPatch) (*model.Category, error)
	DeleteCategory(ctx context.Context, p *authz.Principal, id uint) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	guard        *authz.Guard
	stamper      stamper
	images       storage.ImageStorage
}

func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	storeRepo repository.StoreRepository,
	guard *authz.Guard,
	images storage.ImageStorage,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		guard:        guard,
		stamper:      stamper{storeRepo: storeRepo, guard: guard},
		images:       images,
	}
}

func validateCategoryName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperrors.Field("name", "this field is required")
	case len(name) > 100:
		return apperrors.Field("name", "ensure this field has no more than 100 characters")
	}
	return nil
}

func (s *categoryService) ListCategories(ctx context.Context, storeID *uint) ([]model.Category, error) {
	filter := repository.CategoryFilter{}
	if storeID != nil {
		scope := model.ScopedTo(*storeID)
		filter.Scope = &scope
	}
	categories, err := s.categoryRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.FromDB(err, nil)
	}
	return categories, nil
}

func (s *categoryService) GetCategoryByID(ctx context.Context, id uint) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromDB(err, ErrCategoryNotFound)
	}
	return category, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, p *authz.Principal, tenant *model.Store, input CreateCategoryInput) (*model.Category, error) {
	if err := validateCategoryName(input.Name); err != nil {
		return nil, err
	}

	scope, err := s.stamper.scopeFor(ctx, p, input.StoreID, tenant)
	if err != nil {
		return nil, err
	}
	if err := decide(s.guard.Authorize(p, authz.ActionCreate, authz.ScopedResource(authz.KindCategory, scope))); err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		StoreID:     scope.Column(),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, apperrors.FromDB(err, nil)
	}

	logger.Info("Category created", map[string]interface{}{
		"category_id": category.ID,
		"scope":       scope.String(),
	})
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, p *authz.Principal, id uint, patch model.CategoryPatch) (*model.Category, error) {
	current, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromDB(err, ErrCategoryNotFound)
	}
	if err := decide(s.guard.Authorize(p, authz.ActionUpdate, authz.ScopedResource(authz.KindCategory, current.Scope()))); err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)
	if err := validateCategoryName(updated.Name); err != nil {
		return nil, err
	}
	updated.Name = strings.TrimSpace(updated.Name)

	if err := s.categoryRepo.Update(ctx, &updated); err != nil {
		return nil, apperrors.FromDB(err, ErrCategoryNotFound)
	}
	return &updated, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, p *authz.Principal, id uint) error {
	current, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return apperrors.FromDB(err, ErrCategoryNotFound)
	}
	if err := decide(s.guard.Authorize(p, authz.ActionDelete, authz.ScopedResource(authz.KindCategory, current.Scope()))); err != nil {
		return err
	}

	paths, err := s.categoryRepo.Delete(ctx, id)
	if err != nil {
		return apperrors.FromDB(err, ErrCategoryNotFound)
	}
	discardImages(ctx, s.images, paths)

	logger.Info("Category deleted", map[string]interface{}{
		"category_id":      id,
		"deleted_products": current.ProductsCount,
	})
	return nil
}
