package service

import (
	"context"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/internal/storage"
	"github.com/storeup/storeup-backend/pkg/logger"
)

var ErrProductNotFound = apperrors.NotFound(apperrors.ProductNotFound, "product not found")

const productImageFolder = "products"

var maxRating = decimal.NewFromInt(5)

// ImageUpload is a file received with a product request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ProductUploads are files to store before the product is written.
// Image becomes the primary image; Images are appended to the additional
// image list.
type ProductUploads struct {
	Image  *ImageUpload
	Images []ImageUpload
}

func (u ProductUploads) empty() bool {
	return u.Image == nil && len(u.Images) == 0
}

type CreateProductInput struct {
	Name           string
	Description    string
	Price          decimal.Decimal
	SalePrice      decimal.NullDecimal
	Image          string
	CategoryID     uint
	StoreID        *uint
	Stock          int
	Featured       bool
	NewArrival     bool
	Sale           bool
	Rating         decimal.Decimal
	ReviewCount    int
	SKU            string
	Images         []string
	Specifications []model.ProductSpecification
}

type ProductOptions struct {
	MediaBase        string
	EnforceSalePrice bool
}

type ProductService interface {
	ListProducts(ctx context.Context, query ProductQuery) ([]model.Product, error)
	// StorefrontProducts lists one store's products; global rows never appear.
	StorefrontProducts(ctx context.Context, store *model.Store, query ProductQuery) ([]model.Product, error)
	GetProductByID(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, p *authz.Principal, tenant *model.Store, input CreateProductInput, uploads ProductUploads) (*model.Product, error)
	UpdateProduct(ctx context.Context, p *authz.Principal, id uint, patch model.ProductPatch, uploads ProductUploads) (*model.Product, error)
	DeleteProduct(ctx context.Context, p *authz.Principal, id uint) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	guard        *authz.Guard
	stamper      stamper
	images       storage.ImageStorage
	opts         ProductOptions
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	storeRepo repository.StoreRepository,
	guard *authz.Guard,
	images storage.ImageStorage,
	opts ProductOptions,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		guard:        guard,
		stamper:      stamper{storeRepo: storeRepo, guard: guard},
		images:       images,
		opts:         opts,
	}
}

func (s *productService) present(products []model.Product) []model.Product {
	if products == nil {
		return []model.Product{}
	}
	for i := range products {
		products[i].ApplyMediaBase(s.opts.MediaBase)
	}
	return products
}

func (s *productService) ListProducts(ctx context.Context, query ProductQuery) ([]model.Product, error) {
	products, err := s.productRepo.FindWithFilter(ctx, query.Filter())
	if err != nil {
		return nil, apperrors.FromDB(err, nil)
	}
	return s.present(products), nil
}

func (s *productService) StorefrontProducts(ctx context.Context, store *model.Store, query ProductQuery) ([]model.Product, error) {
	if store == nil {
		return nil, ErrNoSubdomain
	}
	return s.ListProducts(ctx, query.InStore(store.ID))
}

func (s *productService) GetProductByID(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromDB(err, ErrProductNotFound)
	}
	product.ApplyMediaBase(s.opts.MediaBase)
	return product, nil
}

// validate checks the scalar fields of a product about to be written.
func (s *productService) validate(p *model.Product) error {
	fields := map[string]string{}
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "this field is required"
	} else if len(p.Name) > 200 {
		fields["name"] = "ensure this field has no more than 200 characters"
	}
	if p.Price.IsNegative() {
		fields["price"] = "ensure this value is greater than or equal to 0"
	}
	if p.SalePrice.Valid {
		switch {
		case p.SalePrice.Decimal.IsNegative():
			fields["sale_price"] = "ensure this value is greater than or equal to 0"
		case s.opts.EnforceSalePrice && p.SalePrice.Decimal.GreaterThan(p.Price):
			fields["sale_price"] = "sale price cannot exceed price"
		}
	}
	if p.Stock < 0 {
		fields["stock"] = "ensure this value is greater than or equal to 0"
	}
	if p.Rating.IsNegative() || p.Rating.GreaterThan(maxRating) {
		fields["rating"] = "ensure this value is between 0 and 5"
	}
	if p.ReviewCount < 0 {
		fields["review_count"] = "ensure this value is greater than or equal to 0"
	}
	if len(p.SKU) > 50 {
		fields["sku"] = "ensure this field has no more than 50 characters"
	}
	if p.CategoryID == 0 {
		fields["category"] = "this field is required"
	}
	for _, spec := range p.Specifications {
		if strings.TrimSpace(spec.Name) == "" || len(spec.Name) > 100 || len(spec.Value) > 255 {
			fields["specifications"] = "each specification needs a name of at most 100 and a value of at most 255 characters"
			break
		}
	}
	if len(fields) > 0 {
		return apperrors.Validation(apperrors.ValidationInvalidInput, "invalid product", fields)
	}
	return nil
}

// checkCategory requires the category to exist and be global or in the
// same store as the product.
func (s *productService) checkCategory(ctx context.Context, categoryID uint, scope model.Scope) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if apperrors.KindOf(apperrors.FromDB(err, nil)) == apperrors.KindNotFound {
			return nil, apperrors.Field("category", "category does not exist")
		}
		return nil, apperrors.FromDB(err, nil)
	}
	if !category.Scope().IsGlobal() && category.Scope() != scope {
		return nil, apperrors.Field("category", "category belongs to another store")
	}
	return category, nil
}

// store saves uploads and returns the primary path (or "") and the
// additional paths. On failure everything stored so far is discarded.
func (s *productService) store(ctx context.Context, uploads ProductUploads) (string, []string, error) {
	if uploads.empty() {
		return "", nil, nil
	}
	if s.images == nil {
		return "", nil, apperrors.Validation(apperrors.UploadNotSupported, "file uploads are not configured", nil)
	}

	all := make([]ImageUpload, 0, len(uploads.Images)+1)
	if uploads.Image != nil {
		all = append(all, *uploads.Image)
	}
	all = append(all, uploads.Images...)
	for _, u := range all {
		if err := storage.ValidateContentType(u.ContentType); err != nil {
			return "", nil, apperrors.Validation(apperrors.UploadInvalidFileType, err.Error(),
				map[string]string{"image": err.Error()})
		}
	}

	var saved []string
	for _, u := range all {
		path, err := s.images.Save(ctx, productImageFolder, u.Filename, u.ContentType, u.Body)
		if err != nil {
			discardImages(ctx, s.images, saved)
			return "", nil, &apperrors.Error{
				Kind: apperrors.KindInternal, Code: apperrors.UploadFailed,
				Message: "failed to store image", Err: err,
			}
		}
		saved = append(saved, path)
	}

	if uploads.Image != nil {
		return saved[0], saved[1:], nil
	}
	return "", saved, nil
}

func (s *productService) CreateProduct(ctx context.Context, p *authz.Principal, tenant *model.Store, input CreateProductInput, uploads ProductUploads) (*model.Product, error) {
	product := &model.Product{
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		Price:          input.Price,
		SalePrice:      input.SalePrice,
		Image:          input.Image,
		CategoryID:     input.CategoryID,
		Stock:          input.Stock,
		Featured:       input.Featured,
		NewArrival:     input.NewArrival,
		Sale:           input.Sale,
		Rating:         input.Rating,
		ReviewCount:    input.ReviewCount,
		SKU:            input.SKU,
		Specifications: input.Specifications,
	}
	for _, path := range input.Images {
		product.Images = append(product.Images, model.ProductImage{Image: path})
	}
	if err := s.validate(product); err != nil {
		return nil, err
	}

	scope, err := s.stamper.scopeFor(ctx, p, input.StoreID, tenant)
	if err != nil {
		return nil, err
	}
	if err := decide(s.guard.Authorize(p, authz.ActionCreate, authz.ScopedResource(authz.KindProduct, scope))); err != nil {
		return nil, err
	}
	if _, err := s.checkCategory(ctx, product.CategoryID, scope); err != nil {
		return nil, err
	}
	product.StoreID = scope.Column()

	primary, extra, err := s.store(ctx, uploads)
	if err != nil {
		return nil, err
	}
	if primary != "" {
		product.Image = primary
	}
	for _, path := range extra {
		product.Images = append(product.Images, model.ProductImage{Image: path})
	}

	if err := s.productRepo.CreateWithChildren(ctx, product); err != nil {
		discardImages(ctx, s.images, append(extra, primary))
		return nil, apperrors.FromDB(err, nil)
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id":     product.ID,
		"scope":          scope.String(),
		"images":         len(product.Images),
		"specifications": len(product.Specifications),
	})
	return s.GetProductByID(ctx, product.ID)
}

func (s *productService) UpdateProduct(ctx context.Context, p *authz.Principal, id uint, patch model.ProductPatch, uploads ProductUploads) (*model.Product, error) {
	current, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromDB(err, ErrProductNotFound)
	}
	if err := decide(s.guard.Authorize(p, authz.ActionUpdate, authz.ScopedResource(authz.KindProduct, current.Scope()))); err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)
	updated.Name = strings.TrimSpace(updated.Name)
	updated.Specifications = patch.Specifications
	if err := s.validate(&updated); err != nil {
		return nil, err
	}
	if updated.CategoryID != current.CategoryID {
		if _, err := s.checkCategory(ctx, updated.CategoryID, updated.Scope()); err != nil {
			return nil, err
		}
	}

	primary, extra, err := s.store(ctx, uploads)
	if err != nil {
		return nil, err
	}
	if primary != "" {
		updated.Image = primary
	}
	images := patch.Images
	for _, path := range extra {
		images = append(images, model.ProductImage{Image: path})
	}
	updated.Images = images

	replaceSpecs := patch.ReplacesSpecifications()
	replaceImages := len(images) > 0
	removed, err := s.productRepo.UpdateWithChildren(ctx, &updated, replaceSpecs, replaceImages)
	if err != nil {
		discardImages(ctx, s.images, append(extra, primary))
		return nil, apperrors.FromDB(err, ErrProductNotFound)
	}

	if current.Image != "" && current.Image != updated.Image {
		removed = append(removed, current.Image)
	}
	discardImages(ctx, s.images, removed)

	logger.Info("Product updated", map[string]interface{}{
		"product_id":              id,
		"replaced_specifications": replaceSpecs,
		"replaced_images":         replaceImages,
	})
	return s.GetProductByID(ctx, id)
}

func (s *productService) DeleteProduct(ctx context.Context, p *authz.Principal, id uint) error {
	current, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return apperrors.FromDB(err, ErrProductNotFound)
	}
	if err := decide(s.guard.Authorize(p, authz.ActionDelete, authz.ScopedResource(authz.KindProduct, current.Scope()))); err != nil {
		return err
	}

	paths, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return apperrors.FromDB(err, ErrProductNotFound)
	}
	discardImages(ctx, s.images, paths)

	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}
