package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Workbook layout shared by export and import.
const (
	sheetStore      = "Store"
	sheetCategories = "Categories"
	sheetProducts   = "Products"
)

var (
	storeHeader    = []interface{}{"domain", "name", "description"}
	categoryHeader = []interface{}{"name", "description"}
	productHeader  = []interface{}{
		"name", "category", "description", "price", "sale_price", "stock",
		"sku", "featured", "new_arrival", "sale", "specifications",
	}
)

// ImportResult summarizes a workbook import.
type ImportResult struct {
	StoreID    uint
	Domain     string
	Created    bool
	Categories int
	Products   int
	Skipped    int
}

type CatalogExportService interface {
	// ExportStore writes the store, its categories and its products as an
	// XLSX workbook. Only the owner and staff may export.
	ExportStore(ctx context.Context, p *authz.Principal, storeID uint, w io.Writer) (*model.Store, error)
	// ImportWorkbook creates the workbook's store when its domain is new and
	// adds its categories and products. ownerID may be nil.
	ImportWorkbook(ctx context.Context, r io.Reader, ownerID *uint) (*ImportResult, error)
}

type catalogExportService struct {
	storeRepo    repository.StoreRepository
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	guard        *authz.Guard
}

func NewCatalogExportService(
	storeRepo repository.StoreRepository,
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	guard *authz.Guard,
) CatalogExportService {
	return &catalogExportService{
		storeRepo:    storeRepo,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		guard:        guard,
	}
}

func (s *catalogExportService) ExportStore(ctx context.Context, p *authz.Principal, storeID uint, w io.Writer) (*model.Store, error) {
	store, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, apperrors.FromDB(err, ErrStoreNotFound)
	}
	if err := decide(s.guard.Authorize(p, authz.ActionUpdate, authz.StoreResource(store))); err != nil {
		return nil, err
	}

	scope := model.ScopedTo(store.ID)
	categories, err := s.categoryRepo.List(ctx, repository.CategoryFilter{Scope: &scope})
	if err != nil {
		return nil, apperrors.FromDB(err, nil)
	}
	products, err := s.productRepo.FindWithFilter(ctx, repository.ProductFilter{Scope: &scope})
	if err != nil {
		return nil, apperrors.FromDB(err, nil)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetStore); err != nil {
		return nil, apperrors.Internal("failed to build workbook", err)
	}
	for _, name := range []string{sheetCategories, sheetProducts} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, apperrors.Internal("failed to build workbook", err)
		}
	}

	rows := map[string][][]interface{}{
		sheetStore: {storeHeader, {store.Domain, store.Name, store.Description}},
	}
	categoryRows := [][]interface{}{categoryHeader}
	for _, c := range categories {
		categoryRows = append(categoryRows, []interface{}{c.Name, c.Description})
	}
	rows[sheetCategories] = categoryRows

	productRows := [][]interface{}{productHeader}
	for _, pr := range products {
		categoryName := ""
		if pr.Category != nil {
			categoryName = pr.Category.Name
		}
		salePrice := ""
		if pr.SalePrice.Valid {
			salePrice = pr.SalePrice.Decimal.StringFixed(2)
		}
		productRows = append(productRows, []interface{}{
			pr.Name, categoryName, pr.Description, pr.Price.StringFixed(2), salePrice,
			pr.Stock, pr.SKU, pr.Featured, pr.NewArrival, pr.Sale,
			formatSpecifications(pr.Specifications),
		})
	}
	rows[sheetProducts] = productRows

	for sheet, sheetRows := range rows {
		for i, row := range sheetRows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return nil, apperrors.Internal("failed to build workbook", err)
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return nil, apperrors.Internal("failed to build workbook", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return nil, apperrors.Internal("failed to write workbook", err)
	}

	logger.Info("Store catalog exported", map[string]interface{}{
		"store_id":   store.ID,
		"categories": len(categories),
		"products":   len(products),
	})
	return store, nil
}

// formatSpecifications renders specs as "name=value; name=value".
func formatSpecifications(specs []model.ProductSpecification) string {
	parts := make([]string, 0, len(specs))
	for _, spec := range specs {
		parts = append(parts, spec.Name+"="+spec.Value)
	}
	return strings.Join(parts, "; ")
}

func parseSpecifications(raw string) []model.ProductSpecification {
	var specs []model.ProductSpecification
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		specs = append(specs, model.ProductSpecification{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return specs
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func (s *catalogExportService) ImportWorkbook(ctx context.Context, r io.Reader, ownerID *uint) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.Validation(apperrors.ValidationInvalidFormat, "failed to open workbook", nil)
	}
	defer f.Close()

	storeRows, err := f.GetRows(sheetStore)
	if err != nil || len(storeRows) < 2 {
		return nil, apperrors.Validation(apperrors.ValidationInvalidFormat,
			fmt.Sprintf("sheet %q needs a header and one store row", sheetStore), nil)
	}

	domain := model.NormalizeDomainKey(cellAt(storeRows[1], 0))
	name := cellAt(storeRows[1], 1)
	if err := validateStoreFields(name, domain); err != nil {
		return nil, err
	}

	result := &ImportResult{Domain: domain}
	store, err := s.storeRepo.FindByDomain(ctx, domain)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		store = &model.Store{
			OwnerID:     ownerID,
			Name:        name,
			Domain:      domain,
			Description: cellAt(storeRows[1], 2),
		}
		if err := s.storeRepo.Create(ctx, store); err != nil {
			return nil, apperrors.FromDB(err, nil)
		}
		result.Created = true
	case err != nil:
		return nil, apperrors.FromDB(err, nil)
	}
	result.StoreID = store.ID

	categoryIDs := map[string]uint{}
	categoryRows, _ := f.GetRows(sheetCategories)
	for i, row := range categoryRows {
		if i == 0 {
			continue
		}
		catName := cellAt(row, 0)
		if validateCategoryName(catName) != nil {
			result.Skipped++
			continue
		}
		if _, seen := categoryIDs[catName]; seen {
			continue
		}
		category := &model.Category{Name: catName, Description: cellAt(row, 1), StoreID: &store.ID}
		if err := s.categoryRepo.Create(ctx, category); err != nil {
			return nil, apperrors.FromDB(err, nil)
		}
		categoryIDs[catName] = category.ID
		result.Categories++
	}

	productRows, _ := f.GetRows(sheetProducts)
	for i, row := range productRows {
		if i == 0 {
			continue
		}
		product, ok := productFromRow(row, categoryIDs, store.ID)
		if !ok {
			result.Skipped++
			continue
		}
		if err := s.productRepo.CreateWithChildren(ctx, product); err != nil {
			return nil, apperrors.FromDB(err, nil)
		}
		result.Products++
	}

	logger.Info("Workbook imported", map[string]interface{}{
		"store_id":   result.StoreID,
		"created":    result.Created,
		"categories": result.Categories,
		"products":   result.Products,
		"skipped":    result.Skipped,
	})
	return result, nil
}

func productFromRow(row []string, categoryIDs map[string]uint, storeID uint) (*model.Product, bool) {
	name := cellAt(row, 0)
	categoryID, ok := categoryIDs[cellAt(row, 1)]
	if name == "" || !ok {
		return nil, false
	}
	price, err := decimal.NewFromString(cellAt(row, 3))
	if err != nil || price.IsNegative() {
		return nil, false
	}

	product := &model.Product{
		Name:           name,
		CategoryID:     categoryID,
		StoreID:        &storeID,
		Description:    cellAt(row, 2),
		Price:          price,
		SKU:            cellAt(row, 6),
		Featured:       isTrue(cellAt(row, 7)),
		NewArrival:     isTrue(cellAt(row, 8)),
		Sale:           isTrue(cellAt(row, 9)),
		Specifications: parseSpecifications(cellAt(row, 10)),
	}
	if sp := cellAt(row, 4); sp != "" {
		if v, err := decimal.NewFromString(sp); err == nil {
			product.SalePrice = decimal.NewNullDecimal(v)
		}
	}
	if stock, err := strconv.Atoi(cellAt(row, 5)); err == nil && stock >= 0 {
		product.Stock = stock
	}
	return product, true
}
