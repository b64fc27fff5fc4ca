package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSpecificationsFormat(t *testing.T) {
	specs := []model.ProductSpecification{{Name: "Color", Value: "Red"}, {Name: "Size", Value: "42"}}
	assert.Equal(t, "Color=Red; Size=42", formatSpecifications(specs))

	parsed := parseSpecifications(" Color = Red ;broken; =nameless; Size=42")
	require.Len(t, parsed, 2)
	assert.Equal(t, "Color", parsed[0].Name)
	assert.Equal(t, "Red", parsed[0].Value)
	assert.Equal(t, "Size", parsed[1].Name)
}

func TestCatalogExport_RoundTrip(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	svc := NewCatalogExportService(env.stores, env.categories, env.products, env.guard)
	ctx := context.Background()

	owner := env.user(t, "owner", model.RoleUser)
	other := env.user(t, "other", model.RoleUser)
	store := env.store(t, owner, "store1")
	shoes := env.category(t, "Shoes", store)
	env.category(t, "Hats", store)
	require.NoError(t, env.products.CreateWithChildren(ctx, &model.Product{
		Name:       "Runner",
		CategoryID: shoes.ID,
		StoreID:    &store.ID,
		Price:      decimal.RequireFromString("99.90"),
		SalePrice:  decimal.NewNullDecimal(decimal.RequireFromString("79.90")),
		Stock:      4,
		Featured:   true,
		Specifications: []model.ProductSpecification{
			{Name: "Color", Value: "Red"},
		},
	}))

	var buf bytes.Buffer
	_, err := svc.ExportStore(ctx, env.principal(t, other), store.ID, &buf)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = svc.ExportStore(ctx, env.principal(t, owner), 9999, &buf)
	assert.ErrorIs(t, err, ErrStoreNotFound)

	exported, err := svc.ExportStore(ctx, env.principal(t, owner), store.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, store.ID, exported.ID)

	workbook, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	rows, err := workbook.GetRows(sheetProducts)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Runner", rows[1][0])
	assert.Equal(t, "Shoes", rows[1][1])
	assert.Equal(t, "99.90", rows[1][3])
	require.NoError(t, workbook.Close())

	// Re-import into a fresh store by rewriting the domain.
	workbook, err = excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.NoError(t, workbook.SetCellValue(sheetStore, "A2", "store1-copy"))
	var copyBuf bytes.Buffer
	require.NoError(t, workbook.Write(&copyBuf))
	require.NoError(t, workbook.Close())

	result, err := svc.ImportWorkbook(ctx, &copyBuf, &owner.ID)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "store1-copy", result.Domain)
	assert.Equal(t, 2, result.Categories)
	assert.Equal(t, 1, result.Products)
	assert.Zero(t, result.Skipped)

	scope := model.ScopedTo(result.StoreID)
	imported, err := env.products.FindWithFilter(ctx, repository.ProductFilter{Scope: &scope})
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.True(t, imported[0].Price.Equal(decimal.RequireFromString("99.90")))
	assert.True(t, imported[0].SalePrice.Valid)
	assert.Equal(t, 4, imported[0].Stock)
	assert.True(t, imported[0].Featured)
	require.Len(t, imported[0].Specifications, 1)
	assert.Equal(t, "Red", imported[0].Specifications[0].Value)
	require.NotNil(t, imported[0].Category)
	assert.Equal(t, "Shoes", imported[0].Category.Name)
}

func TestCatalogImport_ExistingStoreAndBadRows(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	svc := NewCatalogExportService(env.stores, env.categories, env.products, env.guard)
	ctx := context.Background()
	existing := env.store(t, nil, "demo")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheetStore))
	_, err := f.NewSheet(sheetCategories)
	require.NoError(t, err)
	_, err = f.NewSheet(sheetProducts)
	require.NoError(t, err)

	require.NoError(t, f.SetSheetRow(sheetStore, "A1", &storeHeader))
	require.NoError(t, f.SetSheetRow(sheetStore, "A2", &[]interface{}{"Demo", "Demo Store"}))
	require.NoError(t, f.SetSheetRow(sheetCategories, "A1", &categoryHeader))
	require.NoError(t, f.SetSheetRow(sheetCategories, "A2", &[]interface{}{"Tops"}))
	require.NoError(t, f.SetSheetRow(sheetCategories, "A3", &[]interface{}{"Tops"}))
	require.NoError(t, f.SetSheetRow(sheetCategories, "A4", &[]interface{}{strings.Repeat("x", 101)}))
	require.NoError(t, f.SetSheetRow(sheetProducts, "A1", &productHeader))
	require.NoError(t, f.SetSheetRow(sheetProducts, "A2", &[]interface{}{"Tee", "Tops", "", "15.00"}))
	require.NoError(t, f.SetSheetRow(sheetProducts, "A3", &[]interface{}{"Orphan", "Missing", "", "15.00"}))
	require.NoError(t, f.SetSheetRow(sheetProducts, "A4", &[]interface{}{"Free", "Tops", "", "-1"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	result, err := svc.ImportWorkbook(ctx, &buf, nil)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, existing.ID, result.StoreID)
	assert.Equal(t, 1, result.Categories)
	assert.Equal(t, 1, result.Products)
	assert.Equal(t, 3, result.Skipped)

	_, err = svc.ImportWorkbook(ctx, bytes.NewReader([]byte("not a workbook")), nil)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
