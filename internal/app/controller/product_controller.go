package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/service"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/internal/middleware"
	"github.com/storeup/storeup-backend/pkg/util"
)

type ProductController struct {
	productService service.ProductService
	directory      service.TenantDirectory
}

func NewProductController(productService service.ProductService, directory service.TenantDirectory) *ProductController {
	return &ProductController{
		productService: productService,
		directory:      directory,
	}
}

type SpecificationRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Value string `json:"value" binding:"max=255"`
}

// ProductRequest is shared by create, PUT and PATCH. Image and Images
// carry already-stored paths (see the presign endpoint); multipart bodies
// send files under "image" and "images" instead.
type ProductRequest struct {
	Name           *string                `json:"name" binding:"omitempty,max=200"`
	Description    *string                `json:"description"`
	Price          *decimal.Decimal       `json:"price"`
	SalePrice      *decimal.Decimal       `json:"sale_price"`
	Image          *string                `json:"image"`
	Category       *uint                  `json:"category"`
	Store          *uint                  `json:"store"`
	Stock          *int                   `json:"stock" binding:"omitempty,gte=0"`
	Featured       *bool                  `json:"featured"`
	NewArrival     *bool                  `json:"new_arrival"`
	Sale           *bool                  `json:"sale"`
	Rating         *decimal.Decimal       `json:"rating"`
	ReviewCount    *int                   `json:"review_count" binding:"omitempty,gte=0"`
	SKU            *string                `json:"sku" binding:"omitempty,max=50"`
	Images         []string               `json:"images"`
	Specifications []SpecificationRequest `json:"specifications" binding:"omitempty,dive"`

	clearSalePrice bool
}

func (r ProductRequest) specifications() []model.ProductSpecification {
	if len(r.Specifications) == 0 {
		return nil
	}
	specs := make([]model.ProductSpecification, 0, len(r.Specifications))
	for _, s := range r.Specifications {
		specs = append(specs, model.ProductSpecification{Name: s.Name, Value: s.Value})
	}
	return specs
}

func (r ProductRequest) imageRows() []model.ProductImage {
	if len(r.Images) == 0 {
		return nil
	}
	rows := make([]model.ProductImage, 0, len(r.Images))
	for _, path := range r.Images {
		rows = append(rows, model.ProductImage{Image: path})
	}
	return rows
}

func (r ProductRequest) missingRequired() map[string]string {
	fields := map[string]string{}
	if r.Name == nil {
		fields["name"] = "this field is required"
	}
	if r.Price == nil {
		fields["price"] = "this field is required"
	}
	if r.Category == nil {
		fields["category"] = "this field is required"
	}
	return fields
}

func (r ProductRequest) patch(full bool) model.ProductPatch {
	patch := model.ProductPatch{
		Name:           r.Name,
		Description:    r.Description,
		Price:          r.Price,
		Image:          r.Image,
		CategoryID:     r.Category,
		Stock:          r.Stock,
		Featured:       r.Featured,
		NewArrival:     r.NewArrival,
		Sale:           r.Sale,
		Rating:         r.Rating,
		ReviewCount:    r.ReviewCount,
		SKU:            r.SKU,
		Specifications: r.specifications(),
		Images:         r.imageRows(),
	}
	switch {
	case r.SalePrice != nil:
		patch.SalePrice = &decimal.NullDecimal{Decimal: *r.SalePrice, Valid: true}
	case full || r.clearSalePrice:
		patch.SalePrice = &decimal.NullDecimal{}
	}
	return patch
}

func (r ProductRequest) createInput() service.CreateProductInput {
	input := service.CreateProductInput{
		StoreID:        r.Store,
		Images:         r.Images,
		Specifications: r.specifications(),
	}
	if r.Name != nil {
		input.Name = *r.Name
	}
	if r.Description != nil {
		input.Description = *r.Description
	}
	if r.Price != nil {
		input.Price = *r.Price
	}
	if r.SalePrice != nil {
		input.SalePrice = decimal.NullDecimal{Decimal: *r.SalePrice, Valid: true}
	}
	if r.Image != nil {
		input.Image = *r.Image
	}
	if r.Category != nil {
		input.CategoryID = *r.Category
	}
	if r.Stock != nil {
		input.Stock = *r.Stock
	}
	if r.Featured != nil {
		input.Featured = *r.Featured
	}
	if r.NewArrival != nil {
		input.NewArrival = *r.NewArrival
	}
	if r.Sale != nil {
		input.Sale = *r.Sale
	}
	if r.Rating != nil {
		input.Rating = *r.Rating
	}
	if r.ReviewCount != nil {
		input.ReviewCount = *r.ReviewCount
	}
	if r.SKU != nil {
		input.SKU = *r.SKU
	}
	return input
}

func decimalField(fp *formParser, key string) *decimal.Decimal {
	v, ok := fp.value(key)
	if !ok || v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		fp.fields[key] = "a valid number is required"
		return nil
	}
	return &d
}

// readProductRequest binds a JSON or multipart body and opens any uploaded
// files. The returned closer must run once the service call is done.
func readProductRequest(c *gin.Context) (ProductRequest, service.ProductUploads, func(), bool) {
	var req ProductRequest
	noop := func() {}
	if !isMultipart(c) {
		return req, service.ProductUploads{}, noop, bindJSON(c, &req)
	}

	fp := newFormParser(c)
	req.Name = fp.String("name")
	req.Description = fp.String("description")
	req.Price = decimalField(fp, "price")
	req.SalePrice = decimalField(fp, "sale_price")
	if v, ok := fp.value("sale_price"); ok && v == "" {
		req.clearSalePrice = true
	}
	req.Category = fp.Uint("category")
	req.Store = fp.Uint("store")
	req.Stock = fp.Int("stock")
	req.Featured = fp.Bool("featured")
	req.NewArrival = fp.Bool("new_arrival")
	req.Sale = fp.Bool("sale")
	req.Rating = decimalField(fp, "rating")
	req.ReviewCount = fp.Int("review_count")
	req.SKU = fp.String("sku")
	fp.JSON("specifications", &req.Specifications)
	if err := fp.Err(); err != nil {
		respondError(c, "Invalid product form", err, nil)
		return req, service.ProductUploads{}, noop, false
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		if fields, ok := util.ValidationFields(err); ok {
			apperrors.RespondWithValidationError(c, "invalid input", fields)
			return req, service.ProductUploads{}, noop, false
		}
		respondError(c, "Invalid product form", err, nil)
		return req, service.ProductUploads{}, noop, false
	}

	var uploads service.ProductUploads
	primary, closePrimary, err := openUploads(multipartFiles(c, "image"))
	if err != nil {
		respondError(c, "Failed to read product image", err, nil)
		return req, uploads, noop, false
	}
	extra, closeExtra, err := openUploads(multipartFiles(c, "images"))
	if err != nil {
		closePrimary()
		respondError(c, "Failed to read product images", err, nil)
		return req, uploads, noop, false
	}
	if len(primary) > 0 {
		uploads.Image = &primary[0]
	}
	uploads.Images = extra
	return req, uploads, func() {
		closePrimary()
		closeExtra()
	}, true
}

func (ctrl *ProductController) respondList(c *gin.Context, query service.ProductQuery) {
	products, err := ctrl.productService.ListProducts(c.Request.Context(), query)
	if err != nil {
		respondError(c, "Failed to list products", err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// ListProducts handles GET /products with the category, store, featured,
// new_arrival and sale filters.
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	ctrl.respondList(c, service.ParseProductQuery(c.Request.URL.Query()))
}

func (ctrl *ProductController) Featured(c *gin.Context) {
	ctrl.respondList(c, service.FeaturedQuery())
}

func (ctrl *ProductController) NewArrivals(c *gin.Context) {
	ctrl.respondList(c, service.NewArrivalsQuery())
}

func (ctrl *ProductController) OnSale(c *gin.Context) {
	ctrl.respondList(c, service.SaleQuery())
}

func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProductByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to fetch product", err, map[string]interface{}{"product_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	req, uploads, closeFiles, ok := readProductRequest(c)
	if !ok {
		return
	}
	defer closeFiles()

	if fields := req.missingRequired(); len(fields) > 0 {
		apperrors.RespondWithValidationError(c, "invalid input", fields)
		return
	}

	hostStore, err := tenantStore(c, ctrl.directory)
	if err != nil {
		respondError(c, "Failed to create product", err, nil)
		return
	}

	product, err := ctrl.productService.CreateProduct(
		c.Request.Context(),
		middleware.GetPrincipal(c),
		hostStore,
		req.createInput(),
		uploads,
	)
	if err != nil {
		respondError(c, "Failed to create product", err, nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct handles PUT and PATCH. PUT requires name, price and
// category, and clears sale_price when it is omitted.
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	req, uploads, closeFiles, ok := readProductRequest(c)
	if !ok {
		return
	}
	defer closeFiles()

	full := c.Request.Method == http.MethodPut
	if full {
		if fields := req.missingRequired(); len(fields) > 0 {
			apperrors.RespondWithValidationError(c, "invalid input", fields)
			return
		}
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), middleware.GetPrincipal(c), id, req.patch(full), uploads)
	if err != nil {
		respondError(c, "Failed to update product", err, map[string]interface{}{"product_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, "Failed to delete product", err, map[string]interface{}{"product_id": id})
		return
	}

	c.Status(http.StatusNoContent)
}
