package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/app/service"
	"github.com/storeup/storeup-backend/internal/authz"
	"github.com/storeup/storeup-backend/internal/cache"
	"github.com/storeup/storeup-backend/internal/db"
	"github.com/storeup/storeup-backend/internal/middleware"
	"github.com/storeup/storeup-backend/internal/storage"
	"github.com/storeup/storeup-backend/internal/tenant"
	"github.com/storeup/storeup-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testBaseDomain = "storeup.test"
	testMediaBase  = "https://cdn.storeup.test"
)

// controllerEnv wires real services over an in-memory database. The
// caller field stands in for the auth middleware.
type controllerEnv struct {
	db         *gorm.DB
	router     *gin.Engine
	images     *storage.LocalStorage
	stores     repository.StoreRepository
	categories repository.CategoryRepository
	products   repository.ProductRepository

	userController     *UserController
	storeController    *StoreController
	categoryController *CategoryController
	productController  *ProductController
	agentController    *ShippingAgentController
	tenantController   *TenantController

	caller *model.User
}

func newControllerEnv(t *testing.T) *controllerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, util.RegisterValidators())

	conn, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(conn) })

	images, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(conn)
	storeRepo := repository.NewStoreRepository(conn)
	categoryRepo := repository.NewCategoryRepository(conn)
	productRepo := repository.NewProductRepository(conn)
	agentRepo := repository.NewShippingAgentRepository(conn)

	guard := authz.NewGuard(authz.Policy{})
	directory := service.NewTenantDirectory(storeRepo, cache.NewMemoryStoreCache(time.Minute))
	loader := service.NewPrincipalLoader(userRepo, storeRepo)
	authService := service.NewAuthService(userRepo, guard, nil, "controller-test-secret", 15*time.Minute, time.Hour)
	productService := service.NewProductService(productRepo, categoryRepo, storeRepo, guard, images, service.ProductOptions{
		MediaBase: testMediaBase,
	})

	env := &controllerEnv{
		db:         conn,
		images:     images,
		stores:     storeRepo,
		categories: categoryRepo,
		products:   productRepo,

		userController: NewUserController(authService),
		storeController: NewStoreController(
			service.NewStoreService(storeRepo, directory, guard, images, testMediaBase),
			service.NewCatalogExportService(storeRepo, categoryRepo, productRepo, guard),
			images,
		),
		categoryController: NewCategoryController(service.NewCategoryService(categoryRepo, storeRepo, guard, images), directory),
		productController:  NewProductController(productService, directory),
		agentController:    NewShippingAgentController(service.NewShippingAgentService(agentRepo, storeRepo, guard)),
		tenantController:   NewTenantController(directory, productService, testMediaBase),
	}

	env.router = gin.New()
	env.router.Use(middleware.TenantMiddleware(tenant.NewResolver(testBaseDomain, "")))
	env.router.Use(func(c *gin.Context) {
		if env.caller != nil {
			p, err := loader.Load(c.Request.Context(), env.caller.ID)
			require.NoError(t, err)
			c.Set(middleware.UserIDKey, env.caller.ID)
			c.Set(middleware.PrincipalKey, p)
		}
		c.Next()
	})
	env.routes()
	return env
}

func (e *controllerEnv) routes() {
	v1 := e.router.Group("/api/v1")

	v1.POST("/users", e.userController.Register)
	v1.POST("/users/login", e.userController.Login)
	v1.GET("/users/me", e.userController.Me)
	v1.GET("/users", e.userController.ListUsers)

	v1.GET("/stores", e.storeController.ListStores)
	v1.GET("/stores/:id", e.storeController.GetStoreByID)
	v1.GET("/stores/:id/export", e.storeController.ExportStore)
	v1.POST("/stores", e.storeController.CreateStore)
	v1.PUT("/stores/:id", e.storeController.UpdateStore)
	v1.PATCH("/stores/:id", e.storeController.UpdateStore)
	v1.DELETE("/stores/:id", e.storeController.DeleteStore)

	v1.GET("/categories", e.categoryController.ListCategories)
	v1.GET("/categories/:id", e.categoryController.GetCategoryByID)
	v1.POST("/categories", e.categoryController.CreateCategory)
	v1.PUT("/categories/:id", e.categoryController.UpdateCategory)
	v1.PATCH("/categories/:id", e.categoryController.UpdateCategory)
	v1.DELETE("/categories/:id", e.categoryController.DeleteCategory)

	v1.GET("/products", e.productController.ListProducts)
	v1.GET("/products/featured", e.productController.Featured)
	v1.GET("/products/new_arrivals", e.productController.NewArrivals)
	v1.GET("/products/sale", e.productController.OnSale)
	v1.GET("/products/:id", e.productController.GetProductByID)
	v1.POST("/products", e.productController.CreateProduct)
	v1.PUT("/products/:id", e.productController.UpdateProduct)
	v1.PATCH("/products/:id", e.productController.UpdateProduct)
	v1.DELETE("/products/:id", e.productController.DeleteProduct)

	v1.GET("/shipping-agents", e.agentController.ListShippingAgents)
	v1.GET("/shipping-agents/:id", e.agentController.GetShippingAgent)
	v1.POST("/shipping-agents", e.agentController.CreateShippingAgent)
	v1.PATCH("/shipping-agents/:id", e.agentController.UpdateShippingAgent)
	v1.PUT("/shipping-agents/:id", e.agentController.UpdateShippingAgent)
	v1.DELETE("/shipping-agents/:id", e.agentController.DeleteShippingAgent)

	v1.GET("/store-info", e.tenantController.StoreInfo)
	v1.GET("/subdomain-products", e.tenantController.SubdomainProducts)
	v1.GET("/subdomain-test", e.tenantController.SubdomainTest)
}

func (e *controllerEnv) as(u *model.User) {
	e.caller = u
}

func (e *controllerEnv) user(t *testing.T, username string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed-password",
		Role:         role,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *controllerEnv) store(t *testing.T, owner *model.User, domain string) *model.Store {
	t.Helper()
	s := &model.Store{Name: "Store " + domain, Domain: domain}
	if owner != nil {
		s.OwnerID = &owner.ID
	}
	require.NoError(t, e.stores.Create(context.Background(), s))
	return s
}

func (e *controllerEnv) category(t *testing.T, name string, store *model.Store) *model.Category {
	t.Helper()
	c := &model.Category{Name: name}
	if store != nil {
		c.StoreID = &store.ID
	}
	require.NoError(t, e.categories.Create(context.Background(), c))
	return c
}

func (e *controllerEnv) product(t *testing.T, name string, category *model.Category, featured bool) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:       name,
		Price:      decimal.NewFromInt(100),
		CategoryID: category.ID,
		StoreID:    category.StoreID,
		Featured:   featured,
	}
	require.NoError(t, e.products.CreateWithChildren(context.Background(), p))
	return p
}

// do sends a request to host (the base domain when empty) and decodes a
// JSON object response.
func (e *controllerEnv) do(t *testing.T, method, host, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if host == "" {
		host = testBaseDomain
	}
	req.Host = host
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != xlsxContentType {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func (e *controllerEnv) doJSON(t *testing.T, method, host, path string, payload interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return e.do(t, method, host, path, body, "application/json")
}

type formFile struct {
	field, filename, contentType string
	content                      []byte
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func errorCode(body map[string]interface{}) string {
	code, _ := body["error"].(string)
	return code
}

func fieldErrors(body map[string]interface{}) map[string]interface{} {
	fields, _ := body["fields"].(map[string]interface{})
	return fields
}

func hostOf(domain string) string {
	return domain + "." + testBaseDomain
}

// failingDirectory fails every lookup with err.
type failingDirectory struct {
	service.TenantDirectory
	err error
}

func (d failingDirectory) Resolve(context.Context, string) (*model.Store, error) {
	return nil, d.err
}
