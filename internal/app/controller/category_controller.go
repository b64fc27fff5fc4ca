package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/service"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/internal/middleware"
)

type CategoryController struct {
	categoryService service.CategoryService
	directory       service.TenantDirectory
}

func NewCategoryController(categoryService service.CategoryService, directory service.TenantDirectory) *CategoryController {
	return &CategoryController{
		categoryService: categoryService,
		directory:       directory,
	}
}

type CategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
	Store       *uint   `json:"store"`
}

// ListCategories handles GET /categories; ?store=<id> narrows to one store.
func (ctrl *CategoryController) ListCategories(c *gin.Context) {
	var storeID *uint
	if raw := c.Query("store"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid store")
			return
		}
		v := uint(id)
		storeID = &v
	}

	categories, err := ctrl.categoryService.ListCategories(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, "Failed to list categories", err, nil)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

func (ctrl *CategoryController) GetCategoryByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	category, err := ctrl.categoryService.GetCategoryByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to fetch category", err, map[string]interface{}{"category_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	input := service.CreateCategoryInput{StoreID: req.Store}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Description != nil {
		input.Description = *req.Description
	}

	hostStore, err := tenantStore(c, ctrl.directory)
	if err != nil {
		respondError(c, "Failed to create category", err, nil)
		return
	}

	category, err := ctrl.categoryService.CreateCategory(
		c.Request.Context(),
		middleware.GetPrincipal(c),
		hostStore,
		input,
	)
	if err != nil {
		respondError(c, "Failed to create category", err, nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory handles PUT (name required) and PATCH. The store a
// category belongs to never changes.
func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if c.Request.Method == http.MethodPut && req.Name == nil {
		apperrors.RespondWithValidationError(c, "invalid input", map[string]string{"name": "this field is required"})
		return
	}

	category, err := ctrl.categoryService.UpdateCategory(c.Request.Context(), middleware.GetPrincipal(c), id, model.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, "Failed to update category", err, map[string]interface{}{"category_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.categoryService.DeleteCategory(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, "Failed to delete category", err, map[string]interface{}{"category_id": id})
		return
	}

	c.Status(http.StatusNoContent)
}
