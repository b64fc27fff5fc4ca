package controller

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/service"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/internal/middleware"
	"github.com/storeup/storeup-backend/internal/storage"
	"github.com/storeup/storeup-backend/pkg/util"
	"gorm.io/datatypes"
)

const (
	storeLogoFolder = "stores"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type StoreController struct {
	storeService  service.StoreService
	exportService service.CatalogExportService
	images        storage.ImageStorage
}

func NewStoreController(storeService service.StoreService, exportService service.CatalogExportService, images storage.ImageStorage) *StoreController {
	return &StoreController{
		storeService:  storeService,
		exportService: exportService,
		images:        images,
	}
}

// StoreRequest is shared by create, PUT and PATCH. Logo may carry a path
// returned by the presign endpoint; a multipart "logo" file wins over it.
type StoreRequest struct {
	Name        *string            `json:"name" binding:"omitempty,max=100"`
	Domain      *string            `json:"domain" binding:"omitempty,max=100,domainkey"`
	Description *string            `json:"description"`
	Logo        *string            `json:"logo"`
	Theme       *datatypes.JSONMap `json:"theme"`
	ContactInfo *datatypes.JSONMap `json:"contact_info"`
	SocialMedia *datatypes.JSONMap `json:"social_media"`
}

func (r StoreRequest) patch() model.StorePatch {
	return model.StorePatch{
		Name:        r.Name,
		Domain:      r.Domain,
		Description: r.Description,
		Logo:        r.Logo,
		Theme:       r.Theme,
		ContactInfo: r.ContactInfo,
		SocialMedia: r.SocialMedia,
	}
}

func (r StoreRequest) missing(names ...string) map[string]string {
	fields := map[string]string{}
	for _, name := range names {
		switch {
		case name == "name" && r.Name == nil, name == "domain" && r.Domain == nil:
			fields[name] = "this field is required"
		}
	}
	return fields
}

func jsonMapField(fp *formParser, key string) *datatypes.JSONMap {
	var m map[string]interface{}
	if !fp.JSON(key, &m) {
		return nil
	}
	out := datatypes.JSONMap(m)
	return &out
}

// readStoreRequest binds a JSON or multipart body. For multipart bodies a
// "logo" file is stored and its path placed in Logo; the returned path is
// non-empty when the caller must discard it on failure.
func (ctrl *StoreController) readStoreRequest(c *gin.Context) (StoreRequest, string, bool) {
	var req StoreRequest
	if !isMultipart(c) {
		return req, "", bindJSON(c, &req)
	}

	fp := newFormParser(c)
	req.Name = fp.String("name")
	req.Domain = fp.String("domain")
	req.Description = fp.String("description")
	req.Logo = fp.String("logo")
	req.Theme = jsonMapField(fp, "theme")
	req.ContactInfo = jsonMapField(fp, "contact_info")
	req.SocialMedia = jsonMapField(fp, "social_media")
	if err := fp.Err(); err != nil {
		respondError(c, "Invalid store form", err, nil)
		return req, "", false
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		if fields, ok := util.ValidationFields(err); ok {
			apperrors.RespondWithValidationError(c, "invalid input", fields)
			return req, "", false
		}
		respondError(c, "Invalid store form", err, nil)
		return req, "", false
	}

	header, err := c.FormFile("logo")
	if err != nil {
		return req, "", true
	}
	contentType := header.Header.Get("Content-Type")
	if err := storage.ValidateContentType(contentType); err != nil {
		respondError(c, "Rejected store logo", apperrors.Validation(apperrors.UploadInvalidFileType,
			"Only image files are allowed (JPEG, PNG, GIF, WEBP)", map[string]string{"logo": err.Error()}), nil)
		return req, "", false
	}
	f, err := header.Open()
	if err != nil {
		respondError(c, "Failed to read store logo", apperrors.Validation(apperrors.UploadFailed, "failed to read uploaded file", nil), nil)
		return req, "", false
	}
	defer f.Close()

	path, err := ctrl.images.Save(c.Request.Context(), storeLogoFolder, header.Filename, contentType, f)
	if err != nil {
		respondError(c, "Failed to store logo", apperrors.Internal("failed to store logo", err), nil)
		return req, "", false
	}
	req.Logo = &path
	return req, path, true
}

func (ctrl *StoreController) discard(c *gin.Context, path string) {
	if path == "" {
		return
	}
	if err := ctrl.images.Delete(c.Request.Context(), path); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Failed to discard uploaded logo", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}

// ListStores handles GET /stores. Staff see every store, owners their own.
func (ctrl *StoreController) ListStores(c *gin.Context) {
	stores, err := ctrl.storeService.ListStores(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, "Failed to list stores", err, nil)
		return
	}
	if stores == nil {
		stores = []model.Store{}
	}

	c.JSON(http.StatusOK, gin.H{
		"stores": stores,
		"count":  len(stores),
	})
}

func (ctrl *StoreController) GetStoreByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	store, err := ctrl.storeService.GetStoreByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to fetch store", err, map[string]interface{}{"store_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"store": store})
}

func (ctrl *StoreController) CreateStore(c *gin.Context) {
	req, uploaded, ok := ctrl.readStoreRequest(c)
	if !ok {
		return
	}

	input := service.CreateStoreInput{}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Domain != nil {
		input.Domain = *req.Domain
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Logo != nil {
		input.Logo = *req.Logo
	}
	if req.Theme != nil {
		input.Theme = *req.Theme
	}
	if req.ContactInfo != nil {
		input.ContactInfo = *req.ContactInfo
	}
	if req.SocialMedia != nil {
		input.SocialMedia = *req.SocialMedia
	}

	store, err := ctrl.storeService.CreateStore(c.Request.Context(), middleware.GetPrincipal(c), input)
	if err != nil {
		ctrl.discard(c, uploaded)
		respondError(c, "Failed to create store", err, map[string]interface{}{"domain": input.Domain})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"store": store})
}

// UpdateStore handles PUT (name and domain required) and PATCH.
func (ctrl *StoreController) UpdateStore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	req, uploaded, ok := ctrl.readStoreRequest(c)
	if !ok {
		return
	}
	if c.Request.Method == http.MethodPut {
		if fields := req.missing("name", "domain"); len(fields) > 0 {
			ctrl.discard(c, uploaded)
			apperrors.RespondWithValidationError(c, "invalid input", fields)
			return
		}
	}

	store, err := ctrl.storeService.UpdateStore(c.Request.Context(), middleware.GetPrincipal(c), id, req.patch())
	if err != nil {
		ctrl.discard(c, uploaded)
		respondError(c, "Failed to update store", err, map[string]interface{}{"store_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"store": store})
}

func (ctrl *StoreController) DeleteStore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.storeService.DeleteStore(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, "Failed to delete store", err, map[string]interface{}{"store_id": id})
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportStore handles GET /stores/:id/export, sending the catalog as XLSX.
func (ctrl *StoreController) ExportStore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var buf bytes.Buffer
	store, err := ctrl.exportService.ExportStore(c.Request.Context(), middleware.GetPrincipal(c), id, &buf)
	if err != nil {
		respondError(c, "Failed to export store", err, map[string]interface{}{"store_id": id})
		return
	}

	middleware.GetLoggerFromContext(c).Info("Store catalog exported", map[string]interface{}{
		"store_id": store.ID,
		"bytes":    buf.Len(),
	})
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-catalog.xlsx"`, store.Domain))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
