package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/internal/middleware"
	"github.com/storeup/storeup-backend/internal/storage"
)

// Presigner issues direct-to-bucket upload URLs. Only S3 storage does.
type Presigner interface {
	PresignUpload(ctx context.Context, folder, filename, contentType string) (*storage.PresignedUpload, error)
}

var uploadFolders = map[string]bool{
	"products": true,
	"stores":   true,
}

type UploadController struct {
	presigner Presigner
}

// NewUploadController accepts a nil presigner when the storage driver
// cannot presign; the endpoint then answers UPLOAD_NOT_SUPPORTED.
func NewUploadController(presigner Presigner) *UploadController {
	return &UploadController{presigner: presigner}
}

type PresignRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
	Folder      string `json:"folder"` // defaults to "products"
}

// Presign handles POST /uploads/presign.
func (ctrl *UploadController) Presign(c *gin.Context) {
	if ctrl.presigner == nil {
		respondError(c, "Presign requested without S3 storage",
			apperrors.Validation(apperrors.UploadNotSupported, "presigned uploads require the s3 storage driver", nil), nil)
		return
	}

	var req PresignRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Folder == "" {
		req.Folder = "products"
	}
	if !uploadFolders[req.Folder] {
		apperrors.RespondWithValidationError(c, "invalid input", map[string]string{"folder": "must be products or stores"})
		return
	}
	if err := storage.ValidateContentType(req.ContentType); err != nil {
		respondError(c, "Rejected presign content type", apperrors.Validation(apperrors.UploadInvalidFileType,
			"Only image files are allowed (JPEG, PNG, GIF, WEBP)", map[string]string{"content_type": err.Error()}), nil)
		return
	}

	upload, err := ctrl.presigner.PresignUpload(c.Request.Context(), req.Folder, req.Filename, req.ContentType)
	if err != nil {
		respondError(c, "Failed to presign upload", apperrors.Internal("failed to generate presigned URL", err), map[string]interface{}{
			"folder": req.Folder,
		})
		return
	}

	middleware.GetLoggerFromContext(c).Info("Presigned upload issued", map[string]interface{}{
		"key": upload.Key,
	})
	c.JSON(http.StatusOK, upload)
}
