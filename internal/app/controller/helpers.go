package controller

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/service"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/internal/middleware"
	"github.com/storeup/storeup-backend/pkg/util"
)

// parseID reads a numeric path parameter, answering 400 when malformed.
func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid path id", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
		"path":  c.Request.URL.Path,
		"error": err.Error(),
	})
	if fields, ok := util.ValidationFields(err); ok {
		apperrors.RespondWithValidationError(c, "invalid input", fields)
		return false
	}
	apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "malformed request body")
	return false
}

// respondError logs err at a level matching its kind and renders it.
func respondError(c *gin.Context, msg string, err error, fields map[string]interface{}) {
	log := middleware.GetLoggerFromContext(c)
	if fields == nil {
		fields = map[string]interface{}{}
	}
	switch kind := apperrors.KindOf(err); kind {
	case apperrors.KindInternal:
		log.Error(msg, err, fields)
	default:
		fields["kind"] = kind.String()
		fields["error"] = err.Error()
		log.Warn(msg, fields)
	}
	apperrors.Respond(c, err)
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// tenantStore resolves the store the request host points at. It returns
// nil when the host carries no tenant or names an unknown store; any other
// lookup failure is returned.
func tenantStore(c *gin.Context, directory service.TenantDirectory) (*model.Store, error) {
	key, ok := middleware.GetTenantKey(c)
	if !ok {
		return nil, nil
	}
	store, err := directory.Resolve(c.Request.Context(), key)
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			return nil, err
		}
		middleware.GetLoggerFromContext(c).Debug("Request host names no store", map[string]interface{}{
			"subdomain": key,
		})
		return nil, nil
	}
	return store, nil
}

// formParser reads typed values from a multipart form, collecting
// per-field errors instead of stopping at the first one.
type formParser struct {
	c      *gin.Context
	fields map[string]string
}

func newFormParser(c *gin.Context) *formParser {
	return &formParser{c: c, fields: map[string]string{}}
}

func (f *formParser) value(key string) (string, bool) {
	v, ok := f.c.GetPostForm(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (f *formParser) String(key string) *string {
	v, ok := f.c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &v
}

func (f *formParser) Uint(key string) *uint {
	v, ok := f.value(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		f.fields[key] = "a valid integer is required"
		return nil
	}
	out := uint(n)
	return &out
}

func (f *formParser) Int(key string) *int {
	v, ok := f.value(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f.fields[key] = "a valid integer is required"
		return nil
	}
	return &n
}

func (f *formParser) Bool(key string) *bool {
	v, ok := f.value(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		f.fields[key] = "must be a valid boolean"
		return nil
	}
	return &b
}

// JSON decodes a form field holding a JSON document into dst.
func (f *formParser) JSON(key string, dst interface{}) bool {
	v, ok := f.value(key)
	if !ok || v == "" {
		return false
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		f.fields[key] = "must be valid JSON"
		return false
	}
	return true
}

func (f *formParser) Err() error {
	if len(f.fields) == 0 {
		return nil
	}
	return apperrors.Validation(apperrors.ValidationInvalidInput, "invalid input", f.fields)
}

// openUploads opens the files of a multipart field. The returned closer
// releases every opened file.
func openUploads(headers []*multipart.FileHeader) ([]service.ImageUpload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	uploads := make([]service.ImageUpload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, apperrors.Validation(apperrors.UploadFailed, "failed to read uploaded file", nil)
		}
		files = append(files, f)
		uploads = append(uploads, service.ImageUpload{
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Body:        io.Reader(f),
		})
	}
	return uploads, closeAll, nil
}

// multipartFiles returns the files sent under key, or nil.
func multipartFiles(c *gin.Context, key string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[key]
}
