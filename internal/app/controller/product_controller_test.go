package controller

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/storeup/storeup-backend/internal/app/model"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductController_CreateMultipart(t *testing.T) {
	env := newControllerEnv(t)
	owner := env.user(t, "owner", model.RoleUser)
	store := env.store(t, owner, "store1")
	phones := env.category(t, "Phones", store)
	env.as(owner)

	buf, contentType := multipartBody(t, map[string]string{
		"name":           "Phone X",
		"description":    "Flagship",
		"price":          "999.90",
		"sale_price":     "899.00",
		"category":       fmt.Sprint(phones.ID),
		"stock":          "5",
		"featured":       "true",
		"specifications": `[{"name": "Color", "value": "Black"}, {"name": "Storage", "value": "256GB"}]`,
	},
		formFile{"image", "front.png", "image/png", pngBytes},
		formFile{"images", "side.png", "image/png", pngBytes},
	)

	w, body := env.do(t, http.MethodPost, hostOf("store1"), "/api/v1/products", buf, contentType)

	require.Equal(t, http.StatusCreated, w.Code, body)
	product := body["product"].(map[string]interface{})
	assert.Equal(t, "Phone X", product["name"])
	assert.Equal(t, "999.9", product["price"])
	assert.Equal(t, "899", product["sale_price"])
	assert.Equal(t, float64(store.ID), product["store"])
	assert.Equal(t, "Phones", product["category_name"])
	assert.Equal(t, true, product["featured"])
	assert.True(t, strings.HasPrefix(product["image_url"].(string), testMediaBase+"/media/products/"))

	specs := product["specifications"].([]interface{})
	require.Len(t, specs, 2)
	assert.Equal(t, "Color", specs[0].(map[string]interface{})["name"])

	images := product["images"].([]interface{})
	require.Len(t, images, 1)
	assert.NotEmpty(t, images[0].(map[string]interface{})["image_url"])
}

func TestProductController_CreateRejections(t *testing.T) {
	env := newControllerEnv(t)
	owner := env.user(t, "owner", model.RoleUser)
	store := env.store(t, owner, "store1")
	phones := env.category(t, "Phones", store)
	env.as(owner)

	tests := []struct {
		name      string
		payload   map[string]interface{}
		wantCode  string
		wantField string
	}{
		{
			name:      "Missing price",
			payload:   map[string]interface{}{"name": "Phone", "category": phones.ID},
			wantCode:  apperrors.ValidationInvalidInput,
			wantField: "price",
		},
		{
			name:      "Negative price",
			payload:   map[string]interface{}{"name": "Phone", "price": "-1", "category": phones.ID},
			wantCode:  apperrors.ValidationInvalidInput,
			wantField: "price",
		},
		{
			name:      "Rating above five",
			payload:   map[string]interface{}{"name": "Phone", "price": 10, "category": phones.ID, "rating": 5.5},
			wantCode:  apperrors.ValidationInvalidInput,
			wantField: "rating",
		},
		{
			name:      "Unknown category",
			payload:   map[string]interface{}{"name": "Phone", "price": 10, "category": 9999},
			wantCode:  apperrors.ValidationInvalidInput,
			wantField: "category",
		},
		{
			name: "Specification without a name",
			payload: map[string]interface{}{
				"name": "Phone", "price": 10, "category": phones.ID,
				"specifications": []map[string]string{{"name": "", "value": "x"}},
			},
			wantCode:  apperrors.ValidationInvalidInput,
			wantField: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.doJSON(t, http.MethodPost, hostOf("store1"), "/api/v1/products", tt.payload)

			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.Equal(t, tt.wantCode, errorCode(body))
			assert.Contains(t, fieldErrors(body), tt.wantField)
		})
	}

	t.Run("Bad multipart number", func(t *testing.T) {
		buf, contentType := multipartBody(t, map[string]string{
			"name": "Phone", "price": "cheap", "category": fmt.Sprint(phones.ID),
		})
		w, body := env.do(t, http.MethodPost, hostOf("store1"), "/api/v1/products", buf, contentType)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, fieldErrors(body), "price")
	})

	t.Run("Non-image upload", func(t *testing.T) {
		buf, contentType := multipartBody(t, map[string]string{
			"name": "Phone", "price": "10", "category": fmt.Sprint(phones.ID),
		}, formFile{"image", "notes.txt", "text/plain", []byte("hi")})
		w, body := env.do(t, http.MethodPost, hostOf("store1"), "/api/v1/products", buf, contentType)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.UploadInvalidFileType, errorCode(body))
	})

	t.Run("Another tenant's host", func(t *testing.T) {
		env.store(t, env.user(t, "rival", model.RoleUser), "rival")
		w, body := env.doJSON(t, http.MethodPost, hostOf("rival"), "/api/v1/products", map[string]interface{}{
			"name": "Phone", "price": 10, "category": phones.ID,
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperrors.AuthzCrossTenantWrite, errorCode(body))
	})

	var count int64
	env.db.Model(&model.Product{}).Count(&count)
	assert.Zero(t, count)
}

func TestProductController_Update(t *testing.T) {
	env := newControllerEnv(t)
	owner := env.user(t, "owner", model.RoleUser)
	store := env.store(t, owner, "store1")
	phones := env.category(t, "Phones", store)
	env.as(owner)

	w, body := env.doJSON(t, http.MethodPost, "", "/api/v1/products", map[string]interface{}{
		"name":           "Phone",
		"price":          "100",
		"sale_price":     "80",
		"category":       phones.ID,
		"specifications": []map[string]string{{"name": "Color", "value": "Red"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, body)
	id := body["product"].(map[string]interface{})["id"]
	path := fmt.Sprintf("/api/v1/products/%v", id)

	t.Run("PATCH keeps children and sale price", func(t *testing.T) {
		w, body := env.doJSON(t, http.MethodPatch, "", path, map[string]interface{}{"stock": 7})

		require.Equal(t, http.StatusOK, w.Code, body)
		product := body["product"].(map[string]interface{})
		assert.Equal(t, float64(7), product["stock"])
		assert.Equal(t, "80", product["sale_price"])
		assert.Len(t, product["specifications"], 1)
	})

	t.Run("PUT requires the full resource", func(t *testing.T) {
		w, body := env.doJSON(t, http.MethodPut, "", path, map[string]interface{}{"name": "Phone 2"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, fieldErrors(body), "price")
		assert.Contains(t, fieldErrors(body), "category")
	})

	t.Run("PUT clears an omitted sale price and replaces specifications", func(t *testing.T) {
		w, body := env.doJSON(t, http.MethodPut, "", path, map[string]interface{}{
			"name":     "Phone 2",
			"price":    "120",
			"category": phones.ID,
			"specifications": []map[string]string{
				{"name": "Color", "value": "Blue"},
				{"name": "Weight", "value": "180g"},
			},
		})

		require.Equal(t, http.StatusOK, w.Code, body)
		product := body["product"].(map[string]interface{})
		assert.Equal(t, "Phone 2", product["name"])
		assert.Nil(t, product["sale_price"])
		assert.Len(t, product["specifications"], 2)
	})

	t.Run("Unknown product", func(t *testing.T) {
		w, body := env.doJSON(t, http.MethodPatch, "", "/api/v1/products/9999", map[string]interface{}{"stock": 1})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperrors.ProductNotFound, errorCode(body))
	})

	t.Run("Delete", func(t *testing.T) {
		w, _ := env.do(t, http.MethodDelete, "", path, nil, "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w, _ = env.do(t, http.MethodGet, "", path, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProductController_Listings(t *testing.T) {
	env := newControllerEnv(t)
	owner := env.user(t, "owner", model.RoleUser)
	store1 := env.store(t, owner, "store1")
	store2 := env.store(t, owner, "store2")
	phones := env.category(t, "Phones", store1)
	shirts := env.category(t, "Shirts", store2)

	env.product(t, "Phone", phones, true)
	env.product(t, "Shirt", shirts, false)
	env.product(t, "Case", phones, false)
	env.product(t, "Jersey", shirts, true)

	tests := []struct {
		path  string
		names []string
	}{
		{"/api/v1/products", []string{"Jersey", "Case", "Shirt", "Phone"}},
		{"/api/v1/products?featured=true", []string{"Jersey", "Phone"}},
		{"/api/v1/products?featured=yes", []string{"Jersey", "Case", "Shirt", "Phone"}},
		{fmt.Sprintf("/api/v1/products?store=%d", store2.ID), []string{"Jersey", "Shirt"}},
		{fmt.Sprintf("/api/v1/products?category=%d", phones.ID), []string{"Case", "Phone"}},
		{fmt.Sprintf("/api/v1/products?featured=true&category=%d", phones.ID), []string{"Phone"}},
		{"/api/v1/products?category=abc", []string{"Jersey", "Case", "Shirt", "Phone"}},
		{"/api/v1/products/featured", []string{"Jersey", "Phone"}},
		{"/api/v1/products/sale", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w, body := env.do(t, http.MethodGet, "", tt.path, nil, "")
			require.Equal(t, http.StatusOK, w.Code)

			names := []string{}
			for _, p := range body["products"].([]interface{}) {
				names = append(names, p.(map[string]interface{})["name"].(string))
			}
			assert.Equal(t, tt.names, names)
			assert.Equal(t, float64(len(tt.names)), body["count"])
		})
	}
}
