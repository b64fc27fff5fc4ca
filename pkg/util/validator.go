package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/storeup/storeup-backend/internal/app/model"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator:
//
//	domainkey  a lowercase subdomain label, never "www"
//
// Field names in validation errors use the json tag.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin binding engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		err = v.RegisterValidation("domainkey", validateDomainKey)
	})
	return err
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func validateDomainKey(fl validator.FieldLevel) bool {
	return model.ValidDomainKey(model.NormalizeDomainKey(fl.Field().String()))
}

// ValidationFields maps binding errors to per-field messages. ok=false
// when err is not a validation failure (e.g. malformed JSON).
func ValidationFields(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = validationMessage(e)
	}
	return fields, true
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", e.Param())
	case "min":
		return fmt.Sprintf("ensure this field has at least %s characters", e.Param())
	case "gte":
		return fmt.Sprintf("ensure this value is greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("ensure this value is less than or equal to %s", e.Param())
	case "domainkey":
		return "must be a lowercase subdomain label and not www"
	default:
		return "invalid value"
	}
}
