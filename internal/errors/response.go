package errors

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RespondWithError writes an error body with an explicit status.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// Respond renders err with the status derived from its kind.
// Internal causes are never echoed to the client.
func Respond(c *gin.Context, err error) {
	appErr := As(err)
	if appErr.Kind == KindInternal {
		_ = c.Error(err)
		RespondWithError(c, appErr.Kind.Status(), appErr.Code, "internal server error")
		return
	}

	if len(appErr.Extra) == 0 {
		c.JSON(appErr.Kind.Status(), ErrorResponse{
			Error:   appErr.Code,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		})
		return
	}

	body := gin.H{
		"error":   appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	for k, v := range appErr.Extra {
		body[k] = v
	}
	c.JSON(appErr.Kind.Status(), body)
}

// RespondWithValidationError writes a 400 with per-field messages.
func RespondWithValidationError(c *gin.Context, message string, fields map[string]string) {
	if message == "" {
		message = "invalid input"
	}
	Respond(c, Validation(ValidationInvalidInput, message, fields))
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}
	Respond(c, Unauthenticated(AuthUnauthorized, message))
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	Respond(c, Validation(errorCode, message, nil))
}
