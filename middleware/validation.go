package middleware

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mediaforge/mediaforge/common"
)

var validate = validator.New()

// Bind decodes the request body into dest and validates it. On failure
// it records the error for the error handler and returns false; handlers
// just bail out.
func Bind[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.Error(common.Errf(http.StatusBadRequest, "invalid json: %v", err.Error()))
		return false
	}

	if err := validate.Struct(dest); err != nil {
		c.Error(common.APIError{
			Status:  http.StatusBadRequest,
			Message: "validation failed",
			Fields:  FormatValidationErrors(err),
		})
		return false
	}

	return true
}

// FormatValidationErrors turns validator's tag soup into per-field
// messages a client can show as-is. Tags a media request actually uses
// get a readable message; anything else falls back to naming the tag.
func FormatValidationErrors(err error) map[string]any {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]any{"request": err.Error()}
	}
	fields := map[string]any{}
	for _, e := range verrs {
		fields[e.Field()] = fieldMessage(e)
	}
	return fields
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return "needs at least " + e.Param() + " item(s)"
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.Slice {
			return "allows at most " + e.Param() + " item(s)"
		}
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	default:
		return "failed " + e.Tag() + " validation"
	}
}
