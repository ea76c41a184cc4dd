package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers alias tags for the user payload fields.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register applies the tag name func and aliases to v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterAlias("nome", "required,min=3")
	v.RegisterAlias("senha", "required,min=6")
}

// ToDetails converts validation/binding errors into a map[field]message suitable for the error field.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		if ute != nil && ute.Field != "" {
			return map[string]string{ute.Field: "must be a " + ute.Type.String()}
		}
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	isString := fe.Kind() == reflect.String

	// aliases report their own name as Tag; ActualTag is the failing rule
	switch fe.ActualTag() {
	case "required":
		return "is required"
	case "min":
		if isString {
			return "must be at least " + param + " characters long"
		}
		return "must be at least " + param
	case "max":
		if isString {
			return "must be at most " + param + " characters long"
		}
		return "must be at most " + param
	case "len":
		return "must be exactly " + param + " characters long"
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be greater than or equal to " + param
	case "lt":
		return "must be less than " + param
	case "lte":
		return "must be less than or equal to " + param
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "numeric", "number":
		return "must be numeric"
	case "url":
		return "must be a valid URL"
	default:
		if param != "" {
			return "failed on " + fe.Tag() + "=" + param
		}
		return "failed on " + fe.Tag()
	}
}
