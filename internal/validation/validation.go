package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"lms/internal/model"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with the application's custom tags registered:
//
//	subject    one of the catalogue subjects
//	imageurl   an absolute http(s) URL
//	experience one of the experience levels
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails on empty tags or nil funcs.
	_ = v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return model.IsValidSubject(fl.Field().String())
	})
	_ = v.RegisterValidation("imageurl", func(fl validator.FieldLevel) bool {
		return IsImageURL(fl.Field().String())
	})
	_ = v.RegisterValidation("experience", func(fl validator.FieldLevel) bool {
		return model.IsValidExperience(fl.Field().String())
	})
	return v
}

var imageURLPattern = regexp.MustCompile(`^https?://.+\..+`)

// IsImageURL reports whether raw looks like an absolute http(s) URL with a
// dotted host or path.
func IsImageURL(raw string) bool {
	return imageURLPattern.MatchString(raw)
}

// Messages flattens validator errors into field -> message. Errors of any
// other type are reported under "body".
func Messages(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Please provide a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "subject":
		return "Invalid subject"
	case "imageurl":
		return fmt.Sprintf("%v is not a valid image URL", fe.Value())
	case "experience":
		return "Invalid experience level"
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
}
