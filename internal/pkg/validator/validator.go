package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Share the tags gin binding already uses on request DTOs.
	validate.SetTagName("binding")
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	return Details(validate.Struct(v))
}

// Details flattens validation errors, including the ones returned by gin
// binding, into field -> failed tag. Non-validation errors yield nil.
func Details(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
