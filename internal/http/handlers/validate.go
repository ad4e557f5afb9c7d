package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field names as they appear in JSON.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// The returned error is safe to show to the client.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	return validationMessage(validate.Struct(dst))
}

func validationMessage(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.New("invalid request body")
	}

	first := verrs[0]
	field := first.Field()
	switch first.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "e164":
		return fmt.Errorf("%s must be an E.164 phone number", field)
	case "number":
		return fmt.Errorf("%s must contain only digits", field)
	case "max":
		return fmt.Errorf("%s must be at most %s characters long", field, first.Param())
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}
