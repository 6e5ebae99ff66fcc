package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance with the compositor tag
// vocabulary registered. Document models reference these tags directly.
var Validate *validator.Validate

// enumTags binds each custom tag to its closed value set. Keeping the
// sets here, next to the registration, makes adding a kind a one-line
// change.
var enumTags = map[string][]string{
	"node_kind":      {"source", "colorcorrect", "blur", "merge", "viewer"},
	"data_type":      {"image", "mask", "scalar"},
	"port_direction": {"input", "output"},
	"param_kind":     {"number", "bool", "text"},
}

var uuid4Pattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func init() {
	Validate = validator.New()

	for tag, values := range enumTags {
		allowed := values
		Validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			got := fl.Field().String()
			for _, v := range allowed {
				if got == v {
					return true
				}
			}
			return false
		})
	}
	Validate.RegisterValidation("uuid4", func(fl validator.FieldLevel) bool {
		return uuid4Pattern.MatchString(fl.Field().String())
	})

	// Report errors against json field names so API consumers can match
	// them to their payloads.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		default:
			return name
		}
	})
}

// ValidateWithPlayground runs tag validation on s, converting failures
// into the package's ValidationErrors form.
func ValidateWithPlayground(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}

	var out ValidationErrors
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			out = append(out, ValidationError{
				Field:   fe.Field(),
				Value:   fe.Value(),
				Message: messageFor(fe),
			})
		}
	}
	return out
}

// messageFor renders one field error for humans.
func messageFor(fe validator.FieldError) string {
	switch tag := fe.Tag(); tag {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("minimum value/length is %s", fe.Param())
	case "max":
		return fmt.Sprintf("maximum value/length is %s", fe.Param())
	case "uuid4":
		return "must be a valid UUID"
	default:
		if values, ok := enumTags[tag]; ok {
			return fmt.Sprintf("must be one of: %s", strings.Join(values, ", "))
		}
		return fmt.Sprintf("validation failed: %s", tag)
	}
}
