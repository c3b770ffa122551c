package validation

import (
	stderrors "errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/interviewscribe/errors"
)

// FieldError is one failed rule, reported under the "fields" detail.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	validate *validator.Validate
	once     sync.Once
)

var mimeTypePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9!#$&^_.+-]*/[a-z0-9][a-z0-9!#$&^_.+-]*(;.*)?$`)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("mimetype", func(fl validator.FieldLevel) bool {
			return mimeTypePattern.MatchString(strings.ToLower(fl.Field().String()))
		})
	})
	return validate
}

// Validate validates a struct using its `validate` tags. The returned error
// is an *errors.AppError. When every failure is a missing required field the
// code is MISSING_FIELD, otherwise INVALID_INPUT.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Validation("validation failed").WithCause(err)
	}

	fieldErrors := make([]FieldError, 0, len(verrs))
	messages := make([]string, 0, len(verrs))
	allRequired := true
	for _, e := range verrs {
		field := fieldPath(e)
		msg := formatValidationError(e)
		fieldErrors = append(fieldErrors, FieldError{Field: field, Message: msg})
		messages = append(messages, field+": "+msg)
		if e.Tag() != "required" {
			allRequired = false
		}
	}

	var appErr *errors.AppError
	if allRequired {
		appErr = errors.MissingField(fieldErrors[0].Field)
		appErr.Message = "Missing required field: " + strings.Join(messages, "; ")
	} else {
		appErr = errors.Validation(strings.Join(messages, "; "))
	}
	return appErr.WithDetail("fields", fieldErrors)
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be " + e.Param() + " or more"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	case "mimetype":
		return "must be a MIME type like audio/mpeg"
	default:
		return "is invalid"
	}
}
