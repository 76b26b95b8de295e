package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/gamexhub/gamex-panel/internal/domain"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned by Struct when one or more fields fail their rules.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	rules := map[string]validator.Func{
		"hasdigit":  containsRune(unicode.IsDigit),
		"hasletter": containsRune(isASCIILetter),
		"hasupper":  containsRune(func(r rune) bool { return r >= 'A' && r <= 'Z' }),
		"platforms": memberSet(domain.Platforms),
		"genres":    memberSet(domain.Genres),
		"isodate":   isoDate,
		"notblank":  notBlank,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %s: %v", tag, err))
		}
	}
	return &Validator{v: v}
}

// Struct validates s and returns Errors describing every failing field, or nil.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " must not be empty"
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "hasdigit":
		return field + " must contain at least one digit"
	case "hasletter":
		return field + " must contain at least one letter"
	case "hasupper":
		return field + " must contain at least one uppercase letter"
	case "platforms":
		return fmt.Sprintf("platform '%s' is not valid", firstOutside(fe.Value(), domain.Platforms))
	case "genres":
		return fmt.Sprintf("genre '%s' is not valid", firstOutside(fe.Value(), domain.Genres))
	case "isodate":
		return field + " is not a valid date"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return field + " is invalid"
}

func containsRune(pred func(rune) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), pred) >= 0
	}
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func memberSet(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return firstOutside(fl.Field().Interface(), allowed) == "" && strings.TrimSpace(fl.Field().String()) != ""
	}
}

// firstOutside returns the first trimmed member of a comma-separated value that
// is not in allowed, or "" when every member is allowed.
func firstOutside(value any, allowed []string) string {
	raw, _ := value.(string)
	for _, item := range domain.SplitSet(raw) {
		if !slices.Contains(allowed, item) {
			if item == "" {
				return raw
			}
			return item
		}
	}
	return ""
}

func isoDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.DateOnly, fl.Field().String())
	return err == nil
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
