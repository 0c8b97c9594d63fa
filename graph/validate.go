package graph

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/teranos/kgviz/errors"
)

var validate = validator.New()

// Validate checks the structural shape of a graph document: ids present,
// graph type known, layer numbers non-negative. Score ranges and dangling
// edges are repaired by Sanitize rather than rejected here.
func Validate(g *KnowledgeGraph) error {
	if g == nil {
		return errors.NewInvalidRequestError("graph document is empty")
	}
	if err := validate.Struct(g); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateStruct validates any struct with validate tags. The config layer
// uses it for its sections.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errors.Wrap(errors.ErrInvalidRequest, err.Error())
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.Wrap(errors.ErrInvalidRequest, strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, e.Tag())
	}
}
