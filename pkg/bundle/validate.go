package bundle

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// bundleValidator wraps go-playground/validator and reports fields by their JSON names.
type bundleValidator struct {
	v *validator.Validate
}

func newValidator() *bundleValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &bundleValidator{v: v}
}

func (bv *bundleValidator) validate(s any) error {
	err := bv.v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", e.Namespace(), e.Tag()))
	}
	sort.Strings(msgs)
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}
