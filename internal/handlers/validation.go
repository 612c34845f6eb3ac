package handlers

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom validation tags on gin's binding
// validator and makes field errors report query parameter names. Safe to
// call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("idlist", validateIDList)
	})
}

// validateIDList accepts a comma-separated list of ids made of letters,
// digits, '-' and '_'. Blank entries are tolerated.
func validateIDList(fl validator.FieldLevel) bool {
	for _, part := range strings.Split(fl.Field().String(), ",") {
		for _, r := range strings.TrimSpace(part) {
			if !isIDRune(r) {
				return false
			}
		}
	}
	return true
}

func isIDRune(r rune) bool {
	return r == '-' || r == '_' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z')
}
