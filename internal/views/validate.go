package views

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/HerbHall/fleetdeck/pkg/models"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance returns the shared validator, reporting fields by their
// JSON names so problems read the same as the API payload.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		validateInst = v
	})
	return validateInst
}

// ValidateView checks a view before it may enter the catalog: non-blank id,
// non-blank section ids, and section ids unique within the view.
func ValidateView(v models.View) error {
	verr := &ValidationError{ViewID: v.ID}

	if err := validatorInstance().Struct(v); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validate view %q: %w", v.ID, err)
		}
		for _, fe := range fieldErrs {
			verr.Problems = append(verr.Problems, describe(fe))
		}
	}
	if v.ID != "" && strings.TrimSpace(v.ID) == "" {
		verr.Problems = append(verr.Problems, "id must not be blank")
	}

	if dups := duplicateSectionIDs(v.Sections); len(dups) > 0 {
		verr.Duplicates = dups
		verr.Problems = append(verr.Problems, "duplicate section ids: "+strings.Join(dups, ", "))
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

func describe(fe validator.FieldError) string {
	// Namespace is "View.sections[1].id"; drop the root type name.
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	if fe.Tag() == "required" {
		return field + " is required"
	}
	return fmt.Sprintf("%s failed %q", field, fe.Tag())
}

func duplicateSectionIDs(sections []models.ViewSection) []string {
	seen := make(map[string]int, len(sections))
	for i := range sections {
		seen[sections[i].ID]++
	}
	var dups []string
	for id, n := range seen {
		if n > 1 && id != "" {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}
