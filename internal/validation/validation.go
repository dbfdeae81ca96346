package validation

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/openrelief/aidbridge/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Report fields by their json names so error payloads match the wire
	// schema, not Go field names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := Validate.RegisterValidation("claim_status", validateClaimStatus); err != nil {
		panic(fmt.Sprintf("failed to register claim_status validator: %v", err))
	}
}

// validateClaimStatus validates that a string is a valid ClaimStatus enum value
func validateClaimStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.ClaimStatus(value) {
	case models.ClaimStatusPending, models.ClaimStatusApproved, models.ClaimStatusReview, models.ClaimStatusRejected:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
