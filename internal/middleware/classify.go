package middleware

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"github.com/openrelief/aidbridge/internal/httperr"
)

// classification is the normalizer's internal verdict for one error.
type classification struct {
	status  int
	message string
	details any
	// kind is the taxonomy label for the log line, not exposed to callers.
	kind string
}

// classify orders its tests deliberately: an explicit HTTP error wins over
// everything, driver errors win over validation, and anything left is
// unclassified. Some error values could satisfy more than one test, so
// first match wins.
func (n *Normalizer) classify(err error, stack []byte) classification {
	var he *httperr.Error
	if errors.As(err, &he) {
		return classification{status: he.Status, message: he.Message, details: he.Details, kind: "http_error"}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return classification{status: http.StatusNotFound, message: "Record not found", kind: "persistence_error"}
	}

	// Persistence errors cross module boundaries as driver values, so they
	// are detected by concrete driver shape rather than a bare code field.
	// A generic error that happens to carry a matching code string is not
	// misclassified.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPostgres(pqErr)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return classification{
			status:  http.StatusUnprocessableEntity,
			message: "Validation failed",
			details: map[string]any{"errors": flattenValidation(verrs)},
			kind:    "validation_error",
		}
	}

	return n.classifyGeneric(err, stack)
}

// Recognized SQLSTATE codes. Anything else from the driver reports as a
// generic database failure with the raw code in details.
const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateStringDataTooLong   = "22001"
)

func classifyPostgres(pqErr *pq.Error) classification {
	switch string(pqErr.Code) {
	case sqlStateUniqueViolation:
		return classification{
			status:  http.StatusConflict,
			message: "Unique constraint violation",
			details: map[string]any{"field": uniqueViolationField(pqErr)},
			kind:    "persistence_error",
		}
	case sqlStateForeignKeyViolation:
		return classification{
			status:  http.StatusBadRequest,
			message: "Foreign key constraint violation",
			kind:    "persistence_error",
		}
	case sqlStateStringDataTooLong:
		return classification{
			status:  http.StatusBadRequest,
			message: "Value too long for column",
			kind:    "persistence_error",
		}
	default:
		return classification{
			status:  http.StatusInternalServerError,
			message: "Database error occurred",
			details: map[string]any{"code": string(pqErr.Code)},
			kind:    "persistence_error",
		}
	}
}

// uniqueDetailPattern extracts column names from Postgres unique-violation
// detail text, e.g. `Key (email)=(a@b.c) already exists.`.
var uniqueDetailPattern = regexp.MustCompile(`Key \((.+?)\)=`)

func uniqueViolationField(pqErr *pq.Error) string {
	if m := uniqueDetailPattern.FindStringSubmatch(pqErr.Detail); m != nil {
		return m[1]
	}
	if pqErr.Constraint != "" {
		return pqErr.Constraint
	}
	return pqErr.Column
}

func (n *Normalizer) classifyGeneric(err error, stack []byte) classification {
	message := err.Error()
	if message == "" {
		message = "Internal server error"
	}
	details := map[string]any{"kind": fmt.Sprintf("%T", err)}
	if n.exposeStack {
		if stack == nil {
			stack = debug.Stack()
		}
		details["stack"] = string(stack)
	}
	return classification{
		status:  http.StatusInternalServerError,
		message: message,
		details: details,
		kind:    "unclassified_error",
	}
}

// ValidationFieldError mirrors one failed input field, nested to match the
// shape of the validated struct.
type ValidationFieldError struct {
	Property    string                  `json:"property"`
	Value       any                     `json:"value,omitempty"`
	Constraints map[string]string       `json:"constraints,omitempty"`
	Children    []*ValidationFieldError `json:"children,omitempty"`
}

// flattenValidation turns validator errors into a tree keyed by field
// namespace: `Recipient.First` becomes a top-level entry for recipient
// with a child entry for first.
func flattenValidation(verrs validator.ValidationErrors) []*ValidationFieldError {
	var roots []*ValidationFieldError
	index := make(map[string]*ValidationFieldError)

	for _, fe := range verrs {
		segments := strings.Split(fe.Namespace(), ".")
		if len(segments) > 1 {
			// Drop the root struct name.
			segments = segments[1:]
		}

		var parent *ValidationFieldError
		path := ""
		for i, seg := range segments {
			path += "." + seg
			node, ok := index[path]
			if !ok {
				node = &ValidationFieldError{Property: seg}
				index[path] = node
				if parent == nil {
					roots = append(roots, node)
				} else {
					parent.Children = append(parent.Children, node)
				}
			}
			if i == len(segments)-1 {
				node.Value = fe.Value()
				if node.Constraints == nil {
					node.Constraints = make(map[string]string)
				}
				node.Constraints[fe.Tag()] = constraintMessage(fe)
			}
			parent = node
		}
	}
	return roots
}

func constraintMessage(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}
