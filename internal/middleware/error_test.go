package middleware

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/openrelief/aidbridge/internal/httperr"
	"github.com/openrelief/aidbridge/internal/request"
	"github.com/openrelief/aidbridge/internal/validation"
)

// serve runs one request through Wrap and decodes the error record.
func serve(t *testing.T, n *Normalizer, fn HandlerFunc) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/claims", nil)
	req = req.WithContext(request.WithID(req.Context(), "TESTREQUESTID"))
	rr := httptest.NewRecorder()
	n.Wrap(fn)(rr, req)

	var record ErrorResponse
	if rr.Code >= 400 {
		if err := json.Unmarshal(rr.Body.Bytes(), &record); err != nil {
			t.Fatalf("Failed to decode error record: %v (body %q)", err, rr.Body.String())
		}
	}
	return rr, record
}

func TestWrap_SuccessPassesThrough(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(zap.NewNop(), false)
	rr, _ := serve(t, n, func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
		return nil
	})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if rr.Body.String() != `{"ok":true}` {
		t.Errorf("Expected handler body untouched, got %q", rr.Body.String())
	}
}

func TestWrap_CanonicalRecordShape(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(zap.NewNop(), false)
	rr, record := serve(t, n, func(w http.ResponseWriter, r *http.Request) error {
		return httperr.NotFound("Campaign not found")
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
	if record.Code != http.StatusNotFound {
		t.Errorf("Expected code 404 in record, got %d", record.Code)
	}
	if record.Message != "Campaign not found" {
		t.Errorf("Expected message %q, got %q", "Campaign not found", record.Message)
	}
	if record.RequestID != "TESTREQUESTID" {
		t.Errorf("Expected request id TESTREQUESTID, got %q", record.RequestID)
	}
	if record.Path != "/api/v1/claims" {
		t.Errorf("Expected path /api/v1/claims, got %q", record.Path)
	}
	if _, err := time.Parse(time.RFC3339, record.Timestamp); err != nil {
		t.Errorf("Expected RFC3339 timestamp, got %q: %v", record.Timestamp, err)
	}
}

func TestWrap_HTTPErrorDetails(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(zap.NewNop(), false)
	_, record := serve(t, n, func(w http.ResponseWriter, r *http.Request) error {
		return httperr.Conflict("Claim already settled").WithDetails(map[string]any{"claimId": "c-1"})
	})

	if record.Code != http.StatusConflict {
		t.Errorf("Expected code 409, got %d", record.Code)
	}
	details, ok := record.Details.(map[string]any)
	if !ok {
		t.Fatalf("Expected details map, got %T", record.Details)
	}
	if details["claimId"] != "c-1" {
		t.Errorf("Expected claimId detail c-1, got %v", details["claimId"])
	}
}

func TestWrap_NoRows(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(zap.NewNop(), false)
	rr, record := serve(t, n, func(w http.ResponseWriter, r *http.Request) error {
		return fmt.Errorf("get campaign: %w", sql.ErrNoRows)
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
	if record.Message != "Record not found" {
		t.Errorf("Expected message %q, got %q", "Record not found", record.Message)
	}
}

func TestWrap_PostgresErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     *pq.Error
		status  int
		message string
		detail  map[string]any
	}{
		{
			name:    "unique violation with parsed field",
			err:     &pq.Error{Code: "23505", Detail: "Key (email)=(a@b.example) already exists.", Constraint: "recipients_email_key"},
			status:  http.StatusConflict,
			message: "Unique constraint violation",
			detail:  map[string]any{"field": "email"},
		},
		{
			name:    "unique violation falls back to constraint name",
			err:     &pq.Error{Code: "23505", Constraint: "recipients_email_key"},
			status:  http.StatusConflict,
			message: "Unique constraint violation",
			detail:  map[string]any{"field": "recipients_email_key"},
		},
		{
			name:    "foreign key violation",
			err:     &pq.Error{Code: "23503"},
			status:  http.StatusBadRequest,
			message: "Foreign key constraint violation",
		},
		{
			name:    "string too long",
			err:     &pq.Error{Code: "22001"},
			status:  http.StatusBadRequest,
			message: "Value too long for column",
		},
		{
			name:    "unknown code",
			err:     &pq.Error{Code: "40001"},
			status:  http.StatusInternalServerError,
			message: "Database error occurred",
			detail:  map[string]any{"code": "40001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := NewNormalizer(zap.NewNop(), false)
			rr, record := serve(t, n, func(w http.ResponseWriter, r *http.Request) error {
				return fmt.Errorf("insert claim: %w", tt.err)
			})

			if rr.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rr.Code)
			}
			if record.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, record.Message)
			}
			if tt.detail != nil {
				details, ok := record.Details.(map[string]any)
				if !ok {
					t.Fatalf("Expected details map, got %T", record.Details)
				}
				for k, v := range tt.detail {
					if details[k] != v {
						t.Errorf("Expected detail %s=%v, got %v", k, v, details[k])
					}
				}
			}
		})
	}
}

func TestWrap_CodeFieldAloneIsNotPersistence(t *testing.T) {
	t.Parallel()

	// An ordinary error whose text contains a SQLSTATE must remain
	// unclassified; only driver-typed values count as persistence errors.
	n := NewNormalizer(zap.NewNop(), false)
	rr, record := serve(t, n, func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("upstream said 23505")
	})

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rr.Code)
	}
	if record.Message != "upstream said 23505" {
		t.Errorf("Expected raw message, got %q", record.Message)
	}
}

func TestWrap_ValidationErrors(t *testing.T) {
	t.Parallel()

	type nestedRecipient struct {
		First string `json:"first" validate:"required"`
	}
	type nestedClaim struct {
		Amount    float64         `json:"amount" validate:"required,gt=0"`
		Recipient nestedRecipient `json:"recipient"`
	}

	n := NewNormalizer(zap.NewNop(), false)
	rr, record := serve(t, n, func(w http.ResponseWriter, r *http.Request) error {
		return validation.Validate.Struct(nestedClaim{})
	})

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", rr.Code)
	}
	if record.Message != "Validation failed" {
		t.Errorf("Expected message %q, got %q", "Validation failed", record.Message)
	}

	details, ok := record.Details.(map[string]any)
	if !ok {
		t.Fatalf("Expected details map, got %T", record.Details)
	}
	fields, ok := details["errors"].([]any)
	if !ok {
		t.Fatalf("Expected errors list in details, got %T", details["errors"])
	}

	byProperty := make(map[string]map[string]any, len(fields))
	for _, f := range fields {
		m := f.(map[string]any)
		byProperty[m["property"].(string)] = m
	}

	amount, ok := byProperty["amount"]
	if !ok {
		t.Fatal("Expected a top-level entry for amount")
	}
	constraints, _ := amount["constraints"].(map[string]any)
	if _, ok := constraints["required"]; !ok {
		t.Errorf("Expected required constraint on amount, got %v", constraints)
	}

	recipient, ok := byProperty["recipient"]
	if !ok {
		t.Fatal("Expected a top-level entry for recipient")
	}
	children, ok := recipient["children"].([]any)
	if !ok || len(children) != 1 {
		t.Fatalf("Expected one nested child under recipient, got %v", recipient["children"])
	}
	child := children[0].(map[string]any)
	if child["property"] != "first" {
		t.Errorf("Expected nested property first, got %v", child["property"])
	}
}

func TestWrap_UnclassifiedHidesStackOutsideDev(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(zap.NewNop(), false)
	rr, record := serve(t, n, func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("boom")
	})

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rr.Code)
	}
	if record.Message != "boom" {
		t.Errorf("Expected message boom, got %q", record.Message)
	}
	details, ok := record.Details.(map[string]any)
	if !ok {
		t.Fatalf("Expected details map, got %T", record.Details)
	}
	if details["kind"] != "*errors.errorString" {
		t.Errorf("Expected kind *errors.errorString, got %v", details["kind"])
	}
	if _, present := details["stack"]; present {
		t.Error("Expected no stack in details outside development")
	}
}

func TestWrap_UnclassifiedExposesStackInDev(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(zap.NewNop(), true)
	_, record := serve(t, n, func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("boom")
	})

	details, ok := record.Details.(map[string]any)
	if !ok {
		t.Fatalf("Expected details map, got %T", record.Details)
	}
	stack, _ := details["stack"].(string)
	if stack == "" {
		t.Error("Expected stack trace in development details")
	}
}

func TestWrap_RecoversPanic(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(zap.NewNop(), false)
	rr, record := serve(t, n, func(w http.ResponseWriter, r *http.Request) error {
		panic("kaboom")
	})

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rr.Code)
	}
	if record.Message != "kaboom" {
		t.Errorf("Expected message kaboom, got %q", record.Message)
	}
}

func TestRecover_CatchesPanicFromPlainHandler(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(zap.NewNop(), false)
	h := n.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("wiring fault"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/claims", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rr.Code)
	}

	var record ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &record); err != nil {
		t.Fatalf("Failed to decode error record: %v", err)
	}
	if record.Message != "wiring fault" {
		t.Errorf("Expected message %q, got %q", "wiring fault", record.Message)
	}
}
