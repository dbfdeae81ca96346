package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/openrelief/aidbridge/internal/middleware"
	"github.com/openrelief/aidbridge/internal/models"
	"github.com/openrelief/aidbridge/internal/request"
	"github.com/openrelief/aidbridge/internal/services/verify"
)

type fakeClaimStore struct {
	created []*models.Claim
	claims  map[uuid.UUID]*models.Claim
}

func (s *fakeClaimStore) Create(_ context.Context, c *models.Claim) error {
	s.created = append(s.created, c)
	return nil
}

func (s *fakeClaimStore) GetByID(_ context.Context, id uuid.UUID) (*models.Claim, error) {
	c, ok := s.claims[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (s *fakeClaimStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.ClaimStatus) (*models.Claim, error) {
	c, ok := s.claims[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c.Status = status
	return c, nil
}

type fakeAudit struct {
	events []*models.AuditEvent
	err    error
}

func (a *fakeAudit) Record(_ context.Context, e *models.AuditEvent) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, e)
	return nil
}

func (a *fakeAudit) ListBySubject(_ context.Context, subject string, _ int) ([]*models.AuditEvent, error) {
	var out []*models.AuditEvent
	for _, e := range a.events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

func newClaimRouter(store *fakeClaimStore, audit *fakeAudit) *mux.Router {
	norm := middleware.NewNormalizer(zap.NewNop(), false)
	h := NewClaimHandler(store, audit, verify.NewMockScorer(), zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r, norm.Wrap)
	return r
}

func claimBody(campaignID string) string {
	return fmt.Sprintf(`{"campaign_id":%q,"amount":2500,"recipient":{"first":"Amina","last":"Diallo","email":"amina@example.org"}}`, campaignID)
}

func TestClaimCreate(t *testing.T) {
	t.Parallel()

	store := &fakeClaimStore{}
	audit := &fakeAudit{}
	router := newClaimRouter(store, audit)

	req := httptest.NewRequest(http.MethodPost, "/claims", strings.NewReader(claimBody(uuid.NewString())))
	req = req.WithContext(request.WithID(req.Context(), "CLAIMREQID"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d (body %s)", rr.Code, rr.Body.String())
	}
	if len(store.created) != 1 {
		t.Fatalf("Expected one stored claim, got %d", len(store.created))
	}

	claim := store.created[0]
	if claim.VerificationScore < 0 || claim.VerificationScore >= 1 {
		t.Errorf("Expected score in [0,1), got %v", claim.VerificationScore)
	}
	if claim.Status != verify.StatusFor(claim.VerificationScore) {
		t.Errorf("Expected status to follow score, got %s for %v", claim.Status, claim.VerificationScore)
	}

	if len(audit.events) != 1 {
		t.Fatalf("Expected one audit event, got %d", len(audit.events))
	}
	event := audit.events[0]
	if event.Kind != "claim_verification" {
		t.Errorf("Expected audit kind claim_verification, got %q", event.Kind)
	}
	if event.Subject != claim.ID.String() {
		t.Errorf("Expected audit subject %s, got %s", claim.ID, event.Subject)
	}
	if event.RequestID != "CLAIMREQID" {
		t.Errorf("Expected audit event to carry correlation id, got %q", event.RequestID)
	}
}

func TestClaimCreate_AuditFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	store := &fakeClaimStore{}
	audit := &fakeAudit{err: errors.New("audit store down")}
	router := newClaimRouter(store, audit)

	req := httptest.NewRequest(http.MethodPost, "/claims", strings.NewReader(claimBody(uuid.NewString())))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201 despite audit failure, got %d", rr.Code)
	}
	if len(store.created) != 1 {
		t.Errorf("Expected claim persisted despite audit failure, got %d", len(store.created))
	}
}

func TestClaimCreate_MissingRecipientFields(t *testing.T) {
	t.Parallel()

	store := &fakeClaimStore{}
	router := newClaimRouter(store, &fakeAudit{})

	body := fmt.Sprintf(`{"campaign_id":%q,"amount":2500,"recipient":{"first":"Amina"}}`, uuid.NewString())
	req := httptest.NewRequest(http.MethodPost, "/claims", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", rr.Code)
	}
	if len(store.created) != 0 {
		t.Error("Expected nothing persisted on validation failure")
	}

	var record middleware.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &record); err != nil {
		t.Fatalf("Failed to decode error record: %v", err)
	}
	details, ok := record.Details.(map[string]any)
	if !ok {
		t.Fatalf("Expected details map, got %T", record.Details)
	}
	payload, _ := json.Marshal(details)
	if !strings.Contains(string(payload), `"property":"recipient"`) {
		t.Errorf("Expected nested recipient entry in details, got %s", payload)
	}
}

func TestClaimCreate_BadCampaignID(t *testing.T) {
	t.Parallel()

	router := newClaimRouter(&fakeClaimStore{}, &fakeAudit{})

	req := httptest.NewRequest(http.MethodPost, "/claims", strings.NewReader(claimBody("not-a-uuid")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	// uuid4 validation rejects it before parsing does.
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rr.Code)
	}
}

func TestClaimGet(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := &fakeClaimStore{claims: map[uuid.UUID]*models.Claim{
		id: {ID: id, Status: models.ClaimStatusApproved},
	}}
	router := newClaimRouter(store, &fakeAudit{})

	req := httptest.NewRequest(http.MethodGet, "/claims/"+id.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
}

func TestClaimUpdateStatus(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := &fakeClaimStore{claims: map[uuid.UUID]*models.Claim{
		id: {ID: id, Status: models.ClaimStatusReview},
	}}
	audit := &fakeAudit{}
	router := newClaimRouter(store, audit)

	req := httptest.NewRequest(http.MethodPatch, "/claims/"+id.String(), strings.NewReader(`{"status":"approved"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (body %s)", rr.Code, rr.Body.String())
	}
	if got := store.claims[id].Status; got != models.ClaimStatusApproved {
		t.Errorf("Expected claim moved to approved, got %s", got)
	}
	if len(audit.events) != 1 {
		t.Fatalf("Expected one audit event, got %d", len(audit.events))
	}
	if audit.events[0].Kind != "claim_status_change" {
		t.Errorf("Expected audit kind claim_status_change, got %q", audit.events[0].Kind)
	}
}

func TestClaimUpdateStatus_InvalidStatus(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := &fakeClaimStore{claims: map[uuid.UUID]*models.Claim{
		id: {ID: id, Status: models.ClaimStatusReview},
	}}
	router := newClaimRouter(store, &fakeAudit{})

	req := httptest.NewRequest(http.MethodPatch, "/claims/"+id.String(), strings.NewReader(`{"status":"settled"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", rr.Code)
	}
	if got := store.claims[id].Status; got != models.ClaimStatusReview {
		t.Errorf("Expected claim untouched on invalid status, got %s", got)
	}
}

func TestClaimUpdateStatus_NotFound(t *testing.T) {
	t.Parallel()

	router := newClaimRouter(&fakeClaimStore{claims: map[uuid.UUID]*models.Claim{}}, &fakeAudit{})

	req := httptest.NewRequest(http.MethodPatch, "/claims/"+uuid.NewString(), strings.NewReader(`{"status":"approved"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestClaimListAudit(t *testing.T) {
	t.Parallel()

	store := &fakeClaimStore{}
	audit := &fakeAudit{}
	router := newClaimRouter(store, audit)

	// Submit a claim, then fetch its trail.
	req := httptest.NewRequest(http.MethodPost, "/claims", strings.NewReader(claimBody(uuid.NewString())))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rr.Code)
	}
	claimID := store.created[0].ID

	req = httptest.NewRequest(http.MethodGet, "/claims/"+claimID.String()+"/audit", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var envelope struct {
		Data []models.AuditEvent `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("Expected one audit event, got %d", len(envelope.Data))
	}
	if envelope.Data[0].Kind != "claim_verification" {
		t.Errorf("Expected claim_verification event, got %q", envelope.Data[0].Kind)
	}
}

func TestClaimListAudit_EmptyIsArray(t *testing.T) {
	t.Parallel()

	router := newClaimRouter(&fakeClaimStore{}, &fakeAudit{})

	req := httptest.NewRequest(http.MethodGet, "/claims/"+uuid.NewString()+"/audit", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"data":[]`) {
		t.Errorf("Expected empty array data, got %s", rr.Body.String())
	}
}

func TestClaimGet_NotFound(t *testing.T) {
	t.Parallel()

	router := newClaimRouter(&fakeClaimStore{claims: map[uuid.UUID]*models.Claim{}}, &fakeAudit{})

	req := httptest.NewRequest(http.MethodGet, "/claims/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}
