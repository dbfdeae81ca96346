package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/openrelief/aidbridge/internal/httperr"
	"github.com/openrelief/aidbridge/internal/middleware"
	"github.com/openrelief/aidbridge/internal/models"
	"github.com/openrelief/aidbridge/internal/request"
	"github.com/openrelief/aidbridge/internal/services/verify"
	"github.com/openrelief/aidbridge/internal/validation"
)

// ClaimStore is the persistence surface the claim handler needs
type ClaimStore interface {
	Create(ctx context.Context, c *models.Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ClaimStatus) (*models.Claim, error)
}

// AuditTrail persists verification decisions and serves them back per claim
type AuditTrail interface {
	Record(ctx context.Context, e *models.AuditEvent) error
	ListBySubject(ctx context.Context, subject string, limit int) ([]*models.AuditEvent, error)
}

// ClaimHandler handles claim submission and lookup
type ClaimHandler struct {
	claims ClaimStore
	audit  AuditTrail
	scorer verify.Scorer
	logger *zap.Logger
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(claims ClaimStore, audit AuditTrail, scorer verify.Scorer, logger *zap.Logger) *ClaimHandler {
	return &ClaimHandler{claims: claims, audit: audit, scorer: scorer, logger: logger}
}

// RegisterRoutes registers claim routes on the router
func (h *ClaimHandler) RegisterRoutes(r *mux.Router, wrap func(middleware.HandlerFunc) http.HandlerFunc) {
	r.HandleFunc("/claims", wrap(h.Create)).Methods("POST")
	r.HandleFunc("/claims/{id}", wrap(h.Get)).Methods("GET")
	r.HandleFunc("/claims/{id}", wrap(h.UpdateStatus)).Methods("PATCH")
	r.HandleFunc("/claims/{id}/audit", wrap(h.ListAudit)).Methods("GET")
}

// Create handles POST /claims: validate, score through the verification
// scorer, persist, and record the decision in the audit trail.
func (h *ClaimHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var req models.CreateClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httperr.BadRequest("Invalid JSON body")
	}

	req.Recipient.First = validation.SanitizeText(req.Recipient.First)
	req.Recipient.Last = validation.SanitizeText(req.Recipient.Last)
	if err := validation.Validate.Struct(req); err != nil {
		return err
	}

	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		return httperr.BadRequest("Invalid campaign id")
	}

	claim := &models.Claim{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Amount:     req.Amount,
		Recipient:  req.Recipient,
	}
	claim.VerificationScore = h.scorer.Score(claim)
	claim.Status = verify.StatusFor(claim.VerificationScore)

	if err := h.claims.Create(r.Context(), claim); err != nil {
		return err
	}

	// The audit trail is best effort: a write failure is logged, not
	// surfaced, because the claim itself was accepted.
	event := &models.AuditEvent{
		RequestID: request.ID(r.Context()),
		Kind:      "claim_verification",
		Subject:   claim.ID.String(),
		Detail:    fmt.Sprintf("score=%.4f status=%s", claim.VerificationScore, claim.Status),
	}
	if err := h.audit.Record(r.Context(), event); err != nil {
		h.logger.Warn("failed_to_record_audit_event",
			zap.String("claim_id", claim.ID.String()),
			zap.Error(err),
		)
	}

	h.logger.Info("claim_submitted",
		zap.String("claim_id", claim.ID.String()),
		zap.String("status", string(claim.Status)),
		zap.Float64("score", claim.VerificationScore),
	)
	respondJSON(w, http.StatusCreated, claim)
	return nil
}

// Get handles GET /claims/{id}
func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return httperr.BadRequest("Invalid claim id")
	}

	claim, err := h.claims.GetByID(r.Context(), id)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, claim)
	return nil
}

// UpdateStatus handles PATCH /claims/{id}: move a claim to a new status,
// e.g. an operator resolving one held for review.
func (h *ClaimHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) error {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return httperr.BadRequest("Invalid claim id")
	}

	var req models.UpdateClaimStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httperr.BadRequest("Invalid JSON body")
	}
	if err := validation.Validate.Struct(req); err != nil {
		return err
	}

	claim, err := h.claims.UpdateStatus(r.Context(), id, models.ClaimStatus(req.Status))
	if err != nil {
		return err
	}

	event := &models.AuditEvent{
		RequestID: request.ID(r.Context()),
		Kind:      "claim_status_change",
		Subject:   claim.ID.String(),
		Detail:    fmt.Sprintf("status=%s", claim.Status),
	}
	if err := h.audit.Record(r.Context(), event); err != nil {
		h.logger.Warn("failed_to_record_audit_event",
			zap.String("claim_id", claim.ID.String()),
			zap.Error(err),
		)
	}

	h.logger.Info("claim_status_updated",
		zap.String("claim_id", claim.ID.String()),
		zap.String("status", string(claim.Status)),
	)
	respondJSON(w, http.StatusOK, claim)
	return nil
}

// ListAudit handles GET /claims/{id}/audit: the claim's audit trail,
// newest first.
func (h *ClaimHandler) ListAudit(w http.ResponseWriter, r *http.Request) error {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return httperr.BadRequest("Invalid claim id")
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.audit.ListBySubject(r.Context(), id.String(), limit)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*models.AuditEvent{}
	}

	respondJSON(w, http.StatusOK, events)
	return nil
}
