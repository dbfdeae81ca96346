package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/openrelief/aidbridge/internal/httperr"
	"github.com/openrelief/aidbridge/internal/middleware"
	"github.com/openrelief/aidbridge/internal/models"
	"github.com/openrelief/aidbridge/internal/validation"
)

// CampaignStore is the persistence surface the campaign handler needs
type CampaignStore interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	List(ctx context.Context, limit, offset int) ([]*models.Campaign, error)
}

// CampaignHandler handles campaign requests
type CampaignHandler struct {
	repo   CampaignStore
	logger *zap.Logger
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(repo CampaignStore, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{repo: repo, logger: logger}
}

// RegisterRoutes registers campaign routes on the router. Handlers report
// failure by returning errors; wrap adapts them through the error boundary.
func (h *CampaignHandler) RegisterRoutes(r *mux.Router, wrap func(middleware.HandlerFunc) http.HandlerFunc) {
	r.HandleFunc("/campaigns", wrap(h.List)).Methods("GET")
	r.HandleFunc("/campaigns", wrap(h.Create)).Methods("POST")
	r.HandleFunc("/campaigns/{id}", wrap(h.Get)).Methods("GET")
}

// Create handles POST /campaigns
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var req models.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httperr.BadRequest("Invalid JSON body")
	}

	req.Title = validation.SanitizeText(req.Title)
	req.Description = validation.SanitizeText(req.Description)
	if err := validation.Validate.Struct(req); err != nil {
		return err
	}

	campaign := &models.Campaign{
		ID:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		GoalAmount:   req.GoalAmount,
		Status:       models.CampaignStatusDraft,
		ContactEmail: req.ContactEmail,
	}
	if err := h.repo.Create(r.Context(), campaign); err != nil {
		return err
	}

	h.logger.Info("campaign_created",
		zap.String("campaign_id", campaign.ID.String()),
	)
	respondJSON(w, http.StatusCreated, campaign)
	return nil
}

// Get handles GET /campaigns/{id}
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return httperr.BadRequest("Invalid campaign id")
	}

	campaign, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, campaign)
	return nil
}

// List handles GET /campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) error {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	campaigns, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		return err
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}

	respondJSON(w, http.StatusOK, campaigns)
	return nil
}
