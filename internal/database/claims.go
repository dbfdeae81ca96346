package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openrelief/aidbridge/internal/models"
)

// ClaimRepository handles claim database operations
type ClaimRepository struct {
	db *DB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// Create inserts a new claim
func (r *ClaimRepository) Create(ctx context.Context, c *models.Claim) error {
	query := `
		INSERT INTO claims (id, campaign_id, amount, recipient_first, recipient_last, recipient_email, status, verification_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.CampaignID,
		c.Amount,
		c.Recipient.First,
		c.Recipient.Last,
		c.Recipient.Email,
		c.Status,
		c.VerificationScore,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

// UpdateStatus moves a claim to a new status and returns the updated row
func (r *ClaimRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ClaimStatus) (*models.Claim, error) {
	c := &models.Claim{}
	query := `
		UPDATE claims
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING id, campaign_id, amount, recipient_first, recipient_last, recipient_email, status, verification_score, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, status, time.Now(), id).Scan(
		&c.ID,
		&c.CampaignID,
		&c.Amount,
		&c.Recipient.First,
		&c.Recipient.Last,
		&c.Recipient.Email,
		&c.Status,
		&c.VerificationScore,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a claim by ID
func (r *ClaimRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	c := &models.Claim{}
	query := `
		SELECT id, campaign_id, amount, recipient_first, recipient_last, recipient_email, status, verification_score, created_at, updated_at
		FROM claims
		WHERE id = $1
	`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.CampaignID,
		&c.Amount,
		&c.Recipient.First,
		&c.Recipient.Last,
		&c.Recipient.Email,
		&c.Status,
		&c.VerificationScore,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
