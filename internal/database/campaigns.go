package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openrelief/aidbridge/internal/models"
)

// CampaignRepository handles campaign database operations.
//
// Driver errors are returned unwrapped so the error boundary can classify
// them by SQLSTATE; repositories do not translate failures themselves.
type CampaignRepository struct {
	db *DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts a new campaign
func (r *CampaignRepository) Create(ctx context.Context, c *models.Campaign) error {
	query := `
		INSERT INTO campaigns (id, title, description, goal_amount, raised_amount, status, contact_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		c.GoalAmount,
		c.RaisedAmount,
		c.Status,
		c.ContactEmail,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

// GetByID retrieves a campaign by ID
func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	c := &models.Campaign{}
	query := `
		SELECT id, title, description, goal_amount, raised_amount, status, contact_email, created_at, updated_at
		FROM campaigns
		WHERE id = $1
	`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.GoalAmount,
		&c.RaisedAmount,
		&c.Status,
		&c.ContactEmail,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns campaigns ordered by creation time, newest first
func (r *CampaignRepository) List(ctx context.Context, limit, offset int) ([]*models.Campaign, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT id, title, description, goal_amount, raised_amount, status, contact_email, created_at, updated_at
		FROM campaigns
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		c := &models.Campaign{}
		if err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.GoalAmount,
			&c.RaisedAmount,
			&c.Status,
			&c.ContactEmail,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}
