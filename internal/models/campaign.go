package models

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus represents the lifecycle state of an aid campaign
type CampaignStatus string

const (
	CampaignStatusDraft  CampaignStatus = "draft"
	CampaignStatusActive CampaignStatus = "active"
	CampaignStatusClosed CampaignStatus = "closed"
)

// Campaign represents an aid distribution campaign
type Campaign struct {
	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	GoalAmount   int64          `json:"goal_amount"`
	RaisedAmount int64          `json:"raised_amount"`
	Status       CampaignStatus `json:"status"`
	ContactEmail string         `json:"contact_email"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CreateCampaignRequest is the payload for creating a campaign
type CreateCampaignRequest struct {
	Title        string `json:"title" validate:"required,min=3,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	GoalAmount   int64  `json:"goal_amount" validate:"required,gt=0"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
}
