package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimStatus represents the verification state of an aid claim
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusReview   ClaimStatus = "review"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// Claim represents a request for aid against a campaign
type Claim struct {
	ID                uuid.UUID   `json:"id"`
	CampaignID        uuid.UUID   `json:"campaign_id"`
	Amount            int64       `json:"amount"`
	Recipient         Recipient   `json:"recipient"`
	Status            ClaimStatus `json:"status"`
	VerificationScore float64     `json:"verification_score"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Recipient identifies who receives the aid
type Recipient struct {
	First string `json:"first" validate:"required,min=1,max=100"`
	Last  string `json:"last" validate:"required,min=1,max=100"`
	Email string `json:"email" validate:"required,email"`
}

// CreateClaimRequest is the payload for submitting a claim
type CreateClaimRequest struct {
	CampaignID string    `json:"campaign_id" validate:"required,uuid4"`
	Amount     int64     `json:"amount" validate:"required,gt=0"`
	Recipient  Recipient `json:"recipient" validate:"required"`
}

// UpdateClaimStatusRequest is the payload for moving a claim to a new
// verification status, e.g. resolving one held for review.
type UpdateClaimStatusRequest struct {
	Status string `json:"status" validate:"required,claim_status"`
}

// AuditEvent records a governance or verification decision for compliance
type AuditEvent struct {
	ID        uuid.UUID `json:"id"`
	RequestID string    `json:"request_id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
