// Package verify holds the mocked claim verification scorer. The real
// scoring pipeline is an external system; this stand-in is deterministic
// so claim flows are reproducible in development and tests.
package verify

import (
	"hash/fnv"

	"github.com/openrelief/aidbridge/internal/models"
)

// Decision bands for the verification score.
const (
	approveThreshold = 0.75
	reviewThreshold  = 0.40
)

// Scorer produces a verification score for a claim.
type Scorer interface {
	Score(claim *models.Claim) float64
}

// MockScorer derives a stable pseudo-score from the recipient identity.
type MockScorer struct{}

// NewMockScorer creates the deterministic scorer.
func NewMockScorer() *MockScorer { return &MockScorer{} }

// Score returns a value in [0, 1) derived from recipient email and
// campaign id. The same claim always scores the same.
func (s *MockScorer) Score(claim *models.Claim) float64 {
	h := fnv.New64a()
	h.Write([]byte(claim.Recipient.Email))
	h.Write([]byte(claim.CampaignID.String()))
	return float64(h.Sum64()%10000) / 10000
}

// StatusFor maps a score onto a claim status.
func StatusFor(score float64) models.ClaimStatus {
	switch {
	case score >= approveThreshold:
		return models.ClaimStatusApproved
	case score >= reviewThreshold:
		return models.ClaimStatusReview
	default:
		return models.ClaimStatusRejected
	}
}
