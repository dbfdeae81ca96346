package verify

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/openrelief/aidbridge/internal/models"
)

func TestMockScorer_Deterministic(t *testing.T) {
	t.Parallel()

	scorer := NewMockScorer()
	claim := &models.Claim{
		CampaignID: uuid.MustParse("a2aeb269-3f30-4ff3-a9c2-7fbcb1d6e7a5"),
		Recipient:  models.Recipient{Email: "recipient@example.com"},
	}

	first := scorer.Score(claim)
	for i := 0; i < 10; i++ {
		if got := scorer.Score(claim); got != first {
			t.Fatalf("Expected stable score %v, got %v on attempt %d", first, got, i)
		}
	}
	if first < 0 || first >= 1 {
		t.Errorf("Expected score in [0,1), got %v", first)
	}
}

func TestMockScorer_VariesByRecipient(t *testing.T) {
	t.Parallel()

	scorer := NewMockScorer()
	campaignID := uuid.MustParse("a2aeb269-3f30-4ff3-a9c2-7fbcb1d6e7a5")

	seen := make(map[float64]int)
	for i := 0; i < 50; i++ {
		claim := &models.Claim{
			CampaignID: campaignID,
			Recipient:  models.Recipient{Email: fmt.Sprintf("recipient%d@example.com", i)},
		}
		seen[scorer.Score(claim)]++
	}

	if len(seen) < 10 {
		t.Errorf("Expected scores to spread across recipients, got %d distinct values", len(seen))
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score    float64
		expected models.ClaimStatus
	}{
		{0.0, models.ClaimStatusRejected},
		{0.39, models.ClaimStatusRejected},
		{0.40, models.ClaimStatusReview},
		{0.74, models.ClaimStatusReview},
		{0.75, models.ClaimStatusApproved},
		{0.99, models.ClaimStatusApproved},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.score); got != tt.expected {
			t.Errorf("StatusFor(%v): expected %s, got %s", tt.score, tt.expected, got)
		}
	}
}
