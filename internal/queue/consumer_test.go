package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRequestResolved(t *testing.T) {
	line, err := formatEvent(ActivityEvent{
		Type: TypeRequestResolved,
		RequestResolved: &RequestResolvedEvent{
			RequestID:      "1748779200000_abc123xyz",
			DisplayName:    "alice",
			Action:         "approve",
			Points:         2,
			PointsDeducted: 0,
			ResolvedAt:     "2025-06-01T12:00:00Z",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, line, "Request resolved")
	assert.Contains(t, line, `user="alice"`)
	assert.Contains(t, line, "action=approve")
	assert.Contains(t, line, "points=2")
}

func TestFormatRankPurchased(t *testing.T) {
	line, err := formatEvent(ActivityEvent{
		Type: TypeRankPurchased,
		RankPurchased: &RankPurchasedEvent{
			UserID:    "u1",
			RankName:  "vip",
			Price:     4,
			NewPoints: 6,
			ExpiresAt: "2025-06-02T12:00:00Z",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, line, "Rank purchased")
	assert.Contains(t, line, `rank="vip"`)
	assert.Contains(t, line, "new_points=6")
}

func TestFormatEventRejectsBadEnvelopes(t *testing.T) {
	_, err := formatEvent(ActivityEvent{Type: "mystery"})
	assert.Error(t, err)
	// Type without matching payload is also rejected.
	_, err = formatEvent(ActivityEvent{Type: TypeRequestResolved})
	assert.Error(t, err)
	_, err = formatEvent(ActivityEvent{Type: TypeRankPurchased})
	assert.Error(t, err)
}
