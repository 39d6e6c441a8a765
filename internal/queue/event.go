// Package queue defines message payloads exchanged over the message broker.
package queue

// ActivityQueueName is the durable queue carrying every activity event.
const ActivityQueueName = "points.activity"

// Event type discriminators.
const (
	TypeRequestResolved = "request.resolved"
	TypeRankPurchased   = "rank.purchased"
)

// RequestResolvedEvent is published when an admin resolves a point request.
// It carries enough for downstream consumers to log or notify without
// querying the primary store.
type RequestResolvedEvent struct {
	RequestID      string `json:"requestId"`
	DisplayName    string `json:"displayName"`
	Action         string `json:"action"`
	Points         int    `json:"points"`
	PointsDeducted int    `json:"pointsDeducted"`
	ResolvedAt     string `json:"resolvedAt"`
}

// RankPurchasedEvent is published when a temporary rank purchase succeeds.
type RankPurchasedEvent struct {
	UserID    string `json:"userId"`
	RankName  string `json:"rankName"`
	Price     int    `json:"price"`
	NewPoints int    `json:"newPoints"`
	ExpiresAt string `json:"expiresAt"`
}

// ActivityEvent is the envelope written to the queue. Exactly one payload
// field is set, selected by Type.
type ActivityEvent struct {
	Type            string                `json:"type"`
	RequestResolved *RequestResolvedEvent `json:"requestResolved,omitempty"`
	RankPurchased   *RankPurchasedEvent   `json:"rankPurchased,omitempty"`
}
