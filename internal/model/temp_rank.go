package model

import "time"

// TemporaryRank is the persisted rank entitlement in the `tempRanks`
// collection, keyed by the owning user's id. At most one unexpired record
// exists per user; records are removed lazily once ExpiresAt has passed.
type TemporaryRank struct {
	UserID      string    `json:"userId"`
	RankName    string    `json:"rankName"`
	PurchasedAt time.Time `json:"purchasedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Price       int       `json:"price"`
}
