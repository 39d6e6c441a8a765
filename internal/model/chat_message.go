package model

import "time"

// ChatMessage is a persisted message in the `chatMessages` collection.
// The service only reads this collection for retention cleanup; writes
// come from the chat frontend.
type ChatMessage struct {
	ID          string    `json:"id,omitempty"`
	DisplayName string    `json:"displayName"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
}
