package repository

import (
	"context"
	"time"

	"github.com/mahmodz/points-rank-server/internal/model"
	"github.com/mahmodz/points-rank-server/internal/store"
)

// ChatRepo covers the single retention operation the service exposes over
// the `chatMessages` collection.
type ChatRepo struct {
	store store.Store
}

func NewChatRepo(s store.Store) *ChatRepo { return &ChatRepo{store: s} }

// DeleteOlderThan removes every message created before cutoff and returns
// how many were deleted. Messages with an unparsable createdAt are left
// alone rather than silently destroyed.
func (r *ChatRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	recs, err := r.store.List(ctx, store.ChatMessages)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, rec := range recs {
		var m model.ChatMessage
		if err := fromDoc(rec.Doc, &m); err != nil {
			continue
		}
		if m.CreatedAt.IsZero() || !m.CreatedAt.Before(cutoff) {
			continue
		}
		if err := r.store.Delete(ctx, store.ChatMessages, rec.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
