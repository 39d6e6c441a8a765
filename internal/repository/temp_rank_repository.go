package repository

import (
	"context"

	"github.com/mahmodz/points-rank-server/internal/model"
	"github.com/mahmodz/points-rank-server/internal/store"
)

// TempRankRepo provides access to the `tempRanks` collection. Records are
// keyed by user id, which is how the one-rank-per-user invariant is kept.
type TempRankRepo struct {
	store store.Store
}

func NewTempRankRepo(s store.Store) *TempRankRepo { return &TempRankRepo{store: s} }

// Get returns the rank record for a user, store.ErrNotFound when absent.
func (r *TempRankRepo) Get(ctx context.Context, userID string) (model.TemporaryRank, error) {
	doc, err := r.store.Get(ctx, store.TempRanks, userID)
	if err != nil {
		return model.TemporaryRank{}, err
	}
	var t model.TemporaryRank
	if err := fromDoc(doc, &t); err != nil {
		return model.TemporaryRank{}, err
	}
	return t, nil
}

// Put overwrites the rank record for t.UserID.
func (r *TempRankRepo) Put(ctx context.Context, t model.TemporaryRank) error {
	doc, err := toDoc(t)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, store.TempRanks, t.UserID, doc)
}

// Delete removes the rank record for a user.
func (r *TempRankRepo) Delete(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, store.TempRanks, userID)
}

// List returns every rank record, expired or not.
func (r *TempRankRepo) List(ctx context.Context) ([]model.TemporaryRank, error) {
	recs, err := r.store.List(ctx, store.TempRanks)
	if err != nil {
		return nil, err
	}
	ranks := make([]model.TemporaryRank, 0, len(recs))
	for _, rec := range recs {
		var t model.TemporaryRank
		if err := fromDoc(rec.Doc, &t); err != nil {
			return nil, err
		}
		if t.UserID == "" {
			t.UserID = rec.ID
		}
		ranks = append(ranks, t)
	}
	return ranks, nil
}
