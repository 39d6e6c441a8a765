// Package ledger implements the rank purchase workflow: balance-gated
// purchase of a time-limited rank, lazy expiry on read, and the admin
// cleanup/listing operations.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mahmodz/points-rank-server/internal/apperr"
	"github.com/mahmodz/points-rank-server/internal/auth"
	"github.com/mahmodz/points-rank-server/internal/model"
	"github.com/mahmodz/points-rank-server/internal/repository"
	"github.com/mahmodz/points-rank-server/internal/store"
)

// rankDuration is how long a purchased rank lasts.
const rankDuration = 24 * time.Hour

// Receipt is returned to the buyer on a successful purchase.
type Receipt struct {
	RankName  string
	NewPoints int
	ExpiresAt time.Time
}

// ActiveRank is an unexpired record annotated for the admin listing.
type ActiveRank struct {
	model.TemporaryRank
	ID              string `json:"id"`
	UserDisplayName string `json:"userDisplayName,omitempty"`
	TimeRemaining   int64  `json:"timeRemaining"` // milliseconds until expiry
}

// Ledger coordinates purchases against user balances and rank records.
// The mutex serializes the whole check-balance/deduct/write-rank sequence
// so two concurrent purchases cannot both pass the balance gate.
type Ledger struct {
	mu     sync.Mutex
	users  *repository.UserRepo
	ranks  *repository.TempRankRepo
	admins auth.Policy
	now    func() time.Time
}

func New(users *repository.UserRepo, ranks *repository.TempRankRepo, admins auth.Policy) *Ledger {
	return &Ledger{users: users, ranks: ranks, admins: admins, now: time.Now}
}

// isExpired is the single expiry predicate every code path uses.
func isExpired(r model.TemporaryRank, now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Purchase deducts price from the user's balance and records a rank that
// expires 24 hours from now. An unexpired existing rank blocks the
// purchase; an expired one is simply overwritten.
func (l *Ledger) Purchase(ctx context.Context, userID, rankName string, price int) (Receipt, error) {
	if userID == "" || rankName == "" || price == 0 {
		return Receipt{}, apperr.Validation("User ID, rank name, and price are required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	u, err := l.users.GetByID(ctx, userID)
	if err == store.ErrNotFound {
		return Receipt{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return Receipt{}, err
	}
	if u.Points < price {
		return Receipt{}, apperr.Policy("Insufficient points")
	}
	now := l.now()
	if existing, err := l.ranks.Get(ctx, userID); err == nil {
		if !isExpired(existing, now) {
			return Receipt{}, apperr.Conflict("User already has an active temporary rank")
		}
	} else if err != store.ErrNotFound {
		return Receipt{}, err
	}

	newPoints := u.Points - price
	if err := l.users.SetPoints(ctx, userID, newPoints); err != nil {
		return Receipt{}, err
	}
	expires := now.Add(rankDuration)
	rec := model.TemporaryRank{
		UserID:      userID,
		RankName:    rankName,
		PurchasedAt: now,
		ExpiresAt:   expires,
		Price:       price,
	}
	if err := l.ranks.Put(ctx, rec); err != nil {
		return Receipt{}, err
	}
	return Receipt{RankName: rankName, NewPoints: newPoints, ExpiresAt: expires}, nil
}

// GetActive returns the user's rank if one exists and has not expired.
// An expired record is deleted on the way out.
func (l *Ledger) GetActive(ctx context.Context, userID string) (model.TemporaryRank, error) {
	r, err := l.ranks.Get(ctx, userID)
	if err == store.ErrNotFound {
		return model.TemporaryRank{}, apperr.NotFound("No temporary rank found")
	}
	if err != nil {
		return model.TemporaryRank{}, err
	}
	if isExpired(r, l.now()) {
		if err := l.ranks.Delete(ctx, userID); err != nil {
			return model.TemporaryRank{}, err
		}
		return model.TemporaryRank{}, apperr.NotFound("Temporary rank has expired")
	}
	return r, nil
}

// CleanupExpired deletes every expired record and returns the count.
func (l *Ledger) CleanupExpired(ctx context.Context, adminEmail string) (int, error) {
	if !l.admins.IsAdmin(adminEmail) {
		return 0, apperr.Forbidden("Access denied. Admin privileges required.")
	}
	all, err := l.ranks.List(ctx)
	if err != nil {
		return 0, err
	}
	now := l.now()
	cleaned := 0
	for _, r := range all {
		if isExpired(r, now) {
			if err := l.ranks.Delete(ctx, r.UserID); err != nil {
				return cleaned, err
			}
			cleaned++
		}
	}
	return cleaned, nil
}

// ListActive returns unexpired records annotated with the owner's display
// name and remaining time, soonest expiry first. Expired records found
// during the scan are deleted opportunistically.
func (l *Ledger) ListActive(ctx context.Context, adminEmail string) ([]ActiveRank, error) {
	if !l.admins.IsAdmin(adminEmail) {
		return nil, apperr.Forbidden("Access denied. Admin privileges required.")
	}
	all, err := l.ranks.List(ctx)
	if err != nil {
		return nil, err
	}
	now := l.now()
	active := make([]ActiveRank, 0, len(all))
	for _, r := range all {
		if isExpired(r, now) {
			if err := l.ranks.Delete(ctx, r.UserID); err != nil {
				return nil, err
			}
			continue
		}
		name := "Unknown"
		if u, err := l.users.GetByID(ctx, r.UserID); err == nil {
			name = u.DisplayName
		}
		active = append(active, ActiveRank{
			TemporaryRank:   r,
			ID:              r.UserID,
			UserDisplayName: name,
			TimeRemaining:   r.ExpiresAt.Sub(now).Milliseconds(),
		})
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].ExpiresAt.Before(active[j].ExpiresAt)
	})
	return active, nil
}

// ListUnexpired returns unexpired records with remaining time but without
// display names, and does not delete anything it finds.
func (l *Ledger) ListUnexpired(ctx context.Context, adminEmail string) ([]ActiveRank, error) {
	if !l.admins.IsAdmin(adminEmail) {
		return nil, apperr.Forbidden("Access denied. Admin privileges required.")
	}
	all, err := l.ranks.List(ctx)
	if err != nil {
		return nil, err
	}
	now := l.now()
	out := make([]ActiveRank, 0, len(all))
	for _, r := range all {
		if isExpired(r, now) {
			continue
		}
		out = append(out, ActiveRank{
			TemporaryRank: r,
			ID:            r.UserID,
			TimeRemaining: r.ExpiresAt.Sub(now).Milliseconds(),
		})
	}
	return out, nil
}
