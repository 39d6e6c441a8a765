package arbiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmodz/points-rank-server/internal/apperr"
	"github.com/mahmodz/points-rank-server/internal/auth"
	"github.com/mahmodz/points-rank-server/internal/model"
	"github.com/mahmodz/points-rank-server/internal/repository"
	"github.com/mahmodz/points-rank-server/internal/store"
)

const adminEmail = "admin@example.com"

type fixture struct {
	arb   *Arbiter
	users *repository.UserRepo
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemory()
	users := repository.NewUserRepo(st)
	f := &fixture{
		arb:   New(users, auth.NewAllowList(adminEmail)),
		users: users,
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.arb.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) seedUser(t *testing.T, uid, email, name string, points int, pin string) {
	t.Helper()
	u := model.User{
		UID:         uid,
		Email:       email,
		DisplayName: name,
		Points:      points,
		CreatedAt:   f.now,
	}
	if pin != "" {
		u.PIN = &pin
	}
	require.NoError(t, f.users.Create(context.Background(), u))
}

func (f *fixture) points(t *testing.T, uid string) int {
	t.Helper()
	u, err := f.users.GetByID(context.Background(), uid)
	require.NoError(t, err)
	return u.Points
}

func TestSubmitPreconditions(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	f.seedUser(t, "u2", "bob@example.com", "bob", 5, "")
	f.seedUser(t, "u3", adminEmail, "boss", 5, "9999")
	ctx := context.Background()

	tests := []struct {
		name     string
		display  string
		points   int
		pin      string
		wantKind apperr.Kind
	}{
		{"missing display name", "", 1, "1234", apperr.KindValidation},
		{"missing points", "alice", 0, "1234", apperr.KindValidation},
		{"missing pin", "alice", 1, "", apperr.KindValidation},
		{"pin wrong format", "alice", 1, "12a4", apperr.KindValidation},
		{"pin too long", "alice", 1, "12345", apperr.KindValidation},
		{"unknown user", "charlie", 1, "1234", apperr.KindNotFound},
		{"pin not configured", "bob", 1, "1234", apperr.KindPolicy},
		{"wrong pin", "alice", 1, "4321", apperr.KindAuth},
		{"points too high", "alice", 4, "1234", apperr.KindValidation},
		{"points negative", "alice", -1, "1234", apperr.KindValidation},
		{"admin cannot request", "boss", 1, "9999", apperr.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.arb.Submit(ctx, tt.display, tt.points, tt.pin)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
		})
	}
}

func TestSubmitAndCheckStatus(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	ctx := context.Background()

	id, err := f.arb.Submit(ctx, "alice", 2, "1234")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	view, err := f.arb.CheckStatus(id, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, view.Status)
	assert.Equal(t, 2, view.PointsRequested)
	assert.Equal(t, 0, view.PointsDeducted)

	// Only the owner may read the request.
	_, err = f.arb.CheckStatus(id, "mallory")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.arb.CheckStatus("nope", "alice")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.arb.CheckStatus("", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestListPendingRequiresAdminAndOrders(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	f.seedUser(t, "u2", "bob@example.com", "bob", 5, "5678")
	ctx := context.Background()

	_, err := f.arb.ListPending("alice@example.com")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	first, err := f.arb.Submit(ctx, "alice", 1, "1234")
	require.NoError(t, err)
	f.advance(30 * time.Second)
	second, err := f.arb.Submit(ctx, "bob", 2, "5678")
	require.NoError(t, err)

	pending, err := f.arb.ListPending(adminEmail)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	// Most recent first.
	assert.Equal(t, second, pending[0].ID)
	assert.Equal(t, first, pending[1].ID)
}

func TestSweepRemovesStaleRequests(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	ctx := context.Background()

	stale, err := f.arb.Submit(ctx, "alice", 1, "1234")
	require.NoError(t, err)

	f.advance(5*time.Minute + time.Second)
	fresh, err := f.arb.Submit(ctx, "alice", 1, "1234")
	require.NoError(t, err)

	pending, err := f.arb.ListPending(adminEmail)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, fresh, pending[0].ID)

	// The stale request is gone entirely, not just filtered.
	_, err = f.arb.CheckStatus(stale, "alice")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSweepDeletesResolvedRequestsByOriginalAge(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	ctx := context.Background()

	id, err := f.arb.Submit(ctx, "alice", 1, "1234")
	require.NoError(t, err)

	f.advance(4 * time.Minute)
	_, err = f.arb.Resolve(ctx, adminEmail, id, ActionDeny)
	require.NoError(t, err)

	// Age counts from submission, so two more minutes push it past the
	// sweep threshold even though it was resolved recently.
	f.advance(2 * time.Minute)
	_, err = f.arb.ListPending(adminEmail)
	require.NoError(t, err)
	_, err = f.arb.CheckStatus(id, "alice")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestResolveApprove(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	ctx := context.Background()

	id, err := f.arb.Submit(ctx, "alice", 3, "1234")
	require.NoError(t, err)

	out, err := f.arb.Resolve(ctx, adminEmail, id, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, out.Action)
	assert.Contains(t, out.Message, "Approved 3 points for alice")
	assert.Equal(t, 8, f.points(t, "u1"))

	view, err := f.arb.CheckStatus(id, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, view.Status)

	// A second resolution is a conflict with no double effect.
	_, err = f.arb.Resolve(ctx, adminEmail, id, ActionApprove)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, 8, f.points(t, "u1"))
}

func TestResolveDenyLeavesBalance(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	ctx := context.Background()

	id, err := f.arb.Submit(ctx, "alice", 2, "1234")
	require.NoError(t, err)

	out, err := f.arb.Resolve(ctx, adminEmail, id, ActionDeny)
	require.NoError(t, err)
	assert.Contains(t, out.Message, "Denied point request from alice")
	assert.Equal(t, 5, f.points(t, "u1"))

	view, err := f.arb.CheckStatus(id, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RequestDenied, view.Status)
}

func TestWarnPenaltyAtThreshold(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	ctx := context.Background()

	submit := func() string {
		id, err := f.arb.Submit(ctx, "alice", 1, "1234")
		require.NoError(t, err)
		return id
	}

	out, err := f.arb.Resolve(ctx, adminEmail, submit(), ActionWarn)
	require.NoError(t, err)
	assert.Equal(t, 0, out.PointsDeducted)
	assert.Contains(t, out.Message, "Warning 1/2")
	assert.Equal(t, 5, f.points(t, "u1"))

	out, err = f.arb.Resolve(ctx, adminEmail, submit(), ActionWarn)
	require.NoError(t, err)
	assert.Equal(t, 3, out.PointsDeducted)
	assert.Contains(t, out.Message, "2nd warning")
	assert.Equal(t, 2, f.points(t, "u1"))

	// Counter reset: a third warn starts a fresh count.
	out, err = f.arb.Resolve(ctx, adminEmail, submit(), ActionWarn)
	require.NoError(t, err)
	assert.Equal(t, 0, out.PointsDeducted)
	assert.Equal(t, 2, f.points(t, "u1"))
}

func TestWarnPenaltyFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 1, "1234")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		id, err := f.arb.Submit(ctx, "alice", 1, "1234")
		require.NoError(t, err)
		_, err = f.arb.Resolve(ctx, adminEmail, id, ActionWarn)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, f.points(t, "u1"))
}

func TestMuteBlocksSubmitForSixtySeconds(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	ctx := context.Background()

	id, err := f.arb.Submit(ctx, "alice", 1, "1234")
	require.NoError(t, err)

	out, err := f.arb.Resolve(ctx, adminEmail, id, ActionMute)
	require.NoError(t, err)
	assert.Contains(t, out.Message, "Muted alice for 1 minute")

	view, err := f.arb.CheckStatus(id, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RequestMuted, view.Status)

	f.advance(30 * time.Second)
	_, err = f.arb.Submit(ctx, "alice", 1, "1234")
	assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))

	f.advance(31 * time.Second)
	_, err = f.arb.Submit(ctx, "alice", 1, "1234")
	assert.NoError(t, err)
}

func TestMuteOverwritesNotAccumulates(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	ctx := context.Background()

	id, err := f.arb.Submit(ctx, "alice", 1, "1234")
	require.NoError(t, err)
	_, err = f.arb.Resolve(ctx, adminEmail, id, ActionMute)
	require.NoError(t, err)

	// A later mute restarts the window rather than extending it.
	f.advance(61 * time.Second)
	id2, err := f.arb.Submit(ctx, "alice", 1, "1234")
	require.NoError(t, err)
	_, err = f.arb.Resolve(ctx, adminEmail, id2, ActionMute)
	require.NoError(t, err)

	f.advance(59 * time.Second)
	_, err = f.arb.Submit(ctx, "alice", 1, "1234")
	assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
	f.advance(2 * time.Second)
	_, err = f.arb.Submit(ctx, "alice", 1, "1234")
	assert.NoError(t, err)
}

func TestResolveUnknownActionRejected(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	ctx := context.Background()

	id, err := f.arb.Submit(ctx, "alice", 1, "1234")
	require.NoError(t, err)

	_, err = f.arb.Resolve(ctx, adminEmail, id, Action("escalate"))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Rejection leaves the request pending and resolvable.
	view, err := f.arb.CheckStatus(id, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, view.Status)
	_, err = f.arb.Resolve(ctx, adminEmail, id, ActionDeny)
	assert.NoError(t, err)
}

func TestResolveGuards(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "alice@example.com", "alice", 5, "1234")
	ctx := context.Background()

	_, err := f.arb.Resolve(ctx, "alice@example.com", "whatever", ActionApprove)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.arb.Resolve(ctx, adminEmail, "missing", ActionApprove)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRequestIDShape(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := newRequestID(now)
	assert.Regexp(t, `^\d+_[0-9a-z]{9}$`, id)
	assert.NotEqual(t, id, newRequestID(now))
}
