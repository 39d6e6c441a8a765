// Package arbiter implements the point-request arbitration workflow: an
// in-process state machine over three tables (pending requests, mutes,
// warnings) that resolves admin decisions into balance mutations.
//
// All three tables are ephemeral by design. A process restart drops every
// pending request, which is acceptable because requests are bounded by the
// five-minute sweep and clients poll for status within seconds.
package arbiter

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mahmodz/points-rank-server/internal/apperr"
	"github.com/mahmodz/points-rank-server/internal/auth"
	"github.com/mahmodz/points-rank-server/internal/model"
	"github.com/mahmodz/points-rank-server/internal/repository"
	"github.com/mahmodz/points-rank-server/internal/store"
)

// Action is an admin decision on a pending request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionDeny    Action = "deny"
	ActionWarn    Action = "warn"
	ActionMute    Action = "mute"
)

const (
	sweepAge      = 5 * time.Minute  // requests older than this are deleted on listing
	muteWindow    = 60 * time.Second // duration of a mute, overwritten on repeat
	warnThreshold = 2                // warnings before the penalty fires
	warnPenalty   = 3                // points deducted at the threshold
	minPoints     = 1
	maxPoints     = 3
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// Outcome describes a completed resolution.
type Outcome struct {
	Message        string
	Action         Action
	DisplayName    string
	Points         int
	PointsDeducted int
}

// StatusView is what a polling user may see about their own request.
type StatusView struct {
	Status          model.RequestStatus
	PointsRequested int
	PointsDeducted  int
}

// Arbiter owns the request, mute and warning tables. A single mutex
// guards all three plus the balance read-modify-write inside resolve:
// handlers run concurrently, so every check-then-act sequence must hold it.
type Arbiter struct {
	users  *repository.UserRepo
	admins auth.Policy

	mu       sync.Mutex
	requests map[string]*model.PointRequest
	mutes    map[string]time.Time // display name -> mute expiry
	warnings map[string]int       // display name -> warning count

	now func() time.Time
}

// New builds an Arbiter with empty tables.
func New(users *repository.UserRepo, admins auth.Policy) *Arbiter {
	return &Arbiter{
		users:    users,
		admins:   admins,
		requests: make(map[string]*model.PointRequest),
		mutes:    make(map[string]time.Time),
		warnings: make(map[string]int),
		now:      time.Now,
	}
}

// Submit validates a user's request and stores it as pending. The
// precondition order is part of the contract: each check fails with a
// distinct error class before the next one runs.
func (a *Arbiter) Submit(ctx context.Context, displayName string, points int, pin string) (string, error) {
	name := strings.TrimSpace(displayName)
	if name == "" || points == 0 || pin == "" {
		return "", apperr.Validation("Display name, points requested, and PIN are required")
	}
	if !pinPattern.MatchString(pin) {
		return "", apperr.Validation("PIN must be exactly 4 digits")
	}
	u, err := a.users.GetByDisplayName(ctx, name)
	if err == store.ErrNotFound {
		return "", apperr.NotFound("User not found")
	}
	if err != nil {
		return "", err
	}
	if !u.HasPIN() {
		return "", apperr.Policy("PIN not set by admin. Please contact admin to set your PIN.")
	}
	if *u.PIN != pin {
		return "", apperr.Auth("Incorrect PIN")
	}
	if points < minPoints || points > maxPoints {
		return "", apperr.Validation("Can only request 1, 2, or 3 points")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	if until, ok := a.mutes[name]; ok && now.Before(until) {
		return "", apperr.RateLimited("You are muted for 1 minute. Please wait before making another request.")
	}
	if a.admins.IsAdmin(u.Email) {
		return "", apperr.Forbidden("Admin cannot request points")
	}
	id := newRequestID(now)
	a.requests[id] = &model.PointRequest{
		ID:              id,
		UserID:          u.UID,
		UserDisplayName: name,
		UserEmail:       u.Email,
		PointsRequested: points,
		Timestamp:       now,
		Status:          model.RequestPending,
	}
	return id, nil
}

// ListPending sweeps requests older than five minutes (whatever their
// status — age counts from submission, not resolution) and returns the
// remaining pending ones, most recent first.
func (a *Arbiter) ListPending(adminEmail string) ([]model.PointRequest, error) {
	if !a.admins.IsAdmin(adminEmail) {
		return nil, apperr.Forbidden("Access denied. Admin privileges required.")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sweep(a.now())

	pending := make([]model.PointRequest, 0, len(a.requests))
	for _, r := range a.requests {
		if r.Status == model.RequestPending {
			pending = append(pending, *r)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Timestamp.After(pending[j].Timestamp)
	})
	return pending, nil
}

// Resolve applies an admin decision to a pending request. Each request
// resolves exactly once; a second attempt is a conflict with no effect.
func (a *Arbiter) Resolve(ctx context.Context, adminEmail, requestID string, action Action) (Outcome, error) {
	if !a.admins.IsAdmin(adminEmail) {
		return Outcome{}, apperr.Forbidden("Access denied. Admin privileges required.")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.requests[requestID]
	if !ok {
		return Outcome{}, apperr.NotFound("Request not found or expired")
	}
	if r.Status != model.RequestPending {
		return Outcome{}, apperr.Conflict("Request already processed")
	}

	switch action {
	case ActionApprove:
		u, err := a.users.GetByID(ctx, r.UserID)
		if err != nil {
			return Outcome{}, err
		}
		if err := a.users.SetPoints(ctx, r.UserID, u.Points+r.PointsRequested); err != nil {
			return Outcome{}, err
		}
		r.Status = model.RequestApproved
		return a.outcome(r, action,
			fmt.Sprintf("Approved %d points for %s", r.PointsRequested, r.UserDisplayName)), nil

	case ActionDeny:
		r.Status = model.RequestDenied
		return a.outcome(r, action,
			fmt.Sprintf("Denied point request from %s", r.UserDisplayName)), nil

	case ActionWarn:
		count := a.warnings[r.UserDisplayName] + 1
		if count >= warnThreshold {
			u, err := a.users.GetByID(ctx, r.UserID)
			if err != nil {
				return Outcome{}, err
			}
			newPoints := u.Points - warnPenalty
			if newPoints < 0 {
				newPoints = 0
			}
			if err := a.users.SetPoints(ctx, r.UserID, newPoints); err != nil {
				return Outcome{}, err
			}
			delete(a.warnings, r.UserDisplayName) // counter resets after the penalty
			r.Status = model.RequestWarned
			r.PointsDeducted = warnPenalty
			return a.outcome(r, action,
				fmt.Sprintf("Warned %s (2nd warning) - %d points deducted", r.UserDisplayName, warnPenalty)), nil
		}
		a.warnings[r.UserDisplayName] = count
		r.Status = model.RequestWarned
		r.PointsDeducted = 0
		return a.outcome(r, action,
			fmt.Sprintf("Warned %s (Warning %d/%d)", r.UserDisplayName, count, warnThreshold)), nil

	case ActionMute:
		a.mutes[r.UserDisplayName] = a.now().Add(muteWindow)
		r.Status = model.RequestMuted
		return a.outcome(r, action,
			fmt.Sprintf("Muted %s for 1 minute", r.UserDisplayName)), nil

	default:
		return Outcome{}, apperr.Validation(fmt.Sprintf("Unknown action %q", action))
	}
}

// CheckStatus lets the submitting user poll their request. Only the owner
// of the request may read it.
func (a *Arbiter) CheckStatus(requestID, displayName string) (StatusView, error) {
	if requestID == "" || displayName == "" {
		return StatusView{}, apperr.Validation("Request ID and user display name are required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.requests[requestID]
	if !ok {
		return StatusView{}, apperr.NotFound("Request not found or expired")
	}
	if r.UserDisplayName != strings.TrimSpace(displayName) {
		return StatusView{}, apperr.Forbidden("Access denied")
	}
	return StatusView{
		Status:          r.Status,
		PointsRequested: r.PointsRequested,
		PointsDeducted:  r.PointsDeducted,
	}, nil
}

// sweep deletes every request older than sweepAge. Caller holds a.mu.
func (a *Arbiter) sweep(now time.Time) {
	cutoff := now.Add(-sweepAge)
	for id, r := range a.requests {
		if r.Timestamp.Before(cutoff) {
			delete(a.requests, id)
		}
	}
}

func (a *Arbiter) outcome(r *model.PointRequest, action Action, msg string) Outcome {
	return Outcome{
		Message:        msg,
		Action:         action,
		DisplayName:    r.UserDisplayName,
		Points:         r.PointsRequested,
		PointsDeducted: r.PointsDeducted,
	}
}

// newRequestID is millisecond timestamp plus a random base36 suffix.
// Uniqueness is best-effort; collisions within a millisecond are
// vanishingly unlikely at this request volume.
func newRequestID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + randomSuffix(9)
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.Intn(len(base36))]
	}
	return string(b)
}
