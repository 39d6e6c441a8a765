package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mahmodz/points-rank-server/internal/apperr"
	"github.com/mahmodz/points-rank-server/internal/arbiter"
	"github.com/mahmodz/points-rank-server/internal/queue"
	"github.com/mahmodz/points-rank-server/internal/service"
)

// PointsHandler exposes the point-request arbiter over HTTP.
type PointsHandler struct {
	Arbiter *arbiter.Arbiter
}

func NewPointsHandler(a *arbiter.Arbiter) *PointsHandler { return &PointsHandler{Arbiter: a} }

// requestPointsReq accepts pointsRequested as either a JSON number or a
// string, as clients of this API have historically sent both.
type requestPointsReq struct {
	UserDisplayName string          `json:"userDisplayName"`
	PointsRequested json.RawMessage `json:"pointsRequested"`
	PIN             string          `json:"pin"`
}

type respondReq struct {
	AdminEmail string `json:"adminEmail"`
	RequestID  string `json:"requestId"`
	Action     string `json:"action"`
}

// Request submits a point request on behalf of a user.
func (h *PointsHandler) Request(c echo.Context) error {
	var req requestPointsReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Arbiter.Submit(ctx, req.UserDisplayName, parsePoints(req.PointsRequested), req.PIN)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"message":   "Point request submitted successfully",
		"requestId": id,
	})
}

// CheckStatus lets the submitting user poll their request.
func (h *PointsHandler) CheckStatus(c echo.Context) error {
	view, err := h.Arbiter.CheckStatus(c.QueryParam("requestId"), c.QueryParam("userDisplayName"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"status":          view.Status,
		"pointsRequested": view.PointsRequested,
		"pointsDeducted":  view.PointsDeducted,
	})
}

// AdminList returns pending requests, sweeping stale ones first.
func (h *PointsHandler) AdminList(c echo.Context) error {
	requests, err := h.Arbiter.ListPending(c.QueryParam("adminEmail"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{"requests": requests})
}

// Respond applies an admin decision to a pending request.
func (h *PointsHandler) Respond(c echo.Context) error {
	var req respondReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	outcome, err := h.Arbiter.Resolve(ctx, req.AdminEmail, req.RequestID, arbiter.Action(req.Action))
	if err != nil {
		return fail(c, err)
	}
	// Best-effort activity event; the resolution already happened.
	_ = service.PublishRequestResolved(ctx, queue.RequestResolvedEvent{
		RequestID:      req.RequestID,
		DisplayName:    outcome.DisplayName,
		Action:         string(outcome.Action),
		Points:         outcome.Points,
		PointsDeducted: outcome.PointsDeducted,
		ResolvedAt:     time.Now().UTC().Format(time.RFC3339),
	})
	return respond(c, http.StatusOK, echo.Map{
		"message":        outcome.Message,
		"action":         outcome.Action,
		"pointsDeducted": outcome.PointsDeducted,
	})
}

// parsePoints coerces the raw pointsRequested value to an int; anything
// unparsable comes back as 0 and fails the arbiter's presence check.
func parsePoints(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}
