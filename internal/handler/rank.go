package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mahmodz/points-rank-server/internal/apperr"
	"github.com/mahmodz/points-rank-server/internal/ledger"
	"github.com/mahmodz/points-rank-server/internal/queue"
	"github.com/mahmodz/points-rank-server/internal/service"
)

// RankHandler exposes the rank purchase ledger over HTTP.
type RankHandler struct {
	Ledger *ledger.Ledger
}

func NewRankHandler(l *ledger.Ledger) *RankHandler { return &RankHandler{Ledger: l} }

type buyRankReq struct {
	UserID   string `json:"userId"`
	RankName string `json:"rankName"`
	Price    int    `json:"price"`
}
type cleanupReq struct {
	AdminEmail string `json:"adminEmail"`
}

// Buy purchases a 24-hour rank for the user.
func (h *RankHandler) Buy(c echo.Context) error {
	var req buyRankReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	receipt, err := h.Ledger.Purchase(ctx, req.UserID, req.RankName, req.Price)
	if err != nil {
		return fail(c, err)
	}
	// Best-effort activity event; the purchase already happened.
	_ = service.PublishRankPurchased(ctx, queue.RankPurchasedEvent{
		UserID:    req.UserID,
		RankName:  receipt.RankName,
		Price:     req.Price,
		NewPoints: receipt.NewPoints,
		ExpiresAt: receipt.ExpiresAt.UTC().Format(time.RFC3339),
	})
	return respond(c, http.StatusOK, echo.Map{
		"message":   fmt.Sprintf("Successfully purchased %s rank for 24 hours", receipt.RankName),
		"newPoints": receipt.NewPoints,
		"expiresAt": receipt.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Get returns the caller's rank if it has not expired.
func (h *RankHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	rank, err := h.Ledger.GetActive(ctx, c.Param("userId"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{"tempRank": rank})
}

// Cleanup removes every expired rank record.
func (h *RankHandler) Cleanup(c echo.Context) error {
	var req cleanupReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cleaned, err := h.Ledger.CleanupExpired(ctx, req.AdminEmail)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"message":      fmt.Sprintf("Cleaned up %d expired temporary ranks", cleaned),
		"cleanedCount": cleaned,
	})
}

// Active lists unexpired ranks annotated with display names, soonest
// expiry first.
func (h *RankHandler) Active(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ranks, err := h.Ledger.ListActive(ctx, c.QueryParam("adminEmail"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"activeRanks": ranks,
		"totalActive": len(ranks),
	})
}

// All lists unexpired ranks without touching expired records.
func (h *RankHandler) All(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ranks, err := h.Ledger.ListUnexpired(ctx, c.QueryParam("adminEmail"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"tempRanks":   ranks,
		"totalActive": len(ranks),
	})
}
