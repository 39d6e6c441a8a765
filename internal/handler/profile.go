package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mahmodz/points-rank-server/internal/apperr"
	"github.com/mahmodz/points-rank-server/internal/repository"
	"github.com/mahmodz/points-rank-server/internal/store"
)

// ProfileHandler serves the self-service profile routes.
type ProfileHandler struct {
	Users *repository.UserRepo
}

func NewProfileHandler(users *repository.UserRepo) *ProfileHandler {
	return &ProfileHandler{Users: users}
}

type profileUpdateReq struct {
	DisplayName string `json:"displayName"`
}

// Get returns the full user document for a uid.
func (h *ProfileHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, c.Param("uid"))
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, apperr.NotFound("User not found"))
	}
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{"user": u})
}

// Update merge-writes the display name onto the profile.
func (h *ProfileHandler) Update(c echo.Context) error {
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetDisplayName(ctx, c.Param("uid"), req.DisplayName); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{"message": "Profile updated successfully"})
}
