package handler

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mahmodz/points-rank-server/internal/apperr"
	"github.com/mahmodz/points-rank-server/internal/auth"
	"github.com/mahmodz/points-rank-server/internal/identity"
	"github.com/mahmodz/points-rank-server/internal/model"
	"github.com/mahmodz/points-rank-server/internal/repository"
	"github.com/mahmodz/points-rank-server/internal/store"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// AdminHandler serves the operator-only user administration routes. Every
// handler gates on the injected policy before touching anything.
type AdminHandler struct {
	Users    *repository.UserRepo
	Chat     *repository.ChatRepo
	Identity identity.Provider
	Admins   auth.Policy
}

func NewAdminHandler(users *repository.UserRepo, chat *repository.ChatRepo, idp identity.Provider, admins auth.Policy) *AdminHandler {
	return &AdminHandler{Users: users, Chat: chat, Identity: idp, Admins: admins}
}

// ----- DTOs -----

type adminCreateUserReq struct {
	AdminEmail  string `json:"adminEmail"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}
type updatePointsReq struct {
	AdminEmail string `json:"adminEmail"`
	UserID     string `json:"userId"`
	Points     int    `json:"points"`
}
type updatePointsByNameReq struct {
	AdminEmail  string `json:"adminEmail"`
	DisplayName string `json:"displayName"`
	Points      int    `json:"points"`
}
type renameReq struct {
	AdminEmail         string `json:"adminEmail"`
	CurrentDisplayName string `json:"currentDisplayName"`
	NewDisplayName     string `json:"newDisplayName"`
}
type deleteUserReq struct {
	AdminEmail        string `json:"adminEmail"`
	TargetDisplayName string `json:"targetDisplayName"`
}
type updatePinReq struct {
	AdminEmail  string `json:"adminEmail"`
	DisplayName string `json:"displayName"`
	NewPIN      string `json:"newPin"`
}
type clearChatReq struct {
	AdminEmail string `json:"adminEmail"`
}

// CreateUser registers an account on behalf of a user, recording which
// operator created it.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req adminCreateUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	if err := requireAdmin(h.Admins, req.AdminEmail); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	name := strings.TrimSpace(req.DisplayName)
	if name != "" {
		if _, err := h.Users.GetByDisplayName(ctx, name); err == nil {
			return fail(c, apperr.Conflict("Display name already exists. Please choose a different one."))
		} else if !errors.Is(err, store.ErrNotFound) {
			return fail(c, err)
		}
	}
	uid, err := h.Identity.CreateAccount(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	u := model.User{
		UID:         uid,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		DisplayName: name,
		Points:      1,
		PIN:         nil,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   req.AdminEmail,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, echo.Map{
		"message": "User created successfully",
		"user": echo.Map{
			"uid":         u.UID,
			"email":       u.Email,
			"displayName": u.DisplayName,
		},
	})
}

// ListUsers returns every user document with a count.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	if err := requireAdmin(h.Admins, c.QueryParam("adminEmail")); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"users":      users,
		"totalUsers": len(users),
	})
}

// UpdatePoints sets an absolute balance by uid.
func (h *AdminHandler) UpdatePoints(c echo.Context) error {
	var req updatePointsReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	if err := requireAdmin(h.Admins, req.AdminEmail); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetPoints(ctx, req.UserID, req.Points); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{"message": "Points updated successfully"})
}

// UpdatePointsByName sets an absolute balance, looking the user up by
// display name.
func (h *AdminHandler) UpdatePointsByName(c echo.Context) error {
	var req updatePointsByNameReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	if err := requireAdmin(h.Admins, req.AdminEmail); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByDisplayName(ctx, req.DisplayName)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, apperr.NotFound("User with this display name not found."))
	}
	if err != nil {
		return fail(c, err)
	}
	if err := h.Users.SetPoints(ctx, u.UID, req.Points); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"message":   "Points updated successfully",
		"userEmail": u.Email,
	})
}

// UpdateDisplayNameByName renames a user, enforcing handle uniqueness
// unless the new name belongs to the user being renamed.
func (h *AdminHandler) UpdateDisplayNameByName(c echo.Context) error {
	var req renameReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	if err := requireAdmin(h.Admins, req.AdminEmail); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	newName := strings.TrimSpace(req.NewDisplayName)
	if newName != "" {
		if existing, err := h.Users.GetByDisplayName(ctx, newName); err == nil {
			if existing.DisplayName != req.CurrentDisplayName {
				return fail(c, apperr.Conflict("New display name already exists. Please choose a different one."))
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return fail(c, err)
		}
	}
	u, err := h.Users.GetByDisplayName(ctx, req.CurrentDisplayName)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, apperr.NotFound("User with this display name not found."))
	}
	if err != nil {
		return fail(c, err)
	}
	if err := h.Users.SetDisplayName(ctx, u.UID, newName); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"message":        "Display name updated successfully",
		"userEmail":      u.Email,
		"oldDisplayName": req.CurrentDisplayName,
		"newDisplayName": req.NewDisplayName,
	})
}

// DeleteUserByName removes a user document. Operators cannot delete their
// own account through this route.
func (h *AdminHandler) DeleteUserByName(c echo.Context) error {
	var req deleteUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	if err := requireAdmin(h.Admins, req.AdminEmail); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByDisplayName(ctx, req.TargetDisplayName)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, apperr.NotFound("User with this display name not found."))
	}
	if err != nil {
		return fail(c, err)
	}
	if strings.EqualFold(u.Email, strings.TrimSpace(req.AdminEmail)) {
		return fail(c, apperr.Validation("Cannot delete your own account."))
	}
	if err := h.Users.Delete(ctx, u.UID); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"message":     "User deleted successfully",
		"deletedUser": u.Email,
	})
}

// UpdatePIN assigns the 4-digit PIN that gates point requests.
func (h *AdminHandler) UpdatePIN(c echo.Context) error {
	var req updatePinReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	if err := requireAdmin(h.Admins, req.AdminEmail); err != nil {
		return fail(c, err)
	}
	if !pinPattern.MatchString(req.NewPIN) {
		return fail(c, apperr.Validation("PIN must be exactly 4 digits"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByDisplayName(ctx, req.DisplayName)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, apperr.NotFound("User with this display name not found."))
	}
	if err != nil {
		return fail(c, err)
	}
	if err := h.Users.SetPIN(ctx, u.UID, req.NewPIN); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"message": fmt.Sprintf("PIN updated for %s", req.DisplayName),
	})
}

// ClearChat deletes chat messages older than seven days.
func (h *AdminHandler) ClearChat(c echo.Context) error {
	var req clearChatReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	if err := requireAdmin(h.Admins, req.AdminEmail); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	deleted, err := h.Chat.DeleteOlderThan(ctx, time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"message":      fmt.Sprintf("Deleted %d old chat messages", deleted),
		"deletedCount": deleted,
	})
}
