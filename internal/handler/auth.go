package handler

import (
	"errors"
	"net/http"
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

// AuthHandler bundles dependencies for signup/login endpoints.
type AuthHandler struct {
	Identity identity.Provider
	Users    *repository.UserRepo
	Admins   auth.Policy
}

func NewAuthHandler(idp identity.Provider, users *repository.UserRepo, admins auth.Policy) *AuthHandler {
	return &AuthHandler{Identity: idp, Users: users, Admins: admins}
}

// ----- DTOs -----

type signupReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}
type userLoginReq struct {
	DisplayName string `json:"displayName"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type logoutReq struct {
	Token string `json:"token"`
}

// Signup creates a self-service account with one seed point and no PIN.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
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

// UserLogin is the display-name-only path for regular users. The admin
// identity is rejected here and must use the email+password route.
func (h *AuthHandler) UserLogin(c echo.Context) error {
	var req userLoginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return fail(c, apperr.Validation("Display name is required"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByDisplayName(ctx, req.DisplayName)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, apperr.NotFound("User with this display name not found"))
	}
	if err != nil {
		return fail(c, err)
	}
	if h.Admins.IsAdmin(u.Email) {
		return fail(c, apperr.Forbidden("Admin must use email and password login"))
	}
	return respond(c, http.StatusOK, echo.Map{
		"message": "Login successful",
		"user": echo.Map{
			"uid":         u.UID,
			"email":       u.Email,
			"displayName": u.DisplayName,
			"points":      u.Points,
			"lastLogin":   time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Login is the email+password path used by the admin.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("invalid body"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Identity.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	displayName := ""
	if u, err := h.Users.GetByID(ctx, sess.UID); err == nil {
		displayName = u.DisplayName
	}
	return respond(c, http.StatusOK, echo.Map{
		"message": "Login successful",
		"token":   sess.Token,
		"user": echo.Map{
			"uid":         sess.UID,
			"email":       strings.ToLower(strings.TrimSpace(req.Email)),
			"displayName": displayName,
			"lastLogin":   time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Logout revokes the supplied session token. A missing token is not an
// error: logging out of nothing succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	_ = c.Bind(&req)
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Identity.InvalidateSession(ctx, req.Token); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{"message": "Logout successful"})
}
