// Package router defines how HTTP routes are registered for the API. Route
// paths are kept byte-for-byte compatible with the clients that already
// exist, which is why admin routes take adminEmail in the payload instead
// of a header.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mahmodz/points-rank-server/internal/handler"
)

// RegisterRoutes registers routes that need no handler state. Currently
// that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the signup/login routes. The rate limiter guards
// signup; login routes stay unthrottled so a noisy neighbour cannot lock
// the operator out.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rl echo.MiddlewareFunc) {
	e.POST("/signup", a.Signup, rl)
	e.POST("/user-login", a.UserLogin)
	e.POST("/login", a.Login)
	e.POST("/logout", a.Logout)
}

// RegisterProfile wires the self-service profile routes.
func RegisterProfile(e *echo.Echo, p *handler.ProfileHandler) {
	e.GET("/profile/:uid", p.Get)
	e.PUT("/profile/:uid", p.Update)
}

// RegisterAdmin wires the operator-only user administration routes. Each
// handler performs its own policy check because the admin identity
// travels in the request payload.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler) {
	e.POST("/admin/create-user", a.CreateUser)
	e.GET("/admin/users", a.ListUsers)
	e.PUT("/admin/update-points", a.UpdatePoints)
	e.PUT("/admin/update-points-by-name", a.UpdatePointsByName)
	e.PUT("/admin/update-display-name-by-name", a.UpdateDisplayNameByName)
	e.DELETE("/admin/delete-user-by-name", a.DeleteUserByName)
	e.PUT("/admin/update-pin", a.UpdatePIN)
	e.POST("/admin/clear-chat", a.ClearChat)
}

// RegisterRanks wires the temporary-rank ledger routes.
func RegisterRanks(e *echo.Echo, r *handler.RankHandler) {
	e.POST("/buy-temp-rank", r.Buy)
	e.GET("/get-temp-rank/:userId", r.Get)
	e.POST("/cleanup-expired-temp-ranks", r.Cleanup)
	e.GET("/admin/active-temp-ranks", r.Active)
	e.GET("/admin/temp-ranks", r.All)
}

// RegisterPoints wires the point-request arbiter routes. The rate limiter
// guards submission; polling and admin routes stay unthrottled.
func RegisterPoints(e *echo.Echo, p *handler.PointsHandler, rl echo.MiddlewareFunc) {
	e.POST("/request-points", p.Request, rl)
	e.GET("/check-request-status", p.CheckStatus)
	e.GET("/admin/point-requests", p.AdminList)
	e.POST("/admin/respond-point-request", p.Respond)
}
