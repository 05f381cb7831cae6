// Package router wires handlers to routes and applies the middleware
// chain: JWT auth on user-facing endpoints, role checks per group, a
// shared cron token on the job triggers and Redis-backed caching on the
// public schedule.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/lunafit/studio-booking/internal/config"
	"github.com/lunafit/studio-booking/internal/handler"
	"github.com/lunafit/studio-booking/internal/middleware"
	"github.com/lunafit/studio-booking/internal/model"
)

// Deps bundles everything the route table needs.
type Deps struct {
	Cfg      config.Config
	Redis    *redis.Client // nil disables caching and rate limiting
	Auth     *handler.AuthHandler
	Profile  *handler.ProfileHandler
	Packages *handler.PackageHandler
	Classes  *handler.ClassHandler
	Bookings *handler.BookingHandler
	Purchase *handler.PurchaseHandler
	Webhook  *handler.WebhookHandler
	Jobs     *handler.JobHandler
}

// Register sets up the full route table on e.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	if d.Redis != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis))
	}

	// Session endpoints; no access token required.
	auth := e.Group("/v1/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/refresh-access", d.Auth.RefreshAccess)
	auth.POST("/logout", d.Auth.Logout)

	// The gateway posts payment callbacks here; it cannot carry a user
	// token, idempotency is the defense instead.
	e.POST("/v1/orders/webhook", d.Webhook.Receive)

	// External cron triggers, gated by the shared token. GET because
	// external schedulers commonly only speak plain GET probes; the
	// sweeps themselves are idempotent by flag.
	cron := e.Group("/v1/cron", middleware.CronToken(d.Cfg.CronToken))
	cron.GET("/package-expiry-reminder", d.Jobs.SweepPackages)
	cron.GET("/send-class-reminders", d.Jobs.SweepReminders)

	// Public schedule browse, cached when Redis is up.
	browse := e.Group("/v1/classes")
	if d.Redis != nil {
		browse.Use(middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis))
	}
	browse.GET("", d.Classes.List)
	browse.GET("/:id", d.Classes.Get)

	// Everything below requires a valid access token.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(d.Cfg.JWTSecret))
	v1.Use(middleware.RequireRole(model.RoleClient, model.RoleInstructor, model.RoleAdmin))

	v1.GET("/me", d.Auth.Me)
	v1.PUT("/me/profile", d.Profile.UpdateProfile)
	v1.GET("/me/packages", d.Purchase.ListMine)
	v1.GET("/me/orders", d.Purchase.ListOrders)

	v1.GET("/packages", d.Packages.List)
	v1.POST("/packages/:id/purchase", d.Purchase.Checkout)

	v1.POST("/classes/:id/bookings", d.Bookings.Create)
	v1.GET("/bookings", d.Bookings.ListMine)
	v1.POST("/bookings/:id/cancel", d.Bookings.Cancel)

	// Instructor surface: rosters, walk-ins and attendance.
	staffOnly := middleware.RequireRole(model.RoleInstructor, model.RoleAdmin)
	v1.GET("/classes/:id/bookings", d.Bookings.ListByClass, staffOnly)
	v1.POST("/classes/:id/walkins", d.Bookings.CreateWalkIn, staffOnly)
	v1.PUT("/bookings/:id/attendance", d.Bookings.MarkAttendance, staffOnly)

	// Admin surface.
	admin := v1.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/users", d.Profile.CreateStaff)
	admin.PUT("/users/:id/deactivate", d.Profile.SetDeactivated)
	admin.DELETE("/users/:id", d.Profile.Delete)
	admin.GET("/clients/search", d.Profile.SearchClients)

	admin.POST("/packages", d.Packages.Create)
	admin.PUT("/packages/:id", d.Packages.Update)
	admin.DELETE("/packages/:id", d.Packages.Delete)

	admin.POST("/classes", d.Classes.Create)
	admin.PUT("/classes/:id", d.Classes.Update)
	admin.DELETE("/classes/:id", d.Classes.Delete)

	admin.POST("/clients/:id/packages", d.Purchase.CashGrant)
	admin.PUT("/client-packages/:id", d.Purchase.AdminUpdate)
}
