package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eco-exchange/internal/api/http/handlers"
	"github.com/spec-kit/eco-exchange/internal/auth"
	"github.com/spec-kit/eco-exchange/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Listings       *handlers.ListingsHandler
	Market         *handlers.MarketHandler
	Entitlements   *handlers.EntitlementsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Accounts.Register)
	authGroup.Post("/login", cfg.Accounts.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Accounts.Me)

	listings := app.Group("/listings", cfg.AuthMiddleware.Handle)
	listings.Post("", auth.RequireRole(domain.RoleProducer), cfg.Listings.Create)
	listings.Get("/mine", auth.RequireRole(domain.RoleProducer), cfg.Listings.Mine)
	listings.Get("/available", auth.RequireRole(domain.RoleCollector), cfg.Listings.Available)
	listings.Get("/assigned", auth.RequireRole(domain.RoleCollector), cfg.Listings.Assigned)
	listings.Get("/stock", auth.RequireRole(domain.RoleCollector), cfg.Listings.Stock)
	listings.Post("/:id/accept", auth.RequireRole(domain.RoleCollector), cfg.Listings.Accept)
	listings.Post("/:id/start-pickup", auth.RequireRole(domain.RoleCollector), cfg.Listings.StartPickup)
	listings.Post("/:id/verify", auth.RequireRole(domain.RoleProducer), cfg.Listings.Verify)
	listings.Post("/:id/decline", auth.RequireRole(domain.RoleCollector), cfg.Listings.Decline)
	listings.Post("/:id/convert", auth.RequireRole(domain.RoleCollector), cfg.Listings.Convert)

	collectors := app.Group("/collectors", cfg.AuthMiddleware.Handle)
	collectors.Put("/me/position", auth.RequireRole(domain.RoleCollector), cfg.Listings.UpdatePosition)

	market := app.Group("/market", cfg.AuthMiddleware.Handle)
	market.Get("/purchases", auth.RequireRole(domain.RoleBuyer), cfg.Market.Purchases)

	items := market.Group("/items")
	items.Get("", auth.RequireAnyRole(), cfg.Market.Browse)
	items.Post("", auth.RequireRole(domain.RoleCollector), cfg.Market.Create)
	items.Get("/mine", auth.RequireRole(domain.RoleCollector), cfg.Market.Mine)
	items.Post("/:id/purchase", auth.RequireRole(domain.RoleBuyer), cfg.Market.Purchase)
	items.Post("/:id/advance-delivery", auth.RequireRole(domain.RoleCollector), cfg.Market.AdvanceDelivery)
	items.Post("/:id/confirm-delivery", auth.RequireRole(domain.RoleBuyer), cfg.Market.ConfirmDelivery)

	entitlements := app.Group("/entitlements", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	entitlements.Get("/me", cfg.Entitlements.Me)
	entitlements.Post("/grant", cfg.Entitlements.Grant)
	entitlements.Post("/cancel", cfg.Entitlements.Cancel)
}
