package routes

import (
	"github.com/gofiber/fiber/v2"

	"buchhaltung-backend/controllers"
	"buchhaltung-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then the per-request transaction (commits/rolls back around the handler)
	protected.Use(middlewares.RequestTx())

	// Vendors
	protected.Post("/vendor", controllers.CreateVendor)
	protected.Get("/vendors", controllers.GetVendors)
	protected.Get("/vendor/:id", controllers.GetVendor)
	protected.Put("/vendor/:id", controllers.UpdateVendor)

	// Chart of accounts
	protected.Post("/account", controllers.CreateAccounts) // batch create
	protected.Get("/accounts", controllers.GetAccounts)
	protected.Put("/account/:id", controllers.UpdateAccount)

	// Purchase invoices
	protected.Post("/invoice", controllers.CreateInvoice)
	protected.Get("/invoices", controllers.GetInvoices)
	protected.Get("/invoice/:id", controllers.GetInvoice)

	// Payment vouchers (the transactional ledger core)
	protected.Get("/purchases/payments", controllers.GetPayments)
	protected.Get("/purchases/payments/invoices", controllers.GetInvoicesForPayment)
	protected.Get("/purchases/payments/:id", controllers.GetPayment)
	protected.Post("/purchases/payments", controllers.CreatePayment)
	protected.Delete("/purchases/payments/:id", controllers.DeletePayment)
}
