package database

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Tx returns the *gorm.DB the handler must use. Prefer the per-request
// transaction (middlewares.RequestTx); fall back to a plain session for
// handlers running outside one. Tenant scoping happens per query via
// CompanyID; never query a business table without it.
func Tx(c *fiber.Ctx) (*gorm.DB, error) {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx, nil
		}
	}
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	return DB.Session(&gorm.Session{}), nil
}

// CompanyID returns the authenticated tenant id stashed by the auth
// middleware, or "" when the request is unauthenticated.
func CompanyID(c *fiber.Ctx) string {
	id, _ := c.Locals("companyID").(string)
	return strings.TrimSpace(id)
}
