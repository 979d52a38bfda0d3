package middlewares

import (
	"buchhaltung-backend/database"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RequestTx opens a per-request DB transaction. Run AFTER
// IsAuthenticatedHeader() (so companyID/userID are present) and AFTER
// Idempotency() (so idempotency records aren't tied to the handler TX).
//
// This is the atomicity boundary of the payment workflow: every write a
// handler performs lands in this transaction, and the whole group commits or
// rolls back together, including when the handler panics or the client goes
// away mid-request.
func RequestTx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		if database.CompanyID(c) == "" {
			// Public endpoints (e.g., /login) carry no tenant; just proceed.
			return c.Next()
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				log.Error().Err(e).Msg("tx commit failed")
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		// Make the TX available to handlers via database.Tx(c).
		c.Locals("tx", tx)

		err = c.Next()
		return err
	}
}
