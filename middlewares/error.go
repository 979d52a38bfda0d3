package middlewares

import (
	"errors"

	"buchhaltung-backend/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler centralizes error responses. Handlers and services return
// structured error kinds; the mapping to status codes lives only here.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Domain error kinds from the payment core
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": ve.Message})
	}
	var nfe *apperrors.NotFoundError
	if errors.As(err, &nfe) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": nfe.Error()})
	}
	var ire *apperrors.InvalidReferenceError
	if errors.As(err, &ire) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": ire.Error()})
	}
	var te *apperrors.TransactionError
	if errors.As(err, &te) {
		log.Error().Err(te).Str("op", te.Op).Msg("transaction failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}

	// 3) Request validation errors (422 + per-field info)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 4) Unknown errors (500)
	log.Error().Err(err).Msg("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
