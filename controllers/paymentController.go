package controllers

import (
	"time"

	"buchhaltung-backend/database"
	"buchhaltung-backend/services"
	"buchhaltung-backend/utils"

	"github.com/gofiber/fiber/v2"
)

var paymentService = services.NewPaymentVoucherService("")

// InitPaymentService injects the configured payment account code (read from
// PAYMENT_ACCOUNT_CODE in main, after the .env is loaded).
func InitPaymentService(accountCode string) {
	paymentService = services.NewPaymentVoucherService(accountCode)
}

// PaymentCreateDTO carries raw values; all payment validation (required
// fields, positivity, due-amount ceiling) lives in the service so the two
// code paths can't drift.
type PaymentCreateDTO struct {
	InvoiceID       uint       `json:"invoiceId"`
	Amount          float64    `json:"amount"`
	PaymentDate     *time.Time `json:"paymentDate"`
	PaymentMethod   string     `json:"paymentMethod"`
	ReferenceNumber string     `json:"referenceNumber"`
	Notes           string     `json:"notes"`
}

// POST /api/purchases/payments
func CreatePayment(c *fiber.Ctx) error {
	var in PaymentCreateDTO
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	tx, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}

	voucher, err := paymentService.CreateVoucher(tx, database.CompanyID(c), services.CreateVoucherInput{
		InvoiceID:       in.InvoiceID,
		Amount:          in.Amount,
		PaymentDate:     in.PaymentDate,
		PaymentMethod:   in.PaymentMethod,
		ReferenceNumber: in.ReferenceNumber,
		Notes:           in.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(voucher)
}

// GET /api/purchases/payments?vendorId=&invoiceId=
func GetPayments(c *fiber.Ctx) error {
	tx, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}

	vendorID := uint(utils.ParseIntDefault(c.Query("vendorId"), 0))
	invoiceID := uint(utils.ParseIntDefault(c.Query("invoiceId"), 0))

	vouchers, err := paymentService.ListVouchers(tx, database.CompanyID(c), vendorID, invoiceID)
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(vouchers))
	for _, v := range vouchers {
		out = append(out, fiber.Map{
			"id":               v.ID,
			"voucher_number":   v.VoucherNumber,
			"amount":           v.Amount,
			"payment_date":     v.PaymentDate,
			"payment_method":   v.PaymentMethod,
			"reference_number": v.ReferenceNumber,
			"notes":            v.Notes,
			"vendor": fiber.Map{
				"id":   v.Vendor.Id,
				"name": v.Vendor.Name,
			},
			"invoice": fiber.Map{
				"id":             v.Invoice.ID,
				"invoice_number": v.Invoice.InvoiceNumber,
				"total_amount":   v.Invoice.TotalAmount,
				"due_amount":     v.Invoice.DueAmount,
			},
		})
	}
	return c.JSON(fiber.Map{"payments": out, "message": "success"})
}

// GET /api/purchases/payments/:id
func GetPayment(c *fiber.Ctx) error {
	id := utils.ParseIntDefault(c.Params("id"), 0)
	if id == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "missing payment id in path")
	}

	tx, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}

	voucher, err := paymentService.GetVoucher(tx, database.CompanyID(c), uint(id))
	if err != nil {
		return err
	}
	return c.JSON(voucher)
}

// DELETE /api/purchases/payments/:id
func DeletePayment(c *fiber.Ctx) error {
	id := utils.ParseIntDefault(c.Params("id"), 0)
	if id == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "missing payment id in path")
	}

	tx, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}

	userID, _ := c.Locals("userID").(string)
	if err := paymentService.DeleteVoucher(tx, database.CompanyID(c), uint(id), userID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Payment voucher deleted"})
}

// GET /api/purchases/payments/invoices?vendorId=
func GetInvoicesForPayment(c *fiber.Ctx) error {
	tx, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}

	vendorID := uint(utils.ParseIntDefault(c.Query("vendorId"), 0))
	invoices, err := paymentService.InvoicesForPayment(tx, database.CompanyID(c), vendorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"invoices": invoices, "message": "success"})
}
