package controllers

import (
	"errors"
	"strings"
	"time"

	"buchhaltung-backend/database"
	"buchhaltung-backend/middlewares"
	"buchhaltung-backend/models"
	"buchhaltung-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type InvoiceItemDTO struct {
	Description string  `json:"description" validate:"omitempty"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"required,gt=0"`
}

type InvoiceCreateDTO struct {
	InvoiceNumber string           `json:"invoice_number" validate:"required,min=1"`
	VendorId      uint             `json:"vendor_id" validate:"required"`
	InvoiceDate   *time.Time       `json:"invoice_date" validate:"omitempty"`
	DueDate       *time.Time       `json:"due_date" validate:"omitempty"`
	Items         []InvoiceItemDTO `json:"items" validate:"required,min=1,dive"`
}

// POST /api/invoice
//
// Purchase invoices enter the system here with their initial values;
// paid_amount/due_amount/status are only ever mutated by the payment
// voucher workflow afterwards.
func CreateInvoice(c *fiber.Ctx) error {
	var in InvoiceCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}
	companyID := database.CompanyID(c)

	// The vendor reference must live in the same tenant.
	var vendor models.Vendor
	if err := db.Where("id = ? AND company_id = ?", in.VendorId, companyID).First(&vendor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "vendor not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	var items []models.PurchaseInvoiceItem
	var total float64
	for _, item := range in.Items {
		net := utils.MulMoney(float64(item.Quantity), item.UnitPrice)
		total = utils.AddMoney(total, net)
		items = append(items, models.PurchaseInvoiceItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   utils.Round2(item.UnitPrice),
			NetPrice:    net,
		})
	}

	now := time.Now()
	invoiceDate := now
	if in.InvoiceDate != nil {
		invoiceDate = *in.InvoiceDate
	}
	dueDate := now.AddDate(0, 1, 0) // default: net 30
	if in.DueDate != nil {
		dueDate = *in.DueDate
	}

	invoice := models.PurchaseInvoice{
		CompanyId:     companyID,
		InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
		VendorId:      in.VendorId,
		Items:         items,
		TotalAmount:   total,
		PaidAmount:    0,
		DueAmount:     total,
		Status:        models.InvoiceStatusReceived,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
	}

	if err := db.Create(&invoice).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create invoice")
	}

	invoice.Vendor = vendor
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GET /api/invoices?vendorId=
func GetInvoices(c *fiber.Ctx) error {
	db, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}

	q := db.Preload("Vendor").
		Where("company_id = ?", database.CompanyID(c)).
		Order("invoice_date desc")
	if vendorID := utils.ParseIntDefault(c.Query("vendorId"), 0); vendorID != 0 {
		q = q.Where("vendor_id = ?", vendorID)
	}

	var invoices []models.PurchaseInvoice
	if err := q.Find(&invoices).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"invoices": invoices, "message": "success"})
}

// GET /api/invoice/:id
func GetInvoice(c *fiber.Ctx) error {
	id := utils.ParseIntDefault(c.Params("id"), 0)
	if id == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "missing invoice id in path")
	}

	db, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}

	var invoice models.PurchaseInvoice
	if err := db.Preload("Vendor").Preload("Items").
		Where("id = ? AND company_id = ?", id, database.CompanyID(c)).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "invoice not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(invoice)
}
