package controllers

import (
	"errors"
	"strings"

	"buchhaltung-backend/database"
	"buchhaltung-backend/middlewares"
	"buchhaltung-backend/models"
	"buchhaltung-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type VendorCreateDTO struct {
	Name         string `json:"name" validate:"required,min=1"`
	Address      string `json:"address" validate:"omitempty"`
	City         string `json:"city" validate:"omitempty"`
	Country      string `json:"country" validate:"omitempty"`
	Zip          string `json:"zip" validate:"omitempty"`
	Email        string `json:"email" validate:"required,email"`
	PhoneNumber  string `json:"phone_number" validate:"omitempty"`
	MobileNumber string `json:"mobile_number" validate:"omitempty"`
	UID          string `json:"uid" validate:"omitempty"`
}

// VendorUpdateDTO deliberately has no current_balance field: the running
// payable is owned by the payment workflow and cannot be edited directly.
type VendorUpdateDTO struct {
	Name         *string `json:"name" validate:"omitempty,min=1"`
	Address      *string `json:"address" validate:"omitempty"`
	City         *string `json:"city" validate:"omitempty"`
	Country      *string `json:"country" validate:"omitempty"`
	Zip          *string `json:"zip" validate:"omitempty"`
	Email        *string `json:"email" validate:"omitempty,email"`
	PhoneNumber  *string `json:"phone_number" validate:"omitempty"`
	MobileNumber *string `json:"mobile_number" validate:"omitempty"`
	UID          *string `json:"uid" validate:"omitempty"`
}

// POST /api/vendor
func CreateVendor(c *fiber.Ctx) error {
	var in VendorCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}

	vendor := models.Vendor{
		CompanyId:    database.CompanyID(c),
		Name:         strings.TrimSpace(in.Name),
		Address:      strings.TrimSpace(in.Address),
		City:         strings.TrimSpace(in.City),
		Country:      strings.TrimSpace(in.Country),
		Zip:          strings.TrimSpace(in.Zip),
		Email:        strings.TrimSpace(in.Email),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		MobileNumber: strings.TrimSpace(in.MobileNumber),
		UID:          strings.TrimSpace(in.UID),
	}

	if err := db.Create(&vendor).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create vendor")
	}
	return c.Status(fiber.StatusCreated).JSON(vendor)
}

// GET /api/vendors
func GetVendors(c *fiber.Ctx) error {
	db, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}

	var vendors []models.Vendor
	if err := db.Where("company_id = ?", database.CompanyID(c)).
		Order("name asc").Find(&vendors).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"vendors": vendors, "message": "success"})
}

// GET /api/vendor/:id
func GetVendor(c *fiber.Ctx) error {
	id := utils.ParseIntDefault(c.Params("id"), 0)
	if id == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "missing vendor id in path")
	}

	db, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}

	var vendor models.Vendor
	if err := db.Where("id = ? AND company_id = ?", id, database.CompanyID(c)).
		First(&vendor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "vendor not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(vendor)
}

// PUT /api/vendor/:id
func UpdateVendor(c *fiber.Ctx) error {
	id := utils.ParseIntDefault(c.Params("id"), 0)
	if id == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "missing vendor id in path")
	}

	var in VendorUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	db, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}
	companyID := database.CompanyID(c)

	// Ensure exists
	var existing models.Vendor
	if err := db.Where("id = ? AND company_id = ?", id, companyID).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "vendor not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) > 0 {
		if err := db.Model(&models.Vendor{}).
			Where("id = ? AND company_id = ?", id, companyID).
			Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update vendor")
		}
	}

	var out models.Vendor
	if err := db.Where("id = ? AND company_id = ?", id, companyID).First(&out).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload vendor")
	}
	return c.JSON(out)
}
