package controllers

import (
	"errors"
	"fmt"
	"strings"

	"buchhaltung-backend/database"
	"buchhaltung-backend/middlewares"
	"buchhaltung-backend/models"
	"buchhaltung-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AccountInput struct {
	Code        string `json:"code" validate:"required,min=1,max=20"`
	Name        string `json:"name" validate:"required,min=1"`
	AccountType string `json:"account_type" validate:"omitempty,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
}

// AccountUpdateDTO has no current_balance: account balances move only through
// ledger postings.
type AccountUpdateDTO struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	AccountType *string `json:"account_type" validate:"omitempty,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	Active      *bool   `json:"active" validate:"omitempty"`
}

// POST /api/account (batch create)
func CreateAccounts(c *fiber.Ctx) error {
	var inputs []AccountInput
	if err := c.BodyParser(&inputs); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	db, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}
	companyID := database.CompanyID(c)

	var created []models.ChartOfAccount
	for i, input := range inputs {
		if err := middlewares.ValidateStruct(input); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid account at index %d", i))
		}

		account := models.ChartOfAccount{
			CompanyId:   companyID,
			Code:        strings.TrimSpace(input.Code),
			Name:        strings.TrimSpace(input.Name),
			AccountType: strings.TrimSpace(input.AccountType),
			Active:      true,
		}
		if err := db.Create(&account).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("could not create account at index %d", i))
		}
		created = append(created, account)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// GET /api/accounts
func GetAccounts(c *fiber.Ctx) error {
	db, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}

	var accounts []models.ChartOfAccount
	if err := db.Where("company_id = ?", database.CompanyID(c)).
		Order("code asc").Find(&accounts).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"accounts": accounts, "message": "success"})
}

// PUT /api/account/:id
func UpdateAccount(c *fiber.Ctx) error {
	id := utils.ParseIntDefault(c.Params("id"), 0)
	if id == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "missing account id in path")
	}

	var in AccountUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	db, err := database.Tx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db unavailable")
	}
	companyID := database.CompanyID(c)

	var existing models.ChartOfAccount
	if err := db.Where("id = ? AND company_id = ?", id, companyID).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "account not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) > 0 {
		if err := db.Model(&models.ChartOfAccount{}).
			Where("id = ? AND company_id = ?", id, companyID).
			Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update account")
		}
	}

	var out models.ChartOfAccount
	if err := db.Where("id = ? AND company_id = ?", id, companyID).First(&out).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload account")
	}
	return c.JSON(out)
}
