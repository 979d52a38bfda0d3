package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the tenant. Every business table carries its id; lookups must
// always filter by it.
type Company struct {
	Id          string `json:"id" gorm:"primaryKey"`
	CompanyName string `json:"company_name" gorm:"not null;unique"`
	Address     string `json:"address" gorm:"not null"`
	City        string `json:"city" gorm:"not null"`
	Country     string `json:"country" gorm:"not null"`
	Zip         string `json:"zip" gorm:"not null"`
	Homepage    string `json:"homepage" gorm:"null"`
	UID         string `json:"uid" gorm:"null"`
	ContactName string `json:"contact_name"`
	PhoneNumber string `json:"phone_number"`
}

func (company *Company) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	company.Id = uuid.NewString()
	return
}
