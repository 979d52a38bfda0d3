package models

// Vendor is a supplier the company owes money to. CurrentBalance is the
// running payable balance; only the payment workflow may change it.
type Vendor struct {
	Id             uint    `json:"id" gorm:"primaryKey"`
	CompanyId      string  `json:"-" gorm:"index;not null"`
	Name           string  `json:"name" gorm:"not null"`
	Address        string  `json:"address"`
	City           string  `json:"city"`
	Country        string  `json:"country"`
	Zip            string  `json:"zip"`
	Email          string  `json:"email" gorm:"not null"`
	PhoneNumber    string  `json:"phone_number"`
	MobileNumber   string  `json:"mobile_number"`
	UID            string  `json:"uid" gorm:"null"`
	CurrentBalance float64 `json:"current_balance" gorm:"type:numeric(12,2)"`
}
