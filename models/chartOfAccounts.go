package models

// ChartOfAccount is one account in the company's chart. The designated
// cash/bank payment account (code from PAYMENT_ACCOUNT_CODE, default 1100)
// absorbs the credit side of every payment voucher.
type ChartOfAccount struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	CompanyId      string  `json:"-" gorm:"not null;uniqueIndex:idx_accounts_company_code,priority:1"`
	Code           string  `json:"code" gorm:"size:20;not null;uniqueIndex:idx_accounts_company_code,priority:2"`
	Name           string  `json:"name" gorm:"not null"`
	AccountType    string  `json:"account_type" gorm:"size:30"` // ASSET, LIABILITY, ...
	CurrentBalance float64 `json:"current_balance" gorm:"type:numeric(12,2)"`
	Active         bool    `json:"-" gorm:"default:true"`
}
