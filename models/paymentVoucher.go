package models

import "time"

const PaymentMethodDefault = "BANK_TRANSFER"

// PaymentVoucher records one payment against a purchase invoice. Vouchers are
// never edited in place; a wrong voucher is voided (deleted), which reverses
// all its balance effects in the same transaction.
type PaymentVoucher struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	CompanyId     string `json:"-" gorm:"not null;uniqueIndex:idx_vouchers_company_number,priority:1"`
	VoucherNumber string `json:"voucher_number" gorm:"not null;uniqueIndex:idx_vouchers_company_number,priority:2"`

	InvoiceID uint            `json:"invoice_id" gorm:"index;not null"`
	Invoice   PurchaseInvoice `json:"invoice" gorm:"foreignKey:InvoiceID;references:ID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	// Copied from the invoice at creation time, not re-derived.
	VendorId uint   `json:"vendor_id" gorm:"index;not null"`
	Vendor   Vendor `json:"vendor" gorm:"foreignKey:VendorId;references:Id"`

	Amount          float64   `json:"amount" gorm:"type:numeric(12,2);not null"`
	PaymentDate     time.Time `json:"payment_date" gorm:"index"`
	PaymentMethod   string    `json:"payment_method"`
	ReferenceNumber string    `json:"reference_number"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
}

// VoucherSequence hands out per-company voucher numbers. The row is updated
// with an atomic increment inside the voucher transaction, so numbers cannot
// duplicate; a rolled-back voucher may leave a gap.
type VoucherSequence struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	CompanyId  string `json:"-" gorm:"not null;uniqueIndex:idx_sequences_company_name,priority:1"`
	Name       string `json:"name" gorm:"size:20;not null;uniqueIndex:idx_sequences_company_name,priority:2"`
	NextNumber int64  `json:"next_number" gorm:"not null;default:1"`
}
