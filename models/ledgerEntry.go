package models

import "time"

type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

const ReferenceTypePaymentVoucher = "PAYMENT_VOUCHER"

// LedgerEntry is one immutable posting against a chart-of-accounts row.
// Entries are never updated; voiding the source voucher removes its entries
// together with the voucher, inside the same transaction.
type LedgerEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CompanyId string    `json:"-" gorm:"index;not null"`
	AccountID uint      `json:"account_id" gorm:"index;not null"`
	Date      time.Time `json:"date" gorm:"not null"`
	EntryType EntryType `json:"entry_type" gorm:"type:VARCHAR(10);not null"`
	Amount    float64   `json:"amount" gorm:"type:numeric(12,2);not null"` // positive magnitude
	Narration string    `json:"narration"`
	// Links the entry back to the workflow that produced it.
	ReferenceType string    `json:"reference_type" gorm:"size:40;index:idx_ledger_reference,priority:1"`
	ReferenceID   uint      `json:"reference_id" gorm:"index:idx_ledger_reference,priority:2"`
	CreatedAt     time.Time `json:"created_at"`
}
