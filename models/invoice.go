package models

import "time"

// InvoiceStatus follows the purchase invoice through its payment lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusReceived      InvoiceStatus = "RECEIVED"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
)

// PurchaseInvoice is a bill owed to a vendor. TotalAmount is fixed at
// creation; PaidAmount/DueAmount/Status are mutated only by the payment
// voucher workflow, inside its transaction. paid + due == total always.
type PurchaseInvoice struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	CompanyId     string `json:"-" gorm:"index;not null"`
	InvoiceNumber string `json:"invoice_number" gorm:"not null"`
	VendorId      uint   `json:"vendor_id" gorm:"index;not null"`
	Vendor        Vendor `json:"vendor" gorm:"foreignKey:VendorId;references:Id"`

	Items []PurchaseInvoiceItem `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`

	TotalAmount float64       `json:"total_amount" gorm:"type:numeric(12,2)"`
	PaidAmount  float64       `json:"paid_amount" gorm:"type:numeric(12,2)"`
	DueAmount   float64       `json:"due_amount" gorm:"type:numeric(12,2)"`
	Status      InvoiceStatus `json:"status" gorm:"type:VARCHAR(20);default:'RECEIVED'"`

	InvoiceDate time.Time `json:"invoice_date"`
	DueDate     time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
}

type PurchaseInvoiceItem struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	InvoiceID   uint    `json:"-" gorm:"index"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price" gorm:"type:numeric(12,2)"`
	NetPrice    float64 `json:"net_price" gorm:"type:numeric(12,2)"`
}
