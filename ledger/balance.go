package ledger

import (
	"buchhaltung-backend/models"
	"buchhaltung-backend/utils"
)

// Balances is the recomputed payment state of a purchase invoice.
type Balances struct {
	PaidAmount float64
	DueAmount  float64
	Status     models.InvoiceStatus
}

// ApplyPayment computes the invoice balances after applying a payment of
// amount. Pure: the invoice row is not touched. A zero (or negative) due
// means fully paid; overpayment never reaches this point because the
// coordinator rejects it against the due amount first.
func ApplyPayment(inv models.PurchaseInvoice, amount float64) Balances {
	paid := utils.AddMoney(inv.PaidAmount, amount)
	due := utils.SubMoney(inv.TotalAmount, paid)

	status := inv.Status
	switch {
	case due <= 0:
		status = models.InvoiceStatusPaid
	case paid > 0:
		status = models.InvoiceStatusPartiallyPaid
	}

	return Balances{PaidAmount: paid, DueAmount: due, Status: status}
}

// ReversePayment is the inverse of ApplyPayment. When no payments remain the
// invoice falls back to the RECEIVED baseline; an OVERDUE marking is owned by
// an external process and gets re-derived there.
func ReversePayment(inv models.PurchaseInvoice, amount float64) Balances {
	paid := utils.SubMoney(inv.PaidAmount, amount)
	due := utils.SubMoney(inv.TotalAmount, paid)

	var status models.InvoiceStatus
	switch {
	case due <= 0:
		status = models.InvoiceStatusPaid
	case paid > 0:
		status = models.InvoiceStatusPartiallyPaid
	default:
		status = models.InvoiceStatusReceived
	}

	return Balances{PaidAmount: paid, DueAmount: due, Status: status}
}
