package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"buchhaltung-backend/apperrors"
	"buchhaltung-backend/ledger"
	"buchhaltung-backend/models"
	"buchhaltung-backend/utils"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	voucherSequenceName = "PV"
	// casAttempts bounds the compare-and-set retry loop on the invoice row.
	casAttempts = 3
)

// PaymentVoucherService coordinates the atomic payment unit of work:
// voucher insert, invoice balance update, vendor balance adjust, ledger
// posting and payment-account adjust, all against the caller's transaction.
// It is the only mutator of PaidAmount/DueAmount/Status and of the running
// balances; handlers pass the per-request TX, tests pass their own.
type PaymentVoucherService struct {
	// PaymentAccountCode designates the cash/bank account credited by
	// payments. Configuration, not a magic constant (PAYMENT_ACCOUNT_CODE).
	PaymentAccountCode string
}

func NewPaymentVoucherService(paymentAccountCode string) *PaymentVoucherService {
	if paymentAccountCode == "" {
		paymentAccountCode = "1100"
	}
	return &PaymentVoucherService{PaymentAccountCode: paymentAccountCode}
}

// CreateVoucherInput carries raw field values from the boundary.
type CreateVoucherInput struct {
	InvoiceID       uint
	Amount          float64
	PaymentDate     *time.Time
	PaymentMethod   string
	ReferenceNumber string
	Notes           string
}

// CreateVoucher validates the payment, then applies all five effects inside
// tx. Validation happens before any write; once writing starts, any failure
// surfaces as a TransactionError and the caller's rollback discards the
// partial state.
func (s *PaymentVoucherService) CreateVoucher(tx *gorm.DB, companyID string, in CreateVoucherInput) (*models.PaymentVoucher, error) {
	if in.InvoiceID == 0 {
		return nil, apperrors.NewValidation("invoice_id", "invoice_id is required")
	}
	amount := utils.Round2(in.Amount)
	if amount <= 0 {
		return nil, apperrors.NewValidation("amount", "Payment amount must be positive, got %.2f", in.Amount)
	}

	var inv models.PurchaseInvoice
	if err := tx.Where("id = ? AND company_id = ?", in.InvoiceID, companyID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.InvalidReferenceError{Entity: "invoice", ID: fmt.Sprint(in.InvoiceID)}
		}
		return nil, apperrors.NewTransaction("invoice lookup", err)
	}
	if amount > inv.DueAmount {
		return nil, apperrors.NewValidation("amount",
			"Payment amount (%.2f) exceeds due amount (%.2f)", amount, inv.DueAmount)
	}

	var vendor models.Vendor
	if err := tx.Where("id = ? AND company_id = ?", inv.VendorId, companyID).First(&vendor).Error; err != nil {
		return nil, apperrors.NewTransaction("vendor lookup", err)
	}

	// 1. Allocate the next voucher number from the per-company sequence.
	voucherNumber, err := s.nextVoucherNumber(tx, companyID)
	if err != nil {
		return nil, err
	}

	// 2. Insert the voucher. VendorId is copied from the invoice, not
	// re-derived from the request.
	paymentDate := time.Now()
	if in.PaymentDate != nil && !in.PaymentDate.IsZero() {
		paymentDate = *in.PaymentDate
	}
	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentMethodDefault
	}
	voucher := models.PaymentVoucher{
		CompanyId:       companyID,
		VoucherNumber:   voucherNumber,
		InvoiceID:       inv.ID,
		VendorId:        inv.VendorId,
		Amount:          amount,
		PaymentDate:     paymentDate,
		PaymentMethod:   method,
		ReferenceNumber: in.ReferenceNumber,
		Notes:           in.Notes,
	}
	if err := tx.Create(&voucher).Error; err != nil {
		return nil, apperrors.NewTransaction("voucher insert", err)
	}

	// 3. Recompute and store the invoice balances.
	if err := s.applyToInvoice(tx, companyID, &inv, amount); err != nil {
		return nil, err
	}

	// 4. The payable shrinks by exactly the payment amount.
	if err := adjustVendorBalance(tx, companyID, inv.VendorId, -amount); err != nil {
		return nil, err
	}

	// 5. Post the ledger entry against the designated payment account.
	// A tenant without that account gets no posting (documented soft-fail).
	var account models.ChartOfAccount
	err = tx.Where("company_id = ? AND code = ?", companyID, s.PaymentAccountCode).First(&account).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Warn().
			Str("company_id", companyID).
			Str("account_code", s.PaymentAccountCode).
			Str("voucher_number", voucherNumber).
			Msg("payment account missing, skipping ledger entry")
	case err != nil:
		return nil, apperrors.NewTransaction("payment account lookup", err)
	default:
		entry := models.LedgerEntry{
			CompanyId:     companyID,
			AccountID:     account.ID,
			Date:          paymentDate,
			EntryType:     models.EntryTypeCredit,
			Amount:        amount,
			Narration:     fmt.Sprintf("Payment voucher %s to %s against invoice %s", voucherNumber, vendor.Name, inv.InvoiceNumber),
			ReferenceType: models.ReferenceTypePaymentVoucher,
			ReferenceID:   voucher.ID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return nil, apperrors.NewTransaction("ledger entry insert", err)
		}
		if err := adjustAccountBalance(tx, companyID, account.ID, -amount); err != nil {
			return nil, err
		}
	}

	// Return the voucher with relations populated.
	var out models.PaymentVoucher
	if err := tx.Preload("Vendor").Preload("Invoice").
		Where("id = ? AND company_id = ?", voucher.ID, companyID).First(&out).Error; err != nil {
		return nil, apperrors.NewTransaction("voucher reload", err)
	}
	return &out, nil
}

// DeleteVoucher voids a payment voucher, reversing every effect of its
// creation: invoice balances, vendor balance, the voucher's ledger entries
// and the payment account balance. A JSON snapshot of the voucher and its
// entries is written to the audit log before anything is removed.
func (s *PaymentVoucherService) DeleteVoucher(tx *gorm.DB, companyID string, voucherID uint, userID string) error {
	var voucher models.PaymentVoucher
	if err := tx.Where("id = ? AND company_id = ?", voucherID, companyID).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperrors.NotFoundError{Entity: "payment voucher", ID: fmt.Sprint(voucherID)}
		}
		return apperrors.NewTransaction("voucher lookup", err)
	}

	var inv models.PurchaseInvoice
	if err := tx.Where("id = ? AND company_id = ?", voucher.InvoiceID, companyID).First(&inv).Error; err != nil {
		return apperrors.NewTransaction("invoice lookup", err)
	}

	var entries []models.LedgerEntry
	if err := tx.Where("company_id = ? AND reference_type = ? AND reference_id = ?",
		companyID, models.ReferenceTypePaymentVoucher, voucher.ID).Find(&entries).Error; err != nil {
		return apperrors.NewTransaction("ledger entry lookup", err)
	}

	// Snapshot before removal: the ledger entries are about to be deleted,
	// so the audit row is the surviving trail of the void.
	snapshot, err := json.Marshal(map[string]any{
		"voucher":        voucher,
		"ledger_entries": entries,
	})
	if err != nil {
		return apperrors.NewTransaction("audit snapshot", err)
	}
	audit := models.AuditLog{
		CompanyId:  companyID,
		Action:     "VOUCHER_VOIDED",
		EntityType: "payment_voucher",
		EntityID:   voucher.ID,
		Snapshot:   snapshot,
		UserID:     userID,
	}
	if err := tx.Create(&audit).Error; err != nil {
		return apperrors.NewTransaction("audit insert", err)
	}

	// Reverse the invoice balances.
	if err := s.reverseOnInvoice(tx, companyID, &inv, voucher.Amount); err != nil {
		return err
	}

	// The payable grows back by exactly the voucher amount.
	if err := adjustVendorBalance(tx, companyID, voucher.VendorId, voucher.Amount); err != nil {
		return err
	}

	// Restore the payment account and drop the voucher's entries so creation
	// and reversal stay symmetric.
	for _, entry := range entries {
		restore := entry.Amount
		if entry.EntryType == models.EntryTypeDebit {
			restore = -restore
		}
		if err := adjustAccountBalance(tx, companyID, entry.AccountID, restore); err != nil {
			return err
		}
	}
	if len(entries) > 0 {
		if err := tx.Where("company_id = ? AND reference_type = ? AND reference_id = ?",
			companyID, models.ReferenceTypePaymentVoucher, voucher.ID).
			Delete(&models.LedgerEntry{}).Error; err != nil {
			return apperrors.NewTransaction("ledger entry delete", err)
		}
	}

	if err := tx.Where("id = ? AND company_id = ?", voucher.ID, companyID).
		Delete(&models.PaymentVoucher{}).Error; err != nil {
		return apperrors.NewTransaction("voucher delete", err)
	}
	return nil
}

// ListVouchers returns the tenant's vouchers, newest payment first,
// optionally filtered by vendor and/or invoice.
func (s *PaymentVoucherService) ListVouchers(tx *gorm.DB, companyID string, vendorID, invoiceID uint) ([]models.PaymentVoucher, error) {
	q := tx.Preload("Vendor").Preload("Invoice").
		Where("company_id = ?", companyID).
		Order("payment_date desc")
	if vendorID != 0 {
		q = q.Where("vendor_id = ?", vendorID)
	}
	if invoiceID != 0 {
		q = q.Where("invoice_id = ?", invoiceID)
	}
	var vouchers []models.PaymentVoucher
	if err := q.Find(&vouchers).Error; err != nil {
		return nil, apperrors.NewTransaction("voucher list", err)
	}
	return vouchers, nil
}

// GetVoucher returns one voucher with vendor and full invoice (items).
func (s *PaymentVoucherService) GetVoucher(tx *gorm.DB, companyID string, voucherID uint) (*models.PaymentVoucher, error) {
	var voucher models.PaymentVoucher
	err := tx.Preload("Vendor").Preload("Invoice").Preload("Invoice.Items").
		Where("id = ? AND company_id = ?", voucherID, companyID).First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Entity: "payment voucher", ID: fmt.Sprint(voucherID)}
		}
		return nil, apperrors.NewTransaction("voucher lookup", err)
	}
	return &voucher, nil
}

// InvoicesForPayment returns invoices still carrying a due balance, oldest
// due date first. Fully paid invoices and statuses outside the payable set
// never appear.
func (s *PaymentVoucherService) InvoicesForPayment(tx *gorm.DB, companyID string, vendorID uint) ([]models.PurchaseInvoice, error) {
	q := tx.Preload("Vendor").
		Where("company_id = ? AND due_amount > 0 AND status IN ?", companyID, []models.InvoiceStatus{
			models.InvoiceStatusReceived,
			models.InvoiceStatusPartiallyPaid,
			models.InvoiceStatusOverdue,
		}).
		Order("due_date asc")
	if vendorID != 0 {
		q = q.Where("vendor_id = ?", vendorID)
	}
	var invoices []models.PurchaseInvoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, apperrors.NewTransaction("invoice list", err)
	}
	return invoices, nil
}

// applyToInvoice stores the post-payment balances with a compare-and-set on
// the observed paid_amount. Under read-committed isolation two concurrent
// payments re-reading a stale due amount cannot both land: the loser's CAS
// misses, re-reads the committed row and re-validates against the real due.
func (s *PaymentVoucherService) applyToInvoice(tx *gorm.DB, companyID string, inv *models.PurchaseInvoice, amount float64) error {
	for attempt := 0; attempt < casAttempts; attempt++ {
		next := ledger.ApplyPayment(*inv, amount)
		res := tx.Model(&models.PurchaseInvoice{}).
			Where("id = ? AND company_id = ? AND paid_amount = ?", inv.ID, companyID, inv.PaidAmount).
			Updates(map[string]any{
				"paid_amount": next.PaidAmount,
				"due_amount":  next.DueAmount,
				"status":      next.Status,
			})
		if res.Error != nil {
			return apperrors.NewTransaction("invoice update", res.Error)
		}
		if res.RowsAffected == 1 {
			inv.PaidAmount = next.PaidAmount
			inv.DueAmount = next.DueAmount
			inv.Status = next.Status
			return nil
		}
		// Lost the race: re-read the committed row and re-validate.
		if err := tx.Where("id = ? AND company_id = ?", inv.ID, companyID).First(inv).Error; err != nil {
			return apperrors.NewTransaction("invoice re-read", err)
		}
		if amount > inv.DueAmount {
			return apperrors.NewValidation("amount",
				"Payment amount (%.2f) exceeds due amount (%.2f)", amount, inv.DueAmount)
		}
	}
	return apperrors.NewTransaction("invoice update", errConcurrentUpdate)
}

// reverseOnInvoice is the CAS mirror of applyToInvoice for voiding.
func (s *PaymentVoucherService) reverseOnInvoice(tx *gorm.DB, companyID string, inv *models.PurchaseInvoice, amount float64) error {
	for attempt := 0; attempt < casAttempts; attempt++ {
		next := ledger.ReversePayment(*inv, amount)
		res := tx.Model(&models.PurchaseInvoice{}).
			Where("id = ? AND company_id = ? AND paid_amount = ?", inv.ID, companyID, inv.PaidAmount).
			Updates(map[string]any{
				"paid_amount": next.PaidAmount,
				"due_amount":  next.DueAmount,
				"status":      next.Status,
			})
		if res.Error != nil {
			return apperrors.NewTransaction("invoice update", res.Error)
		}
		if res.RowsAffected == 1 {
			inv.PaidAmount = next.PaidAmount
			inv.DueAmount = next.DueAmount
			inv.Status = next.Status
			return nil
		}
		if err := tx.Where("id = ? AND company_id = ?", inv.ID, companyID).First(inv).Error; err != nil {
			return apperrors.NewTransaction("invoice re-read", err)
		}
	}
	return apperrors.NewTransaction("invoice update", errConcurrentUpdate)
}

var errConcurrentUpdate = errors.New("concurrent invoice update, retries exhausted")

// adjustVendorBalance shifts the vendor's running payable by delta (negative
// on payment, positive on void). The increment runs in SQL so concurrent
// vouchers for the same vendor compose instead of clobbering.
func adjustVendorBalance(tx *gorm.DB, companyID string, vendorID uint, delta float64) error {
	res := tx.Model(&models.Vendor{}).
		Where("id = ? AND company_id = ?", vendorID, companyID).
		UpdateColumn("current_balance", gorm.Expr("current_balance + ?", delta))
	if res.Error != nil {
		return apperrors.NewTransaction("vendor balance update", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewTransaction("vendor balance update", gorm.ErrRecordNotFound)
	}
	return nil
}

func adjustAccountBalance(tx *gorm.DB, companyID string, accountID uint, delta float64) error {
	res := tx.Model(&models.ChartOfAccount{}).
		Where("id = ? AND company_id = ?", accountID, companyID).
		UpdateColumn("current_balance", gorm.Expr("current_balance + ?", delta))
	if res.Error != nil {
		return apperrors.NewTransaction("account balance update", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewTransaction("account balance update", gorm.ErrRecordNotFound)
	}
	return nil
}

// nextVoucherNumber increments the per-company sequence row inside tx and
// formats the allocated number (PV-00001). The row lock taken by the UPDATE
// serializes concurrent allocations; a later rollback may leave a gap but
// never a duplicate.
func (s *PaymentVoucherService) nextVoucherNumber(tx *gorm.DB, companyID string) (string, error) {
	res := tx.Model(&models.VoucherSequence{}).
		Where("company_id = ? AND name = ?", companyID, voucherSequenceName).
		UpdateColumn("next_number", gorm.Expr("next_number + 1"))
	if res.Error != nil {
		return "", apperrors.NewTransaction("voucher sequence update", res.Error)
	}
	if res.RowsAffected == 0 {
		// First voucher for this tenant: seed the row lazily. A concurrent
		// seed loses on the unique index; fall back to the increment.
		seq := models.VoucherSequence{CompanyId: companyID, Name: voucherSequenceName, NextNumber: 2}
		if err := tx.Create(&seq).Error; err == nil {
			return fmt.Sprintf("PV-%05d", 1), nil
		}
		res = tx.Model(&models.VoucherSequence{}).
			Where("company_id = ? AND name = ?", companyID, voucherSequenceName).
			UpdateColumn("next_number", gorm.Expr("next_number + 1"))
		if res.Error != nil {
			return "", apperrors.NewTransaction("voucher sequence seed", res.Error)
		}
		if res.RowsAffected == 0 {
			return "", apperrors.NewTransaction("voucher sequence seed", errConcurrentUpdate)
		}
	}

	var seq models.VoucherSequence
	if err := tx.Where("company_id = ? AND name = ?", companyID, voucherSequenceName).First(&seq).Error; err != nil {
		return "", apperrors.NewTransaction("voucher sequence read", err)
	}
	return fmt.Sprintf("PV-%05d", seq.NextNumber-1), nil
}
