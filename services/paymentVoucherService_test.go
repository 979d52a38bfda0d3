package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"buchhaltung-backend/apperrors"
	"buchhaltung-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Company{},
		&models.Vendor{},
		&models.PurchaseInvoice{},
		&models.PurchaseInvoiceItem{},
		&models.PaymentVoucher{},
		&models.VoucherSequence{},
		&models.LedgerEntry{},
		&models.ChartOfAccount{},
		&models.AuditLog{},
	))
	return db
}

type fixture struct {
	companyID string
	vendor    models.Vendor
	invoice   models.PurchaseInvoice
	account   models.ChartOfAccount
}

// seedFixture creates a tenant with one vendor, one open invoice and the
// default payment account (1100, starting balance 5000).
func seedFixture(t *testing.T, db *gorm.DB, total float64) fixture {
	t.Helper()

	company := models.Company{
		CompanyName: "Musterfirma GmbH",
		Address:     "Bahnhofstrasse 1",
		City:        "Zuerich",
		Country:     "CH",
		Zip:         "8000",
	}
	require.NoError(t, db.Create(&company).Error)

	vendor := models.Vendor{
		CompanyId: company.Id,
		Name:      "Schraubenhandel Nord",
		Email:     "ap@schrauben.example",
	}
	require.NoError(t, db.Create(&vendor).Error)

	now := time.Now()
	invoice := models.PurchaseInvoice{
		CompanyId:     company.Id,
		InvoiceNumber: "RE-2026-001",
		VendorId:      vendor.Id,
		TotalAmount:   total,
		PaidAmount:    0,
		DueAmount:     total,
		Status:        models.InvoiceStatusReceived,
		InvoiceDate:   now,
		DueDate:       now.AddDate(0, 0, 30),
	}
	require.NoError(t, db.Create(&invoice).Error)

	account := models.ChartOfAccount{
		CompanyId:      company.Id,
		Code:           "1100",
		Name:           "Cash and Bank",
		AccountType:    "ASSET",
		CurrentBalance: 5000,
		Active:         true,
	}
	require.NoError(t, db.Create(&account).Error)

	return fixture{companyID: company.Id, vendor: vendor, invoice: invoice, account: account}
}

func reloadInvoice(t *testing.T, db *gorm.DB, id uint) models.PurchaseInvoice {
	t.Helper()
	var inv models.PurchaseInvoice
	require.NoError(t, db.First(&inv, id).Error)
	return inv
}

func reloadVendor(t *testing.T, db *gorm.DB, id uint) models.Vendor {
	t.Helper()
	var v models.Vendor
	require.NoError(t, db.First(&v, id).Error)
	return v
}

func reloadAccount(t *testing.T, db *gorm.DB, id uint) models.ChartOfAccount {
	t.Helper()
	var a models.ChartOfAccount
	require.NoError(t, db.First(&a, id).Error)
	return a
}

func TestCreateVoucherFullPayment(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	voucher, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
		InvoiceID: fx.invoice.ID,
		Amount:    1000,
	})
	require.NoError(t, err)

	assert.Equal(t, "PV-00001", voucher.VoucherNumber)
	assert.Equal(t, models.PaymentMethodDefault, voucher.PaymentMethod)
	assert.Equal(t, fx.vendor.Id, voucher.VendorId)
	assert.Equal(t, fx.vendor.Name, voucher.Vendor.Name)

	inv := reloadInvoice(t, db, fx.invoice.ID)
	assert.InDelta(t, 1000, inv.PaidAmount, 0.001)
	assert.InDelta(t, 0, inv.DueAmount, 0.001)
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)

	assert.InDelta(t, -1000, reloadVendor(t, db, fx.vendor.Id).CurrentBalance, 0.001)
	assert.InDelta(t, 4000, reloadAccount(t, db, fx.account.ID).CurrentBalance, 0.001)

	var entries []models.LedgerEntry
	require.NoError(t, db.Where("reference_type = ? AND reference_id = ?",
		models.ReferenceTypePaymentVoucher, voucher.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntryTypeCredit, entries[0].EntryType)
	assert.InDelta(t, 1000, entries[0].Amount, 0.001)
	assert.Equal(t, fx.account.ID, entries[0].AccountID)
	assert.Contains(t, entries[0].Narration, "PV-00001")
	assert.Contains(t, entries[0].Narration, fx.vendor.Name)
}

func TestCreateVoucherPartialPayment(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	_, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
		InvoiceID: fx.invoice.ID,
		Amount:    400,
	})
	require.NoError(t, err)

	inv := reloadInvoice(t, db, fx.invoice.ID)
	assert.InDelta(t, 400, inv.PaidAmount, 0.001)
	assert.InDelta(t, 600, inv.DueAmount, 0.001)
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, inv.Status)

	// Second partial completes the invoice.
	_, err = svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
		InvoiceID: fx.invoice.ID,
		Amount:    600,
	})
	require.NoError(t, err)

	inv = reloadInvoice(t, db, fx.invoice.ID)
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
	assert.InDelta(t, -1000, reloadVendor(t, db, fx.vendor.Id).CurrentBalance, 0.001)
	assert.InDelta(t, 4000, reloadAccount(t, db, fx.account.ID).CurrentBalance, 0.001)
}

func TestCreateVoucherRejectsOverdraw(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	_, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
		InvoiceID: fx.invoice.ID,
		Amount:    1200,
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)
	assert.Contains(t, verr.Message, "exceeds due amount")

	// Nothing may have been written.
	var count int64
	require.NoError(t, db.Model(&models.PaymentVoucher{}).Count(&count).Error)
	assert.Zero(t, count)

	inv := reloadInvoice(t, db, fx.invoice.ID)
	assert.InDelta(t, 0, inv.PaidAmount, 0.001)
	assert.Equal(t, models.InvoiceStatusReceived, inv.Status)
	assert.InDelta(t, 0, reloadVendor(t, db, fx.vendor.Id).CurrentBalance, 0.001)
	assert.InDelta(t, 5000, reloadAccount(t, db, fx.account.ID).CurrentBalance, 0.001)
}

func TestCreateVoucherRejectsNonPositiveAmount(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	for _, amount := range []float64{0, -5} {
		_, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
			InvoiceID: fx.invoice.ID,
			Amount:    amount,
		})
		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr, "amount %v", amount)
		assert.Equal(t, "amount", verr.Field)
	}

	var count int64
	require.NoError(t, db.Model(&models.PaymentVoucher{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateVoucherRejectsBadInvoiceReference(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	_, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{Amount: 100})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invoice_id", verr.Field)

	_, err = svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{InvoiceID: 9999, Amount: 100})
	var rerr *apperrors.InvalidReferenceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "invoice", rerr.Entity)
}

func TestCreateVoucherMissingPaymentAccountSkipsLedger(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	// Configured code matches no account for this tenant.
	svc := NewPaymentVoucherService("9999")

	voucher, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
		InvoiceID: fx.invoice.ID,
		Amount:    250,
	})
	require.NoError(t, err)

	var entries int64
	require.NoError(t, db.Model(&models.LedgerEntry{}).
		Where("reference_id = ?", voucher.ID).Count(&entries).Error)
	assert.Zero(t, entries)

	// Invoice and vendor effects still applied; the 1100 account is untouched.
	assert.InDelta(t, 750, reloadInvoice(t, db, fx.invoice.ID).DueAmount, 0.001)
	assert.InDelta(t, -250, reloadVendor(t, db, fx.vendor.Id).CurrentBalance, 0.001)
	assert.InDelta(t, 5000, reloadAccount(t, db, fx.account.ID).CurrentBalance, 0.001)
}

func TestVoucherNumbersIncrementPerCompany(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	for i, want := range []string{"PV-00001", "PV-00002", "PV-00003"} {
		voucher, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
			InvoiceID: fx.invoice.ID,
			Amount:    100,
		})
		require.NoError(t, err, "voucher %d", i+1)
		assert.Equal(t, want, voucher.VoucherNumber)
	}

	var seq models.VoucherSequence
	require.NoError(t, db.Where("company_id = ? AND name = ?", fx.companyID, "PV").First(&seq).Error)
	assert.EqualValues(t, 4, seq.NextNumber)
}

func TestVoucherNumberUsesSeededSequence(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	require.NoError(t, db.Create(&models.VoucherSequence{
		CompanyId: fx.companyID, Name: "PV", NextNumber: 42,
	}).Error)
	svc := NewPaymentVoucherService("")

	voucher, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
		InvoiceID: fx.invoice.ID,
		Amount:    100,
	})
	require.NoError(t, err)
	assert.Equal(t, "PV-00042", voucher.VoucherNumber)
}

func TestDeleteVoucherRestoresAllBalances(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	voucher, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
		InvoiceID: fx.invoice.ID,
		Amount:    400,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteVoucher(db, fx.companyID, voucher.ID, "user-1"))

	inv := reloadInvoice(t, db, fx.invoice.ID)
	assert.InDelta(t, 0, inv.PaidAmount, 0.001)
	assert.InDelta(t, 1000, inv.DueAmount, 0.001)
	assert.Equal(t, models.InvoiceStatusReceived, inv.Status)

	assert.InDelta(t, 0, reloadVendor(t, db, fx.vendor.Id).CurrentBalance, 0.001)
	assert.InDelta(t, 5000, reloadAccount(t, db, fx.account.ID).CurrentBalance, 0.001)

	var vouchers, entries int64
	require.NoError(t, db.Model(&models.PaymentVoucher{}).Count(&vouchers).Error)
	require.NoError(t, db.Model(&models.LedgerEntry{}).Count(&entries).Error)
	assert.Zero(t, vouchers)
	assert.Zero(t, entries)

	// The audit snapshot is the surviving trail of the void.
	var audit models.AuditLog
	require.NoError(t, db.Where("company_id = ? AND action = ?", fx.companyID, "VOUCHER_VOIDED").First(&audit).Error)
	assert.Equal(t, "payment_voucher", audit.EntityType)
	assert.Equal(t, voucher.ID, audit.EntityID)
	assert.Equal(t, "user-1", audit.UserID)
	assert.Contains(t, string(audit.Snapshot), voucher.VoucherNumber)
	assert.Contains(t, string(audit.Snapshot), "ledger_entries")
}

func TestDeleteVoucherOnPaidInvoiceResetsToReceived(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	voucher, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
		InvoiceID: fx.invoice.ID,
		Amount:    1000,
	})
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, reloadInvoice(t, db, fx.invoice.ID).Status)

	require.NoError(t, svc.DeleteVoucher(db, fx.companyID, voucher.ID, "user-1"))
	assert.Equal(t, models.InvoiceStatusReceived, reloadInvoice(t, db, fx.invoice.ID).Status)
}

func TestDeleteVoucherNotFound(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	err := svc.DeleteVoucher(db, fx.companyID, 777, "user-1")
	var nferr *apperrors.NotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, "payment voucher", nferr.Entity)
}

func TestTenantIsolation(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	other := models.Company{
		CompanyName: "Andere AG",
		Address:     "Hauptplatz 2",
		City:        "Wien",
		Country:     "AT",
		Zip:         "1010",
	}
	require.NoError(t, db.Create(&other).Error)

	voucher, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
		InvoiceID: fx.invoice.ID,
		Amount:    300,
	})
	require.NoError(t, err)

	// The other tenant cannot pay this invoice.
	_, err = svc.CreateVoucher(db, other.Id, CreateVoucherInput{
		InvoiceID: fx.invoice.ID,
		Amount:    100,
	})
	var rerr *apperrors.InvalidReferenceError
	require.ErrorAs(t, err, &rerr)

	// Nor see or void the voucher.
	_, err = svc.GetVoucher(db, other.Id, voucher.ID)
	var nferr *apperrors.NotFoundError
	require.ErrorAs(t, err, &nferr)

	err = svc.DeleteVoucher(db, other.Id, voucher.ID, "intruder")
	require.ErrorAs(t, err, &nferr)

	vouchers, err := svc.ListVouchers(db, other.Id, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, vouchers)

	// And the voucher is still there for its owner.
	_, err = svc.GetVoucher(db, fx.companyID, voucher.ID)
	require.NoError(t, err)
}

func TestApplyToInvoiceRevalidatesAfterStaleRead(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	// Read the invoice, then let "someone else" commit a 700 payment.
	stale := reloadInvoice(t, db, fx.invoice.ID)
	require.NoError(t, db.Model(&models.PurchaseInvoice{}).
		Where("id = ?", fx.invoice.ID).
		Updates(map[string]any{
			"paid_amount": 700.0,
			"due_amount":  300.0,
			"status":      models.InvoiceStatusPartiallyPaid,
		}).Error)

	// 400 fit the stale due of 1000 but not the real due of 300.
	err := svc.applyToInvoice(db, fx.companyID, &stale, 400)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "exceeds due amount")

	inv := reloadInvoice(t, db, fx.invoice.ID)
	assert.InDelta(t, 700, inv.PaidAmount, 0.001)
	assert.InDelta(t, 300, inv.DueAmount, 0.001)
}

func TestApplyToInvoiceRetriesAndAppliesAfterStaleRead(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	stale := reloadInvoice(t, db, fx.invoice.ID)
	require.NoError(t, db.Model(&models.PurchaseInvoice{}).
		Where("id = ?", fx.invoice.ID).
		Updates(map[string]any{
			"paid_amount": 700.0,
			"due_amount":  300.0,
			"status":      models.InvoiceStatusPartiallyPaid,
		}).Error)

	// 200 still fits after the re-read, so the retry lands on top.
	require.NoError(t, svc.applyToInvoice(db, fx.companyID, &stale, 200))

	inv := reloadInvoice(t, db, fx.invoice.ID)
	assert.InDelta(t, 900, inv.PaidAmount, 0.001)
	assert.InDelta(t, 100, inv.DueAmount, 0.001)
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, inv.Status)
}

func TestInvoicesForPaymentFiltersAndOrders(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000) // RECEIVED, due in 30 days
	svc := NewPaymentVoucherService("")

	now := time.Now()
	overdue := models.PurchaseInvoice{
		CompanyId:     fx.companyID,
		InvoiceNumber: "RE-2026-002",
		VendorId:      fx.vendor.Id,
		TotalAmount:   500,
		DueAmount:     500,
		Status:        models.InvoiceStatusOverdue,
		InvoiceDate:   now.AddDate(0, -2, 0),
		DueDate:       now.AddDate(0, -1, 0),
	}
	paid := models.PurchaseInvoice{
		CompanyId:     fx.companyID,
		InvoiceNumber: "RE-2026-003",
		VendorId:      fx.vendor.Id,
		TotalAmount:   200,
		PaidAmount:    200,
		DueAmount:     0,
		Status:        models.InvoiceStatusPaid,
		InvoiceDate:   now,
		DueDate:       now.AddDate(0, 0, 10),
	}
	require.NoError(t, db.Create(&overdue).Error)
	require.NoError(t, db.Create(&paid).Error)

	invoices, err := svc.InvoicesForPayment(db, fx.companyID, 0)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	// Oldest due date first: the overdue one leads.
	assert.Equal(t, "RE-2026-002", invoices[0].InvoiceNumber)
	assert.Equal(t, "RE-2026-001", invoices[1].InvoiceNumber)

	// Vendor filter.
	invoices, err = svc.InvoicesForPayment(db, fx.companyID, fx.vendor.Id+100)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestListVouchersFilters(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db, 1000)
	svc := NewPaymentVoucherService("")

	for i := 0; i < 2; i++ {
		_, err := svc.CreateVoucher(db, fx.companyID, CreateVoucherInput{
			InvoiceID: fx.invoice.ID,
			Amount:    100,
		})
		require.NoError(t, err)
	}

	vouchers, err := svc.ListVouchers(db, fx.companyID, fx.vendor.Id, fx.invoice.ID)
	require.NoError(t, err)
	assert.Len(t, vouchers, 2)

	vouchers, err = svc.ListVouchers(db, fx.companyID, fx.vendor.Id+1, 0)
	require.NoError(t, err)
	assert.Empty(t, vouchers)
}
