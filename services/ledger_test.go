package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KachiAlex/innsight-sub005/models"
)

func TestApplyChargeKeepsBalanceInvariant(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)

	folio := &models.Folio{TenantID: 1, GuestName: "Ada Obi", Status: models.FolioStatusOpen}
	require.NoError(t, db.Create(folio).Error)

	updated, err := ledger.ApplyCharge(1, folio.ID, ChargeInput{
		Description: "Laundry",
		Category:    "laundry",
		Amount:      money(2500),
		Quantity:    2,
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalCharges.Equal(money(5000)))
	assert.True(t, updated.Balance.Equal(updated.TotalCharges.Sub(updated.TotalPayments)))

	var charges []models.FolioCharge
	require.NoError(t, db.Where("folio_id = ?", folio.ID).Find(&charges).Error)
	require.Len(t, charges, 1)
	assert.Equal(t, 2, charges[0].Quantity)
}

func TestApplyPaymentKeepsBalanceInvariant(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)

	folio := &models.Folio{
		TenantID:     1,
		GuestName:    "Ada Obi",
		Status:       models.FolioStatusOpen,
		TotalCharges: money(50000),
		Balance:      money(50000),
	}
	require.NoError(t, db.Create(folio).Error)

	updated, err := ledger.ApplyPayment(1, folio.ID, money(20000))
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(money(30000)))
	assert.True(t, updated.TotalPayments.Equal(money(20000)))
	assert.True(t, updated.Balance.Equal(updated.TotalCharges.Sub(updated.TotalPayments)))
}

func TestClosedFolioRejectsPostings(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)

	folio := &models.Folio{TenantID: 1, GuestName: "Ada Obi", Status: models.FolioStatusClosed}
	require.NoError(t, db.Create(folio).Error)

	_, err := ledger.ApplyCharge(1, folio.ID, ChargeInput{Description: "Minibar", Amount: money(1000)})
	require.Error(t, err)
	assert.Equal(t, CodeFolioClosed, CodeOf(err))

	_, err = ledger.ApplyPayment(1, folio.ID, money(1000))
	require.Error(t, err)
	assert.Equal(t, CodeFolioClosed, CodeOf(err))
}

func TestLedgerValidatesAmounts(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)

	folio := &models.Folio{TenantID: 1, Status: models.FolioStatusOpen}
	require.NoError(t, db.Create(folio).Error)

	_, err := ledger.ApplyCharge(1, folio.ID, ChargeInput{Description: "Nothing", Amount: money(0)})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = ledger.ApplyPayment(1, folio.ID, money(-5))
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCrossTenantFolioIsNotFound(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)

	folio := &models.Folio{TenantID: 2, Status: models.FolioStatusOpen}
	require.NoError(t, db.Create(folio).Error)

	_, err := ledger.ApplyPayment(1, folio.ID, money(1000))
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}
