package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
)

// LedgerService owns folio mutations. Every charge or payment updates the
// parent totals in the same transaction as the child row, so
// Balance == TotalCharges - TotalPayments holds after every write.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

type ChargeInput struct {
	Description string
	Category    string
	Amount      decimal.Decimal
	Quantity    int
}

// ApplyCharge posts a charge to an open folio.
func (s *LedgerService) ApplyCharge(tenantID, folioID uint, input ChargeInput) (*models.Folio, error) {
	var folio *models.Folio
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		folio, txErr = s.ApplyChargeTx(tx, tenantID, folioID, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return folio, nil
}

// ApplyChargeTx is the transaction-composable form used by the booking
// engine's check-in commit.
func (s *LedgerService) ApplyChargeTx(tx *gorm.DB, tenantID, folioID uint, input ChargeInput) (*models.Folio, error) {
	if !input.Amount.IsPositive() {
		return nil, Validationf("charge amount must be positive")
	}
	if input.Quantity <= 0 {
		input.Quantity = 1
	}

	folio, err := loadOpenFolio(tx, tenantID, folioID)
	if err != nil {
		return nil, err
	}

	total := input.Amount.Mul(decimal.NewFromInt(int64(input.Quantity)))
	charge := models.FolioCharge{
		FolioID:     folio.ID,
		Description: input.Description,
		Category:    input.Category,
		Amount:      input.Amount,
		Quantity:    input.Quantity,
		Total:       total,
	}
	if err := tx.Create(&charge).Error; err != nil {
		return nil, Internal(err)
	}

	folio.TotalCharges = folio.TotalCharges.Add(total)
	folio.Balance = folio.TotalCharges.Sub(folio.TotalPayments)
	if err := tx.Model(folio).Updates(map[string]interface{}{
		"total_charges": folio.TotalCharges,
		"balance":       folio.Balance,
	}).Error; err != nil {
		return nil, Internal(err)
	}
	return folio, nil
}

// ApplyPayment credits an open folio and returns it with the new balance.
func (s *LedgerService) ApplyPayment(tenantID, folioID uint, amount decimal.Decimal) (*models.Folio, error) {
	var folio *models.Folio
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		folio, txErr = s.ApplyPaymentTx(tx, tenantID, folioID, amount)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return folio, nil
}

func (s *LedgerService) ApplyPaymentTx(tx *gorm.DB, tenantID, folioID uint, amount decimal.Decimal) (*models.Folio, error) {
	if !amount.IsPositive() {
		return nil, Validationf("payment amount must be positive")
	}

	folio, err := loadOpenFolio(tx, tenantID, folioID)
	if err != nil {
		return nil, err
	}

	folio.TotalPayments = folio.TotalPayments.Add(amount)
	folio.Balance = folio.TotalCharges.Sub(folio.TotalPayments)
	if err := tx.Model(folio).Updates(map[string]interface{}{
		"total_payments": folio.TotalPayments,
		"balance":        folio.Balance,
	}).Error; err != nil {
		return nil, Internal(err)
	}
	return folio, nil
}

// OpenFolioTx creates a folio seeded with its initial room-rate charge, both
// in the caller's transaction. The caller guarantees no folio exists yet for
// the reservation.
func (s *LedgerService) OpenFolioTx(tx *gorm.DB, folio *models.Folio, roomCharge ChargeInput) error {
	if roomCharge.Quantity <= 0 {
		roomCharge.Quantity = 1
	}
	total := roomCharge.Amount.Mul(decimal.NewFromInt(int64(roomCharge.Quantity)))

	folio.Status = models.FolioStatusOpen
	folio.TotalCharges = total
	folio.TotalPayments = decimal.Zero
	folio.Balance = total
	if err := tx.Create(folio).Error; err != nil {
		return Internal(err)
	}

	charge := models.FolioCharge{
		FolioID:     folio.ID,
		Description: roomCharge.Description,
		Category:    roomCharge.Category,
		Amount:      roomCharge.Amount,
		Quantity:    roomCharge.Quantity,
		Total:       total,
	}
	if err := tx.Create(&charge).Error; err != nil {
		return Internal(err)
	}
	return nil
}

// GetFolio loads a folio with its charges and payments, tenant-scoped.
func (s *LedgerService) GetFolio(tenantID, folioID uint) (*models.Folio, error) {
	var folio models.Folio
	err := s.db.Preload("Charges").Preload("Payments").
		Where("tenant_id = ?", tenantID).First(&folio, folioID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("folio")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &folio, nil
}

func loadOpenFolio(tx *gorm.DB, tenantID, folioID uint) (*models.Folio, error) {
	var folio models.Folio
	err := tx.Where("tenant_id = ?", tenantID).First(&folio, folioID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("folio")
	}
	if err != nil {
		return nil, Internal(err)
	}
	if folio.Status != models.FolioStatusOpen {
		return nil, BusinessRule(CodeFolioClosed, "folio is %s and cannot accept postings", folio.Status)
	}
	return &folio, nil
}
