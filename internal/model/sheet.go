package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Browser clients do arithmetic on amounts, so they travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Sheet is a named, ordered list of transactions owned by one user.
type Sheet struct {
	ID           uuid.UUID     `json:"_id" gorm:"type:char(36);primaryKey"`
	UserID       uuid.UUID     `json:"userId" gorm:"type:char(36);not null;index"`
	Name         string        `json:"sheetName" gorm:"size:255"`
	Transactions []Transaction `json:"transactions" gorm:"type:text;serializer:json"`
	Totals       Totals        `json:"totals" gorm:"type:text;serializer:json"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// BeforeCreate sets UUID before creating the record.
func (s *Sheet) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether userID owns the sheet.
func (s *Sheet) OwnedBy(userID uuid.UUID) bool {
	return s.UserID == userID
}

// Transaction is a single signed cash movement. A positive amount is cash in,
// a negative amount is cash out.
type Transaction struct {
	// ID is generated by the client from the wall clock and is only unique
	// within one sheet.
	ID          int64           `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"required"`
}

// Totals summarises a sheet's transactions.
type Totals struct {
	Balance decimal.Decimal `json:"balance"`
	CashIn  decimal.Decimal `json:"cashIn"`
	CashOut decimal.Decimal `json:"cashOut"`
}

// ComputeTotals sums the transactions. Currencies are not converted.
func ComputeTotals(txs []Transaction) Totals {
	t := Totals{Balance: decimal.Zero, CashIn: decimal.Zero, CashOut: decimal.Zero}
	for _, tx := range txs {
		t.Balance = t.Balance.Add(tx.Amount)
		if tx.Amount.IsPositive() {
			t.CashIn = t.CashIn.Add(tx.Amount)
		} else {
			t.CashOut = t.CashOut.Add(tx.Amount.Neg())
		}
	}
	return t
}
