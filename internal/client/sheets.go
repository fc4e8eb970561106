package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cashbook/internal/model"
)

// Direction says whether a transaction brings cash in or takes it out.
type Direction int

const (
	CashIn Direction = iota
	CashOut
)

// NewTransaction builds a transaction with a time-based id. The amount's sign
// follows the direction regardless of the sign passed in.
func (s *Store) NewTransaction(date, description string, amount decimal.Decimal, currency string, dir Direction) model.Transaction {
	amount = amount.Abs()
	if dir == CashOut {
		amount = amount.Neg()
	}
	return model.Transaction{
		ID:          s.nextTransactionID(),
		Date:        date,
		Description: description,
		Amount:      amount,
		Currency:    currency,
	}
}

// nextTransactionID returns the current unix millisecond, bumped past the
// previous id when two transactions are created within the same millisecond.
func (s *Store) nextTransactionID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := time.Now().UnixMilli()
	if id <= s.lastTx {
		id = s.lastTx + 1
	}
	s.lastTx = id
	return id
}

// AddSheet creates an empty sheet and reloads the sheet list.
func (s *Store) AddSheet(ctx context.Context, name string) (uuid.UUID, error) {
	if _, err := s.userID(); err != nil {
		return uuid.Nil, err
	}
	id, err := s.api.CreateSheet(ctx, name, nil, model.Totals{})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := s.Refresh(ctx); err != nil {
		return id, err
	}
	return id, nil
}

// RenameSheet stores a new name along with the sheet's current transactions.
func (s *Store) RenameSheet(ctx context.Context, sheetID uuid.UUID, name string) error {
	sheet, err := s.sheet(sheetID)
	if err != nil {
		return err
	}
	totals := model.ComputeTotals(sheet.Transactions)
	if err := s.api.ReplaceSheet(ctx, sheetID, name, sheet.Transactions, totals); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	s.updateSheet(sheetID, func(local *model.Sheet) {
		local.Name = name
	})
	return nil
}

// DeleteSheet removes a sheet on the server and then locally.
func (s *Store) DeleteSheet(ctx context.Context, sheetID uuid.UUID) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	if err := s.api.DeleteSheet(ctx, sheetID); err != nil {
		return fmt.Errorf("delete sheet: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	kept := s.session.Sheets[:0]
	for _, sheet := range s.session.Sheets {
		if sheet.ID != sheetID {
			kept = append(kept, sheet)
		}
	}
	s.session.Sheets = kept
	return nil
}

// AddTransaction appends tx to the local copy of a sheet.
func (s *Store) AddTransaction(sheetID uuid.UUID, tx model.Transaction) error {
	return s.editSheet(sheetID, func(sheet *model.Sheet) error {
		sheet.Transactions = append(sheet.Transactions, tx)
		return nil
	})
}

// UpdateTransaction replaces the local transaction with id txID.
func (s *Store) UpdateTransaction(sheetID uuid.UUID, txID int64, tx model.Transaction) error {
	return s.editSheet(sheetID, func(sheet *model.Sheet) error {
		for i := range sheet.Transactions {
			if sheet.Transactions[i].ID == txID {
				sheet.Transactions[i] = tx
				return nil
			}
		}
		return ErrTransactionNotFound
	})
}

// DeleteTransaction removes the local transaction with id txID.
func (s *Store) DeleteTransaction(sheetID uuid.UUID, txID int64) error {
	return s.editSheet(sheetID, func(sheet *model.Sheet) error {
		for i := range sheet.Transactions {
			if sheet.Transactions[i].ID == txID {
				sheet.Transactions = append(sheet.Transactions[:i:i], sheet.Transactions[i+1:]...)
				return nil
			}
		}
		return ErrTransactionNotFound
	})
}

// SaveSheet sends the local sheet as one replacing write. The last save to
// reach the server wins. On failure the local copy is left as it was.
func (s *Store) SaveSheet(ctx context.Context, sheetID uuid.UUID) error {
	sheet, err := s.sheet(sheetID)
	if err != nil {
		return err
	}
	totals := model.ComputeTotals(sheet.Transactions)
	if err := s.api.ReplaceSheet(ctx, sheetID, sheet.Name, sheet.Transactions, totals); err != nil {
		return fmt.Errorf("save sheet: %w", err)
	}
	s.updateSheet(sheetID, func(local *model.Sheet) {
		local.Totals = totals
	})
	return nil
}

// sheet returns a copy of a locally loaded sheet.
func (s *Store) sheet(sheetID uuid.UUID) (model.Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return model.Sheet{}, ErrNotAuthenticated
	}
	for _, sheet := range s.session.Sheets {
		if sheet.ID == sheetID {
			return copySheet(sheet), nil
		}
	}
	return model.Sheet{}, ErrSheetNotLoaded
}

func (s *Store) editSheet(sheetID uuid.UUID, edit func(*model.Sheet) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ErrNotAuthenticated
	}
	for i := range s.session.Sheets {
		if s.session.Sheets[i].ID == sheetID {
			return edit(&s.session.Sheets[i])
		}
	}
	return ErrSheetNotLoaded
}

// updateSheet applies a post-save change if the sheet is still loaded.
func (s *Store) updateSheet(sheetID uuid.UUID, update func(*model.Sheet)) {
	_ = s.editSheet(sheetID, func(sheet *model.Sheet) error {
		update(sheet)
		return nil
	})
}
