package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cashbook/internal/model"
)

// SheetRepository defines sheet persistence operations. It does not check
// ownership; callers do.
type SheetRepository interface {
	Create(ctx context.Context, sheet *model.Sheet) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sheet, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.Sheet, error)
	// Replace overwrites name, transactions and totals of an existing sheet.
	Replace(ctx context.Context, sheet *model.Sheet) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type sheetRepository struct {
	db *gorm.DB
}

// NewSheetRepository creates a new sheet repository.
func NewSheetRepository(db *gorm.DB) SheetRepository {
	return &sheetRepository{db: db}
}

// Create inserts a new sheet.
func (r *sheetRepository) Create(ctx context.Context, sheet *model.Sheet) error {
	return r.db.WithContext(ctx).Create(sheet).Error
}

// FindByID finds a sheet by ID.
func (r *sheetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sheet, error) {
	var sheet model.Sheet
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&sheet).Error; err != nil {
		return nil, err
	}
	return &sheet, nil
}

// ListByOwner lists every sheet owned by userID in store order.
func (r *sheetRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.Sheet, error) {
	sheets := []model.Sheet{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&sheets).Error; err != nil {
		return nil, err
	}
	return sheets, nil
}

// Replace writes the three client-owned fields in one statement. Zero values
// are written too, so an empty transaction list clears the sheet. A missing
// row is gorm.ErrRecordNotFound; MySQL connections count matched rows.
func (r *sheetRepository) Replace(ctx context.Context, sheet *model.Sheet) error {
	res := r.db.WithContext(ctx).Model(&model.Sheet{}).
		Where("id = ?", sheet.ID).
		Select("name", "transactions", "totals").
		Updates(&model.Sheet{
			Name:         sheet.Name,
			Transactions: sheet.Transactions,
			Totals:       sheet.Totals,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a sheet.
func (r *sheetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Sheet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
