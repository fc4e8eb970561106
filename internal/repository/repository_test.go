package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"cashbook/internal/db"
	"cashbook/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gormDB) })
	return gormDB
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &model.User{Username: "alice", Password: "$2a$10$hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = repo.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{Username: "alice", Password: "x"}))
	err := repo.Create(ctx, &model.User{Username: "alice", Password: "y"})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &model.User{Username: "alice", Password: "plain"}
	require.NoError(t, repo.Create(ctx, user))
	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "$2a$10$upgraded"))

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$upgraded", stored.Password)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, uuid.New(), "x"), gorm.ErrRecordNotFound)
}

func TestSheetRepository_Lifecycle(t *testing.T) {
	repo := NewSheetRepository(newTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	sheet := &model.Sheet{
		UserID: owner,
		Name:   "Jan",
		Transactions: []model.Transaction{
			{ID: 1, Date: "2024-01-01", Description: "salary", Amount: decimal.NewFromInt(1000), Currency: "USD"},
		},
		Totals: model.Totals{Balance: decimal.NewFromInt(1000)},
	}
	require.NoError(t, repo.Create(ctx, sheet))
	require.NotEqual(t, uuid.Nil, sheet.ID)

	found, err := repo.FindByID(ctx, sheet.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, found.UserID)
	require.Len(t, found.Transactions, 1)
	assert.Equal(t, "salary", found.Transactions[0].Description)
	assert.True(t, found.Totals.Balance.Equal(decimal.NewFromInt(1000)))

	require.NoError(t, repo.Delete(ctx, sheet.ID))
	_, err = repo.FindByID(ctx, sheet.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, sheet.ID), gorm.ErrRecordNotFound)
}

func TestSheetRepository_ReplaceIsWholesale(t *testing.T) {
	repo := NewSheetRepository(newTestDB(t))
	ctx := context.Background()

	sheet := &model.Sheet{
		UserID: uuid.New(),
		Name:   "Jan",
		Transactions: []model.Transaction{
			{ID: 1, Description: "a", Amount: decimal.NewFromInt(5), Currency: "USD"},
			{ID: 2, Description: "b", Amount: decimal.NewFromInt(-3), Currency: "USD"},
		},
		Totals: model.Totals{Balance: decimal.NewFromInt(2)},
	}
	require.NoError(t, repo.Create(ctx, sheet))

	replacement := &model.Sheet{
		ID:           sheet.ID,
		Name:         "January",
		Transactions: []model.Transaction{{ID: 3, Description: "c", Amount: decimal.NewFromInt(7), Currency: "EUR"}},
		Totals:       model.Totals{Balance: decimal.NewFromInt(7)},
	}
	require.NoError(t, repo.Replace(ctx, replacement))

	found, err := repo.FindByID(ctx, sheet.ID)
	require.NoError(t, err)
	assert.Equal(t, "January", found.Name)
	require.Len(t, found.Transactions, 1)
	assert.Equal(t, int64(3), found.Transactions[0].ID)
	assert.Equal(t, sheet.UserID, found.UserID)
	assert.True(t, found.Totals.Balance.Equal(decimal.NewFromInt(7)))

	cleared := &model.Sheet{ID: sheet.ID, Transactions: []model.Transaction{}}
	require.NoError(t, repo.Replace(ctx, cleared))
	found, err = repo.FindByID(ctx, sheet.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Name)
	assert.Empty(t, found.Transactions)
	assert.True(t, found.Totals.Balance.IsZero())

	// writing the same values again still matches the row
	require.NoError(t, repo.Replace(ctx, cleared))
}

func TestSheetRepository_ReplaceMissing(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewSheetRepository(gormDB)

	err := repo.Replace(context.Background(), &model.Sheet{ID: uuid.New(), Name: "ghost"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, gormDB.Model(&model.Sheet{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSheetRepository_ListByOwner(t *testing.T) {
	repo := NewSheetRepository(newTestDB(t))
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	for _, s := range []*model.Sheet{
		{UserID: alice, Name: "Jan"},
		{UserID: alice, Name: "Feb"},
		{UserID: bob, Name: "Mar"},
	} {
		require.NoError(t, repo.Create(ctx, s))
	}

	sheets, err := repo.ListByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	for _, s := range sheets {
		assert.Equal(t, alice, s.UserID)
	}

	none, err := repo.ListByOwner(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
