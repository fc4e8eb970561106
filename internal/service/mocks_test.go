package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"cashbook/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if user.ID == uuid.Nil && args.Error(0) == nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	args := m.Called(ctx, id, password)
	return args.Error(0)
}

// MockSheetRepository is a mock implementation of SheetRepository.
type MockSheetRepository struct {
	mock.Mock
}

func (m *MockSheetRepository) Create(ctx context.Context, sheet *model.Sheet) error {
	args := m.Called(ctx, sheet)
	if sheet.ID == uuid.Nil && args.Error(0) == nil {
		sheet.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockSheetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sheet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// hand out a copy so callers cannot mutate the fixture
	sheet := *args.Get(0).(*model.Sheet)
	return &sheet, args.Error(1)
}

func (m *MockSheetRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.Sheet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Sheet), args.Error(1)
}

func (m *MockSheetRepository) Replace(ctx context.Context, sheet *model.Sheet) error {
	args := m.Called(ctx, sheet)
	return args.Error(0)
}

func (m *MockSheetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}
