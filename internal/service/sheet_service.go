package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cashbook/internal/cache"
	apperrors "cashbook/internal/errors"
	"cashbook/internal/model"
	"cashbook/internal/repository"
)

const sheetCacheTTL = 5 * time.Minute

// deletedSheet marks a removed sheet in the cache so a slower reader cannot
// put the old record back.
var deletedSheet = []byte("deleted")

// SheetInput carries the client-owned fields of a sheet.
type SheetInput struct {
	Name         string
	Transactions []model.Transaction
	Totals       model.Totals
}

// SheetService handles sheet operations on behalf of an authenticated user.
// Every method checks ownership before reading or writing.
type SheetService interface {
	Create(ctx context.Context, requester uuid.UUID, in SheetInput) (*model.Sheet, error)
	ListByOwner(ctx context.Context, requester, ownerID uuid.UUID) ([]model.Sheet, error)
	Get(ctx context.Context, requester, sheetID uuid.UUID) (*model.Sheet, error)
	Replace(ctx context.Context, requester, sheetID uuid.UUID, in SheetInput) (*model.Sheet, error)
	Delete(ctx context.Context, requester, sheetID uuid.UUID) error
}

type sheetService struct {
	repo  repository.SheetRepository
	cache *cache.Client
	log   *slog.Logger
}

// NewSheetService creates a new sheet service.
func NewSheetService(repo repository.SheetRepository, cache *cache.Client, log *slog.Logger) SheetService {
	return &sheetService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func (s *sheetService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("sheet:%s", id.String())
}

// Create inserts an empty-or-seeded sheet owned by the requester.
func (s *sheetService) Create(ctx context.Context, requester uuid.UUID, in SheetInput) (*model.Sheet, error) {
	sheet := &model.Sheet{
		UserID:       requester,
		Name:         in.Name,
		Transactions: normalize(in.Transactions),
		Totals:       in.Totals,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, sheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	s.log.InfoContext(ctx, "sheet created", "sheet_id", sheet.ID, "user_id", requester)
	return sheet, nil
}

// ListByOwner lists the owner's sheets; only the owner may list them.
func (s *sheetService) ListByOwner(ctx context.Context, requester, ownerID uuid.UUID) ([]model.Sheet, error) {
	if requester != ownerID {
		return nil, apperrors.ErrForbidden
	}
	sheets, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	for i := range sheets {
		sheets[i].Transactions = normalize(sheets[i].Transactions)
	}
	return sheets, nil
}

// Get returns the full sheet if the requester owns it.
func (s *sheetService) Get(ctx context.Context, requester, sheetID uuid.UUID) (*model.Sheet, error) {
	return s.owned(ctx, requester, sheetID, s.load)
}

// Replace overwrites name, transactions and totals after checking the
// stored record. Concurrent saves are last-write-wins.
func (s *sheetService) Replace(ctx context.Context, requester, sheetID uuid.UUID, in SheetInput) (*model.Sheet, error) {
	existing, err := s.owned(ctx, requester, sheetID, s.find)
	if err != nil {
		return nil, err
	}

	existing.Name = in.Name
	existing.Transactions = normalize(in.Transactions)
	existing.Totals = in.Totals
	if err := s.repo.Replace(ctx, existing); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSheetNotFound
		}
		return nil, fmt.Errorf("replace sheet: %w", err)
	}
	if payload, err := json.Marshal(existing); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(sheetID), payload, sheetCacheTTL)
	} else {
		_ = s.cache.Delete(ctx, s.cacheKey(sheetID))
	}
	return existing, nil
}

// Delete removes the sheet if the requester owns it.
func (s *sheetService) Delete(ctx context.Context, requester, sheetID uuid.UUID) error {
	if _, err := s.owned(ctx, requester, sheetID, s.find); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sheetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrSheetNotFound
		}
		return fmt.Errorf("delete sheet: %w", err)
	}
	_ = s.cache.Set(ctx, s.cacheKey(sheetID), deletedSheet, sheetCacheTTL)
	s.log.InfoContext(ctx, "sheet deleted", "sheet_id", sheetID, "user_id", requester)
	return nil
}

// owned loads a sheet and enforces ownership. A missing sheet is
// ErrSheetNotFound and a foreign one ErrForbidden.
func (s *sheetService) owned(ctx context.Context, requester, sheetID uuid.UUID, load func(context.Context, uuid.UUID) (*model.Sheet, error)) (*model.Sheet, error) {
	sheet, err := load(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if !sheet.OwnedBy(requester) {
		s.log.WarnContext(ctx, "sheet access denied", "sheet_id", sheetID, "user_id", requester)
		return nil, apperrors.ErrForbidden
	}
	return sheet, nil
}

// load reads through the cache. A miss is filled only if no writer has
// stored a newer value in the meantime.
func (s *sheetService) load(ctx context.Context, sheetID uuid.UUID) (*model.Sheet, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(sheetID)); data != nil {
		if bytes.Equal(data, deletedSheet) {
			return nil, apperrors.ErrSheetNotFound
		}
		var cached model.Sheet
		if err := json.Unmarshal(data, &cached); err == nil && cached.ID == sheetID {
			cached.Transactions = normalize(cached.Transactions)
			return &cached, nil
		}
	}

	sheet, err := s.find(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(sheet); err == nil {
		_, _ = s.cache.SetNX(ctx, s.cacheKey(sheetID), payload, sheetCacheTTL)
	}
	return sheet, nil
}

// find reads the sheet from the store, bypassing the cache.
func (s *sheetService) find(ctx context.Context, sheetID uuid.UUID) (*model.Sheet, error) {
	sheet, err := s.repo.FindByID(ctx, sheetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSheetNotFound
		}
		return nil, fmt.Errorf("find sheet: %w", err)
	}
	sheet.Transactions = normalize(sheet.Transactions)
	return sheet, nil
}

func normalize(txs []model.Transaction) []model.Transaction {
	if txs == nil {
		return []model.Transaction{}
	}
	return txs
}
