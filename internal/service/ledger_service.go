package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// LedgerService validates gem operations before handing them to the
// transactional repository. createOnAward is the provisioning policy for
// awards against missing accounts.
type LedgerService struct {
	ledger        interfaces.LedgerRepository
	createOnAward bool
	logger        *zap.Logger
}

// NewLedgerService creates the ledger service.
func NewLedgerService(ledger interfaces.LedgerRepository, createOnAward bool, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		ledger:        ledger,
		createOnAward: createOnAward,
		logger:        logger.Named("LedgerService"),
	}
}

// Award credits gems to a user. Zero or negative amounts are validation
// errors; a missing account fails with models.ErrAccountNotFound unless the
// provisioning policy allows creation.
func (s *LedgerService) Award(ctx context.Context, userID uuid.UUID, amount int64, source string, storyID *string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: got %d", models.ErrInvalidAmount, amount)
	}
	if isBlank(source) {
		return fmt.Errorf("%w: award source must not be blank", models.ErrInvalidInput)
	}
	return s.ledger.Award(ctx, userID, amount, source, storyID, s.createOnAward)
}

// Spend debits gems. The balance check and decrement are one atomic unit in
// the repository; an insufficient balance rejects with no mutation.
func (s *LedgerService) Spend(ctx context.Context, userID uuid.UUID, amount int64, contentID int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: got %d", models.ErrInvalidAmount, amount)
	}
	return s.ledger.Spend(ctx, userID, amount, contentID)
}

// GetBalance returns the current balance, or 0 when no account exists.
func (s *LedgerService) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	account, err := s.ledger.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.Balance, nil
}

// GetAccount returns the account snapshot or models.ErrAccountNotFound.
func (s *LedgerService) GetAccount(ctx context.Context, userID uuid.UUID) (*models.GemAccount, error) {
	return s.ledger.GetAccount(ctx, userID)
}

// GetTransactionHistory returns the audit trail, most recent first.
func (s *LedgerService) GetTransactionHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.GemTransaction, error) {
	SanitizeLimit(&limit, defaultHistoryLimit, maxHistoryLimit)
	transactions, err := s.ledger.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Fetched transaction history",
		zap.Stringer("userID", userID), zap.Int("count", len(transactions)))
	return transactions, nil
}
