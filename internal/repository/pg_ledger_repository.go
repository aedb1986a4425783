package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.LedgerRepository = (*pgLedgerRepository)(nil)

const (
	// The balance guard in the WHERE clause folds the check and the decrement
	// into one statement, so concurrent spends for the same user serialize on
	// the row and can never drive the balance negative.
	spendFromAccountQuery = `
UPDATE gem_accounts
SET balance = balance - $2, total_spent = total_spent + $2, last_updated = $3
WHERE user_id = $1 AND balance >= $2`

	creditAccountQuery = `
UPDATE gem_accounts
SET balance = balance + $2, total_earned = total_earned + $2, last_updated = $3
WHERE user_id = $1`

	creditOrCreateAccountQuery = `
INSERT INTO gem_accounts (user_id, balance, total_earned, total_spent, last_updated)
VALUES ($1, $2, $2, 0, $3)
ON CONFLICT (user_id) DO UPDATE SET
    balance = gem_accounts.balance + EXCLUDED.balance,
    total_earned = gem_accounts.total_earned + EXCLUDED.total_earned,
    last_updated = EXCLUDED.last_updated`

	insertTransactionQuery = `
INSERT INTO gem_transactions (id, user_id, amount, kind, source, story_id, content_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	accountExistsQuery = `SELECT EXISTS (SELECT 1 FROM gem_accounts WHERE user_id = $1)`

	getAccountQuery = `
SELECT user_id, balance, total_earned, total_spent, last_updated
FROM gem_accounts
WHERE user_id = $1`

	listTransactionsQuery = `
SELECT id, user_id, amount, kind, source, story_id, content_id, created_at
FROM gem_transactions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`
)

type pgLedgerRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgLedgerRepository creates a postgres-backed LedgerRepository.
func NewPgLedgerRepository(pool *pgxpool.Pool, logger *zap.Logger) interfaces.LedgerRepository {
	return &pgLedgerRepository{
		pool:   pool,
		logger: logger.Named("PgLedgerRepo"),
	}
}

// Award credits an account and appends the earn transaction in one database
// transaction. When createIfMissing is false a missing account fails with
// models.ErrAccountNotFound and nothing is written.
func (r *pgLedgerRepository) Award(ctx context.Context, userID uuid.UUID, amount int64, source string, storyID *string, createIfMissing bool) error {
	logFields := []zap.Field{zap.Stringer("userID", userID), zap.Int64("amount", amount), zap.String("source", source)}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin award tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	if createIfMissing {
		if _, err := tx.Exec(ctx, creditOrCreateAccountQuery, userID, amount, now); err != nil {
			r.logger.Error("Failed to credit account", append(logFields, zap.Error(err))...)
			return fmt.Errorf("failed to credit account: %w", err)
		}
	} else {
		cmdTag, err := tx.Exec(ctx, creditAccountQuery, userID, amount, now)
		if err != nil {
			r.logger.Error("Failed to credit account", append(logFields, zap.Error(err))...)
			return fmt.Errorf("failed to credit account: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			r.logger.Warn("Award rejected, no gem account for user", logFields...)
			return models.ErrAccountNotFound
		}
	}

	_, err = tx.Exec(ctx, insertTransactionQuery,
		uuid.New(), userID, amount, models.TransactionEarn, source, storyID, nil, now)
	if err != nil {
		r.logger.Error("Failed to append earn transaction", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to append earn transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit award tx: %w", err)
	}
	r.logger.Info("Awarded gems", logFields...)
	return nil
}

// Spend debits an account and appends the spend transaction in one database
// transaction. Insufficient balance and missing accounts are rejected with no
// partial effect.
func (r *pgLedgerRepository) Spend(ctx context.Context, userID uuid.UUID, amount int64, contentID int64) error {
	logFields := []zap.Field{zap.Stringer("userID", userID), zap.Int64("amount", amount), zap.Int64("contentID", contentID)}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin spend tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	if err := debitAccount(ctx, tx, userID, amount, now); err != nil {
		if errors.Is(err, models.ErrInsufficientGems) || errors.Is(err, models.ErrAccountNotFound) {
			r.logger.Warn("Spend rejected", append(logFields, zap.Error(err))...)
		} else {
			r.logger.Error("Failed to debit account", append(logFields, zap.Error(err))...)
		}
		return err
	}

	_, err = tx.Exec(ctx, insertTransactionQuery,
		uuid.New(), userID, amount, models.TransactionSpend, "content_unlock", nil, contentID, now)
	if err != nil {
		r.logger.Error("Failed to append spend transaction", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to append spend transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit spend tx: %w", err)
	}
	r.logger.Info("Spent gems", logFields...)
	return nil
}

// debitAccount runs the guarded decrement inside tx and distinguishes a
// missing account from an insufficient balance. Shared with the unlock
// repository so both spend paths stay identical.
func debitAccount(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, now time.Time) error {
	cmdTag, err := tx.Exec(ctx, spendFromAccountQuery, userID, amount, now)
	if err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := tx.QueryRow(ctx, accountExistsQuery, userID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check account existence: %w", err)
	}
	if !exists {
		return models.ErrAccountNotFound
	}
	return models.ErrInsufficientGems
}

func (r *pgLedgerRepository) GetAccount(ctx context.Context, userID uuid.UUID) (*models.GemAccount, error) {
	var account models.GemAccount
	err := pgxscan.Get(ctx, r.pool, &account, getAccountQuery, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		r.logger.Error("Failed to get gem account", zap.Stringer("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get gem account: %w", err)
	}
	return &account, nil
}

func (r *pgLedgerRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.GemTransaction, error) {
	var transactions []models.GemTransaction
	if err := pgxscan.Select(ctx, r.pool, &transactions, listTransactionsQuery, userID, limit); err != nil {
		r.logger.Error("Failed to list gem transactions", zap.Stringer("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list gem transactions: %w", err)
	}
	if transactions == nil {
		transactions = []models.GemTransaction{}
	}
	return transactions, nil
}
