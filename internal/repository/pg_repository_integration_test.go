package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/conversation"
	"github.com/hammerheart92/StoryForge-sub000/internal/database"
	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
	"github.com/hammerheart92/StoryForge-sub000/internal/repository"
	"github.com/hammerheart92/StoryForge-sub000/migrations"
)

// RepositoryIntegrationSuite runs the repositories against a real postgres so
// the SQL itself is exercised: the upsert column lists, the balance guard and
// the duplicate-unlock detection all live in queries that mocks never touch.
type RepositoryIntegrationSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	pool        *pgxpool.Pool
	saves       interfaces.SaveRepository
	ledger      interfaces.LedgerRepository
	unlocks     interfaces.UnlockRepository
	content     interfaces.ContentCatalog
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err)
	s.pgContainer = pgContainer

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(s.T(), err)
	s.pool = pool

	require.NoError(s.T(), database.NewMigrator(migrations.FS, ".", pool, zap.NewNop()).Up())

	nopLogger := zap.NewNop()
	s.saves = repository.NewPgSaveRepository(pool, nopLogger)
	s.ledger = repository.NewPgLedgerRepository(pool, nopLogger)
	s.unlocks = repository.NewPgUnlockRepository(pool, nopLogger)
	s.content = repository.NewPgContentCatalog(pool, nopLogger)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		require.NoError(s.T(), s.pgContainer.Terminate(context.Background()))
	}
}

// fundAccount provisions a gem account with the given starting balance.
func (s *RepositoryIntegrationSuite) fundAccount(ctx context.Context, userID uuid.UUID, amount int64) {
	require.NoError(s.T(), s.ledger.Award(ctx, userID, amount, "test_grant", nil, true))
}

// insertContent creates an unlockable row and returns its generated id.
func (s *RepositoryIntegrationSuite) insertContent(ctx context.Context, storyID string, cost int64) int64 {
	var contentID int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO story_content (story_id, unlock_cost) VALUES ($1, $2) RETURNING content_id`,
		storyID, cost,
	).Scan(&contentID)
	require.NoError(s.T(), err)
	return contentID
}

func (s *RepositoryIntegrationSuite) serializedState(texts ...string) string {
	state := conversation.NewState()
	for i, text := range texts {
		if i%2 == 0 {
			require.NoError(s.T(), state.AppendUserMessage(text))
		} else {
			require.NoError(s.T(), state.AppendAssistantMessage(text))
		}
	}
	payload, err := state.Serialize()
	require.NoError(s.T(), err)
	return payload
}

// TestUpsertPreservesCreationAndCompletion covers the update path's column
// list: re-saving a slot replaces the content fields but never touches
// created_at or the completion columns.
func (s *RepositoryIntegrationSuite) TestUpsertPreservesCreationAndCompletion() {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()

	first := &models.SaveSlot{
		StoryID: "story-upsert", SlotIndex: 1, UserID: userID,
		State: s.serializedState("look around"), CurrentSpeaker: "mira",
		CreatedAt: now, LastPlayedAt: now, MessageCount: 1, ChoiceCount: 1,
	}
	require.NoError(s.T(), s.saves.Upsert(ctx, first))

	inserted, err := s.saves.Get(ctx, "story-upsert", 1, userID)
	require.NoError(s.T(), err)
	originalCreatedAt := inserted.CreatedAt
	assert.False(s.T(), inserted.IsCompleted)

	require.NoError(s.T(), s.saves.MarkCompleted(ctx, "story-upsert", 1, userID, "ending-good"))

	second := &models.SaveSlot{
		StoryID: "story-upsert", SlotIndex: 1, UserID: userID,
		State: s.serializedState("look around", "You see ruins.", "enter"), CurrentSpeaker: "aldous",
		CreatedAt: now.Add(time.Hour), LastPlayedAt: now.Add(time.Hour), MessageCount: 3, ChoiceCount: 2,
	}
	require.NoError(s.T(), s.saves.Upsert(ctx, second))

	got, err := s.saves.Get(ctx, "story-upsert", 1, userID)
	require.NoError(s.T(), err)

	// Content fields replaced.
	assert.Equal(s.T(), second.State, got.State)
	assert.Equal(s.T(), "aldous", got.CurrentSpeaker)
	assert.Equal(s.T(), 3, got.MessageCount)
	assert.Equal(s.T(), 2, got.ChoiceCount)
	assert.True(s.T(), got.LastPlayedAt.After(inserted.LastPlayedAt))

	// Creation and completion untouched by the re-save.
	assert.True(s.T(), got.CreatedAt.Equal(originalCreatedAt))
	assert.True(s.T(), got.IsCompleted)
	require.NotNil(s.T(), got.EndingID)
	assert.Equal(s.T(), "ending-good", *got.EndingID)
	require.NotNil(s.T(), got.CompletedAt)
}

// TestConcurrentUpsertsSameKey covers the ON CONFLICT path under a race: two
// writers for one key must resolve into a single row.
func (s *RepositoryIntegrationSuite) TestConcurrentUpsertsSameKey() {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot := &models.SaveSlot{
				StoryID: "story-race", SlotIndex: 1, UserID: userID,
				State:     s.serializedState("racing save"),
				CreatedAt: now, LastPlayedAt: now, MessageCount: 1, ChoiceCount: 1,
			}
			assert.NoError(s.T(), s.saves.Upsert(ctx, slot))
		}()
	}
	wg.Wait()

	var rowCount int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM save_slots WHERE story_id = $1 AND slot_index = $2 AND user_id = $3`,
		"story-race", 1, userID,
	).Scan(&rowCount)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, rowCount)
}

// TestSpendBalanceGuard covers the guarded conditional UPDATE: a sufficient
// spend debits and records, an insufficient one mutates nothing.
func (s *RepositoryIntegrationSuite) TestSpendBalanceGuard() {
	ctx := context.Background()
	userID := uuid.New()
	s.fundAccount(ctx, userID, 50)

	require.NoError(s.T(), s.ledger.Spend(ctx, userID, 30, 1))

	account, err := s.ledger.GetAccount(ctx, userID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(20), account.Balance)
	assert.Equal(s.T(), int64(50), account.TotalEarned)
	assert.Equal(s.T(), int64(30), account.TotalSpent)

	err = s.ledger.Spend(ctx, userID, 30, 1)
	require.ErrorIs(s.T(), err, models.ErrInsufficientGems)

	// Rejected spend left no trace: balance and trail unchanged.
	account, err = s.ledger.GetAccount(ctx, userID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(20), account.Balance)
	assert.Equal(s.T(), account.Balance, account.TotalEarned-account.TotalSpent)

	transactions, err := s.ledger.ListTransactions(ctx, userID, 10)
	require.NoError(s.T(), err)
	assert.Len(s.T(), transactions, 2) // the grant and the one successful spend
}

// TestConcurrentSpendsNeverOverdraw races spends against one account: the
// balance guard must admit exactly as many as the balance can cover.
func (s *RepositoryIntegrationSuite) TestConcurrentSpendsNeverOverdraw() {
	ctx := context.Background()
	userID := uuid.New()
	s.fundAccount(ctx, userID, 50)

	const spenders = 10
	results := make(chan error, spenders)
	var wg sync.WaitGroup
	for i := 0; i < spenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.ledger.Spend(ctx, userID, 10, 1)
		}()
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(s.T(), err, models.ErrInsufficientGems)
			rejected++
		}
	}
	assert.Equal(s.T(), 5, succeeded)
	assert.Equal(s.T(), 5, rejected)

	account, err := s.ledger.GetAccount(ctx, userID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), account.Balance)
	assert.Equal(s.T(), account.Balance, account.TotalEarned-account.TotalSpent)
}

// TestAwardRequiresAccountUnlessProvisioning covers both sides of the
// createIfMissing switch against real rows.
func (s *RepositoryIntegrationSuite) TestAwardRequiresAccountUnlessProvisioning() {
	ctx := context.Background()
	userID := uuid.New()

	err := s.ledger.Award(ctx, userID, 25, "quest", nil, false)
	require.ErrorIs(s.T(), err, models.ErrAccountNotFound)
	_, err = s.ledger.GetAccount(ctx, userID)
	require.ErrorIs(s.T(), err, models.ErrAccountNotFound)

	require.NoError(s.T(), s.ledger.Award(ctx, userID, 25, "quest", nil, true))
	account, err := s.ledger.GetAccount(ctx, userID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(25), account.Balance)
}

// TestUnlockTwiceSpendsOnce covers the ON CONFLICT DO NOTHING detection: the
// second unlock is rejected before any gems move.
func (s *RepositoryIntegrationSuite) TestUnlockTwiceSpendsOnce() {
	ctx := context.Background()
	userID := uuid.New()
	s.fundAccount(ctx, userID, 100)
	contentID := s.insertContent(ctx, "story-unlock", 40)

	info, err := s.content.GetContent(ctx, contentID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(40), info.UnlockCost)

	require.NoError(s.T(), s.unlocks.UnlockWithSpend(ctx, userID, *info))

	unlocked, err := s.unlocks.IsUnlocked(ctx, userID, contentID)
	require.NoError(s.T(), err)
	assert.True(s.T(), unlocked)

	err = s.unlocks.UnlockWithSpend(ctx, userID, *info)
	require.ErrorIs(s.T(), err, models.ErrAlreadyUnlocked)

	account, err := s.ledger.GetAccount(ctx, userID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(60), account.Balance) // debited exactly once

	transactions, err := s.ledger.ListTransactions(ctx, userID, 10)
	require.NoError(s.T(), err)
	spends := 0
	for _, tx := range transactions {
		if tx.Kind == models.TransactionSpend {
			spends++
		}
	}
	assert.Equal(s.T(), 1, spends)
}

// TestUnlockRollsBackOnInsufficientGems covers the single-transaction shape:
// a failed debit must also revert the unlock record.
func (s *RepositoryIntegrationSuite) TestUnlockRollsBackOnInsufficientGems() {
	ctx := context.Background()
	userID := uuid.New()
	s.fundAccount(ctx, userID, 10)
	contentID := s.insertContent(ctx, "story-unlock", 40)

	info, err := s.content.GetContent(ctx, contentID)
	require.NoError(s.T(), err)

	err = s.unlocks.UnlockWithSpend(ctx, userID, *info)
	require.ErrorIs(s.T(), err, models.ErrInsufficientGems)

	unlocked, err := s.unlocks.IsUnlocked(ctx, userID, contentID)
	require.NoError(s.T(), err)
	assert.False(s.T(), unlocked)

	account, err := s.ledger.GetAccount(ctx, userID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(10), account.Balance)
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode.")
	}
	suite.Run(t, new(RepositoryIntegrationSuite))
}
