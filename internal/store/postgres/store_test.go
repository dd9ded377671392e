package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/pkg/config"
	"github.com/wonny/tradingquiz/pkg/database"
)

// newTestStore connects to TEST_DATABASE_URL, migrates and empties the schema.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		URL:             url,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE trading_sessions, predictions, samples, users CASCADE`)
	require.NoError(t, err)

	return New(db.Pool)
}

func createUser(t *testing.T, s *Store, name string, rating float64, created time.Time) *contracts.User {
	t.Helper()
	u := &contracts.User{
		ID:           uuid.NewString(),
		Username:     name,
		PasswordHash: "hash",
		Rating:       rating,
		CreatedAt:    created,
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestUserRepository(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	alice := createUser(t, s, "alice", 1000, base)
	bob := createUser(t, s, "bob", 1016, base.Add(time.Second))
	carol := createUser(t, s, "carol", 1016, base.Add(2*time.Second))

	err := s.Users().Create(ctx, &contracts.User{ID: uuid.NewString(), Username: "alice", CreatedAt: base})
	assert.ErrorIs(t, err, contracts.ErrAlreadyExists)

	// Usernames are unique regardless of case.
	err = s.Users().Create(ctx, &contracts.User{ID: uuid.NewString(), Username: "Alice", CreatedAt: base})
	assert.ErrorIs(t, err, contracts.ErrAlreadyExists)

	got, err := s.Users().GetByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = s.Users().GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, contracts.ErrNotFound)
	_, err = s.Users().GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	top, err := s.Users().Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{bob.ID, carol.ID, alice.ID}, []string{top[0].ID, top[1].ID, top[2].ID})

	above, err := s.Users().CountAbove(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2, above)
}

func TestSampleRepository(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Samples().Random(ctx)
	assert.ErrorIs(t, err, contracts.ErrNotAvailable)

	samples := []*contracts.Sample{
		{ID: uuid.NewString(), AssetName: "BTCUSD", Timeframe: "1D", ImageRef: "/a.png", Outcome: contracts.DirectionUp, CreatedAt: time.Now()},
		{ID: uuid.NewString(), AssetName: "BTCUSD", Timeframe: "1D", ImageRef: "/b.png", Outcome: contracts.DirectionDown, CreatedAt: time.Now()},
	}
	require.NoError(t, s.Samples().CreateBatch(ctx, samples))

	n, err := s.Samples().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.Samples().GetByID(ctx, samples[1].ID)
	require.NoError(t, err)
	assert.Equal(t, contracts.DirectionDown, got.Outcome)

	random, err := s.Samples().Random(ctx)
	require.NoError(t, err)
	assert.Contains(t, []string{samples[0].ID, samples[1].ID}, random.ID)
}

func TestWithinTx_RollbackAndCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "dave", 1000, time.Now())
	sample := &contracts.Sample{ID: uuid.NewString(), AssetName: "BTCUSD", Timeframe: "1D", Outcome: contracts.DirectionUp, CreatedAt: time.Now()}
	require.NoError(t, s.Samples().Create(ctx, sample))

	// A failing insert rolls back the rating update
	err := s.WithinTx(ctx, func(ctx context.Context, tx contracts.Tx) error {
		if err := tx.UpdateRating(ctx, u.ID, 5000); err != nil {
			return err
		}
		return tx.InsertPrediction(ctx, &contracts.Prediction{
			ID: uuid.NewString(), UserID: u.ID, SampleID: uuid.NewString(),
			GuessedDirection: contracts.DirectionUp, ActualOutcome: contracts.DirectionUp, CreatedAt: time.Now(),
		})
	})
	require.Error(t, err)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, got.Rating)

	err = s.WithinTx(ctx, func(ctx context.Context, tx contracts.Tx) error {
		if err := tx.UpdateRating(ctx, u.ID, 1016); err != nil {
			return err
		}
		if err := tx.InsertTradingSession(ctx, &contracts.TradingSession{
			ID: uuid.NewString(), UserID: u.ID,
			StartBalance: decimal.NewFromInt(100000), EndBalance: decimal.RequireFromString("101234.56"),
			PercentGain: 1.23456, TradeCount: 3, Delta: 12, CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		return tx.InsertPrediction(ctx, &contracts.Prediction{
			ID: uuid.NewString(), UserID: u.ID, SampleID: sample.ID,
			GuessedDirection: contracts.DirectionUp, ActualOutcome: contracts.DirectionUp, Delta: 16, CreatedAt: time.Now(),
		})
	})
	require.NoError(t, err)

	stats, err := s.Predictions().StatsByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, contracts.PredictionStats{Total: 1, Correct: 1}, stats)

	sessions, err := s.Sessions().ListByUser(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.True(t, decimal.RequireFromString("101234.56").Equal(sessions[0].EndBalance))
}

func TestHistoryRejectsMalformedUserID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Predictions().StatsByUser(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	_, err = s.Predictions().ListByUser(ctx, "not-a-uuid", 0)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	_, err = s.Sessions().ListByUser(ctx, "not-a-uuid", 0)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	// A well-formed id with no rows is simply empty.
	stats, err := s.Predictions().StatsByUser(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestWithinTx_LockUserSerialisesWriters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "erin", 1000, time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithinTx(ctx, func(ctx context.Context, tx contracts.Tx) error {
				locked, err := tx.LockUser(ctx, u.ID)
				if err != nil {
					return err
				}
				time.Sleep(20 * time.Millisecond)
				return tx.UpdateRating(ctx, u.ID, locked.Rating+16)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1032.0, got.Rating)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	_, err := parseID("user", "nope")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}
