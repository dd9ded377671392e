package replay

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/internal/store/memory"
	"github.com/wonny/tradingquiz/pkg/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCloseTrade(t *testing.T) {
	tests := []struct {
		name       string
		pos        Position
		exit       string
		wantProfit string
		wantPct    float64
	}{
		{"long win", Position{Side: Long, EntryPrice: d("100"), Size: d("2"), EntryTime: 10}, "110", "20", 10},
		{"long loss", Position{Side: Long, EntryPrice: d("100"), Size: d("1"), EntryTime: 10}, "95", "-5", -5},
		{"short win", Position{Side: Short, EntryPrice: d("200"), Size: d("0.5"), EntryTime: 10}, "150", "25", 25},
		{"short loss", Position{Side: Short, EntryPrice: d("200"), Size: d("1"), EntryTime: 10}, "210", "-10", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CloseTrade(tt.pos, d(tt.exit), 70)
			require.NoError(t, err)
			assert.True(t, d(tt.wantProfit).Equal(res.Profit), "profit %s", res.Profit)
			assert.InDelta(t, tt.wantPct, res.PercentChange, 1e-9)
			assert.Equal(t, int64(60), res.TimeInTrade)
		})
	}
}

func TestCloseTrade_Invalid(t *testing.T) {
	_, err := CloseTrade(Position{Side: "sideways", EntryPrice: d("1"), Size: d("1")}, d("1"), 0)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	_, err = CloseTrade(Position{Side: Long, EntryPrice: d("0"), Size: d("1")}, d("1"), 0)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	_, err = CloseTrade(Position{Side: Long, EntryPrice: d("1"), Size: d("0")}, d("1"), 0)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Users().Create(context.Background(), &contracts.User{
		ID: "u1", Username: "alice", Rating: 1000, CreatedAt: time.Now(),
	}))
	return NewService(store, nil, logger.Nop()), store
}

func long(entry, size, exit string, in, out int64) ClosedTrade {
	return ClosedTrade{
		Position:  Position{Side: Long, EntryPrice: d(entry), EntryTime: in, Size: d(size)},
		ExitPrice: d(exit),
		ExitTime:  out,
	}
}

func short(entry, size, exit string, in, out int64) ClosedTrade {
	tr := long(entry, size, exit, in, out)
	tr.Side = Short
	return tr
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name    string
		trades  []ClosedTrade
		wantEnd string
	}{
		{"no trades", nil, "100000"},
		{"single long", []ClosedTrade{long("100", "1000", "105", 1, 2)}, "105000"},
		{"compounds", []ClosedTrade{
			long("100", "1000", "110", 1, 2),
			short("110", "1000", "100", 2, 3),
		}, "120000"},
		{"short liquidated to zero", []ClosedTrade{short("100", "1000", "250", 1, 2)}, "0"},
		{"rounds to cents", []ClosedTrade{long("3", "1", "3.333", 1, 2)}, "100000.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Settle(tt.trades)
			require.NoError(t, err)
			assert.True(t, DefaultStartingBalance.Equal(got.StartBalance))
			assert.True(t, d(tt.wantEnd).Equal(got.EndBalance), "end balance %s", got.EndBalance)
			assert.Len(t, got.Results, len(tt.trades))
		})
	}
}

func TestSettle_Rejects(t *testing.T) {
	tooMany := make([]ClosedTrade, MaxTrades+1)
	for i := range tooMany {
		tooMany[i] = long("1", "1", "1", int64(i), int64(i))
	}

	tests := []struct {
		name   string
		trades []ClosedTrade
	}{
		{"exit before entry", []ClosedTrade{long("100", "1", "101", 5, 4)}},
		{"overlapping trades", []ClosedTrade{
			long("100", "1", "101", 1, 10),
			long("100", "1", "101", 5, 12),
		}},
		{"costs more than balance", []ClosedTrade{long("100", "1000.01", "101", 1, 2)}},
		{"nothing left after liquidation", []ClosedTrade{
			short("100", "1000", "250", 1, 2),
			long("1", "1", "2", 3, 4),
		}},
		{"balance past bound", []ClosedTrade{long("1", "100000", "100000000", 1, 2)}},
		{"too many trades", tooMany},
		{"invalid position", []ClosedTrade{long("100", "0", "101", 1, 2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Settle(tt.trades)
			assert.ErrorIs(t, err, contracts.ErrInvalidInput)
		})
	}
}

func TestSubmitSession(t *testing.T) {
	tests := []struct {
		name      string
		trades    []ClosedTrade
		wantDelta int
	}{
		{"five percent", []ClosedTrade{long("100", "1000", "105", 1, 2)}, 50},
		{"flat", nil, 0},
		{"big win clamps", []ClosedTrade{long("100", "1000", "150", 1, 2)}, 100},
		{"wipe out clamps", []ClosedTrade{long("100", "1000", "0.01", 1, 2)}, -100},
		{"small loss", []ClosedTrade{long("100", "1000", "99", 1, 2)}, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t)

			res, err := svc.SubmitSession(context.Background(), "u1", SessionInput{Trades: tt.trades})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDelta, res.Delta)
			assert.Equal(t, 1000+float64(tt.wantDelta), res.NewRating)

			sessions, err := store.Sessions().ListByUser(context.Background(), "u1", 0)
			require.NoError(t, err)
			require.Len(t, sessions, 1)
			assert.Equal(t, res.SessionID, sessions[0].ID)
			assert.Equal(t, len(tt.trades), sessions[0].TradeCount)
			assert.True(t, res.EndBalance.Equal(sessions[0].EndBalance))
			assert.True(t, DefaultStartingBalance.Equal(sessions[0].StartBalance))
		})
	}
}

func TestSubmitSession_ClientBalance(t *testing.T) {
	ctx := context.Background()
	trades := []ClosedTrade{long("100", "1000", "105", 1, 2)}

	svc, _ := newService(t)
	matching := d("105000.00")
	res, err := svc.SubmitSession(ctx, "u1", SessionInput{Trades: trades, EndBalance: &matching})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Delta)

	svc, store := newService(t)
	inflated := d("10000000")
	_, err = svc.SubmitSession(ctx, "u1", SessionInput{Trades: trades, EndBalance: &inflated})
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	user, err := store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, float64(1000), user.Rating)
}

func TestSubmitSession_Errors(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.SubmitSession(ctx, "u1", SessionInput{Trades: []ClosedTrade{long("100", "2000", "110", 1, 2)}})
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	_, err = svc.SubmitSession(ctx, "u1", SessionInput{Trades: []ClosedTrade{long("100", "1", "110", 3, 2)}})
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	_, err = svc.SubmitSession(ctx, "ghost", SessionInput{Trades: []ClosedTrade{long("100", "1", "110", 1, 2)}})
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	sessions, err := store.Sessions().ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
