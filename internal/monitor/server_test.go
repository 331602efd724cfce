package monitor

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/helios/internal/domain"
	"github.com/assist-by/helios/internal/trading"
)

type fakeSource struct {
	status trading.Status
}

func (f *fakeSource) Status() trading.Status {
	return f.status
}

func newTestServer() (*Server, *fakeSource) {
	source := &fakeSource{status: trading.Status{
		State:     trading.StateIdle,
		Symbol:    "BTCUSDT",
		LastPrice: 105,
		Condition: domain.MarketBullish,
		Positions: []domain.Position{{
			ID:         "01POS",
			Symbol:     "BTCUSDT",
			Side:       domain.LongPosition,
			Size:       500,
			EntryPrice: 100,
			Leverage:   20,
			OpenedAt:   time.Now(),
		}},
		TotalMargin:        25,
		TotalUnrealizedPnL: 500,
		Balance:            domain.Balance{Asset: "USDT", Balance: 1000, Available: 975},
		PaperTrading:       true,
	}}

	cfg := ConfigView{
		Symbol:     "BTCUSDT",
		Timeframe:  "15m",
		FastPeriod: 2,
		SlowPeriod: 4,
		Leverage:   20,
	}
	return NewServer(0, cfg, source, nil), source
}

func TestHandleConfig(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.handleConfig(rec, httptest.NewRequest("GET", "/api/config", nil))

	var got ConfigView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "BTCUSDT", got.Symbol)
	assert.Equal(t, 2, got.FastPeriod)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHandleStatus(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest("GET", "/api/status", nil))

	var got trading.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, trading.StateIdle, got.State)
	assert.Equal(t, domain.MarketBullish, got.Condition)
	assert.InDelta(t, 105.0, got.LastPrice, 1e-9)
}

func TestHandlePositions(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.handlePositions(rec, httptest.NewRequest("GET", "/api/positions", nil))

	var got struct {
		Positions   []domain.Position `json:"positions"`
		TotalMargin float64           `json:"total_margin"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Positions, 1)
	assert.Equal(t, domain.LongPosition, got.Positions[0].Side)
	assert.InDelta(t, 25.0, got.TotalMargin, 1e-9)
}

func TestHandleTradesWithoutRecorder(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.handleTrades(rec, httptest.NewRequest("GET", "/api/trades", nil))

	assert.JSONEq(t, "[]", rec.Body.String())
}
