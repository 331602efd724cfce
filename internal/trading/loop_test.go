package trading

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/helios/internal/domain"
	"github.com/assist-by/helios/internal/exchange"
	"github.com/assist-by/helios/internal/indicator"
	"github.com/assist-by/helios/internal/notification"
	"github.com/assist-by/helios/internal/position"
	"github.com/assist-by/helios/internal/strategy/emacross"
)

type fakeMarket struct {
	candles domain.CandleList
	err     error
}

func (m *fakeMarket) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	return m.candles, m.err
}

type fakeAccount struct {
	available float64
	err       error
}

func (a *fakeAccount) GetBalance(ctx context.Context) (domain.BalanceMap, error) {
	if a.err != nil {
		return nil, a.err
	}
	return domain.BalanceMap{
		"USDT": {Asset: "USDT", Balance: a.available, Available: a.available},
	}, nil
}

func (a *fakeAccount) GetLeverageLimit(ctx context.Context, symbol string) (int, error) {
	return 125, nil
}

type fakeOrders struct {
	mu       sync.Mutex
	requests []domain.OrderRequest
	failAt   int // 1부터 세는 호출 번호, 0이면 실패 없음
}

func (o *fakeOrders) PlaceOrder(ctx context.Context, order domain.OrderRequest) (domain.OrderFill, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	call := len(o.requests) + 1
	if o.failAt != 0 && call >= o.failAt {
		return domain.OrderFill{}, fmt.Errorf("%w: 테스트 거부", exchange.ErrOrderRejected)
	}

	o.requests = append(o.requests, order)
	return domain.OrderFill{
		OrderRef:       fmt.Sprintf("fill-%d", call),
		FilledQuantity: order.Quantity,
		FilledAt:       time.Now(),
	}, nil
}

func (o *fakeOrders) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.requests)
}

type fakeNotifier struct {
	mu      sync.Mutex
	signals int
	trades  int
	errs    int
	infos   int
}

func (n *fakeNotifier) SendSignal(notification.SignalInfo) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signals++
	return nil
}

func (n *fakeNotifier) SendTradeInfo(notification.TradeInfo) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.trades++
	return nil
}

func (n *fakeNotifier) SendError(error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs++
	return nil
}

func (n *fakeNotifier) SendInfo(string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos++
	return nil
}

const testInterval = domain.Interval15m

// makeClosedCandles는 마지막 봉이 방금 닫힌 상태의 시계열을 만듭니다
func makeClosedCandles(closes []float64) domain.CandleList {
	lastOpen := time.Now().Add(-testInterval.Duration() - time.Minute)
	candles := make(domain.CandleList, len(closes))
	for i := range closes {
		offset := time.Duration(len(closes)-1-i) * testInterval.Duration()
		candles[i] = domain.Candle{
			OpenTime: lastOpen.Add(-offset),
			Open:     closes[i],
			High:     closes[i],
			Low:      closes[i],
			Close:    closes[i],
		}
	}
	return candles
}

func newTestLoop(t *testing.T, market *fakeMarket, orders *fakeOrders, notifier *fakeNotifier) (*Loop, *position.Ledger) {
	t.Helper()

	ledger, err := position.NewLedger("BTCUSDT", 20, 0.5, 0.0005)
	require.NoError(t, err)
	engine, err := indicator.NewEngine(2, 4)
	require.NoError(t, err)

	loop := NewLoop(Config{
		Symbol:         "BTCUSDT",
		Timeframe:      testInterval,
		CandleLimit:    100,
		Leverage:       20,
		CommissionRate: 0.0005,
		PaperTrading:   true,
	}, market, &fakeAccount{available: 1000}, orders, ledger, engine, emacross.NewEvaluator(), nil, notifier)

	return loop, ledger
}

func TestExecuteOpensLongOnGoldenCross(t *testing.T) {
	market := &fakeMarket{candles: makeClosedCandles([]float64{100, 101, 99, 98, 105})}
	orders := &fakeOrders{}
	notifier := &fakeNotifier{}
	loop, ledger := newTestLoop(t, market, orders, notifier)

	require.NoError(t, loop.Execute(context.Background()))

	require.Equal(t, 1, orders.count())
	assert.Equal(t, domain.Buy, orders.requests[0].Side)
	assert.True(t, ledger.SideOpen(domain.LongPosition))
	assert.False(t, ledger.SideOpen(domain.ShortPosition))
	assert.Equal(t, 1, notifier.signals)
	assert.Equal(t, 1, notifier.trades)
}

func TestExecuteOneActionPerClosedBar(t *testing.T) {
	market := &fakeMarket{candles: makeClosedCandles([]float64{100, 101, 99, 98, 105})}
	orders := &fakeOrders{}
	notifier := &fakeNotifier{}
	loop, _ := newTestLoop(t, market, orders, notifier)

	require.NoError(t, loop.Execute(context.Background()))
	require.Equal(t, 1, orders.count())

	// 같은 봉으로 다시 실행해도 추가 행동이 없습니다
	require.NoError(t, loop.Execute(context.Background()))
	assert.Equal(t, 1, orders.count())
	assert.Equal(t, 1, notifier.signals)
}

func TestExecuteIgnoresFormingBar(t *testing.T) {
	// 닫힌 구간에는 교차가 없고, 형성 중인 마지막 봉까지 포함해야
	// 교차가 보이는 시계열입니다
	candles := makeClosedCandles([]float64{100, 101, 99, 98})
	candles = append(candles, domain.Candle{
		OpenTime: time.Now().Add(-time.Minute),
		Close:    105,
	})
	market := &fakeMarket{candles: candles}
	orders := &fakeOrders{}
	notifier := &fakeNotifier{}
	loop, ledger := newTestLoop(t, market, orders, notifier)

	require.NoError(t, loop.Execute(context.Background()))

	assert.Zero(t, orders.count())
	assert.Empty(t, ledger.Snapshot(105).Positions)
}

func TestExecuteFlipToShort(t *testing.T) {
	market := &fakeMarket{candles: makeClosedCandles([]float64{100, 99, 101, 102, 95})}
	orders := &fakeOrders{}
	notifier := &fakeNotifier{}
	loop, ledger := newTestLoop(t, market, orders, notifier)

	// 롱 포지션이 열린 상태에서 데드 크로스가 발생합니다
	_, err := ledger.Open(domain.LongPosition, 100, domain.Balance{Available: 1000}, "ord-0", time.Now())
	require.NoError(t, err)

	require.NoError(t, loop.Execute(context.Background()))

	// 전량 청산 주문 + 신규 진입 주문
	require.Equal(t, 2, orders.count())
	assert.Equal(t, domain.Sell, orders.requests[0].Side)
	assert.Equal(t, domain.Sell, orders.requests[1].Side)

	// 원장은 숏 하나만 남아야 합니다
	snap := ledger.Snapshot(95)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, domain.ShortPosition, snap.Positions[0].Side)
	assert.False(t, snap.SideOpen(domain.LongPosition))

	// 청산 기록과 진입 기록이 각각 발행됩니다
	assert.Equal(t, 2, notifier.trades)
}

func TestExecuteFlipOpenFailureEndsFlat(t *testing.T) {
	market := &fakeMarket{candles: makeClosedCandles([]float64{100, 99, 101, 102, 95})}
	orders := &fakeOrders{failAt: 2} // 청산은 성공, 신규 진입은 거부
	notifier := &fakeNotifier{}
	loop, ledger := newTestLoop(t, market, orders, notifier)

	_, err := ledger.Open(domain.LongPosition, 100, domain.Balance{Available: 1000}, "ord-0", time.Now())
	require.NoError(t, err)

	require.NoError(t, loop.Execute(context.Background()))

	// 청산 후 진입이 실패하면 플랫 상태로 사이클이 끝납니다
	assert.Empty(t, ledger.Snapshot(95).Positions)
	assert.Positive(t, notifier.errs)
}

func TestExecuteSkipsStaleData(t *testing.T) {
	// 마지막 봉이 세 시간 전이면 평가 없이 건너뜁니다
	candles := makeClosedCandles([]float64{100, 101, 99, 98, 105})
	for i := range candles {
		candles[i].OpenTime = candles[i].OpenTime.Add(-3 * time.Hour)
	}
	market := &fakeMarket{candles: candles}
	orders := &fakeOrders{}
	notifier := &fakeNotifier{}
	loop, ledger := newTestLoop(t, market, orders, notifier)

	require.NoError(t, loop.Execute(context.Background()))

	assert.Zero(t, orders.count())
	assert.Empty(t, ledger.Snapshot(105).Positions)
	assert.Positive(t, notifier.errs)
}

func TestExecuteSurvivesMarketDataError(t *testing.T) {
	market := &fakeMarket{err: fmt.Errorf("연결 실패")}
	orders := &fakeOrders{}
	notifier := &fakeNotifier{}
	loop, _ := newTestLoop(t, market, orders, notifier)

	// 사이클 실패는 루프를 종료시키지 않습니다
	require.NoError(t, loop.Execute(context.Background()))
	assert.Zero(t, orders.count())
	assert.Positive(t, notifier.errs)
}

func TestExecuteNoActionWithoutCross(t *testing.T) {
	market := &fakeMarket{candles: makeClosedCandles([]float64{100, 100, 100, 100, 100, 100})}
	orders := &fakeOrders{}
	notifier := &fakeNotifier{}
	loop, _ := newTestLoop(t, market, orders, notifier)

	require.NoError(t, loop.Execute(context.Background()))

	assert.Zero(t, orders.count())
	assert.Zero(t, notifier.signals)
	assert.Equal(t, StateIdle, loop.Status().State)
}

func TestForceEntry(t *testing.T) {
	market := &fakeMarket{candles: makeClosedCandles([]float64{100, 100, 100, 100, 100})}
	orders := &fakeOrders{}
	notifier := &fakeNotifier{}
	loop, ledger := newTestLoop(t, market, orders, notifier)

	require.NoError(t, loop.ForceEntry(context.Background(), domain.ShortPosition))

	assert.Equal(t, 1, orders.count())
	assert.True(t, ledger.SideOpen(domain.ShortPosition))

	// 반대 방향 강제 진입은 기존 포지션을 먼저 청산합니다
	require.NoError(t, loop.ForceEntry(context.Background(), domain.LongPosition))
	snap := ledger.Snapshot(100)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, domain.LongPosition, snap.Positions[0].Side)
}
