// Package trading은 봉 마감 주기로 지표 계산과 시그널 평가를 거쳐
// 포지션 조작까지 이어지는 의사결정 루프를 구현합니다.
package trading

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/assist-by/helios/internal/domain"
	"github.com/assist-by/helios/internal/exchange"
	"github.com/assist-by/helios/internal/id"
	"github.com/assist-by/helios/internal/indicator"
	"github.com/assist-by/helios/internal/notification"
	"github.com/assist-by/helios/internal/position"
	"github.com/assist-by/helios/internal/recorder"
	"github.com/assist-by/helios/internal/strategy/emacross"
)

// State는 의사결정 루프의 사이클 내 상태입니다
type State string

const (
	StateAwaitingBarClose State = "AWAITING_BAR_CLOSE"
	StateEvaluating       State = "EVALUATING"
	StateActing           State = "ACTING"
	StateIdle             State = "IDLE"
)

const (
	snapshotInterval = 5 * time.Minute  // 포지션/잔고 스냅샷 주기
	statusInterval   = 30 * time.Minute // 상태 보고 주기
)

// Config는 의사결정 루프의 불변 설정입니다
type Config struct {
	Symbol         string
	Timeframe      domain.TimeInterval
	CandleLimit    int
	Leverage       int
	CommissionRate float64
	PaperTrading   bool
}

// Loop는 의사결정 루프입니다.
// 스케줄러 주기마다 Execute가 호출되며, 한 사이클은 최대 하나의
// 닫힌 봉만 처리하고 최대 하나의 행동만 수행합니다.
type Loop struct {
	cfg Config

	market    exchange.MarketDataSource
	account   exchange.AccountSource
	orders    exchange.OrderSink
	ledger    *position.Ledger
	engine    *indicator.Engine
	evaluator *emacross.Evaluator
	recorder  *recorder.Recorder
	notifier  notification.Notifier

	startedAt time.Time

	mu               sync.Mutex
	state            State
	lastProcessedBar time.Time // 마지막으로 평가한 닫힌 봉의 시작 시간
	lastSnapshotAt   time.Time
	lastStatusAt     time.Time
	status           Status
}

// Status는 웹 모니터에 노출되는 루프 상태입니다
type Status struct {
	State              State                  `json:"state"`
	Symbol             string                 `json:"symbol"`
	LastPrice          float64                `json:"last_price"`
	Condition          domain.MarketCondition `json:"market_condition"`
	LastEvaluatedBar   time.Time              `json:"last_evaluated_bar"`
	Positions          []domain.Position      `json:"positions"`
	TotalMargin        float64                `json:"total_margin"`
	TotalUnrealizedPnL float64                `json:"total_unrealized_pnl"`
	Balance            domain.Balance         `json:"balance"`
	Stats              domain.LedgerStats     `json:"stats"`
	PaperTrading       bool                   `json:"paper_trading"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// NewLoop는 의사결정 루프를 생성합니다
func NewLoop(cfg Config, market exchange.MarketDataSource, account exchange.AccountSource,
	orders exchange.OrderSink, ledger *position.Ledger, engine *indicator.Engine,
	evaluator *emacross.Evaluator, rec *recorder.Recorder, notifier notification.Notifier) *Loop {
	return &Loop{
		cfg:       cfg,
		market:    market,
		account:   account,
		orders:    orders,
		ledger:    ledger,
		engine:    engine,
		evaluator: evaluator,
		recorder:  rec,
		notifier:  notifier,
		startedAt: time.Now(),
		state:     StateAwaitingBarClose,
	}
}

// Execute는 한 사이클을 수행합니다.
// 사이클 내 모든 실패는 여기서 흡수되어 루프를 종료시키지 않습니다.
func (l *Loop) Execute(ctx context.Context) error {
	now := time.Now()
	l.setState(StateAwaitingBarClose)

	candles, err := l.market.GetKlines(ctx, l.cfg.Symbol, l.cfg.Timeframe, l.cfg.CandleLimit)
	if err != nil {
		l.reportError(fmt.Errorf("%w: %v", exchange.ErrStaleMarketData, err))
		return nil
	}
	if len(candles) == 0 {
		l.reportError(fmt.Errorf("%w: 캔들 데이터가 비어 있습니다", exchange.ErrStaleMarketData))
		return nil
	}

	// 마지막 원소는 아직 형성 중인 봉일 수 있으므로 닫힌 봉만 남깁니다
	closed := candles
	for len(closed) > 0 {
		if closed[len(closed)-1].IsClosed(l.cfg.Timeframe, now) {
			break
		}
		closed = closed[:len(closed)-1]
	}
	if len(closed) == 0 {
		return nil
	}

	lastBar := closed[len(closed)-1]

	// 신선도 검사: 마지막 닫힌 봉이 두 주기 이상 오래되면 건너뜁니다
	if now.Sub(lastBar.OpenTime) > 2*l.cfg.Timeframe.Duration() {
		l.reportError(fmt.Errorf("%w: 마지막 봉 시작 %s", exchange.ErrStaleMarketData,
			lastBar.OpenTime.Format("15:04:05")))
		return nil
	}

	price := lastBar.Close
	defer l.finishCycle(ctx, now, price)

	// 이미 처리한 봉이면 평가하지 않습니다
	if !lastBar.OpenTime.After(l.lastEvaluated()) {
		l.setState(StateIdle)
		return nil
	}

	l.setState(StateEvaluating)
	snapshots := l.engine.Compute(closed.Closes())
	sig := l.evaluator.Evaluate(snapshots)
	last := snapshots[len(snapshots)-1]

	l.markEvaluated(lastBar.OpenTime)
	l.updateStatusView(sig.Condition, price, now)

	action := l.decideAction(sig)
	if action == domain.ActionNone {
		l.setState(StateIdle)
		return nil
	}

	log.Printf("시그널 발생 [%s]: %s (가격: %.2f, 시장 상황: %s)",
		l.cfg.Symbol, action, price, sig.Condition)

	if err := l.notifier.SendSignal(notification.SignalInfo{
		Symbol:     l.cfg.Symbol,
		Action:     action,
		Price:      price,
		Condition:  sig.Condition,
		EMA:        last.EMA,
		MA:         last.MA,
		LongEntry:  sig.LongEntry,
		ShortEntry: sig.ShortEntry,
		Timestamp:  lastBar.CloseTime(l.cfg.Timeframe),
	}); err != nil {
		log.Printf("시그널 알림 전송 실패: %v", err)
	}

	l.setState(StateActing)
	if err := l.act(ctx, action, price, now); err != nil {
		l.reportError(err)
	}

	l.setState(StateIdle)
	return nil
}

// decideAction은 평가 결과와 원장 상태로 행동을 결정합니다.
// 반대 방향 포지션이 있으면 독립적인 두 번의 진입 대신 플립을
// 선택해 양쪽 포지션이 동시에 열리는 일을 막습니다.
func (l *Loop) decideAction(sig emacross.Signal) domain.Action {
	switch {
	case sig.LongEntry:
		if l.ledger.SideOpen(domain.ShortPosition) {
			return domain.ActionFlipToLong
		}
		if !l.ledger.SideOpen(domain.LongPosition) {
			return domain.ActionOpenLong
		}
	case sig.ShortEntry:
		if l.ledger.SideOpen(domain.LongPosition) {
			return domain.ActionFlipToShort
		}
		if !l.ledger.SideOpen(domain.ShortPosition) {
			return domain.ActionOpenShort
		}
	}
	return domain.ActionNone
}

// act는 결정된 행동을 수행합니다.
// 플립은 전량 청산 후 신규 진입의 복구 가능한 단위로 취급하며,
// 청산 후 진입이 실패하면 플랫 상태로 사이클을 끝냅니다.
func (l *Loop) act(ctx context.Context, action domain.Action, price float64, now time.Time) error {
	side, ok := action.EntrySide()
	if !ok {
		return nil
	}

	if action.IsFlip() {
		if err := l.closeAll(ctx, price, now); err != nil {
			return err
		}
		if err := l.open(ctx, side, price, now); err != nil {
			// 청산은 이미 끝났으므로 재시도 없이 플랫 상태로 종료합니다
			return fmt.Errorf("플립 중 신규 진입 실패, 플랫 상태로 종료: %w", err)
		}
		return nil
	}

	return l.open(ctx, side, price, now)
}

// open은 주문을 체결하고 원장에 포지션을 등록합니다
func (l *Loop) open(ctx context.Context, side domain.PositionSide, price float64, now time.Time) error {
	balance, err := l.fetchBalance(ctx)
	if err != nil {
		return err
	}

	notional, err := l.ledger.PlanOpen(side, balance)
	if err != nil {
		return err
	}

	fill, err := l.orders.PlaceOrder(ctx, domain.OrderRequest{
		Symbol:        l.cfg.Symbol,
		Side:          domain.EntryOrderSide(side),
		Type:          domain.Market,
		Quantity:      notional / price,
		ClientOrderID: id.New(),
	})
	if err != nil {
		return err
	}

	fillPrice := fill.AvgPrice
	if fillPrice <= 0 {
		fillPrice = price
	}

	res, err := l.ledger.Open(side, fillPrice, balance, fill.OrderRef, now)
	if err != nil {
		return err
	}

	l.emitRecord(domain.TradeRecord{
		ID:         id.New(),
		Timestamp:  now,
		Symbol:     l.cfg.Symbol,
		Side:       side,
		Action:     domain.TradeOpen,
		Price:      fillPrice,
		Size:       res.Position.Size,
		Leverage:   res.Position.Leverage,
		Commission: res.Commission,
		OrderRef:   fill.OrderRef,
		PaperTrade: l.cfg.PaperTrading,
	}, balance)

	log.Printf("포지션 진입 [%s]: %s %.2f USDT @ %.2f (주문: %s)",
		l.cfg.Symbol, side, res.Position.Size, fillPrice, fill.OrderRef)
	return nil
}

// closeAll은 보유 중인 모든 포지션을 주문으로 청산하고 원장에 반영합니다.
// 등록 역순으로 처리하며, 개별 주문 실패는 보고 후 나머지를 계속합니다.
func (l *Loop) closeAll(ctx context.Context, price float64, now time.Time) error {
	snap := l.ledger.Snapshot(price)
	if len(snap.Positions) == 0 {
		return nil
	}

	balance, err := l.fetchBalance(ctx)
	if err != nil {
		balance = domain.Balance{}
	}

	var firstErr error
	for i := len(snap.Positions) - 1; i >= 0; i-- {
		pos := snap.Positions[i]

		fill, err := l.orders.PlaceOrder(ctx, domain.OrderRequest{
			Symbol:        pos.Symbol,
			Side:          domain.ExitOrderSide(pos.Side),
			Type:          domain.Market,
			Quantity:      pos.Size / pos.EntryPrice,
			ClientOrderID: id.New(),
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			l.reportError(fmt.Errorf("청산 주문 실패 [%s %s]: %w", pos.Symbol, pos.Side, err))
			continue
		}

		exitPrice := fill.AvgPrice
		if exitPrice <= 0 {
			exitPrice = price
		}

		closed, err := l.ledger.Close(pos.ID, exitPrice, now)
		if err != nil {
			// 정합성 동기화가 먼저 제거한 경우일 수 있습니다
			l.reportError(err)
			continue
		}

		l.emitRecord(domain.TradeRecord{
			ID:           id.New(),
			Timestamp:    now,
			Symbol:       pos.Symbol,
			Side:         pos.Side,
			Action:       domain.TradeClose,
			Price:        exitPrice,
			Size:         closed.Position.Size,
			Leverage:     closed.Position.Leverage,
			Commission:   closed.Commission,
			GrossPnL:     closed.GrossPnL,
			NetPnL:       closed.NetPnL,
			EntryPrice:   closed.Position.EntryPrice,
			HoldDuration: closed.HoldDuration,
			OrderRef:     fill.OrderRef,
			PaperTrade:   l.cfg.PaperTrading,
		}, balance)

		log.Printf("포지션 청산 [%s]: %s 순손익 %.4f USDT (보유: %s)",
			pos.Symbol, pos.Side, closed.NetPnL, closed.HoldDuration.Round(time.Second))
	}

	return firstErr
}

// ForceEntry는 수동 테스트용으로 시그널 없이 즉시 진입합니다
func (l *Loop) ForceEntry(ctx context.Context, side domain.PositionSide) error {
	candles, err := l.market.GetKlines(ctx, l.cfg.Symbol, l.cfg.Timeframe, l.cfg.CandleLimit)
	if err != nil {
		return err
	}
	last, ok := candles.Last()
	if !ok {
		return fmt.Errorf("%w: 캔들 데이터가 비어 있습니다", exchange.ErrStaleMarketData)
	}

	now := time.Now()
	if l.ledger.SideOpen(side.Opposite()) {
		if err := l.closeAll(ctx, last.Close, now); err != nil {
			return err
		}
	}
	return l.open(ctx, side, last.Close, now)
}

// emitRecord는 거래 기록을 저장소와 알림 채널에 발행합니다.
// 발행 실패는 거래 흐름을 막지 않고 로깅만 합니다.
func (l *Loop) emitRecord(rec domain.TradeRecord, balance domain.Balance) {
	if l.recorder != nil {
		if err := l.recorder.Record(rec); err != nil {
			log.Printf("거래 기록 저장 실패: %v", err)
		}
	}

	if err := l.notifier.SendTradeInfo(notification.TradeInfo{
		Symbol:       rec.Symbol,
		Action:       string(rec.Action),
		PositionType: string(rec.Side),
		Size:         rec.Size,
		Price:        rec.Price,
		Leverage:     rec.Leverage,
		Commission:   rec.Commission,
		NetPnL:       rec.NetPnL,
		HoldDuration: rec.HoldDuration,
		Balance:      balance.Balance,
		PaperTrade:   rec.PaperTrade,
	}); err != nil {
		log.Printf("거래 알림 전송 실패: %v", err)
	}
}

func (l *Loop) fetchBalance(ctx context.Context) (domain.Balance, error) {
	balances, err := l.account.GetBalance(ctx)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("잔고 조회 실패: %w", err)
	}
	usdt, ok := balances.USDT()
	if !ok {
		return domain.Balance{}, fmt.Errorf("%w: USDT 잔고가 없습니다", position.ErrInsufficientBalance)
	}
	return usdt, nil
}

// finishCycle은 주기적 스냅샷 저장과 상태 보고를 수행합니다
func (l *Loop) finishCycle(ctx context.Context, now time.Time, price float64) {
	l.mu.Lock()
	saveSnapshot := now.Sub(l.lastSnapshotAt) >= snapshotInterval
	sendStatus := now.Sub(l.lastStatusAt) >= statusInterval
	if saveSnapshot {
		l.lastSnapshotAt = now
	}
	if sendStatus {
		l.lastStatusAt = now
	}
	l.mu.Unlock()

	if !saveSnapshot && !sendStatus {
		return
	}

	snap := l.ledger.Snapshot(price)
	balance, err := l.fetchBalance(ctx)
	if err != nil {
		log.Printf("스냅샷용 잔고 조회 실패: %v", err)
	}
	stats := l.ledger.Stats()

	l.mu.Lock()
	l.status.Positions = snap.Positions
	l.status.TotalMargin = snap.TotalMargin
	l.status.TotalUnrealizedPnL = snap.TotalUnrealizedPnL
	l.status.Balance = balance
	l.status.Stats = stats
	l.status.UpdatedAt = now
	l.mu.Unlock()

	if saveSnapshot && l.recorder != nil {
		if err := l.recorder.SavePositionSnapshot(now, snap.Positions, price); err != nil {
			log.Printf("포지션 스냅샷 저장 실패: %v", err)
		}
		if err := l.recorder.SaveBalanceSnapshot(now, balance, snap); err != nil {
			log.Printf("잔고 스냅샷 저장 실패: %v", err)
		}
		if err := l.recorder.UpdateDailyStats(now, stats); err != nil {
			log.Printf("일별 집계 저장 실패: %v", err)
		}
	}

	if sendStatus {
		if err := l.notifier.SendInfo(l.statusReport(now, price, snap, stats)); err != nil {
			log.Printf("상태 보고 전송 실패: %v", err)
		}
	}
}

func (l *Loop) statusReport(now time.Time, price float64, snap domain.LedgerSnapshot, stats domain.LedgerStats) string {
	return fmt.Sprintf("📊 **상태 보고** [%s]\n가동 시간: %s\n가격: $%.2f\n포지션: %d개 (증거금 %.2f USDT)\n미실현 손익: %.4f USDT\n기간 손익: %.4f USDT\n거래 횟수: %d (승률 %.1f%%)\n누적 수수료: %.4f USDT",
		l.cfg.Symbol, now.Sub(l.startedAt).Round(time.Second), price,
		len(snap.Positions), snap.TotalMargin, snap.TotalUnrealizedPnL,
		stats.PeriodPnL, stats.TotalTrades, stats.WinRate(), stats.TotalCommission)
}

// ReportShutdown은 종료 시점의 최종 상태 보고를 전송합니다
func (l *Loop) ReportShutdown() {
	l.mu.Lock()
	price := l.status.LastPrice
	l.mu.Unlock()

	snap := l.ledger.Snapshot(price)
	stats := l.ledger.Stats()

	msg := l.statusReport(time.Now(), price, snap, stats)
	log.Println("종료 전 최종 상태 보고를 전송합니다")
	if err := l.notifier.SendInfo(msg); err != nil {
		log.Printf("최종 상태 보고 전송 실패: %v", err)
	}
}

// reportError는 사이클 내 실패를 로깅하고 알림 채널로 보냅니다
func (l *Loop) reportError(err error) {
	log.Printf("사이클 오류: %v", err)

	// 행동 중단성 오류는 알림까지 전송합니다
	if errors.Is(err, position.ErrInsufficientBalance) ||
		errors.Is(err, exchange.ErrOrderRejected) ||
		errors.Is(err, exchange.ErrStaleMarketData) ||
		errors.Is(err, position.ErrReconcileAnomaly) {
		if nerr := l.notifier.SendError(err); nerr != nil {
			log.Printf("에러 알림 전송 실패: %v", nerr)
		}
	}
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.status.State = s
	l.mu.Unlock()
}

func (l *Loop) lastEvaluated() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastProcessedBar
}

func (l *Loop) markEvaluated(barOpen time.Time) {
	l.mu.Lock()
	l.lastProcessedBar = barOpen
	l.status.LastEvaluatedBar = barOpen
	l.mu.Unlock()
}

func (l *Loop) updateStatusView(cond domain.MarketCondition, price float64, now time.Time) {
	l.mu.Lock()
	l.status.Symbol = l.cfg.Symbol
	l.status.Condition = cond
	l.status.LastPrice = price
	l.status.PaperTrading = l.cfg.PaperTrading
	l.status.UpdatedAt = now
	l.mu.Unlock()
}

// Status는 모니터 노출용 상태 스냅샷을 반환합니다
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.status
	if st.Symbol == "" {
		st.Symbol = l.cfg.Symbol
		st.State = l.state
		st.PaperTrading = l.cfg.PaperTrading
	}
	return st
}
