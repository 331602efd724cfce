package position

import (
	"sync"
	"time"

	"github.com/assist-by/helios/internal/domain"
	"github.com/assist-by/helios/internal/id"
)

// Ledger는 로컬에서 추적하는 오픈 포지션의 단일 원본입니다.
// 의사결정 루프와 정합성 동기화가 서로 다른 주기로 접근하므로
// 모든 조작은 하나의 뮤텍스로 직렬화됩니다.
type Ledger struct {
	mu sync.Mutex

	symbol         string
	leverage       int
	fraction       float64 // 진입 시 사용할 잔고 비율
	commissionRate float64

	positions map[string]*domain.Position // ID -> 포지션
	order     []string                    // 등록 순서의 ID 목록
	stats     domain.LedgerStats
}

// OpenResult는 진입 결과입니다
type OpenResult struct {
	Position   domain.Position
	Commission float64
}

// CloseResult는 청산 결과입니다
type CloseResult struct {
	Position     domain.Position
	ExitPrice    float64
	GrossPnL     float64 // 수수료 차감 전 실현 손익
	Commission   float64
	NetPnL       float64 // 수수료 차감 후 실현 손익
	HoldDuration time.Duration
}

// NewLedger는 포지션 원장을 생성합니다.
// 설정이 유효하지 않으면 ErrInvalidConfiguration을 반환합니다.
func NewLedger(symbol string, leverage int, fraction, commissionRate float64) (*Ledger, error) {
	if symbol == "" {
		return nil, NewLedgerError("", "NewLedger", ErrInvalidConfiguration)
	}
	if leverage < 1 || leverage > 125 {
		return nil, NewLedgerError(symbol, "NewLedger", ErrInvalidConfiguration)
	}
	if fraction <= 0 || fraction > 1 {
		return nil, NewLedgerError(symbol, "NewLedger", ErrInvalidConfiguration)
	}
	if commissionRate < 0 {
		return nil, NewLedgerError(symbol, "NewLedger", ErrInvalidConfiguration)
	}

	return &Ledger{
		symbol:         symbol,
		leverage:       leverage,
		fraction:       fraction,
		commissionRate: commissionRate,
		positions:      make(map[string]*domain.Position),
	}, nil
}

// Open은 잔고 비율 기반으로 크기를 계산해 새 포지션을 등록합니다.
// 필요 증거금의 2배가 가용 잔고를 초과하면 ErrInsufficientBalance,
// 같은 방향의 포지션이 이미 있으면 ErrSideAlreadyOpen을 반환합니다.
func (l *Ledger) Open(side domain.PositionSide, referencePrice float64, balance domain.Balance, orderRef string, now time.Time) (OpenResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sideOpenLocked(side) {
		return OpenResult{}, NewLedgerError(l.symbol, "Open", ErrSideAlreadyOpen)
	}

	notional := balance.Available * l.fraction
	margin := notional / float64(l.leverage)

	// 안전 마진: 필요 증거금의 2배가 가용 잔고 이내여야 합니다
	if notional <= 0 || margin*2 > balance.Available {
		return OpenResult{}, NewLedgerError(l.symbol, "Open", ErrInsufficientBalance)
	}

	pos := &domain.Position{
		ID:         id.New(),
		Symbol:     l.symbol,
		Side:       side,
		Size:       notional,
		EntryPrice: referencePrice,
		Leverage:   l.leverage,
		OpenedAt:   now,
		OrderRef:   orderRef,
	}
	l.positions[pos.ID] = pos
	l.order = append(l.order, pos.ID)

	commission := notional * float64(l.leverage) * l.commissionRate
	l.stats.TotalCommission += commission
	l.stats.TotalTradeVolume += notional * float64(l.leverage)

	return OpenResult{Position: *pos, Commission: commission}, nil
}

// PlanOpen은 원장을 변경하지 않고 진입 가능 여부와 명목 크기를
// 미리 계산합니다. 주문 수량 산정에 사용됩니다.
func (l *Ledger) PlanOpen(side domain.PositionSide, balance domain.Balance) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sideOpenLocked(side) {
		return 0, NewLedgerError(l.symbol, "PlanOpen", ErrSideAlreadyOpen)
	}

	notional := balance.Available * l.fraction
	margin := notional / float64(l.leverage)
	if notional <= 0 || margin*2 > balance.Available {
		return 0, NewLedgerError(l.symbol, "PlanOpen", ErrInsufficientBalance)
	}

	return notional, nil
}

// Close는 포지션을 제거하고 실현 손익을 계산합니다.
// 존재하지 않는 포지션 참조는 호출 측 논리 오류이며
// ErrPositionNotFound로 보고합니다.
func (l *Ledger) Close(positionID string, exitPrice float64, now time.Time) (CloseResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.closeLocked(positionID, exitPrice, now)
}

// CloseAll은 보유 중인 모든 포지션을 등록 역순으로 청산합니다.
// 각 포지션의 청산 결과를 청산 순서대로 반환합니다.
func (l *Ledger) CloseAll(exitPrice float64, now time.Time) []CloseResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	results := make([]CloseResult, 0, len(l.order))
	for i := len(l.order) - 1; i >= 0; i-- {
		res, err := l.closeLocked(l.order[i], exitPrice, now)
		if err != nil {
			continue
		}
		results = append(results, res)
	}
	return results
}

func (l *Ledger) closeLocked(positionID string, exitPrice float64, now time.Time) (CloseResult, error) {
	pos, ok := l.positions[positionID]
	if !ok {
		return CloseResult{}, NewLedgerError(l.symbol, "Close", ErrPositionNotFound)
	}

	gross := pos.UnrealizedPnL(exitPrice)
	commission := pos.Size * float64(pos.Leverage) * l.commissionRate
	net := gross - commission

	delete(l.positions, positionID)
	for i, pid := range l.order {
		if pid == positionID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}

	l.stats.TotalCommission += commission
	l.stats.TotalTradeVolume += pos.Size * float64(pos.Leverage)
	l.stats.PeriodPnL += net
	l.stats.TotalTrades++
	if net > 0 {
		l.stats.WinningTrades++
	}

	return CloseResult{
		Position:     *pos,
		ExitPrice:    exitPrice,
		GrossPnL:     gross,
		Commission:   commission,
		NetPnL:       net,
		HoldDuration: now.Sub(pos.OpenedAt),
	}, nil
}

// Snapshot은 마크 가격 기준의 읽기 전용 뷰를 반환합니다.
// 마크 가격이 계속 변하므로 호출 시마다 새로 계산합니다.
func (l *Ledger) Snapshot(markPrice float64) domain.LedgerSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := domain.LedgerSnapshot{
		Positions: make([]domain.Position, 0, len(l.order)),
	}
	for _, pid := range l.order {
		pos := l.positions[pid]
		snap.Positions = append(snap.Positions, *pos)
		snap.TotalMargin += pos.Margin()
		snap.TotalUnrealizedPnL += pos.UnrealizedPnL(markPrice)
	}
	return snap
}

// SideOpen은 주어진 방향의 포지션이 있는지 확인합니다
func (l *Ledger) SideOpen(side domain.PositionSide) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sideOpenLocked(side)
}

func (l *Ledger) sideOpenLocked(side domain.PositionSide) bool {
	for _, pos := range l.positions {
		if pos.Side == side {
			return true
		}
	}
	return false
}

// Stats는 누적 집계의 복사본을 반환합니다
func (l *Ledger) Stats() domain.LedgerStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// StartNewPeriod는 기간 실현 손익을 초기화합니다.
// 누적 수수료와 누적 거래 대금은 단조 증가 집계이므로 유지됩니다.
func (l *Ledger) StartNewPeriod() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.PeriodPnL = 0
}
