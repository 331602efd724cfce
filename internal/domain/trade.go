package domain

import "time"

// TradeAction은 거래 기록의 행동 유형을 정의합니다
type TradeAction string

const (
	TradeOpen  TradeAction = "OPEN"
	TradeClose TradeAction = "CLOSE"
)

// TradeRecord는 포지션 진입/청산 시점에 한 번만 생성되는
// 불변 거래 기록입니다. 원장 변경 한 건당 정확히 한 건이 발행됩니다.
type TradeRecord struct {
	ID           string        // 기록 식별자 (ULID)
	Timestamp    time.Time     // 체결 시간
	Symbol       string        // 심볼
	Side         PositionSide  // 포지션 방향
	Action       TradeAction   // OPEN / CLOSE
	Price        float64       // 체결 가격
	Size         float64       // 명목 크기 (USDT)
	Leverage     int           // 레버리지
	Commission   float64       // 수수료
	GrossPnL     float64       // 실현 손익 (CLOSE 전용, 수수료 차감 전)
	NetPnL       float64       // 실현 손익 (CLOSE 전용, 수수료 차감 후)
	EntryPrice   float64       // 진입가 (CLOSE 전용)
	HoldDuration time.Duration // 보유 시간 (CLOSE 전용)
	OrderRef     string        // 거래소 주문 참조
	PaperTrade   bool          // 모의 거래 여부
}

// LedgerStats는 원장이 유지하는 누적 집계입니다.
// 명시적인 기간 초기화 전까지 단조 증가합니다.
type LedgerStats struct {
	TotalCommission  float64 // 누적 수수료
	TotalTradeVolume float64 // 누적 거래 대금
	PeriodPnL        float64 // 기간 실현 손익 (순)
	TotalTrades      int     // 청산 완료 거래 수
	WinningTrades    int     // 수익 거래 수
}

// WinRate는 청산 완료 거래 기준 승률(%)을 반환합니다
func (s LedgerStats) WinRate() float64 {
	if s.TotalTrades == 0 {
		return 0
	}
	return float64(s.WinningTrades) / float64(s.TotalTrades) * 100
}
