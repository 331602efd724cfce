package domain

import "time"

// Position은 로컬 원장이 추적하는 포지션을 표현합니다.
// 원장(position.Ledger)만이 포지션을 생성/제거하며,
// 다른 컴포넌트는 읽기 전용 복사본만 전달받습니다.
type Position struct {
	ID         string       // 원장 내부 식별자 (ULID)
	Symbol     string       // 심볼 (예: BTCUSDT)
	Side       PositionSide // 롱/숏 포지션
	Size       float64      // 명목 크기 (USDT, 레버리지 적용 전)
	EntryPrice float64      // 진입가
	Leverage   int          // 레버리지
	OpenedAt   time.Time    // 진입 시간
	OrderRef   string       // 거래소 주문 참조
}

// Margin은 포지션의 증거금을 반환합니다 (명목 크기 / 레버리지)
func (p Position) Margin() float64 {
	if p.Leverage <= 0 {
		return 0
	}
	return p.Size / float64(p.Leverage)
}

// UnrealizedPnL은 마크 가격 기준 미실현 손익을 계산합니다
func (p Position) UnrealizedPnL(markPrice float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	pnl := (markPrice - p.EntryPrice) * p.Size / p.EntryPrice * float64(p.Leverage)
	if p.Side == ShortPosition {
		return -pnl
	}
	return pnl
}

// ExchangePosition은 거래소가 보고하는 포지션 상태를 표현합니다
type ExchangePosition struct {
	Symbol     string       // 심볼
	Side       PositionSide // 롱/숏 포지션
	Size       float64      // 명목 크기 (USDT)
	EntryPrice float64      // 평균 진입가
	MarkPrice  float64      // 마크 가격
	Leverage   int          // 레버리지
}

// LedgerSnapshot은 원장의 읽기 전용 뷰입니다.
// 마크 가격이 계속 변하므로 호출 시마다 새로 계산되며 캐싱하지 않습니다.
type LedgerSnapshot struct {
	Positions          []Position // 등록 순서대로 정렬된 포지션 목록
	TotalMargin        float64    // 총 증거금
	TotalUnrealizedPnL float64    // 총 미실현 손익
}

// SideOpen은 주어진 방향의 포지션이 스냅샷에 존재하는지 확인합니다
func (s LedgerSnapshot) SideOpen(side PositionSide) bool {
	for _, p := range s.Positions {
		if p.Side == side {
			return true
		}
	}
	return false
}
