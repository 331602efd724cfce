package domain

// PositionSide는 포지션 방향을 정의합니다
type PositionSide string

const (
	LongPosition  PositionSide = "LONG"
	ShortPosition PositionSide = "SHORT"
)

// Opposite는 반대 방향의 포지션 사이드를 반환합니다
func (s PositionSide) Opposite() PositionSide {
	if s == LongPosition {
		return ShortPosition
	}
	return LongPosition
}

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// EntryOrderSide는 포지션 진입에 필요한 주문 방향을 반환합니다
func EntryOrderSide(side PositionSide) OrderSide {
	if side == LongPosition {
		return Buy
	}
	return Sell
}

// ExitOrderSide는 포지션 청산에 필요한 주문 방향을 반환합니다
func ExitOrderSide(side PositionSide) OrderSide {
	if side == LongPosition {
		return Sell
	}
	return Buy
}

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	Market OrderType = "MARKET"
	Limit  OrderType = "LIMIT"
)

// Action은 한 사이클에서 결정 루프가 취하는 행동을 정의합니다
type Action int

const (
	ActionNone Action = iota
	ActionOpenLong
	ActionOpenShort
	ActionFlipToLong
	ActionFlipToShort
)

// String은 Action의 문자열 표현을 반환합니다
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "NONE"
	case ActionOpenLong:
		return "OPEN_LONG"
	case ActionOpenShort:
		return "OPEN_SHORT"
	case ActionFlipToLong:
		return "FLIP_TO_LONG"
	case ActionFlipToShort:
		return "FLIP_TO_SHORT"
	default:
		return "UNKNOWN"
	}
}

// EntrySide는 행동이 진입하려는 포지션 방향을 반환합니다 (NONE이면 ok=false)
func (a Action) EntrySide() (side PositionSide, ok bool) {
	switch a {
	case ActionOpenLong, ActionFlipToLong:
		return LongPosition, true
	case ActionOpenShort, ActionFlipToShort:
		return ShortPosition, true
	default:
		return "", false
	}
}

// IsFlip은 기존 반대 포지션의 청산이 선행되는 행동인지 확인합니다
func (a Action) IsFlip() bool {
	return a == ActionFlipToLong || a == ActionFlipToShort
}

// MarketCondition은 시장 상태 분류를 정의합니다
type MarketCondition string

const (
	MarketBullish  MarketCondition = "BULLISH"
	MarketBearish  MarketCondition = "BEARISH"
	MarketSideways MarketCondition = "SIDEWAYS"
	MarketUnknown  MarketCondition = "UNKNOWN"
)
