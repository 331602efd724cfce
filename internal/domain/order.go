package domain

import "time"

// OrderRequest는 주문 요청 정보를 표현합니다
type OrderRequest struct {
	Symbol        string    // 심볼 (예: BTCUSDT)
	Side          OrderSide // 매수/매도
	Type          OrderType // 주문 유형 (이 시스템은 시장가만 사용)
	Quantity      float64   // 수량 (코인)
	ClientOrderID string    // 클라이언트 측 주문 ID
}

// OrderFill은 주문 체결 결과를 표현합니다
type OrderFill struct {
	OrderRef       string    // 거래소 주문 참조
	FilledQuantity float64   // 체결된 수량
	AvgPrice       float64   // 평균 체결 가격
	FilledAt       time.Time // 체결 시간
}
