package notification

import (
	"time"

	"github.com/assist-by/helios/internal/domain"
)

const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0000FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendSignal은 트레이딩 시그널 알림을 전송합니다
	SendSignal(info SignalInfo) error

	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error

	// SendTradeInfo는 거래 실행 정보를 전송합니다
	SendTradeInfo(info TradeInfo) error
}

// SignalInfo는 시그널 알림 정보를 정의합니다
type SignalInfo struct {
	Symbol     string                 // 심볼 (예: BTCUSDT)
	Action     domain.Action          // 결정된 행동
	Price      float64                // 마지막 닫힌 봉의 종가
	Condition  domain.MarketCondition // 시장 상황
	EMA        float64                // 빠른 지수이동평균
	MA         float64                // 느린 단순이동평균
	LongEntry  bool                   // 롱 진입 조건 충족 여부
	ShortEntry bool                   // 숏 진입 조건 충족 여부
	Timestamp  time.Time              // 봉 마감 시간
}

// TradeInfo는 거래 실행 정보를 정의합니다
type TradeInfo struct {
	Symbol       string        // 심볼 (예: BTCUSDT)
	Action       string        // "OPEN" or "CLOSE"
	PositionType string        // "LONG" or "SHORT"
	Size         float64       // 명목 크기 (USDT)
	Price        float64       // 체결 가격
	Leverage     int           // 사용 레버리지
	Commission   float64       // 수수료
	NetPnL       float64       // 순실현 손익 (청산 시에만 의미)
	HoldDuration time.Duration // 보유 시간 (청산 시에만 의미)
	Balance      float64       // 현재 USDT 잔고
	PaperTrade   bool          // 모의 거래 여부
}

// GetColorForPosition은 포지션 타입에 따른 색상을 반환합니다
func GetColorForPosition(positionType string) int {
	switch positionType {
	case "LONG":
		return ColorSuccess
	case "SHORT":
		return ColorError
	default:
		return ColorInfo
	}
}
