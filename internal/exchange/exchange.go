// internal/exchange/exchange.go
package exchange

import (
	"context"
	"time"

	"github.com/assist-by/helios/internal/domain"
)

// MarketDataSource는 시장 데이터 조회 기능을 정의합니다.
// 캔들은 시작 시간 오름차순으로 정렬되어 반환됩니다.
type MarketDataSource interface {
	GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error)
}

// AccountSource는 계정 데이터 조회 기능을 정의합니다
type AccountSource interface {
	GetBalance(ctx context.Context) (domain.BalanceMap, error)
	GetLeverageLimit(ctx context.Context, symbol string) (int, error)
}

// OrderSink는 주문 제출 기능을 정의합니다.
// 거래소 측 거부는 ErrOrderRejected로 보고됩니다.
type OrderSink interface {
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (domain.OrderFill, error)
}

// PositionSource는 정합성 동기화를 위한 거래소 포지션 조회 기능입니다
type PositionSource interface {
	GetPositions(ctx context.Context, symbol string) ([]domain.ExchangePosition, error)
}

// Exchange는 실거래에 필요한 전체 거래소 기능입니다
type Exchange interface {
	MarketDataSource
	AccountSource
	OrderSink
	PositionSource

	// 설정 기능
	SetLeverage(ctx context.Context, symbol string, leverage int) error

	// 시간 동기화
	GetServerTime(ctx context.Context) (time.Time, error)
	SyncTime(ctx context.Context) error
}
