package exchange

import "fmt"

// Error 타입들은 거래소 연동 중 발생할 수 있는 에러를 정의합니다
var (
	ErrOrderRejected   = fmt.Errorf("거래소가 주문을 거부했습니다")
	ErrStaleMarketData = fmt.Errorf("시장 데이터가 오래되었습니다")
)
