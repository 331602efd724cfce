package domain

// Balance는 계정 잔고 정보를 표현합니다
type Balance struct {
	Asset     string  // 자산 심볼 (예: USDT)
	Balance   float64 // 총 잔고
	Available float64 // 사용 가능한 잔고
}

// BalanceMap은 자산별 잔고 맵입니다
type BalanceMap map[string]Balance

// USDT는 USDT 잔고를 반환합니다 (없으면 ok=false)
func (m BalanceMap) USDT() (Balance, bool) {
	b, ok := m["USDT"]
	return b, ok
}
