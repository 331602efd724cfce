package position

import "fmt"

// Error 타입들은 포지션 원장 조작 중 발생할 수 있는 에러를 정의합니다
var (
	ErrInsufficientBalance  = fmt.Errorf("잔고가 부족합니다")
	ErrPositionNotFound     = fmt.Errorf("해당 포지션이 존재하지 않습니다")
	ErrSideAlreadyOpen      = fmt.Errorf("이미 같은 방향의 포지션이 존재합니다")
	ErrInvalidConfiguration = fmt.Errorf("잘못된 거래 설정입니다")
	ErrReconcileAnomaly     = fmt.Errorf("로컬과 거래소 포지션이 일치하지 않습니다")
)

// LedgerError는 원장 조작 에러를 확장한 구조체입니다
type LedgerError struct {
	Symbol string
	Op     string
	Err    error
}

// Error는 error 인터페이스를 구현합니다
func (e *LedgerError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("원장 에러 [%s, 작업: %s]: %v", e.Symbol, e.Op, e.Err)
	}
	return fmt.Sprintf("원장 에러 [작업: %s]: %v", e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError는 새로운 LedgerError를 생성합니다
func NewLedgerError(symbol, op string, err error) *LedgerError {
	return &LedgerError{
		Symbol: symbol,
		Op:     op,
		Err:    err,
	}
}
