package trading

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/assist-by/helios/internal/exchange"
	"github.com/assist-by/helios/internal/notification"
	"github.com/assist-by/helios/internal/position"
)

// ReconcileTask는 거래소가 보고한 포지션으로 원장을 주기적으로
// 동기화하는 스케줄러 작업입니다. 의사결정 루프와 독립적으로 돌며
// 원장 뮤텍스가 두 경로의 접근을 직렬화합니다.
type ReconcileTask struct {
	symbol    string
	positions exchange.PositionSource
	ledger    *position.Ledger
	notifier  notification.Notifier
}

// NewReconcileTask는 정합성 동기화 작업을 생성합니다
func NewReconcileTask(symbol string, positions exchange.PositionSource,
	ledger *position.Ledger, notifier notification.Notifier) *ReconcileTask {
	return &ReconcileTask{
		symbol:    symbol,
		positions: positions,
		ledger:    ledger,
		notifier:  notifier,
	}
}

// Execute는 한 번의 동기화를 수행합니다.
// 조회 실패 시 원장은 건드리지 않고 다음 주기에 다시 시도합니다.
// 불일치는 이상 징후로 보고하되 거래소 기준 교체는 그대로 진행합니다.
func (t *ReconcileTask) Execute(ctx context.Context) error {
	remote, err := t.positions.GetPositions(ctx, t.symbol)
	if err != nil {
		return fmt.Errorf("거래소 포지션 조회 실패: %w", err)
	}

	result := t.ledger.Reconcile(remote, time.Now())
	if !result.Anomaly() {
		return nil
	}

	anomaly := fmt.Errorf("%w [%s]: 편입 %d건, 폐기 %d건",
		position.ErrReconcileAnomaly, t.symbol, len(result.Adopted), len(result.Dropped))
	log.Printf("정합성 동기화: %v", anomaly)

	for _, p := range result.Adopted {
		log.Printf("  편입: %s %.2f USDT @ %.2f (진입 시간은 현재로 합성)", p.Side, p.Size, p.EntryPrice)
	}
	for _, p := range result.Dropped {
		log.Printf("  폐기: %s %.2f USDT @ %.2f (주문: %s)", p.Side, p.Size, p.EntryPrice, p.OrderRef)
	}

	if err := t.notifier.SendError(anomaly); err != nil {
		log.Printf("동기화 알림 전송 실패: %v", err)
	}
	return nil
}
