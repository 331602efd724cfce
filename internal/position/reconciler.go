package position

import (
	"time"

	"github.com/assist-by/helios/internal/domain"
	"github.com/assist-by/helios/internal/id"
)

// ReconcileResult는 정합성 동기화의 변경 내역입니다.
// 호출 측이 이상 여부를 판단해 로깅/알림하는 데 사용합니다.
type ReconcileResult struct {
	Adopted []domain.Position // 거래소에만 있어 새로 편입한 포지션
	Dropped []domain.Position // 로컬에만 있어 폐기한 포지션
	Kept    []domain.Position // 양쪽에 존재해 유지한 포지션 (크기/진입가는 거래소 기준)
}

// Anomaly는 로컬과 거래소 상태가 어긋났는지 확인합니다
func (r ReconcileResult) Anomaly() bool {
	return len(r.Adopted) > 0 || len(r.Dropped) > 0
}

// Reconcile은 거래소가 보고한 포지션으로 원장을 전면 교체합니다.
// 존재 여부와 크기/진입가는 거래소가 권위를 가지며, 같은 방향의
// 포지션이 로컬에 있으면 진입 시간과 주문 참조 같은 메타데이터만
// 로컬 것을 유지합니다. 거래소에만 있는 포지션은 진입 시간을
// now로 합성해 편입하므로 보유 시간은 근사치가 됩니다.
func (l *Ledger) Reconcile(remote []domain.ExchangePosition, now time.Time) ReconcileResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result ReconcileResult

	matched := make(map[string]bool) // 거래소 포지션과 매칭된 로컬 ID
	newPositions := make(map[string]*domain.Position)
	var newOrder []string

	for _, rp := range remote {
		if rp.Symbol != l.symbol || rp.Size <= 0 {
			continue
		}

		local := l.findSideLocked(rp.Side)
		if local != nil {
			// 메타데이터는 로컬, 크기/진입가/레버리지는 거래소를 따릅니다
			kept := *local
			kept.Size = rp.Size
			kept.EntryPrice = rp.EntryPrice
			kept.Leverage = rp.Leverage
			newPositions[kept.ID] = &kept
			newOrder = append(newOrder, kept.ID)
			matched[local.ID] = true
			result.Kept = append(result.Kept, kept)
			continue
		}

		adopted := domain.Position{
			ID:         id.New(),
			Symbol:     rp.Symbol,
			Side:       rp.Side,
			Size:       rp.Size,
			EntryPrice: rp.EntryPrice,
			Leverage:   rp.Leverage,
			OpenedAt:   now,
		}
		newPositions[adopted.ID] = &adopted
		newOrder = append(newOrder, adopted.ID)
		result.Adopted = append(result.Adopted, adopted)
	}

	for _, pid := range l.order {
		if !matched[pid] {
			result.Dropped = append(result.Dropped, *l.positions[pid])
		}
	}

	l.positions = newPositions
	l.order = newOrder

	return result
}

func (l *Ledger) findSideLocked(side domain.PositionSide) *domain.Position {
	for _, pid := range l.order {
		if l.positions[pid].Side == side {
			return l.positions[pid]
		}
	}
	return nil
}
