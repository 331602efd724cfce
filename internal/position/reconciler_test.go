package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/helios/internal/domain"
)

func TestReconcileAdoptsRemoteOnly(t *testing.T) {
	l := newTestLedger(t)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	remote := []domain.ExchangePosition{
		{Symbol: "BTCUSDT", Side: domain.LongPosition, Size: 500, EntryPrice: 100, Leverage: 20},
	}

	result := l.Reconcile(remote, now)
	require.Len(t, result.Adopted, 1)
	assert.True(t, result.Anomaly())

	// 거래소에만 있던 포지션은 진입 시간을 now로 합성해 편입합니다
	adopted := result.Adopted[0]
	assert.Equal(t, now, adopted.OpenedAt)
	assert.NotEmpty(t, adopted.ID)

	snap := l.Snapshot(100)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, domain.LongPosition, snap.Positions[0].Side)
}

func TestReconcileDropsLocalOnly(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now()

	_, err := l.Open(domain.LongPosition, 100, domain.Balance{Available: 1000}, "", now)
	require.NoError(t, err)

	// 거래소가 빈 상태를 보고하면 로컬 포지션은 폐기됩니다
	result := l.Reconcile(nil, now)
	require.Len(t, result.Dropped, 1)
	assert.True(t, result.Anomaly())
	assert.Empty(t, l.Snapshot(100).Positions)
}

func TestReconcileKeepsLocalMetadata(t *testing.T) {
	l := newTestLedger(t)
	opened := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)

	res, err := l.Open(domain.LongPosition, 100, domain.Balance{Available: 1000}, "ord-1", opened)
	require.NoError(t, err)

	// 거래소가 다른 크기/진입가를 보고하는 경우
	remote := []domain.ExchangePosition{
		{Symbol: "BTCUSDT", Side: domain.LongPosition, Size: 600, EntryPrice: 101, Leverage: 20},
	}
	result := l.Reconcile(remote, opened.Add(time.Hour))

	require.Len(t, result.Kept, 1)
	assert.False(t, result.Anomaly())

	kept := result.Kept[0]
	// 크기와 진입가는 거래소가 권위를 가집니다
	assert.InDelta(t, 600.0, kept.Size, 1e-9)
	assert.InDelta(t, 101.0, kept.EntryPrice, 1e-9)
	// 메타데이터는 로컬 것이 유지됩니다
	assert.Equal(t, res.Position.ID, kept.ID)
	assert.Equal(t, opened, kept.OpenedAt)
	assert.Equal(t, "ord-1", kept.OrderRef)
}

func TestReconcileIgnoresOtherSymbols(t *testing.T) {
	l := newTestLedger(t)

	remote := []domain.ExchangePosition{
		{Symbol: "ETHUSDT", Side: domain.LongPosition, Size: 500, EntryPrice: 100, Leverage: 20},
		{Symbol: "BTCUSDT", Side: domain.ShortPosition, Size: 0, EntryPrice: 100, Leverage: 20},
	}

	result := l.Reconcile(remote, time.Now())
	assert.Empty(t, result.Adopted)
	assert.Empty(t, l.Snapshot(100).Positions)
}

func TestReconcileIdempotent(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now()

	remote := []domain.ExchangePosition{
		{Symbol: "BTCUSDT", Side: domain.LongPosition, Size: 500, EntryPrice: 100, Leverage: 20},
		{Symbol: "BTCUSDT", Side: domain.ShortPosition, Size: 300, EntryPrice: 102, Leverage: 20},
	}

	first := l.Reconcile(remote, now)
	require.Len(t, first.Adopted, 2)
	snapAfterFirst := l.Snapshot(100)

	// 같은 입력으로 다시 동기화해도 원장 내용이 달라지지 않습니다
	second := l.Reconcile(remote, now.Add(time.Minute))
	assert.Empty(t, second.Adopted)
	assert.Empty(t, second.Dropped)
	assert.False(t, second.Anomaly())

	snapAfterSecond := l.Snapshot(100)
	assert.Equal(t, snapAfterFirst.Positions, snapAfterSecond.Positions)
}
