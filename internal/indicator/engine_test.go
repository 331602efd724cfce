package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	t.Run("유효한 기간", func(t *testing.T) {
		e, err := NewEngine(2, 4)
		require.NoError(t, err)
		assert.NotNil(t, e)
	})

	t.Run("빠른 기간이 느린 기간보다 크면 실패", func(t *testing.T) {
		_, err := NewEngine(4, 2)
		assert.Error(t, err)
	})

	t.Run("기간이 같으면 실패", func(t *testing.T) {
		_, err := NewEngine(3, 3)
		assert.Error(t, err)
	})

	t.Run("기간이 0이면 실패", func(t *testing.T) {
		_, err := NewEngine(0, 4)
		assert.Error(t, err)
	})
}

func TestComputeEMA(t *testing.T) {
	e, err := NewEngine(2, 4)
	require.NoError(t, err)

	// 첫 값으로 시드, 평활 계수 2/3
	closes := []float64{100, 101, 99}
	snapshots := e.Compute(closes)
	require.Len(t, snapshots, 3)

	assert.InDelta(t, 100.0, snapshots[0].EMA, 1e-9)
	assert.InDelta(t, 100.0+2.0/3.0, snapshots[1].EMA, 1e-9)
	assert.True(t, snapshots[0].EMADefined())
}

func TestComputeMA(t *testing.T) {
	e, err := NewEngine(2, 4)
	require.NoError(t, err)

	closes := []float64{100, 101, 99, 98, 105}
	snapshots := e.Compute(closes)
	require.Len(t, snapshots, 5)

	// 윈도우가 차기 전인 처음 3개 인덱스는 정의되지 않습니다
	for i := 0; i < 3; i++ {
		assert.False(t, snapshots[i].MADefined(), "인덱스 %d의 MA는 정의되지 않아야 합니다", i)
	}
	assert.InDelta(t, 99.5, snapshots[3].MA, 1e-9)
	assert.InDelta(t, 100.75, snapshots[4].MA, 1e-9)
}

func TestGoldenCrossScenario(t *testing.T) {
	e, err := NewEngine(2, 4)
	require.NoError(t, err)

	// 하락 후 급반등하는 시계열에서 마지막 봉에 골든 크로스가 발생합니다
	closes := []float64{100, 101, 99, 98, 105}
	snapshots := e.Compute(closes)

	// 인덱스 3: Diff는 정의되지만 직전 Diff가 정의되지 않아 교차가 아닙니다
	assert.True(t, snapshots[3].DiffDefined())
	assert.False(t, snapshots[3].GoldenCross)
	assert.False(t, snapshots[3].DeathCross)

	// 인덱스 4: PrevDiff < 0, Diff > 0 이므로 골든 크로스입니다
	last := snapshots[4]
	assert.Negative(t, last.PrevDiff)
	assert.Positive(t, last.Diff)
	assert.True(t, last.GoldenCross)
	assert.False(t, last.DeathCross)
	assert.True(t, last.PriceAboveEMA)
	assert.True(t, last.EMAAboveMA)
	assert.Positive(t, last.EMASlope)
}

func TestDeathCross(t *testing.T) {
	e, err := NewEngine(2, 4)
	require.NoError(t, err)

	// 상승 후 급락하는 시계열
	closes := []float64{100, 99, 101, 102, 95}
	snapshots := e.Compute(closes)

	last := snapshots[len(snapshots)-1]
	assert.True(t, last.DeathCross)
	assert.False(t, last.GoldenCross)
	assert.False(t, last.PriceAboveEMA)
	assert.Negative(t, last.EMASlope)
}

func TestCrossesMutuallyExclusive(t *testing.T) {
	e, err := NewEngine(2, 4)
	require.NoError(t, err)

	// 어떤 시계열에서도 골든 크로스와 데드 크로스는 동시에 참일 수 없습니다
	closes := []float64{100, 105, 95, 110, 90, 115, 85, 120, 100, 100, 100, 108}
	for _, s := range e.Compute(closes) {
		assert.False(t, s.GoldenCross && s.DeathCross)
	}
}

func TestNoCrossOnBoundary(t *testing.T) {
	e, err := NewEngine(2, 4)
	require.NoError(t, err)

	// 모든 종가가 같으면 Diff가 0에 머물러 교차가 발생하지 않습니다
	closes := []float64{100, 100, 100, 100, 100, 100}
	for i, s := range e.Compute(closes) {
		assert.False(t, s.GoldenCross, "인덱스 %d", i)
		assert.False(t, s.DeathCross, "인덱스 %d", i)
	}
}

func TestInsufficientData(t *testing.T) {
	e, err := NewEngine(2, 4)
	require.NoError(t, err)

	// 느린 기간보다 봉이 적으면 MA와 교차 플래그가 모두 비활성입니다
	closes := []float64{100, 101, 102}
	for i, s := range e.Compute(closes) {
		assert.False(t, s.MADefined(), "인덱스 %d", i)
		assert.False(t, s.GoldenCross, "인덱스 %d", i)
		assert.False(t, s.DeathCross, "인덱스 %d", i)
	}
}

func TestComputeEmptyInput(t *testing.T) {
	e, err := NewEngine(2, 4)
	require.NoError(t, err)

	snapshots := e.Compute(nil)
	assert.Empty(t, snapshots)
}
