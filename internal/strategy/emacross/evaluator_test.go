package emacross

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/helios/internal/domain"
	"github.com/assist-by/helios/internal/indicator"
)

func computeSnapshots(t *testing.T, closes []float64) []indicator.Snapshot {
	t.Helper()
	engine, err := indicator.NewEngine(2, 4)
	require.NoError(t, err)
	return engine.Compute(closes)
}

func TestEvaluateLongEntry(t *testing.T) {
	ev := NewEvaluator()

	// 마지막 봉에서 골든 크로스가 발생하는 시계열
	sig := ev.Evaluate(computeSnapshots(t, []float64{100, 101, 99, 98, 105}))

	assert.True(t, sig.LongEntry)
	assert.False(t, sig.ShortEntry)
	// 골든 크로스는 숏 청산 조건이기도 합니다
	assert.True(t, sig.ExitShort)
	assert.False(t, sig.ExitLong)
}

func TestEvaluateShortEntry(t *testing.T) {
	ev := NewEvaluator()

	// 마지막 봉에서 데드 크로스가 발생하는 시계열
	sig := ev.Evaluate(computeSnapshots(t, []float64{100, 99, 101, 102, 95}))

	assert.True(t, sig.ShortEntry)
	assert.False(t, sig.LongEntry)
	assert.True(t, sig.ExitLong)
	assert.False(t, sig.ExitShort)
}

func TestEvaluateInsufficientData(t *testing.T) {
	ev := NewEvaluator()

	// 느린 기간보다 봉이 적으면 어떤 진입도 발생하지 않습니다
	sig := ev.Evaluate(computeSnapshots(t, []float64{100, 101, 102}))

	assert.False(t, sig.LongEntry)
	assert.False(t, sig.ShortEntry)
	assert.Equal(t, domain.MarketUnknown, sig.Condition)
}

func TestEvaluateEmptyInput(t *testing.T) {
	ev := NewEvaluator()

	sig := ev.Evaluate(nil)
	assert.False(t, sig.LongEntry)
	assert.False(t, sig.ShortEntry)
	assert.Equal(t, domain.MarketUnknown, sig.Condition)
}

func TestEntriesNeverBothTrue(t *testing.T) {
	ev := NewEvaluator()
	engine, err := indicator.NewEngine(2, 4)
	require.NoError(t, err)

	// 교차가 여러 번 발생하는 시계열에서 매 인덱스를 평가합니다
	closes := []float64{100, 105, 95, 110, 90, 115, 85, 120, 100, 100, 108, 92, 104}
	snapshots := engine.Compute(closes)
	for i := 1; i <= len(snapshots); i++ {
		sig := ev.Evaluate(snapshots[:i])
		assert.False(t, sig.LongEntry && sig.ShortEntry, "인덱스 %d", i-1)
	}
}

func TestClassifyBullish(t *testing.T) {
	ev := NewEvaluator()

	// 꾸준히 상승하는 시계열은 상승장으로 분류됩니다
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	sig := ev.Evaluate(computeSnapshots(t, closes))
	assert.Equal(t, domain.MarketBullish, sig.Condition)
}

func TestClassifyBearish(t *testing.T) {
	ev := NewEvaluator()

	// 꾸준히 하락하는 시계열은 하락장으로 분류됩니다
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	sig := ev.Evaluate(computeSnapshots(t, closes))
	assert.Equal(t, domain.MarketBearish, sig.Condition)
}

func TestClassifySideways(t *testing.T) {
	ev := NewEvaluator()

	// 평탄한 시계열은 횡보장으로 분류됩니다
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 100
	}
	sig := ev.Evaluate(computeSnapshots(t, closes))
	assert.Equal(t, domain.MarketSideways, sig.Condition)
}

func TestClassifyUnknownWithShortWindow(t *testing.T) {
	ev := NewEvaluator()

	// 윈도우보다 봉이 적으면 UNKNOWN입니다
	sig := ev.Evaluate(computeSnapshots(t, []float64{100, 101, 99, 98, 105, 104, 106, 107, 105}))
	assert.Equal(t, domain.MarketUnknown, sig.Condition)
}
