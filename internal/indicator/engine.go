package indicator

import (
	"fmt"
	"math"
)

// Engine은 종가 시계열에서 EMA/MA 교차 지표를 계산합니다.
// 상태를 갖지 않으며 호출 시마다 전체 시계열을 다시 계산합니다.
type Engine struct {
	fastPeriod int // EMA 기간
	slowPeriod int // MA 기간
}

// NewEngine은 지표 엔진을 생성합니다.
// fastPeriod는 slowPeriod보다 작아야 합니다.
func NewEngine(fastPeriod, slowPeriod int) (*Engine, error) {
	if fastPeriod < 1 || slowPeriod < 1 {
		return nil, fmt.Errorf("이동평균 기간은 1 이상이어야 합니다: fast=%d, slow=%d", fastPeriod, slowPeriod)
	}
	if fastPeriod >= slowPeriod {
		return nil, fmt.Errorf("빠른 기간(%d)은 느린 기간(%d)보다 작아야 합니다", fastPeriod, slowPeriod)
	}
	return &Engine{fastPeriod: fastPeriod, slowPeriod: slowPeriod}, nil
}

// Compute는 종가 시계열과 같은 길이의 지표 스냅샷 시계열을 반환합니다.
// 교차 플래그는 현재와 직전 봉의 Diff가 모두 정의된 경우에만
// true가 될 수 있으며, 나머지 경우는 false로 고정됩니다.
func (e *Engine) Compute(closes []float64) []Snapshot {
	n := len(closes)
	snapshots := make([]Snapshot, n)
	if n == 0 {
		return snapshots
	}

	ema := e.computeEMA(closes)
	ma := e.computeMA(closes)

	for i := 0; i < n; i++ {
		s := Snapshot{
			Close:    closes[i],
			EMA:      ema[i],
			MA:       ma[i],
			Diff:     ema[i] - ma[i],
			PrevDiff: math.NaN(),
			EMASlope: math.NaN(),
			MASlope:  math.NaN(),
			Momentum: math.NaN(),
		}

		if i > 0 {
			s.PrevDiff = snapshots[i-1].Diff
			s.EMASlope = ema[i] - ema[i-1]
			s.MASlope = ma[i] - ma[i-1]
			if closes[i-1] != 0 {
				s.Momentum = (closes[i] - closes[i-1]) / closes[i-1]
			}
		}

		s.PriceAboveEMA = closes[i] > ema[i]
		if !math.IsNaN(ma[i]) {
			s.EMAAboveMA = ema[i] > ma[i]
		}

		// 교차는 부호 변화가 일어난 봉에서만 true인 에지 트리거입니다
		if !math.IsNaN(s.Diff) && !math.IsNaN(s.PrevDiff) {
			s.GoldenCross = s.PrevDiff <= 0 && s.Diff > 0
			s.DeathCross = s.PrevDiff >= 0 && s.Diff < 0
		}

		snapshots[i] = s
	}

	return snapshots
}

// computeEMA는 첫 값으로 시드하는 지수이동평균을 계산합니다.
// 평활 계수는 2/(기간+1)이며 모든 인덱스에서 정의됩니다.
func (e *Engine) computeEMA(closes []float64) []float64 {
	ema := make([]float64, len(closes))
	alpha := 2.0 / float64(e.fastPeriod+1)

	ema[0] = closes[0]
	for i := 1; i < len(closes); i++ {
		ema[i] = alpha*closes[i] + (1-alpha)*ema[i-1]
	}

	return ema
}

// computeMA는 단순이동평균을 계산합니다.
// 윈도우가 차기 전인 처음 slowPeriod-1개 인덱스는 NaN입니다.
func (e *Engine) computeMA(closes []float64) []float64 {
	ma := make([]float64, len(closes))

	var sum float64
	for i := 0; i < len(closes); i++ {
		sum += closes[i]
		if i >= e.slowPeriod {
			sum -= closes[i-e.slowPeriod]
		}
		if i >= e.slowPeriod-1 {
			ma[i] = sum / float64(e.slowPeriod)
		} else {
			ma[i] = math.NaN()
		}
	}

	return ma
}
