package indicator

import "math"

// Snapshot은 특정 봉 인덱스에서의 지표 상태입니다.
// 모든 필드는 항상 채워지며, 데이터가 부족해 정의되지 않는 실수 값은
// NaN 센티널로, 불리언 플래그는 false로 고정됩니다.
type Snapshot struct {
	Close    float64 // 종가
	EMA      float64 // 빠른 지수이동평균
	MA       float64 // 느린 단순이동평균
	Diff     float64 // EMA - MA
	PrevDiff float64 // 직전 봉의 Diff
	EMASlope float64 // EMA의 1차 차분
	MASlope  float64 // MA의 1차 차분
	Momentum float64 // 직전 종가 대비 변화율

	PriceAboveEMA bool // 종가 > EMA
	EMAAboveMA    bool // EMA > MA (MA가 정의된 경우에만 true 가능)
	GoldenCross   bool // 이 봉에서 상향 교차 발생
	DeathCross    bool // 이 봉에서 하향 교차 발생
}

// EMADefined는 EMA 값이 정의되어 있는지 확인합니다
func (s Snapshot) EMADefined() bool { return !math.IsNaN(s.EMA) }

// MADefined는 MA 값이 정의되어 있는지 확인합니다
func (s Snapshot) MADefined() bool { return !math.IsNaN(s.MA) }

// DiffDefined는 Diff 값이 정의되어 있는지 확인합니다
func (s Snapshot) DiffDefined() bool { return !math.IsNaN(s.Diff) }

// EMASlopeDefined는 EMASlope 값이 정의되어 있는지 확인합니다
func (s Snapshot) EMASlopeDefined() bool { return !math.IsNaN(s.EMASlope) }
