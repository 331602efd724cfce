// Package emacross는 EMA/MA 교차 지표를 진입/청산 판단으로 변환합니다.
package emacross

import (
	"github.com/assist-by/helios/internal/domain"
	"github.com/assist-by/helios/internal/indicator"
)

// conditionWindow는 시장 상황 분류에 사용하는 최근 봉 개수입니다
const conditionWindow = 10

const (
	bullishRatio = 0.6 // 이 비율을 초과하면 상승장 조건 충족
	bearishRatio = 0.4 // 이 비율 미만이면 하락장 조건 충족
)

// Signal은 마지막 닫힌 봉에 대한 평가 결과입니다.
// 진입과 청산은 같은 스냅샷에 대한 독립적인 불리언 판정이며,
// 롱 진입과 숏 진입은 교차 플래그의 상호 배타성 때문에
// 동시에 참이 될 수 없습니다.
type Signal struct {
	LongEntry  bool                   // 롱 진입 조건 충족
	ShortEntry bool                   // 숏 진입 조건 충족
	ExitLong   bool                   // 보유 중인 롱 청산 조건 충족
	ExitShort  bool                   // 보유 중인 숏 청산 조건 충족
	Condition  domain.MarketCondition // 시장 상황 분류
}

// Evaluator는 지표 스냅샷 시계열을 평가해 Signal을 생성합니다
type Evaluator struct{}

// NewEvaluator는 평가기를 생성합니다
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate는 시계열의 마지막 스냅샷에 대해 진입/청산 조건을 판정하고
// 최근 봉 윈도우로 시장 상황을 분류합니다. 빈 시계열이면 제로 Signal에
// UNKNOWN 상황을 반환합니다.
func (e *Evaluator) Evaluate(snapshots []indicator.Snapshot) Signal {
	sig := Signal{Condition: domain.MarketUnknown}
	if len(snapshots) == 0 {
		return sig
	}

	last := snapshots[len(snapshots)-1]

	// NaN과의 비교는 항상 false이므로 기울기가 정의되지 않은 경우
	// 진입 조건은 자연히 탈락합니다
	sig.LongEntry = last.GoldenCross && last.PriceAboveEMA && last.EMAAboveMA && last.EMASlope > 0
	sig.ShortEntry = last.DeathCross && !last.PriceAboveEMA && !last.EMAAboveMA && last.EMASlope < 0

	sig.ExitLong = last.DeathCross || !last.PriceAboveEMA
	sig.ExitShort = last.GoldenCross || last.PriceAboveEMA

	sig.Condition = e.classify(snapshots)
	return sig
}

// classify는 최근 conditionWindow개 봉으로 시장 상황을 분류합니다.
// 추세 방향과 가격/이평 우위 비율이 모두 같은 방향을 가리킬 때만
// 상승장 또는 하락장으로 판정합니다.
func (e *Evaluator) classify(snapshots []indicator.Snapshot) domain.MarketCondition {
	if len(snapshots) < conditionWindow {
		return domain.MarketUnknown
	}

	window := snapshots[len(snapshots)-conditionWindow:]
	first, last := window[0], window[len(window)-1]

	emaTrend := last.EMA - first.EMA
	maTrend := last.MA - first.MA

	var priceAbove, emaAbove int
	for _, s := range window {
		if s.PriceAboveEMA {
			priceAbove++
		}
		if s.EMAAboveMA {
			emaAbove++
		}
	}
	priceRatio := float64(priceAbove) / float64(len(window))
	emaRatio := float64(emaAbove) / float64(len(window))

	switch {
	case emaTrend > 0 && maTrend > 0 && priceRatio > bullishRatio && emaRatio > bullishRatio:
		return domain.MarketBullish
	case emaTrend < 0 && maTrend < 0 && priceRatio < bearishRatio && emaRatio < bearishRatio:
		return domain.MarketBearish
	default:
		return domain.MarketSideways
	}
}
