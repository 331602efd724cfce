package domain

import "time"

// Candle은 캔들 데이터를 표현합니다
type Candle struct {
	OpenTime time.Time // 캔들 시작 시간
	Open     float64   // 시가
	High     float64   // 고가
	Low      float64   // 저가
	Close    float64   // 종가
	Volume   float64   // 거래량
}

// CloseTime은 캔들의 명목 종료 시간을 반환합니다
func (c Candle) CloseTime(interval TimeInterval) time.Time {
	return c.OpenTime.Add(interval.Duration())
}

// IsClosed는 캔들이 주어진 시각 기준으로 이미 마감되었는지 확인합니다
func (c Candle) IsClosed(interval TimeInterval, now time.Time) bool {
	return !now.Before(c.CloseTime(interval))
}

// CandleList는 캔들 데이터 목록입니다 (시작 시간 오름차순)
type CandleList []Candle

// Last는 가장 최근 캔들을 반환합니다
func (cl CandleList) Last() (Candle, bool) {
	if len(cl) == 0 {
		return Candle{}, false
	}
	return cl[len(cl)-1], true
}

// Closes는 종가 배열을 반환합니다
func (cl CandleList) Closes() []float64 {
	closes := make([]float64, len(cl))
	for i, c := range cl {
		closes[i] = c.Close
	}
	return closes
}
