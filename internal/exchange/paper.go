package exchange

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/assist-by/helios/internal/domain"
	"github.com/assist-by/helios/internal/id"
)

// Paper는 실제 시세로 동작하는 모의 거래소입니다.
// 시장 데이터 조회는 실제 거래소에 위임하고, 주문은 마지막으로
// 조회된 종가로 즉시 체결된 것으로 처리합니다. 잔고와 포지션은
// 메모리에서만 관리됩니다.
type Paper struct {
	mu sync.Mutex

	market         MarketDataSource
	symbol         string
	balance        float64
	leverage       int
	commissionRate float64

	markPrice  float64
	qty        float64 // 부호 있는 코인 수량 (+롱, -숏)
	entryPrice float64
}

// NewPaper는 초기 잔고로 모의 거래소를 생성합니다
func NewPaper(market MarketDataSource, symbol string, initialBalance, commissionRate float64) *Paper {
	return &Paper{
		market:         market,
		symbol:         symbol,
		balance:        initialBalance,
		leverage:       1,
		commissionRate: commissionRate,
	}
}

// GetKlines는 실제 거래소의 캔들을 반환하면서 마지막 종가를
// 모의 체결 가격으로 기억합니다
func (p *Paper) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	candles, err := p.market.GetKlines(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}

	if last, ok := candles.Last(); ok {
		p.mu.Lock()
		p.markPrice = last.Close
		p.mu.Unlock()
	}
	return candles, nil
}

// GetBalance는 모의 잔고를 반환합니다.
// 사용 가능 잔고는 총 잔고에서 사용 중인 증거금을 뺀 값입니다.
func (p *Paper) GetBalance(ctx context.Context) (domain.BalanceMap, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	used := 0.0
	if p.qty != 0 && p.leverage > 0 {
		used = math.Abs(p.qty) * p.entryPrice / float64(p.leverage)
	}

	return domain.BalanceMap{
		"USDT": {
			Asset:     "USDT",
			Balance:   p.balance,
			Available: p.balance - used,
		},
	}, nil
}

// GetLeverageLimit은 모의 거래소의 최대 레버리지를 반환합니다
func (p *Paper) GetLeverageLimit(ctx context.Context, symbol string) (int, error) {
	return 125, nil
}

// PlaceOrder는 마지막 종가로 시장가 주문을 즉시 체결합니다
func (p *Paper) PlaceOrder(ctx context.Context, order domain.OrderRequest) (domain.OrderFill, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if order.Quantity <= 0 {
		return domain.OrderFill{}, fmt.Errorf("%w: 수량이 0 이하입니다", ErrOrderRejected)
	}
	if p.markPrice <= 0 {
		return domain.OrderFill{}, fmt.Errorf("%w: 체결 가격을 알 수 없습니다", ErrOrderRejected)
	}

	signed := order.Quantity
	if order.Side == domain.Sell {
		signed = -signed
	}

	price := p.markPrice
	p.applyFill(signed, price)

	return domain.OrderFill{
		OrderRef:       id.New(),
		FilledQuantity: order.Quantity,
		AvgPrice:       price,
		FilledAt:       time.Now(),
	}, nil
}

// applyFill은 단방향 포지션 모드로 체결을 반영합니다.
// 반대 방향 체결은 기존 포지션을 먼저 상쇄하며, 상쇄분의
// 실현 손익과 수수료를 잔고에 반영합니다.
func (p *Paper) applyFill(signed, price float64) {
	notional := math.Abs(signed) * price
	p.balance -= notional * float64(p.leverage) * p.commissionRate

	// 같은 방향 추가: 평균 진입가 갱신
	if p.qty == 0 || (p.qty > 0) == (signed > 0) {
		total := p.qty + signed
		if total != 0 {
			p.entryPrice = (p.entryPrice*math.Abs(p.qty) + price*math.Abs(signed)) / math.Abs(total)
		}
		p.qty = total
		return
	}

	// 반대 방향 체결: 상쇄분의 손익을 실현합니다
	closed := math.Min(math.Abs(p.qty), math.Abs(signed))
	pnl := (price - p.entryPrice) * closed * float64(p.leverage)
	if p.qty < 0 {
		pnl = -pnl
	}
	p.balance += pnl

	p.qty += signed
	if p.qty == 0 {
		p.entryPrice = 0
	} else if (p.qty > 0) != (p.qty-signed > 0) {
		// 상쇄를 넘어 반대 방향으로 전환된 경우
		p.entryPrice = price
	}
}

// GetPositions는 모의 포지션을 거래소 보고 형식으로 반환합니다
func (p *Paper) GetPositions(ctx context.Context, symbol string) ([]domain.ExchangePosition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.qty == 0 {
		return nil, nil
	}

	side := domain.LongPosition
	if p.qty < 0 {
		side = domain.ShortPosition
	}

	return []domain.ExchangePosition{{
		Symbol:     p.symbol,
		Side:       side,
		Size:       math.Abs(p.qty) * p.entryPrice,
		EntryPrice: p.entryPrice,
		MarkPrice:  p.markPrice,
		Leverage:   p.leverage,
	}}, nil
}

// SetLeverage는 모의 레버리지를 설정합니다
func (p *Paper) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if leverage < 1 || leverage > 125 {
		return fmt.Errorf("%w: 레버리지 범위 초과 (%d)", ErrOrderRejected, leverage)
	}
	p.mu.Lock()
	p.leverage = leverage
	p.mu.Unlock()
	return nil
}

// GetServerTime은 로컬 시간을 반환합니다
func (p *Paper) GetServerTime(ctx context.Context) (time.Time, error) {
	return time.Now(), nil
}

// SyncTime은 모의 거래소에서는 할 일이 없습니다
func (p *Paper) SyncTime(ctx context.Context) error {
	return nil
}
