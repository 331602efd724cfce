// internal/exchange/binance/client.go
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/assist-by/helios/internal/domain"
	"github.com/assist-by/helios/internal/exchange"
)

// Client는 바이낸스 선물 API 클라이언트를 구현합니다
type Client struct {
	apiKey           string
	secretKey        string
	baseURL          string
	httpClient       *http.Client
	serverTimeOffset int64 // 서버 시간과의 차이를 저장
	mu               sync.RWMutex
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL은 기본 URL을 설정합니다
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTestnet은 테스트넷 사용 여부를 설정합니다
func WithTestnet(useTestnet bool) ClientOption {
	return func(c *Client) {
		if useTestnet {
			c.baseURL = "https://testnet.binancefuture.com"
		} else {
			c.baseURL = "https://fapi.binance.com"
		}
	}
}

// NewClient는 새로운 바이낸스 API 클라이언트를 생성합니다
func NewClient(apiKey, secretKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    "https://fapi.binance.com", // 기본값은 선물 거래소
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	// 옵션 적용
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doRequest는 HTTP 요청을 실행하고 결과를 반환합니다
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, needSign bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}

	// URL 생성
	reqURL, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("URL 파싱 실패: %w", err)
	}

	// 타임스탬프 추가
	if needSign {
		timestamp := strconv.FormatInt(c.getServerTime(), 10)
		params.Set("timestamp", timestamp)
		params.Set("recvWindow", "5000")
	}

	// 파라미터 설정
	reqURL.RawQuery = params.Encode()

	// 서명 추가
	if needSign {
		signature := c.sign(params.Encode())
		reqURL.RawQuery = reqURL.RawQuery + "&signature=" + signature
	}

	// 요청 생성
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("요청 생성 실패: %w", err)
	}

	// 헤더 설정
	req.Header.Set("Content-Type", "application/json")
	if needSign {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	// 요청 실행
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API 요청 실패: %w", err)
	}
	defer resp.Body.Close()

	// 응답 읽기
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("응답 읽기 실패: %w", err)
	}

	// 상태 코드 확인
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"msg"`
		}
		if err := json.Unmarshal(body, &apiErr); err != nil {
			return nil, fmt.Errorf("HTTP 에러(%d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("API 에러(코드: %d): %s", apiErr.Code, apiErr.Message)
	}

	return body, nil
}

// sign은 요청에 대한 서명을 생성합니다
func (c *Client) sign(payload string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// getServerTime은 현재 서버 시간을 반환합니다
func (c *Client) getServerTime() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().UnixMilli() + c.serverTimeOffset
}

// GetServerTime은 서버 시간을 조회합니다
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/time", nil, false)
	if err != nil {
		return time.Time{}, err
	}

	var result struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return time.Time{}, fmt.Errorf("서버 시간 파싱 실패: %w", err)
	}

	return time.Unix(0, result.ServerTime*int64(time.Millisecond)), nil
}

// SyncTime은 바이낸스 서버와 시간을 동기화합니다
func (c *Client) SyncTime(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/time", nil, false)
	if err != nil {
		return fmt.Errorf("서버 시간 조회 실패: %w", err)
	}

	var result struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("서버 시간 파싱 실패: %w", err)
	}

	c.serverTimeOffset = result.ServerTime - time.Now().UnixMilli()
	return nil
}

// GetKlines는 캔들 데이터를 시작 시간 오름차순으로 조회합니다
func (c *Client) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("interval", string(interval))
	params.Add("limit", strconv.Itoa(limit))

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/klines", params, false)
	if err != nil {
		return nil, err
	}

	var rawCandles [][]interface{}
	if err := json.Unmarshal(resp, &rawCandles); err != nil {
		return nil, fmt.Errorf("캔들 데이터 파싱 실패: %w", err)
	}

	candles := make(domain.CandleList, len(rawCandles))
	for i, raw := range rawCandles {
		// 시간 변환
		openTime := int64(raw[0].(float64))

		// 가격 문자열 변환
		open, _ := strconv.ParseFloat(raw[1].(string), 64)
		high, _ := strconv.ParseFloat(raw[2].(string), 64)
		low, _ := strconv.ParseFloat(raw[3].(string), 64)
		close, _ := strconv.ParseFloat(raw[4].(string), 64)
		volume, _ := strconv.ParseFloat(raw[5].(string), 64)

		candles[i] = domain.Candle{
			OpenTime: time.Unix(0, openTime*int64(time.Millisecond)),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    close,
			Volume:   volume,
		}
	}

	return candles, nil
}

// GetBalance는 계정의 잔고를 조회합니다
func (c *Client) GetBalance(ctx context.Context) (domain.BalanceMap, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v2/account", nil, true)
	if err != nil {
		return nil, fmt.Errorf("잔고 조회 실패: %w", err)
	}

	var result struct {
		Assets []struct {
			Asset            string  `json:"asset"`
			WalletBalance    float64 `json:"walletBalance,string"`
			AvailableBalance float64 `json:"availableBalance,string"`
		} `json:"assets"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("응답 파싱 실패: %w", err)
	}

	balances := make(domain.BalanceMap)
	for _, asset := range result.Assets {
		// 잔고가 있는 자산만 포함 (0보다 큰 값)
		if asset.WalletBalance > 0 {
			balances[asset.Asset] = domain.Balance{
				Asset:     asset.Asset,
				Balance:   asset.WalletBalance,
				Available: asset.AvailableBalance,
			}
		}
	}

	return balances, nil
}

// GetPositions는 특정 심볼의 열린 포지션을 조회합니다
func (c *Client) GetPositions(ctx context.Context, symbol string) ([]domain.ExchangePosition, error) {
	params := url.Values{}
	if symbol != "" {
		params.Add("symbol", symbol)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v2/positionRisk", params, true)
	if err != nil {
		return nil, fmt.Errorf("포지션 조회 실패: %w", err)
	}

	var positionsRaw []struct {
		Symbol      string  `json:"symbol"`
		PositionAmt float64 `json:"positionAmt,string"`
		EntryPrice  float64 `json:"entryPrice,string"`
		MarkPrice   float64 `json:"markPrice,string"`
		Leverage    float64 `json:"leverage,string"`
	}

	if err := json.Unmarshal(resp, &positionsRaw); err != nil {
		return nil, fmt.Errorf("포지션 데이터 파싱 실패: %w", err)
	}

	// 활성 포지션만 필터링 (수량이 0이 아닌 포지션)
	var positions []domain.ExchangePosition
	for _, p := range positionsRaw {
		if p.PositionAmt == 0 {
			continue
		}

		side := domain.LongPosition
		amt := p.PositionAmt
		if amt < 0 {
			side = domain.ShortPosition
			amt = -amt
		}

		positions = append(positions, domain.ExchangePosition{
			Symbol:     p.Symbol,
			Side:       side,
			Size:       amt * p.EntryPrice,
			EntryPrice: p.EntryPrice,
			MarkPrice:  p.MarkPrice,
			Leverage:   int(p.Leverage),
		})
	}

	return positions, nil
}

// GetLeverageLimit은 레버리지 브라켓에서 최대 레버리지를 조회합니다
func (c *Client) GetLeverageLimit(ctx context.Context, symbol string) (int, error) {
	params := url.Values{}
	params.Add("symbol", symbol)

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/leverageBracket", params, true)
	if err != nil {
		return 0, fmt.Errorf("레버리지 브라켓 조회 실패: %w", err)
	}

	var bracketsRaw []struct {
		Symbol   string `json:"symbol"`
		Brackets []struct {
			Bracket         int `json:"bracket"`
			InitialLeverage int `json:"initialLeverage"`
		} `json:"brackets"`
	}

	if err := json.Unmarshal(resp, &bracketsRaw); err != nil {
		return 0, fmt.Errorf("레버리지 브라켓 데이터 파싱 실패: %w", err)
	}

	maxLeverage := 0
	for _, symbolBrackets := range bracketsRaw {
		for _, b := range symbolBrackets.Brackets {
			if b.InitialLeverage > maxLeverage {
				maxLeverage = b.InitialLeverage
			}
		}
		break
	}

	if maxLeverage == 0 {
		return 0, fmt.Errorf("레버리지 브라켓 정보를 찾을 수 없음: %s", symbol)
	}

	return maxLeverage, nil
}

// PlaceOrder는 시장가 주문을 생성합니다.
// 거래소가 주문을 거부하면 exchange.ErrOrderRejected로 보고합니다.
func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (domain.OrderFill, error) {
	params := url.Values{}
	params.Add("symbol", order.Symbol)
	params.Add("side", string(order.Side))
	params.Add("type", "MARKET")
	params.Add("quantity", strconv.FormatFloat(order.Quantity, 'f', -1, 64))

	// 클라이언트 주문 ID가 설정되었으면 추가
	if order.ClientOrderID != "" {
		params.Add("newClientOrderId", order.ClientOrderID)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/fapi/v1/order", params, true)
	if err != nil {
		return domain.OrderFill{}, fmt.Errorf("%w [심볼: %s, 수량: %.8f]: %v",
			exchange.ErrOrderRejected, order.Symbol, order.Quantity, err)
	}

	var result struct {
		OrderID     int64  `json:"orderId"`
		Status      string `json:"status"`
		AvgPrice    string `json:"avgPrice"`
		ExecutedQty string `json:"executedQty"`
		UpdateTime  int64  `json:"updateTime"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return domain.OrderFill{}, fmt.Errorf("주문 응답 파싱 실패: %w", err)
	}

	avgPrice, _ := strconv.ParseFloat(result.AvgPrice, 64)
	executedQty, _ := strconv.ParseFloat(result.ExecutedQty, 64)

	return domain.OrderFill{
		OrderRef:       strconv.FormatInt(result.OrderID, 10),
		FilledQuantity: executedQty,
		AvgPrice:       avgPrice,
		FilledAt:       time.Unix(0, result.UpdateTime*int64(time.Millisecond)),
	}, nil
}

// SetLeverage는 레버리지를 설정합니다
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("leverage", strconv.Itoa(leverage))

	_, err := c.doRequest(ctx, http.MethodPost, "/fapi/v1/leverage", params, true)
	if err != nil {
		return fmt.Errorf("레버리지 설정 실패: %w", err)
	}

	return nil
}
