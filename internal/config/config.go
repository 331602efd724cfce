package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/assist-by/helios/internal/domain"
)

type Config struct {
	// 바이낸스 API 설정
	Binance struct {
		APIKey     string `envconfig:"BINANCE_API_KEY"`
		SecretKey  string `envconfig:"BINANCE_SECRET_KEY"`
		UseTestnet bool   `envconfig:"USE_TESTNET" default:"false"`
	}

	// 디스코드 웹훅 설정
	Discord struct {
		SignalWebhook string `envconfig:"DISCORD_SIGNAL_WEBHOOK"`
		TradeWebhook  string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook  string `envconfig:"DISCORD_ERROR_WEBHOOK"`
		InfoWebhook   string `envconfig:"DISCORD_INFO_WEBHOOK"`
	}

	// 거래 설정
	Trading struct {
		Symbol          string              `envconfig:"SYMBOL" default:"BTCUSDT"`
		Timeframe       domain.TimeInterval `envconfig:"TIMEFRAME" default:"15m"`
		FastPeriod      int                 `envconfig:"FAST_PERIOD" default:"2"`
		SlowPeriod      int                 `envconfig:"SLOW_PERIOD" default:"4"`
		Leverage        int                 `envconfig:"LEVERAGE" default:"20"`
		BalanceFraction float64             `envconfig:"BALANCE_FRACTION" default:"0.5"`
		CommissionRate  float64             `envconfig:"COMMISSION_RATE" default:"0.0005"`
		PaperTrading    bool                `envconfig:"PAPER_TRADING" default:"true"`
	}

	// 애플리케이션 설정
	App struct {
		CheckInterval     time.Duration `envconfig:"CHECK_INTERVAL" default:"60s"`
		ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL" default:"1m"`
		CandleLimit       int           `envconfig:"CANDLE_LIMIT" default:"100"`
		DatabasePath      string        `envconfig:"DATABASE_PATH" default:"helios.db"`
		MonitorPort       int           `envconfig:"MONITOR_PORT" default:"8080"`
	}
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	if cfg.Trading.Symbol == "" {
		return fmt.Errorf("SYMBOL은 비어 있을 수 없습니다")
	}

	if !cfg.Trading.Timeframe.IsValid() {
		return fmt.Errorf("유효하지 않은 타임프레임입니다: %s", cfg.Trading.Timeframe)
	}

	if cfg.Trading.FastPeriod < 1 || cfg.Trading.SlowPeriod < 1 {
		return fmt.Errorf("이동평균 기간은 1 이상이어야 합니다")
	}

	if cfg.Trading.FastPeriod >= cfg.Trading.SlowPeriod {
		return fmt.Errorf("FAST_PERIOD(%d)는 SLOW_PERIOD(%d)보다 작아야 합니다",
			cfg.Trading.FastPeriod, cfg.Trading.SlowPeriod)
	}

	if cfg.Trading.Leverage < 1 || cfg.Trading.Leverage > 125 {
		return fmt.Errorf("레버리지는 1 이상 125 이하이어야 합니다")
	}

	if cfg.Trading.BalanceFraction <= 0 || cfg.Trading.BalanceFraction > 1 {
		return fmt.Errorf("BALANCE_FRACTION은 0 초과 1 이하이어야 합니다")
	}

	if cfg.Trading.CommissionRate < 0 {
		return fmt.Errorf("COMMISSION_RATE는 음수일 수 없습니다")
	}

	if cfg.App.CheckInterval < 1*time.Second {
		return fmt.Errorf("CHECK_INTERVAL은 1초 이상이어야 합니다")
	}

	if cfg.App.CandleLimit < cfg.Trading.SlowPeriod+1 {
		return fmt.Errorf("CANDLE_LIMIT(%d)은 SLOW_PERIOD+1 이상이어야 합니다", cfg.App.CandleLimit)
	}

	// 실거래 모드에서는 API 키가 필수입니다
	if !cfg.Trading.PaperTrading {
		if cfg.Binance.APIKey == "" || cfg.Binance.SecretKey == "" {
			return fmt.Errorf("실거래 모드에서는 BINANCE_API_KEY와 BINANCE_SECRET_KEY가 필요합니다")
		}
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (없으면 환경변수만 사용)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
