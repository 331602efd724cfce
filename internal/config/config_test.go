package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/helios/internal/domain"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Trading.Symbol = "BTCUSDT"
	cfg.Trading.Timeframe = domain.Interval15m
	cfg.Trading.FastPeriod = 2
	cfg.Trading.SlowPeriod = 4
	cfg.Trading.Leverage = 20
	cfg.Trading.BalanceFraction = 0.5
	cfg.Trading.CommissionRate = 0.0005
	cfg.Trading.PaperTrading = true
	cfg.App.CheckInterval = 60 * time.Second
	cfg.App.CandleLimit = 100
	return cfg
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, ValidateConfig(validConfig()))
}

func TestValidateConfigRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"심볼 누락", func(c *Config) { c.Trading.Symbol = "" }},
		{"잘못된 타임프레임", func(c *Config) { c.Trading.Timeframe = "7m" }},
		{"기간 0", func(c *Config) { c.Trading.FastPeriod = 0 }},
		{"빠른 기간이 더 큼", func(c *Config) { c.Trading.FastPeriod = 5 }},
		{"레버리지 초과", func(c *Config) { c.Trading.Leverage = 126 }},
		{"레버리지 0", func(c *Config) { c.Trading.Leverage = 0 }},
		{"비율 0", func(c *Config) { c.Trading.BalanceFraction = 0 }},
		{"비율 1 초과", func(c *Config) { c.Trading.BalanceFraction = 1.5 }},
		{"음수 수수료율", func(c *Config) { c.Trading.CommissionRate = -0.01 }},
		{"짧은 체크 주기", func(c *Config) { c.App.CheckInterval = 500 * time.Millisecond }},
		{"캔들 수 부족", func(c *Config) { c.App.CandleLimit = 3 }},
		{"실거래에 API 키 누락", func(c *Config) { c.Trading.PaperTrading = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}

func TestValidateConfigLiveWithKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Trading.PaperTrading = false
	cfg.Binance.APIKey = "key"
	cfg.Binance.SecretKey = "secret"
	assert.NoError(t, ValidateConfig(cfg))
}
