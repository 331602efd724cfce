// Package recorder는 거래 기록과 상태 스냅샷을 sqlite에 보존합니다.
package recorder

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/assist-by/helios/internal/domain"
)

// Recorder는 sqlite 기반 거래 기록 저장소입니다.
// 기록 실패는 호출 측에서 로깅만 하고 거래 흐름을 막지 않습니다.
type Recorder struct {
	db *sql.DB
}

// New는 데이터베이스를 열고 스키마를 준비합니다
func New(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("데이터베이스 열기 실패: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("스키마 생성 실패: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Record는 거래 기록 한 건을 저장합니다
func (r *Recorder) Record(t domain.TradeRecord) error {
	paper := 0
	if t.PaperTrade {
		paper = 1
	}

	_, err := r.db.Exec(`
		INSERT INTO trades
		(id, timestamp, symbol, side, action, price, size, leverage, commission,
		 gross_pnl, net_pnl, entry_price, hold_seconds, order_ref, paper_trade)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Timestamp, t.Symbol, string(t.Side), string(t.Action),
		t.Price, t.Size, t.Leverage, t.Commission,
		t.GrossPnL, t.NetPnL, t.EntryPrice, t.HoldDuration.Seconds(),
		t.OrderRef, paper,
	)
	return err
}

// SavePositionSnapshot은 현재 포지션 상태를 저장합니다
func (r *Recorder) SavePositionSnapshot(t time.Time, positions []domain.Position, markPrice float64) error {
	for _, p := range positions {
		_, err := r.db.Exec(`
			INSERT INTO position_snapshots
			(time, symbol, side, size, entry_price, mark_price, leverage, unrealized_pnl)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t, p.Symbol, string(p.Side), p.Size, p.EntryPrice, markPrice,
			p.Leverage, p.UnrealizedPnL(markPrice),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveBalanceSnapshot은 잔고와 원장 집계를 저장합니다
func (r *Recorder) SaveBalanceSnapshot(t time.Time, balance domain.Balance, snap domain.LedgerSnapshot) error {
	_, err := r.db.Exec(`
		INSERT INTO balance_snapshots
		(time, asset, balance, available, total_margin, total_unrealized_pnl)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t, balance.Asset, balance.Balance, balance.Available,
		snap.TotalMargin, snap.TotalUnrealizedPnL,
	)
	return err
}

// UpdateDailyStats는 날짜별 집계를 덮어씁니다
func (r *Recorder) UpdateDailyStats(date time.Time, stats domain.LedgerStats) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO trading_stats
		(date, total_trades, winning_trades, total_commission, total_volume, period_pnl)
		VALUES (?, ?, ?, ?, ?, ?)`,
		date.Format("2006-01-02"), stats.TotalTrades, stats.WinningTrades,
		stats.TotalCommission, stats.TotalTradeVolume, stats.PeriodPnL,
	)
	return err
}

// RecentTrades는 최근 거래 기록을 최신순으로 조회합니다
func (r *Recorder) RecentTrades(limit int) ([]domain.TradeRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, timestamp, symbol, side, action, price, size, leverage,
		       commission, gross_pnl, net_pnl, entry_price, hold_seconds,
		       order_ref, paper_trade
		FROM trades
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		var side, action string
		var holdSeconds float64
		var paper int

		if err := rows.Scan(&t.ID, &t.Timestamp, &t.Symbol, &side, &action,
			&t.Price, &t.Size, &t.Leverage, &t.Commission,
			&t.GrossPnL, &t.NetPnL, &t.EntryPrice, &holdSeconds,
			&t.OrderRef, &paper); err != nil {
			return nil, err
		}

		t.Side = domain.PositionSide(side)
		t.Action = domain.TradeAction(action)
		t.HoldDuration = time.Duration(holdSeconds * float64(time.Second))
		t.PaperTrade = paper == 1
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// DailyStats는 특정 날짜의 집계를 조회합니다 (없으면 ok=false)
func (r *Recorder) DailyStats(date time.Time) (domain.LedgerStats, bool, error) {
	var stats domain.LedgerStats
	err := r.db.QueryRow(`
		SELECT total_trades, winning_trades, total_commission, total_volume, period_pnl
		FROM trading_stats
		WHERE date = ?`, date.Format("2006-01-02")).
		Scan(&stats.TotalTrades, &stats.WinningTrades,
			&stats.TotalCommission, &stats.TotalTradeVolume, &stats.PeriodPnL)
	if err == sql.ErrNoRows {
		return domain.LedgerStats{}, false, nil
	}
	if err != nil {
		return domain.LedgerStats{}, false, err
	}
	return stats, true, nil
}

// Close는 데이터베이스 연결을 닫습니다
func (r *Recorder) Close() error {
	return r.db.Close()
}
