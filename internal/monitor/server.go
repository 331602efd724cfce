// Package monitor는 실행 중인 봇의 상태를 노출하는 읽기 전용
// 웹 서버입니다. JSON API와 웹소켓 상태 푸시를 제공합니다.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/assist-by/helios/internal/recorder"
	"github.com/assist-by/helios/internal/trading"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StatusSource는 루프의 상태 스냅샷을 제공합니다
type StatusSource interface {
	Status() trading.Status
}

// ConfigView는 /api/config로 노출되는 설정 요약입니다.
// API 키 같은 비밀 값은 포함하지 않습니다.
type ConfigView struct {
	Symbol          string  `json:"symbol"`
	Timeframe       string  `json:"timeframe"`
	FastPeriod      int     `json:"fast_period"`
	SlowPeriod      int     `json:"slow_period"`
	Leverage        int     `json:"leverage"`
	BalanceFraction float64 `json:"balance_fraction"`
	CommissionRate  float64 `json:"commission_rate"`
	PaperTrading    bool    `json:"paper_trading"`
}

// Server는 모니터링 HTTP 서버입니다
type Server struct {
	cfg      ConfigView
	source   StatusSource
	recorder *recorder.Recorder
	httpSrv  *http.Server
}

// NewServer는 모니터 서버를 생성합니다
func NewServer(port int, cfg ConfigView, source StatusSource, rec *recorder.Recorder) *Server {
	s := &Server{
		cfg:      cfg,
		source:   source,
		recorder: rec,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/balance", s.handleBalance)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/statistics", s.handleStatistics)
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Start는 서버를 시작합니다. 블로킹 호출입니다.
func (s *Server) Start() error {
	log.Printf("웹 모니터 시작: http://localhost%s", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("모니터 서버 실행 실패: %w", err)
	}
	return nil
}

// Shutdown은 서버를 정상 종료합니다
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("응답 인코딩 실패: %v", err)
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cfg)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.source.Status())
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	st := s.source.Status()
	writeJSON(w, map[string]interface{}{
		"positions":            st.Positions,
		"total_margin":         st.TotalMargin,
		"total_unrealized_pnl": st.TotalUnrealizedPnL,
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	st := s.source.Status()
	writeJSON(w, st.Balance)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeJSON(w, []interface{}{})
		return
	}

	trades, err := s.recorder.RecentTrades(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, trades)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	st := s.source.Status()
	resp := map[string]interface{}{
		"stats":    st.Stats,
		"win_rate": st.Stats.WinRate(),
	}

	if s.recorder != nil {
		if daily, ok, err := s.recorder.DailyStats(time.Now()); err == nil && ok {
			resp["daily"] = daily
		}
	}
	writeJSON(w, resp)
}

// handleWebSocket은 연결을 업그레이드하고 5초마다 상태를 푸시합니다
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("웹소켓 업그레이드 실패: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("웹소켓 클라이언트 연결: %s", r.RemoteAddr)

	// 연결 직후 현재 상태를 먼저 보냅니다
	if err := conn.WriteJSON(s.source.Status()); err != nil {
		log.Printf("웹소켓 전송 실패: %v", err)
		return
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteJSON(s.source.Status()); err != nil {
			log.Printf("웹소켓 전송 실패: %v", err)
			return
		}
	}
}
