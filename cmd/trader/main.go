package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	"github.com/assist-by/helios/internal/config"
	"github.com/assist-by/helios/internal/domain"
	"github.com/assist-by/helios/internal/exchange"
	"github.com/assist-by/helios/internal/exchange/binance"
	"github.com/assist-by/helios/internal/indicator"
	"github.com/assist-by/helios/internal/monitor"
	"github.com/assist-by/helios/internal/notification/discord"
	"github.com/assist-by/helios/internal/position"
	"github.com/assist-by/helios/internal/recorder"
	"github.com/assist-by/helios/internal/scheduler"
	"github.com/assist-by/helios/internal/strategy/emacross"
	"github.com/assist-by/helios/internal/trading"
)

// paperInitialBalance는 모의 거래 모드의 초기 USDT 잔고입니다
const paperInitialBalance = 10000

func main() {
	// 명령줄 플래그 정의
	testLongFlag := flag.Bool("testlong", false, "롱 포지션 테스트 후 종료")
	testShortFlag := flag.Bool("testshort", false, "숏 포지션 테스트 후 종료")
	flag.Parse()

	// 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 로그 설정
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("트레이딩 봇 시작...")

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("설정 로드 실패: %v", err)
	}

	// Discord 클라이언트 생성
	discordClient := discord.NewClient(
		cfg.Discord.SignalWebhook,
		cfg.Discord.TradeWebhook,
		cfg.Discord.ErrorWebhook,
		cfg.Discord.InfoWebhook,
		discord.WithTimeout(10*time.Second),
	)

	// 시작 알림 전송
	if err := discordClient.SendInfo("🚀 트레이딩 봇이 시작되었습니다."); err != nil {
		log.Printf("시작 알림 전송 실패: %v", err)
	}

	// 바이낸스 클라이언트 생성
	binanceClient := binance.NewClient(
		cfg.Binance.APIKey,
		cfg.Binance.SecretKey,
		binance.WithTimeout(10*time.Second),
		binance.WithTestnet(cfg.Binance.UseTestnet),
	)

	// 바이낸스 서버와 시간 동기화
	if err := binanceClient.SyncTime(ctx); err != nil {
		log.Printf("바이낸스 서버 시간 동기화 실패: %v", err)
		if err := discordClient.SendError(fmt.Errorf("바이낸스 서버 시간 동기화 실패: %w", err)); err != nil {
			log.Printf("에러 알림 전송 실패: %v", err)
		}
		os.Exit(1)
	}

	// 거래 경로 선택: 모의 거래는 시세만 실거래소에 위임합니다
	var ex exchange.Exchange = binanceClient
	if cfg.Trading.PaperTrading {
		ex = exchange.NewPaper(binanceClient, cfg.Trading.Symbol,
			paperInitialBalance, cfg.Trading.CommissionRate)
		discordClient.SendInfo("📝 모의 거래 모드로 실행 중입니다. 실제 자산은 사용되지 않습니다.")
	} else {
		discordClient.SendInfo("⚠️ 실거래 모드로 실행 중입니다. 실제 자산이 사용됩니다!")
	}

	// 거래소가 허용하는 최대 레버리지 확인
	leverage := cfg.Trading.Leverage
	if limit, err := ex.GetLeverageLimit(ctx, cfg.Trading.Symbol); err != nil {
		log.Printf("레버리지 한도 조회 실패: %v", err)
	} else if leverage > limit {
		log.Printf("레버리지를 거래소 한도로 조정: %d -> %d", leverage, limit)
		leverage = limit
	}

	// 거래소 레버리지 설정
	if err := ex.SetLeverage(ctx, cfg.Trading.Symbol, leverage); err != nil {
		log.Fatalf("레버리지 설정 실패: %v", err)
	}

	// 포지션 원장 생성
	ledger, err := position.NewLedger(cfg.Trading.Symbol, leverage,
		cfg.Trading.BalanceFraction, cfg.Trading.CommissionRate)
	if err != nil {
		log.Fatalf("원장 생성 실패: %v", err)
	}

	// 지표 엔진과 평가기 생성
	engine, err := indicator.NewEngine(cfg.Trading.FastPeriod, cfg.Trading.SlowPeriod)
	if err != nil {
		log.Fatalf("지표 엔진 생성 실패: %v", err)
	}
	evaluator := emacross.NewEvaluator()

	// 거래 기록 저장소 생성
	rec, err := recorder.New(cfg.App.DatabasePath)
	if err != nil {
		log.Fatalf("거래 기록 저장소 생성 실패: %v", err)
	}
	defer rec.Close()

	// 의사결정 루프 생성
	loop := trading.NewLoop(trading.Config{
		Symbol:         cfg.Trading.Symbol,
		Timeframe:      cfg.Trading.Timeframe,
		CandleLimit:    cfg.App.CandleLimit,
		Leverage:       leverage,
		CommissionRate: cfg.Trading.CommissionRate,
		PaperTrading:   cfg.Trading.PaperTrading,
	}, ex, ex, ex, ledger, engine, evaluator, rec, discordClient)

	// 시작 시 거래소 상태로 원장을 맞춥니다
	reconcileTask := trading.NewReconcileTask(cfg.Trading.Symbol, ex, ledger, discordClient)
	if err := reconcileTask.Execute(ctx); err != nil {
		log.Printf("초기 정합성 동기화 실패: %v", err)
	}

	// 테스트 모드 실행 (플래그 기반)
	if *testLongFlag || *testShortFlag {
		side := domain.LongPosition
		if *testShortFlag {
			side = domain.ShortPosition
		}

		if err := loop.ForceEntry(ctx, side); err != nil {
			log.Printf("테스트 매매 실행 중 에러 발생: %v", err)
			if err := discordClient.SendError(err); err != nil {
				log.Printf("에러 알림 전송 실패: %v", err)
			}
			os.Exit(1)
		}

		if err := discordClient.SendInfo(fmt.Sprintf("✅ 테스트 %s 진입 완료. 프로그램을 종료합니다.", side)); err != nil {
			log.Printf("종료 알림 전송 실패: %v", err)
		}
		log.Println("프로그램을 종료합니다.")
		os.Exit(0)
	}

	// 웹 모니터 시작
	monitorServer := monitor.NewServer(cfg.App.MonitorPort, monitor.ConfigView{
		Symbol:          cfg.Trading.Symbol,
		Timeframe:       string(cfg.Trading.Timeframe),
		FastPeriod:      cfg.Trading.FastPeriod,
		SlowPeriod:      cfg.Trading.SlowPeriod,
		Leverage:        leverage,
		BalanceFraction: cfg.Trading.BalanceFraction,
		CommissionRate:  cfg.Trading.CommissionRate,
		PaperTrading:    cfg.Trading.PaperTrading,
	}, loop, rec)

	go func() {
		if err := monitorServer.Start(); err != nil {
			log.Printf("모니터 서버 에러: %v", err)
		}
	}()

	// 스케줄러 생성: 의사결정 주기와 정합성 동기화 주기를 분리합니다
	decisionScheduler := scheduler.NewScheduler("decision", cfg.App.CheckInterval, loop)
	reconcileScheduler := scheduler.NewScheduler("reconcile", cfg.App.ReconcileInterval, reconcileTask)

	// 시그널 처리
	sigChan := make(chan os.Signal, 1)
	osSignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 스케줄러 시작
	go func() {
		if err := decisionScheduler.Start(ctx); err != nil {
			log.Printf("의사결정 스케줄러 종료: %v", err)
		}
	}()
	go func() {
		if err := reconcileScheduler.Start(ctx); err != nil {
			log.Printf("동기화 스케줄러 종료: %v", err)
		}
	}()

	// 시그널 대기
	sig := <-sigChan
	log.Printf("시스템 종료 신호 수신: %v", sig)

	// 스케줄러 중지
	decisionScheduler.Stop()
	reconcileScheduler.Stop()

	// 모니터 서버 정상 종료
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := monitorServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("모니터 서버 종료 실패: %v", err)
	}

	// 종료 전 최종 상태 보고와 종료 알림 전송
	loop.ReportShutdown()
	if err := discordClient.SendInfo("👋 트레이딩 봇이 정상적으로 종료되었습니다."); err != nil {
		log.Printf("종료 알림 전송 실패: %v", err)
	}

	log.Println("프로그램을 종료합니다.")
}
