package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/joho/godotenv"

	"farmbot/internal/adapter/eventlog"
	"farmbot/internal/adapter/events"
	httpadapter "farmbot/internal/adapter/http"
	metricsinmem "farmbot/internal/adapter/metrics/inmemory"
	"farmbot/internal/adapter/tuning"
	worldruntime "farmbot/internal/adapter/world/runtime"
	"farmbot/internal/adapter/ws"
	"farmbot/internal/app/action"
	"farmbot/internal/app/auth"
	"farmbot/internal/app/dispatch"
	"farmbot/internal/app/observe"
	"farmbot/internal/app/replay"
	"farmbot/internal/app/scheduler"
	"farmbot/internal/app/status"
	"farmbot/internal/domain/world"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[CONFIG] .env ignored: %v", err)
	}
	tun := mustLoadTuning()
	ctx, cancel := context.WithCancel(context.Background())

	bus := events.NewBus()
	store := mustBuildPersistence(ctx)
	kpiRecorder := metricsinmem.NewRecorder()

	worldProvider := buildWorldProvider(tun, bus)
	restoreWorld(ctx, worldProvider, store.snapshots, tun.LoopConfig().SnapshotKey)

	hub := ws.NewHub()
	attach(ctx, bus, "ws", hub.Publish)
	attach(ctx, bus, "events", store.events.Publish)
	if store.index != nil {
		attach(ctx, bus, "index", store.index.Publish)
	}
	watchEnergy(ctx, bus, func(msg string) { log.Printf("[FARM] %s", msg) })
	var logWriter *eventlog.Writer
	if dir := strEnv("FARMBOT_EVENTLOG_DIR", ""); dir != "" {
		logWriter = eventlog.NewWriter(dir, "events").Skip(world.EventCartUpdate)
		attach(ctx, bus, "eventlog", logWriter.Publish)
	}

	geo := worldProvider.Geometry()
	loopCfg := tun.LoopConfig()
	loopCfg.Interval = time.Duration(intEnv("FARMBOT_INTERVAL_MS", int(loopCfg.Interval/time.Millisecond))) * time.Millisecond
	loopCfg.TickSeconds = floatEnv("FARMBOT_TICK_SECONDS", loopCfg.TickSeconds)
	loop := dispatch.NewLoop(dispatch.Deps{
		TxManager: worldProvider,
		World:     worldProvider,
		Simulator: worldProvider,
		Tools:     worldProvider,
		Events:    bus,
		Snapshots: store.snapshots,
		Cycles:    store.cycles,
		Metrics:   kpiRecorder,
		Scheduler: scheduler.New(tun.SchedulerConfig(), geo),
		Geometry:  geo,
	}, loopCfg)

	guard, err := auth.NewVerifyUseCase(os.Getenv("FARMBOT_OPERATOR_KEY"))
	if err != nil {
		log.Fatalf("operator key: %v", err)
	}
	if !guard.Enabled() {
		log.Printf("[CONFIG] FARMBOT_OPERATOR_KEY unset, manual control is open")
	}

	h := httpadapter.Handler{
		AuthUC:    guard,
		ObserveUC: observe.UseCase{World: worldProvider, Clock: tun.DayNight(), ActionEnergy: tun.Ledger().Energy},
		RouteUC:   observe.RouteUseCase{World: worldProvider, Planner: tun.RoutePlanner()},
		ActionUC: action.UseCase{
			TxManager:  worldProvider,
			ActionRepo: store.actions,
			World:      worldProvider,
			Tools:      worldProvider,
			Supplies:   worldProvider,
			Geometry:   geo,
			Now:        time.Now,
		},
		StatusUC: status.UseCase{Loop: loop, Resources: worldProvider, Projector: worldProvider},
		ReplayUC: replay.UseCase{Events: store.events},
		Cycles:   store.cycleReader,
		KPI:      kpiRecorder,
	}

	var wsServer *http.Server
	if addr := strEnv("FARMBOT_WS_ADDR", ":8081"); addr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.Handler())
		wsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("[WS] listening on %s/ws", addr)
			if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[WS] server stopped: %v", err)
			}
		}()
	}

	if boolEnv("FARMBOT_AUTO_FARM", true) {
		go func() { _ = loop.Run(ctx) }()
	}

	addr := strEnv("FARMBOT_HTTP_ADDR", ":8080")
	s := server.Default(server.WithHostPorts(addr), server.WithExitWaitTime(3*time.Second))
	h.RegisterRoutes(s)
	s.OnShutdown = append(s.OnShutdown, func(shutdownCtx context.Context) {
		cancel()
		if snap, err := worldProvider.GetSnapshot(shutdownCtx); err == nil {
			if err := store.snapshots.Save(shutdownCtx, loopCfg.SnapshotKey, snap); err != nil {
				log.Printf("[SHUTDOWN] final snapshot failed: %v", err)
			}
		}
		if wsServer != nil {
			_ = wsServer.Shutdown(shutdownCtx)
		}
		if logWriter != nil {
			_ = logWriter.Close()
		}
		store.close()
	})

	log.Printf("farmbot server listening on %s (grid %dx%d)", addr, geo.Size, geo.Size)
	s.Spin()
}

func mustLoadTuning() tuning.Tuning {
	path := strEnv("FARMBOT_TUNING", "configs/farm.yaml")
	tun, err := tuning.Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("load tuning: %v", err)
		}
		log.Printf("[CONFIG] %s not found, using defaults", path)
		tun = tuning.Default()
	}
	return tun
}

func buildWorldProvider(tun tuning.Tuning, bus *events.Bus) *worldruntime.Provider {
	cfg := worldruntime.DefaultConfig()
	cfg.Geometry = tun.Geometry()
	cfg.Ledger = tun.Ledger()
	cfg.Clock = tun.DayNight()
	cfg.Environment = tun.Environment()
	cfg.Motion = tun.CartConfig()
	cfg.Drift = boolEnv("FARMBOT_DRIFT", tun.Drift)
	if tun.Clock.LightStep > 0 {
		cfg.LightStep = tun.Clock.LightStep
	}
	if tun.Seed != 0 {
		cfg.Seed = tun.Seed
	}
	cfg.Seed = int64(intEnv("FARMBOT_SEED", int(cfg.Seed)))
	cfg.Sink = bus
	return worldruntime.NewProvider(cfg)
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func floatEnv(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func boolEnv(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func strEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return strings.TrimSpace(v)
}
