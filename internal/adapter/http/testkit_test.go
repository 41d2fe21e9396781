package httpadapter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"farmbot/internal/adapter/repo/memory"
	worldruntime "farmbot/internal/adapter/world/runtime"
	"farmbot/internal/app/action"
	"farmbot/internal/app/dispatch"
	"farmbot/internal/app/motion"
	"farmbot/internal/app/observe"
	"farmbot/internal/app/replay"
	"farmbot/internal/app/status"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/planner"
	"farmbot/internal/domain/world"

	"github.com/cloudwego/hertz/pkg/app"
)

type fixedStats struct {
	stats dispatch.Stats
}

func (f fixedStats) Stats() dispatch.Stats { return f.stats }

type testEnv struct {
	world   *worldruntime.Provider
	store   *memory.Store
	handler Handler
}

func newTestEnv(t *testing.T, plants ...farm.CellView) testEnv {
	t.Helper()
	store := memory.NewStore()
	events := memory.NewEventRepo(store)

	cfg := worldruntime.DefaultConfig()
	cfg.Seed = 3
	cfg.Drift = false
	cfg.Motion = motion.Config{Frame: time.Microsecond}
	cfg.Sink = events
	w := worldruntime.NewProvider(cfg)
	if err := w.Restore(context.Background(), world.Snapshot{Plants: plants}); err != nil {
		t.Fatalf("restore: %v", err)
	}

	h := Handler{
		ObserveUC: observe.UseCase{World: w, Clock: world.DefaultClock()},
		RouteUC:   observe.RouteUseCase{World: w, Planner: planner.New(w.Geometry())},
		ActionUC: action.UseCase{
			TxManager:  w,
			ActionRepo: memory.NewActionExecutionRepo(store),
			World:      w,
			Tools:      w,
			Supplies:   w,
			Geometry:   w.Geometry(),
		},
		StatusUC: status.UseCase{Loop: fixedStats{dispatch.Stats{State: dispatch.StateIdle, Cycles: 4}}, Resources: w, Projector: w},
		ReplayUC: replay.UseCase{Events: events},
		Cycles:   memory.NewCycleRepo(store),
	}
	return testEnv{world: w, store: store, handler: h}
}

func newRequest(method, uri, body string) *app.RequestContext {
	ctx := &app.RequestContext{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
		ctx.Request.Header.SetContentTypeBytes([]byte("application/json"))
	}
	return ctx
}

func decodeBody(t *testing.T, ctx *app.RequestContext) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(ctx.Response.Body(), &out); err != nil {
		t.Fatalf("decode response %q: %v", string(ctx.Response.Body()), err)
	}
	return out
}

func errorCode(t *testing.T, ctx *app.RequestContext) string {
	t.Helper()
	body := decodeBody(t, ctx)
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func ripeWheat(row, col int) farm.CellView {
	return farm.CellView{
		Row: row, Col: col,
		Variant:     farm.VariantCrop,
		Kind:        farm.KindWheat,
		GrowthStage: 3,
		Health:      95,
		Moisture:    60,
		Soil:        farm.DefaultSoil(),
	}
}
