package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"farmbot/internal/app/action"
	"farmbot/internal/app/auth"
	"farmbot/internal/app/observe"
	"farmbot/internal/app/ports"
	"farmbot/internal/app/replay"
	"farmbot/internal/app/status"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/ledger"
	"farmbot/internal/domain/planner"
	"farmbot/internal/domain/world"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const idempotencyKeyHeader = "Idempotency-Key"
const operatorKeyHeader = "X-Operator-Key"

const defaultCycleLimit = 50

type Handler struct {
	AuthUC    auth.VerifyUseCase
	ObserveUC observe.UseCase
	RouteUC   observe.RouteUseCase
	ActionUC  action.UseCase
	StatusUC  status.UseCase
	ReplayUC  replay.UseCase
	Cycles    ports.CycleReader
	KPI       kpiSnapshotProvider
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	farmAPI := s.Group("/api/farm")
	farmAPI.GET("/snapshot", h.snapshot)
	farmAPI.GET("/route", h.route)
	farmAPI.POST("/action", h.requireOperator, h.action)
	farmAPI.POST("/move", h.requireOperator, h.move)
	farmAPI.POST("/tools/upgrade", h.requireOperator, h.upgradeTool)
	farmAPI.POST("/supplies", h.requireOperator, h.resupply)
	farmAPI.GET("/stats", h.stats)
	farmAPI.GET("/resources", h.resources)
	farmAPI.GET("/events", h.events)
	farmAPI.GET("/cycles", h.cycles)

	s.GET("/ops/kpi", h.kpi)
}

type actionRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Kind           string `json:"kind"`
	Row            int    `json:"row"`
	Col            int    `json:"col"`
	Crop           string `json:"crop,omitempty"`
}

type moveRequest struct {
	X      float64 `json:"x"`
	Z      float64 `json:"z"`
	Speed  float64 `json:"speed,omitempty"`
	Smooth *bool   `json:"smooth,omitempty"`
}

type upgradeRequest struct {
	Tool string `json:"tool"`
}

type resupplyRequest struct {
	Energy float64        `json:"energy"`
	Seeds  map[string]int `json:"seeds"`
}

type resourcesResponse struct {
	Resources  ledger.State       `json:"resources"`
	Health     ledger.Status      `json:"health"`
	History    []ledger.Entry     `json:"history"`
	Projection *ledger.Projection `json:"projection,omitempty"`
}

type cyclesResponse struct {
	Cycles []ports.CycleRecord `json:"cycles"`
}

func (h Handler) snapshot(c context.Context, ctx *app.RequestContext) {
	resp, err := h.ObserveUC.Execute(c, observe.Request{
		IncludeEmpty: queryBool(ctx, "include_empty"),
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) route(c context.Context, ctx *app.RequestContext) {
	if h.RouteUC.World == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "route planner not configured")
		return
	}
	resp, err := h.RouteUC.Execute(c, observe.RouteRequest{
		Mode:            observe.RouteMode(strings.TrimSpace(string(ctx.Query("mode")))),
		Variant:         farm.Variant(strings.TrimSpace(string(ctx.Query("variant")))),
		HarvestableOnly: queryBool(ctx, "harvestable"),
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) action(c context.Context, ctx *app.RequestContext) {
	var body actionRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	key := body.IdempotencyKey
	if header := strings.TrimSpace(string(ctx.GetHeader(idempotencyKeyHeader))); header != "" {
		key = header
	}

	resp, err := h.ActionUC.Execute(c, action.Request{
		IdempotencyKey: key,
		Kind:           farm.ActionKind(body.Kind),
		Row:            body.Row,
		Col:            body.Col,
		Crop:           farm.CropKind(body.Crop),
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) move(c context.Context, ctx *app.RequestContext) {
	var body moveRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	smooth := true
	if body.Smooth != nil {
		smooth = *body.Smooth
	}
	resp, err := h.ActionUC.Move(c, action.MoveRequest{X: body.X, Z: body.Z, Speed: body.Speed, Smooth: smooth})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusAccepted, resp)
}

func (h Handler) upgradeTool(c context.Context, ctx *app.RequestContext) {
	var body upgradeRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.ActionUC.UpgradeTool(c, action.UpgradeRequest{Tool: ledger.ToolName(body.Tool)})
	if err != nil {
		writeError(ctx, err)
		return
	}
	if !resp.Upgraded {
		writeErrorBody(ctx, consts.StatusConflict, "upgrade_unavailable", "tool at max level or not enough coins")
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) resupply(c context.Context, ctx *app.RequestContext) {
	var body resupplyRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	seeds := make(map[farm.CropKind]int, len(body.Seeds))
	for k, n := range body.Seeds {
		seeds[farm.CropKind(strings.TrimSpace(k))] = n
	}
	resp, err := h.ActionUC.Resupply(c, action.ResupplyRequest{Energy: body.Energy, Seeds: seeds})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) stats(c context.Context, ctx *app.RequestContext) {
	resp, err := h.StatusUC.Execute(c, status.Request{})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp.Dispatch)
}

func (h Handler) resources(c context.Context, ctx *app.RequestContext) {
	limit, err := queryInt(ctx, "history")
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "history must be an integer")
		return
	}
	var project []farm.ActionKind
	for _, k := range queryList(ctx, "project") {
		project = append(project, farm.ActionKind(k))
	}
	resp, err := h.StatusUC.Execute(c, status.Request{HistoryLimit: limit, Project: project})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resourcesResponse{
		Resources:  resp.Resources,
		Health:     resp.Health,
		History:    resp.History,
		Projection: resp.Projection,
	})
}

func (h Handler) events(c context.Context, ctx *app.RequestContext) {
	limit, err := queryInt(ctx, "limit")
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "limit must be an integer")
		return
	}
	occurredFrom, _ := strconv.ParseInt(string(ctx.Query("occurred_from")), 10, 64)
	occurredTo, _ := strconv.ParseInt(string(ctx.Query("occurred_to")), 10, 64)
	var types []world.EventType
	for _, t := range queryList(ctx, "types") {
		types = append(types, world.EventType(t))
	}
	resp, err := h.ReplayUC.Execute(c, replay.Request{
		Limit:        limit,
		OccurredFrom: occurredFrom,
		OccurredTo:   occurredTo,
		Types:        types,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) cycles(c context.Context, ctx *app.RequestContext) {
	if h.Cycles == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "cycle index not configured")
		return
	}
	limit, err := queryInt(ctx, "limit")
	if err != nil || limit < 0 {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
		return
	}
	if limit == 0 {
		limit = defaultCycleLimit
	}
	recs, err := h.Cycles.RecentCycles(c, limit)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		writeError(ctx, err)
		return
	}
	if recs == nil {
		recs = []ports.CycleRecord{}
	}
	ctx.JSON(consts.StatusOK, cyclesResponse{Cycles: recs})
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

// requireOperator rejects manual control without the operator key when one
// is configured.
func (h Handler) requireOperator(c context.Context, ctx *app.RequestContext) {
	key := string(ctx.GetHeader(operatorKeyHeader))
	if err := h.AuthUC.Execute(c, auth.VerifyRequest{OperatorKey: key}); err != nil {
		writeError(ctx, err)
		ctx.Abort()
		return
	}
	ctx.Next(c)
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func queryInt(ctx *app.RequestContext, key string) (int, error) {
	raw := strings.TrimSpace(string(ctx.Query(key)))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// queryList splits a comma separated query value, dropping blanks.
func queryList(ctx *app.RequestContext, key string) []string {
	var out []string
	for _, v := range strings.Split(string(ctx.Query(key)), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func queryBool(ctx *app.RequestContext, key string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(string(ctx.Query(key))))
	return v
}

func writeError(ctx *app.RequestContext, err error) {
	var insufficient *ledger.InsufficientError
	switch {
	case errors.Is(err, auth.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "missing_operator_key", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeErrorBody(ctx, consts.StatusUnauthorized, "invalid_operator_key", err.Error())
	case errors.Is(err, action.ErrInvalidActionParams):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_action_params", err.Error())
	case errors.Is(err, action.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest),
		errors.Is(err, status.ErrInvalidRequest),
		errors.Is(err, observe.ErrInvalidRequest),
		errors.Is(err, ports.ErrInvalidArgument):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.As(err, &insufficient):
		writeErrorBody(ctx, consts.StatusConflict, "insufficient_resource", err.Error())
	case errors.Is(err, farm.ErrNotReady):
		writeErrorBody(ctx, consts.StatusConflict, "not_ready", err.Error())
	case errors.Is(err, planner.ErrUnreachable):
		writeErrorBody(ctx, consts.StatusConflict, "unreachable", err.Error())
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, farm.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ports.ErrTransient):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "transient", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
