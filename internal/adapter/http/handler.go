package httpadapter

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"npcforge/internal/app/decision"
	"npcforge/internal/app/feature"
	"npcforge/internal/app/placement"
	"npcforge/internal/app/ports"
	"npcforge/internal/app/provision"
	"npcforge/internal/app/realm"
	"npcforge/internal/app/spawnplan"
	"npcforge/internal/domain/spawn"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const adminIDHeader = "X-Admin-ID"
const adminKeyHeader = "X-Admin-Key"

// Handler exposes the operator surface. Every route sits behind the shared
// admin key; the subsystem has no player-facing endpoints.
type Handler struct {
	AdminKey string

	WorldUC     realm.CreateUseCase
	PlanUC      spawnplan.PlanUseCase
	SchedulerUC spawnplan.SchedulerUseCase
	EngineUC    decision.Engine
	ToggleUC    feature.ToggleUseCase
	Gate        *feature.Gate
	RecoveryUC  provision.RecoveryUseCase
	KPI         kpiSnapshotProvider
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	ops := s.Group("/ops", corsMiddleware())
	ops.POST("/world", h.createWorld)
	ops.POST("/spawn/preview", h.previewSpawn)
	ops.POST("/spawn/apply", h.applySpawn)
	ops.POST("/batch/execute", h.executeBatch)
	ops.POST("/decision-cycle", h.runDecisionCycle)
	ops.POST("/feature/toggle", h.toggleFeature)
	ops.GET("/feature/enabled", h.featureEnabled)
	ops.POST("/recovery/sweep", h.recoverySweep)
	ops.GET("/kpi", h.kpi)
}

func (h Handler) createWorld(c context.Context, ctx *app.RequestContext) {
	if _, err := h.requireAdmin(ctx); err != nil {
		writeError(ctx, err)
		return
	}
	var body realm.CreateRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	settings, err := h.WorldUC.Execute(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, settings)
}

type spawnPlanRequest struct {
	WorldID   string                    `json:"world_id"`
	PresetKey string                    `json:"preset_key"`
	Overrides spawnplan.PresetOverrides `json:"overrides"`
}

func (h Handler) previewSpawn(c context.Context, ctx *app.RequestContext) {
	if _, err := h.requireAdmin(ctx); err != nil {
		writeError(ctx, err)
		return
	}
	var body spawnPlanRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	batches, err := h.PlanUC.Preview(c, spawnplan.PlanRequest{
		WorldID:   body.WorldID,
		PresetKey: body.PresetKey,
		Overrides: body.Overrides,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"batches": batches})
}

func (h Handler) applySpawn(c context.Context, ctx *app.RequestContext) {
	if _, err := h.requireAdmin(ctx); err != nil {
		writeError(ctx, err)
		return
	}
	var body spawnPlanRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	ids, err := h.PlanUC.Apply(c, spawnplan.PlanRequest{
		WorldID:   body.WorldID,
		PresetKey: body.PresetKey,
		Overrides: body.Overrides,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, map[string]any{"batch_ids": ids})
}

type executeBatchRequest struct {
	WorldID string `json:"world_id"`
	BatchID int64  `json:"batch_id"`
}

func (h Handler) executeBatch(c context.Context, ctx *app.RequestContext) {
	if _, err := h.requireAdmin(ctx); err != nil {
		writeError(ctx, err)
		return
	}
	var body executeBatchRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	report, err := h.SchedulerUC.Execute(c, spawnplan.ExecuteRequest{
		WorldID: body.WorldID,
		BatchID: body.BatchID,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, report)
}

type decisionCycleRequest struct {
	WorldID   string  `json:"world_id"`
	PlayerIDs []int64 `json:"player_ids,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

func (h Handler) runDecisionCycle(c context.Context, ctx *app.RequestContext) {
	if _, err := h.requireAdmin(ctx); err != nil {
		writeError(ctx, err)
		return
	}
	var body decisionCycleRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	report, err := h.EngineUC.RunCycle(c, decision.CycleRequest{
		WorldID:   body.WorldID,
		PlayerIDs: body.PlayerIDs,
		Limit:     body.Limit,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, report)
}

type toggleRequest struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}

func (h Handler) toggleFeature(c context.Context, ctx *app.RequestContext) {
	adminID, err := h.requireAdmin(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body toggleRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if err := h.ToggleUC.Execute(c, feature.ToggleRequest{
		Key:     body.Key,
		Enabled: body.Enabled,
		AdminID: adminID,
	}); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"key": body.Key, "enabled": body.Enabled})
}

func (h Handler) featureEnabled(c context.Context, ctx *app.RequestContext) {
	if _, err := h.requireAdmin(ctx); err != nil {
		writeError(ctx, err)
		return
	}
	key := string(ctx.Query("key"))
	if key == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "key query parameter required")
		return
	}
	actorID, _ := strconv.ParseInt(string(ctx.Query("actor_id")), 10, 64)
	actorType := ports.PlayerType(ctx.Query("actor_type"))
	if actorType == "" {
		actorType = ports.PlayerNPC
	}
	enabled, err := h.Gate.IsEnabled(c, key, actorID, actorType)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"key": key, "enabled": enabled})
}

func (h Handler) recoverySweep(c context.Context, ctx *app.RequestContext) {
	if _, err := h.requireAdmin(ctx); err != nil {
		writeError(ctx, err)
		return
	}
	report, err := h.RecoveryUC.Sweep(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, report)
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

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

var ErrMissingAdminKey = errors.New("missing admin key header")
var ErrInvalidAdminKey = errors.New("invalid admin key")

func (h Handler) requireAdmin(ctx *app.RequestContext) (string, error) {
	adminID := strings.TrimSpace(string(ctx.GetHeader(adminIDHeader)))
	adminKey := strings.TrimSpace(string(ctx.GetHeader(adminKeyHeader)))
	if h.AdminKey == "" {
		// Key unset means local development; any caller is accepted.
		return adminID, nil
	}
	if adminKey == "" {
		return "", ErrMissingAdminKey
	}
	if subtle.ConstantTimeCompare([]byte(adminKey), []byte(h.AdminKey)) != 1 {
		return "", ErrInvalidAdminKey
	}
	return adminID, nil
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ErrMissingAdminKey):
		writeErrorBody(ctx, consts.StatusUnauthorized, "missing_admin_key", err.Error())
	case errors.Is(err, ErrInvalidAdminKey):
		writeErrorBody(ctx, consts.StatusUnauthorized, "invalid_admin_key", err.Error())
	case errors.Is(err, ports.ErrLockedFlag):
		writeErrorBody(ctx, consts.StatusLocked, "flag_locked", err.Error())
	case errors.Is(err, ports.ErrConfigNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "config_not_found", err.Error())
	case errors.Is(err, realm.ErrInvalidRequest),
		errors.Is(err, spawn.ErrInvalidPreset),
		errors.Is(err, placement.ErrUnknownAlgorithm):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrSagaFailed):
		writeErrorBody(ctx, consts.StatusInternalServerError, "saga_failed", err.Error())
	case errors.Is(err, ports.ErrLocationUnavailable):
		writeErrorBody(ctx, consts.StatusConflict, "location_unavailable", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
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
