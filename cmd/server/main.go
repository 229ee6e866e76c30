package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	llmadvisor "npcforge/internal/adapter/advisor/llm"
	"npcforge/internal/adapter/executor/sim"
	httpadapter "npcforge/internal/adapter/http"
	metricsinmem "npcforge/internal/adapter/metrics/inmemory"
	staticpreset "npcforge/internal/adapter/preset/static"
	gormrepo "npcforge/internal/adapter/repo/gorm"
	"npcforge/internal/app/decision"
	"npcforge/internal/app/feature"
	"npcforge/internal/app/placement"
	"npcforge/internal/app/provision"
	"npcforge/internal/app/realm"
	"npcforge/internal/app/spawnplan"
	"npcforge/internal/config"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	controlDB, err := gormrepo.OpenPostgres(cfg.ControlPlaneDSN)
	if err != nil {
		logger.Error("open control-plane store", "err", err)
		os.Exit(1)
	}
	gameDB, err := gormrepo.OpenMySQL(cfg.GameWorldDSN)
	if err != nil {
		logger.Error("open game-world store", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := gormrepo.ApplyMigrations(ctx, controlDB, cfg.MigrationsDir); err != nil {
		logger.Error("apply migrations", "err", err)
		os.Exit(1)
	}

	playerRepo := gormrepo.NewPlayerRepo(controlDB)
	configRepo := gormrepo.NewNPCConfigRepo(controlDB)
	settingsRepo := gormrepo.NewPlayerSettingsRepo(controlDB)
	flagRepo := gormrepo.NewFeatureFlagRepo(controlDB)
	auditRepo := gormrepo.NewAuditLogRepo(controlDB)
	decisionLogRepo := gormrepo.NewDecisionLogRepo(controlDB)
	batchRepo := gormrepo.NewSpawnBatchRepo(controlDB)
	presetRepo := gormrepo.NewSpawnPresetRepo(controlDB)
	recordRepo := gormrepo.NewSpawnRecordRepo(controlDB)
	worldRepo := gormrepo.NewWorldSettingsRepo(controlDB)
	pendingRepo := gormrepo.NewPendingCreationRepo(controlDB)
	txManager := gormrepo.NewTxManager(controlDB)
	controlStore := gormrepo.NewControlPlaneStore(controlDB)
	gameStore := gormrepo.NewGameWorldStore(gameDB)

	recorder := metricsinmem.NewRecorder()
	gate := feature.NewGate(flagRepo, settingsRepo, configRepo)

	advisor := llmadvisor.NewAdvisor(llmadvisor.Config{
		Endpoint:     cfg.Model.Endpoint,
		Backend:      cfg.Model.Backend,
		Model:        cfg.Model.Name,
		APIKey:       cfg.Model.APIKey,
		Timeout:      cfg.Model.Timeout,
		MaxAttempts:  cfg.Model.MaxAttempts,
		BackoffBase:  cfg.Model.BackoffBase,
		CacheSize:    cfg.Model.CacheSize,
		CacheTTL:     cfg.Model.CacheTTL,
		ProbeTTL:     cfg.Model.ProbeTTL,
		BreakerLimit: cfg.Model.BreakerLimit,
		BreakerReset: cfg.Model.BreakerReset,
	}, recorder, logger, newRNG())

	saga := provision.SagaUseCase{
		Pending:      pendingRepo,
		GameWorld:    gameStore,
		ControlPlane: controlStore,
		Metrics:      recorder,
		Logger:       logger,
		Now:          time.Now,
		NewID:        uuid.NewString,
	}
	planner := placement.Planner{
		Detector: placement.CollisionDetector{World: gameStore, Spawns: recordRepo},
		Rand:     newRNG(),
		Logger:   logger,
	}
	scheduler := spawnplan.SchedulerUseCase{
		Batches:  batchRepo,
		Settings: worldRepo,
		Planner:  planner,
		Saga:     saga,
		Logger:   logger,
		Now:      time.Now,
	}
	engine := decision.Engine{
		Players:     playerRepo,
		Configs:     configRepo,
		GameWorld:   gameStore,
		Advisor:     advisor,
		Executor:    &sim.Executor{},
		DecisionLog: decisionLogRepo,
		Gate:        gate,
		Metrics:     recorder,
		Logger:      logger,
		Rand:        newRNG(),
		Now:         time.Now,
	}
	recovery := provision.RecoveryUseCase{
		Pending:     pendingRepo,
		GameWorld:   gameStore,
		Metrics:     recorder,
		Logger:      logger,
		GracePeriod: cfg.RecoveryGrace,
		Now:         time.Now,
	}

	presets := staticpreset.Loader{Root: cfg.PresetDir}
	if n, err := presets.SeedAll(ctx, presetRepo); err != nil {
		logger.Error("seed presets", "err", err)
		os.Exit(1)
	} else if n > 0 {
		logger.Info("seeded spawn presets", "count", n)
	}

	go runLoop(ctx, cfg.SchedulerInterval, func() {
		report, err := scheduler.Execute(ctx, spawnplan.ExecuteRequest{WorldID: cfg.WorldID})
		if err != nil {
			logger.Debug("scheduler pass", "err", err)
			return
		}
		logger.Info("batch executed", "batch_id", report.BatchID, "status", report.Status, "spawned", report.Spawned)
	})
	go runLoop(ctx, cfg.DecisionInterval, func() {
		report, err := engine.RunCycle(ctx, decision.CycleRequest{WorldID: cfg.WorldID, Limit: cfg.DecisionLimit})
		if err != nil {
			logger.Error("decision cycle", "err", err)
			return
		}
		logger.Info("decision cycle done",
			"processed", report.Processed,
			"dispatched", report.Dispatched,
			"skipped", report.Skipped,
			"errors", len(report.Errors))
	})
	go runLoop(ctx, cfg.RecoveryInterval, func() {
		report, err := recovery.Sweep(ctx)
		if err != nil {
			logger.Error("recovery sweep", "err", err)
			return
		}
		if report.Scanned > 0 {
			logger.Info("recovery sweep done", "scanned", report.Scanned, "repaired", report.Repaired)
		}
	})

	h := httpadapter.Handler{
		AdminKey: cfg.AdminKey,
		WorldUC: realm.CreateUseCase{
			TxManager: txManager,
			Settings:  worldRepo,
			Flags:     flagRepo,
			Presets:   presetRepo,
			Now:       time.Now,
		},
		PlanUC: spawnplan.PlanUseCase{
			Presets:  presetRepo,
			Batches:  batchRepo,
			Settings: worldRepo,
			Rand:     newRNG(),
			Now:      time.Now,
		},
		SchedulerUC: scheduler,
		EngineUC:    engine,
		ToggleUC: feature.ToggleUseCase{
			TxManager: txManager,
			Flags:     flagRepo,
			Audit:     auditRepo,
			Gate:      gate,
			Now:       time.Now,
		},
		Gate:       gate,
		RecoveryUC: recovery,
		KPI:        recorder,
	}

	s := server.Default(server.WithHostPorts(cfg.ListenAddr))
	h.RegisterRoutes(s)

	logger.Info("npcforge server listening", "addr", cfg.ListenAddr, "world", cfg.WorldID)
	s.Spin()
}

// newRNG builds one source per component. The loops run on separate
// goroutines and *rand.Rand is not safe for concurrent use, so a source is
// never shared across components.
func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(rand.Int63()))
}

// runLoop fires fn every interval until ctx is cancelled. Work is serialized
// per loop so a slow pass delays the next rather than overlapping it.
func runLoop(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
