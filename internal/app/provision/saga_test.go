package provision

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"npcforge/internal/adapter/repo/memory"
	"npcforge/internal/app/ports"
	"npcforge/internal/domain/grid"
	"npcforge/internal/domain/npc"
	"npcforge/internal/domain/spawn"
)

type sagaFixture struct {
	store   *memory.Store
	game    *memory.GameWorldStore
	plan    *memory.ControlPlaneStore
	pending memory.PendingCreationRepo
	saga    SagaUseCase
}

func newSagaFixture() *sagaFixture {
	store := memory.NewStore()
	f := &sagaFixture{
		store:   store,
		game:    memory.NewGameWorldStore(store),
		plan:    memory.NewControlPlaneStore(store),
		pending: memory.NewPendingCreationRepo(store),
	}
	ids := 0
	f.saga = SagaUseCase{
		Pending:      f.pending,
		GameWorld:    f.game,
		ControlPlane: f.plan,
		Now:          func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) },
		NewID: func() string {
			ids++
			return fmt.Sprintf("pending-%08d", ids)
		},
	}
	return f
}

func testCreateRequest() CreateRequest {
	return CreateRequest{
		WorldID: "w1",
		BatchID: 4,
		Plan: spawn.EntityPlan{
			Tribe:       npc.TribeTeutons,
			Difficulty:  npc.DifficultyHard,
			Personality: npc.PersonalityAggressive,
		},
		Location: grid.Coord{X: 20, Y: -13},
	}
}

func TestSagaCreateHappyPath(t *testing.T) {
	f := newSagaFixture()

	result, err := f.saga.Create(context.Background(), testCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.PlayerID == 0 || result.GameAccountID == 0 || result.SettlementID == 0 {
		t.Fatalf("missing ids in result: %+v", result)
	}

	records := f.store.PendingRecords()
	if len(records) != 1 {
		t.Fatalf("expected 1 pending record, got %d", len(records))
	}
	if records[0].Status != ports.PendingCompleted {
		t.Fatalf("expected completed record, got %s", records[0].Status)
	}
	if records[0].GameAccountID != result.GameAccountID || records[0].PlayerID != result.PlayerID {
		t.Fatalf("pending record must carry the row ids: %+v", records[0])
	}

	accounts := f.store.Accounts()
	if len(accounts) != 1 || !accounts[0].IsNPC || accounts[0].Tribe != npc.TribeTeutons {
		t.Fatalf("unexpected game account: %+v", accounts)
	}
	players := f.store.Players()
	if len(players) != 1 || players[0].Type != ports.PlayerNPC || players[0].GamePlayerID != result.GameAccountID {
		t.Fatalf("unexpected player row: %+v", players)
	}
}

func TestSagaGameWorldCommitFailureLeavesNothing(t *testing.T) {
	f := newSagaFixture()
	f.game.FailCommit = true

	_, err := f.saga.Create(context.Background(), testCreateRequest())
	if !errors.Is(err, ports.ErrSagaFailed) {
		t.Fatalf("expected saga failure, got %v", err)
	}

	if n := len(f.store.Accounts()); n != 0 {
		t.Fatalf("no game rows may exist after a failed game-world commit, got %d", n)
	}
	if n := len(f.store.Players()); n != 0 {
		t.Fatalf("no control-plane rows may exist, got %d", n)
	}

	// The commit may have landed before the crash, so the checkpoint stage
	// must survive for the recovery sweep instead of flipping to failed.
	records := f.store.PendingRecords()
	if len(records) != 1 || records[0].Status != ports.PendingMySQLCommitting {
		t.Fatalf("expected mysql_committing record, got %+v", records)
	}
	if records[0].Error == "" {
		t.Fatalf("failed record must carry the error text")
	}
}

func TestSagaControlPlaneFailureKeepsGameRowsForSweep(t *testing.T) {
	f := newSagaFixture()
	f.plan.FailCommit = true

	_, err := f.saga.Create(context.Background(), testCreateRequest())
	if !errors.Is(err, ports.ErrSagaFailed) {
		t.Fatalf("expected saga failure, got %v", err)
	}

	// No automatic compensation: the game-world rows stay and the record
	// points the sweep at them.
	if n := len(f.store.Accounts()); n != 1 {
		t.Fatalf("committed game rows must survive, got %d accounts", n)
	}
	if n := len(f.store.Players()); n != 0 {
		t.Fatalf("control-plane rows must not exist, got %d", n)
	}

	records := f.store.PendingRecords()
	if len(records) != 1 || records[0].Status != ports.PendingPGCommitting {
		t.Fatalf("expected postgres_committing record, got %+v", records)
	}
	if records[0].GameAccountID == 0 {
		t.Fatalf("record must carry the orphaned account id")
	}
}

func TestSagaPlayerInsertFailureRollsBackControlPlaneOnly(t *testing.T) {
	f := newSagaFixture()
	f.plan.FailCreatePlayer = true

	_, err := f.saga.Create(context.Background(), testCreateRequest())
	if !errors.Is(err, ports.ErrSagaFailed) {
		t.Fatalf("expected saga failure, got %v", err)
	}

	if n := len(f.store.Accounts()); n != 1 {
		t.Fatalf("game-world commit already landed, got %d accounts", n)
	}
	records := f.store.PendingRecords()
	if len(records) != 1 || records[0].Status != ports.PendingMySQLCommitted {
		t.Fatalf("expected mysql_committed record, got %+v", records)
	}
}

func TestSagaOccupiedCellFails(t *testing.T) {
	f := newSagaFixture()
	req := testCreateRequest()
	f.store.SeedSettlement(ports.Settlement{WorldID: req.WorldID, Location: req.Location})

	_, err := f.saga.Create(context.Background(), req)
	if !errors.Is(err, ports.ErrSagaFailed) || !errors.Is(err, ports.ErrLocationUnavailable) {
		t.Fatalf("expected saga failure over an unavailable location, got %v", err)
	}

	// Nothing durable happened, so the record closes as failed.
	records := f.store.PendingRecords()
	if len(records) != 1 || records[0].Status != ports.PendingFailed {
		t.Fatalf("expected failed record, got %+v", records)
	}
}

func TestSagaFailureErrorUnwraps(t *testing.T) {
	cause := errors.New("db down")
	err := &SagaFailureError{PendingID: "p1", Stage: ports.PendingStarted, Cause: cause}
	if !errors.Is(err, ports.ErrSagaFailed) {
		t.Fatalf("must unwrap to ErrSagaFailed")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("must unwrap to the cause")
	}
}

func TestStartingStockScalesWithTier(t *testing.T) {
	cases := []struct {
		tier npc.DifficultyTier
		want int64
	}{
		{npc.DifficultyEasy, 562},
		{npc.DifficultyMedium, 750},
		{npc.DifficultyHard, 1125},
		{npc.DifficultyExpert, 1500},
		{npc.DifficultyTier("other"), 750},
	}
	for _, tc := range cases {
		stock := startingStock(tc.tier)
		if stock.Wood != tc.want || stock.Crop != tc.want {
			t.Fatalf("%s: got %+v want %d", tc.tier, stock, tc.want)
		}
	}
}

var _ ports.GameWorldStore = (*memory.GameWorldStore)(nil)
var _ ports.ControlPlaneStore = (*memory.ControlPlaneStore)(nil)
