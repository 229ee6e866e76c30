package sim

import (
	"context"
	"sync"

	"npcforge/internal/domain/npc"
)

// Dispatched is one recorded hand-off to the execution layer.
type Dispatched struct {
	PlayerID int64
	Decision npc.Decision
}

// Executor stands in for the game-rule execution layer, which is a separate
// system. It records every dispatched decision and reports a fixed outcome,
// giving the decision pipeline a concrete boundary in tests and local runs.
type Executor struct {
	mu         sync.Mutex
	dispatched []Dispatched

	// Outcome defaults to "accepted". Err, when set, is returned for every
	// Execute call.
	Outcome string
	Err     error
}

func (e *Executor) Execute(_ context.Context, cfg npc.Config, decision npc.Decision) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return "", e.Err
	}
	e.dispatched = append(e.dispatched, Dispatched{PlayerID: cfg.PlayerID, Decision: decision})
	if e.Outcome == "" {
		return "accepted", nil
	}
	return e.Outcome, nil
}

func (e *Executor) Dispatched() []Dispatched {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Dispatched(nil), e.dispatched...)
}
