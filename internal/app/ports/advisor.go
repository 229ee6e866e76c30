package ports

import (
	"context"

	"npcforge/internal/domain/npc"
)

// DecisionAdvisor is the model-assisted decision source. Implementations
// degrade to the supplied fallback internally (circuit open, probe failure,
// malformed response); GetDecision never returns an error to the engine.
type DecisionAdvisor interface {
	GetDecision(ctx context.Context, cfg npc.Config, state npc.StateSummary, fallback npc.Decision) npc.Decision
}

// ActionExecutor hands the final decision to the game-rule execution layer,
// which lives outside this subsystem.
type ActionExecutor interface {
	Execute(ctx context.Context, cfg npc.Config, decision npc.Decision) (outcome string, err error)
}
