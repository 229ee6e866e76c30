package placement

import (
	"context"

	"npcforge/internal/app/ports"
	"npcforge/internal/domain/grid"
)

// CollisionDetector answers whether a coordinate is free to spawn on. Checks
// are snapshot-based: concurrent planners may still race on the same cell,
// and the saga's settlement write re-validates occupancy for that reason.
type CollisionDetector struct {
	World  ports.GameWorldStore
	Spawns ports.SpawnRecordRepository
}

// OccupancySnapshot is one world's occupancy state at snapshot time plus any
// coordinates reserved since. Not safe for concurrent use.
type OccupancySnapshot struct {
	occupied    map[grid.Coord]struct{}
	spawns      []grid.Coord
	minDistance int
}

func (d CollisionDetector) Snapshot(ctx context.Context, worldID string, minDistance int) (*OccupancySnapshot, error) {
	cells, err := d.World.OccupiedCells(ctx, worldID)
	if err != nil {
		return nil, err
	}
	spawnCells, err := d.Spawns.ListLocations(ctx, worldID)
	if err != nil {
		return nil, err
	}

	snap := &OccupancySnapshot{
		occupied:    make(map[grid.Coord]struct{}, len(cells)+len(spawnCells)),
		spawns:      spawnCells,
		minDistance: minDistance,
	}
	for _, c := range cells {
		snap.occupied[c] = struct{}{}
	}
	for _, c := range spawnCells {
		snap.occupied[c] = struct{}{}
	}
	return snap, nil
}

// IsLocationValid reports whether the cell is unoccupied, untargeted by any
// spawn record, and at least minDistance (Chebyshev) from every other spawn.
func (s *OccupancySnapshot) IsLocationValid(c grid.Coord) bool {
	if _, taken := s.occupied[c]; taken {
		return false
	}
	for _, other := range s.spawns {
		if grid.Chebyshev(c, other) < s.minDistance {
			return false
		}
	}
	return true
}

// Reserve marks a planned coordinate so later picks in the same plan respect
// it.
func (s *OccupancySnapshot) Reserve(c grid.Coord) {
	s.occupied[c] = struct{}{}
	s.spawns = append(s.spawns, c)
}
