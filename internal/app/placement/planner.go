package placement

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"

	"npcforge/internal/domain/grid"
)

const (
	AlgorithmQuadrantBalanced  = "quadrant_balanced"
	AlgorithmRandomScatter     = "random_scatter"
	AlgorithmKingdomClustering = "kingdom_clustering"

	// attemptsPerCoord bounds rejection sampling per outstanding coordinate.
	attemptsPerCoord = 75

	kingdomMemberCap    = 15
	kingdomMemberRadius = 5
)

var ErrUnknownAlgorithm = errors.New("unknown placement algorithm")

type Request struct {
	WorldID     string
	Count       int
	Algorithm   string
	Bounds      grid.Bounds
	MinDistance int
}

// Planner turns a placement request into concrete coordinates. Best effort:
// when the attempt budget runs out it returns fewer coordinates than
// requested and callers must handle the shortfall.
type Planner struct {
	Detector CollisionDetector
	Rand     *rand.Rand
	Logger   *slog.Logger
}

func (p Planner) Plan(ctx context.Context, req Request) ([]grid.Coord, error) {
	if req.Count <= 0 {
		return nil, nil
	}
	snap, err := p.Detector.Snapshot(ctx, req.WorldID, req.MinDistance)
	if err != nil {
		return nil, err
	}

	var coords []grid.Coord
	switch req.Algorithm {
	case AlgorithmQuadrantBalanced:
		coords = p.planQuadrantBalanced(snap, req)
	case AlgorithmRandomScatter, "":
		coords = p.planRandomScatter(snap, req)
	case AlgorithmKingdomClustering:
		coords = p.planKingdomClustering(snap, req)
	default:
		return nil, ErrUnknownAlgorithm
	}

	if len(coords) < req.Count && p.Logger != nil {
		p.Logger.Warn("placement shortfall",
			"world_id", req.WorldID,
			"algorithm", req.Algorithm,
			"requested", req.Count,
			"planned", len(coords))
	}
	return coords, nil
}

func (p Planner) planRandomScatter(snap *OccupancySnapshot, req Request) []grid.Coord {
	return p.sample(snap, req.Count, req.Bounds, func(c grid.Coord) bool { return true })
}

func (p Planner) planQuadrantBalanced(snap *OccupancySnapshot, req Request) []grid.Coord {
	perQuadrant := req.Count / len(grid.Quadrants)
	remainder := req.Count % len(grid.Quadrants)

	coords := make([]grid.Coord, 0, req.Count)
	for i, q := range grid.Quadrants {
		want := perQuadrant
		if i < remainder {
			want++
		}
		quadrant := q
		coords = append(coords, p.sample(snap, want, req.Bounds, func(c grid.Coord) bool {
			return grid.QuadrantOf(c) == quadrant
		})...)
	}
	return coords
}

func (p Planner) planKingdomClustering(snap *OccupancySnapshot, req Request) []grid.Coord {
	kingdoms := (req.Count + kingdomMemberCap - 1) / kingdomMemberCap
	minCenterDist := 2*kingdomMemberRadius + req.MinDistance

	centers := make([]grid.Coord, 0, kingdoms)
	budget := kingdoms * attemptsPerCoord
	for len(centers) < kingdoms && budget > 0 {
		budget--
		c := p.randomCoord(req.Bounds)
		if !req.Bounds.InAnnulus(c) || !snap.IsLocationValid(c) {
			continue
		}
		separated := true
		for _, existing := range centers {
			if grid.Chebyshev(c, existing) < minCenterDist {
				separated = false
				break
			}
		}
		if separated {
			centers = append(centers, c)
		}
	}

	coords := make([]grid.Coord, 0, req.Count)
	outstanding := req.Count
	for _, center := range centers {
		want := kingdomMemberCap
		if want > outstanding {
			want = outstanding
		}
		members := p.sample(snap, want, req.Bounds, func(c grid.Coord) bool {
			return grid.Chebyshev(c, center) <= kingdomMemberRadius
		})
		coords = append(coords, members...)
		outstanding -= len(members)
		if outstanding <= 0 {
			break
		}
	}
	return coords
}

// sample rejection-samples the annulus until want coordinates pass the
// filter and the collision checks, or the attempt budget is spent.
func (p Planner) sample(snap *OccupancySnapshot, want int, bounds grid.Bounds, accept func(grid.Coord) bool) []grid.Coord {
	coords := make([]grid.Coord, 0, want)
	budget := want * attemptsPerCoord
	for len(coords) < want && budget > 0 {
		budget--
		c := p.randomCoord(bounds)
		if !bounds.InAnnulus(c) || !accept(c) || !snap.IsLocationValid(c) {
			continue
		}
		snap.Reserve(c)
		coords = append(coords, c)
	}
	return coords
}

func (p Planner) randomCoord(bounds grid.Bounds) grid.Coord {
	span := 2*bounds.MaxRadius + 1
	return grid.Coord{
		X: p.Rand.Intn(span) - bounds.MaxRadius,
		Y: p.Rand.Intn(span) - bounds.MaxRadius,
	}
}
