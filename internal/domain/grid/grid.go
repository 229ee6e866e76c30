package grid

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Bounds struct {
	MaxRadius       int `json:"max_radius"`
	ExclusionRadius int `json:"exclusion_radius"`
}

type Quadrant int

const (
	QuadrantNE Quadrant = iota
	QuadrantNW
	QuadrantSW
	QuadrantSE
)

var Quadrants = []Quadrant{QuadrantNE, QuadrantNW, QuadrantSW, QuadrantSE}

// Chebyshev returns the chessboard distance between two coordinates.
func Chebyshev(a, b Coord) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// QuadrantOf maps a coordinate to its map quadrant relative to the origin.
// Cells on an axis are folded into the adjacent quadrant so every cell
// belongs to exactly one.
func QuadrantOf(c Coord) Quadrant {
	switch {
	case c.X >= 0 && c.Y >= 0:
		return QuadrantNE
	case c.X < 0 && c.Y >= 0:
		return QuadrantNW
	case c.X < 0 && c.Y < 0:
		return QuadrantSW
	default:
		return QuadrantSE
	}
}

// InAnnulus reports whether c lies outside the exclusion radius and inside
// the max radius, measured in Chebyshev distance from the origin.
func (b Bounds) InAnnulus(c Coord) bool {
	d := Chebyshev(c, Coord{})
	return d > b.ExclusionRadius && d <= b.MaxRadius
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
