package grid

import "testing"

func TestChebyshev(t *testing.T) {
	cases := []struct {
		a, b Coord
		want int
	}{
		{Coord{0, 0}, Coord{0, 0}, 0},
		{Coord{0, 0}, Coord{3, 1}, 3},
		{Coord{0, 0}, Coord{-2, -5}, 5},
		{Coord{10, -4}, Coord{7, 2}, 6},
	}
	for _, tc := range cases {
		if got := Chebyshev(tc.a, tc.b); got != tc.want {
			t.Fatalf("Chebyshev(%v,%v)=%d want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestQuadrantOf(t *testing.T) {
	cases := []struct {
		c    Coord
		want Quadrant
	}{
		{Coord{5, 5}, QuadrantNE},
		{Coord{-5, 5}, QuadrantNW},
		{Coord{-5, -5}, QuadrantSW},
		{Coord{5, -5}, QuadrantSE},
		{Coord{0, 0}, QuadrantNE},
		{Coord{0, -1}, QuadrantSE},
		{Coord{-1, 0}, QuadrantNW},
	}
	for _, tc := range cases {
		if got := QuadrantOf(tc.c); got != tc.want {
			t.Fatalf("QuadrantOf(%v)=%d want %d", tc.c, got, tc.want)
		}
	}
}

func TestBoundsInAnnulus(t *testing.T) {
	b := Bounds{MaxRadius: 100, ExclusionRadius: 10}

	if b.InAnnulus(Coord{0, 0}) {
		t.Fatalf("origin should be excluded")
	}
	if b.InAnnulus(Coord{10, 3}) {
		t.Fatalf("cell at exclusion radius should be excluded")
	}
	if !b.InAnnulus(Coord{11, 0}) {
		t.Fatalf("cell just outside exclusion radius should be inside")
	}
	if !b.InAnnulus(Coord{100, -100}) {
		t.Fatalf("cell at max radius should be inside")
	}
	if b.InAnnulus(Coord{101, 0}) {
		t.Fatalf("cell beyond max radius should be outside")
	}
}
