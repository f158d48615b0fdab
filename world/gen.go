package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenParams tunes terrain generation.
type GenParams struct {
	NoiseScale    float64 // lattice frequency; higher = smaller features
	WallThreshold float64 // noise above this becomes wall
	FoodThreshold float64 // food noise above this seeds a patch
	FoodAmount    float64 // food per seeded cell at the patch peak
	NestRadius    int     // radius of the carved nest disk
}

// Generate builds a grid from seeded simplex noise: walls where the
// terrain noise exceeds the wall threshold, food patches from a second
// noise channel, and a guaranteed-open nest disk at the grid center.
func Generate(w, h int, seed int64, p GenParams) *Grid {
	g := NewGrid(w, h)
	terrain := opensimplex.NewNormalized(seed)
	food := opensimplex.NewNormalized(seed + 1)

	scale := p.NoiseScale
	if scale <= 0 {
		scale = 0.1
	}

	cx, cy := w/2, h/2
	g.SetNest(cx, cy)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if terrain.Eval2(float64(x)*scale, float64(y)*scale) > p.WallThreshold {
				g.SetClass(x, y, ClassWall)
				continue
			}
			fv := food.Eval2(float64(x)*scale, float64(y)*scale)
			if fv > p.FoodThreshold && p.FoodThreshold < 1 {
				// Scale food by how far above the threshold the noise
				// sits, so patches peak in their interior.
				t := (fv - p.FoodThreshold) / (1 - p.FoodThreshold)
				g.AddFood(x, y, p.FoodAmount*t)
			}
		}
	}

	// Carve the nest last so it is always walkable and food-free.
	r := p.NestRadius
	if r < 1 {
		r = 1
	}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			x, y := cx+dx, cy+dy
			if !g.InBounds(x, y) {
				continue
			}
			g.SetClass(x, y, ClassNest)
			g.TakeFood(x, y, math.Inf(1))
		}
	}

	return g
}
