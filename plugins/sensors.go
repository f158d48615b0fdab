package plugins

import (
	"fmt"
	"math"

	"github.com/pthm-cable/formic/blackboard"
	"github.com/pthm-cable/formic/world"
)

// BuiltinConfig tunes the builtin plugin set. Values arrive
// range-checked from the configuration layer.
type BuiltinConfig struct {
	ScanRadius       int      // spatial query radius for food/neighbor sensors
	GradientTypes    []string // pheromone types that get a gradient sensor
	DetourThreshold  int      // blocked direct attempts before detouring
	NoiseFloor       float64  // breadcrumb intensity below this reads as absent
	CenterBias       float64  // emergency center-bias weight, 0..1
	BreadcrumbAmount float64  // breadcrumb laid per return step
	CollectAmount    float64  // default food picked up per collect step
	FeedAmount       float64  // default trophallaxis transfer
}

// BreadcrumbType names an agent's private breadcrumb pheromone type.
func BreadcrumbType(id uint32) string {
	return fmt.Sprintf("breadcrumb.%d", id)
}

// RegisterBuiltins installs the builtin sensor, trigger, and step set.
func RegisterBuiltins(r *Registry, cfg BuiltinConfig) error {
	sensors := map[string]SensorFunc{
		"core.state":     senseState,
		"food.scan":      foodScan(cfg),
		"nav.return":     navReturn(cfg),
		"neighbors.scan": neighborScan(cfg),
	}
	for _, typ := range cfg.GradientTypes {
		sensors["gradient."+typ] = gradientScan(typ, cfg)
	}
	for name, f := range sensors {
		if err := r.RegisterSensor(name, f); err != nil {
			return err
		}
	}
	if err := registerTriggers(r); err != nil {
		return err
	}
	return registerSteps(r, cfg)
}

// senseState publishes the agent's own physiology and location so
// triggers can stay pure blackboard predicates.
func senseState(a *Agent, v View) map[string]blackboard.Value {
	g := v.Grid()
	frac := 0.0
	if a.MaxEnergy > 0 {
		frac = a.Energy / a.MaxEnergy
	}
	return map[string]blackboard.Value{
		"sense.pos":         blackboard.Vec(a.X, a.Y),
		"sense.role":        blackboard.Str(a.Role),
		"sense.energy":      blackboard.Num(a.Energy),
		"sense.energy_frac": blackboard.Num(frac),
		"sense.hungry":      blackboard.Flag(a.Hungry),
		"sense.in_nest":     blackboard.Flag(g.InNest(a.X, a.Y)),
		"sense.stomach":     blackboard.Num(a.Stomach),
		"sense.social":      blackboard.Num(a.Social),
		"sense.carrying":    blackboard.Flag(a.Social > 0),
		"sense.egg_ready":   blackboard.Flag(a.EggReady),
	}
}

// foodScan reports food on the current cell and the nearest food cell
// within the scan radius. Scan order is row-major, so ties resolve the
// same way every tick.
func foodScan(cfg BuiltinConfig) SensorFunc {
	return func(a *Agent, v View) map[string]blackboard.Value {
		g := v.Grid()
		out := map[string]blackboard.Value{
			"sense.food.here":        blackboard.Flag(g.Food(a.X, a.Y) > 0),
			"sense.food.amount_here": blackboard.Num(g.Food(a.X, a.Y)),
		}

		bestDist := math.MaxInt
		bx, by := 0, 0
		r := cfg.ScanRadius
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx*dx+dy*dy > r*r {
					continue
				}
				x, y := a.X+dx, a.Y+dy
				if g.Food(x, y) <= 0 {
					continue
				}
				d := dx*dx + dy*dy
				if d < bestDist {
					bestDist, bx, by = d, x, y
				}
			}
		}
		if bestDist == math.MaxInt {
			out["sense.food.visible"] = blackboard.Flag(false)
			return out
		}
		sx, sy := world.StepToward(a.X, a.Y, bx, by)
		out["sense.food.visible"] = blackboard.Flag(true)
		out["sense.food.direction"] = blackboard.Vec(sx, sy)
		out["sense.food.distance"] = blackboard.Num(math.Sqrt(float64(bestDist)))
		return out
	}
}

// gradientScan publishes the steepest-ascent direction of one
// pheromone type over the full neighborhood.
func gradientScan(typ string, cfg BuiltinConfig) SensorFunc {
	prefix := "sense.gradient." + typ
	return func(a *Agent, v View) map[string]blackboard.Value {
		f := v.Field()
		here, err := f.At(typ, a.X, a.Y)
		if err != nil {
			return map[string]blackboard.Value{prefix + ".available": blackboard.Flag(false)}
		}

		best := here
		var bd [2]int
		found := false
		for _, d := range world.Neighbors8 {
			n, _ := f.At(typ, a.X+d[0], a.Y+d[1])
			if n > best && n >= cfg.NoiseFloor && v.Grid().Walkable(a.X+d[0], a.Y+d[1]) {
				best, bd, found = n, d, true
			}
		}
		if !found {
			return map[string]blackboard.Value{prefix + ".available": blackboard.Flag(false)}
		}
		return map[string]blackboard.Value{
			prefix + ".available": blackboard.Flag(true),
			prefix + ".direction": blackboard.Vec(bd[0], bd[1]),
			prefix + ".strength":  blackboard.Num(best),
		}
	}
}

// neighborScan reports nearby agents, in particular the closest hungry
// one for trophallaxis.
func neighborScan(cfg BuiltinConfig) SensorFunc {
	return func(a *Agent, v View) map[string]blackboard.Value {
		ns := v.Neighbors(a, cfg.ScanRadius)
		out := map[string]blackboard.Value{
			"sense.neighbors.count": blackboard.Num(float64(len(ns))),
		}
		bestDist := math.MaxInt
		var hungry *NeighborInfo
		for i := range ns {
			n := &ns[i]
			if !n.Hungry {
				continue
			}
			if n.DistSq < bestDist {
				bestDist = n.DistSq
				hungry = n
			}
		}
		if hungry == nil {
			out["sense.neighbors.hungry"] = blackboard.Flag(false)
			return out
		}
		out["sense.neighbors.hungry"] = blackboard.Flag(true)
		out["sense.neighbors.hungry_id"] = blackboard.Num(float64(hungry.ID))
		out["sense.neighbors.hungry_dist"] = blackboard.Num(math.Sqrt(float64(hungry.DistSq)))
		return out
	}
}

// navReturn is the layered return-to-nest strategy: a direct line
// while it gains ground, committed wall-following once the direct line
// stays blocked, the agent's own breadcrumb gradient when following
// gets nowhere, and finally a center bias. Only real progress toward
// the nest resets the escalation counter, so oscillating beside an
// obstacle cannot pass for advancement. A wall-follow, once entered,
// holds until a direct step opens up strictly closer to the nest than
// where the wall was hit; that is what lets the agent round concave
// obstacles instead of bouncing in their pocket. The chosen direction
// is remembered as sense.nav.last_valid_direction so steps keep moving
// on throttled ticks.
func navReturn(cfg BuiltinConfig) SensorFunc {
	return func(a *Agent, v View) map[string]blackboard.Value {
		g := v.Grid()
		nx, ny := g.NestCenter()

		dirX, dirY := world.StepToward(a.X, a.Y, nx, ny)
		if dirX == 0 && dirY == 0 {
			return map[string]blackboard.Value{
				"sense.nav.strategy":       blackboard.Str("direct"),
				"sense.nav.direction":      blackboard.Vec(0, 0),
				"sense.nav.blocked_streak": blackboard.Num(0),
				"sense.nav.best_dist":      blackboard.Num(0),
			}
		}

		dist := float64(chebDist(a.X-nx, a.Y-ny))
		directOK := g.Walkable(a.X+dirX, a.Y+dirY)

		streak, _ := a.BB.Number("sense.nav.blocked_streak", 0)
		best, _ := a.BB.Number("sense.nav.best_dist", math.Inf(1))
		hit, _ := a.BB.Number("sense.nav.hit_dist", dist)
		prev, _ := a.BB.Text("sense.nav.strategy", "direct")

		if dist < best {
			best = dist
			streak = 0
		} else {
			streak++
		}

		strategy := "direct"
		outX, outY := dirX, dirY
		heading := blackboard.Vec2{}
		if h, ok, err := a.BB.Vec2At("sense.nav.heading"); err == nil && ok {
			heading = h
		}

		scent := func() {
			if bx, by, ok := breadcrumbDir(a, v, cfg); ok {
				strategy = "breadcrumb"
				outX, outY = bx, by
				return
			}
			strategy = "emergency"
			outX, outY = emergencyDir(a, v, cfg)
		}
		follow := func(base int) {
			hx, hy, next, ok := followStep(g, a.X, a.Y, base)
			if !ok {
				scent()
				return
			}
			strategy = "detour"
			outX, outY = hx, hy
			heading = blackboard.Vec2{X: cardinals[next][0], Y: cardinals[next][1]}
		}

		lapBound := float64(g.W*g.H) / 2
		switch {
		case streak > lapBound:
			// A boundary lap's worth of ticks without gaining ground:
			// not an obstacle wall-following can solve from here.
			scent()
		case prev == "detour" && !(directOK && dist < hit):
			base := cardinalIndex(heading.X, heading.Y)
			if base < 0 {
				base = (cardinalToward(dirX, dirY) + 1) % 4
			}
			follow(base)
		case directOK:
			// Direct line is open.
		case streak < float64(cfg.DetourThreshold):
			// Keep pushing the direct line until the threshold trips;
			// the executor records each rejection.
		default:
			hit = dist
			follow((cardinalToward(dirX, dirY) + 1) % 4)
		}

		out := map[string]blackboard.Value{
			"sense.nav.strategy":       blackboard.Str(strategy),
			"sense.nav.direction":      blackboard.Vec(outX, outY),
			"sense.nav.blocked_streak": blackboard.Num(streak),
			"sense.nav.best_dist":      blackboard.Num(best),
			"sense.nav.hit_dist":       blackboard.Num(hit),
			"sense.nav.heading":        blackboard.Vec(heading.X, heading.Y),
		}
		if outX != 0 || outY != 0 {
			out["sense.nav.last_valid_direction"] = blackboard.Vec(outX, outY)
		}
		return out
	}
}

// cardinals orders the four orthogonal directions clockwise.
var cardinals = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

func cardinalIndex(dx, dy int) int {
	for i, d := range cardinals {
		if d[0] == dx && d[1] == dy {
			return i
		}
	}
	return -1
}

// cardinalToward collapses a step direction onto a cardinal index,
// horizontal component first.
func cardinalToward(dx, dy int) int {
	switch {
	case dx > 0:
		return 0
	case dx < 0:
		return 2
	case dy > 0:
		return 1
	}
	return 3
}

// followStep advances a wall-follow: turn into the wall side first,
// then straight, then away from it, then back. Keeping the obstacle
// boundary on a fixed side traces its outline instead of oscillating
// against it.
func followStep(g *world.Grid, x, y, base int) (int, int, int, bool) {
	for _, off := range [4]int{3, 0, 1, 2} {
		i := (base + off) % 4
		d := cardinals[i]
		if g.Walkable(x+d[0], y+d[1]) {
			return d[0], d[1], i, true
		}
	}
	return 0, 0, 0, false
}

func chebDist(dx, dy int) int {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// ring orders the full neighborhood clockwise, for direction picks.
var ring = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// breadcrumbDir follows the gradient of the agent's own breadcrumb
// trail, ignoring intensities below the noise floor.
func breadcrumbDir(a *Agent, v View, cfg BuiltinConfig) (int, int, bool) {
	f := v.Field()
	typ := BreadcrumbType(a.ID)
	if !f.Has(typ) {
		return 0, 0, false
	}
	best := cfg.NoiseFloor
	var bd [2]int
	found := false
	for _, d := range world.Neighbors8 {
		n, _ := f.At(typ, a.X+d[0], a.Y+d[1])
		if n >= best && n > 0 && v.Grid().Walkable(a.X+d[0], a.Y+d[1]) {
			if !found || n > best {
				best, bd, found = n, d, true
			}
		}
	}
	if !found {
		return 0, 0, false
	}
	return bd[0], bd[1], true
}

// emergencyDir biases movement toward the map center. The configured
// weight sets the fraction of ticks on which the center direction
// overrides the remembered direction; in between, the agent keeps its
// last valid heading.
func emergencyDir(a *Agent, v View, cfg BuiltinConfig) (int, int) {
	g := v.Grid()
	cx, cy := g.W/2, g.H/2
	centerX, centerY := world.StepToward(a.X, a.Y, cx, cy)

	if cfg.CenterBias > 0 {
		period := int(math.Ceil(1 / cfg.CenterBias))
		if period < 1 {
			period = 1
		}
		if v.Tick()%period == 0 {
			return centerX, centerY
		}
	}
	if lvd, ok, err := a.BB.Vec2At("sense.nav.last_valid_direction"); err == nil && ok {
		if v.Grid().Walkable(a.X+lvd.X, a.Y+lvd.Y) {
			return lvd.X, lvd.Y
		}
	}
	return centerX, centerY
}
