package plugins

// registerSteps installs the builtin step set. Steps only stage
// intents; the executor applies them against the evolving committed
// state.
func registerSteps(r *Registry, cfg BuiltinConfig) error {
	steps := map[string]StepFunc{
		"move_to_food":      moveToFood,
		"collect_food":      collectFood(cfg),
		"drop_food":         dropFood,
		"return_to_nest":    returnToNest(cfg),
		"follow_gradient":   followGradient,
		"deposit_pheromone": depositPheromone,
		"feed_neighbor":     feedNeighbor(cfg),
		"lay_egg":           layEgg,
		"random_walk":       randomWalk(cfg),
		"idle":              idle,
	}
	for name, f := range steps {
		if err := r.RegisterStep(name, f); err != nil {
			return err
		}
	}
	return nil
}

// moveToFood walks one cell toward the nearest visible food.
func moveToFood(a *Agent, v View, p Params) (StepResult, error) {
	here, err := a.BB.Bool("sense.food.here", false)
	if err != nil {
		return Failed(), err
	}
	if here {
		return Done(), nil
	}
	visible, err := a.BB.Bool("sense.food.visible", false)
	if err != nil || !visible {
		return Failed(), err
	}
	dir, ok, err := a.BB.Vec2At("sense.food.direction")
	if err != nil || !ok {
		return Failed(), err
	}
	return Acted(Intent{Move: &MoveReq{DX: dir.X, DY: dir.Y}}), nil
}

// collectFood picks food from the current cell into the social stomach.
func collectFood(cfg BuiltinConfig) StepFunc {
	return func(a *Agent, v View, p Params) (StepResult, error) {
		space := a.SocialCap - a.Social
		if space <= 0 {
			return Done(), nil
		}
		if v.Grid().Food(a.X, a.Y) <= 0 {
			return Failed(), nil
		}
		amount := p.Float("amount", cfg.CollectAmount)
		if amount > space {
			amount = space
		}
		return Acted(Intent{Collect: amount}), nil
	}
}

// dropFood unloads the social stomach onto the current cell; meant for
// nest storage at the end of a foraging run.
func dropFood(a *Agent, v View, p Params) (StepResult, error) {
	if a.Social <= 0 {
		return Done(), nil
	}
	inNest, err := a.BB.Bool("sense.in_nest", false)
	if err != nil {
		return Failed(), err
	}
	if !inNest {
		return Failed(), nil
	}
	return Acted(Intent{Drop: a.Social}), nil
}

// returnToNest follows the navigation sensor's direction, laying a
// breadcrumb at every step so the way back out stays findable.
func returnToNest(cfg BuiltinConfig) StepFunc {
	return func(a *Agent, v View, p Params) (StepResult, error) {
		inNest, err := a.BB.Bool("sense.in_nest", false)
		if err != nil {
			return Failed(), err
		}
		if inNest {
			return Done(), nil
		}

		dir, ok, err := a.BB.Vec2At("sense.nav.direction")
		if err != nil {
			return Failed(), err
		}
		if !ok {
			// Throttled sensor tick: keep the last heading.
			dir, ok, err = a.BB.Vec2At("sense.nav.last_valid_direction")
			if err != nil || !ok {
				return Failed(), err
			}
		}

		// The "deposit" parameter redirects the laid type; loaded
		// foragers mark the shared food trail instead of a private
		// breadcrumb.
		intent := Intent{Move: &MoveReq{DX: dir.X, DY: dir.Y}}
		amount := p.Float("amount", cfg.BreadcrumbAmount)
		if amount > 0 {
			intent.Deposit = &DepositReq{
				Type:   p.Text("deposit", BreadcrumbType(a.ID)),
				Amount: amount,
				X:      a.X,
				Y:      a.Y,
			}
		}
		return Acted(intent), nil
	}
}

// followGradient climbs the gradient of the pheromone type named by
// the "type" parameter.
func followGradient(a *Agent, v View, p Params) (StepResult, error) {
	typ := p.Text("type", "trail")
	prefix := "sense.gradient." + typ
	avail, err := a.BB.Bool(prefix+".available", false)
	if err != nil || !avail {
		return Failed(), err
	}
	dir, ok, err := a.BB.Vec2At(prefix + ".direction")
	if err != nil || !ok {
		return Failed(), err
	}
	return Acted(Intent{Move: &MoveReq{DX: dir.X, DY: dir.Y}}), nil
}

// depositPheromone lays the configured type and amount at the agent's
// cell without moving.
func depositPheromone(a *Agent, v View, p Params) (StepResult, error) {
	amount := p.Float("amount", 1)
	if amount <= 0 {
		return Failed(), nil
	}
	return Acted(Intent{
		Move: &MoveReq{},
		Deposit: &DepositReq{
			Type:   p.Text("type", "trail"),
			Amount: amount,
			X:      a.X,
			Y:      a.Y,
		},
	}), nil
}

// feedNeighbor shares social stomach contents with the closest hungry
// neighbor reported by the neighbor sensor.
func feedNeighbor(cfg BuiltinConfig) StepFunc {
	return func(a *Agent, v View, p Params) (StepResult, error) {
		if a.Social <= 0 {
			return Failed(), nil
		}
		hungry, err := a.BB.Bool("sense.neighbors.hungry", false)
		if err != nil || !hungry {
			return Failed(), err
		}
		id, err := a.BB.Number("sense.neighbors.hungry_id", -1)
		if err != nil || id < 0 {
			return Failed(), err
		}
		amount := p.Float("amount", cfg.FeedAmount)
		if amount > a.Social {
			amount = a.Social
		}
		return Acted(Intent{Feed: &FeedReq{TargetID: uint32(id), Amount: amount}}), nil
	}
}

// layEgg spawns a brood agent at the queen's cell when her egg timer
// has elapsed. An empty class defers to the role's configured default.
func layEgg(a *Agent, v View, p Params) (StepResult, error) {
	if !a.EggReady {
		return Failed(), nil
	}
	inNest, err := a.BB.Bool("sense.in_nest", false)
	if err != nil || !inNest {
		return Failed(), err
	}
	return Acted(Intent{Spawn: &SpawnReq{
		Role:  "brood",
		Class: p.Text("class", ""),
	}}), nil
}

// randomWalk picks a pseudo-random walkable direction from a hash of
// the agent id and tick, keeping runs reproducible. Walkers lay a
// breadcrumb behind them so the navigation fallback can retrace the
// path later.
func randomWalk(cfg BuiltinConfig) StepFunc {
	return func(a *Agent, v View, p Params) (StepResult, error) {
		g := v.Grid()
		var open [][2]int
		for _, d := range ring {
			if g.Walkable(a.X+d[0], a.Y+d[1]) {
				open = append(open, d)
			}
		}
		intent := Intent{Move: &MoveReq{}}
		if cfg.BreadcrumbAmount > 0 {
			intent.Deposit = &DepositReq{
				Type:   BreadcrumbType(a.ID),
				Amount: cfg.BreadcrumbAmount,
				X:      a.X,
				Y:      a.Y,
			}
		}
		if len(open) == 0 {
			return Acted(intent), nil
		}
		h := stepHash(a.ID, uint32(v.Tick()))
		d := open[int(h%uint32(len(open)))]
		intent.Move = &MoveReq{DX: d[0], DY: d[1]}
		return Acted(intent), nil
	}
}

// idle stays put. The usual lowest-priority task so every agent stages
// an intent each tick.
func idle(a *Agent, v View, p Params) (StepResult, error) {
	return Acted(Intent{Move: &MoveReq{}}), nil
}

// stepHash mixes agent id and tick into a pseudo-random word.
func stepHash(id, tick uint32) uint32 {
	h := id*374761393 + tick*668265263
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}
