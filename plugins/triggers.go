package plugins

import (
	"github.com/pthm-cable/formic/blackboard"
)

// registerTriggers installs the builtin trigger set. Triggers read only
// the blackboard; all world facts arrive through sensor keys.
func registerTriggers(r *Registry) error {
	triggers := map[string]TriggerFunc{
		"always":          always,
		"is_hungry":       flagTrigger("sense.hungry"),
		"in_nest":         flagTrigger("sense.in_nest"),
		"outside_nest":    notFlagTrigger("sense.in_nest"),
		"food_here":       flagTrigger("sense.food.here"),
		"food_visible":    flagTrigger("sense.food.visible"),
		"carrying_food":   flagTrigger("sense.carrying"),
		"not_carrying":    notFlagTrigger("sense.carrying"),
		"neighbor_hungry": flagTrigger("sense.neighbors.hungry"),
		"egg_ready":       flagTrigger("sense.egg_ready"),
		"energy_below":    energyBelow,
		"role_is":         roleIs,
		"gradient_available": func(bb *blackboard.Board, p Params) (bool, error) {
			typ := p.Text("type", "")
			return bb.Bool("sense.gradient."+typ+".available", false)
		},
	}
	for name, f := range triggers {
		if err := r.RegisterTrigger(name, f); err != nil {
			return err
		}
	}
	return nil
}

func always(bb *blackboard.Board, p Params) (bool, error) { return true, nil }

func flagTrigger(key string) TriggerFunc {
	return func(bb *blackboard.Board, p Params) (bool, error) {
		return bb.Bool(key, false)
	}
}

func notFlagTrigger(key string) TriggerFunc {
	return func(bb *blackboard.Board, p Params) (bool, error) {
		v, err := bb.Bool(key, false)
		return !v, err
	}
}

// energyBelow fires when the energy fraction drops under the
// "threshold" parameter.
func energyBelow(bb *blackboard.Board, p Params) (bool, error) {
	frac, err := bb.Number("sense.energy_frac", 1)
	if err != nil {
		return false, err
	}
	return frac < p.Float("threshold", 0.5), nil
}

// roleIs matches the agent's role against the "role" parameter.
func roleIs(bb *blackboard.Board, p Params) (bool, error) {
	role, err := bb.Text("sense.role", "")
	if err != nil {
		return false, err
	}
	return role == p.Text("role", ""), nil
}
