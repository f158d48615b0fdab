package plugins

import (
	"fmt"
	"sort"
)

// Registry holds the name → function bindings for the three plugin
// families. Names are globally unique within a family; a duplicate
// registration is a fatal configuration error.
type Registry struct {
	sensors  map[string]SensorFunc
	triggers map[string]TriggerFunc
	steps    map[string]StepFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sensors:  make(map[string]SensorFunc),
		triggers: make(map[string]TriggerFunc),
		steps:    make(map[string]StepFunc),
	}
}

// RegisterSensor binds a sensor function to a name.
func (r *Registry) RegisterSensor(name string, f SensorFunc) error {
	if _, ok := r.sensors[name]; ok {
		return fmt.Errorf("%w: duplicate sensor %q", ErrConfig, name)
	}
	r.sensors[name] = f
	return nil
}

// RegisterTrigger binds a trigger function to a name.
func (r *Registry) RegisterTrigger(name string, f TriggerFunc) error {
	if _, ok := r.triggers[name]; ok {
		return fmt.Errorf("%w: duplicate trigger %q", ErrConfig, name)
	}
	r.triggers[name] = f
	return nil
}

// RegisterStep binds a step function to a name.
func (r *Registry) RegisterStep(name string, f StepFunc) error {
	if _, ok := r.steps[name]; ok {
		return fmt.Errorf("%w: duplicate step %q", ErrConfig, name)
	}
	r.steps[name] = f
	return nil
}

// Sensor resolves a sensor by name.
func (r *Registry) Sensor(name string) (SensorFunc, bool) {
	f, ok := r.sensors[name]
	return f, ok
}

// Trigger resolves a trigger by name.
func (r *Registry) Trigger(name string) (TriggerFunc, bool) {
	f, ok := r.triggers[name]
	return f, ok
}

// Step resolves a step by name.
func (r *Registry) Step(name string) (StepFunc, bool) {
	f, ok := r.steps[name]
	return f, ok
}

// ListSensors returns registered sensor names, sorted.
func (r *Registry) ListSensors() []string { return sortedKeys(r.sensors) }

// ListTriggers returns registered trigger names, sorted.
func (r *Registry) ListTriggers() []string { return sortedKeys(r.triggers) }

// ListSteps returns registered step names, sorted.
func (r *Registry) ListSteps() []string { return sortedKeys(r.steps) }

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
