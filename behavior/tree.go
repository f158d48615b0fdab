// Package behavior compiles configured behavior trees and task lists
// into executable trees and evaluates them once per agent per tick.
// Plugin names are resolved against the registry exactly once at
// compile time; evaluation never does string lookups.
package behavior

import (
	"fmt"
	"sort"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/pthm-cable/formic/blackboard"
	"github.com/pthm-cable/formic/plugins"
)

// TriggerRef names a registered trigger with its node parameters.
type TriggerRef struct {
	Name   string
	Params plugins.Params
}

// StepRef names a registered step with its node parameters.
type StepRef struct {
	Name   string
	Params plugins.Params
}

// NodeSpec is the tagged tree-node variant loaded from configuration.
type NodeSpec struct {
	Kind     string // "selector", "sequence", "condition", "step"
	Children []NodeSpec
	Logic    string // condition combinator: "and" (default) or "or"
	Triggers []TriggerRef
	Step     *StepRef
}

// TaskSpec is the task-list form of tree configuration: named tasks
// with a priority, a trigger set, and a step sequence. Lower priority
// numbers run first.
type TaskSpec struct {
	Name      string
	Priority  int
	Logic     string
	Triggers  []TriggerRef
	Steps     []StepRef
	MaxCycles int // consecutive active ticks before yielding; 0 = unbounded
}

// Trace reports what one evaluation chose, for the event log.
type Trace struct {
	Task   string
	Step   string
	Errors []error
}

// evalCtx is the per-evaluation state the compiled leaves close over.
// Trees are shared across all agents of a class; the simulation swaps
// the context before each agent's sequential evaluation.
type evalCtx struct {
	agent  *plugins.Agent
	view   plugins.View
	intent *plugins.Intent
	task   string
	step   string
	errs   []error
}

// Tree is a compiled behavior tree for one capability class.
type Tree struct {
	root bt.Node
	ctx  *evalCtx
}

// Evaluate runs the tree for one agent against the committed world
// view, returning the staged intent (nil when no step acted) and a
// trace for the event log. Not safe for concurrent use.
func (t *Tree) Evaluate(a *plugins.Agent, v plugins.View) (*plugins.Intent, Trace) {
	c := t.ctx
	c.agent, c.view = a, v
	c.intent, c.task, c.step, c.errs = nil, "", "", nil

	if _, err := t.root.Tick(); err != nil {
		c.errs = append(c.errs, err)
	}
	return c.intent, Trace{Task: c.task, Step: c.step, Errors: c.errs}
}

// Compile resolves a node spec against the registry into an executable
// tree. Unknown plugin names are configuration errors.
func Compile(spec NodeSpec, reg *plugins.Registry) (*Tree, error) {
	ctx := &evalCtx{}
	root, err := compileNode(spec, reg, ctx)
	if err != nil {
		return nil, err
	}
	return &Tree{root: root, ctx: ctx}, nil
}

func compileNode(spec NodeSpec, reg *plugins.Registry, ctx *evalCtx) (bt.Node, error) {
	switch spec.Kind {
	case "selector", "sequence":
		children := make([]bt.Node, 0, len(spec.Children))
		for _, cs := range spec.Children {
			n, err := compileNode(cs, reg, ctx)
			if err != nil {
				return nil, err
			}
			children = append(children, n)
		}
		tick := bt.Selector
		if spec.Kind == "sequence" {
			tick = bt.Sequence
		}
		return bt.New(tick, children...), nil

	case "condition":
		return compileCondition(spec.Triggers, spec.Logic, reg, ctx)

	case "step":
		if spec.Step == nil {
			return nil, fmt.Errorf("%w: step node without a step reference", plugins.ErrConfig)
		}
		return compileStep(*spec.Step, reg, ctx)

	default:
		return nil, fmt.Errorf("%w: unknown node kind %q", plugins.ErrConfig, spec.Kind)
	}
}

// compileCondition resolves the trigger list into one gating leaf.
// Trigger evaluation errors are logged and count as false.
func compileCondition(refs []TriggerRef, logic string, reg *plugins.Registry, ctx *evalCtx) (bt.Node, error) {
	if logic == "" {
		logic = "and"
	}
	if logic != "and" && logic != "or" {
		return nil, fmt.Errorf("%w: unknown condition logic %q", plugins.ErrConfig, logic)
	}

	type bound struct {
		name   string
		fn     plugins.TriggerFunc
		params plugins.Params
	}
	bounds := make([]bound, 0, len(refs))
	for _, ref := range refs {
		fn, ok := reg.Trigger(ref.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown trigger %q", plugins.ErrConfig, ref.Name)
		}
		bounds = append(bounds, bound{name: ref.Name, fn: fn, params: ref.Params})
	}

	any := logic == "or"
	tick := func(children []bt.Node) (bt.Status, error) {
		for _, b := range bounds {
			ok, err := b.fn(ctx.agent.BB, b.params)
			if err != nil {
				ctx.errs = append(ctx.errs, fmt.Errorf("trigger %s: %w", b.name, err))
				ok = false
			}
			if any && ok {
				return bt.Success, nil
			}
			if !any && !ok {
				return bt.Failure, nil
			}
		}
		if any {
			return bt.Failure, nil
		}
		return bt.Success, nil
	}
	return bt.New(tick), nil
}

// compileStep resolves one step leaf. A step that stages an intent
// reports Running, short-circuiting both composite kinds so an agent
// stages at most one intent per tick.
func compileStep(ref StepRef, reg *plugins.Registry, ctx *evalCtx) (bt.Node, error) {
	fn, ok := reg.Step(ref.Name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown step %q", plugins.ErrConfig, ref.Name)
	}

	tick := func(children []bt.Node) (bt.Status, error) {
		res, err := fn(ctx.agent, ctx.view, ref.Params)
		if err != nil {
			ctx.errs = append(ctx.errs, fmt.Errorf("step %s: %w", ref.Name, err))
			return bt.Failure, nil
		}
		switch res.Status {
		case plugins.StepActed:
			if ctx.intent == nil {
				intent := res.Intent
				ctx.intent = &intent
				ctx.step = ref.Name
			}
			return bt.Running, nil
		case plugins.StepDone:
			return bt.Success, nil
		}
		return bt.Failure, nil
	}
	return bt.New(tick), nil
}

// CompileTasks turns a task list into a Selector of gated Sequences,
// ordered by ascending priority (name breaks ties). The task
// abstraction is discarded after compilation; only the tree remains.
func CompileTasks(tasks []TaskSpec, reg *plugins.Registry) (*Tree, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: empty task list", plugins.ErrConfig)
	}
	ordered := make([]TaskSpec, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].Name < ordered[j].Name
	})

	ctx := &evalCtx{}
	children := make([]bt.Node, 0, len(ordered))
	for _, task := range ordered {
		n, err := compileTask(task, reg, ctx)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", task.Name, err)
		}
		children = append(children, n)
	}
	return &Tree{root: bt.New(bt.Selector, children...), ctx: ctx}, nil
}

func compileTask(task TaskSpec, reg *plugins.Registry, ctx *evalCtx) (bt.Node, error) {
	cond, err := compileCondition(task.Triggers, task.Logic, reg, ctx)
	if err != nil {
		return nil, err
	}
	seqChildren := make([]bt.Node, 0, len(task.Steps)+1)
	seqChildren = append(seqChildren, cond)
	for _, ref := range task.Steps {
		n, err := compileStep(ref, reg, ctx)
		if err != nil {
			return nil, err
		}
		seqChildren = append(seqChildren, n)
	}
	seq := bt.New(bt.Sequence, seqChildren...)

	counterKey := "task." + task.Name + ".cycles"
	tick := func(children []bt.Node) (bt.Status, error) {
		bb := ctx.agent.BB
		if task.MaxCycles > 0 {
			n, _ := bb.Number(counterKey, 0)
			if n >= float64(task.MaxCycles) {
				// Bound exhausted: yield to lower priorities for one
				// tick, then the window restarts.
				bb.Set(counterKey, blackboard.Num(0))
				return bt.Failure, nil
			}
		}

		status, err := seq.Tick()
		if task.MaxCycles > 0 {
			switch status {
			case bt.Running:
				n, _ := bb.Number(counterKey, 0)
				bb.Set(counterKey, blackboard.Num(n+1))
			default:
				bb.Set(counterKey, blackboard.Num(0))
			}
		}
		if status == bt.Running || status == bt.Success {
			if ctx.task == "" {
				ctx.task = task.Name
			}
		}
		return status, err
	}
	return bt.New(tick), nil
}
