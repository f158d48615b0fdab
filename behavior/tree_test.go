package behavior

import (
	"errors"
	"testing"

	"github.com/pthm-cable/formic/blackboard"
	"github.com/pthm-cable/formic/plugins"
	"github.com/pthm-cable/formic/world"
)

type nilView struct{}

func (nilView) Tick() int            { return 0 }
func (nilView) Grid() *world.Grid    { return nil }
func (nilView) Field() *world.Field  { return nil }
func (nilView) Neighbors(a *plugins.Agent, r int) []plugins.NeighborInfo {
	return nil
}

func newAgent() *plugins.Agent {
	return &plugins.Agent{ID: 1, Class: "worker", BB: blackboard.New()}
}

// boolTrigger registers a trigger with a fixed result and counts calls.
func boolTrigger(t *testing.T, reg *plugins.Registry, name string, result bool, calls *int) {
	t.Helper()
	err := reg.RegisterTrigger(name, func(bb *blackboard.Board, p plugins.Params) (bool, error) {
		*calls++
		return result, nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

// actStep registers a step that stages a stay-move and counts calls.
func actStep(t *testing.T, reg *plugins.Registry, name string, calls *int) {
	t.Helper()
	err := reg.RegisterStep(name, func(a *plugins.Agent, v plugins.View, p plugins.Params) (plugins.StepResult, error) {
		*calls++
		return plugins.Acted(plugins.Intent{Move: &plugins.MoveReq{}}), nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestConditionANDShortCircuits(t *testing.T) {
	reg := plugins.NewRegistry()
	var c1, c2, c3, stepCalls int
	boolTrigger(t, reg, "t1", true, &c1)
	boolTrigger(t, reg, "t2", false, &c2)
	boolTrigger(t, reg, "t3", true, &c3)
	actStep(t, reg, "act", &stepCalls)

	tree, err := CompileTasks([]TaskSpec{{
		Name:     "guarded",
		Priority: 1,
		Triggers: []TriggerRef{{Name: "t1"}, {Name: "t2"}, {Name: "t3"}},
		Steps:    []StepRef{{Name: "act"}},
	}}, reg)
	if err != nil {
		t.Fatal(err)
	}

	intent, trace := tree.Evaluate(newAgent(), nilView{})
	if intent != nil {
		t.Fatalf("intent staged despite failed condition: %+v", intent)
	}
	if c1 != 1 || c2 != 1 {
		t.Fatalf("trigger calls = %d,%d", c1, c2)
	}
	if c3 != 0 {
		t.Fatal("third trigger evaluated after AND short-circuit")
	}
	if stepCalls != 0 {
		t.Fatal("step ran despite failed condition")
	}
	if trace.Task != "" {
		t.Fatalf("trace.Task = %q, want empty", trace.Task)
	}
}

func TestConditionORAnyMatch(t *testing.T) {
	reg := plugins.NewRegistry()
	var c1, c2, steps int
	boolTrigger(t, reg, "t1", false, &c1)
	boolTrigger(t, reg, "t2", true, &c2)
	actStep(t, reg, "act", &steps)

	tree, err := CompileTasks([]TaskSpec{{
		Name: "either", Priority: 1, Logic: "or",
		Triggers: []TriggerRef{{Name: "t1"}, {Name: "t2"}},
		Steps:    []StepRef{{Name: "act"}},
	}}, reg)
	if err != nil {
		t.Fatal(err)
	}
	intent, trace := tree.Evaluate(newAgent(), nilView{})
	if intent == nil || trace.Task != "either" || trace.Step != "act" {
		t.Fatalf("intent=%v trace=%+v", intent, trace)
	}
}

func TestRunningStepShortCircuitsLaterSteps(t *testing.T) {
	reg := plugins.NewRegistry()
	var first, second int
	boolTrigger(t, reg, "go", true, new(int))
	actStep(t, reg, "first", &first)
	actStep(t, reg, "second", &second)

	tree, err := CompileTasks([]TaskSpec{{
		Name: "walk", Priority: 1,
		Triggers: []TriggerRef{{Name: "go"}},
		Steps:    []StepRef{{Name: "first"}, {Name: "second"}},
	}}, reg)
	if err != nil {
		t.Fatal(err)
	}

	intent, _ := tree.Evaluate(newAgent(), nilView{})
	if intent == nil {
		t.Fatal("no intent staged")
	}
	if first != 1 || second != 0 {
		t.Fatalf("step calls = %d,%d; an acting step must stop the sequence", first, second)
	}
}

func TestTaskPriorityOrder(t *testing.T) {
	reg := plugins.NewRegistry()
	boolTrigger(t, reg, "no", false, new(int))
	boolTrigger(t, reg, "yes", true, new(int))
	actStep(t, reg, "a", new(int))
	actStep(t, reg, "b", new(int))

	tree, err := CompileTasks([]TaskSpec{
		{Name: "fallback", Priority: 9, Triggers: []TriggerRef{{Name: "yes"}}, Steps: []StepRef{{Name: "b"}}},
		{Name: "urgent", Priority: 1, Triggers: []TriggerRef{{Name: "no"}}, Steps: []StepRef{{Name: "a"}}},
	}, reg)
	if err != nil {
		t.Fatal(err)
	}

	_, trace := tree.Evaluate(newAgent(), nilView{})
	if trace.Task != "fallback" || trace.Step != "b" {
		t.Fatalf("trace = %+v, want fallback/b", trace)
	}
}

func TestMaxCyclesYieldsForOneTick(t *testing.T) {
	reg := plugins.NewRegistry()
	boolTrigger(t, reg, "yes", true, new(int))
	actStep(t, reg, "busy", new(int))
	actStep(t, reg, "rest", new(int))

	tree, err := CompileTasks([]TaskSpec{
		{Name: "work", Priority: 1, Triggers: []TriggerRef{{Name: "yes"}}, Steps: []StepRef{{Name: "busy"}}, MaxCycles: 2},
		{Name: "break", Priority: 2, Triggers: []TriggerRef{{Name: "yes"}}, Steps: []StepRef{{Name: "rest"}}},
	}, reg)
	if err != nil {
		t.Fatal(err)
	}

	a := newAgent()
	want := []string{"work", "work", "break", "work", "work", "break"}
	for i, w := range want {
		_, trace := tree.Evaluate(a, nilView{})
		if trace.Task != w {
			t.Fatalf("tick %d task = %q, want %q", i, trace.Task, w)
		}
	}
}

func TestCompileRejectsUnknownNames(t *testing.T) {
	reg := plugins.NewRegistry()
	boolTrigger(t, reg, "yes", true, new(int))

	_, err := CompileTasks([]TaskSpec{{
		Name: "broken", Priority: 1,
		Triggers: []TriggerRef{{Name: "yes"}},
		Steps:    []StepRef{{Name: "missing"}},
	}}, reg)
	if !errors.Is(err, plugins.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}

	_, err = Compile(NodeSpec{Kind: "teleport"}, reg)
	if !errors.Is(err, plugins.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
}

func TestTriggerErrorCountsAsFalse(t *testing.T) {
	reg := plugins.NewRegistry()
	if err := reg.RegisterTrigger("bad", func(bb *blackboard.Board, p plugins.Params) (bool, error) {
		return true, &blackboard.TypeMismatchError{Key: "k", Want: blackboard.KindNumber, Got: blackboard.KindString}
	}); err != nil {
		t.Fatal(err)
	}
	actStep(t, reg, "act", new(int))

	tree, err := CompileTasks([]TaskSpec{{
		Name: "t", Priority: 1,
		Triggers: []TriggerRef{{Name: "bad"}},
		Steps:    []StepRef{{Name: "act"}},
	}}, reg)
	if err != nil {
		t.Fatal(err)
	}

	intent, trace := tree.Evaluate(newAgent(), nilView{})
	if intent != nil {
		t.Fatal("erroring trigger must not let the task act")
	}
	if len(trace.Errors) != 1 {
		t.Fatalf("trace errors = %v", trace.Errors)
	}
	var tm *blackboard.TypeMismatchError
	if !errors.As(trace.Errors[0], &tm) {
		t.Fatalf("error type = %v", trace.Errors[0])
	}
}

func TestExplicitNodeSpecTree(t *testing.T) {
	reg := plugins.NewRegistry()
	var acted int
	boolTrigger(t, reg, "gate", true, new(int))
	actStep(t, reg, "move", &acted)

	tree, err := Compile(NodeSpec{
		Kind: "selector",
		Children: []NodeSpec{
			{Kind: "sequence", Children: []NodeSpec{
				{Kind: "condition", Triggers: []TriggerRef{{Name: "gate"}}},
				{Kind: "step", Step: &StepRef{Name: "move"}},
			}},
		},
	}, reg)
	if err != nil {
		t.Fatal(err)
	}

	intent, trace := tree.Evaluate(newAgent(), nilView{})
	if intent == nil || acted != 1 || trace.Step != "move" {
		t.Fatalf("intent=%v acted=%d trace=%+v", intent, acted, trace)
	}
}
