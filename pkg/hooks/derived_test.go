package hooks

import (
	"testing"

	"github.com/vango-dev/reflex/pkg/host"
	"github.com/vango-dev/reflex/pkg/reactive"
	"github.com/vango-dev/reflex/pkg/telemetry"
)

func TestDerivedSumScenario(t *testing.T) {
	state := reactive.NewObject(map[string]any{"a": 1, "b": 2, "c": 0})
	computes := 0

	c := host.New("sum", func(h host.Host) int {
		return UseDerived(h, func() int {
			computes++
			return reactive.Read[int](state, "a") + reactive.Read[int](state, "b")
		})
	}, nil)
	c.Mount()
	defer c.Unmount()

	if got := c.View(); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}

	state.Set("a", 5)
	if !c.Dirty() {
		t.Fatal("dependency change should mark the component dirty")
	}
	if computes != 1 {
		t.Errorf("compute must wait for the render pass, got %d computes", computes)
	}
	c.Flush()
	if got := c.View(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}

	state.Set("c", 1)
	if c.Dirty() {
		t.Error("unrelated change should not mark the component dirty")
	}
	c.Flush()
	if got := c.View(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if computes != 2 {
		t.Errorf("expected 2 computes, got %d", computes)
	}
}

func TestDerivedCachesAcrossRenders(t *testing.T) {
	state := reactive.NewObject(map[string]any{"a": 1})
	computes := 0
	var rerender func()

	c := host.New("cached", func(h host.Host) int {
		_, rerender = h.UseCounter()
		return UseDerived(h, func() int {
			computes++
			return reactive.Read[int](state, "a") * 10
		})
	}, nil)
	c.Mount()
	defer c.Unmount()

	for i := 0; i < 3; i++ {
		rerender()
		if !c.Flush() {
			t.Fatal("expected render")
		}
	}

	if computes != 1 {
		t.Errorf("compute should not re-run without a dependency change, got %d", computes)
	}
	if got := c.View(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if got := c.Renders(); got != 4 {
		t.Errorf("expected 4 renders, got %d", got)
	}
}

func TestDerivedFreshAfterEveryChange(t *testing.T) {
	state := reactive.NewObject(map[string]any{"items": []int{1, 2}})

	c := host.New("fresh", func(h host.Host) int {
		return UseDerived(h, func() int {
			total := 0
			for _, n := range reactive.Read[[]int](state, "items") {
				total += n
			}
			return total
		})
	}, nil)
	c.Mount()
	defer c.Unmount()

	for _, items := range [][]int{{4}, {1, 1, 1}, nil, {10, 20}} {
		state.Set("items", items)
		c.Flush()

		want := 0
		for _, n := range items {
			want += n
		}
		if got := c.View(); got != want {
			t.Errorf("items %v: expected %d, got %d", items, want, got)
		}
	}
}

func TestDerivedStopsAfterUnmount(t *testing.T) {
	state := reactive.NewObject(map[string]any{"a": 1})
	computes := 0

	c := host.New("gone", func(h host.Host) int {
		return UseDerived(h, func() int {
			computes++
			return reactive.Read[int](state, "a")
		})
	}, nil)
	c.Mount()
	c.Unmount()

	state.Set("a", 2)
	if c.Dirty() {
		t.Error("change after unmount should not reach the component")
	}
	c.Flush()
	if computes != 1 {
		t.Errorf("expected no compute after unmount, got %d", computes)
	}
}

func TestDerivedPanicLeavesNoStaleValue(t *testing.T) {
	state := reactive.NewObject(map[string]any{"a": 1})
	fail := false
	var rerender func()

	c := host.New("failing", func(h host.Host) int {
		_, rerender = h.UseCounter()
		return UseDerived(h, func() int {
			n := reactive.Read[int](state, "a")
			if fail {
				panic("compute failed")
			}
			return n
		})
	}, nil)
	c.Mount()
	defer c.Unmount()

	fail = true
	state.Set("a", 2)
	func() {
		defer func() {
			if r := recover(); r != "compute failed" {
				t.Errorf("expected compute panic, got %v", r)
			}
		}()
		c.Flush()
	}()

	fail = false
	rerender()
	c.Flush()
	if got := c.View(); got != 2 {
		t.Errorf("expected a fresh value after recovery, got %d", got)
	}
}

func TestDerivedAndEffectInOneComponent(t *testing.T) {
	state := reactive.NewObject(map[string]any{"first": "Ada", "last": "Lovelace"})
	var logged []string

	c := host.New("profile", func(h host.Host) string {
		full := UseDerived(h, func() string {
			return reactive.Read[string](state, "first") + " " + reactive.Read[string](state, "last")
		})
		RunEffect(h, func() Cleanup {
			logged = append(logged, reactive.Read[string](state, "first"))
			return nil
		})
		return full
	}, nil)
	c.Mount()
	defer c.Unmount()

	state.Set("last", "Byron")
	c.Flush()
	if got := c.View(); got != "Ada Byron" {
		t.Errorf("expected %q, got %q", "Ada Byron", got)
	}
	if len(logged) != 1 {
		t.Errorf("effect should ignore last name changes, got %v", logged)
	}

	state.Set("first", "Augusta")
	c.Flush()
	if got := c.View(); got != "Augusta Byron" {
		t.Errorf("expected %q, got %q", "Augusta Byron", got)
	}
	if len(logged) != 2 || logged[1] != "Augusta" {
		t.Errorf("expected effect to see Augusta, got %v", logged)
	}
}

func TestDerivedFreshAfterWriteDuringCompute(t *testing.T) {
	state := reactive.NewObject(map[string]any{"a": 1})
	first := true

	c := host.New("racy", func(h host.Host) int {
		return UseDerived(h, func() int {
			n := reactive.Read[int](state, "a")
			if first {
				first = false
				done := make(chan struct{})
				go func() {
					state.Set("a", 5)
					close(done)
				}()
				<-done
			}
			return n
		})
	}, nil)
	c.Mount()
	defer c.Unmount()

	if !c.Dirty() {
		t.Fatal("write during compute should mark the component dirty")
	}
	c.Flush()
	if got := c.View(); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if c.Dirty() {
		t.Error("expected a clean component after the fresh compute")
	}
}

func TestDerivedObserverEvents(t *testing.T) {
	state := reactive.NewObject(map[string]any{"a": 1})
	computes := 0

	c := host.New("observed", func(h host.Host) int {
		return UseDerived(h, func() int { return reactive.Read[int](state, "a") })
	}, &host.Config{Observer: telemetry.ObserverFunc(func(ev telemetry.Event) {
		if ev.Kind == telemetry.KindDerivedCompute {
			computes++
			if ev.Deps != 1 || ev.Phase != "render" {
				t.Errorf("unexpected event %+v", ev)
			}
		}
	})})
	c.Mount()
	state.Set("a", 2)
	c.Flush()
	c.Unmount()

	if computes != 2 {
		t.Errorf("expected 2 compute events, got %d", computes)
	}
}
