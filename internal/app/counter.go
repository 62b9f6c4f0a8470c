// Package app holds the demo counter served by the reflex CLI.
package app

import (
	"log/slog"

	"github.com/vango-dev/reflex/pkg/hooks"
	"github.com/vango-dev/reflex/pkg/host"
	"github.com/vango-dev/reflex/pkg/reactive"
)

// MilestoneEvery is the count interval at which a milestone is logged.
const MilestoneEvery = 10

// View is the painted state of the counter.
type View struct {
	Count   int    `json:"count"`
	Step    int    `json:"step"`
	Double  int    `json:"double"`
	Parity  string `json:"parity"`
	Paused  bool   `json:"paused"`
	Renders int    `json:"renders"`
}

type snapshot struct {
	count  int
	step   int
	paused bool
}

// Counter is a component backed by a reactive state object.
type Counter struct {
	State     *reactive.Object
	Component *host.Component[View]

	logger     *slog.Logger
	renders    int
	milestones int
}

// NewCounter creates an unmounted counter. cfg may be nil.
func NewCounter(cfg *host.Config) *Counter {
	c := &Counter{
		State: reactive.NewObject(map[string]any{
			"count":  0,
			"step":   1,
			"paused": false,
		}),
		logger: slog.Default(),
	}
	if cfg != nil && cfg.Logger != nil {
		c.logger = cfg.Logger
	}
	c.Component = host.New("counter", c.render, cfg)
	return c
}

func (c *Counter) render(h host.Host) View {
	c.renders++

	s := hooks.UseDerived(h, func() snapshot {
		return snapshot{
			count:  reactive.Read[int](c.State, "count"),
			step:   reactive.Read[int](c.State, "step"),
			paused: reactive.Read[bool](c.State, "paused"),
		}
	})
	double := hooks.UseDerived(h, func() int {
		return reactive.Read[int](c.State, "count") * 2
	})
	parity := hooks.UseDerived(h, func() string {
		if reactive.Read[int](c.State, "count")%2 == 0 {
			return "even"
		}
		return "odd"
	})

	// Step is clamped before the view reaches the screen.
	hooks.RunLayoutEffect(h, func() hooks.Cleanup {
		if reactive.Read[int](c.State, "step") < 1 {
			c.State.Set("step", 1)
		}
		return nil
	})

	hooks.RunEffect(h, func() hooks.Cleanup {
		n := reactive.Read[int](c.State, "count")
		if n > 0 && n%MilestoneEvery == 0 {
			c.milestones++
			c.logger.Info("milestone reached", "count", n)
		}
		return nil
	})

	return View{
		Count:   s.count,
		Step:    s.step,
		Double:  double,
		Parity:  parity,
		Paused:  s.paused,
		Renders: c.renders,
	}
}

// Tick adds step to count unless the counter is paused.
func (c *Counter) Tick() {
	if reactive.PeekAs[bool](c.State, "paused") {
		return
	}
	step := reactive.PeekAs[int](c.State, "step")
	c.State.Update("count", func(v any) any {
		n, _ := v.(int)
		return n + step
	})
}

// SetStep changes the increment. Values below 1 are clamped to 1.
func (c *Counter) SetStep(step int) {
	c.State.Set("step", step)
}

// Pause stops Tick from changing the count.
func (c *Counter) Pause() {
	c.State.Set("paused", true)
}

// Resume undoes Pause.
func (c *Counter) Resume() {
	c.State.Set("paused", false)
}

// Milestones returns how many milestones the effect has seen.
// Call it from the goroutine that drives the counter.
func (c *Counter) Milestones() int {
	return c.milestones
}
