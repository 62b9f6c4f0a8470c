package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/reflex/pkg/telemetry"
)

func TestMountOrder(t *testing.T) {
	var log []string
	c := New("order", func(h Host) string {
		log = append(log, "render")
		h.OnMount(AfterPaint, func() { log = append(log, "after") }, nil)
		h.OnMount(BeforePaint, func() { log = append(log, "before") }, nil)
		return "view"
	}, nil)
	c.OnPaint(func(v string) { log = append(log, "paint:"+v) })

	c.Mount()
	c.Mount()

	want := "render,before,paint:view,after"
	if got := strings.Join(log, ","); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if !c.Mounted() {
		t.Error("component should be mounted")
	}
}

func TestSetupRunsOncePerMount(t *testing.T) {
	setups := 0
	c := New("once", func(h Host) int {
		n, _ := h.UseCounter()
		h.OnMount(AfterPaint, func() { setups++ }, nil)
		return n
	}, nil)

	c.Mount()
	_, bump := captureCounter(c)
	bump()
	if !c.Flush() {
		t.Fatal("expected flush to render")
	}
	bump()
	c.Flush()

	if setups != 1 {
		t.Errorf("expected 1 setup, got %d", setups)
	}
	if got := c.View(); got != 2 {
		t.Errorf("expected view 2, got %d", got)
	}
	if got := c.Renders(); got != 3 {
		t.Errorf("expected 3 renders, got %d", got)
	}
}

// captureCounter returns the bump function of the component's first counter.
func captureCounter(c *Component[int]) (int, func()) {
	ctr := c.hookSlots[0].(*counter)
	return int(ctr.value.Load()), func() {
		ctr.value.Add(1)
		c.invalidate()
	}
}

func TestFlushWhenClean(t *testing.T) {
	c := New("clean", func(h Host) int { return 1 }, nil)
	if c.Flush() {
		t.Error("flush before mount should not render")
	}
	c.Mount()
	if c.Flush() {
		t.Error("flush on clean component should not render")
	}
}

func TestUnmountTeardownOrder(t *testing.T) {
	var log []string
	c := New("teardown", func(h Host) int {
		h.OnMount(AfterPaint, nil, func() { log = append(log, "after-1") })
		h.OnMount(BeforePaint, nil, func() { log = append(log, "before-1") })
		h.OnMount(AfterPaint, nil, func() { log = append(log, "after-2") })
		h.OnMount(BeforePaint, nil, func() { log = append(log, "before-2") })
		return 0
	}, nil)

	c.Mount()
	c.Unmount()
	c.Unmount()

	want := "before-2,before-1,after-2,after-1"
	if got := strings.Join(log, ","); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if c.Mounted() {
		t.Error("component should not be mounted")
	}
}

func TestUnmountBeforeMountIsNoop(t *testing.T) {
	torn := false
	c := New("idle", func(h Host) int {
		h.OnMount(AfterPaint, nil, func() { torn = true })
		return 0
	}, nil)
	c.Unmount()
	if torn {
		t.Error("teardown ran without mount")
	}
}

func TestBumpAfterUnmountDoesNotRender(t *testing.T) {
	var bump func()
	c := New("late", func(h Host) int {
		n, b := h.UseCounter()
		bump = b
		return n
	}, nil)
	c.Mount()
	c.Unmount()

	bump()
	if c.Flush() {
		t.Error("unmounted component should not render")
	}
}

func TestHookOutsideRenderPanics(t *testing.T) {
	c := New("outside", func(h Host) int { return 0 }, nil)
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNotRendering) {
			t.Errorf("expected ErrNotRendering, got %v", r)
		}
	}()
	c.UseCounter()
}

func TestHookSlotTypeMismatchPanics(t *testing.T) {
	first := true
	c := New("mismatch", func(h Host) int {
		if first {
			h.UseCounter()
		} else {
			h.OnMount(AfterPaint, nil, nil)
		}
		return 0
	}, nil)
	c.Mount()
	first = false
	c.dirty.Store(true)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on hook order change")
		}
	}()
	c.Flush()
}

func TestRenderPanicPropagates(t *testing.T) {
	c := New("boom", func(h Host) int { panic("render failed") }, nil)
	defer func() {
		if r := recover(); r != "render failed" {
			t.Errorf("expected render panic to propagate, got %v", r)
		}
	}()
	c.Mount()
}

func TestObserverSeesRendersAndInvalidations(t *testing.T) {
	kinds := map[telemetry.Kind]int{}
	var bump func()
	c := New("observed", func(h Host) int {
		n, b := h.UseCounter()
		bump = b
		return n
	}, &Config{Observer: telemetry.ObserverFunc(func(ev telemetry.Event) {
		kinds[ev.Kind]++
	})})

	c.Mount()
	bump()
	bump()
	c.Flush()

	if kinds[telemetry.KindRender] != 2 {
		t.Errorf("expected 2 render events, got %d", kinds[telemetry.KindRender])
	}
	if kinds[telemetry.KindInvalidate] != 1 {
		t.Errorf("expected 1 invalidation while dirty, got %d", kinds[telemetry.KindInvalidate])
	}
}

func TestLoopFlushesScheduledComponents(t *testing.T) {
	loop := NewLoop(DefaultLoopConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	painted := make(chan int, 8)
	var bump func()
	c := New("looped", func(h Host) int {
		n, b := h.UseCounter()
		bump = b
		return n
	}, &Config{Scheduler: loop.Scheduler()})
	c.OnPaint(func(v int) { painted <- v })

	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	if err := loop.Dispatch(c.Mount); err != nil {
		t.Fatalf("dispatch mount: %v", err)
	}
	expectPaint(t, painted, 0)

	if err := loop.Dispatch(func() { bump() }); err != nil {
		t.Fatalf("dispatch bump: %v", err)
	}
	expectPaint(t, painted, 1)

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := loop.Dispatch(func() {}); !errors.Is(err, ErrLoopClosed) {
		t.Errorf("expected ErrLoopClosed, got %v", err)
	}
}

func expectPaint(t *testing.T, painted <-chan int, want int) {
	t.Helper()
	select {
	case got := <-painted:
		if got != want {
			t.Errorf("expected paint %d, got %d", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for paint %d", want)
	}
}

func TestLoopRecoversPanics(t *testing.T) {
	reported := make(chan error, 1)
	loop := NewLoop(LoopConfig{OnError: func(err error) { reported <- err }})
	done := make(chan struct{})
	go func() {
		loop.Run(context.Background())
		close(done)
	}()

	cause := errors.New("effect failed")
	loop.Dispatch(func() { panic(cause) })

	select {
	case err := <-reported:
		var pe *PanicError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *PanicError, got %T", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("expected wrapped cause, got %v", err)
		}
		if len(pe.Stack) == 0 {
			t.Error("expected stack trace")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("panic was not reported")
	}

	ran := make(chan struct{})
	loop.Dispatch(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("loop stopped after panic")
	}

	loop.Close()
	<-done
	if loop.Panics() != 1 {
		t.Errorf("expected 1 panic, got %d", loop.Panics())
	}
}

func TestDispatchQueueFull(t *testing.T) {
	loop := NewLoop(LoopConfig{QueueSize: 1})
	defer loop.Close()

	if err := loop.Dispatch(func() {}); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	if err := loop.Dispatch(func() {}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{
		BeforePaint: "before-paint",
		AfterPaint:  "after-paint",
		Phase(9):    "unknown",
	} {
		if got := phase.String(); got != want {
			t.Errorf("%d: expected %q, got %q", phase, want, got)
		}
	}
}

func TestPanicErrorMessage(t *testing.T) {
	err := &PanicError{Value: "boom"}
	if got := err.Error(); got != fmt.Sprintf("host: panic: %v", "boom") {
		t.Errorf("unexpected message %q", got)
	}
	if err.Unwrap() != nil {
		t.Error("non-error panic value should not unwrap")
	}
}

func TestSetupsCanReadComponentState(t *testing.T) {
	var c *Component[string]
	var seen []string
	c = New("reader", func(h Host) string {
		h.OnMount(BeforePaint, func() {
			seen = append(seen, fmt.Sprintf("before:%s:%d", c.View(), c.Renders()))
		}, nil)
		h.OnMount(AfterPaint, func() {
			seen = append(seen, fmt.Sprintf("after:%v", c.Mounted()))
		}, func() {
			seen = append(seen, fmt.Sprintf("teardown:%v", c.Mounted()))
		})
		return "view"
	}, nil)
	c.OnPaint(func(string) {
		seen = append(seen, fmt.Sprintf("paint:%d", c.Renders()))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Mount()
		c.Unmount()
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lifecycle callbacks blocked on component state")
	}

	want := "before:view:1,paint:1,after:true,teardown:false"
	if got := strings.Join(seen, ","); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
