package main

import (
	"fmt"

	"github.com/wippyai/autocleanup/cleanup"
	"github.com/wippyai/autocleanup/resource"
)

// step is one recorded line together with the cleanup stack as it was
// when the line was emitted.
type step struct {
	text  string
	stack []string
	level int
	kind  lineKind
}

// recorder collects the run for the interactive viewer. It also observes
// engine events so every stack change shows up as a step.
type recorder struct {
	c     *cleanup.Context
	steps []step
}

func (r *recorder) attach(c *cleanup.Context) {
	r.c = c
	c.Subscribe(r)
}

func (r *recorder) line(kind lineKind, text string) {
	r.steps = append(r.steps, step{
		text:  text,
		stack: r.snapshot(),
		level: r.level(),
		kind:  kind,
	})
}

func (r *recorder) OnCleanupEvent(e cleanup.Event) {
	text := fmt.Sprintf("  [%s] %s at level %d", e.Type, e.Kind, e.Level)
	if e.Type == cleanup.EventScopeLeave {
		text = fmt.Sprintf("  [%s] level %d, %d released", e.Type, e.Level, e.Released)
	}
	r.line(lineEvent, text)
}

func (r *recorder) level() int {
	if r.c == nil {
		return 0
	}
	return r.c.Level()
}

func (r *recorder) snapshot() []string {
	if r.c == nil {
		return nil
	}
	var out []string
	r.c.Each(func(_ cleanup.Handle, e resource.Entry) bool {
		out = append(out, describe(e))
		return true
	})
	return out
}

func describe(e resource.Entry) string {
	switch e.Kind {
	case resource.KindMarker:
		return fmt.Sprintf("--- scope %d ---", e.Level)
	case resource.KindEmpty:
		return fmt.Sprintf("L%d empty", e.Level)
	case resource.KindStrong, resource.KindWeak:
		s := e.Value.(*cleanup.Shared)
		return fmt.Sprintf("L%d %s -> %q (strong=%d weak=%d)", e.Level, e.Kind, s.Value(), s.Strong(), s.Weak())
	default:
		return fmt.Sprintf("L%d %s %q", e.Level, e.Kind, e.Value)
	}
}
