package main

import (
	"fmt"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"

	"github.com/wippyai/autocleanup/cleanup"
)

type lineKind int

const (
	lineTrace lineKind = iota
	lineAlloc
	lineFree
	lineCatch
	lineEvent
)

// tracer receives the demo's narration.
type tracer interface {
	line(kind lineKind, text string)
}

// nameError is a recoverable condition caught by h.
type nameError struct {
	name string
}

func (e *nameError) Error() string { return "name: " + e.name }

// failError is not handled anywhere in the call chain.
type failError struct {
	name string
	code int
}

func (e *failError) Error() string { return fmt.Sprintf("%s (code %d)", e.name, e.code) }

// demo walks main -> h -> g -> f, registering strings in different scopes
// and moving them between scopes by transfer and sharing.
type demo struct {
	c   *cleanup.Context
	out tracer
	// q is reserved by main's inner scope and receives a strong reference
	// created deep inside f.
	q cleanup.Handle
}

func (d *demo) tracef(format string, args ...any) {
	d.out.line(lineTrace, fmt.Sprintf(format, args...))
}

func (d *demo) strdup(s string) string {
	d.out.line(lineAlloc, fmt.Sprintf("Allocated string '%s'", s))
	d.c.Register(s, d.free)
	return s
}

func (d *demo) free(v any) {
	d.out.line(lineFree, fmt.Sprintf("Destructing string '%s'", v))
}

func (d *demo) f(x int, r cleanup.Handle) string {
	s := d.c.Enter()
	defer s.Leave()
	d.tracef("...enter f")

	d.strdup("String allocated in f")

	s2 := d.strdup("String allocated in f but to be destructed at the end of h")
	must.M(d.c.Transfer(must.M1(d.c.Latest()), r))

	d.strdup("Shared string allocated in f")
	shared := must.M1(d.c.Share(must.M1(d.c.Latest())))

	if x == 2 {
		panic(&nameError{name: "Got two as argument"})
	}

	must.M(d.c.Transfer(d.c.NewStrong(shared), d.q))

	if x == 3 {
		panic(&failError{name: "fake-fail-exception", code: -1})
	}

	d.tracef("...exit f")
	return s2
}

// g opens no scope of its own: its string belongs to the caller's scope.
func (d *demo) g(x int, r cleanup.Handle) string {
	d.tracef("..enter g")
	d.strdup("String allocated in g")
	p := d.f(x, r)
	d.tracef("..exit g")
	return p
}

func (d *demo) h(x int) (string, error) {
	s := d.c.Enter()
	defer s.Leave()

	r := d.c.Reserve()
	d.tracef(".enter h")

	var str string
	err := d.c.Try(func() {
		str = d.g(x, r)
		d.tracef("Function g returned %s", str)
		d.tracef("Got handle to shared string %s", must.M1(d.c.Value(d.q)))
	})
	if err != nil {
		d.out.line(lineCatch, "Enter catch block of h")
		var n *nameError
		if !errors.As(err, &n) {
			return "", errors.Wrap(err, "h")
		}
		d.out.line(lineCatch, "Caught name exception: "+n.name)
	}

	d.tracef(".exit h")
	return str, nil
}

func (d *demo) main(x int) error {
	d.tracef("enter main")
	d.strdup("String allocated in main")

	err := d.c.Run(func() error {
		d.tracef("enter main/inner scope")
		d.q = d.c.Reserve()
		if _, err := d.h(x); err != nil {
			return err
		}
		d.tracef("exit main/inner scope")
		return nil
	})
	if err != nil {
		return err
	}

	d.tracef("exit main")
	return nil
}

// runDemo runs the walkthrough on a fresh Context and closes it. Conditions
// that escape main, stack exhaustion included, are returned as errors.
func runDemo(opts cleanup.Options, x int, out tracer) error {
	return cleanup.Do(opts, func(c *cleanup.Context) error {
		d := &demo{c: c, out: out}
		if r, ok := out.(*recorder); ok {
			r.attach(c)
		}

		var err error
		if ex := c.Try(func() { err = d.main(x) }); ex != nil {
			return ex
		}
		return err
	})
}
