package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/janpfeifer/must"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/autocleanup/cleanup"
)

func main() {
	var (
		x           = flag.Int("x", -1, "Argument passed down to f (2: handled condition, 3: unhandled condition)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Log cleanup engine operations")
		maxEntries  = flag.Int("max", 0, "Cleanup stack entry limit (0: unlimited)")
	)
	flag.Parse()

	if flag.NArg() > 0 {
		v, err := strconv.Atoi(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "Usage: acu [-x n | n] [-i] [-v] [-max entries]")
			os.Exit(1)
		}
		*x = v
	}

	opts := cleanup.DefaultOptions()
	opts.MaxEntries = *maxEntries
	if *verbose {
		opts.Logger = must.M1(zap.NewDevelopment())
		defer opts.Logger.Sync()
	}

	if *interactive {
		if err := runInteractive(opts, *x); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runDemo(opts, *x, newConsole(os.Stdout, os.Stderr)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	allocStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	freeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	catchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func styleFor(kind lineKind) (lipgloss.Style, bool) {
	switch kind {
	case lineAlloc:
		return allocStyle, true
	case lineFree:
		return freeStyle, true
	case lineCatch:
		return catchStyle, true
	case lineEvent:
		return eventStyle, true
	}
	return lipgloss.Style{}, false
}

// console prints trace lines to out and resource lines to diag, styled
// when stdout is a terminal.
type console struct {
	out    io.Writer
	diag   io.Writer
	styled bool
}

func newConsole(out, diag *os.File) *console {
	return &console{
		out:    out,
		diag:   diag,
		styled: term.IsTerminal(int(out.Fd())),
	}
}

func (c *console) line(kind lineKind, text string) {
	w := c.out
	if kind == lineAlloc || kind == lineFree {
		w = c.diag
	}
	if c.styled {
		if st, ok := styleFor(kind); ok {
			text = st.Render(text)
		}
	}
	fmt.Fprintln(w, text)
}
