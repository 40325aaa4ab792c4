package std

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/autocleanup/cleanup"
)

type fakeCloser struct {
	closed int
	err    error
}

func (f *fakeCloser) Close() error {
	f.closed++
	return f.err
}

func TestCloser(t *testing.T) {
	c := cleanup.NewWithDefaults()

	ok := &fakeCloser{}
	failing := &fakeCloser{err: errors.New("disk gone")}

	s := c.Enter()
	Closer(c, ok)
	Closer(c, failing)
	s.Leave()

	if ok.closed != 1 || failing.closed != 1 {
		t.Fatalf("closed = %d, %d, want 1, 1", ok.closed, failing.closed)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
}

type dropCounter struct {
	drops int
}

func (d *dropCounter) Drop() { d.drops++ }

func TestDrop(t *testing.T) {
	c := cleanup.NewWithDefaults()
	d := &dropCounter{}

	h := Drop(c, d)
	if err := c.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if d.drops != 1 {
		t.Fatalf("drops = %d, want 1", d.drops)
	}
}

func TestOpenAndCreate(t *testing.T) {
	c := cleanup.NewWithDefaults()
	name := filepath.Join(t.TempDir(), "data.txt")

	var f *os.File
	err := c.Run(func() error {
		var err error
		f, _, err = Create(c, name)
		if err != nil {
			return err
		}
		_, err = f.WriteString("hello")
		return err
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := f.WriteString("more"); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("write after scope = %v, want os.ErrClosed", err)
	}

	err = c.Run(func() error {
		r, _, err := Open(c, name)
		if err != nil {
			return err
		}
		buf := make([]byte, 16)
		n, err := r.Read(buf)
		if err != nil {
			return err
		}
		if string(buf[:n]) != "hello" {
			t.Errorf("read %q, want hello", buf[:n])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestOpen_FailureRegistersNothing(t *testing.T) {
	c := cleanup.NewWithDefaults()

	_, _, err := Open(c, filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Open = %v, want os.ErrNotExist", err)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
	if _, err := c.Latest(); err == nil {
		t.Fatal("failed Open must not set a latest registration")
	}
}

func TestAllocRealloc(t *testing.T) {
	c := cleanup.NewWithDefaults()

	buf, h := Alloc(c, 4)
	copy(buf, "abcd")

	grown, err := Realloc(c, h, 8)
	if err != nil {
		t.Fatalf("Realloc failed: %v", err)
	}
	if string(grown[:4]) != "abcd" || len(grown) != 8 {
		t.Fatalf("grown = %q", grown)
	}
	if buf[0] != 0 {
		t.Fatal("old buffer should be wiped")
	}

	v, _ := c.Value(h)
	if &v.([]byte)[0] != &grown[0] {
		t.Fatal("entry should hold the new buffer")
	}

	if err := c.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if grown[0] != 0 {
		t.Fatal("buffer should be wiped on release")
	}
}

func TestRealloc_NotABuffer(t *testing.T) {
	c := cleanup.NewWithDefaults()
	h := c.Register("text", nil)

	if _, err := Realloc(c, h, 8); err == nil {
		t.Fatal("Realloc of a non-buffer should fail")
	}
}

func TestLock(t *testing.T) {
	c := cleanup.NewWithDefaults()
	var mu sync.Mutex

	s := c.Enter()
	Lock(c, &mu)
	if mu.TryLock() {
		t.Fatal("mutex should be held inside the scope")
	}
	s.Leave()

	if !mu.TryLock() {
		t.Fatal("mutex should be released with the scope")
	}
	mu.Unlock()
}

// Empty module: magic and version only.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestWasm(t *testing.T) {
	ctx := context.Background()
	c := cleanup.NewWithDefaults()

	outer := c.Enter()
	rt, _ := NewRuntime(ctx, c, nil)
	compiled, _, err := CompileModule(ctx, c, rt, emptyModule)
	if err != nil {
		t.Fatalf("CompileModule failed: %v", err)
	}

	inner := c.Enter()
	mod, h, err := Instantiate(ctx, c, rt, compiled, nil)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	inner.Leave()

	if !mod.IsClosed() {
		t.Fatal("module should be closed with its scope")
	}
	if _, ok := c.Entry(h); ok {
		t.Fatal("module entry should be gone")
	}

	outer.Leave()
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
}

func TestCompileModule_Invalid(t *testing.T) {
	ctx := context.Background()
	c := cleanup.NewWithDefaults()
	defer c.Close()

	rt, _ := NewRuntime(ctx, c, wazero.NewRuntimeConfigInterpreter())
	before := c.Len()
	if _, _, err := CompileModule(ctx, c, rt, []byte("not wasm")); err == nil {
		t.Fatal("CompileModule should reject invalid bytes")
	}
	if c.Len() != before {
		t.Fatal("failed compile must not register anything")
	}
}
