package resource

import (
	"errors"
	"testing"

	acuerrors "github.com/wippyai/autocleanup/errors"
)

type releaseLog struct {
	order []string
}

func (l *releaseLog) entry(name string, level int) Entry {
	return Entry{
		Record: Record{
			Value:   name,
			Release: func(v any) { l.order = append(l.order, v.(string)) },
		},
		Kind:  KindOwned,
		Caps:  CapAll,
		Level: level,
	}
}

func mustPush(t *testing.T, s *Stack, e Entry) Handle {
	t.Helper()
	h, err := s.Push(e)
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	return h
}

func equalOrder(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestStack_Basic(t *testing.T) {
	s := NewStack(4, 0)
	log := &releaseLog{}

	h := mustPush(t, s, log.entry("a", 0))
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}
	if s.Top() != h {
		t.Fatal("Top should be the pushed entry")
	}

	e, ok := s.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if e.Value != "a" || e.Kind != KindOwned || e.Caps != CapAll {
		t.Fatalf("unexpected entry %+v", e)
	}

	if !s.Release(h) {
		t.Fatal("Release failed")
	}
	if !equalOrder(log.order, []string{"a"}) {
		t.Fatalf("release order = %v", log.order)
	}
	if s.Len() != 0 || s.Top() != 0 {
		t.Fatal("stack should be empty")
	}
}

func TestStack_UnwindLIFO(t *testing.T) {
	s := NewStack(0, 0)
	log := &releaseLog{}

	mustPush(t, s, log.entry("a", 1))
	mustPush(t, s, log.entry("b", 1))
	mustPush(t, s, log.entry("c", 1))

	n, ok := s.Unwind(0, 1)
	if !ok || n != 3 {
		t.Fatalf("Unwind = (%d, %v), want (3, true)", n, ok)
	}
	if !equalOrder(log.order, []string{"c", "b", "a"}) {
		t.Fatalf("release order = %v, want [c b a]", log.order)
	}
}

func TestStack_UnwindToMark(t *testing.T) {
	s := NewStack(0, 0)
	log := &releaseLog{}

	mustPush(t, s, log.entry("outer", 0))
	mark := mustPush(t, s, Entry{Kind: KindMarker, Level: 1})
	mustPush(t, s, log.entry("inner1", 1))
	mustPush(t, s, log.entry("inner2", 1))

	n, ok := s.Unwind(mark, 1)
	if !ok {
		t.Fatal("Unwind rejected a live mark")
	}
	if n != 3 {
		t.Fatalf("released %d entries, want 3 (two values and the mark)", n)
	}
	if !equalOrder(log.order, []string{"inner2", "inner1"}) {
		t.Fatalf("release order = %v", log.order)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	if _, ok := s.Unwind(mark, 1); ok {
		t.Fatal("Unwind should reject a released mark")
	}
}

func TestStack_UnwindSkipsYielded(t *testing.T) {
	s := NewStack(0, 0)
	log := &releaseLog{}

	mark := mustPush(t, s, Entry{Kind: KindMarker, Level: 2})
	mustPush(t, s, log.entry("a", 2))
	kept1 := mustPush(t, s, log.entry("kept1", 1))
	mustPush(t, s, log.entry("b", 2))
	kept2 := mustPush(t, s, log.entry("kept2", 1))
	mustPush(t, s, log.entry("c", 2))

	if _, ok := s.Unwind(mark, 2); !ok {
		t.Fatal("Unwind failed")
	}
	if !equalOrder(log.order, []string{"c", "b", "a"}) {
		t.Fatalf("release order = %v, want [c b a]", log.order)
	}

	// Survivors keep their order and stay properly linked.
	var seen []Handle
	s.Each(func(h Handle, e Entry) bool {
		seen = append(seen, h)
		return true
	})
	if len(seen) != 2 || seen[0] != kept2 || seen[1] != kept1 {
		t.Fatalf("survivors = %v, want [kept2 kept1]", seen)
	}
	if s.Top() != kept2 {
		t.Fatal("Top should be kept2")
	}

	log.order = nil
	s.Unwind(0, 1)
	if !equalOrder(log.order, []string{"kept2", "kept1"}) {
		t.Fatalf("release order = %v, want [kept2 kept1]", log.order)
	}
}

func TestStack_UnlinkMiddle(t *testing.T) {
	s := NewStack(0, 0)
	log := &releaseLog{}

	mustPush(t, s, log.entry("a", 0))
	b := mustPush(t, s, log.entry("b", 0))
	mustPush(t, s, log.entry("c", 0))

	e, ok := s.Unlink(b)
	if !ok {
		t.Fatal("Unlink failed")
	}
	if e.Value != "b" {
		t.Fatalf("Unlink returned %v", e.Value)
	}
	if len(log.order) != 0 {
		t.Fatal("Unlink must not release")
	}

	s.Drain()
	if !equalOrder(log.order, []string{"c", "a"}) {
		t.Fatalf("release order = %v, want [c a]", log.order)
	}
}

func TestStack_StaleHandle(t *testing.T) {
	s := NewStack(0, 0)

	h1 := mustPush(t, s, Entry{Kind: KindEmpty})
	s.Release(h1)

	h2 := mustPush(t, s, Entry{Kind: KindEmpty})
	if h1 == h2 {
		t.Fatal("reused slot must get a new generation")
	}
	if s.Contains(h1) {
		t.Fatal("stale handle must not address the reused slot")
	}
	if _, ok := s.Get(h1); ok {
		t.Fatal("Get on stale handle should fail")
	}
	if s.Set(h1, Entry{}) {
		t.Fatal("Set on stale handle should fail")
	}
	if s.Release(h1) {
		t.Fatal("Release on stale handle should fail")
	}
	if !s.Contains(h2) {
		t.Fatal("h2 should be live")
	}
}

func TestStack_InvalidHandle(t *testing.T) {
	s := NewStack(0, 0)

	if _, ok := s.Get(0); ok {
		t.Fatal("Handle 0 should be invalid")
	}
	if _, ok := s.Unlink(0); ok {
		t.Fatal("Handle 0 should fail Unlink")
	}
	if _, ok := s.Get(Handle(999)); ok {
		t.Fatal("Non-existent handle should be invalid")
	}
}

func TestStack_Set(t *testing.T) {
	s := NewStack(0, 0)
	a := mustPush(t, s, Entry{Kind: KindEmpty, Caps: CapAll, Level: 3})
	b := mustPush(t, s, Entry{Kind: KindEmpty, Level: 3})

	if !s.Set(a, Entry{Record: Record{Value: 7}, Kind: KindOwned, Caps: CapTransfer, Level: 1}) {
		t.Fatal("Set failed")
	}
	e, _ := s.Get(a)
	if e.Value != 7 || e.Kind != KindOwned || e.Caps != CapTransfer || e.Level != 1 {
		t.Fatalf("unexpected entry after Set: %+v", e)
	}
	if s.Top() != b {
		t.Fatal("Set must not move the entry")
	}
}

func TestStack_MaxEntries(t *testing.T) {
	s := NewStack(0, 2)
	mustPush(t, s, Entry{})
	mustPush(t, s, Entry{})

	_, err := s.Push(Entry{})
	if !errors.Is(err, acuerrors.ErrExhausted) {
		t.Fatalf("Push past limit = %v, want ErrExhausted", err)
	}
	if err != acuerrors.ErrExhausted {
		t.Fatal("exhaustion must report the static failure object")
	}
}

func TestStack_ReentrantRelease(t *testing.T) {
	s := NewStack(0, 0)
	var order []string

	a := mustPush(t, s, Entry{
		Record: Record{Value: "a", Release: func(any) { order = append(order, "a") }},
		Level:  1,
	})
	mustPush(t, s, Entry{
		Record: Record{Value: "b", Release: func(any) {
			order = append(order, "b")
			// Releasing a pending victim from inside a release function.
			s.Release(a)
		}},
		Level: 1,
	})

	n, _ := s.Unwind(0, 1)
	if n != 1 {
		t.Fatalf("Unwind counted %d, want 1 (a was released by b)", n)
	}
	if !equalOrder(order, []string{"b", "a"}) {
		t.Fatalf("order = %v, want [b a]", order)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
}

type dropCounter struct{ n int }

func (d *dropCounter) Drop() { d.n++ }

func TestReleaseDropper(t *testing.T) {
	s := NewStack(0, 0)
	d := &dropCounter{}
	mustPush(t, s, Entry{Record: Record{Value: d, Release: ReleaseDropper}})
	mustPush(t, s, Entry{Record: Record{Value: "not a dropper", Release: ReleaseDropper}})

	s.Drain()
	if d.n != 1 {
		t.Fatalf("Drop called %d times, want 1", d.n)
	}
}

func TestCaps(t *testing.T) {
	if !CapAll.Has(CapShare | CapSubmit) {
		t.Error("CapAll should include share and submit")
	}
	if CapTransfer.Has(CapShare) {
		t.Error("CapTransfer should not include share")
	}
	if got := CapAll.String(); got != "transfer|share|submit" {
		t.Errorf("CapAll.String() = %q", got)
	}
	if got := CapNone.String(); got != "none" {
		t.Errorf("CapNone.String() = %q", got)
	}
	if KindWeak.String() != "weak" {
		t.Errorf("KindWeak.String() = %q", KindWeak.String())
	}
}
