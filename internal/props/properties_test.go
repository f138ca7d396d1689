package props

import "testing"

func TestProperties_SetAllAndGet(t *testing.T) {
	p := New()
	p.SetAll(Aliases("s1", "username"), "alice")

	for _, k := range Aliases("s1", "username") {
		if got := p.Get(k, ""); got != "alice" {
			t.Errorf("%s = %q, want %q", k, got, "alice")
		}
	}
	if got := p.Get("missing", "fallback"); got != "fallback" {
		t.Errorf("Get(missing) = %q, want fallback", got)
	}
}

func TestProperties_KeysSorted(t *testing.T) {
	p := Properties{"b": "2", "a": "1", "c": "3"}
	keys := p.Keys()
	want := []string{"a", "b", "c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestProperties_MergeIntoOverwrites(t *testing.T) {
	dst := map[string]string{"a": "old", "keep": "x"}
	Properties{"a": "new", "b": "2"}.MergeInto(dst)

	if dst["a"] != "new" || dst["b"] != "2" || dst["keep"] != "x" {
		t.Errorf("dst = %v", dst)
	}
}

func TestLookup_FirstHitWins(t *testing.T) {
	m := map[string]string{"second": "2", "first": "1"}
	v, ok := Lookup(m, []string{"first", "second"})
	if !ok || v != "1" {
		t.Errorf("Lookup = (%q, %v), want (1, true)", v, ok)
	}
	if _, ok := Lookup(m, []string{"none"}); ok {
		t.Error("Lookup found a missing key")
	}
}
