package symbols

import (
	"strings"
	"testing"

	"github.com/you-not-fish/jack/internal/types"
)

func TestDefineAndLookup(t *testing.T) {
	it := types.NewInterner()
	tbl := New()

	if err := tbl.Define("count", it.Int, Static, 2, 9); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Define("x", it.Int, Field, 3, 9); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Define("y", it.Int, Field, 3, 12); err != nil {
		t.Fatal(err)
	}

	tbl.StartSubroutine("move")
	if err := tbl.Define("dx", it.Int, Arg, 5, 5); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Define("tmp", it.Int, Local, 6, 5); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		kind  Kind
		index int
	}{
		{"count", Static, 0},
		{"x", Field, 0},
		{"y", Field, 1},
		{"dx", Arg, 0},
		{"tmp", Local, 0},
	}
	for _, tt := range tests {
		sym, ok := tbl.Lookup(tt.name)
		if !ok {
			t.Fatalf("Lookup(%q) missed", tt.name)
		}
		if sym.Kind != tt.kind || sym.Index != tt.index {
			t.Errorf("%q = (%v, %d), want (%v, %d)", tt.name, sym.Kind, sym.Index, tt.kind, tt.index)
		}
	}

	if k := tbl.KindOf("nope"); k != None {
		t.Errorf("KindOf(missing) = %v, want None", k)
	}
	if i := tbl.IndexOf("nope"); i != -1 {
		t.Errorf("IndexOf(missing) = %d, want -1", i)
	}
	if typ := tbl.TypeOf("nope"); typ != nil {
		t.Errorf("TypeOf(missing) = %v, want nil", typ)
	}
}

// Index monotonicity: each kind's indices are assigned 0, 1, 2, ... in
// definition order.
func TestIndexMonotonicity(t *testing.T) {
	it := types.NewInterner()
	tbl := New()
	tbl.StartSubroutine("f")

	names := []string{"a", "b", "c", "d"}
	for i, name := range names {
		if err := tbl.Define(name, it.Int, Local, 1, 1); err != nil {
			t.Fatal(err)
		}
		if got := tbl.IndexOf(name); got != i {
			t.Errorf("IndexOf(%q) = %d, want %d", name, got, i)
		}
	}
	if tbl.VarCount(Local) != len(names) {
		t.Errorf("VarCount(Local) = %d, want %d", tbl.VarCount(Local), len(names))
	}
}

func TestDefineDuplicates(t *testing.T) {
	it := types.NewInterner()
	tbl := New()

	if err := tbl.Define("x", it.Int, Field, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Define("x", it.Int, Field, 2, 1); err == nil {
		t.Error("duplicate field definition did not fail")
	}

	// No shadowing: a local may not reuse a class-scope name.
	tbl.StartSubroutine("f")
	if err := tbl.Define("x", it.Int, Local, 3, 1); err == nil {
		t.Error("local shadowing a field did not fail")
	}

	if err := tbl.Define("n", it.Int, Arg, 4, 1); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Define("n", it.Int, Local, 5, 1); err == nil {
		t.Error("duplicate name across sub-scope kinds did not fail")
	}
}

func TestStartSubroutineResets(t *testing.T) {
	it := types.NewInterner()
	tbl := New()
	tbl.Define("f0", it.Int, Field, 1, 1)

	tbl.StartSubroutine("a")
	tbl.Define("p", it.Int, Arg, 2, 1)
	tbl.Define("v", it.Int, Local, 3, 1)

	tbl.StartSubroutine("b")
	if tbl.VarCount(Arg) != 0 || tbl.VarCount(Local) != 0 {
		t.Error("Arg/Local counters were not reset")
	}
	if _, ok := tbl.Lookup("p"); ok {
		t.Error("previous subroutine's arg still visible")
	}
	if _, ok := tbl.Lookup("f0"); !ok {
		t.Error("class scope lost after StartSubroutine")
	}
	if tbl.VarCount(Field) != 1 {
		t.Errorf("VarCount(Field) = %d, want 1", tbl.VarCount(Field))
	}

	// The new scope may reuse names from the previous subroutine.
	if err := tbl.Define("p", it.Boolean, Local, 4, 1); err != nil {
		t.Errorf("reusing a name from a previous subroutine failed: %v", err)
	}
}

// The history lets the generator re-enter scopes without re-analyzing.
func TestEnterSubroutine(t *testing.T) {
	it := types.NewInterner()
	tbl := New()

	tbl.StartSubroutine("first")
	tbl.Define("a", it.Int, Local, 1, 1)
	tbl.Define("b", it.Int, Local, 2, 1)

	tbl.StartSubroutine("second")
	tbl.Define("z", it.Boolean, Arg, 3, 1)

	if err := tbl.EnterSubroutine("first"); err != nil {
		t.Fatal(err)
	}
	if tbl.VarCount(Local) != 2 {
		t.Errorf("restored VarCount(Local) = %d, want 2", tbl.VarCount(Local))
	}
	if sym, ok := tbl.Lookup("b"); !ok || sym.Index != 1 {
		t.Errorf("restored symbol b = %+v, %v", sym, ok)
	}
	if _, ok := tbl.Lookup("z"); ok {
		t.Error("symbol from another subroutine leaked into restored scope")
	}

	if err := tbl.EnterSubroutine("missing"); err == nil {
		t.Error("entering an unknown subroutine did not fail")
	}
}

// Segment mapping law: each kind maps to its VM segment.
func TestKindSegment(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Static, "static"},
		{Field, "this"},
		{Arg, "argument"},
		{Local, "local"},
		{None, ""},
	}
	for _, tt := range tests {
		if got := tt.kind.Segment(); got != tt.want {
			t.Errorf("%v.Segment() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestDumpJSON(t *testing.T) {
	it := types.NewInterner()
	tbl := New()
	tbl.Define("x", it.Int, Field, 1, 1)
	tbl.StartSubroutine("f")
	tbl.Define("v", it.Boolean, Local, 2, 1)

	var b strings.Builder
	if err := tbl.DumpJSON("Point", &b); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{`"class": "Point"`, `"name": "x"`, `"kind": "field"`, `"name": "v"`, `"kind": "local"`} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
