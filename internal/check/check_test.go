package check

import (
	"strings"
	"testing"

	"github.com/you-not-fish/jack/internal/registry"
	"github.com/you-not-fish/jack/internal/symbols"
	"github.com/you-not-fish/jack/internal/syntax"
	"github.com/you-not-fish/jack/internal/types"
)

// analyzeAll parses, registers, and analyzes a set of class sources,
// returning the first analysis error. Parse errors fail the test: the
// inputs are meant to be syntactically valid.
func analyzeAll(t *testing.T, srcs ...string) error {
	t.Helper()

	it := types.NewInterner()
	reg := registry.New()
	reg.LoadStandardLibrary(it)

	type unit struct {
		cls *syntax.Class
		tbl *symbols.Table
	}
	var units []unit

	for _, src := range srcs {
		var errs []string
		errh := func(pos syntax.Pos, msg string) {
			errs = append(errs, pos.String()+": "+msg)
		}
		p := syntax.NewParser("test.jack", strings.NewReader(src), it, errh)
		cls := p.Parse()
		if len(errs) > 0 {
			t.Fatalf("parse errors: %v", errs)
		}

		reg.RegisterClass(cls.Name)
		for _, sub := range cls.Subs {
			params := make([]*types.Type, len(sub.Params))
			for i, prm := range sub.Params {
				params[i] = prm.Type
			}
			reg.RegisterMethod(cls.Name, sub.Name, registry.MethodSignature{
				ReturnType: sub.ReturnType,
				Params:     params,
				Kind:       sub.Kind,
			})
		}

		units = append(units, unit{cls: cls, tbl: symbols.New()})
	}

	for _, u := range units {
		a := New(reg, it)
		if err := a.AnalyzeClass("test.jack", u.cls, u.tbl); err != nil {
			return err
		}
	}
	return nil
}

// wantError asserts that analysis fails with a message containing want.
func wantError(t *testing.T, want string, srcs ...string) {
	t.Helper()
	err := analyzeAll(t, srcs...)
	if err == nil {
		t.Fatalf("expected an error containing %q, got none", want)
	}
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("error = %q, want it to contain %q", err, want)
	}
}

func TestAnalyzeValidProgram(t *testing.T) {
	point := `
class Point {
	field int x, y;

	constructor Point new(int ax, int ay) {
		let x = ax;
		let y = ay;
		return this;
	}

	method int sum() {
		return x + y;
	}

	method Point offset(int d) {
		return Point.new(x + d, y + d);
	}
}
`
	main := `
class Main {
	constructor Main init() { return this; }

	function void main() {
		var Point p;
		var int s;
		let p = Point.new(1, 2);
		let s = p.sum();
		do Output.printInt(s);
		return;
	}
}
`
	if err := analyzeAll(t, point, main); err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
}

// Every value-producing expression carries a resolved type after
// analysis.
func TestResolvedTypesSet(t *testing.T) {
	it := types.NewInterner()
	reg := registry.New()

	src := `
class T {
	field int n;
	constructor T new() { let n = 0; return this; }
	method boolean check(int limit) {
		var Array a;
		let a = Array.new(limit);
		let a[0] = n * 2;
		if (n < limit) { return true; }
		return false;
	}
}
`
	var errs []string
	errh := func(pos syntax.Pos, msg string) {
		errs = append(errs, msg)
	}
	p := syntax.NewParser("test.jack", strings.NewReader(src), it, errh)
	cls := p.Parse()
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}

	reg.LoadStandardLibrary(it)
	reg.RegisterClass(cls.Name)
	for _, sub := range cls.Subs {
		params := make([]*types.Type, len(sub.Params))
		for i, prm := range sub.Params {
			params[i] = prm.Type
		}
		reg.RegisterMethod(cls.Name, sub.Name, registry.MethodSignature{
			ReturnType: sub.ReturnType, Params: params, Kind: sub.Kind,
		})
	}

	a := New(reg, it)
	if err := a.AnalyzeClass("test.jack", cls, symbols.New()); err != nil {
		t.Fatalf("analysis failed: %v", err)
	}

	syntax.Walk(cls, func(n syntax.Node) bool {
		if x, ok := n.(syntax.Expr); ok {
			if x.ResolvedType() == nil {
				t.Errorf("%s: expression %T has no resolved type", x.Pos(), x)
			}
		}
		return true
	})
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"int_plus_boolean",
			`class Main {
				constructor Main init() { return this; }
				function void main() { var int b; let b = 1 + true; return; }
			}`,
			"type mismatch on binary operator '+'",
		},
		{
			"compare_boolean",
			`class Main {
				constructor Main init() { return this; }
				function void main() { var boolean b; let b = true < false; return; }
			}`,
			"type mismatch on binary operator '<'",
		},
		{
			"assign_mismatch",
			`class Main {
				constructor Main init() { return this; }
				function void main() { var int n; let n = true; return; }
			}`,
			"type mismatch",
		},
		{
			"unknown_identifier",
			`class Main {
				constructor Main init() { return this; }
				function void main() { let nope = 1; return; }
			}`,
			"unknown identifier 'nope'",
		},
		{
			"if_cond_not_boolean",
			`class Main {
				constructor Main init() { return this; }
				function void main() { if (1 + 2) { return; } return; }
			}`,
			"if condition must be 'boolean'",
		},
		{
			"while_cond_not_boolean",
			`class Main {
				constructor Main init() { return this; }
				function void main() { while (7) { } return; }
			}`,
			"while condition must be 'boolean'",
		},
		{
			"unary_minus_boolean",
			`class Main {
				constructor Main init() { return this; }
				function void main() { var int n; let n = -true; return; }
			}`,
			"unary '-' requires an 'int' operand",
		},
		{
			"index_non_array",
			`class Main {
				constructor Main init() { return this; }
				function void main() { var int n; let n[0] = 1; return; }
			}`,
			"is not an Array",
		},
		{
			"index_not_int",
			`class Main {
				constructor Main init() { return this; }
				function void main() { var Array a; let a[true] = 1; return; }
			}`,
			"array index must be 'int'",
		},
		{
			"this_in_function",
			`class Main {
				constructor Main init() { return this; }
				function Main get() { return this; }
				function void main() { return; }
			}`,
			"'this' cannot be used in a function",
		},
		{
			"return_value_in_void",
			`class Main {
				constructor Main init() { return this; }
				function void main() { return 1; }
			}`,
			"unexpected return value in void subroutine",
		},
		{
			"bare_return_in_int",
			`class Main {
				constructor Main init() { return this; }
				function int f() { return; }
				function void main() { return; }
			}`,
			"missing return value",
		},
		{
			"constructor_returns_non_this",
			`class Main {
				constructor Main init() { return null; }
				function void main() { return; }
			}`,
			"a constructor must return 'this'",
		},
		{
			"missing_return_path",
			`class Main {
				constructor Main init() { return this; }
				function int f(boolean b) { if (b) { return 1; } }
				function void main() { return; }
			}`,
			"does not return on all paths",
		},
		{
			"unknown_type",
			`class Main {
				constructor Main init() { return this; }
				function void main() { var Widget w; return; }
			}`,
			"unknown type 'Widget'",
		},
		{
			"shadowing_forbidden",
			`class Main {
				field int x;
				constructor Main init() { return this; }
				method void m() { var int x; return; }
				function void main() { return; }
			}`,
			"already defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantError(t, tt.want, tt.src)
		})
	}
}

func TestCallErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"unknown_method",
			`class Main {
				constructor Main init() { return this; }
				function void main() { do Main.missing(); return; }
			}`,
			"no subroutine 'missing'",
		},
		{
			"unknown_class",
			`class Main {
				constructor Main init() { return this; }
				function void main() { do Widget.run(); return; }
			}`,
			"unknown class or variable 'Widget'",
		},
		{
			"arg_count",
			`class Main {
				constructor Main init() { return this; }
				function int add(int a, int b) { return a + b; }
				function void main() { var int n; let n = Main.add(1); return; }
			}`,
			"argument count mismatch",
		},
		{
			"arg_type",
			`class Main {
				constructor Main init() { return this; }
				function int add(int a, int b) { return a + b; }
				function void main() { var int n; let n = Main.add(1, true); return; }
			}`,
			"type mismatch in argument 2",
		},
		{
			"method_via_class_name",
			`class Main {
				constructor Main init() { return this; }
				method void run() { return; }
				function void main() { do Main.run(); return; }
			}`,
			"needs an instance receiver",
		},
		{
			"bare_method_call_in_function",
			`class Main {
				constructor Main init() { return this; }
				method void run() { return; }
				function void main() { do run(); return; }
			}`,
			"without a receiver outside a method",
		},
		{
			"method_on_primitive",
			`class Main {
				constructor Main init() { return this; }
				function void main() { var int n; let n = 1; do n.run(); return; }
			}`,
			"cannot call a method on",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantError(t, tt.want, tt.src)
		})
	}
}

func TestNullUnifiesWithClasses(t *testing.T) {
	src := `
class Main {
	field Main next;

	constructor Main init() {
		let next = null;
		return this;
	}

	function void take(Main m) { return; }

	function void main() {
		do Main.take(null);
		return;
	}
}
`
	if err := analyzeAll(t, src); err != nil {
		t.Fatalf("null should unify with class types: %v", err)
	}
}

func TestEqualityOnSameTypes(t *testing.T) {
	src := `
class Main {
	constructor Main init() { return this; }

	function void main() {
		var Main a, b;
		var boolean eq;
		let a = Main.init();
		let b = a;
		let eq = a = b;
		let eq = a = null;
		return;
	}
}
`
	if err := analyzeAll(t, src); err != nil {
		t.Fatalf("equality on same class types failed: %v", err)
	}

	wantError(t, "type mismatch on binary operator '='", `
class Main {
	constructor Main init() { return this; }
	function void main() {
		var boolean eq;
		let eq = 1 = true;
		return;
	}
}`)
}

// Array<T> is display-only: Array<int> checks as plain Array.
func TestArrayGenericErasure(t *testing.T) {
	src := `
class Main {
	field Array<int> data;

	constructor Main init() {
		let data = Array.new(8);
		let data[0] = 42;
		return this;
	}

	function void main() { return; }
}
`
	if err := analyzeAll(t, src); err != nil {
		t.Fatalf("Array<int> should check as Array: %v", err)
	}
}
