package registry

import (
	"strings"
	"sync"
	"testing"

	"github.com/you-not-fish/jack/internal/syntax"
	"github.com/you-not-fish/jack/internal/types"
)

func sig(it *types.Interner, kind syntax.SubKind, ret *types.Type, params ...*types.Type) MethodSignature {
	return MethodSignature{ReturnType: ret, Params: params, Kind: kind}
}

func TestRegisterClass(t *testing.T) {
	r := New()

	if !r.RegisterClass("Point") {
		t.Error("first registration returned false")
	}
	if r.RegisterClass("Point") {
		t.Error("duplicate registration returned true")
	}
	if !r.ClassExists("Point") {
		t.Error("registered class does not exist")
	}
	if r.ClassExists("Square") {
		t.Error("unregistered class exists")
	}
	if r.ClassCount() != 1 {
		t.Errorf("ClassCount = %d, want 1", r.ClassCount())
	}
}

func TestClassExistsPrimitives(t *testing.T) {
	r := New()
	for _, name := range []string{"int", "char", "boolean", "void"} {
		if !r.ClassExists(name) {
			t.Errorf("primitive %q should always exist", name)
		}
	}
}

func TestRegisterMethod(t *testing.T) {
	it := types.NewInterner()
	r := New()
	r.RegisterClass("Point")

	s := sig(it, syntax.Method, it.Int)
	if !r.RegisterMethod("Point", "getX", s) {
		t.Error("first method registration returned false")
	}
	if r.RegisterMethod("Point", "getX", s) {
		t.Error("duplicate method registration returned true")
	}
	if !r.MethodExists("Point", "getX") {
		t.Error("registered method does not exist")
	}
	if r.MethodExists("Point", "getY") {
		t.Error("unregistered method exists")
	}
	if r.MethodExists("Square", "getX") {
		t.Error("method on unregistered class exists")
	}

	got, err := r.Signature("Point", "getX")
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}
	if got.Kind != syntax.Method || got.ReturnType != it.Int {
		t.Errorf("Signature = %+v", got)
	}
	if got.IsStatic() {
		t.Error("method signature reports static")
	}

	if _, err := r.Signature("Point", "getY"); err == nil {
		t.Error("Signature for missing method did not fail")
	}
	if _, err := r.Signature("Square", "getX"); err == nil {
		t.Error("Signature for missing class did not fail")
	}
}

func TestSignatureIsStatic(t *testing.T) {
	it := types.NewInterner()

	if !sig(it, syntax.Function, it.Void).IsStatic() {
		t.Error("function should be static")
	}
	if !sig(it, syntax.Constructor, it.Int).IsStatic() {
		t.Error("constructor should be static")
	}
	if sig(it, syntax.Method, it.Int).IsStatic() {
		t.Error("method should not be static")
	}
}

func TestLoadStandardLibrary(t *testing.T) {
	it := types.NewInterner()
	r := New()
	r.LoadStandardLibrary(it)

	for _, class := range []string{"Math", "String", "Array", "Output", "Screen", "Keyboard", "Memory", "Sys"} {
		if !r.ClassExists(class) {
			t.Errorf("OS class %q not registered", class)
		}
	}

	mul, err := r.Signature("Math", "multiply")
	if err != nil {
		t.Fatalf("Math.multiply: %v", err)
	}
	if mul.Kind != syntax.Function || len(mul.Params) != 2 || mul.ReturnType != it.Int {
		t.Errorf("Math.multiply signature = %+v", mul)
	}

	strNew, err := r.Signature("String", "new")
	if err != nil {
		t.Fatalf("String.new: %v", err)
	}
	if strNew.Kind != syntax.Constructor {
		t.Errorf("String.new kind = %v, want constructor", strNew.Kind)
	}

	appendChar, err := r.Signature("String", "appendChar")
	if err != nil {
		t.Fatalf("String.appendChar: %v", err)
	}
	if appendChar.Kind != syntax.Method || len(appendChar.Params) != 1 {
		t.Errorf("String.appendChar signature = %+v", appendChar)
	}
}

// Registrations from parallel parse tasks must be safe and must keep
// the first writer.
func TestRegisterConcurrent(t *testing.T) {
	r := New()

	const workers = 16
	wins := make([]bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wins[i] = r.RegisterClass("Main")
		}(i)
	}
	wg.Wait()

	count := 0
	for _, w := range wins {
		if w {
			count++
		}
	}
	if count != 1 {
		t.Errorf("%d registrations won, want exactly 1", count)
	}
}

func TestDumpJSON(t *testing.T) {
	it := types.NewInterner()
	r := New()
	r.RegisterClass("Point")
	r.RegisterMethod("Point", "new", sig(it, syntax.Constructor, it.Intern("Point", nil), it.Int, it.Int))

	var b strings.Builder
	if err := r.DumpJSON(&b); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{`"class": "Point"`, `"method": "new"`, `"type": "constructor"`, `"params": "int, int"`} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
