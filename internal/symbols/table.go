// Package symbols implements the per-class symbol table used by the
// semantic analyzer and the code generator.
package symbols

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/you-not-fish/jack/internal/types"
)

// Kind classifies a symbol and determines its VM segment and lifetime.
type Kind uint8

const (
	None Kind = iota // lookup miss
	Static
	Field
	Arg
	Local
)

var kindNames = [...]string{
	None:   "none",
	Static: "static",
	Field:  "field",
	Arg:    "arg",
	Local:  "local",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Segment returns the VM memory segment that stores symbols of this
// kind.
func (k Kind) Segment() string {
	switch k {
	case Static:
		return "static"
	case Field:
		return "this"
	case Arg:
		return "argument"
	case Local:
		return "local"
	}
	return ""
}

// Symbol is one named variable: its type, kind, running index within
// the kind, and declaration location.
type Symbol struct {
	Type  *types.Type
	Kind  Kind
	Index int
	Line  int
	Col   int
}

// snapshot preserves a subroutine's scope so the table can be
// re-entered by name during code generation without re-analyzing.
type snapshot struct {
	name     string
	symbols  map[string]Symbol
	counters map[Kind]int
}

// Table manages the two visible scopes of a Jack class: the class scope
// (static and field symbols) and the scope of the subroutine currently
// being processed (arguments and locals). Each table is owned by a
// single compilation unit and is never shared across goroutines.
type Table struct {
	classScope map[string]Symbol
	subScope   map[string]Symbol
	counters   map[Kind]int

	history []snapshot
	current string
}

// New creates an empty table with all index counters at zero.
func New() *Table {
	return &Table{
		classScope: make(map[string]Symbol),
		subScope:   make(map[string]Symbol),
		counters:   make(map[Kind]int),
	}
}

// StartSubroutine opens a fresh subroutine scope: the sub-scope is
// cleared and the Arg and Local counters reset to zero. The new scope
// is recorded in the history under the given name.
func (t *Table) StartSubroutine(name string) {
	counters := map[Kind]int{
		Static: t.counters[Static],
		Field:  t.counters[Field],
	}
	symbols := make(map[string]Symbol)

	t.subScope = symbols
	t.counters = counters
	t.current = name

	// The history entry aliases the live maps, so definitions made
	// while this subroutine is current are preserved in the snapshot.
	t.history = append(t.history, snapshot{name: name, symbols: symbols, counters: counters})
}

// EnterSubroutine restores a previously analyzed subroutine's scope
// from the history.
func (t *Table) EnterSubroutine(name string) error {
	for i := len(t.history) - 1; i >= 0; i-- {
		if t.history[i].name == name {
			t.subScope = t.history[i].symbols
			t.counters = t.history[i].counters
			t.current = name
			return nil
		}
	}
	return fmt.Errorf("no analyzed subroutine named '%s'", name)
}

// Define adds a variable to the scope selected by its kind and assigns
// it the next index within that kind. A name already visible in either
// scope is an error: subroutine symbols may not shadow class symbols.
func (t *Table) Define(name string, typ *types.Type, kind Kind, line, col int) error {
	if prev, ok := t.Lookup(name); ok {
		return fmt.Errorf("symbol '%s' already defined at %d:%d", name, prev.Line, prev.Col)
	}

	sym := Symbol{
		Type:  typ,
		Kind:  kind,
		Index: t.counters[kind],
		Line:  line,
		Col:   col,
	}
	t.counters[kind]++

	switch kind {
	case Static, Field:
		t.classScope[name] = sym
	default:
		t.subScope[name] = sym
	}
	return nil
}

// Lookup finds a symbol by name, searching the subroutine scope first.
func (t *Table) Lookup(name string) (Symbol, bool) {
	if sym, ok := t.subScope[name]; ok {
		return sym, true
	}
	sym, ok := t.classScope[name]
	return sym, ok
}

// VarCount returns the number of symbols of the given kind in the
// current scope.
func (t *Table) VarCount(kind Kind) int {
	return t.counters[kind]
}

// KindOf returns the kind of the named symbol, or None.
func (t *Table) KindOf(name string) Kind {
	sym, ok := t.Lookup(name)
	if !ok {
		return None
	}
	return sym.Kind
}

// TypeOf returns the type of the named symbol, or nil.
func (t *Table) TypeOf(name string) *types.Type {
	sym, ok := t.Lookup(name)
	if !ok {
		return nil
	}
	return sym.Type
}

// IndexOf returns the index of the named symbol, or -1.
func (t *Table) IndexOf(name string) int {
	sym, ok := t.Lookup(name)
	if !ok {
		return -1
	}
	return sym.Index
}

// dumpSymbol is one row of the JSON export.
type dumpSymbol struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Kind  string `json:"kind"`
	Index int    `json:"index"`
	Line  int    `json:"line"`
	Col   int    `json:"col"`
}

// DumpJSON writes the class scope and every subroutine scope to w for
// external viewers.
func (t *Table) DumpJSON(className string, w io.Writer) error {
	out := map[string]interface{}{
		"class":   className,
		"symbols": sortedSymbols(t.classScope),
	}

	subs := make(map[string]interface{}, len(t.history))
	for _, snap := range t.history {
		subs[snap.name] = sortedSymbols(snap.symbols)
	}
	out["subroutines"] = subs

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func sortedSymbols(scope map[string]Symbol) []dumpSymbol {
	rows := make([]dumpSymbol, 0, len(scope))
	for name, sym := range scope {
		rows = append(rows, dumpSymbol{
			Name:  name,
			Type:  sym.Type.String(),
			Kind:  sym.Kind.String(),
			Index: sym.Index,
			Line:  sym.Line,
			Col:   sym.Col,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Index < rows[j].Index
	})
	return rows
}
