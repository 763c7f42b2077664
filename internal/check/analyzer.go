// Package check implements semantic analysis for parsed Jack classes:
// scope resolution, type checking, and symbol table construction.
package check

import (
	"fmt"

	"github.com/you-not-fish/jack/internal/registry"
	"github.com/you-not-fish/jack/internal/symbols"
	"github.com/you-not-fish/jack/internal/syntax"
	"github.com/you-not-fish/jack/internal/types"
)

// Error represents a semantic error. Unlike parsing, analysis stops at
// the first error in a unit.
type Error struct {
	Pos syntax.Pos
	Msg string
}

func (e *Error) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// Analyzer walks one class AST against the global registry, populating
// the class's symbol table and the resolved-type slots on expressions.
// It only reads the registry; the symbol table and AST it writes are
// owned by its compilation unit.
type Analyzer struct {
	reg *registry.Registry
	it  *types.Interner

	filename string
	table    *symbols.Table

	className string
	classType *types.Type
	sub       *syntax.SubroutineDec
}

// New creates an analyzer over the given registry and type pool.
func New(reg *registry.Registry, it *types.Interner) *Analyzer {
	return &Analyzer{reg: reg, it: it}
}

// errorAt builds a semantic error at the given node.
func (a *Analyzer) errorAt(n syntax.Node, format string, args ...interface{}) error {
	return &Error{Pos: n.Pos(), Msg: fmt.Sprintf(format, args...)}
}

// AnalyzeClass checks one class and fills in its symbol table. The
// first error encountered is returned; on success the table holds a
// snapshot for every subroutine and every expression that produces a
// value carries its resolved type.
func (a *Analyzer) AnalyzeClass(filename string, cls *syntax.Class, table *symbols.Table) error {
	a.filename = filename
	a.table = table
	a.className = cls.Name
	a.classType = a.it.Intern(cls.Name, nil)

	for _, dec := range cls.Vars {
		kind := symbols.Static
		if dec.Kind == syntax.FieldVar {
			kind = symbols.Field
		}
		if err := a.checkTypeKnown(dec.Type, dec); err != nil {
			return err
		}
		for _, name := range dec.Names {
			if err := a.table.Define(name, dec.Type, kind, dec.Pos().Line(), dec.Pos().Col()); err != nil {
				return a.errorAt(dec, "%s", err)
			}
		}
	}

	for _, sub := range cls.Subs {
		if err := a.analyzeSubroutine(sub); err != nil {
			return err
		}
	}

	return nil
}

// checkTypeKnown verifies that a type's base names a registered class
// or a primitive.
func (a *Analyzer) checkTypeKnown(t *types.Type, n syntax.Node) error {
	if !a.reg.ClassExists(t.Base) {
		return a.errorAt(n, "unknown type '%s'", t.Base)
	}
	return nil
}

// analyzeSubroutine opens a fresh subroutine scope, defines this (for
// methods), the parameters, and the locals, then checks the body.
func (a *Analyzer) analyzeSubroutine(sub *syntax.SubroutineDec) error {
	a.sub = sub
	a.table.StartSubroutine(sub.Name)

	if err := a.checkTypeKnown(sub.ReturnType, sub); err != nil {
		return err
	}

	line, col := sub.Pos().Line(), sub.Pos().Col()

	// A method receives its object as argument 0; explicit arguments
	// start at index 1. Functions and constructors start at 0.
	if sub.Kind == syntax.Method {
		if err := a.table.Define("this", a.classType, symbols.Arg, line, col); err != nil {
			return a.errorAt(sub, "%s", err)
		}
	}

	for _, prm := range sub.Params {
		if err := a.checkTypeKnown(prm.Type, sub); err != nil {
			return err
		}
		if err := a.table.Define(prm.Name, prm.Type, symbols.Arg, line, col); err != nil {
			return a.errorAt(sub, "%s", err)
		}
	}

	for _, dec := range sub.Locals {
		if err := a.checkTypeKnown(dec.Type, dec); err != nil {
			return err
		}
		for _, name := range dec.Names {
			if err := a.table.Define(name, dec.Type, symbols.Local, dec.Pos().Line(), dec.Pos().Col()); err != nil {
				return a.errorAt(dec, "%s", err)
			}
		}
	}

	if err := a.analyzeStmts(sub.Body); err != nil {
		return err
	}

	if !stmtsMustReturn(sub.Body) {
		return a.errorAt(sub, "subroutine '%s.%s' does not return on all paths", a.className, sub.Name)
	}

	return nil
}

// analyzeStmts checks a statement list.
func (a *Analyzer) analyzeStmts(stmts []syntax.Stmt) error {
	for _, s := range stmts {
		if err := a.analyzeStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// analyzeStmt checks a single statement.
func (a *Analyzer) analyzeStmt(s syntax.Stmt) error {
	switch s := s.(type) {
	case *syntax.LetStmt:
		return a.analyzeLet(s)
	case *syntax.IfStmt:
		return a.analyzeIf(s)
	case *syntax.WhileStmt:
		return a.analyzeWhile(s)
	case *syntax.DoStmt:
		_, err := a.analyzeCall(s.Call)
		return err
	case *syntax.ReturnStmt:
		return a.analyzeReturn(s)
	default:
		return a.errorAt(s, "unexpected statement %T", s)
	}
}

// analyzeLet checks a plain or indexed assignment. Array elements are
// word-sized untyped cells and are checked as int.
func (a *Analyzer) analyzeLet(s *syntax.LetStmt) error {
	sym, ok := a.table.Lookup(s.Name)
	if !ok {
		return a.errorAt(s, "unknown identifier '%s'", s.Name)
	}

	valType, err := a.analyzeExpr(s.Value)
	if err != nil {
		return err
	}

	if s.Index == nil {
		if !types.Compatible(sym.Type, valType) {
			return a.errorAt(s, "type mismatch: cannot assign '%s' to '%s %s'", valType, sym.Type, s.Name)
		}
		return nil
	}

	if sym.Type.Base != "Array" {
		return a.errorAt(s, "'%s' is not an Array and cannot be indexed", s.Name)
	}

	idxType, err := a.analyzeExpr(s.Index)
	if err != nil {
		return err
	}
	if idxType != a.it.Int {
		return a.errorAt(s.Index, "array index must be 'int', got '%s'", idxType)
	}
	if valType != a.it.Int {
		return a.errorAt(s.Value, "array element assignment must be 'int', got '%s'", valType)
	}
	return nil
}

// analyzeIf checks an if statement: the condition must be boolean.
func (a *Analyzer) analyzeIf(s *syntax.IfStmt) error {
	condType, err := a.analyzeExpr(s.Cond)
	if err != nil {
		return err
	}
	if condType != a.it.Boolean {
		return a.errorAt(s.Cond, "if condition must be 'boolean', got '%s'", condType)
	}

	if err := a.analyzeStmts(s.Then); err != nil {
		return err
	}
	return a.analyzeStmts(s.Else)
}

// analyzeWhile checks a while statement: the condition must be boolean.
func (a *Analyzer) analyzeWhile(s *syntax.WhileStmt) error {
	condType, err := a.analyzeExpr(s.Cond)
	if err != nil {
		return err
	}
	if condType != a.it.Boolean {
		return a.errorAt(s.Cond, "while condition must be 'boolean', got '%s'", condType)
	}

	return a.analyzeStmts(s.Body)
}

// analyzeReturn checks a return statement against the declared return
// type. Constructors must return this.
func (a *Analyzer) analyzeReturn(s *syntax.ReturnStmt) error {
	declared := a.sub.ReturnType

	if s.Value == nil {
		if !declared.IsVoid() {
			return a.errorAt(s, "missing return value in '%s' subroutine", declared)
		}
		return nil
	}

	if declared.IsVoid() {
		return a.errorAt(s, "unexpected return value in void subroutine")
	}

	if a.sub.Kind == syntax.Constructor {
		if kw, ok := s.Value.(*syntax.KeywordLit); !ok || kw.Word != syntax.ThisLit {
			return a.errorAt(s, "a constructor must return 'this'")
		}
	}

	valType, err := a.analyzeExpr(s.Value)
	if err != nil {
		return err
	}
	if !types.Compatible(declared, valType) {
		return a.errorAt(s, "type mismatch: cannot return '%s' from a '%s' subroutine", valType, declared)
	}
	return nil
}

// stmtsMustReturn reports whether every control-flow path through the
// statement list ends in a return. Loops are treated as potentially
// skipped entirely.
func stmtsMustReturn(stmts []syntax.Stmt) bool {
	for _, s := range stmts {
		if stmtMustReturn(s) {
			return true
		}
	}
	return false
}

func stmtMustReturn(s syntax.Stmt) bool {
	switch s := s.(type) {
	case *syntax.ReturnStmt:
		return true
	case *syntax.IfStmt:
		if s.Else == nil {
			return false
		}
		return stmtsMustReturn(s.Then) && stmtsMustReturn(s.Else)
	}
	return false
}
