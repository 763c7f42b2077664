package vmgen

import (
	"fmt"
	"io"

	"github.com/you-not-fish/jack/internal/registry"
	"github.com/you-not-fish/jack/internal/symbols"
	"github.com/you-not-fish/jack/internal/syntax"
)

// arithOps maps Jack binary operators to VM commands. '*' and '/' have
// no VM instruction and compile to OS calls.
var arithOps = map[string]string{
	"+": "add",
	"-": "sub",
	"&": "and",
	"|": "or",
	"<": "lt",
	">": "gt",
	"=": "eq",
}

// Generator lowers one analyzed class to VM code. It consults the
// class's symbol table (re-entering each subroutine scope from history)
// and the global registry for call resolution.
type Generator struct {
	reg   *registry.Registry
	table *symbols.Table
	w     *Writer

	className string
	sub       *syntax.SubroutineDec

	// Per-subroutine label counters. Labels within one subroutine are
	// pairwise distinct; counters reset at each subroutine.
	ifCount    int
	whileCount int
}

// New creates a generator writing to out.
func New(reg *registry.Registry, table *symbols.Table, out io.Writer) *Generator {
	return &Generator{reg: reg, table: table, w: NewWriter(out)}
}

// CompileClass emits VM code for every subroutine of the class.
func (g *Generator) CompileClass(cls *syntax.Class) error {
	g.className = cls.Name

	for _, sub := range cls.Subs {
		if err := g.compileSubroutine(sub); err != nil {
			return err
		}
	}

	return g.w.Err()
}

// compileSubroutine emits the function directive, the kind-specific
// prologue, and the body.
func (g *Generator) compileSubroutine(sub *syntax.SubroutineDec) error {
	if err := g.table.EnterSubroutine(sub.Name); err != nil {
		return err
	}
	g.sub = sub
	g.ifCount = 0
	g.whileCount = 0

	g.w.Function(g.className+"."+sub.Name, g.table.VarCount(symbols.Local))

	switch sub.Kind {
	case syntax.Constructor:
		// Allocate the object and point this at it.
		g.w.Push("constant", g.table.VarCount(symbols.Field))
		g.w.Call("Memory.alloc", 1)
		g.w.Pop("pointer", 0)

	case syntax.Method:
		// The receiver arrives as argument 0.
		g.w.Push("argument", 0)
		g.w.Pop("pointer", 0)
	}

	return g.compileStmts(sub.Body)
}

// compileStmts lowers a statement list.
func (g *Generator) compileStmts(stmts []syntax.Stmt) error {
	for _, s := range stmts {
		if err := g.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// compileStmt lowers a single statement.
func (g *Generator) compileStmt(s syntax.Stmt) error {
	switch s := s.(type) {
	case *syntax.LetStmt:
		return g.compileLet(s)
	case *syntax.IfStmt:
		return g.compileIf(s)
	case *syntax.WhileStmt:
		return g.compileWhile(s)
	case *syntax.DoStmt:
		// The call's result is discarded.
		if err := g.compileCall(s.Call); err != nil {
			return err
		}
		g.w.Pop("temp", 0)
		return nil
	case *syntax.ReturnStmt:
		return g.compileReturn(s)
	default:
		return fmt.Errorf("%s: unexpected statement %T", s.Pos(), s)
	}
}

// compileLet lowers a plain or indexed assignment. The indexed form
// computes the element address, evaluates the value, stashes it in
// temp 0, points that at the address, and writes through that 0.
func (g *Generator) compileLet(s *syntax.LetStmt) error {
	sym, ok := g.table.Lookup(s.Name)
	if !ok {
		return fmt.Errorf("%s: unknown identifier '%s'", s.Pos(), s.Name)
	}

	if s.Index == nil {
		if err := g.compileExpr(s.Value); err != nil {
			return err
		}
		g.w.Pop(sym.Kind.Segment(), sym.Index)
		return nil
	}

	g.w.Push(sym.Kind.Segment(), sym.Index)
	if err := g.compileExpr(s.Index); err != nil {
		return err
	}
	g.w.Arith("add")

	if err := g.compileExpr(s.Value); err != nil {
		return err
	}
	g.w.Pop("temp", 0)
	g.w.Pop("pointer", 1)
	g.w.Push("temp", 0)
	g.w.Pop("that", 0)
	return nil
}

// compileIf lowers an if statement:
//
//	cond; not; if-goto IF_ELSE_i; then; goto IF_END_i;
//	label IF_ELSE_i; else; label IF_END_i
func (g *Generator) compileIf(s *syntax.IfStmt) error {
	i := g.ifCount
	g.ifCount++
	elseLabel := fmt.Sprintf("IF_ELSE_%d", i)
	endLabel := fmt.Sprintf("IF_END_%d", i)

	if err := g.compileExpr(s.Cond); err != nil {
		return err
	}
	g.w.Arith("not")
	g.w.IfGoto(elseLabel)

	if err := g.compileStmts(s.Then); err != nil {
		return err
	}
	g.w.Goto(endLabel)

	g.w.Label(elseLabel)
	if err := g.compileStmts(s.Else); err != nil {
		return err
	}
	g.w.Label(endLabel)
	return nil
}

// compileWhile lowers a while statement:
//
//	label WHILE_i; cond; not; if-goto WHILE_END_i;
//	body; goto WHILE_i; label WHILE_END_i
func (g *Generator) compileWhile(s *syntax.WhileStmt) error {
	i := g.whileCount
	g.whileCount++
	topLabel := fmt.Sprintf("WHILE_%d", i)
	endLabel := fmt.Sprintf("WHILE_END_%d", i)

	g.w.Label(topLabel)
	if err := g.compileExpr(s.Cond); err != nil {
		return err
	}
	g.w.Arith("not")
	g.w.IfGoto(endLabel)

	if err := g.compileStmts(s.Body); err != nil {
		return err
	}
	g.w.Goto(topLabel)
	g.w.Label(endLabel)
	return nil
}

// compileReturn lowers a return statement. Void subroutines return a
// dummy constant the caller discards.
func (g *Generator) compileReturn(s *syntax.ReturnStmt) error {
	if s.Value == nil {
		g.w.Push("constant", 0)
	} else if err := g.compileExpr(s.Value); err != nil {
		return err
	}
	g.w.Return()
	return nil
}
