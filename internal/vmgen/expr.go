package vmgen

import (
	"fmt"

	"github.com/you-not-fish/jack/internal/syntax"
)

// compileExpr lowers an expression by post-order traversal, leaving its
// value on the stack.
func (g *Generator) compileExpr(x syntax.Expr) error {
	switch x := x.(type) {
	case *syntax.IntLit:
		g.w.Push("constant", x.Val)
		return nil

	case *syntax.StringLit:
		g.compileString(x.Val)
		return nil

	case *syntax.KeywordLit:
		return g.compileKeyword(x)

	case *syntax.Ident:
		sym, ok := g.table.Lookup(x.Name)
		if !ok {
			return fmt.Errorf("%s: unknown identifier '%s'", x.Pos(), x.Name)
		}
		g.w.Push(sym.Kind.Segment(), sym.Index)
		return nil

	case *syntax.BinOp:
		return g.compileBinOp(x)

	case *syntax.UnaryOp:
		if err := g.compileExpr(x.X); err != nil {
			return err
		}
		if x.Op == "-" {
			g.w.Arith("neg")
		} else {
			g.w.Arith("not")
		}
		return nil

	case *syntax.IndexExpr:
		// Address = base + index; read through that 0.
		if err := g.compileExpr(x.X); err != nil {
			return err
		}
		if err := g.compileExpr(x.Index); err != nil {
			return err
		}
		g.w.Arith("add")
		g.w.Pop("pointer", 1)
		g.w.Push("that", 0)
		return nil

	case *syntax.CallExpr:
		return g.compileCall(x)

	default:
		return fmt.Errorf("%s: unexpected expression %T", x.Pos(), x)
	}
}

// compileString builds a String object: allocate it at the literal's
// length, then append each character.
func (g *Generator) compileString(s string) {
	g.w.Push("constant", len(s))
	g.w.Call("String.new", 1)
	for _, c := range []byte(s) {
		g.w.Push("constant", int(c))
		g.w.Call("String.appendChar", 2)
	}
}

// compileKeyword lowers the keyword constants. true is the all-ones
// word, false and null are zero, this is pointer 0.
func (g *Generator) compileKeyword(x *syntax.KeywordLit) error {
	switch x.Word {
	case syntax.TrueLit:
		g.w.Push("constant", 0)
		g.w.Arith("not")
	case syntax.FalseLit, syntax.NullLit:
		g.w.Push("constant", 0)
	case syntax.ThisLit:
		g.w.Push("pointer", 0)
	default:
		return fmt.Errorf("%s: unexpected keyword '%s'", x.Pos(), x.Word)
	}
	return nil
}

// compileBinOp lowers both operands then the operator. '*' and '/'
// compile to Math OS calls; everything else has a VM instruction.
func (g *Generator) compileBinOp(x *syntax.BinOp) error {
	if err := g.compileExpr(x.X); err != nil {
		return err
	}
	if err := g.compileExpr(x.Y); err != nil {
		return err
	}

	switch x.Op {
	case "*":
		g.w.Call("Math.multiply", 2)
	case "/":
		g.w.Call("Math.divide", 2)
	default:
		cmd, ok := arithOps[x.Op]
		if !ok {
			return fmt.Errorf("%s: unknown binary operator '%s'", x.Pos(), x.Op)
		}
		g.w.Arith(cmd)
	}
	return nil
}

// compileCall lowers a subroutine call. Instance calls push the
// receiver before the explicit arguments and add one to the argument
// count.
func (g *Generator) compileCall(call *syntax.CallExpr) error {
	target, nExtra, err := g.resolveCall(call)
	if err != nil {
		return err
	}

	for _, arg := range call.Args {
		if err := g.compileExpr(arg); err != nil {
			return err
		}
	}

	g.w.Call(target, len(call.Args)+nExtra)
	return nil
}

// resolveCall determines the VM call target and pushes the implicit
// receiver, if any. It returns the target name and the receiver count
// (0 or 1).
func (g *Generator) resolveCall(call *syntax.CallExpr) (string, int, error) {
	// Bare call: current class; methods receive this.
	if call.Recv == nil {
		sig, err := g.reg.Signature(g.className, call.Name)
		if err != nil {
			return "", 0, fmt.Errorf("%s: %s", call.Pos(), err)
		}
		if sig.Kind == syntax.Method {
			g.w.Push("pointer", 0)
			return g.className + "." + call.Name, 1, nil
		}
		return g.className + "." + call.Name, 0, nil
	}

	if id, ok := call.Recv.(*syntax.Ident); ok {
		if sym, defined := g.table.Lookup(id.Name); defined {
			// Method call through a variable: the variable is this.
			g.w.Push(sym.Kind.Segment(), sym.Index)
			return sym.Type.Base + "." + call.Name, 1, nil
		}
		// Static call on a class name.
		return id.Name + "." + call.Name, 0, nil
	}

	// Arbitrary receiver: its resolved type names the class.
	recvType := call.Recv.ResolvedType()
	if recvType == nil {
		return "", 0, fmt.Errorf("%s: receiver of '%s' has no resolved type", call.Pos(), call.Name)
	}
	if err := g.compileExpr(call.Recv); err != nil {
		return "", 0, err
	}
	return recvType.Base + "." + call.Name, 1, nil
}
