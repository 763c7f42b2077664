package check

import (
	"github.com/you-not-fish/jack/internal/registry"
	"github.com/you-not-fish/jack/internal/syntax"
	"github.com/you-not-fish/jack/internal/types"
)

// analyzeExpr resolves the type of an expression, records it in the
// node's resolved-type slot, and returns it.
func (a *Analyzer) analyzeExpr(x syntax.Expr) (*types.Type, error) {
	typ, err := a.exprType(x)
	if err != nil {
		return nil, err
	}
	x.SetResolvedType(typ)
	return typ, nil
}

// exprType computes an expression's type.
func (a *Analyzer) exprType(x syntax.Expr) (*types.Type, error) {
	switch x := x.(type) {
	case *syntax.IntLit:
		return a.it.Int, nil

	case *syntax.StringLit:
		return a.it.Intern("String", nil), nil

	case *syntax.KeywordLit:
		return a.keywordType(x)

	case *syntax.Ident:
		sym, ok := a.table.Lookup(x.Name)
		if !ok {
			return nil, a.errorAt(x, "unknown identifier '%s'", x.Name)
		}
		return sym.Type, nil

	case *syntax.BinOp:
		return a.binOpType(x)

	case *syntax.UnaryOp:
		return a.unaryOpType(x)

	case *syntax.IndexExpr:
		return a.indexType(x)

	case *syntax.CallExpr:
		return a.analyzeCall(x)

	default:
		return nil, a.errorAt(x, "unexpected expression %T", x)
	}
}

// keywordType types the keyword constants. true and false are boolean;
// null unifies with any class type; this is the current class and is
// forbidden inside a function.
func (a *Analyzer) keywordType(x *syntax.KeywordLit) (*types.Type, error) {
	switch x.Word {
	case syntax.TrueLit, syntax.FalseLit:
		return a.it.Boolean, nil
	case syntax.NullLit:
		return a.it.Any, nil
	case syntax.ThisLit:
		if a.sub.Kind == syntax.Function {
			return nil, a.errorAt(x, "'this' cannot be used in a function")
		}
		return a.classType, nil
	}
	return nil, a.errorAt(x, "unexpected keyword '%s' in expression", x.Word)
}

// binOpType types a binary operation. Arithmetic and bitwise operators
// take and produce int; comparisons take int and produce boolean;
// equality takes two values of the same type and produces boolean.
func (a *Analyzer) binOpType(x *syntax.BinOp) (*types.Type, error) {
	left, err := a.analyzeExpr(x.X)
	if err != nil {
		return nil, err
	}
	right, err := a.analyzeExpr(x.Y)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case "+", "-", "*", "/", "&", "|":
		if left != a.it.Int || right != a.it.Int {
			return nil, a.errorAt(x, "type mismatch on binary operator '%s'", x.Op)
		}
		return a.it.Int, nil

	case "<", ">":
		if left != a.it.Int || right != a.it.Int {
			return nil, a.errorAt(x, "type mismatch on binary operator '%s'", x.Op)
		}
		return a.it.Boolean, nil

	case "=":
		if !types.Compatible(left, right) {
			return nil, a.errorAt(x, "type mismatch on binary operator '='")
		}
		return a.it.Boolean, nil
	}

	return nil, a.errorAt(x, "unknown binary operator '%s'", x.Op)
}

// unaryOpType types a prefix operation: '-' negates an int, '~' flips
// an int bitwise or negates a boolean logically.
func (a *Analyzer) unaryOpType(x *syntax.UnaryOp) (*types.Type, error) {
	operand, err := a.analyzeExpr(x.X)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case "-":
		if operand != a.it.Int {
			return nil, a.errorAt(x, "unary '-' requires an 'int' operand, got '%s'", operand)
		}
		return a.it.Int, nil

	case "~":
		if operand != a.it.Int && operand != a.it.Boolean {
			return nil, a.errorAt(x, "unary '~' requires an 'int' or 'boolean' operand, got '%s'", operand)
		}
		return operand, nil
	}

	return nil, a.errorAt(x, "unknown unary operator '%s'", x.Op)
}

// indexType types an array access: the base must be an Array, the index
// an int. Array cells are word-sized and read as int.
func (a *Analyzer) indexType(x *syntax.IndexExpr) (*types.Type, error) {
	base, err := a.analyzeExpr(x.X)
	if err != nil {
		return nil, err
	}
	if base.Base != "Array" {
		return nil, a.errorAt(x.X, "'%s' is not an Array and cannot be indexed", base)
	}

	idx, err := a.analyzeExpr(x.Index)
	if err != nil {
		return nil, err
	}
	if idx != a.it.Int {
		return nil, a.errorAt(x.Index, "array index must be 'int', got '%s'", idx)
	}

	return a.it.Int, nil
}

// analyzeCall resolves a subroutine call to its signature, checks the
// arguments against it, and returns the signature's return type.
//
// Resolution depends on the receiver:
//   - no receiver: a function or constructor of the current class, or a
//     method on this when inside a method body;
//   - a name that is a defined symbol: an instance method call through
//     that variable;
//   - a name that is not a defined symbol: a static call on that class;
//   - any other expression: a method call on the expression's type.
func (a *Analyzer) analyzeCall(call *syntax.CallExpr) (*types.Type, error) {
	className, wantStatic, err := a.resolveReceiver(call)
	if err != nil {
		return nil, err
	}

	if !a.reg.MethodExists(className, call.Name) {
		return nil, a.errorAt(call, "class '%s' has no subroutine '%s'", className, call.Name)
	}
	sig, err := a.reg.Signature(className, call.Name)
	if err != nil {
		return nil, a.errorAt(call, "%s", err)
	}

	if wantStatic && !sig.IsStatic() {
		return nil, a.errorAt(call, "'%s.%s' is a method and needs an instance receiver", className, call.Name)
	}
	if !wantStatic && sig.IsStatic() {
		return nil, a.errorAt(call, "'%s.%s' is not an instance method", className, call.Name)
	}

	if err := a.checkArgs(call, sig); err != nil {
		return nil, err
	}

	call.SetResolvedType(sig.ReturnType)
	return sig.ReturnType, nil
}

// resolveReceiver determines which class a call targets and whether the
// resolved subroutine must be static.
func (a *Analyzer) resolveReceiver(call *syntax.CallExpr) (string, bool, error) {
	if call.Recv == nil {
		// Bare call: a function/constructor of the current class, or a
		// method on this inside a method body.
		sig, err := a.reg.Signature(a.className, call.Name)
		if err != nil {
			return "", false, a.errorAt(call, "class '%s' has no subroutine '%s'", a.className, call.Name)
		}
		if sig.Kind == syntax.Method && a.sub.Kind != syntax.Method {
			return "", false, a.errorAt(call, "cannot call method '%s' without a receiver outside a method", call.Name)
		}
		return a.className, sig.IsStatic(), nil
	}

	if id, ok := call.Recv.(*syntax.Ident); ok {
		if sym, defined := a.table.Lookup(id.Name); defined {
			// Instance call through a variable; the variable is the
			// implicit this.
			if !sym.Type.IsClass() {
				return "", false, a.errorAt(id, "cannot call a method on '%s %s'", sym.Type, id.Name)
			}
			id.SetResolvedType(sym.Type)
			return sym.Type.Base, false, nil
		}

		// Not a variable: treat the name as a class.
		if !a.reg.ClassExists(id.Name) {
			return "", false, a.errorAt(id, "unknown class or variable '%s'", id.Name)
		}
		id.SetResolvedType(a.it.Intern(id.Name, nil))
		return id.Name, true, nil
	}

	// Arbitrary receiver expression: its resolved type supplies the
	// class, and the call must be an instance method.
	recvType, err := a.analyzeExpr(call.Recv)
	if err != nil {
		return "", false, err
	}
	if !recvType.IsClass() {
		return "", false, a.errorAt(call.Recv, "cannot call a method on a value of type '%s'", recvType)
	}
	return recvType.Base, false, nil
}

// checkArgs verifies argument count and types against the signature,
// with null unifying with any class-typed parameter.
func (a *Analyzer) checkArgs(call *syntax.CallExpr, sig registry.MethodSignature) error {
	if len(call.Args) != len(sig.Params) {
		return a.errorAt(call, "argument count mismatch for '%s': expected %d, got %d",
			call.Name, len(sig.Params), len(call.Args))
	}

	for i, arg := range call.Args {
		argType, err := a.analyzeExpr(arg)
		if err != nil {
			return err
		}
		if !types.Compatible(sig.Params[i], argType) {
			return a.errorAt(arg, "type mismatch in argument %d of '%s': expected '%s', got '%s'",
				i+1, call.Name, sig.Params[i], argType)
		}
	}
	return nil
}
