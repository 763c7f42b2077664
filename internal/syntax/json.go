package syntax

import (
	"encoding/json"
	"io"

	"github.com/you-not-fish/jack/internal/types"
)

// FprintJSON writes a JSON representation of the AST to w. It backs the
// --viz-ast export consumed by external viewers.
func FprintJSON(w io.Writer, node Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSON(node))
}

func toJSON(node Node) interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Class:
		return map[string]interface{}{
			"type": "Class",
			"pos":  n.pos.String(),
			"name": n.Name,
			"vars": mapSlice(n.Vars, func(d *ClassVarDec) interface{} { return toJSON(d) }),
			"subs": mapSlice(n.Subs, func(d *SubroutineDec) interface{} { return toJSON(d) }),
		}

	case *ClassVarDec:
		return map[string]interface{}{
			"type":    "ClassVarDec",
			"pos":     n.pos.String(),
			"kind":    n.Kind.String(),
			"vartype": typeString(n.Type),
			"names":   n.Names,
		}

	case *SubroutineDec:
		params := make([]interface{}, len(n.Params))
		for i, prm := range n.Params {
			params[i] = map[string]interface{}{
				"type": typeString(prm.Type),
				"name": prm.Name,
			}
		}
		return map[string]interface{}{
			"type":    "SubroutineDec",
			"pos":     n.pos.String(),
			"kind":    n.Kind.String(),
			"returns": typeString(n.ReturnType),
			"name":    n.Name,
			"params":  params,
			"locals":  mapSlice(n.Locals, func(d *VarDec) interface{} { return toJSON(d) }),
			"body":    stmtsJSON(n.Body),
		}

	case *VarDec:
		return map[string]interface{}{
			"type":    "VarDec",
			"pos":     n.pos.String(),
			"vartype": typeString(n.Type),
			"names":   n.Names,
		}

	case *LetStmt:
		m := map[string]interface{}{
			"type":  "LetStmt",
			"pos":   n.pos.String(),
			"name":  n.Name,
			"value": toJSON(n.Value),
		}
		if n.Index != nil {
			m["index"] = toJSON(n.Index)
		}
		return m

	case *IfStmt:
		m := map[string]interface{}{
			"type": "IfStmt",
			"pos":  n.pos.String(),
			"cond": toJSON(n.Cond),
			"then": stmtsJSON(n.Then),
		}
		if n.Else != nil {
			m["else"] = stmtsJSON(n.Else)
		}
		return m

	case *WhileStmt:
		return map[string]interface{}{
			"type": "WhileStmt",
			"pos":  n.pos.String(),
			"cond": toJSON(n.Cond),
			"body": stmtsJSON(n.Body),
		}

	case *DoStmt:
		return map[string]interface{}{
			"type": "DoStmt",
			"pos":  n.pos.String(),
			"call": toJSON(n.Call),
		}

	case *ReturnStmt:
		m := map[string]interface{}{
			"type": "ReturnStmt",
			"pos":  n.pos.String(),
		}
		if n.Value != nil {
			m["value"] = toJSON(n.Value)
		}
		return m

	case *IntLit:
		return exprJSON(n, map[string]interface{}{
			"type":  "IntLit",
			"pos":   n.pos.String(),
			"value": n.Val,
		})

	case *StringLit:
		return exprJSON(n, map[string]interface{}{
			"type":  "StringLit",
			"pos":   n.pos.String(),
			"value": n.Val,
		})

	case *KeywordLit:
		return exprJSON(n, map[string]interface{}{
			"type": "KeywordLit",
			"pos":  n.pos.String(),
			"word": n.Word,
		})

	case *BinOp:
		return exprJSON(n, map[string]interface{}{
			"type":  "BinOp",
			"pos":   n.pos.String(),
			"op":    n.Op,
			"left":  toJSON(n.X),
			"right": toJSON(n.Y),
		})

	case *UnaryOp:
		return exprJSON(n, map[string]interface{}{
			"type":    "UnaryOp",
			"pos":     n.pos.String(),
			"op":      n.Op,
			"operand": toJSON(n.X),
		})

	case *Ident:
		m := map[string]interface{}{
			"type": "Ident",
			"pos":  n.pos.String(),
			"name": n.Name,
		}
		if len(n.Generics) > 0 {
			generics := make([]string, len(n.Generics))
			for i, g := range n.Generics {
				generics[i] = g.String()
			}
			m["generics"] = generics
		}
		return exprJSON(n, m)

	case *IndexExpr:
		return exprJSON(n, map[string]interface{}{
			"type":  "IndexExpr",
			"pos":   n.pos.String(),
			"base":  toJSON(n.X),
			"index": toJSON(n.Index),
		})

	case *CallExpr:
		m := map[string]interface{}{
			"type": "CallExpr",
			"pos":  n.pos.String(),
			"name": n.Name,
			"args": exprsJSON(n.Args),
		}
		if n.Recv != nil {
			m["recv"] = toJSON(n.Recv)
		}
		return exprJSON(n, m)

	default:
		return map[string]interface{}{"type": "unknown"}
	}
}

// exprJSON attaches the resolved type, when present, to an expression's
// JSON object.
func exprJSON(e Expr, m map[string]interface{}) interface{} {
	if t := e.ResolvedType(); t != nil {
		m["resolved"] = t.String()
	}
	return m
}

func typeString(t *types.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func stmtsJSON(stmts []Stmt) []interface{} {
	out := make([]interface{}, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, toJSON(s))
	}
	return out
}

func exprsJSON(exprs []Expr) []interface{} {
	out := make([]interface{}, 0, len(exprs))
	for _, x := range exprs {
		out = append(out, toJSON(x))
	}
	return out
}

func mapSlice[T any](s []T, f func(T) interface{}) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = f(v)
	}
	return out
}
