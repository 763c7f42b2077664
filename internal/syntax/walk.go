package syntax

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses an AST in depth-first order.
// If visitor returns false, children are not visited.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}

	switch n := node.(type) {
	case *Class:
		for _, dec := range n.Vars {
			Walk(dec, v)
		}
		for _, sub := range n.Subs {
			Walk(sub, v)
		}

	case *ClassVarDec, *VarDec:
		// Leaves: names and types carry no child nodes.

	case *SubroutineDec:
		for _, dec := range n.Locals {
			Walk(dec, v)
		}
		walkStmts(n.Body, v)

	case *LetStmt:
		if n.Index != nil {
			Walk(n.Index, v)
		}
		Walk(n.Value, v)

	case *IfStmt:
		Walk(n.Cond, v)
		walkStmts(n.Then, v)
		walkStmts(n.Else, v)

	case *WhileStmt:
		Walk(n.Cond, v)
		walkStmts(n.Body, v)

	case *DoStmt:
		Walk(n.Call, v)

	case *ReturnStmt:
		if n.Value != nil {
			Walk(n.Value, v)
		}

	case *BinOp:
		Walk(n.X, v)
		Walk(n.Y, v)

	case *UnaryOp:
		Walk(n.X, v)

	case *IndexExpr:
		Walk(n.X, v)
		Walk(n.Index, v)

	case *CallExpr:
		if n.Recv != nil {
			Walk(n.Recv, v)
		}
		for _, arg := range n.Args {
			Walk(arg, v)
		}
	}
}

func walkStmts(stmts []Stmt, v Visitor) {
	for _, s := range stmts {
		if s != nil {
			Walk(s, v)
		}
	}
}
