package syntax

import (
	"fmt"
	"io"

	"github.com/you-not-fish/jack/internal/types"
)

// Maximum number of errors before aborting parse.
const maxErrors = 10

// Error represents a lexical or syntax error.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// precedence is a binding power in the Pratt expression parser,
// ordered low to high.
type precedence int

const (
	Lowest  precedence = iota
	Equals             // =
	Compare            // < >
	Sum                // + - |
	Product            // * / &
	Prefix             // unary - ~
	CallPrec           // .
	IndexPrec          // [
)

// rule is a single entry in the Pratt dispatch tables: the handlers for
// a token in prefix position (nud) and infix position (led), and the
// token's binding power. A token without a nud cannot start an
// expression; without a led it terminates the current one.
type rule struct {
	nud  func() Expr
	led  func(Expr) Expr
	prec precedence
}

// Parser performs syntax analysis on a single Jack source file.
//
// Declarations and statements are parsed by recursive descent;
// expressions by top-down operator precedence (Pratt), driven by two
// dispatch tables. Types are interned through the shared pool as they
// are parsed.
type Parser struct {
	scanner  *Scanner
	filename string
	interner *types.Interner

	tok Token // current token (cached from the scanner)

	// Dispatch tables. textRules (keyed by lexeme) takes precedence
	// over kindRules (keyed by token kind).
	kindRules map[TokenKind]rule
	textRules map[string]rule

	// Error handling
	errh   ErrorHandler
	errcnt int
	first  error // first error encountered
	abort  bool  // set when the error limit is reached
}

// NewParser creates a Parser for the given source. The errh function is
// called for each lexical or syntax error; if nil, errors are counted
// but not reported.
func NewParser(filename string, src io.Reader, interner *types.Interner, errh ErrorHandler) *Parser {
	p := &Parser{
		filename: filename,
		interner: interner,
		errh:     errh,
	}

	// Lexical errors flow through the same accounting as syntax errors.
	scanErrh := func(pos Pos, msg string) {
		p.countError(pos, msg)
	}

	p.scanner = NewScanner(filename, src, scanErrh)
	p.tok = p.scanner.Current()
	p.initRules()
	return p
}

// ----------------------------------------------------------------------------
// Token navigation

// next advances to the next token. After the error limit is reached
// the parser stays pinned on EOF.
func (p *Parser) next() {
	if p.abort {
		p.tok = Token{Kind: KindEOF, Line: p.tok.Line, Col: p.tok.Col}
		return
	}
	p.scanner.Advance()
	p.tok = p.scanner.Current()
}

// pos returns the position of the current token.
func (p *Parser) pos() Pos {
	return p.tok.Pos(p.filename)
}

// check reports whether the current token has the given kind and,
// unless text is empty, the given lexeme.
func (p *Parser) check(kind TokenKind, text string) bool {
	return p.tok.Is(kind, text)
}

// match consumes the current token if it matches and reports whether it
// did.
func (p *Parser) match(kind TokenKind, text string) bool {
	if p.check(kind, text) {
		p.next()
		return true
	}
	return false
}

// expect consumes the current token if it matches. Otherwise it reports
// an error and enters panic-mode recovery.
func (p *Parser) expect(kind TokenKind, text string) {
	if p.match(kind, text) {
		return
	}

	expected := text
	if expected == "" {
		expected = kind.String()
	}
	p.syntaxError(fmt.Sprintf("expected '%s' but found '%s'", expected, p.tok))
	p.synchronize()
}

// ----------------------------------------------------------------------------
// Error handling

// countError records an error without triggering recovery.
func (p *Parser) countError(pos Pos, msg string) {
	if p.abort {
		return
	}
	if p.errcnt == 0 {
		p.first = &Error{Pos: pos, Msg: msg}
	}
	p.errcnt++

	if p.errh != nil {
		p.errh(pos, msg)
	}

	if p.errcnt >= maxErrors {
		p.abort = true
		if p.errh != nil {
			p.errh(pos, "too many errors; aborting parse")
		}
		p.tok = Token{Kind: KindEOF, Line: p.tok.Line, Col: p.tok.Col}
	}
}

// syntaxError reports a syntax error at the current position.
func (p *Parser) syntaxError(msg string) {
	p.syntaxErrorAt(p.pos(), msg)
}

// syntaxErrorAt reports a syntax error at a specific position.
func (p *Parser) syntaxErrorAt(pos Pos, msg string) {
	p.countError(pos, msg)
}

// synchronize discards tokens until a safe harbor: a ';' (consumed) or
// the start of a declaration or statement (left on the stream).
func (p *Parser) synchronize() {
	// Step past the token that caused the error.
	p.next()

	for p.tok.Kind != KindEOF {
		if p.check(KindSymbol, ";") {
			p.next()
			return
		}

		if p.tok.Kind == KindKeyword {
			switch p.tok.Text {
			case "class", "constructor", "function", "method",
				"var", "let", "do", "if", "while", "return":
				return
			}
		}

		p.next()
	}
}

// Errors returns the number of errors encountered during parsing.
func (p *Parser) Errors() int {
	return p.errcnt
}

// FirstError returns the first error encountered, or nil if none.
func (p *Parser) FirstError() error {
	return p.first
}

// ----------------------------------------------------------------------------
// Parsing entry point

// Parse parses a complete source file: exactly one class declaration.
// Callers must treat any reported error as failure of the unit; the
// returned tree is then only suitable for error recovery, not for later
// phases.
func (p *Parser) Parse() *Class {
	cls := p.parseClass()

	if !p.abort && p.tok.Kind != KindEOF {
		p.syntaxError("unexpected tokens after class declaration; a file contains exactly one class")
	}

	return cls
}

// ----------------------------------------------------------------------------
// Declarations

// parseClass parses: 'class' name '{' classVarDec* subroutineDec* '}'
func (p *Parser) parseClass() *Class {
	cls := &Class{}
	cls.pos = p.pos()

	p.expect(KindKeyword, "class")

	cls.Name = p.tok.Text
	p.expect(KindIdentifier, "")
	p.expect(KindSymbol, "{")

	hasConstructor := false

	for !p.check(KindSymbol, "}") && p.tok.Kind != KindEOF {
		switch p.tok.Text {
		case "static", "field":
			if len(cls.Subs) > 0 {
				p.syntaxError("class variables must be declared before subroutines")
				p.synchronize()
				continue
			}
			if dec := p.parseClassVarDec(); dec != nil {
				cls.Vars = append(cls.Vars, dec)
			}

		case "constructor", "function", "method":
			if p.tok.Text == "constructor" {
				hasConstructor = true
			}
			if dec := p.parseSubroutineDec(); dec != nil {
				cls.Subs = append(cls.Subs, dec)
			}

		default:
			p.syntaxError("only 'static', 'field', 'constructor', 'function', or 'method' allowed in class scope")
			p.synchronize()
		}
	}

	if !hasConstructor {
		p.syntaxErrorAt(cls.pos, fmt.Sprintf("class '%s' must have at least one constructor", cls.Name))
	}

	p.expect(KindSymbol, "}")
	return cls
}

// parseType parses: 'int' | 'char' | 'boolean' | name ('<' type (',' type)* '>')?
// and returns the interned type, or nil after reporting an error.
// 'void' is accepted only when allowVoid is set (return types).
func (p *Parser) parseType(allowVoid bool) *types.Type {
	base := p.tok.Text

	isPrimitive := base == "int" || base == "char" || base == "boolean"
	isVoid := base == "void"
	isClass := p.tok.Kind == KindIdentifier

	switch {
	case isPrimitive && p.tok.Kind == KindKeyword, isClass, isVoid && allowVoid:
		p.next()
	case isVoid:
		p.syntaxError("variable cannot be of type 'void'")
		return nil
	default:
		p.syntaxError("expected a type (int, char, boolean, or class name)")
		return nil
	}

	var generics []*types.Type
	if isClass && p.match(KindSymbol, "<") {
		for {
			if arg := p.parseType(false); arg != nil {
				generics = append(generics, arg)
			}
			if !p.match(KindSymbol, ",") {
				break
			}
		}
		p.expect(KindSymbol, ">")
	}

	return p.interner.Intern(base, generics)
}

// parseClassVarDec parses: ('static'|'field') type name (',' name)* ';'
func (p *Parser) parseClassVarDec() *ClassVarDec {
	dec := &ClassVarDec{}
	dec.pos = p.pos()

	if p.tok.Text == "static" {
		dec.Kind = StaticVar
	} else {
		dec.Kind = FieldVar
	}
	p.next()

	dec.Type = p.parseType(false)
	if dec.Type == nil {
		p.synchronize()
		return nil
	}

	for {
		if p.tok.Kind != KindIdentifier {
			p.syntaxError("expected variable name in class variable declaration")
			p.synchronize()
			return nil
		}
		dec.Names = append(dec.Names, p.tok.Text)
		p.next()

		if !p.match(KindSymbol, ",") {
			break
		}
	}

	p.expect(KindSymbol, ";")
	return dec
}

// parseSubroutineDec parses:
// ('constructor'|'function'|'method') (type|'void') name '(' params? ')'
// '{' varDec* statement* '}'
func (p *Parser) parseSubroutineDec() *SubroutineDec {
	dec := &SubroutineDec{}
	dec.pos = p.pos()

	switch p.tok.Text {
	case "constructor":
		dec.Kind = Constructor
	case "function":
		dec.Kind = Function
	default:
		dec.Kind = Method
	}
	p.next()

	dec.ReturnType = p.parseType(true)
	if dec.ReturnType == nil {
		p.synchronize()
		return nil
	}

	dec.Name = p.tok.Text
	p.expect(KindIdentifier, "")

	p.expect(KindSymbol, "(")
	dec.Params = p.parseParamList()
	p.expect(KindSymbol, ")")

	p.expect(KindSymbol, "{")
	dec.Locals = p.parseLocalVars()
	dec.Body = p.parseStatements()
	p.expect(KindSymbol, "}")

	return dec
}

// parseParamList parses: (type name (',' type name)*)?
func (p *Parser) parseParamList() []Param {
	var params []Param

	if p.check(KindSymbol, ")") {
		return params
	}

	for {
		typ := p.parseType(false)
		if typ == nil {
			return params
		}

		if p.tok.Kind != KindIdentifier {
			p.syntaxError("expected parameter name after type")
			return params
		}
		params = append(params, Param{Type: typ, Name: p.tok.Text})
		p.next()

		if !p.match(KindSymbol, ",") {
			break
		}
	}

	return params
}

// parseLocalVars parses: ('var' type name (',' name)* ';')*
func (p *Parser) parseLocalVars() []*VarDec {
	var decs []*VarDec

	for p.check(KindKeyword, "var") {
		dec := &VarDec{}
		dec.pos = p.pos()
		p.next()

		dec.Type = p.parseType(false)
		if dec.Type == nil {
			p.synchronize()
			continue
		}

		for {
			if p.tok.Kind != KindIdentifier {
				p.syntaxError("expected variable name after type in 'var' declaration")
				break
			}
			dec.Names = append(dec.Names, p.tok.Text)
			p.next()

			if !p.match(KindSymbol, ",") {
				break
			}
		}

		p.expect(KindSymbol, ";")
		decs = append(decs, dec)
	}

	return decs
}

// ----------------------------------------------------------------------------
// Statements

// parseStatements parses statements until '}' or EOF.
func (p *Parser) parseStatements() []Stmt {
	var stmts []Stmt

	for !p.check(KindSymbol, "}") && p.tok.Kind != KindEOF {
		var s Stmt

		switch p.tok.Text {
		case "let":
			s = p.parseLetStmt()
		case "if":
			s = p.parseIfStmt()
		case "while":
			s = p.parseWhileStmt()
		case "do":
			s = p.parseDoStmt()
		case "return":
			s = p.parseReturnStmt()
		default:
			p.syntaxError("expected a statement (let, if, while, do, return)")
			p.synchronize()
			continue
		}

		if s != nil {
			stmts = append(stmts, s)
		}
	}

	return stmts
}

// parseLetStmt parses: 'let' name ('[' expr ']')? '=' expr ';'
func (p *Parser) parseLetStmt() Stmt {
	s := &LetStmt{}
	s.pos = p.pos()
	p.next() // consume 'let'

	s.Name = p.tok.Text
	p.expect(KindIdentifier, "")

	if p.match(KindSymbol, "[") {
		s.Index = p.parseExpression(Lowest)
		p.expect(KindSymbol, "]")
	}

	p.expect(KindSymbol, "=")
	s.Value = p.parseExpression(Lowest)

	if !p.check(KindSymbol, ";") {
		p.syntaxError(fmt.Sprintf("expected an operator or ';' but found '%s'", p.tok))
		p.synchronize()
		return s
	}
	p.next()
	return s
}

// parseIfStmt parses: 'if' '(' expr ')' '{' stmts '}' ('else' '{' stmts '}')?
func (p *Parser) parseIfStmt() Stmt {
	s := &IfStmt{}
	s.pos = p.pos()
	p.next() // consume 'if'

	p.expect(KindSymbol, "(")
	s.Cond = p.parseExpression(Lowest)
	if s.Cond == nil {
		return nil
	}

	if !p.check(KindSymbol, ")") {
		p.syntaxError(fmt.Sprintf("expected an operator or ')' but found '%s'", p.tok))
		p.synchronize()
	}
	p.expect(KindSymbol, ")")

	p.expect(KindSymbol, "{")
	s.Then = p.parseStatements()
	p.expect(KindSymbol, "}")

	if p.match(KindKeyword, "else") {
		p.expect(KindSymbol, "{")
		s.Else = p.parseStatements()
		if s.Else == nil {
			s.Else = []Stmt{}
		}
		p.expect(KindSymbol, "}")
	}

	return s
}

// parseWhileStmt parses: 'while' '(' expr ')' '{' stmts '}'
func (p *Parser) parseWhileStmt() Stmt {
	s := &WhileStmt{}
	s.pos = p.pos()
	p.next() // consume 'while'

	p.expect(KindSymbol, "(")
	s.Cond = p.parseExpression(Lowest)
	if s.Cond == nil {
		return nil
	}

	if !p.check(KindSymbol, ")") {
		p.syntaxError(fmt.Sprintf("expected an operator or ')' but found '%s'", p.tok))
		p.synchronize()
	}
	p.expect(KindSymbol, ")")

	p.expect(KindSymbol, "{")
	s.Body = p.parseStatements()
	p.expect(KindSymbol, "}")

	return s
}

// parseDoStmt parses: 'do' expr ';' where expr must be a subroutine call.
func (p *Parser) parseDoStmt() Stmt {
	s := &DoStmt{}
	s.pos = p.pos()
	p.next() // consume 'do'

	x := p.parseExpression(Lowest)
	if x == nil {
		return nil
	}

	call, ok := x.(*CallExpr)
	if !ok {
		p.syntaxErrorAt(x.Pos(), "the 'do' keyword must be followed by a subroutine call")
		return nil
	}
	s.Call = call

	if !p.check(KindSymbol, ";") {
		p.syntaxError(fmt.Sprintf("expected ';' after subroutine call but found '%s'", p.tok))
		p.synchronize()
		return s
	}
	p.next()
	return s
}

// parseReturnStmt parses: 'return' expr? ';'
func (p *Parser) parseReturnStmt() Stmt {
	s := &ReturnStmt{}
	s.pos = p.pos()
	p.next() // consume 'return'

	if !p.check(KindSymbol, ";") {
		s.Value = p.parseExpression(Lowest)
		if s.Value == nil {
			return nil
		}
	}

	p.expect(KindSymbol, ";")
	return s
}

// ----------------------------------------------------------------------------
// Expressions (Pratt)

// initRules builds the dispatch tables. Generic token kinds live in
// kindRules; specific lexemes in textRules, which wins on lookup.
func (p *Parser) initRules() {
	p.kindRules = map[TokenKind]rule{
		KindIntConst:    {nud: p.parseIntNud},
		KindStringConst: {nud: p.parseStringNud},
		KindIdentifier:  {nud: p.parseIdentifierNud},
	}

	p.textRules = map[string]rule{
		"(": {nud: p.parseGroupNud},
		"~": {nud: p.parseUnaryNud, prec: Prefix},
		"-": {nud: p.parseUnaryNud, led: p.parseBinaryLed, prec: Sum},

		"+": {led: p.parseBinaryLed, prec: Sum},
		"|": {led: p.parseBinaryLed, prec: Sum},
		"*": {led: p.parseBinaryLed, prec: Product},
		"/": {led: p.parseBinaryLed, prec: Product},
		"&": {led: p.parseBinaryLed, prec: Product},
		"=": {led: p.parseBinaryLed, prec: Equals},
		"<": {led: p.parseBinaryLed, prec: Compare},
		">": {led: p.parseBinaryLed, prec: Compare},

		".": {led: p.parseCallLed, prec: CallPrec},
		"[": {led: p.parseIndexLed, prec: IndexPrec},

		TrueLit:  {nud: p.parseKeywordNud},
		FalseLit: {nud: p.parseKeywordNud},
		NullLit:  {nud: p.parseKeywordNud},
		ThisLit:  {nud: p.parseKeywordNud},
	}
}

// ruleFor looks up the dispatch rule for a token. Specific lexemes
// override kind-level rules; unknown tokens get the zero rule, which
// can neither start nor extend an expression.
func (p *Parser) ruleFor(tok Token) rule {
	if tok.Kind == KindSymbol || tok.Kind == KindKeyword {
		if r, ok := p.textRules[tok.Text]; ok {
			return r
		}
	}
	return p.kindRules[tok.Kind]
}

// parseExpression is the core Pratt loop: consume a prefix handler,
// then fold infix handlers while their binding power exceeds prec.
func (p *Parser) parseExpression(prec precedence) Expr {
	nud := p.ruleFor(p.tok).nud
	if nud == nil {
		p.syntaxError("unexpected token starting an expression")
		p.synchronize()
		return nil
	}

	left := nud()

	for left != nil && prec < p.ruleFor(p.tok).prec {
		led := p.ruleFor(p.tok).led
		if led == nil {
			break
		}
		left = led(left)
	}

	return left
}

// parseIntNud handles an integer constant.
func (p *Parser) parseIntNud() Expr {
	lit := &IntLit{Val: p.tok.Val}
	lit.pos = p.pos()
	p.next()
	return lit
}

// parseStringNud handles a string constant.
func (p *Parser) parseStringNud() Expr {
	lit := &StringLit{Val: p.tok.Text}
	lit.pos = p.pos()
	p.next()
	return lit
}

// parseKeywordNud handles true, false, null, and this.
func (p *Parser) parseKeywordNud() Expr {
	lit := &KeywordLit{Word: p.tok.Text}
	lit.pos = p.pos()
	p.next()
	return lit
}

// parseIdentifierNud handles a name in prefix position. A following '('
// makes it a receiverless call; the identifier Array may also absorb
// generic type arguments.
func (p *Parser) parseIdentifierNud() Expr {
	pos := p.pos()
	name := p.tok.Text
	p.next()

	var generics []*types.Type
	if name == "Array" && p.check(KindSymbol, "<") {
		p.next()
		for {
			if arg := p.parseType(false); arg != nil {
				generics = append(generics, arg)
			}
			if !p.match(KindSymbol, ",") {
				break
			}
		}
		p.expect(KindSymbol, ">")
	}

	if p.match(KindSymbol, "(") {
		call := &CallExpr{Name: name}
		call.pos = pos
		call.Args = p.parseExpressionList()
		p.expect(KindSymbol, ")")
		return call
	}

	id := &Ident{Name: name, Generics: generics}
	id.pos = pos
	return id
}

// parseGroupNud handles '(' expr ')'. The inner expression is returned
// directly; no grouping node is needed.
func (p *Parser) parseGroupNud() Expr {
	p.next() // consume '('

	x := p.parseExpression(Lowest)
	if x == nil {
		return nil
	}

	p.expect(KindSymbol, ")")
	return x
}

// parseUnaryNud handles prefix '-' and '~' at PREFIX precedence.
func (p *Parser) parseUnaryNud() Expr {
	op := &UnaryOp{Op: p.tok.Text}
	op.pos = p.pos()
	p.next()

	op.X = p.parseExpression(Prefix)
	if op.X == nil {
		return nil
	}
	return op
}

// parseBinaryLed handles an infix operator. All Jack binary operators
// are left-associative except '=', which binds right.
func (p *Parser) parseBinaryLed(left Expr) Expr {
	op := &BinOp{Op: p.tok.Text, X: left}
	op.pos = left.Pos()

	prec := p.ruleFor(p.tok).prec
	if op.Op == "=" {
		prec--
	}
	p.next()

	op.Y = p.parseExpression(prec)
	if op.Y == nil {
		return nil
	}
	return op
}

// parseCallLed handles '.' name '(' exprList ')'.
func (p *Parser) parseCallLed(left Expr) Expr {
	call := &CallExpr{Recv: left}
	call.pos = left.Pos()
	p.next() // consume '.'

	call.Name = p.tok.Text
	p.expect(KindIdentifier, "")

	p.expect(KindSymbol, "(")
	call.Args = p.parseExpressionList()
	p.expect(KindSymbol, ")")

	return call
}

// parseIndexLed handles '[' expr ']'.
func (p *Parser) parseIndexLed(left Expr) Expr {
	idx := &IndexExpr{X: left}
	idx.pos = left.Pos()
	p.next() // consume '['

	idx.Index = p.parseExpression(Lowest)
	if idx.Index == nil {
		return nil
	}

	if !p.check(KindSymbol, "]") {
		p.syntaxError(fmt.Sprintf("expected an operator or ']' but found '%s'", p.tok))
		p.synchronize()
		return idx
	}
	p.next()
	return idx
}

// parseExpressionList parses a comma-separated, possibly empty argument
// list. The caller consumes the surrounding parentheses.
func (p *Parser) parseExpressionList() []Expr {
	var list []Expr

	if p.check(KindSymbol, ")") {
		return list
	}

	for {
		x := p.parseExpression(Lowest)
		if x == nil {
			return list
		}
		list = append(list, x)

		if !p.check(KindSymbol, ",") && !p.check(KindSymbol, ")") {
			p.syntaxError(fmt.Sprintf("expected ',' or ')' but found '%s'", p.tok))
			p.synchronize()
			return list
		}
		if !p.match(KindSymbol, ",") {
			break
		}
	}

	return list
}
