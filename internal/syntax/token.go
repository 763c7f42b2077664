// Package syntax implements lexical and syntactic analysis for the Jack
// programming language.
package syntax

import "fmt"

// TokenKind classifies a lexical token.
type TokenKind uint8

const (
	KindEOF        TokenKind = iota // end of file
	KindKeyword                     // class, let, while, ...
	KindSymbol                      // { } ( ) [ ] . , ; + - * / & | < > = ~
	KindIdentifier                  // foo, Main, _tmp2
	KindIntConst                    // 0 .. 32767
	KindStringConst                 // "hello"

	kindCount
)

// kindNames maps token kinds to their display names.
var kindNames = [...]string{
	KindEOF:         "EOF",
	KindKeyword:     "KEYWORD",
	KindSymbol:      "SYMBOL",
	KindIdentifier:  "IDENTIFIER",
	KindIntConst:    "INT_CONST",
	KindStringConst: "STRING_CONST",
}

// String returns the display name of the kind.
func (k TokenKind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", k)
}

// Token is a single lexical token with its source location.
// Text holds the lexeme: the keyword or symbol spelling, the identifier
// name, the decimal digits of an integer constant, or the string constant
// content without quotes. Val holds the decoded value of an integer
// constant and is zero otherwise.
type Token struct {
	Kind TokenKind
	Text string
	Val  int // decoded integer constant
	Line int // 1-based
	Col  int // 1-based
}

// Pos returns the token's position within the given file.
func (t Token) Pos(filename string) Pos {
	return NewPos(filename, t.Line, t.Col)
}

// String returns a short description of the token for diagnostics.
func (t Token) String() string {
	switch t.Kind {
	case KindEOF:
		return "EOF"
	case KindStringConst:
		return fmt.Sprintf("%q", t.Text)
	default:
		return t.Text
	}
}

// Is reports whether the token has the given kind and, unless text is
// empty, the given lexeme.
func (t Token) Is(kind TokenKind, text string) bool {
	if t.Kind != kind {
		return false
	}
	return text == "" || t.Text == text
}

// keywords is the Jack keyword table. Identifiers are checked against it
// after scanning; matches become KindKeyword tokens.
var keywords = map[string]bool{
	"class":       true,
	"method":      true,
	"function":    true,
	"constructor": true,
	"int":         true,
	"boolean":     true,
	"char":        true,
	"void":        true,
	"var":         true,
	"static":      true,
	"field":       true,
	"let":         true,
	"do":          true,
	"if":          true,
	"else":        true,
	"while":       true,
	"return":      true,
	"true":        true,
	"false":       true,
	"null":        true,
	"this":        true,
}

// IsKeyword reports whether s is a Jack keyword.
func IsKeyword(s string) bool {
	return keywords[s]
}

// isSymbol reports whether r is one of Jack's single-character symbols.
func isSymbol(r rune) bool {
	switch r {
	case '{', '}', '(', ')', '[', ']', '.', ',', ';',
		'+', '-', '*', '/', '&', '|', '<', '>', '=', '~':
		return true
	}
	return false
}
