// Package types defines the Jack type model and the interning pool that
// canonicalizes it.
package types

import "strings"

// Type describes a Jack type: a primitive (int, char, boolean, void) or
// a class name, with optional generic arguments used only for the
// Array<T> display form. Types are interned; two equal types compare by
// pointer identity after interning, so Type values must never be
// mutated once handed out.
type Type struct {
	Base     string
	Generics []*Type
}

// String formats the type the way it appears in source, e.g.
// "Array<int>".
func (t *Type) String() string {
	if len(t.Generics) == 0 {
		return t.Base
	}
	var b strings.Builder
	b.WriteString(t.Base)
	b.WriteByte('<')
	for i, g := range t.Generics {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(g.String())
	}
	b.WriteByte('>')
	return b.String()
}

// IsPrimitive reports whether t is one of int, char, boolean, void.
func (t *Type) IsPrimitive() bool {
	switch t.Base {
	case "int", "char", "boolean", "void":
		return true
	}
	return false
}

// IsClass reports whether t names a class (anything that is neither a
// primitive nor the null type).
func (t *Type) IsClass() bool {
	return !t.IsPrimitive() && t.Base != anyBase
}

// IsVoid reports whether t is the void type.
func (t *Type) IsVoid() bool {
	return t.Base == "void"
}

// IsAny reports whether t is the type of the null literal, which
// unifies with any class type.
func (t *Type) IsAny() bool {
	return t.Base == anyBase
}

// anyBase is the internal base name for the null literal's type. It is
// not a legal Jack identifier start, so it cannot collide with a class.
const anyBase = "<null>"

// Compatible reports whether a value of type b may appear where type a
// is expected. Types with the same base are compatible regardless of
// generic arguments (Array<T> is checked as Array), and the null type
// unifies with any class type.
func Compatible(a, b *Type) bool {
	if a == b {
		return true
	}
	if a.Base == b.Base {
		return true
	}
	if a.IsAny() && b.IsClass() {
		return true
	}
	if b.IsAny() && a.IsClass() {
		return true
	}
	return false
}
