// Package registry implements the whole-program class and subroutine
// registry. Compile tasks share it, alongside the type interner: parse
// tasks write it, later phases only read.
package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/you-not-fish/jack/internal/syntax"
	"github.com/you-not-fish/jack/internal/types"
)

// MethodSignature records the externally visible shape of a subroutine:
// its return type, parameter types, kind, and declaration location.
type MethodSignature struct {
	ReturnType *types.Type
	Params     []*types.Type
	Kind       syntax.SubKind
	Line, Col  int
}

// IsStatic reports whether the subroutine has no implicit this.
// Functions and constructors are static; methods are not.
func (s MethodSignature) IsStatic() bool {
	return s.Kind.IsStatic()
}

// Registry is a thread-safe store of class and method declarations for
// one build. All mutations and reads are protected by a single mutex;
// contention is low because registrations are O(classes + methods) and
// lookups never block on user code.
type Registry struct {
	mu      sync.Mutex
	classes map[string]bool
	methods map[string]map[string]MethodSignature
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		classes: make(map[string]bool),
		methods: make(map[string]map[string]MethodSignature),
	}
}

// RegisterClass records a class name. It reports false if the name is
// already registered.
func (r *Registry) RegisterClass(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.classes[name] {
		return false
	}
	r.classes[name] = true
	return true
}

// RegisterMethod records a subroutine signature under its class. It
// reports false if the class already declares a subroutine of that
// name.
func (r *Registry) RegisterMethod(class, name string, sig MethodSignature) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.methods[class]
	if m == nil {
		m = make(map[string]MethodSignature)
		r.methods[class] = m
	}
	if _, ok := m[name]; ok {
		return false
	}
	m[name] = sig
	return true
}

// ClassExists reports whether the class is registered. The primitive
// type names always exist.
func (r *Registry) ClassExists(name string) bool {
	switch name {
	case "int", "char", "boolean", "void":
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.classes[name]
}

// MethodExists reports whether the class declares the subroutine.
func (r *Registry) MethodExists(class, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.methods[class]
	if !ok {
		return false
	}
	_, ok = m[name]
	return ok
}

// Signature returns the subroutine's signature, or an error if the
// class or subroutine is unknown.
func (r *Registry) Signature(class, name string) (MethodSignature, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.methods[class]
	if !ok {
		return MethodSignature{}, fmt.Errorf("unknown class '%s'", class)
	}
	sig, ok := m[name]
	if !ok {
		return MethodSignature{}, fmt.Errorf("class '%s' has no subroutine '%s'", class, name)
	}
	return sig, nil
}

// ClassCount returns the number of registered classes.
func (r *Registry) ClassCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.classes)
}

// dumpEntry is one row of the JSON export.
type dumpEntry struct {
	Class  string `json:"class"`
	Method string `json:"method"`
	Type   string `json:"type"`
	Return string `json:"return"`
	Params string `json:"params"`
}

// DumpJSON writes the registry content to w for external viewers. The
// output is sorted so repeated dumps of the same program are identical.
func (r *Registry) DumpJSON(w io.Writer) error {
	r.mu.Lock()

	var entries []dumpEntry
	for class, m := range r.methods {
		for name, sig := range m {
			params := ""
			for i, p := range sig.Params {
				if i > 0 {
					params += ", "
				}
				params += p.String()
			}
			entries = append(entries, dumpEntry{
				Class:  class,
				Method: name,
				Type:   sig.Kind.String(),
				Return: sig.ReturnType.String(),
				Params: params,
			})
		}
	}
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Class != entries[j].Class {
			return entries[i].Class < entries[j].Class
		}
		return entries[i].Method < entries[j].Method
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{"registry": entries})
}
