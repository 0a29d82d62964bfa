package checker

import "github.com/dolthub/swiss"

// symKind distinguishes a plain variable binding from a function binding;
// variables and functions share one namespace (spec.md §4.2).
type symKind int

const (
	symVar symKind = iota
	symFunc
)

// symbol is what a name resolves to in scope.
type symbol struct {
	kind  symKind
	arity int // only meaningful when kind == symFunc
}

// scope is one link in the chain of nested lexical scopes: Let bodies,
// FunDefs bodies, and function bodies each push a new scope. Lookups walk
// outward through parent, so inner scopes may shadow outer ones freely.
type scope struct {
	parent   *scope
	bindings *swiss.Map[string, symbol]
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, bindings: swiss.NewMap[string, symbol](4)}
}

func (s *scope) define(name string, sym symbol) {
	s.bindings.Put(name, sym)
}

func (s *scope) lookup(name string) (symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.bindings.Get(name); ok {
			return sym, true
		}
	}
	return symbol{}, false
}

// nameSet tracks names seen so far within a single Let or FunDefs group, to
// detect the "duplicated within one group" errors (DuplicateBinding,
// DuplicateFunName, DuplicateArgName) — a narrower check than shadowing,
// which is always allowed.
type nameSet struct {
	seen *swiss.Map[string, struct{}]
}

func newNameSet() nameSet {
	return nameSet{seen: swiss.NewMap[string, struct{}](4)}
}

// add reports whether name was already present.
func (s nameSet) add(name string) bool {
	if _, ok := s.seen.Get(name); ok {
		return true
	}
	s.seen.Put(name, struct{}{})
	return false
}
