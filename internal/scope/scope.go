package scope

import (
	"sort"
	"sync"
)

// Scope is a mutable mapping from variable name to *Variable, arranged in
// a tree. Children are owned by their parent; name lookup walks upward,
// enumeration and teardown walk downward only.
type Scope struct {
	mu     sync.RWMutex
	vars   map[string]*Variable
	kids   []*Scope
	parent *Scope
}

// New creates an empty root scope.
func New() *Scope {
	return &Scope{vars: make(map[string]*Variable)}
}

// NewKid creates a child scope owned by s.
func (s *Scope) NewKid() *Scope {
	kid := New()
	kid.parent = s
	s.mu.Lock()
	s.kids = append(s.kids, kid)
	s.mu.Unlock()
	return kid
}

// Var returns the variable with the given name defined locally in s,
// creating an uninitialized one if absent. It never consults the parent.
func (s *Scope) Var(name string) *Variable {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vars[name]; ok {
		return v
	}
	v := &Variable{}
	s.vars[name] = v
	return v
}

// FindVar looks the name up in s and then in each ancestor in turn,
// returning nil when no scope on the chain defines it.
func (s *Scope) FindVar(name string) *Variable {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		v, ok := cur.vars[name]
		cur.mu.RUnlock()
		if ok {
			return v
		}
	}
	return nil
}

// FindOrCreateVar returns the variable visible under name from s,
// creating an uninitialized one locally when no scope on the chain
// defines it. Operators use this for their outputs so that slots
// pre-created by the engine are reused rather than shadowed.
func (s *Scope) FindOrCreateVar(name string) *Variable {
	if v := s.FindVar(name); v != nil {
		return v
	}
	return s.Var(name)
}

// FindLocalVar looks the name up in s only, returning nil when absent.
func (s *Scope) FindLocalVar(name string) *Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vars[name]
}

// LocalVarNames returns the names defined directly in s, sorted for
// deterministic iteration.
func (s *Scope) LocalVarNames() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Kids returns the child scopes owned by s.
func (s *Scope) Kids() []*Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Scope(nil), s.kids...)
}

// EraseVarsExcept removes every locally-defined variable whose handle is
// not in keep. Variables in keep stay bound under their current names.
func (s *Scope) EraseVarsExcept(keep map[*Variable]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, v := range s.vars {
		if _, ok := keep[v]; !ok {
			delete(s.vars, name)
		}
	}
}

// DropKids destroys all child scopes recursively.
func (s *Scope) DropKids() {
	s.mu.Lock()
	kids := s.kids
	s.kids = nil
	s.mu.Unlock()
	for _, kid := range kids {
		kid.parent = nil
		kid.DropKids()
	}
}
