package heist

import (
	"fmt"
	"sort"
)

// Splice is the sequence of forms bound to one pattern variable, read
// through a cursor. Each form keeps the repetition path it was bound at;
// groups keeps the path of every repetition opened around the variable.
type Splice struct {
	forms  []Any
	paths  [][]int
	groups [][]int
	index  int
}

// Forms returns the bound forms in the order they were bound.
func (s *Splice) Forms() []Any {
	return s.forms
}

func (s *Splice) push(form Any, path []int) {
	s.forms = append(s.forms, form)
	s.paths = append(s.paths, path)
}

// next returns the next form bound at path, starting from the cursor and
// wrapping around to the first form. It reports false if there is none,
// which template expansion never asks for: it only visits the paths Repeats
// counted.
func (s *Splice) next(path []int) (Any, bool) {
	n := len(s.forms)
	for i := 0; i < n; i++ {
		j := (s.index + i) % n
		if equalPath(s.paths[j], path) {
			s.index = (j + 1) % n
			return s.forms[j], true
		}
	}
	return nil, false
}

// count returns how many forms were bound within the repetition at path.
func (s *Splice) count(path []int) int {
	n := 0
	for _, p := range s.paths {
		if hasPrefix(p, path) {
			n++
		}
	}
	return n
}

// extent returns how many times the repetition below path ran, judged by
// the deeper repetitions recorded for the variable.
func (s *Splice) extent(path []int) int {
	n := 0
	for _, ps := range [][][]int{s.groups, s.paths} {
		for _, p := range ps {
			if len(p) > len(path) && hasPrefix(p, path) && p[len(path)]+1 > n {
				n = p[len(path)] + 1
			}
		}
	}
	return n
}

func hasPrefix(p, prefix []int) bool {
	return len(p) >= len(prefix) && equalPath(p[:len(prefix)], prefix)
}

func equalPath(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

//----------------------------------------------------------------------

// Matches holds the bindings of pattern variables made by one match,
// indexed by ellipsis depth and then by name.
type Matches struct {
	depths map[int]map[string]*Splice
}

// NewMatches returns an empty set of bindings.
func NewMatches() *Matches {
	return &Matches{make(map[int]map[string]*Splice)}
}

func (ms *Matches) splice(depth int, name string) *Splice {
	scope, ok := ms.depths[depth]
	if !ok {
		scope = make(map[string]*Splice)
		ms.depths[depth] = scope
	}
	s, ok := scope[name]
	if !ok {
		s = &Splice{}
		scope[name] = s
	}
	return s
}

// Put binds form to the variable name at depth and path.
func (ms *Matches) Put(depth int, name string, form Any, path []int) {
	ms.splice(depth, name).push(form, path)
}

// open declares name at depth and records that a repetition enclosing it
// was opened at path.
func (ms *Matches) open(depth int, name string, path []int) {
	s := ms.splice(depth, name)
	s.groups = append(s.groups, path)
}

// Defined reports whether name is a pattern variable at depth.
func (ms *Matches) Defined(depth int, name string) bool {
	_, ok := ms.depths[depth][name]
	return ok
}

// DepthOf returns the depth name was bound at.
func (ms *Matches) DepthOf(name string) (int, bool) {
	for depth, scope := range ms.depths {
		if _, ok := scope[name]; ok {
			return depth, true
		}
	}
	return 0, false
}

// Lookup returns the splice of name at depth, or nil.
func (ms *Matches) Lookup(depth int, name string) *Splice {
	return ms.depths[depth][name]
}

// Get consumes the form bound to name at depth within the repetition path.
func (ms *Matches) Get(depth int, name string, path []int) (Any, error) {
	s := ms.Lookup(depth, name)
	if s == nil {
		return nil, &MacroError{Err: ErrUnboundTemplateVariable,
			Detail: fmt.Sprintf("%s at depth %d", name, depth)}
	}
	form, ok := s.next(path)
	if !ok {
		return nil, &MacroError{Err: ErrOverconsumedBinding,
			Detail: fmt.Sprintf("%s has no binding at %v", name, path)}
	}
	return form, nil
}

// Repeats returns how many times a template element containing the
// variables names repeats at depth within the repetition path.
// Every variable bound at depth or deeper must agree on the count.
func (ms *Matches) Repeats(depth int, names []string, path []int) (int, error) {
	count, first := -1, ""
	for _, name := range names {
		d, ok := ms.DepthOf(name)
		if !ok || d < depth {
			continue
		}
		s := ms.Lookup(d, name)
		var n int
		if d == depth {
			n = s.count(path)
		} else {
			n = s.extent(path)
		}
		if count < 0 {
			count, first = n, name
		} else if n != count {
			return 0, &MacroError{Err: ErrEllipsisCountMismatch,
				Detail: fmt.Sprintf("%s repeats %d times but %s repeats %d times", first, count, name, n)}
		}
	}
	if count < 0 {
		return 0, &MacroError{Err: ErrUnboundTemplateVariable,
			Detail: fmt.Sprintf("no pattern variable repeats at depth %d", depth)}
	}
	return count, nil
}

// snapshot is a saved state of Matches to roll back to.
type snapshot map[*Splice][2]int

func (ms *Matches) checkpoint() snapshot {
	mark := make(snapshot)
	for _, scope := range ms.depths {
		for _, s := range scope {
			mark[s] = [2]int{len(s.forms), len(s.groups)}
		}
	}
	return mark
}

// rollback undoes every binding made since mark was taken.
func (ms *Matches) rollback(mark snapshot) {
	for depth, scope := range ms.depths {
		for name, s := range scope {
			n, ok := mark[s]
			if !ok {
				delete(scope, name)
				continue
			}
			s.forms, s.paths, s.groups = s.forms[:n[0]], s.paths[:n[0]], s.groups[:n[1]]
		}
		if len(scope) == 0 {
			delete(ms.depths, depth)
		}
	}
}

// String lists the bindings, for tracing.
func (ms *Matches) String() string {
	var depths []int
	for depth := range ms.depths {
		depths = append(depths, depth)
	}
	sort.Ints(depths)
	s := ""
	for _, depth := range depths {
		var names []string
		for name := range ms.depths[depth] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s += fmt.Sprintf("%d/%s=%s ", depth, name, Stringify(List(ms.depths[depth][name].forms...), true))
		}
	}
	return s
}
