package heist

type matchResult int

const (
	notMatched matchResult = iota
	matched
	matchedEmpty // matched, but there was no input to bind
)

// at returns xs[i], or nil past the end of xs.
func at(xs []Any, i int) Any {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

// match matches an input form against a pattern, binding pattern variables
// in ms at depth. path holds the repetition index of each enclosing
// ellipsis. A nil input means there is no form at that position.
func (m *Macro) match(pattern, input Any, ms *Matches, depth int, path []int) matchResult {
	switch p := pattern.(type) {
	case *Cell:
		j, ok := input.(*Cell)
		if !ok {
			return notMatched
		}
		ps, _ := listToSlice(p)
		xs, ok := listToSlice(j)
		if !ok {
			return notMatched
		}
		idx := 0
		for i, token := range ps {
			if isEllipsis(token) {
				continue
			}
			if !followedByEllipsis(ps, i) {
				if m.match(token, at(xs, idx), ms, depth, path) != matched {
					return notMatched
				}
				idx++
				continue
			}
			m.open(token, ms, depth+1, path)
			for n := 0; ; n++ {
				mark := ms.checkpoint()
				sub := append(path[:len(path):len(path)], n)
				if m.match(token, at(xs, idx), ms, depth+1, sub) != matched {
					ms.rollback(mark)
					break
				}
				idx++
			}
		}
		if idx != len(xs) {
			return notMatched
		}
		return matched
	case *Symbol:
		if m.Literals[p] {
			if sameIdentifier(p, input) {
				return matched
			}
			return notMatched
		}
		if input == nil {
			return matchedEmpty
		}
		ms.Put(depth, string(*p), input, path)
		return matched
	default:
		if input != nil && Equal(p, input) {
			return matched
		}
		return notMatched
	}
}

// sameIdentifier reports whether x is the literal identifier lit, possibly
// inserted by another macro.
func sameIdentifier(lit *Symbol, x Any) bool {
	switch id := x.(type) {
	case *Symbol:
		return renamedFrom(id) == lit
	case *Binding:
		return id.Sym == lit
	}
	return false
}

// open records that a repetition of the pattern element p starts at depth,
// so that its variables are bound even if it repeats zero times.
func (m *Macro) open(p Any, ms *Matches, depth int, path []int) {
	vars := make(map[string]int)
	m.patternVars(p, depth, vars)
	for name, d := range vars {
		ms.open(d, name, path)
	}
}

// patternVars collects the pattern variables of p with their depths.
func (m *Macro) patternVars(p Any, depth int, vars map[string]int) {
	switch x := p.(type) {
	case *Cell:
		xs, _ := listToSlice(x)
		for i, e := range xs {
			if isEllipsis(e) {
				continue
			}
			if followedByEllipsis(xs, i) {
				m.patternVars(e, depth+1, vars)
			} else {
				m.patternVars(e, depth, vars)
			}
		}
	case *Symbol:
		if !m.Literals[x] && !isEllipsis(x) {
			vars[string(*x)] = depth
		}
	}
}
