package heist

// expandTemplate instantiates a template with the bindings of ms. depth is
// the number of ellipses the template is under and path the repetition
// index of each of them.
func (m *Macro) expandTemplate(template Any, ms *Matches, depth int, path []int) (Any, error) {
	switch t := template.(type) {
	case *Cell:
		ts, proper := listToSlice(t)
		var out []Any
		for i, cell := range ts {
			if isEllipsis(cell) {
				continue
			}
			if !followedByEllipsis(ts, i) {
				x, err := m.expandTemplate(cell, ms, depth, path)
				if err != nil {
					return nil, err
				}
				if x != nil {
					out = append(out, x)
				}
				continue
			}
			n, err := ms.Repeats(depth+1, templateVars(cell, nil), path)
			if err != nil {
				return nil, err
			}
			for k := 0; k < n; k++ {
				sub := append(path[:len(path):len(path)], k)
				x, err := m.expandTemplate(cell, ms, depth+1, sub)
				if err != nil {
					return nil, err
				}
				if x != nil {
					out = append(out, x)
				}
			}
		}
		if proper {
			return List(out...), nil
		}
		tail, err := m.expandTemplate(lastCdr(t), ms, depth, path) // (a ... . tail)
		if err != nil {
			return nil, err
		}
		return appendTail(List(out...), tail), nil
	case *Symbol:
		if d, ok := ms.DepthOf(string(*t)); ok {
			if d > depth {
				return nil, &MacroError{Err: ErrUnboundTemplateVariable,
					Detail: string(*t) + " is used with too few ellipses"}
			}
			return ms.Get(d, string(*t), path[:d])
		}
		if m.Env.IsDefined(t) {
			return &Binding{Sym: t, Env: m.Env, Macro: m}, nil
		}
		return m.rename(t), nil
	default:
		return template, nil
	}
}

// templateVars appends the identifiers occurring in a template to names.
func templateVars(template Any, names []string) []string {
	switch t := template.(type) {
	case *Cell:
		for t != Nil {
			names = templateVars(t.Car, names)
			kdr, ok := t.Cdr.(*Cell)
			if !ok {
				return templateVars(t.Cdr, names)
			}
			t = kdr
		}
	case *Symbol:
		if !isEllipsis(t) {
			names = append(names, string(*t))
		}
	}
	return names
}

func lastCdr(j *Cell) Any {
	for {
		kdr, ok := j.Cdr.(*Cell)
		if !ok {
			return j.Cdr
		}
		j = kdr
	}
}

// appendTail replaces the terminating () of the list j by tail.
func appendTail(j *Cell, tail Any) Any {
	if j == Nil {
		return tail
	}
	last := j
	for last.Cdr != Nil {
		last = last.Cdr.(*Cell)
	}
	last.Cdr = tail
	return j
}
