package heist

import (
	"fmt"
	"sync"
)

// Ellipsis is the marker of a repeated pattern or template element.
var Ellipsis = Intern("...")

func isEllipsis(x Any) bool {
	return x == Ellipsis
}

// followedByEllipsis reports whether xs[i] is followed by the ellipsis.
func followedByEllipsis(xs []Any, i int) bool {
	return i+1 < len(xs) && isEllipsis(xs[i+1])
}

// Binding is an identifier inserted by a macro template which was already
// defined where the macro was defined. It refers to that definition, or to a
// binder the same macro inserted, never to a binding made at the use site
// or by another macro.
type Binding struct {
	Sym   *Symbol
	Env   *Environment // where Macro was defined
	Macro *Macro
}

// Expansion is the result of a macro call, to be evaluated where the macro
// was used.
type Expansion struct {
	Form Any
}

// Rule is a pair of a pattern and a template of syntax-rules.
type Rule struct {
	Pattern  *Cell
	Template Any
}

// Macro is a syntax-rules transformer.
type Macro struct {
	Name     *Symbol
	Literals map[*Symbol]bool
	Rules    []Rule
	Env      *Environment // where the macro was defined

	mu      sync.Mutex
	renames map[string]*Symbol
}

// NewMacro builds a macro from the operands ((literal...) rule...) of a
// syntax-rules form, closed over env.
func NewMacro(form *Cell, env *Environment) (*Macro, error) {
	m := &Macro{
		Literals: make(map[*Symbol]bool),
		Env:      env,
		renames:  make(map[string]*Symbol),
	}
	if form == Nil {
		return nil, m.malformed(form, "no literals")
	}
	lits, ok := form.Car.(*Cell)
	if !ok {
		return nil, m.malformed(form.Car, "literals must be a list")
	}
	for lits != Nil {
		sym, ok := lits.Car.(*Symbol)
		if !ok || isEllipsis(sym) {
			return nil, m.malformed(lits.Car, "bad literal")
		}
		m.Literals[sym] = true
		if lits, ok = lits.Cdr.(*Cell); !ok {
			return nil, m.malformed(form.Car, "literals must be a list")
		}
	}
	rules, ok := form.Cdr.(*Cell)
	if !ok {
		return nil, m.malformed(form, "rules must be a list")
	}
	xs, ok := listToSlice(rules)
	if !ok {
		return nil, m.malformed(form, "rules must be a list")
	}
	for _, x := range xs {
		rule, err := m.newRule(x)
		if err != nil {
			return nil, err
		}
		m.Rules = append(m.Rules, rule)
	}
	return m, nil
}

func (m *Macro) newRule(x Any) (Rule, error) {
	j, ok := x.(*Cell)
	if !ok {
		return Rule{}, m.malformed(x, "rule must be a list")
	}
	parts, ok := listToSlice(j)
	if !ok || len(parts) != 2 {
		return Rule{}, m.malformed(x, "rule must be (pattern template)")
	}
	pattern, ok := parts[0].(*Cell)
	if !ok || pattern == Nil {
		return Rule{}, m.malformed(parts[0], "pattern must be a non-empty list")
	}
	if _, ok := pattern.Cdr.(*Cell); !ok {
		return Rule{}, m.malformed(pattern, "pattern must be a proper list")
	}
	seen := make(map[string]bool)
	if err := m.checkPattern(pattern.Cdr.(*Cell), seen); err != nil {
		return Rule{}, err
	}
	return Rule{Pattern: pattern, Template: parts[1]}, nil
}

// checkPattern rejects improper lists, misplaced ellipses and duplicate
// pattern variables.
func (m *Macro) checkPattern(p Any, seen map[string]bool) error {
	switch x := p.(type) {
	case *Cell:
		xs, ok := listToSlice(x)
		if !ok {
			return m.malformed(x, "pattern must be a proper list")
		}
		for i, e := range xs {
			if isEllipsis(e) {
				if i == 0 || isEllipsis(xs[i-1]) {
					return m.malformed(x, "misplaced ellipsis")
				}
				continue
			}
			if err := m.checkPattern(e, seen); err != nil {
				return err
			}
		}
	case *Symbol:
		if m.Literals[x] {
			return nil
		}
		if seen[string(*x)] {
			return m.malformed(x, "duplicate pattern variable")
		}
		seen[string(*x)] = true
	}
	return nil
}

func (m *Macro) malformed(form Any, detail string) *MacroError {
	return &MacroError{Macro: m.Name, Rule: -1, Form: form, Err: ErrMalformedRule, Detail: detail}
}

// Expand transcribes a call of the macro. args are the unevaluated operands
// of the call made in env. The first rule whose pattern matches is used.
func (m *Macro) Expand(env *Environment, args *Cell) (*Expansion, error) {
	call := &Cell{m.Name, args}
	if m.Name == nil {
		call = &Cell{Intern("_"), args}
	}
	for i, rule := range m.Rules {
		matches := NewMatches()
		tracer().Debugf("%s: rule %d %s against %s", m, i, Stringify(rule.Pattern, true), Stringify(call, true))
		if m.match(rule.Pattern.Cdr, args, matches, 0, nil) != matched {
			continue
		}
		tracer().Debugf("%s: template %s", m, Stringify(rule.Template, true))
		form, err := m.expandTemplate(rule.Template, matches, 0, nil)
		if err != nil {
			if e, ok := err.(*MacroError); ok {
				e.Macro, e.Rule, e.Form = m.Name, i, call
			}
			tracer().Errorf("%s: %v", m, err)
			return nil, err
		}
		tracer().Debugf("%s: expanded %s", m, Stringify(form, true))
		return &Expansion{form}, nil
	}
	err := &MacroError{Macro: m.Name, Rule: -1, Form: call, Err: ErrNoRuleMatched}
	tracer().Errorf("%v", err)
	return nil, err
}

func (m *Macro) String() string {
	return Stringify(m, true)
}

// rename returns the fresh symbol which stands for sym in every expansion
// of the macro.
func (m *Macro) rename(sym *Symbol) *Symbol {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := string(*sym)
	fresh, ok := m.renames[name]
	if !ok {
		fresh = uninterned(fmt.Sprintf("::%s::", name))
		m.renames[name] = fresh
		origins.Store(fresh, sym)
	}
	return fresh
}

// origins maps each renamed symbol to the symbol it was renamed from.
var origins sync.Map

// renamedFrom returns the symbol sym was renamed from, or sym itself.
func renamedFrom(sym *Symbol) *Symbol {
	if o, ok := origins.Load(sym); ok {
		return o.(*Symbol)
	}
	return sym
}
