package heist

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestExpandFirstMatchingRule(t *testing.T) {
	env := NewEnvironment()
	m := syntaxRules(t, env, `(syntax-rules ()
		((_ x) (quote first))
		((_ x) (quote second))
		((_ x y) (quote pair)))`)
	tests := []struct {
		args string
		want string
	}{
		{"1", "(quote first)"},
		{"(a b)", "(quote first)"},
		{"1 2", "(quote pair)"},
	}
	for _, tt := range tests {
		x, err := m.Expand(env, read(t, "("+tt.args+")").(*Cell))
		if err != nil {
			t.Errorf("expanding (%s): %v", tt.args, err)
			continue
		}
		if got := Stringify(Unwrap(x.Form), true); got != tt.want {
			t.Errorf("expanding (%s) = %s, want %s", tt.args, got, tt.want)
		}
	}
}

func TestExpandNoRuleMatched(t *testing.T) {
	env := NewEnvironment()
	m := syntaxRules(t, env, "(syntax-rules () ((_ a) a) ((_ a b c) a))")
	_, err := expand(t, m, env, "1 2")
	if !errors.Is(err, ErrNoRuleMatched) {
		t.Fatalf("expanding (1 2): %v, want ErrNoRuleMatched", err)
	}
	var me *MacroError
	if !errors.As(err, &me) || me.Macro != Intern("m") || me.Rule != -1 {
		t.Errorf("error %#v does not name the macro", err)
	}
	if s := err.Error(); !strings.Contains(s, "m: no rule matched") || !strings.Contains(s, "(m 1 2)") {
		t.Errorf("error message %q", s)
	}
}

func TestExpandRenamesConsistently(t *testing.T) {
	env := NewEnvironment()
	m := syntaxRules(t, env, "(syntax-rules () ((_ a) (tmp a)))")
	first, err := m.Expand(env, List(1))
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Expand(env, List(2))
	if err != nil {
		t.Fatal(err)
	}
	r1 := first.Form.(*Cell).Car
	r2 := second.Form.(*Cell).Car
	if r1 != r2 {
		t.Errorf("tmp was renamed to %v and then to %v", r1, r2)
	}
	if r1 == Intern("tmp") || r1 == Intern("::tmp::") {
		t.Errorf("the renamed tmp %v is an interned symbol", r1)
	}

	other := syntaxRules(t, env, "(syntax-rules () ((_ a) (tmp a)))")
	x, err := other.Expand(env, List(3))
	if err != nil {
		t.Fatal(err)
	}
	if x.Form.(*Cell).Car == r1 {
		t.Errorf("two macros share the renamed tmp")
	}
}

func TestExpandConcurrently(t *testing.T) {
	env := NewEnvironment()
	m := syntaxRules(t, env, "(syntax-rules () ((_ a b ...) (fresh a (b ...))))")
	const n = 16
	results := make([]Any, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x, err := m.Expand(env, List(i, i+1, i+2))
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = x.Form
		}(i)
	}
	wg.Wait()
	var fresh Any
	for i, form := range results {
		j, ok := form.(*Cell)
		if !ok {
			continue
		}
		if fresh == nil {
			fresh = j.Car
		} else if j.Car != fresh {
			t.Errorf("expansion %d renamed fresh to another symbol", i)
		}
		if got := Stringify(j.Cdr, true); i == 0 && got != "(0 (1 2))" {
			t.Errorf("expansion 0 = %s", got)
		}
	}
}

func TestNewMacroMalformed(t *testing.T) {
	env := NewEnvironment()
	tests := []struct {
		src    string
		detail string
	}{
		{"(syntax-rules)", "no literals"},
		{"(syntax-rules x ((_) 1))", "literals must be a list"},
		{"(syntax-rules (1) ((_) 1))", "bad literal"},
		{"(syntax-rules () . x)", "rules must be a list"},
		{"(syntax-rules () x)", "rule must be a list"},
		{"(syntax-rules () ((_ a) a a))", "rule must be (pattern template)"},
		{"(syntax-rules () (x 1))", "pattern must be a non-empty list"},
		{"(syntax-rules () (() 1))", "pattern must be a non-empty list"},
		{"(syntax-rules () ((_ a a) a))", "duplicate pattern variable"},
		{"(syntax-rules () ((_ (a b) (c a)) a))", "duplicate pattern variable"},
		{"(syntax-rules () ((_ ... a) a))", "misplaced ellipsis"},
		{"(syntax-rules () ((_ a ... ...) a))", "misplaced ellipsis"},
		{"(syntax-rules () ((_ a . b) a))", "pattern must be a proper list"},
	}
	for _, tt := range tests {
		form := read(t, tt.src).(*Cell)
		_, err := NewMacro(form.Cdr.(*Cell), env)
		if !errors.Is(err, ErrMalformedRule) {
			t.Errorf("%s: %v, want ErrMalformedRule", tt.src, err)
			continue
		}
		if !strings.Contains(err.Error(), tt.detail) {
			t.Errorf("%s: %v, want %q", tt.src, err, tt.detail)
		}
	}
}

func TestNewMacroLiterals(t *testing.T) {
	// A literal may occur more than once, being no pattern variable.
	m := syntaxRules(t, NewEnvironment(), "(syntax-rules (=>) ((_ => a =>) a))")
	if !m.Literals[Intern("=>")] || len(m.Literals) != 1 {
		t.Errorf("literals = %v", m.Literals)
	}
	if got := m.String(); got != "#<macro m>" {
		t.Errorf("String() = %s", got)
	}
}

func TestExpandTraced(t *testing.T) {
	SetTracing(true)
	defer SetTracing(false)
	env := NewEnvironment()
	got, err := run(t, env, "(let ((x 1)) (or #f x))")
	if err != nil || got != "1" {
		t.Errorf("traced expansion = %s, %v, want 1", got, err)
	}
}
