package heist

import (
	"fmt"
	"text/scanner"

	"github.com/nukata/goarith"
)

// Environment represents Scheme's environment.
// Origin is non-nil for a frame bound by a macro-inserted identifier; it is
// the macro which inserted it.
type Environment struct {
	Sym    *Symbol
	Val    Any
	Origin *Macro
	Next   *Environment
}

// Find searches the environment for a symbol bound by ordinary code.
// It returns nil if there is none.
func (env *Environment) Find(key *Symbol) *Environment {
	for env != nil {
		if env.Sym == key && env.Origin == nil {
			return env
		}
		env = env.Next
	}
	return nil
}

// LookFor searches the environment for a symbol.
func (env *Environment) LookFor(key *Symbol) *Environment {
	if pair := env.Find(key); pair != nil {
		return pair
	}
	panic(NewEvalError("undefined variable", key))
}

// IsDefined reports whether the symbol is bound in the environment.
func (env *Environment) IsDefined(key *Symbol) bool {
	return env.Find(key) != nil
}

// findBinding searches for the frame a macro-inserted identifier denotes:
// a frame bound by an identifier the same macro inserted, or else the
// binding visible where the macro was defined.
func (env *Environment) findBinding(b *Binding) *Environment {
	for e := env; e != nil; e = e.Next {
		if e.Sym == b.Sym && e.Origin == b.Macro {
			return e
		}
	}
	return b.Env.Find(b.Sym)
}

// Resolve is findBinding which panics if the identifier is unbound.
func (env *Environment) Resolve(b *Binding) *Environment {
	if pair := env.findBinding(b); pair != nil {
		return pair
	}
	panic(NewEvalError("undefined variable", b.Sym))
}

// lookupIdentifier finds the frame of a symbol or a Binding.
func (env *Environment) lookupIdentifier(x Any) *Environment {
	switch id := x.(type) {
	case *Symbol:
		return env.LookFor(id)
	case *Binding:
		return env.Resolve(id)
	}
	panic(NewEvalError("not an identifier", x))
}

// PrependDefs builds a new environment which prepends pairs of keys and data.
func (env *Environment) PrependDefs(keys *Cell, data *Cell) *Environment {
	if keys == Nil {
		if data != Nil {
			panic(NewEvalError("surplus arg", data))
		}
		return env
	}
	if data == Nil {
		panic(NewEvalError("missing arg for", keys))
	}
	next := env.PrependDefs(keys.Cdr.(*Cell), data.Cdr.(*Cell))
	switch key := keys.Car.(type) {
	case *Symbol:
		return &Environment{Sym: key, Val: data.Car, Next: next}
	case *Binding:
		return &Environment{Sym: key.Sym, Val: data.Car, Origin: key.Macro, Next: next}
	}
	panic(NewEvalError("bad parameter", keys.Car))
}

// define binds sym to val in the head frame of env, keeping its old
// content in a new second frame.
func (env *Environment) define(sym *Symbol, val Any) {
	env.Next = &Environment{env.Sym, env.Val, env.Origin, env.Next}
	env.Sym, env.Val, env.Origin = sym, val, nil
}

//----------------------------------------------------------------------

func c(name string, fun func(*Cell) Any, next *Environment) *Environment {
	return &Environment{Sym: Intern(name), Val: fun, Next: next}
}

// kw binds a keyword to itself.
func kw(sym *Symbol, next *Environment) *Environment {
	return &Environment{Sym: sym, Val: sym, Next: next}
}

func number(x Any) goarith.Number {
	n := goarith.AsNumber(x)
	if n == nil {
		panic(NewEvalError("not a number", x))
	}
	return n
}

// NewEnvironment builds a global environment with the builtins and the
// prelude loaded.
func NewEnvironment() *Environment {
	env := builtins()
	if err := loadPrelude(env); err != nil {
		panic(err)
	}
	return env
}

// GlobalEnv is the environment the front-end evaluates in.
var GlobalEnv = NewEnvironment()

func builtins() *Environment {
	return c(
		"car", func(x *Cell) Any {
			return x.Car.(*Cell).Car
		}, c("cdr", func(x *Cell) Any {
			return x.Car.(*Cell).Cdr
		}, c("cons", func(x *Cell) Any {
			return &Cell{x.Car, x.Cdr.(*Cell).Car}
		}, c("eq?", func(x *Cell) Any {
			return x.Car == x.Cdr.(*Cell).Car
		}, c("eqv?", func(x *Cell) Any {
			a, b := x.Car, x.Cdr.(*Cell).Car
			if a == b {
				return true
			}
			if x := goarith.AsNumber(a); x != nil {
				if y := goarith.AsNumber(b); y != nil {
					if x.Cmp(y) == 0 {
						return true
					}
				}
			}
			return false
		}, c("equal?", func(x *Cell) Any {
			return Equal(x.Car, x.Cdr.(*Cell).Car)
		}, c("pair?", func(x *Cell) Any {
			c, ok := x.Car.(*Cell)
			return ok && c != Nil
		}, c("null?", func(x *Cell) Any {
			return x.Car == Nil
		}, c("not", func(x *Cell) Any {
			return x.Car == false
		}, c("list", func(x *Cell) Any {
			return x
		}, c("display", func(x *Cell) Any {
			fmt.Print(Stringify(x.Car, false))
			return Void
		}, c("newline", func(x *Cell) Any {
			fmt.Println()
			return Void
		}, c("read", func(x *Cell) Any {
			return Input.ReadExpression("", "")
		}, c("eof-object?", func(x *Cell) Any {
			return x.Car == scanner.EOF
		}, c("symbol?", func(x *Cell) Any {
			_, ok := x.Car.(*Symbol)
			return ok
		}, c("+", func(x *Cell) Any {
			a, b := x.Car, x.Cdr.(*Cell).Car
			return number(a).Add(number(b))
		}, c("-", func(x *Cell) Any {
			a, b := x.Car, x.Cdr.(*Cell).Car
			return number(a).Sub(number(b))
		}, c("*", func(x *Cell) Any {
			a, b := x.Car, x.Cdr.(*Cell).Car
			return number(a).Mul(number(b))
		}, c("<", func(x *Cell) Any {
			a, b := x.Car, x.Cdr.(*Cell).Car
			return number(a).Cmp(number(b)) < 0
		}, c(">", func(x *Cell) Any {
			a, b := x.Car, x.Cdr.(*Cell).Car
			return number(a).Cmp(number(b)) > 0
		}, c("=", func(x *Cell) Any {
			a, b := x.Car, x.Cdr.(*Cell).Car
			return number(a).Cmp(number(b)) == 0
		}, kw(Quote, kw(If, kw(Begin, kw(Lambda, kw(Define, kw(SetQ,
			kw(DefineSyntax, kw(SyntaxRules,
				kw(CallCC, kw(Apply,
					nil)))))))))))))))))))))))))))))))
}
