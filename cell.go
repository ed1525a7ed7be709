// Package heist is a little Scheme in Go with hygienic syntax-rules macros.
package heist

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"text/scanner"

	"github.com/nukata/goarith"
)

type Any = interface{}

//----------------------------------------------------------------------

// Cell represents a cons-cell.
type Cell struct {
	Car Any
	Cdr Any
}

var Nil *Cell = nil

func (j *Cell) String() string {
	return Stringify(j, true)
}

// List builds a proper list of the arguments.
func List(xs ...Any) *Cell {
	result := Nil
	for i := len(xs) - 1; i >= 0; i-- {
		result = &Cell{xs[i], result}
	}
	return result
}

// listToSlice returns the elements of j and whether j is a proper list.
func listToSlice(j *Cell) ([]Any, bool) {
	var xs []Any
	for j != Nil {
		xs = append(xs, j.Car)
		kdr, ok := j.Cdr.(*Cell)
		if !ok {
			return xs, false
		}
		j = kdr
	}
	return xs, true
}

//----------------------------------------------------------------------

// Symbol represents Scheme's symbol.
type Symbol string

// The mapping from string to *Symbol
var Symbols sync.Map

// Intern interns a name as a symbol.
func Intern(name string) *Symbol {
	newSym := Symbol(name)
	sym, _ := Symbols.LoadOrStore(name, &newSym)
	return sym.(*Symbol)
}

// uninterned returns a symbol that no call of Intern will ever return.
func uninterned(name string) *Symbol {
	sym := Symbol(name)
	return &sym
}

// Char represents Scheme's character.
type Char rune

var charNames = map[Char]string{' ': "space", '\n': "newline", '\t': "tab"}

//----------------------------------------------------------------------

// Void means the expresssion has no value.
var Void = &struct{}{}

// Stringify returns the string representation of an expression.
// Strings in the expression will be quoted if quote is true.
func Stringify(exp Any, quote bool) (result string) {
	switch exp {
	case true:
		return "#t"
	case false:
		return "#f"
	case scanner.EOF: // rune(-1)
		return "#<EOF>"
	case Void:
		return "#<VOID>"
	}
	switch x := exp.(type) {
	case *Cell:
		ss := make([]string, 0, 100)
		for x != Nil {
			ss = append(ss, Stringify(x.Car, quote))
			if kdr, ok := x.Cdr.(*Cell); ok {
				x = kdr
			} else {
				ss = append(ss, ".")
				ss = append(ss, Stringify(x.Cdr, quote))
				break
			}
		}
		return "(" + strings.Join(ss, " ") + ")"
	case *Environment:
		return fmt.Sprintf("#%p", x)
	case *Closure:
		p := Stringify(x.Params, true)
		b := Stringify(x.Body, true)
		return "#<" + p + ":" + b + ">"
	case Continuation:
		ss := make([]string, 0, 100)
		for _, step := range x {
			p := OpStr[step.Op]
			v := Stringify(step.Val, true)
			ss = append(ss, "<"+p+":"+v+">")
		}
		return "#<" + strings.Join(ss, "\n\t") + ">"
	case *Macro:
		if x.Name == nil {
			return "#<macro>"
		}
		return "#<macro " + string(*x.Name) + ">"
	case *Binding:
		return string(*x.Sym)
	case func(*Cell) Any:
		return fmt.Sprintf("#<%p>", x)
	case *Symbol:
		return string(*x)
	case Char:
		if !quote {
			return string(rune(x))
		}
		if name, ok := charNames[x]; ok {
			return `#\` + name
		}
		return `#\` + string(rune(x))
	case string:
		if quote {
			return fmt.Sprintf("%q", exp)
		}
	}
	return fmt.Sprintf("%v", exp)
}

//----------------------------------------------------------------------

// Equal reports whether two data are equal in the sense of equal?.
// Numbers are equal only if they have the same exactness.
func Equal(a, b Any) bool {
	switch x := a.(type) {
	case *Cell:
		y, ok := b.(*Cell)
		if !ok {
			return false
		}
		for x != Nil && y != Nil {
			if !Equal(x.Car, y.Car) {
				return false
			}
			xd, ok1 := x.Cdr.(*Cell)
			yd, ok2 := y.Cdr.(*Cell)
			if !ok1 || !ok2 {
				return Equal(x.Cdr, y.Cdr)
			}
			x, y = xd, yd
		}
		return x == y
	case *Symbol:
		y, ok := b.(*Symbol)
		return ok && x == y
	case *Binding:
		y, ok := b.(*Binding)
		return ok && x.Sym == y.Sym && x.Macro == y.Macro
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case Char:
		y, ok := b.(Char)
		return ok && x == y
	}
	if x := goarith.AsNumber(a); x != nil {
		if y := goarith.AsNumber(b); y != nil {
			return reflect.TypeOf(x) == reflect.TypeOf(y) && x.Cmp(y) == 0
		}
	}
	return false
}

// Unwrap replaces every Binding in x by its bare symbol and every renamed
// symbol by the symbol it was renamed from.
func Unwrap(x Any) Any {
	y, _ := unwrap(x)
	return y
}

func unwrap(x Any) (Any, bool) {
	switch y := x.(type) {
	case *Binding:
		return y.Sym, true
	case *Symbol:
		if sym := renamedFrom(y); sym != y {
			return sym, true
		}
	case *Cell:
		if y == Nil {
			return y, false
		}
		car, c1 := unwrap(y.Car)
		cdr, c2 := unwrap(y.Cdr)
		if c1 || c2 {
			return &Cell{car, cdr}, true
		}
	}
	return x, false
}
