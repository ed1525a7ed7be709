package heist

import (
	"fmt"
)

var Quote = Intern("quote")
var If = Intern("if")
var Begin = Intern("begin")
var Lambda = Intern("lambda")
var Define = Intern("define")
var SetQ = Intern("set!")
var DefineSyntax = Intern("define-syntax")
var SyntaxRules = Intern("syntax-rules")
var Apply = Intern("apply")
var CallCC = Intern("call/cc")

// EvalError represents an error in evaluation.
type EvalError struct {
	Message string
}

// NewEvalError constructs a new EvalError.
func NewEvalError(msg string, x Any) *EvalError {
	return &EvalError{msg + ": " + Stringify(x, true)}
}

func (err *EvalError) Error() string {
	return "EvalError: " + err.Message
}

//----------------------------------------------------------------------

// Step represents Scheme's step in a continuation.
type Step struct {
	Op  int
	Val Any
}

// Continuation represents Scheme's continuation as a stack.
type Continuation []Step

// Push appends a step to the tail of the continuation.
func (k *Continuation) Push(op int, value Any) {
	*k = append(*k, Step{op, value})
}

// Pop pops a step from the tail of the continuation.
func (k *Continuation) Pop() (int, Any) {
	n := len(*k) - 1
	step := (*k)[n]
	*k = (*k)[:n]
	return step.Op, step.Val
}

// Copy copies the continuation.
func (k Continuation) Copy() Continuation {
	dst := make(Continuation, len(k))
	copy(dst, k)
	return dst
}

//----------------------------------------------------------------------

// Closure represents a lambda expression with its environment.
type Closure struct {
	Params *Cell
	Body   *Cell
	Env    *Environment
}

// Continuation operators
const (
	IfOp = iota
	BeginOp
	LambdaOp
	DefineOp
	SetQOp
	ApplyOp
	FunCallOp
	EvalArgOp
	PushArgsOp
	SetNewEnvOp
	RestoreEnvOp
)

var OpStr = [...]string{
	"If", "Begin", "Lambda", "Define", "SetQ", "Apply",
	"FunCall", "EvalArg", "PushArgs", "SetNewEnv", "RestoreEnvOp",
}

// keyword returns the special form or the macro the head of a call
// denotes, or nil.
func keyword(head Any, env *Environment) Any {
	var pair *Environment
	switch h := head.(type) {
	case *Symbol:
		pair = env.Find(h)
	case *Binding:
		pair = env.findBinding(h)
	}
	if pair == nil {
		return nil
	}
	switch v := pair.Val.(type) {
	case *Macro:
		return v
	case *Symbol:
		if v == pair.Sym {
			return v
		}
	}
	return nil
}

// identifier returns the symbol an identifier defines.
func identifier(x Any) *Symbol {
	switch id := x.(type) {
	case *Symbol:
		return id
	case *Binding:
		return id.Sym
	}
	panic(NewEvalError("not an identifier", x))
}

// Evaluate evaluates an expresssion in an environment.
// It panics with an error if the evaluation fails.
func Evaluate(exp Any, env *Environment) Any {
	k := make(Continuation, 0, 100)
	for {
	Loop1:
		for {
			switch x := exp.(type) {
			case *Cell:
				if x == Nil {
					panic(NewEvalError("empty application", x))
				}
				kar, kdr := x.Car, x.Cdr.(*Cell)
				head := keyword(kar, env)
				if mac, ok := head.(*Macro); ok {
					expansion, err := mac.Expand(env, kdr)
					if err != nil {
						panic(err)
					}
					exp = expansion.Form
					continue
				}
				switch head {
				case Quote: // (quote e)
					exp = Unwrap(kdr.Car)
					break Loop1
				case If: // (if e1 e2 e3) or (if e1 e2)
					exp = kdr.Car
					k.Push(IfOp, kdr.Cdr)
				case Begin: // (begin e...)
					if kdr == Nil {
						exp = Void
						break Loop1
					}
					exp = kdr.Car
					if kdr.Cdr != Nil {
						k.Push(BeginOp, kdr.Cdr)
					}
				case Lambda: // (lambda (v...) e...)
					exp = &Closure{kdr.Car.(*Cell), kdr.Cdr.(*Cell), env}
					break Loop1
				case Define: // (define var e) or (define (f v...) e...)
					if sig, ok := kdr.Car.(*Cell); ok {
						k.Push(DefineOp, identifier(sig.Car))
						exp = &Closure{sig.Cdr.(*Cell), kdr.Cdr.(*Cell), env}
						break Loop1
					}
					exp = kdr.Cdr.(*Cell).Car
					k.Push(DefineOp, identifier(kdr.Car))
				case DefineSyntax: // (define-syntax var (syntax-rules ...))
					exp = kdr.Cdr.(*Cell).Car
					k.Push(DefineOp, identifier(kdr.Car))
				case SyntaxRules: // (syntax-rules (literal...) (pattern template)...)
					mac, err := NewMacro(kdr, env)
					if err != nil {
						panic(err)
					}
					exp = mac
					break Loop1
				case SetQ: // (set! var e)
					pair := env.lookupIdentifier(kdr.Car)
					exp = kdr.Cdr.(*Cell).Car
					k.Push(SetQOp, pair)
				default: // (fun arg...)
					exp = kar
					k.Push(ApplyOp, kdr)
				}
			case *Symbol:
				pair := env.LookFor(x)
				exp = pair.Val
				break Loop1
			case *Binding:
				pair := env.Resolve(x)
				exp = pair.Val
				break Loop1
			default: // as a number, #t, #f etc.
				break Loop1
			}
		}
	Loop2:
		for {
			if len(k) == 0 {
				return exp
			}
			op, x := k.Pop()
			switch op {
			case IfOp: // x = (e2 e3)
				j := x.(*Cell)
				if exp == false {
					if j.Cdr == Nil {
						exp = Void
					} else {
						exp = j.Cdr.(*Cell).Car // e3
						break Loop2
					}
				} else {
					exp = j.Car // e2
					break Loop2
				}
			case BeginOp: //  x = (e...)
				j := x.(*Cell)
				if j.Cdr != Nil { // unless tail call...
					k.Push(BeginOp, j.Cdr)
				}
				exp = j.Car
				break Loop2
			case DefineOp: // x = var
				sym := x.(*Symbol)
				if mac, ok := exp.(*Macro); ok && mac.Name == nil {
					mac.Name = sym
				}
				env.define(sym, exp)
				exp = Void
			case SetQOp: // x = &Environment{var, e, ...}
				pair := x.(*Environment)
				pair.Val = exp
				exp = Void
			case ApplyOp: // exp = fun; x = arg...
				j := x.(*Cell)
				if j == Nil {
					exp = applyFunction(exp, Nil, &k, env)
				} else {
					k.Push(FunCallOp, exp)
					for j.Cdr != Nil {
						k.Push(EvalArgOp, j.Car)
						j = j.Cdr.(*Cell)
					}
					exp = j.Car
					k.Push(PushArgsOp, Nil)
					break Loop2
				}
			case PushArgsOp: // x = evaluated arg...
				args := &Cell{exp, x}
				op, exp = k.Pop()
				if op == EvalArgOp { // exp = next arg
					k.Push(PushArgsOp, args)
					break Loop2
				} else if op == FunCallOp { // exp = evaluated fun
					exp = applyFunction(exp, args, &k, env)
				} else {
					panic(NewEvalError("unexpected "+OpStr[op], exp))
				}
			case SetNewEnvOp, RestoreEnvOp: // x = &Environment{...}
				env = x.(*Environment)
			default:
				panic(NewEvalError("bad "+Stringify(k, true)+" for", exp))
			}
		} // end Loop2
	}
}

// applyFunction applies a function to arguments with a continuation.
func applyFunction(fun Any, arg *Cell, k *Continuation, env *Environment) Any {
	for {
		if fun == CallCC {
			fun, arg = arg.Car, &Cell{k.Copy(), Nil}
		} else if fun == Apply {
			fun, arg = arg.Car, arg.Cdr.(*Cell).Car.(*Cell)
		} else {
			break
		}
	}
	switch fn := fun.(type) {
	case func(*Cell) Any:
		return fn(arg)
	case *Closure:
		n := len(*k) - 1
		if !(n >= 0 && (*k)[n].Op == RestoreEnvOp) { // unless tail call...
			k.Push(RestoreEnvOp, env)
		}
		newEnv := fn.Env.PrependDefs(fn.Params, arg)
		if newEnv == fn.Env { // a frame of its own for internal defines
			newEnv = &Environment{Next: fn.Env}
		}
		k.Push(BeginOp, fn.Body)
		k.Push(SetNewEnvOp, newEnv)
		return Void
	case Continuation:
		*k = fn.Copy()
		return arg.Car
	}
	panic(NewEvalError(fmt.Sprintf("%s is not a function for", Stringify(fun, true)), arg))
}

// Eval evaluates an expression in an environment and returns an error
// instead of panicking.
func Eval(exp Any, env *Environment) (result Any, err error) {
	defer func() {
		switch e := recover().(type) {
		case nil:
		case *EvalError:
			err = e
		case *MacroError:
			err = e
		case error:
			err = &EvalError{e.Error()}
		default:
			err = &EvalError{fmt.Sprintf("%v", e)}
		}
	}()
	return Evaluate(exp, env), nil
}
