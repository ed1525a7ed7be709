package heist

import (
	"errors"
	"strings"
	"testing"
)

// run evaluates every expression of src in env and returns the printed
// value of the last one.
func run(t *testing.T, env *Environment, src string) (string, error) {
	t.Helper()
	exps, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	var result Any = Void
	for _, exp := range exps {
		if result, err = Eval(exp, env); err != nil {
			return "", err
		}
	}
	return Stringify(result, true), nil
}

func TestEval(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"(+ 1 2)", "3"},
		{"(- 10 (* 2 3))", "4"},
		{"'(a . b)", "(a . b)"},
		{"(if (< 1 2) 'yes 'no)", "yes"},
		{"(if #f 1)", "#<VOID>"},
		{"(begin)", "#<VOID>"},
		{"((lambda (x y) (cons y x)) 1 2)", "(2 . 1)"},
		{"(define (fact n) (if (= n 0) 1 (* n (fact (- n 1))))) (fact 10)", "3628800"},
		{"(define x 1) (set! x (+ x 1)) x", "2"},
		{"(define (f) (define y 5) (* y y)) (f)", "25"},
		{"(+ 1 (call/cc (lambda (k) (+ 2 (k 5)))))", "6"},
		{"(apply + '(3 4))", "7"},
		{`(equal? '(1 "a" #\b) '(1 "a" #\b))`, "#t"},
	}
	for _, tt := range tests {
		got, err := run(t, NewEnvironment(), tt.src)
		if err != nil || got != tt.want {
			t.Errorf("%s = %s, %v, want %s", tt.src, got, err, tt.want)
		}
	}
}

func TestDerivedExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"(let ((x 1) (y 2)) (+ x y))", "3"},
		{"(let () 7)", "7"},
		{"(let ((x 1)) (define y 2) (+ x y))", "3"},
		{"(let* ((x 1) (y (+ x 1))) (* x y))", "2"},
		{"(let* () 8)", "8"},
		{"(and)", "#t"},
		{"(and 1 2 3)", "3"},
		{"(and 1 #f 3)", "#f"},
		{"(or)", "#f"},
		{"(or #f #f 4)", "4"},
		{"(or #f)", "#f"},
		{"(when (< 1 2) 'a 'b)", "b"},
		{"(when #f 'a)", "#<VOID>"},
		{"(unless #f 'a 'b)", "b"},
		{"(unless #t 'a)", "#f"},
		{"(cond (#f 1) ((< 1 2) 2) (else 3))", "2"},
		{"(cond (#f 1) (else 3))", "3"},
		{"(cond (#f 1))", "#<VOID>"},
	}
	for _, tt := range tests {
		got, err := run(t, NewEnvironment(), tt.src)
		if err != nil || got != tt.want {
			t.Errorf("%s = %s, %v, want %s", tt.src, got, err, tt.want)
		}
	}
}

func TestUserMacros(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`(define-syntax rev (syntax-rules () ((_ a b ...) (list b ... a))))
		  (rev 1 2 3 4)`, "(2 3 4 1)"},
		{`(define-syntax my-let* (syntax-rules ()
		    ((_ () body ...) (let () body ...))
		    ((_ ((x v) rest ...) body ...) (let ((x v)) (my-let* (rest ...) body ...)))))
		  (my-let* ((a 1) (b (+ a 1)) (c (* b 3))) (list a b c))`, "(1 2 6)"},
		{`(define-syntax alist (syntax-rules () ((_ (k v ...) ...) '((k v ...) ...))))
		  (alist (x 1 2) (y) (z 3))`, "((x 1 2) (y) (z 3))"},
		{`(define-syntax m (syntax-rules () ((_) 1)))
		  m`, "#<macro m>"},
		{`(define-syntax greet (syntax-rules () ((_) 'hello)))
		  (define-syntax getcar (syntax-rules () ((_) 'car)))
		  (list (greet) (getcar) (eq? (greet) 'hello) (eq? (getcar) 'car))`, "(hello car #t #t)"},
		{`(define-syntax ten (syntax-rules () ((_) 10)))
		  (define (f) (ten))
		  (f)`, "10"},
	}
	for _, tt := range tests {
		got, err := run(t, NewEnvironment(), tt.src)
		if err != nil || got != tt.want {
			t.Errorf("%s = %s, %v, want %s", tt.src, got, err, tt.want)
		}
	}
}

func TestHygiene(t *testing.T) {
	const swap = `(define-syntax swap!
	  (syntax-rules ()
	    ((_ a b) (let ((tmp a)) (set! a b) (set! b tmp)))))`
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"swap", swap + `
		  (define x 1) (define y 2) (swap! x y) (list x y)`, "(2 1)"},
		{"swap tmp", swap + `
		  (define tmp 1) (define y 2) (swap! tmp y) (list tmp y)`, "(2 1)"},
		{"swap local tmp", swap + `
		  (let ((tmp 5) (other 6)) (swap! tmp other) (list tmp other))`, "(6 5)"},
		{"swap defined after global tmp", `(define tmp 0)` + swap + `
		  (let ((tmp 5) (other 6)) (swap! tmp other) (list tmp other tmp))`, "(6 5 6)"},
		{"or", `(define t 5) (or #f t)`, "5"},
		{"or local", `(let ((t 5)) (or #f t))`, "5"},
		{"or shadowed", `(let ((t 7)) (or #f #f t))`, "7"},
		{"inserted literal", `(define-syntax my-if (syntax-rules () ((_ c a b) (cond (c a) (else b)))))
		  (my-if #f 1 2)`, "2"},
		{"binder of another macro", `(define-syntax ref-list (syntax-rules () ((_) list)))
		  (define-syntax bind-list (syntax-rules () ((_ e) (let ((list 99)) e))))
		  (bind-list ((ref-list) 1 2))`, "(1 2)"},
		{"own binder", `(define-syntax bind-list (syntax-rules () ((_ e) (let ((list 99)) (+ list e)))))
		  (bind-list 1)`, "100"},
		{"free identifier", `(define-syntax get-z (syntax-rules () ((_) z)))
		  (define z 'global)
		  (let ((z 'local)) (get-z))`, "global"},
	}
	for _, tt := range tests {
		got, err := run(t, NewEnvironment(), tt.src)
		if err != nil || got != tt.want {
			t.Errorf("%s: got %s, %v, want %s", tt.name, got, err, tt.want)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"(when)", ErrNoRuleMatched},
		{"(let ((x)) x)", ErrNoRuleMatched},
		{"(define-syntax bad (syntax-rules () ((_ a a) a)))", ErrMalformedRule},
		{`(define-syntax bad (syntax-rules () ((_ (a ...) (b ...)) ((a b) ...))))
		  (bad (1 2) (3))`, ErrEllipsisCountMismatch},
	}
	for _, tt := range tests {
		_, err := run(t, NewEnvironment(), tt.src)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: %v, want %v", tt.src, err, tt.want)
		}
	}

	for _, src := range []string{"undefined-thing", "(car '())", "(1 2)", "((lambda (x) x))"} {
		_, err := run(t, NewEnvironment(), src)
		var ee *EvalError
		if !errors.As(err, &ee) {
			t.Errorf("%s: %v, want an EvalError", src, err)
		}
	}
}

func TestStringifyBuiltin(t *testing.T) {
	got, err := run(t, NewEnvironment(), "car")
	if err != nil || !strings.HasPrefix(got, "#<0x") {
		t.Errorf("car = %s, %v, want #<0x...>", got, err)
	}
}
