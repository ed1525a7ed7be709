package heist

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"

	"github.com/nukata/goarith"
)

func tryToReadNumber(s string) (goarith.Number, bool) {
	z := new(big.Int)
	if _, ok := z.SetString(s, 0); ok {
		return goarith.AsNumber(z), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return goarith.AsNumber(f), true
	}
	return nil, false
}

func readChar(text string) (Char, bool) {
	name := strings.TrimPrefix(text, `#\`)
	for c, n := range charNames {
		if n == name {
			return c, true
		}
	}
	if r := []rune(name); len(r) == 1 {
		return Char(r[0]), true
	}
	return 0, false
}

// SplitIntoTokens splits a source text into tokens.
func SplitIntoTokens(src io.Reader) []Any {
	result := make([]Any, 0, 100)
	var scn scanner.Scanner
	scn.Init(src)
	scn.Mode = scanner.ScanIdents | scanner.ScanStrings
	scn.IsIdentRune = func(ch rune, i int) bool {
		return (unicode.IsPrint(ch) && ch != ' ' && ch != ';' &&
			ch != '(' && ch != ')' && ch != '\'' && ch != '"')
	}
	scn.Error = func(s *scanner.Scanner, msg string) {
		panic(&EvalError{fmt.Sprintf("%s at %s", msg, s.Position)})
	}
	scn.Whitespace ^= 1 << '\n' // Don't skip new lines.
	scn.Whitespace |= 1 << '\f'
LOOP:
	for tok := scn.Scan(); tok != scanner.EOF; tok = scn.Scan() {
		switch tok {
		case ';': // Skip ;-comment
			for {
				tok = scn.Scan()
				if tok == scanner.EOF || tok == '\n' {
					continue LOOP
				}
			}
		case '\n':
			continue LOOP
		case '(', ')', '\'':
			result = append(result, tok)
		case scanner.String:
			text := scn.TokenText()
			if s, err := strconv.Unquote(text); err == nil {
				result = append(result, s)
			} else {
				result = append(result, text[1:len(text)-1]) // Trim quotes.
			}
		case scanner.Ident:
			text := scn.TokenText()
			if text == "#t" {
				result = append(result, true)
			} else if text == "#f" {
				result = append(result, false)
			} else if text == "." {
				result = append(result, '.')
			} else if text == `#\` { // #\( and the like
				result = append(result, Char(scn.Next()))
			} else if strings.HasPrefix(text, `#\`) {
				ch, ok := readChar(text)
				if !ok {
					panic(&EvalError{fmt.Sprintf("bad char %s at %s", text, scn.Position)})
				}
				result = append(result, ch)
			} else if n, ok := tryToReadNumber(text); ok {
				result = append(result, n)
			} else {
				sym := Intern(text)
				result = append(result, sym)
			}
		default:
			panic(&EvalError{fmt.Sprintf("illegal char %q at %s", tok, scn.Position)})
		}
	}
	return result
}

type indexError int

func peek(tokens *[]Any) Any {
	tt := *tokens
	if len(tt) == 0 {
		panic(indexError(0))
	}
	return tt[0]
}

func pop(tokens *[]Any) Any {
	result := peek(tokens)
	*tokens = (*tokens)[1:]
	return result
}

// ReadFromTokens reads a Scheme expression from tokens.
// `tokens` will be left with the rest of tokens, if any.
func ReadFromTokens(tokens *[]Any) Any {
	token := pop(tokens)
	switch token {
	case '(':
		y := &Cell{Nil, Nil}
		z := y
		for peek(tokens) != ')' {
			if peek(tokens) == '.' {
				pop(tokens)
				y.Cdr = ReadFromTokens(tokens)
				if peek(tokens) != ')' {
					panic(&EvalError{") is expected"})
				}
				break
			}
			e := ReadFromTokens(tokens)
			cdr := &Cell{e, Nil}
			y.Cdr = cdr
			y = cdr
		}
		pop(tokens)
		return z.Cdr
	case ')':
		panic(&EvalError{"unexpected )"})
	case '.':
		panic(&EvalError{"unexpected ."})
	case '\'':
		e := ReadFromTokens(tokens)
		return &Cell{Quote, &Cell{e, Nil}} // 'e => (quote e)
	}
	return token
}

// ReadFromTokensSafely returns ReadFromTokens' result and
// whether tokens has not run out unexpectedly.
func ReadFromTokensSafely(tokens *[]Any) (result Any, ok bool) {
	defer func() {
		if err := recover(); err != nil {
			if _, succeeded := err.(indexError); succeeded {
				ok = false
			} else {
				panic(err)
			}
		}
	}()
	return ReadFromTokens(tokens), true
}

// Parse reads every expression of a source text.
func Parse(src string) (exps []Any, err error) {
	defer func() {
		switch e := recover().(type) {
		case nil:
		case indexError:
			err = &EvalError{"unexpected end of text"}
		case *EvalError:
			err = e
		default:
			panic(e)
		}
	}()
	tokens := SplitIntoTokens(strings.NewReader(src))
	for len(tokens) != 0 {
		exps = append(exps, ReadFromTokens(&tokens))
	}
	return exps, nil
}

//----------------------------------------------------------------------

// Load loads a source code from a file and evaluates it in env.
func Load(fileName string, env *Environment) error {
	src, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}
	exps, err := Parse(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", fileName, err)
	}
	for _, exp := range exps {
		if _, err := Eval(exp, env); err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}
	}
	return nil
}

// LineReader reads a line of input, showing prompt if it is interactive.
// It returns io.EOF at the end of input.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

type scannerLines struct {
	lines *bufio.Scanner
	out   io.Writer
}

// NewScannerLines returns a LineReader which reads lines from r and writes
// prompts to out.
func NewScannerLines(r io.Reader, out io.Writer) LineReader {
	return &scannerLines{bufio.NewScanner(r), out}
}

func (s *scannerLines) ReadLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.lines.Scan() {
		if err := s.lines.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.lines.Text(), nil
}

// Reader reads expressions from lines of input.
type Reader struct {
	Tokens []Any
	Lines  LineReader
}

// NewReader returns a Reader reading from lines.
func NewReader(lines LineReader) *Reader {
	return &Reader{Lines: lines}
}

// Input is the Reader of the read procedure.
var Input = NewReader(NewScannerLines(os.Stdin, os.Stdout))

// ReadExpression reads an expression, showing prompt1 before its first
// line and prompt2 before a continuation line. It returns scanner.EOF at
// the end of input.
func (r *Reader) ReadExpression(prompt1 string, prompt2 string) Any {
	for {
		old := r.Tokens[:]
		if exp, ok := ReadFromTokensSafely(&r.Tokens); ok {
			return exp
		}
		// Here peek(tokens) or pop(tokens) failed unexpectedly.
		prompt := prompt2
		if len(old) == 0 {
			prompt = prompt1
		}
		line, err := r.Lines.ReadLine(prompt)
		if err == io.EOF {
			r.Tokens = nil
			return scanner.EOF
		} else if err != nil {
			panic(err)
		}
		newTokens := SplitIntoTokens(strings.NewReader(line))
		r.Tokens = append(old, newTokens...)
	}
}

// Read is ReadExpression which returns an error instead of panicking.
// The pending tokens are discarded after an error.
func (r *Reader) Read(prompt1 string, prompt2 string) (exp Any, err error) {
	defer func() {
		if e := recover(); e != nil {
			r.Tokens = nil
			if ee, ok := e.(error); ok {
				err = ee
			} else {
				err = fmt.Errorf("%v", e)
			}
		}
	}()
	return r.ReadExpression(prompt1, prompt2), nil
}
