// Heist runs Scheme programs and an interactive loop.
//
// Usage:
//
//	heist [-trace] [-prompt p] [file...] [-]
//
// Each file is loaded in turn. The interactive loop runs if no file is
// given or the last argument is "-".
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/scanner"

	"github.com/Couraxe/heist"
	"github.com/peterh/liner"
)

var (
	trace  = flag.Bool("trace", false, "trace macro expansion")
	prompt = flag.String("prompt", "> ", "interactive prompt")
)

// linerLines reads lines with line editing and history.
type linerLines struct {
	state *liner.State
}

func (l *linerLines) ReadLine(prompt string) (string, error) {
	line, err := l.state.Prompt(prompt)
	if err == liner.ErrPromptAborted {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if line != "" {
		l.state.AppendHistory(line)
	}
	return line, nil
}

// ReadEvalPrintLoop repeats read-eval-print until End-Of-File.
func ReadEvalPrintLoop(reader *heist.Reader, env *heist.Environment) {
	for {
		exp, err := reader.Read(*prompt, "| ")
		if err != nil {
			fmt.Println(err)
			continue
		}
		if exp == scanner.EOF {
			fmt.Println("Goodby")
			return
		}
		result, err := heist.Eval(exp, env)
		switch {
		case err != nil:
			fmt.Println(err)
		case result != heist.Void:
			fmt.Println(heist.Stringify(result, true))
		}
	}
}

func main() {
	flag.Parse()
	heist.SetTracing(*trace)
	args := flag.Args()
	interactive := len(args) == 0
	if n := len(args); n > 0 && args[n-1] == "-" {
		interactive = true
		args = args[:n-1]
	}
	for _, file := range args {
		if err := heist.Load(file, heist.GlobalEnv); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if !interactive {
		return
	}
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)
	heist.Input = heist.NewReader(&linerLines{state})
	ReadEvalPrintLoop(heist.Input, heist.GlobalEnv)
}
