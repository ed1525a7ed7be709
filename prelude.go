package heist

import (
	_ "embed"
)

//go:embed prelude.scm
var prelude string

// loadPrelude defines the derived expressions in env.
func loadPrelude(env *Environment) error {
	exps, err := Parse(prelude)
	if err != nil {
		return err
	}
	for _, exp := range exps {
		if _, err := Eval(exp, env); err != nil {
			return err
		}
	}
	return nil
}
