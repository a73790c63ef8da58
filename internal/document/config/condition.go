package config

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// Condition is a declarative validator: a boolean expression evaluated
// against a block's raw payload. The expression is compiled lazily and
// at most once.
type Condition struct {
	Expression string

	once       sync.Once
	program    *vm.Program
	compileErr error
}

// Evaluate runs the condition against raw. Payload fields are available
// as top-level variables in the expression.
func (c *Condition) Evaluate(raw map[string]any) (bool, error) {
	c.once.Do(func() {
		program, err := expr.Compile(
			c.Expression,
			expr.Env(map[string]any{}),
			expr.AllowUndefinedVariables(),
			expr.AsBool(),
		)
		c.program, c.compileErr = program, errors.Wrap(err, "failed to compile condition program")
	})

	if c.program == nil {
		return false, c.compileErr
	}

	result, err := expr.Run(c.program, raw)
	if err != nil {
		return false, errors.Wrap(err, "failed to run condition program")
	}
	return result.(bool), nil
}
