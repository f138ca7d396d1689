// Package expr evaluates the ${...} references embedded in configuration
// values. Plain names are looked up in property scopes; anything else is
// compiled and run as an expr-lang expression.
package expr

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// CompiledExpr represents a compiled expression ready for evaluation.
type CompiledExpr struct {
	Source  string
	program *vm.Program
}

// CompileUnchecked compiles an expression without type checking.
// The runtime environment shape is only known when the scope is built.
func CompileUnchecked(source string) (*CompiledExpr, error) {
	if source == "" {
		return nil, fmt.Errorf("empty expression")
	}

	program, err := expr.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("expression compile error: %w", err)
	}

	return &CompiledExpr{
		Source:  source,
		program: program,
	}, nil
}

// Run evaluates a compiled expression against env.
func Run(compiled *CompiledExpr, env map[string]any) (any, error) {
	if compiled == nil || compiled.program == nil {
		return nil, fmt.Errorf("nil compiled expression")
	}
	result, err := expr.Run(compiled.program, env)
	if err != nil {
		return nil, fmt.Errorf("expression eval error for %q: %w", compiled.Source, err)
	}
	return result, nil
}

// programCache memoizes compiled expressions by source.
type programCache struct {
	mu       sync.Mutex
	programs map[string]*CompiledExpr
}

func (c *programCache) get(source string) (*CompiledExpr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[source]; ok {
		return p, nil
	}
	p, err := CompileUnchecked(source)
	if err != nil {
		return nil, err
	}
	if c.programs == nil {
		c.programs = make(map[string]*CompiledExpr)
	}
	c.programs[source] = p
	return p, nil
}
