package expr

import (
	"fmt"
	"regexp"
	"strings"
)

var plainName = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// Evaluator resolves ${...} references in a value.
//
// Resolution of a reference:
//   - a name found in the scope is replaced by its value;
//   - an unknown plain name (letters, digits, '.', '_', '-') is kept as written;
//   - anything else is an expr-lang expression; compile or run errors are returned.
//
// $${...} is an escape and yields the literal ${...}.
type Evaluator struct {
	scope *Scope
	env   map[string]any
	cache programCache
}

// NewEvaluator creates an evaluator over scope.
func NewEvaluator(scope *Scope) *Evaluator {
	if scope == nil {
		scope = &Scope{}
	}
	return &Evaluator{scope: scope, env: scope.exprEnv()}
}

// Evaluate returns value with every reference resolved.
func (e *Evaluator) Evaluate(value string) (string, error) {
	if !strings.Contains(value, "${") {
		return value, nil
	}

	var sb strings.Builder
	i := 0
	for i < len(value) {
		open := strings.Index(value[i:], "${")
		if open < 0 {
			break
		}
		open += i
		closing := strings.IndexByte(value[open+2:], '}')
		if closing < 0 {
			break
		}
		end := open + 2 + closing + 1

		if open > i && value[open-1] == '$' {
			// Escaped: drop one '$' and keep the reference verbatim.
			sb.WriteString(value[i : open-1])
			sb.WriteString(value[open:end])
			i = end
			continue
		}

		sb.WriteString(value[i:open])
		resolved, err := e.resolve(value[open+2 : end-1])
		if err != nil {
			return "", err
		}
		if resolved == nil {
			sb.WriteString(value[open:end])
		} else {
			sb.WriteString(*resolved)
		}
		i = end
	}
	sb.WriteString(value[i:])
	return sb.String(), nil
}

// resolve returns nil when the reference should be left as written.
func (e *Evaluator) resolve(ref string) (*string, error) {
	name := strings.TrimSpace(ref)
	if v, ok := e.scope.Lookup(name); ok {
		return &v, nil
	}
	if name == "" || plainName.MatchString(name) {
		return nil, nil
	}

	compiled, err := e.cache.get(name)
	if err != nil {
		return nil, fmt.Errorf("evaluating ${%s}: %w", ref, err)
	}
	result, err := Run(compiled, e.env)
	if err != nil {
		return nil, err
	}

	var s string
	switch r := result.(type) {
	case nil:
	case string:
		s = r
	default:
		s = fmt.Sprint(r)
	}
	return &s, nil
}
