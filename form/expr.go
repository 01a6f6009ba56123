package form

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// The `when` expression environment exposes a single variable:
//
//	values: map(string, string) — the submitted credential values
//
// Expressions must evaluate to a boolean. Indexing an absent key is a CEL
// runtime error, so expressions should guard with `in`:
//
//	"openai_api_base" in values && values["openai_api_base"].startsWith("https://")
var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error

	progMu   sync.RWMutex
	programs = make(map[string]cel.Program)
)

func whenEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("values", cel.MapType(cel.StringType, cel.StringType)),
		)
	})
	return env, envErr
}

// compileWhen returns the compiled program for an expression, caching
// compilations. Schemas are static, so the cache is never invalidated.
func compileWhen(expr string) (cel.Program, error) {
	progMu.RLock()
	prg, ok := programs[expr]
	progMu.RUnlock()
	if ok {
		return prg, nil
	}

	e, err := whenEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create expression environment: %w", err)
	}

	ast, issues := e.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile when expression %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("when expression %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err = e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to plan when expression %q: %w", expr, err)
	}

	progMu.Lock()
	programs[expr] = prg
	progMu.Unlock()

	return prg, nil
}

// evalWhen evaluates a `when` expression against the submitted values.
func evalWhen(expr string, values map[string]string) (bool, error) {
	prg, err := compileWhen(expr)
	if err != nil {
		return false, err
	}

	if values == nil {
		values = map[string]string{}
	}

	out, _, err := prg.Eval(map[string]any{"values": values})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate when expression %q: %w", expr, err)
	}

	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("when expression %q returned %T, want bool", expr, out.Value())
	}
	return b, nil
}
