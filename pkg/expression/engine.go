package expression

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/nexuscrm/registry/pkg/utils"
)

// Engine compiles and runs expr-lang expressions over record maps.
// Compiled programs are cached per expression string.
type Engine struct {
	programCache map[string]*vm.Program
	mu           sync.RWMutex
}

// NewEngine creates a new expression engine
func NewEngine() *Engine {
	return &Engine{
		programCache: make(map[string]*vm.Program),
	}
}

// Evaluate compiles (if needed) and runs an expression against the given environment
func (e *Engine) Evaluate(expression string, env map[string]interface{}) (interface{}, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return nil, err
	}

	if env == nil {
		env = map[string]interface{}{}
	}
	return expr.Run(program, env)
}

// EvaluateString runs an expression against a record and formats the result.
// Null columns are seen by the expression as empty strings so that
// concatenations over partially filled records still succeed.
func (e *Engine) EvaluateString(expression string, record map[string]interface{}) (string, error) {
	env := make(map[string]interface{}, len(record))
	for k, v := range record {
		if v == nil {
			env[k] = ""
		} else {
			env[k] = v
		}
	}

	out, err := e.Evaluate(expression, env)
	if err != nil {
		return "", err
	}
	return utils.FormatValue(out), nil
}

// Validate compiles an expression without running it
func (e *Engine) Validate(expression string) error {
	_, err := e.getProgram(expression)
	return err
}

func (e *Engine) getProgram(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.programCache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double check
	if prog, ok := e.programCache[expression]; ok {
		return prog, nil
	}

	// Records are untyped maps, so variables are resolved at run time
	options := []expr.Option{
		expr.AllowUndefinedVariables(),
		expr.Function("TODAY", func(params ...interface{}) (interface{}, error) {
			return time.Now().Format("2006-01-02"), nil
		}),
		expr.Function("NOW", func(params ...interface{}) (interface{}, error) {
			return time.Now().Format("2006-01-02 15:04:05"), nil
		}),
		expr.Function("LEN", func(params ...interface{}) (interface{}, error) {
			s, err := stringArg("LEN", params)
			if err != nil {
				return nil, err
			}
			return len(s), nil
		}),
		expr.Function("UPPER", func(params ...interface{}) (interface{}, error) {
			s, err := stringArg("UPPER", params)
			if err != nil {
				return nil, err
			}
			return strings.ToUpper(s), nil
		}),
		expr.Function("LOWER", func(params ...interface{}) (interface{}, error) {
			s, err := stringArg("LOWER", params)
			if err != nil {
				return nil, err
			}
			return strings.ToLower(s), nil
		}),
		expr.Function("CONCAT", func(params ...interface{}) (interface{}, error) {
			var sb strings.Builder
			for _, p := range params {
				sb.WriteString(utils.FormatValue(p))
			}
			return sb.String(), nil
		}),
		expr.Function("IF", func(params ...interface{}) (interface{}, error) {
			if len(params) != 3 {
				return nil, fmt.Errorf("IF requires 3 arguments (condition, true_value, false_value)")
			}
			cond, ok := params[0].(bool)
			if !ok {
				return nil, fmt.Errorf("IF condition must be boolean")
			}
			if cond {
				return params[1], nil
			}
			return params[2], nil
		}),
		expr.Function("ROUND", func(params ...interface{}) (interface{}, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("ROUND requires 2 arguments")
			}
			val, err := utils.ToFloat64(params[0])
			if err != nil {
				return nil, fmt.Errorf("ROUND arg 1 must be number")
			}
			prec, err := utils.ToInt64(params[1])
			if err != nil {
				return nil, fmt.Errorf("ROUND arg 2 must be integer")
			}

			mult := 1.0
			for i := int64(0); i < prec; i++ {
				mult *= 10
			}
			if val < 0 {
				return -float64(int64(-val*mult+0.5)) / mult, nil
			}
			return float64(int64(val*mult+0.5)) / mult, nil
		}),
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, err
	}

	e.programCache[expression] = program
	return program, nil
}

func stringArg(fn string, params []interface{}) (string, error) {
	if len(params) != 1 {
		return "", fmt.Errorf("%s requires 1 argument", fn)
	}
	s, ok := params[0].(string)
	if !ok {
		return "", fmt.Errorf("%s argument must be string", fn)
	}
	return s, nil
}
