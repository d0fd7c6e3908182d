package cli

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/qaeu/melvor-activity-monitor/internal/activity"
)

// recordFilter wraps a compiled CEL program evaluated per record. When
// disabled, Eval always returns true.
type recordFilter struct {
	prog    cel.Program
	enabled bool
}

func newRecordFilter(expr string) (recordFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return recordFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("message", cel.StringType),
		cel.Variable("count", cel.IntType),
		cel.Variable("quantity", cel.DoubleType),
		cel.Variable("has_quantity", cel.BoolType),
		cel.Variable("custom_id", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		// current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return recordFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return recordFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return recordFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return recordFilter{}, err
	}
	return recordFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against a record. When disabled,
// returns true.
func (f recordFilter) Eval(r activity.Record) bool {
	if !f.enabled {
		return true
	}
	var q float64
	if r.Quantity != nil {
		q = *r.Quantity
	}
	out, _, err := f.prog.Eval(map[string]interface{}{
		"kind":         r.Type,
		"message":      r.Message,
		"count":        int64(r.Count),
		"quantity":     q,
		"has_quantity": r.Quantity != nil,
		"custom_id":    r.CustomID,
		"ts_ms":        r.Timestamp,
		"now_ms":       time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
