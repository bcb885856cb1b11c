// Package filter compiles and evaluates record filter expressions.
//
// Expressions use expr-lang syntax against the fields of one captured
// request, e.g.:
//
//	method == "POST" && path startsWith "/api"
//	headers["Content-Type"] contains "json"
//	query["debug"] == "1"
//
// The API layer compiles the `q` query parameter once per request and
// applies it to snapshots and live streams alike.
package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/peekd/peekd/pkg/requestlog"
)

// Env is the variable set visible to filter expressions.
type Env struct {
	ID       string            `expr:"id"`
	Method   string            `expr:"method"`
	Path     string            `expr:"path"`
	Query    map[string]string `expr:"query"`
	Headers  map[string]string `expr:"headers"`
	Body     string            `expr:"body"`
	BodySize int               `expr:"bodySize"`
	ClientIP string            `expr:"clientIP"`
}

// Program is a compiled filter expression.
type Program struct {
	src  string
	prog *vm.Program
}

// Compile builds a filter from source. The expression must evaluate to a
// boolean.
func Compile(src string) (*Program, error) {
	prog, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", src, err)
	}
	return &Program{src: src, prog: prog}, nil
}

// Match reports whether rec satisfies the filter. A record that fails
// evaluation (e.g. a runtime type error) is treated as non-matching.
func (p *Program) Match(rec *requestlog.Record) bool {
	if rec == nil {
		return false
	}

	out, err := expr.Run(p.prog, Env{
		ID:       rec.ID,
		Method:   rec.Method,
		Path:     rec.Path,
		Query:    rec.Query,
		Headers:  rec.Headers,
		Body:     rec.Body,
		BodySize: rec.BodySize,
		ClientIP: rec.ClientIP,
	})
	if err != nil {
		return false
	}
	matched, ok := out.(bool)
	return ok && matched
}

// String returns the filter source.
func (p *Program) String() string {
	return p.src
}
