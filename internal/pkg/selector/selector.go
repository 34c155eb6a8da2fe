// Package selector matches products against CEL expressions such as
//
//	product.category == "outerwear" && "clearance" in product.tags
//
// Compiled programs are cached by expression text.
package selector

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// costLimit bounds the work a single selector may do per product.
const costLimit = 100000

// ErrNotBoolean is returned for expressions that do not evaluate to a bool.
var ErrNotBoolean = errors.New("selector must evaluate to a bool")

// Matcher compiles and evaluates selectors. Safe for concurrent use.
type Matcher struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewMatcher creates a matcher with the `product` variable declared.
func NewMatcher() (*Matcher, error) {
	env, err := cel.NewEnv(
		cel.Variable("product", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Matcher{env: env, programs: make(map[string]cel.Program)}, nil
}

// Validate compiles the expression without evaluating it.
func (m *Matcher) Validate(expr string) error {
	_, err := m.program(expr)
	return err
}

// Match reports whether the product satisfies the expression.
func (m *Matcher) Match(expr string, p domain.ProductSnapshot) (bool, error) {
	prog, err := m.program(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prog.Eval(map[string]any{"product": Facts(p)})
	if err != nil {
		return false, fmt.Errorf("evaluate selector: %w", err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, ErrNotBoolean
	}
	return matched, nil
}

func (m *Matcher) program(expr string) (cel.Program, error) {
	m.mu.RLock()
	prog, ok := m.programs[expr]
	m.mu.RUnlock()
	if ok {
		return prog, nil
	}

	ast, issues := m.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, ErrNotBoolean
	}

	prog, err := m.env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	m.mu.Lock()
	m.programs[expr] = prog
	m.mu.Unlock()
	return prog, nil
}

// Facts is the map a selector sees as `product`.
func Facts(p domain.ProductSnapshot) map[string]any {
	tags := make([]string, len(p.Tags))
	copy(tags, p.Tags)

	facts := map[string]any{
		"id":         p.ID,
		"catalog_id": p.CatalogID,
		"sku":        p.SKU,
		"name":       p.Name,
		"category":   p.Category,
		"tags":       tags,
		"price":      0.0,
	}
	if p.Price != nil {
		facts["price"] = p.Price.Float64()
	}
	return facts
}
