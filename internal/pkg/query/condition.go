package query

import "fmt"

// Condition represents a WHERE clause condition.
// SQL returns the fragment and its parameters; parameter names must be
// derived from paramIndex (p<paramIndex>, p<paramIndex+1>, ...).
type Condition interface {
	SQL(paramIndex int) (string, map[string]interface{})
}

type cmpCondition struct {
	field string
	op    string
	value interface{}
}

func (c *cmpCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	name := fmt.Sprintf("p%d", paramIndex)
	return fmt.Sprintf("%s %s @%s", c.field, c.op, name), map[string]interface{}{name: c.value}
}

// Eq generates "field = @pN".
func Eq(field string, value interface{}) Condition {
	return &cmpCondition{field: field, op: "=", value: value}
}

// Lte generates "field <= @pN".
func Lte(field string, value interface{}) Condition {
	return &cmpCondition{field: field, op: "<=", value: value}
}

// Lt generates "field < @pN".
func Lt(field string, value interface{}) Condition {
	return &cmpCondition{field: field, op: "<", value: value}
}

// Gte generates "field >= @pN".
func Gte(field string, value interface{}) Condition {
	return &cmpCondition{field: field, op: ">=", value: value}
}

type nullCondition struct {
	field string
	not   bool
}

func (c *nullCondition) SQL(int) (string, map[string]interface{}) {
	if c.not {
		return c.field + " IS NOT NULL", map[string]interface{}{}
	}
	return c.field + " IS NULL", map[string]interface{}{}
}

// IsNull generates "field IS NULL".
func IsNull(field string) Condition {
	return &nullCondition{field: field}
}

// IsNotNull generates "field IS NOT NULL".
func IsNotNull(field string) Condition {
	return &nullCondition{field: field, not: true}
}

type orCondition struct {
	conds []Condition
}

// Or joins conditions with OR inside parentheses.
func Or(conds ...Condition) Condition {
	return &orCondition{conds: conds}
}

func (c *orCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	params := make(map[string]interface{})
	parts := make([]string, 0, len(c.conds))
	for _, cond := range c.conds {
		fragment, p := cond.SQL(paramIndex + len(params))
		parts = append(parts, fragment)
		for k, v := range p {
			params[k] = v
		}
	}
	sql := "("
	for i, part := range parts {
		if i > 0 {
			sql += " OR "
		}
		sql += part
	}
	return sql + ")", params
}
