// Package ruledoc is the wire and storage form of rule sets.
//
// Documents are loosely typed (strings for tags, decimals as text) so they can
// be decoded from JSON, YAML or a Spanner JSON column; ToDomain turns them into
// the closed domain variants and reports anything that does not fit as a
// *domain.ValidationError.
package ruledoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// Decimal is a number carried as text. It decodes from JSON strings and numbers alike.
type Decimal string

// UnmarshalJSON accepts `"12.5"` and `12.5`.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	*d = Decimal(strings.Trim(string(data), `"`))
	return nil
}

// maxDecimalDigits bounds the digits of a Decimal, keeping rationals built
// from untrusted documents small.
const maxDecimalDigits = 30

// plainDecimal is an optionally signed decimal without exponent or fraction bar.
var plainDecimal = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)

func (d Decimal) rat() (*big.Rat, error) {
	text := strings.TrimSpace(string(d))
	if !plainDecimal.MatchString(text) {
		return nil, fmt.Errorf("invalid number %q: want a plain decimal such as 12.50", string(d))
	}
	if digits := len(strings.TrimLeft(text, "+-")) - strings.Count(text, "."); digits > maxDecimalDigits {
		return nil, fmt.Errorf("invalid number %q: more than %d digits", string(d), maxDecimalDigits)
	}
	r, ok := new(big.Rat).SetString(text)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", string(d))
	}
	return r, nil
}

// RuleSetDocument is a serialized domain.RuleSet.
type RuleSetDocument struct {
	ID         string            `json:"id" yaml:"id"`
	CatalogID  string            `json:"catalog_id" yaml:"catalog_id"`
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	Priority   int               `json:"priority,omitempty" yaml:"priority,omitempty"`
	ProductIDs []string          `json:"product_ids,omitempty" yaml:"product_ids,omitempty"`
	Selector   string            `json:"selector,omitempty" yaml:"selector,omitempty"`
	Schedule   *ScheduleDocument `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Rules      []RuleDocument    `json:"rules" yaml:"rules"`
}

// ScheduleDocument holds RFC 3339 timestamps; either may be empty.
type ScheduleDocument struct {
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// RuleDocument is a serialized domain.Rule.
type RuleDocument struct {
	ID        string            `json:"id" yaml:"id"`
	Condition ConditionDocument `json:"condition" yaml:"condition"`
	Action    ActionDocument    `json:"action" yaml:"action"`
	Rounding  RoundingDocument  `json:"rounding,omitempty" yaml:"rounding,omitempty"`
}

// ConditionDocument is the tagged form of a condition.
//
//	type: units_available | sales_velocity | date_window
//	operator: is | less_or_equal | greater_or_equal | between (date_window only)
type ConditionDocument struct {
	Type     string  `json:"type" yaml:"type"`
	Operator string  `json:"operator" yaml:"operator"`
	Value    Decimal `json:"value,omitempty" yaml:"value,omitempty"`
	TimeUnit string  `json:"time_unit,omitempty" yaml:"time_unit,omitempty"`
	Start    string  `json:"start,omitempty" yaml:"start,omitempty"`
	End      string  `json:"end,omitempty" yaml:"end,omitempty"`
}

// ActionDocument is a serialized domain.Action.
type ActionDocument struct {
	Type      string  `json:"type" yaml:"type"`
	ValueType string  `json:"value_type" yaml:"value_type"`
	Value     Decimal `json:"value" yaml:"value"`
}

// RoundingDocument is a serialized domain.RoundingPolicy.
type RoundingDocument struct {
	Type string  `json:"type,omitempty" yaml:"type,omitempty"`
	Unit Decimal `json:"unit,omitempty" yaml:"unit,omitempty"`
}

const dateOperatorBetween = "between"

// ToDomain converts the document. It checks structure (known tags, parsable
// numbers and dates) but not bounds; call Validate or ValidateBounds on the result.
func (d RuleSetDocument) ToDomain() (domain.RuleSet, error) {
	rs := domain.RuleSet{
		ID:         d.ID,
		CatalogID:  d.CatalogID,
		Name:       d.Name,
		Priority:   d.Priority,
		ProductIDs: append([]string(nil), d.ProductIDs...),
		Selector:   strings.TrimSpace(d.Selector),
		Rules:      make([]domain.Rule, 0, len(d.Rules)),
	}

	if d.Schedule != nil {
		schedule, err := d.Schedule.toDomain()
		if err != nil {
			return domain.RuleSet{}, &domain.ValidationError{RuleSetID: d.ID, Field: "schedule", Err: err}
		}
		rs.Schedule = schedule
	}

	for _, rd := range d.Rules {
		rule, err := rd.ToDomain()
		if err != nil {
			return domain.RuleSet{}, err
		}
		rs.Rules = append(rs.Rules, rule)
	}
	return rs, nil
}

func (s ScheduleDocument) toDomain() (*domain.Schedule, error) {
	var schedule domain.Schedule
	var err error
	if s.Start != "" {
		if schedule.Start, err = time.Parse(time.RFC3339, s.Start); err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
	}
	if s.End != "" {
		if schedule.End, err = time.Parse(time.RFC3339, s.End); err != nil {
			return nil, fmt.Errorf("end: %w", err)
		}
	}
	return &schedule, nil
}

// ToDomain converts a single rule document.
func (d RuleDocument) ToDomain() (domain.Rule, error) {
	fail := func(field string, err error) (domain.Rule, error) {
		return domain.Rule{}, &domain.ValidationError{RuleID: d.ID, Field: field, Err: err}
	}

	cond, err := d.Condition.toDomain()
	if err != nil {
		return fail("condition", err)
	}

	value, err := d.Action.Value.rat()
	if err != nil {
		return fail("action.value", err)
	}

	rounding := domain.RoundingPolicy{Type: domain.RoundingType(strings.ToLower(d.Rounding.Type))}
	if rounding.Type == "" {
		rounding.Type = domain.RoundingNone
	}
	if d.Rounding.Unit != "" {
		unit, err := d.Rounding.Unit.rat()
		if err != nil {
			return fail("rounding.unit", err)
		}
		rounding.Unit = domain.NewMoneyFromRat(unit)
	}

	return domain.Rule{
		ID:        d.ID,
		Condition: cond,
		Action: domain.Action{
			Type:      domain.ActionType(strings.ToLower(d.Action.Type)),
			ValueType: domain.ValueType(strings.ToLower(d.Action.ValueType)),
			Value:     value,
		},
		Rounding: rounding,
	}, nil
}

func (c ConditionDocument) toDomain() (domain.Condition, error) {
	op := domain.Operator(strings.ToLower(c.Operator))

	switch domain.ConditionKind(strings.ToLower(c.Type)) {
	case domain.ConditionUnitsAvailable:
		value, err := c.Value.rat()
		if err != nil {
			return nil, err
		}
		if !value.IsInt() || !value.Num().IsInt64() {
			return nil, fmt.Errorf("units available must be a whole number, got %s", c.Value)
		}
		return domain.UnitsAvailable{Operator: op, Value: value.Num().Int64()}, nil

	case domain.ConditionSalesVelocity:
		value, err := c.Value.rat()
		if err != nil {
			return nil, err
		}
		unit := domain.TimeUnit(strings.ToLower(c.TimeUnit))
		if unit == "" {
			unit = domain.TimeUnitDay
		}
		return domain.SalesVelocity{Operator: op, Value: value, TimeUnit: unit}, nil

	case domain.ConditionDateWindow:
		start, err := civil.ParseDate(c.Start)
		if err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		switch string(op) {
		case string(domain.OperatorIs):
			return domain.DateWindowIs{Date: start}, nil
		case dateOperatorBetween:
			if c.End == "" {
				return nil, fmt.Errorf("between requires an end date")
			}
			end, err := civil.ParseDate(c.End)
			if err != nil {
				return nil, fmt.Errorf("end: %w", err)
			}
			return domain.DateWindowBetween{Start: start, End: end}, nil
		default:
			return nil, fmt.Errorf("unknown date window operator %q", c.Operator)
		}
	}

	return nil, fmt.Errorf("unknown condition type %q", c.Type)
}

// FromDomain converts a rule set into its document form.
func FromDomain(rs domain.RuleSet) RuleSetDocument {
	doc := RuleSetDocument{
		ID:         rs.ID,
		CatalogID:  rs.CatalogID,
		Name:       rs.Name,
		Priority:   rs.Priority,
		ProductIDs: append([]string(nil), rs.ProductIDs...),
		Selector:   rs.Selector,
		Rules:      make([]RuleDocument, 0, len(rs.Rules)),
	}
	if rs.Schedule != nil {
		doc.Schedule = &ScheduleDocument{}
		if !rs.Schedule.Start.IsZero() {
			doc.Schedule.Start = rs.Schedule.Start.Format(time.RFC3339)
		}
		if !rs.Schedule.End.IsZero() {
			doc.Schedule.End = rs.Schedule.End.Format(time.RFC3339)
		}
	}
	for _, rule := range rs.Rules {
		doc.Rules = append(doc.Rules, ruleFromDomain(rule))
	}
	return doc
}

func ruleFromDomain(rule domain.Rule) RuleDocument {
	doc := RuleDocument{
		ID: rule.ID,
		Action: ActionDocument{
			Type:      string(rule.Action.Type),
			ValueType: string(rule.Action.ValueType),
			Value:     ratDecimal(rule.Action.Value),
		},
		Rounding: RoundingDocument{Type: string(rule.Rounding.Type)},
	}
	if rule.Rounding.Unit != nil {
		doc.Rounding.Unit = Decimal(rule.Rounding.Unit.Exact())
	}

	switch c := rule.Condition.(type) {
	case domain.UnitsAvailable:
		doc.Condition = ConditionDocument{
			Type:     string(domain.ConditionUnitsAvailable),
			Operator: string(c.Operator),
			Value:    Decimal(fmt.Sprintf("%d", c.Value)),
		}
	case domain.SalesVelocity:
		doc.Condition = ConditionDocument{
			Type:     string(domain.ConditionSalesVelocity),
			Operator: string(c.Operator),
			Value:    ratDecimal(c.Value),
			TimeUnit: string(c.TimeUnit),
		}
	case domain.DateWindowIs:
		doc.Condition = ConditionDocument{
			Type:     string(domain.ConditionDateWindow),
			Operator: string(domain.OperatorIs),
			Start:    c.Date.String(),
		}
	case domain.DateWindowBetween:
		doc.Condition = ConditionDocument{
			Type:     string(domain.ConditionDateWindow),
			Operator: dateOperatorBetween,
			Start:    c.Start.String(),
			End:      c.End.String(),
		}
	}
	return doc
}

func ratDecimal(r *big.Rat) Decimal {
	if r == nil {
		return ""
	}
	return Decimal(domain.NewMoneyFromRat(r).Exact())
}

// MarshalRules encodes rules for the rule_sets.rules JSON column.
func MarshalRules(rules []domain.Rule) (string, error) {
	docs := make([]RuleDocument, 0, len(rules))
	for _, rule := range rules {
		docs = append(docs, ruleFromDomain(rule))
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("marshal rules: %w", err)
	}
	return string(data), nil
}

// UnmarshalRules decodes the rule_sets.rules JSON column.
func UnmarshalRules(data string) ([]domain.Rule, error) {
	var docs []RuleDocument
	if err := json.Unmarshal([]byte(data), &docs); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	rules := make([]domain.Rule, 0, len(docs))
	for _, doc := range docs {
		rule, err := doc.ToDomain()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
