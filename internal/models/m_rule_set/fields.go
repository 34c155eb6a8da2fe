package m_rule_set

// Field name constants for the rule_sets table.
const (
	TableName = "rule_sets"

	RuleSetID     = "rule_set_id"
	CatalogID     = "catalog_id"
	Name          = "name"
	Priority      = "priority"
	ProductIDs    = "product_ids"
	Selector      = "selector"
	Rules         = "rules"
	ScheduleStart = "schedule_start"
	ScheduleEnd   = "schedule_end"
	Status        = "status"
	CreatedAt     = "created_at"
	UpdatedAt     = "updated_at"
)

// Rule set status constants
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)
