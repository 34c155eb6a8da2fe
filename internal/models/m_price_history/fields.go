package m_price_history

// Table name constant
const TableName = "price_history"

// Field name constants for type-safe database access
const (
	HistoryID                    = "history_id"
	ProductID                    = "product_id"
	PriceNumerator               = "price_numerator"
	PriceDenominator             = "price_denominator"
	PreviousPriceNumerator       = "previous_price_numerator"
	PreviousPriceDenominator     = "previous_price_denominator"
	CompareAtNumerator           = "compare_at_numerator"
	CompareAtDenominator         = "compare_at_denominator"
	AverageUnitRetailNumerator   = "average_unit_retail_numerator"
	AverageUnitRetailDenominator = "average_unit_retail_denominator"
	RuleID                       = "rule_id"
	RuleSetID                    = "rule_set_id"
	RunID                        = "run_id"
	Reason                       = "reason"
	ChangedAt                    = "changed_at"
)
