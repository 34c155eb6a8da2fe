package m_rule_set

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the rule_sets table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// ReadColumns lists the columns Data is scanned from.
func (m *Model) ReadColumns() []string {
	return []string{
		RuleSetID,
		CatalogID,
		Name,
		Priority,
		ProductIDs,
		Selector,
		Rules,
		ScheduleStart,
		ScheduleEnd,
		Status,
		CreatedAt,
		UpdatedAt,
	}
}

// UpsertMut writes the whole row. created_at is taken from data so a
// re-saved rule set keeps its original creation time.
func (m *Model) UpsertMut(data *Data) *spanner.Mutation {
	return spanner.InsertOrUpdate(
		TableName,
		m.ReadColumns(),
		[]interface{}{
			data.RuleSetID,
			data.CatalogID,
			data.Name,
			data.Priority,
			data.ProductIDs,
			data.Selector,
			data.Rules,
			data.ScheduleStart,
			data.ScheduleEnd,
			data.Status,
			data.CreatedAt,
			spanner.CommitTimestamp,
		},
	)
}

// UpdateStatusMut enables or disables a rule set.
func (m *Model) UpdateStatusMut(ruleSetID, status string) *spanner.Mutation {
	return spanner.Update(
		TableName,
		[]string{RuleSetID, Status, UpdatedAt},
		[]interface{}{ruleSetID, status, spanner.CommitTimestamp},
	)
}
