package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/ruledoc"
	"github.com/light-bringer/dynprice-service/internal/models/m_rule_set"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
	"github.com/light-bringer/dynprice-service/internal/pkg/committer"
	"github.com/light-bringer/dynprice-service/internal/pkg/query"
)

// RuleSetRepo implements RuleSetStore for Spanner.
type RuleSetRepo struct {
	client    *spanner.Client
	committer *committer.Committer
	model     *m_rule_set.Model
	clock     clock.Clock
}

var _ contracts.RuleSetStore = (*RuleSetRepo)(nil)

// NewRuleSetRepo creates a new RuleSetRepo.
func NewRuleSetRepo(client *spanner.Client, c *committer.Committer, clk clock.Clock) *RuleSetRepo {
	return &RuleSetRepo{
		client:    client,
		committer: c,
		model:     m_rule_set.NewModel(),
		clock:     clk,
	}
}

// ActiveRuleSets returns the catalog's active rule sets created at or before asOf.
func (r *RuleSetRepo) ActiveRuleSets(ctx context.Context, catalogID string, asOf time.Time) ([]domain.RuleSet, error) {
	stmt := query.From(m_rule_set.TableName).
		Select(r.model.ReadColumns()...).
		Where(query.Eq(m_rule_set.CatalogID, catalogID)).
		Where(query.Eq(m_rule_set.Status, m_rule_set.StatusActive)).
		Where(query.Lte(m_rule_set.CreatedAt, asOf)).
		OrderBy(m_rule_set.Priority, query.Desc).
		OrderBy(m_rule_set.RuleSetID, query.Asc).
		Build()

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	sets := make([]domain.RuleSet, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate rule sets: %w", err)
		}
		rs, err := r.rowToDomain(row)
		if err != nil {
			return nil, err
		}
		sets = append(sets, *rs)
	}
	domain.SortRuleSets(sets)
	return sets, nil
}

// GetRuleSet returns a rule set regardless of status.
func (r *RuleSetRepo) GetRuleSet(ctx context.Context, ruleSetID string) (*domain.RuleSet, error) {
	row, err := r.client.Single().ReadRow(ctx, m_rule_set.TableName, spanner.Key{ruleSetID}, r.model.ReadColumns())
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrRuleSetNotFound
		}
		return nil, fmt.Errorf("failed to read rule set: %w", err)
	}
	return r.rowToDomain(row)
}

// Save validates and upserts rs as active. An existing row keeps its created_at;
// a new one uses rs.CreatedAt, or now when unset.
func (r *RuleSetRepo) Save(ctx context.Context, rs domain.RuleSet) error {
	if err := rs.Validate(); err != nil {
		return err
	}
	data, err := r.domainToData(rs)
	if err != nil {
		return err
	}

	return r.committer.ApplyWithReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		row, err := txn.ReadRow(ctx, m_rule_set.TableName, spanner.Key{rs.ID}, []string{m_rule_set.CreatedAt})
		switch {
		case err == nil:
			if err := row.Column(0, &data.CreatedAt); err != nil {
				return fmt.Errorf("failed to parse created_at: %w", err)
			}
		case spanner.ErrCode(err) == codes.NotFound:
			if data.CreatedAt.IsZero() {
				data.CreatedAt = r.clock.Now()
			}
		default:
			return fmt.Errorf("failed to read rule set: %w", err)
		}
		return txn.BufferWrite([]*spanner.Mutation{r.model.UpsertMut(data)})
	})
}

// DisableMut creates a mutation excluding a rule set from future runs.
func (r *RuleSetRepo) DisableMut(ruleSetID string) *spanner.Mutation {
	return r.model.UpdateStatusMut(ruleSetID, m_rule_set.StatusDisabled)
}

func (r *RuleSetRepo) domainToData(rs domain.RuleSet) (*m_rule_set.Data, error) {
	rules, err := ruledoc.MarshalRules(rs.Rules)
	if err != nil {
		return nil, err
	}
	data := &m_rule_set.Data{
		RuleSetID:  rs.ID,
		CatalogID:  rs.CatalogID,
		Name:       nullString(rs.Name),
		Priority:   int64(rs.Priority),
		ProductIDs: rs.ProductIDs,
		Selector:   nullString(rs.Selector),
		Rules:      spanner.NullJSON{Value: json.RawMessage(rules), Valid: true},
		Status:     m_rule_set.StatusActive,
		CreatedAt:  rs.CreatedAt,
	}
	if rs.Schedule != nil {
		data.ScheduleStart = spanner.NullTime{Time: rs.Schedule.Start, Valid: !rs.Schedule.Start.IsZero()}
		data.ScheduleEnd = spanner.NullTime{Time: rs.Schedule.End, Valid: !rs.Schedule.End.IsZero()}
	}
	return data, nil
}

func (r *RuleSetRepo) rowToDomain(row *spanner.Row) (*domain.RuleSet, error) {
	var data m_rule_set.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse rule set: %w", err)
	}

	// The JSON column decodes into generic values; re-encode for the typed decoder.
	raw, err := json.Marshal(data.Rules.Value)
	if err != nil {
		return nil, fmt.Errorf("rule set %s: failed to read rules: %w", data.RuleSetID, err)
	}
	rules, err := ruledoc.UnmarshalRules(string(raw))
	if err != nil {
		return nil, fmt.Errorf("rule set %s: %w", data.RuleSetID, err)
	}

	rs := &domain.RuleSet{
		ID:         data.RuleSetID,
		CatalogID:  data.CatalogID,
		Name:       data.Name.StringVal,
		Priority:   int(data.Priority),
		ProductIDs: data.ProductIDs,
		Selector:   data.Selector.StringVal,
		Rules:      rules,
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}
	if data.ScheduleStart.Valid || data.ScheduleEnd.Valid {
		rs.Schedule = &domain.Schedule{Start: data.ScheduleStart.Time, End: data.ScheduleEnd.Time}
	}
	return rs, nil
}
