package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/models/m_outbox"
	"github.com/light-bringer/dynprice-service/internal/pkg/query"
)

// OutboxRepo implements OutboxRepository for Spanner.
type OutboxRepo struct {
	client *spanner.Client
	model  *m_outbox.Model
}

var _ contracts.OutboxRepository = (*OutboxRepo)(nil)

// NewOutboxRepo creates a new OutboxRepo.
func NewOutboxRepo(client *spanner.Client) *OutboxRepo {
	return &OutboxRepo{
		client: client,
		model:  m_outbox.NewModel(),
	}
}

// InsertMut creates a mutation for inserting an outbox event.
func (r *OutboxRepo) InsertMut(event *contracts.OutboxEvent) *spanner.Mutation {
	// RawMessage keeps the payload from being re-encoded as a JSON string
	payload := spanner.NullJSON{Value: json.RawMessage(event.Payload), Valid: event.Payload != ""}

	return r.model.InsertMut(&m_outbox.Data{
		EventID:     event.EventID,
		EventType:   event.EventType,
		AggregateID: event.AggregateID,
		Payload:     payload,
		Status:      event.Status,
	})
}

// Recent lists the newest events, optionally of one type.
func (r *OutboxRepo) Recent(ctx context.Context, eventType string, limit int) ([]*m_outbox.Data, error) {
	b := query.From(m_outbox.TableName).
		Select(m_outbox.EventID, m_outbox.EventType, m_outbox.AggregateID, m_outbox.Payload,
			m_outbox.Status, m_outbox.CreatedAt, m_outbox.ProcessedAt, m_outbox.RetryCount, m_outbox.ErrorMessage).
		OrderBy(m_outbox.CreatedAt, query.Desc).
		OrderBy(m_outbox.EventID, query.Asc).
		Limit(int64(limit))
	if eventType != "" {
		b = b.Where(query.Eq(m_outbox.EventType, eventType))
	}

	var events []*m_outbox.Data
	err := r.client.Single().Query(ctx, b.Build()).Do(func(row *spanner.Row) error {
		var data m_outbox.Data
		if err := row.ToStruct(&data); err != nil {
			return err
		}
		events = append(events, &data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox events: %w", err)
	}
	return events, nil
}

// Retention is how long processed events are kept, per terminal status.
type Retention struct {
	Completed time.Duration
	Failed    time.Duration
}

// PurgeStatement selects processed events older than their retention as of now.
func PurgeStatement(now time.Time, keep Retention) spanner.Statement {
	return query.From(m_outbox.TableName).
		Select(m_outbox.EventID).
		Where(query.Or(
			eventsBefore(m_outbox.StatusCompleted, now.Add(-keep.Completed)),
			eventsBefore(m_outbox.StatusFailed, now.Add(-keep.Failed)),
		)).
		Build()
}

type statusBefore struct {
	status string
	cutoff time.Time
}

func eventsBefore(status string, cutoff time.Time) query.Condition {
	return &statusBefore{status: status, cutoff: cutoff}
}

func (c *statusBefore) SQL(paramIndex int) (string, map[string]interface{}) {
	status, p1 := query.Eq(m_outbox.Status, c.status).SQL(paramIndex)
	before, p2 := query.Lt(m_outbox.ProcessedAt, c.cutoff).SQL(paramIndex + 1)
	for k, v := range p2 {
		p1[k] = v
	}
	return "(" + status + " AND " + before + ")", p1
}

// Purge deletes processed events past retention and returns how many went.
// With dryRun it only counts them.
func (r *OutboxRepo) Purge(ctx context.Context, now time.Time, keep Retention, dryRun bool) (int, error) {
	var ids []string
	iter := r.client.Single().Query(ctx, PurgeStatement(now, keep))
	err := iter.Do(func(row *spanner.Row) error {
		var id string
		if err := row.Columns(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list expired events: %w", err)
	}
	if dryRun || len(ids) == 0 {
		return len(ids), nil
	}

	for start := 0; start < len(ids); start += mutationBatchSize {
		end := min(start+mutationBatchSize, len(ids))
		muts := make([]*spanner.Mutation, 0, end-start)
		for _, id := range ids[start:end] {
			muts = append(muts, r.model.DeleteMut(id))
		}
		if _, err := r.client.Apply(ctx, muts); err != nil {
			return start, fmt.Errorf("failed to delete events: %w", err)
		}
	}
	return len(ids), nil
}
